package explorer

import (
	"errors"
	"fmt"
	"image/color"
	"log"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"BitcoinTrend/internal/calculator"
	"BitcoinTrend/internal/model"
)

// Chart file names written into the charts directory.
const (
	FileClose         = "close.png"
	FileDistributions = "distributions.png"
	FileBoxPlots      = "boxplots.png"
	FileYearlyMeans   = "yearly_means.png"
	FileTargetPie     = "target_pie.png"
	FileCorrelation   = "correlation.png"
	FileConfusion     = "confusion_matrix.png"
)

const (
	// DefaultZoomMax is the upper bound of the zoomed price histograms.
	DefaultZoomMax = 10000
	// CorrelationCut marks pairs whose correlation exceeds it.
	CorrelationCut = 0.8

	histBins = 50
)

// ClassNames are the legend names of the two target classes, indexed by label.
var ClassNames = [2]string{"Goes up", "Goes down"}

// Charts renders PNG diagnostics into Dir.
type Charts struct {
	Dir     string
	ZoomMax float64
}

// NewCharts creates the output directory if needed.
func NewCharts(dir string, zoomMax float64) (*Charts, error) {
	if dir == "" {
		return nil, errors.New("charts directory is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create charts dir: %w", err)
	}
	if zoomMax <= 0 {
		zoomMax = DefaultZoomMax
	}
	return &Charts{Dir: dir, ZoomMax: zoomMax}, nil
}

func (c *Charts) path(name string) string { return filepath.Join(c.Dir, name) }

func formatPercent(p float64) string { return fmt.Sprintf("%.1f%%", p) }

func save(p *plot.Plot, w, h vg.Length, path string) error {
	if err := p.Save(w, h, path); err != nil {
		return fmt.Errorf("save %s: %w", filepath.Base(path), err)
	}
	return nil
}

// saveGrid draws a row-major grid of plots onto one PNG.
func saveGrid(plots [][]*plot.Plot, w, h vg.Length, path string) error {
	img := vgimg.New(w, h)
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows:      len(plots),
		Cols:      len(plots[0]),
		PadX:      vg.Millimeter * 4,
		PadY:      vg.Millimeter * 4,
		PadTop:    vg.Millimeter * 2,
		PadBottom: vg.Millimeter * 2,
		PadLeft:   vg.Millimeter * 2,
		PadRight:  vg.Millimeter * 2,
	}
	canvases := plot.Align(plots, tiles, dc)
	for j := range plots {
		for i := range plots[j] {
			plots[j][i].Draw(canvases[j][i])
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", filepath.Base(path), err)
	}
	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}

// ClosePrice draws the close series over time.
func (c *Charts) ClosePrice(t *model.PriceTable) (string, error) {
	var xys plotter.XYs
	for _, b := range t.Bars {
		if b.Close.Valid {
			xys = append(xys, plotter.XY{X: float64(b.Time.Unix()), Y: b.Close.Float64})
		}
	}
	if len(xys) == 0 {
		return "", errors.New("close chart: no close prices")
	}

	p := plot.New()
	p.Title.Text = "Bitcoin Close price."
	p.Y.Label.Text = "Price in dollars."
	p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01"}
	line, err := plotter.NewLine(xys)
	if err != nil {
		return "", fmt.Errorf("close chart: %w", err)
	}
	line.Color = plotutil.Color(0)
	p.Add(line, plotter.NewGrid())

	path := c.path(FileClose)
	return path, save(p, 15*vg.Inch, 5*vg.Inch, path)
}

// histogram returns a plot of values, or an empty titled plot when they cannot be binned.
func histogram(title string, values []float64, lo, hi float64, clip bool) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.Y.Label.Text = "Count"
	if clip {
		kept := values[:0:0]
		for _, v := range values {
			if v >= lo && v <= hi {
				kept = append(kept, v)
			}
		}
		values = kept
		p.X.Min, p.X.Max = lo, hi
	}
	vmin, vmax := calculator.Range(values)
	if len(values) == 0 || vmin == vmax {
		p.Title.Text += " (not enough spread)"
		return p, nil
	}
	h, err := plotter.NewHist(plotter.Values(values), histBins)
	if err != nil {
		return nil, err
	}
	h.FillColor = plotutil.Color(0)
	p.Add(h)
	if clip {
		p.X.Min, p.X.Max = lo, hi
	}
	return p, nil
}

// Distributions draws, per OHLC column, a full histogram next to one
// restricted to [0, ZoomMax].
func (c *Charts) Distributions(t *model.PriceTable) (string, error) {
	plots := make([][]*plot.Plot, len(model.PriceColumns))
	for i, col := range model.PriceColumns {
		vals := t.Values(col)
		full, err := histogram(col, vals, 0, 0, false)
		if err != nil {
			return "", fmt.Errorf("distributions %s: %w", col, err)
		}
		zoom, err := histogram(fmt.Sprintf("%s (0 to %.0f)", col, c.ZoomMax), vals, 0, c.ZoomMax, true)
		if err != nil {
			return "", fmt.Errorf("distributions %s: %w", col, err)
		}
		plots[i] = []*plot.Plot{full, zoom}
	}
	path := c.path(FileDistributions)
	return path, saveGrid(plots, 20*vg.Inch, 16*vg.Inch, path)
}

// BoxPlots draws a box per OHLC column with its quartiles and upper fence.
func (c *Charts) BoxPlots(t *model.PriceTable) (string, error) {
	plots := make([][]*plot.Plot, 2)
	for i, col := range model.PriceColumns {
		p := plot.New()
		vals := t.Values(col)
		s, err := calculator.Describe(vals)
		if err != nil {
			p.Title.Text = col + " (no values)"
			plots[i/2] = append(plots[i/2], p)
			continue
		}
		_, upper := s.Fences()
		p.Title.Text = fmt.Sprintf("%s   Fence line: %.2f", col, upper)
		p.X.Label.Text = fmt.Sprintf("25%%: %.2f   median: %.2f   75%%: %.2f", s.Q1, s.Median, s.Q3)

		box, err := plotter.NewBoxPlot(vg.Points(60), 0, plotter.Values(vals))
		if err != nil {
			return "", fmt.Errorf("box plot %s: %w", col, err)
		}
		box.FillColor = plotutil.Color(i)
		fence, err := plotter.NewLine(plotter.XYs{{X: -0.5, Y: upper}, {X: 0.5, Y: upper}})
		if err != nil {
			return "", fmt.Errorf("box plot %s: %w", col, err)
		}
		fence.Dashes = []vg.Length{vg.Points(6), vg.Points(3)}
		fence.Color = color.RGBA{R: 200, A: 255}
		p.Add(box, fence)
		p.NominalX(col)
		plots[i/2] = append(plots[i/2], p)
	}
	path := c.path(FileBoxPlots)
	return path, saveGrid(plots, 20*vg.Inch, 10*vg.Inch, path)
}

// YearlyMeans draws the per-year mean of each OHLC column as bars.
func (c *Charts) YearlyMeans(ds *model.Dataset) (string, error) {
	if ds.Len() == 0 {
		return "", errors.New("yearly means: empty dataset")
	}
	plots := make([][]*plot.Plot, 2)
	for i, col := range model.PriceColumns {
		means := calculator.YearlyMeans(ds.Records, col)
		vals := make(plotter.Values, len(means))
		years := make([]string, len(means))
		for k, m := range means {
			vals[k] = m.Mean
			years[k] = strconv.Itoa(m.Year)
		}
		p := plot.New()
		p.Title.Text = col
		p.X.Label.Text = "year"
		p.Y.Label.Text = col
		bars, err := plotter.NewBarChart(vals, vg.Points(24))
		if err != nil {
			return "", fmt.Errorf("yearly means %s: %w", col, err)
		}
		bars.Color = plotutil.Color(i)
		bars.LineStyle.Width = 0
		p.Add(bars)
		p.NominalX(years...)
		plots[i/2] = append(plots[i/2], p)
	}
	path := c.path(FileYearlyMeans)
	return path, saveGrid(plots, 20*vg.Inch, 10*vg.Inch, path)
}

// TargetPie draws the share of each label among labelled records.
func (c *Charts) TargetPie(ds *model.Dataset) (string, error) {
	counts := calculator.ClassBalance(ds.Records)
	values := []float64{float64(counts[model.TargetUp]), float64(counts[model.TargetDown])}
	if values[0]+values[1] == 0 {
		return "", errors.New("target pie: no labelled records")
	}

	p := plot.New()
	p.HideAxes()
	p.Add(pieChart{Values: values, Colors: []color.Color{plotutil.Color(0), plotutil.Color(1)}})

	inner, outer := pieLabels(values, ClassNames[:])
	for _, l := range []plotter.XYLabels{inner, outer} {
		labels, err := plotter.NewLabels(l)
		if err != nil {
			return "", fmt.Errorf("target pie: %w", err)
		}
		centerLabels(labels)
		p.Add(labels)
	}
	path := c.path(FileTargetPie)
	return path, save(p, 6*vg.Inch, 6*vg.Inch, path)
}

func centerLabels(l *plotter.Labels) {
	for i := range l.TextStyle {
		l.TextStyle[i].XAlign = draw.XCenter
		l.TextStyle[i].YAlign = draw.YCenter
	}
}

// matrixGrid adapts a matrix to plotter.GridXYZ with row 0 drawn at the top.
type matrixGrid struct {
	m mat.Matrix
}

func (g matrixGrid) Dims() (c, r int) {
	r, c = g.m.Dims()
	return c, r
}

func (g matrixGrid) Z(c, r int) float64 {
	rows, _ := g.m.Dims()
	return g.m.At(rows-1-r, c)
}

func (g matrixGrid) X(c int) float64 { return float64(c) }
func (g matrixGrid) Y(r int) float64 { return float64(r) }

// annotatedHeatMap renders m with one text label per cell; label(i, j) names cell (row i, col j).
func annotatedHeatMap(m mat.Matrix, xNames, yNames []string, label func(i, j int) string) (*plot.Plot, error) {
	hm := plotter.NewHeatMap(matrixGrid{m: m}, palette.Heat(12, 1))
	if hm.Max == hm.Min {
		hm.Max = hm.Min + 1
	}

	rows, cols := m.Dims()
	var cells plotter.XYLabels
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			cells.XYs = append(cells.XYs, plotter.XY{X: float64(j), Y: float64(rows - 1 - i)})
			cells.Labels = append(cells.Labels, label(i, j))
		}
	}
	labels, err := plotter.NewLabels(cells)
	if err != nil {
		return nil, err
	}
	centerLabels(labels)

	p := plot.New()
	p.Add(hm, labels)
	p.NominalX(xNames...)
	reversed := make([]string, len(yNames))
	for i, n := range yNames {
		reversed[len(yNames)-1-i] = n
	}
	p.NominalY(reversed...)
	return p, nil
}

// Correlation draws which column pairs correlate above CorrelationCut.
func (c *Charts) Correlation(ds *model.Dataset) (string, error) {
	labelled := ds.Labelled()
	if len(labelled) < 2 {
		return "", errors.New("correlation: need at least two labelled records")
	}
	cols := calculator.CorrelationColumns
	mask := calculator.Threshold(calculator.CorrelationMatrix(labelled, cols), CorrelationCut)

	p, err := annotatedHeatMap(mask, cols, cols, func(i, j int) string {
		if mask.At(i, j) == 1 {
			return "True"
		}
		return "False"
	})
	if err != nil {
		return "", fmt.Errorf("correlation: %w", err)
	}
	p.Title.Text = fmt.Sprintf("corr > %.1f", CorrelationCut)
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = draw.XRight
	path := c.path(FileCorrelation)
	return path, save(p, 10*vg.Inch, 10*vg.Inch, path)
}

// ConfusionMatrix draws the counts of true against predicted labels.
func (c *Charts) ConfusionMatrix(cm model.ConfusionMatrix) (string, error) {
	m := mat.NewDense(2, 2, nil)
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			m.Set(i, j, float64(cm.Counts[i][j]))
		}
	}
	names := []string{"0", "1"}
	p, err := annotatedHeatMap(m, names, names, func(i, j int) string {
		return strconv.Itoa(cm.Counts[i][j])
	})
	if err != nil {
		return "", fmt.Errorf("confusion matrix: %w", err)
	}
	p.Title.Text = cm.Model
	p.X.Label.Text = "Predicted label"
	p.Y.Label.Text = "True label"
	path := c.path(FileConfusion)
	return path, save(p, 6*vg.Inch, 6*vg.Inch, path)
}

// RenderRaw draws the charts that only need the raw table.
func (c *Charts) RenderRaw(t *model.PriceTable) []string {
	return c.render([]func() (string, error){
		func() (string, error) { return c.ClosePrice(t) },
		func() (string, error) { return c.Distributions(t) },
		func() (string, error) { return c.BoxPlots(t) },
	})
}

// RenderFeatures draws the charts over derived fields.
func (c *Charts) RenderFeatures(ds *model.Dataset) []string {
	return c.render([]func() (string, error){
		func() (string, error) { return c.YearlyMeans(ds) },
		func() (string, error) { return c.TargetPie(ds) },
		func() (string, error) { return c.Correlation(ds) },
	})
}

// render runs each chart, logging failures instead of aborting; charts are diagnostics only.
func (c *Charts) render(charts []func() (string, error)) []string {
	var written []string
	for _, chart := range charts {
		path, err := chart()
		if err != nil {
			log.Printf("[WARN] chart: %v", err)
			continue
		}
		written = append(written, path)
	}
	return written
}
