package explorer

import (
	"image/color"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// pieRadius leaves room around the unit circle for slice names.
const pieRadius = 1.35

// pieChart draws filled wedges on a unit circle, counter-clockwise from 3 o'clock.
type pieChart struct {
	Values []float64
	Colors []color.Color
}

// arcStep is the angular resolution of a wedge outline.
const arcStep = math.Pi / 90

func (pc pieChart) Plot(c draw.Canvas, plt *plot.Plot) {
	total := floats.Sum(pc.Values)
	if total <= 0 {
		return
	}
	trX, trY := plt.Transforms(&c)
	start := 0.0
	for i, v := range pc.Values {
		sweep := 2 * math.Pi * v / total
		if sweep == 0 {
			continue
		}
		steps := int(math.Ceil(sweep/arcStep)) + 1
		pts := make([]vg.Point, 0, steps+2)
		pts = append(pts, vg.Point{X: trX(0), Y: trY(0)})
		for k := 0; k <= steps; k++ {
			a := start + sweep*float64(k)/float64(steps)
			pts = append(pts, vg.Point{X: trX(math.Cos(a)), Y: trY(math.Sin(a))})
		}
		c.FillPolygon(pc.Colors[i%len(pc.Colors)], pts)
		start += sweep
	}
}

func (pc pieChart) DataRange() (xmin, xmax, ymin, ymax float64) {
	return -pieRadius, pieRadius, -pieRadius, pieRadius
}

// SlicePercents returns each value as a percentage of the total.
func SlicePercents(values []float64) []float64 {
	out := make([]float64, len(values))
	total := floats.Sum(values)
	if total == 0 {
		return out
	}
	for i, v := range values {
		out[i] = 100 * v / total
	}
	return out
}

// pieLabels places a percentage inside each wedge and its name just outside.
func pieLabels(values []float64, names []string) (inner, outer plotter.XYLabels) {
	pct := SlicePercents(values)
	start := 0.0
	for i, p := range pct {
		mid := start + math.Pi*p/100
		start += 2 * math.Pi * p / 100
		inner.XYs = append(inner.XYs, plotter.XY{X: 0.6 * math.Cos(mid), Y: 0.6 * math.Sin(mid)})
		inner.Labels = append(inner.Labels, formatPercent(p))
		outer.XYs = append(outer.XYs, plotter.XY{X: 1.15 * math.Cos(mid), Y: 1.15 * math.Sin(mid)})
		outer.Labels = append(outer.Labels, names[i])
	}
	return inner, outer
}
