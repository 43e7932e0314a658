// Package pipeline runs the analysis stages in order: load, explore,
// derive features, train and report.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"gonum.org/v1/gonum/mat"

	"BitcoinTrend/internal/calculator"
	"BitcoinTrend/internal/classifier"
	"BitcoinTrend/internal/collector"
	"BitcoinTrend/internal/config"
	"BitcoinTrend/internal/explorer"
	"BitcoinTrend/internal/model"
	"BitcoinTrend/internal/recorder"
	"BitcoinTrend/internal/report"
	"BitcoinTrend/internal/trace"
	"BitcoinTrend/internal/trainer"
)

// Result bundles everything one run produced.
type Result struct {
	RunID     string
	Table     *model.PriceTable
	Dataset   *model.Dataset
	Features  *mat.Dense
	Labels    []float64
	Split     model.Split
	Scaler    *trainer.StandardScaler
	Models    []trainer.TrainedModel
	Confusion *model.ConfusionMatrix
	Charts    []string
	StartedAt time.Time
	Duration  time.Duration
}

// Scores returns the evaluation of each model in training order.
func (r *Result) Scores() []model.ModelScore {
	out := make([]model.ModelScore, len(r.Models))
	for i, m := range r.Models {
		out[i] = m.Score
	}
	return out
}

// Pipeline holds the collaborators of a run. It keeps no state between runs.
type Pipeline struct {
	Config    *config.Config
	Collector *collector.Collector
	Recorder  recorder.Recorder
	Out       io.Writer
}

// New creates a Pipeline. A nil recorder disables persistence.
func New(cfg *config.Config, src collector.Source, rec recorder.Recorder, out io.Writer) *Pipeline {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	if out == nil {
		out = io.Discard
	}
	return &Pipeline{
		Config:    cfg,
		Collector: collector.NewCollector(src),
		Recorder:  rec,
		Out:       out,
	}
}

// BuildModels returns the three classifiers configured from cfg, in report order.
// seed shuffles the SVC probability folds.
func BuildModels(cfg config.ModelConfig, seed uint64) []classifier.Classifier {
	lr := classifier.NewLogisticRegression()
	if cfg.Logistic.C > 0 {
		lr.C = cfg.Logistic.C
	}
	if cfg.Logistic.MaxIter > 0 {
		lr.MaxIter = cfg.Logistic.MaxIter
	}

	svc := classifier.NewSVC()
	if cfg.SVC.C > 0 {
		svc.C = cfg.SVC.C
	}
	if cfg.SVC.Degree > 0 {
		svc.Degree = cfg.SVC.Degree
	}
	svc.Gamma = cfg.SVC.Gamma
	svc.Coef0 = cfg.SVC.Coef0
	svc.Seed = seed

	gb := classifier.NewGradientBoosting()
	if cfg.Boosting.Rounds > 0 {
		gb.Rounds = cfg.Boosting.Rounds
	}
	if cfg.Boosting.MaxDepth > 0 {
		gb.MaxDepth = cfg.Boosting.MaxDepth
	}
	if cfg.Boosting.LearningRate > 0 {
		gb.LearningRate = cfg.Boosting.LearningRate
	}
	if cfg.Boosting.Lambda > 0 {
		gb.Lambda = cfg.Boosting.Lambda
	}
	if cfg.Boosting.MinChildWeight > 0 {
		gb.MinChildWeight = cfg.Boosting.MinChildWeight
	}

	return []classifier.Classifier{lr, svc, gb}
}

func (p *Pipeline) printf(format string, args ...any) {
	fmt.Fprintf(p.Out, format, args...)
}

// Run executes every stage once. Recorder and workbook failures are logged, not returned.
func (p *Pipeline) Run(ctx context.Context) (res *Result, err error) {
	ctx, span := trace.StartSpan(ctx, "pipeline.run")
	defer func() { trace.End(span, err) }()

	res = &Result{RunID: uuid.NewString(), StartedAt: time.Now()}
	log.Printf("[INFO] run %s started", res.RunID)

	var charts *explorer.Charts
	if dir := p.Config.Output.ChartsDir; dir != "" && !p.Config.Explore.Skip {
		if charts, err = explorer.NewCharts(dir, p.Config.Explore.ZoomMax); err != nil {
			return nil, err
		}
	}

	if err := p.stage(ctx, "load", func(ctx context.Context) error {
		table, err := p.Collector.Collect(ctx)
		res.Table = table
		return err
	}); err != nil {
		return nil, err
	}

	if !p.Config.Explore.Skip {
		if err := p.stage(ctx, "explore", func(context.Context) error {
			if err := explorer.Summarize(p.Out, res.Table); err != nil {
				return err
			}
			if charts != nil {
				res.Charts = append(res.Charts, charts.RenderRaw(res.Table)...)
			}
			return nil
		}); err != nil {
			return nil, err
		}
	}

	if err := p.stage(ctx, "features", func(context.Context) error {
		ds, err := collector.ToDataset(res.Table)
		if err != nil {
			return err
		}
		calculator.Derive(ds)
		res.Dataset = ds
		if charts != nil {
			res.Charts = append(res.Charts, charts.RenderFeatures(ds)...)
		}
		res.Features, res.Labels, err = calculator.FeatureMatrix(ds)
		return err
	}); err != nil {
		return nil, err
	}

	if err := p.stage(ctx, "train", func(ctx context.Context) error {
		out, err := trainer.Train(ctx, res.Features, res.Labels, BuildModels(p.Config.Model, p.Config.Split.Seed), trainer.Options{
			TestFraction: p.Config.Split.TestFraction,
			Seed:         p.Config.Split.Seed,
			FitOn:        p.Config.Scaler.FitOn,
		})
		if err != nil {
			return err
		}
		res.Split = out.Split
		res.Scaler = out.Scaler
		res.Models = out.Models

		_, cols := out.XTrain.Dims()
		p.printf("%s", report.FormatSplit(len(out.Split.Train), len(out.Split.Valid), cols))
		p.printf("%s", report.FormatModelReport(res.Scores()))

		if len(out.Models) > 0 {
			first := out.Models[0]
			cm := trainer.Confusion(first.Score.Model, out.YValid, first.ValidProba, trainer.DefaultThreshold)
			res.Confusion = &cm
		}
		return nil
	}); err != nil {
		return nil, err
	}

	p.printf("%s", report.FormatLegend())
	if res.Confusion != nil {
		p.printf("%s", report.FormatConfusion(*res.Confusion))
		if charts != nil {
			if path, err := charts.ConfusionMatrix(*res.Confusion); err != nil {
				log.Printf("[WARN] chart: %v", err)
			} else {
				res.Charts = append(res.Charts, path)
			}
		}
	}

	res.Duration = time.Since(res.StartedAt)
	if trace.Enabled() {
		span.SetAttributes(runAttributes(res)...)
	}
	p.persist(ctx, res)
	log.Printf("[INFO] run %s finished in %s", res.RunID, res.Duration.Round(time.Millisecond))
	return res, nil
}

// runAttributes describes a finished run on its span.
func runAttributes(res *Result) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String("run.id", res.RunID),
		attribute.Int("run.rows", res.Dataset.Len()),
		attribute.Int("run.train_rows", len(res.Split.Train)),
		attribute.Int("run.valid_rows", len(res.Split.Valid)),
	}
	for _, sc := range res.Scores() {
		attrs = append(attrs, attribute.Float64("auc.valid."+sc.Model, sc.ValidAUC.Value))
	}
	return attrs
}

func (p *Pipeline) stage(ctx context.Context, name string, fn func(context.Context) error) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	ctx, span := trace.StartSpan(ctx, "pipeline."+name)
	defer func() { trace.End(span, err) }()

	start := time.Now()
	if err := fn(ctx); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	log.Printf("[INFO] stage %s done in %s", name, time.Since(start).Round(time.Millisecond))
	return nil
}

func (p *Pipeline) persist(ctx context.Context, res *Result) {
	_, span := trace.StartSpan(ctx, "pipeline.persist")
	defer span.End()

	if err := p.Recorder.RecordRun(&recorder.RunRecord{
		RunID:        res.RunID,
		StartedAt:    res.StartedAt,
		Duration:     res.Duration,
		Source:       p.Collector.Source.Name(),
		Rows:         res.Dataset.Len(),
		TrainRows:    len(res.Split.Train),
		ValidRows:    len(res.Split.Valid),
		TestFraction: res.Split.TestFraction,
		Seed:         res.Split.Seed,
		ScalerFitOn:  p.Config.Scaler.FitOn,
		Scores:       res.Scores(),
		Confusion:    res.Confusion,
	}); err != nil {
		log.Printf("[WARN] record run: %v", err)
	}

	if path := p.Config.Output.Workbook; path != "" {
		if err := report.WriteWorkbook(path, report.WorkbookData{
			RunID:     res.RunID,
			Dataset:   res.Dataset,
			Split:     res.Split,
			Scores:    res.Scores(),
			Confusion: res.Confusion,
		}); err != nil {
			log.Printf("[WARN] workbook: %v", err)
		} else {
			log.Printf("[INFO] workbook written: %s", path)
		}
	}
}
