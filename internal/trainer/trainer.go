// Package trainer standardizes the feature matrix, partitions it and fits
// and scores every configured classifier.
package trainer

import (
	"context"
	"fmt"
	"log"

	"gonum.org/v1/gonum/mat"

	"BitcoinTrend/internal/classifier"
	"BitcoinTrend/internal/model"
)

// Scaler fit scopes.
const (
	FitOnAll   = "all"
	FitOnTrain = "train"
)

// Options control preprocessing.
type Options struct {
	TestFraction float64
	Seed         uint64
	FitOn        string // FitOnAll or FitOnTrain
}

// TrainedModel is a fitted classifier with its scores.
type TrainedModel struct {
	Classifier classifier.Classifier
	Score      model.ModelScore
	TrainProba []float64
	ValidProba []float64
}

// Outcome is the result of one training pass.
type Outcome struct {
	Split  model.Split
	Scaler *StandardScaler
	XTrain *mat.Dense
	YTrain []float64
	XValid *mat.Dense
	YValid []float64
	Models []TrainedModel
}

// Train scales x, splits it and fits each classifier in order, scoring
// every model by ROC-AUC on both partitions.
func Train(ctx context.Context, x mat.Matrix, y []float64, models []classifier.Classifier, opts Options) (*Outcome, error) {
	n, _ := x.Dims()
	if n != len(y) {
		return nil, fmt.Errorf("train: %d rows, %d labels", n, len(y))
	}
	split, err := TrainTestSplit(n, opts.TestFraction, opts.Seed)
	if err != nil {
		return nil, fmt.Errorf("train: %w", err)
	}

	scaler := &StandardScaler{}
	switch opts.FitOn {
	case FitOnTrain:
		err = scaler.Fit(Rows(x, split.Train))
	case FitOnAll, "":
		err = scaler.Fit(x)
	default:
		return nil, fmt.Errorf("train: unknown scaler scope %q", opts.FitOn)
	}
	if err != nil {
		return nil, fmt.Errorf("train: %w", err)
	}
	scaled, err := scaler.Transform(x)
	if err != nil {
		return nil, fmt.Errorf("train: %w", err)
	}

	out := &Outcome{
		Split:  split,
		Scaler: scaler,
		XTrain: Rows(scaled, split.Train),
		YTrain: Labels(y, split.Train),
		XValid: Rows(scaled, split.Valid),
		YValid: Labels(y, split.Valid),
	}

	for _, c := range models {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := c.Fit(out.XTrain, out.YTrain); err != nil {
			return nil, fmt.Errorf("fit %s: %w", c.Name(), err)
		}
		tm := TrainedModel{
			Classifier: c,
			TrainProba: c.PredictProba(out.XTrain),
			ValidProba: c.PredictProba(out.XValid),
		}
		tm.Score = model.ModelScore{
			Model:    c.Name(),
			TrainAUC: Score(out.YTrain, tm.TrainProba),
			ValidAUC: Score(out.YValid, tm.ValidProba),
		}
		if !tm.Score.ValidAUC.Defined {
			log.Printf("[WARN] %s: validation partition has a single class, AUC reported as 0.5", c.Name())
		}
		out.Models = append(out.Models, tm)
	}
	return out, nil
}
