package recorder

import (
	"time"

	"BitcoinTrend/internal/model"
)

// RunRecord holds everything persisted for one pipeline run.
type RunRecord struct {
	RunID        string
	StartedAt    time.Time
	Duration     time.Duration
	Source       string
	Rows         int
	TrainRows    int
	ValidRows    int
	TestFraction float64
	Seed         uint64
	ScalerFitOn  string
	Scores       []model.ModelScore
	Confusion    *model.ConfusionMatrix
}

// RunSummary is one row of the run history.
type RunSummary struct {
	RunID     string
	StartedAt time.Time
	Source    string
	Rows      int
	BestModel string
	BestAUC   float64
}

// Recorder persists run metrics for later comparison.
type Recorder interface {
	RecordRun(run *RunRecord) error
	RecentRuns(limit int) ([]RunSummary, error)
	Close() error
}
