package recorder

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BitcoinTrend/internal/model"
)

func sampleRun(started time.Time, validAUC float64) *RunRecord {
	return &RunRecord{
		RunID:        uuid.NewString(),
		StartedAt:    started,
		Duration:     1500 * time.Millisecond,
		Source:       "csv:bitcoin.csv",
		Rows:         3,
		TrainRows:    2,
		ValidRows:    1,
		TestFraction: 0.1,
		Seed:         2022,
		ScalerFitOn:  "all",
		Scores: []model.ModelScore{
			{Model: "LogisticRegression()", TrainAUC: model.Metric{Value: 1, Defined: true}, ValidAUC: model.Metric{Value: 0.5}},
			{Model: "GradientBoostingClassifier()", TrainAUC: model.Metric{Value: 0.9, Defined: true}, ValidAUC: model.Metric{Value: validAUC, Defined: true}},
		},
		Confusion: &model.ConfusionMatrix{Model: "LogisticRegression()", Counts: [2][2]int{{1, 0}, {0, 0}}},
	}
}

func TestSQLiteRecorder_RecordRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trend.db")
	rec, err := NewSQLiteRecorder(path)
	require.NoError(t, err)
	defer rec.Close()

	run := sampleRun(time.Unix(1700000000, 0), 0.75)
	require.NoError(t, rec.RecordRun(run))

	var metrics, confusion int
	require.NoError(t, rec.db.QueryRow(`SELECT COUNT(*) FROM model_metrics WHERE run_id = ?`, run.RunID).Scan(&metrics))
	require.NoError(t, rec.db.QueryRow(`SELECT COUNT(*) FROM confusion_matrices WHERE run_id = ?`, run.RunID).Scan(&confusion))
	assert.Equal(t, 2, metrics)
	assert.Equal(t, 1, confusion)

	var defined int
	require.NoError(t, rec.db.QueryRow(`SELECT valid_defined FROM model_metrics WHERE run_id = ? AND position = 0`, run.RunID).Scan(&defined))
	assert.Equal(t, 0, defined)
}

func TestSQLiteRecorder_DuplicateRunRollsBack(t *testing.T) {
	rec, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "trend.db"))
	require.NoError(t, err)
	defer rec.Close()

	run := sampleRun(time.Now(), 0.6)
	require.NoError(t, rec.RecordRun(run))
	assert.Error(t, rec.RecordRun(run))

	var n int
	require.NoError(t, rec.db.QueryRow(`SELECT COUNT(*) FROM model_metrics`).Scan(&n))
	assert.Equal(t, 2, n)
}

func TestSQLiteRecorder_RecentRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trend.db")
	rec, err := NewSQLiteRecorder(path)
	require.NoError(t, err)

	older := sampleRun(time.Unix(1700000000, 0), 0.55)
	newer := sampleRun(time.Unix(1700086400, 0), 0.8)
	require.NoError(t, rec.RecordRun(older))
	require.NoError(t, rec.RecordRun(newer))
	require.NoError(t, rec.Close())

	// Reopening keeps history and reruns migrations harmlessly.
	rec, err = NewSQLiteRecorder(path)
	require.NoError(t, err)
	defer rec.Close()

	runs, err := rec.RecentRuns(10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, newer.RunID, runs[0].RunID)
	assert.Equal(t, "GradientBoostingClassifier()", runs[0].BestModel)
	assert.InDelta(t, 0.8, runs[0].BestAUC, 1e-12)
	assert.Equal(t, 3, runs[1].Rows)

	runs, err = rec.RecentRuns(1)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestNoopRecorder(t *testing.T) {
	var rec Recorder = NewNoopRecorder()
	assert.NoError(t, rec.RecordRun(sampleRun(time.Now(), 0.5)))
	runs, err := rec.RecentRuns(5)
	assert.NoError(t, err)
	assert.Empty(t, runs)
	assert.NoError(t, rec.Close())
}
