package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists run metrics to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			run_id        TEXT PRIMARY KEY,
			started_at    INTEGER NOT NULL,
			duration_ms   INTEGER,
			source        TEXT,
			total_rows    INTEGER,
			train_rows    INTEGER,
			valid_rows    INTEGER,
			test_fraction REAL,
			seed          INTEGER,
			scaler_fit_on TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at)`,

		`CREATE TABLE IF NOT EXISTS model_metrics (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id        TEXT NOT NULL REFERENCES runs(run_id),
			position      INTEGER NOT NULL,
			model         TEXT NOT NULL,
			train_auc     REAL,
			train_defined INTEGER,
			valid_auc     REAL,
			valid_defined INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_metrics_run ON model_metrics(run_id)`,

		`CREATE TABLE IF NOT EXISTS confusion_matrices (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id         TEXT NOT NULL REFERENCES runs(run_id),
			model          TEXT NOT NULL,
			true_negative  INTEGER,
			false_positive INTEGER,
			false_negative INTEGER,
			true_positive  INTEGER
		)`,
	}
	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// RecordRun writes the run, its model metrics and confusion matrix in one transaction.
func (r *SQLiteRecorder) RecordRun(run *RunRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`INSERT INTO runs
		(run_id, started_at, duration_ms, source, total_rows, train_rows, valid_rows,
		 test_fraction, seed, scaler_fit_on)
		VALUES (?,?,?,?,?,?,?,?,?,?)`,
		run.RunID, run.StartedAt.Unix(), run.Duration.Milliseconds(), run.Source,
		run.Rows, run.TrainRows, run.ValidRows,
		run.TestFraction, int64(run.Seed), run.ScalerFitOn,
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for i, s := range run.Scores {
		if _, err := tx.Exec(`INSERT INTO model_metrics
			(run_id, position, model, train_auc, train_defined, valid_auc, valid_defined)
			VALUES (?,?,?,?,?,?,?)`,
			run.RunID, i, s.Model,
			s.TrainAUC.Value, boolInt(s.TrainAUC.Defined),
			s.ValidAUC.Value, boolInt(s.ValidAUC.Defined),
		); err != nil {
			return fmt.Errorf("insert metrics for %s: %w", s.Model, err)
		}
	}

	if cm := run.Confusion; cm != nil {
		if _, err := tx.Exec(`INSERT INTO confusion_matrices
			(run_id, model, true_negative, false_positive, false_negative, true_positive)
			VALUES (?,?,?,?,?,?)`,
			run.RunID, cm.Model,
			cm.Counts[0][0], cm.Counts[0][1], cm.Counts[1][0], cm.Counts[1][1],
		); err != nil {
			return fmt.Errorf("insert confusion matrix: %w", err)
		}
	}
	return tx.Commit()
}

// RecentRuns returns the latest runs first, each with its best validation AUC.
func (r *SQLiteRecorder) RecentRuns(limit int) ([]RunSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`SELECT r.run_id, r.started_at, r.source, r.total_rows,
			COALESCE((SELECT m.model FROM model_metrics m WHERE m.run_id = r.run_id
				ORDER BY m.valid_auc DESC, m.position LIMIT 1), ''),
			COALESCE((SELECT MAX(m.valid_auc) FROM model_metrics m WHERE m.run_id = r.run_id), 0)
		FROM runs r
		ORDER BY r.started_at DESC, r.rowid DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var s RunSummary
		var started int64
		if err := rows.Scan(&s.RunID, &started, &s.Source, &s.Rows, &s.BestModel, &s.BestAUC); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		s.StartedAt = time.Unix(started, 0)
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}
