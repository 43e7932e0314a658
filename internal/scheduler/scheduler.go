package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/robfig/cron/v3"
)

// RunFunc executes one analysis run.
type RunFunc func(ctx context.Context) error

// Scheduler triggers analysis runs on a cron schedule.
type Scheduler struct {
	Cron *cron.Cron
	Run  RunFunc
	Ctx  context.Context

	mu      sync.Mutex
	running bool
}

// NewScheduler creates a new Scheduler with second-resolution cron specs.
func NewScheduler(ctx context.Context, run RunFunc) *Scheduler {
	return &Scheduler{
		Cron: cron.New(cron.WithSeconds()),
		Run:  run,
		Ctx:  ctx,
	}
}

// Register adds the analysis task on the given cron expression.
func (s *Scheduler) Register(expr string) error {
	if _, err := s.Cron.AddFunc(expr, s.task); err != nil {
		return fmt.Errorf("register analysis task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler and waits for a running task to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Println("[INFO] scheduler stopped")
}

// RunNow executes the task immediately (for RUN_ON_START).
func (s *Scheduler) RunNow() {
	s.task()
}

// task skips a tick while the previous run is still going. Failures are logged only.
func (s *Scheduler) task() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		log.Println("[WARN] previous analysis run still in progress, skipping")
		return
	}
	s.running = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	if err := s.Ctx.Err(); err != nil {
		log.Printf("[WARN] analysis run skipped: %v", err)
		return
	}
	log.Println("[INFO] running scheduled analysis")
	if err := s.Run(s.Ctx); err != nil {
		log.Printf("[ERROR] scheduled analysis: %v", err)
	}
}
