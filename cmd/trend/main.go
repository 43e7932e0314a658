package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"BitcoinTrend/internal/collector"
	"BitcoinTrend/internal/config"
	"BitcoinTrend/internal/pipeline"
	"BitcoinTrend/internal/recorder"
	"BitcoinTrend/internal/report"
	"BitcoinTrend/internal/scheduler"
	"BitcoinTrend/internal/trace"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	if err := run(); err != nil {
		log.Fatalf("[FATAL] %v", err)
	}
}

func run() error {
	history := flag.Int("history", 0, "print the last N recorded runs and exit")
	mockRows := flag.Int("mock", 0, "analyse N synthetic bars instead of the CSV file")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("[WARN] load .env: %v", err)
	}

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}

	if err := trace.Init(cfg.Tracing.Enabled, os.Stderr); err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := trace.Shutdown(ctx); err != nil {
			log.Printf("[WARN] trace shutdown: %v", err)
		}
	}()

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SqlitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SqlitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	if *history > 0 {
		runs, err := rec.RecentRuns(*history)
		if err != nil {
			return fmt.Errorf("read history: %w", err)
		}
		fmt.Print(report.FormatHistory(runs))
		return nil
	}

	var src collector.Source = collector.NewCSVSource(cfg.Data.Path)
	if *mockRows > 0 {
		src = &collector.MockSource{Count: *mockRows}
	}
	log.Printf("[INFO] data source: %s", src.Name())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	p := pipeline.New(cfg, src, rec, os.Stdout)
	analyse := func(ctx context.Context) error {
		_, err := p.Run(ctx)
		return err
	}

	if cfg.Schedule.Cron == "" {
		if err := analyse(ctx); err != nil {
			return fmt.Errorf("analysis: %w", err)
		}
		return nil
	}

	sched := scheduler.NewScheduler(ctx, analyse)
	if err := sched.Register(cfg.Schedule.Cron); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	if os.Getenv("RUN_ON_START") == "true" {
		log.Println("[INFO] RUN_ON_START enabled, executing analysis now")
		go sched.RunNow()
	}

	log.Printf("[INFO] analysis scheduled on %q. Press Ctrl+C to stop.", cfg.Schedule.Cron)
	<-ctx.Done()
	log.Println("[INFO] shutdown signal received, stopping...")
	return nil
}
