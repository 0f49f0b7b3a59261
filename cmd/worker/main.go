package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ebran-flow/fraud-detection-sub001/internal/classify"
	"github.com/ebran-flow/fraud-detection-sub001/internal/config"
	"github.com/ebran-flow/fraud-detection-sub001/internal/jobs"
	"github.com/ebran-flow/fraud-detection-sub001/internal/jobs/inmemory"
	"github.com/ebran-flow/fraud-detection-sub001/internal/logger"
	"github.com/ebran-flow/fraud-detection-sub001/internal/recon"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}
	log := logger.NewWithLevel(cfg.LogLevel)

	watchDir := os.Getenv("RECON_WATCH_DIR")
	if watchDir == "" {
		watchDir = "."
	}

	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(cfg.QueueSize, cfg.WorkerCount, jobStore)

	engine := recon.NewEngine(recon.Options{
		Epsilon:            cfg.EpsilonDecimal(),
		PermutationCap:     cfg.PermutationCap,
		SignificantGapDays: cfg.SignificantGapDays,
	}, classify.Default())

	log.Info().Str("watch_dir", watchDir).Int("workers", cfg.WorkerCount).Msg("Starting reconciliation worker")

	ctx, cancel := context.WithCancel(logger.WithContext(context.Background(), log))
	defer cancel()

	handler := func(ctx context.Context, job jobs.Job) error {
		rj, ok := job.(*jobs.ReconcileStatementJob)
		if !ok {
			return fmt.Errorf("unexpected job type: %T", job)
		}

		log.Info().
			Str("job_id", rj.JobID).
			Str("statement_id", rj.StatementID).
			Str("source", rj.SourcePath).
			Msg("Processing reconcile job")

		data, err := os.ReadFile(rj.SourcePath)
		if err != nil {
			return fmt.Errorf("reading %s: %w", rj.SourcePath, err)
		}
		var record map[string]interface{}
		if err := json.Unmarshal(data, &record); err != nil {
			return fmt.Errorf("parsing %s: %w", rj.SourcePath, err)
		}
		stmt, err := recon.StatementFromRecord(record)
		if err != nil {
			return err
		}

		report, err := engine.Reconcile(ctx, stmt)
		if err != nil {
			log.Error().Err(err).Str("job_id", rj.JobID).Msg("Reconciliation failed")
			return err
		}

		out, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding report: %w", err)
		}
		return os.WriteFile(rj.OutputPath, append(out, '\n'), 0o644)
	}

	if err := jobQueue.Start(ctx, handler); err != nil {
		log.Fatal().Err(err).Msg("Failed to start job consumer")
	}

	// Poll the watch directory and enqueue statements that have no report
	// yet. A filesystem watcher would be tidier, but polling keeps the
	// worker dependency-free on platform notification quirks.
	go pollForStatements(ctx, watchDir, jobQueue, jobStore)

	log.Info().Msg("Worker started, waiting for statements...")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down worker...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during graceful shutdown")
	}

	log.Info().Msg("Worker exited")
}

// pollForStatements enqueues every statement file that does not yet have a
// report next to it.
func pollForStatements(ctx context.Context, dir string, queue *inmemory.Queue, store *inmemory.Store) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	enqueued := make(map[string]bool)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
			if err != nil {
				continue
			}
			for _, path := range paths {
				if strings.HasSuffix(path, ".report.json") || enqueued[path] {
					continue
				}
				name := strings.TrimSuffix(filepath.Base(path), ".json")
				reportPath := filepath.Join(dir, name+".report.json")
				if _, err := os.Stat(reportPath); err == nil {
					enqueued[path] = true
					continue
				}
				job := &jobs.ReconcileStatementJob{
					StatementID: name,
					SourcePath:  path,
					OutputPath:  reportPath,
				}
				if err := queue.PublishReconcileStatement(ctx, job); err == nil {
					enqueued[path] = true
				}
			}
		}
	}
}
