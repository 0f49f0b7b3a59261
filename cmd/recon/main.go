package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/ebran-flow/fraud-detection-sub001/internal/classify"
	"github.com/ebran-flow/fraud-detection-sub001/internal/config"
	"github.com/ebran-flow/fraud-detection-sub001/internal/domain"
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

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "run":
		runSingle(log, cfg)
	case "batch":
		runBatch(log, cfg)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Statement Reconciliation CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  recon <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  run       Reconcile a single parsed statement file")
	fmt.Println("  batch     Reconcile every statement file in a directory")
	fmt.Println("  help      Show this help message")
	fmt.Println("\nRun 'recon <command> -h' for more information on a command.")
}

func newEngine(cfg *config.Config) *recon.Engine {
	opts := recon.Options{
		Epsilon:            cfg.EpsilonDecimal(),
		PermutationCap:     cfg.PermutationCap,
		SignificantGapDays: cfg.SignificantGapDays,
	}
	return recon.NewEngine(opts, classify.Default())
}

func runSingle(log zerolog.Logger, cfg *config.Config) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	input := fs.String("input", "", "Path to the parsed statement JSON file")
	output := fs.String("output", "", "Path for the report JSON (defaults to stdout)")
	fs.Parse(os.Args[2:])

	if *input == "" {
		log.Fatal().Msg("Error: --input is required")
	}

	ctx := logger.WithContext(context.Background(), log)
	engine := newEngine(cfg)

	report, err := reconcileFile(ctx, engine, *input)
	if err != nil {
		log.Fatal().Err(err).Str("input", *input).Msg("Reconciliation failed")
	}

	if err := writeReport(report, *output); err != nil {
		log.Fatal().Err(err).Msg("Failed to write report")
	}
}

func runBatch(log zerolog.Logger, cfg *config.Config) {
	fs := flag.NewFlagSet("batch", flag.ExitOnError)
	dir := fs.String("dir", "", "Directory of parsed statement JSON files")
	outDir := fs.String("out", "", "Directory for report files (defaults to the input directory)")
	fs.Parse(os.Args[2:])

	if *dir == "" {
		log.Fatal().Msg("Error: --dir is required")
	}
	if *outDir == "" {
		*outDir = *dir
	}

	inputs, err := filepath.Glob(filepath.Join(*dir, "*.json"))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to list statement files")
	}
	var pending []string
	for _, path := range inputs {
		if !strings.HasSuffix(path, ".report.json") {
			pending = append(pending, path)
		}
	}
	if len(pending) == 0 {
		log.Warn().Str("dir", *dir).Msg("No statement files found")
		return
	}

	ctx, cancel := context.WithCancel(logger.WithContext(context.Background(), log))
	defer cancel()

	engine := newEngine(cfg)
	store := inmemory.NewStore()
	queue := inmemory.NewQueue(cfg.QueueSize, cfg.WorkerCount, store)

	handler := func(ctx context.Context, job jobs.Job) error {
		rj, ok := job.(*jobs.ReconcileStatementJob)
		if !ok {
			return fmt.Errorf("unexpected job type: %T", job)
		}
		report, err := reconcileFile(ctx, engine, rj.SourcePath)
		if err != nil {
			return err
		}
		return writeReport(report, rj.OutputPath)
	}

	if err := queue.Start(ctx, handler); err != nil {
		log.Fatal().Err(err).Msg("Failed to start workers")
	}

	for _, path := range pending {
		name := strings.TrimSuffix(filepath.Base(path), ".json")
		job := &jobs.ReconcileStatementJob{
			StatementID: name,
			SourcePath:  path,
			OutputPath:  filepath.Join(*outDir, name+".report.json"),
		}
		if err := queue.PublishReconcileStatement(ctx, job); err != nil {
			log.Error().Err(err).Str("input", path).Msg("Failed to enqueue statement")
		}
	}

	waitForCompletion(ctx, log, store, len(pending))

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := queue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during shutdown")
	}

	log.Info().Int("statements", len(pending)).Msg("Batch reconciliation finished")
}

// waitForCompletion polls the job store until every published job reached a
// terminal status.
func waitForCompletion(ctx context.Context, log zerolog.Logger, store *inmemory.Store, total int) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			done, _ := store.ListJobs(ctx, jobs.JobFilter{Status: jobs.JobStatusCompleted})
			failed, _ := store.ListJobs(ctx, jobs.JobFilter{Status: jobs.JobStatusFailed})
			if len(done)+len(failed) >= total {
				if len(failed) > 0 {
					log.Warn().Int("failed", len(failed)).Msg("Some statements failed")
				}
				return
			}
		}
	}
}

func reconcileFile(ctx context.Context, engine *recon.Engine, path string) (*domain.ReconciliationReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var record map[string]interface{}
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	stmt, err := recon.StatementFromRecord(record)
	if err != nil {
		return nil, err
	}
	return engine.Reconcile(ctx, stmt)
}

func writeReport(report *domain.ReconciliationReport, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	if path == "" {
		fmt.Println(string(data))
		return nil
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
