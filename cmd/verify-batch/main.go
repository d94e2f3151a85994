package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/tomide-ade/docuverify/constants"
	"github.com/tomide-ade/docuverify/internal/common"
	"github.com/tomide-ade/docuverify/internal/export"
	"github.com/tomide-ade/docuverify/internal/ingest"
	"github.com/tomide-ade/docuverify/internal/llm/fireworks"
	"github.com/tomide-ade/docuverify/internal/pipeline"
	"github.com/tomide-ade/docuverify/internal/quality"
	"github.com/tomide-ade/docuverify/internal/validate"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		dir     = flag.String("dir", "", "directory of document images to verify (required)")
		out     = flag.String("out", "", "output directory for per-file results and summary.json")
		workers = flag.Int("workers", 0, "worker count; defaults to BATCH_WORKERS")
		xlsx    = flag.Bool("xlsx", false, "also write an XLSX review report")
	)
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if *dir == "" {
		printError("Error: --dir is required\n")
		os.Exit(1)
	}

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("configuration invalid", "error", err)
		os.Exit(1)
	}
	if *workers <= 0 {
		*workers = cfg.Batch.Workers
	}
	outputDir := *out
	if outputDir == "" {
		outputDir = cfg.Batch.OutputDir
	}

	files, stats, err := ingest.ListImages(*dir, nil)
	if err != nil {
		logger.Error("scan directory", "dir", *dir, "error", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		logger.Warn("no image files found", "dir", *dir, "scanned", stats.Scanned)
		return
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		logger.Error("create output directory", "dir", outputDir, "error", err)
		os.Exit(1)
	}

	extractor := fireworks.NewClient(fireworks.Config{
		APIKey:        cfg.LLM.APIKey,
		BaseURL:       cfg.LLM.BaseURL,
		Model:         cfg.LLM.Model,
		FallbackModel: cfg.LLM.FallbackModel,
		Timeout:       cfg.LLM.Timeout,
	}, logger)

	// One hash store per batch run: duplicates are flagged within this
	// invocation only.
	store := quality.NewHashStore(cfg.Quality.PHashMaxDistance)
	proc := pipeline.NewProcessor(
		logger,
		quality.NewGate(cfg.Quality.Threshold, logger),
		store,
		extractor,
		validate.NewValidator(logger),
		cfg.Quality.MaxImageSide,
	)

	var mu sync.Mutex
	entries := make(map[string]pipeline.BatchEntry, len(files))

	sink := func(job pipeline.Job, res pipeline.Result) {
		name := job.Doc.Name
		outFile := filepath.Join(outputDir, strings.TrimSuffix(name, filepath.Ext(name))+".json")
		if encoded, err := json.MarshalIndent(res, "", "  "); err != nil {
			logger.Error("encode result", "file", name, "error", err)
		} else if err := os.WriteFile(outFile, encoded, 0o644); err != nil {
			logger.Error("write result", "path", outFile, "error", err)
		}

		mu.Lock()
		entries[name] = pipeline.BatchEntry{
			File:   name,
			Status: res.Status,
			Score:  res.Score,
			Issues: res.Issues,
			Output: outFile,
		}
		mu.Unlock()
	}

	queue := pipeline.NewQueue(proc, logger, sink,
		pipeline.WithWorkers(*workers),
		pipeline.WithQueueSize(len(files)),
		pipeline.WithProcessTimeout(2*cfg.LLM.Timeout+time.Minute),
	)

	ctx := context.Background()
	for _, path := range files {
		imageBytes, err := os.ReadFile(path)
		if err != nil {
			logger.Error("read image", "path", path, "error", err)
			continue
		}
		queue.Enqueue(ctx, pipeline.Job{
			Doc: pipeline.RawDocument{
				Bytes:    imageBytes,
				MIMEType: constants.MIMEForExt(filepath.Ext(path)),
				Name:     filepath.Base(path),
			},
			SubmittedAt: time.Now(),
		})
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, time.Duration(len(files))*(2*cfg.LLM.Timeout+time.Minute))
	defer cancel()
	queue.Shutdown(shutdownCtx)

	// Deterministic summary order regardless of worker interleaving.
	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)

	var summary pipeline.BatchSummary
	for _, name := range names {
		summary.Add(entries[name])
	}

	summaryPath := filepath.Join(outputDir, "summary.json")
	if encoded, err := json.MarshalIndent(summary, "", "  "); err != nil {
		logger.Error("encode summary", "error", err)
	} else if err := os.WriteFile(summaryPath, encoded, 0o644); err != nil {
		logger.Error("write summary", "path", summaryPath, "error", err)
	}

	if *xlsx {
		report, err := export.NewService(logger).BuildBatchReportXLSX(summary)
		if err != nil {
			logger.Error("build xlsx report", "error", err)
		} else {
			reportPath := filepath.Join(outputDir, "report.xlsx")
			if err := os.WriteFile(reportPath, report, 0o644); err != nil {
				logger.Error("write xlsx report", "path", reportPath, "error", err)
			}
		}
	}

	logger.Info("batch complete",
		"total", summary.Total,
		"success", summary.Success,
		"manual_review", summary.ManualReview,
		"retry", summary.Retry,
		"error", summary.Error,
		"summary", summaryPath,
	)
}
