package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/tomide-ade/docuverify/constants"
	"github.com/tomide-ade/docuverify/internal/common"
	"github.com/tomide-ade/docuverify/internal/llm/fireworks"
	"github.com/tomide-ade/docuverify/internal/pipeline"
	"github.com/tomide-ade/docuverify/internal/quality"
	"github.com/tomide-ade/docuverify/internal/redact"
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
		imagePath  = flag.String("image", "", "path to the document image (required)")
		mime       = flag.String("mime", "", "MIME type override; inferred from extension otherwise")
		output     = flag.String("output", "", "path for the JSON result; stdout when empty")
		doRedact   = flag.Bool("redact", false, "also write a redacted JPEG next to the result")
		hintString = flag.String("type", "", "document type hint: passport or drivers_license")
	)
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if *imagePath == "" {
		printError("Error: --image is required\n")
		os.Exit(1)
	}

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("configuration invalid", "error", err)
		os.Exit(1)
	}

	imageBytes, err := os.ReadFile(*imagePath)
	if err != nil {
		logger.Error("cannot read image", "path", *imagePath, "error", err)
		os.Exit(1)
	}
	mimeType := *mime
	if mimeType == "" {
		mimeType = constants.MIMEForExt(filepath.Ext(*imagePath))
	}

	extractor := fireworks.NewClient(fireworks.Config{
		APIKey:        cfg.LLM.APIKey,
		BaseURL:       cfg.LLM.BaseURL,
		Model:         cfg.LLM.Model,
		FallbackModel: cfg.LLM.FallbackModel,
		Timeout:       cfg.LLM.Timeout,
	}, logger)

	proc := pipeline.NewProcessor(
		logger,
		quality.NewGate(cfg.Quality.Threshold, logger),
		nil, // single-image invocations use no duplicate store
		extractor,
		validate.NewValidator(logger),
		cfg.Quality.MaxImageSide,
	)

	result := proc.Run(context.Background(), pipeline.RawDocument{
		Bytes:    imageBytes,
		MIMEType: mimeType,
		Name:     filepath.Base(*imagePath),
		TypeHint: constants.DocumentType(*hintString),
	})

	encoded, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		logger.Error("encode result", "error", err)
		os.Exit(1)
	}

	if *output == "" {
		fmt.Println(string(encoded))
	} else {
		if err := os.MkdirAll(filepath.Dir(*output), 0o755); err != nil {
			logger.Error("create output directory", "error", err)
			os.Exit(1)
		}
		if err := os.WriteFile(*output, encoded, 0o644); err != nil {
			logger.Error("write result", "path", *output, "error", err)
			os.Exit(1)
		}
		logger.Info("result written", "path", *output, "status", string(result.Status))
	}

	if *doRedact && result.Payload != nil {
		boxes := redact.EvidenceBoxes(result.Payload)
		redacted, err := redact.Redact(imageBytes, boxes)
		if err != nil {
			logger.Error("redaction failed", "error", err)
			os.Exit(1)
		}
		stem := strings.TrimSuffix(*imagePath, filepath.Ext(*imagePath))
		redactedPath := stem + ".redacted.jpg"
		if err := os.WriteFile(redactedPath, redacted, 0o644); err != nil {
			logger.Error("write redacted image", "path", redactedPath, "error", err)
			os.Exit(1)
		}
		logger.Info("redacted image written", "path", redactedPath, "boxes", len(boxes))
	}
}
