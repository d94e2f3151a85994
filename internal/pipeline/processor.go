// Package pipeline coordinates the verification stages: quality gate,
// extraction, validation, and scoring. A technical rejection or extraction
// failure short-circuits to a terminal status without invoking downstream
// stages.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tomide-ade/docuverify/constants"
	"github.com/tomide-ade/docuverify/internal/llm"
	"github.com/tomide-ade/docuverify/internal/quality"
	"github.com/tomide-ade/docuverify/internal/score"
	"github.com/tomide-ade/docuverify/internal/validate"
)

// Processor runs one document through the scoring pipeline. The hash store
// is batch-scoped and owned by the caller; a nil store disables duplicate
// detection (single-image invocations).
type Processor struct {
	Logger    *slog.Logger
	Gate      *quality.Gate
	Store     *quality.HashStore
	Extractor llm.Extractor
	Validator *validate.Validator
	MaxSide   int
}

func NewProcessor(logger *slog.Logger, gate *quality.Gate, store *quality.HashStore, extractor llm.Extractor, validator *validate.Validator, maxSide int) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if gate == nil {
		gate = quality.NewGate(0, logger)
	}
	if validator == nil {
		validator = validate.NewValidator(logger)
	}
	if maxSide <= 0 {
		maxSide = 1024
	}
	return &Processor{
		Logger:    logger,
		Gate:      gate,
		Store:     store,
		Extractor: extractor,
		Validator: validator,
		MaxSide:   maxSide,
	}
}

// Run executes the pipeline for one document. It never returns an error:
// every failure mode is captured into Result.Status plus a human-readable
// issue.
func (p *Processor) Run(ctx context.Context, doc RawDocument) Result {
	runID := uuid.New().String()
	start := time.Now()
	name := doc.Name
	if name == "" {
		name = runID
	}

	qa := p.Gate.Assess(doc.Bytes, name, p.Store)

	if !qa.TechnicalPass || qa.IsDuplicate {
		var issues []validate.Issue
		if qa.IsDuplicate {
			issues = append(issues, validate.Issue{
				Code:     constants.IssueDuplicateUpload,
				Message:  "duplicate upload detected in this batch",
				Severity: constants.SeverityBlocking,
			})
		}
		if !qa.TechnicalPass {
			issues = append(issues, validate.Issue{
				Code:     constants.IssueBlurReject,
				Message:  fmt.Sprintf("image too blurry (score %.2f < %.2f)", qa.BlurScore, p.Gate.Threshold()),
				Severity: constants.SeverityBlocking,
			})
		}
		p.Logger.Info("pipeline.technical_reject",
			"run_id", runID, "doc", name,
			"blur_score", qa.BlurScore, "duplicate", qa.IsDuplicate,
		)
		return Result{
			Status: constants.StatusRetryUpload,
			PHash:  qa.PHash,
			Issues: issues,
		}
	}

	resized, mimeType, err := quality.ShrinkToFit(doc.Bytes, doc.MIMEType, p.MaxSide)
	if err != nil {
		// Unreachable in practice: the gate already decoded this image.
		resized, mimeType = doc.Bytes, doc.MIMEType
	}

	extraction, _, err := p.Extractor.Extract(ctx, llm.ExtractRequest{
		ImageBytes:   resized,
		MIMEType:     mimeType,
		DocumentHint: doc.TypeHint,
	})
	if err != nil {
		p.Logger.Error("pipeline.extraction_failed", "run_id", runID, "doc", name, "error", err)
		return Result{
			Status: constants.StatusSystemError,
			PHash:  qa.PHash,
			Issues: []validate.Issue{{
				Code:     constants.IssueExtractionFailed,
				Message:  "extraction failed after fallback attempt: " + err.Error(),
				Severity: constants.SeverityBlocking,
			}},
		}
	}

	outcome := p.Validator.Assess(extraction)
	ucs := score.Unified(extraction.AIConfidence, qa.QualityScore, outcome.LogicScore)
	status := score.StatusFor(ucs)

	p.Logger.Info("pipeline.done",
		"run_id", runID, "doc", name,
		"status", string(status), "score", ucs,
		"ai_confidence", extraction.AIConfidence,
		"quality_score", qa.QualityScore,
		"logic_score", outcome.LogicScore,
		"issues", len(outcome.Issues),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	return Result{
		Status:        status,
		Score:         ucs,
		LogicScore:    outcome.LogicScore,
		PHash:         qa.PHash,
		Issues:        outcome.Issues,
		FlaggedFields: outcome.FlaggedFields,
		Payload:       extraction,
	}
}
