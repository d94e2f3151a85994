// Package export produces XLSX review reports from batch summaries.
package export

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/tomide-ade/docuverify/internal/common"
	"github.com/tomide-ade/docuverify/internal/pipeline"
)

// Service renders an XLSX workbook for reviewers from a batch summary.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// BuildBatchReportXLSX returns an XLSX workbook (as bytes) with one row per
// verified document plus a tally row.
func (s *Service) BuildBatchReportXLSX(summary pipeline.BatchSummary) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	const sheet = "Verification"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, common.WrapError(err, "create sheet")
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{
		"File",
		"Status",
		"Score",
		"Issues",
		"Result Path",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, entry := range summary.Results {
		var issueTexts []string
		for _, issue := range entry.Issues {
			issueTexts = append(issueTexts, fmt.Sprintf("%s: %s", issue.Code, issue.Message))
		}
		values := []any{
			entry.File,
			string(entry.Status),
			entry.Score,
			strings.Join(issueTexts, "; "),
			entry.Output,
		}
		for i, v := range values {
			cell, _ := excelize.CoordinatesToCellName(i+1, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
		row++
	}

	// Tally row under the table.
	row++
	tally := fmt.Sprintf("total=%d success=%d manual_review=%d retry=%d error=%d",
		summary.Total, summary.Success, summary.ManualReview, summary.Retry, summary.Error)
	cell, _ := excelize.CoordinatesToCellName(1, row)
	_ = f.SetCellValue(sheet, cell, tally)

	// Drop the default sheet if it isn't ours.
	if idx, _ := f.GetSheetIndex("Sheet1"); idx != -1 && sheet != "Sheet1" {
		_ = f.DeleteSheet("Sheet1")
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, common.NewAppError("EXPORT_ERROR", "write workbook",
			fmt.Errorf("%w: %w", common.ErrInternal, err))
	}
	s.logger.Info("export.report_built",
		"rows", len(summary.Results),
		"bytes", buf.Len(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}
