package pipeline

import (
	"github.com/tomide-ade/docuverify/constants"
	"github.com/tomide-ade/docuverify/internal/validate"
)

// BatchEntry is the per-file row in a batch summary.
type BatchEntry struct {
	File   string           `json:"file"`
	Status constants.Status `json:"status"`
	Score  float64          `json:"score"`
	Issues []validate.Issue `json:"issues"`
	Output string           `json:"output,omitempty"`
}

// BatchSummary aggregates the dispositions of one batch run.
type BatchSummary struct {
	Total        int          `json:"total"`
	Success      int          `json:"success"`
	ManualReview int          `json:"manual_review"`
	Retry        int          `json:"retry"`
	Error        int          `json:"error"`
	Results      []BatchEntry `json:"results"`
}

// Add records one result into the summary tallies.
func (s *BatchSummary) Add(entry BatchEntry) {
	s.Total++
	switch entry.Status {
	case constants.StatusSuccess:
		s.Success++
	case constants.StatusManualReview:
		s.ManualReview++
	case constants.StatusRetryUpload:
		s.Retry++
	case constants.StatusSystemError:
		s.Error++
	}
	s.Results = append(s.Results, entry)
}
