package pipeline

import (
	"encoding/json"

	"github.com/tomide-ade/docuverify/constants"
	"github.com/tomide-ade/docuverify/internal/llm"
	"github.com/tomide-ade/docuverify/internal/validate"
)

// RawDocument is one submitted image. Immutable; created at ingestion and
// released after the run.
type RawDocument struct {
	Bytes    []byte
	MIMEType string
	Name     string                 // caller-supplied identifier, e.g. the file name
	TypeHint constants.DocumentType // optional; Unknown lets the model decide
}

// Result is the pipeline's sole externally observable artifact, constructed
// exactly once per run.
type Result struct {
	Status        constants.Status      `json:"status"`
	Score         float64               `json:"score"`
	LogicScore    float64               `json:"logic_score"`
	PHash         string                `json:"phash"`
	Issues        []validate.Issue      `json:"issues"`
	FlaggedFields []string              `json:"flagged_fields"`
	Payload       *llm.ExtractionResult `json:"payload"`
}

// MarshalJSON keeps issues and flagged_fields as [] rather than null so the
// canonical document always carries the same top-level shape.
func (r Result) MarshalJSON() ([]byte, error) {
	type alias Result
	a := alias(r)
	if a.Issues == nil {
		a.Issues = []validate.Issue{}
	}
	if a.FlaggedFields == nil {
		a.FlaggedFields = []string{}
	}
	return json.Marshal(a)
}
