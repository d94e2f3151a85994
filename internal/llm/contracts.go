package llm

import (
	"context"
	"slices"
	"strings"

	"github.com/tomide-ade/docuverify/constants"
)

// Evidence locates where a field value was read on the document.
// BBox is absolute pixel coordinates [x1, y1, x2, y2].
type Evidence struct {
	Snippet string    `json:"snippet,omitempty"`
	BBox    []float64 `json:"bbox,omitempty"`
}

// DocumentFields is the visual-zone field set shared by every document
// variant. Dates keep their raw string so the validator can attribute
// format problems to the original value.
type DocumentFields struct {
	FullName       string              `json:"full_name,omitempty"`
	BirthDate      FlexDate            `json:"birth_date"`
	DocumentNumber string              `json:"document_number,omitempty"`
	IssueDate      FlexDate            `json:"issue_date"`
	ExpiryDate     FlexDate            `json:"expiry_date"`
	Nationality    string              `json:"nationality,omitempty"`
	MRZRaw         string              `json:"mrz_raw,omitempty"`
	Evidence       map[string]Evidence `json:"evidence,omitempty"`
}

// Passport is the passport variant; MRZ cross-validation applies.
type Passport struct {
	DocumentFields
	PassportType string `json:"passport_type,omitempty"`
}

// DriversLicense is the driver's license variant; it has no MRZ.
type DriversLicense struct {
	DocumentFields
	LicenseClass string `json:"license_class,omitempty"`
	Address      string `json:"address,omitempty"`
}

// ExtractionResult is the normalized shape we want from the vision model.
type ExtractionResult struct {
	DocumentType  constants.DocumentType `json:"document_type"`
	AIConfidence  float64                `json:"ai_confidence"`
	MissingFields []string               `json:"missing_fields"`
	Passport      *Passport              `json:"passport,omitempty"`
	DriversLicense *DriversLicense       `json:"drivers_license,omitempty"`
	RawText       string                 `json:"raw_text,omitempty"`
}

// Fields resolves the tagged variant into the shared field set.
// Returns nil when no document payload was extracted.
func (r *ExtractionResult) Fields() *DocumentFields {
	switch r.DocumentType {
	case constants.Passport:
		if r.Passport != nil {
			return &r.Passport.DocumentFields
		}
	case constants.DriversLicense:
		if r.DriversLicense != nil {
			return &r.DriversLicense.DocumentFields
		}
	default:
		if r.Passport != nil {
			return &r.Passport.DocumentFields
		}
		if r.DriversLicense != nil {
			return &r.DriversLicense.DocumentFields
		}
	}
	return nil
}

// Normalize clamps model-reported confidence into [0,1] and recomputes
// missing_fields as the union of the model's declaration and the
// required-for-type fields that came back empty.
func (r *ExtractionResult) Normalize() {
	if r.AIConfidence < 0 {
		r.AIConfidence = 0
	}
	if r.AIConfidence > 1 {
		r.AIConfidence = 1
	}
	if r.DocumentType != constants.Passport &&
		r.DocumentType != constants.DriversLicense {
		r.DocumentType = constants.Unknown
	}

	missing := append([]string(nil), r.MissingFields...)
	fields := r.Fields()
	for _, name := range constants.RequiredFieldsFor(r.DocumentType) {
		if fields == nil || fieldEmpty(fields, name) {
			missing = append(missing, name)
		}
	}
	slices.Sort(missing)
	r.MissingFields = slices.Compact(missing)
}

func fieldEmpty(f *DocumentFields, name string) bool {
	switch name {
	case "full_name":
		return strings.TrimSpace(f.FullName) == ""
	case "birth_date":
		return f.BirthDate.IsZero()
	case "document_number":
		return strings.TrimSpace(f.DocumentNumber) == ""
	case "issue_date":
		return f.IssueDate.IsZero()
	case "expiry_date":
		return f.ExpiryDate.IsZero()
	case "nationality":
		return strings.TrimSpace(f.Nationality) == ""
	case "mrz_raw":
		return strings.TrimSpace(f.MRZRaw) == ""
	}
	return false
}

// ExtractRequest carries the normalized image for one extraction call.
type ExtractRequest struct {
	ImageBytes   []byte
	MIMEType     string
	DocumentHint constants.DocumentType // optional; Unknown lets the model decide
}

// Extractor is the interface the pipeline depends on.
type Extractor interface {
	Extract(ctx context.Context, req ExtractRequest) (*ExtractionResult, []byte /*rawJSON*/, error)
}
