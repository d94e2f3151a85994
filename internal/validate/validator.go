package validate

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/tomide-ade/docuverify/constants"
	"github.com/tomide-ade/docuverify/internal/llm"
)

// Penalty policy. MRZ disagreement weighs heaviest because it suggests
// tampering or extraction error rather than a benign formatting slip.
const (
	penaltyFormat = 0.15
	penaltyDate   = 0.20
	penaltyMRZ    = 0.30
)

var (
	passportNumberPattern = regexp.MustCompile(`^[A-Z0-9]{6,9}$`)
	licenseNumberPattern  = regexp.MustCompile(`^[A-Z0-9\-]{5,20}$`)
)

// Issue is one validation finding. Order of detection is deterministic and
// preserved for reproducible assertions.
type Issue struct {
	Code     constants.IssueCode `json:"code"`
	Message  string              `json:"message"`
	Field    string              `json:"field,omitempty"`
	Severity constants.Severity  `json:"severity"`
}

// Outcome is the validator's verdict: a logic score in [0,1], the ordered
// issue list, and the fields implicated by blocking issues.
type Outcome struct {
	LogicScore    float64
	Issues        []Issue
	FlaggedFields []string
}

// Validator runs the business-logic checks over a successful extraction.
// It quantifies confidence rather than rejecting: malformed inputs only
// accumulate issues and depress the score.
type Validator struct {
	logger *slog.Logger
	now    func() time.Time
}

func NewValidator(logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Validator{logger: logger, now: time.Now}
}

// Assess runs, in fixed order: format checks, date-consistency checks, and
// MRZ cross-validation (passports only).
func (v *Validator) Assess(res *llm.ExtractionResult) Outcome {
	run := &assessment{}

	fields := res.Fields()
	if fields == nil {
		run.add(Issue{
			Code:     constants.IssueMissingPayload,
			Message:  "no document payload extracted",
			Field:    "document_type",
			Severity: constants.SeverityBlocking,
		}, 1.0)
		return run.outcome(v.logger)
	}

	v.checkFormats(run, res.DocumentType, fields)
	v.checkDates(run, fields)
	if res.DocumentType.HasMRZ() && strings.TrimSpace(fields.MRZRaw) != "" {
		v.checkMRZ(run, fields)
	}

	return run.outcome(v.logger)
}

func (v *Validator) checkFormats(run *assessment, dt constants.DocumentType, f *llm.DocumentFields) {
	if f.DocumentNumber != "" {
		var pattern *regexp.Regexp
		switch dt {
		case constants.Passport:
			pattern = passportNumberPattern
		case constants.DriversLicense:
			pattern = licenseNumberPattern
		}
		if pattern != nil && !pattern.MatchString(f.DocumentNumber) {
			run.add(Issue{
				Code:     constants.IssueRegexFormat,
				Message:  fmt.Sprintf("document number %q does not match the %s pattern", f.DocumentNumber, dt),
				Field:    "document_number",
				Severity: constants.SeverityBlocking,
			}, penaltyFormat)
		}
	}

	for _, d := range []struct {
		name string
		date llm.FlexDate
	}{
		{"birth_date", f.BirthDate},
		{"issue_date", f.IssueDate},
		{"expiry_date", f.ExpiryDate},
	} {
		if !d.date.IsZero() && !d.date.Valid() {
			run.add(Issue{
				Code:     constants.IssueRegexFormat,
				Message:  fmt.Sprintf("%s %q is not a recognizable date", d.name, d.date.Raw),
				Field:    d.name,
				Severity: constants.SeverityBlocking,
			}, penaltyFormat)
		}
	}
}

func (v *Validator) checkDates(run *assessment, f *llm.DocumentFields) {
	if f.IssueDate.Valid() && f.ExpiryDate.Valid() && !f.IssueDate.Before(f.ExpiryDate) {
		run.add(Issue{
			Code:     constants.IssueDateOrderViolation,
			Message:  "expiry date must be later than issue date",
			Field:    "expiry_date",
			Severity: constants.SeverityBlocking,
		}, penaltyDate)
	}
	if f.BirthDate.Valid() && f.IssueDate.Valid() && !f.BirthDate.Before(f.IssueDate) {
		run.add(Issue{
			Code:     constants.IssueDateOrderViolation,
			Message:  "birth date must precede issue date",
			Field:    "birth_date",
			Severity: constants.SeverityBlocking,
		}, penaltyDate)
	}
	if f.ExpiryDate.Valid() {
		today := v.now().UTC().Truncate(24 * time.Hour)
		if f.ExpiryDate.Time().Before(today) {
			run.add(Issue{
				Code:     constants.IssueExpiredDocument,
				Message:  "document expired on " + f.ExpiryDate.Format("2006-01-02"),
				Field:    "expiry_date",
				Severity: constants.SeverityBlocking,
			}, penaltyDate)
		}
	}
}

func (v *Validator) checkMRZ(run *assessment, f *llm.DocumentFields) {
	mrz, err := ParseMRZ(f.MRZRaw)
	if err != nil {
		run.add(Issue{
			Code:     constants.IssueMRZIncomplete,
			Message:  err.Error(),
			Field:    "mrz_raw",
			Severity: constants.SeverityBlocking,
		}, penaltyMRZ)
		return
	}
	// A failed check digit means the zone itself is unreliable, which is a
	// different finding than the zone disagreeing with the visual fields.
	if !mrz.NumberCheckOK {
		run.add(Issue{
			Code:     constants.IssueMRZIncomplete,
			Message:  "machine readable zone check digit does not verify for the document number",
			Field:    "mrz_raw",
			Severity: constants.SeverityBlocking,
		}, penaltyMRZ)
	}
	// One issue per document regardless of how many MRZ fields disagree.
	if notes := mrz.CrossCheck(f); len(notes) > 0 {
		run.add(Issue{
			Code:     constants.IssueMRZMismatch,
			Message:  "machine readable zone disagrees with visual fields: " + strings.Join(notes, "; "),
			Field:    "mrz_raw",
			Severity: constants.SeverityBlocking,
		}, penaltyMRZ)
	}
}

// assessment accumulates issues and penalties during one Assess call.
type assessment struct {
	issues    []Issue
	penalties float64
}

func (a *assessment) add(issue Issue, penalty float64) {
	a.issues = append(a.issues, issue)
	a.penalties += penalty
}

func (a *assessment) outcome(logger *slog.Logger) Outcome {
	score := 1.0 - a.penalties
	if score < 0 {
		score = 0
	}

	var flagged []string
	seen := map[string]struct{}{}
	for _, issue := range a.issues {
		if issue.Severity != constants.SeverityBlocking || issue.Field == "" {
			continue
		}
		if _, ok := seen[issue.Field]; ok {
			continue
		}
		seen[issue.Field] = struct{}{}
		flagged = append(flagged, issue.Field)
	}

	if len(a.issues) > 0 {
		logger.Info("validate.issues",
			"count", len(a.issues), "logic_score", score, "flagged", flagged,
		)
	}
	return Outcome{LogicScore: score, Issues: a.issues, FlaggedFields: flagged}
}
