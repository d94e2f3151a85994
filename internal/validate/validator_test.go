package validate

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomide-ade/docuverify/constants"
	"github.com/tomide-ade/docuverify/internal/llm"
)

func newTestValidator() *Validator {
	v := NewValidator(slog.New(slog.NewTextHandler(io.Discard, nil)))
	v.now = func() time.Time {
		return time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	}
	return v
}

func cleanPassport() *llm.ExtractionResult {
	return &llm.ExtractionResult{
		DocumentType: constants.Passport,
		AIConfidence: 0.95,
		Passport: &llm.Passport{
			DocumentFields: llm.DocumentFields{
				FullName:       "ADAEZE OKAFOR",
				BirthDate:      llm.DateFrom(time.Date(1986, 1, 17, 0, 0, 0, 0, time.UTC)),
				DocumentNumber: "X1234567",
				IssueDate:      llm.DateFrom(time.Date(2021, 5, 20, 0, 0, 0, 0, time.UTC)),
				ExpiryDate:     llm.DateFrom(time.Date(2031, 5, 20, 0, 0, 0, 0, time.UTC)),
				Nationality:    "NGA",
			},
		},
	}
}

func TestAssessCleanPassport(t *testing.T) {
	out := newTestValidator().Assess(cleanPassport())
	assert.Equal(t, 1.0, out.LogicScore)
	assert.Empty(t, out.Issues)
	assert.Empty(t, out.FlaggedFields)
}

func TestAssessCleanPassportWithMRZ(t *testing.T) {
	res := cleanPassport()
	res.Passport.MRZRaw = sampleMRZ()
	out := newTestValidator().Assess(res)
	assert.Equal(t, 1.0, out.LogicScore)
	assert.Empty(t, out.Issues)
}

func TestAssessBadPassportNumber(t *testing.T) {
	res := cleanPassport()
	res.Passport.DocumentNumber = "x-12"
	out := newTestValidator().Assess(res)

	assert.InDelta(t, 0.85, out.LogicScore, 1e-9)
	require.Len(t, out.Issues, 1)
	assert.Equal(t, constants.IssueRegexFormat, out.Issues[0].Code)
	assert.Equal(t, []string{"document_number"}, out.FlaggedFields)
}

func TestAssessLicenseNumberPattern(t *testing.T) {
	res := &llm.ExtractionResult{
		DocumentType: constants.DriversLicense,
		DriversLicense: &llm.DriversLicense{
			DocumentFields: llm.DocumentFields{DocumentNumber: "ABC-12345"},
		},
	}
	out := newTestValidator().Assess(res)
	assert.Empty(t, out.Issues, "dashes are legal in license numbers")

	res.DriversLicense.DocumentNumber = "ab 12"
	out = newTestValidator().Assess(res)
	require.Len(t, out.Issues, 1)
	assert.Equal(t, constants.IssueRegexFormat, out.Issues[0].Code)
}

func TestAssessUnparseableDate(t *testing.T) {
	res := cleanPassport()
	res.Passport.ExpiryDate = llm.ParseFlexDate("sometime in 2031")
	out := newTestValidator().Assess(res)

	assert.InDelta(t, 0.85, out.LogicScore, 1e-9)
	require.Len(t, out.Issues, 1)
	assert.Equal(t, constants.IssueRegexFormat, out.Issues[0].Code)
	assert.Equal(t, "expiry_date", out.Issues[0].Field)
}

func TestAssessDateOrderViolation(t *testing.T) {
	res := cleanPassport()
	res.Passport.IssueDate = llm.DateFrom(time.Date(2032, 1, 1, 0, 0, 0, 0, time.UTC))
	out := newTestValidator().Assess(res)

	assert.InDelta(t, 0.80, out.LogicScore, 1e-9)
	require.Len(t, out.Issues, 1)
	assert.Equal(t, constants.IssueDateOrderViolation, out.Issues[0].Code)
	assert.Equal(t, "expiry_date", out.Issues[0].Field)
}

func TestAssessBirthAfterIssue(t *testing.T) {
	res := cleanPassport()
	res.Passport.BirthDate = llm.DateFrom(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	out := newTestValidator().Assess(res)

	assert.InDelta(t, 0.80, out.LogicScore, 1e-9)
	require.Len(t, out.Issues, 1)
	assert.Equal(t, constants.IssueDateOrderViolation, out.Issues[0].Code)
	assert.Equal(t, "birth_date", out.Issues[0].Field)
}

func TestAssessExpiredDocument(t *testing.T) {
	res := cleanPassport()
	res.Passport.ExpiryDate = llm.DateFrom(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	out := newTestValidator().Assess(res)

	assert.InDelta(t, 0.80, out.LogicScore, 1e-9)
	require.Len(t, out.Issues, 1)
	assert.Equal(t, constants.IssueExpiredDocument, out.Issues[0].Code)
}

func TestAssessMRZMismatchSingleIssue(t *testing.T) {
	res := cleanPassport()
	// MRZ disagrees on both dates; still a single finding.
	res.Passport.MRZRaw = "P<NGA...\n" + mrzLine2("X1234567<", "NGA", "900302", "F", "330101")
	out := newTestValidator().Assess(res)

	assert.InDelta(t, 0.70, out.LogicScore, 1e-9)
	require.Len(t, out.Issues, 1)
	assert.Equal(t, constants.IssueMRZMismatch, out.Issues[0].Code)
	assert.Contains(t, out.Issues[0].Message, "birth date")
	assert.Contains(t, out.Issues[0].Message, "expiry date")
	assert.Equal(t, []string{"mrz_raw"}, out.FlaggedFields)
}

func TestAssessMRZBadCheckDigitIsIntegrityFinding(t *testing.T) {
	res := cleanPassport()
	line2 := mrzLine2("X1234567<", "NGA", "860117", "F", "310520")
	line2 = line2[:9] + "0" + line2[10:] // break the document number check digit
	res.Passport.MRZRaw = "P<NGA...\n" + line2

	out := newTestValidator().Assess(res)

	assert.InDelta(t, 0.70, out.LogicScore, 1e-9)
	require.Len(t, out.Issues, 1)
	assert.Equal(t, constants.IssueMRZIncomplete, out.Issues[0].Code,
		"check digit failure questions the zone, not the visual fields")
	assert.Contains(t, out.Issues[0].Message, "check digit")
}

func TestAssessMRZBadCheckDigitPlusMismatch(t *testing.T) {
	res := cleanPassport()
	line2 := mrzLine2("X1234567<", "NGA", "900302", "F", "310520")
	line2 = line2[:9] + "0" + line2[10:]
	res.Passport.MRZRaw = "P<NGA...\n" + line2

	out := newTestValidator().Assess(res)

	assert.InDelta(t, 0.40, out.LogicScore, 1e-9)
	require.Len(t, out.Issues, 2)
	assert.Equal(t, constants.IssueMRZIncomplete, out.Issues[0].Code)
	assert.Equal(t, constants.IssueMRZMismatch, out.Issues[1].Code)
	assert.Contains(t, out.Issues[1].Message, "birth date")
	assert.Equal(t, []string{"mrz_raw"}, out.FlaggedFields)
}

func TestAssessMRZIncomplete(t *testing.T) {
	res := cleanPassport()
	res.Passport.MRZRaw = "P<NGAOKAFOR<<ADAEZE"
	out := newTestValidator().Assess(res)

	assert.InDelta(t, 0.70, out.LogicScore, 1e-9)
	require.Len(t, out.Issues, 1)
	assert.Equal(t, constants.IssueMRZIncomplete, out.Issues[0].Code)
}

func TestAssessMRZSkippedForLicenses(t *testing.T) {
	res := &llm.ExtractionResult{
		DocumentType: constants.DriversLicense,
		DriversLicense: &llm.DriversLicense{
			DocumentFields: llm.DocumentFields{
				DocumentNumber: "ABC-12345",
				MRZRaw:         "garbage that would never parse",
			},
		},
	}
	out := newTestValidator().Assess(res)
	assert.Empty(t, out.Issues, "licenses carry no machine readable zone")
}

func TestAssessMissingPayload(t *testing.T) {
	out := newTestValidator().Assess(&llm.ExtractionResult{DocumentType: constants.Passport})

	assert.Equal(t, 0.0, out.LogicScore)
	require.Len(t, out.Issues, 1)
	assert.Equal(t, constants.IssueMissingPayload, out.Issues[0].Code)
	assert.Equal(t, []string{"document_type"}, out.FlaggedFields)
}

func TestAssessScoreClampsAtZero(t *testing.T) {
	res := cleanPassport()
	res.Passport.DocumentNumber = "bad!"
	res.Passport.BirthDate = llm.DateFrom(time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC))
	res.Passport.IssueDate = llm.DateFrom(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	res.Passport.ExpiryDate = llm.DateFrom(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC))
	res.Passport.MRZRaw = sampleMRZ()
	out := newTestValidator().Assess(res)

	assert.Equal(t, 0.0, out.LogicScore, "penalties never push the score negative")
	assert.NotEmpty(t, out.Issues)
}

func TestAssessIssueOrderDeterministic(t *testing.T) {
	res := cleanPassport()
	res.Passport.DocumentNumber = "bad!"
	res.Passport.ExpiryDate = llm.DateFrom(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC))
	res.Passport.MRZRaw = "too short"
	out := newTestValidator().Assess(res)

	require.Len(t, out.Issues, 4)
	assert.Equal(t, constants.IssueRegexFormat, out.Issues[0].Code)
	assert.Equal(t, constants.IssueDateOrderViolation, out.Issues[1].Code)
	assert.Equal(t, constants.IssueExpiredDocument, out.Issues[2].Code)
	assert.Equal(t, constants.IssueMRZIncomplete, out.Issues[3].Code)
}
