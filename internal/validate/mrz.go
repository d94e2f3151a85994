package validate

import (
	"fmt"
	"strings"

	"github.com/tomide-ade/docuverify/internal/llm"
)

// MRZ holds the fields recovered from a TD3 machine readable zone.
type MRZ struct {
	DocumentNumber string
	BirthYYMMDD    string
	ExpiryYYMMDD   string
	NumberCheckOK  bool
}

// ParseMRZ recovers document number, birth date, and expiry date from the
// raw machine-readable-zone text (two 44-char lines on passports).
func ParseMRZ(raw string) (MRZ, error) {
	lines := strings.Split(strings.TrimSpace(raw), "\n")
	if len(lines) < 2 {
		return MRZ{}, fmt.Errorf("machine readable zone incomplete: expected 2+ lines, got %d", len(lines))
	}
	line2 := strings.ReplaceAll(lines[1], " ", "")
	if len(line2) < 44 {
		return MRZ{}, fmt.Errorf("machine readable zone line 2 too short: %d chars", len(line2))
	}

	number := strings.TrimSpace(strings.ReplaceAll(line2[0:9], "<", ""))
	return MRZ{
		DocumentNumber: number,
		BirthYYMMDD:    line2[13:19],
		ExpiryYYMMDD:   line2[21:27],
		NumberCheckOK:  checkDigit(line2[0:9]) == line2[9],
	}, nil
}

// checkDigit computes the ICAO 9303 check digit (7-3-1 weighting) for a
// field, returned as its ASCII byte.
func checkDigit(field string) byte {
	weights := []int{7, 3, 1}
	sum := 0
	for i := 0; i < len(field); i++ {
		sum += charValue(field[i]) * weights[i%3]
	}
	return byte('0' + sum%10)
}

func charValue(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'A' && c <= 'Z':
		return int(c-'A') + 10
	default: // filler '<'
		return 0
	}
}

// CrossCheck compares MRZ-recovered values against the visually extracted
// fields and returns one note per disagreement. Notes feed a single
// MRZ_MISMATCH issue per document, not one per field. Zone integrity
// (NumberCheckOK) is reported separately by the validator.
func (m MRZ) CrossCheck(fields *llm.DocumentFields) []string {
	var notes []string

	if fields.DocumentNumber != "" && m.DocumentNumber != "" {
		prefix := m.DocumentNumber
		if len(prefix) > 6 {
			prefix = prefix[:6]
		}
		if !strings.HasPrefix(fields.DocumentNumber, prefix) {
			notes = append(notes, fmt.Sprintf("document number: visual=%s mrz=%s", fields.DocumentNumber, m.DocumentNumber))
		}
	}
	if fields.BirthDate.Valid() {
		if visual := fields.BirthDate.Format("060102"); visual != m.BirthYYMMDD {
			notes = append(notes, fmt.Sprintf("birth date: visual=%s mrz=%s", visual, m.BirthYYMMDD))
		}
	}
	if fields.ExpiryDate.Valid() {
		if visual := fields.ExpiryDate.Format("060102"); visual != m.ExpiryYYMMDD {
			notes = append(notes, fmt.Sprintf("expiry date: visual=%s mrz=%s", visual, m.ExpiryYYMMDD))
		}
	}
	return notes
}
