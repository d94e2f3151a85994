package llm

import (
	"encoding/json"
	"regexp"
	"strings"
	"time"
)

// FlexDate is a date field that survives the loose formats vision models
// emit. It keeps the raw string so format violations can be reported
// against the original value.
type FlexDate struct {
	Raw  string
	time time.Time
	ok   bool
}

var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"01/02/2006",
	"2006/01/02",
	"02-01-2006",
}

var dottedMonth = regexp.MustCompile(`^(\d{1,2})\.([A-Za-z]{3})\.(\d{4})$`)

// ParseFlexDate parses a date string in any accepted format.
func ParseFlexDate(s string) FlexDate {
	d := FlexDate{Raw: strings.TrimSpace(s)}
	if d.Raw == "" {
		return d
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, d.Raw); err == nil {
			d.time, d.ok = t, true
			return d
		}
	}
	// DD.MON.YYYY with arbitrary month casing, e.g. "17.JAN.1986".
	if m := dottedMonth.FindStringSubmatch(d.Raw); m != nil {
		normalized := m[1] + "." + strings.ToUpper(m[2][:1]) + strings.ToLower(m[2][1:]) + "." + m[3]
		if t, err := time.Parse("2.Jan.2006", normalized); err == nil {
			d.time, d.ok = t, true
		}
	}
	return d
}

// DateFrom builds a valid FlexDate from a concrete time, for tests and
// synthetic fixtures.
func DateFrom(t time.Time) FlexDate {
	t = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return FlexDate{Raw: t.Format("2006-01-02"), time: t, ok: true}
}

// IsZero reports whether no value was supplied at all.
func (d FlexDate) IsZero() bool {
	return d.Raw == ""
}

// Valid reports whether the raw value parsed into a real date.
func (d FlexDate) Valid() bool {
	return d.ok
}

// Time returns the parsed date; zero time when invalid.
func (d FlexDate) Time() time.Time {
	return d.time
}

// Format renders the parsed date with the given layout, empty when invalid.
func (d FlexDate) Format(layout string) string {
	if !d.ok {
		return ""
	}
	return d.time.Format(layout)
}

func (d FlexDate) Before(other FlexDate) bool {
	return d.ok && other.ok && d.time.Before(other.time)
}

func (d *FlexDate) UnmarshalJSON(b []byte) error {
	var s *string
	if err := json.Unmarshal(b, &s); err != nil {
		// Non-string dates (numbers, objects) degrade to an invalid raw
		// value; the validator reports them, parsing never fails.
		*d = FlexDate{Raw: strings.Trim(string(b), `"`)}
		return nil
	}
	if s == nil {
		*d = FlexDate{}
		return nil
	}
	*d = ParseFlexDate(*s)
	return nil
}

func (d FlexDate) MarshalJSON() ([]byte, error) {
	if d.Raw == "" {
		return []byte("null"), nil
	}
	return json.Marshal(d.Raw)
}
