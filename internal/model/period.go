package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrMalformedPeriod   = errors.New("malformed period")
	ErrInvalidTransition = errors.New("invalid period transition")
)

// Period is a half-open validity interval [Start, End). A zero End means the
// period is open: it covers every instant from Start onwards until a
// transition closes it. The canonical text form is "[start,end)" with RFC 3339
// timestamps, or "[start,)" for an open period, and is also what gets stored
// in the tstzrange column.
type Period struct {
	Start time.Time
	End   time.Time
}

func NewOpenPeriod(start time.Time) Period {
	return Period{Start: start.UTC()}
}

func (p Period) IsOpen() bool {
	return p.End.IsZero()
}

// Contains reports whether the instant falls inside the interval:
// Start <= t, and t < End when the period is bounded.
func (p Period) Contains(t time.Time) bool {
	if t.Before(p.Start) {
		return false
	}
	return p.IsOpen() || t.Before(p.End)
}

// Close bounds an open period at the given instant. The instant must fall
// strictly after Start; anything else would produce an empty or inverted
// interval and means the transition engine was invoked incorrectly.
func (p Period) Close(at time.Time) (Period, error) {
	if !p.IsOpen() {
		return Period{}, fmt.Errorf("%w: period already closed at %s", ErrInvalidTransition, p.End.Format(time.RFC3339Nano))
	}
	if !at.After(p.Start) {
		return Period{}, fmt.Errorf("%w: close instant %s is not after period start %s",
			ErrInvalidTransition, at.UTC().Format(time.RFC3339Nano), p.Start.Format(time.RFC3339Nano))
	}
	return Period{Start: p.Start, End: at.UTC()}, nil
}

func (p Period) Equal(other Period) bool {
	if !p.Start.Equal(other.Start) {
		return false
	}
	if p.IsOpen() != other.IsOpen() {
		return false
	}
	return p.IsOpen() || p.End.Equal(other.End)
}

func (p Period) String() string {
	var b strings.Builder
	b.WriteByte('[')
	b.WriteString(p.Start.UTC().Format(time.RFC3339Nano))
	b.WriteByte(',')
	if !p.IsOpen() {
		b.WriteString(p.End.UTC().Format(time.RFC3339Nano))
	}
	b.WriteByte(')')
	return b.String()
}

// ParsePeriod parses the canonical form as well as the tstzrange text output
// postgres produces (quoted, space-separated timestamps).
func ParsePeriod(text string) (Period, error) {
	raw := strings.TrimSpace(text)
	if len(raw) < 3 || raw[0] != '[' || raw[len(raw)-1] != ')' {
		return Period{}, fmt.Errorf("%w: %q is not a half-open range", ErrMalformedPeriod, text)
	}
	body := raw[1 : len(raw)-1]
	sep := splitIndex(body)
	if sep < 0 {
		return Period{}, fmt.Errorf("%w: %q has no bound separator", ErrMalformedPeriod, text)
	}

	start, err := parseInstant(body[:sep])
	if err != nil {
		return Period{}, fmt.Errorf("%w: invalid start in %q: %v", ErrMalformedPeriod, text, err)
	}

	endText := strings.Trim(strings.TrimSpace(body[sep+1:]), `"`)
	if endText == "" || endText == "infinity" {
		return Period{Start: start}, nil
	}
	end, err := parseInstant(endText)
	if err != nil {
		return Period{}, fmt.Errorf("%w: invalid end in %q: %v", ErrMalformedPeriod, text, err)
	}
	if !end.After(start) {
		return Period{}, fmt.Errorf("%w: end %s is not after start %s", ErrMalformedPeriod,
			end.Format(time.RFC3339Nano), start.Format(time.RFC3339Nano))
	}
	return Period{Start: start, End: end}, nil
}

// splitIndex locates the comma separating the two bounds, skipping any that
// appear inside quoted timestamps.
func splitIndex(body string) int {
	quoted := false
	for i := 0; i < len(body); i++ {
		switch body[i] {
		case '"':
			quoted = !quoted
		case ',':
			if !quoted {
				return i
			}
		}
	}
	return -1
}

var instantLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999Z07",
	"2006-01-02 15:04:05Z07",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func parseInstant(raw string) (time.Time, error) {
	raw = strings.Trim(strings.TrimSpace(raw), `"`)
	for _, layout := range instantLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", raw)
}

func (p *Period) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		parsed, err := ParsePeriod(v)
		if err != nil {
			return err
		}
		*p = parsed
		return nil
	case []byte:
		parsed, err := ParsePeriod(string(v))
		if err != nil {
			return err
		}
		*p = parsed
		return nil
	default:
		return fmt.Errorf("%w: cannot scan %T into Period", ErrMalformedPeriod, src)
	}
}

func (p Period) Value() (driver.Value, error) {
	return p.String(), nil
}

func (p Period) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

func (p *Period) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedPeriod, err)
	}
	parsed, err := ParsePeriod(raw)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
