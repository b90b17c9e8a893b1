package timeline

import (
	"fmt"
	"strconv"
	"strings"
)

// TimestampError marks a timestamp the parser cannot read. It aborts the
// whole job; a document with one bad time value is not worth a
// partial render.
type TimestampError struct {
	Value string
	Err   error
}

func (e *TimestampError) Error() string {
	return fmt.Sprintf("invalid timestamp %q: %v", e.Value, e.Err)
}

func (e *TimestampError) Unwrap() error { return e.Err }

// ParseTimestamp converts a human-entered timestamp string to seconds.
//
// Accepted forms:
//
//	"42.5"        raw seconds
//	"01:30"       M:S
//	"00:01:30"    H:M:S when the third field is <= 59
//	"01:30:500"   M:S:mmm when the third field exceeds 59
//
// The three-field form is ambiguous: some producers write M:S:mmm with
// milliseconds under 60, which this parser reads as H:M:S. That is a
// known limitation of the input format, kept as-is so both producers
// agree on the common case.
func ParseTimestamp(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, &TimestampError{Value: s, Err: fmt.Errorf("empty value")}
	}

	parts := strings.Split(s, ":")

	fields := make([]float64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return 0, &TimestampError{Value: s, Err: fmt.Errorf("field %d is not numeric", i+1)}
		}
		fields[i] = v
	}

	switch len(fields) {
	case 1:
		return fields[0], nil
	case 2:
		return fields[0]*60 + fields[1], nil
	case 3:
		if fields[2] > 59 {
			// M:S:mmm
			return fields[0]*60 + fields[1] + fields[2]/1000, nil
		}
		return fields[0]*3600 + fields[1]*60 + fields[2], nil
	default:
		return 0, &TimestampError{Value: s, Err: fmt.Errorf("expected 1-3 colon-separated fields, got %d", len(fields))}
	}
}

// FormatSeconds converts seconds to the HH:MM:SS.mmm form ffmpeg takes
// for -ss and friends.
func FormatSeconds(seconds float64) string {
	hours := int(seconds) / 3600
	minutes := (int(seconds) % 3600) / 60
	secs := seconds - float64(hours*3600) - float64(minutes*60)
	return fmt.Sprintf("%02d:%02d:%06.3f", hours, minutes, secs)
}
