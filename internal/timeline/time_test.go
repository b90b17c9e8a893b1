package timeline

import (
	"errors"
	"math"
	"testing"
)

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		input string
		want  float64
	}{
		{"0", 0},
		{"45.5", 45.5},
		{"90", 90},
		{"01:30", 90},
		{"1:05", 65},
		{"00:00:05", 5},
		{"00:01:30", 90},
		{"01:01:01", 3661},
		{"  00:00:07 ", 7},
		// Third field over 59 flips the reading to M:S:mmm.
		{"01:30:500", 90.5},
		{"0:02:750", 2.75},
		// Third field <= 59 always reads as H:M:S, even when the
		// producer meant milliseconds. Known limitation of the format.
		{"1:2:3", 3723},
	}

	for _, tt := range tests {
		got, err := ParseTimestamp(tt.input)
		if err != nil {
			t.Errorf("ParseTimestamp(%q) returned error: %v", tt.input, err)
			continue
		}
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("ParseTimestamp(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestParseTimestampInvalid(t *testing.T) {
	inputs := []string{
		"",
		"abc",
		"1:xx",
		"::",
		"1:2:3:4",
		"12,5",
	}

	for _, input := range inputs {
		_, err := ParseTimestamp(input)
		if err == nil {
			t.Errorf("ParseTimestamp(%q) should fail", input)
			continue
		}
		var terr *TimestampError
		if !errors.As(err, &terr) {
			t.Errorf("ParseTimestamp(%q) error is %T, want *TimestampError", input, err)
		}
	}
}

func TestFormatSeconds(t *testing.T) {
	tests := []struct {
		input float64
		want  string
	}{
		{0, "00:00:00.000"},
		{90, "00:01:30.000"},
		{3661, "01:01:01.000"},
		{4.5, "00:00:04.500"},
	}

	for _, tt := range tests {
		if got := FormatSeconds(tt.input); got != tt.want {
			t.Errorf("FormatSeconds(%v) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
