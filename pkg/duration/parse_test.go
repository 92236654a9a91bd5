package duration

import (
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Duration
		wantErr bool
	}{
		// Single human-friendly units
		{name: "1 day", input: "1d", want: Day},
		{name: "2 days", input: "2d", want: 2 * Day},
		{name: "1 week", input: "1w", want: Week},
		{name: "2 weeks", input: "2w", want: 2 * Week},

		// Compound human-friendly units
		{name: "2 weeks 3 days", input: "2w3d", want: 2*Week + 3*Day},

		// Mixed with standard Go units
		{name: "1 day 12 hours", input: "1d12h", want: Day + 12*time.Hour},
		{name: "2 weeks 6 hours", input: "2w6h", want: 2*Week + 6*time.Hour},

		// Standard Go duration units (fallback)
		{name: "24 hours", input: "24h", want: 24 * time.Hour},
		{name: "30 minutes", input: "30m", want: 30 * time.Minute},
		{name: "5 seconds", input: "5s", want: 5 * time.Second},
		{name: "300 milliseconds", input: "300ms", want: 300 * time.Millisecond},

		// Special cases
		{name: "zero duration", input: "0", want: 0},
		{name: "zero with unit", input: "0d", want: 0},

		// Edge cases with whitespace (should be trimmed)
		{name: "whitespace around", input: "  1d  ", want: Day},

		// Error cases
		{name: "empty string", input: "", wantErr: true},
		{name: "invalid format", input: "abc", wantErr: true},
		{name: "invalid unit", input: "1x", wantErr: true},
		{name: "missing value", input: "d", wantErr: true},
		{name: "negative not supported by Go", input: "-1d", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("Parse(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
				return
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("Parse(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseConstants(t *testing.T) {
	if Day != 24*time.Hour {
		t.Errorf("Day = %v, want %v", Day, 24*time.Hour)
	}
	if Week != 7*24*time.Hour {
		t.Errorf("Week = %v, want %v", Week, 7*24*time.Hour)
	}
}
