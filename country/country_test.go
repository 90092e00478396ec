package country

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestNormalizer_Name(t *testing.T) {
	n := NewNormalizer(zerolog.Nop())
	tests := []struct {
		raw  string
		want string
	}{
		{"США", "United States"},
		{"Германия", "Germany"},
		{"germany", "Germany"},
		{"  United   States ", "United States"},
		{"USA", "United States"},
		{"DE", "Germany"},
		{"Deutschland", "Germany"},
		{"Великобритания", "United Kingdom"},
		{"UK", "United Kingdom"},
		{"Россия", "Russia"},
		{"Japon", "Japan"},
		{"us", "United States"},
		{"Korea, Republic of", "South Korea"},
		{"840", "840"},
		{"276", "276"},
		{"D1", "D1"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			if got := n.Name(tt.raw); got != tt.want {
				t.Errorf("Name(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestNormalizer_Unknown(t *testing.T) {
	var buf bytes.Buffer
	n := NewNormalizer(zerolog.New(&buf))

	if got := n.Name("Neverland"); got != "Neverland" {
		t.Errorf("Name(%q) = %q, want it unchanged", "Neverland", got)
	}
	out := buf.String()
	if !strings.Contains(out, "unexpected country name") || !strings.Contains(out, "Neverland") {
		t.Errorf("Name(%q) logged %q, want a warning naming the country", "Neverland", out)
	}
}

func TestNormalizer_Shares(t *testing.T) {
	n := NewNormalizer(zerolog.Nop())
	got := n.Shares(map[string]float64{"США": 0.5, "United States": 0.25, "Германия": 0.25})
	if len(got) != 2 || got["United States"] != 0.75 || got["Germany"] != 0.25 {
		t.Errorf("Shares() = %v, want United States 0.75 and Germany 0.25", got)
	}
}
