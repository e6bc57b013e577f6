package domain

import (
	"testing"
	"time"
)

func TestParseFrequency(t *testing.T) {
	cases := []struct {
		in   string
		want time.Duration
		ok   bool
	}{
		{"rate(1 day)", 24 * time.Hour, true},
		{"rate(7 days)", 7 * 24 * time.Hour, true},
		{"rate(30 days)", 30 * 24 * time.Hour, true},
		{"rate(0 days)", 0, false},
		{"weekly", 0, false},
		{"rate(seven days)", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseFrequency(tc.in)
		if tc.ok && (err != nil || got != tc.want) {
			t.Fatalf("ParseFrequency(%q) = %v, %v; want %v", tc.in, got, err, tc.want)
		}
		if !tc.ok && err == nil {
			t.Fatalf("ParseFrequency(%q) succeeded, want error", tc.in)
		}
	}
}
