package ui

import (
	"testing"
	"time"
)

func TestFormatTimeRel(t *testing.T) {
	now := time.Now()
	cases := []struct {
		name string
		in   time.Time
		want string
	}{
		{"zero", time.Time{}, "unknown"},
		{"now", now.Add(-10 * time.Second), "now"},
		{"future", now.Add(time.Hour), "now"},
		{"minutes", now.Add(-5 * time.Minute), "5m ago"},
		{"hours", now.Add(-3 * time.Hour), "3h ago"},
		{"days", now.Add(-48 * time.Hour), "2d ago"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := FormatTimeRel(tc.in); got != tc.want {
				t.Errorf("FormatTimeRel(%v) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestTruncateRunesHelper(t *testing.T) {
	if got := truncateRunesHelper("short", 10, "…"); got != "short" {
		t.Errorf("expected no truncation, got %q", got)
	}
	if got := truncateRunesHelper("a longer string", 8, "…"); got != "a longe…" {
		t.Errorf("unexpected truncation: %q", got)
	}
	if got := truncateRunesHelper("anything", 0, "…"); got != "" {
		t.Errorf("zero width should yield empty, got %q", got)
	}
}

func TestPadRight(t *testing.T) {
	if got := padRight("ab", 5); got != "ab   " {
		t.Errorf("padRight = %q", got)
	}
	if got := padRight("abcdef", 3); got != "abcdef" {
		t.Errorf("padRight should not shrink, got %q", got)
	}
}

func TestShortURL(t *testing.T) {
	if got := shortURL("https://example.com/page"); got != "example.com/page" {
		t.Errorf("shortURL = %q", got)
	}
	if got := shortURL("file:///tmp/x.html"); got != "file:///tmp/x.html" {
		t.Errorf("non-http scheme should pass through, got %q", got)
	}
}
