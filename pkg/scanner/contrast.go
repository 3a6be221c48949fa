package scanner

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var rgbPattern = regexp.MustCompile(`^rgba?\(\s*(\d+)\s*,\s*(\d+)\s*,\s*(\d+)`)

// parseColor understands rgb()/rgba() and hex notations. Named colors and
// anything needing computed styles are out of reach for a static pass.
func parseColor(s string) (r, g, b int, ok bool) {
	s = strings.TrimSpace(strings.ToLower(s))

	if m := rgbPattern.FindStringSubmatch(s); m != nil {
		r, _ = strconv.Atoi(m[1])
		g, _ = strconv.Atoi(m[2])
		b, _ = strconv.Atoi(m[3])
		return r, g, b, true
	}

	if strings.HasPrefix(s, "#") {
		hex := s[1:]
		if len(hex) == 3 {
			hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
		}
		if len(hex) != 6 {
			return 0, 0, 0, false
		}
		v, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return 0, 0, 0, false
		}
		return int(v >> 16 & 0xff), int(v >> 8 & 0xff), int(v & 0xff), true
	}

	return 0, 0, 0, false
}

// relativeLuminance implements the WCAG 2 definition.
func relativeLuminance(r, g, b int) float64 {
	lin := func(v int) float64 {
		s := float64(v) / 255
		if s <= 0.03928 {
			return s / 12.92
		}
		return math.Pow((s+0.055)/1.055, 2.4)
	}
	return 0.2126*lin(r) + 0.7152*lin(g) + 0.0722*lin(b)
}

// contrastRatio computes the WCAG contrast ratio between two colors,
// reporting false when either color cannot be parsed statically.
func contrastRatio(fg, bg string) (float64, bool) {
	fr, fgG, fb, ok := parseColor(fg)
	if !ok {
		return 0, false
	}
	br, bgG, bb, ok := parseColor(bg)
	if !ok {
		return 0, false
	}
	l1 := relativeLuminance(fr, fgG, fb)
	l2 := relativeLuminance(br, bgG, bb)
	lighter, darker := math.Max(l1, l2), math.Min(l1, l2)
	return (lighter + 0.05) / (darker + 0.05), true
}
