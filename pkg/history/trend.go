package history

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/vanderheijden86/a11ydeck/pkg/model"
)

// Trend summarizes how a page's confirmed issue count moved across its
// stored scan history.
type Trend struct {
	Scans     int     `json:"scans"`
	Mean      float64 `json:"mean"`
	StdDev    float64 `json:"stdDev"`
	First     int     `json:"first"`
	Latest    int     `json:"latest"`
	Slope     float64 `json:"slope"` // issues per day, least squares
	Improving bool    `json:"improving"`
}

// ComputeTrend fits the issue counts of a scan history against time. The
// slice may arrive in any order; it is sorted oldest-first before fitting.
// Fewer than two scans yields a flat trend.
func ComputeTrend(scans []model.ScanResult) Trend {
	ordered := make([]model.ScanResult, len(scans))
	copy(ordered, scans)
	sort.SliceStable(ordered, func(a, b int) bool {
		return ordered[a].Timestamp.Before(ordered[b].Timestamp)
	})

	counts := make([]float64, len(ordered))
	days := make([]float64, len(ordered))
	for i, scan := range ordered {
		counts[i] = float64(scan.Summary.Total)
		if len(ordered) > 0 {
			days[i] = scan.Timestamp.Sub(ordered[0].Timestamp).Hours() / 24
		}
	}

	t := Trend{Scans: len(ordered)}
	if len(ordered) == 0 {
		return t
	}
	t.Mean = stat.Mean(counts, nil)
	t.First = ordered[0].Summary.Total
	t.Latest = ordered[len(ordered)-1].Summary.Total
	if len(ordered) < 2 {
		return t
	}
	t.StdDev = stat.StdDev(counts, nil)
	// All scans at the same instant would make the fit degenerate.
	if days[len(days)-1] > 0 {
		_, t.Slope = stat.LinearRegression(days, counts, nil, false)
	}
	t.Improving = t.Slope < 0 || (t.Slope == 0 && t.Latest < t.First)
	return t
}

// SeverityCounts extracts one severity's count per scan, oldest first.
// Useful for plotting a single band of the history.
func SeverityCounts(scans []model.ScanResult, impact model.Impact) []int {
	ordered := make([]model.ScanResult, len(scans))
	copy(ordered, scans)
	sort.SliceStable(ordered, func(a, b int) bool {
		return ordered[a].Timestamp.Before(ordered[b].Timestamp)
	})
	counts := make([]int, len(ordered))
	for i, scan := range ordered {
		counts[i] = scan.Summary.BySeverity[impact]
	}
	return counts
}

// Span returns the duration covered by a history, zero when fewer than two
// scans exist.
func Span(scans []model.ScanResult) time.Duration {
	if len(scans) < 2 {
		return 0
	}
	earliest, latest := scans[0].Timestamp, scans[0].Timestamp
	for _, scan := range scans[1:] {
		if scan.Timestamp.Before(earliest) {
			earliest = scan.Timestamp
		}
		if scan.Timestamp.After(latest) {
			latest = scan.Timestamp
		}
	}
	return latest.Sub(earliest)
}
