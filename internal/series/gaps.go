package series

import "time"

// GapKind decides how a gap is filled.
type GapKind string

const (
	GapShort GapKind = "short"
	GapLong  GapKind = "long"
)

// Gap is a maximal run of grid days without a passing observation.
// Start and End are inclusive grid indices. Before and After are the
// bracketing observed days; nil marks an open edge.
type Gap struct {
	Start  int        `json:"start"`
	End    int        `json:"end"`
	Length int        `json:"length"`
	Before *time.Time `json:"before,omitempty"`
	After  *time.Time `json:"after,omitempty"`
	Kind   GapKind    `json:"kind"`
}

// Bracketed reports whether observations exist on both sides of the gap.
func (g Gap) Bracketed() bool {
	return g.Before != nil && g.After != nil
}

// AnalyzeGaps groups the missing days of the grid. A gap is short when it
// is bracketed and no longer than maxGapDays; edge gaps are always long.
func AnalyzeGaps(grid Grid, observed []bool, maxGapDays int) []Gap {
	var gaps []Gap
	n := len(observed)
	for i := 0; i < n; {
		if observed[i] {
			i++
			continue
		}
		start := i
		for i < n && !observed[i] {
			i++
		}
		g := Gap{Start: start, End: i - 1, Length: i - start}
		if start > 0 {
			before := grid.Days[start-1]
			g.Before = &before
		}
		if i < n {
			after := grid.Days[i]
			g.After = &after
		}
		g.Kind = GapLong
		if g.Bracketed() && g.Length <= maxGapDays {
			g.Kind = GapShort
		}
		gaps = append(gaps, g)
	}
	return gaps
}

// GapHistogram counts gaps by length in days.
func GapHistogram(gaps []Gap) map[int]int {
	h := make(map[int]int, len(gaps))
	for _, g := range gaps {
		h[g.Length]++
	}
	return h
}
