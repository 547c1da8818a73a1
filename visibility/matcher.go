package visibility

import (
	"math"

	"github.com/hupe1980/pointview/field"
)

// Matcher is a compiled per-point predicate.
// Interface dispatch keeps the hot loop free of closure allocations.
type Matcher interface {
	// Matches reports whether point i passes the filter.
	Matches(i int) bool
}

// categoryMatcher rejects points whose code is in a hidden category.
// Codes outside the category range (null included) pass.
type categoryMatcher struct {
	codes  *field.Codes
	hidden []bool
}

func newCategoryMatcher(f *field.Field) *categoryMatcher {
	hidden := make([]bool, len(f.Categories))
	for i, v := range f.Categorical.Visible {
		if i < len(hidden) {
			hidden[i] = !v
		}
	}
	return &categoryMatcher{codes: f.Codes, hidden: hidden}
}

func (m *categoryMatcher) Matches(i int) bool {
	if i >= m.codes.Len() {
		return true
	}
	c := m.codes.At(i)
	return c < 0 || int(c) >= len(m.hidden) || !m.hidden[c]
}

// rangeMatcher admits finite values inside [lo, hi].
type rangeMatcher struct {
	values []float32
	lo, hi float64
}

func newRangeMatcher(f *field.Field) *rangeMatcher {
	return &rangeMatcher{values: f.Values, lo: f.Continuous.Filter.Min, hi: f.Continuous.Filter.Max}
}

func (m *rangeMatcher) Matches(i int) bool {
	if i >= len(m.values) {
		return false
	}
	v := float64(m.values[i])
	return !math.IsNaN(v) && v >= m.lo && v <= m.hi
}

// outlierMatcher rejects points whose raw quantile exceeds the raw threshold.
type outlierMatcher struct {
	quantiles []float32
	threshold float64
}

func (m *outlierMatcher) Matches(i int) bool {
	if i >= len(m.quantiles) {
		return true
	}
	q := float64(m.quantiles[i])
	return math.IsNaN(q) || q <= m.threshold
}
