package visibility

import (
	"github.com/hupe1980/pointview/field"
)

// Input is everything Compute reads.
type Input struct {
	PointCount int
	// Obs is the obs field table; every restrictive filter in it applies.
	Obs field.FieldSet
	// Active is the active field (obs or var). It may be nil.
	Active *field.Field
}

// Result summarizes one recompute.
type Result struct {
	Shown int
	Total int
	// FastPath is true when no filter applied and the buffer was filled with 1.
	FastPath bool
	// Filters is the number of compiled predicates.
	Filters int
	// Resized is true when the destination had the wrong length and was replaced.
	Resized bool
}

// EnsureLength returns buf when it has length n. Otherwise it returns a new
// buffer of length n with every point visible.
func EnsureLength(buf []float32, n int) ([]float32, bool) {
	if len(buf) == n {
		return buf, false
	}
	out := make([]float32, n)
	Fill(out, 1)
	return out, true
}

// Fill sets every entry of buf to v.
func Fill(buf []float32, v float32) {
	if len(buf) == 0 {
		return
	}
	buf[0] = v
	for filled := 1; filled < len(buf); filled *= 2 {
		copy(buf[filled:], buf[:filled])
	}
}

// Matchers compiles the restrictive filters of in, in evaluation order:
// categorical filters, continuous filters, the independently filtered
// active field and finally the outlier filter.
func Matchers(in Input) []Matcher {
	var ms []Matcher
	var ranges []Matcher

	inObs := false
	for _, f := range in.Obs {
		if f == in.Active {
			inObs = true
		}
		if !f.IsFiltering() {
			continue
		}
		if f.Kind == field.KindCategory {
			ms = append(ms, newCategoryMatcher(f))
		} else {
			ranges = append(ranges, newRangeMatcher(f))
		}
	}
	ms = append(ms, ranges...)

	if a := in.Active; a != nil && !inObs && a.IsFiltering() {
		if a.Kind == field.KindCategory {
			ms = append(ms, newCategoryMatcher(a))
		} else {
			ms = append(ms, newRangeMatcher(a))
		}
	}

	if a := in.Active; a != nil && a.OutlierFilterActive() {
		ms = append(ms, &outlierMatcher{quantiles: a.OutlierQuantiles, threshold: a.Continuous.OutlierThreshold})
	}
	return ms
}

// Compute recomputes dst in place and returns it. A dst of the wrong length
// is replaced by a fresh buffer before filtering.
func Compute(dst []float32, in Input) ([]float32, Result) {
	dst, resized := EnsureLength(dst, in.PointCount)
	res := Result{Total: in.PointCount, Resized: resized}

	ms := Matchers(in)
	res.Filters = len(ms)
	if len(ms) == 0 {
		Fill(dst, 1)
		res.FastPath = true
		res.Shown = in.PointCount
		return dst, res
	}

	shown := 0
	for i := range dst {
		v := float32(1)
		for _, m := range ms {
			if !m.Matches(i) {
				v = 0
				break
			}
		}
		dst[i] = v
		if v != 0 {
			shown++
		}
	}
	res.Shown = shown
	return dst, res
}

// CountShown counts points with non-zero transparency.
func CountShown(buf []float32) int {
	n := 0
	for _, v := range buf {
		if v != 0 {
			n++
		}
	}
	return n
}
