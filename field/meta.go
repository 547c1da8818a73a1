package field

import (
	"math"
)

// OutlierThresholdOff is the threshold at or above which outlier filtering
// is treated as disabled.
const OutlierThresholdOff = 0.9999

// Range is a closed numeric interval.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Contains reports whether v lies in [Min, Max]. NaN is never contained.
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// Span returns Max-Min.
func (r Range) Span() float64 { return r.Max - r.Min }

// Stats holds the observed extent of a continuous field.
type Stats struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// ComputeStats scans values ignoring NaN. An all-NaN or empty buffer yields {0,0}.
func ComputeStats(values []float32) Stats {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		f := float64(v)
		if math.IsNaN(f) {
			continue
		}
		if f < lo {
			lo = f
		}
		if f > hi {
			hi = f
		}
	}
	if lo > hi {
		return Stats{}
	}
	return Stats{Min: lo, Max: hi}
}

// ContinuousMeta carries filter and color state of a continuous field.
type ContinuousMeta struct {
	Stats         Stats
	Filter        Range
	FilterEnabled bool

	// ColorRange overrides Stats as the color domain when non-nil.
	ColorRange *Range
	LogScale   bool
	Colormap   string

	OutlierFilterEnabled bool
	OutlierThreshold     float64
}

// NewContinuousMeta returns metadata with a full-range filter over stats.
func NewContinuousMeta(stats Stats) *ContinuousMeta {
	return &ContinuousMeta{
		Stats:            stats,
		Filter:           Range{Min: stats.Min, Max: stats.Max},
		FilterEnabled:    true,
		Colormap:         DefaultColormap,
		OutlierThreshold: 1,
	}
}

// SetFilter stores [lo, hi] ordered and clamped into the stats extent.
func (m *ContinuousMeta) SetFilter(lo, hi float64) {
	if lo > hi {
		lo, hi = hi, lo
	}
	m.Filter = Range{
		Min: clamp(lo, m.Stats.Min, m.Stats.Max),
		Max: clamp(hi, m.Stats.Min, m.Stats.Max),
	}
}

// ResetFilter widens the filter to the full stats extent.
func (m *ContinuousMeta) ResetFilter() {
	m.Filter = Range{Min: m.Stats.Min, Max: m.Stats.Max}
}

// Epsilon is the full-range tolerance that absorbs slider round-trip noise.
func (m *ContinuousMeta) Epsilon() float64 {
	return math.Max((m.Stats.Max-m.Stats.Min)*1e-6, 1e-9)
}

// IsFullRange reports whether the filter admits the whole stats extent.
func (m *ContinuousMeta) IsFullRange() bool {
	eps := m.Epsilon()
	return m.Filter.Min <= m.Stats.Min+eps && m.Filter.Max >= m.Stats.Max-eps
}

// IsFiltering reports whether the range filter restricts any point.
func (m *ContinuousMeta) IsFiltering() bool {
	return m.FilterEnabled && !m.IsFullRange()
}

// ColorDomain returns the interval mapped onto the colormap.
func (m *ContinuousMeta) ColorDomain() Range {
	if m.ColorRange != nil {
		return *m.ColorRange
	}
	return Range{Min: m.Stats.Min, Max: m.Stats.Max}
}

// Normalize maps v into [0,1] over the color domain, honoring LogScale.
// NaN input yields NaN. A degenerate domain maps everything to 0.5.
func (m *ContinuousMeta) Normalize(v float64) float64 {
	if math.IsNaN(v) {
		return math.NaN()
	}
	d := m.ColorDomain()
	span := d.Span()
	if span <= 0 {
		return 0.5
	}
	x := clamp(v, d.Min, d.Max) - d.Min
	if m.LogScale {
		return math.Log1p(x) / math.Log1p(span)
	}
	return x / span
}

// Clone returns a deep copy.
func (m *ContinuousMeta) Clone() *ContinuousMeta {
	if m == nil {
		return nil
	}
	out := *m
	if m.ColorRange != nil {
		r := *m.ColorRange
		out.ColorRange = &r
	}
	return &out
}

// Counts holds per-category point counts.
type Counts struct {
	Total   []int
	Visible []int
}

// CategoricalMeta carries per-category color and visibility state.
type CategoricalMeta struct {
	Colors        []Color
	Visible       []bool
	FilterEnabled bool
	Counts        Counts
}

// NewCategoricalMeta returns metadata with palette colors and every category visible.
func NewCategoricalMeta(n int) *CategoricalMeta {
	m := &CategoricalMeta{FilterEnabled: true}
	m.Resize(n)
	return m
}

// Resize grows or truncates the per-category slices to n, defaulting new
// entries to visible with a palette color.
func (m *CategoricalMeta) Resize(n int) {
	for len(m.Visible) < n {
		m.Visible = append(m.Visible, true)
	}
	m.Visible = m.Visible[:n]
	for len(m.Colors) < n {
		m.Colors = append(m.Colors, PaletteColor(len(m.Colors)))
	}
	m.Colors = m.Colors[:n]
}

// HasHidden reports whether any category is hidden.
func (m *CategoricalMeta) HasHidden() bool {
	for _, v := range m.Visible {
		if !v {
			return true
		}
	}
	return false
}

// IsFiltering reports whether the category filter restricts any point.
func (m *CategoricalMeta) IsFiltering() bool {
	return m.FilterEnabled && m.HasHidden()
}

// HiddenCount returns the number of hidden categories.
func (m *CategoricalMeta) HiddenCount() int {
	n := 0
	for _, v := range m.Visible {
		if !v {
			n++
		}
	}
	return n
}

// Clone returns a deep copy.
func (m *CategoricalMeta) Clone() *CategoricalMeta {
	if m == nil {
		return nil
	}
	return &CategoricalMeta{
		Colors:        append([]Color(nil), m.Colors...),
		Visible:       append([]bool(nil), m.Visible...),
		FilterEnabled: m.FilterEnabled,
		Counts: Counts{
			Total:   append([]int(nil), m.Counts.Total...),
			Visible: append([]int(nil), m.Counts.Visible...),
		},
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
