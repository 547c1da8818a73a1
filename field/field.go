package field

import (
	"math"
)

// Field is one column of the obs or var table.
//
// Values, Codes and OutlierQuantiles hold one entry per point once Loaded.
// Raw buffers of non user-defined fields are never mutated in place; edits
// on them go through copy-on-write. Codes of user-defined fields may be
// remapped in place.
type Field struct {
	Key         string
	OriginalKey string
	Kind        Kind
	Source      Source
	Lifecycle   Lifecycle

	// UserDefined marks derived fields. TemplateID links them to their
	// serializable template.
	UserDefined bool
	TemplateID  string

	Loaded bool

	Values           []float32
	Categories       []string
	Codes            *Codes
	OutlierQuantiles []float32

	Categorical *CategoricalMeta
	Continuous  *ContinuousMeta
}

// NewPending describes a field whose data has not been loaded yet.
func NewPending(key string, src Source, kind Kind) *Field {
	f := &Field{Key: key, OriginalKey: key, Kind: kind, Source: src}
	switch kind {
	case KindCategory:
		f.Categorical = NewCategoricalMeta(0)
	default:
		f.Continuous = NewContinuousMeta(Stats{})
	}
	return f
}

// NewCategorical returns a loaded categorical field.
func NewCategorical(key string, src Source, categories []string, codes *Codes) *Field {
	f := NewPending(key, src, KindCategory)
	f.SetCategoricalData(categories, codes)
	return f
}

// NewContinuous returns a loaded continuous field.
func NewContinuous(key string, src Source, values []float32) *Field {
	f := NewPending(key, src, KindContinuous)
	f.SetContinuousData(values)
	return f
}

// SetCategoricalData installs categories and codes and marks the field loaded.
func (f *Field) SetCategoricalData(categories []string, codes *Codes) {
	f.Categories = categories
	f.Codes = codes
	if f.Categorical == nil {
		f.Categorical = NewCategoricalMeta(0)
	}
	f.Categorical.Resize(len(categories))
	f.Loaded = true
}

// SetContinuousData installs values, recomputes stats and resets the filter.
func (f *Field) SetContinuousData(values []float32) {
	f.Values = values
	stats := ComputeStats(values)
	if f.Continuous == nil {
		f.Continuous = NewContinuousMeta(stats)
	} else {
		f.Continuous.Stats = stats
		f.Continuous.ResetFilter()
	}
	f.Loaded = true
}

// Ref returns the stable reference of the field.
func (f *Field) Ref() Ref { return Ref{Source: f.Source, Key: f.OriginalKey} }

// IsCategorical reports whether the field is categorical.
func (f *Field) IsCategorical() bool { return f.Kind == KindCategory }

// IsActive reports whether the field is neither deleted nor purged.
func (f *Field) IsActive() bool { return f.Lifecycle == Active }

// NumCategories returns the category count (0 for continuous fields).
func (f *Field) NumCategories() int { return len(f.Categories) }

// CodeAt returns the category of point i or NullCode when unassigned.
func (f *Field) CodeAt(i int) int32 {
	v := f.Codes.At(i)
	if v < 0 || int(v) >= len(f.Categories) {
		return NullCode
	}
	return v
}

// ValueAt returns the numeric value of point i (NaN when null).
func (f *Field) ValueAt(i int) float64 {
	if i >= len(f.Values) {
		return math.NaN()
	}
	return float64(f.Values[i])
}

// HasOutlierData reports whether the field carries an outlier-quantile buffer.
func (f *Field) HasOutlierData() bool { return len(f.OutlierQuantiles) > 0 }

// OutlierFilterActive reports whether outlier filtering restricts points.
func (f *Field) OutlierFilterActive() bool {
	return f.Continuous != nil && f.HasOutlierData() &&
		f.Continuous.OutlierFilterEnabled && f.Continuous.OutlierThreshold < OutlierThresholdOff
}

// IsFiltering reports whether the field's own filter restricts any point.
func (f *Field) IsFiltering() bool {
	if !f.Loaded || !f.IsActive() {
		return false
	}
	switch f.Kind {
	case KindCategory:
		return f.Categorical != nil && f.Categorical.IsFiltering()
	default:
		return f.Continuous != nil && f.Continuous.IsFiltering()
	}
}

// Clone returns a deep copy of the metadata. Raw buffers are shared except
// the codes of user-defined fields, which may be edited in place.
func (f *Field) Clone() *Field {
	out := *f
	out.Categories = append([]string(nil), f.Categories...)
	out.Categorical = f.Categorical.Clone()
	out.Continuous = f.Continuous.Clone()
	if f.UserDefined {
		out.Codes = f.Codes.Clone()
	}
	return &out
}

// SizeBytes estimates the memory a clone of this field owns.
func (f *Field) SizeBytes() int64 {
	n := int64(64 + 16*len(f.Categories))
	if f.Categorical != nil {
		n += int64(4*len(f.Categorical.Colors) + len(f.Categorical.Visible))
	}
	if f.UserDefined {
		n += f.Codes.SizeBytes()
	}
	return n
}

// FieldSet is the ordered field table of one source.
type FieldSet []*Field

// Clone deep-clones every field.
func (s FieldSet) Clone() FieldSet {
	if s == nil {
		return nil
	}
	out := make(FieldSet, len(s))
	for i, f := range s {
		out[i] = f.Clone()
	}
	return out
}

// IndexOf scans for originalKey. It is the slow path used when no registry
// is available.
func (s FieldSet) IndexOf(originalKey string) int {
	for i, f := range s {
		if f.OriginalKey == originalKey {
			return i
		}
	}
	return -1
}

// SizeBytes sums the clone size of every field.
func (s FieldSet) SizeBytes() int64 {
	var n int64
	for _, f := range s {
		n += f.SizeBytes()
	}
	return n
}

// Painter returns a function mapping point i to its display color. It
// resolves the colormap once so the per-point call stays cheap.
func (f *Field) Painter() func(i int) Color {
	if !f.Loaded {
		return func(int) Color { return Neutral }
	}
	switch f.Kind {
	case KindCategory:
		colors := f.Categorical.Colors
		return func(i int) Color {
			if i >= f.Codes.Len() {
				return Neutral
			}
			c := f.CodeAt(i)
			if c < 0 || int(c) >= len(colors) {
				return Neutral
			}
			return colors[c]
		}
	default:
		cm := LookupColormap(f.Continuous.Colormap)
		meta := f.Continuous
		return func(i int) Color {
			return cm.At(meta.Normalize(f.ValueAt(i)))
		}
	}
}
