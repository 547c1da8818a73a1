package categorical

import (
	"fmt"

	"github.com/hupe1980/pointview/field"
)

// RemapMeta carries per-category colors and visibility forward to their new
// indices. The target bucket is visible if any of its sources was visible.
// A bucket created by repurposing a deleted slot for delete-to-unassigned
// gets the neutral color; a merge target keeps the destination's color.
func RemapMeta(meta *field.CategoricalMeta, t *Transform) *field.CategoricalMeta {
	n := len(t.Categories)
	out := &field.CategoricalMeta{
		Colors:        make([]field.Color, n),
		Visible:       make([]bool, n),
		FilterEnabled: true,
	}
	if meta != nil {
		out.FilterEnabled = meta.FilterEnabled
	}
	set := make([]bool, n)

	for old, nw := range t.Mapping {
		j := int(nw)
		visible, color := true, field.PaletteColor(old)
		if meta != nil && old < len(meta.Visible) {
			visible = meta.Visible[old]
		}
		if meta != nil && old < len(meta.Colors) {
			color = meta.Colors[old]
		}

		if j == t.Target {
			out.Visible[j] = out.Visible[j] || visible
			if !t.IsAbsorbed(old) {
				out.Colors[j] = color
				set[j] = true
			}
			continue
		}
		out.Visible[j] = visible
		out.Colors[j] = color
		set[j] = true
	}
	if !set[t.Target] {
		out.Colors[t.Target] = field.Neutral
	}
	return out
}

// Counts tallies codes in [0,n). Null and out-of-range codes are not counted.
func Counts(codes *field.Codes, n int) []int {
	out := make([]int, n)
	for i := 0; i < codes.Len(); i++ {
		if v := codes.At(i); v >= 0 && int(v) < n {
			out[v]++
		}
	}
	return out
}

// VisibleCounts tallies codes of points whose visibility is non-zero.
func VisibleCounts(codes *field.Codes, n int, visibility []float32) []int {
	out := make([]int, n)
	for i := 0; i < codes.Len() && i < len(visibility); i++ {
		if visibility[i] == 0 {
			continue
		}
		if v := codes.At(i); v >= 0 && int(v) < n {
			out[v]++
		}
	}
	return out
}

// RemapCounts folds old per-category counts through the mapping without a
// scan over the codes.
func RemapCounts(counts []int, t *Transform) []int {
	out := make([]int, len(t.Categories))
	for old, c := range counts {
		if j := t.MapIndex(old); j >= 0 {
			out[j] += c
		}
	}
	return out
}

// RemapIndices maps old category indices to new ones, dropping duplicates
// and out-of-range entries. Order of first occurrence is kept.
func RemapIndices(indices []int, t *Transform) []int {
	seen := make(map[int]bool, len(indices))
	out := make([]int, 0, len(indices))
	for _, i := range indices {
		j := t.MapIndex(i)
		if j < 0 || seen[j] {
			continue
		}
		seen[j] = true
		out = append(out, j)
	}
	return out
}

// ApplyInPlace rewrites a user-defined field. Codes are remapped in place when
// their width permits. It reports whether the codes buffer was reused.
func ApplyInPlace(f *field.Field, t *Transform) (bool, error) {
	if err := check(f, t); err != nil {
		return false, err
	}
	codes, inPlace := f.Codes.Remap(t.Mapping)
	meta := RemapMeta(f.Categorical, t)
	meta.Counts.Total = RemapCounts(f.Categorical.Counts.Total, t)
	if len(f.Categorical.Counts.Total) != len(t.Mapping) {
		meta.Counts.Total = Counts(codes, len(t.Categories))
	}

	f.Categories = t.Categories
	f.Codes = codes
	f.Categorical = meta
	return inPlace, nil
}

// Derive returns a new field with the transform applied to a private copy of
// the source codes. The source field is not modified.
func Derive(src *field.Field, t *Transform, key string) (*field.Field, error) {
	if err := check(src, t); err != nil {
		return nil, err
	}
	codes, _ := src.Codes.Clone().Remap(t.Mapping)

	out := field.NewCategorical(key, src.Source, append([]string(nil), t.Categories...), codes)
	out.Categorical = RemapMeta(src.Categorical, t)
	out.Categorical.Counts.Total = Counts(codes, len(t.Categories))
	out.UserDefined = true
	return out, nil
}

func check(f *field.Field, t *Transform) error {
	if f.Kind != field.KindCategory {
		return fmt.Errorf("field %q is not categorical", f.OriginalKey)
	}
	if !f.Loaded {
		return fmt.Errorf("field %q is not loaded", f.OriginalKey)
	}
	if len(t.Mapping) != len(f.Categories) {
		return fmt.Errorf("%w: transform built for %d categories, field has %d",
			ErrInvalidCategory, len(t.Mapping), len(f.Categories))
	}
	return nil
}
