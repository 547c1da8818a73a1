package highlight

import (
	"fmt"
	"math"

	"github.com/hupe1980/pointview/field"
	"github.com/hupe1980/pointview/internal/bitmap"
)

// visible reports whether point i passes the optional visibility buffer.
func visible(visibility []float32, i int) bool {
	return visibility == nil || (i < len(visibility) && visibility[i] > 0)
}

// SelectCategories collects the points of f whose code is in categories.
// When visibility is non-nil only points with non-zero visibility are taken,
// so selections respect the filters of the view that produced the buffer.
func SelectCategories(f *field.Field, categories []int, visibility []float32) (*bitmap.Bitmap, error) {
	if f.Kind != field.KindCategory {
		return nil, fmt.Errorf("field %q is not categorical", f.OriginalKey)
	}
	want := make([]bool, f.NumCategories())
	for _, c := range categories {
		if c < 0 || c >= len(want) {
			return nil, fmt.Errorf("category %d out of range [0,%d)", c, len(want))
		}
		want[c] = true
	}

	out := bitmap.New()
	for i := 0; i < f.Codes.Len(); i++ {
		c := f.CodeAt(i)
		if c >= 0 && want[c] && visible(visibility, i) {
			out.Add(uint32(i))
		}
	}
	return out, nil
}

// SelectRange collects the points of f whose value lies in r.
func SelectRange(f *field.Field, r field.Range, visibility []float32) (*bitmap.Bitmap, error) {
	if f.Kind != field.KindContinuous {
		return nil, fmt.Errorf("field %q is not continuous", f.OriginalKey)
	}
	out := bitmap.New()
	for i, v := range f.Values {
		x := float64(v)
		if !math.IsNaN(x) && r.Contains(x) && visible(visibility, i) {
			out.Add(uint32(i))
		}
	}
	return out, nil
}

// SelectIndices keeps the visible subset of explicit indices, e.g. a lasso.
func SelectIndices(indices []uint32, n int, visibility []float32) *bitmap.Bitmap {
	out := bitmap.New()
	for _, i := range indices {
		if int(i) < n && visible(visibility, int(i)) {
			out.Add(i)
		}
	}
	return out
}
