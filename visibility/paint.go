package visibility

import (
	"math"

	"github.com/hupe1980/pointview/field"
)

// BytesPerPoint is the stride of a packed RGBA8 color buffer.
const BytesPerPoint = 4

// Paint writes the RGB channels of every point of f into dst (RGBA8) and
// syncs alpha from transparency. dst is reallocated when its length does not
// match n points. A nil field paints everything neutral.
func Paint(dst []uint8, f *field.Field, n int, transparency []float32) []uint8 {
	if len(dst) != n*BytesPerPoint {
		dst = make([]uint8, n*BytesPerPoint)
	}
	paint := func(int) field.Color { return field.Neutral }
	if f != nil {
		paint = f.Painter()
	}
	for i := 0; i < n; i++ {
		c := paint(i)
		o := i * BytesPerPoint
		dst[o], dst[o+1], dst[o+2] = c.R, c.G, c.B
	}
	SyncAlpha(dst, transparency)
	return dst
}

// SyncAlpha copies transparency into the alpha channel of a packed RGBA8 buffer.
// Points beyond the transparency buffer are opaque.
func SyncAlpha(colors []uint8, transparency []float32) {
	n := len(colors) / BytesPerPoint
	for i := 0; i < n; i++ {
		a := uint8(255)
		if i < len(transparency) {
			a = alpha(transparency[i])
		}
		colors[i*BytesPerPoint+3] = a
	}
}

func alpha(v float32) uint8 {
	switch {
	case v <= 0 || math.IsNaN(float64(v)):
		return 0
	case v >= 1:
		return 255
	default:
		return uint8(math.Round(float64(v) * 255))
	}
}
