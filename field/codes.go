package field

import (
	"fmt"
	"math"

	"github.com/hupe1980/pointview/codec"
)

// Width is the numeric width of a code buffer.
type Width uint8

const (
	Width8  Width = 8
	Width16 Width = 16
	Width32 Width = 32
)

// NullCode is the canonical "unassigned" code. Any value outside
// [0, numCategories) is treated the same way.
const NullCode int32 = -1

// Codes is a per-point category index buffer backed by the narrowest integer
// slice that fits the category count. Narrow widths store null as the
// width's maximum value.
type Codes struct {
	width Width
	u8    []uint8
	u16   []uint16
	i32   []int32
}

// WidthFor returns the narrowest width able to hold numCategories indices plus null.
func WidthFor(numCategories int) Width {
	switch {
	case numCategories < math.MaxUint8:
		return Width8
	case numCategories < math.MaxUint16:
		return Width16
	default:
		return Width32
	}
}

// NewCodes allocates n null codes of the given width.
func NewCodes(width Width, n int) *Codes {
	c := &Codes{width: width}
	switch width {
	case Width8:
		c.u8 = make([]uint8, n)
	case Width16:
		c.u16 = make([]uint16, n)
	default:
		c.width = Width32
		c.i32 = make([]int32, n)
	}
	for i := 0; i < n; i++ {
		c.Set(i, NullCode)
	}
	return c
}

// CodesFromInts copies values into the narrowest buffer for numCategories.
// Values outside [0, numCategories) are stored as null.
func CodesFromInts(values []int32, numCategories int) *Codes {
	c := NewCodes(WidthFor(numCategories), len(values))
	for i, v := range values {
		if v >= 0 && int(v) < numCategories {
			c.Set(i, v)
		}
	}
	return c
}

// WrapUint8 adopts b without copying.
func WrapUint8(b []uint8) *Codes { return &Codes{width: Width8, u8: b} }

// WrapUint16 adopts b without copying.
func WrapUint16(b []uint16) *Codes { return &Codes{width: Width16, u16: b} }

// WrapInt32 adopts b without copying.
func WrapInt32(b []int32) *Codes { return &Codes{width: Width32, i32: b} }

// Width returns the storage width.
func (c *Codes) Width() Width { return c.width }

// Len returns the number of points.
func (c *Codes) Len() int {
	if c == nil {
		return 0
	}
	switch c.width {
	case Width8:
		return len(c.u8)
	case Width16:
		return len(c.u16)
	default:
		return len(c.i32)
	}
}

// At returns the code at i. Narrow-width nulls are returned as NullCode.
func (c *Codes) At(i int) int32 {
	switch c.width {
	case Width8:
		v := c.u8[i]
		if v == math.MaxUint8 {
			return NullCode
		}
		return int32(v)
	case Width16:
		v := c.u16[i]
		if v == math.MaxUint16 {
			return NullCode
		}
		return int32(v)
	default:
		return c.i32[i]
	}
}

// Set stores v at i. Negative values store null.
func (c *Codes) Set(i int, v int32) {
	switch c.width {
	case Width8:
		if v < 0 || v >= math.MaxUint8 {
			c.u8[i] = math.MaxUint8
			return
		}
		c.u8[i] = uint8(v)
	case Width16:
		if v < 0 || v >= math.MaxUint16 {
			c.u16[i] = math.MaxUint16
			return
		}
		c.u16[i] = uint16(v)
	default:
		if v < 0 {
			v = NullCode
		}
		c.i32[i] = v
	}
}

func (c *Codes) maxIndex() int32 {
	switch c.width {
	case Width8:
		return math.MaxUint8 - 1
	case Width16:
		return math.MaxUint16 - 1
	default:
		return math.MaxInt32
	}
}

// Clone returns an independent copy.
func (c *Codes) Clone() *Codes {
	if c == nil {
		return nil
	}
	out := &Codes{width: c.width}
	switch c.width {
	case Width8:
		out.u8 = append([]uint8(nil), c.u8...)
	case Width16:
		out.u16 = append([]uint16(nil), c.u16...)
	default:
		out.i32 = append([]int32(nil), c.i32...)
	}
	return out
}

// Remap rewrites every in-range code v to mapping[v]; null and out-of-range
// codes are kept. Narrow buffers are rewritten in place when every target
// index fits the width, and the receiver is returned with inPlace=true.
// Otherwise a fresh 32-bit buffer is allocated and the receiver is untouched.
func (c *Codes) Remap(mapping []int32) (out *Codes, inPlace bool) {
	var maxTarget int32 = -1
	for _, m := range mapping {
		if m > maxTarget {
			maxTarget = m
		}
	}

	n := c.Len()
	if c.width != Width32 && maxTarget <= c.maxIndex() {
		for i := 0; i < n; i++ {
			v := c.At(i)
			if v >= 0 && int(v) < len(mapping) {
				c.Set(i, mapping[v])
			}
		}
		return c, true
	}

	dst := make([]int32, n)
	for i := 0; i < n; i++ {
		v := c.At(i)
		if v >= 0 && int(v) < len(mapping) {
			v = mapping[v]
		}
		dst[i] = v
	}
	return WrapInt32(dst), false
}

// SizeBytes returns the backing storage size.
func (c *Codes) SizeBytes() int64 {
	if c == nil {
		return 0
	}
	return int64(c.Len()) * int64(c.width/8)
}

// Runs run-length encodes the raw backing values.
func (c *Codes) Runs() []codec.Run {
	switch c.width {
	case Width8:
		return codec.EncodeRLE(c.u8)
	case Width16:
		return codec.EncodeRLE(c.u16)
	default:
		return codec.EncodeRLE(c.i32)
	}
}

// CodesFromRuns decodes runs produced by Codes.Runs for the given width.
func CodesFromRuns(runs []codec.Run, length int, width Width) (*Codes, error) {
	switch width {
	case Width8:
		b, err := codec.DecodeRLE[uint8](runs, length)
		if err != nil {
			return nil, err
		}
		return WrapUint8(b), nil
	case Width16:
		b, err := codec.DecodeRLE[uint16](runs, length)
		if err != nil {
			return nil, err
		}
		return WrapUint16(b), nil
	case Width32:
		b, err := codec.DecodeRLE[int32](runs, length)
		if err != nil {
			return nil, err
		}
		return WrapInt32(b), nil
	default:
		return nil, fmt.Errorf("unsupported code width %d", width)
	}
}
