package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Integer is the set of element types accepted by the RLE codec.
type Integer interface {
	~int8 | ~int16 | ~int32 | ~int64 | ~int | ~uint8 | ~uint16 | ~uint32
}

// Run is one (value, count) pair of a run-length encoded buffer.
type Run struct {
	Value int64  `json:"v"`
	Count uint32 `json:"n"`
}

var (
	// ErrRunLength is returned when the runs do not cover exactly the requested length.
	ErrRunLength = errors.New("run lengths do not match buffer length")

	// ErrCorruptRuns is returned by UnmarshalRuns for truncated or malformed input.
	ErrCorruptRuns = errors.New("corrupt run block")
)

// EncodeRLE collapses consecutive equal values into runs.
func EncodeRLE[T Integer](values []T) []Run {
	if len(values) == 0 {
		return nil
	}

	runs := make([]Run, 0, 16)
	cur := Run{Value: int64(values[0]), Count: 1}
	for _, v := range values[1:] {
		if int64(v) == cur.Value && cur.Count < ^uint32(0) {
			cur.Count++
			continue
		}
		runs = append(runs, cur)
		cur = Run{Value: int64(v), Count: 1}
	}
	return append(runs, cur)
}

// DecodeRLE expands runs into a buffer of exactly length elements.
//
// The element type selects the numeric width of the result.
func DecodeRLE[T Integer](runs []Run, length int) ([]T, error) {
	var total uint64
	for _, r := range runs {
		total += uint64(r.Count)
	}
	if total != uint64(length) {
		return nil, fmt.Errorf("%w: runs cover %d, want %d", ErrRunLength, total, length)
	}

	out := make([]T, length)
	pos := 0
	for _, r := range runs {
		v := T(r.Value)
		if int64(v) != r.Value {
			return nil, fmt.Errorf("%w: value %d overflows element type", ErrCorruptRuns, r.Value)
		}
		end := pos + int(r.Count)
		for i := pos; i < end; i++ {
			out[i] = v
		}
		pos = end
	}
	return out, nil
}

// MarshalRuns frames runs as [uvarint n]([varint value][uvarint count])*.
func MarshalRuns(runs []Run) []byte {
	buf := make([]byte, 0, binary.MaxVarintLen64*(1+2*len(runs)))
	buf = binary.AppendUvarint(buf, uint64(len(runs)))
	for _, r := range runs {
		buf = binary.AppendVarint(buf, r.Value)
		buf = binary.AppendUvarint(buf, uint64(r.Count))
	}
	return buf
}

// UnmarshalRuns parses a block produced by MarshalRuns.
func UnmarshalRuns(data []byte) ([]Run, error) {
	n, k := binary.Uvarint(data)
	if k <= 0 {
		return nil, ErrCorruptRuns
	}
	data = data[k:]

	// Each run needs at least two bytes.
	if n > uint64(len(data))/2 {
		return nil, ErrCorruptRuns
	}

	runs := make([]Run, 0, n)
	for i := uint64(0); i < n; i++ {
		v, k := binary.Varint(data)
		if k <= 0 {
			return nil, ErrCorruptRuns
		}
		data = data[k:]

		c, k := binary.Uvarint(data)
		if k <= 0 || c > uint64(^uint32(0)) {
			return nil, ErrCorruptRuns
		}
		data = data[k:]

		runs = append(runs, Run{Value: v, Count: uint32(c)})
	}
	if len(data) != 0 {
		return nil, ErrCorruptRuns
	}
	return runs, nil
}
