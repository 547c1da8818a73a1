package bitmap

import (
	"bytes"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBitmap_SetOps(t *testing.T) {
	a := Of(1, 2, 3, 10)
	b := Of(2, 3, 4)

	and := a.Clone()
	and.And(b)
	assert.Equal(t, []uint32{2, 3}, and.ToArray())

	or := a.Clone()
	or.Or(b)
	assert.Equal(t, []uint32{1, 2, 3, 4, 10}, or.ToArray())

	// Operands are untouched.
	assert.Equal(t, uint64(4), a.Cardinality())
	assert.Equal(t, uint64(3), b.Cardinality())
}

func TestBitmap_Iterator(t *testing.T) {
	b := New()
	b.AddMany([]uint32{9, 1, 5})
	b.Add(5)

	assert.Equal(t, []uint32{1, 5, 9}, slices.Collect(b.Iterator()))
	assert.True(t, b.Contains(9))
	b.Remove(9)
	assert.False(t, b.Contains(9))
}

func TestBitmap_Pool(t *testing.T) {
	b := Get()
	b.Add(42)
	Put(b)

	again := Get()
	assert.True(t, again.IsEmpty())
	Put(again)
	Put(nil)
}

func TestBitmap_Serialization(t *testing.T) {
	b := Of(3, 70000, 1<<20)

	var buf bytes.Buffer
	_, err := b.WriteTo(&buf)
	require.NoError(t, err)

	back := New()
	_, err = back.ReadFrom(&buf)
	require.NoError(t, err)
	assert.True(t, b.Equals(back))
}
