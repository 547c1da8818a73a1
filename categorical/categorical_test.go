package categorical

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/pointview/field"
)

func codesOf(c *field.Codes) []int32 {
	out := make([]int32, c.Len())
	for i := range out {
		out[i] = c.At(i)
	}
	return out
}

func sum(xs []int) int {
	n := 0
	for _, x := range xs {
		n += x
	}
	return n
}

func TestBuildDeleteToUnassigned_RepurposesSlot(t *testing.T) {
	tr, err := BuildDeleteToUnassigned([]string{"A", "B", "C"}, 1, DeleteOptions{})
	require.NoError(t, err)

	assert.Equal(t, EditDeleteToUnassigned, tr.Edit)
	assert.Equal(t, []string{"A", "unassigned", "C"}, tr.Categories)
	assert.Equal(t, []int32{0, 1, 2}, tr.Mapping)
	assert.Equal(t, 1, tr.Target)
	assert.Equal(t, []int{1}, tr.Absorbed)
}

func TestBuildDeleteToUnassigned_ReusesBucket(t *testing.T) {
	tr, err := BuildDeleteToUnassigned([]string{"A", "unassigned", "C", "D"}, 2, DeleteOptions{})
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "unassigned", "D"}, tr.Categories)
	assert.Equal(t, []int32{0, 1, 1, 2}, tr.Mapping)
	assert.Equal(t, 1, tr.Target)
	assert.True(t, tr.IsAbsorbed(2))
	assert.False(t, tr.IsAbsorbed(1))
}

func TestBuildDeleteToUnassigned_AlsoAbsorb(t *testing.T) {
	tr, err := BuildDeleteToUnassigned([]string{"A", "B", "merged C + D", "E"}, 1, DeleteOptions{
		Label:      "n/a",
		AlsoAbsorb: []int{2, 2},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "n/a", "E"}, tr.Categories)
	assert.Equal(t, []int32{0, 1, 1, 2}, tr.Mapping)
	assert.Equal(t, []int{1, 2}, tr.Absorbed)
}

func TestBuildDeleteToUnassigned_Errors(t *testing.T) {
	_, err := BuildDeleteToUnassigned([]string{"A"}, 3, DeleteOptions{})
	assert.ErrorIs(t, err, ErrInvalidCategory)

	_, err = BuildDeleteToUnassigned([]string{"A", "unassigned"}, 1, DeleteOptions{})
	assert.ErrorIs(t, err, ErrInvalidCategory)

	_, err = BuildDeleteToUnassigned([]string{"A", "B"}, 0, DeleteOptions{AlsoAbsorb: []int{-1}})
	assert.ErrorIs(t, err, ErrInvalidCategory)
}

func TestBuildMerge(t *testing.T) {
	tr, err := BuildMerge([]string{"A", "B"}, 0, 1)
	require.NoError(t, err)

	assert.Equal(t, []string{"merged A + B"}, tr.Categories)
	assert.Equal(t, []int32{0, 0}, tr.Mapping)
	assert.Equal(t, 0, tr.Target)
	assert.Equal(t, "merged A + B", tr.Label)

	tr, err = BuildMerge([]string{"A", "B", "C"}, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"merged C + A", "B"}, tr.Categories)
	assert.Equal(t, []int32{0, 1, 0}, tr.Mapping)

	_, err = BuildMerge([]string{"A", "B"}, 1, 1)
	assert.ErrorIs(t, err, ErrInvalidCategory)
}

func TestRemapMeta(t *testing.T) {
	meta := field.NewCategoricalMeta(3)
	meta.Visible = []bool{true, false, false}
	meta.Colors[2] = field.Color{R: 1, G: 2, B: 3}

	// Merge hidden B into hidden C: target stays hidden, keeps C's color.
	tr, err := BuildMerge([]string{"A", "B", "C"}, 1, 2)
	require.NoError(t, err)
	out := RemapMeta(meta, tr)
	assert.Equal(t, []bool{true, false}, out.Visible)
	assert.Equal(t, field.Color{R: 1, G: 2, B: 3}, out.Colors[1])

	// Merge visible A into hidden C: target becomes visible.
	tr, err = BuildMerge([]string{"A", "B", "C"}, 0, 2)
	require.NoError(t, err)
	out = RemapMeta(meta, tr)
	assert.Equal(t, []bool{false, true}, out.Visible)

	// Repurposed unassigned slot is neutral.
	tr, err = BuildDeleteToUnassigned([]string{"A", "B", "C"}, 0, DeleteOptions{})
	require.NoError(t, err)
	out = RemapMeta(meta, tr)
	assert.Equal(t, field.Neutral, out.Colors[0])
	assert.Equal(t, []bool{true, false, false}, out.Visible)
}

func TestApplyInPlace_PreservesCounts(t *testing.T) {
	f := field.NewCategorical("c", field.SourceObs, []string{"A", "B", "C"},
		field.CodesFromInts([]int32{0, 1, 2, 1, 0, 2, 2}, 3))
	f.UserDefined = true
	f.Categorical.Counts.Total = Counts(f.Codes, 3)
	before := f.Codes

	tr, err := BuildMerge(f.Categories, 0, 2)
	require.NoError(t, err)
	inPlace, err := ApplyInPlace(f, tr)
	require.NoError(t, err)

	assert.True(t, inPlace)
	assert.Same(t, before, f.Codes)
	assert.Equal(t, []string{"B", "merged A + C"}, f.Categories)
	assert.Equal(t, []int32{1, 0, 1, 0, 1, 1, 1}, codesOf(f.Codes))
	assert.Equal(t, []int{2, 5}, f.Categorical.Counts.Total)
	assert.Equal(t, 7, sum(f.Categorical.Counts.Total))
	assert.Equal(t, Counts(f.Codes, 2), f.Categorical.Counts.Total)
}

func TestApplyInPlace_WideCodesAllocate(t *testing.T) {
	f := field.NewCategorical("c", field.SourceObs, []string{"A", "B"}, field.WrapInt32([]int32{0, 1, 1}))
	tr, err := BuildDeleteToUnassigned(f.Categories, 0, DeleteOptions{})
	require.NoError(t, err)

	inPlace, err := ApplyInPlace(f, tr)
	require.NoError(t, err)
	assert.False(t, inPlace)
	assert.Equal(t, []int32{0, 1, 1}, codesOf(f.Codes))
	assert.Equal(t, []string{"unassigned", "B"}, f.Categories)
}

func TestDerive_LeavesSourceUntouched(t *testing.T) {
	src := field.NewCategorical("c", field.SourceObs, []string{"A", "B"},
		field.CodesFromInts([]int32{0, 0, 1, 1, 0, 1, 0, 1, 0, 1}, 2))
	tr, err := BuildMerge(src.Categories, 0, 1)
	require.NoError(t, err)

	out, err := Derive(src, tr, "c (merged)")
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "B"}, src.Categories)
	assert.Equal(t, int32(1), src.Codes.At(2))
	assert.True(t, out.UserDefined)
	assert.Equal(t, []string{"merged A + B"}, out.Categories)
	assert.Equal(t, []int{10}, out.Categorical.Counts.Total)
	assert.Equal(t, sum(Counts(src.Codes, 2)), sum(out.Categorical.Counts.Total))
}

func TestDerive_RejectsMismatch(t *testing.T) {
	src := field.NewContinuous("v", field.SourceObs, []float32{1})
	tr, err := BuildMerge([]string{"A", "B"}, 0, 1)
	require.NoError(t, err)
	_, err = Derive(src, tr, "x")
	assert.Error(t, err)

	cat := field.NewCategorical("c", field.SourceObs, []string{"A", "B", "C"}, field.CodesFromInts([]int32{0}, 3))
	_, err = Derive(cat, tr, "x")
	assert.ErrorIs(t, err, ErrInvalidCategory)
}

func TestVisibleCountsAndRemapIndices(t *testing.T) {
	codes := field.CodesFromInts([]int32{0, 1, -1, 1}, 2)
	assert.Equal(t, []int{1, 1}, VisibleCounts(codes, 2, []float32{1, 0, 1, 1}))

	tr, err := BuildDeleteToUnassigned([]string{"A", "unassigned", "C"}, 2, DeleteOptions{})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 0}, RemapIndices([]int{2, 1, 0, 9}, tr))
}
