package highlight

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/pointview/categorical"
	"github.com/hupe1980/pointview/field"
	"github.com/hupe1980/pointview/internal/bitmap"
)

func page(t *testing.T, m *Manager, name string, groups ...[]uint32) *Page {
	t.Helper()
	p := m.CreatePage(name, field.Color{R: 255})
	for _, ids := range groups {
		_, err := m.AddGroup(p.ID, &Group{Name: name, Type: GroupRange, Enabled: true, Indices: bitmap.Of(ids...)})
		require.NoError(t, err)
	}
	return p
}

func TestCombine(t *testing.T) {
	m := NewManager(20)
	a := page(t, m, "A", []uint32{1, 2, 3}, []uint32{3, 4, 5})
	b := page(t, m, "B", []uint32{4, 5, 6, 7})

	// Disabled groups are ignored.
	_, err := m.AddGroup(b.ID, &Group{Name: "off", Indices: bitmap.Of(1, 2)})
	require.NoError(t, err)

	inter, err := m.Combine(a.ID, b.ID, OpIntersection)
	require.NoError(t, err)
	assert.Equal(t, "A ∩ B", inter.Name)
	require.Len(t, inter.Groups, 1)
	assert.Equal(t, GroupCombined, inter.Groups[0].Type)
	assert.Equal(t, []uint32{4, 5}, inter.Groups[0].Indices.ToArray())
	assert.Equal(t, []string{a.ID, b.ID}, inter.Groups[0].Provenance.Inputs)

	union, err := m.Combine(a.ID, b.ID, OpUnion)
	require.NoError(t, err)
	assert.Equal(t, "A ∪ B", union.Name)
	assert.Equal(t, []uint32{1, 2, 3, 4, 5, 6, 7}, union.Groups[0].Indices.ToArray())

	// Inputs untouched.
	assert.Equal(t, []uint32{1, 2, 3}, a.Groups[0].Indices.ToArray())
	assert.Len(t, m.Pages(), 4)

	_, err = m.Combine(a.ID, "nope", OpUnion)
	assert.ErrorIs(t, err, ErrPageNotFound)
}

func TestCombine_ResultsSurviveScratchReuse(t *testing.T) {
	m := NewManager(20)
	a := page(t, m, "A", []uint32{1, 2, 3})
	b := page(t, m, "B", []uint32{3, 4})
	c := page(t, m, "C", []uint32{9})

	first, err := m.Combine(a.ID, b.ID, OpUnion)
	require.NoError(t, err)
	second, err := m.Combine(a.ID, c.ID, OpUnion)
	require.NoError(t, err)
	self, err := m.Combine(b.ID, b.ID, OpIntersection)
	require.NoError(t, err)

	assert.Equal(t, []uint32{1, 2, 3, 4}, first.Groups[0].Indices.ToArray())
	assert.Equal(t, []uint32{1, 2, 3, 9}, second.Groups[0].Indices.ToArray())
	assert.Equal(t, []uint32{3, 4}, self.Groups[0].Indices.ToArray())
	assert.Equal(t, []uint32{3, 4}, b.Groups[0].Indices.ToArray())
	assert.Equal(t, []uint32{9}, c.Groups[0].Indices.ToArray())
}

func TestPage_UnionInto(t *testing.T) {
	m := NewManager(10)
	p := page(t, m, "P", []uint32{1, 2}, []uint32{2, 5})

	dst := bitmap.Of(7)
	p.UnionInto(dst)
	assert.Equal(t, []uint32{1, 2, 5, 7}, dst.ToArray())
	assert.Equal(t, []uint32{1, 2, 5}, p.Union().ToArray())
}

func TestRebuild_DedupAndActivePage(t *testing.T) {
	m := NewManager(8)
	a := page(t, m, "A", []uint32{1, 2}, []uint32{2, 3, 100})
	b := page(t, m, "B", []uint32{6})

	buf, written := m.Rebuild()
	assert.Equal(t, []uint8{0, 255, 255, 255, 0, 0, 0, 0}, buf)
	assert.Equal(t, []uint32{1, 2, 3}, written)

	require.NoError(t, m.SetActivePage(b.ID))
	buf, written = m.Rebuild()
	assert.Equal(t, []uint8{0, 0, 0, 0, 0, 0, 255, 0}, buf)
	assert.Equal(t, []uint32{6}, written)

	require.NoError(t, m.SetGroupEnabled(b.ID, b.Groups[0].ID, false))
	_, written = m.Rebuild()
	assert.Empty(t, written)

	assert.ErrorIs(t, m.SetActivePage("x"), ErrPageNotFound)
	assert.ErrorIs(t, m.SetGroupEnabled(a.ID, "x", true), ErrGroupNotFound)
}

func TestPreview(t *testing.T) {
	m := NewManager(4)
	page(t, m, "A", []uint32{0})
	m.Rebuild()

	preview := m.Preview([]uint32{2, 9})
	assert.Equal(t, []uint8{255, 0, 255, 0}, preview)
	assert.Equal(t, []uint8{255, 0, 0, 0}, m.Buffer())
}

func TestDeletePage(t *testing.T) {
	m := NewManager(4)
	a := page(t, m, "A")
	b := page(t, m, "B")

	require.NoError(t, m.DeletePage(a.ID))
	assert.Equal(t, b, m.ActivePage())
	assert.ErrorIs(t, m.RemoveGroup(b.ID, "missing"), ErrGroupNotFound)
	require.NoError(t, m.DeletePage(b.ID))
	assert.Nil(t, m.ActivePage())
	assert.ErrorIs(t, m.DeletePage(b.ID), ErrPageNotFound)
}

func TestSelect_RespectsVisibility(t *testing.T) {
	f := field.NewCategorical("g", field.SourceObs, []string{"A", "B"},
		field.CodesFromInts([]int32{0, 0, 1, 1, 0, 1}, 2))

	all, err := SelectCategories(f, []int{0}, nil)
	require.NoError(t, err)
	assert.Equal(t, []uint32{0, 1, 4}, all.ToArray())

	vis := []float32{1, 0, 1, 1, 1, 1}
	filtered, err := SelectCategories(f, []int{0}, vis)
	require.NoError(t, err)
	assert.Equal(t, []uint32{0, 4}, filtered.ToArray())

	_, err = SelectCategories(f, []int{5}, nil)
	assert.Error(t, err)

	v := field.NewContinuous("v", field.SourceObs, []float32{0, 1, 2, 3, 4})
	r, err := SelectRange(v, field.Range{Min: 1, Max: 3}, []float32{1, 1, 0, 1, 1})
	require.NoError(t, err)
	assert.Equal(t, []uint32{1, 3}, r.ToArray())

	_, err = SelectRange(f, field.Range{}, nil)
	assert.Error(t, err)

	assert.Equal(t, []uint32{0, 2}, SelectIndices([]uint32{0, 1, 2, 7}, 5, []float32{1, 0, 1, 1, 1}).ToArray())
}

func TestRemapCategoryGroups(t *testing.T) {
	m := NewManager(4)
	p := m.CreatePage("p", field.Color{})
	ref := field.Ref{Source: field.SourceObs, Key: "g"}
	other := field.Ref{Source: field.SourceObs, Key: "h"}
	g, err := m.AddGroup(p.ID, &Group{Type: GroupCategory, Provenance: Provenance{Ref: ref, Categories: []int{0, 2}}})
	require.NoError(t, err)
	h, err := m.AddGroup(p.ID, &Group{Type: GroupCategory, Provenance: Provenance{Ref: other, Categories: []int{2}}})
	require.NoError(t, err)

	tr, err := categorical.BuildMerge([]string{"A", "B", "C"}, 0, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, m.RemapCategoryGroups(ref, tr))
	assert.Equal(t, []int{1}, g.Provenance.Categories)
	assert.Equal(t, []int{2}, h.Provenance.Categories)

	to := field.Ref{Source: field.SourceObs, Key: "g2"}
	m.Retarget(ref, to)
	assert.Equal(t, to, g.Provenance.Ref)
}

func TestClone_Independent(t *testing.T) {
	m := NewManager(4)
	p := page(t, m, "A", []uint32{1})
	m.Rebuild()

	c := m.Clone()
	p.Groups[0].Indices.Add(3)
	m.Rebuild()

	cp, err := c.Page(p.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint32{1}, slices.Collect(cp.Groups[0].Indices.Iterator()))
	assert.Equal(t, []uint8{0, 255, 0, 0}, c.Buffer())
}
