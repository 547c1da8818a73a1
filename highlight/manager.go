package highlight

import (
	"fmt"
	"slices"

	"github.com/hupe1980/pointview/categorical"
	"github.com/hupe1980/pointview/field"
	"github.com/hupe1980/pointview/internal/bitmap"
)

// Manager owns the highlight pages and the packed highlight buffer.
//
// Manager is not safe for concurrent use.
type Manager struct {
	n      int
	pages  []*Page
	active string
	buffer []uint8
	seq    int
}

// NewManager creates a manager for n points.
func NewManager(n int) *Manager {
	return &Manager{n: n, buffer: make([]uint8, n)}
}

func (m *Manager) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s-%d", prefix, m.seq)
}

// Pages returns the pages in creation order.
func (m *Manager) Pages() []*Page { return m.pages }

// Page returns the page with id.
func (m *Manager) Page(id string) (*Page, error) {
	for _, p := range m.pages {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrPageNotFound, id)
}

// CreatePage appends an empty page. The first page becomes active.
func (m *Manager) CreatePage(name string, color field.Color) *Page {
	p := &Page{ID: m.nextID("page"), Name: name, Color: color}
	m.pages = append(m.pages, p)
	if m.active == "" {
		m.active = p.ID
	}
	return p
}

// DeletePage removes a page. Deleting the active page activates the first remaining one.
func (m *Manager) DeletePage(id string) error {
	i := slices.IndexFunc(m.pages, func(p *Page) bool { return p.ID == id })
	if i < 0 {
		return fmt.Errorf("%w: %q", ErrPageNotFound, id)
	}
	m.pages = slices.Delete(m.pages, i, i+1)
	if m.active == id {
		m.active = ""
		if len(m.pages) > 0 {
			m.active = m.pages[0].ID
		}
	}
	return nil
}

// ActivePage returns the active page, or nil when there is none.
func (m *Manager) ActivePage() *Page {
	p, err := m.Page(m.active)
	if err != nil {
		return nil
	}
	return p
}

// SetActivePage selects the page whose groups drive the highlight buffer.
func (m *Manager) SetActivePage(id string) error {
	if _, err := m.Page(id); err != nil {
		return err
	}
	m.active = id
	return nil
}

// AddGroup appends g to a page, assigning an id when empty.
func (m *Manager) AddGroup(pageID string, g *Group) (*Group, error) {
	p, err := m.Page(pageID)
	if err != nil {
		return nil, err
	}
	if g.ID == "" {
		g.ID = m.nextID("group")
	}
	if g.Indices == nil {
		g.Indices = bitmap.New()
	}
	p.Groups = append(p.Groups, g)
	return g, nil
}

// RemoveGroup deletes a group from a page.
func (m *Manager) RemoveGroup(pageID, groupID string) error {
	p, err := m.Page(pageID)
	if err != nil {
		return err
	}
	i := slices.IndexFunc(p.Groups, func(g *Group) bool { return g.ID == groupID })
	if i < 0 {
		return fmt.Errorf("%w: %q", ErrGroupNotFound, groupID)
	}
	p.Groups = slices.Delete(p.Groups, i, i+1)
	return nil
}

// SetGroupEnabled toggles a group.
func (m *Manager) SetGroupEnabled(pageID, groupID string, enabled bool) error {
	p, err := m.Page(pageID)
	if err != nil {
		return err
	}
	g, ok := p.Group(groupID)
	if !ok {
		return fmt.Errorf("%w: %q", ErrGroupNotFound, groupID)
	}
	g.Enabled = enabled
	return nil
}

// Combine unions the enabled groups of each page, applies op to the two
// unions, and stores the result as the single group of a new page named
// "<a> <symbol> <b>".
func (m *Manager) Combine(a, b string, op Op) (*Page, error) {
	pa, err := m.Page(a)
	if err != nil {
		return nil, err
	}
	pb, err := m.Page(b)
	if err != nil {
		return nil, err
	}

	set := pa.Union()
	other := bitmap.Get()
	defer bitmap.Put(other)
	pb.UnionInto(other)
	switch op {
	case OpUnion:
		set.Or(other)
	default:
		set.And(other)
	}

	name := fmt.Sprintf("%s %s %s", pa.Name, op.Symbol(), pb.Name)
	page := m.CreatePage(name, pa.Color)
	_, err = m.AddGroup(page.ID, &Group{
		Name:    name,
		Type:    GroupCombined,
		Enabled: true,
		Indices: set,
		Provenance: Provenance{
			Inputs: []string{pa.ID, pb.ID},
			Op:     op,
		},
	})
	if err != nil {
		return nil, err
	}
	return page, nil
}

// Buffer returns the current highlight buffer. Callers must not modify it.
func (m *Manager) Buffer() []uint8 { return m.buffer }

// Rebuild rewrites the highlight buffer from the enabled groups of the active
// page. Each point is written at most once. It returns the buffer and the
// highlighted indices in the order they were written.
func (m *Manager) Rebuild() ([]uint8, []uint32) {
	if len(m.buffer) != m.n {
		m.buffer = make([]uint8, m.n)
	} else {
		clear(m.buffer)
	}

	var written []uint32
	p := m.ActivePage()
	if p == nil {
		return m.buffer, written
	}
	for _, g := range p.Groups {
		if !g.Enabled || g.Indices == nil {
			continue
		}
		for i := range g.Indices.Iterator() {
			if int(i) >= m.n || m.buffer[i] != 0 {
				continue
			}
			m.buffer[i] = Intensity
			written = append(written, i)
		}
	}
	return m.buffer, written
}

// Preview returns a copy of the highlight buffer with extra indices overlaid.
// Stored groups and the buffer itself are not modified.
func (m *Manager) Preview(extra []uint32) []uint8 {
	out := slices.Clone(m.buffer)
	for _, i := range extra {
		if int(i) < len(out) {
			out[i] = Intensity
		}
	}
	return out
}

// RemapCategoryGroups rewrites the category provenance of every category
// group built from ref. It returns the number of groups changed.
func (m *Manager) RemapCategoryGroups(ref field.Ref, t *categorical.Transform) int {
	changed := 0
	for _, p := range m.pages {
		for _, g := range p.Groups {
			if g.Type != GroupCategory || g.Provenance.Ref != ref {
				continue
			}
			g.Provenance.Categories = categorical.RemapIndices(g.Provenance.Categories, t)
			changed++
		}
	}
	return changed
}

// Retarget moves category provenance from one field to another, used when a
// copy-on-write edit replaces the source field.
func (m *Manager) Retarget(from, to field.Ref) {
	for _, p := range m.pages {
		for _, g := range p.Groups {
			if g.Provenance.Ref == from {
				g.Provenance.Ref = to
			}
		}
	}
}

// Clone returns an independent copy of the manager.
func (m *Manager) Clone() *Manager {
	out := &Manager{n: m.n, active: m.active, seq: m.seq, buffer: slices.Clone(m.buffer)}
	out.pages = make([]*Page, len(m.pages))
	for i, p := range m.pages {
		np := *p
		np.Groups = make([]*Group, len(p.Groups))
		for j, g := range p.Groups {
			np.Groups[j] = g.clone()
		}
		out.pages[i] = &np
	}
	return out
}
