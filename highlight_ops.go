package pointview

import (
	"fmt"
	"slices"
	"strings"

	"github.com/hupe1980/pointview/field"
	"github.com/hupe1980/pointview/highlight"
	"github.com/hupe1980/pointview/view"
)

// CreateHighlightPage adds an empty highlight page and returns its id. The
// first page becomes the active page.
func (s *State) CreateHighlightPage(name string, color field.Color) string {
	s.mu.Lock()
	defer s.unlock()
	p := s.highlights.CreatePage(name, color)
	s.rebuildHighlight()
	return p.ID
}

// DeleteHighlightPage removes a page.
func (s *State) DeleteHighlightPage(pageID string) error {
	s.mu.Lock()
	defer s.unlock()
	if err := s.highlights.DeletePage(pageID); err != nil {
		return s.reject("delete-highlight-page", err)
	}
	s.rebuildHighlight()
	return nil
}

// SetActiveHighlightPage selects the page rendered into the highlight buffer.
func (s *State) SetActiveHighlightPage(pageID string) error {
	s.mu.Lock()
	defer s.unlock()
	if err := s.highlights.SetActivePage(pageID); err != nil {
		return s.reject("set-active-highlight-page", err)
	}
	s.rebuildHighlight()
	return nil
}

// HighlightPages returns a copy of the highlight pages.
func (s *State) HighlightPages() []*highlight.Page {
	s.mu.Lock()
	defer s.unlock()
	return s.highlights.Clone().Pages()
}

// HighlightCategories adds a group with the points of the given categories
// to a page and returns the group id. Only points visible in viewID are
// taken; an empty viewID means the live view.
func (s *State) HighlightCategories(pageID, viewID string, src field.Source, fieldIdx int, categories []int) (string, error) {
	s.mu.Lock()
	defer s.unlock()

	c, f, err := s.selectionField(viewID, src, fieldIdx)
	if err == nil && !f.IsCategorical() {
		err = fmt.Errorf("%w: %s", ErrNotCategorical, f.Ref())
	}
	if err == nil {
		for _, cat := range categories {
			if err = checkCategory(f, cat); err != nil {
				break
			}
		}
	}
	if err != nil {
		return "", s.reject("highlight-categories", err)
	}

	set, err := highlight.SelectCategories(f, categories, c.Transparency)
	if err != nil {
		return "", s.reject("highlight-categories", err)
	}
	labels := make([]string, len(categories))
	for i, cat := range categories {
		labels[i] = f.Categories[cat]
	}
	return s.addGroup(pageID, &highlight.Group{
		Name:    f.Key + ": " + strings.Join(labels, ", "),
		Type:    highlight.GroupCategory,
		Enabled: true,
		Indices: set,
		Provenance: highlight.Provenance{
			Ref:        f.Ref(),
			Categories: slices.Clone(categories),
		},
	})
}

// HighlightRange adds a group with the points whose value lies in r.
func (s *State) HighlightRange(pageID, viewID string, src field.Source, fieldIdx int, r field.Range) (string, error) {
	s.mu.Lock()
	defer s.unlock()

	c, f, err := s.selectionField(viewID, src, fieldIdx)
	if err == nil && f.IsCategorical() {
		err = fmt.Errorf("%w: %s", ErrNotContinuous, f.Ref())
	}
	if err != nil {
		return "", s.reject("highlight-range", err)
	}
	if r.Min > r.Max {
		r.Min, r.Max = r.Max, r.Min
	}

	set, err := highlight.SelectRange(f, r, c.Transparency)
	if err != nil {
		return "", s.reject("highlight-range", err)
	}
	return s.addGroup(pageID, &highlight.Group{
		Name:    fmt.Sprintf("%s: [%g, %g]", f.Key, r.Min, r.Max),
		Type:    highlight.GroupRange,
		Enabled: true,
		Indices: set,
		Provenance: highlight.Provenance{
			Ref:   f.Ref(),
			Range: &r,
		},
	})
}

// HighlightIndices adds a group with the visible subset of explicit point
// indices, such as a lasso selection.
func (s *State) HighlightIndices(pageID, viewID, name string, indices []uint32) (string, error) {
	s.mu.Lock()
	defer s.unlock()

	c, err := s.viewContext(viewID)
	if err != nil {
		return "", s.reject("highlight-indices", err)
	}
	set := highlight.SelectIndices(indices, s.n, c.Transparency)
	if name == "" {
		name = fmt.Sprintf("selection (%d)", set.Cardinality())
	}
	return s.addGroup(pageID, &highlight.Group{
		Name:    name,
		Type:    highlight.GroupSelection,
		Enabled: true,
		Indices: set,
	})
}

// SetHighlightGroupEnabled toggles a group.
func (s *State) SetHighlightGroupEnabled(pageID, groupID string, enabled bool) error {
	s.mu.Lock()
	defer s.unlock()
	if err := s.highlights.SetGroupEnabled(pageID, groupID, enabled); err != nil {
		return s.reject("set-highlight-group-enabled", err)
	}
	s.rebuildHighlight()
	return nil
}

// RemoveHighlightGroup deletes a group from a page.
func (s *State) RemoveHighlightGroup(pageID, groupID string) error {
	s.mu.Lock()
	defer s.unlock()
	if err := s.highlights.RemoveGroup(pageID, groupID); err != nil {
		return s.reject("remove-highlight-group", err)
	}
	s.rebuildHighlight()
	return nil
}

// CombineHighlightPages applies op to the enabled groups of pages a and b
// and stores the result as a new page, whose id is returned.
func (s *State) CombineHighlightPages(a, b string, op highlight.Op) (string, error) {
	s.mu.Lock()
	defer s.unlock()
	p, err := s.highlights.Combine(a, b, op)
	if err != nil {
		return "", s.reject("combine-highlight-pages", err)
	}
	s.rebuildHighlight()
	return p.ID, nil
}

// PreviewHighlight pushes the highlight buffer with indices overlaid, e.g.
// while a lasso is drawn, and returns it. No group is modified.
func (s *State) PreviewHighlight(indices []uint32) []uint8 {
	s.mu.Lock()
	defer s.unlock()
	buf := s.highlights.Preview(indices)
	s.sink.UpdateHighlight(buf, indices)
	return buf
}

// ClearHighlightPreview pushes the stored highlight buffer again.
func (s *State) ClearHighlightPreview() {
	s.mu.Lock()
	defer s.unlock()
	s.sink.UpdateHighlight(s.highlights.Buffer(), nil)
}

// HighlightBuffer returns a copy of the highlight buffer.
func (s *State) HighlightBuffer() []uint8 {
	s.mu.Lock()
	defer s.unlock()
	return slices.Clone(s.highlights.Buffer())
}

func (s *State) addGroup(pageID string, g *highlight.Group) (string, error) {
	if _, err := s.highlights.AddGroup(pageID, g); err != nil {
		return "", s.reject("add-highlight-group", err)
	}
	s.rebuildHighlight()
	return g.ID, nil
}

func (s *State) rebuildHighlight() {
	buf, written := s.highlights.Rebuild()
	s.sink.UpdateHighlight(buf, written)
	s.emit(Event{Type: EventHighlightChanged})
}

// viewContext returns the live view for "" or the live id, otherwise the
// stored snapshot.
func (s *State) viewContext(id string) (*view.Context, error) {
	if id == "" || id == s.live.ID {
		return s.live, nil
	}
	return s.views.Get(id)
}

// selectionField resolves a loaded field in the table of viewID.
func (s *State) selectionField(viewID string, src field.Source, fieldIdx int) (*view.Context, *field.Field, error) {
	c, err := s.viewContext(viewID)
	if err != nil {
		return nil, nil, err
	}
	fs := c.Fields(src)
	if fieldIdx < 0 || fieldIdx >= len(fs) {
		return nil, nil, &FieldIndexError{Source: src, Index: fieldIdx, Len: len(fs)}
	}
	f := fs[fieldIdx]
	if f.Lifecycle == field.Purged {
		return nil, nil, fmt.Errorf("%w: %s", ErrFieldPurged, f.Ref())
	}
	if !f.Loaded {
		if live, _, _ := s.reg.Lookup(f.Ref()); c != s.live && live != nil && live.Loaded {
			f = live
		} else {
			return nil, nil, fmt.Errorf("%w: %s", ErrFieldNotLoaded, f.Ref())
		}
	}
	return c, f, nil
}
