package pointview

import (
	"context"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/hupe1980/pointview/categorical"
	"github.com/hupe1980/pointview/field"
	"github.com/hupe1980/pointview/view"
	"github.com/hupe1980/pointview/visibility"
)

// ActiveViewID returns the id of the live view.
func (s *State) ActiveViewID() string {
	s.mu.Lock()
	defer s.unlock()
	return s.live.ID
}

// Views lists the live view followed by the stored snapshots.
func (s *State) Views() []string {
	s.mu.Lock()
	defer s.unlock()
	return append([]string{s.live.ID}, s.views.IDs()...)
}

// CreateView snapshots the live view under id. The snapshot owns an
// independent copy of every field and buffer.
func (s *State) CreateView(id string) error {
	s.mu.Lock()
	defer s.unlock()

	if err := checkName(id); err != nil {
		return s.reject("create-view", err)
	}
	if id == s.live.ID || s.views.Has(id) {
		return s.reject("create-view", fmt.Errorf("%w: view %q", ErrDuplicateKey, id))
	}
	c := s.live.Clone(id)
	c.Name = id
	if err := s.views.Put(c); err != nil {
		return s.reject("create-view", err)
	}
	s.sink.UpdateSnapshotAttributes(id, snapshotAttributes(c))
	return nil
}

// SetActiveView makes the stored view id live. The outgoing live view is
// stored under its own id. Overlays are reapplied to the incoming view and
// every live buffer is pushed to the sink.
func (s *State) SetActiveView(id string) (err error) {
	start := time.Now()
	s.mu.Lock()
	defer s.unlock()

	from := s.live.ID
	defer func() {
		s.metrics.RecordViewSwitch(time.Since(start), err)
		s.log.LogViewSwitch(context.Background(), from, id, err)
	}()

	if id == from {
		return nil
	}
	target, err := s.views.Get(id)
	if err != nil {
		return err
	}
	if err := s.views.Delete(id); err != nil {
		return err
	}
	if err := s.views.Put(s.live); err != nil {
		if perr := s.views.Put(target); perr != nil {
			s.log.LogBestEffort(context.Background(), "restore view", perr)
		}
		return err
	}

	s.live = target
	s.reg.Invalidate()
	changed := s.applyOverlays(s.live)
	if a := s.live.ActiveField(); s.live.Active.Valid() && (a == nil || !a.IsActive() || !a.Loaded) {
		s.live.Active = field.Ref{}
		changed = true
	}

	if changed {
		s.refreshAll()
	} else {
		s.pushAll()
	}
	s.emit(Event{Type: EventViewChanged})
	return nil
}

// pushAll pushes the live buffers as they are, re-deriving only the
// active-field caches that are not stored with a view.
func (s *State) pushAll() {
	in := s.visibilityInput()
	s.live.Transparency, _ = visibility.EnsureLength(s.live.Transparency, s.n)
	if len(s.live.Colors) != s.n*visibility.BytesPerPoint {
		s.live.Colors = visibility.Paint(s.live.Colors, in.Active, s.n, s.live.Transparency)
	}
	if len(s.live.OutlierRatios) != s.n {
		s.live.OutlierRatios, _ = visibility.AggregateOutlierRatios(s.live.OutlierRatios, s.live.Obs, s.n)
	}
	s.updateActiveCounts(in.Active)
	s.shown = visibility.CountShown(s.live.Transparency)
	s.summary = visibility.Summary(in)

	s.sink.UpdateColors(s.live.Colors)
	s.sink.UpdateTransparency(s.live.Transparency)
	s.sink.UpdateOutlierQuantiles(s.live.OutlierRatios)
	s.sink.SetCentroids(s.live.Centroids)
	s.sink.SetCentroidLabels(s.live.Centroids.Labels, s.live.ID)
	s.sink.UpdateHighlight(s.highlights.Buffer(), nil)
}

// DeleteView drops a stored view. The live view cannot be deleted.
func (s *State) DeleteView(id string) error {
	s.mu.Lock()
	defer s.unlock()
	if id == s.live.ID {
		return s.reject("delete-view", fmt.Errorf("%w: %q", ErrActiveView, id))
	}
	if err := s.views.Delete(id); err != nil {
		return s.reject("delete-view", err)
	}
	return nil
}

// ViewTransparency returns a copy of the transparency buffer of a view,
// e.g. to build selections that respect that view's filters.
func (s *State) ViewTransparency(id string) ([]float32, error) {
	s.mu.Lock()
	defer s.unlock()
	c, err := s.viewContext(id)
	if err != nil {
		return nil, s.reject("view-transparency", err)
	}
	return slices.Clone(c.Transparency), nil
}

// SetViewCategoryVisible shows or hides a category in one view. For a
// stored view only that view's clone changes and the result is pushed as
// snapshot attributes.
func (s *State) SetViewCategoryVisible(id string, src field.Source, fieldIdx, category int, visible bool) error {
	s.mu.Lock()
	defer s.unlock()
	if s.isLive(id) {
		return s.setCategoryVisible(src, fieldIdx, category, visible)
	}

	c, f, err := s.snapshotField(id, src, fieldIdx)
	if err == nil && !f.IsCategorical() {
		err = fmt.Errorf("%w: %s", ErrNotCategorical, f.Ref())
	}
	if err == nil {
		err = checkCategory(f, category)
	}
	if err != nil {
		return s.reject("set-view-category-visible", err)
	}
	f.Categorical.Visible[category] = visible
	s.recomputeSnapshot(c)
	return nil
}

// SetViewContinuousFilter sets the range filter of a field in one view.
func (s *State) SetViewContinuousFilter(id string, src field.Source, fieldIdx int, lo, hi float64) error {
	s.mu.Lock()
	defer s.unlock()
	if s.isLive(id) {
		return s.setContinuousFilter(src, fieldIdx, lo, hi)
	}

	c, f, err := s.snapshotField(id, src, fieldIdx)
	if err == nil && (f.IsCategorical() || f.Continuous == nil) {
		err = fmt.Errorf("%w: %s", ErrNotContinuous, f.Ref())
	}
	if err == nil && (math.IsNaN(lo) || math.IsNaN(hi)) {
		err = fmt.Errorf("invalid filter range [%v, %v]", lo, hi)
	}
	if err != nil {
		return s.reject("set-view-continuous-filter", err)
	}
	f.Continuous.SetFilter(lo, hi)
	s.recomputeSnapshot(c)
	return nil
}

func (s *State) isLive(id string) bool {
	return id == "" || id == s.live.ID
}

// snapshotField resolves an editable, loaded field of a stored view,
// hydrating it from the load cache when needed.
func (s *State) snapshotField(id string, src field.Source, fieldIdx int) (*view.Context, *field.Field, error) {
	c, err := s.views.Get(id)
	if err != nil {
		return nil, nil, err
	}
	s.applyOverlays(c)
	fs := c.Fields(src)
	if fieldIdx < 0 || fieldIdx >= len(fs) {
		return nil, nil, &FieldIndexError{Source: src, Index: fieldIdx, Len: len(fs)}
	}
	f := fs[fieldIdx]
	switch {
	case f.Lifecycle == field.Purged:
		return nil, nil, fmt.Errorf("%w: %s", ErrFieldPurged, f.Ref())
	case f.Lifecycle == field.Deleted:
		return nil, nil, fmt.Errorf("%w: %s", ErrFieldDeleted, f.Ref())
	case !f.Loaded:
		return nil, nil, fmt.Errorf("%w: %s", ErrFieldNotLoaded, f.Ref())
	}
	return c, f, nil
}

// recomputeSnapshot recomputes the visibility of a stored view in its own
// buffers and pushes them addressed to that view.
func (s *State) recomputeSnapshot(c *view.Context) {
	active := c.ActiveField()
	if active != nil && !active.IsActive() {
		active = nil
	}
	start := time.Now()
	var res visibility.Result
	c.Transparency, res = visibility.Compute(c.Transparency, visibility.Input{
		PointCount: s.n,
		Obs:        c.Obs,
		Active:     active,
	})
	if len(c.Colors) != s.n*visibility.BytesPerPoint {
		c.Colors = visibility.Paint(c.Colors, active, s.n, c.Transparency)
	} else {
		visibility.SyncAlpha(c.Colors, c.Transparency)
	}
	if active != nil && active.IsCategorical() && active.Loaded {
		active.Categorical.Counts.Visible = categorical.VisibleCounts(active.Codes, active.NumCategories(), c.Transparency)
	}
	if err := s.views.Refresh(c.ID); err != nil {
		s.log.LogBestEffort(context.Background(), "refresh view", err)
	}
	s.sink.UpdateSnapshotAttributes(c.ID, Attributes{Colors: c.Colors, Transparency: c.Transparency})
	s.log.WithView(c.ID).LogVisibility(context.Background(), res.Shown, res.Total, res.FastPath, time.Since(start))
}

func snapshotAttributes(c *view.Context) Attributes {
	centroids := c.Centroids
	return Attributes{
		Colors:           c.Colors,
		Transparency:     c.Transparency,
		OutlierQuantiles: c.OutlierRatios,
		Centroids:        &centroids,
	}
}
