package pointview

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/hupe1980/pointview/categorical"
	"github.com/hupe1980/pointview/field"
	"github.com/hupe1980/pointview/highlight"
	"github.com/hupe1980/pointview/loader"
	"github.com/hupe1980/pointview/registry"
	"github.com/hupe1980/pointview/view"
	"github.com/hupe1980/pointview/visibility"
)

var sources = [...]field.Source{field.SourceObs, field.SourceVar}

// State coordinates field metadata, per-point buffers, highlights and views.
//
// Every operation runs to completion under one lock, so no caller observes a
// partially updated buffer. Only field loads and dimension changes suspend,
// and they do so outside the lock.
type State struct {
	mu sync.Mutex

	opts    options
	log     *Logger
	metrics MetricsCollector
	sink    RenderSink

	n          int
	live       *view.Context
	views      *view.Store
	reg        *registry.Registry
	highlights *highlight.Manager
	loader     *loader.Loader

	positions map[int][]float32
	dimLock   *semaphore.Weighted

	batch   batchState
	summary []visibility.FilterDescription
	shown   int

	subs    map[int]func(Event)
	subSeq  int
	pending []Event
}

// Compile-time checks.
var (
	_ FilterOps    = (*State)(nil)
	_ FieldOps     = (*State)(nil)
	_ ColorOps     = (*State)(nil)
	_ CategoryOps  = (*State)(nil)
	_ HighlightOps = (*State)(nil)
	_ ViewOps      = (*State)(nil)
)

// liveTables exposes the live field arrays to the registry.
type liveTables struct{ s *State }

func (t liveTables) Fields(src field.Source) field.FieldSet { return t.s.live.Fields(src) }

// New creates a State for pointCount points over the given field tables.
//
// Loaded fields must carry buffers of length pointCount. Overlay registries
// are applied and non-deleted user-defined templates are injected before the
// first visibility computation.
func New(pointCount int, obs, vars field.FieldSet, opts ...Option) (*State, error) {
	if pointCount < 0 {
		return nil, fmt.Errorf("invalid point count %d", pointCount)
	}
	o := applyOptions(opts)

	s := &State{
		opts:       o,
		log:        o.logger,
		metrics:    o.metricsCollector,
		sink:       o.sink,
		n:          pointCount,
		views:      view.NewStore(o.resources),
		highlights: highlight.NewManager(pointCount),
		loader:     loader.New(pointCount, o.obsLoader, o.varLoader, o.resources),
		positions:  make(map[int][]float32),
		dimLock:    semaphore.NewWeighted(1),
		subs:       make(map[int]func(Event)),
	}
	s.batch.fields = make(map[field.Ref]struct{})
	s.live = &view.Context{
		ID:        o.liveViewID,
		Name:      o.liveViewID,
		Obs:       slices.Clone(obs),
		Vars:      slices.Clone(vars),
		Dimension: o.dimension,
	}

	for _, src := range sources {
		for _, f := range s.live.Fields(src) {
			if err := s.initField(f, src); err != nil {
				return nil, err
			}
			if f.Lifecycle != field.Active && s.opts.deletes.State(f.Ref()) == field.Active {
				s.opts.deletes.SetState(f.Ref(), f.Lifecycle)
			}
		}
	}

	s.reg = registry.New(liveTables{s}, o.templates)
	if err := s.reg.Validate(); err != nil {
		return nil, err
	}
	s.applyOverlays(s.live)
	if err := s.reg.Validate(); err != nil {
		return nil, err
	}

	if o.embedding != nil && o.dimension > 0 {
		pos, err := s.fetchPositions(context.Background(), o.dimension)
		if err != nil {
			return nil, err
		}
		s.positions[o.dimension] = pos
	}

	s.refreshAll()
	s.pending = nil
	return s, nil
}

// initField normalizes a field handed in at construction or on injection.
func (s *State) initField(f *field.Field, src field.Source) error {
	f.Source = src
	if f.OriginalKey == "" {
		f.OriginalKey = f.Key
	}
	if f.OriginalKey == "" {
		return fmt.Errorf("%w: %s field without key", ErrInvalidKey, src)
	}
	if f.Key == "" {
		f.Key = f.OriginalKey
	}
	if f.Loaded {
		ref := f.Ref()
		switch {
		case f.Kind == field.KindCategory && f.Codes.Len() != s.n:
			return &LengthMismatchError{Ref: ref, Buffer: "codes", Got: f.Codes.Len(), Want: s.n}
		case f.Kind == field.KindContinuous && len(f.Values) != s.n:
			return &LengthMismatchError{Ref: ref, Buffer: "values", Got: len(f.Values), Want: s.n}
		case f.OutlierQuantiles != nil && len(f.OutlierQuantiles) != s.n:
			return &LengthMismatchError{Ref: ref, Buffer: "outlier quantiles", Got: len(f.OutlierQuantiles), Want: s.n}
		}
	}
	switch f.Kind {
	case field.KindCategory:
		if f.Categorical == nil {
			f.Categorical = field.NewCategoricalMeta(len(f.Categories))
		}
		f.Categorical.Resize(len(f.Categories))
	case field.KindContinuous:
		if f.Continuous == nil {
			f.Continuous = field.NewContinuousMeta(field.ComputeStats(f.Values))
		}
	}
	if f.Continuous != nil && f.Continuous.Colormap == field.DefaultColormap {
		f.Continuous.Colormap = s.opts.colormap
	}
	return nil
}

// activeField returns the active field of the live view if it is usable.
func (s *State) activeField() *field.Field {
	f := s.live.ActiveField()
	if f == nil || !f.IsActive() {
		return nil
	}
	return f
}

func (s *State) visibilityInput() visibility.Input {
	return visibility.Input{PointCount: s.n, Obs: s.live.Obs, Active: s.activeField()}
}

// refreshAll recomputes every derived live buffer and pushes it.
func (s *State) refreshAll() {
	s.rebuildOutlierRatios()
	s.paint(nil)
	s.recomputeCentroids()
	s.recomputeVisibility()
	buf, written := s.highlights.Rebuild()
	s.sink.UpdateHighlight(buf, written)
}

// recomputeVisibility runs the visibility engine over the live view and
// applies its side effects in order: alpha sync, active category counts,
// sink push, filtered count, filter summary, notification.
func (s *State) recomputeVisibility() {
	if s.batch.depth > 0 {
		s.batch.visibility = true
		return
	}
	start := time.Now()
	in := s.visibilityInput()

	buf, res := visibility.Compute(s.live.Transparency, in)
	s.live.Transparency = buf

	if len(s.live.Colors) != s.n*visibility.BytesPerPoint {
		s.live.Colors = visibility.Paint(s.live.Colors, in.Active, s.n, buf)
	} else {
		visibility.SyncAlpha(s.live.Colors, buf)
	}

	s.updateActiveCounts(in.Active)

	s.sink.UpdateTransparency(buf)
	s.sink.UpdateColors(s.live.Colors)

	s.shown = res.Shown
	s.summary = visibility.Summary(in)
	s.emit(Event{Type: EventVisibilityChanged, Shown: res.Shown, Total: res.Total})

	d := time.Since(start)
	s.metrics.RecordVisibility(d, res.Shown, res.Total, res.FastPath)
	s.log.LogVisibility(context.Background(), res.Shown, res.Total, res.FastPath, d)
}

// markColors schedules a color reapplication for f. Only the active field
// paints the shared buffer, so edits to other fields need no repaint.
func (s *State) markColors(f *field.Field) {
	if f == nil || f != s.activeField() {
		return
	}
	if s.batch.depth > 0 {
		s.batch.colors = true
		s.batch.fields[f.Ref()] = struct{}{}
		return
	}
	s.paint(f)
}

// paint repaints the live color buffer from the active field.
func (s *State) paint(f *field.Field) {
	start := time.Now()
	active := s.activeField()
	s.live.Colors = visibility.Paint(s.live.Colors, active, s.n, s.live.Transparency)
	s.refreshCentroidColors(active)
	s.sink.UpdateColors(s.live.Colors)

	key := ""
	if f != nil {
		key = f.OriginalKey
	} else if active != nil {
		key = active.OriginalKey
	}
	s.metrics.RecordColorApply(key, time.Since(start))
}

// updateActiveCounts refreshes total and visible category counts of the
// active categorical field and the centroid alpha derived from them.
func (s *State) updateActiveCounts(active *field.Field) {
	if active == nil || !active.IsCategorical() || !active.Loaded {
		return
	}
	k := active.NumCategories()
	meta := active.Categorical
	if len(meta.Counts.Total) != k {
		meta.Counts.Total = categorical.Counts(active.Codes, k)
	}
	meta.Counts.Visible = categorical.VisibleCounts(active.Codes, k, s.live.Transparency)
	if s.refreshCentroidColors(active) {
		s.sink.SetCentroids(s.live.Centroids)
	}
}

// rebuildOutlierRatios aggregates outlier ratios over the live obs table.
func (s *State) rebuildOutlierRatios() {
	s.live.OutlierRatios, _ = visibility.AggregateOutlierRatios(s.live.OutlierRatios, s.live.Obs, s.n)
	s.sink.UpdateOutlierQuantiles(s.live.OutlierRatios)
}

// recomputeCentroids recomputes centroids of the active categorical field for
// the current dimension only. Missing positions leave centroids empty.
func (s *State) recomputeCentroids() {
	active := s.activeField()
	dim := s.live.Dimension
	c := view.Centroids{Dimension: dim}

	if active != nil && active.IsCategorical() && active.Loaded {
		pos, ok := s.positions[dim]
		switch {
		case !ok || dim <= 0:
		case len(pos) != s.n*dim:
			s.log.LogBestEffort(context.Background(), "centroids",
				&LengthMismatchError{Buffer: "positions", Got: len(pos), Want: s.n * dim})
		default:
			c = computeCentroids(active, pos, dim, s.live.OutlierRatios, s.n)
		}
	}
	s.live.Centroids = c
	s.refreshCentroidColors(active)
	s.sink.SetCentroids(c)
	s.sink.SetCentroidLabels(c.Labels, s.live.ID)
}

func computeCentroids(f *field.Field, pos []float32, dim int, ratios []float32, n int) view.Centroids {
	k := f.NumCategories()
	sums := make([]float64, k*dim)
	qsum := make([]float64, k)
	counts := make([]int, k)
	for i := 0; i < n; i++ {
		code := f.CodeAt(i)
		if code < 0 {
			continue
		}
		counts[code]++
		for d := 0; d < dim; d++ {
			sums[int(code)*dim+d] += float64(pos[i*dim+d])
		}
		if i < len(ratios) {
			qsum[code] += float64(ratios[i])
		}
	}

	c := view.Centroids{
		Positions:        make([]float32, k*dim),
		OutlierQuantiles: make([]float32, k),
		Labels:           slices.Clone(f.Categories),
		Dimension:        dim,
	}
	for cat := 0; cat < k; cat++ {
		if counts[cat] == 0 {
			continue
		}
		inv := 1 / float64(counts[cat])
		for d := 0; d < dim; d++ {
			c.Positions[cat*dim+d] = float32(sums[cat*dim+d] * inv)
		}
		c.OutlierQuantiles[cat] = float32(qsum[cat] * inv)
	}
	return c
}

// refreshCentroidColors recolors centroids from category colors. A centroid
// is opaque while its category has visible points. It reports whether
// centroids exist for the field.
func (s *State) refreshCentroidColors(active *field.Field) bool {
	c := &s.live.Centroids
	if active == nil || !active.IsCategorical() || len(c.Labels) != active.NumCategories() || len(c.Labels) == 0 {
		c.Colors = nil
		return false
	}
	meta := active.Categorical
	k := len(c.Labels)
	if len(c.Colors) != k*visibility.BytesPerPoint {
		c.Colors = make([]uint8, k*visibility.BytesPerPoint)
	}
	for cat := 0; cat < k; cat++ {
		col := field.Neutral
		if cat < len(meta.Colors) {
			col = meta.Colors[cat]
		}
		alpha := uint8(255)
		switch {
		case len(meta.Counts.Visible) == k:
			if meta.Counts.Visible[cat] == 0 {
				alpha = 0
			}
		case cat < len(meta.Visible) && !meta.Visible[cat]:
			alpha = 0
		}
		o := cat * visibility.BytesPerPoint
		c.Colors[o], c.Colors[o+1], c.Colors[o+2], c.Colors[o+3] = col.R, col.G, col.B, alpha
	}
	return true
}

// applyOverlays applies rename and lifecycle overlays to a context, hydrates
// unloaded fields from the load cache and injects user-defined templates
// missing from its tables. It is idempotent and reports whether anything
// changed.
func (s *State) applyOverlays(c *view.Context) bool {
	changed := false
	for _, src := range sources {
		fs := c.Fields(src)
		for _, f := range fs {
			if s.overlayField(f) {
				changed = true
			}
		}

		for _, t := range s.opts.templates.List(src) {
			if t.Deleted || fs.IndexOf(t.OriginalKey) >= 0 {
				continue
			}
			ref := field.Ref{Source: src, Key: t.OriginalKey}
			if s.opts.deletes.State(ref) != field.Active {
				continue
			}
			f, err := t.Materialize()
			if err != nil {
				s.log.LogBestEffort(context.Background(), "inject template", err)
				continue
			}
			if err := s.initField(f, src); err != nil {
				s.log.LogBestEffort(context.Background(), "inject template", err)
				continue
			}
			s.overlayField(f)
			fs = append(fs, f)
			changed = true
		}

		if src == field.SourceVar {
			c.Vars = fs
		} else {
			c.Obs = fs
		}
	}
	if changed && c == s.live {
		s.reg.Invalidate()
	}
	return changed
}

func (s *State) overlayField(f *field.Field) bool {
	changed := false
	ref := f.Ref()

	name := ref.Key
	if n, ok := s.opts.renames.Name(ref); ok {
		name = n
	}
	if f.Key != name {
		f.Key = name
		changed = true
	}

	if state := s.opts.deletes.State(ref); f.Lifecycle != state {
		f.Lifecycle = state
		changed = true
	}

	if !f.Loaded {
		if d, ok := s.loader.Cached(ref); ok {
			applyData(f, d)
			changed = true
		}
	}
	return changed
}

// applyData installs loaded buffers into f.
func applyData(f *field.Field, d *loader.Data) {
	switch f.Kind {
	case field.KindCategory:
		categories := d.Categories
		if categories == nil {
			categories = f.Categories
		}
		f.SetCategoricalData(slices.Clone(categories), d.Codes)
		f.Categorical.Counts.Total = categorical.Counts(d.Codes, len(categories))
	default:
		f.SetContinuousData(d.Values)
	}
	if d.OutlierQuantiles != nil {
		f.OutlierQuantiles = d.OutlierQuantiles
	}
}

// setActive switches the active field of the live view.
func (s *State) setActive(ref field.Ref) {
	if s.live.Active == ref {
		return
	}
	s.live.Active = ref
	if f := s.activeField(); f != nil {
		s.markColors(f)
	} else if s.batch.depth > 0 {
		s.batch.colors = true
	} else {
		s.paint(nil)
	}
	s.recomputeCentroids()
	s.recomputeVisibility()
	s.emit(Event{Type: EventActiveFieldChanged, Ref: ref})
}
