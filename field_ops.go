package pointview

import (
	"context"
	"fmt"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/pointview/field"
	"github.com/hupe1980/pointview/loader"
	"github.com/hupe1980/pointview/overlay"
	"github.com/hupe1980/pointview/visibility"
)

// Fields returns the live field table of src. The fields are owned by the
// State; read them only while no operation runs concurrently.
func (s *State) Fields(src field.Source) field.FieldSet {
	s.mu.Lock()
	defer s.unlock()
	return slices.Clone(s.live.Fields(src))
}

// Field returns the live field at fieldIdx.
func (s *State) Field(src field.Source, fieldIdx int) (*field.Field, error) {
	s.mu.Lock()
	defer s.unlock()
	f, err := s.fieldAt(src, fieldIdx)
	if err != nil {
		return nil, s.reject("field", err)
	}
	return f, nil
}

// IndexByKey resolves an original key to its position in src. Unknown keys
// yield -1 and no error.
func (s *State) IndexByKey(src field.Source, originalKey string) (int, error) {
	s.mu.Lock()
	defer s.unlock()
	i, err := s.reg.IndexByKey(src, originalKey)
	if err != nil {
		return -1, s.reject("index-by-key", err)
	}
	return i, nil
}

// VisibleFields returns the fields of src that are neither deleted nor purged.
func (s *State) VisibleFields(src field.Source) []*field.Field {
	s.mu.Lock()
	defer s.unlock()
	return s.reg.VisibleFields(src)
}

// DeletedFields returns the soft-deleted fields of src, including deleted
// user-defined fields only known to the template registry.
func (s *State) DeletedFields(src field.Source) []*field.Field {
	s.mu.Lock()
	defer s.unlock()
	return s.reg.DeletedFields(src)
}

// CategoricalFields returns the active categorical fields of src.
func (s *State) CategoricalFields(src field.Source) []*field.Field {
	s.mu.Lock()
	defer s.unlock()
	return s.reg.CategoricalFields(src)
}

// ContinuousFields returns the active continuous fields of src.
func (s *State) ContinuousFields(src field.Source) []*field.Field {
	s.mu.Lock()
	defer s.unlock()
	return s.reg.ContinuousFields(src)
}

// SetActiveField makes a loaded field the active field. Activating a field
// of one source deactivates any active field of the other.
func (s *State) SetActiveField(src field.Source, fieldIdx int) error {
	s.mu.Lock()
	defer s.unlock()

	f, err := s.editableField(src, fieldIdx)
	if err != nil {
		return s.reject("set-active-field", err)
	}
	if !f.Loaded {
		return s.reject("set-active-field", fmt.Errorf("%w: %s", ErrFieldNotLoaded, f.Ref()))
	}
	s.setActive(f.Ref())
	return nil
}

// ActiveField returns the active field of the live view.
func (s *State) ActiveField() (*field.Field, bool) {
	s.mu.Lock()
	defer s.unlock()
	f := s.activeField()
	return f, f != nil
}

// ClearActiveField leaves the live view without an active field.
func (s *State) ClearActiveField() {
	s.mu.Lock()
	defer s.unlock()
	s.setActive(field.Ref{})
}

// EnsureFieldLoaded loads the obs field at fieldIdx through the obs loader.
func (s *State) EnsureFieldLoaded(ctx context.Context, fieldIdx int) error {
	return s.ensureLoaded(ctx, field.SourceObs, fieldIdx)
}

// EnsureVarFieldLoaded loads the var field at fieldIdx through the var loader.
func (s *State) EnsureVarFieldLoaded(ctx context.Context, fieldIdx int) error {
	return s.ensureLoaded(ctx, field.SourceVar, fieldIdx)
}

// EnsureFieldsLoaded loads several fields of src concurrently, bounded by
// the resource controller's load concurrency. It returns the first error;
// fields loaded before it stay loaded.
func (s *State) EnsureFieldsLoaded(ctx context.Context, src field.Source, indices []int) error {
	g, ctx := errgroup.WithContext(ctx)
	if limit := int(s.opts.resources.Config().MaxConcurrentLoads); limit > 0 {
		g.SetLimit(limit)
	}
	for _, idx := range indices {
		g.Go(func() error {
			return s.ensureLoaded(ctx, src, idx)
		})
	}
	return g.Wait()
}

func (s *State) ensureLoaded(ctx context.Context, src field.Source, idx int) error {
	s.mu.Lock()
	f, err := s.fieldAt(src, idx)
	if err == nil && f.Lifecycle == field.Purged {
		err = fmt.Errorf("%w: %s", ErrFieldPurged, f.Ref())
	}
	if err != nil {
		s.unlock()
		return s.reject("ensure-field-loaded", err)
	}
	if f.Loaded {
		s.unlock()
		return nil
	}
	d := loader.Descriptor{Ref: f.Ref(), Key: f.Key, Kind: f.Kind}
	s.unlock()

	start := time.Now()
	data, shared, err := s.loader.Load(ctx, d)
	s.metrics.RecordLoad(time.Since(start), shared, err)
	s.log.WithField(d.Ref).LogLoad(ctx, d.Ref, shared, err)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.unlock()
	// The table may have changed while loading.
	f, _, err = s.reg.Lookup(d.Ref)
	if err != nil || f == nil || f.Loaded || f.Lifecycle == field.Purged {
		return nil
	}
	s.install(f, data)
	return nil
}

// install applies loaded data to a live field and updates what depends on it.
func (s *State) install(f *field.Field, d *loader.Data) {
	applyData(f, d)
	if f.Source == field.SourceObs && f.HasOutlierData() {
		s.rebuildOutlierRatios()
	}
	if f == s.activeField() {
		s.markColors(f)
		s.recomputeCentroids()
	}
	s.recomputeVisibility()
	s.emit(Event{Type: EventFieldChanged, Ref: f.Ref(), Edit: EditLoad, Label: f.Key})
}

// RenameField sets the display name of a field. The original key, and with
// it every registry entry, is unaffected.
func (s *State) RenameField(ctx context.Context, src field.Source, fieldIdx int, name string) error {
	s.mu.Lock()
	defer s.unlock()

	f, err := s.fieldAt(src, fieldIdx)
	if err == nil && f.Lifecycle == field.Purged {
		err = fmt.Errorf("%w: %s", ErrFieldPurged, f.Ref())
	}
	if err == nil {
		err = checkName(name)
	}
	if err != nil {
		return s.reject("rename-field", err)
	}

	s.opts.renames.SetName(f.Ref(), name)
	f.Key = name
	s.syncTemplate(ctx, f)
	s.refreshSummary()
	s.emit(Event{Type: EventFieldChanged, Ref: f.Ref(), Edit: EditRename, Label: name})
	return nil
}

// RevertFieldName restores the original key as display name.
func (s *State) RevertFieldName(ctx context.Context, src field.Source, fieldIdx int) error {
	s.mu.Lock()
	defer s.unlock()

	f, err := s.fieldAt(src, fieldIdx)
	if err != nil {
		return s.reject("revert-field-name", err)
	}
	s.opts.renames.Revert(f.Ref())
	f.Key = f.OriginalKey
	s.syncTemplate(ctx, f)
	s.refreshSummary()
	s.emit(Event{Type: EventFieldChanged, Ref: f.Ref(), Edit: EditRename, Label: f.Key})
	return nil
}

// DeleteField soft-deletes a field. A deleted field stops filtering and
// can be restored with RestoreField.
func (s *State) DeleteField(ctx context.Context, src field.Source, fieldIdx int) error {
	s.mu.Lock()
	defer s.unlock()

	f, err := s.fieldAt(src, fieldIdx)
	if err != nil {
		return s.reject("delete-field", err)
	}
	if f.Lifecycle == field.Deleted {
		return nil
	}
	if err := s.setLifecycle(ctx, f, field.Deleted); err != nil {
		return s.reject("delete-field", err)
	}
	s.afterLifecycleChange(f, EditDelete)
	return nil
}

// RestoreField restores a soft-deleted field and returns its index. Deleted
// user-defined fields that are only known to the template registry are
// materialized into the live table.
func (s *State) RestoreField(ctx context.Context, ref field.Ref) (int, error) {
	s.mu.Lock()
	defer s.unlock()

	f, idx, err := s.reg.Lookup(ref)
	if err != nil {
		return -1, s.reject("restore-field", err)
	}
	if f == nil {
		f, idx, err = s.restoreTemplate(ctx, ref)
		if err != nil {
			return -1, s.reject("restore-field", err)
		}
	} else if f.Lifecycle != field.Active {
		if err := s.setLifecycle(ctx, f, field.Active); err != nil {
			return -1, s.reject("restore-field", err)
		}
	}
	s.afterLifecycleChange(f, EditRestore)
	return idx, nil
}

func (s *State) restoreTemplate(ctx context.Context, ref field.Ref) (*field.Field, int, error) {
	for _, t := range s.opts.templates.List(ref.Source) {
		if t.OriginalKey != ref.Key || !t.Deleted {
			continue
		}
		f, err := t.Materialize()
		if err != nil {
			return nil, -1, err
		}
		if err := s.initField(f, ref.Source); err != nil {
			return nil, -1, err
		}
		if err := s.opts.templates.SetDeleted(ctx, t.ID, false); err != nil {
			return nil, -1, err
		}
		s.opts.deletes.SetState(ref, field.Active)
		f.Lifecycle = field.Active
		s.overlayField(f)
		idx := s.appendField(f)
		return f, idx, nil
	}
	return nil, -1, fmt.Errorf("%w: %s", ErrInvalidKey, ref)
}

// PurgeField permanently removes a field. The field keeps its slot in the
// table in the Purged state, its data is released and its template dropped.
func (s *State) PurgeField(ctx context.Context, ref field.Ref) error {
	s.mu.Lock()
	defer s.unlock()

	f, _, err := s.reg.Lookup(ref)
	if err != nil {
		return s.reject("purge-field", err)
	}
	if f == nil {
		return s.purgeTemplate(ctx, ref)
	}
	if f.Lifecycle == field.Purged {
		return nil
	}
	if _, err := f.Lifecycle.Transition(field.Purged); err != nil {
		return s.reject("purge-field", err)
	}
	if f.TemplateID != "" {
		if err := s.opts.templates.Remove(ctx, f.TemplateID); err != nil {
			return s.reject("purge-field", err)
		}
	}
	s.opts.deletes.SetState(ref, field.Purged)
	f.Lifecycle = field.Purged
	f.Loaded = false
	f.Values, f.Codes, f.OutlierQuantiles = nil, nil, nil
	s.loader.Forget(ref)
	s.afterLifecycleChange(f, EditPurge)
	return nil
}

func (s *State) purgeTemplate(ctx context.Context, ref field.Ref) error {
	for _, t := range s.opts.templates.List(ref.Source) {
		if t.OriginalKey != ref.Key {
			continue
		}
		if err := s.opts.templates.Remove(ctx, t.ID); err != nil {
			return s.reject("purge-field", err)
		}
		s.opts.deletes.SetState(ref, field.Purged)
		s.emit(Event{Type: EventFieldChanged, Ref: ref, Edit: EditPurge, Label: t.Key})
		return nil
	}
	return s.reject("purge-field", fmt.Errorf("%w: %s", ErrInvalidKey, ref))
}

// setLifecycle moves f to next, updating the delete registry and, for
// user-defined fields, the template's deleted flag together.
func (s *State) setLifecycle(ctx context.Context, f *field.Field, next field.Lifecycle) error {
	state, err := f.Lifecycle.Transition(next)
	if err != nil {
		return err
	}
	if f.TemplateID != "" {
		if err := s.opts.templates.SetDeleted(ctx, f.TemplateID, state != field.Active); err != nil {
			return err
		}
	}
	s.opts.deletes.SetState(f.Ref(), state)
	f.Lifecycle = state
	return nil
}

func (s *State) afterLifecycleChange(f *field.Field, edit string) {
	if f.Lifecycle != field.Active && s.live.Active == f.Ref() {
		s.setActive(field.Ref{})
	}
	if f.Source == field.SourceObs && f.HasOutlierData() {
		s.rebuildOutlierRatios()
	}
	s.recomputeVisibility()
	s.emit(Event{Type: EventFieldChanged, Ref: f.Ref(), Edit: edit, Label: f.Key})
}

// DuplicateField copies a loaded field into a new user-defined field named
// name and returns its index. An empty name derives one from the source.
func (s *State) DuplicateField(ctx context.Context, src field.Source, fieldIdx int, name string) (int, error) {
	s.mu.Lock()
	defer s.unlock()

	f, err := s.editableField(src, fieldIdx)
	if err == nil && !f.Loaded {
		err = fmt.Errorf("%w: %s", ErrFieldNotLoaded, f.Ref())
	}
	if err != nil {
		return -1, s.reject("duplicate-field", err)
	}
	if name == "" {
		name = f.Key + " (copy)"
	}

	dup := f.Clone()
	dup.OriginalKey = s.uniqueKey(src, name)
	dup.Key = dup.OriginalKey
	dup.UserDefined = true
	dup.TemplateID = overlay.NewTemplateID()
	dup.Lifecycle = field.Active
	if dup.IsCategorical() {
		dup.Codes = f.Codes.Clone()
	} else {
		dup.Values = slices.Clone(f.Values)
	}

	if err := s.putTemplate(ctx, dup, f.Ref(), EditDuplicate); err != nil {
		return -1, s.reject("duplicate-field", err)
	}
	idx := s.appendField(dup)
	s.emit(Event{Type: EventFieldChanged, Ref: dup.Ref(), Edit: EditDuplicate, Label: dup.Key})
	return idx, nil
}

// uniqueKey returns base, or base with a numeric suffix, that no live
// field or stored template of src uses as original key.
func (s *State) uniqueKey(src field.Source, base string) string {
	taken := func(key string) bool {
		if s.live.Fields(src).IndexOf(key) >= 0 {
			return true
		}
		return slices.ContainsFunc(s.opts.templates.List(src), func(t overlay.Template) bool {
			return t.OriginalKey == key
		})
	}
	key := base
	for i := 2; taken(key); i++ {
		key = fmt.Sprintf("%s (%d)", base, i)
	}
	return key
}

// appendField adds f to the live table of its source and returns its index.
func (s *State) appendField(f *field.Field) int {
	if f.Source == field.SourceVar {
		s.live.Vars = append(s.live.Vars, f)
	} else {
		s.live.Obs = append(s.live.Obs, f)
	}
	s.reg.Invalidate()
	return len(s.live.Fields(f.Source)) - 1
}

// putTemplate stores the template of a new user-defined field.
func (s *State) putTemplate(ctx context.Context, f *field.Field, from field.Ref, edit string) error {
	t, err := overlay.FromField(f)
	if err != nil {
		return err
	}
	t.DerivedFrom = from.Key
	t.Edit = edit
	return s.opts.templates.Put(ctx, t)
}

// syncTemplate rewrites the template of a user-defined field after an edit.
// Failures are logged and do not undo the edit.
func (s *State) syncTemplate(ctx context.Context, f *field.Field) {
	if f.TemplateID == "" || !f.Loaded {
		return
	}
	t, err := overlay.FromField(f)
	if err == nil {
		if prev, ok := s.opts.templates.Get(f.TemplateID); ok {
			t.DerivedFrom, t.Edit = prev.DerivedFrom, prev.Edit
		}
		err = s.opts.templates.Put(ctx, t)
	}
	if err != nil {
		s.log.LogBestEffort(ctx, "sync template", err)
	}
}

func (s *State) refreshSummary() {
	s.summary = visibility.Summary(s.visibilityInput())
}
