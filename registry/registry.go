package registry

import (
	"errors"
	"fmt"

	"github.com/hupe1980/pointview/field"
	"github.com/hupe1980/pointview/overlay"
)

var (
	// ErrInvalidKey is returned for empty lookup keys.
	ErrInvalidKey = errors.New("invalid field key")
	// ErrDuplicateKey is returned when two fields of one source share an original key.
	ErrDuplicateKey = errors.New("duplicate field key")
)

// Tables exposes the current field arrays.
type Tables interface {
	Fields(src field.Source) field.FieldSet
}

// Registry maps original keys to array positions.
//
// Registry is not safe for concurrent use; the owning coordinator serializes access.
type Registry struct {
	tables    Tables
	templates overlay.TemplateRegistry

	index [2]map[string]int
	dirty bool
}

// New creates a registry over tables. templates may be nil.
func New(tables Tables, templates overlay.TemplateRegistry) *Registry {
	return &Registry{tables: tables, templates: templates, dirty: true}
}

// Invalidate marks both indices stale. The next lookup rebuilds them.
func (r *Registry) Invalidate() {
	r.dirty = true
}

// Dirty reports whether the next lookup will rebuild.
func (r *Registry) Dirty() bool { return r.dirty }

func (r *Registry) rebuild() error {
	var next [2]map[string]int
	for _, src := range []field.Source{field.SourceObs, field.SourceVar} {
		fs := r.tables.Fields(src)
		m := make(map[string]int, len(fs))
		for i, f := range fs {
			if prev, ok := m[f.OriginalKey]; ok {
				return fmt.Errorf("%w: %s %q at %d and %d", ErrDuplicateKey, src, f.OriginalKey, prev, i)
			}
			m[f.OriginalKey] = i
		}
		next[src] = m
	}
	r.index = next
	r.dirty = false
	return nil
}

// IndexByKey resolves an original key to its current position. It returns
// -1 and no error for unknown keys.
func (r *Registry) IndexByKey(src field.Source, key string) (int, error) {
	if key == "" {
		return -1, ErrInvalidKey
	}
	if r.dirty {
		if err := r.rebuild(); err != nil {
			return -1, err
		}
	}
	if i, ok := r.index[src][key]; ok {
		return i, nil
	}
	return -1, nil
}

// Lookup returns the field with the given original key.
func (r *Registry) Lookup(ref field.Ref) (*field.Field, int, error) {
	i, err := r.IndexByKey(ref.Source, ref.Key)
	if err != nil || i < 0 {
		return nil, i, err
	}
	return r.tables.Fields(ref.Source)[i], i, nil
}

// Validate checks that original keys are unique in both sources.
func (r *Registry) Validate() error {
	return r.rebuild()
}

func (r *Registry) filter(src field.Source, keep func(*field.Field) bool) []*field.Field {
	var out []*field.Field
	for _, f := range r.tables.Fields(src) {
		if keep(f) {
			out = append(out, f)
		}
	}
	return out
}

// VisibleFields returns the fields that are neither deleted nor purged.
func (r *Registry) VisibleFields(src field.Source) []*field.Field {
	return r.filter(src, (*field.Field).IsActive)
}

// CategoricalFields returns the active categorical fields.
func (r *Registry) CategoricalFields(src field.Source) []*field.Field {
	return r.filter(src, func(f *field.Field) bool {
		return f.IsActive() && f.Kind == field.KindCategory
	})
}

// ContinuousFields returns the active continuous fields.
func (r *Registry) ContinuousFields(src field.Source) []*field.Field {
	return r.filter(src, func(f *field.Field) bool {
		return f.IsActive() && f.Kind == field.KindContinuous
	})
}

// DeletedFields returns the soft-deleted fields of src, including deleted
// user-defined templates that are not materialized in the live array.
// Templates that fail to materialize are skipped.
func (r *Registry) DeletedFields(src field.Source) []*field.Field {
	out := r.filter(src, func(f *field.Field) bool {
		return f.Lifecycle == field.Deleted
	})
	if r.templates == nil {
		return out
	}

	live := make(map[string]struct{})
	for _, f := range r.tables.Fields(src) {
		live[f.OriginalKey] = struct{}{}
	}
	for _, t := range r.templates.List(src) {
		if !t.Deleted {
			continue
		}
		if _, ok := live[t.OriginalKey]; ok {
			continue
		}
		f, err := t.Materialize()
		if err != nil {
			continue
		}
		out = append(out, f)
	}
	return out
}
