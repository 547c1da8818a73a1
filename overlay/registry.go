package overlay

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/hupe1980/pointview/field"
)

// RenameRegistry records display-name overrides.
type RenameRegistry interface {
	SetName(ref field.Ref, name string)
	Revert(ref field.Ref)
	Name(ref field.Ref) (string, bool)
}

// DeleteRegistry records lifecycle overrides. Fields without an entry are Active.
type DeleteRegistry interface {
	SetState(ref field.Ref, state field.Lifecycle)
	State(ref field.Ref) field.Lifecycle
}

// TemplateRegistry stores serializable templates of user-defined fields.
type TemplateRegistry interface {
	Put(ctx context.Context, t Template) error
	Get(id string) (Template, bool)
	SetDeleted(ctx context.Context, id string, deleted bool) error
	Remove(ctx context.Context, id string) error
	List(src field.Source) []Template
}

// MemoryRenames is an in-process RenameRegistry.
type MemoryRenames struct {
	mu    sync.RWMutex
	names map[field.Ref]string
}

// NewMemoryRenames returns an empty rename registry.
func NewMemoryRenames() *MemoryRenames {
	return &MemoryRenames{names: make(map[field.Ref]string)}
}

func (r *MemoryRenames) SetName(ref field.Ref, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if name == "" || name == ref.Key {
		delete(r.names, ref)
		return
	}
	r.names[ref] = name
}

func (r *MemoryRenames) Revert(ref field.Ref) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.names, ref)
}

func (r *MemoryRenames) Name(ref field.Ref) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n, ok := r.names[ref]
	return n, ok
}

// MemoryDeletes is an in-process DeleteRegistry.
type MemoryDeletes struct {
	mu     sync.RWMutex
	states map[field.Ref]field.Lifecycle
}

// NewMemoryDeletes returns an empty delete registry.
func NewMemoryDeletes() *MemoryDeletes {
	return &MemoryDeletes{states: make(map[field.Ref]field.Lifecycle)}
}

func (r *MemoryDeletes) SetState(ref field.Ref, state field.Lifecycle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if state == field.Active {
		delete(r.states, ref)
		return
	}
	r.states[ref] = state
}

func (r *MemoryDeletes) State(ref field.Ref) field.Lifecycle {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.states[ref]
}

// MemoryTemplates is an in-process TemplateRegistry.
type MemoryTemplates struct {
	mu        sync.RWMutex
	templates map[string]Template
}

// NewMemoryTemplates returns an empty template registry.
func NewMemoryTemplates() *MemoryTemplates {
	return &MemoryTemplates{templates: make(map[string]Template)}
}

func (r *MemoryTemplates) Put(_ context.Context, t Template) error {
	if t.ID == "" {
		return ErrMissingID
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.templates[t.ID] = stamp(t, r.templates[t.ID]).Clone()
	return nil
}

func (r *MemoryTemplates) Get(id string) (Template, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.templates[id]
	if !ok {
		return Template{}, false
	}
	return t.Clone(), true
}

func (r *MemoryTemplates) SetDeleted(_ context.Context, id string, deleted bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.templates[id]
	if !ok {
		return ErrTemplateNotFound
	}
	t.Deleted = deleted
	r.templates[id] = t
	return nil
}

func (r *MemoryTemplates) Remove(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.templates, id)
	return nil
}

func (r *MemoryTemplates) List(src field.Source) []Template {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return listSorted(r.templates, src)
}

// stamp carries the creation time of prev forward, or assigns a new one.
func stamp(t, prev Template) Template {
	switch {
	case prev.Created != 0:
		t.Created = prev.Created
	case t.Created == 0:
		t.Created = time.Now().UnixNano()
	}
	return t
}

func listSorted(m map[string]Template, src field.Source) []Template {
	out := make([]Template, 0, len(m))
	for _, t := range m {
		if t.Source == src {
			out = append(out, t.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Created != out[j].Created {
			return out[i].Created < out[j].Created
		}
		return out[i].ID < out[j].ID
	})
	return out
}
