package view

import (
	"errors"
	"fmt"
	"slices"

	"github.com/hupe1980/pointview/resource"
)

// ErrViewNotFound is returned for unknown view ids.
var ErrViewNotFound = errors.New("view not found")

type entry struct {
	ctx  *Context
	size int64
}

// Store keeps stored view contexts and accounts their memory.
//
// Store is not safe for concurrent use.
type Store struct {
	rc    *resource.Controller
	views map[string]*entry
	order []string
}

// NewStore creates a store. rc may be nil for unlimited memory.
func NewStore(rc *resource.Controller) *Store {
	return &Store{rc: rc, views: make(map[string]*entry)}
}

// Put stores c under c.ID, replacing an existing context with that id. The
// size difference is reserved before anything changes; on a budget error
// the store is untouched.
func (s *Store) Put(c *Context) error {
	size := c.SizeBytes()
	prev, ok := s.views[c.ID]

	var old int64
	if ok {
		old = prev.size
	}
	switch {
	case size > old:
		if err := s.rc.ReserveMemory(size - old); err != nil {
			return fmt.Errorf("store view %q: %w", c.ID, err)
		}
	case size < old:
		s.rc.ReleaseMemory(old - size)
	}

	if !ok {
		s.order = append(s.order, c.ID)
	}
	s.views[c.ID] = &entry{ctx: c, size: size}
	return nil
}

// Get returns the stored context with id.
func (s *Store) Get(id string) (*Context, error) {
	e, ok := s.views[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrViewNotFound, id)
	}
	return e.ctx, nil
}

// Has reports whether id is stored.
func (s *Store) Has(id string) bool {
	_, ok := s.views[id]
	return ok
}

// Delete removes a context and releases its memory.
func (s *Store) Delete(id string) error {
	e, ok := s.views[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrViewNotFound, id)
	}
	delete(s.views, id)
	s.order = slices.DeleteFunc(s.order, func(v string) bool { return v == id })
	s.rc.ReleaseMemory(e.size)
	return nil
}

// Refresh re-measures a context mutated in place and adjusts its reservation.
func (s *Store) Refresh(id string) error {
	e, ok := s.views[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrViewNotFound, id)
	}
	return s.Put(e.ctx)
}

// IDs lists stored ids in insertion order.
func (s *Store) IDs() []string { return slices.Clone(s.order) }

// Len returns the number of stored contexts.
func (s *Store) Len() int { return len(s.views) }

// MemoryUsage returns the bytes accounted for stored contexts.
func (s *Store) MemoryUsage() int64 {
	var n int64
	for _, e := range s.views {
		n += e.size
	}
	return n
}
