package pointview

import (
	"github.com/hupe1980/pointview/field"
)

type batchState struct {
	depth      int
	visibility bool
	colors     bool
	fields     map[field.Ref]struct{}
}

// BeginBatch enters batch mode. Calls nest; only the outermost EndBatch
// flushes. While in batch mode visibility recomputes and color
// reapplications are deferred.
func (s *State) BeginBatch() {
	s.mu.Lock()
	defer s.unlock()
	s.batch.depth++
}

// EndBatch leaves batch mode. The outermost call repaints the shared color
// buffer at most once and recomputes visibility at most once.
func (s *State) EndBatch() {
	s.mu.Lock()
	defer s.unlock()
	if s.batch.depth == 0 {
		return
	}
	s.batch.depth--
	if s.batch.depth > 0 {
		return
	}
	s.flushBatch()
}

// Batch runs fn inside BeginBatch/EndBatch and returns its error.
func (s *State) Batch(fn func() error) error {
	s.BeginBatch()
	defer s.EndBatch()
	return fn()
}

// InBatch reports whether batch mode is active.
func (s *State) InBatch() bool {
	s.mu.Lock()
	defer s.unlock()
	return s.batch.depth > 0
}

func (s *State) flushBatch() {
	b := s.batch
	s.batch.visibility = false
	s.batch.colors = false
	s.batch.fields = make(map[field.Ref]struct{})

	if b.colors {
		s.paint(s.activeField())
	}
	if b.visibility {
		s.recomputeVisibility()
	}
}
