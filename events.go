package pointview

import (
	"fmt"

	"github.com/hupe1980/pointview/field"
)

// EventType identifies a state change notification.
type EventType uint8

const (
	EventVisibilityChanged EventType = iota + 1
	EventFieldChanged
	EventActiveFieldChanged
	EventViewChanged
	EventHighlightChanged
)

func (t EventType) String() string {
	switch t {
	case EventVisibilityChanged:
		return "visibility-changed"
	case EventFieldChanged:
		return "field-changed"
	case EventActiveFieldChanged:
		return "active-field-changed"
	case EventViewChanged:
		return "view-changed"
	case EventHighlightChanged:
		return "highlight-changed"
	default:
		return fmt.Sprintf("event(%d)", uint8(t))
	}
}

// Field edit kinds carried by EventFieldChanged.
const (
	EditDeleteToUnassigned = "delete-to-unassigned"
	EditMerge              = "merge"
	EditRename             = "rename"
	EditDelete             = "delete"
	EditRestore            = "restore"
	EditPurge              = "purge"
	EditDuplicate          = "duplicate"
	EditLoad               = "load"
)

// Event is a state change notification.
type Event struct {
	Type   EventType
	ViewID string
	Ref    field.Ref
	// Edit and Label describe field changes.
	Edit  string
	Label string
	// Shown and Total describe visibility changes.
	Shown int
	Total int
}

// Subscribe registers fn for every event and returns a function that
// removes it. Events are delivered after the operation that produced them
// has released the state, so fn may call back into the State.
func (s *State) Subscribe(fn func(Event)) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subSeq++
	id := s.subSeq
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

func (s *State) emit(e Event) {
	if e.ViewID == "" {
		e.ViewID = s.live.ID
	}
	s.pending = append(s.pending, e)
}

// unlock releases the state and delivers queued events.
func (s *State) unlock() {
	events := s.pending
	s.pending = nil
	var subs []func(Event)
	if len(events) > 0 {
		subs = make([]func(Event), 0, len(s.subs))
		for _, fn := range s.subs {
			subs = append(subs, fn)
		}
	}
	s.mu.Unlock()

	for _, e := range events {
		for _, fn := range subs {
			fn(e)
		}
	}
}
