package field

import (
	"errors"
	"fmt"
)

// Kind discriminates categorical from continuous fields.
type Kind uint8

const (
	KindCategory Kind = iota
	KindContinuous
)

func (k Kind) String() string {
	switch k {
	case KindCategory:
		return "category"
	case KindContinuous:
		return "continuous"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Source identifies the field table a field belongs to.
type Source uint8

const (
	SourceObs Source = iota
	SourceVar
)

func (s Source) String() string {
	switch s {
	case SourceObs:
		return "obs"
	case SourceVar:
		return "var"
	default:
		return fmt.Sprintf("source(%d)", uint8(s))
	}
}

// Lifecycle is the soft-delete state of a field.
//
// Active and Deleted may transition into each other freely. Purged is
// terminal.
type Lifecycle uint8

const (
	Active Lifecycle = iota
	Deleted
	Purged
)

// ErrInvalidTransition is returned for lifecycle moves out of Purged.
var ErrInvalidTransition = errors.New("invalid lifecycle transition")

func (l Lifecycle) String() string {
	switch l {
	case Active:
		return "active"
	case Deleted:
		return "deleted"
	case Purged:
		return "purged"
	default:
		return fmt.Sprintf("lifecycle(%d)", uint8(l))
	}
}

// Transition validates a move from l to next and returns next.
func (l Lifecycle) Transition(next Lifecycle) (Lifecycle, error) {
	if l == Purged && next != Purged {
		return l, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, l, next)
	}
	if next > Purged {
		return l, fmt.Errorf("%w: unknown state %d", ErrInvalidTransition, next)
	}
	return next, nil
}

// Ref addresses a field by source table and stable original key.
//
// A Ref with an empty key is the zero value and refers to nothing.
type Ref struct {
	Source Source
	Key    string
}

// Valid reports whether the reference names a field.
func (r Ref) Valid() bool { return r.Key != "" }

func (r Ref) String() string {
	if !r.Valid() {
		return "<none>"
	}
	return r.Source.String() + ":" + r.Key
}
