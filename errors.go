package pointview

import (
	"errors"
	"fmt"

	"github.com/hupe1980/pointview/categorical"
	"github.com/hupe1980/pointview/field"
	"github.com/hupe1980/pointview/highlight"
	"github.com/hupe1980/pointview/loader"
	"github.com/hupe1980/pointview/registry"
	"github.com/hupe1980/pointview/view"
)

var (
	// ErrInvalidFieldIndex is returned for field indices outside the table.
	ErrInvalidFieldIndex = errors.New("invalid field index")
	// ErrInvalidCategory is returned for bad category indices.
	ErrInvalidCategory = categorical.ErrInvalidCategory
	// ErrInvalidKey is returned for empty keys and names.
	ErrInvalidKey = registry.ErrInvalidKey
	// ErrDuplicateKey is returned when two fields share an original key.
	ErrDuplicateKey = registry.ErrDuplicateKey
	// ErrFieldPurged is returned for operations on purged fields.
	ErrFieldPurged = errors.New("field is purged")
	// ErrFieldDeleted is returned for edits on soft-deleted fields.
	ErrFieldDeleted = errors.New("field is deleted")
	// ErrFieldNotLoaded is returned when an operation needs field data that is not loaded.
	ErrFieldNotLoaded = errors.New("field is not loaded")
	// ErrNotCategorical is returned when a categorical field is required.
	ErrNotCategorical = errors.New("field is not categorical")
	// ErrNotContinuous is returned when a continuous field is required.
	ErrNotContinuous = errors.New("field is not continuous")
	// ErrViewNotFound is returned for unknown view ids.
	ErrViewNotFound = view.ErrViewNotFound
	// ErrActiveView is returned when deleting the active view.
	ErrActiveView = errors.New("view is active")
	// ErrPageNotFound is returned for unknown highlight pages.
	ErrPageNotFound = highlight.ErrPageNotFound
	// ErrGroupNotFound is returned for unknown highlight groups.
	ErrGroupNotFound = highlight.ErrGroupNotFound
	// ErrNoEmbedding is returned when no embedding provider is configured.
	ErrNoEmbedding = errors.New("no embedding provider configured")
	// ErrNoLoader is returned when no loader is configured for a source.
	ErrNoLoader = loader.ErrNoLoader
	// ErrInvalidTransition is returned for lifecycle moves out of Purged.
	ErrInvalidTransition = field.ErrInvalidTransition
)

// LengthMismatchError is returned when a loaded buffer does not match the point count.
type LengthMismatchError = loader.LengthMismatchError

// FieldIndexError indicates a field index outside the table of its source.
//
// errors.Is(err, ErrInvalidFieldIndex) reports true for it.
type FieldIndexError struct {
	Source field.Source
	Index  int
	Len    int
}

func (e *FieldIndexError) Error() string {
	return fmt.Sprintf("invalid %s field index %d (have %d fields)", e.Source, e.Index, e.Len)
}

func (e *FieldIndexError) Unwrap() error { return ErrInvalidFieldIndex }

// CategoryError indicates a rejected category index or edit.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type CategoryError struct {
	Field field.Ref
	Index int
	Len   int
	cause error
}

func (e *CategoryError) Error() string {
	if e.cause != nil && !errors.Is(e.cause, ErrInvalidCategory) {
		return fmt.Sprintf("invalid category %d of %s: %v", e.Index, e.Field, e.cause)
	}
	if e.cause != nil && e.cause != ErrInvalidCategory {
		return fmt.Sprintf("%s: %v", e.Field, e.cause)
	}
	return fmt.Sprintf("invalid category %d of %s (have %d categories)", e.Index, e.Field, e.Len)
}

func (e *CategoryError) Unwrap() []error {
	if e.cause == nil || e.cause == ErrInvalidCategory {
		return []error{ErrInvalidCategory}
	}
	return []error{ErrInvalidCategory, e.cause}
}
