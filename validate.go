package pointview

import (
	"context"
	"fmt"

	"github.com/hupe1980/pointview/field"
)

// reject logs a validation failure and returns err unchanged.
func (s *State) reject(op string, err error) error {
	s.log.LogValidation(context.Background(), op, err)
	return err
}

// fieldAt returns the live field at idx of src.
func (s *State) fieldAt(src field.Source, idx int) (*field.Field, error) {
	if src != field.SourceObs && src != field.SourceVar {
		return nil, fmt.Errorf("%w: unknown source %s", ErrInvalidFieldIndex, src)
	}
	fs := s.live.Fields(src)
	if idx < 0 || idx >= len(fs) {
		return nil, &FieldIndexError{Source: src, Index: idx, Len: len(fs)}
	}
	return fs[idx], nil
}

// editableField returns a field that is neither purged nor deleted.
func (s *State) editableField(src field.Source, idx int) (*field.Field, error) {
	f, err := s.fieldAt(src, idx)
	if err != nil {
		return nil, err
	}
	switch f.Lifecycle {
	case field.Purged:
		return nil, fmt.Errorf("%w: %s", ErrFieldPurged, f.Ref())
	case field.Deleted:
		return nil, fmt.Errorf("%w: %s", ErrFieldDeleted, f.Ref())
	}
	return f, nil
}

// categoricalField returns an editable, loaded categorical field.
func (s *State) categoricalField(src field.Source, idx int) (*field.Field, error) {
	f, err := s.editableField(src, idx)
	if err != nil {
		return nil, err
	}
	if !f.IsCategorical() {
		return nil, fmt.Errorf("%w: %s", ErrNotCategorical, f.Ref())
	}
	if !f.Loaded {
		return nil, fmt.Errorf("%w: %s", ErrFieldNotLoaded, f.Ref())
	}
	return f, nil
}

// continuousField returns an editable, loaded continuous field.
func (s *State) continuousField(src field.Source, idx int) (*field.Field, error) {
	f, err := s.editableField(src, idx)
	if err != nil {
		return nil, err
	}
	if f.IsCategorical() || f.Continuous == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotContinuous, f.Ref())
	}
	if !f.Loaded {
		return nil, fmt.Errorf("%w: %s", ErrFieldNotLoaded, f.Ref())
	}
	return f, nil
}

func checkCategory(f *field.Field, cat int) error {
	if cat < 0 || cat >= f.NumCategories() {
		return &CategoryError{Field: f.Ref(), Index: cat, Len: f.NumCategories()}
	}
	return nil
}

func checkName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidKey)
	}
	return nil
}
