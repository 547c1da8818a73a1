package overlay

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/hupe1980/pointview/codec"
	"github.com/hupe1980/pointview/field"
)

var (
	// ErrMissingID is returned when storing a template without an ID.
	ErrMissingID = errors.New("template has no id")
	// ErrTemplateNotFound is returned for unknown template IDs.
	ErrTemplateNotFound = errors.New("template not found")
)

// Template is the serializable form of a user-defined field. Category codes
// are stored run-length encoded.
type Template struct {
	ID          string       `json:"id"`
	Key         string       `json:"key"`
	OriginalKey string       `json:"original_key"`
	Source      field.Source `json:"source"`
	Kind        field.Kind   `json:"kind"`
	DerivedFrom string       `json:"derived_from,omitempty"`
	Edit        string       `json:"edit,omitempty"`
	Length      int          `json:"length"`

	Categories []string    `json:"categories,omitempty"`
	CodeWidth  field.Width `json:"code_width,omitempty"`
	Codes      []codec.Run `json:"codes,omitempty"`
	Colors     []string    `json:"colors,omitempty"`
	Visible    []bool      `json:"visible,omitempty"`

	// Values holds little-endian float32 bits of continuous duplicates.
	Values []byte `json:"values,omitempty"`

	Deleted bool `json:"deleted"`
	// Created orders templates; registries stamp it on first Put.
	Created int64 `json:"created"`
}

// NewTemplateID returns a fresh template link id.
func NewTemplateID() string {
	return uuid.NewString()
}

// FromField captures the current state of a user-defined field.
func FromField(f *field.Field) (Template, error) {
	if f.TemplateID == "" {
		return Template{}, ErrMissingID
	}
	if !f.Loaded {
		return Template{}, fmt.Errorf("field %q is not loaded", f.OriginalKey)
	}

	t := Template{
		ID:          f.TemplateID,
		Key:         f.Key,
		OriginalKey: f.OriginalKey,
		Source:      f.Source,
		Kind:        f.Kind,
		Deleted:     f.Lifecycle != field.Active,
	}

	switch f.Kind {
	case field.KindCategory:
		t.Length = f.Codes.Len()
		t.Categories = append([]string(nil), f.Categories...)
		t.CodeWidth = f.Codes.Width()
		t.Codes = f.Codes.Runs()
		t.Visible = append([]bool(nil), f.Categorical.Visible...)
		t.Colors = make([]string, len(f.Categorical.Colors))
		for i, c := range f.Categorical.Colors {
			t.Colors[i] = c.Hex()
		}
	default:
		t.Length = len(f.Values)
		t.Values = make([]byte, 4*len(f.Values))
		for i, v := range f.Values {
			binary.LittleEndian.PutUint32(t.Values[4*i:], math.Float32bits(v))
		}
	}
	return t, nil
}

// Materialize rebuilds a live field from the template.
func (t Template) Materialize() (*field.Field, error) {
	var f *field.Field
	switch t.Kind {
	case field.KindCategory:
		codes, err := field.CodesFromRuns(t.Codes, t.Length, t.CodeWidth)
		if err != nil {
			return nil, fmt.Errorf("template %s: %w", t.ID, err)
		}
		f = field.NewCategorical(t.Key, t.Source, append([]string(nil), t.Categories...), codes)
		for i := 0; i < len(t.Visible) && i < len(f.Categorical.Visible); i++ {
			f.Categorical.Visible[i] = t.Visible[i]
		}
		for i := 0; i < len(t.Colors) && i < len(f.Categorical.Colors); i++ {
			if c, err := field.ParseHex(t.Colors[i]); err == nil {
				f.Categorical.Colors[i] = c
			}
		}
	case field.KindContinuous:
		if len(t.Values) != 4*t.Length {
			return nil, fmt.Errorf("template %s: %d value bytes for length %d", t.ID, len(t.Values), t.Length)
		}
		values := make([]float32, t.Length)
		for i := range values {
			values[i] = math.Float32frombits(binary.LittleEndian.Uint32(t.Values[4*i:]))
		}
		f = field.NewContinuous(t.Key, t.Source, values)
	default:
		return nil, fmt.Errorf("template %s: unknown kind %d", t.ID, t.Kind)
	}

	f.OriginalKey = t.OriginalKey
	f.UserDefined = true
	f.TemplateID = t.ID
	if t.Deleted {
		f.Lifecycle = field.Deleted
	}
	return f, nil
}

// Clone returns a deep copy.
func (t Template) Clone() Template {
	out := t
	out.Categories = append([]string(nil), t.Categories...)
	out.Codes = append([]codec.Run(nil), t.Codes...)
	out.Colors = append([]string(nil), t.Colors...)
	out.Visible = append([]bool(nil), t.Visible...)
	out.Values = append([]byte(nil), t.Values...)
	return out
}
