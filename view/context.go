package view

import (
	"slices"

	"github.com/hupe1980/pointview/field"
)

// Centroids holds one aggregated position per category of the active field.
type Centroids struct {
	// Positions holds Dimension floats per category.
	Positions        []float32
	Colors           []uint8
	OutlierQuantiles []float32
	Labels           []string
	Dimension        int
}

// Clone returns a deep copy.
func (c Centroids) Clone() Centroids {
	return Centroids{
		Positions:        slices.Clone(c.Positions),
		Colors:           slices.Clone(c.Colors),
		OutlierQuantiles: slices.Clone(c.OutlierQuantiles),
		Labels:           slices.Clone(c.Labels),
		Dimension:        c.Dimension,
	}
}

// Len returns the number of centroids.
func (c Centroids) Len() int { return len(c.Labels) }

func (c Centroids) sizeBytes() int64 {
	n := int64(4*len(c.Positions) + len(c.Colors) + 4*len(c.OutlierQuantiles))
	for _, l := range c.Labels {
		n += int64(len(l))
	}
	return n
}

// Context is the complete state of one view.
type Context struct {
	ID   string
	Name string

	Obs  field.FieldSet
	Vars field.FieldSet
	// Active references the active field. Its Source discriminates obs from
	// var; an empty key means no field is active.
	Active field.Ref

	Colors        []uint8
	Transparency  []float32
	OutlierRatios []float32
	Centroids     Centroids
	Dimension     int
}

// Fields returns the table of src.
func (c *Context) Fields(src field.Source) field.FieldSet {
	if src == field.SourceVar {
		return c.Vars
	}
	return c.Obs
}

// ActiveField resolves Active against the context's own tables.
func (c *Context) ActiveField() *field.Field {
	if !c.Active.Valid() {
		return nil
	}
	fs := c.Fields(c.Active.Source)
	if i := fs.IndexOf(c.Active.Key); i >= 0 {
		return fs[i]
	}
	return nil
}

// Clone returns a structurally independent copy with the given id.
func (c *Context) Clone(id string) *Context {
	out := &Context{
		ID:            id,
		Name:          c.Name,
		Obs:           c.Obs.Clone(),
		Vars:          c.Vars.Clone(),
		Active:        c.Active,
		Colors:        slices.Clone(c.Colors),
		Transparency:  slices.Clone(c.Transparency),
		OutlierRatios: slices.Clone(c.OutlierRatios),
		Centroids:     c.Centroids.Clone(),
		Dimension:     c.Dimension,
	}
	if out.Name == "" {
		out.Name = id
	}
	return out
}

// SizeBytes estimates the memory a clone owns.
func (c *Context) SizeBytes() int64 {
	return c.Obs.SizeBytes() + c.Vars.SizeBytes() +
		int64(len(c.Colors)) + 4*int64(len(c.Transparency)) + 4*int64(len(c.OutlierRatios)) +
		c.Centroids.sizeBytes()
}
