package highlight

import (
	"errors"
	"fmt"

	"github.com/hupe1980/pointview/field"
	"github.com/hupe1980/pointview/internal/bitmap"
)

var (
	// ErrPageNotFound is returned for unknown page ids.
	ErrPageNotFound = errors.New("highlight page not found")
	// ErrGroupNotFound is returned for unknown group ids.
	ErrGroupNotFound = errors.New("highlight group not found")
)

// Intensity is the buffer value of a highlighted point.
const Intensity uint8 = 255

// GroupType tells how a group was produced.
type GroupType uint8

const (
	GroupCategory GroupType = iota
	GroupRange
	GroupCombined
	// GroupSelection holds explicit indices, e.g. a lasso.
	GroupSelection
)

func (t GroupType) String() string {
	switch t {
	case GroupCategory:
		return "category"
	case GroupRange:
		return "range"
	case GroupCombined:
		return "combined"
	case GroupSelection:
		return "selection"
	default:
		return fmt.Sprintf("group(%d)", uint8(t))
	}
}

// Op is a set operation used by Combine.
type Op uint8

const (
	OpIntersection Op = iota
	OpUnion
)

// Symbol returns the operator glyph used in combined page names.
func (o Op) Symbol() string {
	if o == OpUnion {
		return "∪"
	}
	return "∩"
}

func (o Op) String() string {
	if o == OpUnion {
		return "union"
	}
	return "intersection"
}

// Provenance records what produced a group.
type Provenance struct {
	Ref        field.Ref
	Categories []int
	Range      *field.Range
	// Inputs names the pages a combined group was built from.
	Inputs []string
	Op     Op
}

// Group is a named set of point indices.
type Group struct {
	ID         string
	Name       string
	Type       GroupType
	Enabled    bool
	Indices    *bitmap.Bitmap
	Provenance Provenance
}

// Len returns the number of points in the group.
func (g *Group) Len() int {
	if g.Indices == nil {
		return 0
	}
	return int(g.Indices.Cardinality())
}

func (g *Group) clone() *Group {
	out := *g
	if g.Indices != nil {
		out.Indices = g.Indices.Clone()
	}
	out.Provenance.Categories = append([]int(nil), g.Provenance.Categories...)
	out.Provenance.Inputs = append([]string(nil), g.Provenance.Inputs...)
	if g.Provenance.Range != nil {
		r := *g.Provenance.Range
		out.Provenance.Range = &r
	}
	return &out
}

// Page is an ordered collection of groups.
type Page struct {
	ID     string
	Name   string
	Color  field.Color
	Groups []*Group
}

// Group returns the group with id.
func (p *Page) Group(id string) (*Group, bool) {
	for _, g := range p.Groups {
		if g.ID == id {
			return g, true
		}
	}
	return nil, false
}

// Union returns the union of the page's enabled groups.
func (p *Page) Union() *bitmap.Bitmap {
	out := bitmap.New()
	p.UnionInto(out)
	return out
}

// UnionInto ors the page's enabled groups into dst.
func (p *Page) UnionInto(dst *bitmap.Bitmap) {
	for _, g := range p.Groups {
		if g.Enabled && g.Indices != nil {
			dst.Or(g.Indices)
		}
	}
}
