package categorical

import (
	"errors"
	"fmt"
	"slices"
)

// DefaultUnassignedLabel names the bucket that receives deleted categories.
const DefaultUnassignedLabel = "unassigned"

// ErrInvalidCategory is returned for out-of-range or conflicting category indices.
var ErrInvalidCategory = errors.New("invalid category")

// Edit names the kind of category edit.
type Edit uint8

const (
	EditDeleteToUnassigned Edit = iota + 1
	EditMerge
)

func (e Edit) String() string {
	switch e {
	case EditDeleteToUnassigned:
		return "delete-to-unassigned"
	case EditMerge:
		return "merge"
	default:
		return fmt.Sprintf("edit(%d)", uint8(e))
	}
}

// Transform rewrites the category list of a field.
type Transform struct {
	Edit Edit
	// Categories is the new category list.
	Categories []string
	// Mapping maps every old category index to its new index.
	Mapping []int32
	// Absorbed lists the old indices folded into Target, ascending.
	Absorbed []int
	// Target is the new index of the unassigned or merged bucket.
	Target int
	// Label is the resulting label of the target bucket.
	Label string
}

// IsAbsorbed reports whether old index i was folded into the target.
func (t *Transform) IsAbsorbed(i int) bool {
	_, ok := slices.BinarySearch(t.Absorbed, i)
	return ok
}

// MapIndex returns the new index of old category i, or -1 when i is out of range.
func (t *Transform) MapIndex(i int) int {
	if i < 0 || i >= len(t.Mapping) {
		return -1
	}
	return int(t.Mapping[i])
}

// DeleteOptions configures BuildDeleteToUnassigned.
type DeleteOptions struct {
	// Label of the unassigned bucket. Defaults to DefaultUnassignedLabel.
	Label string
	// AlsoAbsorb lists further category indices, e.g. previously merged
	// categories, that move into the unassigned bucket in the same edit.
	AlsoAbsorb []int
}

func checkIndex(categories []string, i int) error {
	if i < 0 || i >= len(categories) {
		return fmt.Errorf("%w: index %d out of range [0,%d)", ErrInvalidCategory, i, len(categories))
	}
	return nil
}

// BuildDeleteToUnassigned removes category idx, redirecting its points into
// the unassigned bucket. An existing bucket with the unassigned label is
// reused; otherwise the slot of idx is repurposed as the bucket so the
// category count does not change.
func BuildDeleteToUnassigned(categories []string, idx int, opts DeleteOptions) (*Transform, error) {
	if err := checkIndex(categories, idx); err != nil {
		return nil, err
	}
	label := opts.Label
	if label == "" {
		label = DefaultUnassignedLabel
	}

	bucket := slices.Index(categories, label)
	if bucket == idx {
		return nil, fmt.Errorf("%w: %q is already the unassigned bucket", ErrInvalidCategory, label)
	}

	absorbed := []int{idx}
	for _, i := range opts.AlsoAbsorb {
		if err := checkIndex(categories, i); err != nil {
			return nil, err
		}
		if i != bucket && !slices.Contains(absorbed, i) {
			absorbed = append(absorbed, i)
		}
	}

	keep := bucket
	if keep < 0 {
		// Repurpose the deleted slot.
		keep = idx
	}
	t := compact(categories, absorbed, keep)
	t.Edit = EditDeleteToUnassigned
	t.Label = label
	t.Categories[t.Target] = label
	return t, nil
}

// BuildMerge folds category from into category to. The destination is
// relabeled "merged <from> + <to>" and the source slot is removed.
func BuildMerge(categories []string, from, to int) (*Transform, error) {
	if err := checkIndex(categories, from); err != nil {
		return nil, err
	}
	if err := checkIndex(categories, to); err != nil {
		return nil, err
	}
	if from == to {
		return nil, fmt.Errorf("%w: cannot merge category %d into itself", ErrInvalidCategory, from)
	}

	label := fmt.Sprintf("merged %s + %s", categories[from], categories[to])
	t := compact(categories, []int{from}, to)
	t.Edit = EditMerge
	t.Label = label
	t.Categories[t.Target] = label
	return t, nil
}

// compact drops the absorbed indices (except keep) and maps them onto keep.
func compact(categories []string, absorbed []int, keep int) *Transform {
	drop := make(map[int]bool, len(absorbed))
	for _, i := range absorbed {
		if i != keep {
			drop[i] = true
		}
	}

	t := &Transform{
		Categories: make([]string, 0, len(categories)-len(drop)),
		Mapping:    make([]int32, len(categories)),
	}
	for i, c := range categories {
		if drop[i] {
			continue
		}
		t.Mapping[i] = int32(len(t.Categories))
		t.Categories = append(t.Categories, c)
	}
	t.Target = int(t.Mapping[keep])
	for i := range drop {
		t.Mapping[i] = int32(t.Target)
	}

	t.Absorbed = append([]int(nil), absorbed...)
	slices.Sort(t.Absorbed)
	return t
}
