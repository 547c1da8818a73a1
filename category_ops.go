package pointview

import (
	"context"
	"slices"
	"time"

	"github.com/hupe1980/pointview/categorical"
	"github.com/hupe1980/pointview/field"
	"github.com/hupe1980/pointview/overlay"
)

// CategoryEdit describes an applied categorical edit.
type CategoryEdit struct {
	// Ref and Index locate the field holding the result. For copy-on-write
	// edits this is the derived field.
	Ref   field.Ref
	Index int
	// Label is the resulting label of the unassigned or merged bucket.
	Label string
	// InPlace is true when the codes buffer was remapped without allocation.
	InPlace bool
	// Derived is true when a new field was created and Source soft-deleted.
	Derived bool
	Source  field.Ref

	Transform *categorical.Transform
}

// DeleteCategoryToUnassigned moves the points of category into the
// unassigned bucket. alsoAbsorb names further categories, such as earlier
// merge results, that move into the bucket in the same edit.
//
// User-defined fields are edited in place. Any other field is left untouched
// and replaced by a derived field carrying the edit; the source is
// soft-deleted.
func (s *State) DeleteCategoryToUnassigned(ctx context.Context, src field.Source, fieldIdx, category int, alsoAbsorb ...int) (*CategoryEdit, error) {
	s.mu.Lock()
	defer s.unlock()

	f, err := s.categoricalField(src, fieldIdx)
	if err != nil {
		return nil, s.rejectEdit(ctx, field.Ref{Source: src}, EditDeleteToUnassigned, err)
	}
	t, err := categorical.BuildDeleteToUnassigned(f.Categories, category, categorical.DeleteOptions{
		Label:      s.opts.unassignedLabel,
		AlsoAbsorb: alsoAbsorb,
	})
	if err != nil {
		return nil, s.rejectEdit(ctx, f.Ref(), EditDeleteToUnassigned,
			&CategoryError{Field: f.Ref(), Index: category, Len: f.NumCategories(), cause: err})
	}
	return s.applyEdit(ctx, f, fieldIdx, t, EditDeleteToUnassigned)
}

// MergeCategories folds category from into category to. The destination is
// relabeled "merged <from> + <to>". The edit policy matches
// DeleteCategoryToUnassigned.
func (s *State) MergeCategories(ctx context.Context, src field.Source, fieldIdx, from, to int) (*CategoryEdit, error) {
	s.mu.Lock()
	defer s.unlock()

	f, err := s.categoricalField(src, fieldIdx)
	if err != nil {
		return nil, s.rejectEdit(ctx, field.Ref{Source: src}, EditMerge, err)
	}
	t, err := categorical.BuildMerge(f.Categories, from, to)
	if err != nil {
		bad := from
		if checkCategory(f, from) == nil {
			bad = to
		}
		return nil, s.rejectEdit(ctx, f.Ref(), EditMerge,
			&CategoryError{Field: f.Ref(), Index: bad, Len: f.NumCategories(), cause: err})
	}
	return s.applyEdit(ctx, f, fieldIdx, t, EditMerge)
}

func (s *State) rejectEdit(ctx context.Context, ref field.Ref, edit string, err error) error {
	s.metrics.RecordCategoryEdit(edit, 0, err)
	s.log.LogCategoryEdit(ctx, ref, edit, "", false, err)
	return err
}

func (s *State) applyEdit(ctx context.Context, f *field.Field, idx int, t *categorical.Transform, edit string) (*CategoryEdit, error) {
	start := time.Now()
	ref := f.Ref()

	var (
		res    *CategoryEdit
		target *field.Field
	)
	if f.UserDefined {
		inPlace, err := categorical.ApplyInPlace(f, t)
		if err != nil {
			return nil, s.rejectEdit(ctx, ref, edit, &CategoryError{Field: ref, Index: -1, Len: f.NumCategories(), cause: err})
		}
		s.highlights.RemapCategoryGroups(ref, t)
		s.syncTemplate(ctx, f)
		res = &CategoryEdit{Ref: ref, Index: idx, Label: t.Label, InPlace: inPlace, Source: ref, Transform: t}
		target = f
	} else {
		d, err := s.derive(ctx, f, t, edit)
		if err != nil {
			return nil, s.rejectEdit(ctx, ref, edit, err)
		}
		newIdx := s.appendField(d)
		s.highlights.Retarget(ref, d.Ref())
		s.highlights.RemapCategoryGroups(d.Ref(), t)

		// Activate the derived field before the source goes away.
		if s.live.Active == ref {
			s.setActive(d.Ref())
		}
		if err := s.setLifecycle(ctx, f, field.Deleted); err != nil {
			s.log.LogBestEffort(ctx, "soft-delete edited source", err)
		}
		res = &CategoryEdit{Ref: d.Ref(), Index: newIdx, Label: t.Label, Derived: true, Source: ref, Transform: t}
		target = d
	}

	if target == s.activeField() {
		s.markColors(target)
		s.recomputeCentroids()
	}
	s.refreshSummary()
	s.recomputeVisibility()
	s.emit(Event{Type: EventFieldChanged, Ref: res.Ref, Edit: edit, Label: t.Label})

	s.metrics.RecordCategoryEdit(edit, time.Since(start), nil)
	s.log.LogCategoryEdit(ctx, res.Ref, edit, t.Label, res.InPlace, nil)
	return res, nil
}

// derive builds the user-defined replacement of a source field and stores
// its template. Nothing in the live state changes.
func (s *State) derive(ctx context.Context, f *field.Field, t *categorical.Transform, edit string) (*field.Field, error) {
	key := s.uniqueKey(f.Source, f.OriginalKey+" (edited)")
	d, err := categorical.Derive(f, t, key)
	if err != nil {
		return nil, &CategoryError{Field: f.Ref(), Index: -1, Len: f.NumCategories(), cause: err}
	}
	d.TemplateID = overlay.NewTemplateID()
	d.OutlierQuantiles = f.OutlierQuantiles
	if err := s.putTemplate(ctx, d, f.Ref(), edit); err != nil {
		return nil, err
	}
	return d, nil
}

// CategoryCounts returns per-category point counts of a categorical field,
// over all points and over the points visible in the live view.
func (s *State) CategoryCounts(src field.Source, fieldIdx int) (total, visible []int, err error) {
	s.mu.Lock()
	defer s.unlock()

	f, err := s.categoricalField(src, fieldIdx)
	if err != nil {
		return nil, nil, s.reject("category-counts", err)
	}
	k := f.NumCategories()
	if len(f.Categorical.Counts.Total) != k {
		f.Categorical.Counts.Total = categorical.Counts(f.Codes, k)
	}
	total = slices.Clone(f.Categorical.Counts.Total)
	visible = categorical.VisibleCounts(f.Codes, k, s.live.Transparency)
	return total, visible, nil
}
