package pointview_test

import (
	"context"
	"fmt"
	"log"

	"github.com/hupe1980/pointview"
	"github.com/hupe1980/pointview/field"
)

func exampleFields() field.FieldSet {
	codes := field.CodesFromInts([]int32{0, 1, 2, 0, 1, 2, 0, 1}, 3)
	return field.FieldSet{
		field.NewCategorical("cluster", field.SourceObs, []string{"A", "B", "C"}, codes),
		field.NewContinuous("score", field.SourceObs, []float32{0.1, 0.9, 0.4, 0.7, 0.2, 0.8, 0.3, 0.6}),
	}
}

// Example_filter demonstrates combining a category filter with a range filter.
func Example_filter() {
	s, err := pointview.New(8, exampleFields(), nil)
	if err != nil {
		log.Fatal(err)
	}

	_ = s.SetCategoryVisible(field.SourceObs, 0, 1, false) // hide B
	_ = s.SetContinuousFilter(field.SourceObs, 1, 0, 0.5)

	shown, total := s.FilteredCount()
	fmt.Printf("%d of %d points visible\n", shown, total)
	fmt.Println(s.Transparency())
	// Output:
	// 3 of 8 points visible
	// [1 0 1 0 0 0 1 0]
}

// Example_batch demonstrates deferring recomputes for bulk edits.
func Example_batch() {
	metrics := &pointview.BasicMetricsCollector{}
	s, err := pointview.New(8, exampleFields(), nil, pointview.WithMetricsCollector(metrics))
	if err != nil {
		log.Fatal(err)
	}
	before := metrics.VisibilityCount.Load()

	_ = s.Batch(func() error {
		for cat := 0; cat < 3; cat++ {
			if err := s.SetCategoryVisible(field.SourceObs, 0, cat, cat == 0); err != nil {
				return err
			}
		}
		return nil
	})

	shown, _ := s.FilteredCount()
	fmt.Printf("recomputes: %d, visible: %d\n", metrics.VisibilityCount.Load()-before, shown)
	// Output: recomputes: 1, visible: 3
}

// Example_deleteCategory demonstrates a copy-on-write category edit.
func Example_deleteCategory() {
	ctx := context.Background()
	s, err := pointview.New(8, exampleFields(), nil)
	if err != nil {
		log.Fatal(err)
	}

	edit, err := s.DeleteCategoryToUnassigned(ctx, field.SourceObs, 0, 1)
	if err != nil {
		log.Fatal(err)
	}
	derived, _ := s.Field(field.SourceObs, edit.Index)
	source, _ := s.Field(field.SourceObs, 0)

	fmt.Println(derived.Key, derived.Categories)
	fmt.Println(source.Key, source.Lifecycle)
	// Output:
	// cluster (edited) [A unassigned C]
	// cluster deleted
}

// Example_views demonstrates keeping filters per view.
func Example_views() {
	s, err := pointview.New(8, exampleFields(), nil)
	if err != nil {
		log.Fatal(err)
	}

	if err := s.CreateView("all"); err != nil {
		log.Fatal(err)
	}
	_ = s.SetCategoryVisible(field.SourceObs, 0, 0, false)
	liveShown, _ := s.FilteredCount()

	_ = s.SetActiveView("all")
	allShown, _ := s.FilteredCount()

	fmt.Println(s.ActiveViewID(), allShown, liveShown)
	// Output: all 8 5
}
