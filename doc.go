// Package pointview coordinates the view state of a large point cloud and
// computes which points are visible.
//
// A State owns two field tables (obs fields describe points, var fields
// describe features), the active field that colors the points, the filters
// of every field, highlight pages and a set of named view snapshots. Every
// mutation recomputes the derived buffers and pushes them to a RenderSink.
//
// # Quick Start
//
//	obs := field.FieldSet{
//	    field.NewCategorical("cluster", field.SourceObs, []string{"A", "B"}, codes),
//	    field.NewContinuous("score", field.SourceObs, scores),
//	}
//	s, _ := pointview.New(len(scores), obs, nil, pointview.WithRenderSink(renderer))
//
//	s.SetActiveField(field.SourceObs, 0)               // color by cluster
//	s.SetCategoryVisible(field.SourceObs, 0, 1, false) // hide B
//	s.SetContinuousFilter(field.SourceObs, 1, 0, 0.5)  // and high scores
//
//	shown, total := s.FilteredCount()
//
// # Batching
//
// Bulk edits can defer recomputation. Inside a batch visibility is
// recomputed at most once and colors are repainted at most once:
//
//	s.Batch(func() error {
//	    for i := range categories {
//	        s.SetCategoryVisible(field.SourceObs, 0, i, keep[i])
//	    }
//	    return nil
//	})
//
// # Category Edits
//
// DeleteCategoryToUnassigned and MergeCategories rewrite the codes of a
// categorical field. Source fields are never modified: the edit produces a
// derived user-defined field and soft-deletes the source. User-defined
// fields are edited in place. Templates of user-defined fields can be
// persisted through overlay.TemplateStore on any blobstore.BlobStore.
//
// # Views
//
// CreateView snapshots the live view. SetActiveView swaps the live view
// with a snapshot; each view keeps its own filters, colors and active field.
//
// # Loading
//
// Fields may start unloaded (field.NewPending) and be loaded on demand with
// EnsureFieldLoaded. Concurrent loads of the same field are deduplicated and
// results are cached by original key.
//
// # Key Features
//
//   - Visibility recomputes into a reused transparency buffer
//   - Copy-on-write category edits with highlight provenance remapping
//   - Rename, soft delete, restore and purge of fields
//   - Highlight pages with set combination
//   - Memory-bounded view snapshots
//   - Per-dimension category centroids
package pointview
