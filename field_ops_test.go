package pointview

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/pointview/blobstore"
	"github.com/hupe1980/pointview/field"
	"github.com/hupe1980/pointview/loader"
	"github.com/hupe1980/pointview/overlay"
	"github.com/hupe1980/pointview/resource"
)

var clusterRef = field.Ref{Source: field.SourceObs, Key: "cluster"}

func pendingFields() field.FieldSet {
	return field.FieldSet{
		field.NewPending("cluster", field.SourceObs, field.KindCategory),
		field.NewPending("score", field.SourceObs, field.KindContinuous),
	}
}

func scenarioLoader(calls *atomic.Int32) loader.Func {
	return func(_ context.Context, d loader.Descriptor) (*loader.Data, error) {
		calls.Add(1)
		if d.Kind == field.KindCategory {
			return &loader.Data{
				Categories: []string{"A", "B"},
				Codes:      field.CodesFromInts(scenarioCodes, 2),
			}, nil
		}
		values := make([]float32, len(scenarioCodes))
		for i := range values {
			values[i] = float32(i)
		}
		return &loader.Data{Values: values}, nil
	}
}

func TestState_EnsureFieldLoaded(t *testing.T) {
	ctx := context.Background()
	var calls atomic.Int32
	metrics := &BasicMetricsCollector{}
	s, _ := newTestState(t, 10, pendingFields(),
		WithObsLoader(scenarioLoader(&calls)),
		WithMetricsCollector(metrics),
	)

	assert.ErrorIs(t, s.SetCategoryVisible(field.SourceObs, 0, 1, false), ErrFieldNotLoaded)
	assert.ErrorIs(t, s.SetActiveField(field.SourceObs, 0), ErrFieldNotLoaded)

	var edits []Event
	s.Subscribe(func(e Event) {
		if e.Type == EventFieldChanged {
			edits = append(edits, e)
		}
	})

	require.NoError(t, s.EnsureFieldLoaded(ctx, 0))
	f, err := s.Field(field.SourceObs, 0)
	require.NoError(t, err)
	assert.True(t, f.Loaded)
	assert.Equal(t, []string{"A", "B"}, f.Categories)
	require.Len(t, edits, 1)
	assert.Equal(t, EditLoad, edits[0].Edit)
	assert.Equal(t, clusterRef, edits[0].Ref)

	// Loaded fields are not fetched again.
	require.NoError(t, s.EnsureFieldLoaded(ctx, 0))
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, int64(1), metrics.LoadCount.Load())

	require.NoError(t, s.SetCategoryVisible(field.SourceObs, 0, 1, false))
	assert.Equal(t, scenarioHiddenB, s.Transparency())

	t.Run("InvalidIndex", func(t *testing.T) {
		assert.ErrorIs(t, s.EnsureFieldLoaded(ctx, 5), ErrInvalidFieldIndex)
		var idxErr *FieldIndexError
		require.ErrorAs(t, s.EnsureVarFieldLoaded(ctx, 0), &idxErr)
		assert.Equal(t, field.SourceVar, idxErr.Source)
	})
}

func TestState_EnsureFieldsLoaded(t *testing.T) {
	var calls atomic.Int32
	rc := resource.NewController(resource.Config{MaxConcurrentLoads: 1})
	s, _ := newTestState(t, 10, pendingFields(),
		WithObsLoader(scenarioLoader(&calls)),
		WithResourceController(rc),
	)

	require.NoError(t, s.EnsureFieldsLoaded(context.Background(), field.SourceObs, []int{0, 1}))
	assert.Equal(t, int32(2), calls.Load())
	for _, f := range s.Fields(field.SourceObs) {
		assert.True(t, f.Loaded, f.Key)
	}
	assert.Len(t, s.ContinuousFields(field.SourceObs), 1)
	assert.Len(t, s.CategoricalFields(field.SourceObs), 1)

	require.NoError(t, s.SetContinuousFilter(field.SourceObs, 1, 0, 4))
	shown, _ := s.FilteredCount()
	assert.Equal(t, 5, shown)
}

func TestState_LoadLengthMismatch(t *testing.T) {
	ctx := context.Background()
	var calls atomic.Int32
	s, _ := newTestState(t, 10, pendingFields(),
		WithObsLoader(func(ctx context.Context, d loader.Descriptor) (*loader.Data, error) {
			if calls.Add(1) == 1 {
				return &loader.Data{Codes: field.CodesFromInts([]int32{0, 1, 0}, 2)}, nil
			}
			return scenarioLoader(&atomic.Int32{})(ctx, d)
		}),
	)

	err := s.EnsureFieldLoaded(ctx, 0)
	var mismatch *LengthMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, 3, mismatch.Got)
	assert.Equal(t, 10, mismatch.Want)

	f, err := s.Field(field.SourceObs, 0)
	require.NoError(t, err)
	assert.False(t, f.Loaded)

	// Failures are not cached.
	require.NoError(t, s.EnsureFieldLoaded(ctx, 0))
	assert.True(t, f.Loaded)
}

func TestState_LoadWithoutLoader(t *testing.T) {
	s, _ := newTestState(t, 10, pendingFields())
	assert.ErrorIs(t, s.EnsureFieldLoaded(context.Background(), 0), ErrNoLoader)
}

func TestState_LoadFailure(t *testing.T) {
	boom := errors.New("backend down")
	metrics := &BasicMetricsCollector{}
	s, _ := newTestState(t, 10, pendingFields(),
		WithObsLoader(func(context.Context, loader.Descriptor) (*loader.Data, error) {
			return nil, boom
		}),
		WithMetricsCollector(metrics),
	)
	assert.ErrorIs(t, s.EnsureFieldLoaded(context.Background(), 0), boom)
	assert.Equal(t, int64(1), metrics.LoadErrors.Load())
}

func TestState_RenameField(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestState(t, 10, field.FieldSet{
		categoricalField("cluster", []string{"A", "B"}, scenarioCodes),
	})
	require.NoError(t, s.SetCategoryVisible(field.SourceObs, 0, 1, false))

	require.NoError(t, s.RenameField(ctx, field.SourceObs, 0, "clusters"))
	f, err := s.Field(field.SourceObs, 0)
	require.NoError(t, err)
	assert.Equal(t, "clusters", f.Key)
	assert.Equal(t, "cluster", f.OriginalKey)

	idx, err := s.IndexByKey(field.SourceObs, "cluster")
	require.NoError(t, err)
	assert.Equal(t, 0, idx)
	idx, err = s.IndexByKey(field.SourceObs, "clusters")
	require.NoError(t, err)
	assert.Equal(t, -1, idx)

	assert.Equal(t, "clusters: hiding B (1 of 2)", s.FilterSummaryText())

	assert.ErrorIs(t, s.RenameField(ctx, field.SourceObs, 0, ""), ErrInvalidKey)

	require.NoError(t, s.RevertFieldName(ctx, field.SourceObs, 0))
	assert.Equal(t, "cluster", f.Key)
	assert.Equal(t, "cluster: hiding B (1 of 2)", s.FilterSummaryText())
}

func TestState_FieldLifecycle(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestState(t, 10, field.FieldSet{
		categoricalField("cluster", []string{"A", "B"}, scenarioCodes),
		field.NewContinuous("score", field.SourceObs, []float32{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}),
	})
	require.NoError(t, s.SetActiveField(field.SourceObs, 0))
	require.NoError(t, s.SetCategoryVisible(field.SourceObs, 0, 1, false))

	t.Run("DeleteStopsFiltering", func(t *testing.T) {
		require.NoError(t, s.DeleteField(ctx, field.SourceObs, 0))
		assert.Equal(t, ones(10), s.Transparency())
		_, ok := s.ActiveField()
		assert.False(t, ok)

		deleted := s.DeletedFields(field.SourceObs)
		require.Len(t, deleted, 1)
		assert.Equal(t, "cluster", deleted[0].OriginalKey)
		assert.Len(t, s.VisibleFields(field.SourceObs), 1)

		assert.ErrorIs(t, s.SetCategoryVisible(field.SourceObs, 0, 0, false), ErrFieldDeleted)
	})

	t.Run("RestoreResumesFiltering", func(t *testing.T) {
		idx, err := s.RestoreField(ctx, clusterRef)
		require.NoError(t, err)
		assert.Equal(t, 0, idx)
		assert.Equal(t, scenarioHiddenB, s.Transparency())
		assert.Empty(t, s.DeletedFields(field.SourceObs))
	})

	t.Run("PurgeIsFinal", func(t *testing.T) {
		require.NoError(t, s.PurgeField(ctx, clusterRef))
		f, err := s.Field(field.SourceObs, 0)
		require.NoError(t, err)
		assert.Equal(t, field.Purged, f.Lifecycle)
		assert.False(t, f.Loaded)
		assert.Equal(t, ones(10), s.Transparency())

		_, err = s.RestoreField(ctx, clusterRef)
		assert.ErrorIs(t, err, ErrInvalidTransition)
		assert.ErrorIs(t, s.EnsureFieldLoaded(ctx, 0), ErrFieldPurged)
		assert.ErrorIs(t, s.RenameField(ctx, field.SourceObs, 0, "x"), ErrFieldPurged)

		// The slot is kept so indices stay stable.
		idx, err := s.IndexByKey(field.SourceObs, "score")
		require.NoError(t, err)
		assert.Equal(t, 1, idx)
	})
}

func TestState_DuplicateField(t *testing.T) {
	ctx := context.Background()
	templates := overlay.NewMemoryTemplates()
	s, _ := newTestState(t, 10, field.FieldSet{
		categoricalField("cluster", []string{"A", "B"}, scenarioCodes),
	}, WithTemplateRegistry(templates))

	idx, err := s.DuplicateField(ctx, field.SourceObs, 0, "")
	require.NoError(t, err)
	assert.Equal(t, 1, idx)
	dup, err := s.Field(field.SourceObs, idx)
	require.NoError(t, err)
	assert.Equal(t, "cluster (copy)", dup.OriginalKey)
	assert.True(t, dup.UserDefined)

	tpl, ok := templates.Get(dup.TemplateID)
	require.True(t, ok)
	assert.Equal(t, "cluster", tpl.DerivedFrom)
	assert.Equal(t, EditDuplicate, tpl.Edit)

	idx, err = s.DuplicateField(ctx, field.SourceObs, 0, "")
	require.NoError(t, err)
	second, err := s.Field(field.SourceObs, idx)
	require.NoError(t, err)
	assert.Equal(t, "cluster (copy) (2)", second.OriginalKey)

	// Copies filter independently of their source.
	require.NoError(t, s.SetCategoryVisible(field.SourceObs, 1, 0, false))
	orig, err := s.Field(field.SourceObs, 0)
	require.NoError(t, err)
	assert.Equal(t, []bool{true, true}, orig.Categorical.Visible)
	shown, _ := s.FilteredCount()
	assert.Equal(t, 5, shown)
}

func TestState_TemplatesPersistAcrossStates(t *testing.T) {
	ctx := context.Background()
	blobs := blobstore.NewMemoryStore()
	deletes := overlay.NewMemoryDeletes()
	renames := overlay.NewMemoryRenames()

	open := func(t *testing.T) *State {
		t.Helper()
		store := overlay.NewTemplateStore(blobs)
		require.NoError(t, store.Load(ctx))
		s, _ := newTestState(t, 10, field.FieldSet{
			categoricalField("cluster", []string{"A", "B"}, scenarioCodes),
		},
			WithTemplateRegistry(store),
			WithDeleteRegistry(deletes),
			WithRenameRegistry(renames),
		)
		return s
	}

	first := open(t)
	_, err := first.DeleteCategoryToUnassigned(ctx, field.SourceObs, 0, 1)
	require.NoError(t, err)
	require.NoError(t, first.RenameField(ctx, field.SourceObs, 1, "relabeled"))

	second := open(t)
	fields := second.Fields(field.SourceObs)
	require.Len(t, fields, 2)
	assert.Equal(t, field.Deleted, fields[0].Lifecycle)
	derived := fields[1]
	assert.Equal(t, "cluster (edited)", derived.OriginalKey)
	assert.Equal(t, "relabeled", derived.Key)
	assert.True(t, derived.Loaded)
	assert.Equal(t, first.Fields(field.SourceObs)[1].Categories, derived.Categories)

	require.NoError(t, second.DeleteField(ctx, field.SourceObs, 1))

	third := open(t)
	require.Len(t, third.Fields(field.SourceObs), 1)
	var keys []string
	for _, f := range third.DeletedFields(field.SourceObs) {
		keys = append(keys, f.OriginalKey)
	}
	assert.ElementsMatch(t, []string{"cluster", "cluster (edited)"}, keys)

	idx, err := third.RestoreField(ctx, field.Ref{Source: field.SourceObs, Key: "cluster (edited)"})
	require.NoError(t, err)
	assert.Equal(t, 1, idx)
	restored, err := third.Field(field.SourceObs, idx)
	require.NoError(t, err)
	assert.Equal(t, field.Active, restored.Lifecycle)
	assert.Equal(t, "relabeled", restored.Key)
}
