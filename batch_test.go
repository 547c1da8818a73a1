package pointview

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/pointview/field"
)

func TestState_BatchCoalescesRecomputes(t *testing.T) {
	metrics := &BasicMetricsCollector{}
	s, sink := newTestState(t, 10, field.FieldSet{
		categoricalField("cluster", []string{"A", "B"}, scenarioCodes),
	}, WithMetricsCollector(metrics))
	require.NoError(t, s.SetActiveField(field.SourceObs, 0))

	t.Run("Unbatched", func(t *testing.T) {
		before := metrics.VisibilityCount.Load()
		require.NoError(t, s.SetCategoryVisible(field.SourceObs, 0, 0, false))
		require.NoError(t, s.SetCategoryVisible(field.SourceObs, 0, 0, true))
		require.NoError(t, s.SetCategoryVisible(field.SourceObs, 0, 1, false))
		require.NoError(t, s.SetCategoryVisible(field.SourceObs, 0, 1, true))
		require.NoError(t, s.SetCategoryVisible(field.SourceObs, 0, 1, false))
		assert.Equal(t, before+5, metrics.VisibilityCount.Load())
		assert.Equal(t, scenarioHiddenB, s.Transparency())
	})

	t.Run("Batched", func(t *testing.T) {
		before := metrics.VisibilityCount.Load()
		pushes := sink.transparencyUpdates

		s.BeginBatch()
		assert.True(t, s.InBatch())
		require.NoError(t, s.SetCategoryVisible(field.SourceObs, 0, 1, true))
		require.NoError(t, s.SetCategoryVisible(field.SourceObs, 0, 0, false))
		require.NoError(t, s.SetCategoryVisible(field.SourceObs, 0, 0, true))
		require.NoError(t, s.SetCategoryVisible(field.SourceObs, 0, 1, false))
		require.NoError(t, s.SetCategoryVisible(field.SourceObs, 0, 1, true))
		assert.Equal(t, before, metrics.VisibilityCount.Load())
		assert.Equal(t, pushes, sink.transparencyUpdates)

		s.EndBatch()
		assert.False(t, s.InBatch())
		assert.Equal(t, before+1, metrics.VisibilityCount.Load())
		assert.Equal(t, ones(10), s.Transparency())
		assert.Equal(t, ones(10), sink.lastTransparency())
	})

	t.Run("Nested", func(t *testing.T) {
		before := metrics.VisibilityCount.Load()
		s.BeginBatch()
		s.BeginBatch()
		require.NoError(t, s.SetCategoryVisible(field.SourceObs, 0, 1, false))
		s.EndBatch()
		assert.True(t, s.InBatch())
		assert.Equal(t, before, metrics.VisibilityCount.Load())
		s.EndBatch()
		assert.Equal(t, before+1, metrics.VisibilityCount.Load())
		assert.Equal(t, scenarioHiddenB, s.Transparency())
	})

	t.Run("ColorsPaintedOnce", func(t *testing.T) {
		before := metrics.ColorApplyCount.Load()
		err := s.Batch(func() error {
			for i := 0; i < 3; i++ {
				if err := s.SetCategoryColor(field.SourceObs, 0, 0, field.Color{R: uint8(i)}); err != nil {
					return err
				}
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, before+1, metrics.ColorApplyCount.Load())
		assert.Equal(t, uint8(2), s.Colors()[0])
	})

	t.Run("BatchReturnsError", func(t *testing.T) {
		boom := errors.New("boom")
		before := metrics.VisibilityCount.Load()
		err := s.Batch(func() error {
			if err := s.SetCategoryVisible(field.SourceObs, 0, 1, true); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)
		assert.False(t, s.InBatch())
		assert.Equal(t, before+1, metrics.VisibilityCount.Load())
	})

	t.Run("UnbalancedEnd", func(t *testing.T) {
		before := metrics.VisibilityCount.Load()
		s.EndBatch()
		assert.False(t, s.InBatch())
		assert.Equal(t, before, metrics.VisibilityCount.Load())
	})
}

func TestState_Subscribe(t *testing.T) {
	s, _ := newTestState(t, 10, field.FieldSet{
		categoricalField("cluster", []string{"A", "B"}, scenarioCodes),
	})

	var (
		got  []Event
		seen int
	)
	cancel := s.Subscribe(func(e Event) {
		got = append(got, e)
		if e.Type == EventVisibilityChanged {
			// Events arrive after the state is released.
			seen, _ = s.FilteredCount()
		}
	})

	require.NoError(t, s.SetCategoryVisible(field.SourceObs, 0, 1, false))
	require.Len(t, got, 1)
	assert.Equal(t, EventVisibilityChanged, got[0].Type)
	assert.Equal(t, DefaultLiveViewID, got[0].ViewID)
	assert.Equal(t, 5, got[0].Shown)
	assert.Equal(t, 10, got[0].Total)
	assert.Equal(t, 5, seen)

	t.Run("RejectedOperationEmitsNothing", func(t *testing.T) {
		n := len(got)
		assert.Error(t, s.SetCategoryVisible(field.SourceObs, 0, 7, false))
		assert.Len(t, got, n)
	})

	t.Run("ActiveField", func(t *testing.T) {
		n := len(got)
		require.NoError(t, s.SetActiveField(field.SourceObs, 0))
		var types []EventType
		for _, e := range got[n:] {
			types = append(types, e.Type)
		}
		assert.Equal(t, []EventType{EventVisibilityChanged, EventActiveFieldChanged}, types)
		assert.Equal(t, field.Ref{Source: field.SourceObs, Key: "cluster"}, got[len(got)-1].Ref)
	})

	cancel()
	n := len(got)
	require.NoError(t, s.SetCategoryVisible(field.SourceObs, 0, 1, true))
	assert.Len(t, got, n)
}

func TestEventType_String(t *testing.T) {
	assert.Equal(t, "visibility-changed", EventVisibilityChanged.String())
	assert.Equal(t, "highlight-changed", EventHighlightChanged.String())
	assert.Equal(t, "event(99)", EventType(99).String())
}
