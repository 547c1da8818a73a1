package field

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLifecycle_Transition(t *testing.T) {
	tests := []struct {
		from, to Lifecycle
		wantErr  bool
	}{
		{Active, Deleted, false},
		{Deleted, Active, false},
		{Deleted, Purged, false},
		{Active, Purged, false},
		{Purged, Active, true},
		{Purged, Deleted, true},
		{Purged, Purged, false},
	}
	for _, tt := range tests {
		t.Run(tt.from.String()+"->"+tt.to.String(), func(t *testing.T) {
			got, err := tt.from.Transition(tt.to)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidTransition)
				assert.Equal(t, tt.from, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.to, got)
		})
	}
}

func TestContinuousMeta_SetFilterClamps(t *testing.T) {
	m := NewContinuousMeta(Stats{Min: 0, Max: 10})
	assert.True(t, m.IsFullRange())
	assert.False(t, m.IsFiltering())

	m.SetFilter(8, 2)
	assert.Equal(t, Range{Min: 2, Max: 8}, m.Filter)
	assert.True(t, m.IsFiltering())

	m.SetFilter(-5, 50)
	assert.Equal(t, Range{Min: 0, Max: 10}, m.Filter)
	assert.False(t, m.IsFiltering())
}

func TestContinuousMeta_FullRangeTolerance(t *testing.T) {
	m := NewContinuousMeta(Stats{Min: 0, Max: 1000})
	m.Filter = Range{Min: 0.0005, Max: 999.9995}
	assert.True(t, m.IsFullRange())

	m.Filter = Range{Min: 0.01, Max: 1000}
	assert.False(t, m.IsFullRange())

	m.FilterEnabled = false
	assert.False(t, m.IsFiltering())
}

func TestContinuousMeta_Normalize(t *testing.T) {
	m := NewContinuousMeta(Stats{Min: 0, Max: 10})
	assert.InDelta(t, 0.5, m.Normalize(5), 1e-9)
	assert.InDelta(t, 1, m.Normalize(20), 1e-9)
	assert.True(t, math.IsNaN(m.Normalize(math.NaN())))

	m.ColorRange = &Range{Min: 5, Max: 10}
	assert.InDelta(t, 0, m.Normalize(2), 1e-9)
	assert.InDelta(t, 0.5, m.Normalize(7.5), 1e-9)

	m.ColorRange = nil
	m.LogScale = true
	assert.InDelta(t, math.Log1p(5)/math.Log1p(10), m.Normalize(5), 1e-9)

	flat := NewContinuousMeta(Stats{Min: 3, Max: 3})
	assert.Equal(t, 0.5, flat.Normalize(3))
}

func TestComputeStats(t *testing.T) {
	nan := float32(math.NaN())
	assert.Equal(t, Stats{Min: -1, Max: 4}, ComputeStats([]float32{nan, 2, -1, 4, nan}))
	assert.Equal(t, Stats{}, ComputeStats([]float32{nan}))
}

func TestCategoricalMeta_Resize(t *testing.T) {
	m := NewCategoricalMeta(3)
	assert.Equal(t, []bool{true, true, true}, m.Visible)
	assert.Len(t, m.Colors, 3)
	assert.False(t, m.HasHidden())

	m.Visible[1] = false
	assert.True(t, m.IsFiltering())
	assert.Equal(t, 1, m.HiddenCount())

	m.Resize(1)
	assert.Equal(t, []bool{true}, m.Visible)
	assert.False(t, m.HasHidden())
}

func TestField_CloneIsIndependent(t *testing.T) {
	f := NewCategorical("cluster", SourceObs, []string{"a", "b"}, CodesFromInts([]int32{0, 1, 1}, 2))
	f.UserDefined = true

	c := f.Clone()
	c.Categorical.Visible[0] = false
	c.Categorical.Colors[1] = Color{1, 2, 3}
	c.Categories[0] = "z"
	c.Codes.Set(0, 1)

	assert.True(t, f.Categorical.Visible[0])
	assert.NotEqual(t, Color{1, 2, 3}, f.Categorical.Colors[1])
	assert.Equal(t, "a", f.Categories[0])
	assert.Equal(t, int32(0), f.Codes.At(0))

	cont := NewContinuous("n_genes", SourceObs, []float32{1, 2, 3})
	cont.Continuous.ColorRange = &Range{Min: 1, Max: 2}
	cc := cont.Clone()
	cc.Continuous.ColorRange.Max = 9
	cc.Continuous.SetFilter(2, 3)
	assert.Equal(t, 2.0, cont.Continuous.ColorRange.Max)
	assert.True(t, cont.Continuous.IsFullRange())
}

func TestField_CodeAtTreatsOutOfRangeAsNull(t *testing.T) {
	f := NewCategorical("c", SourceObs, []string{"a", "b"}, WrapInt32([]int32{0, 5, -3, 1}))
	assert.Equal(t, int32(0), f.CodeAt(0))
	assert.Equal(t, NullCode, f.CodeAt(1))
	assert.Equal(t, NullCode, f.CodeAt(2))
	assert.Equal(t, int32(1), f.CodeAt(3))
}

func TestField_OutlierFilterActive(t *testing.T) {
	f := NewContinuous("score", SourceObs, []float32{1, 2})
	assert.False(t, f.OutlierFilterActive())

	f.OutlierQuantiles = []float32{0.1, 0.99}
	f.Continuous.OutlierFilterEnabled = true
	assert.False(t, f.OutlierFilterActive())

	f.Continuous.OutlierThreshold = 0.9
	assert.True(t, f.OutlierFilterActive())
}

func TestField_Painter(t *testing.T) {
	cat := NewCategorical("c", SourceObs, []string{"A", "B"}, CodesFromInts([]int32{0, 1, -1}, 2))
	cat.Categorical.Colors[1] = Color{R: 9}
	paint := cat.Painter()
	assert.Equal(t, PaletteColor(0), paint(0))
	assert.Equal(t, Color{R: 9}, paint(1))
	assert.Equal(t, Neutral, paint(2))
	assert.Equal(t, Neutral, paint(10))

	cont := NewContinuous("v", SourceObs, []float32{0, float32(math.NaN()), 10})
	cont.Continuous.Colormap = "greys"
	paint = cont.Painter()
	assert.Equal(t, Color{255, 255, 255}, paint(0))
	assert.Equal(t, Neutral, paint(1))
	assert.Equal(t, Color{0, 0, 0}, paint(2))

	assert.Equal(t, Neutral, NewPending("p", SourceObs, KindContinuous).Painter()(0))
}
