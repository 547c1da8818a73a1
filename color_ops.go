package pointview

import (
	"context"
	"fmt"
	"math"
	"slices"

	"github.com/hupe1980/pointview/field"
)

// Colors returns a copy of the live RGBA8 color buffer.
func (s *State) Colors() []uint8 {
	s.mu.Lock()
	defer s.unlock()
	return slices.Clone(s.live.Colors)
}

// SetCategoryColor recolors one category.
func (s *State) SetCategoryColor(src field.Source, fieldIdx, category int, c field.Color) error {
	s.mu.Lock()
	defer s.unlock()

	f, err := s.categoricalField(src, fieldIdx)
	if err != nil {
		return s.reject("set-category-color", err)
	}
	if err := checkCategory(f, category); err != nil {
		return s.reject("set-category-color", err)
	}
	f.Categorical.Colors[category] = c
	s.syncTemplate(context.Background(), f)
	s.markColors(f)
	if f == s.activeField() && s.refreshCentroidColors(f) {
		s.sink.SetCentroids(s.live.Centroids)
	}
	return nil
}

// SetColormap selects the colormap of a continuous field by name.
func (s *State) SetColormap(src field.Source, fieldIdx int, name string) error {
	s.mu.Lock()
	defer s.unlock()

	f, err := s.continuousField(src, fieldIdx)
	if err != nil {
		return s.reject("set-colormap", err)
	}
	if !slices.Contains(field.ColormapNames(), name) {
		return s.reject("set-colormap", fmt.Errorf("%w: unknown colormap %q", ErrInvalidKey, name))
	}
	f.Continuous.Colormap = name
	s.markColors(f)
	return nil
}

// SetColorRange overrides the color domain of a continuous field. A nil
// range restores the stats extent.
func (s *State) SetColorRange(src field.Source, fieldIdx int, r *field.Range) error {
	s.mu.Lock()
	defer s.unlock()

	f, err := s.continuousField(src, fieldIdx)
	if err != nil {
		return s.reject("set-color-range", err)
	}
	if r != nil {
		if math.IsNaN(r.Min) || math.IsNaN(r.Max) {
			return s.reject("set-color-range", fmt.Errorf("invalid color range [%v, %v]", r.Min, r.Max))
		}
		cr := field.Range{Min: math.Min(r.Min, r.Max), Max: math.Max(r.Min, r.Max)}
		r = &cr
	}
	f.Continuous.ColorRange = r
	s.markColors(f)
	return nil
}

// SetLogScale toggles logarithmic color scaling of a continuous field.
func (s *State) SetLogScale(src field.Source, fieldIdx int, enabled bool) error {
	s.mu.Lock()
	defer s.unlock()

	f, err := s.continuousField(src, fieldIdx)
	if err != nil {
		return s.reject("set-log-scale", err)
	}
	if f.Continuous.LogScale == enabled {
		return nil
	}
	f.Continuous.LogScale = enabled
	s.markColors(f)
	return nil
}

// ReapplyColors repaints the live color buffer from the active field.
func (s *State) ReapplyColors() {
	s.mu.Lock()
	defer s.unlock()
	if s.batch.depth > 0 {
		s.batch.colors = true
		return
	}
	s.paint(nil)
}
