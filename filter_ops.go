package pointview

import (
	"fmt"
	"math"
	"slices"

	"github.com/hupe1980/pointview/field"
	"github.com/hupe1980/pointview/visibility"
)

// SetCategoryVisible shows or hides one category of a categorical field.
func (s *State) SetCategoryVisible(src field.Source, fieldIdx, category int, visible bool) error {
	s.mu.Lock()
	defer s.unlock()
	return s.setCategoryVisible(src, fieldIdx, category, visible)
}

func (s *State) setCategoryVisible(src field.Source, fieldIdx, category int, visible bool) error {
	f, err := s.categoricalField(src, fieldIdx)
	if err != nil {
		return s.reject("set-category-visible", err)
	}
	if err := checkCategory(f, category); err != nil {
		return s.reject("set-category-visible", err)
	}
	if f.Categorical.Visible[category] == visible {
		return nil
	}
	f.Categorical.Visible[category] = visible
	s.recomputeVisibility()
	return nil
}

// SetAllCategoriesVisible shows or hides every category of a field.
func (s *State) SetAllCategoriesVisible(src field.Source, fieldIdx int, visible bool) error {
	s.mu.Lock()
	defer s.unlock()

	f, err := s.categoricalField(src, fieldIdx)
	if err != nil {
		return s.reject("set-all-categories-visible", err)
	}
	for i := range f.Categorical.Visible {
		f.Categorical.Visible[i] = visible
	}
	s.recomputeVisibility()
	return nil
}

// SetCategoryFilterEnabled toggles whether hidden categories restrict points.
func (s *State) SetCategoryFilterEnabled(src field.Source, fieldIdx int, enabled bool) error {
	s.mu.Lock()
	defer s.unlock()

	f, err := s.categoricalField(src, fieldIdx)
	if err != nil {
		return s.reject("set-category-filter-enabled", err)
	}
	if f.Categorical.FilterEnabled == enabled {
		return nil
	}
	f.Categorical.FilterEnabled = enabled
	s.recomputeVisibility()
	return nil
}

// SetContinuousFilter restricts a continuous field to [lo, hi]. The bounds
// are ordered and clamped into the field's stats.
func (s *State) SetContinuousFilter(src field.Source, fieldIdx int, lo, hi float64) error {
	s.mu.Lock()
	defer s.unlock()
	return s.setContinuousFilter(src, fieldIdx, lo, hi)
}

func (s *State) setContinuousFilter(src field.Source, fieldIdx int, lo, hi float64) error {
	f, err := s.continuousField(src, fieldIdx)
	if err != nil {
		return s.reject("set-continuous-filter", err)
	}
	if math.IsNaN(lo) || math.IsNaN(hi) {
		return s.reject("set-continuous-filter", fmt.Errorf("invalid filter range [%v, %v]", lo, hi))
	}
	f.Continuous.SetFilter(lo, hi)
	s.recomputeVisibility()
	return nil
}

// ResetContinuousFilter widens the filter of a continuous field to its full range.
func (s *State) ResetContinuousFilter(src field.Source, fieldIdx int) error {
	s.mu.Lock()
	defer s.unlock()

	f, err := s.continuousField(src, fieldIdx)
	if err != nil {
		return s.reject("reset-continuous-filter", err)
	}
	f.Continuous.ResetFilter()
	s.recomputeVisibility()
	return nil
}

// SetContinuousFilterEnabled toggles whether the range filter restricts points.
func (s *State) SetContinuousFilterEnabled(src field.Source, fieldIdx int, enabled bool) error {
	s.mu.Lock()
	defer s.unlock()

	f, err := s.continuousField(src, fieldIdx)
	if err != nil {
		return s.reject("set-continuous-filter-enabled", err)
	}
	if f.Continuous.FilterEnabled == enabled {
		return nil
	}
	f.Continuous.FilterEnabled = enabled
	s.recomputeVisibility()
	return nil
}

// SetOutlierFilter configures the outlier filter of a field with outlier
// quantiles. threshold must lie in [0, 1]; thresholds at or above
// field.OutlierThresholdOff disable filtering.
func (s *State) SetOutlierFilter(src field.Source, fieldIdx int, enabled bool, threshold float64) error {
	s.mu.Lock()
	defer s.unlock()

	f, err := s.continuousField(src, fieldIdx)
	if err != nil {
		return s.reject("set-outlier-filter", err)
	}
	if !f.HasOutlierData() {
		return s.reject("set-outlier-filter", fmt.Errorf("%w: %s has no outlier quantiles", ErrFieldNotLoaded, f.Ref()))
	}
	if math.IsNaN(threshold) || threshold < 0 || threshold > 1 {
		return s.reject("set-outlier-filter", fmt.Errorf("invalid outlier threshold %v", threshold))
	}
	f.Continuous.OutlierFilterEnabled = enabled
	f.Continuous.OutlierThreshold = threshold
	s.rebuildOutlierRatios()
	s.recomputeVisibility()
	return nil
}

// ClearFilters shows every category, widens every range filter and disables
// outlier filtering in the live view.
func (s *State) ClearFilters() {
	s.mu.Lock()
	defer s.unlock()

	for _, src := range sources {
		for _, f := range s.live.Fields(src) {
			if f.Categorical != nil {
				for i := range f.Categorical.Visible {
					f.Categorical.Visible[i] = true
				}
			}
			if f.Continuous != nil {
				f.Continuous.ResetFilter()
				f.Continuous.OutlierFilterEnabled = false
			}
		}
	}
	s.rebuildOutlierRatios()
	s.recomputeVisibility()
}

// RecomputeVisibility forces a visibility recompute of the live view.
func (s *State) RecomputeVisibility() {
	s.mu.Lock()
	defer s.unlock()
	s.recomputeVisibility()
}

// Transparency returns a copy of the live transparency buffer.
func (s *State) Transparency() []float32 {
	s.mu.Lock()
	defer s.unlock()
	return slices.Clone(s.live.Transparency)
}

// FilteredCount returns the number of visible points and the point count.
func (s *State) FilteredCount() (shown, total int) {
	s.mu.Lock()
	defer s.unlock()
	return s.shown, s.n
}

// FilterSummary describes the filters applied by the last recompute.
func (s *State) FilterSummary() []visibility.FilterDescription {
	s.mu.Lock()
	defer s.unlock()
	return slices.Clone(s.summary)
}

// FilterSummaryText formats FilterSummary into one line.
func (s *State) FilterSummaryText() string {
	return visibility.FormatSummary(s.FilterSummary())
}
