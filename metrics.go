package pointview

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
type MetricsCollector interface {
	// RecordVisibility is called after each global visibility recompute.
	// fastPath is true when no filter applied.
	RecordVisibility(duration time.Duration, shown, total int, fastPath bool)

	// RecordColorApply is called after colors of a field are reapplied.
	RecordColorApply(fieldKey string, duration time.Duration)

	// RecordCategoryEdit is called after each merge or delete-to-unassigned edit.
	RecordCategoryEdit(kind string, duration time.Duration, err error)

	// RecordViewSwitch is called after each view switch.
	RecordViewSwitch(duration time.Duration, err error)

	// RecordLoad is called after each field load. shared is true when the
	// result came from the cache or a concurrent in-flight load.
	RecordLoad(duration time.Duration, shared bool, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordVisibility(time.Duration, int, int, bool)  {}
func (NoopMetricsCollector) RecordColorApply(string, time.Duration)          {}
func (NoopMetricsCollector) RecordCategoryEdit(string, time.Duration, error) {}
func (NoopMetricsCollector) RecordViewSwitch(time.Duration, error)           {}
func (NoopMetricsCollector) RecordLoad(time.Duration, bool, error)           {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	VisibilityCount      atomic.Int64
	VisibilityFastPath   atomic.Int64
	VisibilityTotalNanos atomic.Int64
	ColorApplyCount      atomic.Int64
	CategoryEditCount    atomic.Int64
	CategoryEditErrors   atomic.Int64
	ViewSwitchCount      atomic.Int64
	ViewSwitchErrors     atomic.Int64
	LoadCount            atomic.Int64
	LoadShared           atomic.Int64
	LoadErrors           atomic.Int64
}

// RecordVisibility implements MetricsCollector.
func (b *BasicMetricsCollector) RecordVisibility(duration time.Duration, shown, total int, fastPath bool) {
	b.VisibilityCount.Add(1)
	b.VisibilityTotalNanos.Add(duration.Nanoseconds())
	if fastPath {
		b.VisibilityFastPath.Add(1)
	}
}

// RecordColorApply implements MetricsCollector.
func (b *BasicMetricsCollector) RecordColorApply(fieldKey string, duration time.Duration) {
	b.ColorApplyCount.Add(1)
}

// RecordCategoryEdit implements MetricsCollector.
func (b *BasicMetricsCollector) RecordCategoryEdit(kind string, duration time.Duration, err error) {
	b.CategoryEditCount.Add(1)
	if err != nil {
		b.CategoryEditErrors.Add(1)
	}
}

// RecordViewSwitch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordViewSwitch(duration time.Duration, err error) {
	b.ViewSwitchCount.Add(1)
	if err != nil {
		b.ViewSwitchErrors.Add(1)
	}
}

// RecordLoad implements MetricsCollector.
func (b *BasicMetricsCollector) RecordLoad(duration time.Duration, shared bool, err error) {
	b.LoadCount.Add(1)
	if shared {
		b.LoadShared.Add(1)
	}
	if err != nil {
		b.LoadErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		VisibilityCount:    b.VisibilityCount.Load(),
		VisibilityFastPath: b.VisibilityFastPath.Load(),
		VisibilityAvgNanos: b.getAvgVisibilityNanos(),
		ColorApplyCount:    b.ColorApplyCount.Load(),
		CategoryEditCount:  b.CategoryEditCount.Load(),
		CategoryEditErrors: b.CategoryEditErrors.Load(),
		ViewSwitchCount:    b.ViewSwitchCount.Load(),
		ViewSwitchErrors:   b.ViewSwitchErrors.Load(),
		LoadCount:          b.LoadCount.Load(),
		LoadShared:         b.LoadShared.Load(),
		LoadErrors:         b.LoadErrors.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgVisibilityNanos() int64 {
	count := b.VisibilityCount.Load()
	if count == 0 {
		return 0
	}
	return b.VisibilityTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	VisibilityCount    int64
	VisibilityFastPath int64
	VisibilityAvgNanos int64
	ColorApplyCount    int64
	CategoryEditCount  int64
	CategoryEditErrors int64
	ViewSwitchCount    int64
	ViewSwitchErrors   int64
	LoadCount          int64
	LoadShared         int64
	LoadErrors         int64
}
