package pointview

import (
	"github.com/hupe1980/pointview/view"
)

// Attributes is a partial buffer update addressed to a non-live view.
// Nil fields are unchanged.
type Attributes struct {
	Colors           []uint8
	Transparency     []float32
	OutlierQuantiles []float32
	Centroids        *view.Centroids
}

// RenderSink receives buffer updates. It is one-way: the engine never reads
// back. Buffers passed to the sink are owned by the engine and only valid
// until the next call; sinks that retain them must copy.
type RenderSink interface {
	// UpdateColors receives the packed RGBA8 color buffer of the live view.
	UpdateColors(rgba []uint8)
	// UpdateTransparency receives the per-point visibility of the live view.
	UpdateTransparency(alpha []float32)
	// UpdateOutlierQuantiles receives the aggregated outlier ratios.
	UpdateOutlierQuantiles(q []float32)
	// UpdateHighlight receives the highlight buffer and the indices written
	// by the last rebuild.
	UpdateHighlight(buf []uint8, changed []uint32)
	// SetCentroids receives per-category centroids of the active field.
	SetCentroids(c view.Centroids)
	// SetCentroidLabels receives centroid labels for a view.
	SetCentroidLabels(labels []string, viewID string)
	// UpdateSnapshotAttributes updates the buffers of a non-live view.
	UpdateSnapshotAttributes(viewID string, attrs Attributes)
}

// NoopSink discards every update.
type NoopSink struct{}

func (NoopSink) UpdateColors([]uint8)                        {}
func (NoopSink) UpdateTransparency([]float32)                {}
func (NoopSink) UpdateOutlierQuantiles([]float32)            {}
func (NoopSink) UpdateHighlight([]uint8, []uint32)           {}
func (NoopSink) SetCentroids(view.Centroids)                 {}
func (NoopSink) SetCentroidLabels([]string, string)          {}
func (NoopSink) UpdateSnapshotAttributes(string, Attributes) {}
