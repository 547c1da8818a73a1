package pointview

import (
	"slices"
	"sync"

	"github.com/hupe1980/pointview/view"
)

// recordingSink keeps copies of the last buffers it received.
type recordingSink struct {
	mu sync.Mutex

	colors       []uint8
	transparency []float32
	outliers     []float32
	highlight    []uint8
	changed      []uint32
	centroids    view.Centroids
	labels       []string
	labelsView   string
	snapshots    map[string]Attributes

	colorUpdates        int
	transparencyUpdates int
}

var _ RenderSink = (*recordingSink)(nil)

func newRecordingSink() *recordingSink {
	return &recordingSink{snapshots: make(map[string]Attributes)}
}

func (r *recordingSink) UpdateColors(rgba []uint8) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.colors = slices.Clone(rgba)
	r.colorUpdates++
}

func (r *recordingSink) UpdateTransparency(alpha []float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transparency = slices.Clone(alpha)
	r.transparencyUpdates++
}

func (r *recordingSink) UpdateOutlierQuantiles(q []float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outliers = slices.Clone(q)
}

func (r *recordingSink) UpdateHighlight(buf []uint8, changed []uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.highlight = slices.Clone(buf)
	r.changed = slices.Clone(changed)
}

func (r *recordingSink) SetCentroids(c view.Centroids) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.centroids = c.Clone()
}

func (r *recordingSink) SetCentroidLabels(labels []string, viewID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.labels = slices.Clone(labels)
	r.labelsView = viewID
}

func (r *recordingSink) UpdateSnapshotAttributes(viewID string, attrs Attributes) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshots[viewID] = Attributes{
		Colors:       slices.Clone(attrs.Colors),
		Transparency: slices.Clone(attrs.Transparency),
	}
}

func (r *recordingSink) lastTransparency() []float32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.transparency)
}

func (r *recordingSink) snapshot(id string) (Attributes, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.snapshots[id]
	return a, ok
}
