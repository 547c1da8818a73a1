package pointview

import (
	"log/slog"

	"github.com/hupe1980/pointview/categorical"
	"github.com/hupe1980/pointview/field"
	"github.com/hupe1980/pointview/loader"
	"github.com/hupe1980/pointview/overlay"
	"github.com/hupe1980/pointview/resource"
)

// DefaultLiveViewID is the id of the initial view.
const DefaultLiveViewID = "live"

type options struct {
	logger           *Logger
	metricsCollector MetricsCollector
	sink             RenderSink

	obsLoader loader.Func
	varLoader loader.Func

	renames   overlay.RenameRegistry
	deletes   overlay.DeleteRegistry
	templates overlay.TemplateRegistry

	resources *resource.Controller

	embedding EmbeddingProvider
	dimension int

	unassignedLabel string
	colormap        string
	liveViewID      string
}

// Option configures a State.
type Option func(*options)

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := pointview.NewJSONLogger(slog.LevelInfo)
//	s, _ := pointview.New(n, obs, vars, pointview.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithMetricsCollector configures a metrics collector.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &pointview.BasicMetricsCollector{}
//	s, _ := pointview.New(n, obs, vars, pointview.WithMetricsCollector(metrics))
//	// ... use s ...
//	stats := metrics.GetStats()
//	fmt.Printf("Recomputes: %d, fast path: %d\n", stats.VisibilityCount, stats.VisibilityFastPath)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		o.metricsCollector = mc
	}
}

// WithRenderSink sets the renderer that receives buffer updates.
func WithRenderSink(sink RenderSink) Option {
	return func(o *options) {
		o.sink = sink
	}
}

// WithObsLoader sets the loader for obs field data.
func WithObsLoader(fn loader.Func) Option {
	return func(o *options) {
		o.obsLoader = fn
	}
}

// WithVarLoader sets the loader for var field data.
func WithVarLoader(fn loader.Func) Option {
	return func(o *options) {
		o.varLoader = fn
	}
}

// WithRenameRegistry sets the registry recording field renames.
func WithRenameRegistry(r overlay.RenameRegistry) Option {
	return func(o *options) {
		o.renames = r
	}
}

// WithDeleteRegistry sets the registry recording field lifecycle overrides.
func WithDeleteRegistry(r overlay.DeleteRegistry) Option {
	return func(o *options) {
		o.deletes = r
	}
}

// WithTemplateRegistry sets the registry of user-defined field templates,
// e.g. an overlay.TemplateStore for persistence.
func WithTemplateRegistry(r overlay.TemplateRegistry) Option {
	return func(o *options) {
		o.templates = r
	}
}

// WithResourceController bounds snapshot memory, concurrent loads and load IO.
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) {
		o.resources = rc
	}
}

// WithEmbedding sets the provider of point positions and the initial dimension.
func WithEmbedding(p EmbeddingProvider, dimension int) Option {
	return func(o *options) {
		o.embedding = p
		o.dimension = dimension
	}
}

// WithUnassignedLabel sets the label of the bucket receiving deleted categories.
func WithUnassignedLabel(label string) Option {
	return func(o *options) {
		o.unassignedLabel = label
	}
}

// WithDefaultColormap sets the colormap of continuous fields that name none.
// Unknown names fall back to field.DefaultColormap.
func WithDefaultColormap(name string) Option {
	return func(o *options) {
		o.colormap = name
	}
}

// WithLiveViewID sets the id of the initial view.
func WithLiveViewID(id string) Option {
	return func(o *options) {
		o.liveViewID = id
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
		sink:             NoopSink{},
		unassignedLabel:  categorical.DefaultUnassignedLabel,
		colormap:         field.DefaultColormap,
		liveViewID:       DefaultLiveViewID,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.logger == nil {
		o.logger = NoopLogger()
	}
	if o.metricsCollector == nil {
		o.metricsCollector = NoopMetricsCollector{}
	}
	if o.sink == nil {
		o.sink = NoopSink{}
	}
	if o.renames == nil {
		o.renames = overlay.NewMemoryRenames()
	}
	if o.deletes == nil {
		o.deletes = overlay.NewMemoryDeletes()
	}
	if o.templates == nil {
		o.templates = overlay.NewMemoryTemplates()
	}
	if o.unassignedLabel == "" {
		o.unassignedLabel = categorical.DefaultUnassignedLabel
	}
	if o.liveViewID == "" {
		o.liveViewID = DefaultLiveViewID
	}
	return o
}
