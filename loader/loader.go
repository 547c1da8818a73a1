package loader

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/hupe1980/pointview/field"
	"github.com/hupe1980/pointview/resource"
)

// ErrNoLoader is returned when no loader is configured for a source.
var ErrNoLoader = errors.New("no loader configured")

// LengthMismatchError reports a returned buffer whose length differs from
// the point count.
type LengthMismatchError struct {
	Ref    field.Ref
	Buffer string
	Got    int
	Want   int
}

func (e *LengthMismatchError) Error() string {
	return fmt.Sprintf("load %s: %s has length %d, want %d", e.Ref, e.Buffer, e.Got, e.Want)
}

// Descriptor identifies the field to load.
type Descriptor struct {
	Ref  field.Ref
	Key  string
	Kind field.Kind
}

// Data is what a loader returns. Unused buffers stay nil.
type Data struct {
	Values           []float32
	Categories       []string
	Codes            *field.Codes
	OutlierQuantiles []float32
}

// SizeBytes returns the raw size of the buffers.
func (d *Data) SizeBytes() int {
	return 4*len(d.Values) + int(d.Codes.SizeBytes()) + 4*len(d.OutlierQuantiles)
}

// Func loads the data of one field.
type Func func(ctx context.Context, d Descriptor) (*Data, error)

// Loader deduplicates and caches field loads.
type Loader struct {
	n     int
	funcs [2]Func
	rc    *resource.Controller

	group singleflight.Group

	mu    sync.Mutex
	cache map[field.Ref]*Data

	hits   atomic.Int64
	misses atomic.Int64
}

// New creates a loader for n points. obs or vars may be nil. rc may be nil.
func New(n int, obs, vars Func, rc *resource.Controller) *Loader {
	return &Loader{
		n:     n,
		funcs: [2]Func{field.SourceObs: obs, field.SourceVar: vars},
		rc:    rc,
		cache: make(map[field.Ref]*Data),
	}
}

// Has reports whether a loader is configured for src.
func (l *Loader) Has(src field.Source) bool {
	return int(src) < len(l.funcs) && l.funcs[src] != nil
}

// Cached returns a previously loaded result.
func (l *Loader) Cached(ref field.Ref) (*Data, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	d, ok := l.cache[ref]
	return d, ok
}

// Store seeds the cache, e.g. for data materialized from a template.
func (l *Loader) Store(ref field.Ref, d *Data) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cache[ref] = d
}

// Forget drops a cached result.
func (l *Loader) Forget(ref field.Ref) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.cache, ref)
}

// Stats returns cache hits and misses.
func (l *Loader) Stats() (hits, misses int64) {
	return l.hits.Load(), l.misses.Load()
}

// Load returns the data of d, loading it at most once across concurrent
// callers. shared is true when the result came from the cache or another
// caller's in-flight load.
func (l *Loader) Load(ctx context.Context, d Descriptor) (data *Data, shared bool, err error) {
	if data, ok := l.Cached(d.Ref); ok {
		l.hits.Add(1)
		return data, true, nil
	}
	l.misses.Add(1)

	if !l.Has(d.Ref.Source) {
		return nil, false, fmt.Errorf("load %s: %w", d.Ref, ErrNoLoader)
	}

	v, err, shared := l.group.Do(d.Ref.String(), func() (any, error) {
		// A concurrent load may have finished between the cache check and Do.
		if data, ok := l.Cached(d.Ref); ok {
			return data, nil
		}
		data, err := l.fetch(ctx, d)
		if err != nil {
			return nil, err
		}
		l.Store(d.Ref, data)
		return data, nil
	})
	if err != nil {
		return nil, shared, err
	}
	return v.(*Data), shared, nil
}

func (l *Loader) fetch(ctx context.Context, d Descriptor) (*Data, error) {
	if err := l.rc.AcquireLoad(ctx); err != nil {
		return nil, err
	}
	defer l.rc.ReleaseLoad()

	data, err := l.funcs[d.Ref.Source](ctx, d)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", d.Ref, err)
	}
	if data == nil {
		return nil, fmt.Errorf("load %s: loader returned no data", d.Ref)
	}
	if err := l.check(d, data); err != nil {
		return nil, err
	}
	if err := l.rc.AcquireIO(ctx, data.SizeBytes()); err != nil {
		return nil, err
	}
	return data, nil
}

func (l *Loader) check(d Descriptor, data *Data) error {
	if data.Values != nil && len(data.Values) != l.n {
		return &LengthMismatchError{Ref: d.Ref, Buffer: "values", Got: len(data.Values), Want: l.n}
	}
	if data.Codes != nil && data.Codes.Len() != l.n {
		return &LengthMismatchError{Ref: d.Ref, Buffer: "codes", Got: data.Codes.Len(), Want: l.n}
	}
	if data.OutlierQuantiles != nil && len(data.OutlierQuantiles) != l.n {
		return &LengthMismatchError{Ref: d.Ref, Buffer: "outlier quantiles", Got: len(data.OutlierQuantiles), Want: l.n}
	}
	switch d.Kind {
	case field.KindCategory:
		if data.Codes == nil {
			return fmt.Errorf("load %s: categorical field returned no codes", d.Ref)
		}
	default:
		if data.Values == nil {
			return fmt.Errorf("load %s: continuous field returned no values", d.Ref)
		}
	}
	return nil
}
