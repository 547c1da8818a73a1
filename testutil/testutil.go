package testutil

import (
	"fmt"
	"math"
	"math/rand"
	"sync"

	"github.com/hupe1980/pointview/field"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand = rand.New(rand.NewSource(r.seed))
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// FillUniformRange fills dst with random values in range [minVal, maxVal).
func (r *RNG) FillUniformRange(dst []float32, minVal, maxVal float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range dst {
		dst[i] = minVal + r.rand.Float32()*(maxVal-minVal)
	}
}

// Codes draws n category indices in [0,k). skew <= 0 draws uniformly;
// otherwise category sizes follow Zipf's law with exponent skew.
func (r *RNG) Codes(n, k int, skew float64) []int32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]int32, n)
	if skew <= 0 {
		for i := range out {
			out[i] = int32(r.rand.Intn(k))
		}
		return out
	}
	cdf := zipfCDF(k, skew)
	for i := range out {
		u := r.rand.Float64()
		c := 0
		for c < k-1 && u > cdf[c] {
			c++
		}
		out[i] = int32(c)
	}
	return out
}

// zipfCDF returns the cumulative distribution of P(k) ∝ 1/k^s over n ranks.
func zipfCDF(n int, s float64) []float64 {
	cdf := make([]float64, n)
	var hns float64
	for i := 1; i <= n; i++ {
		hns += 1.0 / math.Pow(float64(i), s)
		cdf[i-1] = hns
	}
	for i := range cdf {
		cdf[i] /= hns
	}
	return cdf
}

// Categories returns k labels "c0".."c<k-1>".
func Categories(k int) []string {
	out := make([]string, k)
	for i := range out {
		out[i] = fmt.Sprintf("c%d", i)
	}
	return out
}

// CategoricalField returns a loaded categorical field with k categories.
func (r *RNG) CategoricalField(key string, src field.Source, n, k int, skew float64) *field.Field {
	return field.NewCategorical(key, src, Categories(k), field.CodesFromInts(r.Codes(n, k, skew), k))
}

// ContinuousField returns a loaded continuous field with values in [lo, hi).
func (r *RNG) ContinuousField(key string, src field.Source, n int, lo, hi float32) *field.Field {
	values := make([]float32, n)
	r.FillUniformRange(values, lo, hi)
	return field.NewContinuous(key, src, values)
}

// OutlierQuantiles returns n quantiles in [0,1).
func (r *RNG) OutlierQuantiles(n int) []float32 {
	q := make([]float32, n)
	r.FillUniformRange(q, 0, 1)
	return q
}

// Positions returns n*dim coordinates in [-1, 1), point-major.
func (r *RNG) Positions(n, dim int) []float32 {
	pos := make([]float32, n*dim)
	r.FillUniformRange(pos, -1, 1)
	return pos
}

// SparseNulls returns a mask where each entry is true with probability rate.
// Callers use it to null out codes or values.
func (r *RNG) SparseNulls(n int, rate float64) []bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]bool, n)
	for i := range out {
		out[i] = r.rand.Float64() < rate
	}
	return out
}
