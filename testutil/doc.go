// Package testutil provides testing utilities for pointview.
//
// This package is intended for use in tests and benchmarks only.
// It provides seeded generators for synthetic point clouds: categorical
// codes with uniform or Zipfian category sizes, continuous values, outlier
// quantiles and embedding positions.
//
// # Synthetic Fields
//
//	rng := testutil.NewRNG(seed)
//	cell := rng.CategoricalField("cell_type", field.SourceObs, n, 12, 1.2)
//	expr := rng.ContinuousField("expression", field.SourceObs, n, 0, 10)
//
// # Embeddings
//
//	pos := rng.Positions(n, 2) // n*2 floats, point-major
package testutil
