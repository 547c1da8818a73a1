// Package registry indexes fields by their stable original key.
//
// Lookups are O(1) through per-source maps that are rebuilt lazily after
// Invalidate. Renames never affect lookups because the maps are keyed by
// the original (pre-rename) key.
package registry
