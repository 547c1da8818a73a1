// Package loader fetches field data through injected per-source callbacks.
//
// Loads are single-flight per field: concurrent callers for the same field
// share one in-flight call. Successful results are cached by the field's
// original key, so renames never invalidate them. Failed loads are not
// cached and may be retried.
package loader
