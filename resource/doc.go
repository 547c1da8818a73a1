// Package resource bounds the memory held by view snapshots, the number of
// concurrent field loads and the byte rate of loaded or persisted data.
package resource
