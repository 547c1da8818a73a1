// Package field holds the per-field metadata model: categorical and continuous
// field descriptors, their overlay state (rename, soft-delete, user-defined
// markers), category code storage and the numeric color domain.
//
// Fields are plain data. They are mutated by the coordinator in the root
// package and cloned wholesale when a view snapshot is taken.
package field
