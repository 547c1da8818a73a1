// Package overlay holds the external registries that survive field-table
// rebuilds: renames, soft-deletes and the serializable templates of
// user-defined fields.
//
// Every registry is keyed by a field's original key, never by its current
// display name.
package overlay
