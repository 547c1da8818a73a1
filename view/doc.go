// Package view holds named view contexts.
//
// A Context bundles both field tables and every per-point buffer of one
// view. Stored contexts are structurally independent clones: editing one
// never reaches another or the live buffers. Raw column data (values and
// codes of source fields) is immutable and therefore shared between clones.
package view
