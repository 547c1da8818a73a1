// Package visibility computes the per-point transparency buffer.
//
// Compute combines every restrictive filter into one buffer of 0/1 values:
// hidden categories, non full-range continuous filters, the filter of the
// active field when it lives outside the obs table, and the outlier
// threshold of the active field. When no filter restricts anything the
// buffer is filled in a single branch-free pass.
//
// The package also aggregates outlier-quantile ratios, paints packed RGBA
// color buffers and renders a human-readable filter summary.
package visibility
