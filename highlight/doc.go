// Package highlight manages named pages of highlighted point groups.
//
// Each group stores its point indices in a compressed bitmap. The manager
// keeps a render-facing buffer with one byte per point, rebuilt from the
// enabled groups of the active page.
package highlight
