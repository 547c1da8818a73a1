// Package bitmap wraps roaring bitmaps as compressed point-index sets.
package bitmap
