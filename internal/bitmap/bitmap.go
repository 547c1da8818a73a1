package bitmap

import (
	"io"
	"iter"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"
)

// Bitmap is a compressed set of point indices.
type Bitmap struct {
	rb *roaring.Bitmap
}

// bitmapPool holds scratch bitmaps for page combination.
var bitmapPool = sync.Pool{
	New: func() any {
		return &Bitmap{rb: roaring.New()}
	},
}

// New creates a new empty bitmap.
func New() *Bitmap {
	return &Bitmap{rb: roaring.New()}
}

// Of builds a bitmap from point indices.
func Of(ids ...uint32) *Bitmap {
	return &Bitmap{rb: roaring.BitmapOf(ids...)}
}

// Get gets a scratch bitmap from the pool. Call Put when done.
func Get() *Bitmap {
	b := bitmapPool.Get().(*Bitmap)
	b.rb.Clear()
	return b
}

// Put returns a scratch bitmap to the pool.
func Put(b *Bitmap) {
	if b == nil {
		return
	}
	// Clear before returning to pool to release container memory
	b.rb.Clear()
	bitmapPool.Put(b)
}

// Add adds a point index.
func (b *Bitmap) Add(id uint32) {
	b.rb.Add(id)
}

// AddMany adds several point indices.
func (b *Bitmap) AddMany(ids []uint32) {
	b.rb.AddMany(ids)
}

// Remove removes a point index.
func (b *Bitmap) Remove(id uint32) {
	b.rb.Remove(id)
}

// Contains checks membership.
func (b *Bitmap) Contains(id uint32) bool {
	return b.rb.Contains(id)
}

// IsEmpty returns true if the bitmap is empty.
func (b *Bitmap) IsEmpty() bool {
	return b.rb.IsEmpty()
}

// Cardinality returns the number of elements in the bitmap.
func (b *Bitmap) Cardinality() uint64 {
	return b.rb.GetCardinality()
}

// Clone returns a deep copy of the bitmap.
func (b *Bitmap) Clone() *Bitmap {
	return &Bitmap{rb: b.rb.Clone()}
}

// Iterator returns an iterator over the bitmap in ascending order.
func (b *Bitmap) Iterator() iter.Seq[uint32] {
	return func(yield func(uint32) bool) {
		it := b.rb.Iterator()
		for it.HasNext() {
			if !yield(it.Next()) {
				return
			}
		}
	}
}

// ToArray returns the sorted members.
func (b *Bitmap) ToArray() []uint32 {
	return b.rb.ToArray()
}

// And intersects b with other in place.
func (b *Bitmap) And(other *Bitmap) {
	b.rb.And(other.rb)
}

// Or unions other into b in place.
func (b *Bitmap) Or(other *Bitmap) {
	b.rb.Or(other.rb)
}

// Equals reports set equality.
func (b *Bitmap) Equals(other *Bitmap) bool {
	return b.rb.Equals(other.rb)
}

// Clear removes all elements from the bitmap.
func (b *Bitmap) Clear() {
	b.rb.Clear()
}

// WriteTo writes the bitmap to an io.Writer.
func (b *Bitmap) WriteTo(w io.Writer) (int64, error) {
	return b.rb.WriteTo(w)
}

// ReadFrom reads the bitmap from an io.Reader.
func (b *Bitmap) ReadFrom(r io.Reader) (int64, error) {
	return b.rb.ReadFrom(r)
}
