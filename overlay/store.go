package overlay

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"sync"

	"github.com/hupe1980/pointview/blobstore"
	"github.com/hupe1980/pointview/codec"
	"github.com/hupe1980/pointview/field"
	"golang.org/x/sync/errgroup"
)

var templateMagic = []byte("PVT1")

// ErrBadEnvelope is returned for blobs that are not template envelopes.
var ErrBadEnvelope = errors.New("invalid template envelope")

// TemplateStore is a TemplateRegistry persisted to a blobstore.BlobStore.
//
// Reads are served from memory; writes go through to the blob store before
// the in-memory copy is updated. Each template is one blob:
//
//	[magic "PVT1"][compression u8][len(codec) u8][codec name][compressed block]
type TemplateStore struct {
	store       blobstore.BlobStore
	codec       codec.Codec
	compression codec.Compression
	prefix      string
	parallelism int

	mu  sync.Mutex
	mem *MemoryTemplates
}

var _ TemplateRegistry = (*TemplateStore)(nil)

// StoreOption configures a TemplateStore.
type StoreOption func(*TemplateStore)

// WithCodec sets the document codec for new writes. Defaults to codec.Default.
func WithCodec(c codec.Codec) StoreOption {
	return func(s *TemplateStore) {
		if c != nil {
			s.codec = c
		}
	}
}

// WithCompression sets the block compression. Defaults to zstd.
func WithCompression(c codec.Compression) StoreOption {
	return func(s *TemplateStore) { s.compression = c }
}

// WithPrefix sets the blob name prefix. Defaults to "templates/".
func WithPrefix(prefix string) StoreOption {
	return func(s *TemplateStore) { s.prefix = prefix }
}

// WithLoadParallelism bounds concurrent blob reads in Load.
func WithLoadParallelism(n int) StoreOption {
	return func(s *TemplateStore) { s.parallelism = n }
}

// NewTemplateStore wraps a blob store.
func NewTemplateStore(store blobstore.BlobStore, opts ...StoreOption) *TemplateStore {
	s := &TemplateStore{
		store:       store,
		codec:       codec.Default,
		compression: codec.CompressionZSTD,
		prefix:      "templates/",
		parallelism: 8,
		mem:         NewMemoryTemplates(),
	}
	for _, fn := range opts {
		fn(s)
	}
	return s
}

func (s *TemplateStore) blobName(id string) string {
	return path.Join(s.prefix, id+".tpl")
}

// Load reads every persisted template into memory.
func (s *TemplateStore) Load(ctx context.Context) error {
	names, err := s.store.List(ctx, s.prefix)
	if err != nil {
		return err
	}

	loaded := make([]Template, len(names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(s.parallelism, 1))
	for i, name := range names {
		if !strings.HasSuffix(name, ".tpl") {
			continue
		}
		g.Go(func() error {
			data, err := s.store.Get(gctx, name)
			if err != nil {
				return fmt.Errorf("read %s: %w", name, err)
			}
			t, err := s.decode(data)
			if err != nil {
				return fmt.Errorf("decode %s: %w", name, err)
			}
			loaded[i] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, t := range loaded {
		if t.ID == "" {
			continue
		}
		if err := s.mem.Put(ctx, t); err != nil {
			return err
		}
	}
	return nil
}

// Put persists t and then caches it.
func (s *TemplateStore) Put(ctx context.Context, t Template) error {
	if t.ID == "" {
		return ErrMissingID
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, _ := s.mem.Get(t.ID)
	t = stamp(t, prev)
	return s.write(ctx, t)
}

func (s *TemplateStore) write(ctx context.Context, t Template) error {
	data, err := s.encode(t)
	if err != nil {
		return err
	}
	if err := s.store.Put(ctx, s.blobName(t.ID), data); err != nil {
		return err
	}
	return s.mem.Put(ctx, t)
}

// Get returns the cached template.
func (s *TemplateStore) Get(id string) (Template, bool) {
	return s.mem.Get(id)
}

// SetDeleted toggles the soft-delete flag and persists the change.
func (s *TemplateStore) SetDeleted(ctx context.Context, id string, deleted bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.mem.Get(id)
	if !ok {
		return ErrTemplateNotFound
	}
	t.Deleted = deleted
	return s.write(ctx, t)
}

// Remove deletes the template permanently.
func (s *TemplateStore) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Delete(ctx, s.blobName(id)); err != nil {
		return err
	}
	return s.mem.Remove(ctx, id)
}

// List returns cached templates of one source in creation order.
func (s *TemplateStore) List(src field.Source) []Template {
	return s.mem.List(src)
}

func (s *TemplateStore) encode(t Template) ([]byte, error) {
	doc, err := s.codec.Marshal(t)
	if err != nil {
		return nil, err
	}
	block, err := codec.CompressBlock(doc, s.compression)
	if err != nil {
		return nil, err
	}

	name := s.codec.Name()
	var buf bytes.Buffer
	buf.Grow(len(templateMagic) + 2 + len(name) + len(block))
	buf.Write(templateMagic)
	buf.WriteByte(byte(s.compression))
	buf.WriteByte(byte(len(name)))
	buf.WriteString(name)
	buf.Write(block)
	return buf.Bytes(), nil
}

func (s *TemplateStore) decode(data []byte) (Template, error) {
	if len(data) < len(templateMagic)+2 || !bytes.Equal(data[:len(templateMagic)], templateMagic) {
		return Template{}, ErrBadEnvelope
	}
	data = data[len(templateMagic):]
	compression := codec.Compression(data[0])
	nameLen := int(data[1])
	data = data[2:]
	if len(data) < nameLen {
		return Template{}, ErrBadEnvelope
	}

	c, ok := codec.ByName(string(data[:nameLen]))
	if !ok {
		return Template{}, fmt.Errorf("%w: unknown codec %q", ErrBadEnvelope, data[:nameLen])
	}
	doc, err := codec.DecompressBlock(data[nameLen:], compression)
	if err != nil {
		return Template{}, err
	}

	var t Template
	if err := c.Unmarshal(doc, &t); err != nil {
		return Template{}, err
	}
	return t, nil
}
