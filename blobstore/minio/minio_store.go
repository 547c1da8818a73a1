package minio

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path"
	"strings"

	"github.com/hupe1980/pointview/blobstore"
	"github.com/minio/minio-go/v7"
)

// Store keeps field templates in a MinIO or other S3-compatible bucket.
type Store struct {
	client      *minio.Client
	bucket      string
	root        string
	contentType string
}

var _ blobstore.BlobStore = (*Store)(nil)

// NewStore returns a Store rooted at rootPrefix inside bucket,
// e.g. NewStore(client, "sessions", "templates/").
func NewStore(client *minio.Client, bucket, rootPrefix string) *Store {
	return &Store{
		client:      client,
		bucket:      bucket,
		root:        strings.Trim(rootPrefix, "/"),
		contentType: "application/octet-stream",
	}
}

func (s *Store) objectName(name string) string {
	if s.root == "" {
		return name
	}
	return path.Join(s.root, name)
}

func (s *Store) blobName(object string) string {
	if s.root == "" {
		return object
	}
	return strings.TrimPrefix(strings.TrimPrefix(object, s.root), "/")
}

// translate maps missing-object responses onto blobstore.ErrNotFound.
func translate(err error) error {
	if err == nil {
		return nil
	}
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NotFound":
		return blobstore.ErrNotFound
	}
	return err
}

// Get reads the whole object. GetObject is lazy, so a missing key may
// only surface on the first read.
func (s *Store) Get(ctx context.Context, name string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, s.objectName(name), minio.GetObjectOptions{})
	if err != nil {
		return nil, translate(err)
	}
	defer obj.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, obj); err != nil {
		return nil, translate(err)
	}
	return buf.Bytes(), nil
}

// Put uploads data in a single request.
func (s *Store) Put(ctx context.Context, name string, data []byte) error {
	_, err := s.client.PutObject(ctx, s.bucket, s.objectName(name), bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: s.contentType})
	return err
}

// Delete removes the object. A missing object is not an error.
func (s *Store) Delete(ctx context.Context, name string) error {
	err := translate(s.client.RemoveObject(ctx, s.bucket, s.objectName(name), minio.RemoveObjectOptions{}))
	if errors.Is(err, blobstore.ErrNotFound) {
		return nil
	}
	return err
}

// List walks the bucket under prefix. MinIO lists keys in lexical order.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	opts := minio.ListObjectsOptions{Prefix: s.objectName(prefix), Recursive: true}
	if s.root != "" && (prefix == "" || strings.HasSuffix(prefix, "/")) {
		opts.Prefix += "/"
	}

	var names []string
	for info := range s.client.ListObjects(ctx, s.bucket, opts) {
		if info.Err != nil {
			return nil, info.Err
		}
		if name := s.blobName(info.Key); name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}
