// Package s3 provides an S3 implementation of the blobstore.BlobStore interface.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket", s3.WithPrefix("templates/"))
//
//	st, err := pointview.New(n, obs, vars,
//	    pointview.WithTemplateRegistry(overlay.NewTemplateStore(store)),
//	)
//
// # Features
//
//   - Multipart uploads via the transfer manager
//   - Automatic pagination for listing
//   - Configurable prefix for multi-tenant isolation
package s3
