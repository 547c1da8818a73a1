// Package minio provides a MinIO implementation of the blobstore.BlobStore
// interface. It works with any S3-compatible service reachable through
// minio-go.
//
// # Usage
//
//	client, _ := minio.New("localhost:9000", &minio.Options{
//	    Creds: credentials.NewStaticV4("minioadmin", "minioadmin", ""),
//	})
//	store := pvminio.NewStore(client, "sessions", "templates/")
package minio
