// Package storage archives the raw snapshot documents the importer
// consumes, so any imported snapshot can be re-derived or audited later.
package storage

import "context"

// ObjectInfo represents metadata for an archived object.
type ObjectInfo struct {
	Key  string
	Size int64
}

// ObjectStorage captures the minimal S3-compatible operations the
// importer needs.
type ObjectStorage interface {
	ListObjects(ctx context.Context, prefix string) ([]ObjectInfo, error)
	DownloadObject(ctx context.Context, key string) ([]byte, error)
	UploadObject(ctx context.Context, key string, data []byte) error
}
