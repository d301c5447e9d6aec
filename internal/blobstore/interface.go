package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrExists is returned by Put when the key is taken and upsert was not requested.
var ErrExists = errors.New("blob already exists")

// PutOptions controls how one object is written.
type PutOptions struct {
	ContentType string
	// CacheControl is a max-age in seconds, as the storage dashboard expects it.
	CacheControl string
	Upsert       bool
}

// BlobPutResult describes one persisted blob payload.
type BlobPutResult struct {
	Key       string
	SHA256    string
	SizeBytes int64
}

// BlobStore is the keyed object storage the migration uploads profile images into.
type BlobStore interface {
	Put(ctx context.Context, key string, r io.Reader, opts PutOptions) (BlobPutResult, error)
	PublicURL(key string) (string, error)
}

// validateKey keeps the key as given; only blank keys and unsafe paths are rejected.
func validateKey(key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", fmt.Errorf("blob key is required")
	}
	if strings.HasPrefix(key, "/") {
		return "", fmt.Errorf("blob key must be relative")
	}
	for _, part := range strings.Split(key, "/") {
		if part == "" || part == "." || part == ".." {
			return "", fmt.Errorf("invalid blob key %q", key)
		}
	}
	return key, nil
}
