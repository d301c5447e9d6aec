package blobstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// LocalDir stores blobs as files under a root directory, one file per key.
// It stands in for a bucket when rehearsing a migration offline.
type LocalDir struct {
	root          string
	publicBaseURL string
}

// NewLocalDir creates a local store rooted at root. Public URLs are built from
// publicBaseURL when set, otherwise they are file:// URLs.
func NewLocalDir(root, publicBaseURL string) (*LocalDir, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, fmt.Errorf("local blob root is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Join(abs, ".tmp"), 0o755); err != nil {
		return nil, err
	}
	return &LocalDir{
		root:          abs,
		publicBaseURL: strings.TrimRight(strings.TrimSpace(publicBaseURL), "/"),
	}, nil
}

// Put streams bytes into a temp file, computes SHA-256, and moves it into place.
func (d *LocalDir) Put(ctx context.Context, key string, r io.Reader, opts PutOptions) (BlobPutResult, error) {
	var zero BlobPutResult
	if d == nil {
		return zero, fmt.Errorf("blob store is not configured")
	}
	if r == nil {
		return zero, fmt.Errorf("reader is required")
	}
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	dst, err := d.pathFromKey(key)
	if err != nil {
		return zero, err
	}
	if !opts.Upsert {
		if _, err := os.Stat(dst); err == nil {
			return zero, fmt.Errorf("%s: %w", key, ErrExists)
		} else if !errors.Is(err, os.ErrNotExist) {
			return zero, err
		}
	}

	tmp, err := os.CreateTemp(filepath.Join(d.root, ".tmp"), "put-*")
	if err != nil {
		return zero, err
	}
	tmpPath := tmp.Name()
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}

	h := sha256.New()
	n, err := io.Copy(io.MultiWriter(tmp, h), r)
	if err != nil {
		cleanup()
		return zero, err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return zero, err
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		cleanup()
		return zero, err
	}
	if err := os.Rename(tmpPath, dst); err != nil {
		cleanup()
		return zero, err
	}

	return BlobPutResult{Key: key, SHA256: hex.EncodeToString(h.Sum(nil)), SizeBytes: n}, nil
}

// PublicURL returns the URL a stored key is reachable at.
func (d *LocalDir) PublicURL(key string) (string, error) {
	if d == nil {
		return "", fmt.Errorf("blob store is not configured")
	}
	path, err := d.pathFromKey(key)
	if err != nil {
		return "", err
	}
	if d.publicBaseURL != "" {
		clean, _ := validateKey(key)
		return d.publicBaseURL + "/" + escapeKey(clean), nil
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(path)}
	return u.String(), nil
}

func (d *LocalDir) pathFromKey(key string) (string, error) {
	key, err := validateKey(key)
	if err != nil {
		return "", err
	}
	return filepath.Join(d.root, filepath.FromSlash(key)), nil
}

func escapeKey(key string) string {
	parts := strings.Split(key, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}
