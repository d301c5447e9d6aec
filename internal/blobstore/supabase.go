package blobstore

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"photomigrate/internal/supabase"
)

// SupabaseStorage writes objects into one Supabase Storage bucket.
type SupabaseStorage struct {
	client *supabase.Client
	bucket string
}

// NewSupabaseStorage creates a store for bucket on the client's project.
func NewSupabaseStorage(client *supabase.Client, bucket string) (*SupabaseStorage, error) {
	if client == nil {
		return nil, fmt.Errorf("supabase client is required")
	}
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return nil, fmt.Errorf("bucket is required")
	}
	return &SupabaseStorage{client: client, bucket: bucket}, nil
}

type storageUploadResponse struct {
	Key string `json:"Key"`
	ID  string `json:"Id"`
}

// Put uploads the object with POST /object/{bucket}/{key}. Upsert maps to x-upsert.
func (s *SupabaseStorage) Put(ctx context.Context, key string, r io.Reader, opts PutOptions) (BlobPutResult, error) {
	var zero BlobPutResult
	key, err := validateKey(key)
	if err != nil {
		return zero, err
	}
	if r == nil {
		return zero, fmt.Errorf("reader is required")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return zero, err
	}

	header := http.Header{}
	contentType := opts.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header.Set("Content-Type", contentType)
	header.Set("x-upsert", strconv.FormatBool(opts.Upsert))
	if cc := strings.TrimSpace(opts.CacheControl); cc != "" {
		header.Set("Cache-Control", "max-age="+cc)
	}

	var resp storageUploadResponse
	path := supabase.StoragePath + "/object/" + escapeKey(s.bucket) + "/" + escapeKey(key)
	if err := s.client.Do(ctx, http.MethodPost, path, nil, header, bytes.NewReader(data), &resp); err != nil {
		var apiErr *supabase.APIError
		if errors.As(err, &apiErr) && (apiErr.Status == http.StatusConflict || apiErr.Code == "Duplicate") {
			return zero, fmt.Errorf("%s: %w: %v", key, ErrExists, err)
		}
		return zero, err
	}

	sum := sha256.Sum256(data)
	return BlobPutResult{Key: key, SHA256: hex.EncodeToString(sum[:]), SizeBytes: int64(len(data))}, nil
}

// PublicURL returns the public object URL. It does not check that the bucket is public.
func (s *SupabaseStorage) PublicURL(key string) (string, error) {
	key, err := validateKey(key)
	if err != nil {
		return "", err
	}
	base := s.client.BaseURL()
	if base == "" {
		return "", fmt.Errorf("supabase url is required")
	}
	return base + supabase.StoragePath + "/object/public/" + escapeKey(s.bucket) + "/" + escapeKey(key), nil
}
