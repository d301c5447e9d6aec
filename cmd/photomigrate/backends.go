package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"photomigrate/internal/blobstore"
	"photomigrate/internal/config"
	"photomigrate/internal/models"
	"photomigrate/internal/records"
	"photomigrate/internal/supabase"
)

// backends holds the collaborators for one run and whatever must be closed after it.
type backends struct {
	records records.Store
	blobs   blobstore.BlobStore
	closers []io.Closer
}

func (b *backends) Close() error {
	var firstErr error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i].Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func openBackends(ctx context.Context, cfg *config.Config) (*backends, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	b := &backends{}
	var client *supabase.Client
	if cfg.Records.Backend == config.RecordsBackendREST || cfg.Blobs.Backend == config.BlobsBackendSupabase {
		client = supabase.NewClient(cfg.Supabase.URL, cfg.Supabase.ServiceRoleKey, cfg.Timeout())
	}

	rs, err := openRecordStore(ctx, cfg, client)
	if err != nil {
		return nil, err
	}
	b.records = rs
	if closer, ok := rs.(io.Closer); ok {
		b.closers = append(b.closers, closer)
	}

	bs, err := openBlobStore(ctx, cfg, client)
	if err != nil {
		_ = b.Close()
		return nil, err
	}
	b.blobs = bs

	slog.Debug("backends ready", "records", cfg.Records.Backend, "blobs", cfg.Blobs.Backend)
	return b, nil
}

func openRecordStore(ctx context.Context, cfg *config.Config, client *supabase.Client) (records.Store, error) {
	switch cfg.Records.Backend {
	case config.RecordsBackendREST:
		return records.NewRESTStore(client, cfg.Records.PageSize), nil
	case config.RecordsBackendPostgres:
		st, err := records.OpenPostgres(ctx, cfg.Records.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open records: %w", err)
		}
		return st, nil
	case config.RecordsBackendSQLite:
		st, err := records.OpenSQLite(cfg.Records.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open records: %w", err)
		}
		return st, nil
	default:
		return nil, fmt.Errorf("unsupported records backend %q", cfg.Records.Backend)
	}
}

func openBlobStore(ctx context.Context, cfg *config.Config, client *supabase.Client) (blobstore.BlobStore, error) {
	switch cfg.Blobs.Backend {
	case config.BlobsBackendSupabase:
		return blobstore.NewSupabaseStorage(client, models.ProfileImagesBucket)
	case config.BlobsBackendS3:
		endpoint := strings.TrimSpace(cfg.Blobs.S3Endpoint)
		if endpoint == "" {
			endpoint = supabaseURL(cfg, "/storage/v1/s3")
		}
		st, err := blobstore.NewS3Store(ctx, blobstore.S3Config{
			Endpoint:        endpoint,
			Region:          cfg.Blobs.S3Region,
			AccessKeyID:     cfg.Blobs.S3AccessKeyID,
			SecretAccessKey: cfg.Blobs.S3SecretAccessKey,
			Bucket:          models.ProfileImagesBucket,
			PublicBaseURL:   publicBaseURL(cfg),
		})
		if err != nil {
			return nil, fmt.Errorf("open blobs: %w", err)
		}
		return st, nil
	case config.BlobsBackendLocal:
		st, err := blobstore.NewLocalDir(cfg.Blobs.LocalRoot, publicBaseURL(cfg))
		if err != nil {
			return nil, fmt.Errorf("open blobs: %w", err)
		}
		return st, nil
	default:
		return nil, fmt.Errorf("unsupported blobs backend %q", cfg.Blobs.Backend)
	}
}

// publicBaseURL falls back to the bucket's Supabase public path so that stored URLs
// match what the hosted backend would have produced.
func publicBaseURL(cfg *config.Config) string {
	if base := strings.TrimSpace(cfg.Blobs.PublicBaseURL); base != "" {
		return base
	}
	return supabaseURL(cfg, supabase.StoragePath+"/object/public/"+models.ProfileImagesBucket)
}

func supabaseURL(cfg *config.Config, path string) string {
	base := strings.TrimRight(strings.TrimSpace(cfg.Supabase.URL), "/")
	if base == "" {
		return ""
	}
	return base + path
}
