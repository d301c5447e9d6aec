package blobstore

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

const defaultS3Region = "us-east-1"

// S3Config configures an S3-compatible bucket, e.g. the Supabase Storage S3 endpoint.
type S3Config struct {
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	// PublicBaseURL is the URL prefix objects are publicly served under.
	PublicBaseURL string
}

// S3Store writes objects with PutObject.
type S3Store struct {
	client        *s3.Client
	bucket        string
	endpoint      string
	region        string
	publicBaseURL string
}

// NewS3Store loads AWS configuration and creates a store for cfg.Bucket. Static
// credentials are used when both keys are set; otherwise the default chain applies.
func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, fmt.Errorf("bucket is required")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = defaultS3Region
	}
	endpoint := strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/")

	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Store{
		client:        client,
		bucket:        bucket,
		endpoint:      endpoint,
		region:        region,
		publicBaseURL: strings.TrimRight(strings.TrimSpace(cfg.PublicBaseURL), "/"),
	}, nil
}

// Put uploads the object. Without Upsert the write is conditional on the key being absent.
func (s *S3Store) Put(ctx context.Context, key string, r io.Reader, opts PutOptions) (BlobPutResult, error) {
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

	input := &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	}
	if opts.ContentType != "" {
		input.ContentType = aws.String(opts.ContentType)
	}
	if cc := strings.TrimSpace(opts.CacheControl); cc != "" {
		input.CacheControl = aws.String("max-age=" + cc)
	}
	if !opts.Upsert {
		input.IfNoneMatch = aws.String("*")
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "PreconditionFailed" {
			return zero, fmt.Errorf("%s: %w", key, ErrExists)
		}
		return zero, fmt.Errorf("put object %s: %w", key, err)
	}

	sum := sha256.Sum256(data)
	return BlobPutResult{Key: key, SHA256: hex.EncodeToString(sum[:]), SizeBytes: int64(len(data))}, nil
}

// PublicURL prefers the configured public base URL, then a path-style endpoint URL,
// then the virtual-hosted AWS URL.
func (s *S3Store) PublicURL(key string) (string, error) {
	key, err := validateKey(key)
	if err != nil {
		return "", err
	}
	switch {
	case s.publicBaseURL != "":
		return s.publicBaseURL + "/" + escapeKey(key), nil
	case s.endpoint != "":
		return s.endpoint + "/" + escapeKey(s.bucket) + "/" + escapeKey(key), nil
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, escapeKey(key)), nil
	}
}
