// Package migrate moves inline base64 profile photos out of the users table and
// into object storage, one record at a time.
//
// Each record is handled independently: a failure is recorded in that record's
// Result and the batch continues. Only the initial fetch can end a run early.
package migrate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"photomigrate/internal/blobstore"
	"photomigrate/internal/datauri"
	"photomigrate/internal/models"
	"photomigrate/internal/records"
)

// DefaultCacheControl matches the max-age the app uses for profile uploads.
const DefaultCacheControl = "3600"

// ErrFetch wraps a failure to read the initial set of users. No record is touched.
var ErrFetch = errors.New("fetch users with photos")

// Options configures a Runner.
type Options struct {
	// DryRun decodes and resolves URLs but writes nothing.
	DryRun       bool
	CacheControl string
	Logger       *slog.Logger
}

// Runner performs one pass over every user with a photo.
type Runner struct {
	records      records.Store
	blobs        blobstore.BlobStore
	logger       *slog.Logger
	dryRun       bool
	cacheControl string
}

// NewRunner wires a runner to its record and blob stores.
func NewRunner(rs records.Store, bs blobstore.BlobStore, opts Options) *Runner {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cacheControl := strings.TrimSpace(opts.CacheControl)
	if cacheControl == "" {
		cacheControl = DefaultCacheControl
	}
	return &Runner{
		records:      rs,
		blobs:        bs,
		logger:       logger.With("component", "migrate"),
		dryRun:       opts.DryRun,
		cacheControl: cacheControl,
	}
}

// Run fetches all users with a non-null photo and migrates each one.
//
// A fetch failure returns an error and an empty Summary. Once records are fetched
// every one is attempted; per-record failures are reported in the Summary only.
// If ctx is cancelled between records the partial Summary is returned with an error.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	users, err := r.records.ListWithPhoto(ctx)
	if err != nil {
		r.logger.Error("fetch users with photos failed", "err", err)
		return Summary{}, fmt.Errorf("%w: %w", ErrFetch, err)
	}

	summary := Summary{
		Fetched: len(users),
		DryRun:  r.dryRun,
		Results: make([]Result, 0, len(users)),
	}
	r.logger.Info("found users with photos", "count", len(users), "dry_run", r.dryRun)

	for i, user := range users {
		if err := ctx.Err(); err != nil {
			r.logger.Warn("migration interrupted", "processed", i, "remaining", len(users)-i, "err", err)
			return summary, fmt.Errorf("migration interrupted after %d of %d records: %w", i, len(users), err)
		}
		summary.add(r.MigrateRecord(ctx, user))
	}

	r.logger.Info("conversion complete",
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
		"skipped", summary.Skipped,
		"planned", summary.Planned,
	)
	if len(summary.Orphaned) > 0 {
		r.logger.Warn("uploaded blobs without a matching record update", "keys", summary.Orphaned)
	}
	return summary, nil
}

// MigrateRecord runs one record through eligibility, decode, upload, URL
// resolution and persist. It never returns an error; the outcome is in the Result.
func (r *Runner) MigrateRecord(ctx context.Context, user models.UserPhoto) (res Result) {
	res = Result{RecordID: user.ID, Stage: StageEligibility}
	log := r.logger.With("record_id", user.ID)

	defer func() {
		if p := recover(); p != nil {
			res = r.fail(log, res, fmt.Errorf("panic: %v", p))
		}
	}()

	photo := user.PhotoValue()
	if photo == "" || !datauri.IsImage(photo) {
		res.Outcome = OutcomeSkipped
		res.Reason = "no valid base64 image"
		log.Info("skipping user", "reason", res.Reason)
		return res
	}
	if user.ID == "" {
		return r.fail(log, res, fmt.Errorf("record has no id"))
	}

	log.Info("processing user")

	res.Stage = StageDecode
	img, err := datauri.Decode(photo)
	if err != nil {
		return r.fail(log, res, err)
	}
	if img.MediaType != "" && img.MediaType != models.ProfileImageType {
		log.Debug("storing non-jpeg payload as jpeg", "declared_type", img.MediaType)
	}

	key := models.ProfileImageKey(user.ID)
	res.BlobKey = key
	res.SizeBytes = int64(len(img.Data))

	if !r.dryRun {
		res.Stage = StageUpload
		put, err := r.blobs.Put(ctx, key, bytes.NewReader(img.Data), blobstore.PutOptions{
			ContentType:  models.ProfileImageType,
			CacheControl: r.cacheControl,
			Upsert:       true,
		})
		if err != nil {
			return r.fail(log, res, err)
		}
		res.Uploaded = true
		res.SizeBytes = put.SizeBytes
		res.SHA256 = put.SHA256
		log.Debug("uploaded profile image", "key", key, "bytes", put.SizeBytes, "sha256", put.SHA256)
	}

	res.Stage = StageResolveURL
	publicURL, err := r.blobs.PublicURL(key)
	if err != nil {
		return r.fail(log, res, err)
	}
	res.URL = publicURL

	if r.dryRun {
		res.Outcome = OutcomePlanned
		log.Info("would migrate user", "key", key, "url", publicURL, "bytes", res.SizeBytes)
		return res
	}

	res.Stage = StagePersist
	if err := r.records.UpdatePhoto(ctx, user.ID, publicURL); err != nil {
		return r.fail(log, res, err)
	}

	res.Outcome = OutcomeSucceeded
	log.Info("successfully processed user", "url", publicURL, "sha256", res.SHA256)
	return res
}

func (r *Runner) fail(log *slog.Logger, res Result, err error) Result {
	res.Outcome = OutcomeFailed
	res.Err = err
	res.Reason = err.Error()
	log.Error("error processing user", "stage", res.Stage, "err", err)
	if res.Uploaded {
		log.Warn("blob uploaded but photo not updated", "key", res.BlobKey)
	}
	return res
}
