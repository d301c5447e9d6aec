package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"photomigrate/internal/config"
	"photomigrate/internal/format"
	"photomigrate/internal/migrate"
)

func newRunCmd(cfg *config.Config, opts *rootOptions) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Migrate every user photo that is still an inline data URI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := format.ForName(opts.output); err != nil {
				return err
			}

			ctx := cmd.Context()
			b, err := openBackends(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() {
				if err := b.Close(); err != nil {
					slog.Warn("close backends", "err", err)
				}
			}()

			runner := migrate.NewRunner(b.records, b.blobs, migrate.Options{
				DryRun:       dryRun,
				CacheControl: cfg.Blobs.CacheControl,
				Logger:       slog.Default().With("dry_run", dryRun),
			})
			summary, runErr := runner.Run(ctx)
			if isFetchFailure(runErr) {
				// Nothing was processed; report it and end the run normally.
				for _, line := range formatCLIError(runErr) {
					fmt.Fprintln(cmd.ErrOrStderr(), line)
				}
				return nil
			}
			if runErr != nil && summary.Fetched == 0 {
				return runErr
			}

			if err := writeSummary(cmd.OutOrStdout(), opts.output, summary); err != nil {
				return fmt.Errorf("write summary: %w", err)
			}
			return runErr
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "decode and resolve URLs without uploading or updating records")
	return cmd
}

// isFetchFailure reports a failed initial read. A read cut short by an
// interrupt stays an error.
func isFetchFailure(err error) bool {
	return errors.Is(err, migrate.ErrFetch) && !errors.Is(err, context.Canceled)
}
