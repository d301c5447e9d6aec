package main

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/lib/pq"

	"photomigrate/internal/supabase"
)

func formatCLIError(err error) []string {
	if err == nil {
		return nil
	}

	lines := []string{err.Error()}

	if strings.HasPrefix(err.Error(), "invalid configuration") {
		lines = append(lines,
			"hint: set values with: photomigrate config set --global <key> <value>",
			"hint: or export SUPABASE_URL and SUPABASE_SERVICE_ROLE_KEY.",
		)
		return uniqueLines(lines)
	}

	var apiErr *supabase.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Status == 401 || apiErr.Status == 403:
			lines = append(lines, "hint: verify SUPABASE_SERVICE_ROLE_KEY is the service role key, not the anon key.")
		case apiErr.Code == "42P01" || apiErr.Code == "PGRST205":
			lines = append(lines, "hint: the users table was not found; check the project behind SUPABASE_URL.")
		case apiErr.Status == 404 && apiErr.Code == "":
			lines = append(lines, "hint: verify SUPABASE_URL points to a Supabase project.")
		}
		if apiErr.Status >= 500 {
			lines = append(lines, "hint: Supabase returned an internal error; check the project logs for details.")
		}
		return uniqueLines(lines)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "28P01", "28000":
			lines = append(lines, "hint: postgres rejected the credentials in records.postgres_dsn.")
		case "3D000":
			lines = append(lines, "hint: the database named in records.postgres_dsn does not exist.")
		case "42P01":
			lines = append(lines, "hint: the users table was not found; check the schema search_path in records.postgres_dsn.")
		}
		return uniqueLines(lines)
	}

	if errors.Is(err, context.Canceled) {
		lines = append(lines, "hint: run interrupted; rerun to continue, already migrated records are skipped.")
		return uniqueLines(lines)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		lines = append(lines, "hint: request timed out; increase PHOTOMIGRATE_HTTP_TIMEOUT for slower environments.")
		return uniqueLines(lines)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		lines = append(lines,
			"hint: verify SUPABASE_URL is reachable from this machine.",
			"hint: you can increase PHOTOMIGRATE_HTTP_TIMEOUT for slower environments.",
		)
		return uniqueLines(lines)
	}

	return uniqueLines(lines)
}

func uniqueLines(lines []string) []string {
	seen := make(map[string]struct{}, len(lines))
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if line == "" {
			continue
		}
		if _, ok := seen[line]; ok {
			continue
		}
		seen[line] = struct{}{}
		out = append(out, line)
	}
	return out
}
