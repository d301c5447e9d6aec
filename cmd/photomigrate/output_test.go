package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"photomigrate/internal/config"
	"photomigrate/internal/migrate"
)

func TestSummaryLines(t *testing.T) {
	summary := migrate.Summary{
		Fetched:   4,
		Succeeded: 1,
		Skipped:   1,
		Failed:    1,
		Orphaned:  []string{"u3-profile.jpg"},
		Results: []migrate.Result{
			{RecordID: "u1", Outcome: migrate.OutcomeSucceeded},
			{RecordID: "u2", Outcome: migrate.OutcomeSkipped},
			{RecordID: "u3", Outcome: migrate.OutcomeFailed, Stage: migrate.StagePersist, Reason: "db down", Err: errors.New("db down")},
		},
	}

	var buf bytes.Buffer
	if err := writeSummary(&buf, "text", summary); err != nil {
		t.Fatalf("write summary: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"fetched: 4\n",
		"failed: 1\n",
		"not processed: 1\n",
		"  - u3 [persist]: db down\n",
		"orphaned blobs:\n  - u3-profile.jpg\n",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output %q", want, out)
		}
	}
	if strings.Contains(out, "planned:") {
		t.Fatalf("planned should only show for dry runs, got %q", out)
	}
}

func TestPublicBaseURL(t *testing.T) {
	cfg := config.Default()
	if got := publicBaseURL(&cfg); got != "" {
		t.Fatalf("expected empty base without supabase url, got %q", got)
	}

	cfg.Supabase.URL = "https://abc.supabase.co/"
	want := "https://abc.supabase.co/storage/v1/object/public/profile-images"
	if got := publicBaseURL(&cfg); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}

	cfg.Blobs.PublicBaseURL = "https://cdn.example.com/avatars"
	if got := publicBaseURL(&cfg); got != "https://cdn.example.com/avatars" {
		t.Fatalf("expected configured base to win, got %q", got)
	}
}
