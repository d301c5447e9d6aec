package migrate

import (
	"bytes"
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"photomigrate/internal/blobstore"
	"photomigrate/internal/records"
)

func seedUsersDB(t *testing.T, rows map[string]any) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "users.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer db.Close()
	if _, err := db.Exec(`CREATE TABLE users (id TEXT PRIMARY KEY, photo TEXT)`); err != nil {
		t.Fatalf("create table: %v", err)
	}
	for id, photo := range rows {
		if _, err := db.Exec(`INSERT INTO users (id, photo) VALUES (?, ?)`, id, photo); err != nil {
			t.Fatalf("insert %s: %v", id, err)
		}
	}
	return path
}

func TestRunEndToEndSQLiteAndLocalDir(t *testing.T) {
	jpeg := []byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10, 'J', 'F', 'I', 'F'}
	dbPath := seedUsersDB(t, map[string]any{
		"u1": dataURI(jpeg),
		"u2": nil,
	})

	rs, err := records.OpenSQLite(dbPath)
	if err != nil {
		t.Fatalf("open records: %v", err)
	}
	defer rs.Close()
	blobRoot := t.TempDir()
	bs, err := blobstore.NewLocalDir(blobRoot, "https://abc.supabase.co/storage/v1/object/public/profile-images")
	if err != nil {
		t.Fatalf("open blobs: %v", err)
	}

	ctx := context.Background()
	runner := NewRunner(rs, bs, Options{Logger: quietLogger()})
	summary, err := runner.Run(ctx)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	assertTally(t, summary)
	// u2 has a NULL photo and is filtered out by the fetch.
	if summary.Fetched != 1 || summary.Succeeded != 1 {
		t.Fatalf("unexpected summary %#v", summary)
	}

	stored, err := os.ReadFile(filepath.Join(blobRoot, "u1-profile.jpg"))
	if err != nil {
		t.Fatalf("read blob: %v", err)
	}
	if !bytes.Equal(stored, jpeg) {
		t.Fatalf("stored blob mismatch: %x", stored)
	}

	users, err := rs.ListWithPhoto(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := "https://abc.supabase.co/storage/v1/object/public/profile-images/u1-profile.jpg"
	if len(users) != 1 || users[0].ID != "u1" || users[0].PhotoValue() != want {
		t.Fatalf("expected u1 photo %q, got %#v", want, users)
	}

	// A second run sees a URL, not a data URI, and skips the record.
	again, err := runner.Run(ctx)
	if err != nil {
		t.Fatalf("rerun: %v", err)
	}
	assertTally(t, again)
	if again.Skipped != 1 || again.Succeeded != 0 {
		t.Fatalf("expected rerun to skip migrated record, got %#v", again)
	}
}
