package models

import "testing"

func TestProfileImageKey(t *testing.T) {
	if got := ProfileImageKey("u1"); got != "u1-profile.jpg" {
		t.Fatalf("expected u1-profile.jpg, got %q", got)
	}
	if got := ProfileImageKey(" u2"); got != " u2-profile.jpg" {
		t.Fatalf("expected id to be used as stored, got %q", got)
	}
}

func TestUserPhotoValue(t *testing.T) {
	if got := (UserPhoto{ID: "u1"}).PhotoValue(); got != "" {
		t.Fatalf("expected empty value for NULL photo, got %q", got)
	}
	photo := "https://example.com/a.jpg"
	if got := (UserPhoto{ID: "u1", Photo: &photo}).PhotoValue(); got != photo {
		t.Fatalf("expected %q, got %q", photo, got)
	}
}
