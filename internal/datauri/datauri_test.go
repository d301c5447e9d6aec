package datauri

import (
	"bytes"
	"errors"
	"testing"
)

func TestIsImage(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{value: "data:image/jpeg;base64,AAAA", want: true},
		{value: "data:image/png;base64,", want: true},
		{value: "data:text/plain;base64,AAAA", want: false},
		{value: "https://example.supabase.co/storage/v1/object/public/profile-images/u1-profile.jpg", want: false},
		{value: "", want: false},
		{value: " data:image/jpeg;base64,AAAA", want: false},
	}
	for _, tt := range tests {
		if got := IsImage(tt.value); got != tt.want {
			t.Fatalf("IsImage(%q) = %v, want %v", tt.value, got, tt.want)
		}
	}
}

func TestDecode(t *testing.T) {
	img, err := Decode("data:image/png;base64,aGVsbG8=")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !bytes.Equal(img.Data, []byte("hello")) {
		t.Fatalf("expected hello, got %q", img.Data)
	}
	if img.MediaType != "image/png" {
		t.Fatalf("expected image/png, got %q", img.MediaType)
	}
}

func TestDecodeJPEGHeader(t *testing.T) {
	img, err := Decode("data:image/jpeg;base64,/9j/4AAQ")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !bytes.Equal(img.Data[:3], []byte{0xff, 0xd8, 0xff}) {
		t.Fatalf("expected jpeg magic bytes, got %x", img.Data)
	}
}

func TestDecodeSplitsOnFirstComma(t *testing.T) {
	// A comma in the payload is not valid base64, so the whole remainder must be decoded.
	if _, err := Decode("data:image/png;base64,aGVs,bG8="); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected malformed error, got %v", err)
	}
}

func TestDecodeIgnoresWhitespace(t *testing.T) {
	img, err := Decode("data:image/png;base64,aGVs\nbG8=\r\n")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if string(img.Data) != "hello" {
		t.Fatalf("expected hello, got %q", img.Data)
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  error
	}{
		{name: "not an image", value: "https://example.com/x.jpg", want: ErrNotDataURI},
		{name: "missing comma", value: "data:image/png;base64aGVsbG8=", want: ErrMalformed},
		{name: "bad base64", value: "data:image/png;base64,!!!not-base64!!!", want: ErrMalformed},
		{name: "bad padding", value: "data:image/png;base64,aGVsbG8", want: ErrMalformed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.value)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestDecodeEmptyPayload(t *testing.T) {
	img, err := Decode("data:image/png;base64,")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(img.Data) != 0 {
		t.Fatalf("expected empty data, got %d bytes", len(img.Data))
	}
}
