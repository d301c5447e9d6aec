// Package datauri decodes the inline base64 images stored in the users.photo column.
package datauri

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// ImagePrefix marks a photo value that still holds inline image bytes.
const ImagePrefix = "data:image"

var (
	ErrNotDataURI = errors.New("value is not an inline image")
	ErrMalformed  = errors.New("malformed data uri")
)

// Image is a decoded inline image.
type Image struct {
	// MediaType is the declared type from the header, e.g. "image/png". It may be empty.
	MediaType string
	Data      []byte
}

// IsImage reports whether value begins with the data:image prefix.
func IsImage(value string) bool {
	return strings.HasPrefix(value, ImagePrefix)
}

// Decode splits value on its first comma and base64-decodes everything after it.
func Decode(value string) (Image, error) {
	if !IsImage(value) {
		return Image{}, ErrNotDataURI
	}
	header, payload, ok := strings.Cut(value, ",")
	if !ok {
		return Image{}, fmt.Errorf("%w: missing payload separator", ErrMalformed)
	}

	payload = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, payload)

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return Image{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return Image{MediaType: mediaType(header), Data: data}, nil
}

func mediaType(header string) string {
	header = strings.TrimPrefix(header, "data:")
	mt, _, _ := strings.Cut(header, ";")
	return strings.ToLower(strings.TrimSpace(mt))
}
