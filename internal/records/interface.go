// Package records reads and rewrites the photo column of the users table.
package records

import (
	"context"
	"errors"

	"photomigrate/internal/models"
)

// ErrNotFound is returned when an update matches no row.
var ErrNotFound = errors.New("record not found")

// Store abstracts the users table backends.
type Store interface {
	// ListWithPhoto returns every user whose photo column is not NULL.
	ListWithPhoto(ctx context.Context) ([]models.UserPhoto, error)
	// UpdatePhoto sets the photo column of the user with the given id.
	UpdatePhoto(ctx context.Context, id, photo string) error
}

var (
	_ Store = (*RESTStore)(nil)
	_ Store = (*SQLStore)(nil)
)
