package records

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"photomigrate/internal/models"
	"photomigrate/internal/supabase"
)

// DefaultPageSize matches the default max-rows limit of a hosted PostgREST.
const DefaultPageSize = 1000

// RESTStore talks to the users table through PostgREST.
type RESTStore struct {
	client   *supabase.Client
	pageSize int
}

// NewRESTStore creates a PostgREST-backed store. A non-positive pageSize selects DefaultPageSize.
func NewRESTStore(client *supabase.Client, pageSize int) *RESTStore {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &RESTStore{client: client, pageSize: pageSize}
}

// restRow keeps id raw so uuid, text and integer keys all decode.
type restRow struct {
	ID    json.RawMessage `json:"id"`
	Photo *string         `json:"photo"`
}

func (r restRow) toModel() (models.UserPhoto, error) {
	id, err := rawID(r.ID)
	if err != nil {
		return models.UserPhoto{}, err
	}
	return models.UserPhoto{ID: id, Photo: r.Photo}, nil
}

// ListWithPhoto pages through users where photo is not null, ordered by id.
func (s *RESTStore) ListWithPhoto(ctx context.Context) ([]models.UserPhoto, error) {
	path := supabase.RESTPath + "/" + models.UsersTable
	var out []models.UserPhoto
	for offset := 0; ; offset += s.pageSize {
		query := url.Values{}
		query.Set("select", models.UserIDColumn+","+models.UserPhotoColumn)
		query.Set(models.UserPhotoColumn, "not.is.null")
		query.Set("order", models.UserIDColumn+".asc")
		query.Set("limit", strconv.Itoa(s.pageSize))
		query.Set("offset", strconv.Itoa(offset))

		var rows []restRow
		if err := s.client.DoJSON(ctx, http.MethodGet, path, query, nil, nil, &rows); err != nil {
			return nil, fmt.Errorf("list %s: %w", models.UsersTable, err)
		}
		for _, row := range rows {
			user, err := row.toModel()
			if err != nil {
				return nil, fmt.Errorf("list %s: %w", models.UsersTable, err)
			}
			out = append(out, user)
		}
		if len(rows) < s.pageSize {
			return out, nil
		}
	}
}

// UpdatePhoto patches one row and asks for it back, so a missing id is detected.
func (s *RESTStore) UpdatePhoto(ctx context.Context, id, photo string) error {
	if id == "" {
		return fmt.Errorf("id is required")
	}
	query := url.Values{}
	query.Set(models.UserIDColumn, "eq."+id)
	query.Set("select", models.UserIDColumn)

	header := http.Header{}
	header.Set("Prefer", "return=representation")

	var rows []restRow
	body := map[string]string{models.UserPhotoColumn: photo}
	if err := s.client.DoJSON(ctx, http.MethodPatch, supabase.RESTPath+"/"+models.UsersTable, query, header, body, &rows); err != nil {
		return fmt.Errorf("update %s %s: %w", models.UsersTable, id, err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("update %s %s: %w", models.UsersTable, id, ErrNotFound)
	}
	return nil
}

func rawID(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", fmt.Errorf("row has no id")
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", fmt.Errorf("decode id: %w", err)
		}
		return s, nil
	}
	return string(raw), nil
}
