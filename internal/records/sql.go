package records

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"photomigrate/internal/models"
)

const (
	busyTimeoutMS   = 5000
	maxOpenConns    = 1
	maxIdleConns    = 1
	connMaxLifetime = 5 * time.Minute
)

// Dialect selects placeholder and cast syntax for one SQL driver.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

// SQLStore reads and updates the users table over database/sql.
type SQLStore struct {
	db          *sql.DB
	listQuery   string
	updateQuery string
}

// NewSQLStore wraps an open database.
func NewSQLStore(db *sql.DB, dialect Dialect) (*SQLStore, error) {
	if db == nil {
		return nil, fmt.Errorf("db is required")
	}
	s := &SQLStore{db: db}
	switch dialect {
	case DialectPostgres:
		s.listQuery = fmt.Sprintf("SELECT %s::text, %s FROM %s WHERE %s IS NOT NULL ORDER BY %s",
			models.UserIDColumn, models.UserPhotoColumn, models.UsersTable, models.UserPhotoColumn, models.UserIDColumn)
		s.updateQuery = fmt.Sprintf("UPDATE %s SET %s = $1 WHERE %s = $2",
			models.UsersTable, models.UserPhotoColumn, models.UserIDColumn)
	case DialectSQLite:
		s.listQuery = fmt.Sprintf("SELECT CAST(%s AS TEXT), %s FROM %s WHERE %s IS NOT NULL ORDER BY rowid",
			models.UserIDColumn, models.UserPhotoColumn, models.UsersTable, models.UserPhotoColumn)
		s.updateQuery = fmt.Sprintf("UPDATE %s SET %s = ? WHERE %s = ?",
			models.UsersTable, models.UserPhotoColumn, models.UserIDColumn)
	default:
		return nil, fmt.Errorf("unsupported sql dialect %q", dialect)
	}
	return s, nil
}

// OpenPostgres connects to the database behind the hosted table with lib/pq.
func OpenPostgres(ctx context.Context, dsn string) (*SQLStore, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("postgres dsn is required")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return NewSQLStore(db, DialectPostgres)
}

// OpenSQLite opens an existing SQLite copy of the users table.
func OpenSQLite(path string) (*SQLStore, error) {
	dsn, err := sqliteDSN(path)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := configureSQLite(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return NewSQLStore(db, DialectSQLite)
}

// Close closes the underlying database connection.
func (s *SQLStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// ListWithPhoto returns users whose photo is not NULL.
func (s *SQLStore) ListWithPhoto(ctx context.Context) ([]models.UserPhoto, error) {
	rows, err := s.db.QueryContext(ctx, s.listQuery)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", models.UsersTable, err)
	}
	defer rows.Close()

	var out []models.UserPhoto
	for rows.Next() {
		var id string
		var photo sql.NullString
		if err := rows.Scan(&id, &photo); err != nil {
			return nil, fmt.Errorf("scan %s: %w", models.UsersTable, err)
		}
		user := models.UserPhoto{ID: id}
		if photo.Valid {
			value := photo.String
			user.Photo = &value
		}
		out = append(out, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list %s: %w", models.UsersTable, err)
	}
	return out, nil
}

// UpdatePhoto sets photo for one id. Zero affected rows is ErrNotFound.
func (s *SQLStore) UpdatePhoto(ctx context.Context, id, photo string) error {
	if id == "" {
		return fmt.Errorf("id is required")
	}
	res, err := s.db.ExecContext(ctx, s.updateQuery, photo, id)
	if err != nil {
		return fmt.Errorf("update %s %s: %w", models.UsersTable, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update %s %s: %w", models.UsersTable, id, err)
	}
	if n == 0 {
		return fmt.Errorf("update %s %s: %w", models.UsersTable, id, ErrNotFound)
	}
	return nil
}

func configureSQLite(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA synchronous = NORMAL;",
		fmt.Sprintf("PRAGMA busy_timeout = %d;", busyTimeoutMS),
	}
	for _, stmt := range pragmas {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}

	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)

	return nil
}

func sqliteDSN(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("sqlite path is required")
	}
	u := url.URL{Scheme: "file", Path: path}
	return u.String(), nil
}
