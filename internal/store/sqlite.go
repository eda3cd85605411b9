package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/voyagen/regiontv/internal/models"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS favorites (
	region     TEXT    NOT NULL,
	url        TEXT    NOT NULL,
	created_at INTEGER NOT NULL,
	PRIMARY KEY (region, url)
);`

// SQLite implements Store in a local database file. It is the default when
// no DATABASE_URL is configured.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (creating if needed) the database at path.
func NewSQLite(ctx context.Context, path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer; avoids SQLITE_BUSY between pooled connections.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// ListFavorites returns favorites for region, oldest first.
func (s *SQLite) ListFavorites(ctx context.Context, region models.Region) ([]models.Favorite, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT url, created_at FROM favorites WHERE region = ? ORDER BY created_at, url`,
		string(region),
	)
	if err != nil {
		return nil, fmt.Errorf("ListFavorites: %w", err)
	}
	defer rows.Close()

	var favs []models.Favorite
	for rows.Next() {
		var (
			url     string
			created int64
		)
		if err := rows.Scan(&url, &created); err != nil {
			return nil, fmt.Errorf("ListFavorites scan: %w", err)
		}
		t := time.Unix(created, 0).UTC()
		favs = append(favs, models.Favorite{Region: region, URL: url, CreatedAt: &t})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListFavorites: %w", err)
	}
	return favs, nil
}

// SetFavorite inserts or deletes the (region, url) row.
func (s *SQLite) SetFavorite(ctx context.Context, region models.Region, url string, favorite bool) error {
	if err := validate(region, url); err != nil {
		return err
	}
	var err error
	if favorite {
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO favorites (region, url, created_at) VALUES (?, ?, ?) ON CONFLICT (region, url) DO NOTHING`,
			string(region), url, time.Now().Unix(),
		)
	} else {
		_, err = s.db.ExecContext(ctx, `DELETE FROM favorites WHERE region = ? AND url = ?`, string(region), url)
	}
	if err != nil {
		return fmt.Errorf("SetFavorite: %w", err)
	}
	return nil
}
