package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/voyagen/regiontv/internal/models"
)

// Postgres implements Store using PostgreSQL.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres creates a Postgres store from a DSN. Caller must call Close when done.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// Close closes the connection pool.
func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

// ListFavorites returns favorites for region, oldest first.
func (p *Postgres) ListFavorites(ctx context.Context, region models.Region) ([]models.Favorite, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT url, created_at FROM favorites WHERE region = $1 ORDER BY created_at, url`,
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
			created time.Time
		)
		if err := rows.Scan(&url, &created); err != nil {
			return nil, fmt.Errorf("ListFavorites scan: %w", err)
		}
		favs = append(favs, models.Favorite{Region: region, URL: url, CreatedAt: &created})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListFavorites: %w", err)
	}
	return favs, nil
}

// SetFavorite inserts or deletes the (region, url) row.
func (p *Postgres) SetFavorite(ctx context.Context, region models.Region, url string, favorite bool) error {
	if err := validate(region, url); err != nil {
		return err
	}
	var err error
	if favorite {
		_, err = p.pool.Exec(ctx,
			`INSERT INTO favorites (region, url) VALUES ($1, $2) ON CONFLICT (region, url) DO NOTHING`,
			string(region), url,
		)
	} else {
		_, err = p.pool.Exec(ctx, `DELETE FROM favorites WHERE region = $1 AND url = $2`, string(region), url)
	}
	if err != nil {
		return fmt.Errorf("SetFavorite: %w", err)
	}
	return nil
}
