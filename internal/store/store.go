package store

import (
	"context"
	"errors"

	"github.com/voyagen/regiontv/internal/models"
)

// ErrInvalidFavorite is returned for an empty region or stream URL.
var ErrInvalidFavorite = errors.New("favorite needs a region and a stream url")

// Store persists favorite stream URLs per region across sessions.
type Store interface {
	// ListFavorites returns the region's favorites, oldest first.
	ListFavorites(ctx context.Context, region models.Region) ([]models.Favorite, error)
	// SetFavorite adds (favorite=true) or removes url for region. Both directions are idempotent.
	SetFavorite(ctx context.Context, region models.Region, url string, favorite bool) error
	// Close releases the underlying connections.
	Close() error
}

// FavoriteURLs turns a favorites list into a lookup set.
func FavoriteURLs(favs []models.Favorite) map[string]bool {
	set := make(map[string]bool, len(favs))
	for _, f := range favs {
		set[f.URL] = true
	}
	return set
}

func validate(region models.Region, url string) error {
	if region == "" || url == "" {
		return ErrInvalidFavorite
	}
	return nil
}
