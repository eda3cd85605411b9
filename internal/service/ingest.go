package service

import (
	"context"

	"github.com/voyagen/regiontv/internal/models"
)

// Ingest loads region and publishes the result to the catalog. The list is
// cleared while loading. applied is false when a newer load for the same
// region finished first and this result was dropped.
func Ingest(ctx context.Context, l *Loader, c *Catalog, region models.Region) (res Result, applied bool) {
	gen := l.NextGeneration()
	c.Begin(region, gen)
	res = l.LoadGeneration(ctx, region, gen)
	return res, c.Apply(res)
}

// EnsureLoaded returns the region's snapshot, running a load first when the
// region has never been loaded.
func EnsureLoaded(ctx context.Context, l *Loader, c *Catalog, region models.Region) Snapshot {
	if snap, ok := c.Get(region); ok {
		return snap
	}
	Ingest(ctx, l, c, region)
	snap, _ := c.Get(region)
	return snap
}
