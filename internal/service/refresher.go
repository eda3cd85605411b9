package service

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/voyagen/regiontv/internal/models"
)

// Locker guards a scheduled refresh across instances. ok is false when
// another holder has the lock. *cache.Redis implements it.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (unlock func(), ok bool, err error)
}

// RefreshLockKey is held while a scheduled refresh runs.
const RefreshLockKey = "regiontv:lock:refresh"

const refreshLockTTL = 5 * time.Minute

// Refresher reloads regions on a cron schedule. Each run reloads the default
// region plus every region that has been loaded before.
type Refresher struct {
	loader   *Loader
	catalog  *Catalog
	locker   Locker // optional
	defaults []models.Region
	log      zerolog.Logger
	cron     *cron.Cron
}

// NewRefresher validates spec (standard 5-field cron) and schedules RefreshAll.
// locker may be nil.
func NewRefresher(ctx context.Context, spec string, l *Loader, c *Catalog, locker Locker, defaults []models.Region, log zerolog.Logger) (*Refresher, error) {
	r := &Refresher{
		loader:   l,
		catalog:  c,
		locker:   locker,
		defaults: defaults,
		log:      log,
		cron:     cron.New(),
	}
	if _, err := r.cron.AddFunc(spec, func() { r.RefreshAll(ctx) }); err != nil {
		return nil, fmt.Errorf("refresh schedule %q: %w", spec, err)
	}
	return r, nil
}

// Start runs the schedule in the background.
func (r *Refresher) Start() {
	r.cron.Start()
	r.log.Info().Msg("scheduled refresh started")
}

// Stop stops the schedule and waits for a running refresh to finish.
func (r *Refresher) Stop() {
	<-r.cron.Stop().Done()
}

// RefreshAll reloads the tracked regions one after another. When a locker is
// configured and another instance holds the lock, the run is skipped.
func (r *Refresher) RefreshAll(ctx context.Context) {
	if r.locker != nil {
		unlock, ok, err := r.locker.Acquire(ctx, RefreshLockKey, refreshLockTTL)
		if err != nil {
			r.log.Warn().Err(err).Msg("refresh lock")
			return
		}
		if !ok {
			r.log.Debug().Msg("refresh skipped, another instance holds the lock")
			return
		}
		defer unlock()
	}
	for _, region := range r.regions() {
		if ctx.Err() != nil {
			return
		}
		res, applied := Ingest(ctx, r.loader, r.catalog, region)
		r.log.Debug().Str("region", string(region)).Stringer("status", res.Status).Bool("applied", applied).Msg("scheduled refresh")
	}
}

func (r *Refresher) regions() []models.Region {
	seen := make(map[models.Region]bool)
	var out []models.Region
	for _, list := range [][]models.Region{r.defaults, r.catalog.Regions()} {
		for _, region := range list {
			if !seen[region] {
				seen[region] = true
				out = append(out, region)
			}
		}
	}
	return out
}
