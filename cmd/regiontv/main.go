package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/voyagen/regiontv/internal/cache"
	"github.com/voyagen/regiontv/internal/config"
	"github.com/voyagen/regiontv/internal/fetcher"
	"github.com/voyagen/regiontv/internal/logging"
	"github.com/voyagen/regiontv/internal/models"
	"github.com/voyagen/regiontv/internal/player"
	"github.com/voyagen/regiontv/internal/server"
	"github.com/voyagen/regiontv/internal/service"
	"github.com/voyagen/regiontv/internal/store"
)

func main() {
	args := os.Args[1:]
	cmd := "serve"
	if len(args) > 0 && (args[0] == "serve" || args[0] == "list") {
		cmd, args = args[0], args[1:]
	}

	var err error
	switch cmd {
	case "list":
		err = runList(args, os.Stdout)
	default:
		err = runServe(args)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", cmd, err)
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "", "Optional config file path (YAML); else use environment")
	_ = fs.Parse(args)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	appStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer appStore.Close()

	// Connect to Redis if REDIS_URL is configured.
	var rds *cache.Redis
	if cfg.RedisURL != "" {
		rds, err = cache.New(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		defer rds.Close()
		if err := rds.Ping(ctx); err != nil {
			return fmt.Errorf("redis ping: %w", err)
		}
		cached := store.NewCachedStore(appStore, rds, logging.Component(log, "cache"))
		if err := cached.Purge(ctx); err != nil {
			log.Warn().Err(err).Msg("purge favorites cache")
		}
		appStore = cached
		log.Info().Msg("redis connected (favorites cache, reload queue and refresh lock enabled)")
	} else {
		log.Info().Msg("redis disabled (REDIS_URL not set)")
	}

	client := fetcher.NewClient(cfg.UserAgent, cfg.Timeout, cfg.RateLimit)
	loader := service.NewLoader(client, cfg.BaseURL, logging.Component(log, "loader"))
	catalog, err := service.NewCatalog()
	if err != nil {
		return err
	}

	if cfg.RefreshCron != "" {
		var locker service.Locker
		if rds != nil {
			locker = rds
		}
		refresher, err := service.NewRefresher(ctx, cfg.RefreshCron, loader, catalog, locker,
			[]models.Region{cfg.DefaultRegion}, logging.Component(log, "refresher"))
		if err != nil {
			return err
		}
		refresher.Start()
		defer refresher.Stop()
	}

	if rds != nil {
		go runReloadWorker(ctx, rds, loader, catalog, logging.Component(log, "worker"))
	}

	// Warm the default region so the first page view is served from memory.
	go func() {
		res, _ := service.Ingest(ctx, loader, catalog, cfg.DefaultRegion)
		if !res.OK() {
			log.Warn().Str("region", string(cfg.DefaultRegion)).Msg(res.Err.Message())
		}
	}()

	srv := server.New(server.Deps{
		Config:  cfg,
		Loader:  loader,
		Catalog: catalog,
		Store:   appStore,
		Prober:  player.NewProber(client, logging.Component(log, "probe")),
		Queue:   rds,
		Log:     logging.Component(log, "http"),
	})
	if err := srv.ListenAndServe(ctx); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}

// openStore uses Postgres when DATABASE_URL is set, running migrations first,
// and a local SQLite file otherwise.
func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (store.Store, error) {
	if cfg.DatabaseURL == "" {
		sq, err := store.NewSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("sqlite: %w", err)
		}
		log.Info().Str("path", cfg.SQLitePath).Msg("favorites stored in sqlite")
		return sq, nil
	}

	if err := store.EnsureSchemaAccess(cfg.DatabaseURL); err != nil {
		return nil, fmt.Errorf("db: %w", err)
	}
	if err := store.RunMigrations(cfg.DatabaseURL, "file://"+migrationsDir()); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	pg, err := store.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("db: %w", err)
	}
	log.Info().Msg("favorites stored in postgres")
	return pg, nil
}

// migrationsDir finds ./migrations, or migrations next to the executable.
func migrationsDir() string {
	abs, err := filepath.Abs("migrations")
	if err != nil {
		abs = "migrations"
	}
	if _, err := os.Stat(abs); err != nil {
		if exe, e := os.Executable(); e == nil {
			abs = filepath.Join(filepath.Dir(exe), "migrations")
		}
	}
	return abs
}

// runReloadWorker dequeues reload jobs from Redis and runs them. It stops
// when ctx is cancelled.
func runReloadWorker(ctx context.Context, rds *cache.Redis, l *service.Loader, c *service.Catalog, log zerolog.Logger) {
	log.Info().Msg("reload worker started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("reload worker stopping")
			return
		default:
		}

		job, err := cache.Dequeue(ctx, rds, cache.DefaultQueue, 5*time.Second)
		if err != nil {
			log.Error().Err(err).Msg("dequeue")
			time.Sleep(2 * time.Second)
			continue
		}
		if job == nil {
			continue // timeout, loop back to check ctx
		}

		region, err := models.ParseRegion(job.Region)
		if err != nil {
			log.Warn().Err(err).Msg("dropping reload job")
			continue
		}
		res, applied := service.Ingest(ctx, l, c, region)
		log.Info().
			Str("region", string(region)).
			Stringer("status", res.Status).
			Int("channels", len(res.Channels)).
			Bool("applied", applied).
			Dur("queued_for", time.Since(job.RequestedAt)).
			Msg("reload job done")
	}
}

// runList loads one region and prints its grouped view.
func runList(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	configPath := fs.String("config", "", "Optional config file path (YAML); else use environment")
	regionName := fs.String("region", "", "Region to load (default: configured default region)")
	query := fs.String("q", "", "Filter by channel name or now-playing title")
	_ = fs.Parse(args)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat)

	region := cfg.DefaultRegion
	if *regionName != "" {
		if region, err = models.ParseRegion(*regionName); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := fetcher.NewClient(cfg.UserAgent, cfg.Timeout, cfg.RateLimit)
	loader := service.NewLoader(client, cfg.BaseURL, logging.Component(log, "loader"))
	res := loader.Load(ctx, region)
	if !res.OK() {
		return fmt.Errorf("%s (%w)", res.Err.Message(), res.Err)
	}
	printView(out, region, res.Source, service.BuildView(res.Channels, *query))
	return nil
}

func printView(w io.Writer, region models.Region, source models.SourceType, v service.View) {
	fmt.Fprintf(w, "%s: %d channels (%s)\n", region, v.Total, source)
	for _, g := range v.Groups {
		fmt.Fprintf(w, "\n%s (%d)\n", g.Title, g.Count)
		for _, ch := range g.Channels {
			line := "  " + ch.Name
			if now := ch.NowPlayingLabel(); now != "" {
				line += "  | " + now
			}
			if ch.UpNext != nil {
				line += "  > " + *ch.UpNext
			}
			fmt.Fprintln(w, line)
		}
	}
}
