package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/voyagen/regiontv/internal/cache"
	"github.com/voyagen/regiontv/internal/config"
	"github.com/voyagen/regiontv/internal/models"
	"github.com/voyagen/regiontv/internal/player"
	"github.com/voyagen/regiontv/internal/service"
	"github.com/voyagen/regiontv/internal/store"
)

// Prober checks a stream manifest; satisfied by *player.Prober.
type Prober interface {
	Probe(ctx context.Context, streamURL string) (*player.Report, error)
}

// Deps are the collaborators the HTTP API needs. Queue may be nil when Redis
// is not configured; async reloads are then unavailable.
type Deps struct {
	Config  *config.Config
	Loader  *service.Loader
	Catalog *service.Catalog
	Store   store.Store
	Prober  Prober
	Queue   *cache.Redis
	Log     zerolog.Logger
}

// Server holds dependencies for the HTTP API.
type Server struct {
	cfg     *config.Config
	loader  *service.Loader
	catalog *service.Catalog
	store   store.Store
	prober  Prober
	queue   *cache.Redis
	log     zerolog.Logger
	mux     *http.ServeMux
}

// New creates a Server and registers routes.
func New(d Deps) *Server {
	srv := &Server{
		cfg:     d.Config,
		loader:  d.Loader,
		catalog: d.Catalog,
		store:   d.Store,
		prober:  d.Prober,
		queue:   d.Queue,
		log:     d.Log,
		mux:     http.NewServeMux(),
	}
	srv.routes()
	return srv
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /api/health", s.handleHealth)

	// Regions
	s.mux.HandleFunc("GET /api/regions", s.handleListRegions)
	s.mux.HandleFunc("GET /api/regions/{region}/channels", s.handleListChannels)
	s.mux.HandleFunc("POST /api/regions/{region}/reload", s.handleReload)

	// Favorites
	s.mux.HandleFunc("GET /api/regions/{region}/favorites", s.handleListFavorites)
	s.mux.HandleFunc("PUT /api/regions/{region}/favorites", s.handleSetFavorite)

	s.mux.HandleFunc("GET /api/probe", s.handleProbe)
	s.mux.Handle("GET /metrics", promhttp.Handler())

	// Docs
	s.mux.HandleFunc("GET /api/docs", handleSwaggerUI)
	s.mux.HandleFunc("GET /api/docs/openapi.yaml", handleOpenAPISpec)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Handler returns the server wrapped in the CORS and logging middleware.
func (s *Server) Handler() http.Handler {
	return withCORS(withLogging(s.log, s))
}

// ListenAndServe starts the HTTP server on the configured port.
// It blocks until the server is shut down or ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := ":" + s.cfg.ServerPort
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			s.log.Error().Err(err).Msg("server shutdown")
		}
	}()

	s.log.Info().Str("addr", addr).Msg("listening")
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("ListenAndServe: %w", err)
	}
	return nil
}

// --- handlers ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{"status": "ok"}
	if s.queue != nil {
		resp["refresh_running"] = cache.IsLocked(r.Context(), s.queue, service.RefreshLockKey)
	}
	s.writeJSON(w, http.StatusOK, resp)
}

type regionInfo struct {
	Region       models.Region     `json:"region"`
	Default      bool              `json:"default"`
	State        service.State     `json:"state"`
	Source       models.SourceType `json:"source"`
	ChannelCount int               `json:"channel_count"`
	Error        string            `json:"error,omitempty"`
	UpdatedAt    *time.Time        `json:"updated_at,omitempty"`
}

func (s *Server) handleListRegions(w http.ResponseWriter, _ *http.Request) {
	regions := models.Regions()
	out := make([]regionInfo, 0, len(regions))
	for _, region := range regions {
		snap, ok := s.catalog.Get(region)
		info := regionInfo{
			Region:       region,
			Default:      region == s.cfg.DefaultRegion,
			State:        snap.State,
			Source:       snap.Source,
			ChannelCount: len(snap.Channels),
			Error:        snap.Error,
		}
		if ok {
			info.UpdatedAt = &snap.UpdatedAt
		}
		out = append(out, info)
	}
	s.writeJSON(w, http.StatusOK, out)
}

type channelsResponse struct {
	Region     models.Region     `json:"region"`
	State      service.State     `json:"state"`
	Source     models.SourceType `json:"source"`
	Generation uint64            `json:"generation"`
	RunID      string            `json:"run_id,omitempty"`
	UpdatedAt  time.Time         `json:"updated_at"`
	service.View
}

func (s *Server) handleListChannels(w http.ResponseWriter, r *http.Request) {
	region, ok := s.region(w, r)
	if !ok {
		return
	}

	snap := service.EnsureLoaded(r.Context(), s.loader, s.catalog, region)
	if snap.State == service.StateFailed {
		s.writeErr(w, http.StatusBadGateway, errors.New(snap.Error))
		return
	}

	channels := s.markFavorites(r.Context(), region, snap.Channels)
	view := service.BuildView(channels, r.URL.Query().Get("q"))
	labelGuide(view.Groups)
	s.writeJSON(w, http.StatusOK, channelsResponse{
		Region:     region,
		State:      snap.State,
		Source:     snap.Source,
		Generation: snap.Generation,
		RunID:      snap.RunID,
		UpdatedAt:  snap.UpdatedAt,
		View:       view,
	})
}

// labelGuide swaps raw now-playing titles for their display label. Groups hold
// their own channel copies, so snapshots are not touched.
func labelGuide(groups []models.Group) {
	for gi := range groups {
		chs := groups[gi].Channels
		for i := range chs {
			if chs[i].NowPlaying != nil {
				label := chs[i].NowPlayingLabel()
				chs[i].NowPlaying = &label
			}
		}
	}
}

// markFavorites returns a copy of channels with Favorite set from the store.
// Snapshot channels are shared and never modified in place.
func (s *Server) markFavorites(ctx context.Context, region models.Region, channels []models.Channel) []models.Channel {
	favs, err := s.store.ListFavorites(ctx, region)
	if err != nil {
		s.log.Warn().Err(err).Str("region", string(region)).Msg("favorites unavailable")
		return channels
	}
	if len(favs) == 0 {
		return channels
	}
	set := store.FavoriteURLs(favs)
	out := slices.Clone(channels)
	for i := range out {
		out[i].Favorite = set[out[i].URL]
	}
	return out
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	region, ok := s.region(w, r)
	if !ok {
		return
	}

	if r.URL.Query().Get("async") == "true" {
		if s.queue == nil {
			s.writeErr(w, http.StatusServiceUnavailable, errors.New("reload queue not configured (REDIS_URL not set)"))
			return
		}
		job := cache.ReloadJob{Region: string(region), RequestedAt: time.Now().UTC()}
		if err := cache.Enqueue(r.Context(), s.queue, cache.DefaultQueue, job); err != nil {
			s.writeErr(w, http.StatusInternalServerError, fmt.Errorf("enqueue reload: %w", err))
			return
		}
		s.writeJSON(w, http.StatusAccepted, map[string]any{
			"region": region,
			"queued": true,
		})
		return
	}

	res, applied := service.Ingest(r.Context(), s.loader, s.catalog, region)
	if !res.OK() {
		s.writeErr(w, http.StatusBadGateway, errors.New(res.Err.Message()))
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"region":        region,
		"source":        res.Source,
		"channel_count": len(res.Channels),
		"generation":    res.Generation,
		"run_id":        res.RunID,
		"applied":       applied,
	})
}

func (s *Server) handleListFavorites(w http.ResponseWriter, r *http.Request) {
	region, ok := s.region(w, r)
	if !ok {
		return
	}
	favs, err := s.store.ListFavorites(r.Context(), region)
	if err != nil {
		s.writeErr(w, http.StatusInternalServerError, err)
		return
	}
	if favs == nil {
		favs = []models.Favorite{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"region":    region,
		"favorites": favs,
	})
}

type setFavoriteRequest struct {
	URL      string `json:"url"`
	Favorite bool   `json:"favorite"`
}

func (s *Server) handleSetFavorite(w http.ResponseWriter, r *http.Request) {
	region, ok := s.region(w, r)
	if !ok {
		return
	}

	var req setFavoriteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid JSON: %w", err))
		return
	}

	if err := s.store.SetFavorite(r.Context(), region, req.URL, req.Favorite); err != nil {
		if errors.Is(err, store.ErrInvalidFavorite) {
			s.writeErr(w, http.StatusBadRequest, err)
			return
		}
		s.writeErr(w, http.StatusInternalServerError, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"region":   region,
		"url":      req.URL,
		"favorite": req.Favorite,
	})
}

func (s *Server) handleProbe(w http.ResponseWriter, r *http.Request) {
	streamURL := r.URL.Query().Get("url")
	if streamURL == "" {
		s.writeErr(w, http.StatusBadRequest, errors.New("url parameter is required"))
		return
	}
	// Only streams published by a loaded region playlist are fetched.
	if !s.catalog.HasStream(streamURL) {
		s.writeErr(w, http.StatusForbidden, errors.New("url is not a stream of any loaded region"))
		return
	}

	report, err := s.prober.Probe(r.Context(), streamURL)
	if err != nil {
		var pe *player.ProbeError
		switch {
		case errors.As(err, &pe) && pe.Class == player.Fatal:
			s.writeErr(w, http.StatusUnprocessableEntity, err)
		case errors.As(err, &pe):
			s.writeErr(w, http.StatusBadGateway, err)
		default:
			s.writeErr(w, http.StatusInternalServerError, err)
		}
		return
	}
	s.writeJSON(w, http.StatusOK, report)
}

// --- helpers ---

// APIError is the standard error envelope for all error responses.
type APIError struct {
	Status int    `json:"status"`
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

// region parses the {region} path parameter, writing a 404 if it is unknown.
func (s *Server) region(w http.ResponseWriter, r *http.Request) (models.Region, bool) {
	region, err := models.ParseRegion(r.PathValue("region"))
	if err != nil {
		s.writeErr(w, http.StatusNotFound, err)
		return "", false
	}
	return region, true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error().Err(err).Msg("writeJSON")
	}
}

func (s *Server) writeErr(w http.ResponseWriter, status int, err error) {
	if status >= 500 {
		s.log.Error().Err(err).Int("status", status).Msg("request failed")
	}
	s.writeJSON(w, status, APIError{
		Status: status,
		Error:  http.StatusText(status),
		Detail: err.Error(),
	})
}
