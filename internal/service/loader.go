package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/voyagen/regiontv/internal/fetcher"
	"github.com/voyagen/regiontv/internal/metrics"
	"github.com/voyagen/regiontv/internal/models"
)

// DefaultBaseURL hosts one directory per region with tv.json and tv.pls.
const DefaultBaseURL = "https://i.mjh.nz/au"

const (
	playlistFile = "tv.json"
	fallbackFile = "tv.pls"
)

// Fetcher retrieves a remote resource body. *fetcher.Client implements it.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Status is the terminal state of a load.
type Status int

const (
	StatusSuccess Status = iota + 1
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result is the outcome of one load. A failed result never carries channels.
type Result struct {
	Region     models.Region
	Generation uint64
	RunID      string
	Status     Status
	Source     models.SourceType
	Shape      fetcher.Shape // JSON loads only
	Channels   []models.Channel
	Err        *LoadError
	Started    time.Time
	Duration   time.Duration
}

// OK reports whether the load produced a channel list.
func (r Result) OK() bool { return r.Status == StatusSuccess }

// Loader fetches a region's JSON playlist, falls back to PLS and normalizes
// the entries. Each call is a full, independent run; nothing is cached.
type Loader struct {
	fetcher Fetcher
	baseURL string
	log     zerolog.Logger
	gen     atomic.Uint64
}

// NewLoader creates a Loader. An empty baseURL uses DefaultBaseURL.
func NewLoader(f Fetcher, baseURL string, log zerolog.Logger) *Loader {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Loader{fetcher: f, baseURL: strings.TrimRight(baseURL, "/"), log: log}
}

// PlaylistURL is the primary JSON resource for region.
func PlaylistURL(baseURL string, region models.Region) string {
	return strings.TrimRight(baseURL, "/") + "/" + url.PathEscape(string(region)) + "/" + playlistFile
}

// FallbackURL replaces the file name of the primary URL with tv.pls.
func FallbackURL(primary string) string {
	if i := strings.LastIndex(primary, "/"); i >= 0 {
		return primary[:i+1] + fallbackFile
	}
	return fallbackFile
}

// NextGeneration reserves a generation number for a load about to start.
// Later loads always get larger numbers.
func (l *Loader) NextGeneration() uint64 {
	return l.gen.Add(1)
}

// Load runs a load with a fresh generation number.
func (l *Loader) Load(ctx context.Context, region models.Region) Result {
	return l.LoadGeneration(ctx, region, l.NextGeneration())
}

// LoadGeneration runs Loading -> {Success | FallbackLoading -> {Success | Failed}}
// and tags the result with gen. It never panics on bad input; every failure
// is reported through Result.Err.
func (l *Loader) LoadGeneration(ctx context.Context, region models.Region, gen uint64) (res Result) {
	res = Result{
		Region:     region,
		Generation: gen,
		RunID:      uuid.NewString(),
		Started:    time.Now(),
	}
	log := l.log.With().Str("region", string(region)).Str("run_id", res.RunID).Uint64("generation", gen).Logger()
	defer func() {
		res.Duration = time.Since(res.Started)
		observe(res)
	}()

	primary := PlaylistURL(l.baseURL, region)
	log.Debug().Str("url", primary).Msg("loading playlist")

	channels, shape, jsonErr := l.loadJSON(ctx, primary)
	if jsonErr == nil {
		res.Status, res.Source, res.Shape, res.Channels = StatusSuccess, models.SourceJSON, shape, channels
		log.Info().Str("source", "json").Str("shape", shape.String()).Int("channels", len(channels)).Msg("playlist loaded")
		return res
	}

	log.Warn().Err(jsonErr).Msg("json playlist failed, trying pls fallback")
	metrics.FallbacksTotal.WithLabelValues(string(region)).Inc()

	channels, plsErr := l.loadPLS(ctx, FallbackURL(primary))
	if plsErr == nil {
		res.Status, res.Source, res.Channels = StatusSuccess, models.SourcePLS, channels
		log.Info().Str("source", "pls").Int("channels", len(channels)).Msg("playlist loaded")
		return res
	}

	res.Status, res.Source, res.Channels = StatusFailed, models.SourceNone, []models.Channel{}
	res.Err = &LoadError{Region: region, JSON: jsonErr, PLS: plsErr}
	log.Error().Err(res.Err).Msg("cannot load playlist for region")
	return res
}

func (l *Loader) loadJSON(ctx context.Context, u string) ([]models.Channel, fetcher.Shape, *LegError) {
	body, err := l.fetcher.Fetch(ctx, u)
	if err != nil {
		return nil, fetcher.ShapeUnknown, &LegError{Kind: FetchFailure, URL: u, Err: err}
	}
	entries, shape, err := fetcher.DetectShape(body)
	if err != nil {
		kind := ShapeFailure
		if errors.Is(err, fetcher.ErrEmpty) {
			kind = EmptyResult
		}
		return nil, shape, &LegError{Kind: kind, URL: u, Err: err}
	}
	// A non-empty sequence is authoritative even if normalization drops every entry.
	return fetcher.NormalizeAll(entries), shape, nil
}

func (l *Loader) loadPLS(ctx context.Context, u string) ([]models.Channel, *LegError) {
	body, err := l.fetcher.Fetch(ctx, u)
	if err != nil {
		return nil, &LegError{Kind: FetchFailure, URL: u, Err: err}
	}
	entries, err := fetcher.ParsePLS(bytes.NewReader(body))
	if err != nil {
		return nil, &LegError{Kind: ParseFailure, URL: u, Err: err}
	}
	channels := fetcher.NormalizeAll(entries)
	if len(channels) == 0 {
		return nil, &LegError{Kind: EmptyResult, URL: u, Err: fmt.Errorf("%w: pls parsing resulted in an empty list", fetcher.ErrEmpty)}
	}
	return channels, nil
}

func observe(res Result) {
	region := string(res.Region)
	metrics.LoadsTotal.WithLabelValues(region, res.Status.String(), res.Source.String()).Inc()
	metrics.LoadDuration.WithLabelValues(region).Observe(res.Duration.Seconds())
}
