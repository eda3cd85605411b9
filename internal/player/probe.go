// Package player checks that a channel's stream can be opened before a
// client hands it to a video element.
package player

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/grafov/m3u8"
	"github.com/rs/zerolog"
	"github.com/voyagen/regiontv/internal/fetcher"
	"github.com/voyagen/regiontv/internal/metrics"
)

// Class separates probe failures worth retrying from ones that are not.
type Class string

const (
	Recoverable Class = "recoverable"
	Fatal       Class = "fatal"
)

// ProbeError is returned by Probe for every failure.
type ProbeError struct {
	URL      string
	Class    Class
	Attempts int
	Err      error
}

func (e *ProbeError) Error() string {
	return fmt.Sprintf("probe %s (%s after %d attempt(s)): %v", e.URL, e.Class, e.Attempts, e.Err)
}

func (e *ProbeError) Unwrap() error { return e.Err }

// Fetcher is satisfied by *fetcher.Client.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Report describes a stream manifest that decoded successfully.
type Report struct {
	URL            string  `json:"url"`
	Type           string  `json:"type"` // "master" or "media"
	Variants       int     `json:"variants,omitempty"`
	MaxBandwidth   uint32  `json:"max_bandwidth,omitempty"`
	Segments       int     `json:"segments,omitempty"`
	TargetDuration float64 `json:"target_duration,omitempty"`
	Live           bool    `json:"live,omitempty"` // media playlists without ENDLIST
	Attempts       int     `json:"attempts"`
}

// Prober fetches and decodes HLS manifests.
type Prober struct {
	fetcher Fetcher
	log     zerolog.Logger
	retries int
}

// NewProber returns a Prober that retries recoverable failures once.
func NewProber(f Fetcher, log zerolog.Logger) *Prober {
	return &Prober{fetcher: f, log: log, retries: 1}
}

// Probe fetches the manifest at streamURL and decodes it. Network errors and
// 5xx responses are recoverable and retried; 4xx responses and manifests that
// do not decode are fatal.
func (p *Prober) Probe(ctx context.Context, streamURL string) (*Report, error) {
	u, err := url.Parse(streamURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, p.fail(&ProbeError{URL: streamURL, Class: Fatal, Err: errors.New("not an http(s) url")})
	}

	var lastErr *ProbeError
	for attempt := 1; attempt <= p.retries+1; attempt++ {
		data, err := p.fetcher.Fetch(ctx, streamURL)
		if err != nil {
			lastErr = &ProbeError{URL: streamURL, Class: classify(ctx, err), Attempts: attempt, Err: err}
			if lastErr.Class == Recoverable && attempt <= p.retries {
				p.log.Warn().Err(err).Str("url", streamURL).Int("attempt", attempt).Msg("probe failed, retrying")
				continue
			}
			return nil, p.fail(lastErr)
		}
		report, err := decode(streamURL, data)
		if err != nil {
			return nil, p.fail(&ProbeError{URL: streamURL, Class: Fatal, Attempts: attempt, Err: err})
		}
		report.Attempts = attempt
		return report, nil
	}
	return nil, p.fail(lastErr)
}

func (p *Prober) fail(err *ProbeError) error {
	metrics.ProbeErrors.WithLabelValues(string(err.Class)).Inc()
	p.log.Debug().Err(err).Msg("probe failed")
	return err
}

func classify(ctx context.Context, err error) Class {
	if ctx.Err() != nil {
		return Fatal
	}
	var se *fetcher.StatusError
	if errors.As(err, &se) {
		if se.StatusCode >= 500 {
			return Recoverable
		}
		return Fatal
	}
	return Recoverable
}

func decode(streamURL string, data []byte) (*Report, error) {
	pl, listType, err := m3u8.DecodeFrom(bytes.NewReader(data), false)
	if err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	r := &Report{URL: streamURL}
	switch listType {
	case m3u8.MASTER:
		master := pl.(*m3u8.MasterPlaylist)
		r.Type = "master"
		for _, v := range master.Variants {
			if v == nil {
				continue
			}
			r.Variants++
			if v.Bandwidth > r.MaxBandwidth {
				r.MaxBandwidth = v.Bandwidth
			}
		}
	case m3u8.MEDIA:
		media := pl.(*m3u8.MediaPlaylist)
		r.Type = "media"
		r.TargetDuration = media.TargetDuration
		r.Live = !media.Closed
		for _, s := range media.Segments {
			if s != nil {
				r.Segments++
			}
		}
	default:
		return nil, errors.New("decode manifest: unknown playlist type")
	}
	return r, nil
}
