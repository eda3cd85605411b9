package player

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matryer/is"
	"github.com/rs/zerolog"
	"github.com/voyagen/regiontv/internal/fetcher"
)

const masterManifest = `#EXTM3U
#EXT-X-STREAM-INF:BANDWIDTH=1280000,RESOLUTION=640x360
low/index.m3u8
#EXT-X-STREAM-INF:BANDWIDTH=2560000,RESOLUTION=1280x720
mid/index.m3u8
`

const mediaManifest = `#EXTM3U
#EXT-X-VERSION:3
#EXT-X-TARGETDURATION:6
#EXT-X-MEDIA-SEQUENCE:100
#EXTINF:6.0,
seg100.ts
#EXTINF:6.0,
seg101.ts
`

func newProber(t *testing.T) (*Prober, *httptest.Server, *atomic.Int32) {
	t.Helper()
	var flaky atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/master.m3u8", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(masterManifest))
	})
	mux.HandleFunc("/media.m3u8", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(mediaManifest))
	})
	mux.HandleFunc("/flaky.m3u8", func(w http.ResponseWriter, r *http.Request) {
		if flaky.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(mediaManifest))
	})
	mux.HandleFunc("/down.m3u8", func(w http.ResponseWriter, r *http.Request) {
		flaky.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	})
	mux.HandleFunc("/garbage.m3u8", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>not a playlist</html>"))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return NewProber(fetcher.NewClient("test", 5*time.Second, 0), zerolog.Nop()), srv, &flaky
}

func TestProbeMaster(t *testing.T) {
	is := is.New(t)
	p, srv, _ := newProber(t)

	r, err := p.Probe(context.Background(), srv.URL+"/master.m3u8")
	is.NoErr(err)
	is.Equal(r.Type, "master")
	is.Equal(r.Variants, 2)
	is.Equal(r.MaxBandwidth, uint32(2560000))
	is.Equal(r.Attempts, 1)
}

func TestProbeMedia(t *testing.T) {
	is := is.New(t)
	p, srv, _ := newProber(t)

	r, err := p.Probe(context.Background(), srv.URL+"/media.m3u8")
	is.NoErr(err)
	is.Equal(r.Type, "media")
	is.Equal(r.Segments, 2)
	is.Equal(r.TargetDuration, 6.0)
	is.True(r.Live)
}

func TestProbeRetriesServerErrorOnce(t *testing.T) {
	is := is.New(t)
	p, srv, hits := newProber(t)

	r, err := p.Probe(context.Background(), srv.URL+"/flaky.m3u8")
	is.NoErr(err)
	is.Equal(r.Attempts, 2)
	is.Equal(hits.Load(), int32(2))
}

func TestProbeGivesUpAfterRetry(t *testing.T) {
	is := is.New(t)
	p, srv, hits := newProber(t)

	_, err := p.Probe(context.Background(), srv.URL+"/down.m3u8")
	var pe *ProbeError
	is.True(errors.As(err, &pe))
	is.Equal(pe.Class, Recoverable)
	is.Equal(pe.Attempts, 2)
	is.Equal(hits.Load(), int32(2))
}

func TestProbeFatal(t *testing.T) {
	p, srv, _ := newProber(t)
	tests := []struct {
		name string
		url  string
	}{
		{"not found", srv.URL + "/missing.m3u8"},
		{"undecodable", srv.URL + "/garbage.m3u8"},
		{"bad scheme", "ftp://example.com/live.m3u8"},
		{"not a url", "::"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			is := is.New(t)
			_, err := p.Probe(context.Background(), tt.url)
			var pe *ProbeError
			is.True(errors.As(err, &pe))
			is.Equal(pe.Class, Fatal)
			is.True(pe.Attempts <= 1)
		})
	}
}
