package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matryer/is"
	"github.com/rs/zerolog"
	"github.com/voyagen/regiontv/internal/fetcher"
	"github.com/voyagen/regiontv/internal/models"
)

// playlistServer serves fixed bodies per path; missing paths are 404.
type playlistServer struct {
	*httptest.Server
	bodies map[string]string
	status map[string]int
	hits   map[string]*atomic.Int32
}

func newPlaylistServer(t *testing.T, bodies map[string]string, status map[string]int) *playlistServer {
	t.Helper()
	ps := &playlistServer{bodies: bodies, status: status, hits: make(map[string]*atomic.Int32)}
	for _, p := range []string{"/Melbourne/tv.json", "/Melbourne/tv.pls", "/Perth/tv.json", "/Perth/tv.pls"} {
		ps.hits[p] = &atomic.Int32{}
	}
	ps.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h, ok := ps.hits[r.URL.Path]; ok {
			h.Add(1)
		}
		if code, ok := ps.status[r.URL.Path]; ok {
			w.WriteHeader(code)
			return
		}
		body, ok := ps.bodies[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(ps.Close)
	return ps
}

func newTestLoader(baseURL string) *Loader {
	return NewLoader(fetcher.NewClient("RegionTV/test", 2*time.Second, 0), baseURL, zerolog.Nop())
}

func TestPlaylistURLs(t *testing.T) {
	is := is.New(t)
	primary := PlaylistURL("https://i.mjh.nz/au/", models.Melbourne)
	is.Equal(primary, "https://i.mjh.nz/au/Melbourne/tv.json")
	is.Equal(FallbackURL(primary), "https://i.mjh.nz/au/Melbourne/tv.pls")
}

func TestLoadJSONArray(t *testing.T) {
	is := is.New(t)
	ps := newPlaylistServer(t, map[string]string{
		"/Melbourne/tv.json": `[
			{"name": "ABC TV", "url": "http://x/abc.m3u8", "group-title": "ABC", "programs": [[1, "News"], [2, "Weather"]]},
			{"name": "Radio", "url": "http://x/radio.aac"},
			{"name": "Seven", "mjh_master": "http://x/seven.m3u8"}
		]`,
	}, nil)

	res := newTestLoader(ps.URL).Load(context.Background(), models.Melbourne)
	is.True(res.OK())
	is.Equal(res.Source, models.SourceJSON)
	is.Equal(res.Shape, fetcher.ShapeArray)
	is.Equal(len(res.Channels), 2) // .aac entry dropped
	is.Equal(res.Channels[0].Name, "ABC TV")
	is.Equal(*res.Channels[0].NowPlaying, "News")
	is.Equal(res.Channels[1].Group, models.DefaultGroupTitle)
	is.Equal(ps.hits["/Melbourne/tv.pls"].Load(), int32(0)) // no fallback on success
	is.True(res.RunID != "")
}

func TestLoadKeyedMappingOrder(t *testing.T) {
	is := is.New(t)
	ps := newPlaylistServer(t, map[string]string{
		"/Melbourne/tv.json": `{
			"mjh-10-nine": {"name": "Nine", "mjh_master": "http://x/9.m3u8"},
			"mjh-7-seven": {"name": "Seven", "mjh_master": "http://x/7.m3u8"},
			"mjh-abc":     {"name": "ABC", "mjh_master": "http://x/abc.m3u8"}
		}`,
	}, nil)

	res := newTestLoader(ps.URL).Load(context.Background(), models.Melbourne)
	is.True(res.OK())
	is.Equal(res.Shape, fetcher.ShapeKeyed)
	names := []string{res.Channels[0].Name, res.Channels[1].Name, res.Channels[2].Name}
	is.Equal(names, []string{"Seven", "Nine", "ABC"})
}

func TestLoadFallsBackToPLS(t *testing.T) {
	is := is.New(t)
	ps := newPlaylistServer(t, map[string]string{
		"/Melbourne/tv.pls": "[playlist]\nFile1=http://x/one.m3u8\nTitle1=One\nFile2=http://x/two.aac\nTitle2=Two\nFile3=http://x/three.m3u8\n",
	}, map[string]int{"/Melbourne/tv.json": http.StatusServiceUnavailable})

	res := newTestLoader(ps.URL).Load(context.Background(), models.Melbourne)
	is.True(res.OK())
	is.Equal(res.Source, models.SourcePLS)
	is.Equal(len(res.Channels), 1) // .aac dropped; index 3 has no title
	is.Equal(res.Channels[0].URL, "http://x/one.m3u8")
	is.Equal(ps.hits["/Melbourne/tv.json"].Load(), int32(1))
	is.Equal(ps.hits["/Melbourne/tv.pls"].Load(), int32(1))
}

func TestLoadFallbackTriggers(t *testing.T) {
	for name, body := range map[string]string{
		"invalid json":      `{not json`,
		"empty array":       `[]`,
		"empty named array": `{"channels": []}`,
		"empty object":      `{}`,
	} {
		t.Run(name, func(t *testing.T) {
			is := is.New(t)
			ps := newPlaylistServer(t, map[string]string{
				"/Perth/tv.json": body,
				"/Perth/tv.pls":  "File1=http://x/p.m3u8\nTitle1=P\n",
			}, nil)
			res := newTestLoader(ps.URL).Load(context.Background(), models.Perth)
			is.True(res.OK())
			is.Equal(res.Source, models.SourcePLS)
			is.Equal(ps.hits["/Perth/tv.pls"].Load(), int32(1))
		})
	}
}

func TestLoadJSONWithoutValidStreamsIsSuccess(t *testing.T) {
	for name, body := range map[string]string{
		"non-hls url":     `[{"name": "A", "url": "http://x/a.ts"}]`,
		"scalar elements": `[1, 2]`,
		"scalar values":   `{"a": 1}`,
	} {
		t.Run(name, func(t *testing.T) {
			is := is.New(t)
			ps := newPlaylistServer(t, map[string]string{
				"/Perth/tv.json": body,
				"/Perth/tv.pls":  "File1=http://x/p.m3u8\nTitle1=P\n",
			}, nil)
			res := newTestLoader(ps.URL).Load(context.Background(), models.Perth)
			is.True(res.OK())
			is.Equal(res.Source, models.SourceJSON)
			is.Equal(len(res.Channels), 0)
			is.Equal(ps.hits["/Perth/tv.pls"].Load(), int32(0)) // no fallback
		})
	}
}

func TestLoadPLSWithoutValidStreamsIsTerminal(t *testing.T) {
	is := is.New(t)
	ps := newPlaylistServer(t, map[string]string{
		"/Melbourne/tv.pls": "File1=http://x/radio.mp3\nTitle1=Radio\nFile2=http://x/two.aac\nTitle2=Two\n",
	}, map[string]int{"/Melbourne/tv.json": http.StatusNotFound})

	res := newTestLoader(ps.URL).Load(context.Background(), models.Melbourne)
	is.Equal(res.Status, StatusFailed)
	is.Equal(res.Err.Kind(), EmptyResult)
	is.Equal(len(res.Channels), 0)
}

func TestLoadBothEmptyIsTerminal(t *testing.T) {
	is := is.New(t)
	ps := newPlaylistServer(t, map[string]string{
		"/Melbourne/tv.json": `[]`,
		"/Melbourne/tv.pls":  "[playlist]\nNumberOfEntries=0\n",
	}, nil)

	res := newTestLoader(ps.URL).Load(context.Background(), models.Melbourne)
	is.True(!res.OK())
	is.Equal(res.Status, StatusFailed)
	is.Equal(len(res.Channels), 0)
	is.Equal(ps.hits["/Melbourne/tv.pls"].Load(), int32(1)) // fallback attempted
	is.Equal(res.Err.Kind(), EmptyResult)
	is.Equal(res.Err.JSON.Kind, EmptyResult)
	is.True(errors.Is(res.Err, fetcher.ErrEmpty))
	is.True(strings.Contains(res.Err.Message(), "Melbourne"))
}

func TestLoadFetchFailures(t *testing.T) {
	is := is.New(t)
	ps := newPlaylistServer(t, nil, map[string]int{
		"/Perth/tv.json": http.StatusInternalServerError,
		"/Perth/tv.pls":  http.StatusNotFound,
	})

	res := newTestLoader(ps.URL).Load(context.Background(), models.Perth)
	is.Equal(res.Status, StatusFailed)
	is.Equal(res.Err.Kind(), FetchFailure)
	is.True(IsKind(res.Err, FetchFailure))
	is.True(!IsKind(res.Err, ShapeFailure))
	var se *fetcher.StatusError
	is.True(errors.As(res.Err, &se))
	is.Equal(res.Err.Message(), "Failed to load channels for Perth. The source file might not exist or be temporarily unavailable.")
}

func TestLoadShapeFailureKind(t *testing.T) {
	is := is.New(t)
	ps := newPlaylistServer(t, map[string]string{"/Perth/tv.json": `"just a string"`}, nil)

	res := newTestLoader(ps.URL).Load(context.Background(), models.Perth)
	is.Equal(res.Err.JSON.Kind, ShapeFailure)
	is.Equal(res.Err.PLS.Kind, FetchFailure)
}

func TestLoadIsIdempotent(t *testing.T) {
	is := is.New(t)
	ps := newPlaylistServer(t, map[string]string{
		"/Melbourne/tv.json": `{"b-2-x": {"name": "Two", "url": "http://x/2.m3u8", "group-title": "Zed"},
			"b-1-x": {"name": "One", "url": "http://x/1.m3u8", "group-title": "Alpha"},
			"b-3-x": {"name": "Three", "url": "http://x/3.m3u8", "group-title": "Alpha"}}`,
	}, nil)
	l := newTestLoader(ps.URL)

	first := l.Load(context.Background(), models.Melbourne)
	second := l.Load(context.Background(), models.Melbourne)
	is.True(second.Generation > first.Generation)
	is.Equal(BuildView(first.Channels, ""), BuildView(second.Channels, ""))
}
