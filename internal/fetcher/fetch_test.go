package fetcher

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/matryer/is"
)

func TestFetchPlainBodyAndUserAgent(t *testing.T) {
	is := is.New(t)
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte(`[{"name":"A"}]`))
	}))
	defer srv.Close()

	c := NewClient("RegionTV/test", time.Second, 0)
	body, err := c.Fetch(context.Background(), srv.URL+"/Melbourne/tv.json")
	is.NoErr(err)
	is.Equal(string(body), `[{"name":"A"}]`)
	is.Equal(gotUA, "RegionTV/test")
}

func TestFetchDecodesBrotliAndGzip(t *testing.T) {
	is := is.New(t)
	const payload = "File1=http://x/a.m3u8\nTitle1=A\n"

	var br, gz bytes.Buffer
	bw := brotli.NewWriter(&br)
	_, _ = bw.Write([]byte(payload))
	is.NoErr(bw.Close())
	gw := gzip.NewWriter(&gz)
	_, _ = gw.Write([]byte(payload))
	is.NoErr(gw.Close())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/br":
			w.Header().Set("Content-Encoding", "br")
			_, _ = w.Write(br.Bytes())
		case "/gz":
			w.Header().Set("Content-Encoding", "gzip")
			_, _ = w.Write(gz.Bytes())
		}
	}))
	defer srv.Close()

	c := NewClient("", time.Second, 0)
	body, err := c.Fetch(context.Background(), srv.URL+"/br")
	is.NoErr(err)
	is.Equal(string(body), payload) // brotli decoded
	body, err = c.Fetch(context.Background(), srv.URL+"/gz")
	is.NoErr(err)
	is.Equal(string(body), payload) // gzip decoded
}

func TestFetchNon2xx(t *testing.T) {
	is := is.New(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewClient("", time.Second, 0).Fetch(context.Background(), srv.URL)
	var se *StatusError
	is.True(errors.As(err, &se)) // non-2xx must surface as StatusError
	is.Equal(se.StatusCode, http.StatusNotFound)
}

func TestFetchCancelledContext(t *testing.T) {
	is := is.New(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewClient("", time.Second, 1).Fetch(ctx, srv.URL)
	is.True(err != nil)
	is.True(errors.Is(err, context.Canceled))
}

func TestFetchRejectsOversizedBody(t *testing.T) {
	is := is.New(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/gz" {
			w.Header().Set("Content-Encoding", "gzip")
			gw := gzip.NewWriter(w)
			_, _ = gw.Write(bytes.Repeat([]byte("x"), 64))
			_ = gw.Close()
			return
		}
		_, _ = w.Write(bytes.Repeat([]byte("x"), 17))
	}))
	defer srv.Close()

	c := NewClient("", time.Second, 0)
	c.maxBody = 16
	_, err := c.Fetch(context.Background(), srv.URL)
	is.True(errors.Is(err, ErrTooLarge)) // never a truncated body

	_, err = c.Fetch(context.Background(), srv.URL+"/gz")
	is.True(errors.Is(err, ErrTooLarge)) // cap applies after decoding

	c.maxBody = 17
	body, err := c.Fetch(context.Background(), srv.URL)
	is.NoErr(err)
	is.Equal(len(body), 17) // exactly at the cap is fine
}
