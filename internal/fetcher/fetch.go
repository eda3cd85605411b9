package fetcher

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/andybalholm/brotli"
	"golang.org/x/time/rate"
)

const (
	defaultTimeout = 30 * time.Second
	// defaultMaxBody caps a playlist download; real region files are well under 10 MiB.
	defaultMaxBody = 32 << 20
)

// ErrTooLarge is returned when a decoded body exceeds the client's size cap.
var ErrTooLarge = errors.New("playlist too large")

// Client fetches playlist resources over HTTP. All requests share one rate limiter.
type Client struct {
	httpClient *http.Client
	userAgent  string
	limiter    *rate.Limiter
	maxBody    int64
}

// NewClient creates a Client. userAgent is optional; timeout <= 0 uses 30s;
// rps <= 0 disables rate limiting.
func NewClient(userAgent string, timeout time.Duration, rps float64) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		userAgent:  userAgent,
		limiter:    rate.NewLimiter(limit, 1),
		maxBody:    defaultMaxBody,
	}
}

// StatusError reports a non-2xx response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: HTTP %d", e.URL, e.StatusCode)
}

// Fetch GETs url and returns the decoded body. Non-2xx responses return
// *StatusError; a body over the size cap returns ErrTooLarge rather than a
// truncated document.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("NewRequest: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	req.Header.Set("Accept-Encoding", "br, gzip")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("Do: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode}
	}
	body, err := decodeBody(resp)
	if err != nil {
		return nil, err
	}
	data, err := io.ReadAll(io.LimitReader(body, c.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("ReadAll: %w", err)
	}
	if int64(len(data)) > c.maxBody {
		return nil, fmt.Errorf("GET %s: %w (over %d bytes)", url, ErrTooLarge, c.maxBody)
	}
	return data, nil
}

// decodeBody unwraps the Content-Encoding we asked for. Setting Accept-Encoding
// ourselves turns off the transport's transparent gzip handling.
func decodeBody(resp *http.Response) (io.Reader, error) {
	switch resp.Header.Get("Content-Encoding") {
	case "br":
		return brotli.NewReader(resp.Body), nil
	case "gzip":
		zr, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		return zr, nil
	default:
		return resp.Body, nil
	}
}
