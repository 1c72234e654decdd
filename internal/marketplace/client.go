package marketplace

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/egoavara/shellconf/internal/logging"
)

// DefaultTimeout bounds every request made by a Client.
const DefaultTimeout = 10 * time.Second

// maxBodySize caps downloaded documents and scripts.
const maxBodySize = 64 << 20

// FetchError reports a request that completed with a non-200 status.
type FetchError struct {
	URL    string
	Status int
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.Status)
}

// Client fetches plugin indexes and files from a source.
type Client struct {
	http    *http.Client
	timeout time.Duration
	logger  *zap.Logger
	group   singleflight.Group
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) ClientOption {
	return func(c *Client) { c.logger = logging.OrNop(l) }
}

// NewClient creates a Client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		http:    http.DefaultClient,
		timeout: DefaultTimeout,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchIndex downloads, validates and decodes <baseURL>/plugins-index.json.
// Concurrent calls for the same source share one request. The shared request
// is not cancelled with any one caller; each caller stops waiting when its
// own ctx is done.
func (c *Client) FetchIndex(ctx context.Context, baseURL string) (*Index, error) {
	url := IndexURL(baseURL)
	shared := context.WithoutCancel(ctx)

	ch := c.group.DoChan(url, func() (any, error) {
		data, err := c.Download(shared, url)
		if err != nil {
			return nil, err
		}
		if err := ValidateIndex(data); err != nil {
			return nil, err
		}
		var idx Index
		if err := json.Unmarshal(data, &idx); err != nil {
			return nil, fmt.Errorf("failed to parse index: %w", err)
		}
		return &idx, nil
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if res.Err != nil {
		c.logger.Warn("failed to fetch plugin index", zap.String("url", url), zap.Error(res.Err))
		return nil, res.Err
	}
	c.logger.Debug("fetched plugin index", zap.String("url", url), zap.Bool("shared", res.Shared))

	// Callers own their copy.
	idx := *res.Val.(*Index)
	idx.Plugins = append([]Record(nil), idx.Plugins...)
	return &idx, nil
}

// Download GETs url and returns the body.
func (c *Client) Download(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{URL: url, Status: resp.StatusCode}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return data, nil
}
