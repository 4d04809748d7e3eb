package verifier

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/adamscao/skillguard/internal/metrics"
)

const (
	// DefaultFetchTimeout bounds one certificate download
	DefaultFetchTimeout = 10 * time.Second
	// MaxCertificateSize caps the downloaded body
	MaxCertificateSize = 1 << 20
)

// HTTPResponse is the subset of a response the fetcher needs
type HTTPResponse struct {
	StatusCode int
	Body       []byte
}

// HTTPClient performs GET requests
type HTTPClient interface {
	Get(ctx context.Context, url string) (*HTTPResponse, error)
}

// StdClient adapts *http.Client to HTTPClient
type StdClient struct {
	Client *http.Client
}

// NewStdClient returns a client with the given timeout, or DefaultFetchTimeout when zero
func NewStdClient(timeout time.Duration) *StdClient {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	return &StdClient{Client: &http.Client{Timeout: timeout}}
}

func (c *StdClient) Get(ctx context.Context, url string) (*HTTPResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxCertificateSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if len(body) > MaxCertificateSize {
		return nil, fmt.Errorf("response body exceeds %d bytes", MaxCertificateSize)
	}

	return &HTTPResponse{StatusCode: resp.StatusCode, Body: body}, nil
}

// Fetcher downloads certificates. It neither validates nor caches them.
type Fetcher struct {
	client  HTTPClient
	metrics *metrics.Metrics
	group   singleflight.Group
}

// NewFetcher creates a fetcher over client
func NewFetcher(client HTTPClient, m *metrics.Metrics) *Fetcher {
	return &Fetcher{client: client, metrics: m}
}

// Fetch returns the body of a 200 response for url. Concurrent calls for the same
// url share one request. The shared request is detached from the caller's
// cancellation and bounded by the client timeout; a cancelled caller stops waiting
// without failing the others.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	shared := context.WithoutCancel(ctx)

	ch := f.group.DoChan(url, func() (interface{}, error) {
		start := time.Now()

		resp, err := f.client.Get(shared, url)
		if err != nil {
			f.metrics.ObserveFetch("error", time.Since(start))
			return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
		}
		if resp.StatusCode != http.StatusOK {
			f.metrics.ObserveFetch("bad_status", time.Since(start))
			return nil, fmt.Errorf("%w: unexpected status %d", ErrFetchFailed, resp.StatusCode)
		}

		f.metrics.ObserveFetch("ok", time.Since(start))
		return resp.Body, nil
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	}
}
