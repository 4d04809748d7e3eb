package verifier_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adamscao/skillguard/internal/verifier"
	"github.com/adamscao/skillguard/internal/verifier/certtest"
)

func TestStdClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			w.Write([]byte("cert"))
		case "/big":
			w.Write([]byte(strings.Repeat("x", verifier.MaxCertificateSize+1)))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := verifier.NewStdClient(time.Second)
	ctx := context.Background()

	resp, err := c.Get(ctx, srv.URL+"/ok")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []byte("cert"), resp.Body)

	resp, err = c.Get(ctx, srv.URL+"/missing")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	_, err = c.Get(ctx, srv.URL+"/big")
	assert.Error(t, err)
}

func TestFetcher(t *testing.T) {
	client := certtest.NewClient().
		Serve(certtest.URL, []byte("pem")).
		Respond("https://s3.amazonaws.com/echo.api/gone.pem", &verifier.HTTPResponse{StatusCode: 404}).
		Respond("https://s3.amazonaws.com/echo.api/moved.pem", &verifier.HTTPResponse{StatusCode: 301, Body: []byte("pem")})
	f := verifier.NewFetcher(client, nil)
	ctx := context.Background()

	data, err := f.Fetch(ctx, certtest.URL)
	require.NoError(t, err)
	assert.Equal(t, []byte("pem"), data)

	_, err = f.Fetch(ctx, "https://s3.amazonaws.com/echo.api/gone.pem")
	assert.ErrorIs(t, err, verifier.ErrFetchFailed)

	_, err = f.Fetch(ctx, "https://s3.amazonaws.com/echo.api/moved.pem")
	assert.ErrorIs(t, err, verifier.ErrFetchFailed)

	_, err = f.Fetch(ctx, "https://s3.amazonaws.com/echo.api/unknown.pem")
	assert.ErrorIs(t, err, verifier.ErrFetchFailed)
}

type slowClient struct {
	calls   atomic.Int32
	release chan struct{}
}

func (c *slowClient) Get(context.Context, string) (*verifier.HTTPResponse, error) {
	c.calls.Add(1)
	<-c.release
	return &verifier.HTTPResponse{StatusCode: 200, Body: []byte("pem")}, nil
}

func TestFetcherCollapsesConcurrentRequests(t *testing.T) {
	client := &slowClient{release: make(chan struct{})}
	f := verifier.NewFetcher(client, nil)

	var wg sync.WaitGroup
	fetch := func() {
		defer wg.Done()
		data, err := f.Fetch(context.Background(), certtest.URL)
		assert.NoError(t, err)
		assert.Equal(t, []byte("pem"), data)
	}

	wg.Add(1)
	go fetch()
	require.Eventually(t, func() bool { return client.calls.Load() == 1 }, time.Second, time.Millisecond)

	for i := 0; i < 7; i++ {
		wg.Add(1)
		go fetch()
	}
	time.Sleep(50 * time.Millisecond)
	close(client.release)
	wg.Wait()

	assert.Equal(t, int32(1), client.calls.Load())
}

type ctxClient struct {
	calls   atomic.Int32
	release chan struct{}
}

func (c *ctxClient) Get(ctx context.Context, _ string) (*verifier.HTTPResponse, error) {
	c.calls.Add(1)
	<-c.release
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &verifier.HTTPResponse{StatusCode: 200, Body: []byte("pem")}, nil
}

func TestFetcherCancelledCallerDoesNotFailOthers(t *testing.T) {
	client := &ctxClient{release: make(chan struct{})}
	f := verifier.NewFetcher(client, nil)

	first, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := f.Fetch(first, certtest.URL)
		firstErr <- err
	}()
	require.Eventually(t, func() bool { return client.calls.Load() == 1 }, time.Second, time.Millisecond)

	type result struct {
		data []byte
		err  error
	}
	second := make(chan result, 1)
	go func() {
		data, err := f.Fetch(context.Background(), certtest.URL)
		second <- result{data, err}
	}()
	time.Sleep(50 * time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-firstErr, verifier.ErrFetchFailed)

	close(client.release)
	res := <-second
	require.NoError(t, res.err)
	assert.Equal(t, []byte("pem"), res.data)
	assert.Equal(t, int32(1), client.calls.Load())
}
