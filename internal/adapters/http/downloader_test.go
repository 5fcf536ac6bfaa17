package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/flashguard/internal/adapters/log"
)

func fastDownloader(opts ...Option) *Downloader {
	opts = append([]Option{WithRetryWait(time.Millisecond, time.Millisecond)}, opts...)
	return NewDownloader(log.NewNoopLogger(), time.Second, opts...)
}

func TestDownloader_ReturnsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		_, _ = w.Write([]byte("image-bytes"))
	}))
	defer srv.Close()

	data, err := fastDownloader().Download(context.Background(), srv.URL+"/a.png")

	require.NoError(t, err)
	assert.Equal(t, []byte("image-bytes"), data)
}

func TestDownloader_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	data, err := fastDownloader().Download(context.Background(), srv.URL)

	require.NoError(t, err)
	assert.Equal(t, "ok", string(data))
	assert.Equal(t, int32(3), calls.Load())
}

func TestDownloader_NotFoundFails(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := fastDownloader().Download(context.Background(), srv.URL)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestDownloader_GivesUpAfterRetryMax(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := fastDownloader(WithRetryMax(1)).Download(context.Background(), srv.URL)

	require.Error(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestDownloader_EnforcesMaxBytes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("0123456789"))
	}))
	defer srv.Close()

	_, err := fastDownloader(WithMaxBytes(4)).Download(context.Background(), srv.URL)
	require.Error(t, err)

	data, err := fastDownloader(WithMaxBytes(10)).Download(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Len(t, data, 10)
}

func TestDownloader_CanceledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := fastDownloader().Download(ctx, srv.URL)
	require.Error(t, err)
}
