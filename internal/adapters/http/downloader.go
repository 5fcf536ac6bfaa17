// Package http fetches attachment contents over HTTP.
package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/bft-labs/flashguard/internal/ports"
)

// Default client settings.
const (
	DefaultTimeout    = 30 * time.Second
	DefaultRetryMax   = 3
	DefaultMaxBytes   = 100 << 20
	defaultRetryWait  = 500 * time.Millisecond
	defaultRetryLimit = 5 * time.Second
)

// Downloader implements ports.Downloader with retries on connection errors
// and 5xx responses.
type Downloader struct {
	client   *retryablehttp.Client
	maxBytes int64
}

// Option configures a Downloader.
type Option func(*Downloader)

// WithRetryMax sets the maximum number of retries per download.
func WithRetryMax(n int) Option {
	return func(d *Downloader) {
		d.client.RetryMax = n
	}
}

// WithRetryWait sets the minimum and maximum wait between retries.
func WithRetryWait(min, max time.Duration) Option {
	return func(d *Downloader) {
		d.client.RetryWaitMin = min
		d.client.RetryWaitMax = max
	}
}

// WithTransport replaces the underlying transport.
func WithTransport(rt http.RoundTripper) Option {
	return func(d *Downloader) {
		d.client.HTTPClient.Transport = rt
	}
}

// WithMaxBytes caps the size of a single download.
func WithMaxBytes(n int64) Option {
	return func(d *Downloader) {
		d.maxBytes = n
	}
}

// NewDownloader creates a downloader whose individual requests time out
// after timeout. A zero timeout uses DefaultTimeout.
func NewDownloader(logger ports.Logger, timeout time.Duration, opts ...Option) *Downloader {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	client := retryablehttp.NewClient()
	client.HTTPClient.Timeout = timeout
	client.RetryMax = DefaultRetryMax
	client.RetryWaitMin = defaultRetryWait
	client.RetryWaitMax = defaultRetryLimit
	client.Logger = retryablehttp.LeveledLogger(leveledLogger{logger})

	d := &Downloader{client: client, maxBytes: DefaultMaxBytes}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Download returns the body of url.
func (d *Downloader) Download(ctx context.Context, url string) ([]byte, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("download %s: server returned %d", url, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, d.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(data)) > d.maxBytes {
		return nil, fmt.Errorf("download %s: exceeds %d bytes", url, d.maxBytes)
	}
	return data, nil
}

// leveledLogger forwards retryablehttp logs to ports.Logger. Errors are
// reported as warnings since the request may still succeed on retry.
type leveledLogger struct {
	logger ports.Logger
}

func (l leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Warn(msg, toFields(keysAndValues)...)
}

func (l leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warn(msg, toFields(keysAndValues)...)
}

func (l leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, toFields(keysAndValues)...)
}

func (l leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, toFields(keysAndValues)...)
}

func toFields(kv []interface{}) []ports.Field {
	fields := make([]ports.Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			key = fmt.Sprint(kv[i])
		}
		fields = append(fields, ports.Any(key, kv[i+1]))
	}
	return fields
}
