package artifact

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
)

const (
	defaultHTTPTimeout = 10 * time.Second
	defaultAttempts    = 3
	defaultRetryDelay  = 200 * time.Millisecond
	maxArtifactBytes   = 32 << 20
)

// Source yields the raw bytes of an artifact.
type Source interface {
	Load(ctx context.Context) ([]byte, error)
	String() string
}

// Option applies a configuration option to HTTP sources.
type Option func(*HTTPSource)

// WithHTTPClient sets the client used for remote artifacts.
func WithHTTPClient(c *http.Client) Option {
	return func(s *HTTPSource) {
		if c != nil {
			s.client = c
		}
	}
}

// WithRetry sets attempts and the initial backoff delay.
func WithRetry(attempts uint, delay time.Duration) Option {
	return func(s *HTTPSource) {
		if attempts > 0 {
			s.attempts = attempts
		}
		if delay > 0 {
			s.delay = delay
		}
	}
}

// NewSource picks a file or HTTP source from the location's scheme.
func NewSource(location string, opts ...Option) (Source, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, ErrEmptyLocator
	}
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return NewHTTPSource(location, opts...), nil
	}
	return FileSource(strings.TrimPrefix(location, "file://")), nil
}

// FileSource reads an artifact from the local filesystem.
type FileSource string

// Load implements Source.Load.
func (f FileSource) Load(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, err := os.ReadFile(string(f))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrUnavailable, f, err)
	}
	return b, nil
}

func (f FileSource) String() string { return string(f) }

// HTTPSource fetches an artifact over HTTP, retrying transient failures.
type HTTPSource struct {
	url      string
	client   *http.Client
	attempts uint
	delay    time.Duration
}

// NewHTTPSource returns a source for url.
func NewHTTPSource(url string, opts ...Option) *HTTPSource {
	s := &HTTPSource{
		url:      url,
		client:   &http.Client{Timeout: defaultHTTPTimeout},
		attempts: defaultAttempts,
		delay:    defaultRetryDelay,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *HTTPSource) String() string { return s.url }

// Load implements Source.Load. Client errors (4xx) are not retried.
func (s *HTTPSource) Load(ctx context.Context) ([]byte, error) {
	var body []byte
	err := retry.Do(
		func() error {
			b, err := s.fetch(ctx)
			if err != nil {
				return err
			}
			body = b
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(s.attempts),
		retry.Delay(s.delay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, err
	}
	return body, nil
}

func (s *HTTPSource) fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, retry.Unrecoverable(fmt.Errorf("%w: %w", ErrUnavailable, err))
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("%w: %s returned %d", ErrUnavailable, s.url, resp.StatusCode)
		if resp.StatusCode < http.StatusInternalServerError && resp.StatusCode != http.StatusTooManyRequests {
			return nil, retry.Unrecoverable(err)
		}
		return nil, err
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, maxArtifactBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrUnavailable, s.url, err)
	}
	return b, nil
}
