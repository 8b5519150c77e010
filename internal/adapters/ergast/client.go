// Package ergast is a client for the Ergast-compatible Jolpica results API.
package ergast

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/okian/pitwall/internal/domain/model"
	"github.com/okian/pitwall/pkg/logger"
	"github.com/okian/pitwall/pkg/metrics"
)

// Default client configuration.
const (
	DefaultBaseURL = "https://api.jolpi.ca/ergast/f1"

	defaultTimeout  = 5 * time.Second
	defaultRate     = 4
	defaultAttempts = 3
	defaultDelay    = 250 * time.Millisecond
	defaultTTL      = 60 * time.Second
	maxBodyBytes    = 4 << 20

	standingsPath = "current/driverStandings.json"
	lastRacePath  = "current/last/results.json"

	endpointStandings = "driverStandings"
	endpointLastRace  = "lastResults"
)

// Client fetches live standings and results. Responses are cached for a TTL
// and outbound requests are rate limited.
type Client struct {
	baseURL  string
	http     *http.Client
	limiter  *rate.Limiter
	attempts uint
	delay    time.Duration
	ttl      time.Duration
	cache    *cache.Cache
	log      logger.Logger
}

// New constructs a client with options.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL:  DefaultBaseURL,
		http:     &http.Client{Timeout: defaultTimeout},
		limiter:  rate.NewLimiter(rate.Limit(defaultRate), 1),
		attempts: defaultAttempts,
		delay:    defaultDelay,
		ttl:      defaultTTL,
		log:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.baseURL = strings.TrimRight(c.baseURL, "/")
	c.cache = cache.New(c.ttl, 2*c.ttl)
	return c
}

// DriverStandings returns the current drivers' championship table.
func (c *Client) DriverStandings(ctx context.Context) ([]model.StandingEntry, error) {
	if v, ok := c.cached(endpointStandings); ok {
		return v.([]model.StandingEntry), nil
	}
	body, err := c.get(ctx, endpointStandings, standingsPath)
	if err != nil {
		return nil, err
	}
	standings, err := ParseStandings(body)
	if err != nil {
		return nil, err
	}
	c.cache.SetDefault(endpointStandings, standings)
	return standings, nil
}

// LastRaceResult returns the classification of the most recent race.
func (c *Client) LastRaceResult(ctx context.Context) (RaceResult, error) {
	if v, ok := c.cached(endpointLastRace); ok {
		return v.(RaceResult), nil
	}
	body, err := c.get(ctx, endpointLastRace, lastRacePath)
	if err != nil {
		return RaceResult{}, err
	}
	res, err := ParseResults(body)
	if err != nil {
		return RaceResult{}, err
	}
	c.cache.SetDefault(endpointLastRace, res)
	return res, nil
}

// Flush drops every cached response.
func (c *Client) Flush() {
	c.cache.Flush()
}

func (c *Client) cached(endpoint string) (any, bool) {
	v, ok := c.cache.Get(endpoint)
	metrics.RecordCacheLookup(endpoint, ok)
	return v, ok
}

func (c *Client) get(ctx context.Context, endpoint, path string) ([]byte, error) {
	start := time.Now()
	url := c.baseURL + "/" + path

	var body []byte
	err := retry.Do(
		func() error {
			if err := c.limiter.Wait(ctx); err != nil {
				return retry.Unrecoverable(fmt.Errorf("rate limit: %w", err))
			}
			b, err := c.fetch(ctx, url)
			if err != nil {
				return err
			}
			body = b
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(c.delay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			c.log.Debug(ctx, "retrying results api",
				logger.String("endpoint", endpoint),
				logger.Int("attempt", int(n)+1),
				logger.Error(err))
		}),
	)

	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	metrics.RecordUpstreamRequest(endpoint, outcome, float64(time.Since(start).Milliseconds()))
	if err != nil {
		return nil, err
	}
	return body, nil
}

func (c *Client) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, retry.Unrecoverable(err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("%w: %s returned %d", ErrUpstreamStatus, url, resp.StatusCode)
		if resp.StatusCode < http.StatusInternalServerError && resp.StatusCode != http.StatusTooManyRequests {
			return nil, retry.Unrecoverable(err)
		}
		return nil, err
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}
	return b, nil
}
