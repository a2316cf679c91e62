package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/plsync/internal/metrics"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL        = "https://api.spotify.com/v1"
	DefaultMaxAttempts    = 5
	DefaultRetryAfter     = time.Second
	defaultRequestTimeout = 30 * time.Second
	defaultContentType    = "application/json"
	maxErrorBodyBytes     = 1 << 20

	// MaxRetryAfter caps the wait advertised by a Retry-After header.
	MaxRetryAfter = time.Hour
)

// Doer performs one logical Web API call. [*Fetcher] is the production implementation.
type Doer interface {
	Do(ctx context.Context, method, path string, body, out any, opts ...RequestOption) error
}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// RequestOption customizes a single outbound request.
type RequestOption func(*http.Request)

// WithHeader sets a request header, overriding the defaults.
func WithHeader(key, value string) RequestOption {
	return func(r *http.Request) { r.Header.Set(key, value) }
}

// Fetcher is the single authenticated HTTP path to the Web API.
//
// It injects the bearer token, retries 429 responses after the advertised Retry-After delay,
// and turns every other failure into a typed error.
type Fetcher struct {
	baseURL           string
	tokens            oauth2.TokenSource
	client            *http.Client
	limiter           *rate.Limiter
	maxAttempts       int
	defaultRetryAfter time.Duration
	sleep             Sleeper
	metrics           *metrics.Metrics
	logger            *log.Logger
}

// FetcherOption configures a [Fetcher].
type FetcherOption func(*Fetcher)

func WithBaseURL(u string) FetcherOption {
	return func(f *Fetcher) { f.baseURL = strings.TrimRight(u, "/") }
}

func WithHTTPClient(c *http.Client) FetcherOption {
	return func(f *Fetcher) { f.client = c }
}

// WithRateLimit paces requests client-side. Zero or negative disables pacing.
func WithRateLimit(perSecond float64) FetcherOption {
	return func(f *Fetcher) {
		if perSecond > 0 {
			f.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

// WithMaxAttempts bounds the total number of tries for a rate limited request.
func WithMaxAttempts(n int) FetcherOption {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxAttempts = n
		}
	}
}

// WithDefaultRetryAfter is the wait used when a 429 carries no usable Retry-After.
func WithDefaultRetryAfter(d time.Duration) FetcherOption {
	return func(f *Fetcher) {
		if d > 0 {
			f.defaultRetryAfter = d
		}
	}
}

func WithSleeper(s Sleeper) FetcherOption {
	return func(f *Fetcher) { f.sleep = s }
}

func WithMetrics(m *metrics.Metrics) FetcherOption {
	return func(f *Fetcher) { f.metrics = m }
}

func WithFetcherLogger(l *log.Logger) FetcherOption {
	return func(f *Fetcher) { f.logger = l }
}

// NewFetcher creates a Fetcher that authenticates with tokens.
func NewFetcher(tokens oauth2.TokenSource, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		baseURL:           DefaultBaseURL,
		tokens:            tokens,
		client:            &http.Client{Timeout: defaultRequestTimeout},
		maxAttempts:       DefaultMaxAttempts,
		defaultRetryAfter: DefaultRetryAfter,
		sleep:             sleepContext,
		logger:            log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Do sends method path with body encoded as JSON and decodes a successful JSON response into out.
//
// Relative paths are joined to the base URL; absolute URLs (pagination cursors) are used verbatim.
// A 204 or empty body leaves out untouched. A non-JSON body is written to out only when out is *string or *[]byte.
func (f *Fetcher) Do(ctx context.Context, method, path string, body, out any, opts ...RequestOption) error {
	token, err := f.accessToken()
	if err != nil {
		return err
	}

	var payload []byte
	if body != nil {
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
	}

	target := f.resolve(path)

	for attempt := 1; ; attempt++ {
		if f.limiter != nil {
			if err := f.limiter.Wait(ctx); err != nil {
				return err
			}
		}

		resp, err := f.send(ctx, method, target, token, payload, opts)
		if err != nil {
			f.metrics.ObserveAPIRequest(method, 0)
			return fmt.Errorf("request failed: %w", err)
		}
		f.metrics.ObserveAPIRequest(method, resp.StatusCode)

		if resp.StatusCode == http.StatusTooManyRequests && attempt < f.maxAttempts {
			wait := retryAfter(resp.Header.Get("Retry-After"), f.defaultRetryAfter, time.Now())
			drain(resp)
			f.metrics.ObserveRateLimited()
			f.logger.Debug("rate limited", "method", method, "url", target, "attempt", attempt, "wait", wait)

			if err := f.sleep(ctx, wait); err != nil {
				return err
			}
			continue
		}

		return f.handle(resp, out)
	}
}

func (f *Fetcher) accessToken() (string, error) {
	if f.tokens == nil {
		return "", &AuthError{}
	}
	token, err := f.tokens.Token()
	if err != nil {
		return "", &AuthError{Err: err}
	}
	if token == nil || token.AccessToken == "" {
		return "", &AuthError{}
	}
	return token.AccessToken, nil
}

func (f *Fetcher) resolve(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return f.baseURL + path
}

func (f *Fetcher) send(ctx context.Context, method, target, token string, payload []byte, opts []RequestOption) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", defaultContentType)
	for _, opt := range opts {
		opt(req)
	}

	return f.client.Do(req)
}

func (f *Fetcher) handle(resp *http.Response, out any) error {
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return newAPIError(resp, data)
	}

	if resp.StatusCode == http.StatusNoContent || out == nil {
		return nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	if isJSON(resp.Header.Get("Content-Type")) {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
		return nil
	}

	switch o := out.(type) {
	case *string:
		*o = string(data)
	case *[]byte:
		*o = data
	}
	return nil
}

func isJSON(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

// retryAfter parses a Retry-After value given as delay seconds (integer or decimal) or an HTTP-date.
func retryAfter(value string, fallback time.Duration, now time.Time) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback
	}
	if seconds, err := strconv.ParseFloat(value, 64); err == nil {
		if !(seconds >= 0) {
			return fallback
		}
		if seconds >= MaxRetryAfter.Seconds() {
			return MaxRetryAfter
		}
		return time.Duration(seconds * float64(time.Second))
	}
	if at, err := http.ParseTime(value); err == nil {
		return min(max(at.Sub(now), 0), MaxRetryAfter)
	}
	return fallback
}

func drain(resp *http.Response) {
	io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBodyBytes))
	resp.Body.Close()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
