package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
)

var (
	// ErrRemoteStatus is returned for a non-2xx remote check response.
	ErrRemoteStatus = errors.New("client: remote check returned non-2xx status")
	// ErrRemoteResponse is returned when the response body cannot be read.
	ErrRemoteResponse = errors.New("client: unreadable remote check response")
)

// RemoteRequest is one remote uniqueness check.
type RemoteRequest struct {
	URL    string
	Method string
	Field  string
	Values url.Values
}

// RemoteChecker performs remote checks. An error means the check could not
// be performed; the evaluator then lets the value pass.
type RemoteChecker interface {
	Check(ctx context.Context, req RemoteRequest) (bool, error)
}

// RemoteCheckFunc adapts a function to RemoteChecker.
type RemoteCheckFunc func(ctx context.Context, req RemoteRequest) (bool, error)

func (fn RemoteCheckFunc) Check(ctx context.Context, req RemoteRequest) (bool, error) {
	return fn(ctx, req)
}

// HTTPRemoteOptions configures an HTTPRemoteChecker.
type HTTPRemoteOptions struct {
	Client  *http.Client
	BaseURL string
	Logger  zerolog.Logger

	// Breaker settings. A zero FailureThreshold disables tripping.
	Name             string
	FailureThreshold uint32
	OpenTimeout      time.Duration
	Interval         time.Duration
}

// HTTPRemoteOption mutates HTTPRemoteOptions.
type HTTPRemoteOption func(*HTTPRemoteOptions)

// DefaultHTTPRemoteOptions returns sane defaults.
func DefaultHTTPRemoteOptions() HTTPRemoteOptions {
	return HTTPRemoteOptions{
		Client:           &http.Client{Timeout: 5 * time.Second},
		Logger:           zerolog.Nop(),
		Name:             "remote-check",
		FailureThreshold: 5,
		OpenTimeout:      30 * time.Second,
		Interval:         time.Minute,
	}
}

func WithHTTPClient(c *http.Client) HTTPRemoteOption {
	return func(o *HTTPRemoteOptions) {
		if c != nil {
			o.Client = c
		}
	}
}

// WithBaseURL resolves relative remote URLs against base.
func WithBaseURL(base string) HTTPRemoteOption {
	return func(o *HTTPRemoteOptions) {
		o.BaseURL = strings.TrimSpace(base)
	}
}

func WithRemoteLogger(l zerolog.Logger) HTTPRemoteOption {
	return func(o *HTTPRemoteOptions) {
		o.Logger = l
	}
}

// WithBreaker tunes the circuit breaker.
func WithBreaker(threshold uint32, openTimeout time.Duration) HTTPRemoteOption {
	return func(o *HTTPRemoteOptions) {
		o.FailureThreshold = threshold
		o.OpenTimeout = openTimeout
	}
}

// HTTPRemoteChecker calls remote check endpoints over HTTP behind a circuit
// breaker.
type HTTPRemoteChecker struct {
	opts    HTTPRemoteOptions
	base    *url.URL
	breaker *gobreaker.CircuitBreaker[bool]
}

// NewHTTPRemoteChecker constructs a checker.
func NewHTTPRemoteChecker(fns ...HTTPRemoteOption) (*HTTPRemoteChecker, error) {
	opts := DefaultHTTPRemoteOptions()
	for _, fn := range fns {
		if fn != nil {
			fn(&opts)
		}
	}
	rc := &HTTPRemoteChecker{opts: opts}
	if opts.BaseURL != "" {
		base, err := url.Parse(opts.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("client: parse base url: %w", err)
		}
		rc.base = base
	}

	logger := opts.Logger
	threshold := opts.FailureThreshold
	rc.breaker = gobreaker.NewCircuitBreaker[bool](gobreaker.Settings{
		Name:     opts.Name,
		Interval: opts.Interval,
		Timeout:  opts.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return threshold > 0 && counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("remote check breaker state changed")
		},
	})
	return rc, nil
}

// Check sends the request and interprets the response body.
func (rc *HTTPRemoteChecker) Check(ctx context.Context, req RemoteRequest) (bool, error) {
	return rc.breaker.Execute(func() (bool, error) {
		return rc.do(ctx, req)
	})
}

func (rc *HTTPRemoteChecker) do(ctx context.Context, req RemoteRequest) (bool, error) {
	target, err := rc.resolve(req.URL)
	if err != nil {
		return false, err
	}

	method := strings.ToUpper(strings.TrimSpace(req.Method))
	if method == "" {
		method = http.MethodPost
	}

	var (
		body    io.Reader
		encoded = req.Values.Encode()
	)
	if method == http.MethodGet {
		target.RawQuery = mergeQuery(target.RawQuery, encoded)
	} else {
		body = strings.NewReader(encoded)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return false, fmt.Errorf("client: build remote request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := rc.opts.Client.Do(httpReq)
	if err != nil {
		return false, fmt.Errorf("client: remote request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return false, fmt.Errorf("%w: %d", ErrRemoteStatus, resp.StatusCode)
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrRemoteResponse, err)
	}
	return ParseRemoteResponse(raw)
}

func (rc *HTTPRemoteChecker) resolve(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("client: parse remote url: %w", err)
	}
	if rc.base != nil && !u.IsAbs() {
		u = rc.base.ResolveReference(u)
	}
	if !u.IsAbs() {
		return nil, fmt.Errorf("client: remote url %q is not absolute", raw)
	}
	return u, nil
}

func mergeQuery(existing, extra string) string {
	switch {
	case existing == "":
		return extra
	case extra == "":
		return existing
	default:
		return existing + "&" + extra
	}
}

// ParseRemoteResponse interprets a remote check body: a bare boolean, a
// string ("true" or empty is valid), or an object whose valid member is
// true. Anything else is invalid; a body that is not JSON is an error.
func ParseRemoteResponse(raw []byte) (bool, error) {
	var payload any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return false, fmt.Errorf("%w: %v", ErrRemoteResponse, err)
	}
	switch v := payload.(type) {
	case bool:
		return v, nil
	case string:
		return v == "" || v == "true", nil
	case map[string]any:
		valid, _ := v["valid"].(bool)
		return valid, nil
	default:
		return false, nil
	}
}
