// Package transport builds the one shared HTTP pipeline used by every clinic
// API call. Token attachment and the refresh-then-retry behaviour live here
// and nowhere else.
package transport

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog/log"

	"github.com/vetwell/go-clinic-client/credstore"
	"github.com/vetwell/go-clinic-client/internal/metrics"
)

const (
	headerAuthorization = "Authorization"
	headerDeviceID      = "X-Device-ID"
	headerRequestID     = "X-Request-ID"

	bearerPrefix = "Bearer "
)

// Refresher produces a fresh credential pair when the current access token is
// rejected. Implemented by refresh.Coordinator.
type Refresher interface {
	Refresh(ctx context.Context) (credstore.Pair, error)
}

// pipeline is the RoundTripper every request flows through: it stamps
// correlation headers, attaches the bearer token, and performs the single
// authorized retry after a 401.
type pipeline struct {
	base      http.RoundTripper
	store     credstore.Store
	refresher Refresher
	deviceID  string
}

// Option configures the pipeline.
type Option func(*pipeline)

// WithBase sets the underlying RoundTripper (defaults to
// http.DefaultTransport).
func WithBase(rt http.RoundTripper) Option {
	return func(p *pipeline) {
		p.base = rt
	}
}

// WithDeviceID attaches the given device identifier to every request.
func WithDeviceID(id string) Option {
	return func(p *pipeline) {
		p.deviceID = id
	}
}

// New returns the shared HTTP client. store supplies the current access
// token; refresher is consulted once per request on a 401.
func New(store credstore.Store, refresher Refresher, timeout time.Duration, options ...Option) *http.Client {
	p := &pipeline{
		base:      http.DefaultTransport,
		store:     store,
		refresher: refresher,
	}
	for _, opt := range options {
		opt(p)
	}
	return &http.Client{Transport: p, Timeout: timeout}
}

func (p *pipeline) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set(headerRequestID, ulid.Make().String())
	if p.deviceID != "" {
		req.Header.Set(headerDeviceID, p.deviceID)
	}

	pair, err := p.store.Load(req.Context())
	if err != nil {
		log.Warn().Err(err).Msg("loading credentials for request, sending unauthenticated")
		pair = nil
	}
	if pair != nil {
		req.Header.Set(headerAuthorization, bearerPrefix+pair.AccessToken)
	}

	start := time.Now()
	resp, err := p.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	logRequest(req, resp, time.Since(start))

	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}
	metrics.UnauthorizedResponses.Inc()

	// No credentials, an auth-exempt call, or a body that cannot be replayed:
	// the 401 is final for this request.
	if pair == nil || refreshExempt(req.Context()) || p.refresher == nil {
		return resp, nil
	}
	retry, ok := cloneForRetry(req)
	if !ok {
		return resp, nil
	}

	fresh, err := p.refresher.Refresh(req.Context())
	if err != nil {
		log.Debug().Err(err).Str("path", req.URL.Path).Msg("refresh failed, surfacing original 401")
		return resp, nil
	}

	// The original response is dead weight once we retry.
	drainAndClose(resp)

	retry.Header.Set(headerAuthorization, bearerPrefix+fresh.AccessToken)
	metrics.AuthorizedRetries.Inc()

	start = time.Now()
	resp, err = p.base.RoundTrip(retry)
	if err != nil {
		return nil, err
	}
	logRequest(retry, resp, time.Since(start))
	return resp, nil
}

// cloneForRetry prepares a second attempt of req. Requests with a one-shot
// body (no GetBody) cannot be retried.
func cloneForRetry(req *http.Request) (*http.Request, bool) {
	retry := req.Clone(req.Context())
	if req.Body == nil || req.Body == http.NoBody {
		return retry, true
	}
	if req.GetBody == nil {
		return nil, false
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, false
	}
	retry.Body = body
	return retry, true
}

func drainAndClose(resp *http.Response) {
	if resp.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))
	_ = resp.Body.Close()
}

func logRequest(req *http.Request, resp *http.Response, elapsed time.Duration) {
	log.Debug().
		Str("method", req.Method).
		Str("path", req.URL.Path).
		Str("request_id", req.Header.Get(headerRequestID)).
		Int("status", resp.StatusCode).
		Dur("elapsed", elapsed).
		Msg("clinic api request")
}
