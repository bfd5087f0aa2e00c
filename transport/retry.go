package transport

import (
	"context"
	"io"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

// Session is the part of session.Manager the transport depends on.
type Session interface {
	oauth2.TokenSource
	HasRefreshToken() bool
	RefreshAfterReject(ctx context.Context, rejectedToken string) bool
}

// Observer is told about every refresh-and-retry attempt.
type Observer interface {
	// RequestRetried is called after a 401 triggered a refresh. replayed is
	// false when the refresh failed and the 401 was handed back to the caller.
	RequestRetried(replayed bool)
}

type retriedKey struct{}

// WithRetried marks ctx so that a request built from it is never retried.
func WithRetried(ctx context.Context) context.Context {
	return context.WithValue(ctx, retriedKey{}, true)
}

// IsRetried reports whether the request has already been replayed once.
func IsRetried(r *http.Request) bool {
	retried, _ := r.Context().Value(retriedKey{}).(bool)
	return retried
}

// Transport attaches the session's bearer token to outgoing requests and, on
// a 401, refreshes the session once and replays the request.
type Transport struct {
	base     http.RoundTripper
	session  Session
	observer Observer
	log      zerolog.Logger
}

type Option func(*Transport)

func WithBase(base http.RoundTripper) Option {
	return func(t *Transport) {
		t.base = base
	}
}

func WithObserver(o Observer) Option {
	return func(t *Transport) {
		t.observer = o
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(t *Transport) {
		t.log = l
	}
}

func New(session Session, opts ...Option) *Transport {
	t := &Transport{
		base:    http.DefaultTransport,
		session: session,
		log:     log.Logger.With().Str("component", "transport").Logger(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	outgoing, accessToken := t.authorize(req)

	resp, err := t.base.RoundTrip(outgoing)
	if err != nil || resp.StatusCode != http.StatusUnauthorized {
		return resp, err
	}
	if IsRetried(req) || !t.session.HasRefreshToken() || !replayable(req) {
		return resp, nil
	}

	if !t.session.RefreshAfterReject(req.Context(), accessToken) {
		t.log.Debug().Str("path", req.URL.Path).Msg("refresh after 401 failed")
		t.recordRetry(false)
		return resp, nil
	}

	replay, err := t.replay(req)
	if err != nil {
		t.log.Warn().Err(err).Str("path", req.URL.Path).Msg("request could not be replayed")
		return resp, nil
	}
	drainAndClose(resp.Body)
	t.recordRetry(true)

	outgoing, _ = t.authorize(replay)
	return t.base.RoundTrip(outgoing)
}

// authorize returns a clone of req carrying the current bearer token, and the
// token used. Anonymous requests go out unchanged.
func (t *Transport) authorize(req *http.Request) (*http.Request, string) {
	tok, err := t.session.Token()
	if err != nil || tok == nil || tok.AccessToken == "" {
		return req, ""
	}

	clone := req.Clone(req.Context())
	tok.SetAuthHeader(clone)
	return clone, tok.AccessToken
}

func (t *Transport) replay(req *http.Request) (*http.Request, error) {
	replay := req.Clone(WithRetried(req.Context()))
	if req.Body != nil && req.Body != http.NoBody {
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		replay.Body = body
	}
	return replay, nil
}

func (t *Transport) recordRetry(replayed bool) {
	if t.observer != nil {
		t.observer.RequestRetried(replayed)
	}
}

func replayable(req *http.Request) bool {
	return req.Body == nil || req.Body == http.NoBody || req.GetBody != nil
}

func drainAndClose(body io.ReadCloser) {
	if body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(body, 64<<10))
	_ = body.Close()
}
