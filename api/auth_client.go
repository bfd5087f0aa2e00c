package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/jrsteele09/enertrack-console/internal/errors"
	"github.com/jrsteele09/enertrack-console/session"
)

const (
	RouteLogin   = "/auth/login/"
	RouteRefresh = "/auth/refresh/"
)

// AuthClient performs the unauthenticated auth calls. It must be given a
// plain transport; routing refreshes through the retrying transport would let
// a rejected refresh trigger another refresh.
type AuthClient struct {
	req requester
}

var _ session.Refresher = (*AuthClient)(nil)

func NewAuthClient(baseURL string, opts ...Option) (*AuthClient, error) {
	base, err := normaliseBaseURL(baseURL)
	if err != nil {
		return nil, fmt.Errorf("[api NewAuthClient] %w", err)
	}
	o := buildOptions(opts)
	return &AuthClient{req: requester{baseURL: base, httpClient: o.httpClient, log: o.log}}, nil
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

// Login exchanges credentials for a token pair.
func (c *AuthClient) Login(ctx context.Context, username, password string) (session.TokenPair, error) {
	var pair session.TokenPair
	err := c.req.doJSON(ctx, http.MethodPost, RouteLogin, nil, loginRequest{Username: username, Password: password}, &pair)
	if err != nil {
		if statusOf(err) == http.StatusUnauthorized || statusOf(err) == http.StatusBadRequest {
			return session.TokenPair{}, fmt.Errorf("[AuthClient Login] %w: %v", errors.ErrInvalidCredentials, err)
		}
		return session.TokenPair{}, fmt.Errorf("[AuthClient Login] %w", err)
	}
	if strings.TrimSpace(pair.Access) == "" {
		return session.TokenPair{}, errors.Wrapf(errors.ErrInvalidToken, "[AuthClient Login] response has no access token")
	}
	return pair, nil
}

// Refresh implements session.Refresher. The refresh field of the result is
// only set when the backend rotated the refresh token.
func (c *AuthClient) Refresh(ctx context.Context, refreshToken string) (session.TokenPair, error) {
	var pair session.TokenPair
	if err := c.req.doJSON(ctx, http.MethodPost, RouteRefresh, nil, refreshRequest{Refresh: refreshToken}, &pair); err != nil {
		return session.TokenPair{}, fmt.Errorf("[AuthClient Refresh] %w", err)
	}
	if strings.TrimSpace(pair.Access) == "" {
		return session.TokenPair{}, errors.Wrapf(errors.ErrInvalidToken, "[AuthClient Refresh] response has no access token")
	}
	return pair, nil
}
