package api_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jrsteele09/enertrack-console/api"
	"github.com/jrsteele09/enertrack-console/internal/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newTestAuthClient(t *testing.T, handler http.HandlerFunc) *api.AuthClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := api.NewAuthClient(srv.URL, api.WithLogger(zerolog.Nop()))
	require.NoError(t, err)
	return c
}

func TestAuthClient_Login(t *testing.T) {
	c := newTestAuthClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, api.RouteLogin, r.URL.Path)
		require.Empty(t, r.Header.Get("Authorization"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body["username"] != "awa" || body["password"] != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"detail":"No active account found with the given credentials"}`)
			return
		}
		_, _ = io.WriteString(w, `{"access":"acc","refresh":"ref"}`)
	})

	pair, err := c.Login(context.Background(), "awa", "secret")
	require.NoError(t, err)
	require.Equal(t, "acc", pair.Access)
	require.Equal(t, "ref", pair.Refresh)

	_, err = c.Login(context.Background(), "awa", "wrong")
	require.Error(t, err)
	require.True(t, errors.Is(err, errors.ErrInvalidCredentials))
}

func TestAuthClient_Refresh(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantAccess  string
		wantRefresh string
		wantErr     error
	}{
		{name: "access only", status: http.StatusOK, body: `{"access":"new"}`, wantAccess: "new"},
		{name: "rotated", status: http.StatusOK, body: `{"access":"new","refresh":"r2"}`, wantAccess: "new", wantRefresh: "r2"},
		{name: "missing access", status: http.StatusOK, body: `{"refresh":"r2"}`, wantErr: errors.ErrInvalidToken},
		{name: "rejected", status: http.StatusUnauthorized, body: `{"detail":"Token is invalid or expired"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestAuthClient(t, func(w http.ResponseWriter, r *http.Request) {
				require.Equal(t, api.RouteRefresh, r.URL.Path)
				var body map[string]string
				require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
				require.Equal(t, "r1", body["refresh"])
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			pair, err := c.Refresh(context.Background(), "r1")
			if tt.wantAccess == "" {
				require.Error(t, err)
				if tt.wantErr != nil {
					require.True(t, errors.Is(err, tt.wantErr))
				}
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.wantAccess, pair.Access)
			require.Equal(t, tt.wantRefresh, pair.Refresh)
		})
	}
}
