package server_test

import (
	"context"
	"net/http"
	"os"
	"sync/atomic"
	"testing"

	"github.com/jrsteele09/enertrack-console/api"
	"github.com/jrsteele09/enertrack-console/session"
	"github.com/jrsteele09/enertrack-console/store/memstore"
	"github.com/jrsteele09/enertrack-console/transport"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type consoleFixture struct {
	store   *memstore.Store
	manager *session.Manager
	auth    *api.AuthClient
	client  *api.Client
	expired *atomic.Int32
}

// newConsole wires a session, the retrying transport and both API clients
// against the mock backend, the way the CLI does.
func newConsole(t *testing.T, b *testBackend) *consoleFixture {
	t.Helper()

	base := b.srv.Client().Transport
	auth, err := api.NewAuthClient(b.srv.URL+"/api", api.WithHTTPClient(&http.Client{Transport: base}))
	require.NoError(t, err)

	f := &consoleFixture{store: memstore.New(), auth: auth, expired: &atomic.Int32{}}
	f.manager, err = session.NewManager(f.store, auth,
		session.WithLogger(zerolog.Nop()),
		session.WithNotifier(session.NotifierFunc(func() { f.expired.Add(1) })),
	)
	require.NoError(t, err)
	t.Cleanup(f.manager.Close)

	rt := transport.New(f.manager, transport.WithBase(base), transport.WithLogger(zerolog.Nop()))
	f.client, err = api.NewClient(b.srv.URL+"/api", api.WithHTTPClient(&http.Client{Transport: rt}))
	require.NoError(t, err)
	return f
}

func (f *consoleFixture) login(t *testing.T, username, password string) session.TokenPair {
	t.Helper()
	pair, err := f.auth.Login(context.Background(), username, password)
	require.NoError(t, err)
	f.manager.Login(pair.Access, pair.Refresh)
	return pair
}

func TestConsole_RevokedAccessTokenIsRefreshedAndReplayed(t *testing.T) {
	b := newTestBackend(t)
	f := newConsole(t, b)
	ctx := context.Background()

	pair := f.login(t, "admin", adminPassword)
	sites, err := f.client.ListSites(ctx, nil)
	require.NoError(t, err)
	require.Len(t, sites, 3)

	require.NoError(t, b.issuer.Revoke(pair.Access))

	sites, err = f.client.ListSites(ctx, nil)
	require.NoError(t, err)
	require.Len(t, sites, 3)

	current, err := f.store.Get(session.AccessTokenKey)
	require.NoError(t, err)
	require.NotEqual(t, pair.Access, current)
	require.True(t, f.manager.IsAuthenticated())
	require.Zero(t, f.expired.Load())
}

func TestConsole_RejectedRefreshExpiresSession(t *testing.T) {
	b := newTestBackend(t)
	f := newConsole(t, b)
	ctx := context.Background()

	pair := f.login(t, "viewer", viewerPassword)
	require.NoError(t, b.issuer.Revoke(pair.Access))
	b.issuer.RevokeRefreshToken(pair.Refresh)

	_, err := f.client.ListSites(ctx, nil)
	require.Error(t, err)
	require.True(t, api.IsUnauthorized(err))

	require.False(t, f.manager.IsAuthenticated())
	require.EqualValues(t, 1, f.expired.Load())

	current, err := f.store.Get(session.AccessTokenKey)
	require.NoError(t, err)
	require.Empty(t, current)
}

func TestConsole_UploadReplayedAfterRefresh(t *testing.T) {
	b := newTestBackend(t)
	f := newConsole(t, b)
	ctx := context.Background()

	pair := f.login(t, "admin", adminPassword)
	require.NoError(t, b.issuer.Revoke(pair.Access))

	path := t.TempDir() + "/daily.csv"
	require.NoError(t, os.WriteFile(path, []byte("site_id,date\nSN-DKR-001,2025-05-01\n"), 0o600))

	res, err := f.client.ImportGridOutageDaily(ctx, path)
	require.NoError(t, err)
	require.Equal(t, api.ImportResult{Created: 1}, res)
}

func TestConsole_ViewerScope(t *testing.T) {
	b := newTestBackend(t)
	f := newConsole(t, b)

	f.login(t, "viewer", viewerPassword)
	identity, ok := f.manager.Identity()
	require.True(t, ok)
	require.Equal(t, "Senegal", identity.CountryScope)

	page, err := f.client.ListEnergyStats(context.Background(), api.EnergyListParams{Page: 1, PageSize: 2})
	require.NoError(t, err)
	require.Equal(t, 3, page.Total)
	require.Len(t, page.Items, 2)

	err = f.client.DeleteSite(context.Background(), 1)
	require.Error(t, err)
	var apiErr *api.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusForbidden, apiErr.StatusCode)
}
