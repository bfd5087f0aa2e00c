package session_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/enertrack-console/internal/errors"
	"github.com/jrsteele09/enertrack-console/session"
	"github.com/stretchr/testify/require"
)

func TestNewManager_RequiresDependencies(t *testing.T) {
	f := newFixture(t)

	_, err := session.NewManager(nil, f.refresher)
	require.Error(t, err)

	_, err = session.NewManager(f.store, nil)
	require.Error(t, err)
}

func TestManager_Login(t *testing.T) {
	f := newFixture(t)
	exp := testNow.Add(time.Hour)
	access := makeToken(t, "awa", "admin", "Senegal", exp)

	f.manager.Login(access, "refresh-abc")

	require.True(t, f.manager.IsAuthenticated())
	require.True(t, f.manager.HasRefreshToken())
	require.Equal(t, "Bearer "+access, f.manager.AuthorizationHeaderValue())

	id, ok := f.manager.Identity()
	require.True(t, ok)
	require.Equal(t, "awa", id.Username)
	require.Equal(t, "admin", id.Role)
	require.Equal(t, "Senegal", id.CountryScope)
	require.True(t, id.ExpiresAt.Equal(exp))

	stored, err := f.store.Get(session.AccessTokenKey)
	require.NoError(t, err)
	require.Equal(t, access, stored)
	stored, err = f.store.Get(session.RefreshTokenKey)
	require.NoError(t, err)
	require.Equal(t, "refresh-abc", stored)
}

func TestManager_LoginWithoutAccessTokenClears(t *testing.T) {
	f := newFixture(t)
	f.manager.Login(makeToken(t, "awa", "admin", "", testNow.Add(time.Hour)), "refresh-abc")

	f.manager.Login("", "refresh-xyz")

	f.requireCleared(t, f.manager)
}

func TestManager_SchedulesRefreshBeforeExpiry(t *testing.T) {
	f := newFixture(t)
	f.manager.Login(makeToken(t, "awa", "admin", "", testNow.Add(15*time.Second)), "refresh-abc")

	pending := f.scheduler.pending()
	require.Len(t, pending, 1)
	require.Equal(t, 5*time.Second, pending[0].delay)

	next := makeToken(t, "awa", "admin", "", testNow.Add(time.Hour))
	f.refresher.respond(session.TokenPair{Access: next}, nil)

	pending[0].fire()

	require.Equal(t, 1, f.refresher.callCount())
	require.Equal(t, "refresh-abc", f.refresher.lastCall())
	require.Equal(t, "Bearer "+next, f.manager.AuthorizationHeaderValue())
	require.True(t, f.manager.HasRefreshToken())
	require.Zero(t, f.notices.Load())

	// the new token gets its own timer
	pending = f.scheduler.pending()
	require.Len(t, pending, 1)
	require.Equal(t, time.Hour-session.DefaultRefreshMargin, pending[0].delay)
}

func TestManager_ExpiredTokenRefreshesImmediately(t *testing.T) {
	f := newFixture(t)
	f.manager.Login(makeToken(t, "awa", "admin", "", testNow.Add(-time.Minute)), "refresh-abc")

	pending := f.scheduler.pending()
	require.Len(t, pending, 1)
	require.Zero(t, pending[0].delay)
}

func TestManager_LoginReplacesTimer(t *testing.T) {
	f := newFixture(t)
	f.manager.Login(makeToken(t, "awa", "admin", "", testNow.Add(time.Minute)), "refresh-1")
	first := f.scheduler.pending()
	require.Len(t, first, 1)

	f.manager.Login(makeToken(t, "awa", "admin", "", testNow.Add(2*time.Minute)), "refresh-2")

	require.True(t, first[0].stopped.Load())
	require.Len(t, f.scheduler.pending(), 1)

	// a callback from the superseded timer must not trigger a refresh
	first[0].fn()
	require.Zero(t, f.refresher.callCount())
}

func TestManager_NoTimerWithoutRefreshToken(t *testing.T) {
	f := newFixture(t)
	f.manager.Login(makeToken(t, "awa", "admin", "", testNow.Add(time.Minute)), "")

	require.True(t, f.manager.IsAuthenticated())
	require.False(t, f.manager.HasRefreshToken())
	require.Empty(t, f.scheduler.pending())
}

func TestManager_MalformedTokenStaysAuthenticated(t *testing.T) {
	f := newFixture(t)
	f.manager.Login("malformed-token", "refresh-abc")

	require.True(t, f.manager.IsAuthenticated())
	require.Equal(t, "Bearer malformed-token", f.manager.AuthorizationHeaderValue())
	_, ok := f.manager.Identity()
	require.False(t, ok)
	require.Empty(t, f.scheduler.all())
}

func TestManager_Logout(t *testing.T) {
	f := newFixture(t)
	f.manager.Login(makeToken(t, "awa", "admin", "", testNow.Add(time.Minute)), "refresh-abc")
	timers := f.scheduler.pending()
	require.Len(t, timers, 1)

	f.manager.Logout()
	f.requireCleared(t, f.manager)
	require.True(t, timers[0].stopped.Load())

	// idempotent
	f.manager.Logout()
	f.requireCleared(t, f.manager)
	require.Zero(t, f.notices.Load())
}

func TestManager_RefreshFailureExpiresSession(t *testing.T) {
	f := newFixture(t)
	f.manager.Login(makeToken(t, "awa", "admin", "", testNow.Add(time.Minute)), "refresh-abc")
	f.refresher.respond(session.TokenPair{}, errors.ErrInvalidRefreshToken)

	require.False(t, f.manager.Refresh(context.Background()))

	f.requireCleared(t, f.manager)
	require.Equal(t, int32(1), f.notices.Load())
	require.Empty(t, f.scheduler.pending())
}

func TestManager_RefreshResponseWithoutAccessTokenFails(t *testing.T) {
	f := newFixture(t)
	f.manager.Login(makeToken(t, "awa", "admin", "", testNow.Add(time.Minute)), "refresh-abc")
	f.refresher.respond(session.TokenPair{Refresh: "rotated"}, nil)

	require.False(t, f.manager.Refresh(context.Background()))
	f.requireCleared(t, f.manager)
	require.Equal(t, int32(1), f.notices.Load())
}

func TestManager_RefreshWithoutRefreshToken(t *testing.T) {
	f := newFixture(t)
	f.manager.Login(makeToken(t, "awa", "admin", "", testNow.Add(time.Minute)), "")

	require.False(t, f.manager.Refresh(context.Background()))

	require.Zero(t, f.refresher.callCount())
	f.requireCleared(t, f.manager)
}

func TestManager_RefreshRotation(t *testing.T) {
	t.Run("rotated refresh token replaces the old one", func(t *testing.T) {
		f := newFixture(t)
		f.manager.Login(makeToken(t, "awa", "admin", "", testNow.Add(time.Minute)), "refresh-1")
		f.refresher.respond(session.TokenPair{
			Access:  makeToken(t, "awa", "admin", "", testNow.Add(time.Hour)),
			Refresh: "refresh-2",
		}, nil)

		require.True(t, f.manager.Refresh(context.Background()))

		stored, err := f.store.Get(session.RefreshTokenKey)
		require.NoError(t, err)
		require.Equal(t, "refresh-2", stored)

		require.True(t, f.manager.Refresh(context.Background()))
		require.Equal(t, "refresh-2", f.refresher.lastCall())
	})

	t.Run("old refresh token kept without rotation", func(t *testing.T) {
		f := newFixture(t)
		f.manager.Login(makeToken(t, "awa", "admin", "", testNow.Add(time.Minute)), "refresh-1")
		f.refresher.respond(session.TokenPair{
			Access: makeToken(t, "awa", "admin", "", testNow.Add(time.Hour)),
		}, nil)

		require.True(t, f.manager.Refresh(context.Background()))

		stored, err := f.store.Get(session.RefreshTokenKey)
		require.NoError(t, err)
		require.Equal(t, "refresh-1", stored)
	})
}

func TestManager_ConcurrentRefreshesShareOneCall(t *testing.T) {
	f := newFixture(t)
	f.manager.Login(makeToken(t, "awa", "admin", "", testNow.Add(time.Minute)), "refresh-abc")
	f.refresher.respond(session.TokenPair{
		Access: makeToken(t, "awa", "admin", "", testNow.Add(time.Hour)),
	}, nil)
	release := f.refresher.block()

	const callers = 3
	results := make([]bool, callers)
	var wg sync.WaitGroup
	wg.Add(callers)
	for i := 0; i < callers; i++ {
		go func(i int) {
			defer wg.Done()
			results[i] = f.manager.Refresh(context.Background())
		}(i)
	}

	<-f.refresher.entered
	// let the remaining callers join the in-flight refresh
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	require.Equal(t, 1, f.refresher.callCount())
	for _, ok := range results {
		require.True(t, ok)
	}
}

func TestManager_RefreshAfterReject(t *testing.T) {
	t.Run("token already replaced", func(t *testing.T) {
		f := newFixture(t)
		current := makeToken(t, "awa", "admin", "", testNow.Add(time.Hour))
		f.manager.Login(current, "refresh-abc")

		require.True(t, f.manager.RefreshAfterReject(context.Background(), "some-older-token"))
		require.Zero(t, f.refresher.callCount())
	})

	t.Run("rejected current token", func(t *testing.T) {
		f := newFixture(t)
		current := makeToken(t, "awa", "admin", "", testNow.Add(time.Hour))
		f.manager.Login(current, "refresh-abc")
		f.refresher.respond(session.TokenPair{
			Access: makeToken(t, "awa", "admin", "", testNow.Add(2*time.Hour)),
		}, nil)

		require.True(t, f.manager.RefreshAfterReject(context.Background(), current))
		require.Equal(t, 1, f.refresher.callCount())
		require.NotEqual(t, "Bearer "+current, f.manager.AuthorizationHeaderValue())
	})

	t.Run("no refresh token", func(t *testing.T) {
		f := newFixture(t)
		current := makeToken(t, "awa", "admin", "", testNow.Add(time.Hour))
		f.manager.Login(current, "")

		require.False(t, f.manager.RefreshAfterReject(context.Background(), current))
		require.Zero(t, f.refresher.callCount())
	})
}

func TestManager_LogoutDuringRefreshDiscardsResult(t *testing.T) {
	f := newFixture(t)
	f.manager.Login(makeToken(t, "awa", "admin", "", testNow.Add(time.Minute)), "refresh-abc")
	f.refresher.respond(session.TokenPair{
		Access:  makeToken(t, "awa", "admin", "", testNow.Add(time.Hour)),
		Refresh: "refresh-new",
	}, nil)
	release := f.refresher.block()

	done := make(chan bool, 1)
	go func() { done <- f.manager.Refresh(context.Background()) }()

	<-f.refresher.entered
	f.manager.Logout()
	close(release)

	require.False(t, <-done)
	f.requireCleared(t, f.manager)
	require.Zero(t, f.notices.Load())
}

func TestManager_RefreshCallerContextCancelled(t *testing.T) {
	f := newFixture(t)
	f.manager.Login(makeToken(t, "awa", "admin", "", testNow.Add(time.Minute)), "refresh-abc")
	f.refresher.respond(session.TokenPair{
		Access: makeToken(t, "awa", "admin", "", testNow.Add(time.Hour)),
	}, nil)
	release := f.refresher.block()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan bool, 1)
	go func() { done <- f.manager.Refresh(ctx) }()

	<-f.refresher.entered
	cancel()
	require.False(t, <-done)

	// the refresh itself still completes for everyone else
	close(release)
	require.Eventually(t, func() bool {
		id, ok := f.manager.Identity()
		return ok && id.ExpiresAt.Equal(testNow.Add(time.Hour).Truncate(time.Second))
	}, time.Second, 10*time.Millisecond)
}

func TestManager_RestoresPersistedSession(t *testing.T) {
	f := newFixture(t)
	access := makeToken(t, "awa", "viewer", "Mali", testNow.Add(time.Minute))
	require.NoError(t, f.store.Set(session.AccessTokenKey, access))
	require.NoError(t, f.store.Set(session.RefreshTokenKey, "refresh-abc"))

	m := f.newManager(t)

	require.True(t, m.IsAuthenticated())
	require.True(t, m.HasRefreshToken())
	id, ok := m.Identity()
	require.True(t, ok)
	require.Equal(t, "Mali", id.CountryScope)
}

func TestManager_ExternalClearLogsOut(t *testing.T) {
	f := newFixture(t)
	f.manager.Login(makeToken(t, "awa", "admin", "", testNow.Add(time.Minute)), "refresh-abc")

	require.NoError(t, f.store.Delete(session.AccessTokenKey))

	require.Eventually(t, func() bool { return !f.manager.IsAuthenticated() }, time.Second, 10*time.Millisecond)
	f.requireCleared(t, f.manager)
	require.Zero(t, f.refresher.callCount())
	require.Zero(t, f.notices.Load())
}

func TestManager_LogoutInOneSessionPropagates(t *testing.T) {
	f := newFixture(t)
	f.manager.Login(makeToken(t, "awa", "admin", "", testNow.Add(time.Minute)), "refresh-abc")

	other := f.newManager(t)
	require.True(t, other.IsAuthenticated())

	f.manager.Logout()

	require.Eventually(t, func() bool { return !other.IsAuthenticated() }, time.Second, 10*time.Millisecond)
	f.requireCleared(t, other)
	require.Zero(t, f.refresher.callCount())
}

func TestManager_OwnLogoutEchoIgnoredAfterRelogin(t *testing.T) {
	f := newFixtureWithDelay(t, 30*time.Millisecond)
	f.manager.Login(makeToken(t, "awa", "admin", "", testNow.Add(time.Minute)), "refresh-1")
	f.manager.Logout()
	f.manager.Login(makeToken(t, "moussa", "viewer", "", testNow.Add(time.Minute)), "refresh-2")

	// give the delete notifications time to arrive
	time.Sleep(100 * time.Millisecond)

	require.True(t, f.manager.IsAuthenticated())
	id, ok := f.manager.Identity()
	require.True(t, ok)
	require.Equal(t, "moussa", id.Username)
}

func TestManager_LogoutElsewhereWinsOverPendingRefresh(t *testing.T) {
	f := newFixtureWithDelay(t, 100*time.Millisecond)
	f.manager.Login(makeToken(t, "awa", "admin", "", testNow.Add(time.Minute)), "refresh-abc")
	other := f.newManager(t)
	require.True(t, other.IsAuthenticated())

	f.refresher.respond(session.TokenPair{
		Access:  makeToken(t, "awa", "admin", "", testNow.Add(time.Hour)),
		Refresh: "refresh-new",
	}, nil)
	release := f.refresher.block()

	done := make(chan bool, 1)
	go func() { done <- other.Refresh(context.Background()) }()

	<-f.refresher.entered
	f.manager.Logout()
	close(release)

	// the logout signal has not reached other yet, the store already tells
	require.False(t, <-done)
	f.requireCleared(t, other)

	time.Sleep(200 * time.Millisecond)
	f.requireCleared(t, other)
	require.Zero(t, f.notices.Load())
}

func TestManager_LateClearRemovesRefreshedTokens(t *testing.T) {
	f := newFixtureWithDelay(t, 50*time.Millisecond)
	f.manager.Login(makeToken(t, "awa", "admin", "", testNow.Add(time.Minute)), "refresh-abc")

	refreshed := makeToken(t, "awa", "admin", "", testNow.Add(time.Hour))
	f.refresher.respond(session.TokenPair{Access: refreshed}, nil)
	require.True(t, f.manager.Refresh(context.Background()))

	// Another session clears the slot and the refreshed token lands right
	// after it, before the clear is observed here.
	require.NoError(t, f.store.Delete(session.AccessTokenKey))
	require.NoError(t, f.store.Set(session.AccessTokenKey, refreshed))

	require.Eventually(t, func() bool { return !f.manager.IsAuthenticated() }, time.Second, 10*time.Millisecond)
	f.requireCleared(t, f.manager)
}

func TestManager_ClearThenOtherLoginKeepsOtherTokens(t *testing.T) {
	f := newFixtureWithDelay(t, 50*time.Millisecond)
	f.manager.Login(makeToken(t, "awa", "admin", "", testNow.Add(time.Minute)), "refresh-abc")

	newer := makeToken(t, "moussa", "viewer", "", testNow.Add(time.Minute))
	require.NoError(t, f.store.Delete(session.AccessTokenKey))
	require.NoError(t, f.store.Set(session.AccessTokenKey, newer))

	require.Eventually(t, func() bool { return !f.manager.IsAuthenticated() }, time.Second, 10*time.Millisecond)
	current, err := f.store.Get(session.AccessTokenKey)
	require.NoError(t, err)
	require.Equal(t, newer, current)
}

func TestManager_Token(t *testing.T) {
	f := newFixture(t)

	_, err := f.manager.Token()
	require.True(t, errors.Is(err, errors.ErrNotAuthenticated))

	exp := testNow.Add(time.Minute)
	access := makeToken(t, "awa", "admin", "", exp)
	f.manager.Login(access, "refresh-abc")

	tok, err := f.manager.Token()
	require.NoError(t, err)
	require.Equal(t, access, tok.AccessToken)
	require.Equal(t, "Bearer", tok.TokenType)
	require.True(t, tok.Expiry.Equal(exp))
}
