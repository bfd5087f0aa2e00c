package session_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/enertrack-console/session"
	"github.com/jrsteele09/enertrack-console/store/memstore"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const testSecret = "session-test-secret"

var testNow = time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

func makeToken(t *testing.T, username, role, pays string, exp time.Time) string {
	t.Helper()

	claims := jwtlib.MapClaims{
		"username": username,
		"role":     role,
		"exp":      exp.Unix(),
		"iat":      testNow.Unix(),
	}
	if pays != "" {
		claims["pays"] = pays
	}
	tok, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return tok
}

// fakeRefresher records calls and can be made to block until released.
type fakeRefresher struct {
	mu       sync.Mutex
	calls    []string
	response session.TokenPair
	err      error
	entered  chan struct{}
	release  chan struct{}
}

func newFakeRefresher() *fakeRefresher {
	return &fakeRefresher{entered: make(chan struct{}, 16)}
}

func (f *fakeRefresher) Refresh(ctx context.Context, refreshToken string) (session.TokenPair, error) {
	f.mu.Lock()
	f.calls = append(f.calls, refreshToken)
	resp, err, release := f.response, f.err, f.release
	f.mu.Unlock()

	f.entered <- struct{}{}
	if release != nil {
		<-release
	}
	return resp, err
}

func (f *fakeRefresher) respond(resp session.TokenPair, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.response, f.err = resp, err
}

func (f *fakeRefresher) block() chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.release = make(chan struct{})
	return f.release
}

func (f *fakeRefresher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeRefresher) lastCall() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return ""
	}
	return f.calls[len(f.calls)-1]
}

type fakeTimer struct {
	delay   time.Duration
	fn      func()
	stopped atomic.Bool
	fired   atomic.Bool
}

func (t *fakeTimer) Stop() bool {
	return !t.stopped.Swap(true)
}

// fire runs the callback the way time.AfterFunc would, minus the goroutine.
func (t *fakeTimer) fire() {
	if t.stopped.Load() {
		return
	}
	t.fired.Store(true)
	t.fn()
}

type fakeScheduler struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (s *fakeScheduler) AfterFunc(d time.Duration, fn func()) session.Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &fakeTimer{delay: d, fn: fn}
	s.timers = append(s.timers, t)
	return t
}

func (s *fakeScheduler) all() []*fakeTimer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*fakeTimer(nil), s.timers...)
}

func (s *fakeScheduler) pending() []*fakeTimer {
	var out []*fakeTimer
	for _, t := range s.all() {
		if !t.stopped.Load() && !t.fired.Load() {
			out = append(out, t)
		}
	}
	return out
}

// delayedStore hands watch callbacks over late, the way fsnotify and Redis
// pub/sub deliver them in practice.
type delayedStore struct {
	*memstore.Store
	delay time.Duration
}

func (s delayedStore) Watch(key string, fn func(value string)) (func(), error) {
	return s.Store.Watch(key, func(value string) {
		time.AfterFunc(s.delay, func() { fn(value) })
	})
}

type fixture struct {
	store     *memstore.Store
	shared    session.Store
	refresher *fakeRefresher
	scheduler *fakeScheduler
	notices   *atomic.Int32
	manager   *session.Manager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithDelay(t, 0)
}

// newFixtureWithDelay builds a fixture whose managers see store changes delay late.
func newFixtureWithDelay(t *testing.T, delay time.Duration) *fixture {
	t.Helper()
	f := &fixture{
		store:     memstore.New(),
		refresher: newFakeRefresher(),
		scheduler: &fakeScheduler{},
		notices:   &atomic.Int32{},
	}
	f.shared = f.store
	if delay > 0 {
		f.shared = delayedStore{Store: f.store, delay: delay}
	}
	f.manager = f.newManager(t)
	return f
}

// newManager creates another manager over the fixture's store, like a second tab.
func (f *fixture) newManager(t *testing.T) *session.Manager {
	t.Helper()
	m, err := session.NewManager(f.shared, f.refresher,
		session.WithLogger(zerolog.Nop()),
		session.WithNowFunc(func() time.Time { return testNow }),
		session.WithAfterFunc(f.scheduler.AfterFunc),
		session.WithNotifier(session.NotifierFunc(func() { f.notices.Add(1) })),
	)
	require.NoError(t, err)
	t.Cleanup(m.Close)
	return m
}

func (f *fixture) requireCleared(t *testing.T, m *session.Manager) {
	t.Helper()

	require.False(t, m.IsAuthenticated())
	require.False(t, m.HasRefreshToken())
	require.Empty(t, m.AuthorizationHeaderValue())
	_, ok := m.Identity()
	require.False(t, ok)

	access, err := f.store.Get(session.AccessTokenKey)
	require.NoError(t, err)
	require.Empty(t, access)
	refresh, err := f.store.Get(session.RefreshTokenKey)
	require.NoError(t, err)
	require.Empty(t, refresh)
}
