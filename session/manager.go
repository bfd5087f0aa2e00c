package session

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jrsteele09/enertrack-console/internal/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// Manager owns the access/refresh token pair of one client session. It is the
// only writer of the token slots in its Store; everything else reads through it.
//
// Every login and logout starts a new generation. Timer callbacks and refresh
// completions carry the generation they were started under and are dropped
// once it is no longer current, so a logout always wins over a refresh that
// was already in flight.
type Manager struct {
	store          Store
	refresher      Refresher
	notifier       Notifier
	observer       Observer
	log            zerolog.Logger
	now            func() time.Time
	afterFunc      AfterFunc
	margin         time.Duration
	refreshTimeout time.Duration

	mu         sync.RWMutex
	access     string
	refresh    string
	identity   *Identity
	generation uint64
	timer      Timer

	// loginAccess is the access token this manager last wrote on a login or
	// restored at startup. Refreshed tokens never replace it.
	loginAccess string

	flight  singleflight.Group
	unwatch func()
}

// NewManager creates a manager over store, restoring any token pair already
// persisted there, and starts watching the access token slot for logouts made
// by other sessions sharing the store.
func NewManager(store Store, refresher Refresher, options ...ManagerOption) (*Manager, error) {
	if store == nil {
		return nil, fmt.Errorf("[session NewManager] store is required")
	}
	if refresher == nil {
		return nil, fmt.Errorf("[session NewManager] refresher is required")
	}

	m := &Manager{
		store:          store,
		refresher:      refresher,
		notifier:       nopNotifier{},
		observer:       nopObserver{},
		log:            defaultLogger(),
		now:            time.Now,
		afterFunc:      realAfterFunc,
		margin:         DefaultRefreshMargin,
		refreshTimeout: DefaultRefreshTimeout,
	}

	for _, opt := range options {
		opt(m)
	}

	unwatch, err := store.Watch(AccessTokenKey, m.onAccessSlotChanged)
	if err != nil {
		return nil, fmt.Errorf("[session NewManager] failed to watch access token slot: %w", err)
	}
	m.unwatch = unwatch

	m.restore()
	return m, nil
}

// Close stops the expiry timer and the store watch. Tokens stay persisted.
func (m *Manager) Close() {
	m.mu.Lock()
	m.stopTimerLocked()
	m.mu.Unlock()

	if m.unwatch != nil {
		m.unwatch()
	}
}

// Login stores a fresh token pair, decodes the identity and re-arms the
// expiry timer. An undecodable access token still counts as authenticated.
func (m *Manager) Login(accessToken, refreshToken string) {
	if strings.TrimSpace(accessToken) == "" {
		m.log.Warn().Msg("login called without an access token, clearing session")
		m.Logout()
		return
	}

	m.mu.Lock()
	m.persistLocked(accessToken, refreshToken)
	m.applyLocked(accessToken, refreshToken)
	m.loginAccess = accessToken
	m.mu.Unlock()

	m.observer.LoggedIn()
}

// Logout clears the token pair and identity. It is idempotent.
func (m *Manager) Logout() {
	m.mu.Lock()
	wasAuthenticated := m.access != ""
	m.clearLocked()
	m.mu.Unlock()

	if wasAuthenticated {
		m.log.Info().Msg("logged out")
		m.observer.LoggedOut(LogoutManual)
	}
}

// Refresh exchanges the held refresh token for a new access token. Callers
// arriving while a refresh is already running wait for that one instead of
// starting another. A failed refresh logs the session out and raises the
// session-expired notice. The result reports whether the session is still
// authenticated with a fresh token.
func (m *Manager) Refresh(ctx context.Context) bool {
	m.mu.RLock()
	gen, refreshToken := m.generation, m.refresh
	m.mu.RUnlock()

	if refreshToken == "" {
		m.Logout()
		return false
	}
	return m.refreshFor(ctx, gen, refreshToken)
}

// RefreshAfterReject is called by the transport after the backend rejected
// rejectedToken. If the session has already moved on to another access token
// no network call is made.
func (m *Manager) RefreshAfterReject(ctx context.Context, rejectedToken string) bool {
	m.mu.RLock()
	gen, accessToken, refreshToken := m.generation, m.access, m.refresh
	m.mu.RUnlock()

	if refreshToken == "" {
		return false
	}
	if accessToken != "" && accessToken != rejectedToken {
		return true
	}
	return m.refreshFor(ctx, gen, refreshToken)
}

// AuthorizationHeaderValue returns "Bearer <access token>", or "" when anonymous.
func (m *Manager) AuthorizationHeaderValue() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.access == "" {
		return ""
	}
	return "Bearer " + m.access
}

// IsAuthenticated reports whether an access token is held. Expiry is not
// checked here; it is enforced by the refresh timer and 401 handling.
func (m *Manager) IsAuthenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.access != ""
}

// Identity returns the identity decoded from the current access token.
func (m *Manager) Identity() (Identity, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.identity == nil {
		return Identity{}, false
	}
	return *m.identity, true
}

func (m *Manager) HasRefreshToken() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.refresh != ""
}

func (m *Manager) restore() {
	accessToken, err := m.store.Get(AccessTokenKey)
	if err != nil {
		m.log.Warn().Err(err).Msg("failed to read persisted access token")
		return
	}
	if accessToken == "" {
		return
	}

	refreshToken, err := m.store.Get(RefreshTokenKey)
	if err != nil {
		m.log.Warn().Err(err).Msg("failed to read persisted refresh token")
	}

	m.mu.Lock()
	m.applyLocked(accessToken, refreshToken)
	m.loginAccess = accessToken
	m.mu.Unlock()
	m.log.Debug().Msg("restored persisted session")
}

// applyLocked installs a token pair in memory and starts a new generation.
func (m *Manager) applyLocked(accessToken, refreshToken string) {
	m.generation++
	m.stopTimerLocked()
	m.access, m.refresh, m.identity = accessToken, refreshToken, nil

	identity, err := DecodeIdentity(accessToken)
	if err != nil {
		m.log.Warn().Err(err).Msg("access token could not be decoded")
		return
	}
	m.identity = &identity

	if refreshToken != "" {
		m.armTimerLocked(identity.ExpiresAt)
	}
}

func (m *Manager) persistLocked(accessToken, refreshToken string) {
	if err := m.store.Set(AccessTokenKey, accessToken); err != nil {
		m.log.Error().Err(err).Msg("failed to persist access token")
	}

	var err error
	if refreshToken == "" {
		err = m.store.Delete(RefreshTokenKey)
	} else {
		err = m.store.Set(RefreshTokenKey, refreshToken)
	}
	if err != nil {
		m.log.Error().Err(err).Msg("failed to persist refresh token")
	}
}

// resetLocked drops the whole triple from memory in one step.
func (m *Manager) resetLocked() {
	m.generation++
	m.stopTimerLocked()
	m.access, m.refresh, m.identity = "", "", nil
	m.loginAccess = ""
}

// clearLocked drops the triple in memory and in the store.
func (m *Manager) clearLocked() {
	m.resetLocked()

	if err := m.store.Delete(AccessTokenKey); err != nil {
		m.log.Error().Err(err).Msg("failed to clear access token slot")
	}
	if err := m.store.Delete(RefreshTokenKey); err != nil {
		m.log.Error().Err(err).Msg("failed to clear refresh token slot")
	}
}

func (m *Manager) armTimerLocked(expiresAt time.Time) {
	m.stopTimerLocked()

	delay := expiresAt.Sub(m.now()) - m.margin
	if delay < 0 {
		delay = 0
	}

	gen := m.generation
	m.timer = m.afterFunc(delay, func() { m.onExpiryTimer(gen) })
	m.log.Debug().Dur("delay", delay).Time("expires_at", expiresAt).Msg("refresh scheduled")
}

func (m *Manager) stopTimerLocked() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

func (m *Manager) onExpiryTimer(gen uint64) {
	m.mu.Lock()
	if m.generation != gen {
		m.mu.Unlock()
		return
	}
	m.timer = nil
	refreshToken := m.refresh
	m.mu.Unlock()

	m.log.Debug().Msg("access token about to expire, refreshing")
	m.refreshFor(context.Background(), gen, refreshToken)
}

func (m *Manager) refreshFor(ctx context.Context, gen uint64, refreshToken string) bool {
	ch := m.flight.DoChan(strconv.FormatUint(gen, 10), func() (any, error) {
		return nil, m.doRefresh(gen, refreshToken)
	})

	select {
	case res := <-ch:
		return res.Err == nil
	case <-ctx.Done():
		return false
	}
}

func (m *Manager) doRefresh(gen uint64, refreshToken string) error {
	start := m.now()

	ctx, cancel := context.WithTimeout(context.Background(), m.refreshTimeout)
	defer cancel()

	pair, err := m.refresher.Refresh(ctx, refreshToken)
	if err == nil && strings.TrimSpace(pair.Access) == "" {
		err = errors.Wrapf(errors.ErrInvalidToken, "refresh response has no access token")
	}

	m.mu.Lock()
	if m.generation != gen {
		m.mu.Unlock()
		m.log.Debug().Msg("discarding refresh result of a superseded session")
		return errors.ErrSessionSuperseded
	}

	// Another session may have logged out while the call was in flight and
	// its signal not arrived yet. Writing now would resurrect the session.
	if m.accessSlotEmptyLocked() {
		m.clearLocked()
		m.mu.Unlock()

		m.log.Info().Msg("access token cleared by another session during refresh, logged out")
		m.observer.LoggedOut(LogoutExternal)
		return fmt.Errorf("%w: logged out by another session", errors.ErrSessionSuperseded)
	}

	if err != nil {
		m.clearLocked()
		m.mu.Unlock()

		m.log.Warn().Err(err).Msg("token refresh failed, session expired")
		m.observer.RefreshCompleted(false, m.now().Sub(start))
		m.observer.LoggedOut(LogoutRefreshFailed)
		m.notifier.SessionExpired()
		return fmt.Errorf("%w: %v", errors.ErrRefreshFailed, err)
	}

	nextRefresh := pair.Refresh
	if nextRefresh == "" {
		nextRefresh = refreshToken
	}
	m.persistLocked(pair.Access, nextRefresh)
	m.applyLocked(pair.Access, nextRefresh)
	m.mu.Unlock()

	m.log.Debug().Bool("rotated", pair.Refresh != "").Msg("access token refreshed")
	m.observer.RefreshCompleted(true, m.now().Sub(start))
	return nil
}

func (m *Manager) accessSlotEmptyLocked() bool {
	current, err := m.store.Get(AccessTokenKey)
	if err != nil {
		m.log.Warn().Err(err).Msg("failed to read access token slot")
		return false
	}
	return current == ""
}

// onAccessSlotChanged handles writes to the access slot, including those made
// by other sessions. A clear tears the local session down unless the slot now
// holds the token of this manager's own later login, which makes the event a
// stale echo of its own logout. A slot refilled by this manager's refresh does
// not count: that write raced the clear and is removed again.
func (m *Manager) onAccessSlotChanged(value string) {
	if value != "" {
		return
	}

	m.mu.Lock()
	if m.access == "" {
		m.mu.Unlock()
		return
	}
	current, err := m.store.Get(AccessTokenKey)
	if err == nil && current != "" && current == m.loginAccess {
		m.mu.Unlock()
		return
	}
	if err == nil && current != "" && current != m.access {
		// Another session has logged in since; leave its tokens alone.
		m.resetLocked()
	} else {
		m.clearLocked()
	}
	m.mu.Unlock()

	m.log.Info().Msg("access token cleared by another session, logged out")
	m.observer.LoggedOut(LogoutExternal)
}
