package session

import "time"

// Notifier surfaces user-facing session events.
type Notifier interface {
	// SessionExpired is called after a forced logout caused by a failed refresh.
	SessionExpired()
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func()

func (f NotifierFunc) SessionExpired() { f() }

type LogoutReason string

const (
	LogoutManual        LogoutReason = "manual"
	LogoutRefreshFailed LogoutReason = "refresh_failed"
	LogoutExternal      LogoutReason = "external"
)

// Observer receives lifecycle events, typically for metrics.
type Observer interface {
	LoggedIn()
	LoggedOut(reason LogoutReason)
	RefreshCompleted(success bool, duration time.Duration)
}

type nopNotifier struct{}

func (nopNotifier) SessionExpired() {}

type nopObserver struct{}

func (nopObserver) LoggedIn()                            {}
func (nopObserver) LoggedOut(LogoutReason)               {}
func (nopObserver) RefreshCompleted(bool, time.Duration) {}
