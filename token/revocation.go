package token

import (
	"sync"
	"time"
)

// Denylist holds the jti of access tokens revoked before they expire. An
// entry only needs to outlive the token it denies.
type Denylist interface {
	Deny(jti string, until time.Time)
	IsDenied(jti string, now time.Time) bool
	Prune(now time.Time)
}

type memoryDenylist struct {
	mu      sync.Mutex
	entries map[string]time.Time
}

func NewMemoryDenylist() Denylist {
	return &memoryDenylist{entries: make(map[string]time.Time)}
}

func (d *memoryDenylist) Deny(jti string, until time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.entries[jti] = until
}

// Prune drops entries whose token has expired anyway.
func (d *memoryDenylist) Prune(now time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for jti, exp := range d.entries {
		if now.After(exp) {
			delete(d.entries, jti)
		}
	}
}

func (d *memoryDenylist) IsDenied(jti string, now time.Time) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	exp, ok := d.entries[jti]
	if !ok {
		return false
	}
	if now.After(exp) {
		delete(d.entries, jti)
		return false
	}
	return true
}
