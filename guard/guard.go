package guard

import (
	"github.com/jrsteele09/enertrack-console/session"
)

// Decision is the outcome of evaluating access to a protected resource.
type Decision int

const (
	Allow Decision = iota
	RedirectLogin
	Forbidden
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case RedirectLogin:
		return "redirect_login"
	case Forbidden:
		return "forbidden"
	default:
		return "unknown"
	}
}

// Viewer is the read-only view of a session the guard needs.
type Viewer interface {
	IsAuthenticated() bool
	Identity() (session.Identity, bool)
}

// Evaluate decides whether viewer may access a resource restricted to
// allowedRoles. No roles means any authenticated user is allowed. A session
// whose token could not be decoded has no role and is forbidden from
// role-restricted resources.
func Evaluate(viewer Viewer, allowedRoles ...string) Decision {
	if viewer == nil || !viewer.IsAuthenticated() {
		return RedirectLogin
	}
	if len(allowedRoles) == 0 {
		return Allow
	}
	identity, ok := viewer.Identity()
	if !ok || !identity.HasRole(allowedRoles...) {
		return Forbidden
	}
	return Allow
}
