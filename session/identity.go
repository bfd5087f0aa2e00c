package session

import (
	"fmt"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/enertrack-console/internal/errors"
)

// Claims is the access token payload issued by the EnerTrack backend.
type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	Pays     string `json:"pays,omitempty"` // Country the user is scoped to, if any
	jwtlib.RegisteredClaims
}

// Identity is the user-facing view of a decoded access token.
type Identity struct {
	Username     string
	Role         string
	CountryScope string // Empty when the user is not restricted to a country
	ExpiresAt    time.Time
}

// HasRole reports whether the identity holds one of the given roles. Roles
// compare exactly, so "Admin" is not "admin".
func (i Identity) HasRole(roles ...string) bool {
	for _, r := range roles {
		if i.Role == r {
			return true
		}
	}
	return false
}

// DecodeIdentity reads the claims of an access token without verifying its
// signature. The backend stays the authority on validity; the decoded claims
// are only used for display and expiry scheduling.
func DecodeIdentity(rawToken string) (Identity, error) {
	if strings.TrimSpace(rawToken) == "" {
		return Identity{}, errors.Wrapf(errors.ErrInvalidToken, "empty token")
	}

	var claims Claims
	if _, _, err := jwtlib.NewParser().ParseUnverified(rawToken, &claims); err != nil {
		return Identity{}, fmt.Errorf("%w: %v", errors.ErrInvalidToken, err)
	}

	switch {
	case strings.TrimSpace(claims.Username) == "":
		return Identity{}, errors.Wrapf(errors.ErrInvalidToken, "missing username claim")
	case strings.TrimSpace(claims.Role) == "":
		return Identity{}, errors.Wrapf(errors.ErrInvalidToken, "missing role claim")
	case claims.ExpiresAt == nil:
		return Identity{}, errors.Wrapf(errors.ErrInvalidToken, "missing exp claim")
	}

	return Identity{
		Username:     claims.Username,
		Role:         claims.Role,
		CountryScope: claims.Pays,
		ExpiresAt:    claims.ExpiresAt.Time,
	}, nil
}
