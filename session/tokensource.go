package session

import (
	"github.com/jrsteele09/enertrack-console/internal/errors"
	"golang.org/x/oauth2"
)

var _ oauth2.TokenSource = (*Manager)(nil)

// Token returns the current access token as an oauth2.Token. The expiry is
// taken from the decoded identity and left zero when the token is opaque.
func (m *Manager) Token() (*oauth2.Token, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.access == "" {
		return nil, errors.ErrNotAuthenticated
	}

	tok := &oauth2.Token{
		AccessToken: m.access,
		TokenType:   "Bearer",
	}
	if m.identity != nil {
		tok.Expiry = m.identity.ExpiresAt
	}
	return tok, nil
}
