package config

import (
	"strings"
	"time"
)

type SignerType string

const (
	SignerHS256 SignerType = "hs256"
	SignerRS256 SignerType = "rs256"
)

// Backend configures the mock EnerTrack backend used for local development.
type Backend struct{}

var _ BackendConfig = Backend{}

func (Backend) GetSignerType() SignerType {
	if strings.EqualFold(GetEnv("MOCK_SIGNER", ""), string(SignerRS256)) {
		return SignerRS256
	}
	return SignerHS256
}

func (Backend) GetSigningSecret() string {
	return GetEnv("MOCK_SIGNING_SECRET", "enertrack-dev-secret")
}

// GetSigningKeyFile is an optional PEM private key for the RS256 signer.
// When empty a key is generated at startup.
func (Backend) GetSigningKeyFile() string {
	return GetEnv("MOCK_SIGNING_KEY_FILE", "")
}

func (Backend) GetAccessTokenExpiry() time.Duration {
	return GetDurationEnv("MOCK_ACCESS_TTL", 5*time.Minute)
}

func (Backend) GetRefreshTokenExpiry() time.Duration {
	return GetDurationEnv("MOCK_REFRESH_TTL", 24*time.Hour)
}

func (Backend) GetRefreshTokenLength() int {
	return GetIntEnv("MOCK_REFRESH_TOKEN_LENGTH", 32)
}

func (Backend) GetRotateRefreshTokens() bool {
	return GetBoolEnv("MOCK_ROTATE_REFRESH", false)
}

func (Backend) GetAdminPassword() string {
	return GetEnv("MOCK_ADMIN_PASSWORD", "Admin1234")
}

func (Backend) GetViewerPassword() string {
	return GetEnv("MOCK_VIEWER_PASSWORD", "Viewer1234")
}
