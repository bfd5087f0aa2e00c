package config

import (
	"time"

	"github.com/joho/godotenv"
)

type Config interface {
	EnvConfig
	SessionConfig
	BackendConfig
	CorsConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
	GetAPIBaseURL() string
	GetHTTPTimeout() time.Duration
}

type SessionConfig interface {
	GetStoreKind() StoreKind
	GetHomeFolder() string
	GetRedisURL() string
	GetRefreshMargin() time.Duration
	GetRefreshTimeout() time.Duration
}

type BackendConfig interface {
	GetSignerType() SignerType
	GetSigningSecret() string
	GetSigningKeyFile() string
	GetAccessTokenExpiry() time.Duration
	GetRefreshTokenExpiry() time.Duration
	GetRefreshTokenLength() int
	GetRotateRefreshTokens() bool
	GetAdminPassword() string
	GetViewerPassword() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type mainConfig struct {
	EnvVars
	Session
	Backend
	Cors
}

// New loads an optional .env file from the working directory and returns a
// config backed by environment variables.
func New() Config {
	_ = godotenv.Load()
	return mainConfig{}
}

// NewFromFiles loads the given dotenv files without overriding variables that
// are already set.
func NewFromFiles(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil {
		return nil, err
	}
	return mainConfig{}, nil
}
