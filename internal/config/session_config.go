package config

import (
	"os"
	"path/filepath"
	"time"
)

type StoreKind string

const (
	StoreFile   StoreKind = "file"
	StoreMemory StoreKind = "memory"
	StoreRedis  StoreKind = "redis"
)

type Session struct{}

var _ SessionConfig = Session{}

func (Session) GetStoreKind() StoreKind {
	switch kind := StoreKind(GetEnv("ENERTRACK_STORE", string(StoreFile))); kind {
	case StoreMemory, StoreRedis:
		return kind
	default:
		return StoreFile
	}
}

// GetHomeFolder is where the file store keeps its token slots.
func (Session) GetHomeFolder() string {
	if home := os.Getenv("ENERTRACK_HOME"); home != "" {
		return home
	}
	userHome, err := os.UserHomeDir()
	if err != nil {
		return ".enertrack"
	}
	return filepath.Join(userHome, ".enertrack")
}

func (Session) GetRedisURL() string {
	return GetEnv("ENERTRACK_REDIS_URL", "redis://localhost:6379/0")
}

// GetRefreshMargin is how long before access token expiry the proactive refresh fires.
func (Session) GetRefreshMargin() time.Duration {
	return GetDurationEnv("ENERTRACK_REFRESH_MARGIN", 10*time.Second)
}

func (Session) GetRefreshTimeout() time.Duration {
	return GetDurationEnv("ENERTRACK_REFRESH_TIMEOUT", 15*time.Second)
}
