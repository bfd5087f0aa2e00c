package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jrsteele09/enertrack-console/internal/config"
	"github.com/stretchr/testify/require"
)

func TestEnvVars_Defaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("ENV", "")
	t.Setenv("ENERTRACK_API_URL", "")

	c := config.EnvVars{}
	require.Equal(t, ":8000", c.GetPort())
	require.Equal(t, "DEV", c.GetEnv())
	require.Equal(t, "http://localhost:8000/api", c.GetAPIBaseURL())
}

func TestEnvVars_PortWithColon(t *testing.T) {
	t.Setenv("PORT", ":9090")
	require.Equal(t, ":9090", config.EnvVars{}.GetPort())
}

func TestSession_StoreKind(t *testing.T) {
	t.Run("defaults to file", func(t *testing.T) {
		t.Setenv("ENERTRACK_STORE", "")
		require.Equal(t, config.StoreFile, config.Session{}.GetStoreKind())
	})

	t.Run("redis", func(t *testing.T) {
		t.Setenv("ENERTRACK_STORE", "redis")
		require.Equal(t, config.StoreRedis, config.Session{}.GetStoreKind())
	})

	t.Run("unknown falls back to file", func(t *testing.T) {
		t.Setenv("ENERTRACK_STORE", "sqlite")
		require.Equal(t, config.StoreFile, config.Session{}.GetStoreKind())
	})
}

func TestGetDurationEnv(t *testing.T) {
	t.Setenv("ENERTRACK_REFRESH_MARGIN", "")
	require.Equal(t, 10*time.Second, config.Session{}.GetRefreshMargin())

	t.Setenv("ENERTRACK_REFRESH_MARGIN", "30s")
	require.Equal(t, 30*time.Second, config.Session{}.GetRefreshMargin())

	t.Setenv("ENERTRACK_REFRESH_MARGIN", "5")
	require.Equal(t, 5*time.Second, config.Session{}.GetRefreshMargin())

	t.Setenv("ENERTRACK_REFRESH_MARGIN", "soon")
	require.Equal(t, 10*time.Second, config.Session{}.GetRefreshMargin())
}

func TestCors_AllowedOrigins(t *testing.T) {
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")
	origins := config.Cors{}.GetAllowedOrigins()
	require.True(t, origins.IsAllowedOrigin("https://a.example.com"))
	require.True(t, origins.IsAllowedOrigin("https://b.example.com"))
	require.False(t, origins.IsAllowedOrigin("https://c.example.com"))
	require.Equal(t, "https://a.example.com, https://b.example.com", origins.String())
}

func TestCors_MethodsAndHeaders(t *testing.T) {
	t.Setenv("CORS_ALLOWED_METHODS", "")
	t.Setenv("CORS_ALLOWED_HEADERS", "Authorization ,X-Request-ID,")
	require.Equal(t, "GET, POST, PUT, DELETE, OPTIONS", config.Cors{}.GetAllowedMethods())
	require.Equal(t, "Authorization, X-Request-ID", config.Cors{}.GetAllowedHeaders())
}

func TestNewFromFiles(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("MOCK_SIGNER=rs256\n"), 0o600))

	// godotenv does not override variables that are already set
	t.Setenv("MOCK_SIGNER", "")
	os.Unsetenv("MOCK_SIGNER")

	c, err := config.NewFromFiles(envFile)
	require.NoError(t, err)
	require.Equal(t, config.SignerRS256, c.GetSignerType())
}

func TestBackend_RefreshTokenLength(t *testing.T) {
	require.Equal(t, 32, config.Backend{}.GetRefreshTokenLength())

	t.Setenv("MOCK_REFRESH_TOKEN_LENGTH", "48")
	require.Equal(t, 48, config.Backend{}.GetRefreshTokenLength())

	t.Setenv("MOCK_REFRESH_TOKEN_LENGTH", "-1")
	require.Equal(t, 32, config.Backend{}.GetRefreshTokenLength())
}
