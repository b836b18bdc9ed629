package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jrsteele09/go-collab-server/internal/config"
	"github.com/stretchr/testify/require"
)

// TestGetJWTSecret_MissingFile tests that a missing secret file is an error
func TestGetJWTSecret_MissingFile(t *testing.T) {
	t.Setenv("JWT_SECRET_FILE", filepath.Join(t.TempDir(), "absent"))

	_, err := config.Token{}.GetJWTSecret()
	require.Error(t, err)
}

// TestGetJWTSecret_EmptyFile tests that a whitespace-only secret is rejected
func TestGetJWTSecret_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jwt_secret")
	require.NoError(t, os.WriteFile(path, []byte("  \n"), 0o600))
	t.Setenv("JWT_SECRET_FILE", path)

	_, err := config.Token{}.GetJWTSecret()
	require.ErrorContains(t, err, "empty")
}

// TestGetJWTSecret_TrimsNewline tests the secret is read and trimmed
func TestGetJWTSecret_TrimsNewline(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jwt_secret")
	require.NoError(t, os.WriteFile(path, []byte("s3cret\n"), 0o600))
	t.Setenv("JWT_SECRET_FILE", path)

	secret, err := config.Token{}.GetJWTSecret()
	require.NoError(t, err)
	require.Equal(t, []byte("s3cret"), secret)
}

// TestNew_ConfigFile tests YAML values apply when the environment is unset, with ${VAR} expansion
func TestNew_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "PORT: 9090\nREDIS_HOST: ${TEST_REDIS_HOST}\nLOGIN_RATE_LIMIT_WINDOW: 3s\nSTORE_DRIVER: postgres\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("TEST_REDIS_HOST", "cache.internal")
	t.Setenv("PORT", "")
	t.Setenv("REDIS_HOST", "")
	t.Setenv("LOGIN_RATE_LIMIT_WINDOW", "")
	t.Setenv("STORE_DRIVER", "")
	resetFile(t)

	c, err := config.New()
	require.NoError(t, err)
	require.Equal(t, ":9090", c.GetPort())
	require.Equal(t, "cache.internal:6379", c.GetRedisAddr())
	require.Equal(t, 3*time.Second, c.GetLoginRateLimitWindow())
	require.Equal(t, config.StorePostgres, c.GetStoreDriver())
}

// TestNew_EnvOverridesFile tests the environment wins over the file
func TestNew_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("PORT: 9090\n"), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PORT", ":7000")
	resetFile(t)

	c, err := config.New()
	require.NoError(t, err)
	require.Equal(t, ":7000", c.GetPort())
}

// TestFixedPolicyValues tests the token and session lifetimes
func TestFixedPolicyValues(t *testing.T) {
	c, err := config.New()
	require.NoError(t, err)
	require.Equal(t, 20*time.Minute, c.GetAccessTokenExpiry())
	require.Equal(t, 7*24*time.Hour, c.GetRefreshTokenExpiry())
	require.Equal(t, time.Hour, c.GetSessionTTL())
	require.Equal(t, 15*time.Minute, c.GetResetTokenTTL())
}

// TestGetAllowedOrigins tests the comma separated origin list
func TestGetAllowedOrigins(t *testing.T) {
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example")
	origins := config.Cors{}.GetAllowedOrigins()
	require.True(t, origins.IsAllowedOrigin("https://a.example"))
	require.True(t, origins.IsAllowedOrigin("https://b.example"))
	require.False(t, origins.IsAllowedOrigin("https://c.example"))
}

// resetFile clears loaded file values once the test finishes
func resetFile(t *testing.T) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{}\n"), 0o600))
	t.Cleanup(func() { _ = config.LoadFile(path) })
}
