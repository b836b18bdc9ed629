package config

import (
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const jwtSecretFileVar = "JWT_SECRET_FILE"

type TokenConfig interface {
	GetJWTSecret() ([]byte, error)
	GetAccessTokenExpiry() time.Duration
	GetRefreshTokenExpiry() time.Duration
}

type SecurityConfig interface {
	GetSessionTTL() time.Duration
	GetResetTokenTTL() time.Duration
	GetLoginRateLimitWindow() time.Duration
	GetPasswordChangeRateLimitWindow() time.Duration
}

type BootstrapConfig interface {
	GetSuperUser() SuperUserCredentials
}

// SuperUserCredentials seeds the single superuser on startup. Empty fields disable seeding.
type SuperUserCredentials struct {
	Username string
	Email    string
	Password string
}

func (c SuperUserCredentials) IsSet() bool {
	return c.Username != "" && c.Email != "" && c.Password != ""
}

type Token struct{}

var _ TokenConfig = Token{}

// GetJWTSecret reads the signing secret from the file named by JWT_SECRET_FILE.
// A missing or empty file is an error; the process must not start without a secret.
func (Token) GetJWTSecret() ([]byte, error) {
	path := GetEnv(jwtSecretFileVar, "/run/secrets/jwt_secret")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "JWT secret file %q could not be read", path)
	}
	secret := strings.TrimSpace(string(data))
	if secret == "" {
		return nil, errors.Errorf("JWT secret file %q is empty", path)
	}
	return []byte(secret), nil
}

func (Token) GetAccessTokenExpiry() time.Duration {
	return 20 * time.Minute
}

func (Token) GetRefreshTokenExpiry() time.Duration {
	return 7 * 24 * time.Hour
}

type Security struct{}

var _ SecurityConfig = Security{}

func (Security) GetSessionTTL() time.Duration {
	return 3600 * time.Second
}

func (Security) GetResetTokenTTL() time.Duration {
	return 900 * time.Second
}

func (Security) GetLoginRateLimitWindow() time.Duration {
	return GetDuration("LOGIN_RATE_LIMIT_WINDOW", time.Second)
}

func (Security) GetPasswordChangeRateLimitWindow() time.Duration {
	return GetDuration("PASSWORD_CHANGE_RATE_LIMIT_WINDOW", time.Minute)
}

type Bootstrap struct{}

var _ BootstrapConfig = Bootstrap{}

func (Bootstrap) GetSuperUser() SuperUserCredentials {
	return SuperUserCredentials{
		Username: GetEnv("SUPERUSER_USERNAME", ""),
		Email:    GetEnv("SUPERUSER_EMAIL", ""),
		Password: GetEnv("SUPERUSER_PASSWORD", ""),
	}
}
