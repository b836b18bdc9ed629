package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jrsteele09/go-collab-server/auth"
	"github.com/jrsteele09/go-collab-server/kvstore"
	"github.com/jrsteele09/go-collab-server/kvstore/kvstoretest"
	"github.com/jrsteele09/go-collab-server/ratelimit"
	"github.com/jrsteele09/go-collab-server/sessions"
	"github.com/jrsteele09/go-collab-server/token"
	"github.com/jrsteele09/go-collab-server/users"
	fakeuserrepo "github.com/jrsteele09/go-collab-server/users/repofake"
	"github.com/stretchr/testify/require"
)

const (
	testPassword = "Secret1!"
	loginWindow  = time.Second
)

type testFixture struct {
	authService *auth.AuthService
	reset       *auth.PasswordResetService
	repo        *fakeuserrepo.FakeUserRepo
	store       *kvstore.RedisStore
	mr          *miniredis.Miniredis
	issuer      *token.Issuer
	sessions    *sessions.Manager
	revoked     *token.KVRevokedTokenCache
	mailer      *recordingMailer
}

type recordingMailer struct {
	emails []string
	links  []string
}

func (m *recordingMailer) SendPasswordReset(_ context.Context, email, link string) (string, error) {
	m.emails = append(m.emails, email)
	m.links = append(m.links, link)
	return link, nil
}

func setupTestFixture(t *testing.T) testFixture {
	t.Helper()

	store, mr := kvstoretest.New(t)
	repo := fakeuserrepo.NewFakeUserRepo()

	signer, err := token.NewHMACSigner([]byte("auth-test-secret"))
	require.NoError(t, err)
	issuer, err := token.NewIssuer(signer)
	require.NoError(t, err)

	sessionManager := sessions.NewManager(store, 3600*time.Second)
	limiter := ratelimit.New(store)
	revoked := token.NewKVRevokedTokenCache(store)

	authService, err := auth.NewAuthService(auth.Repos{Users: repo}, issuer, sessionManager, limiter,
		auth.WithLoginRateLimit(loginWindow),
		auth.WithPasswordChangeRateLimit(time.Minute),
		auth.WithRevokedTokenCache(revoked),
	)
	require.NoError(t, err)

	mailer := &recordingMailer{}
	reset, err := auth.NewPasswordResetService(repo, store, limiter, "http://localhost:3000/",
		auth.WithMailer(mailer),
		auth.WithResetRateLimit(time.Minute),
	)
	require.NoError(t, err)

	return testFixture{
		authService: authService,
		reset:       reset,
		repo:        repo,
		store:       store,
		mr:          mr,
		issuer:      issuer,
		sessions:    sessionManager,
		revoked:     revoked,
		mailer:      mailer,
	}
}

func ptr(s string) *string {
	return &s
}

func influencer(username, email string) auth.InfluencerRegistration {
	return auth.InfluencerRegistration{
		Username:        username,
		Email:           email,
		Password:        testPassword,
		ConfirmPassword: testPassword,
		FirstName:       "Alice",
		LastName:        "Liddell",
	}
}

func brand(username, email string) auth.BrandRegistration {
	return auth.BrandRegistration{
		Username:        username,
		Email:           email,
		Password:        testPassword,
		ConfirmPassword: testPassword,
		CompanyName:     "Acme Ltd",
		Website:         "https://acme.example.com",
	}
}

func (f testFixture) registerInfluencer(t *testing.T, username, email string) *users.Account {
	t.Helper()
	account, err := f.authService.RegisterInfluencer(context.Background(), influencer(username, email))
	require.NoError(t, err)
	return account
}

// login waits out the login throttle window before each attempt
func (f testFixture) login(role users.Role, username, password string) (*auth.LoginResult, error) {
	f.mr.FastForward(loginWindow)
	return f.authService.Login(context.Background(), role, auth.LoginRequest{Username: username, Password: password})
}

func (f testFixture) createAccount(t *testing.T, username string, role users.Role) *users.Account {
	t.Helper()
	hash, err := users.HashPassword(testPassword)
	require.NoError(t, err)
	account := &users.Account{Username: username, Email: username + "@example.com", PasswordHash: hash, Role: role}
	require.NoError(t, f.repo.Create(context.Background(), account))
	return account
}
