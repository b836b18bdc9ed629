package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/jrsteele09/go-collab-server/auth"
	apperrors "github.com/jrsteele09/go-collab-server/internal/errors"
	"github.com/jrsteele09/go-collab-server/ratelimit"
	"github.com/jrsteele09/go-collab-server/sessions"
	"github.com/jrsteele09/go-collab-server/token"
	"github.com/jrsteele09/go-collab-server/users"
	"github.com/stretchr/testify/require"
)

func requireKind(t *testing.T, err error, kind apperrors.Kind, message string) {
	t.Helper()
	require.Error(t, err)
	var appErr *apperrors.Error
	require.True(t, apperrors.As(err, &appErr), "expected classified error, got %v", err)
	require.Equal(t, kind, appErr.Kind)
	if message != "" {
		require.Equal(t, message, appErr.Message)
	}
}

// TestNewAuthService_RequiresDependencies tests constructor validation
func TestNewAuthService_RequiresDependencies(t *testing.T) {
	f := setupTestFixture(t)
	limiter := ratelimit.New(f.store)

	_, err := auth.NewAuthService(auth.Repos{}, f.issuer, f.sessions, limiter)
	require.Error(t, err)
	_, err = auth.NewAuthService(auth.Repos{Users: f.repo}, nil, f.sessions, limiter)
	require.Error(t, err)
	_, err = auth.NewAuthService(auth.Repos{Users: f.repo}, f.issuer, nil, limiter)
	require.Error(t, err)
	_, err = auth.NewAuthService(auth.Repos{Users: f.repo}, f.issuer, f.sessions, nil)
	require.Error(t, err)
}

// TestAuthService_RegisterInfluencer tests registration stores a hashed influencer account
func TestAuthService_RegisterInfluencer(t *testing.T) {
	f := setupTestFixture(t)

	account := f.registerInfluencer(t, " alice ", " A@X.com ")
	require.NotEmpty(t, account.ID)
	require.Equal(t, users.RoleInfluencer, account.Role)
	require.Equal(t, "a@x.com", account.Email)
	require.NotEqual(t, testPassword, account.PasswordHash)
	require.True(t, users.CheckPasswordHash(testPassword, account.PasswordHash))

	stored, err := f.repo.GetByID(context.Background(), account.ID)
	require.NoError(t, err)
	require.Equal(t, "alice", stored.Username)
}

// TestAuthService_RegisterDuplicate tests a second registration with a taken username or email is a conflict
func TestAuthService_RegisterDuplicate(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	f.registerInfluencer(t, "alice", "a@x.com")

	t.Run("same username different email", func(t *testing.T) {
		_, err := f.authService.RegisterInfluencer(ctx, influencer("alice", "other@x.com"))
		requireKind(t, err, apperrors.KindConflict, auth.MsgUserAlreadyExists)
		require.Contains(t, err.Error(), "already exists")
		require.Equal(t, 409, apperrors.StatusCode(err))
	})

	t.Run("same email as a brand", func(t *testing.T) {
		_, err := f.authService.RegisterBrand(ctx, brand("acme", "a@x.com"))
		requireKind(t, err, apperrors.KindConflict, auth.MsgUserAlreadyExists)
	})

	t.Run("padded and upper case email", func(t *testing.T) {
		_, err := f.authService.RegisterBrand(ctx, brand(" acme ", " A@X.COM "))
		requireKind(t, err, apperrors.KindConflict, auth.MsgUserAlreadyExists)
	})
}

// TestAuthService_RegisterValidation tests invalid registrations fail before touching the store
func TestAuthService_RegisterValidation(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		mod   func(*auth.BrandRegistration)
		field string
	}{
		{"missing username", func(r *auth.BrandRegistration) { r.Username = "" }, "username"},
		{"bad email", func(r *auth.BrandRegistration) { r.Email = "not-an-email" }, "email"},
		{"weak password", func(r *auth.BrandRegistration) { r.Password, r.ConfirmPassword = "password", "password" }, "password"},
		{"confirm mismatch", func(r *auth.BrandRegistration) { r.ConfirmPassword = "Secret2!" }, "confirmPassword"},
		{"bad website", func(r *auth.BrandRegistration) { r.Website = "acme" }, "website"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := brand("acme", "acme@x.com")
			tt.mod(&req)
			_, err := f.authService.RegisterBrand(ctx, req)
			requireKind(t, err, apperrors.KindValidation, "")

			var appErr *apperrors.Error
			require.True(t, apperrors.As(err, &appErr))
			require.Contains(t, appErr.Fields, tt.field)
		})
	}

	all, err := f.repo.List(ctx)
	require.NoError(t, err)
	require.Empty(t, all)
}

// TestAuthService_ValidateUser tests lookups are scoped to the role and the password is checked when given
func TestAuthService_ValidateUser(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	f.registerInfluencer(t, "alice", "a@x.com")

	t.Run("correct role and password", func(t *testing.T) {
		account, err := f.authService.ValidateUser(ctx, "alice", ptr(testPassword), users.RoleInfluencer)
		require.NoError(t, err)
		require.Equal(t, "alice", account.Username)
	})

	t.Run("by email", func(t *testing.T) {
		_, err := f.authService.ValidateUser(ctx, "a@x.com", ptr(testPassword), users.RoleInfluencer)
		require.NoError(t, err)
	})

	t.Run("other role with correct password", func(t *testing.T) {
		_, err := f.authService.ValidateUser(ctx, "alice", ptr(testPassword), users.RoleBrand)
		requireKind(t, err, apperrors.KindUnauthorized, auth.MsgUserNotFoundOrRoleMismatch)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := f.authService.ValidateUser(ctx, "alice", ptr("Wrong1!x"), users.RoleInfluencer)
		requireKind(t, err, apperrors.KindUnauthorized, auth.MsgInvalidPassword)
	})

	t.Run("no password skips verification", func(t *testing.T) {
		account, err := f.authService.ValidateUser(ctx, "alice", nil, users.RoleInfluencer)
		require.NoError(t, err)
		require.Equal(t, users.RoleInfluencer, account.Role)
	})
}

// TestAuthService_Login tests a login issues distinct tokens, stores a session and the refresh digest
func TestAuthService_Login(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	account := f.registerInfluencer(t, "alice", "a@x.com")

	result, err := f.login(users.RoleInfluencer, "alice", testPassword)
	require.NoError(t, err)
	require.NotEmpty(t, result.Tokens.AccessToken)
	require.NotEmpty(t, result.Tokens.RefreshToken)
	require.NotEqual(t, result.Tokens.AccessToken, result.Tokens.RefreshToken)

	claims, err := f.issuer.Verify(result.Tokens.AccessToken, token.TypeAccess)
	require.NoError(t, err)
	require.Equal(t, account.ID, claims.Subject)
	require.Equal(t, users.RoleInfluencer, claims.Role)
	require.Equal(t, "alice", claims.Username)

	session, err := f.sessions.GetSession(ctx, account.ID)
	require.NoError(t, err)
	require.NotNil(t, session)
	require.Equal(t, "alice", session.Username)
	require.Equal(t, 3600*time.Second, f.mr.TTL(sessions.Key(account.ID)))

	sessionClaims, err := f.issuer.Verify(result.SessionToken, token.TypeSession)
	require.NoError(t, err)
	require.Equal(t, account.ID, sessionClaims.Subject)

	stored, err := f.repo.GetByID(ctx, account.ID)
	require.NoError(t, err)
	require.Equal(t, auth.RefreshTokenDigest(result.Tokens.RefreshToken), stored.RefreshTokenHash)
	require.NotEqual(t, result.Tokens.RefreshToken, stored.RefreshTokenHash)
}

// TestAuthService_LoginRoleIsolation tests an influencer cannot log in through the brand or superuser paths
func TestAuthService_LoginRoleIsolation(t *testing.T) {
	f := setupTestFixture(t)
	f.registerInfluencer(t, "alice", "a@x.com")

	for _, role := range []users.Role{users.RoleBrand, users.RoleSuperUser} {
		t.Run(string(role), func(t *testing.T) {
			_, err := f.login(role, "alice", testPassword)
			requireKind(t, err, apperrors.KindUnauthorized, auth.MsgUserNotFoundOrRoleMismatch)
		})
	}

	_, err := f.authService.LoginBrand(context.Background(), &users.Account{ID: "x", Role: users.RoleInfluencer})
	requireKind(t, err, apperrors.KindUnauthorized, auth.MsgUserNotFoundOrRoleMismatch)
}

// TestAuthService_LoginSuperuser tests the superuser logs in through its own path
func TestAuthService_LoginSuperuser(t *testing.T) {
	f := setupTestFixture(t)
	f.createAccount(t, "root", users.RoleSuperUser)

	result, err := f.login(users.RoleSuperUser, "root", testPassword)
	require.NoError(t, err)
	require.Equal(t, users.RoleSuperUser, result.Account.Role)

	_, err = f.login(users.RoleSuperUser, "nobody", testPassword)
	requireKind(t, err, apperrors.KindUnauthorized, auth.MsgUserNotFoundOrRoleMismatch)
}

// TestAuthService_LoginAdmin tests created and promoted admins log in through the admin path only
func TestAuthService_LoginAdmin(t *testing.T) {
	f := setupTestFixture(t)
	f.createAccount(t, "ada", users.RoleAdmin)

	result, err := f.login(users.RoleAdmin, "ada", testPassword)
	require.NoError(t, err)
	require.Equal(t, users.RoleAdmin, result.Account.Role)

	claims, err := f.issuer.Verify(result.Tokens.AccessToken, token.TypeAccess)
	require.NoError(t, err)
	require.Equal(t, users.RoleAdmin, claims.Role)

	_, err = f.login(users.RoleInfluencer, "ada", testPassword)
	requireKind(t, err, apperrors.KindUnauthorized, auth.MsgUserNotFoundOrRoleMismatch)
	_, err = f.login(users.RoleSuperUser, "ada", testPassword)
	requireKind(t, err, apperrors.KindUnauthorized, auth.MsgUserNotFoundOrRoleMismatch)
}

// TestAuthService_LoginThrottle tests a second attempt inside the window is rejected before the password is checked
func TestAuthService_LoginThrottle(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	f.registerInfluencer(t, "alice", "a@x.com")

	_, err := f.login(users.RoleInfluencer, "alice", "Wrong1!x")
	requireKind(t, err, apperrors.KindUnauthorized, auth.MsgInvalidPassword)

	_, err = f.authService.Login(ctx, users.RoleInfluencer, auth.LoginRequest{Username: "alice", Password: testPassword})
	requireKind(t, err, apperrors.KindTooManyRequests, auth.MsgTooManyLoginAttempts)
	require.True(t, f.mr.Exists(ratelimit.Key("login", "influencer", "alice")))

	_, err = f.login(users.RoleInfluencer, "alice", testPassword)
	require.NoError(t, err)
}

// TestAuthService_Refresh tests refresh issues an access token and rotated refresh tokens stop working
func TestAuthService_Refresh(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	account := f.registerInfluencer(t, "alice", "a@x.com")

	first, err := f.login(users.RoleInfluencer, "alice", testPassword)
	require.NoError(t, err)

	accessToken, err := f.authService.Refresh(ctx, auth.RefreshRequest{RefreshToken: first.Tokens.RefreshToken})
	require.NoError(t, err)
	claims, err := f.issuer.Verify(accessToken, token.TypeAccess)
	require.NoError(t, err)
	require.Equal(t, account.ID, claims.Subject)

	second, err := f.login(users.RoleInfluencer, "alice", testPassword)
	require.NoError(t, err)

	_, err = f.authService.Refresh(ctx, auth.RefreshRequest{RefreshToken: first.Tokens.RefreshToken})
	requireKind(t, err, apperrors.KindUnauthorized, auth.MsgInvalidRefreshToken)

	validated, err := f.authService.ValidateRefreshToken(ctx, second.Tokens.RefreshToken)
	require.NoError(t, err)
	require.Equal(t, account.ID, validated.ID)

	t.Run("access token is not a refresh token", func(t *testing.T) {
		_, err := f.authService.ValidateRefreshToken(ctx, second.Tokens.AccessToken)
		requireKind(t, err, apperrors.KindUnauthorized, auth.MsgInvalidRefreshToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := f.authService.ValidateRefreshToken(ctx, "not-a-jwt")
		requireKind(t, err, apperrors.KindUnauthorized, auth.MsgInvalidRefreshToken)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := f.authService.Refresh(ctx, auth.RefreshRequest{})
		requireKind(t, err, apperrors.KindValidation, "")
	})
}

// TestAuthService_UpdateRefreshToken tests the stored reference is a digest and can be cleared
func TestAuthService_UpdateRefreshToken(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	account := f.registerInfluencer(t, "alice", "a@x.com")

	require.NoError(t, f.authService.UpdateRefreshToken(ctx, account.ID, "raw-token"))
	stored, err := f.repo.GetByID(ctx, account.ID)
	require.NoError(t, err)
	require.Len(t, stored.RefreshTokenHash, 64)

	require.NoError(t, f.authService.UpdateRefreshToken(ctx, account.ID, ""))
	stored, err = f.repo.GetByID(ctx, account.ID)
	require.NoError(t, err)
	require.Empty(t, stored.RefreshTokenHash)

	err = f.authService.UpdateRefreshToken(ctx, "missing", "raw-token")
	requireKind(t, err, apperrors.KindNotFound, auth.MsgUserNotFound)
}

// TestAuthService_Logout tests logout removes the session, refresh reference and revokes the access token
func TestAuthService_Logout(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	account := f.registerInfluencer(t, "alice", "a@x.com")

	result, err := f.login(users.RoleInfluencer, "alice", testPassword)
	require.NoError(t, err)
	claims, err := f.issuer.Verify(result.Tokens.AccessToken, token.TypeAccess)
	require.NoError(t, err)

	require.NoError(t, f.authService.Logout(ctx, account.ID, claims))

	session, err := f.sessions.GetSession(ctx, account.ID)
	require.NoError(t, err)
	require.Nil(t, session)

	revoked, err := f.revoked.IsRevoked(ctx, claims.ID)
	require.NoError(t, err)
	require.True(t, revoked)

	_, err = f.authService.ValidateRefreshToken(ctx, result.Tokens.RefreshToken)
	requireKind(t, err, apperrors.KindUnauthorized, auth.MsgInvalidRefreshToken)

	// Logging out twice is harmless
	require.NoError(t, f.authService.Logout(ctx, account.ID, nil))
}

// TestAuthService_ChangePassword tests the password change flow and its rate limit
func TestAuthService_ChangePassword(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	account := f.registerInfluencer(t, "alice", "a@x.com")
	newPassword := "Changed2!"

	err := f.authService.ChangePassword(ctx, account.ID, auth.ChangePasswordRequest{CurrentPassword: "Wrong1!x", NewPassword: newPassword})
	requireKind(t, err, apperrors.KindUnauthorized, auth.MsgCurrentPasswordIncorrect)

	err = f.authService.ChangePassword(ctx, account.ID, auth.ChangePasswordRequest{CurrentPassword: testPassword, NewPassword: newPassword})
	requireKind(t, err, apperrors.KindTooManyRequests, auth.MsgTooManyPasswordChanges)

	f.mr.FastForward(time.Minute)
	require.NoError(t, f.authService.ChangePassword(ctx, account.ID, auth.ChangePasswordRequest{CurrentPassword: testPassword, NewPassword: newPassword}))

	_, err = f.login(users.RoleInfluencer, "alice", testPassword)
	requireKind(t, err, apperrors.KindUnauthorized, auth.MsgInvalidPassword)
	_, err = f.login(users.RoleInfluencer, "alice", newPassword)
	require.NoError(t, err)

	t.Run("new password must differ", func(t *testing.T) {
		err := f.authService.ChangePassword(ctx, account.ID, auth.ChangePasswordRequest{CurrentPassword: newPassword, NewPassword: newPassword})
		requireKind(t, err, apperrors.KindValidation, "")
	})
}

// TestAuthService_RegisterRace tests concurrent registrations of one username leave exactly one account
func TestAuthService_RegisterRace(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	const attempts = 8
	errs := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		go func() {
			_, err := f.authService.RegisterInfluencer(ctx, influencer("alice", "a@x.com"))
			errs <- err
		}()
	}

	var created int
	for i := 0; i < attempts; i++ {
		if err := <-errs; err == nil {
			created++
		} else {
			requireKind(t, err, apperrors.KindConflict, auth.MsgUserAlreadyExists)
		}
	}
	require.Equal(t, 1, created)
}
