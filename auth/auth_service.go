package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	apperrors "github.com/jrsteele09/go-collab-server/internal/errors"
	"github.com/jrsteele09/go-collab-server/ratelimit"
	"github.com/jrsteele09/go-collab-server/sessions"
	"github.com/jrsteele09/go-collab-server/token"
	"github.com/jrsteele09/go-collab-server/users"
	"github.com/jrsteele09/go-collab-server/validation"
	"github.com/pkg/errors"
)

const (
	defaultLoginWindow          = time.Second
	defaultPasswordChangeWindow = time.Minute
)

// Recorder observes authentication outcomes (implemented by the metrics package)
type Recorder interface {
	LoginAttempt(role, result string)
	Registered(role string)
}

type nopRecorder struct{}

func (nopRecorder) LoginAttempt(string, string) {}
func (nopRecorder) Registered(string)           {}

// Repos holds all repository dependencies for the AuthService
type Repos struct {
	Users users.Repo // Credential store
}

// LoginResult is produced by a successful login
type LoginResult struct {
	Tokens       *token.Pair
	SessionToken string // Signed value for the session cookie
	Account      *users.Account
}

// AuthService implements registration, login and refresh-token handling
type AuthService struct {
	repos       Repos
	tokens      *token.Issuer
	sessions    *sessions.Manager
	limiter     *ratelimit.Limiter
	revoked     token.RevokedTokenCache
	recorder    Recorder
	loginWindow time.Duration
	pwdWindow   time.Duration
	nowTime     func() time.Time
}

// AuthServiceOption defines a function type to modify the AuthService instance.
type AuthServiceOption func(*AuthService)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) AuthServiceOption {
	return func(as *AuthService) {
		as.nowTime = nowFunc
	}
}

// WithLoginRateLimit sets the per-account login throttle window
func WithLoginRateLimit(window time.Duration) AuthServiceOption {
	return func(as *AuthService) {
		as.loginWindow = window
	}
}

// WithPasswordChangeRateLimit sets how often a user may change their password
func WithPasswordChangeRateLimit(window time.Duration) AuthServiceOption {
	return func(as *AuthService) {
		as.pwdWindow = window
	}
}

// WithRevokedTokenCache enables access-token revocation on logout
func WithRevokedTokenCache(cache token.RevokedTokenCache) AuthServiceOption {
	return func(as *AuthService) {
		as.revoked = cache
	}
}

func WithRecorder(r Recorder) AuthServiceOption {
	return func(as *AuthService) {
		as.recorder = r
	}
}

// NewAuthService initializes a new AuthService with required dependencies.
func NewAuthService(
	repos Repos,
	tokens *token.Issuer,
	sessionManager *sessions.Manager,
	limiter *ratelimit.Limiter,
	options ...AuthServiceOption,
) (*AuthService, error) {
	if repos.Users == nil {
		return nil, errors.New("[NewAuthService] Users repo is required")
	}
	if tokens == nil {
		return nil, errors.New("[NewAuthService] token issuer is required")
	}
	if sessionManager == nil {
		return nil, errors.New("[NewAuthService] session manager is required")
	}
	if limiter == nil {
		return nil, errors.New("[NewAuthService] rate limiter is required")
	}

	as := &AuthService{
		repos:       repos,
		tokens:      tokens,
		sessions:    sessionManager,
		limiter:     limiter,
		recorder:    nopRecorder{},
		loginWindow: defaultLoginWindow,
		pwdWindow:   defaultPasswordChangeWindow,
		nowTime:     time.Now,
	}
	for _, opt := range options {
		opt(as)
	}
	return as, nil
}

// ValidateUser finds the account with the given username (or email) and role. When password
// is non-nil it must match the stored hash; a nil password skips the check for trusted callers.
func (as *AuthService) ValidateUser(ctx context.Context, identifier string, password *string, role users.Role) (*users.Account, error) {
	account, err := as.repos.Users.FindByLogin(ctx, identifier, role)
	if errors.Is(err, users.ErrNotFound) {
		return nil, apperrors.Unauthorized(MsgUserNotFoundOrRoleMismatch)
	} else if err != nil {
		return nil, apperrors.Internal(errors.Wrap(err, "[AuthService.ValidateUser] lookup failed"))
	}

	if password != nil && !account.CheckPassword(*password) {
		return nil, apperrors.Unauthorized(MsgInvalidPassword)
	}
	return account, nil
}

// RegisterInfluencer creates an influencer account
func (as *AuthService) RegisterInfluencer(ctx context.Context, req InfluencerRegistration) (*users.Account, error) {
	if err := validation.Validate(req); err != nil {
		return nil, err
	}
	return as.register(ctx, req.account(), req.Password)
}

// RegisterBrand creates a brand account
func (as *AuthService) RegisterBrand(ctx context.Context, req BrandRegistration) (*users.Account, error) {
	if err := validation.Validate(req); err != nil {
		return nil, err
	}
	return as.register(ctx, req.account(), req.Password)
}

func (as *AuthService) register(ctx context.Context, account *users.Account, password string) (*users.Account, error) {
	exists, err := as.repos.Users.ExistsByUsernameOrEmail(ctx, account.Username, account.Email)
	if err != nil {
		return nil, apperrors.Internal(errors.Wrap(err, "[AuthService.register] uniqueness check failed"))
	}
	if exists {
		return nil, apperrors.Conflict(MsgUserAlreadyExists)
	}

	account.PasswordHash, err = users.HashPassword(password)
	if err != nil {
		return nil, apperrors.Internal(errors.Wrap(err, "[AuthService.register] hash failed"))
	}

	// The unique indexes catch registrations that raced past the check above
	if err := as.repos.Users.Create(ctx, account); err != nil {
		if errors.Is(err, users.ErrDuplicate) {
			return nil, apperrors.Conflict(MsgUserAlreadyExists)
		}
		return nil, apperrors.Internal(errors.Wrap(err, "[AuthService.register] create failed"))
	}

	as.recorder.Registered(string(account.Role))
	return account, nil
}

// Login throttles, validates credentials for role, then completes the role's login
func (as *AuthService) Login(ctx context.Context, role users.Role, req LoginRequest) (*LoginResult, error) {
	if err := validation.Validate(req); err != nil {
		return nil, err
	}

	identifier := req.Identifier()
	key := ratelimit.Key("login", string(role), identifier)
	if err := as.limiter.RateLimitOrThrow(ctx, key, as.loginWindow, MsgTooManyLoginAttempts); err != nil {
		as.recorder.LoginAttempt(string(role), "throttled")
		return nil, err
	}

	account, err := as.ValidateUser(ctx, identifier, &req.Password, role)
	if err != nil {
		as.recorder.LoginAttempt(string(role), "failure")
		return nil, err
	}

	var result *LoginResult
	switch role {
	case users.RoleInfluencer:
		result, err = as.LoginInfluencer(ctx, account)
	case users.RoleBrand:
		result, err = as.LoginBrand(ctx, account)
	case users.RoleAdmin:
		result, err = as.LoginAdmin(ctx, account)
	case users.RoleSuperUser:
		result, err = as.LoginSuperuser(ctx, account)
	default:
		return nil, apperrors.Unauthorized(MsgUserNotFoundOrRoleMismatch)
	}
	if err != nil {
		return nil, err
	}
	as.recorder.LoginAttempt(string(role), "success")
	return result, nil
}

// LoginInfluencer issues tokens and a session for a validated influencer
func (as *AuthService) LoginInfluencer(ctx context.Context, account *users.Account) (*LoginResult, error) {
	return as.login(ctx, account, users.RoleInfluencer)
}

// LoginBrand issues tokens and a session for a validated brand
func (as *AuthService) LoginBrand(ctx context.Context, account *users.Account) (*LoginResult, error) {
	return as.login(ctx, account, users.RoleBrand)
}

// LoginAdmin issues tokens and a session for a validated admin
func (as *AuthService) LoginAdmin(ctx context.Context, account *users.Account) (*LoginResult, error) {
	return as.login(ctx, account, users.RoleAdmin)
}

// LoginSuperuser issues tokens and a session for the validated superuser
func (as *AuthService) LoginSuperuser(ctx context.Context, account *users.Account) (*LoginResult, error) {
	return as.login(ctx, account, users.RoleSuperUser)
}

func (as *AuthService) login(ctx context.Context, account *users.Account, role users.Role) (*LoginResult, error) {
	if account == nil || account.Role != role {
		return nil, apperrors.Unauthorized(MsgUserNotFoundOrRoleMismatch)
	}

	pair, err := as.tokens.IssuePair(account)
	if err != nil {
		return nil, apperrors.Internal(errors.Wrap(err, "[AuthService.login] issue tokens"))
	}
	if err := as.UpdateRefreshToken(ctx, account.ID, pair.RefreshToken); err != nil {
		return nil, err
	}

	ttl := as.sessions.TTL()
	if err := as.sessions.SetSession(ctx, account.ID, sessions.NewSessionData(account, as.nowTime(), ttl)); err != nil {
		return nil, apperrors.Internal(errors.Wrap(err, "[AuthService.login] session"))
	}
	sessionToken, err := as.tokens.IssueSessionToken(account.ID, ttl)
	if err != nil {
		return nil, apperrors.Internal(errors.Wrap(err, "[AuthService.login] session token"))
	}

	return &LoginResult{Tokens: pair, SessionToken: sessionToken, Account: account}, nil
}

// ValidateRefreshToken returns the account holding refreshToken as its current refresh token.
// Bad signatures, expiry and rotated tokens all fail the same way.
func (as *AuthService) ValidateRefreshToken(ctx context.Context, refreshToken string) (*users.Account, error) {
	claims, err := as.tokens.Verify(refreshToken, token.TypeRefresh)
	if err != nil {
		return nil, apperrors.Unauthorized(MsgInvalidRefreshToken)
	}

	account, err := as.repos.Users.FindByRefreshTokenHash(ctx, RefreshTokenDigest(refreshToken))
	if errors.Is(err, users.ErrNotFound) {
		return nil, apperrors.Unauthorized(MsgInvalidRefreshToken)
	} else if err != nil {
		return nil, apperrors.Internal(errors.Wrap(err, "[AuthService.ValidateRefreshToken] lookup failed"))
	}
	if account.ID != claims.Subject {
		return nil, apperrors.Unauthorized(MsgInvalidRefreshToken)
	}
	return account, nil
}

// UpdateRefreshToken stores the digest of refreshToken on the account, replacing any previous one.
// An empty token clears the stored reference.
func (as *AuthService) UpdateRefreshToken(ctx context.Context, userID, refreshToken string) error {
	account, err := as.repos.Users.GetByID(ctx, userID)
	if errors.Is(err, users.ErrNotFound) {
		return apperrors.NotFound(MsgUserNotFound)
	} else if err != nil {
		return apperrors.Internal(errors.Wrap(err, "[AuthService.UpdateRefreshToken] lookup failed"))
	}

	account.RefreshTokenHash = RefreshTokenDigest(refreshToken)
	if err := as.repos.Users.Update(ctx, account); err != nil {
		return apperrors.Internal(errors.Wrap(err, "[AuthService.UpdateRefreshToken] update failed"))
	}
	return nil
}

// Refresh exchanges a valid refresh token for a new access token
func (as *AuthService) Refresh(ctx context.Context, req RefreshRequest) (string, error) {
	if err := validation.Validate(req); err != nil {
		return "", err
	}
	account, err := as.ValidateRefreshToken(ctx, req.RefreshToken)
	if err != nil {
		return "", err
	}
	accessToken, err := as.tokens.IssueAccessToken(account)
	if err != nil {
		return "", apperrors.Internal(errors.Wrap(err, "[AuthService.Refresh] issue token"))
	}
	return accessToken, nil
}

// Logout ends the user's session, clears the refresh token and, when accessToken is
// given, revokes it for the remainder of its lifetime.
func (as *AuthService) Logout(ctx context.Context, userID string, accessToken *token.Claims) error {
	if err := as.sessions.DeleteSession(ctx, userID); err != nil {
		return apperrors.Internal(errors.Wrap(err, "[AuthService.Logout] session"))
	}
	if err := as.UpdateRefreshToken(ctx, userID, ""); err != nil && !apperrors.IsKind(err, apperrors.KindNotFound) {
		return err
	}
	if accessToken != nil && as.revoked != nil {
		if err := as.revoked.Add(ctx, accessToken.ID, accessToken.ExpiresAt); err != nil {
			return apperrors.Internal(errors.Wrap(err, "[AuthService.Logout] revoke"))
		}
	}
	return nil
}

// ChangePassword replaces the password of a logged-in account. The attempt is rate limited
// before the current password is checked. Other devices must log in again afterwards.
func (as *AuthService) ChangePassword(ctx context.Context, userID string, req ChangePasswordRequest) error {
	if err := validation.Validate(req); err != nil {
		return err
	}
	if err := as.limiter.RateLimitOrThrow(ctx, ratelimit.Key("password-change", userID), as.pwdWindow, MsgTooManyPasswordChanges); err != nil {
		return err
	}

	account, err := as.repos.Users.GetByID(ctx, userID)
	if errors.Is(err, users.ErrNotFound) {
		return apperrors.NotFound(MsgUserNotFound)
	} else if err != nil {
		return apperrors.Internal(errors.Wrap(err, "[AuthService.ChangePassword] lookup failed"))
	}
	if !account.CheckPassword(req.CurrentPassword) {
		return apperrors.Unauthorized(MsgCurrentPasswordIncorrect)
	}

	if account.PasswordHash, err = users.HashPassword(req.NewPassword); err != nil {
		return apperrors.Internal(errors.Wrap(err, "[AuthService.ChangePassword] hash failed"))
	}
	account.RefreshTokenHash = ""
	if err := as.repos.Users.Update(ctx, account); err != nil {
		return apperrors.Internal(errors.Wrap(err, "[AuthService.ChangePassword] update failed"))
	}
	return nil
}

// RefreshTokenDigest is the stored reference for a refresh token. It is a plain SHA-256
// so the store can look accounts up by it; an empty token maps to an empty digest.
func RefreshTokenDigest(refreshToken string) string {
	if refreshToken == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(refreshToken))
	return hex.EncodeToString(sum[:])
}
