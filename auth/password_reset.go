package auth

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/jrsteele09/go-collab-server/internal/errors"
	"github.com/jrsteele09/go-collab-server/kvstore"
	"github.com/jrsteele09/go-collab-server/ratelimit"
	"github.com/jrsteele09/go-collab-server/users"
	"github.com/jrsteele09/go-collab-server/validation"
	"github.com/pkg/errors"
)

const (
	resetKeyPrefix      = "forgot-password:"
	defaultResetTTL     = 900 * time.Second
	defaultResetWindow  = time.Minute
	resetPath           = "/reset-password"
	MsgResetEmailQueued = "If an account exists for this email, a reset link has been sent"
	MsgPasswordReset    = "Password has been reset"
)

// ResetKey returns the store key for a reset token
func ResetKey(token string) string {
	return resetKeyPrefix + token
}

// ForgotPasswordResponse is returned by POST /auth/forgot-password
type ForgotPasswordResponse struct {
	Message     string `json:"message"`
	PreviewLink string `json:"previewLink"`
}

// PasswordResetService issues and redeems one-time password reset tokens
type PasswordResetService struct {
	users   users.Repo
	store   kvstore.Store
	limiter *ratelimit.Limiter
	mailer  Mailer
	baseURL string
	ttl     time.Duration
	window  time.Duration
}

type PasswordResetOption func(*PasswordResetService)

// WithResetTTL sets how long a reset token stays valid
func WithResetTTL(ttl time.Duration) PasswordResetOption {
	return func(s *PasswordResetService) {
		s.ttl = ttl
	}
}

// WithResetRateLimit sets the per-email window between reset requests
func WithResetRateLimit(window time.Duration) PasswordResetOption {
	return func(s *PasswordResetService) {
		s.window = window
	}
}

func WithMailer(m Mailer) PasswordResetOption {
	return func(s *PasswordResetService) {
		s.mailer = m
	}
}

func NewPasswordResetService(repo users.Repo, store kvstore.Store, limiter *ratelimit.Limiter, baseURL string, options ...PasswordResetOption) (*PasswordResetService, error) {
	if repo == nil {
		return nil, errors.New("[NewPasswordResetService] Users repo is required")
	}
	if store == nil {
		return nil, errors.New("[NewPasswordResetService] kv store is required")
	}
	if limiter == nil {
		return nil, errors.New("[NewPasswordResetService] rate limiter is required")
	}

	s := &PasswordResetService{
		users:   repo,
		store:   store,
		limiter: limiter,
		mailer:  LogMailer{},
		baseURL: strings.TrimRight(baseURL, "/"),
		ttl:     defaultResetTTL,
		window:  defaultResetWindow,
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// SendResetEmail stores a new reset token for email and hands the link to the mailer.
// The response is the same whether or not an account exists for email.
func (s *PasswordResetService) SendResetEmail(ctx context.Context, req ForgotPasswordRequest) (*ForgotPasswordResponse, error) {
	if err := validation.Validate(req); err != nil {
		return nil, err
	}
	email := normalizeEmail(req.Email)
	if err := s.limiter.RateLimitOrThrow(ctx, ratelimit.Key("forgot-password", email), s.window); err != nil {
		return nil, err
	}

	resetToken := uuid.New().String()
	if err := s.store.Set(ctx, ResetKey(resetToken), email, s.ttl); err != nil {
		return nil, apperrors.Internal(errors.Wrap(err, "[PasswordResetService.SendResetEmail] store failed"))
	}

	preview, err := s.mailer.SendPasswordReset(ctx, email, s.resetLink(resetToken))
	if err != nil {
		return nil, apperrors.Internal(errors.Wrap(err, "[PasswordResetService.SendResetEmail] mailer failed"))
	}
	return &ForgotPasswordResponse{Message: MsgResetEmailQueued, PreviewLink: preview}, nil
}

func (s *PasswordResetService) resetLink(resetToken string) string {
	return s.baseURL + resetPath + "?" + url.Values{"token": {resetToken}}.Encode()
}

// ValidateToken returns the email a live reset token was issued for
func (s *PasswordResetService) ValidateToken(ctx context.Context, resetToken string) (string, error) {
	if resetToken == "" {
		return "", apperrors.NotFound(MsgInvalidResetToken)
	}
	email, err := s.store.Get(ctx, ResetKey(resetToken))
	if errors.Is(err, kvstore.ErrNotFound) {
		return "", apperrors.NotFound(MsgInvalidResetToken)
	} else if err != nil {
		return "", apperrors.Internal(errors.Wrap(err, "[PasswordResetService.ValidateToken] store failed"))
	}
	return email, nil
}

// InvalidateToken deletes a reset token. Invalidating an unknown token is not an error.
func (s *PasswordResetService) InvalidateToken(ctx context.Context, resetToken string) error {
	if err := s.store.Del(ctx, ResetKey(resetToken)); err != nil {
		return apperrors.Internal(errors.Wrap(err, "[PasswordResetService.InvalidateToken] store failed"))
	}
	return nil
}

// ResetPassword redeems a reset token and sets a new password. Existing refresh tokens stop working.
func (s *PasswordResetService) ResetPassword(ctx context.Context, req ResetPasswordRequest) error {
	if err := validation.Validate(req); err != nil {
		return err
	}
	email, err := s.ValidateToken(ctx, req.Token)
	if err != nil {
		return err
	}

	account, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, users.ErrNotFound) {
		// No account was ever behind this token
		_ = s.InvalidateToken(ctx, req.Token)
		return apperrors.NotFound(MsgInvalidResetToken)
	} else if err != nil {
		return apperrors.Internal(errors.Wrap(err, "[PasswordResetService.ResetPassword] lookup failed"))
	}

	if account.PasswordHash, err = users.HashPassword(req.Password); err != nil {
		return apperrors.Internal(errors.Wrap(err, "[PasswordResetService.ResetPassword] hash failed"))
	}
	account.RefreshTokenHash = ""
	if err := s.users.Update(ctx, account); err != nil {
		return apperrors.Internal(errors.Wrap(err, "[PasswordResetService.ResetPassword] update failed"))
	}
	return s.InvalidateToken(ctx, req.Token)
}
