package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jrsteele09/go-collab-server/users"
	pkgerrors "github.com/pkg/errors"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
	ErrWrongType    = errors.New("token type not accepted here")
)

const (
	defaultAccessTokenExpiry  = 20 * time.Minute
	defaultRefreshTokenExpiry = 7 * 24 * time.Hour
)

// Pair is the token response returned on login
type Pair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Issuer signs and verifies the application's JWTs
type Issuer struct {
	signer             Signer
	accessTokenExpiry  time.Duration
	refreshTokenExpiry time.Duration
	nowFunc            func() time.Time
}

type IssuerOption func(*Issuer)

func WithTokenExpiry(accessTokenExpiry, refreshTokenExpiry time.Duration) IssuerOption {
	return func(i *Issuer) {
		i.accessTokenExpiry = accessTokenExpiry
		i.refreshTokenExpiry = refreshTokenExpiry
	}
}

func WithNowFunc(now func() time.Time) IssuerOption {
	return func(i *Issuer) {
		i.nowFunc = now
	}
}

func NewIssuer(signer Signer, options ...IssuerOption) (*Issuer, error) {
	if signer == nil {
		return nil, errors.New("[NewIssuer] signer is required")
	}

	i := &Issuer{
		signer:             signer,
		accessTokenExpiry:  defaultAccessTokenExpiry,
		refreshTokenExpiry: defaultRefreshTokenExpiry,
		nowFunc:            time.Now,
	}
	for _, opt := range options {
		opt(i)
	}
	return i, nil
}

// Sign stamps iat, exp and a fresh jti onto claims and signs them
func (i *Issuer) Sign(claims Claims, ttl time.Duration) (string, error) {
	now := i.nowFunc()
	claims.IssuedAt = now
	claims.ExpiresAt = now.Add(ttl)
	claims.ID = uuid.New().String()

	signed, err := i.signer.Sign(claims.toMap())
	if err != nil {
		return "", pkgerrors.Wrap(err, "[Issuer.Sign]")
	}
	return signed, nil
}

// IssuePair creates an access token and a refresh token for the account
func (i *Issuer) IssuePair(account *users.Account) (*Pair, error) {
	base := Claims{Subject: account.ID, Role: account.Role, Username: account.Username}

	access := base
	access.Type = TypeAccess
	accessToken, err := i.Sign(access, i.accessTokenExpiry)
	if err != nil {
		return nil, err
	}

	refresh := base
	refresh.Type = TypeRefresh
	refreshToken, err := i.Sign(refresh, i.refreshTokenExpiry)
	if err != nil {
		return nil, err
	}

	return &Pair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// IssueAccessToken creates a single access token, used by the refresh endpoint
func (i *Issuer) IssueAccessToken(account *users.Account) (string, error) {
	return i.Sign(Claims{
		Subject:  account.ID,
		Role:     account.Role,
		Username: account.Username,
		Type:     TypeAccess,
	}, i.accessTokenExpiry)
}

// IssueSessionToken signs the value carried by the session cookie
func (i *Issuer) IssueSessionToken(userID string, ttl time.Duration) (string, error) {
	return i.Sign(Claims{Subject: userID, Type: TypeSession}, ttl)
}

// Verify checks signature, algorithm and expiry, then that the token has the expected type.
// Expired tokens return ErrTokenExpired, everything else ErrInvalidToken or ErrWrongType.
func (i *Issuer) Verify(raw string, expected Type) (*Claims, error) {
	parsed, err := jwt.Parse(raw, i.signer.GetVerificationKey,
		jwt.WithValidMethods([]string{i.signer.GetSigningMethod().Alg()}),
		jwt.WithTimeFunc(i.nowFunc),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	mapClaims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	claims, err := claimsFromMap(mapClaims)
	if err != nil {
		return nil, err
	}
	if claims.Type != expected {
		return nil, ErrWrongType
	}
	return claims, nil
}
