package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/clipstream/backend/internal/apperr"
	"github.com/clipstream/backend/internal/config"
	"github.com/clipstream/backend/internal/models"
)

// TokenKind distinguishes the two token classes. A token only verifies
// against the kind it was signed as.
type TokenKind string

const (
	TokenAccess  TokenKind = "access"
	TokenRefresh TokenKind = "refresh"
)

// Claims are the JWT claims for both token kinds. Access tokens carry the
// user profile fields; refresh tokens carry only the subject (user id).
type Claims struct {
	UserName string `json:"userName,omitempty"`
	FullName string `json:"fullName,omitempty"`
	Email    string `json:"email,omitempty"`
	Kind     string `json:"kind"`
	jwt.RegisteredClaims
}

// TokenPair is the result of a login or renewal.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// RefreshTokenSaver persists the single current refresh token on a user.
type RefreshTokenSaver interface {
	SetRefreshToken(ctx context.Context, id, token string) error
}

// TokenService signs and verifies HS256 access/refresh tokens and rotates
// the persisted refresh token on every pair issued.
type TokenService struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	users         RefreshTokenSaver
}

func NewTokenService(cfg *config.Config, users RefreshTokenSaver) (*TokenService, error) {
	if cfg.AccessTokenSecret == "" || cfg.RefreshTokenSecret == "" {
		return nil, apperr.New(apperr.ErrConfig, "access and refresh token secrets must be set")
	}
	return &TokenService{
		accessSecret:  []byte(cfg.AccessTokenSecret),
		refreshSecret: []byte(cfg.RefreshTokenSecret),
		accessTTL:     cfg.AccessTokenTTL,
		refreshTTL:    cfg.RefreshTokenTTL,
		users:         users,
	}, nil
}

// SignAccessToken mints a short-lived token carrying the user's identity
// claims. Access tokens are stateless and never persisted.
func (t *TokenService) SignAccessToken(u *models.User) (string, error) {
	return t.sign(TokenAccess, &Claims{
		UserName: u.UserName,
		FullName: u.FullName,
		Email:    u.Email,
		Kind:     string(TokenAccess),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: u.ID.Hex(),
		},
	}, t.accessSecret, t.accessTTL)
}

// SignRefreshToken mints a longer-lived token carrying only the user id.
func (t *TokenService) SignRefreshToken(userID string) (string, error) {
	return t.sign(TokenRefresh, &Claims{
		Kind: string(TokenRefresh),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: userID,
		},
	}, t.refreshSecret, t.refreshTTL)
}

func (t *TokenService) sign(kind TokenKind, claims *Claims, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", apperr.Wrap(apperr.ErrConfig, "sign "+string(kind)+" token", err)
	}
	return signed, nil
}

// Verify checks signature, expiry and kind. It is a pure cryptographic
// check and never consults the store.
func (t *TokenService) Verify(raw string, kind TokenKind) (*Claims, error) {
	secret := t.accessSecret
	if kind == TokenRefresh {
		secret = t.refreshSecret
	}

	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apperr.ErrTokenInvalid
		}
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperr.ErrTokenExpired
		}
		return nil, apperr.ErrTokenInvalid
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Kind != string(kind) {
		return nil, apperr.ErrTokenInvalid
	}
	return claims, nil
}

// VerifyAccess verifies an access token and returns the user id it was
// issued to. This is the shape the session middleware consumes.
func (t *TokenService) VerifyAccess(raw string) (string, error) {
	claims, err := t.Verify(raw, TokenAccess)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// IssuePair signs both tokens and persists the new refresh token on the
// user record, overwriting any prior value. This is the only place the
// token service changes state.
func (t *TokenService) IssuePair(ctx context.Context, u *models.User) (*TokenPair, error) {
	access, err := t.SignAccessToken(u)
	if err != nil {
		return nil, err
	}
	refresh, err := t.SignRefreshToken(u.ID.Hex())
	if err != nil {
		return nil, err
	}
	if err := t.users.SetRefreshToken(ctx, u.ID.Hex(), refresh); err != nil {
		return nil, apperr.Wrap(apperr.ErrPersistence, "store refresh token", err)
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
