package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/clipstream/backend/internal/apperr"
	"github.com/clipstream/backend/internal/config"
	"github.com/clipstream/backend/internal/models"
)

type fakeSaver struct {
	saved map[string]string
	err   error
}

func (f *fakeSaver) SetRefreshToken(_ context.Context, id, token string) error {
	if f.err != nil {
		return f.err
	}
	if f.saved == nil {
		f.saved = map[string]string{}
	}
	f.saved[id] = token
	return nil
}

func testTokenConfig() *config.Config {
	return &config.Config{
		AccessTokenSecret:  "access-secret",
		RefreshTokenSecret: "refresh-secret",
		AccessTokenTTL:     time.Minute,
		RefreshTokenTTL:    time.Hour,
	}
}

func testUser() *models.User {
	return &models.User{
		ID:       primitive.NewObjectID(),
		UserName: "ann",
		FullName: "Ann Lee",
		Email:    "ann@x.com",
	}
}

func TestNewTokenService_MissingSecret(t *testing.T) {
	cfg := testTokenConfig()
	cfg.AccessTokenSecret = ""
	_, err := NewTokenService(cfg, &fakeSaver{})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrConfig)
}

func TestTokenService_AccessRoundTrip(t *testing.T) {
	svc, err := NewTokenService(testTokenConfig(), &fakeSaver{})
	require.NoError(t, err)

	u := testUser()
	raw, err := svc.SignAccessToken(u)
	require.NoError(t, err)

	claims, err := svc.Verify(raw, TokenAccess)
	require.NoError(t, err)
	assert.Equal(t, u.ID.Hex(), claims.Subject)
	assert.Equal(t, "ann", claims.UserName)
	assert.Equal(t, "Ann Lee", claims.FullName)
	assert.Equal(t, "ann@x.com", claims.Email)
}

func TestTokenService_RefreshRoundTrip(t *testing.T) {
	svc, err := NewTokenService(testTokenConfig(), &fakeSaver{})
	require.NoError(t, err)

	raw, err := svc.SignRefreshToken("some-user-id")
	require.NoError(t, err)

	claims, err := svc.Verify(raw, TokenRefresh)
	require.NoError(t, err)
	assert.Equal(t, "some-user-id", claims.Subject)
	assert.Empty(t, claims.UserName)
}

func TestTokenService_KindMismatch(t *testing.T) {
	svc, err := NewTokenService(testTokenConfig(), &fakeSaver{})
	require.NoError(t, err)

	access, err := svc.SignAccessToken(testUser())
	require.NoError(t, err)
	refresh, err := svc.SignRefreshToken("id")
	require.NoError(t, err)

	_, err = svc.Verify(access, TokenRefresh)
	assert.ErrorIs(t, err, apperr.ErrTokenInvalid)
	_, err = svc.Verify(refresh, TokenAccess)
	assert.ErrorIs(t, err, apperr.ErrTokenInvalid)
}

func TestTokenService_Expired(t *testing.T) {
	cfg := testTokenConfig()
	cfg.AccessTokenTTL = -time.Minute
	svc, err := NewTokenService(cfg, &fakeSaver{})
	require.NoError(t, err)

	raw, err := svc.SignAccessToken(testUser())
	require.NoError(t, err)

	_, err = svc.Verify(raw, TokenAccess)
	assert.ErrorIs(t, err, apperr.ErrTokenExpired)
}

func TestTokenService_BadSignature(t *testing.T) {
	svc, err := NewTokenService(testTokenConfig(), &fakeSaver{})
	require.NoError(t, err)

	other := testTokenConfig()
	other.AccessTokenSecret = "different-secret"
	otherSvc, err := NewTokenService(other, &fakeSaver{})
	require.NoError(t, err)

	raw, err := otherSvc.SignAccessToken(testUser())
	require.NoError(t, err)

	_, err = svc.Verify(raw, TokenAccess)
	assert.ErrorIs(t, err, apperr.ErrTokenInvalid)
}

func TestTokenService_Malformed(t *testing.T) {
	svc, err := NewTokenService(testTokenConfig(), &fakeSaver{})
	require.NoError(t, err)

	_, err = svc.Verify("not-a-jwt", TokenAccess)
	assert.ErrorIs(t, err, apperr.ErrTokenInvalid)
}

func TestTokenService_RejectsUnexpectedAlg(t *testing.T) {
	svc, err := NewTokenService(testTokenConfig(), &fakeSaver{})
	require.NoError(t, err)

	// alg=none tokens must never verify
	raw, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "1", "kind": "access"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = svc.Verify(raw, TokenAccess)
	assert.ErrorIs(t, err, apperr.ErrTokenInvalid)
}

func TestTokenService_IssuePair(t *testing.T) {
	saver := &fakeSaver{}
	svc, err := NewTokenService(testTokenConfig(), saver)
	require.NoError(t, err)

	u := testUser()
	pair, err := svc.IssuePair(context.Background(), u)
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	// The refresh token is persisted as the single current value.
	assert.Equal(t, pair.RefreshToken, saver.saved[u.ID.Hex()])

	_, err = svc.Verify(pair.AccessToken, TokenAccess)
	assert.NoError(t, err)
	_, err = svc.Verify(pair.RefreshToken, TokenRefresh)
	assert.NoError(t, err)
}

func TestTokenService_IssuePairPersistFailure(t *testing.T) {
	saver := &fakeSaver{err: errors.New("mongo down")}
	svc, err := NewTokenService(testTokenConfig(), saver)
	require.NoError(t, err)

	_, err = svc.IssuePair(context.Background(), testUser())
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrPersistence)
}

func TestTokenService_VerifyAccess(t *testing.T) {
	svc, err := NewTokenService(testTokenConfig(), &fakeSaver{})
	require.NoError(t, err)

	u := testUser()
	raw, err := svc.SignAccessToken(u)
	require.NoError(t, err)

	id, err := svc.VerifyAccess(raw)
	require.NoError(t, err)
	assert.Equal(t, u.ID.Hex(), id)

	_, err = svc.VerifyAccess("garbage")
	assert.Error(t, err)
}
