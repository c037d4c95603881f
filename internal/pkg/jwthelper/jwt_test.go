package jwthelper

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meddist/internal-api/internal/config"
	"github.com/meddist/internal-api/internal/domain"
)

func newTestIssuer() *Issuer {
	return NewIssuer(&config.JWTConfig{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		AccessTTL:     time.Hour,
		RefreshTTL:    24 * time.Hour,
	})
}

func TestIssuer_IssuePair(t *testing.T) {
	issuer := newTestIssuer()
	user := domain.User{
		ID:       uuid.New(),
		Email:    "ana@meddist.com",
		Username: "ana",
		Roles:    []string{domain.RoleAdmin},
	}

	pair, err := issuer.IssuePair(user)
	require.NoError(t, err)
	assert.NotEqual(t, pair.AccessToken, pair.RefreshToken)

	claims, err := issuer.ParseAccess(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.Email, claims.Email)
	assert.Equal(t, []string{domain.RoleAdmin}, claims.Roles)
	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, user.ID, id)

	claims, err = issuer.ParseRefresh(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, TokenRefresh, claims.Type)
}

func TestIssuer_RejectsSwappedTokens(t *testing.T) {
	issuer := newTestIssuer()
	pair, err := issuer.IssuePair(domain.User{ID: uuid.New()})
	require.NoError(t, err)

	_, err = issuer.ParseAccess(pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = issuer.ParseRefresh(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseToken_WrongType(t *testing.T) {
	key := []byte("shared")
	token, err := GenerateToken(key, TokenRefresh, domain.User{ID: uuid.New()}, time.Now(), time.Hour)
	require.NoError(t, err)

	_, err = ParseToken(key, token, TokenAccess)
	assert.ErrorIs(t, err, ErrWrongTokenType)
}

func TestParseToken_Expired(t *testing.T) {
	key := []byte("shared")
	token, err := GenerateToken(key, TokenAccess, domain.User{ID: uuid.New()}, time.Now().Add(-2*time.Hour), time.Hour)
	require.NoError(t, err)

	_, err = ParseToken(key, token, TokenAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
