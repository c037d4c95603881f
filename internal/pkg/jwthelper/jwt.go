package jwthelper

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/meddist/internal-api/internal/config"
	"github.com/meddist/internal-api/internal/domain"
)

type TokenType string

const (
	TokenAccess  TokenType = "access"
	TokenRefresh TokenType = "refresh"
)

var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrWrongTokenType = errors.New("wrong token type")
)

type Claims struct {
	Email    string    `json:"email"`
	Username string    `json:"username"`
	Roles    []string  `json:"roles"`
	Type     TokenType `json:"typ"`
	jwt.RegisteredClaims
}

// UserID parses the subject claim.
func (c *Claims) UserID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Issuer signs and verifies access and refresh tokens with separate keys.
type Issuer struct {
	accessKey  []byte
	refreshKey []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewIssuer(conf *config.JWTConfig) *Issuer {
	return &Issuer{
		accessKey:  []byte(conf.AccessSecret),
		refreshKey: []byte(conf.RefreshSecret),
		accessTTL:  conf.AccessTTL,
		refreshTTL: conf.RefreshTTL,
		now:        time.Now,
	}
}

func (i *Issuer) IssuePair(user domain.User) (TokenPair, error) {
	access, err := i.IssueAccess(user)
	if err != nil {
		return TokenPair{}, err
	}

	refresh, err := GenerateToken(i.refreshKey, TokenRefresh, user, i.now(), i.refreshTTL)
	if err != nil {
		return TokenPair{}, fmt.Errorf("GenerateToken(refresh) -> %w", err)
	}

	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (i *Issuer) IssueAccess(user domain.User) (string, error) {
	token, err := GenerateToken(i.accessKey, TokenAccess, user, i.now(), i.accessTTL)
	if err != nil {
		return "", fmt.Errorf("GenerateToken(access) -> %w", err)
	}

	return token, nil
}

func (i *Issuer) ParseAccess(token string) (*Claims, error) {
	return ParseToken(i.accessKey, token, TokenAccess)
}

func (i *Issuer) ParseRefresh(token string) (*Claims, error) {
	return ParseToken(i.refreshKey, token, TokenRefresh)
}

func GenerateToken(key []byte, typ TokenType, user domain.User, now time.Time, ttl time.Duration) (string, error) {
	claims := Claims{
		Email:    user.Email,
		Username: user.Username,
		Roles:    user.Roles,
		Type:     typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
}

func ParseToken(key []byte, tokenString string, want TokenType) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Type != want {
		return nil, ErrWrongTokenType
	}

	return claims, nil
}
