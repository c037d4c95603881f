package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/meddist/internal-api/internal/domain"
	"github.com/meddist/internal-api/internal/pkg/jwthelper"
	"github.com/meddist/internal-api/internal/repository"
)

var (
	ErrWrongPassword       = errors.New("wrong password")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
)

type AuthUserRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (domain.User, error)
	FindByEmail(ctx context.Context, email string) (domain.User, error)
}

type TokenIssuer interface {
	IssuePair(user domain.User) (jwthelper.TokenPair, error)
	IssueAccess(user domain.User) (string, error)
	ParseRefresh(token string) (*jwthelper.Claims, error)
}

type LoginResult struct {
	jwthelper.TokenPair
	User domain.User `json:"user"`
}

type AuthService struct {
	repo   AuthUserRepository
	tokens TokenIssuer
}

func NewAuthService(repo AuthUserRepository, tokens TokenIssuer) *AuthService {
	return &AuthService{
		repo:   repo,
		tokens: tokens,
	}
}

func (s *AuthService) Login(ctx context.Context, email, password string) (LoginResult, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return LoginResult{}, ErrUserNotFound
		}

		return LoginResult{}, fmt.Errorf("s.repo.FindByEmail -> %w", err)
	}

	if err = bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return LoginResult{}, ErrWrongPassword
	}

	pair, err := s.tokens.IssuePair(user)
	if err != nil {
		return LoginResult{}, fmt.Errorf("s.tokens.IssuePair -> %w", err)
	}

	return LoginResult{TokenPair: pair, User: user}, nil
}

// Refresh issues a new access token for the subject of a valid refresh token. Roles
// are read again from the store.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.tokens.ParseRefresh(refreshToken)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidRefreshToken, err)
	}

	id, err := claims.UserID()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidRefreshToken, err)
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", ErrInvalidRefreshToken
		}

		return "", fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	token, err := s.tokens.IssueAccess(user)
	if err != nil {
		return "", fmt.Errorf("s.tokens.IssueAccess -> %w", err)
	}

	return token, nil
}

var passwordHashCost = 12

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), passwordHashCost)
	if err != nil {
		return "", fmt.Errorf("bcrypt.GenerateFromPassword -> %w", err)
	}

	return string(hash), nil
}
