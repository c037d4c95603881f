package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/meddist/internal-api/internal/domain"
	"github.com/meddist/internal-api/internal/pkg/mailer"
	"github.com/meddist/internal-api/internal/repository"
)

const resetTokenTTL = time.Hour

var (
	ErrUserNotFound      = repository.ErrUserNotFound
	ErrUserEmailExists   = repository.ErrUserEmailExists
	ErrResetTokenInvalid = repository.ErrResetTokenInvalid
	ErrAddressNotFound   = repository.ErrAddressNotFound
	ErrPermissionDenied  = errors.New("you do not have permission to access this resource")
	ErrUnknownRole       = errors.New("unknown role")
)

type UserRepository interface {
	Create(ctx context.Context, user domain.User) (domain.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (domain.User, error)
	FindByEmail(ctx context.Context, email string) (domain.User, error)
	FindByResetToken(ctx context.Context, token string, now time.Time) (domain.User, error)
	FindAll(ctx context.Context) ([]domain.User, error)
	Update(ctx context.Context, id uuid.UUID, patch domain.UserPatch) (domain.User, error)
	UpdateRoles(ctx context.Context, id uuid.UUID, roles []string) (domain.User, error)
	SetResetToken(ctx context.Context, id uuid.UUID, token string, expires time.Time) error
	ResetPassword(ctx context.Context, id uuid.UUID, hash string) error
	AddAddress(ctx context.Context, userID uuid.UUID, address domain.Address) (domain.Address, error)
	FindAddresses(ctx context.Context, userID uuid.UUID) ([]domain.Address, error)
	DeleteAddress(ctx context.Context, userID, addressID uuid.UUID) error
}

type PasswordResetMailer interface {
	SendPasswordReset(ctx context.Context, to string, data mailer.PasswordReset) error
}

type UserService struct {
	repo        UserRepository
	mailer      PasswordResetMailer
	frontendURL string
	now         func() time.Time
}

func NewUserService(repo UserRepository, mailer PasswordResetMailer, frontendURL string) *UserService {
	return &UserService{
		repo:        repo,
		mailer:      mailer,
		frontendURL: frontendURL,
		now:         time.Now,
	}
}

// Register hashes the password and stores the user with its addresses.
func (s *UserService) Register(ctx context.Context, user domain.User) (domain.User, error) {
	hash, err := hashPassword(user.Password)
	if err != nil {
		return domain.User{}, err
	}
	user.Password = hash
	user.Roles = domain.DefaultRoles

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		return domain.User{}, fmt.Errorf("s.repo.Create -> %w", err)
	}

	return created, nil
}

func (s *UserService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("s.repo.FindByEmail -> %w", err)
	}

	token, err := newResetToken()
	if err != nil {
		return err
	}

	if err = s.repo.SetResetToken(ctx, user.ID, token, s.now().Add(resetTokenTTL)); err != nil {
		return fmt.Errorf("s.repo.SetResetToken -> %w", err)
	}

	link := fmt.Sprintf("%s/alterar-senha?token=%s", s.frontendURL, url.QueryEscape(token))
	err = s.mailer.SendPasswordReset(ctx, user.Email, mailer.PasswordReset{
		Name:      user.FullName,
		Link:      link,
		ExpiresIn: "1 hour",
	})
	if err != nil {
		return fmt.Errorf("s.mailer.SendPasswordReset -> %w", err)
	}

	return nil
}

func (s *UserService) ResetPassword(ctx context.Context, token, newPassword string) error {
	user, err := s.repo.FindByResetToken(ctx, token, s.now())
	if err != nil {
		return fmt.Errorf("s.repo.FindByResetToken -> %w", err)
	}

	hash, err := hashPassword(newPassword)
	if err != nil {
		return err
	}

	if err = s.repo.ResetPassword(ctx, user.ID, hash); err != nil {
		return fmt.Errorf("s.repo.ResetPassword -> %w", err)
	}

	zap.L().Info("password reset", zap.Stringer("user_id", user.ID))

	return nil
}

func (s *UserService) GetUser(ctx context.Context, id uuid.UUID) (domain.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.User{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	return user, nil
}

func (s *UserService) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return domain.User{}, fmt.Errorf("s.repo.FindByEmail -> %w", err)
	}

	return user, nil
}

func (s *UserService) ListUsers(ctx context.Context) ([]domain.User, error) {
	users, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindAll -> %w", err)
	}

	return users, nil
}

// UpdateUser applies patch to user id. Non-admin actors may only update themselves.
func (s *UserService) UpdateUser(ctx context.Context, actor domain.Actor, id uuid.UUID, patch domain.UserPatch) (domain.User, error) {
	if !actor.CanActOn(id) {
		return domain.User{}, ErrPermissionDenied
	}

	if patch.Password != nil {
		hash, err := hashPassword(*patch.Password)
		if err != nil {
			return domain.User{}, err
		}
		patch.Password = &hash
	}

	user, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return domain.User{}, fmt.Errorf("s.repo.Update -> %w", err)
	}

	return user, nil
}

func (s *UserService) SetRoles(ctx context.Context, id uuid.UUID, roles []string) (domain.User, error) {
	for _, r := range roles {
		if !isKnownRole(r) {
			return domain.User{}, fmt.Errorf("%w: %s", ErrUnknownRole, r)
		}
	}

	user, err := s.repo.UpdateRoles(ctx, id, roles)
	if err != nil {
		return domain.User{}, fmt.Errorf("s.repo.UpdateRoles -> %w", err)
	}

	zap.L().Info("user roles changed", zap.Stringer("user_id", id), zap.Strings("roles", roles))

	return user, nil
}

func (s *UserService) ListAddresses(ctx context.Context, actor domain.Actor, userID uuid.UUID) ([]domain.Address, error) {
	if !actor.CanActOn(userID) {
		return nil, ErrPermissionDenied
	}

	if _, err := s.repo.FindByID(ctx, userID); err != nil {
		return nil, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	addresses, err := s.repo.FindAddresses(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindAddresses -> %w", err)
	}

	return addresses, nil
}

func (s *UserService) AddAddress(ctx context.Context, actor domain.Actor, userID uuid.UUID, address domain.Address) (domain.Address, error) {
	if !actor.CanActOn(userID) {
		return domain.Address{}, ErrPermissionDenied
	}

	if _, err := s.repo.FindByID(ctx, userID); err != nil {
		return domain.Address{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	created, err := s.repo.AddAddress(ctx, userID, address)
	if err != nil {
		return domain.Address{}, fmt.Errorf("s.repo.AddAddress -> %w", err)
	}

	return created, nil
}

func (s *UserService) DeleteAddress(ctx context.Context, actor domain.Actor, userID, addressID uuid.UUID) error {
	if !actor.CanActOn(userID) {
		return ErrPermissionDenied
	}

	if err := s.repo.DeleteAddress(ctx, userID, addressID); err != nil {
		return fmt.Errorf("s.repo.DeleteAddress -> %w", err)
	}

	return nil
}

func isKnownRole(role string) bool {
	for _, r := range domain.AllRoles {
		if r == role {
			return true
		}
	}

	return false
}

func newResetToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("rand.Read -> %w", err)
	}

	return hex.EncodeToString(b), nil
}
