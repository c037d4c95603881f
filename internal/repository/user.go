package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/meddist/internal-api/internal/domain"
	"github.com/meddist/internal-api/internal/repository/dao"
)

var (
	ErrUserEmailExists   = dao.ErrUserEmailExists
	ErrUserNotFound      = dao.ErrUserNotFound
	ErrResetTokenInvalid = dao.ErrResetTokenInvalid
	ErrAddressNotFound   = dao.ErrAddressNotFound
)

type UserDAO interface {
	Insert(ctx context.Context, user dao.User) (dao.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (dao.User, error)
	FindByEmail(ctx context.Context, email string) (dao.User, error)
	FindByResetToken(ctx context.Context, token string, now time.Time) (dao.User, error)
	FindAll(ctx context.Context) ([]dao.User, error)
	Update(ctx context.Context, id uuid.UUID, fields map[string]any) (dao.User, error)
	SetResetToken(ctx context.Context, id uuid.UUID, token string, expires time.Time) error
	ResetPassword(ctx context.Context, id uuid.UUID, hash string) error
}

type AddressDAO interface {
	Insert(ctx context.Context, address dao.Address) (dao.Address, error)
	FindByUserID(ctx context.Context, userID uuid.UUID) ([]dao.Address, error)
	DeleteForUser(ctx context.Context, userID, addressID uuid.UUID) error
}

type UserRepository struct {
	dao        UserDAO
	addressDAO AddressDAO
}

func NewUserRepository(dao UserDAO, addressDAO AddressDAO) *UserRepository {
	return &UserRepository{
		dao:        dao,
		addressDAO: addressDAO,
	}
}

func (r *UserRepository) Create(ctx context.Context, user domain.User) (domain.User, error) {
	roles := user.Roles
	if len(roles) == 0 {
		roles = domain.DefaultRoles
	}

	addresses := make([]dao.Address, 0, len(user.Addresses))
	for _, a := range user.Addresses {
		addresses = append(addresses, addressDomainToDAO(a))
	}

	created, err := r.dao.Insert(ctx, dao.User{
		Email:     user.Email,
		Password:  user.Password,
		Username:  user.Username,
		FullName:  user.FullName,
		Telephone: user.Telephone,
		CPF:       user.CPF,
		Roles:     joinRoles(roles),
		Addresses: addresses,
	})
	if err != nil {
		return domain.User{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return r.daoToDomain(created), nil
}

func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (domain.User, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.User{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	return r.daoToDomain(found), nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	found, err := r.dao.FindByEmail(ctx, email)
	if err != nil {
		return domain.User{}, fmt.Errorf("r.dao.FindByEmail -> %w", err)
	}

	return r.daoToDomain(found), nil
}

func (r *UserRepository) FindByResetToken(ctx context.Context, token string, now time.Time) (domain.User, error) {
	found, err := r.dao.FindByResetToken(ctx, token, now)
	if err != nil {
		return domain.User{}, fmt.Errorf("r.dao.FindByResetToken -> %w", err)
	}

	return r.daoToDomain(found), nil
}

func (r *UserRepository) FindAll(ctx context.Context) ([]domain.User, error) {
	found, err := r.dao.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindAll -> %w", err)
	}

	users := make([]domain.User, 0, len(found))
	for _, u := range found {
		users = append(users, r.daoToDomain(u))
	}

	return users, nil
}

// Update applies the non-nil fields of patch. Password must already be hashed.
func (r *UserRepository) Update(ctx context.Context, id uuid.UUID, patch domain.UserPatch) (domain.User, error) {
	fields := make(map[string]any)
	if patch.Email != nil {
		fields["email"] = *patch.Email
	}
	if patch.Password != nil {
		fields["password"] = *patch.Password
	}
	if patch.Username != nil {
		fields["username"] = *patch.Username
	}

	updated, err := r.dao.Update(ctx, id, fields)
	if err != nil {
		return domain.User{}, fmt.Errorf("r.dao.Update -> %w", err)
	}

	return r.daoToDomain(updated), nil
}

func (r *UserRepository) UpdateRoles(ctx context.Context, id uuid.UUID, roles []string) (domain.User, error) {
	updated, err := r.dao.Update(ctx, id, map[string]any{"roles": joinRoles(roles)})
	if err != nil {
		return domain.User{}, fmt.Errorf("r.dao.Update -> %w", err)
	}

	return r.daoToDomain(updated), nil
}

func (r *UserRepository) SetResetToken(ctx context.Context, id uuid.UUID, token string, expires time.Time) error {
	if err := r.dao.SetResetToken(ctx, id, token, expires); err != nil {
		return fmt.Errorf("r.dao.SetResetToken -> %w", err)
	}

	return nil
}

func (r *UserRepository) ResetPassword(ctx context.Context, id uuid.UUID, hash string) error {
	if err := r.dao.ResetPassword(ctx, id, hash); err != nil {
		return fmt.Errorf("r.dao.ResetPassword -> %w", err)
	}

	return nil
}

func (r *UserRepository) AddAddress(ctx context.Context, userID uuid.UUID, address domain.Address) (domain.Address, error) {
	a := addressDomainToDAO(address)
	a.UserID = &userID
	a.LocationID = nil

	created, err := r.addressDAO.Insert(ctx, a)
	if err != nil {
		return domain.Address{}, fmt.Errorf("r.addressDAO.Insert -> %w", err)
	}

	return addressDAOToDomain(created), nil
}

func (r *UserRepository) FindAddresses(ctx context.Context, userID uuid.UUID) ([]domain.Address, error) {
	found, err := r.addressDAO.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("r.addressDAO.FindByUserID -> %w", err)
	}

	addresses := make([]domain.Address, 0, len(found))
	for _, a := range found {
		addresses = append(addresses, addressDAOToDomain(a))
	}

	return addresses, nil
}

func (r *UserRepository) DeleteAddress(ctx context.Context, userID, addressID uuid.UUID) error {
	if err := r.addressDAO.DeleteForUser(ctx, userID, addressID); err != nil {
		return fmt.Errorf("r.addressDAO.DeleteForUser -> %w", err)
	}

	return nil
}

func (r *UserRepository) daoToDomain(u dao.User) domain.User {
	addresses := make([]domain.Address, 0, len(u.Addresses))
	for _, a := range u.Addresses {
		addresses = append(addresses, addressDAOToDomain(a))
	}

	return domain.User{
		ID:                   u.ID,
		Email:                u.Email,
		Password:             u.Password,
		Username:             u.Username,
		FullName:             u.FullName,
		Telephone:            u.Telephone,
		CPF:                  u.CPF,
		ResetPasswordToken:   u.ResetPasswordToken,
		ResetPasswordExpires: u.ResetPasswordExpires,
		Roles:                splitRoles(u.Roles),
		Addresses:            addresses,
		CreatedAt:            u.CreatedAt,
		UpdatedAt:            u.UpdatedAt,
	}
}

func joinRoles(roles []string) string {
	return strings.Join(roles, ",")
}

func splitRoles(s string) []string {
	if s == "" {
		return []string{}
	}

	parts := strings.Split(s, ",")
	roles := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			roles = append(roles, p)
		}
	}

	return roles
}

func addressDomainToDAO(a domain.Address) dao.Address {
	return dao.Address{
		Base:         dao.Base{ID: a.ID},
		CEP:          a.CEP,
		Address:      a.Address,
		Number:       a.Number,
		Complement:   a.Complement,
		Neighborhood: a.Neighborhood,
		City:         a.City,
		State:        a.State,
		UserID:       a.UserID,
		LocationID:   a.LocationID,
	}
}

func addressDAOToDomain(a dao.Address) domain.Address {
	return domain.Address{
		ID:           a.ID,
		CEP:          a.CEP,
		Address:      a.Address,
		Number:       a.Number,
		Complement:   a.Complement,
		Neighborhood: a.Neighborhood,
		City:         a.City,
		State:        a.State,
		UserID:       a.UserID,
		LocationID:   a.LocationID,
	}
}
