package service

import (
	"bytes"
	"context"
	"io"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"

	"github.com/meddist/internal-api/internal/domain"
	"github.com/meddist/internal-api/internal/pkg/lock"
	"github.com/meddist/internal-api/internal/pkg/mailer"
	"github.com/meddist/internal-api/internal/repository"
)

func TestMain(m *testing.M) {
	passwordHashCost = bcrypt.MinCost
	os.Exit(m.Run())
}

type userRepoMock struct{ mock.Mock }

func (m *userRepoMock) Create(ctx context.Context, user domain.User) (domain.User, error) {
	args := m.Called(ctx, user)
	return args.Get(0).(domain.User), args.Error(1)
}

func (m *userRepoMock) FindByID(ctx context.Context, id uuid.UUID) (domain.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.User), args.Error(1)
}

func (m *userRepoMock) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(domain.User), args.Error(1)
}

func (m *userRepoMock) FindByResetToken(ctx context.Context, token string, now time.Time) (domain.User, error) {
	args := m.Called(ctx, token, now)
	return args.Get(0).(domain.User), args.Error(1)
}

func (m *userRepoMock) FindAll(ctx context.Context) ([]domain.User, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.User), args.Error(1)
}

func (m *userRepoMock) Update(ctx context.Context, id uuid.UUID, patch domain.UserPatch) (domain.User, error) {
	args := m.Called(ctx, id, patch)
	return args.Get(0).(domain.User), args.Error(1)
}

func (m *userRepoMock) UpdateRoles(ctx context.Context, id uuid.UUID, roles []string) (domain.User, error) {
	args := m.Called(ctx, id, roles)
	return args.Get(0).(domain.User), args.Error(1)
}

func (m *userRepoMock) SetResetToken(ctx context.Context, id uuid.UUID, token string, expires time.Time) error {
	return m.Called(ctx, id, token, expires).Error(0)
}

func (m *userRepoMock) ResetPassword(ctx context.Context, id uuid.UUID, hash string) error {
	return m.Called(ctx, id, hash).Error(0)
}

func (m *userRepoMock) AddAddress(ctx context.Context, userID uuid.UUID, address domain.Address) (domain.Address, error) {
	args := m.Called(ctx, userID, address)
	return args.Get(0).(domain.Address), args.Error(1)
}

func (m *userRepoMock) FindAddresses(ctx context.Context, userID uuid.UUID) ([]domain.Address, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.Address), args.Error(1)
}

func (m *userRepoMock) DeleteAddress(ctx context.Context, userID, addressID uuid.UUID) error {
	return m.Called(ctx, userID, addressID).Error(0)
}

type mailerMock struct{ mock.Mock }

func (m *mailerMock) SendPasswordReset(ctx context.Context, to string, data mailer.PasswordReset) error {
	return m.Called(ctx, to, data).Error(0)
}

type categoryRepoMock struct{ mock.Mock }

func (m *categoryRepoMock) Create(ctx context.Context, category domain.Category) (domain.Category, error) {
	args := m.Called(ctx, category)
	return args.Get(0).(domain.Category), args.Error(1)
}

func (m *categoryRepoMock) FindAll(ctx context.Context) ([]domain.Category, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Category), args.Error(1)
}

func (m *categoryRepoMock) FindAllFlat(ctx context.Context) ([]domain.Category, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Category), args.Error(1)
}

func (m *categoryRepoMock) FindByID(ctx context.Context, id uuid.UUID) (domain.Category, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Category), args.Error(1)
}

func (m *categoryRepoMock) Update(ctx context.Context, id uuid.UUID, patch domain.CategoryPatch) (domain.Category, error) {
	args := m.Called(ctx, id, patch)
	return args.Get(0).(domain.Category), args.Error(1)
}

func (m *categoryRepoMock) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type productRepoMock struct{ mock.Mock }

func (m *productRepoMock) Create(ctx context.Context, product domain.Product, categoryIDs []uuid.UUID) (domain.Product, error) {
	args := m.Called(ctx, product, categoryIDs)
	return args.Get(0).(domain.Product), args.Error(1)
}

func (m *productRepoMock) FindByID(ctx context.Context, id uuid.UUID) (domain.Product, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Product), args.Error(1)
}

func (m *productRepoMock) FindAll(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Product), args.Get(1).(int64), args.Error(2)
}

func (m *productRepoMock) Update(ctx context.Context, id uuid.UUID, u repository.ProductUpdate) (domain.Product, error) {
	args := m.Called(ctx, id, u)
	return args.Get(0).(domain.Product), args.Error(1)
}

func (m *productRepoMock) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type imageStoreMock struct{ mock.Mock }

func (m *imageStoreMock) Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error) {
	args := m.Called(ctx, key, body, size, contentType)
	return args.String(0), args.Error(1)
}

func (m *imageStoreMock) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *imageStoreMock) KeyFromURL(url string) string {
	return m.Called(url).String(0)
}

// inventoryRepoMock runs the apply func of Mutate against the row returned by the
// expectation so the balance rules are exercised.
type inventoryRepoMock struct{ mock.Mock }

func (m *inventoryRepoMock) Create(ctx context.Context, inv domain.ProductInventory) (domain.ProductInventory, error) {
	args := m.Called(ctx, inv)
	return args.Get(0).(domain.ProductInventory), args.Error(1)
}

func (m *inventoryRepoMock) FindByKey(ctx context.Context, key domain.InventoryKey) (domain.ProductInventory, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(domain.ProductInventory), args.Error(1)
}

func (m *inventoryRepoMock) FindAll(ctx context.Context, filter domain.InventoryFilter) ([]domain.ProductInventory, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.ProductInventory), args.Get(1).(int64), args.Error(2)
}

func (m *inventoryRepoMock) FindLogs(ctx context.Context, filter domain.InventoryLogFilter) ([]domain.InventoryLog, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.InventoryLog), args.Get(1).(int64), args.Error(2)
}

func (m *inventoryRepoMock) Mutate(ctx context.Context, key domain.InventoryKey, apply repository.ApplyFunc) (domain.ProductInventory, error) {
	args := m.Called(ctx, key)
	if err := args.Error(1); err != nil {
		return domain.ProductInventory{}, err
	}

	updated, _, err := apply(args.Get(0).(domain.ProductInventory))
	if err != nil {
		return domain.ProductInventory{}, err
	}
	updated.Version++

	return updated, nil
}

type publisherMock struct{ mock.Mock }

func (m *publisherMock) PublishInventoryChanged(ctx context.Context, event domain.InventoryChanged) error {
	return m.Called(ctx, event).Error(0)
}

type failingLocker struct{ err error }

func (l failingLocker) Lock(context.Context, string) (lock.Unlock, error) {
	return nil, l.err
}

type seekableFile struct{ *bytes.Reader }

func (seekableFile) Close() error { return nil }

func uploadOf(name, content string) domain.ImageUpload {
	return domain.ImageUpload{
		Filename:    name,
		ContentType: "image/png",
		Size:        int64(len(content)),
		Open: func() (io.ReadSeekCloser, error) {
			return seekableFile{bytes.NewReader([]byte(content))}, nil
		},
	}
}

func ptr[T any](v T) *T {
	return &v
}
