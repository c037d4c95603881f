package service

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/meddist/internal-api/internal/domain"
	"github.com/meddist/internal-api/internal/pkg/lock"
	"github.com/meddist/internal-api/internal/repository"
)

func newKey() domain.InventoryKey {
	return domain.InventoryKey{ProductID: uuid.New(), LocationID: uuid.New(), ChannelID: uuid.New()}
}

func rowFor(key domain.InventoryKey, available, reserved int) domain.ProductInventory {
	return domain.ProductInventory{
		ID:             uuid.New(),
		ProductID:      key.ProductID,
		LocationID:     key.LocationID,
		ChannelID:      key.ChannelID,
		AvailableStock: available,
		ReservedStock:  reserved,
		Version:        1,
		LastUpdated:    time.Now().UTC(),
	}
}

func TestApplyChange(t *testing.T) {
	key := newKey()
	user := uuid.New()

	tests := []struct {
		name          string
		available     int
		reserved      int
		changeType    domain.ChangeType
		quantity      int
		wantAvailable int
		wantReserved  int
		wantErr       error
	}{
		{"stock in", 5, 0, domain.ChangeStockIn, 3, 8, 0, nil},
		{"stock out", 5, 1, domain.ChangeStockOut, 5, 0, 1, nil},
		{"stock out too much", 2, 0, domain.ChangeStockOut, 3, 0, 0, ErrInsufficientStock},
		{"reserve", 5, 0, domain.ChangeReserve, 2, 3, 2, nil},
		{"reserve too much", 1, 4, domain.ChangeReserve, 2, 0, 0, ErrInsufficientStockReserve},
		{"release", 3, 2, domain.ChangeRelease, 2, 5, 0, nil},
		{"release too much", 3, 1, domain.ChangeRelease, 2, 0, 0, ErrInsufficientReservedStock},
		{"stock in overflow", 10, 0, domain.ChangeStockIn, math.MaxInt, 0, 0, ErrStockOverflow},
		{"stock in up to the limit", 10, 0, domain.ChangeStockIn, math.MaxInt - 10, math.MaxInt, 0, nil},
		{"reserve overflow", 5, math.MaxInt - 1, domain.ChangeReserve, 2, 0, 0, ErrStockOverflow},
		{"release overflow", math.MaxInt - 1, 5, domain.ChangeRelease, 2, 0, 0, ErrStockOverflow},
		{"unknown type", 3, 1, domain.ChangeType("SHRINK"), 1, 0, 0, ErrInvalidChangeType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv, entry, err := applyChange(rowFor(key, tt.available, tt.reserved), domain.InventoryChange{
				Key:        key,
				ChangeType: tt.changeType,
				Quantity:   tt.quantity,
				UserID:     &user,
			})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantAvailable, inv.AvailableStock)
			assert.Equal(t, tt.wantReserved, inv.ReservedStock)
			assert.Equal(t, tt.changeType, entry.ChangeType)
			assert.Equal(t, tt.quantity, entry.Quantity)
			assert.Equal(t, key.ChannelID, *entry.ChannelID)
			assert.Equal(t, &user, entry.UserID)
		})
	}
}

func TestInventoryService_UpdateStockPublishesAfterCommit(t *testing.T) {
	ctx := context.Background()
	key := newKey()
	user := uuid.New()

	repo := &inventoryRepoMock{}
	repo.On("Mutate", mock.Anything, key).Return(rowFor(key, 10, 0), nil).Once()

	pub := &publisherMock{}
	pub.On("PublishInventoryChanged", mock.Anything, mock.MatchedBy(func(e domain.InventoryChanged) bool {
		return e.InventoryKey == key &&
			e.ChangeType == domain.ChangeStockOut &&
			e.AvailableStock == 6 &&
			e.Version == 2 &&
			e.UserID != nil && *e.UserID == user
	})).Return(nil).Once()

	svc := NewInventoryService(repo, lock.NopLocker{}, pub, 3)

	inv, err := svc.UpdateStock(ctx, domain.InventoryChange{
		Key: key, ChangeType: domain.ChangeStockOut, Quantity: 4, UserID: &user,
	})
	require.NoError(t, err)
	assert.Equal(t, 6, inv.AvailableStock)
	assert.Equal(t, 2, inv.Version)
	repo.AssertExpectations(t)
	pub.AssertExpectations(t)
}

func TestInventoryService_UpdateStockRejectsReservationTypes(t *testing.T) {
	svc := NewInventoryService(&inventoryRepoMock{}, lock.NopLocker{}, &publisherMock{}, 3)

	_, err := svc.UpdateStock(context.Background(), domain.InventoryChange{
		Key: newKey(), ChangeType: domain.ChangeReserve, Quantity: 1,
	})
	assert.ErrorIs(t, err, ErrInvalidChangeType)

	_, err = svc.UpdateStock(context.Background(), domain.InventoryChange{
		Key: newKey(), ChangeType: domain.ChangeStockIn, Quantity: 0,
	})
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestInventoryService_RetriesVersionConflicts(t *testing.T) {
	ctx := context.Background()
	key := newKey()

	repo := &inventoryRepoMock{}
	repo.On("Mutate", mock.Anything, key).Return(domain.ProductInventory{}, repository.ErrInventoryVersionConflict).Twice()
	repo.On("Mutate", mock.Anything, key).Return(rowFor(key, 5, 0), nil).Once()

	pub := &publisherMock{}
	pub.On("PublishInventoryChanged", mock.Anything, mock.Anything).Return(nil)

	inv, err := NewInventoryService(repo, lock.NopLocker{}, pub, 3).
		Reserve(ctx, key, 2, "tx-1", nil)
	require.NoError(t, err)
	assert.Equal(t, 3, inv.AvailableStock)
	assert.Equal(t, 2, inv.ReservedStock)
	repo.AssertNumberOfCalls(t, "Mutate", 3)
}

func TestInventoryService_GivesUpAfterMaxRetries(t *testing.T) {
	ctx := context.Background()
	key := newKey()

	repo := &inventoryRepoMock{}
	repo.On("Mutate", mock.Anything, key).Return(domain.ProductInventory{}, repository.ErrInventoryVersionConflict)

	pub := &publisherMock{}

	_, err := NewInventoryService(repo, lock.NopLocker{}, pub, 2).
		Release(ctx, key, 1, "tx-1", nil)
	assert.ErrorIs(t, err, ErrInventoryBusy)
	repo.AssertNumberOfCalls(t, "Mutate", 2)
	pub.AssertNotCalled(t, "PublishInventoryChanged", mock.Anything, mock.Anything)
}

func TestInventoryService_InsufficientStockIsNotRetried(t *testing.T) {
	ctx := context.Background()
	key := newKey()

	repo := &inventoryRepoMock{}
	repo.On("Mutate", mock.Anything, key).Return(rowFor(key, 1, 0), nil)

	_, err := NewInventoryService(repo, lock.NopLocker{}, &publisherMock{}, 3).
		Reserve(ctx, key, 5, "tx-9", nil)
	assert.ErrorIs(t, err, ErrInsufficientStockReserve)
	repo.AssertNumberOfCalls(t, "Mutate", 1)
}

func TestInventoryService_StockOverflowIsNotWritten(t *testing.T) {
	ctx := context.Background()
	key := newKey()

	repo := &inventoryRepoMock{}
	repo.On("Mutate", mock.Anything, key).Return(rowFor(key, 10, 0), nil)

	pub := &publisherMock{}

	_, err := NewInventoryService(repo, lock.NopLocker{}, pub, 3).UpdateStock(ctx, domain.InventoryChange{
		Key: key, ChangeType: domain.ChangeStockIn, Quantity: math.MaxInt,
	})
	assert.ErrorIs(t, err, ErrStockOverflow)
	repo.AssertNumberOfCalls(t, "Mutate", 1)
	pub.AssertNotCalled(t, "PublishInventoryChanged", mock.Anything, mock.Anything)
}

func TestInventoryService_NegativeStockFromStoreIsTyped(t *testing.T) {
	key := newKey()

	repo := &inventoryRepoMock{}
	repo.On("Mutate", mock.Anything, key).Return(domain.ProductInventory{}, repository.ErrNegativeStock)

	_, err := NewInventoryService(repo, lock.NopLocker{}, &publisherMock{}, 3).UpdateStock(context.Background(),
		domain.InventoryChange{Key: key, ChangeType: domain.ChangeStockOut, Quantity: 1})
	assert.ErrorIs(t, err, ErrNegativeStock)
	repo.AssertNumberOfCalls(t, "Mutate", 1)
}

func TestInventoryService_PublishFailureDoesNotFailMutation(t *testing.T) {
	ctx := context.Background()
	key := newKey()

	repo := &inventoryRepoMock{}
	repo.On("Mutate", mock.Anything, key).Return(rowFor(key, 0, 0), nil)

	pub := &publisherMock{}
	pub.On("PublishInventoryChanged", mock.Anything, mock.Anything).Return(errors.New("broker down"))

	core, logs := observer.New(zapcore.ErrorLevel)
	defer zap.ReplaceGlobals(zap.New(core))()

	inv, err := NewInventoryService(repo, lock.NopLocker{}, pub, 3).UpdateStock(ctx, domain.InventoryChange{
		Key: key, ChangeType: domain.ChangeStockIn, Quantity: 7,
	})
	require.NoError(t, err)
	assert.Equal(t, 7, inv.AvailableStock)
	assert.Equal(t, 1, logs.FilterMessage("failed to publish inventory event").Len())
}

func TestInventoryService_LockFailureIsBusy(t *testing.T) {
	repo := &inventoryRepoMock{}
	locker := failingLocker{err: lock.ErrNotAcquired}

	_, err := NewInventoryService(repo, locker, &publisherMock{}, 3).UpdateStock(context.Background(),
		domain.InventoryChange{Key: newKey(), ChangeType: domain.ChangeStockIn, Quantity: 1})
	assert.ErrorIs(t, err, ErrInventoryBusy)
	repo.AssertNotCalled(t, "Mutate", mock.Anything, mock.Anything)
}

func TestInventoryService_ReserveRecordsTransaction(t *testing.T) {
	change := transactionChange(newKey(), domain.ChangeReserve, 2, "order-42", nil)

	require.NotNil(t, change.Reason)
	assert.Equal(t, "Transaction: order-42", *change.Reason)
}
