package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type ChangeType string

const (
	ChangeStockIn  ChangeType = "STOCK_IN"
	ChangeStockOut ChangeType = "STOCK_OUT"
	ChangeReserve  ChangeType = "RESERVE"
	ChangeRelease  ChangeType = "RELEASE"
)

func (c ChangeType) Valid() bool {
	switch c {
	case ChangeStockIn, ChangeStockOut, ChangeReserve, ChangeRelease:
		return true
	}
	return false
}

type InventoryKey struct {
	ProductID  uuid.UUID `json:"productId"`
	LocationID uuid.UUID `json:"locationId"`
	ChannelID  uuid.UUID `json:"channelId"`
}

// LockName is the distributed lock name guarding the inventory row.
func (k InventoryKey) LockName() string {
	return fmt.Sprintf("inventory:%s:%s:%s", k.ProductID, k.LocationID, k.ChannelID)
}

type ProductInventory struct {
	ID             uuid.UUID `json:"id"`
	ProductID      uuid.UUID `json:"productId"`
	LocationID     uuid.UUID `json:"locationId"`
	ChannelID      uuid.UUID `json:"channelId"`
	Product        *Product  `json:"product,omitempty"`
	Location       *Location `json:"location,omitempty"`
	Channel        *Channel  `json:"channel,omitempty"`
	AvailableStock int       `json:"availableStock"`
	ReservedStock  int       `json:"reservedStock"`
	Version        int       `json:"version"`
	LastUpdated    time.Time `json:"lastUpdated"`
}

func (i ProductInventory) Key() InventoryKey {
	return InventoryKey{ProductID: i.ProductID, LocationID: i.LocationID, ChannelID: i.ChannelID}
}

type InventoryLog struct {
	ID         uuid.UUID  `json:"id"`
	ProductID  uuid.UUID  `json:"productId"`
	ChannelID  *uuid.UUID `json:"channelId,omitempty"`
	UserID     *uuid.UUID `json:"userId,omitempty"`
	ChangeType ChangeType `json:"changeType"`
	Quantity   int        `json:"quantity"`
	Reason     *string    `json:"reason,omitempty"`
	Timestamp  time.Time  `json:"timestamp"`
}

// InventoryChange is a stock movement requested by a user.
type InventoryChange struct {
	Key        InventoryKey
	ChangeType ChangeType
	Quantity   int
	Reason     *string
	UserID     *uuid.UUID
}

// InventoryChanged is published after a stock movement commits.
type InventoryChanged struct {
	InventoryKey
	ChangeType     ChangeType `json:"changeType"`
	Quantity       int        `json:"quantity"`
	AvailableStock int        `json:"availableStock"`
	ReservedStock  int        `json:"reservedStock"`
	Version        int        `json:"version"`
	UserID         *uuid.UUID `json:"userId,omitempty"`
	OccurredAt     time.Time  `json:"occurredAt"`
}

type InventoryFilter struct {
	ProductName string
	LocationID  *uuid.UUID
	ChannelID   *uuid.UUID
	Page        Page
}

type InventoryLogFilter struct {
	ProductID  *uuid.UUID
	ChangeType *ChangeType
	UserID     *uuid.UUID
	ChannelID  *uuid.UUID
	Page       Page
}
