package request

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/google/uuid"

	"github.com/meddist/internal-api/internal/domain"
)

var changeTypes = []any{
	string(domain.ChangeStockIn),
	string(domain.ChangeStockOut),
	string(domain.ChangeReserve),
	string(domain.ChangeRelease),
}

// stockChangeTypes are the types accepted by a manual stock update. Reservations have their
// own endpoints.
var stockChangeTypes = []any{
	string(domain.ChangeStockIn),
	string(domain.ChangeStockOut),
}

type InventoryKeyRequest struct {
	ProductID  string `json:"productId" uri:"productId"`
	LocationID string `json:"locationId" uri:"locationId"`
	ChannelID  string `json:"channelId" uri:"channelId"`
}

func (req *InventoryKeyRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.ProductID, validation.Required, is.UUID),
		validation.Field(&req.LocationID, validation.Required, is.UUID),
		validation.Field(&req.ChannelID, validation.Required, is.UUID),
	)
}

func (req *InventoryKeyRequest) ToDomain() domain.InventoryKey {
	return domain.InventoryKey{
		ProductID:  mustUUID(req.ProductID),
		LocationID: mustUUID(req.LocationID),
		ChannelID:  mustUUID(req.ChannelID),
	}
}

type CreateInventoryRequest struct {
	InventoryKeyRequest
	AvailableStock int `json:"availableStock"`
	ReservedStock  int `json:"reservedStock"`
}

func (req *CreateInventoryRequest) Validate() error {
	if err := req.InventoryKeyRequest.Validate(); err != nil {
		return err
	}

	return validation.ValidateStruct(
		req,
		validation.Field(&req.AvailableStock, validation.Min(0)),
		validation.Field(&req.ReservedStock, validation.Min(0)),
	)
}

func (req *CreateInventoryRequest) ToDomain() domain.ProductInventory {
	key := req.InventoryKeyRequest.ToDomain()

	return domain.ProductInventory{
		ProductID:      key.ProductID,
		LocationID:     key.LocationID,
		ChannelID:      key.ChannelID,
		AvailableStock: req.AvailableStock,
		ReservedStock:  req.ReservedStock,
	}
}

type UpdateStockRequest struct {
	InventoryKeyRequest
	Quantity   int     `json:"quantity"`
	ChangeType string  `json:"changeType"`
	Reason     *string `json:"reason"`
}

func (req *UpdateStockRequest) Validate() error {
	if err := req.InventoryKeyRequest.Validate(); err != nil {
		return err
	}

	return validation.ValidateStruct(
		req,
		validation.Field(&req.Quantity, validation.Required, validation.Min(1)),
		validation.Field(&req.ChangeType, validation.Required,
			validation.In(stockChangeTypes...).Error("must be STOCK_IN or STOCK_OUT")),
	)
}

func (req *UpdateStockRequest) ToDomain(userID *uuid.UUID) domain.InventoryChange {
	return domain.InventoryChange{
		Key:        req.InventoryKeyRequest.ToDomain(),
		ChangeType: domain.ChangeType(req.ChangeType),
		Quantity:   req.Quantity,
		Reason:     req.Reason,
		UserID:     userID,
	}
}

// ReservationRequest is the body of both reserve and release.
type ReservationRequest struct {
	InventoryKeyRequest
	Quantity      int    `json:"quantity"`
	TransactionID string `json:"transactionId"`
}

func (req *ReservationRequest) Validate() error {
	if err := req.InventoryKeyRequest.Validate(); err != nil {
		return err
	}

	return validation.ValidateStruct(
		req,
		validation.Field(&req.Quantity, validation.Required, validation.Min(1)),
		validation.Field(&req.TransactionID, validation.Required),
	)
}

type InventoryListQuery struct {
	PageQuery
	ProductName string `form:"productName"`
	LocationID  string `form:"locationId"`
	ChannelID   string `form:"channelId"`
}

func (q *InventoryListQuery) Validate() error {
	return validation.ValidateStruct(
		q,
		validation.Field(&q.LocationID, is.UUID),
		validation.Field(&q.ChannelID, is.UUID),
	)
}

func (q *InventoryListQuery) ToDomain() domain.InventoryFilter {
	return domain.InventoryFilter{
		ProductName: q.ProductName,
		LocationID:  optionalUUID(q.LocationID),
		ChannelID:   optionalUUID(q.ChannelID),
		Page:        q.PageQuery.ToDomain(),
	}
}

type InventoryLogQuery struct {
	PageQuery
	ProductID  string `form:"productId"`
	ChangeType string `form:"changeType"`
	UserID     string `form:"userId"`
	ChannelID  string `form:"channelId"`
}

func (q *InventoryLogQuery) Validate() error {
	return validation.ValidateStruct(
		q,
		validation.Field(&q.ProductID, is.UUID),
		validation.Field(&q.ChangeType, validation.In(changeTypes...)),
		validation.Field(&q.UserID, is.UUID),
		validation.Field(&q.ChannelID, is.UUID),
	)
}

func (q *InventoryLogQuery) ToDomain() domain.InventoryLogFilter {
	filter := domain.InventoryLogFilter{
		ProductID: optionalUUID(q.ProductID),
		UserID:    optionalUUID(q.UserID),
		ChannelID: optionalUUID(q.ChannelID),
		Page:      q.PageQuery.ToDomain(),
	}
	if q.ChangeType != "" {
		ct := domain.ChangeType(q.ChangeType)
		filter.ChangeType = &ct
	}

	return filter
}
