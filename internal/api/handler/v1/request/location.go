package request

import (
	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/meddist/internal-api/internal/domain"
)

type CreateLocationRequest struct {
	Name     string          `json:"name"`
	Capacity int             `json:"capacity"`
	Address  *AddressRequest `json:"address"`
}

func (req *CreateLocationRequest) Validate() error {
	err := validation.ValidateStruct(
		req,
		validation.Field(&req.Name, validation.Required),
		validation.Field(&req.Capacity, validation.Min(0)),
	)
	if err != nil {
		return err
	}

	if req.Address != nil {
		return req.Address.Validate()
	}

	return nil
}

func (req *CreateLocationRequest) ToDomain() domain.Location {
	location := domain.Location{
		Name:     req.Name,
		Capacity: req.Capacity,
	}
	if req.Address != nil {
		a := req.Address.ToDomain()
		location.Address = &a
	}

	return location
}

type UpdateLocationRequest struct {
	Name     *string         `json:"name"`
	Capacity *int            `json:"capacity"`
	Address  *AddressRequest `json:"address"`
}

func (req *UpdateLocationRequest) Validate() error {
	err := validation.ValidateStruct(
		req,
		validation.Field(&req.Name, validation.NilOrNotEmpty),
		validation.Field(&req.Capacity, validation.Min(0)),
	)
	if err != nil {
		return err
	}

	if req.Address != nil {
		return req.Address.Validate()
	}

	return nil
}

func (req *UpdateLocationRequest) ToDomain() domain.LocationPatch {
	patch := domain.LocationPatch{
		Name:     req.Name,
		Capacity: req.Capacity,
	}
	if req.Address != nil {
		a := req.Address.ToDomain()
		patch.Address = &a
	}

	return patch
}
