package request

import (
	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/meddist/internal-api/internal/domain"
)

type CreateChannelRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

func (req *CreateChannelRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Name, validation.Required, validation.Length(1, 255)),
	)
}

func (req *CreateChannelRequest) ToDomain() domain.Channel {
	return domain.Channel{
		Name:        req.Name,
		Description: req.Description,
	}
}

type UpdateChannelRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

func (req *UpdateChannelRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Name, validation.NilOrNotEmpty, validation.Length(1, 255)),
	)
}

func (req *UpdateChannelRequest) ToDomain() domain.ChannelPatch {
	return domain.ChannelPatch{
		Name:        req.Name,
		Description: req.Description,
	}
}
