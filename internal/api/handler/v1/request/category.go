package request

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/google/uuid"

	"github.com/meddist/internal-api/internal/domain"
)

type CreateCategoryRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	ParentID    string  `json:"parentId"`
}

func (req *CreateCategoryRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Name, validation.Required),
		validation.Field(&req.ParentID, is.UUID),
	)
}

func (req *CreateCategoryRequest) ToDomain() domain.Category {
	return domain.Category{
		Name:        req.Name,
		Description: req.Description,
		ParentID:    optionalUUID(req.ParentID),
	}
}

// UpdateCategoryRequest uses an empty parentId to detach the category from its parent.
type UpdateCategoryRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	ParentID    *string `json:"parentId"`
}

func (req *UpdateCategoryRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Name, validation.NilOrNotEmpty),
		validation.Field(&req.ParentID, is.UUID),
	)
}

func (req *UpdateCategoryRequest) ToDomain() domain.CategoryPatch {
	patch := domain.CategoryPatch{
		Name:        req.Name,
		Description: req.Description,
	}
	if req.ParentID != nil {
		parent := uuid.Nil
		if *req.ParentID != "" {
			parent = mustUUID(*req.ParentID)
		}
		patch.ParentID = &parent
	}

	return patch
}
