package request

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/meddist/internal-api/internal/domain"
)

var (
	errInvalidPrice    = errors.New("price must be a number")
	errNegativePrice   = errors.New("price must be greater than or equal to 0")
	errInvalidMetadata = errors.New("imagesMetadata must be a JSON array")
)

// ProductForm is the multipart body of product create and update.
// Pointer fields are nil when the form omits them.
type ProductForm struct {
	Name           *string
	Description    *string
	Brand          *string
	Price          *string
	Categories     []string
	HasCategories  bool
	ImagesMetadata *string
	Images         []*multipart.FileHeader

	partial bool
}

// NewProductForm reads a create form.
func NewProductForm(form *multipart.Form) ProductForm {
	return readProductForm(form, false)
}

// NewProductPatchForm reads an update form where every field is optional.
func NewProductPatchForm(form *multipart.Form) ProductForm {
	return readProductForm(form, true)
}

func readProductForm(form *multipart.Form, partial bool) ProductForm {
	f := ProductForm{partial: partial}
	if form == nil {
		return f
	}

	value := func(key string) *string {
		vs, ok := form.Value[key]
		if !ok || len(vs) == 0 {
			return nil
		}
		v := vs[0]
		return &v
	}

	f.Name = value("name")
	f.Description = value("description")
	f.Brand = value("brand")
	f.Price = value("price")
	f.ImagesMetadata = value("imagesMetadata")

	if cats, ok := form.Value["categories"]; ok {
		f.HasCategories = true
		for _, c := range cats {
			// Clients send either repeated fields or a comma separated list.
			for _, part := range strings.Split(c, ",") {
				if part = strings.TrimSpace(part); part != "" {
					f.Categories = append(f.Categories, part)
				}
			}
		}
	}

	f.Images = form.File["images"]

	return f
}

func (f *ProductForm) Validate() error {
	required := func(rules ...validation.Rule) []validation.Rule {
		if f.partial {
			return append([]validation.Rule{validation.NilOrNotEmpty}, rules...)
		}
		return append([]validation.Rule{validation.Required}, rules...)
	}

	err := validation.ValidateStruct(
		f,
		validation.Field(&f.Name, required()...),
		validation.Field(&f.Brand, required()...),
		validation.Field(&f.Price, required(validation.By(validPrice))...),
		validation.Field(&f.Categories, validation.By(validUUIDs)),
		validation.Field(&f.ImagesMetadata, validation.By(validMetadata)),
	)
	if err != nil {
		return err
	}

	return nil
}

func validUUIDs(value any) error {
	ids, _ := value.([]string)
	for _, id := range ids {
		if err := is.UUID.Validate(id); err != nil {
			return fmt.Errorf("%q: %w", id, err)
		}
	}

	return nil
}

// ParsePrice accepts both "12.50" and "12,50".
func ParsePrice(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(s), ",", "."))
	if err != nil {
		return decimal.Decimal{}, errInvalidPrice
	}
	if d.IsNegative() {
		return decimal.Decimal{}, errNegativePrice
	}

	return d, nil
}

func validPrice(value any) error {
	s, ok := value.(*string)
	if !ok || s == nil {
		return nil
	}

	_, err := ParsePrice(*s)
	return err
}

func validMetadata(value any) error {
	s, ok := value.(*string)
	if !ok || s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}

	_, err := parseMetadata(*s)
	return err
}

func parseMetadata(s string) ([]domain.ImageMetadata, error) {
	var metadata []domain.ImageMetadata
	if err := json.Unmarshal([]byte(s), &metadata); err != nil {
		return nil, errInvalidMetadata
	}

	return metadata, nil
}

// ToDomain converts a validated form.
func (f *ProductForm) ToDomain() (domain.ProductInput, error) {
	in := domain.ProductInput{
		Name:          f.Name,
		Description:   f.Description,
		Brand:         f.Brand,
		HasCategories: f.HasCategories,
	}

	if f.Price != nil {
		price, err := ParsePrice(*f.Price)
		if err != nil {
			return domain.ProductInput{}, err
		}
		in.Price = &price
	}

	for _, c := range f.Categories {
		id, err := uuid.Parse(c)
		if err != nil {
			return domain.ProductInput{}, fmt.Errorf("categories: %w", err)
		}
		in.CategoryIDs = append(in.CategoryIDs, id)
	}

	if f.ImagesMetadata != nil {
		in.HasMetadata = true
		if strings.TrimSpace(*f.ImagesMetadata) != "" {
			metadata, err := parseMetadata(*f.ImagesMetadata)
			if err != nil {
				return domain.ProductInput{}, err
			}
			in.Metadata = metadata
		}
	}

	for _, fh := range f.Images {
		in.Images = append(in.Images, imageUpload(fh))
	}

	return in, nil
}

func imageUpload(fh *multipart.FileHeader) domain.ImageUpload {
	return domain.ImageUpload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Open: func() (io.ReadSeekCloser, error) {
			return fh.Open()
		},
	}
}

type ProductListQuery struct {
	PageQuery
	Search   string `form:"search"`
	Category string `form:"category"`
}

func (q *ProductListQuery) Validate() error {
	return validation.ValidateStruct(
		q,
		validation.Field(&q.Category, is.UUID),
	)
}

func (q *ProductListQuery) ToDomain() domain.ProductFilter {
	return domain.ProductFilter{
		Search:     strings.TrimSpace(q.Search),
		CategoryID: optionalUUID(q.Category),
		Page:       q.PageQuery.ToDomain(),
	}
}
