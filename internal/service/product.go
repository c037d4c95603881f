package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/meddist/internal-api/internal/domain"
	"github.com/meddist/internal-api/internal/pkg/storage"
	"github.com/meddist/internal-api/internal/repository"
)

var (
	ErrProductNotFound      = repository.ErrProductNotFound
	ErrProductImageNotFound = repository.ErrProductImageNotFound
	ErrUnknownCategory      = repository.ErrUnknownCategory
	ErrProductCreateFailed  = errors.New("failed to create product")
)

type ProductRepository interface {
	Create(ctx context.Context, product domain.Product, categoryIDs []uuid.UUID) (domain.Product, error)
	FindByID(ctx context.Context, id uuid.UUID) (domain.Product, error)
	FindAll(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, int64, error)
	Update(ctx context.Context, id uuid.UUID, u repository.ProductUpdate) (domain.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type ImageStore interface {
	Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
	KeyFromURL(url string) string
}

type ProductService struct {
	repo      ProductRepository
	store     ImageStore
	sanitizer *bluemonday.Policy
	now       func() time.Time
}

func NewProductService(repo ProductRepository, store ImageStore) *ProductService {
	return &ProductService{
		repo:      repo,
		store:     store,
		sanitizer: bluemonday.UGCPolicy(),
		now:       time.Now,
	}
}

// Create uploads the images under a fresh product id and persists the product. Uploaded
// objects are removed again when anything fails.
func (s *ProductService) Create(ctx context.Context, in domain.ProductInput) (domain.Product, error) {
	id := uuid.New()

	images, keys, err := s.uploadImages(ctx, id, in.Images, in.Metadata)
	if err != nil {
		s.deleteObjects(ctx, keys)
		return domain.Product{}, fmt.Errorf("%w: %w", ErrProductCreateFailed, err)
	}

	product := domain.Product{
		ID:     id,
		Images: images,
	}
	if in.Name != nil {
		product.Name = *in.Name
	}
	if in.Brand != nil {
		product.Brand = *in.Brand
	}
	if in.Price != nil {
		product.Price = *in.Price
	}
	product.Description = s.sanitize(in.Description)

	created, err := s.repo.Create(ctx, product, in.CategoryIDs)
	if err != nil {
		s.deleteObjects(ctx, keys)
		if errors.Is(err, repository.ErrUnknownCategory) {
			return domain.Product{}, ErrUnknownCategory
		}

		return domain.Product{}, fmt.Errorf("%w: s.repo.Create -> %w", ErrProductCreateFailed, err)
	}

	return created, nil
}

func (s *ProductService) Get(ctx context.Context, id uuid.UUID) (domain.Product, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Product{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	return product, nil
}

func (s *ProductService) List(ctx context.Context, filter domain.ProductFilter) (domain.ProductList, error) {
	filter.Page = filter.Page.Normalize()

	products, total, err := s.repo.FindAll(ctx, filter)
	if err != nil {
		return domain.ProductList{}, fmt.Errorf("s.repo.FindAll -> %w", err)
	}

	return domain.ProductList{
		Products:   products,
		Total:      total,
		Page:       filter.Page.Page,
		TotalPages: filter.Page.TotalPages(total),
	}, nil
}

// Update applies the form to the product. When metadata is sent, existing images missing
// from it are removed and the flags of the listed ones are rewritten.
func (s *ProductService) Update(ctx context.Context, id uuid.UUID, in domain.ProductInput) (domain.Product, error) {
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Product{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	u := repository.ProductUpdate{
		Name:          in.Name,
		Brand:         in.Brand,
		Price:         in.Price,
		Description:   s.sanitize(in.Description),
		CategoryIDs:   in.CategoryIDs,
		SetCategories: in.HasCategories,
	}

	var removed []domain.ProductImage
	if in.HasMetadata {
		kept := make(map[uuid.UUID]domain.ImageMetadata)
		for _, m := range in.Metadata {
			if m.ID != nil {
				kept[*m.ID] = m
			}
		}

		for _, img := range current.Images {
			m, ok := kept[img.ID]
			if !ok {
				removed = append(removed, img)
				u.DeleteImageIDs = append(u.DeleteImageIDs, img.ID)
				continue
			}
			delete(kept, img.ID)
			u.ImageFlags = append(u.ImageFlags, domain.ProductImage{
				ID:          img.ID,
				IsPrimary:   m.IsPrimary,
				IsListImage: m.IsListImage,
			})
		}
		if len(kept) > 0 {
			return domain.Product{}, ErrProductImageNotFound
		}
	}

	images, keys, err := s.uploadImages(ctx, id, in.Images, in.Metadata)
	if err != nil {
		s.deleteObjects(ctx, keys)
		return domain.Product{}, err
	}
	u.NewImages = images

	updated, err := s.repo.Update(ctx, id, u)
	if err != nil {
		s.deleteObjects(ctx, keys)
		return domain.Product{}, fmt.Errorf("s.repo.Update -> %w", err)
	}

	removedKeys := make([]string, 0, len(removed))
	for _, img := range removed {
		removedKeys = append(removedKeys, s.store.KeyFromURL(img.URL))
	}
	s.deleteObjects(ctx, removedKeys)

	return updated, nil
}

func (s *ProductService) Delete(ctx context.Context, id uuid.UUID) error {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	for _, img := range product.Images {
		if err = s.store.Delete(ctx, s.store.KeyFromURL(img.URL)); err != nil {
			return fmt.Errorf("s.store.Delete -> %w", err)
		}
	}

	if err = s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("s.repo.Delete -> %w", err)
	}

	return nil
}

// uploadImages stores every file and returns the image rows and the keys written so far,
// also on error.
func (s *ProductService) uploadImages(ctx context.Context, productID uuid.UUID, files []domain.ImageUpload, metadata []domain.ImageMetadata) ([]domain.ProductImage, []string, error) {
	images := make([]domain.ProductImage, 0, len(files))
	keys := make([]string, 0, len(files))

	for i, file := range files {
		key := storage.ObjectKey(productID, file.Filename, s.now())

		url, err := s.uploadOne(ctx, key, file)
		if err != nil {
			return nil, keys, fmt.Errorf("upload %q -> %w", file.Filename, err)
		}
		keys = append(keys, key)

		img := domain.ProductImage{URL: url, ProductID: productID}
		if m, ok := metadataAt(metadata, i); ok {
			img.IsPrimary = m.IsPrimary
			img.IsListImage = m.IsListImage
		}
		images = append(images, img)
	}

	return images, keys, nil
}

func (s *ProductService) uploadOne(ctx context.Context, key string, file domain.ImageUpload) (string, error) {
	body, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("file.Open -> %w", err)
	}
	defer body.Close()

	return s.store.Upload(ctx, key, body, file.Size, file.ContentType)
}

func (s *ProductService) deleteObjects(ctx context.Context, keys []string) {
	for _, key := range keys {
		if err := s.store.Delete(context.WithoutCancel(ctx), key); err != nil {
			zap.L().Warn("failed to delete image object", zap.String("key", key), zap.Error(err))
		}
	}
}

func (s *ProductService) sanitize(description *string) *string {
	if description == nil {
		return nil
	}

	clean := s.sanitizer.Sanitize(*description)

	return &clean
}

func metadataAt(metadata []domain.ImageMetadata, position int) (domain.ImageMetadata, bool) {
	for _, m := range metadata {
		if m.ID == nil && m.Position != nil && *m.Position == position {
			return m, true
		}
	}

	return domain.ImageMetadata{}, false
}
