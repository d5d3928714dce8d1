package product

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/grocery-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/grocery-backend/pkg/errors"
	"github.com/angelmondragon/grocery-backend/pkg/logger"
)

// AdminService manages the catalog from the back office.
type AdminService interface {
	ListProducts(ctx context.Context, input AdminListInput) (*ProductListResult, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*ProductDTO, error)
	CreateProduct(ctx context.Context, input ProductInput) (*ProductDTO, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, input ProductInput) (*ProductDTO, error)
	ToggleActive(ctx context.Context, id uuid.UUID) (*ProductDTO, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error

	CreateCategory(ctx context.Context, input CategoryInput) (*CategoryDTO, error)
	UpdateCategory(ctx context.Context, id uuid.UUID, input CategoryInput) (*CategoryDTO, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) error
}

// AdminListInput is ListProductsInput plus an optional active filter.
type AdminListInput struct {
	ListProductsInput
	Active *bool
}

type AdminParams struct {
	Repo   Repository
	Logger *logger.Logger
}

type adminService struct {
	repo Repository
	logg *logger.Logger
}

func NewAdminService(params AdminParams) (AdminService, error) {
	switch {
	case params.Repo == nil:
		return nil, fmt.Errorf("product repository required")
	case params.Logger == nil:
		return nil, fmt.Errorf("logger required")
	}
	return &adminService{repo: params.Repo, logg: params.Logger}, nil
}

func (s *adminService) ListProducts(ctx context.Context, input AdminListInput) (*ProductListResult, error) {
	return listProducts(ctx, s.repo, input.ListProductsInput, input.Active)
}

func (s *adminService) GetProduct(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	product, err := s.repo.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := mapProductDTO(*product)
	return &dto, nil
}

// CreateProduct requires a name and a price. New products are active unless
// IsActive says otherwise.
func (s *adminService) CreateProduct(ctx context.Context, input ProductInput) (*ProductDTO, error) {
	switch {
	case input.Name == nil:
		return nil, fieldError("name", "name is required")
	case input.Price == nil:
		return nil, fieldError("price", "price is required")
	}
	product := &models.Product{IsActive: true}
	if err := s.applyProductInput(ctx, product, input); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, product); err != nil {
		return nil, err
	}
	s.logg.Info(s.logg.WithField(ctx, "product_id", product.ID.String()), "product created")
	return s.GetProduct(ctx, product.ID)
}

func (s *adminService) UpdateProduct(ctx context.Context, id uuid.UUID, input ProductInput) (*ProductDTO, error) {
	product, err := s.repo.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.applyProductInput(ctx, product, input); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, product); err != nil {
		return nil, err
	}
	s.logg.Info(s.logg.WithField(ctx, "product_id", id.String()), "product updated")
	return s.GetProduct(ctx, id)
}

func (s *adminService) ToggleActive(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	product, err := s.repo.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	product.IsActive = !product.IsActive
	if err := s.repo.Save(ctx, product); err != nil {
		return nil, err
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"product_id": id.String(),
		"is_active":  product.IsActive,
	}), "product active toggled")
	return s.GetProduct(ctx, id)
}

// DeleteProduct refuses products that order history still points at.
func (s *adminService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
			return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "product is referenced by orders; deactivate it instead")
		}
		return err
	}
	s.logg.Info(s.logg.WithField(ctx, "product_id", id.String()), "product deleted")
	return nil
}

func (s *adminService) applyProductInput(ctx context.Context, product *models.Product, input ProductInput) error {
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return fieldError("name", "name is required")
		}
		product.Name = name
	}
	if input.Unit != nil {
		product.Unit = strings.TrimSpace(*input.Unit)
	}
	if input.Description != nil {
		product.Description = trimOptional(*input.Description)
	}
	if input.Price != nil {
		if input.Price.IsNegative() {
			return fieldError("price", "price must not be negative")
		}
		product.Price = *input.Price
	}
	if input.CategoryID != nil {
		if *input.CategoryID == uuid.Nil {
			product.CategoryID = nil
		} else {
			if _, err := s.repo.FindCategory(ctx, *input.CategoryID); err != nil {
				if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
					return fieldError("category_id", "category not found")
				}
				return err
			}
			id := *input.CategoryID
			product.CategoryID = &id
		}
		product.Category = nil
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}
	return nil
}

func (s *adminService) CreateCategory(ctx context.Context, input CategoryInput) (*CategoryDTO, error) {
	category := &models.Category{}
	if err := applyCategoryInput(category, input); err != nil {
		return nil, err
	}
	if err := s.repo.CreateCategory(ctx, category); err != nil {
		return nil, categoryConflict(err)
	}
	s.logg.Info(s.logg.WithField(ctx, "category_id", category.ID.String()), "category created")
	dto := mapCategoryDTO(*category)
	return &dto, nil
}

func (s *adminService) UpdateCategory(ctx context.Context, id uuid.UUID, input CategoryInput) (*CategoryDTO, error) {
	category, err := s.repo.FindCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := applyCategoryInput(category, input); err != nil {
		return nil, err
	}
	if err := s.repo.SaveCategory(ctx, category); err != nil {
		return nil, categoryConflict(err)
	}
	s.logg.Info(s.logg.WithField(ctx, "category_id", id.String()), "category updated")
	dto := mapCategoryDTO(*category)
	return &dto, nil
}

func (s *adminService) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteCategory(ctx, id); err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
			return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "category still has products")
		}
		return err
	}
	s.logg.Info(s.logg.WithField(ctx, "category_id", id.String()), "category deleted")
	return nil
}

func applyCategoryInput(category *models.Category, input CategoryInput) error {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return fieldError("name", "name is required")
	}
	category.Name = name
	if input.ImageURL != nil {
		category.ImageURL = trimOptional(*input.ImageURL)
	}
	return nil
}

func categoryConflict(err error) error {
	if pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "category name already exists")
	}
	return err
}

func fieldError(field, message string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, message).
		WithDetails(map[string]any{"field": field})
}

func trimOptional(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}
