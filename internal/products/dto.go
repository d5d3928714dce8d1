package product

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/grocery-backend/pkg/db/models"
	"github.com/angelmondragon/grocery-backend/pkg/pagination"
)

// ProductDTO is the catalog payload.
type ProductDTO struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Unit        string          `json:"unit,omitempty"`
	Description *string         `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	IsActive    bool            `json:"is_active"`
	Category    *CategoryDTO    `json:"category,omitempty"`
}

type CategoryDTO struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	ImageURL *string   `json:"image_url,omitempty"`
}

// ProductListResult is one page of the catalog.
type ProductListResult struct {
	Products   []ProductDTO    `json:"products"`
	Pagination pagination.Meta `json:"pagination"`
}

// ProductInput carries admin edits. Nil fields keep the stored value;
// CategoryID uuid.Nil detaches the product from its category.
type ProductInput struct {
	Name        *string
	Unit        *string
	Description *string
	CategoryID  *uuid.UUID
	Price       *decimal.Decimal
	IsActive    *bool
}

type CategoryInput struct {
	Name     string
	ImageURL *string
}

func mapProductDTO(p models.Product) ProductDTO {
	out := ProductDTO{
		ID:          p.ID,
		Name:        p.Name,
		Unit:        p.Unit,
		Description: p.Description,
		Price:       p.Price,
		IsActive:    p.IsActive,
	}
	if p.Category != nil {
		category := mapCategoryDTO(*p.Category)
		out.Category = &category
	}
	return out
}

func mapCategoryDTO(c models.Category) CategoryDTO {
	return CategoryDTO{ID: c.ID, Name: c.Name, ImageURL: c.ImageURL}
}

func mapProducts(rows []models.Product) []ProductDTO {
	out := make([]ProductDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, mapProductDTO(row))
	}
	return out
}
