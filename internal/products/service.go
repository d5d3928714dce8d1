package product

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/grocery-backend/pkg/pagination"
)

// Service exposes catalog reads.
type Service interface {
	ListProducts(ctx context.Context, input ListProductsInput) (*ProductListResult, error)
	ListCategories(ctx context.Context) ([]CategoryDTO, error)
}

// ListProductsInput filters the catalog by name and category.
type ListProductsInput struct {
	Query      string
	CategoryID *uuid.UUID
	Page       pagination.Page
}

type service struct {
	repo Repository
}

func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) ListProducts(ctx context.Context, input ListProductsInput) (*ProductListResult, error) {
	active := true
	return listProducts(ctx, s.repo, input, &active)
}

func (s *service) ListCategories(ctx context.Context) ([]CategoryDTO, error) {
	rows, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]CategoryDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, mapCategoryDTO(row))
	}
	return out, nil
}

func listProducts(ctx context.Context, repo Repository, input ListProductsInput, active *bool) (*ProductListResult, error) {
	page := pagination.NormalizePage(input.Page)
	rows, total, err := repo.List(ctx, page, ListFilter{
		Query:      strings.ToLower(strings.TrimSpace(input.Query)),
		CategoryID: input.CategoryID,
		Active:     active,
	})
	if err != nil {
		return nil, err
	}
	return &ProductListResult{
		Products:   mapProducts(rows),
		Pagination: pagination.NewMeta(page, total),
	}, nil
}
