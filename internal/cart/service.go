package cart

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/angelmondragon/grocery-backend/internal/discounts"
	pkgerrors "github.com/angelmondragon/grocery-backend/pkg/errors"
	"github.com/angelmondragon/grocery-backend/pkg/logger"
)

// ReasonProductUnavailable tags carts holding products that were deactivated.
const ReasonProductUnavailable = "product_unavailable"

// Service exposes cart persistence operations.
type Service interface {
	GetCart(ctx context.Context, userID uuid.UUID) (*CartDTO, error)
	AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (*CartDTO, error)
	UpdateItem(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*CartDTO, error)
	RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*CartDTO, error)
	Clear(ctx context.Context, userID uuid.UUID) error
	Lines(ctx context.Context, userID uuid.UUID) ([]discounts.CartLine, error)
}

// AddItemInput adds quantity units of a product, merging with an existing line.
type AddItemInput struct {
	ProductID uuid.UUID
	Quantity  int
}

type service struct {
	repo     CartRepository
	products productLoader
	logg     *logger.Logger
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo CartRepository, products productLoader, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, products: products, logg: logg}, nil
}

func (s *service) GetCart(ctx context.Context, userID uuid.UUID) (*CartDTO, error) {
	items, err := s.repo.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return mapCartDTO(items), nil
}

func (s *service) AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (*CartDTO, error) {
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product_id is required")
	}
	if err := validateQuantity(input.Quantity); err != nil {
		return nil, err
	}
	if _, err := s.products.FindActive(ctx, input.ProductID); err != nil {
		return nil, err
	}
	item, err := s.repo.AddQuantity(ctx, userID, input.ProductID, input.Quantity)
	if err != nil {
		return nil, err
	}
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"product_id": input.ProductID.String(),
		"quantity":   item.Quantity,
	})
	s.logg.Info(logCtx, "cart item added")
	return s.GetCart(ctx, userID)
}

func (s *service) UpdateItem(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*CartDTO, error) {
	if err := validateQuantity(quantity); err != nil {
		return nil, err
	}
	if _, err := s.repo.SetQuantity(ctx, userID, itemID, quantity); err != nil {
		return nil, err
	}
	return s.GetCart(ctx, userID)
}

func (s *service) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*CartDTO, error) {
	if err := s.repo.DeleteItem(ctx, userID, itemID); err != nil {
		return nil, err
	}
	return s.GetCart(ctx, userID)
}

func (s *service) Clear(ctx context.Context, userID uuid.UUID) error {
	return s.repo.Clear(ctx, userID)
}

func (s *service) Lines(ctx context.Context, userID uuid.UUID) ([]discounts.CartLine, error) {
	return LoadLines(ctx, s.repo, userID)
}

// LoadLines prices the user's cart at current product prices. repo may be
// bound to a transaction. A line whose product is gone or inactive fails the
// whole cart.
func LoadLines(ctx context.Context, repo CartRepository, userID uuid.UUID) ([]discounts.CartLine, error) {
	items, err := repo.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	lines := make([]discounts.CartLine, 0, len(items))
	for _, item := range items {
		if item.Product == nil || !item.Product.IsActive {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart contains unavailable products").
				WithDetails(map[string]any{
					"reason":     ReasonProductUnavailable,
					"product_id": item.ProductID.String(),
				})
		}
		lines = append(lines, discounts.CartLine{
			ProductID: item.ProductID,
			UnitPrice: item.Product.Price,
			Quantity:  item.Quantity,
		})
	}
	return lines, nil
}

func validateQuantity(qty int) error {
	if qty < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1").
			WithDetails(map[string]any{"field": "quantity"})
	}
	return nil
}
