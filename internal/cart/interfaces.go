package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/grocery-backend/pkg/db/models"
)

// CartRepository defines the persistence surface required by the cart service.
type CartRepository interface {
	WithTx(tx *gorm.DB) CartRepository
	ListForUser(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error)
	FindItem(ctx context.Context, userID, itemID uuid.UUID) (*models.CartItem, error)
	AddQuantity(ctx context.Context, userID, productID uuid.UUID, qty int) (*models.CartItem, error)
	SetQuantity(ctx context.Context, userID, itemID uuid.UUID, qty int) (*models.CartItem, error)
	DeleteItem(ctx context.Context, userID, itemID uuid.UUID) error
	Clear(ctx context.Context, userID uuid.UUID) error
}

type productLoader interface {
	FindActive(ctx context.Context, id uuid.UUID) (*models.Product, error)
}
