package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/grocery-backend/pkg/db/models"
)

// ItemDTO is one cart line with its current price.
type ItemDTO struct {
	ID        uuid.UUID       `json:"id"`
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	Unit      string          `json:"unit,omitempty"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"line_total"`
	Available bool            `json:"available"`
}

// CartDTO is the caller's cart priced at current product prices.
type CartDTO struct {
	Items     []ItemDTO       `json:"items"`
	ItemCount int             `json:"item_count"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

func mapCartDTO(items []models.CartItem) *CartDTO {
	out := &CartDTO{Items: make([]ItemDTO, 0, len(items)), Subtotal: decimal.Zero}
	for _, item := range items {
		dto := ItemDTO{
			ID:        item.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: decimal.Zero,
			LineTotal: decimal.Zero,
		}
		if item.Product != nil {
			dto.Name = item.Product.Name
			dto.Unit = item.Product.Unit
			dto.UnitPrice = item.Product.Price
			dto.Available = item.Product.IsActive
		}
		if dto.Available {
			dto.LineTotal = dto.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
			out.Subtotal = out.Subtotal.Add(dto.LineTotal)
		}
		out.ItemCount += item.Quantity
		out.Items = append(out.Items, dto)
	}
	return out
}
