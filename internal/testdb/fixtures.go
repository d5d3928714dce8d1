package testdb

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/grocery-backend/pkg/db/models"
	"github.com/angelmondragon/grocery-backend/pkg/enums"
)

func SeedUser(t testing.TB, db *gorm.DB, role enums.Role) *models.User {
	t.Helper()
	id := uuid.New()
	user := &models.User{
		ID:    id,
		Name:  "Test User",
		Phone: fmt.Sprintf("9-%s", id.String()[:8]),
		Role:  role,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func SeedAddress(t testing.TB, db *gorm.DB, userID uuid.UUID) *models.Address {
	t.Helper()
	address := &models.Address{
		UserID:       userID,
		FullName:     "Test User",
		Phone:        "9000000000",
		AddressLine1: "12 Market Road",
		City:         "Pune",
		State:        "MH",
		Pincode:      "411001",
	}
	require.NoError(t, db.Create(address).Error)
	return address
}

func SeedProduct(t testing.TB, db *gorm.DB, name, price string) *models.Product {
	t.Helper()
	product := &models.Product{
		Name:     name,
		Unit:     "kg",
		Price:    decimal.RequireFromString(price),
		IsActive: true,
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

func SeedCartItem(t testing.TB, db *gorm.DB, userID, productID uuid.UUID, qty int) *models.CartItem {
	t.Helper()
	item := &models.CartItem{UserID: userID, ProductID: productID, Quantity: qty}
	require.NoError(t, db.Create(item).Error)
	return item
}

// CouponOption tweaks a seeded coupon before insert.
type CouponOption func(*models.Coupon)

func SeedCoupon(t testing.TB, db *gorm.DB, code string, discountType enums.DiscountType, value string, opts ...CouponOption) *models.Coupon {
	t.Helper()
	now := time.Now().UTC()
	coupon := &models.Coupon{
		Code:          code,
		DiscountType:  discountType,
		DiscountValue: decimal.RequireFromString(value),
		ValidFrom:     now.Add(-24 * time.Hour),
		ValidTill:     now.Add(24 * time.Hour),
		IsActive:      true,
	}
	for _, opt := range opts {
		opt(coupon)
	}
	require.NoError(t, db.Create(coupon).Error)
	return coupon
}

func SeedOffer(t testing.TB, db *gorm.DB, title string, discountType enums.DiscountType, value, minCart string) *models.Offer {
	t.Helper()
	now := time.Now().UTC()
	offer := &models.Offer{
		Title:         title,
		DiscountType:  discountType,
		DiscountValue: decimal.RequireFromString(value),
		MinCartAmount: decimal.NewNullDecimal(decimal.RequireFromString(minCart)),
		ValidFrom:     now.Add(-24 * time.Hour),
		ValidTill:     now.Add(24 * time.Hour),
		IsActive:      true,
	}
	require.NoError(t, db.Create(offer).Error)
	return offer
}

func IntPtr(v int) *int {
	return &v
}

// OrderOption tweaks a seeded order before insert.
type OrderOption func(*models.Order)

// SeedOrder inserts a pending COD order of total 100 with one line of
// product at qty 2 x 50.
func SeedOrder(t testing.TB, db *gorm.DB, userID, addressID, productID uuid.UUID, number string, opts ...OrderOption) *models.Order {
	t.Helper()
	order := &models.Order{
		OrderNumber:     number,
		UserID:          userID,
		AddressID:       addressID,
		Subtotal:        decimal.RequireFromString("100"),
		DeliveryCharges: decimal.Zero,
		Tax:             decimal.Zero,
		Discount:        decimal.Zero,
		Total:           decimal.RequireFromString("100"),
		Currency:        "INR",
		Status:          enums.OrderStatusPending,
		PaymentStatus:   enums.PaymentStatusPending,
		PaymentMethod:   enums.PaymentMethodCOD,
		Items: []models.OrderItem{{
			ProductID: productID,
			Quantity:  2,
			Price:     decimal.RequireFromString("50"),
		}},
	}
	for _, opt := range opts {
		opt(order)
	}
	require.NoError(t, db.Create(order).Error)
	return order
}

func SeedDeliveryPartner(t testing.TB, db *gorm.DB, name string, userID *uuid.UUID) *models.DeliveryPartner {
	t.Helper()
	partner := &models.DeliveryPartner{Name: name, UserID: userID, IsActive: true}
	require.NoError(t, db.Create(partner).Error)
	return partner
}

func SeedCategory(t testing.TB, db *gorm.DB, name string) *models.Category {
	t.Helper()
	category := &models.Category{Name: name}
	require.NoError(t, db.Create(category).Error)
	return category
}
