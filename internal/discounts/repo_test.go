package discounts

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/grocery-backend/internal/testdb"
	"github.com/angelmondragon/grocery-backend/pkg/db/models"
	"github.com/angelmondragon/grocery-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/grocery-backend/pkg/errors"
)

func TestRepositoryFindActive_CaseInsensitive(t *testing.T) {
	db := testdb.Open(t)
	repo := NewRepository(db)
	coupon := testdb.SeedCoupon(t, db, "Save20", enums.DiscountTypePercentage, "20")

	def, err := repo.FindActive(context.Background(), enums.DiscountKindCoupon, "save20", true)
	require.NoError(t, err)
	assert.Equal(t, coupon.ID, def.ID)
	assert.Equal(t, enums.DiscountKindCoupon, def.Kind)
	assert.True(t, dec("20").Equal(def.Value))
}

func TestRepositoryFindActive_InactiveIsNotFound(t *testing.T) {
	db := testdb.Open(t)
	repo := NewRepository(db)
	testdb.SeedCoupon(t, db, "OLD", enums.DiscountTypeFlat, "10", func(c *models.Coupon) {
		c.IsActive = false
	})

	_, err := repo.FindActive(context.Background(), enums.DiscountKindCoupon, "old", false)
	require.Error(t, err)
	assert.True(t, IsReason(err, ReasonNotFound))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestRepositoryFindActive_Offer(t *testing.T) {
	db := testdb.Open(t)
	repo := NewRepository(db)
	offer := testdb.SeedOffer(t, db, "Weekend Saver", enums.DiscountTypeFlat, "50", "300")

	def, err := repo.FindActive(context.Background(), enums.DiscountKindOffer, "weekend saver", false)
	require.NoError(t, err)
	assert.Equal(t, offer.ID, def.ID)
	require.True(t, def.MinAmount.Valid)
	assert.True(t, dec("300").Equal(def.MinAmount.Decimal))
}

func seedOrder(t *testing.T, repo Repository, kind enums.DiscountKind, discountID uuid.UUID) (uuid.UUID, uuid.UUID) {
	t.Helper()
	r := repo.(*repository)
	user := testdb.SeedUser(t, r.db, enums.RoleCustomer)
	address := testdb.SeedAddress(t, r.db, user.ID)
	order := &models.Order{
		OrderNumber:   "ORD-" + uuid.NewString(),
		UserID:        user.ID,
		AddressID:     address.ID,
		Subtotal:      dec("100"),
		Total:         dec("90"),
		Currency:      "INR",
		Status:        enums.OrderStatusPending,
		PaymentStatus: enums.PaymentStatusPending,
		PaymentMethod: enums.PaymentMethodCOD,
	}
	if kind == enums.DiscountKindCoupon {
		order.CouponID = &discountID
	} else {
		order.OfferID = &discountID
	}
	require.NoError(t, r.db.Create(order).Error)
	return user.ID, order.ID
}

func TestRepositoryRecordAndCountUsage(t *testing.T) {
	db := testdb.Open(t)
	repo := NewRepository(db)
	ctx := context.Background()
	coupon := testdb.SeedCoupon(t, db, "ONCE", enums.DiscountTypeFlat, "10")

	userA, orderA := seedOrder(t, repo, enums.DiscountKindCoupon, coupon.ID)
	require.NoError(t, repo.RecordUsage(ctx, enums.DiscountKindCoupon, coupon.ID, userA, orderA, dec("10")))
	userB, orderB := seedOrder(t, repo, enums.DiscountKindCoupon, coupon.ID)
	require.NoError(t, repo.RecordUsage(ctx, enums.DiscountKindCoupon, coupon.ID, userB, orderB, dec("10")))

	usage, err := repo.CountUsage(ctx, enums.DiscountKindCoupon, coupon.ID, userA)
	require.NoError(t, err)
	assert.Equal(t, Usage{Total: 2, ByUser: 1}, usage)

	// one usage row per order
	err = repo.RecordUsage(ctx, enums.DiscountKindCoupon, coupon.ID, userA, orderA, dec("10"))
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))
	assert.False(t, pkgerrors.Retryable(err))
}

func TestRepositoryCreateCoupon_DuplicateCodeConflicts(t *testing.T) {
	db := testdb.Open(t)
	repo := NewRepository(db)
	testdb.SeedCoupon(t, db, "FRESH10", enums.DiscountTypeFlat, "10")

	dup := &models.Coupon{
		Code:          "fresh10",
		DiscountType:  enums.DiscountTypeFlat,
		DiscountValue: decimal.NewFromInt(5),
		ValidFrom:     fixedNow,
		ValidTill:     fixedNow,
		IsActive:      true,
	}
	err := repo.CreateCoupon(context.Background(), dup)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))
}

func TestRepositoryDeleteCoupon(t *testing.T) {
	db := testdb.Open(t)
	repo := NewRepository(db)
	ctx := context.Background()

	unused := testdb.SeedCoupon(t, db, "UNUSED", enums.DiscountTypeFlat, "10")
	require.NoError(t, repo.DeleteCoupon(ctx, unused.ID))

	err := repo.DeleteCoupon(ctx, unused.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	used := testdb.SeedCoupon(t, db, "USED", enums.DiscountTypeFlat, "10")
	seedOrder(t, repo, enums.DiscountKindCoupon, used.ID)
	err = repo.DeleteCoupon(ctx, used.ID)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))
}

func TestRepositoryOfferCRUD(t *testing.T) {
	db := testdb.Open(t)
	repo := NewRepository(db)
	ctx := context.Background()

	offer := testdb.SeedOffer(t, db, "Festive", enums.DiscountTypePercentage, "10", "500")
	found, err := repo.FindOffer(ctx, offer.ID)
	require.NoError(t, err)
	assert.Equal(t, "Festive", found.Title)

	found.Title = "Festive Week"
	require.NoError(t, repo.SaveOffer(ctx, found))

	offers, err := repo.ListOffers(ctx)
	require.NoError(t, err)
	require.Len(t, offers, 1)
	assert.Equal(t, "Festive Week", offers[0].Title)

	_, err = repo.FindOffer(ctx, uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	require.NoError(t, repo.DeleteOffer(ctx, offer.ID))
}

func TestRepositoryDeactivateExpired(t *testing.T) {
	db := testdb.Open(t)
	repo := NewRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	expired := testdb.SeedCoupon(t, db, "OLD", enums.DiscountTypeFlat, "10", func(c *models.Coupon) {
		c.ValidFrom = now.Add(-72 * time.Hour)
		c.ValidTill = now.Add(-time.Hour)
	})
	live := testdb.SeedCoupon(t, db, "LIVE", enums.DiscountTypeFlat, "10")
	offer := testdb.SeedOffer(t, db, "Monsoon", enums.DiscountTypeFlat, "25", "100")
	require.NoError(t, db.Model(&models.Offer{}).Where("id = ?", offer.ID).Update("valid_till", now.Add(-time.Minute)).Error)

	coupons, offers, err := repo.DeactivateExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), coupons)
	assert.Equal(t, int64(1), offers)

	got, err := repo.FindCoupon(ctx, expired.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
	got, err = repo.FindCoupon(ctx, live.ID)
	require.NoError(t, err)
	assert.True(t, got.IsActive)

	coupons, offers, err = repo.DeactivateExpired(ctx, now)
	require.NoError(t, err)
	assert.Zero(t, coupons)
	assert.Zero(t, offers)
}
