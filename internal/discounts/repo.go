package discounts

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	dbpkg "github.com/angelmondragon/grocery-backend/pkg/db"
	"github.com/angelmondragon/grocery-backend/pkg/db/models"
	"github.com/angelmondragon/grocery-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/grocery-backend/pkg/errors"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a discounts repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) query(ctx context.Context, lock bool) *gorm.DB {
	q := r.db.WithContext(ctx)
	if lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return q
}

func (r *repository) FindActive(ctx context.Context, kind enums.DiscountKind, normalized string, lock bool) (Definition, error) {
	switch kind {
	case enums.DiscountKindCoupon:
		var coupon models.Coupon
		err := r.query(ctx, lock).
			Where("LOWER(code) = ? AND is_active = ?", normalized, true).
			First(&coupon).Error
		if err != nil {
			return Definition{}, lookupError(err, kind, normalized)
		}
		return FromCoupon(coupon), nil
	case enums.DiscountKindOffer:
		var offer models.Offer
		err := r.query(ctx, lock).
			Where("LOWER(title) = ? AND is_active = ?", normalized, true).
			First(&offer).Error
		if err != nil {
			return Definition{}, lookupError(err, kind, normalized)
		}
		return FromOffer(offer), nil
	default:
		return Definition{}, pkgerrors.New(pkgerrors.CodeValidation, "unknown discount kind")
	}
}

func lookupError(err error, kind enums.DiscountKind, label string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errNotFound(kind, label)
	}
	return dbpkg.Classify(err, "lookup "+kind.String())
}

func usageTable(kind enums.DiscountKind) (model any, column string) {
	if kind == enums.DiscountKindOffer {
		return &models.OfferUsage{}, "offer_id"
	}
	return &models.CouponUsage{}, "coupon_id"
}

func (r *repository) CountUsage(ctx context.Context, kind enums.DiscountKind, discountID, userID uuid.UUID) (Usage, error) {
	model, column := usageTable(kind)

	var usage Usage
	if err := r.db.WithContext(ctx).Model(model).
		Where(column+" = ?", discountID).
		Count(&usage.Total).Error; err != nil {
		return Usage{}, dbpkg.Classify(err, "count usage")
	}
	if err := r.db.WithContext(ctx).Model(model).
		Where(column+" = ? AND user_id = ?", discountID, userID).
		Count(&usage.ByUser).Error; err != nil {
		return Usage{}, dbpkg.Classify(err, "count user usage")
	}
	return usage, nil
}

func (r *repository) RecordUsage(ctx context.Context, kind enums.DiscountKind, discountID, userID, orderID uuid.UUID, amount decimal.Decimal) error {
	var err error
	switch kind {
	case enums.DiscountKindCoupon:
		err = r.db.WithContext(ctx).Create(&models.CouponUsage{
			CouponID: discountID,
			UserID:   userID,
			OrderID:  orderID,
			Discount: amount,
		}).Error
	case enums.DiscountKindOffer:
		err = r.db.WithContext(ctx).Create(&models.OfferUsage{
			OfferID:  discountID,
			UserID:   userID,
			OrderID:  orderID,
			Discount: amount,
		}).Error
	default:
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown discount kind")
	}
	return dbpkg.Classify(err, "record usage")
}

func (r *repository) ListCoupons(ctx context.Context) ([]models.Coupon, error) {
	var coupons []models.Coupon
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&coupons).Error; err != nil {
		return nil, dbpkg.Classify(err, "list coupons")
	}
	return coupons, nil
}

func (r *repository) FindCoupon(ctx context.Context, id uuid.UUID) (*models.Coupon, error) {
	var coupon models.Coupon
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&coupon).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "coupon not found")
		}
		return nil, dbpkg.Classify(err, "find coupon")
	}
	return &coupon, nil
}

func (r *repository) CreateCoupon(ctx context.Context, coupon *models.Coupon) error {
	err := r.db.WithContext(ctx).Create(coupon).Error
	if dbpkg.IsUniqueViolation(err, "") {
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "coupon code already exists").
			WithDetails(map[string]any{"reason": dbpkg.ReasonConstraintViolation, "code": coupon.Code})
	}
	return dbpkg.Classify(err, "create coupon")
}

func (r *repository) SaveCoupon(ctx context.Context, coupon *models.Coupon) error {
	err := r.db.WithContext(ctx).Save(coupon).Error
	if dbpkg.IsUniqueViolation(err, "") {
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "coupon code already exists").
			WithDetails(map[string]any{"reason": dbpkg.ReasonConstraintViolation, "code": coupon.Code})
	}
	return dbpkg.Classify(err, "update coupon")
}

func (r *repository) DeleteCoupon(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Coupon{})
	if res.Error != nil {
		if dbpkg.IsForeignKeyViolation(res.Error) {
			return pkgerrors.Wrap(pkgerrors.CodeConflict, res.Error, "cannot delete coupon as it is being used in orders").
				WithReason(dbpkg.ReasonConstraintViolation)
		}
		return dbpkg.Classify(res.Error, "delete coupon")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "coupon not found")
	}
	return nil
}

func (r *repository) ListOffers(ctx context.Context) ([]models.Offer, error) {
	var offers []models.Offer
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&offers).Error; err != nil {
		return nil, dbpkg.Classify(err, "list offers")
	}
	return offers, nil
}

func (r *repository) FindOffer(ctx context.Context, id uuid.UUID) (*models.Offer, error) {
	var offer models.Offer
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&offer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "offer not found")
		}
		return nil, dbpkg.Classify(err, "find offer")
	}
	return &offer, nil
}

func (r *repository) CreateOffer(ctx context.Context, offer *models.Offer) error {
	err := r.db.WithContext(ctx).Create(offer).Error
	if dbpkg.IsUniqueViolation(err, "") {
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "offer title already exists").
			WithDetails(map[string]any{"reason": dbpkg.ReasonConstraintViolation, "title": offer.Title})
	}
	return dbpkg.Classify(err, "create offer")
}

func (r *repository) SaveOffer(ctx context.Context, offer *models.Offer) error {
	err := r.db.WithContext(ctx).Save(offer).Error
	if dbpkg.IsUniqueViolation(err, "") {
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "offer title already exists").
			WithDetails(map[string]any{"reason": dbpkg.ReasonConstraintViolation, "title": offer.Title})
	}
	return dbpkg.Classify(err, "update offer")
}

func (r *repository) DeleteOffer(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Offer{})
	if res.Error != nil {
		if dbpkg.IsForeignKeyViolation(res.Error) {
			return pkgerrors.Wrap(pkgerrors.CodeConflict, res.Error, "cannot delete offer as it is being used in orders").
				WithReason(dbpkg.ReasonConstraintViolation)
		}
		return dbpkg.Classify(res.Error, "delete offer")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "offer not found")
	}
	return nil
}

// DeactivateExpired flips is_active off for coupons and offers whose window
// closed before now.
func (r *repository) DeactivateExpired(ctx context.Context, now time.Time) (int64, int64, error) {
	coupons := r.db.WithContext(ctx).Model(&models.Coupon{}).
		Where("is_active = ? AND valid_till < ?", true, now).
		Update("is_active", false)
	if coupons.Error != nil {
		return 0, 0, dbpkg.Classify(coupons.Error, "deactivate expired coupons")
	}
	offers := r.db.WithContext(ctx).Model(&models.Offer{}).
		Where("is_active = ? AND valid_till < ?", true, now).
		Update("is_active", false)
	if offers.Error != nil {
		return coupons.RowsAffected, 0, dbpkg.Classify(offers.Error, "deactivate expired offers")
	}
	return coupons.RowsAffected, offers.RowsAffected, nil
}
