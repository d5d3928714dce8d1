package discounts

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/grocery-backend/pkg/db/models"
	"github.com/angelmondragon/grocery-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/grocery-backend/pkg/errors"
	"github.com/angelmondragon/grocery-backend/pkg/logger"
)

// RuleInput is the shared shape of coupon and offer definitions.
type RuleInput struct {
	Description   *string
	DiscountType  string
	DiscountValue decimal.Decimal
	MinAmount     *decimal.Decimal
	MaxDiscount   *decimal.Decimal
	ValidFrom     time.Time
	ValidTill     time.Time
	UsageLimit    *int
	UserLimit     *int
	IsActive      *bool
}

type CouponInput struct {
	Code string
	RuleInput
}

type OfferInput struct {
	Title string
	RuleInput
}

// AdminService manages the coupon and offer catalogues. Updates replace every
// editable field.
type AdminService interface {
	ListCoupons(ctx context.Context) ([]models.Coupon, error)
	GetCoupon(ctx context.Context, id uuid.UUID) (*models.Coupon, error)
	CreateCoupon(ctx context.Context, input CouponInput) (*models.Coupon, error)
	UpdateCoupon(ctx context.Context, id uuid.UUID, input CouponInput) (*models.Coupon, error)
	DeleteCoupon(ctx context.Context, id uuid.UUID) error

	ListOffers(ctx context.Context) ([]models.Offer, error)
	GetOffer(ctx context.Context, id uuid.UUID) (*models.Offer, error)
	CreateOffer(ctx context.Context, input OfferInput) (*models.Offer, error)
	UpdateOffer(ctx context.Context, id uuid.UUID, input OfferInput) (*models.Offer, error)
	DeleteOffer(ctx context.Context, id uuid.UUID) error
}

type adminService struct {
	repo Repository
	logg *logger.Logger
}

func NewAdminService(repo Repository, logg *logger.Logger) (AdminService, error) {
	if repo == nil {
		return nil, fmt.Errorf("discount repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &adminService{repo: repo, logg: logg}, nil
}

type rule struct {
	discountType enums.DiscountType
	value        decimal.Decimal
	min          decimal.NullDecimal
	max          decimal.NullDecimal
	isActive     bool
}

func validateRule(in RuleInput, minRequired bool, minField string) (rule, error) {
	invalid := func(field, msg string) error {
		return pkgerrors.New(pkgerrors.CodeValidation, msg).
			WithDetails(map[string]any{"field": field})
	}

	discountType, err := enums.ParseDiscountType(in.DiscountType)
	if err != nil {
		return rule{}, invalid("discount_type", `discount_type must be either "flat" or "percentage"`)
	}
	if !in.DiscountValue.IsPositive() {
		return rule{}, invalid("discount_value", "discount_value must be greater than zero")
	}
	if discountType == enums.DiscountTypePercentage && in.DiscountValue.GreaterThan(hundred) {
		return rule{}, invalid("discount_value", "percentage discount_value must not exceed 100")
	}
	if in.MinAmount == nil && minRequired {
		return rule{}, invalid(minField, minField+" is required")
	}
	if in.MinAmount != nil && in.MinAmount.IsNegative() {
		return rule{}, invalid(minField, minField+" must not be negative")
	}
	if in.MaxDiscount != nil {
		if discountType != enums.DiscountTypePercentage {
			return rule{}, invalid("max_discount", "max_discount applies only to percentage discounts")
		}
		if !in.MaxDiscount.IsPositive() {
			return rule{}, invalid("max_discount", "max_discount must be greater than zero")
		}
	}
	if in.ValidFrom.IsZero() || in.ValidTill.IsZero() {
		return rule{}, invalid("valid_from", "valid_from and valid_till are required")
	}
	if in.ValidTill.Before(in.ValidFrom) {
		return rule{}, invalid("valid_till", "valid_till must not be before valid_from")
	}
	if in.UsageLimit != nil && *in.UsageLimit < 1 {
		return rule{}, invalid("usage_limit", "usage_limit must be at least 1")
	}
	if in.UserLimit != nil && *in.UserLimit < 1 {
		return rule{}, invalid("user_limit", "user_limit must be at least 1")
	}

	out := rule{discountType: discountType, value: in.DiscountValue, isActive: true}
	if in.MinAmount != nil {
		out.min = decimal.NewNullDecimal(*in.MinAmount)
	}
	if in.MaxDiscount != nil {
		out.max = decimal.NewNullDecimal(*in.MaxDiscount)
	}
	if in.IsActive != nil {
		out.isActive = *in.IsActive
	}
	return out, nil
}

func requireLabel(value, field string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, field+" is required").
			WithDetails(map[string]any{"field": field})
	}
	return trimmed, nil
}

func (s *adminService) ListCoupons(ctx context.Context) ([]models.Coupon, error) {
	return s.repo.ListCoupons(ctx)
}

func (s *adminService) GetCoupon(ctx context.Context, id uuid.UUID) (*models.Coupon, error) {
	return s.repo.FindCoupon(ctx, id)
}

func (s *adminService) CreateCoupon(ctx context.Context, input CouponInput) (*models.Coupon, error) {
	coupon := &models.Coupon{}
	if err := applyCouponInput(coupon, input); err != nil {
		return nil, err
	}
	if err := s.repo.CreateCoupon(ctx, coupon); err != nil {
		return nil, err
	}
	s.logg.Info(s.logg.WithField(ctx, "coupon_id", coupon.ID.String()), "coupon created")
	return coupon, nil
}

func (s *adminService) UpdateCoupon(ctx context.Context, id uuid.UUID, input CouponInput) (*models.Coupon, error) {
	coupon, err := s.repo.FindCoupon(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := applyCouponInput(coupon, input); err != nil {
		return nil, err
	}
	if err := s.repo.SaveCoupon(ctx, coupon); err != nil {
		return nil, err
	}
	s.logg.Info(s.logg.WithField(ctx, "coupon_id", coupon.ID.String()), "coupon updated")
	return coupon, nil
}

func (s *adminService) DeleteCoupon(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteCoupon(ctx, id); err != nil {
		return err
	}
	s.logg.Info(s.logg.WithField(ctx, "coupon_id", id.String()), "coupon deleted")
	return nil
}

func applyCouponInput(coupon *models.Coupon, input CouponInput) error {
	code, err := requireLabel(input.Code, "code")
	if err != nil {
		return err
	}
	r, err := validateRule(input.RuleInput, false, "min_amount")
	if err != nil {
		return err
	}
	coupon.Code = code
	coupon.Description = input.Description
	coupon.DiscountType = r.discountType
	coupon.DiscountValue = r.value
	coupon.MinAmount = r.min
	coupon.MaxDiscount = r.max
	coupon.ValidFrom = input.ValidFrom.UTC()
	coupon.ValidTill = input.ValidTill.UTC()
	coupon.UsageLimit = input.UsageLimit
	coupon.UserLimit = input.UserLimit
	coupon.IsActive = r.isActive
	return nil
}

func (s *adminService) ListOffers(ctx context.Context) ([]models.Offer, error) {
	return s.repo.ListOffers(ctx)
}

func (s *adminService) GetOffer(ctx context.Context, id uuid.UUID) (*models.Offer, error) {
	return s.repo.FindOffer(ctx, id)
}

func (s *adminService) CreateOffer(ctx context.Context, input OfferInput) (*models.Offer, error) {
	offer := &models.Offer{}
	if err := applyOfferInput(offer, input); err != nil {
		return nil, err
	}
	if err := s.repo.CreateOffer(ctx, offer); err != nil {
		return nil, err
	}
	s.logg.Info(s.logg.WithField(ctx, "offer_id", offer.ID.String()), "offer created")
	return offer, nil
}

func (s *adminService) UpdateOffer(ctx context.Context, id uuid.UUID, input OfferInput) (*models.Offer, error) {
	offer, err := s.repo.FindOffer(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := applyOfferInput(offer, input); err != nil {
		return nil, err
	}
	if err := s.repo.SaveOffer(ctx, offer); err != nil {
		return nil, err
	}
	s.logg.Info(s.logg.WithField(ctx, "offer_id", offer.ID.String()), "offer updated")
	return offer, nil
}

func (s *adminService) DeleteOffer(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteOffer(ctx, id); err != nil {
		return err
	}
	s.logg.Info(s.logg.WithField(ctx, "offer_id", id.String()), "offer deleted")
	return nil
}

func applyOfferInput(offer *models.Offer, input OfferInput) error {
	title, err := requireLabel(input.Title, "title")
	if err != nil {
		return err
	}
	r, err := validateRule(input.RuleInput, true, "min_cart_amount")
	if err != nil {
		return err
	}
	offer.Title = title
	offer.Description = input.Description
	offer.DiscountType = r.discountType
	offer.DiscountValue = r.value
	offer.MinCartAmount = r.min
	offer.MaxDiscount = r.max
	offer.ValidFrom = input.ValidFrom.UTC()
	offer.ValidTill = input.ValidTill.UTC()
	offer.UsageLimit = input.UsageLimit
	offer.UserLimit = input.UserLimit
	offer.IsActive = r.isActive
	return nil
}
