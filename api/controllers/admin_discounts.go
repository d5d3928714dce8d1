package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/grocery-backend/api/responses"
	"github.com/angelmondragon/grocery-backend/api/validators"
	"github.com/angelmondragon/grocery-backend/internal/discounts"
	"github.com/angelmondragon/grocery-backend/pkg/db/models"
	"github.com/angelmondragon/grocery-backend/pkg/enums"
	"github.com/angelmondragon/grocery-backend/pkg/logger"
)

type discountRulePayload struct {
	Description   *string          `json:"description"`
	DiscountType  string           `json:"discount_type" validate:"required"`
	DiscountValue decimal.Decimal  `json:"discount_value" validate:"gte=0"`
	MaxDiscount   *decimal.Decimal `json:"max_discount"`
	ValidFrom     time.Time        `json:"valid_from" validate:"required"`
	ValidTill     time.Time        `json:"valid_till" validate:"required"`
	UsageLimit    *int             `json:"usage_limit"`
	UserLimit     *int             `json:"user_limit"`
	IsActive      *bool            `json:"is_active"`
}

func (p discountRulePayload) toRule(minAmount *decimal.Decimal) discounts.RuleInput {
	return discounts.RuleInput{
		Description:   p.Description,
		DiscountType:  p.DiscountType,
		DiscountValue: p.DiscountValue,
		MinAmount:     minAmount,
		MaxDiscount:   p.MaxDiscount,
		ValidFrom:     p.ValidFrom,
		ValidTill:     p.ValidTill,
		UsageLimit:    p.UsageLimit,
		UserLimit:     p.UserLimit,
		IsActive:      p.IsActive,
	}
}

type couponRequest struct {
	Code      string           `json:"code" validate:"notblank,max=64"`
	MinAmount *decimal.Decimal `json:"min_amount"`
	discountRulePayload
}

type offerRequest struct {
	Title         string           `json:"title" validate:"notblank,max=120"`
	MinCartAmount *decimal.Decimal `json:"min_cart_amount"`
	discountRulePayload
}

type couponResponse struct {
	ID            uuid.UUID           `json:"id"`
	Code          string              `json:"code"`
	Description   *string             `json:"description,omitempty"`
	DiscountType  enums.DiscountType  `json:"discount_type"`
	DiscountValue decimal.Decimal     `json:"discount_value"`
	MinAmount     decimal.NullDecimal `json:"min_amount"`
	MaxDiscount   decimal.NullDecimal `json:"max_discount"`
	ValidFrom     time.Time           `json:"valid_from"`
	ValidTill     time.Time           `json:"valid_till"`
	UsageLimit    *int                `json:"usage_limit"`
	UserLimit     *int                `json:"user_limit"`
	IsActive      bool                `json:"is_active"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

func newCouponResponse(c *models.Coupon) couponResponse {
	return couponResponse{
		ID:            c.ID,
		Code:          c.Code,
		Description:   c.Description,
		DiscountType:  c.DiscountType,
		DiscountValue: c.DiscountValue,
		MinAmount:     c.MinAmount,
		MaxDiscount:   c.MaxDiscount,
		ValidFrom:     c.ValidFrom,
		ValidTill:     c.ValidTill,
		UsageLimit:    c.UsageLimit,
		UserLimit:     c.UserLimit,
		IsActive:      c.IsActive,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

type offerResponse struct {
	ID            uuid.UUID           `json:"id"`
	Title         string              `json:"title"`
	Description   *string             `json:"description,omitempty"`
	DiscountType  enums.DiscountType  `json:"discount_type"`
	DiscountValue decimal.Decimal     `json:"discount_value"`
	MinCartAmount decimal.NullDecimal `json:"min_cart_amount"`
	MaxDiscount   decimal.NullDecimal `json:"max_discount"`
	ValidFrom     time.Time           `json:"valid_from"`
	ValidTill     time.Time           `json:"valid_till"`
	UsageLimit    *int                `json:"usage_limit"`
	UserLimit     *int                `json:"user_limit"`
	IsActive      bool                `json:"is_active"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

func newOfferResponse(o *models.Offer) offerResponse {
	return offerResponse{
		ID:            o.ID,
		Title:         o.Title,
		Description:   o.Description,
		DiscountType:  o.DiscountType,
		DiscountValue: o.DiscountValue,
		MinCartAmount: o.MinCartAmount,
		MaxDiscount:   o.MaxDiscount,
		ValidFrom:     o.ValidFrom,
		ValidTill:     o.ValidTill,
		UsageLimit:    o.UsageLimit,
		UserLimit:     o.UserLimit,
		IsActive:      o.IsActive,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
}

// AdminCouponsList returns every coupon.
func AdminCouponsList(svc discounts.AdminService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "coupon")
			return
		}
		coupons, err := svc.ListCoupons(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out := make([]couponResponse, 0, len(coupons))
		for i := range coupons {
			out = append(out, newCouponResponse(&coupons[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

// AdminCouponsGet returns one coupon.
func AdminCouponsGet(svc discounts.AdminService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "coupon")
			return
		}
		id, err := validators.ParsePathUUID(r, "couponId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		coupon, err := svc.GetCoupon(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCouponResponse(coupon))
	}
}

// AdminCouponsCreate defines a new coupon.
func AdminCouponsCreate(svc discounts.AdminService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "coupon")
			return
		}
		var payload couponRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		coupon, err := svc.CreateCoupon(r.Context(), discounts.CouponInput{
			Code:      payload.Code,
			RuleInput: payload.toRule(payload.MinAmount),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newCouponResponse(coupon))
	}
}

// AdminCouponsUpdate replaces a coupon definition.
func AdminCouponsUpdate(svc discounts.AdminService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "coupon")
			return
		}
		id, err := validators.ParsePathUUID(r, "couponId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload couponRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		coupon, err := svc.UpdateCoupon(r.Context(), id, discounts.CouponInput{
			Code:      payload.Code,
			RuleInput: payload.toRule(payload.MinAmount),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCouponResponse(coupon))
	}
}

// AdminCouponsDelete removes a coupon that no order references.
func AdminCouponsDelete(svc discounts.AdminService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "coupon")
			return
		}
		id, err := validators.ParsePathUUID(r, "couponId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DeleteCoupon(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

// AdminOffersList returns every offer.
func AdminOffersList(svc discounts.AdminService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "offer")
			return
		}
		offers, err := svc.ListOffers(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out := make([]offerResponse, 0, len(offers))
		for i := range offers {
			out = append(out, newOfferResponse(&offers[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

func AdminOffersGet(svc discounts.AdminService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "offer")
			return
		}
		id, err := validators.ParsePathUUID(r, "offerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		offer, err := svc.GetOffer(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOfferResponse(offer))
	}
}

func AdminOffersCreate(svc discounts.AdminService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "offer")
			return
		}
		var payload offerRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		offer, err := svc.CreateOffer(r.Context(), discounts.OfferInput{
			Title:     payload.Title,
			RuleInput: payload.toRule(payload.MinCartAmount),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newOfferResponse(offer))
	}
}

func AdminOffersUpdate(svc discounts.AdminService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "offer")
			return
		}
		id, err := validators.ParsePathUUID(r, "offerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload offerRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		offer, err := svc.UpdateOffer(r.Context(), id, discounts.OfferInput{
			Title:     payload.Title,
			RuleInput: payload.toRule(payload.MinCartAmount),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOfferResponse(offer))
	}
}

func AdminOffersDelete(svc discounts.AdminService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "offer")
			return
		}
		id, err := validators.ParsePathUUID(r, "offerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DeleteOffer(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}
