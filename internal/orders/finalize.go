package orders

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/grocery-backend/internal/cart"
	"github.com/angelmondragon/grocery-backend/internal/discounts"
	"github.com/angelmondragon/grocery-backend/internal/shipping"
	"github.com/angelmondragon/grocery-backend/pkg/db/models"
	"github.com/angelmondragon/grocery-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/grocery-backend/pkg/errors"
	"github.com/angelmondragon/grocery-backend/pkg/outbox"
	"github.com/angelmondragon/grocery-backend/pkg/outbox/payloads"
)

// ReasonMultipleDiscounts tags requests naming both a coupon and an offer.
const ReasonMultipleDiscounts = "multiple_discounts"

// FinalizeInput is the finalizeOrder operation input. At most one of
// CouponCode and OfferTitle may be set.
type FinalizeInput struct {
	UserID        uuid.UUID
	AddressID     uuid.UUID
	PaymentMethod enums.PaymentMethod
	CouponCode    string
	OfferTitle    string
}

func (in FinalizeInput) discountSource() (string, enums.DiscountKind, bool) {
	if code := strings.TrimSpace(in.CouponCode); code != "" {
		return code, enums.DiscountKindCoupon, true
	}
	if title := strings.TrimSpace(in.OfferTitle); title != "" {
		return title, enums.DiscountKindOffer, true
	}
	return "", "", false
}

func (in FinalizeInput) validate() error {
	if in.UserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user id required")
	}
	if in.AddressID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "address id required").
			WithDetails(map[string]any{"field": "address_id"})
	}
	if !in.PaymentMethod.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method").
			WithDetails(map[string]any{"field": "payment_method"})
	}
	if strings.TrimSpace(in.CouponCode) != "" && strings.TrimSpace(in.OfferTitle) != "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "a coupon and an offer cannot be combined").
			WithReason(ReasonMultipleDiscounts)
	}
	return nil
}

// Finalize turns the caller's cart into an order. Discount resolution, usage
// counting, order creation, usage recording, the order_created outbox event
// and clearing the cart share one transaction; the discount row stays locked
// until commit so concurrent redemptions of a capped discount serialize.
func (s *service) Finalize(ctx context.Context, input FinalizeInput) (*FinalizeResult, error) {
	started := time.Now()
	result, err := s.finalize(ctx, input)
	if s.metrics != nil {
		s.metrics.ObserveFinalize(finalizeOutcome(err), time.Since(started))
	}
	if err != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"user_id": input.UserID.String(),
			"outcome": finalizeOutcome(err),
		})
		if pkgerrors.IsCode(err, pkgerrors.CodeInternal) || pkgerrors.Retryable(err) {
			s.logg.Error(logCtx, "order finalize failed", err)
		} else {
			s.logg.Warn(logCtx, "order finalize rejected")
		}
		return nil, err
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"user_id":      input.UserID.String(),
		"order_id":     result.OrderID.String(),
		"order_number": result.OrderNumber,
		"total":        result.Total.String(),
		"discount":     result.DiscountApplied.String(),
	})
	s.logg.Info(logCtx, "order finalized")
	return result, nil
}

func (s *service) finalize(ctx context.Context, input FinalizeInput) (*FinalizeResult, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	now := s.now().UTC()

	var result *FinalizeResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		carts := s.carts.WithTx(tx)

		lines, err := cart.LoadLines(ctx, carts, input.UserID)
		if err != nil {
			return err
		}
		subtotal, err := discounts.Subtotal(lines)
		if err != nil {
			return err
		}

		if _, err := s.addresses.WithTx(tx).FindForUser(ctx, input.UserID, input.AddressID); err != nil {
			return err
		}

		discountRepo := s.discounts.WithTx(tx)
		var breakdown *discounts.Breakdown
		discountAmount := decimal.Zero
		if code, kind, ok := input.discountSource(); ok {
			evaluated, err := s.calc.Evaluate(ctx, discountRepo, discounts.Request{
				UserID: input.UserID,
				Lines:  lines,
				Code:   code,
				Kind:   kind,
				Now:    now,
				Lock:   true,
			})
			if err != nil {
				return err
			}
			breakdown = &evaluated.Breakdown
			discountAmount = evaluated.Breakdown.DiscountAmount
		}

		rate, err := shipping.DeliveryCharge(ctx, s.shipping.WithTx(tx))
		if err != nil {
			return err
		}
		totals := s.calc.AssembleTotal(subtotal, rate.Price, discountAmount)

		order := buildOrder(input, lines, totals, breakdown, s.currency, s.numbers(now))
		if err := s.repo.WithTx(tx).Create(ctx, order); err != nil {
			return err
		}

		if err := s.outbox.Emit(ctx, tx, orderCreatedEvent(order, breakdown, len(lines), now)); err != nil {
			return err
		}

		if breakdown != nil {
			if err := discountRepo.RecordUsage(ctx, breakdown.Kind, breakdown.DiscountID, input.UserID, order.ID, breakdown.DiscountAmount); err != nil {
				return err
			}
			if err := s.outbox.Emit(ctx, tx, discountRedeemedEvent(order, breakdown, now)); err != nil {
				return err
			}
		}

		if err := carts.Clear(ctx, input.UserID); err != nil {
			return err
		}

		result = &FinalizeResult{
			OrderID:         order.ID,
			OrderNumber:     order.OrderNumber,
			Status:          order.Status,
			PaymentStatus:   order.PaymentStatus,
			Total:           totals.Total,
			DiscountApplied: totals.Discount,
			Totals:          totals,
			Discount:        breakdown,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func buildOrder(input FinalizeInput, lines []discounts.CartLine, totals discounts.Totals, breakdown *discounts.Breakdown, currency, number string) *models.Order {
	order := &models.Order{
		ID:              uuid.New(),
		OrderNumber:     number,
		UserID:          input.UserID,
		AddressID:       input.AddressID,
		Subtotal:        totals.Subtotal,
		DeliveryCharges: totals.DeliveryCharges,
		Tax:             totals.Tax,
		Discount:        totals.Discount,
		Total:           totals.Total,
		Currency:        currency,
		Status:          enums.OrderStatusPending,
		PaymentStatus:   enums.PaymentStatusPending,
		PaymentMethod:   input.PaymentMethod,
		Items:           make([]models.OrderItem, 0, len(lines)),
	}
	if breakdown != nil {
		id := breakdown.DiscountID
		switch breakdown.Kind {
		case enums.DiscountKindCoupon:
			order.CouponID = &id
		case enums.DiscountKindOffer:
			order.OfferID = &id
		}
	}
	for _, line := range lines {
		order.Items = append(order.Items, models.OrderItem{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			Price:     line.UnitPrice,
		})
	}
	return order
}

func orderCreatedEvent(order *models.Order, breakdown *discounts.Breakdown, itemCount int, now time.Time) outbox.DomainEvent {
	data := payloads.OrderCreatedEvent{
		OrderID:         order.ID,
		OrderNumber:     order.OrderNumber,
		UserID:          order.UserID,
		Subtotal:        order.Subtotal,
		DeliveryCharges: order.DeliveryCharges,
		Tax:             order.Tax,
		Discount:        order.Discount,
		Total:           order.Total,
		Currency:        order.Currency,
		PaymentMethod:   order.PaymentMethod,
		ItemCount:       itemCount,
	}
	if breakdown != nil {
		kind := breakdown.Kind
		id := breakdown.DiscountID
		data.DiscountKind = &kind
		data.DiscountID = &id
	}
	return outbox.DomainEvent{
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Actor:         &outbox.ActorRef{UserID: order.UserID, Role: string(enums.RoleCustomer)},
		Data:          data,
		OccurredAt:    now,
	}
}

func discountRedeemedEvent(order *models.Order, breakdown *discounts.Breakdown, now time.Time) outbox.DomainEvent {
	return outbox.DomainEvent{
		EventType:     enums.EventDiscountRedeemed,
		AggregateType: enums.AggregateDiscount,
		AggregateID:   breakdown.DiscountID,
		Actor:         &outbox.ActorRef{UserID: order.UserID, Role: string(enums.RoleCustomer)},
		Data: payloads.DiscountRedeemedEvent{
			DiscountID: breakdown.DiscountID,
			Kind:       breakdown.Kind,
			Code:       breakdown.Code,
			OrderID:    order.ID,
			UserID:     order.UserID,
			Amount:     breakdown.DiscountAmount,
		},
		OccurredAt: now,
	}
}

func finalizeOutcome(err error) string {
	if err == nil {
		return "created"
	}
	return discounts.Outcome(err)
}
