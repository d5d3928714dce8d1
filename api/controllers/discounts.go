package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/grocery-backend/api/responses"
	"github.com/angelmondragon/grocery-backend/api/validators"
	"github.com/angelmondragon/grocery-backend/internal/discounts"
	"github.com/angelmondragon/grocery-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/grocery-backend/pkg/errors"
	"github.com/angelmondragon/grocery-backend/pkg/logger"
)

type cartLineSource interface {
	Lines(ctx context.Context, userID uuid.UUID) ([]discounts.CartLine, error)
}

type applyDiscountRequest struct {
	Code string `json:"code" validate:"notblank,max=120"`
	Kind string `json:"kind"`
}

// CartApplyDiscount previews a coupon or offer against the caller's current cart.
// Nothing is persisted; usage is only recorded when the order is finalized.
func CartApplyDiscount(carts cartLineSource, svc discounts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if carts == nil || svc == nil {
			serviceUnavailable(w, r, logg, "discount")
			return
		}
		userID, ok := requireUser(w, r, logg)
		if !ok {
			return
		}

		var payload applyDiscountRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		kind, err := enums.ParseDiscountKind(payload.Kind)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid discount kind").
				WithDetails(map[string]any{"field": "kind"}))
			return
		}

		lines, err := carts.Lines(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		breakdown, err := svc.Apply(r.Context(), discounts.ApplyInput{
			UserID: userID,
			Lines:  lines,
			Code:   payload.Code,
			Kind:   kind,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, breakdown)
	}
}

// CartRemoveDiscount acknowledges removal of a previewed discount. Applied
// discounts live only on the client until checkout, so there is nothing to clear.
func CartRemoveDiscount() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]string{"status": "removed"})
	}
}
