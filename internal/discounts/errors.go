package discounts

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/grocery-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/grocery-backend/pkg/errors"
)

const (
	ReasonNotFound             = "discount_not_found"
	ReasonNotApplicable        = "discount_not_applicable"
	ReasonUsageLimitExceeded   = "usage_limit_exceeded"
	ReasonPerUserLimitExceeded = "per_user_limit_exceeded"
	ReasonEmptyCart            = "empty_cart"
	ReasonBelowMinimum         = "below_minimum"
	ReasonInvalidCartLine      = "invalid_cart_line"
)

// IsReason reports whether err is a typed error tagged with reason.
func IsReason(err error, reason string) bool {
	return pkgerrors.Reason(err) == reason
}

func errNotFound(kind enums.DiscountKind, label string) error {
	return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("invalid or inactive %s", kind)).
		WithDetails(map[string]any{"reason": ReasonNotFound, "kind": kind, "code": label})
}

func errNotApplicable(def Definition) error {
	return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s is not valid at this time", def.Kind)).
		WithDetails(map[string]any{
			"reason":     ReasonNotApplicable,
			"valid_from": def.ValidFrom,
			"valid_till": def.ValidTill,
		})
}

func errUsageLimitExceeded(def Definition) error {
	return pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("%s usage limit reached", def.Kind)).
		WithDetails(map[string]any{"reason": ReasonUsageLimitExceeded, "usage_limit": *def.UsageLimit})
}

func errPerUserLimitExceeded(def Definition) error {
	return pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("you have already used this %s the maximum number of times", def.Kind)).
		WithDetails(map[string]any{"reason": ReasonPerUserLimitExceeded, "user_limit": *def.UserLimit})
}

func errEmptyCart() error {
	return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty").
		WithReason(ReasonEmptyCart)
}

func errBelowMinimum(min decimal.Decimal) error {
	return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("minimum cart amount for this discount is %s", min.StringFixed(2))).
		WithDetails(map[string]any{"reason": ReasonBelowMinimum, "min_amount": min})
}

func errInvalidCartLine(index int, msg string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, "invalid cart line").
		WithDetails(map[string]any{"reason": ReasonInvalidCartLine, "index": index, "error": msg})
}
