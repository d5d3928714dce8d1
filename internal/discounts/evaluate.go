package discounts

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/grocery-backend/pkg/enums"
)

// Store is the persistence read surface the evaluation depends on. When lock is
// true the definition row is locked for the rest of the surrounding transaction.
type Store interface {
	FindActive(ctx context.Context, kind enums.DiscountKind, normalized string, lock bool) (Definition, error)
	CountUsage(ctx context.Context, kind enums.DiscountKind, discountID, userID uuid.UUID) (Usage, error)
}

// Request is one discount evaluation against a cart.
type Request struct {
	UserID uuid.UUID
	Lines  []CartLine
	Code   string
	Kind   enums.DiscountKind
	Now    time.Time
	Lock   bool
}

// Result is a successful evaluation.
type Result struct {
	Subtotal   decimal.Decimal
	Definition Definition
	Breakdown  Breakdown
}

// Evaluate runs the checks in order: cart non-empty, resolution (lookup,
// window, usage caps), minimum gate, then computation.
func (c Calculator) Evaluate(ctx context.Context, store Store, req Request) (Result, error) {
	subtotal, err := Subtotal(req.Lines)
	if err != nil {
		return Result{}, err
	}

	def, err := Resolve(ctx, store, req.UserID, req.Code, req.Kind, req.Now, req.Lock)
	if err != nil {
		return Result{}, err
	}

	if err := CheckMinimum(def, subtotal); err != nil {
		return Result{}, err
	}

	return Result{
		Subtotal:   subtotal,
		Definition: def,
		Breakdown:  c.Compute(def, subtotal),
	}, nil
}

// Resolve looks up an active definition by code/title and validates its window
// and usage caps for userID.
func Resolve(ctx context.Context, store Store, userID uuid.UUID, code string, kind enums.DiscountKind, now time.Time, lock bool) (Definition, error) {
	normalized := NormalizeCode(code)
	if normalized == "" {
		return Definition{}, errNotFound(kind, code)
	}

	def, err := store.FindActive(ctx, kind, normalized, lock)
	if err != nil {
		return Definition{}, err
	}

	if err := CheckWindow(def, now); err != nil {
		return Definition{}, err
	}

	if def.UsageLimit == nil && def.UserLimit == nil {
		return def, nil
	}
	usage, err := store.CountUsage(ctx, kind, def.ID, userID)
	if err != nil {
		return Definition{}, err
	}
	if err := CheckUsage(def, usage); err != nil {
		return Definition{}, err
	}
	return def, nil
}
