package discounts

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/grocery-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/grocery-backend/pkg/errors"
	"github.com/angelmondragon/grocery-backend/pkg/logger"
)

type evaluationRecorder interface {
	ObserveEvaluation(kind, outcome string)
}

// Service previews a discount against a cart without persisting anything.
type Service interface {
	Apply(ctx context.Context, input ApplyInput) (*Breakdown, error)
}

// ApplyInput is the applyDiscount operation input.
type ApplyInput struct {
	UserID uuid.UUID
	Lines  []CartLine
	Code   string
	Kind   enums.DiscountKind
}

type service struct {
	store   Store
	calc    Calculator
	metrics evaluationRecorder
	logg    *logger.Logger
	now     func() time.Time
}

// ServiceParams wires the discount service.
type ServiceParams struct {
	Store      Store
	Calculator Calculator
	Metrics    evaluationRecorder
	Logger     *logger.Logger
	Clock      func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("discount store required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}
	return &service{
		store:   params.Store,
		calc:    params.Calculator,
		metrics: params.Metrics,
		logg:    params.Logger,
		now:     clock,
	}, nil
}

func (s *service) Apply(ctx context.Context, input ApplyInput) (*Breakdown, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user id required")
	}
	if !input.Kind.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid discount kind")
	}

	result, err := s.calc.Evaluate(ctx, s.store, Request{
		UserID: input.UserID,
		Lines:  input.Lines,
		Code:   input.Code,
		Kind:   input.Kind,
		Now:    s.now(),
	})
	if err != nil {
		s.observe(input.Kind, Outcome(err))
		return nil, err
	}

	s.observe(input.Kind, "applied")
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"discount_kind":   input.Kind,
		"discount_id":     result.Breakdown.DiscountID.String(),
		"discount_amount": result.Breakdown.DiscountAmount.String(),
	})
	s.logg.Info(logCtx, "discount applied to cart preview")
	return &result.Breakdown, nil
}

func (s *service) observe(kind enums.DiscountKind, outcome string) {
	if s.metrics == nil {
		return
	}
	s.metrics.ObserveEvaluation(kind.String(), outcome)
}

// Outcome returns a low-cardinality label for err, used in metrics.
func Outcome(err error) string {
	if err == nil {
		return "applied"
	}
	if reason := pkgerrors.Reason(err); reason != "" {
		return reason
	}
	if typed := pkgerrors.As(err); typed != nil {
		return string(typed.Code())
	}
	return "error"
}
