package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/grocery-backend/pkg/logger"
)

const (
	defaultOutboxRetentionDays = 30
	defaultOutboxMinAttempts   = 10
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPurger interface {
	DeletePublishedBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time, minAttemptCount int) (int64, error)
}

type OutboxRetentionParams struct {
	Logger        *logger.Logger
	DB            txRunner
	Repository    outboxPurger
	RetentionDays int
	// MinAttempts marks an unpublished row as abandoned.
	MinAttempts int
	Clock       func() time.Time
}

// OutboxRetentionJob purges delivered and abandoned order events.
type OutboxRetentionJob struct {
	logg        *logger.Logger
	db          txRunner
	repo        outboxPurger
	retention   time.Duration
	minAttempts int
	now         func() time.Time
}

func NewOutboxRetentionJob(params OutboxRetentionParams) (*OutboxRetentionJob, error) {
	if params.Logger == nil || params.DB == nil || params.Repository == nil {
		return nil, errors.New("outbox retention: logger, db and repository required")
	}
	days := params.RetentionDays
	if days <= 0 {
		days = defaultOutboxRetentionDays
	}
	attempts := params.MinAttempts
	if attempts <= 0 {
		attempts = defaultOutboxMinAttempts
	}
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}
	return &OutboxRetentionJob{
		logg:        params.Logger,
		db:          params.DB,
		repo:        params.Repository,
		retention:   time.Duration(days) * 24 * time.Hour,
		minAttempts: attempts,
		now:         clock,
	}, nil
}

func (j *OutboxRetentionJob) Name() string { return "outbox-retention" }

func (j *OutboxRetentionJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.retention)
	var deleted int64
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		n, err := j.repo.DeletePublishedBefore(ctx, tx, cutoff, j.minAttempts)
		deleted = n
		return err
	})
	if err != nil {
		return fmt.Errorf("purge outbox events: %w", err)
	}
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"cutoff":       cutoff,
		"min_attempts": j.minAttempts,
		"rows_deleted": deleted,
	}), "outbox retention complete")
	return nil
}

type discountExpirer interface {
	DeactivateExpired(ctx context.Context, now time.Time) (coupons, offers int64, err error)
}

// DiscountExpiryJob switches off coupons and offers past their valid_till.
type DiscountExpiryJob struct {
	logg *logger.Logger
	repo discountExpirer
	now  func() time.Time
}

func NewDiscountExpiryJob(logg *logger.Logger, repo discountExpirer, clock func() time.Time) (*DiscountExpiryJob, error) {
	if logg == nil || repo == nil {
		return nil, errors.New("discount expiry: logger and repository required")
	}
	if clock == nil {
		clock = time.Now
	}
	return &DiscountExpiryJob{logg: logg, repo: repo, now: clock}, nil
}

func (j *DiscountExpiryJob) Name() string { return "discount-expiry" }

func (j *DiscountExpiryJob) Run(ctx context.Context) error {
	coupons, offers, err := j.repo.DeactivateExpired(ctx, j.now().UTC())
	if err != nil {
		return fmt.Errorf("deactivate expired discounts: %w", err)
	}
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"coupons_deactivated": coupons,
		"offers_deactivated":  offers,
	}), "discount expiry complete")
	return nil
}
