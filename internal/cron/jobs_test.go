package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/grocery-backend/pkg/logger"
)

type passthroughTx struct{}

func (passthroughTx) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fakePurger struct {
	cutoff      time.Time
	minAttempts int
	err         error
}

func (f *fakePurger) DeletePublishedBefore(_ context.Context, _ *gorm.DB, cutoff time.Time, minAttempts int) (int64, error) {
	f.cutoff = cutoff
	f.minAttempts = minAttempts
	return 4, f.err
}

type fakeExpirer struct {
	at  time.Time
	err error
}

func (f *fakeExpirer) DeactivateExpired(_ context.Context, now time.Time) (int64, int64, error) {
	f.at = now
	return 2, 1, f.err
}

var testLogger = logger.New(logger.Options{ServiceName: "cron-test"})

func TestOutboxRetentionJobComputesCutoff(t *testing.T) {
	now := time.Date(2026, 3, 31, 12, 0, 0, 0, time.UTC)
	repo := &fakePurger{}
	job, err := NewOutboxRetentionJob(OutboxRetentionParams{
		Logger:        testLogger,
		DB:            passthroughTx{},
		Repository:    repo,
		RetentionDays: 7,
		Clock:         func() time.Time { return now },
	})
	require.NoError(t, err)

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, now.Add(-7*24*time.Hour), repo.cutoff)
	assert.Equal(t, defaultOutboxMinAttempts, repo.minAttempts)
	assert.Equal(t, "outbox-retention", job.Name())
}

func TestOutboxRetentionJobWrapsErrors(t *testing.T) {
	repo := &fakePurger{err: errors.New("db down")}
	job, err := NewOutboxRetentionJob(OutboxRetentionParams{Logger: testLogger, DB: passthroughTx{}, Repository: repo})
	require.NoError(t, err)

	err = job.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
}

func TestNewOutboxRetentionJobRequiresDeps(t *testing.T) {
	_, err := NewOutboxRetentionJob(OutboxRetentionParams{Logger: testLogger})
	assert.Error(t, err)
}

func TestDiscountExpiryJob(t *testing.T) {
	now := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	repo := &fakeExpirer{}
	job, err := NewDiscountExpiryJob(testLogger, repo, func() time.Time { return now })
	require.NoError(t, err)

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, now, repo.at)

	repo.err = errors.New("locked")
	assert.Error(t, job.Run(context.Background()))

	_, err = NewDiscountExpiryJob(testLogger, nil, nil)
	assert.Error(t, err)
}
