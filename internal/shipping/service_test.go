package shipping

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/grocery-backend/internal/testdb"
	"github.com/angelmondragon/grocery-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/grocery-backend/pkg/errors"
	"github.com/angelmondragon/grocery-backend/pkg/logger"
)

func TestServiceGetAndUpdate(t *testing.T) {
	db := testdb.Open(t)
	svc, err := NewService(NewRepository(db), logger.Nop())
	require.NoError(t, err)
	ctx := context.Background()

	rate, err := svc.Get(ctx)
	require.NoError(t, err)
	assert.True(t, rate.Price.IsZero())

	_, err = svc.Update(ctx, decimal.RequireFromString("40"))
	require.NoError(t, err)
	_, err = svc.Update(ctx, decimal.RequireFromString("49.5"))
	require.NoError(t, err)

	rate, err = svc.Get(ctx)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("49.5").Equal(rate.Price))

	var rows int64
	require.NoError(t, db.Model(&models.ShippingRate{}).Count(&rows).Error)
	assert.Equal(t, int64(1), rows)
}

func TestServiceUpdateRejectsNegative(t *testing.T) {
	svc, err := NewService(NewRepository(testdb.Open(t)), logger.Nop())
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), decimal.NewFromInt(-1))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
