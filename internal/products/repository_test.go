package product

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/grocery-backend/internal/testdb"
	pkgerrors "github.com/angelmondragon/grocery-backend/pkg/errors"
	"github.com/angelmondragon/grocery-backend/pkg/pagination"
)

func TestRepositoryFindActiveByIDs(t *testing.T) {
	db := testdb.Open(t)
	repo := NewRepository(db)

	rice := testdb.SeedProduct(t, db, "Basmati Rice", "120.00")
	dal := testdb.SeedProduct(t, db, "Toor Dal", "95.50")
	require.NoError(t, db.Model(dal).Update("is_active", false).Error)

	found, err := repo.FindActiveByIDs(context.Background(), []uuid.UUID{rice.ID, dal.ID, uuid.New()})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Basmati Rice", found[rice.ID].Name)

	_, err = repo.FindActive(context.Background(), dal.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestServiceListProducts(t *testing.T) {
	db := testdb.Open(t)
	for _, name := range []string{"Apples", "Bananas", "Carrots"} {
		testdb.SeedProduct(t, db, name, "40")
	}
	svc, err := NewService(NewRepository(db))
	require.NoError(t, err)

	result, err := svc.ListProducts(context.Background(), ListProductsInput{Page: pagination.Page{Page: 2, Limit: 2}})
	require.NoError(t, err)
	require.Len(t, result.Products, 1)
	assert.Equal(t, "Carrots", result.Products[0].Name)
	assert.Equal(t, int64(3), result.Pagination.Total)
	assert.Equal(t, 2, result.Pagination.TotalPages)

	result, err = svc.ListProducts(context.Background(), ListProductsInput{Query: " BAN "})
	require.NoError(t, err)
	require.Len(t, result.Products, 1)
	assert.Equal(t, "Bananas", result.Products[0].Name)
}
