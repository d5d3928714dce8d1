package product

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/grocery-backend/internal/testdb"
	"github.com/angelmondragon/grocery-backend/pkg/db/models"
	"github.com/angelmondragon/grocery-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/grocery-backend/pkg/errors"
	"github.com/angelmondragon/grocery-backend/pkg/logger"
)

func newAdmin(t *testing.T) (*gorm.DB, AdminService) {
	t.Helper()
	db := testdb.Open(t)
	svc, err := NewAdminService(AdminParams{Repo: NewRepository(db), Logger: logger.Nop()})
	require.NoError(t, err)
	return db, svc
}

func strPtr(v string) *string { return &v }

func boolPtr(v bool) *bool { return &v }

func price(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}

func TestNewAdminServiceRequiresDependencies(t *testing.T) {
	_, err := NewAdminService(AdminParams{})
	require.Error(t, err)
	_, err = NewAdminService(AdminParams{Repo: NewRepository(nil)})
	require.Error(t, err)
}

func TestAdminCreateProduct(t *testing.T) {
	db, svc := newAdmin(t)
	ctx := context.Background()
	grains := testdb.SeedCategory(t, db, "Grains")

	created, err := svc.CreateProduct(ctx, ProductInput{
		Name:        strPtr("  Basmati Rice "),
		Unit:        strPtr("1 kg"),
		Description: strPtr("Aged long grain"),
		CategoryID:  &grains.ID,
		Price:       price("120.50"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Basmati Rice", created.Name)
	assert.True(t, created.IsActive)
	require.NotNil(t, created.Category)
	assert.Equal(t, "Grains", created.Category.Name)
	require.NotNil(t, created.Description)
	assert.Equal(t, "Aged long grain", *created.Description)

	hidden, err := svc.CreateProduct(ctx, ProductInput{Name: strPtr("Seasonal Mango"), Price: price("80"), IsActive: boolPtr(false)})
	require.NoError(t, err)
	assert.False(t, hidden.IsActive)
	var stored models.Product
	require.NoError(t, db.First(&stored, "id = ?", hidden.ID).Error)
	assert.False(t, stored.IsActive)

	_, err = svc.CreateProduct(ctx, ProductInput{Name: strPtr("Dal")})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	assert.Equal(t, map[string]any{"field": "price"}, pkgerrors.As(err).Details())

	_, err = svc.CreateProduct(ctx, ProductInput{Name: strPtr("Dal"), Price: price("-1")})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	missing := uuid.New()
	_, err = svc.CreateProduct(ctx, ProductInput{Name: strPtr("Dal"), Price: price("90"), CategoryID: &missing})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	assert.Equal(t, map[string]any{"field": "category_id"}, pkgerrors.As(err).Details())
}

func TestAdminUpdateAndToggleProduct(t *testing.T) {
	db, svc := newAdmin(t)
	ctx := context.Background()
	grains := testdb.SeedCategory(t, db, "Grains")
	rice := testdb.SeedProduct(t, db, "Rice", "50.00")

	updated, err := svc.UpdateProduct(ctx, rice.ID, ProductInput{Price: price("55"), CategoryID: &grains.ID})
	require.NoError(t, err)
	assert.Equal(t, "Rice", updated.Name)
	assert.True(t, decimal.RequireFromString("55").Equal(updated.Price))
	require.NotNil(t, updated.Category)

	nilID := uuid.Nil
	updated, err = svc.UpdateProduct(ctx, rice.ID, ProductInput{CategoryID: &nilID})
	require.NoError(t, err)
	assert.Nil(t, updated.Category)

	toggled, err := svc.ToggleActive(ctx, rice.ID)
	require.NoError(t, err)
	assert.False(t, toggled.IsActive)

	public, err := NewService(NewRepository(db))
	require.NoError(t, err)
	list, err := public.ListProducts(ctx, ListProductsInput{})
	require.NoError(t, err)
	assert.Empty(t, list.Products)

	all, err := svc.ListProducts(ctx, AdminListInput{})
	require.NoError(t, err)
	require.Len(t, all.Products, 1)
	activeOnly, err := svc.ListProducts(ctx, AdminListInput{Active: boolPtr(true)})
	require.NoError(t, err)
	assert.Empty(t, activeOnly.Products)

	_, err = svc.UpdateProduct(ctx, uuid.New(), ProductInput{Price: price("1")})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestAdminDeleteProduct(t *testing.T) {
	db, svc := newAdmin(t)
	ctx := context.Background()
	rice := testdb.SeedProduct(t, db, "Rice", "50.00")
	soap := testdb.SeedProduct(t, db, "Soap", "30.00")
	customer := testdb.SeedUser(t, db, enums.RoleCustomer)
	address := testdb.SeedAddress(t, db, customer.ID)
	testdb.SeedOrder(t, db, customer.ID, address.ID, rice.ID, "ORD-1")

	err := svc.DeleteProduct(ctx, rice.ID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	require.NoError(t, svc.DeleteProduct(ctx, soap.ID))
	_, err = svc.GetProduct(ctx, soap.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	assert.True(t, pkgerrors.IsCode(svc.DeleteProduct(ctx, soap.ID), pkgerrors.CodeNotFound))
}

func TestAdminCategories(t *testing.T) {
	db, svc := newAdmin(t)
	ctx := context.Background()

	fruit, err := svc.CreateCategory(ctx, CategoryInput{Name: " Fruit ", ImageURL: strPtr("https://cdn.example/fruit.png")})
	require.NoError(t, err)
	assert.Equal(t, "Fruit", fruit.Name)

	_, err = svc.CreateCategory(ctx, CategoryInput{Name: "FRUIT"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	_, err = svc.CreateCategory(ctx, CategoryInput{Name: "  "})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	dairy, err := svc.CreateCategory(ctx, CategoryInput{Name: "Dairy"})
	require.NoError(t, err)
	renamed, err := svc.UpdateCategory(ctx, dairy.ID, CategoryInput{Name: "Dairy & Eggs"})
	require.NoError(t, err)
	assert.Equal(t, "Dairy & Eggs", renamed.Name)
	_, err = svc.UpdateCategory(ctx, dairy.ID, CategoryInput{Name: "fruit"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	public, err := NewService(NewRepository(db))
	require.NoError(t, err)
	list, err := public.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Dairy & Eggs", list[0].Name)

	_, err = svc.CreateProduct(ctx, ProductInput{Name: strPtr("Apple"), Price: price("20"), CategoryID: &fruit.ID})
	require.NoError(t, err)
	err = svc.DeleteCategory(ctx, fruit.ID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	require.NoError(t, svc.DeleteCategory(ctx, dairy.ID))
	assert.True(t, pkgerrors.IsCode(svc.DeleteCategory(ctx, dairy.ID), pkgerrors.CodeNotFound))
}

func TestServiceListProductsByCategory(t *testing.T) {
	db := testdb.Open(t)
	grains := testdb.SeedCategory(t, db, "Grains")
	rice := testdb.SeedProduct(t, db, "Rice", "50")
	require.NoError(t, db.Model(rice).Update("category_id", grains.ID).Error)
	testdb.SeedProduct(t, db, "Soap", "30")

	svc, err := NewService(NewRepository(db))
	require.NoError(t, err)
	result, err := svc.ListProducts(context.Background(), ListProductsInput{CategoryID: &grains.ID})
	require.NoError(t, err)
	require.Len(t, result.Products, 1)
	assert.Equal(t, "Rice", result.Products[0].Name)
	require.NotNil(t, result.Products[0].Category)
	assert.Equal(t, "Grains", result.Products[0].Category.Name)
}
