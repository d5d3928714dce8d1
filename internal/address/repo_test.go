package address

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/grocery-backend/internal/testdb"
	"github.com/angelmondragon/grocery-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/grocery-backend/pkg/errors"
)

func TestRepositoryFindForUser_Ownership(t *testing.T) {
	db := testdb.Open(t)
	repo := NewRepository(db)
	ctx := context.Background()

	owner := testdb.SeedUser(t, db, enums.RoleCustomer)
	other := testdb.SeedUser(t, db, enums.RoleCustomer)
	addr := testdb.SeedAddress(t, db, owner.ID)

	found, err := repo.FindForUser(ctx, owner.ID, addr.ID)
	require.NoError(t, err)
	assert.Equal(t, "Pune", found.City)

	_, err = repo.FindForUser(ctx, other.ID, addr.ID)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	list, err := repo.ListForUser(ctx, owner.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestRepositoryMarkDefaultRequiresOwnership(t *testing.T) {
	db := testdb.Open(t)
	repo := NewRepository(db)
	ctx := context.Background()

	owner := testdb.SeedUser(t, db, enums.RoleCustomer)
	other := testdb.SeedUser(t, db, enums.RoleCustomer)
	addr := testdb.SeedAddress(t, db, owner.ID)

	err := repo.MarkDefault(ctx, other.ID, addr.ID)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	require.NoError(t, repo.MarkDefault(ctx, owner.ID, addr.ID))
	found, err := repo.FindForUser(ctx, owner.ID, addr.ID)
	require.NoError(t, err)
	assert.True(t, found.IsDefault)

	require.NoError(t, repo.ClearDefault(ctx, owner.ID))
	n, err := repo.CountForUser(ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	found, err = repo.FindForUser(ctx, owner.ID, addr.ID)
	require.NoError(t, err)
	assert.False(t, found.IsDefault)
}
