package migrate_test

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/grocery-backend/pkg/migrate"
)

func readMigration(t *testing.T, suffix string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", "*_"+suffix+".sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no %s migration file found", suffix)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}

func assertContains(t *testing.T, content string, checks []string) {
	t.Helper()
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestDiscountMigrationEnforcesCaseInsensitiveCodes(t *testing.T) {
	assertContains(t, readMigration(t, "create_discounts"), []string{
		"CREATE TABLE IF NOT EXISTS coupons",
		"CREATE UNIQUE INDEX IF NOT EXISTS ux_coupons_code_lower ON coupons (LOWER(code))",
		"CREATE UNIQUE INDEX IF NOT EXISTS ux_offers_title_lower ON offers (LOWER(title))",
		"CHECK (discount_type IN ('flat', 'percentage'))",
		"CHECK (valid_from <= valid_till)",
		"DROP TABLE IF EXISTS coupons",
	})
}

func TestOrdersMigrationGuardsUsageLedger(t *testing.T) {
	assertContains(t, readMigration(t, "create_orders_usage"), []string{
		"CREATE TABLE IF NOT EXISTS orders",
		"CHECK (total >= 0)",
		"CHECK (coupon_id IS NULL OR offer_id IS NULL)",
		"FOREIGN KEY (coupon_id) REFERENCES coupons(id) ON DELETE RESTRICT",
		"CREATE UNIQUE INDEX IF NOT EXISTS ux_coupon_usages_order ON coupon_usages (order_id)",
		"CREATE INDEX IF NOT EXISTS idx_offer_usages_offer_user ON offer_usages (offer_id, user_id)",
		"DROP TABLE IF EXISTS orders",
	})
}

func TestDeliveryCatalogMigrationExtendsStatuses(t *testing.T) {
	assertContains(t, readMigration(t, "addresses_delivery_catalog"), []string{
		"ADD COLUMN IF NOT EXISTS is_default boolean NOT NULL DEFAULT false",
		"ON addresses (user_id) WHERE is_default",
		"CREATE UNIQUE INDEX IF NOT EXISTS ux_categories_name_lower ON categories (LOWER(name))",
		"CHECK (role IN ('customer', 'admin', 'delivery'))",
		"REFERENCES delivery_partners(id) ON DELETE SET NULL",
		"'USER_NOT_REACHABLE'",
		"DROP TABLE IF EXISTS delivery_partners",
	})
}

func TestEmbeddedMigrationsValidate(t *testing.T) {
	require.NoError(t, migrate.ValidateFS(migrate.Migrations()))
	require.NoError(t, migrate.ValidateDir("migrations"))

	onDisk, err := filepath.Glob(filepath.Join("migrations", "*.sql"))
	require.NoError(t, err)
	embedded, err := fs.Glob(migrate.Migrations(), "*.sql")
	require.NoError(t, err)
	assert.Len(t, embedded, len(onDisk))
}

func TestValidateDirRejectsBadFiles(t *testing.T) {
	for name, file := range map[string]struct{ filename, body string }{
		"bad name":     {"bad-name.sql", "-- +goose Up\n-- +goose Down\n"},
		"missing down": {"20260101000000_x.sql", "-- +goose Up\n"},
		"unbalanced":   {"20260101000000_x.sql", "-- +goose Up\n-- +goose StatementBegin\n-- +goose Down\n"},
	} {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(dir, file.filename), []byte(file.body), 0o644))
			assert.Error(t, migrate.ValidateDir(dir))
		})
	}
}

func TestCreateSQLMigration(t *testing.T) {
	dir := t.TempDir()
	path, err := migrate.CreateSQLMigration(dir, "Add Coupon Notes!")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, "_add_coupon_notes.sql"), path)
	require.NoError(t, migrate.ValidateDir(dir))

	_, err = migrate.CreateSQLMigration(dir, "!!!")
	assert.Error(t, err)
}
