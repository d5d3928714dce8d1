// Package testdb opens in-memory sqlite databases carrying the grocery schema
// for repository and transaction tests.
package testdb

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// sqlite has no uuid or timestamptz; ids are TEXT and money is NUMERIC.
var schema = []string{
	`CREATE TABLE users (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL DEFAULT '',
  email TEXT,
  phone TEXT NOT NULL,
  role TEXT NOT NULL DEFAULT 'customer',
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE UNIQUE INDEX ux_users_phone ON users (phone);`,
	`CREATE TABLE addresses (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  full_name TEXT NOT NULL,
  phone TEXT NOT NULL,
  address_line1 TEXT NOT NULL,
  address_line2 TEXT,
  city TEXT NOT NULL,
  state TEXT NOT NULL,
  pincode TEXT NOT NULL,
  landmark TEXT,
  is_default BOOLEAN NOT NULL DEFAULT 0,
  created_at DATETIME
);`,
	`CREATE UNIQUE INDEX ux_addresses_user_default ON addresses (user_id) WHERE is_default;`,
	`CREATE TABLE categories (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  image_url TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE UNIQUE INDEX ux_categories_name_lower ON categories (LOWER(name));`,
	`CREATE TABLE products (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  unit TEXT,
  description TEXT,
  category_id TEXT REFERENCES categories(id) ON DELETE RESTRICT,
  price NUMERIC NOT NULL CHECK (price >= 0),
  is_active BOOLEAN NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE cart_items (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  product_id TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
  quantity INTEGER NOT NULL CHECK (quantity > 0),
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE UNIQUE INDEX ux_cart_items_user_product ON cart_items (user_id, product_id);`,
	`CREATE TABLE shipping_rates (
  id TEXT PRIMARY KEY,
  price NUMERIC NOT NULL CHECK (price >= 0),
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE coupons (
  id TEXT PRIMARY KEY,
  code TEXT NOT NULL,
  description TEXT,
  discount_type TEXT NOT NULL,
  discount_value NUMERIC NOT NULL,
  min_amount NUMERIC,
  max_discount NUMERIC,
  valid_from DATETIME NOT NULL,
  valid_till DATETIME NOT NULL,
  usage_limit INTEGER,
  user_limit INTEGER,
  is_active BOOLEAN NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE UNIQUE INDEX ux_coupons_code_lower ON coupons (LOWER(code));`,
	`CREATE TABLE offers (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  description TEXT,
  discount_type TEXT NOT NULL,
  discount_value NUMERIC NOT NULL,
  min_cart_amount NUMERIC,
  max_discount NUMERIC,
  valid_from DATETIME NOT NULL,
  valid_till DATETIME NOT NULL,
  usage_limit INTEGER,
  user_limit INTEGER,
  is_active BOOLEAN NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE UNIQUE INDEX ux_offers_title_lower ON offers (LOWER(title));`,
	`CREATE TABLE delivery_partners (
  id TEXT PRIMARY KEY,
  user_id TEXT REFERENCES users(id) ON DELETE SET NULL,
  name TEXT NOT NULL,
  phone TEXT,
  email TEXT,
  is_active BOOLEAN NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE UNIQUE INDEX ux_delivery_partners_user ON delivery_partners (user_id) WHERE user_id IS NOT NULL;`,
	`CREATE UNIQUE INDEX ux_delivery_partners_email_lower ON delivery_partners (LOWER(email)) WHERE email IS NOT NULL;`,
	`CREATE TABLE orders (
  id TEXT PRIMARY KEY,
  order_number TEXT NOT NULL,
  user_id TEXT NOT NULL REFERENCES users(id),
  address_id TEXT NOT NULL REFERENCES addresses(id),
  subtotal NUMERIC NOT NULL,
  delivery_charges NUMERIC NOT NULL DEFAULT 0,
  tax NUMERIC NOT NULL DEFAULT 0,
  discount NUMERIC NOT NULL DEFAULT 0,
  total NUMERIC NOT NULL,
  currency TEXT NOT NULL DEFAULT 'INR',
  status TEXT NOT NULL DEFAULT 'PENDING',
  payment_status TEXT NOT NULL DEFAULT 'PENDING',
  payment_method TEXT NOT NULL,
  coupon_id TEXT REFERENCES coupons(id) ON DELETE RESTRICT,
  offer_id TEXT REFERENCES offers(id) ON DELETE RESTRICT,
  delivery_partner_id TEXT REFERENCES delivery_partners(id) ON DELETE SET NULL,
  created_at DATETIME,
  updated_at DATETIME,
  CHECK (coupon_id IS NULL OR offer_id IS NULL)
);`,
	`CREATE UNIQUE INDEX ux_orders_order_number ON orders (order_number);`,
	`CREATE TABLE order_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
  product_id TEXT NOT NULL REFERENCES products(id),
  quantity INTEGER NOT NULL,
  price NUMERIC NOT NULL
);`,
	`CREATE TABLE coupon_usages (
  id TEXT PRIMARY KEY,
  coupon_id TEXT NOT NULL REFERENCES coupons(id) ON DELETE RESTRICT,
  user_id TEXT NOT NULL,
  order_id TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
  discount NUMERIC NOT NULL,
  created_at DATETIME
);`,
	`CREATE UNIQUE INDEX ux_coupon_usages_order ON coupon_usages (order_id);`,
	`CREATE TABLE offer_usages (
  id TEXT PRIMARY KEY,
  offer_id TEXT NOT NULL REFERENCES offers(id) ON DELETE RESTRICT,
  user_id TEXT NOT NULL,
  order_id TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
  discount NUMERIC NOT NULL,
  created_at DATETIME
);`,
	`CREATE UNIQUE INDEX ux_offer_usages_order ON offer_usages (order_id);`,
	`CREATE TABLE outbox_events (
  id TEXT PRIMARY KEY,
  event_type TEXT NOT NULL,
  aggregate_type TEXT NOT NULL,
  aggregate_id TEXT NOT NULL,
  payload TEXT NOT NULL,
  created_at DATETIME,
  published_at DATETIME,
  attempt_count INTEGER NOT NULL DEFAULT 0,
  last_error TEXT
);`,
}

// Open returns a private in-memory database with foreign keys enforced. The
// pool is pinned to one connection so every statement sees the same memory
// database and transactions serialize.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:?_foreign_keys=on"), &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
		SkipDefaultTransaction: true,
		NowFunc:                func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	for _, stmt := range schema {
		require.NoError(t, conn.Exec(stmt).Error)
	}
	return conn
}
