package testutil

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Schema is the DDL for all register tables. Constraint names are load
// bearing: database.MapPQError translates them into API errors.
const Schema = `
	CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		username VARCHAR(100) NOT NULL,
		email VARCHAR(255) NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		role VARCHAR(20) NOT NULL DEFAULT 'user',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT users_username_key UNIQUE (username),
		CONSTRAINT users_email_key UNIQUE (email)
	);

	CREATE TABLE IF NOT EXISTS categories (
		id UUID PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		description TEXT,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT categories_name_key UNIQUE (name)
	);

	CREATE TABLE IF NOT EXISTS suppliers (
		id UUID PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		contact_person VARCHAR(255),
		email VARCHAR(255),
		phone VARCHAR(50),
		address TEXT,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT suppliers_name_key UNIQUE (name)
	);

	CREATE TABLE IF NOT EXISTS locations (
		id UUID PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		description TEXT,
		address TEXT,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT locations_name_key UNIQUE (name)
	);

	CREATE TABLE IF NOT EXISTS products (
		id UUID PRIMARY KEY,
		sku VARCHAR(100),
		barcode VARCHAR(100),
		name VARCHAR(255) NOT NULL,
		description TEXT,
		category_id UUID REFERENCES categories(id),
		supplier_id UUID REFERENCES suppliers(id),
		unit VARCHAR(50) NOT NULL DEFAULT 'pcs',
		price_cents INTEGER NOT NULL DEFAULT 0,
		cost_price_cents INTEGER NOT NULL DEFAULT 0,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_by UUID REFERENCES users(id),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT products_sku_key UNIQUE (sku),
		CONSTRAINT products_barcode_key UNIQUE (barcode),
		CONSTRAINT products_price_non_negative CHECK (price_cents >= 0 AND cost_price_cents >= 0)
	);

	CREATE TABLE IF NOT EXISTS tags (
		id UUID PRIMARY KEY,
		name VARCHAR(100) NOT NULL,
		description TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT tags_name_key UNIQUE (name)
	);

	CREATE TABLE IF NOT EXISTS inventory_groups (
		id UUID PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		description TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT inventory_groups_name_key UNIQUE (name)
	);

	CREATE TABLE IF NOT EXISTS inventory_items (
		id UUID PRIMARY KEY,
		group_id UUID NOT NULL REFERENCES inventory_groups(id) ON DELETE CASCADE,
		name VARCHAR(255) NOT NULL,
		description TEXT,
		category VARCHAR(100),
		product_id UUID REFERENCES products(id),
		location_id UUID REFERENCES locations(id),
		quantity INTEGER NOT NULL DEFAULT 0,
		min_stock_level INTEGER NOT NULL DEFAULT 10,
		max_stock_level INTEGER NOT NULL DEFAULT 1000,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT inventory_items_quantity_non_negative CHECK (quantity >= 0),
		CONSTRAINT inventory_items_levels_non_negative CHECK (min_stock_level >= 0 AND max_stock_level >= 0)
	);

	CREATE UNIQUE INDEX IF NOT EXISTS inventory_items_product_location_key
		ON inventory_items (product_id, location_id)
		WHERE product_id IS NOT NULL AND location_id IS NOT NULL;

	CREATE TABLE IF NOT EXISTS inventory_item_tags (
		item_id UUID NOT NULL REFERENCES inventory_items(id) ON DELETE CASCADE,
		tag_id UUID NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
		PRIMARY KEY (item_id, tag_id)
	);

	CREATE TABLE IF NOT EXISTS inventory_movements (
		id UUID PRIMARY KEY,
		product_id UUID REFERENCES products(id),
		kind VARCHAR(20) NOT NULL,
		quantity INTEGER NOT NULL,
		reference_number VARCHAR(100),
		notes TEXT,
		user_id UUID REFERENCES users(id),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT inventory_movement_quantity_nonzero CHECK (quantity <> 0),
		CONSTRAINT inventory_movements_kind_valid CHECK (kind IN ('in', 'out', 'adjustment', 'transfer'))
	);

	CREATE TABLE IF NOT EXISTS purchase_orders (
		id UUID PRIMARY KEY,
		order_number VARCHAR(100) NOT NULL,
		supplier_id UUID NOT NULL REFERENCES suppliers(id),
		status VARCHAR(20) NOT NULL DEFAULT 'draft',
		order_date TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		expected_date TIMESTAMPTZ,
		total_amount_cents BIGINT NOT NULL DEFAULT 0,
		notes TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT purchase_orders_order_number_key UNIQUE (order_number),
		CONSTRAINT purchase_orders_status_valid CHECK (status IN ('draft', 'pending', 'approved', 'ordered', 'received', 'cancelled'))
	);

	CREATE TABLE IF NOT EXISTS purchase_order_items (
		id UUID PRIMARY KEY,
		order_id UUID NOT NULL REFERENCES purchase_orders(id) ON DELETE CASCADE,
		product_id UUID NOT NULL REFERENCES products(id),
		quantity INTEGER NOT NULL,
		unit_price_cents INTEGER NOT NULL,
		total_price_cents BIGINT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT purchase_order_item_positive CHECK (quantity > 0 AND unit_price_cents > 0)
	);
`

// ApplySchema creates all tables in the connected database
func ApplySchema(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// TruncateAll empties all tables between tests
func TruncateAll(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		TRUNCATE purchase_order_items, purchase_orders, inventory_movements,
			inventory_item_tags, inventory_items, inventory_groups, tags,
			products, locations, suppliers, categories, users CASCADE
	`)
	if err != nil {
		return fmt.Errorf("failed to truncate tables: %w", err)
	}
	return nil
}
