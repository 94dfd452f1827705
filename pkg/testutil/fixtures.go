package testutil

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
)

// UserFixture is a seeded user row
type UserFixture struct {
	ID       string
	Username string
	Email    string
	Password string
	Role     string
}

// CreateUser inserts a user with a bcrypt password hash and returns it
func CreateUser(ctx context.Context, db *sqlx.DB, username, password, role string) (*UserFixture, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	u := &UserFixture{
		ID:       uuid.New().String(),
		Username: username,
		Email:    username + "@example.com",
		Password: password,
		Role:     role,
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO users (id, username, email, password_hash, role)
		VALUES ($1, $2, $3, $4, $5)`,
		u.ID, u.Username, u.Email, string(hash), u.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to insert user fixture: %w", err)
	}

	return u, nil
}

// CreateCategory inserts a category and returns its ID
func CreateCategory(ctx context.Context, db *sqlx.DB, name string) (string, error) {
	id := uuid.New().String()
	_, err := db.ExecContext(ctx,
		`INSERT INTO categories (id, name) VALUES ($1, $2)`, id, name)
	if err != nil {
		return "", fmt.Errorf("failed to insert category fixture: %w", err)
	}
	return id, nil
}

// CreateSupplier inserts a supplier and returns its ID
func CreateSupplier(ctx context.Context, db *sqlx.DB, name string) (string, error) {
	id := uuid.New().String()
	_, err := db.ExecContext(ctx,
		`INSERT INTO suppliers (id, name) VALUES ($1, $2)`, id, name)
	if err != nil {
		return "", fmt.Errorf("failed to insert supplier fixture: %w", err)
	}
	return id, nil
}

// CreateLocation inserts a location and returns its ID
func CreateLocation(ctx context.Context, db *sqlx.DB, name string) (string, error) {
	id := uuid.New().String()
	_, err := db.ExecContext(ctx,
		`INSERT INTO locations (id, name) VALUES ($1, $2)`, id, name)
	if err != nil {
		return "", fmt.Errorf("failed to insert location fixture: %w", err)
	}
	return id, nil
}

// CreateProduct inserts a product and returns its ID
func CreateProduct(ctx context.Context, db *sqlx.DB, name, sku string, priceCents int) (string, error) {
	id := uuid.New().String()
	_, err := db.ExecContext(ctx, `
		INSERT INTO products (id, sku, name, price_cents)
		VALUES ($1, $2, $3, $4)`,
		id, sku, name, priceCents)
	if err != nil {
		return "", fmt.Errorf("failed to insert product fixture: %w", err)
	}
	return id, nil
}

// CreateGroup inserts an inventory group and returns its ID
func CreateGroup(ctx context.Context, db *sqlx.DB, name string) (string, error) {
	id := uuid.New().String()
	_, err := db.ExecContext(ctx,
		`INSERT INTO inventory_groups (id, name) VALUES ($1, $2)`, id, name)
	if err != nil {
		return "", fmt.Errorf("failed to insert group fixture: %w", err)
	}
	return id, nil
}

// CreateItem inserts an inventory item and returns its ID
func CreateItem(ctx context.Context, db *sqlx.DB, groupID, name string, quantity, minLevel int) (string, error) {
	id := uuid.New().String()
	_, err := db.ExecContext(ctx, `
		INSERT INTO inventory_items (id, group_id, name, quantity, min_stock_level)
		VALUES ($1, $2, $3, $4, $5)`,
		id, groupID, name, quantity, minLevel)
	if err != nil {
		return "", fmt.Errorf("failed to insert item fixture: %w", err)
	}
	return id, nil
}
