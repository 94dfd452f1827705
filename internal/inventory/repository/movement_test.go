package repository

import (
	"context"
	"testing"
	"time"

	"github.com/registerhq/register-backend/pkg/database"
	"github.com/registerhq/register-backend/pkg/logger"
	"github.com/registerhq/register-backend/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidMovementKind(t *testing.T) {
	assert.True(t, ValidMovementKind(MovementIn))
	assert.True(t, ValidMovementKind(MovementOut))
	assert.True(t, ValidMovementKind(MovementAdjustment))
	assert.True(t, ValidMovementKind(MovementTransfer))
	assert.False(t, ValidMovementKind("restock"))
	assert.False(t, ValidMovementKind(""))
	assert.False(t, ValidMovementKind("IN"))
}

func TestSignedDelta(t *testing.T) {
	tests := []struct {
		kind     string
		quantity int
		want     int
	}{
		{MovementIn, 10, 10},
		{MovementOut, 10, -10},
		{MovementAdjustment, 7, 7},
		{MovementAdjustment, -7, -7},
		{MovementTransfer, 3, 3},
		{MovementTransfer, -3, -3},
	}

	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			m := &InventoryMovement{Kind: tt.kind, Quantity: tt.quantity}
			assert.Equal(t, tt.want, m.SignedDelta())
		})
	}
}

func TestMovementInsert(t *testing.T) {
	mock := testutil.NewMockDB(t)
	t.Cleanup(func() { mock.Close() })

	db := database.NewFromSqlx(mock.DB, logger.New("test", "test"))
	repo := NewMovementRepository(db)

	productID := "a0a0a0a0-0000-0000-0000-000000000001"
	mock.ExpectQuery(`INSERT INTO inventory_movements`).
		WithArgs(testutil.AnyUUID{}, productID, MovementIn, 25, nil, nil, nil).
		WillReturnRows(testutil.MockRows("created_at").AddRow(time.Now()))

	m := &InventoryMovement{
		ProductID: &productID,
		Kind:      MovementIn,
		Quantity:  25,
	}

	err := repo.Insert(context.Background(), m)
	require.NoError(t, err)

	assert.NotEmpty(t, m.ID)
	assert.False(t, m.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMovementList_FiltersByProduct(t *testing.T) {
	mock := testutil.NewMockDB(t)
	t.Cleanup(func() { mock.Close() })

	db := database.NewFromSqlx(mock.DB, logger.New("test", "test"))
	repo := NewMovementRepository(db)

	now := time.Now()
	productID := "a0a0a0a0-0000-0000-0000-000000000001"

	mock.ExpectQuery(`SELECT COUNT(*) FROM inventory_movements WHERE product_id = $1`).
		WithArgs(productID).
		WillReturnRows(testutil.MockRows("count").AddRow(2))
	mock.ExpectQuery(`FROM inventory_movements WHERE product_id = $1 ORDER BY created_at DESC`).
		WithArgs(productID, 20, 0).
		WillReturnRows(testutil.MockRows(
			"id", "product_id", "kind", "quantity", "reference_number", "notes", "user_id", "created_at").
			AddRow("m-2", productID, MovementOut, 5, nil, nil, nil, now).
			AddRow("m-1", productID, MovementIn, 25, nil, nil, nil, now.Add(-time.Hour)))

	movements, total, err := repo.List(context.Background(), productID, 1, 20)
	require.NoError(t, err)

	assert.Equal(t, int64(2), total)
	require.Len(t, movements, 2)
	assert.Equal(t, "m-2", movements[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
