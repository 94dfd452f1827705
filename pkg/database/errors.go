package database

import (
	"strings"

	"github.com/lib/pq"
	"github.com/registerhq/register-backend/pkg/errors"
)

// IsUniqueViolation reports whether the error is a PostgreSQL unique
// constraint violation (23505). Used by get-or-create paths that retry
// with a re-fetch instead of surfacing the conflict.
func IsUniqueViolation(err error) bool {
	pqErr, ok := err.(*pq.Error)
	return ok && pqErr.Code == "23505"
}

// MapPQError converts a PostgreSQL error to an AppError with meaningful messages.
// Returns nil if the error is not a pq.Error.
func MapPQError(err error) *errors.AppError {
	pqErr, ok := err.(*pq.Error)
	if !ok {
		return nil
	}

	switch pqErr.Code {
	// Check constraint violation (23514)
	case "23514":
		return mapCheckConstraint(pqErr)

	// Unique constraint violation (23505)
	case "23505":
		return errors.Conflict(formatConstraintMessage(pqErr))

	// Foreign key violation (23503)
	case "23503":
		return errors.BadRequest("referenced record does not exist")

	// Not null violation (23502)
	case "23502":
		col := pqErr.Column
		if col == "" {
			col = "required field"
		}
		return errors.Validation(map[string]string{
			col: "must not be empty",
		})

	default:
		return nil
	}
}

// mapCheckConstraint maps specific CHECK constraint names to user-friendly messages.
func mapCheckConstraint(pqErr *pq.Error) *errors.AppError {
	constraint := pqErr.Constraint

	switch {
	case strings.Contains(constraint, "quantity_non_negative"):
		return errors.Validation(map[string]string{
			"quantity": "must not be negative",
		})

	case strings.Contains(constraint, "movement_quantity_nonzero"):
		return errors.Validation(map[string]string{
			"quantity": "must not be zero",
		})

	case strings.Contains(constraint, "order_item_positive"):
		return errors.Validation(map[string]string{
			"quantity":   "must be greater than zero",
			"unit_price": "must be greater than zero",
		})

	case strings.Contains(constraint, "status_valid"):
		return errors.Validation(map[string]string{
			"status": "must be one of: draft, pending, approved, ordered, received, cancelled",
		})

	default:
		return errors.BadRequest("data validation failed: " + constraint)
	}
}

// formatConstraintMessage creates a user-friendly message for unique constraint violations.
func formatConstraintMessage(pqErr *pq.Error) string {
	constraint := pqErr.Constraint

	switch {
	case strings.Contains(constraint, "products_sku"):
		return "a product with this SKU already exists"
	case strings.Contains(constraint, "products_barcode"):
		return "a product with this barcode already exists"
	case strings.Contains(constraint, "tags_name"):
		return "a tag with this name already exists"
	case strings.Contains(constraint, "order_number"):
		return "a purchase order with this order number already exists"
	case strings.Contains(constraint, "product_location"):
		return "an inventory record for this product and location already exists"
	case strings.Contains(constraint, "name"):
		return "a record with this name already exists"
	default:
		return "a record with these values already exists"
	}
}
