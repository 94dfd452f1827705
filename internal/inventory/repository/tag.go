package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/registerhq/register-backend/pkg/database"
	"github.com/registerhq/register-backend/pkg/errors"
)

// Tag represents a shared inventory tag. Names are unique and immutable
// once created.
type Tag struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description *string   `db:"description" json:"description,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// TagRepository handles tag persistence
type TagRepository struct {
	db *database.DB
}

// NewTagRepository creates a new tag repository
func NewTagRepository(db *database.DB) *TagRepository {
	return &TagRepository{db: db}
}

// Resolve looks up a tag by exact name inside the caller's transaction,
// creating it when absent. Concurrent first use of the same name is resolved
// with ON CONFLICT DO NOTHING: a raised unique violation would abort the
// enclosing transaction, so the loser instead sees an empty insert, waits out
// the winner's commit, and re-fetches the row once before surfacing a
// conflict.
func (r *TagRepository) Resolve(ctx context.Context, tx *sqlx.Tx, name string, description *string) (*Tag, error) {
	tag, err := r.getByNameTx(ctx, tx, name)
	if err == nil {
		return tag, nil
	}
	if !errors.Is(err, errors.ErrNotFound) {
		return nil, err
	}

	tag = &Tag{
		ID:          uuid.New().String(),
		Name:        name,
		Description: description,
	}

	insertErr := tx.QueryRowxContext(ctx,
		`INSERT INTO tags (id, name, description) VALUES ($1, $2, $3)
		 ON CONFLICT (name) DO NOTHING RETURNING created_at`,
		tag.ID, tag.Name, tag.Description,
	).Scan(&tag.CreatedAt)
	if insertErr == nil {
		return tag, nil
	}

	if insertErr == sql.ErrNoRows {
		// Lost the race to another transaction; the winner's committed row
		// is visible to the next statement.
		tag, err = r.getByNameTx(ctx, tx, name)
		if err == nil {
			return tag, nil
		}
		return nil, errors.Conflict("a tag with this name already exists")
	}

	if appErr := database.MapPQError(insertErr); appErr != nil {
		return nil, appErr
	}
	return nil, insertErr
}

// GetByName gets a tag by name
func (r *TagRepository) GetByName(ctx context.Context, name string) (*Tag, error) {
	var tag Tag
	query := `SELECT id, name, description, created_at FROM tags WHERE name = $1`

	err := r.db.GetContext(ctx, &tag, query, name)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("tag")
	}
	if err != nil {
		return nil, err
	}

	return &tag, nil
}

// List lists all tags
func (r *TagRepository) List(ctx context.Context) ([]*Tag, error) {
	var tags []*Tag
	query := `SELECT id, name, description, created_at FROM tags ORDER BY name`

	if err := r.db.SelectContext(ctx, &tags, query); err != nil {
		return nil, err
	}

	return tags, nil
}

func (r *TagRepository) getByNameTx(ctx context.Context, tx *sqlx.Tx, name string) (*Tag, error) {
	var tag Tag
	query := `SELECT id, name, description, created_at FROM tags WHERE name = $1`

	err := tx.GetContext(ctx, &tag, query, name)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("tag")
	}
	if err != nil {
		return nil, err
	}

	return &tag, nil
}
