package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/example/drill/pkg/models"
)

// ItemRepository handles database operations for items
type ItemRepository struct {
	db *sqlx.DB
}

// NewItemRepository creates a new repository instance
func NewItemRepository(db *sqlx.DB) *ItemRepository {
	return &ItemRepository{db: db}
}

// GetAll returns all items ordered by id
func (r *ItemRepository) GetAll(ctx context.Context) ([]models.Item, error) {
	var items []models.Item
	err := r.db.SelectContext(ctx, &items, `
		SELECT id, family, name, data, estimate, num_correct, num_incorrect, last_answered_at, created_at
		FROM items ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get items: %w", err)
	}
	return items, nil
}

// Create inserts a new item and fills in its id
func (r *ItemRepository) Create(ctx context.Context, item *models.Item) error {
	if r.db.DriverName() == DriverPostgres {
		query := `
			INSERT INTO items (family, name, data, estimate, created_at)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id
		`
		err := r.db.QueryRowxContext(ctx, query, item.Family, item.Name, item.Data, item.Estimate, item.CreatedAt).
			Scan(&item.ID)
		if err != nil {
			return fmt.Errorf("failed to create item %s/%s: %w", item.Family, item.Name, err)
		}
		return nil
	}

	result, err := r.db.ExecContext(ctx, `
		INSERT INTO items (family, name, data, estimate, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, item.Family, item.Name, item.Data, item.Estimate, item.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create item %s/%s: %w", item.Family, item.Name, err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert ID: %w", err)
	}
	item.ID = models.ItemID(id)
	return nil
}

// UpdateEstimates overwrites the stored estimate of every item in the map
func (r *ItemRepository) UpdateEstimates(ctx context.Context, estimates map[models.ItemID]float64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, tx.Rebind("UPDATE items SET estimate = ? WHERE id = ?"))
	if err != nil {
		return fmt.Errorf("failed to prepare estimate update: %w", err)
	}
	defer stmt.Close()

	for id, est := range estimates {
		if _, err := stmt.ExecContext(ctx, est, id); err != nil {
			return fmt.Errorf("failed to update estimate of item %d: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit estimates: %w", err)
	}
	return nil
}
