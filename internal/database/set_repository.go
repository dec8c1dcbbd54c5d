package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/example/drill/pkg/models"
)

// SetRepository handles set memberships and set descriptors
type SetRepository struct {
	db *sqlx.DB
}

// NewSetRepository creates a new repository instance
func NewSetRepository(db *sqlx.DB) *SetRepository {
	return &SetRepository{db: db}
}

// GetMemberships returns every (set, item) pair in insertion order
func (r *SetRepository) GetMemberships(ctx context.Context) ([]models.SetMembership, error) {
	var members []models.SetMembership
	err := r.db.SelectContext(ctx, &members, "SELECT set_name, item_id FROM set_members ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to get set memberships: %w", err)
	}
	return members, nil
}

// AddMember puts an item into a set. Adding it twice is a no-op.
func (r *SetRepository) AddMember(ctx context.Context, set string, id models.ItemID) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO set_members (set_name, item_id) VALUES (?, ?)
		ON CONFLICT (set_name, item_id) DO NOTHING
	`), set, id)
	if err != nil {
		return fmt.Errorf("failed to add item %d to set %q: %w", id, set, err)
	}
	return nil
}

// GetDescriptors returns all stored set descriptors
func (r *SetRepository) GetDescriptors(ctx context.Context) ([]models.SetDescriptor, error) {
	var descs []models.SetDescriptor
	err := r.db.SelectContext(ctx, &descs, "SELECT name, kind, data FROM set_descriptors ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to get set descriptors: %w", err)
	}
	return descs, nil
}

// SaveDescriptor inserts or replaces a set descriptor
func (r *SetRepository) SaveDescriptor(ctx context.Context, d models.SetDescriptor) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO set_descriptors (name, kind, data) VALUES (?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET kind = excluded.kind, data = excluded.data
	`), d.Name, d.Kind, d.Data)
	if err != nil {
		return fmt.Errorf("failed to save set descriptor %q: %w", d.Name, err)
	}
	return nil
}
