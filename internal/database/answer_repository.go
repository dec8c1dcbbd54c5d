package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/example/drill/pkg/models"
)

// AnswerRepository handles the append-only answer log
type AnswerRepository struct {
	db *sqlx.DB
}

// NewAnswerRepository creates a new repository instance
func NewAnswerRepository(db *sqlx.DB) *AnswerRepository {
	return &AnswerRepository{db: db}
}

// GetAll returns every recorded answer
func (r *AnswerRepository) GetAll(ctx context.Context) ([]models.AnswerEvent, error) {
	var events []models.AnswerEvent
	err := r.db.SelectContext(ctx, &events,
		"SELECT id, item_id, session_id, answered_at, correct FROM answers ORDER BY answered_at, id")
	if err != nil {
		return nil, fmt.Errorf("failed to get answers: %w", err)
	}
	return events, nil
}

// Record appends the answer and updates the item's estimate and advisory counters
// in one transaction. ev.ID is filled in.
func (r *AnswerRepository) Record(ctx context.Context, ev *models.AnswerEvent, estimate float64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	correct, incorrect := 0, 1
	if ev.Correct {
		correct, incorrect = 1, 0
	}
	res, err := tx.ExecContext(ctx, tx.Rebind(`
		UPDATE items SET
			estimate = ?,
			num_correct = num_correct + ?,
			num_incorrect = num_incorrect + ?,
			last_answered_at = ?
		WHERE id = ?
	`), estimate, correct, incorrect, ev.Time, ev.ItemID)
	if err != nil {
		return fmt.Errorf("failed to update item %d: %w", ev.ItemID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("failed to record answer: item %d does not exist", ev.ItemID)
	}

	if tx.DriverName() == DriverPostgres {
		err = tx.QueryRowxContext(ctx, `
			INSERT INTO answers (item_id, session_id, answered_at, correct)
			VALUES ($1, $2, $3, $4)
			RETURNING id
		`, ev.ItemID, ev.SessionID, ev.Time, ev.Correct).Scan(&ev.ID)
		if err != nil {
			return fmt.Errorf("failed to insert answer: %w", err)
		}
	} else {
		res, err := tx.ExecContext(ctx,
			"INSERT INTO answers (item_id, session_id, answered_at, correct) VALUES (?, ?, ?, ?)",
			ev.ItemID, ev.SessionID, ev.Time, ev.Correct)
		if err != nil {
			return fmt.Errorf("failed to insert answer: %w", err)
		}
		if ev.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("failed to get last insert ID: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit answer: %w", err)
	}
	return nil
}
