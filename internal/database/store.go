package database

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/example/drill/pkg/models"
)

// Store is the sqlx-backed item store the practice service runs on
type Store struct {
	db      *sqlx.DB
	items   *ItemRepository
	answers *AnswerRepository
	sets    *SetRepository
}

// Open connects to the database and returns a store over it
func Open(driver, dsn string) (*Store, error) {
	db, err := Connect(driver, dsn)
	if err != nil {
		return nil, err
	}
	return NewStore(db), nil
}

// NewStore wraps an existing connection
func NewStore(db *sqlx.DB) *Store {
	return &Store{
		db:      db,
		items:   NewItemRepository(db),
		answers: NewAnswerRepository(db),
		sets:    NewSetRepository(db),
	}
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ListItems(ctx context.Context) ([]models.Item, error) {
	return s.items.GetAll(ctx)
}

func (s *Store) ListAnswerEvents(ctx context.Context) ([]models.AnswerEvent, error) {
	return s.answers.GetAll(ctx)
}

func (s *Store) ListSetMemberships(ctx context.Context) ([]models.SetMembership, error) {
	return s.sets.GetMemberships(ctx)
}

func (s *Store) ListSetDescriptors(ctx context.Context) ([]models.SetDescriptor, error) {
	return s.sets.GetDescriptors(ctx)
}

func (s *Store) RecordAnswer(ctx context.Context, ev *models.AnswerEvent, estimate float64) error {
	return s.answers.Record(ctx, ev, estimate)
}

func (s *Store) AddItemToSet(ctx context.Context, set string, id models.ItemID) error {
	return s.sets.AddMember(ctx, set, id)
}

func (s *Store) InsertItem(ctx context.Context, item *models.Item) error {
	return s.items.Create(ctx, item)
}

func (s *Store) SaveEstimates(ctx context.Context, estimates map[models.ItemID]float64) error {
	return s.items.UpdateEstimates(ctx, estimates)
}

func (s *Store) SaveSetDescriptor(ctx context.Context, d models.SetDescriptor) error {
	return s.sets.SaveDescriptor(ctx, d)
}
