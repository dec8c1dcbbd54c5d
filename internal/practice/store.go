package practice

import (
	"context"

	"github.com/example/drill/pkg/models"
)

// Store is the persistence the service runs on. Every failure is returned to the
// caller unchanged; nothing is retried.
type Store interface {
	ListItems(ctx context.Context) ([]models.Item, error)
	ListAnswerEvents(ctx context.Context) ([]models.AnswerEvent, error)
	ListSetMemberships(ctx context.Context) ([]models.SetMembership, error)
	ListSetDescriptors(ctx context.Context) ([]models.SetDescriptor, error)

	// RecordAnswer appends ev, fills in ev.ID and stores the item's new estimate
	RecordAnswer(ctx context.Context, ev *models.AnswerEvent, estimate float64) error
	AddItemToSet(ctx context.Context, set string, id models.ItemID) error

	// InsertItem stores a new item and fills in item.ID
	InsertItem(ctx context.Context, item *models.Item) error
	SaveEstimates(ctx context.Context, estimates map[models.ItemID]float64) error
	SaveSetDescriptor(ctx context.Context, d models.SetDescriptor) error
}
