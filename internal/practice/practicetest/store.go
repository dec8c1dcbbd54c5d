// Package practicetest provides an in-memory practice.Store for tests.
package practicetest

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/example/drill/pkg/models"
)

// Store keeps everything in maps. Set the Fail* fields to make the matching call fail.
type Store struct {
	mu sync.Mutex

	Items       []models.Item
	Events      []models.AnswerEvent
	Memberships []models.SetMembership
	Descriptors map[string]models.SetDescriptor
	Estimates   map[models.ItemID]float64

	FailRecord error
	FailInsert error
	FailLoad   error

	nextItem  models.ItemID
	nextEvent int64
}

// New returns an empty store
func New() *Store {
	return &Store{
		Descriptors: make(map[string]models.SetDescriptor),
		Estimates:   make(map[models.ItemID]float64),
	}
}

func (s *Store) ListItems(context.Context) ([]models.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailLoad != nil {
		return nil, s.FailLoad
	}
	return append([]models.Item(nil), s.Items...), nil
}

func (s *Store) ListAnswerEvents(context.Context) ([]models.AnswerEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.AnswerEvent(nil), s.Events...), nil
}

func (s *Store) ListSetMemberships(context.Context) ([]models.SetMembership, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.SetMembership(nil), s.Memberships...), nil
}

func (s *Store) ListSetDescriptors(context.Context) ([]models.SetDescriptor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.SetDescriptor, 0, len(s.Descriptors))
	for _, d := range s.Descriptors {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) RecordAnswer(_ context.Context, ev *models.AnswerEvent, estimate float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailRecord != nil {
		return s.FailRecord
	}
	idx := s.itemIndex(ev.ItemID)
	if idx < 0 {
		return fmt.Errorf("item %d does not exist", ev.ItemID)
	}
	s.nextEvent++
	ev.ID = s.nextEvent
	s.Events = append(s.Events, *ev)

	item := &s.Items[idx]
	item.Estimate = estimate
	t := ev.Time
	item.LastAnsweredAt = &t
	if ev.Correct {
		item.NumCorrect++
	} else {
		item.NumIncorrect++
	}
	s.Estimates[ev.ItemID] = estimate
	return nil
}

func (s *Store) AddItemToSet(_ context.Context, set string, id models.ItemID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.itemIndex(id) < 0 {
		return fmt.Errorf("item %d does not exist", id)
	}
	for _, m := range s.Memberships {
		if m.SetName == set && m.ItemID == id {
			return nil
		}
	}
	s.Memberships = append(s.Memberships, models.SetMembership{SetName: set, ItemID: id})
	return nil
}

func (s *Store) InsertItem(_ context.Context, item *models.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailInsert != nil {
		return s.FailInsert
	}
	for _, existing := range s.Items {
		if existing.Family == item.Family && existing.Name == item.Name {
			return fmt.Errorf("item %s/%s already exists", item.Family, item.Name)
		}
	}
	s.nextItem++
	item.ID = s.nextItem
	s.Items = append(s.Items, *item)
	return nil
}

func (s *Store) SaveEstimates(_ context.Context, estimates map[models.ItemID]float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, est := range estimates {
		s.Estimates[id] = est
		if idx := s.itemIndex(id); idx >= 0 {
			s.Items[idx].Estimate = est
		}
	}
	return nil
}

func (s *Store) SaveSetDescriptor(_ context.Context, d models.SetDescriptor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Descriptors[d.Name] = d
	return nil
}

// MembersOf returns the members of one set in insertion order
func (s *Store) MembersOf(set string) []models.ItemID {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ItemID
	for _, m := range s.Memberships {
		if m.SetName == set {
			out = append(out, m.ItemID)
		}
	}
	return out
}

func (s *Store) itemIndex(id models.ItemID) int {
	for i := range s.Items {
		if s.Items[i].ID == id {
			return i
		}
	}
	return -1
}
