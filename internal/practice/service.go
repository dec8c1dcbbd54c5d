package practice

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/example/drill/internal/logging"
	"github.com/example/drill/internal/quiz"
	"github.com/example/drill/internal/sets"
	sr "github.com/example/drill/internal/spaced_repetition"
	"github.com/example/drill/pkg/models"
)

// Service holds everything a practice process needs in memory: items and their
// questions, set memberships and the mastery estimator. All methods are safe for
// concurrent use.
type Service struct {
	mu sync.Mutex

	store     Store
	estimator *sr.Estimator

	items     map[models.ItemID]*models.Item
	questions map[models.ItemID]quiz.Question
	byName    map[string]map[string]models.ItemID // family -> name -> id

	sets        map[string][]models.ItemID
	members     map[string]map[models.ItemID]struct{}
	descriptors map[string]descriptor

	now    func() time.Time
	rng    *rand.Rand
	logger *slog.Logger
}

type descriptor struct {
	kind     quiz.Kind
	settings quiz.Settings
}

func (d descriptor) dependencies() []string {
	if d.kind != quiz.KindUnion {
		return nil
	}
	return d.settings.Sets
}

// Option configures a Service
type Option func(*Service)

// WithLogger sets the logger; the default discards everything
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithClock replaces time.Now for answer timestamps
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithRand sets the source of randomness for selection and shuffling
func WithRand(r *rand.Rand) Option {
	return func(s *Service) { s.rng = r }
}

// NewService loads the whole store, rebuilds every item's estimate from its
// answer history and writes the recomputed estimates back.
func NewService(ctx context.Context, store Store, opts ...Option) (*Service, error) {
	s := &Service{
		store:       store,
		items:       make(map[models.ItemID]*models.Item),
		questions:   make(map[models.ItemID]quiz.Question),
		byName:      make(map[string]map[string]models.ItemID),
		sets:        make(map[string][]models.ItemID),
		members:     make(map[string]map[models.ItemID]struct{}),
		descriptors: make(map[string]descriptor),
		now:         time.Now,
		logger:      logging.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewSource(s.now().UnixNano()))
	}

	start := time.Now()
	if err := s.load(ctx); err != nil {
		return nil, err
	}
	resolved, err := s.resolveUnions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve union sets: %w", err)
	}

	estimates := s.estimator.Estimates()
	if err := store.SaveEstimates(ctx, estimates); err != nil {
		return nil, fmt.Errorf("failed to save rebuilt estimates: %w", err)
	}
	for id, est := range estimates {
		s.items[id].Estimate = est
	}

	s.logger.Info("practice service loaded",
		"items", len(s.items),
		"sets", len(s.sets),
		"union_members_added", resolved.MembersAdded,
		"duration", time.Since(start))
	return s, nil
}

func (s *Service) load(ctx context.Context) error {
	descs, err := s.store.ListSetDescriptors(ctx)
	if err != nil {
		return err
	}
	for _, d := range descs {
		kind, err := quiz.ParseKind(d.Kind)
		if err != nil {
			return fmt.Errorf("set %q: %w", d.Name, err)
		}
		settings, err := quiz.DecodeSettings(d.Data)
		if err != nil {
			return fmt.Errorf("set %q: %w", d.Name, err)
		}
		s.descriptors[d.Name] = descriptor{kind: kind, settings: settings}
	}

	items, err := s.store.ListItems(ctx)
	if err != nil {
		return err
	}
	for i := range items {
		if err := s.addItem(&items[i]); err != nil {
			return err
		}
	}

	memberships, err := s.store.ListSetMemberships(ctx)
	if err != nil {
		return err
	}
	for _, m := range memberships {
		if _, ok := s.items[m.ItemID]; !ok {
			return fmt.Errorf("set %q references item %d: %w", m.SetName, m.ItemID, sr.ErrUnknownItem)
		}
		s.appendMember(m.SetName, m.ItemID)
	}

	events, err := s.store.ListAnswerEvents(ctx)
	if err != nil {
		return err
	}
	s.logger.Debug("replaying answer history", "events", len(events))
	s.estimator, err = sr.Rebuild(items, events)
	return err
}

// addItem builds the item's question from its family's descriptor and indexes it
func (s *Service) addItem(item *models.Item) error {
	d, ok := s.descriptors[item.Family]
	if !ok {
		return fmt.Errorf("item %s/%s: %w", item.Family, item.Name, sets.ErrUnknownSet)
	}
	q, err := quiz.Build(d.kind, d.settings, item.Data)
	if err != nil {
		return fmt.Errorf("item %s/%s: %w", item.Family, item.Name, err)
	}

	s.items[item.ID] = item
	s.questions[item.ID] = q
	if s.byName[item.Family] == nil {
		s.byName[item.Family] = make(map[string]models.ItemID)
	}
	s.byName[item.Family][item.Name] = item.ID
	return nil
}

func (s *Service) appendMember(set string, id models.ItemID) bool {
	m, ok := s.members[set]
	if !ok {
		m = make(map[models.ItemID]struct{})
		s.members[set] = m
	}
	if _, ok := m[id]; ok {
		return false
	}
	m[id] = struct{}{}
	s.sets[set] = append(s.sets[set], id)
	return true
}

// RecordAnswer persists the answer and then applies it to the in-memory estimate.
// A failed write leaves the in-memory state unchanged.
// The returned value is the item's new estimate.
func (s *Service) RecordAnswer(ctx context.Context, sessionID string, id models.ItemID, correct bool) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[id]
	if !ok {
		return 0, fmt.Errorf("item %d: %w", id, sr.ErrUnknownItem)
	}

	ev := models.AnswerEvent{ItemID: id, SessionID: sessionID, Time: s.now(), Correct: correct}
	est, err := s.estimator.Peek(ev)
	if err != nil {
		return 0, err
	}
	if err := s.store.RecordAnswer(ctx, &ev, est); err != nil {
		return 0, fmt.Errorf("failed to record answer for item %d: %w", id, err)
	}
	if est, err = s.estimator.Apply(ev); err != nil {
		return 0, err
	}

	item.Estimate = est
	item.LastAnsweredAt = &ev.Time
	if correct {
		item.NumCorrect++
	} else {
		item.NumIncorrect++
	}
	s.logger.Debug("answer recorded", "item", id, "correct", correct, "estimate", est)
	return est, nil
}

// Select runs a strategy over the members of a set
func (s *Service) Select(set string, k int, strategy sr.Strategy, selection sr.Selection) ([]models.ItemID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	candidates, err := s.candidates(set, selection)
	if err != nil {
		return nil, err
	}
	return strategy.Select(candidates, k, s.rng)
}

func (s *Service) candidates(set string, selection sr.Selection) ([]sr.Candidate, error) {
	ids, ok := s.sets[set]
	if !ok {
		return nil, fmt.Errorf("%w: %q", sets.ErrUnknownSet, set)
	}
	all, err := s.estimator.Snapshot(ids)
	if err != nil {
		return nil, err
	}
	return sr.FilterCandidates(all, selection), nil
}

// Sets returns the names of all sets that have members, sorted
func (s *Service) Sets() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.sets))
	for name := range s.sets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SetSize counts the members of a set that pass the selection
func (s *Service) SetSize(set string, selection sr.Selection) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	candidates, err := s.candidates(set, selection)
	if err != nil {
		return 0, err
	}
	return len(candidates), nil
}

// Item returns a copy of the stored item
func (s *Service) Item(id models.ItemID) (models.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[id]
	if !ok {
		return models.Item{}, fmt.Errorf("item %d: %w", id, sr.ErrUnknownItem)
	}
	return *item, nil
}

// Question returns the runnable question of an item
func (s *Service) Question(id models.ItemID) (quiz.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q, ok := s.questions[id]
	if !ok {
		return quiz.Question{}, fmt.Errorf("item %d: %w", id, sr.ErrUnknownItem)
	}
	return q, nil
}

func (s *Service) Estimate(id models.ItemID) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.estimator.Estimate(id)
}

func (s *Service) LastAnswer(id models.ItemID) (models.AnswerEvent, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.estimator.LastAnswer(id)
}

// AddItemToSet puts an existing item into a set, creating the set if needed.
// It reports false when the item already was a member.
func (s *Service) AddItemToSet(ctx context.Context, set string, id models.ItemID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addItemToSet(ctx, set, id)
}

func (s *Service) addItemToSet(ctx context.Context, set string, id models.ItemID) (bool, error) {
	if _, ok := s.items[id]; !ok {
		return false, fmt.Errorf("item %d: %w", id, sr.ErrUnknownItem)
	}
	if _, ok := s.members[set][id]; ok {
		return false, nil
	}
	if err := s.store.AddItemToSet(ctx, set, id); err != nil {
		return false, err
	}
	return s.appendMember(set, id), nil
}

// Runner adapts the service's questions to a session runner
func (s *Service) Runner(p quiz.Prompter) Runner {
	return RunnerFunc(func(ctx context.Context, id models.ItemID) (bool, error) {
		q, err := s.Question(id)
		if err != nil {
			return false, err
		}
		return q.Run(ctx, p)
	})
}

// NewSession prepares a session that runs questions through p and records into the service
func (s *Service) NewSession(p quiz.Prompter, obs Observer) *Session {
	s.mu.Lock()
	seed := s.rng.Int63()
	s.mu.Unlock()

	return &Session{
		ID:       newSessionID(),
		Runner:   s.Runner(p),
		Recorder: s,
		Observer: obs,
		Rand:     rand.New(rand.NewSource(seed)),
	}
}
