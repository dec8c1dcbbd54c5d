package spaced_repetition

import (
	"errors"
	"fmt"
	"sort"

	"github.com/example/drill/pkg/models"
)

// DecayFactor is the weight kept by past answers on every new answer
const DecayFactor = 0.9

// neutralEstimate is reported for items that have never been answered
const neutralEstimate = 0.5

var (
	// ErrUnknownItem is returned when an item was never registered with the estimator
	ErrUnknownItem = errors.New("spaced_repetition: unknown item")
)

// State holds the decayed answer counters of one item.
// Invariant: 0 <= WeightedCorrect <= WeightedTotal.
type State struct {
	WeightedTotal   float64
	WeightedCorrect float64
	history         []models.AnswerEvent
}

// Estimate derives the mastery estimate from the counters.
// Items without any weight sit at the neutral 0.5.
func (s *State) Estimate() float64 {
	if s.WeightedTotal == 0 {
		return neutralEstimate
	}
	return s.WeightedCorrect / s.WeightedTotal
}

func (s *State) update(correct bool) {
	s.WeightedTotal = s.WeightedTotal*DecayFactor + 1
	s.WeightedCorrect *= DecayFactor
	if correct {
		s.WeightedCorrect++
	}
}

// Estimator tracks a recency-weighted correctness signal per item
type Estimator struct {
	states map[models.ItemID]*State
}

// NewEstimator creates an empty estimator
func NewEstimator() *Estimator {
	return &Estimator{states: make(map[models.ItemID]*State)}
}

// Rebuild registers every item at the neutral state and replays the answer
// history of each item in ascending time order.
func Rebuild(items []models.Item, events []models.AnswerEvent) (*Estimator, error) {
	e := NewEstimator()
	for _, item := range items {
		e.Register(item.ID)
	}

	for _, ev := range events {
		st, ok := e.states[ev.ItemID]
		if !ok {
			return nil, fmt.Errorf("answer %d references item %d: %w", ev.ID, ev.ItemID, ErrUnknownItem)
		}
		st.history = append(st.history, ev)
	}

	for _, st := range e.states {
		sort.SliceStable(st.history, func(i, j int) bool {
			return st.history[i].Time.Before(st.history[j].Time)
		})
		for _, ev := range st.history {
			st.update(ev.Correct)
		}
	}

	return e, nil
}

// Register adds an item at the neutral state. Registering twice keeps the existing state.
func (e *Estimator) Register(id models.ItemID) {
	if _, ok := e.states[id]; ok {
		return
	}
	e.states[id] = &State{}
}

// Apply folds one answer into the item's state and returns the new estimate
func (e *Estimator) Apply(ev models.AnswerEvent) (float64, error) {
	st, err := e.state(ev.ItemID)
	if err != nil {
		return 0, err
	}
	st.update(ev.Correct)
	st.history = append(st.history, ev)
	return st.Estimate(), nil
}

// Peek returns the estimate the item would have after ev, without applying it
func (e *Estimator) Peek(ev models.AnswerEvent) (float64, error) {
	st, err := e.state(ev.ItemID)
	if err != nil {
		return 0, err
	}
	next := State{WeightedTotal: st.WeightedTotal, WeightedCorrect: st.WeightedCorrect}
	next.update(ev.Correct)
	return next.Estimate(), nil
}

// Estimate returns the current mastery estimate of an item
func (e *Estimator) Estimate(id models.ItemID) (float64, error) {
	st, err := e.state(id)
	if err != nil {
		return 0, err
	}
	return st.Estimate(), nil
}

// State returns a copy of the item's counters
func (e *Estimator) State(id models.ItemID) (State, error) {
	st, err := e.state(id)
	if err != nil {
		return State{}, err
	}
	return State{WeightedTotal: st.WeightedTotal, WeightedCorrect: st.WeightedCorrect}, nil
}

// History returns the item's answers, oldest first
func (e *Estimator) History(id models.ItemID) ([]models.AnswerEvent, error) {
	st, err := e.state(id)
	if err != nil {
		return nil, err
	}
	out := make([]models.AnswerEvent, len(st.history))
	copy(out, st.history)
	return out, nil
}

// LastAnswer returns the most recent answer of an item, if any
func (e *Estimator) LastAnswer(id models.ItemID) (models.AnswerEvent, bool, error) {
	st, err := e.state(id)
	if err != nil {
		return models.AnswerEvent{}, false, err
	}
	if len(st.history) == 0 {
		return models.AnswerEvent{}, false, nil
	}
	return st.history[len(st.history)-1], true, nil
}

// Estimates returns the estimate of every registered item
func (e *Estimator) Estimates() map[models.ItemID]float64 {
	out := make(map[models.ItemID]float64, len(e.states))
	for id, st := range e.states {
		out[id] = st.Estimate()
	}
	return out
}

// Snapshot builds the candidate view the selection strategies work on.
// The order of ids is preserved.
func (e *Estimator) Snapshot(ids []models.ItemID) ([]Candidate, error) {
	out := make([]Candidate, 0, len(ids))
	for _, id := range ids {
		st, err := e.state(id)
		if err != nil {
			return nil, err
		}
		c := Candidate{ID: id, Estimate: st.Estimate()}
		if n := len(st.history); n > 0 {
			c.Practiced = true
			c.LastAnswered = st.history[n-1].Time
		}
		out = append(out, c)
	}
	return out, nil
}

func (e *Estimator) state(id models.ItemID) (*State, error) {
	st, ok := e.states[id]
	if !ok {
		return nil, fmt.Errorf("item %d: %w", id, ErrUnknownItem)
	}
	return st, nil
}
