package practice

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/google/uuid"

	"github.com/example/drill/pkg/models"
)

// Runner presents one item and reports whether it was answered correctly
type Runner interface {
	Run(ctx context.Context, id models.ItemID) (bool, error)
}

// RunnerFunc adapts a function to Runner
type RunnerFunc func(ctx context.Context, id models.ItemID) (bool, error)

func (f RunnerFunc) Run(ctx context.Context, id models.ItemID) (bool, error) {
	return f(ctx, id)
}

// Recorder persists one answer. *Service is the production Recorder.
type Recorder interface {
	RecordAnswer(ctx context.Context, sessionID string, id models.ItemID, correct bool) (float64, error)
}

// Observer is told about session progress. Any method may be a no-op.
type Observer interface {
	ItemStarted(pos, total int, id models.ItemID)
	PassFinished(correct, total int)
}

// Result summarises a finished session
type Result struct {
	Passes           int
	Answers          int
	FirstPassSize    int
	FirstPassCorrect int
}

// Session drives one practice run: every pass presents the pending items in a
// fresh random order, and the items answered wrongly become the next pass.
// The session ends after the first pass without mistakes.
type Session struct {
	ID       uuid.UUID
	Runner   Runner
	Recorder Recorder
	Observer Observer // optional
	Rand     *rand.Rand
}

func newSessionID() uuid.UUID {
	return uuid.New()
}

// Run practices the given items until all of them were answered correctly in one pass.
// Every answer is recorded before the next item is presented. Runner and recorder
// errors end the session.
func (s *Session) Run(ctx context.Context, ids []models.ItemID) (Result, error) {
	res := Result{FirstPassSize: len(ids)}
	pending := append([]models.ItemID(nil), ids...)

	for len(pending) > 0 {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		s.Rand.Shuffle(len(pending), func(i, j int) {
			pending[i], pending[j] = pending[j], pending[i]
		})

		var wrong []models.ItemID
		for i, id := range pending {
			if s.Observer != nil {
				s.Observer.ItemStarted(i+1, len(pending), id)
			}
			correct, err := s.Runner.Run(ctx, id)
			if err != nil {
				return res, fmt.Errorf("failed to run item %d: %w", id, err)
			}
			if _, err := s.Recorder.RecordAnswer(ctx, s.ID.String(), id, correct); err != nil {
				return res, err
			}
			res.Answers++
			if !correct {
				wrong = append(wrong, id)
			}
		}

		res.Passes++
		if res.Passes == 1 {
			res.FirstPassCorrect = len(pending) - len(wrong)
		}
		if s.Observer != nil {
			s.Observer.PassFinished(len(pending)-len(wrong), len(pending))
		}
		pending = wrong
	}
	return res, nil
}
