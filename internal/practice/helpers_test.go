package practice

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/example/drill/internal/practice/practicetest"
	"github.com/example/drill/internal/quiz"
	"github.com/example/drill/pkg/models"
)

// fakeClock advances one minute every time it is read
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Minute)
	return c.t
}

func newTestService(t *testing.T, store *practicetest.Store) *Service {
	t.Helper()
	svc, err := NewService(context.Background(), store,
		WithRand(rand.New(rand.NewSource(1))),
		WithClock(newFakeClock().Now))
	require.NoError(t, err)
	return svc
}

func mustParse(t *testing.T, doc string) quiz.Descriptor {
	t.Helper()
	d, err := quiz.ParseDescriptor([]byte(doc))
	require.NoError(t, err)
	return d
}

const (
	capitalsDoc = `
name: capitals
type: default
data:
  question_prefix: "Capital of "
items:
  - {id: fr, question: France, answers: [Paris]}
  - {id: no, question: Norway, answers: [Oslo]}
`
	wordsDoc = `
name: words
type: vocab
items:
  - {word: hund, definition: a dog, example: Der Hund bellt., translations: [dog]}
`
	mountainsDoc = `
name: mountains
type: numeric_range
data: {question_prefix: "Height of ", range: 0.05}
items:
  - {id: everest, question: Everest, answer: 8849}
`
	geographyDoc = `
name: geography
type: union
data: {sets: [capitals, mountains]}
`
	everythingDoc = `
name: everything
type: union
data: {sets: [geography, words]}
`
)

func ingestAll(t *testing.T, svc *Service, docs ...string) IngestReport {
	t.Helper()
	descs := make([]quiz.Descriptor, len(docs))
	for i, doc := range docs {
		descs[i] = mustParse(t, doc)
	}
	report, err := svc.Ingest(context.Background(), descs)
	require.NoError(t, err)
	return report
}

func itemID(t *testing.T, svc *Service, family, name string) models.ItemID {
	t.Helper()
	svc.mu.Lock()
	defer svc.mu.Unlock()
	id, ok := svc.byName[family][name]
	require.True(t, ok, "%s/%s not ingested", family, name)
	return id
}

// promptAnswers answers every prompt from a map keyed by prompt text
type promptAnswers struct {
	answers  map[string][]string
	confirms []bool
	shown    []string
}

func (p *promptAnswers) Ask(_ context.Context, prompt string, _ func(string) error) (string, error) {
	queue := p.answers[prompt]
	if len(queue) == 0 {
		return "", context.Canceled
	}
	p.answers[prompt] = queue[1:]
	return queue[0], nil
}

func (p *promptAnswers) Confirm(context.Context, string) (bool, error) {
	if len(p.confirms) == 0 {
		return true, nil
	}
	c := p.confirms[0]
	p.confirms = p.confirms[1:]
	return c, nil
}

func (p *promptAnswers) Pause(context.Context, string) error { return nil }

func (p *promptAnswers) Show(_ quiz.Tone, text string) { p.shown = append(p.shown, text) }
