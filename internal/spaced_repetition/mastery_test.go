package spaced_repetition

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/drill/pkg/models"
)

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func answer(id models.ItemID, minutes int, correct bool) models.AnswerEvent {
	return models.AnswerEvent{ItemID: id, Time: t0.Add(time.Duration(minutes) * time.Minute), Correct: correct}
}

func TestNeutralEstimate(t *testing.T) {
	e, err := Rebuild([]models.Item{{ID: 1}}, nil)
	require.NoError(t, err)

	est, err := e.Estimate(1)
	require.NoError(t, err)
	assert.Equal(t, 0.5, est)

	st, err := e.State(1)
	require.NoError(t, err)
	assert.Zero(t, st.WeightedTotal)
	assert.Zero(t, st.WeightedCorrect)
}

func TestDecaySequence(t *testing.T) {
	e := NewEstimator()
	e.Register(7)

	wantTotal := []float64{1.0, 1.9, 2.71}
	wantCorrect := []float64{1.0, 1.9, 1.71}
	for i, correct := range []bool{true, true, false} {
		_, err := e.Apply(answer(7, i, correct))
		require.NoError(t, err)
		st, err := e.State(7)
		require.NoError(t, err)
		assert.InDelta(t, wantTotal[i], st.WeightedTotal, 1e-9, "total after answer %d", i+1)
		assert.InDelta(t, wantCorrect[i], st.WeightedCorrect, 1e-9, "correct after answer %d", i+1)
	}

	est, err := e.Estimate(7)
	require.NoError(t, err)
	assert.InDelta(t, 0.631, est, 1e-3)
}

func TestRebuildReplaysInTimeOrder(t *testing.T) {
	items := []models.Item{{ID: 1}, {ID: 2}}
	// Stored out of order; item 1 ends on a miss, item 2 on a hit.
	events := []models.AnswerEvent{
		answer(1, 2, false),
		answer(2, 0, false),
		answer(1, 0, true),
		answer(2, 2, true),
		answer(1, 1, true),
		answer(2, 1, true),
	}

	e, err := Rebuild(items, events)
	require.NoError(t, err)

	est1, _ := e.Estimate(1)
	est2, _ := e.Estimate(2)
	assert.InDelta(t, 1.71/2.71, est1, 1e-9)
	assert.Greater(t, est2, est1)

	history, err := e.History(1)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.True(t, history[0].Time.Before(history[1].Time))
	assert.True(t, history[1].Time.Before(history[2].Time))

	last, ok, err := e.LastAnswer(1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.False(t, last.Correct)
}

func TestRebuildRejectsEventForUnknownItem(t *testing.T) {
	_, err := Rebuild([]models.Item{{ID: 1}}, []models.AnswerEvent{answer(9, 0, true)})
	assert.ErrorIs(t, err, ErrUnknownItem)
}

func TestUnregisteredItemIsAnError(t *testing.T) {
	e := NewEstimator()

	_, err := e.Apply(answer(3, 0, true))
	assert.ErrorIs(t, err, ErrUnknownItem)

	_, err = e.Estimate(3)
	assert.ErrorIs(t, err, ErrUnknownItem)

	_, _, err = e.LastAnswer(3)
	assert.ErrorIs(t, err, ErrUnknownItem)

	_, err = e.Snapshot([]models.ItemID{3})
	assert.ErrorIs(t, err, ErrUnknownItem)
}

func TestRegisterKeepsExistingState(t *testing.T) {
	e := NewEstimator()
	e.Register(1)
	_, err := e.Apply(answer(1, 0, false))
	require.NoError(t, err)

	e.Register(1)
	est, _ := e.Estimate(1)
	assert.Equal(t, 0.0, est)
}

func TestEstimateStaysInUnitInterval(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	e := NewEstimator()
	e.Register(1)

	for i := 0; i < 500; i++ {
		est, err := e.Apply(answer(1, i, rng.Intn(2) == 0))
		require.NoError(t, err)
		assert.GreaterOrEqual(t, est, 0.0)
		assert.LessOrEqual(t, est, 1.0)

		st, _ := e.State(1)
		assert.LessOrEqual(t, st.WeightedCorrect, st.WeightedTotal)
	}
}

func TestRecencyDominance(t *testing.T) {
	// Same number of hits and misses, different order.
	recentHits := []bool{false, false, false, true, true, true}
	recentMisses := []bool{true, true, true, false, false, false}

	e := NewEstimator()
	e.Register(1)
	e.Register(2)
	for i := range recentHits {
		_, err := e.Apply(answer(1, i, recentHits[i]))
		require.NoError(t, err)
		_, err = e.Apply(answer(2, i, recentMisses[i]))
		require.NoError(t, err)
	}

	good, _ := e.Estimate(1)
	bad, _ := e.Estimate(2)
	assert.Greater(t, good, bad)
}

func TestSnapshot(t *testing.T) {
	e, err := Rebuild([]models.Item{{ID: 1}, {ID: 2}}, []models.AnswerEvent{answer(2, 5, true)})
	require.NoError(t, err)

	got, err := e.Snapshot([]models.ItemID{2, 1})
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, models.ItemID(2), got[0].ID)
	assert.True(t, got[0].Practiced)
	assert.Equal(t, t0.Add(5*time.Minute), got[0].LastAnswered)
	assert.Equal(t, 1.0, got[0].Estimate)

	assert.Equal(t, models.ItemID(1), got[1].ID)
	assert.False(t, got[1].Practiced)
	assert.True(t, got[1].LastAnswered.IsZero())
	assert.Equal(t, 0.5, got[1].Estimate)

	assert.Len(t, e.Estimates(), 2)
}

func TestPeekDoesNotApply(t *testing.T) {
	e := NewEstimator()
	e.Register(1)
	_, err := e.Apply(answer(1, 0, true))
	require.NoError(t, err)

	peeked, err := e.Peek(answer(1, 1, false))
	require.NoError(t, err)
	assert.InDelta(t, 0.9/1.9, peeked, 1e-9)

	est, _ := e.Estimate(1)
	assert.Equal(t, 1.0, est)
	history, _ := e.History(1)
	assert.Len(t, history, 1)

	applied, err := e.Apply(answer(1, 1, false))
	require.NoError(t, err)
	assert.Equal(t, peeked, applied)

	_, err = e.Peek(answer(9, 0, true))
	assert.ErrorIs(t, err, ErrUnknownItem)
}
