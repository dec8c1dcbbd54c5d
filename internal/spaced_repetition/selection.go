package spaced_repetition

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/example/drill/pkg/models"
)

const (
	// weightFloor keeps every item selectable, even at estimate 1
	weightFloor = 0.05
	// weightExponent sharpens the preference for weak items beyond linear
	weightExponent = 1.5
)

// ErrNoSelectableItem is returned when a weighted draw has no weight to draw from
var ErrNoSelectableItem = errors.New("spaced_repetition: no selectable item")

// Candidate is an item as seen by the selection strategies
type Candidate struct {
	ID           models.ItemID
	Estimate     float64
	LastAnswered time.Time // Zero if never answered
	Practiced    bool
}

// Selection restricts the candidates before a strategy runs
type Selection int

const (
	// SelectAll keeps every candidate
	SelectAll Selection = iota
	// SelectPracticed keeps only candidates with at least one answer
	SelectPracticed
)

func (s Selection) String() string {
	switch s {
	case SelectAll:
		return "All"
	case SelectPracticed:
		return "Practiced"
	}
	return fmt.Sprintf("Selection(%d)", int(s))
}

// ParseSelection accepts "all" or "practiced", case-insensitive
func ParseSelection(s string) (Selection, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "all", "":
		return SelectAll, nil
	case "practiced":
		return SelectPracticed, nil
	}
	return SelectAll, fmt.Errorf("unknown selection %q", s)
}

// FilterCandidates applies a Selection, keeping candidate order
func FilterCandidates(candidates []Candidate, sel Selection) []Candidate {
	if sel != SelectPracticed {
		return candidates
	}
	out := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Practiced {
			out = append(out, c)
		}
	}
	return out
}

// Strategy picks which items a session presents
type Strategy int

const (
	// Bottom takes the lowest estimates first
	Bottom Strategy = iota
	// WeightedRandom draws without replacement, favouring weak items
	WeightedRandom
	// UniformRandom draws without replacement, ignoring estimates
	UniformRandom
	// OldestAnswer takes the items whose last answer is oldest
	OldestAnswer
)

// Strategies lists every strategy in menu order
var Strategies = []Strategy{Bottom, WeightedRandom, UniformRandom, OldestAnswer}

func (s Strategy) String() string {
	switch s {
	case Bottom:
		return "Bottom"
	case WeightedRandom:
		return "Weighted random"
	case UniformRandom:
		return "Uniform random"
	case OldestAnswer:
		return "Oldest answer"
	}
	return fmt.Sprintf("Strategy(%d)", int(s))
}

// ParseStrategy accepts a strategy name in any case, with spaces, dashes or underscores
func ParseStrategy(s string) (Strategy, error) {
	norm := strings.NewReplacer(" ", "", "-", "", "_", "").Replace(strings.ToLower(s))
	switch norm {
	case "bottom", "bottomk":
		return Bottom, nil
	case "weighted", "weightedrandom":
		return WeightedRandom, nil
	case "uniform", "uniformrandom", "random":
		return UniformRandom, nil
	case "oldest", "oldestanswer":
		return OldestAnswer, nil
	}
	return Bottom, fmt.Errorf("unknown strategy %q", s)
}

// Select runs the strategy. k is clamped to the number of candidates.
func (s Strategy) Select(candidates []Candidate, k int, rng *rand.Rand) ([]models.ItemID, error) {
	switch s {
	case Bottom:
		return BottomK(candidates, k), nil
	case WeightedRandom:
		return WeightedRandomK(candidates, k, rng)
	case UniformRandom:
		return UniformRandomK(candidates, k, rng), nil
	case OldestAnswer:
		return OldestAnswerK(candidates, k), nil
	}
	return nil, fmt.Errorf("unknown strategy %d", int(s))
}

// BottomK returns the k candidates with the lowest estimates, weakest first.
// Equal estimates keep their candidate order.
func BottomK(candidates []Candidate, k int) []models.ItemID {
	sorted := make([]Candidate, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Estimate < sorted[j].Estimate
	})
	return ids(sorted[:clamp(k, len(sorted))])
}

// Weight is the draw weight of an estimate: (1 - estimate + 0.05)^1.5
func Weight(estimate float64) float64 {
	return math.Pow(1-estimate+weightFloor, weightExponent)
}

// WeightedRandomK draws k distinct candidates, each draw proportional to Weight
// over the candidates not chosen yet. Items are returned in draw order.
//
// Each draw rebuilds the cumulative weights, so this is O(n*k). Sets are small
// enough that an order-statistics tree is not worth it.
func WeightedRandomK(candidates []Candidate, k int, rng *rand.Rand) ([]models.ItemID, error) {
	k = clamp(k, len(candidates))
	chosen := make([]bool, len(candidates))
	result := make([]models.ItemID, 0, k)

	type cumulative struct {
		idx   int
		total float64
	}
	stack := make([]cumulative, 0, len(candidates))

	for draw := 0; draw < k; draw++ {
		stack = stack[:0]
		total := 0.0
		for i, c := range candidates {
			if chosen[i] {
				continue
			}
			total += Weight(c.Estimate)
			stack = append(stack, cumulative{idx: i, total: total})
		}
		if total <= 0 {
			return nil, fmt.Errorf("draw %d of %d: %w", draw+1, k, ErrNoSelectableItem)
		}

		x := rng.Float64() * total
		picked := -1
		for _, entry := range stack {
			if entry.total >= x {
				picked = entry.idx
				break
			}
		}
		if picked < 0 {
			picked = stack[len(stack)-1].idx
		}
		chosen[picked] = true
		result = append(result, candidates[picked].ID)
	}

	return result, nil
}

// UniformRandomK shuffles the candidates and returns the first k
func UniformRandomK(candidates []Candidate, k int, rng *rand.Rand) []models.ItemID {
	shuffled := ids(candidates)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return shuffled[:clamp(k, len(shuffled))]
}

// OldestAnswerK returns the k candidates answered longest ago.
// Never-answered candidates count as the oldest of all.
func OldestAnswerK(candidates []Candidate, k int) []models.ItemID {
	sorted := make([]Candidate, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		return lastAnswered(sorted[i]).Before(lastAnswered(sorted[j]))
	})
	return ids(sorted[:clamp(k, len(sorted))])
}

func lastAnswered(c Candidate) time.Time {
	if !c.Practiced {
		return time.Time{}
	}
	return c.LastAnswered
}

func ids(candidates []Candidate) []models.ItemID {
	out := make([]models.ItemID, len(candidates))
	for i, c := range candidates {
		out[i] = c.ID
	}
	return out
}

func clamp(k, n int) int {
	if k < 0 {
		return 0
	}
	if k > n {
		return n
	}
	return k
}
