package practice

import (
	"fmt"
	"sort"
	"time"

	"github.com/example/drill/internal/sets"
	sr "github.com/example/drill/internal/spaced_repetition"
	"github.com/example/drill/pkg/models"
)

// ItemSummary is one item as shown in reports
type ItemSummary struct {
	ID             models.ItemID
	Family         string
	Name           string
	Estimate       float64
	Answers        int
	LastAnsweredAt *time.Time
}

// SetStats summarises the mastery of one set
type SetStats struct {
	Name         string
	Items        int
	Practiced    int
	Mastered     int // estimate at or above the threshold
	MeanEstimate float64
	Weakest      []ItemSummary
}

// Stats reports on a set. Mastered counts items whose estimate reaches threshold;
// Weakest holds up to weakest practiced items, lowest estimate first.
func (s *Service) Stats(set string, threshold float64, weakest int) (SetStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids, ok := s.sets[set]
	if !ok {
		return SetStats{}, fmt.Errorf("%w: %q", sets.ErrUnknownSet, set)
	}

	st := SetStats{Name: set, Items: len(ids)}
	var practiced []ItemSummary
	total := 0.0
	for _, id := range ids {
		sum, err := s.summary(id)
		if err != nil {
			return SetStats{}, err
		}
		total += sum.Estimate
		if sum.Estimate >= threshold {
			st.Mastered++
		}
		if sum.Answers > 0 {
			st.Practiced++
			practiced = append(practiced, sum)
		}
	}
	if len(ids) > 0 {
		st.MeanEstimate = total / float64(len(ids))
	}

	sortByEstimate(practiced)
	if weakest < len(practiced) {
		practiced = practiced[:max(weakest, 0)]
	}
	st.Weakest = practiced
	return st, nil
}

// Weak returns every practiced item whose estimate is below threshold, lowest first
func (s *Service) Weak(threshold float64) ([]ItemSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []ItemSummary
	for id := range s.items {
		sum, err := s.summary(id)
		if err != nil {
			return nil, err
		}
		if sum.Answers > 0 && sum.Estimate < threshold {
			out = append(out, sum)
		}
	}
	sortByEstimate(out)
	return out, nil
}

func (s *Service) summary(id models.ItemID) (ItemSummary, error) {
	item, ok := s.items[id]
	if !ok {
		return ItemSummary{}, fmt.Errorf("item %d: %w", id, sr.ErrUnknownItem)
	}
	est, err := s.estimator.Estimate(id)
	if err != nil {
		return ItemSummary{}, err
	}
	history, err := s.estimator.History(id)
	if err != nil {
		return ItemSummary{}, err
	}
	sum := ItemSummary{ID: id, Family: item.Family, Name: item.Name, Estimate: est, Answers: len(history)}
	if n := len(history); n > 0 {
		last := history[n-1].Time
		sum.LastAnsweredAt = &last
	}
	return sum, nil
}

func sortByEstimate(items []ItemSummary) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Estimate != items[j].Estimate {
			return items[i].Estimate < items[j].Estimate
		}
		return items[i].ID < items[j].ID
	})
}
