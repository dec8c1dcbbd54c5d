package terminal

import (
	"fmt"
	"time"

	"github.com/example/drill/pkg/models"
)

// ItemInfo is what the session view needs to describe an item
type ItemInfo interface {
	Estimate(id models.ItemID) (float64, error)
	LastAnswer(id models.ItemID) (models.AnswerEvent, bool, error)
}

// SessionView prints session progress; it implements practice.Observer
type SessionView struct {
	t    *Terminal
	info ItemInfo
	now  func() time.Time
}

// NewSessionView creates a view printing to t
func NewSessionView(t *Terminal, info ItemInfo) *SessionView {
	return &SessionView{t: t, info: info, now: time.Now}
}

func (v *SessionView) ItemStarted(pos, total int, id models.ItemID) {
	v.t.Header(formatProgress(pos, total))

	since := "-"
	if last, ok, err := v.info.LastAnswer(id); err == nil && ok {
		since = v.now().Sub(last.Time).Round(time.Second).String()
	}
	est, err := v.info.Estimate(id)
	if err != nil {
		v.t.Printf("prob: ?, last answered: %s\n", since)
		return
	}
	v.t.Printf("prob: %.3f, last answered: %s\n", est, since)
}

func (v *SessionView) PassFinished(correct, total int) {
	if correct == total {
		return
	}
	v.t.Printf("\n%d/%d correct. Continuing with the remaining %d wrong answers.\n", correct, total, total-correct)
}

func formatProgress(pos, total int) string {
	return fmt.Sprintf("---------- %d/%d ----------", pos, total)
}
