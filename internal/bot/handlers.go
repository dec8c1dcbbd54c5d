package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/drill/internal/sets"
	sr "github.com/example/drill/internal/spaced_repetition"
	"github.com/example/drill/pkg/models"
)

const (
	defaultCount  = 10
	weakestPerSet = 3
)

const helpText = "📖 Commands\n\n" +
	"/sets - list the sets you can practice\n" +
	"/practice <set> [count] [method] [all|practiced] - start a session\n" +
	"/stats [set] - mastery per set\n" +
	"/stop - end the running session\n\n" +
	"Methods: bottom, weighted, uniform, oldest. Default: 10 items, weighted, all."

// handleCommand dispatches bot commands
func (b *Bot) handleCommand(ctx context.Context, message *tgbotapi.Message) {
	if message.Command() == "stop" {
		b.handleStop()
		return
	}
	if b.sessionRunning() {
		b.send("A session is running. Answer the question or use /stop.", nil)
		return
	}

	switch message.Command() {
	case "start":
		b.send("👋 Welcome! Practice your sets and I will keep track of what you know.\n\n"+helpText, mainMenuButtons())
	case "help":
		b.send(helpText, nil)
	case "sets":
		b.handleSets()
	case "practice":
		b.handlePractice(ctx, message.CommandArguments())
	case "stats":
		b.handleStats(strings.TrimSpace(message.CommandArguments()))
	default:
		b.send("Unknown command. Use /help to see the commands.", nil)
	}
}

// handleCallbackQuery handles button presses
func (b *Bot) handleCallbackQuery(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if b.sessionRunning() {
		b.deliver(input{callback: cb.Data})
		return
	}

	switch {
	case cb.Data == callbackSets:
		b.handleSets()
	case cb.Data == callbackStats:
		b.handleStats("")
	case strings.HasPrefix(cb.Data, callbackPractice):
		b.handlePractice(ctx, strings.TrimPrefix(cb.Data, callbackPractice))
	default:
		b.logger.Debug("ignoring stale callback", "data", cb.Data)
	}
}

func (b *Bot) handleStop() {
	if !b.stopSession() {
		b.send("No session is running.", nil)
		return
	}
	b.send("Session stopped.", mainMenuButtons())
}

func (b *Bot) handleSets() {
	names := b.svc.Sets()
	if len(names) == 0 {
		b.send("There are no sets yet. Load some with the drill CLI first.", nil)
		return
	}

	var sb strings.Builder
	sb.WriteString("📚 Sets\n")
	for _, name := range names {
		size, err := b.svc.SetSize(name, sr.SelectAll)
		if err != nil {
			b.logger.Error("failed to count set", "set", name, "error", err)
			continue
		}
		fmt.Fprintf(&sb, "\n• %s (%d)", name, size)
	}
	b.send(sb.String(), setButtons(names))
}

// practiceArgs is the parsed form of "/practice <set> [count] [method] [selection]"
type practiceArgs struct {
	set       string
	count     int
	strategy  sr.Strategy
	selection sr.Selection
}

func parsePracticeArgs(args string) (practiceArgs, error) {
	out := practiceArgs{count: defaultCount, strategy: sr.WeightedRandom, selection: sr.SelectAll}

	fields := strings.Fields(args)
	if len(fields) == 0 {
		return out, errors.New("usage: /practice <set> [count] [method] [all|practiced]")
	}
	out.set = fields[0]

	for _, f := range fields[1:] {
		if n, err := strconv.Atoi(f); err == nil {
			if n <= 0 {
				return out, fmt.Errorf("count must be positive, got %d", n)
			}
			out.count = n
			continue
		}
		if sel, err := sr.ParseSelection(f); err == nil {
			out.selection = sel
			continue
		}
		strategy, err := sr.ParseStrategy(f)
		if err != nil {
			return out, err
		}
		out.strategy = strategy
	}
	return out, nil
}

func (b *Bot) handlePractice(ctx context.Context, args string) {
	pa, err := parsePracticeArgs(args)
	if err != nil {
		b.send(err.Error(), nil)
		return
	}

	ids, err := b.svc.Select(pa.set, pa.count, pa.strategy, pa.selection)
	switch {
	case errors.Is(err, sets.ErrUnknownSet):
		b.send(fmt.Sprintf("Unknown set %q. Use /sets to see the sets.", pa.set), nil)
		return
	case err != nil:
		b.logger.Error("selection failed", "set", pa.set, "error", err)
		b.send("Could not select items: "+err.Error(), nil)
		return
	case len(ids) == 0:
		b.send(fmt.Sprintf("Nothing to practice in %q.", pa.set), nil)
		return
	}

	if !b.startSession(ctx, pa.set, ids) {
		b.send("A session is already running.", nil)
		return
	}
	b.logger.Info("session started", "set", pa.set, "items", len(ids), "strategy", pa.strategy.String())
	b.send(fmt.Sprintf("Practicing %d items of %s (%s). Use /stop to end early.", len(ids), pa.set, pa.strategy), nil)
}

// runSession is the body of the session goroutine
func (b *Bot) runSession(ctx context.Context, set string, ids []models.ItemID) {
	p := &chatPrompter{bot: b}
	session := b.svc.NewSession(p, &chatObserver{bot: b})

	res, err := session.Run(ctx, ids)
	switch {
	case errors.Is(err, context.Canceled):
		b.logger.Info("session cancelled", "set", set, "answers", res.Answers)
		return
	case err != nil:
		b.logger.Error("session failed", "set", set, "session", session.ID, "error", err)
		b.send("The session ended with an error: "+err.Error(), mainMenuButtons())
		return
	}

	b.logger.Info("session finished", "set", set, "session", session.ID, "passes", res.Passes, "answers", res.Answers)
	b.send(fmt.Sprintf("🎉 Done! First pass: %d/%d correct, %d %s in total.",
		res.FirstPassCorrect, res.FirstPassSize, res.Passes, plural(res.Passes, "pass", "passes")),
		mainMenuButtons())
}

func (b *Bot) handleStats(set string) {
	names := b.svc.Sets()
	if set != "" {
		names = []string{set}
	}
	if len(names) == 0 {
		b.send("There are no sets yet.", nil)
		return
	}

	var sb strings.Builder
	sb.WriteString("📊 Statistics\n")
	for _, name := range names {
		st, err := b.svc.Stats(name, b.threshold, weakestPerSet)
		if errors.Is(err, sets.ErrUnknownSet) {
			b.send(fmt.Sprintf("Unknown set %q.", name), nil)
			return
		}
		if err != nil {
			b.logger.Error("failed to compute stats", "set", name, "error", err)
			continue
		}

		fmt.Fprintf(&sb, "\n%s: %d items, %d practiced, %d mastered, mean %.2f",
			st.Name, st.Items, st.Practiced, st.Mastered, st.MeanEstimate)
		for _, w := range st.Weakest {
			fmt.Fprintf(&sb, "\n  • %s (%.2f)", w.Name, w.Estimate)
		}
	}
	b.send(sb.String(), nil)
}
