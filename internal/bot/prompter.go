package bot

import (
	"context"
	"fmt"

	"github.com/example/drill/internal/quiz"
	"github.com/example/drill/pkg/models"
)

// chatPrompter runs questions through the chat. Answers arrive on the bot's inbox.
type chatPrompter struct {
	bot *Bot
}

var tonePrefix = map[quiz.Tone]string{
	quiz.ToneInfo:    "",
	quiz.ToneCorrect: "✅ ",
	quiz.ToneWrong:   "❌ ",
}

func (p *chatPrompter) next(ctx context.Context) (input, error) {
	select {
	case <-ctx.Done():
		return input{}, ctx.Err()
	case in := <-p.bot.inbox:
		return in, nil
	}
}

func (p *chatPrompter) Ask(ctx context.Context, prompt string, validate func(string) error) (string, error) {
	p.bot.send(prompt, nil)
	for {
		in, err := p.next(ctx)
		if err != nil {
			return "", err
		}
		if in.callback != "" {
			continue
		}
		if validate != nil {
			if err := validate(in.text); err != nil {
				p.bot.send(fmt.Sprintf("%v. Try again.", err), nil)
				continue
			}
		}
		return in.text, nil
	}
}

func (p *chatPrompter) Confirm(ctx context.Context, prompt string) (bool, error) {
	p.bot.send(prompt, confirmButtons())
	for {
		in, err := p.next(ctx)
		if err != nil {
			return false, err
		}
		switch {
		case in.callback == callbackYes:
			return true, nil
		case in.callback == callbackNo:
			return false, nil
		}
		if yes, ok := parseYesNo(in.text); ok {
			return yes, nil
		}
		p.bot.send("Please answer yes or no.", confirmButtons())
	}
}

func (p *chatPrompter) Pause(ctx context.Context, message string) error {
	p.bot.send(message, continueButtons())
	_, err := p.next(ctx)
	return err
}

func (p *chatPrompter) Show(tone quiz.Tone, text string) {
	p.bot.send(tonePrefix[tone]+text, nil)
}

func parseYesNo(s string) (yes, ok bool) {
	switch s {
	case "y", "Y", "yes", "Yes", "YES":
		return true, true
	case "n", "N", "no", "No", "NO":
		return false, true
	}
	return false, false
}

// chatObserver reports pass results. Item progress is left out to keep the chat short.
type chatObserver struct {
	bot *Bot
}

func (o *chatObserver) ItemStarted(pos, total int, _ models.ItemID) {
	o.bot.logger.Debug("presenting item", "pos", pos, "total", total)
}

func (o *chatObserver) PassFinished(correct, total int) {
	if correct == total {
		return
	}
	o.bot.send(fmt.Sprintf("%d/%d correct. Continuing with the remaining %d wrong answers.", correct, total, total-correct), nil)
}
