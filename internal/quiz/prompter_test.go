package quiz

import (
	"context"
	"errors"
)

type shown struct {
	tone Tone
	text string
}

// scriptedPrompter replays canned answers and records everything shown
type scriptedPrompter struct {
	answers  []string
	confirms []bool
	asked    []string
	shown    []shown
	pauses   int
	rejected int
}

var errScriptExhausted = errors.New("script exhausted")

func (p *scriptedPrompter) Ask(_ context.Context, prompt string, validate func(string) error) (string, error) {
	p.asked = append(p.asked, prompt)
	for len(p.answers) > 0 {
		a := p.answers[0]
		p.answers = p.answers[1:]
		if validate != nil && validate(a) != nil {
			p.rejected++
			continue
		}
		return a, nil
	}
	return "", errScriptExhausted
}

func (p *scriptedPrompter) Confirm(context.Context, string) (bool, error) {
	if len(p.confirms) == 0 {
		return false, errScriptExhausted
	}
	c := p.confirms[0]
	p.confirms = p.confirms[1:]
	return c, nil
}

func (p *scriptedPrompter) Pause(context.Context, string) error {
	p.pauses++
	return nil
}

func (p *scriptedPrompter) Show(tone Tone, text string) {
	p.shown = append(p.shown, shown{tone, text})
}

func (p *scriptedPrompter) last() shown {
	if len(p.shown) == 0 {
		return shown{}
	}
	return p.shown[len(p.shown)-1]
}
