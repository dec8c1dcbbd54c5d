package quiz

import "context"

// Tone classifies feedback so front ends can style it
type Tone int

const (
	ToneInfo Tone = iota
	ToneCorrect
	ToneWrong
)

// Prompter is the interaction surface a question runs against.
// The terminal and the Telegram bot both implement it.
type Prompter interface {
	// Ask shows a prompt and returns the answer. When validate is non-nil the
	// prompter keeps asking until validate accepts the input.
	Ask(ctx context.Context, prompt string, validate func(string) error) (string, error)
	Confirm(ctx context.Context, prompt string) (bool, error)
	Pause(ctx context.Context, message string) error
	Show(tone Tone, text string)
}
