// Package terminal runs practice sessions in a terminal. Interactive terminals get
// huh forms; anything else (pipes, tests) gets a plain line protocol.
package terminal

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/example/drill/internal/quiz"
)

// Terminal implements quiz.Prompter on top of a reader and a writer
type Terminal struct {
	in          *bufio.Reader
	out         io.Writer
	interactive bool

	correct lipgloss.Style
	wrong   lipgloss.Style
	info    lipgloss.Style
	header  lipgloss.Style
}

var _ quiz.Prompter = (*Terminal)(nil)

// New returns a terminal reading from in and writing to out. Forms are used only
// when in is a tty.
func New(in io.Reader, out io.Writer) *Terminal {
	r := lipgloss.NewRenderer(out)
	return &Terminal{
		in:          bufio.NewReader(in),
		out:         out,
		interactive: isTerminal(in),
		correct:     r.NewStyle().Foreground(lipgloss.Color("2")).Bold(true),
		wrong:       r.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		info:        r.NewStyle(),
		header:      r.NewStyle().Faint(true),
	}
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Ask implements quiz.Prompter
func (t *Terminal) Ask(ctx context.Context, prompt string, validate func(string) error) (string, error) {
	if t.interactive {
		var answer string
		input := huh.NewInput().Title(prompt).Value(&answer)
		if validate != nil {
			input = input.Validate(validate)
		}
		if err := huh.NewForm(huh.NewGroup(input)).RunWithContext(ctx); err != nil {
			return "", err
		}
		fmt.Fprintf(t.out, "%s %s\n", prompt, answer)
		return answer, nil
	}

	for {
		fmt.Fprint(t.out, prompt, " ")
		line, err := t.readLine(ctx)
		if err != nil {
			return "", err
		}
		if validate == nil {
			return line, nil
		}
		if err := validate(line); err != nil {
			fmt.Fprintln(t.out, t.wrong.Render(err.Error()))
			continue
		}
		return line, nil
	}
}

// Confirm implements quiz.Prompter
func (t *Terminal) Confirm(ctx context.Context, prompt string) (bool, error) {
	if t.interactive {
		var ok bool
		confirm := huh.NewConfirm().Title(prompt).Affirmative("Yes").Negative("No").Value(&ok)
		if err := huh.NewForm(huh.NewGroup(confirm)).RunWithContext(ctx); err != nil {
			return false, err
		}
		return ok, nil
	}

	for {
		fmt.Fprint(t.out, prompt, " [y/n] ")
		line, err := t.readLine(ctx)
		if err != nil {
			return false, err
		}
		switch strings.ToLower(line) {
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
	}
}

// Pause implements quiz.Prompter. It waits for Enter; anything typed before it is discarded.
func (t *Terminal) Pause(ctx context.Context, message string) error {
	fmt.Fprint(t.out, message)
	_, err := t.readLine(ctx)
	fmt.Fprintln(t.out)
	return err
}

// Show implements quiz.Prompter
func (t *Terminal) Show(tone quiz.Tone, text string) {
	style := t.info
	switch tone {
	case quiz.ToneCorrect:
		style = t.correct
	case quiz.ToneWrong:
		style = t.wrong
	}
	fmt.Fprintln(t.out, style.Render(text))
}

// Select asks for one of options. In line mode the answer may be the option or its 1-based number.
func (t *Terminal) Select(ctx context.Context, title string, options []string) (string, error) {
	if len(options) == 0 {
		return "", errors.New("nothing to choose from")
	}
	if t.interactive {
		choice := options[0]
		sel := huh.NewSelect[string]().Title(title).Options(huh.NewOptions(options...)...).Value(&choice)
		if err := huh.NewForm(huh.NewGroup(sel)).RunWithContext(ctx); err != nil {
			return "", err
		}
		return choice, nil
	}

	fmt.Fprintln(t.out, title)
	for i, o := range options {
		fmt.Fprintf(t.out, "  %d) %s\n", i+1, o)
	}
	for {
		fmt.Fprint(t.out, "> ")
		line, err := t.readLine(ctx)
		if err != nil {
			return "", err
		}
		if n, err := strconv.Atoi(line); err == nil && n >= 1 && n <= len(options) {
			return options[n-1], nil
		}
		for _, o := range options {
			if strings.EqualFold(o, line) {
				return o, nil
			}
		}
	}
}

// AskInt asks for a non-negative integer; an empty answer picks def
func (t *Terminal) AskInt(ctx context.Context, prompt string, def int) (int, error) {
	validate := func(s string) error {
		if strings.TrimSpace(s) == "" {
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil || n < 0 {
			return fmt.Errorf("%q is not a count", s)
		}
		return nil
	}
	answer, err := t.Ask(ctx, fmt.Sprintf("%s [%d]", prompt, def), validate)
	if err != nil {
		return 0, err
	}
	if strings.TrimSpace(answer) == "" {
		return def, nil
	}
	return strconv.Atoi(strings.TrimSpace(answer))
}

// Header prints a faint section line
func (t *Terminal) Header(text string) {
	fmt.Fprintln(t.out, t.header.Render(text))
}

// Printf writes unstyled output
func (t *Terminal) Printf(format string, args ...any) {
	fmt.Fprintf(t.out, format, args...)
}

func (t *Terminal) readLine(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	line, err := t.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimSpace(line), nil
		}
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}
