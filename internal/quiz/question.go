package quiz

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"
)

// Question is a runnable item. Kind selects which of the remaining fields are meaningful.
type Question struct {
	Kind   Kind
	Prompt string

	// default
	Answers []string

	// numeric_range
	Answer int64
	Range  float64

	// vocab
	Word         string
	Definition   string
	Example      string
	Translations []string
}

var numberPrinter = message.NewPrinter(language.English)

// Build decodes a stored item payload into a question of the given kind
func Build(kind Kind, settings Settings, data []byte) (Question, error) {
	switch kind {
	case KindDefault:
		var item DefaultItem
		if err := yaml.Unmarshal(data, &item); err != nil {
			return Question{}, fmt.Errorf("%w: %v", ErrInvalidDescriptor, err)
		}
		if item.Question == "" || len(item.Answers) == 0 {
			return Question{}, fmt.Errorf("%w: default item needs a question and at least one answer", ErrInvalidDescriptor)
		}
		return Question{
			Kind:    kind,
			Prompt:  settings.QuestionPrefix + item.Question + "?",
			Answers: item.Answers,
		}, nil

	case KindNumericRange:
		var item NumericItem
		if err := yaml.Unmarshal(data, &item); err != nil {
			return Question{}, fmt.Errorf("%w: %v", ErrInvalidDescriptor, err)
		}
		if item.Question == "" {
			return Question{}, fmt.Errorf("%w: numeric item needs a question", ErrInvalidDescriptor)
		}
		return Question{
			Kind:   kind,
			Prompt: settings.QuestionPrefix + item.Question + "?",
			Answer: item.Answer,
			Range:  settings.Range,
		}, nil

	case KindVocab:
		var item VocabItem
		if err := yaml.Unmarshal(data, &item); err != nil {
			return Question{}, fmt.Errorf("%w: %v", ErrInvalidDescriptor, err)
		}
		if item.Word == "" || len(item.Translations) == 0 {
			return Question{}, fmt.Errorf("%w: vocab item needs a word and at least one translation", ErrInvalidDescriptor)
		}
		return Question{
			Kind:         kind,
			Prompt:       fmt.Sprintf("Translation of '%s': ", item.Word),
			Word:         item.Word,
			Definition:   item.Definition,
			Example:      item.Example,
			Translations: item.Translations,
		}, nil

	case KindUnion:
		return Question{}, fmt.Errorf("%w: union sets have no questions of their own", ErrInvalidDescriptor)
	}
	return Question{}, fmt.Errorf("%w: %q", ErrUnknownKind, string(kind))
}

// Run asks the question and reports whether it was answered correctly
func (q Question) Run(ctx context.Context, p Prompter) (bool, error) {
	switch q.Kind {
	case KindDefault:
		return q.runDefault(ctx, p)
	case KindNumericRange:
		return q.runNumeric(ctx, p)
	case KindVocab:
		return q.runVocab(ctx, p)
	case KindUnion:
		return false, fmt.Errorf("%w: union sets have no questions of their own", ErrInvalidDescriptor)
	}
	return false, fmt.Errorf("%w: %q", ErrUnknownKind, string(q.Kind))
}

func (q Question) runDefault(ctx context.Context, p Prompter) (bool, error) {
	answer, err := p.Ask(ctx, q.Prompt, nil)
	if err != nil {
		return false, err
	}
	answer = strings.TrimSpace(answer)
	for _, a := range q.Answers {
		if strings.EqualFold(a, answer) {
			p.Show(ToneCorrect, "Correct!")
			return true, nil
		}
	}
	p.Show(ToneWrong, fmt.Sprintf("Wrong. The answer is %q", q.Answers[0]))
	return false, nil
}

// Bounds returns the accepted interval of a numeric question, truncated to integers
func (q Question) Bounds() (int64, int64) {
	lo := int64(float64(q.Answer) * (1 - q.Range))
	hi := int64(float64(q.Answer) * (1 + q.Range))
	if lo > hi {
		lo, hi = hi, lo
	}
	return lo, hi
}

func (q Question) runNumeric(ctx context.Context, p Prompter) (bool, error) {
	validate := func(s string) error {
		_, err := ParseSI(s)
		return err
	}
	answer, err := p.Ask(ctx, q.Prompt, validate)
	if err != nil {
		return false, err
	}
	n, err := ParseSI(answer)
	if err != nil {
		return false, err
	}

	lo, hi := q.Bounds()
	bounds := numberPrinter.Sprintf("[%d <= %d <= %d]", lo, q.Answer, hi)
	if lo <= n && n <= hi {
		p.Show(ToneCorrect, "Within accepted bounds! "+bounds)
		return true, nil
	}
	p.Show(ToneWrong, "Wrong. Accepted bounds: "+bounds)
	return false, nil
}

func (q Question) runVocab(ctx context.Context, p Prompter) (bool, error) {
	answer, err := p.Ask(ctx, q.Prompt, nil)
	if err != nil {
		return false, err
	}

	valid := slices.Contains(q.Translations, strings.TrimSpace(answer))
	if valid {
		p.Show(ToneCorrect, "Valid translation")
	} else {
		p.Show(ToneWrong, "Invalid translation. The accepted ones are:\n\t"+strings.Join(q.Translations, "\n\t"))
	}

	if err := p.Pause(ctx, "Press any key to see an english definition and example."); err != nil {
		return false, err
	}
	p.Show(ToneInfo, "Definition: "+q.Definition)
	p.Show(ToneInfo, "Example: "+q.Example)

	knew, err := p.Confirm(ctx, "Did you know the definition?")
	if err != nil {
		return false, err
	}
	return valid && knew, nil
}

var errEmptyNumber = errors.New("empty string")

// ParseSI parses an integer with an optional magnitude suffix:
// k/K thousand, m/M million, g/G/b/B billion, T trillion. "1.5k" is 1500.
func ParseSI(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errEmptyNumber
	}

	last := s[len(s)-1]
	if last >= '0' && last <= '9' {
		return strconv.ParseInt(s, 10, 64)
	}

	var factor float64
	switch last {
	case 'k', 'K':
		factor = 1e3
	case 'm', 'M':
		factor = 1e6
	case 'g', 'G', 'b', 'B':
		factor = 1e9
	case 'T':
		factor = 1e12
	default:
		return 0, fmt.Errorf("unexpected last char %q", last)
	}

	f, err := strconv.ParseFloat(s[:len(s)-1], 64)
	if err != nil {
		return 0, err
	}
	v := f * factor
	switch {
	case math.IsNaN(v) || math.IsInf(v, 0):
		return 0, fmt.Errorf("%q is not a finite number", s)
	case v >= math.MaxInt64:
		return math.MaxInt64, nil
	case v <= math.MinInt64:
		return math.MinInt64, nil
	}
	return int64(v), nil
}
