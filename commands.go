package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/drill/internal/bot"
	"github.com/example/drill/internal/excel"
	"github.com/example/drill/internal/practice"
	"github.com/example/drill/internal/quiz"
	"github.com/example/drill/internal/scheduler"
	sr "github.com/example/drill/internal/spaced_repetition"
	"github.com/example/drill/internal/terminal"
)

func newLoadCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "load [dir]",
		Short: "Load the set descriptors of a directory into the database",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := a.cfg.SetsDir
			if len(args) == 1 {
				dir = args[0]
			}
			if dir == "" {
				return errors.New("no directory given and DRILL_SETS_DIR is not set")
			}

			descs, err := quiz.LoadDir(dir)
			if err != nil {
				return err
			}
			return a.ingest(cmd, descs)
		},
	}
}

func (a *app) ingest(cmd *cobra.Command, descs []quiz.Descriptor) error {
	svc, err := a.service(cmd.Context())
	if err != nil {
		return err
	}
	report, err := svc.Ingest(cmd.Context(), descs)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d sets: %d items added, %d already present, %d memberships added\n",
		report.Sets, report.ItemsAdded, report.ItemsSkipped, report.MembersAdded)
	return nil
}

func newImportCmd(a *app) *cobra.Command {
	cfg := excel.DefaultImportConfig()
	var (
		kind    string
		columns string
		out     string
		load    bool
	)

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Convert an Excel or CSV sheet into a set descriptor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := quiz.ParseKind(kind)
			if err != nil {
				return err
			}
			cfg.FilePath = args[0]
			cfg.Kind = k
			if columns != "" {
				cfg.Columns = strings.Split(columns, ",")
			}

			d, result, err := excel.Import(cfg)
			if err != nil {
				return err
			}
			for _, msg := range result.Errors {
				fmt.Fprintln(cmd.ErrOrStderr(), msg)
			}

			data, err := d.Marshal()
			if err != nil {
				return err
			}
			if out == "" {
				out = d.Name + ".yaml"
			}
			if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
				return err
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", out, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d rows, %d items, %d skipped\n",
				out, result.TotalProcessed, result.Created, result.Skipped)

			if !load {
				return nil
			}
			return a.ingest(cmd, []quiz.Descriptor{d})
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&cfg.SetName, "name", "", "set name (default: file name)")
	flags.StringVar(&kind, "kind", string(quiz.KindDefault), "default, numeric_range or vocab")
	flags.StringVar(&cfg.QuestionPrefix, "prefix", "", "question prefix")
	flags.Float64Var(&cfg.Range, "range", 0, "relative tolerance of numeric_range answers")
	flags.StringVar(&cfg.SheetName, "sheet", cfg.SheetName, "sheet to read from Excel files")
	flags.IntVar(&cfg.StartRow, "start-row", cfg.StartRow, "first row to import (1-based)")
	flags.StringVar(&columns, "columns", "", "comma separated column letters, e.g. A,C,B")
	flags.StringVar(&cfg.ListSeparator, "sep", cfg.ListSeparator, "separator of multiple answers in a cell")
	flags.StringVarP(&out, "out", "o", "", "output file (default: <name>.yaml)")
	flags.BoolVar(&load, "load", false, "also load the set into the database")
	return cmd
}

// choice is one practice configuration, repeatable with "Start again with same choice?"
type choice struct {
	set       string
	selection sr.Selection
	count     int
	strategy  sr.Strategy
}

const exitOption = "Exit"

func newPracticeCmd(a *app) *cobra.Command {
	var (
		set       string
		count     int
		method    string
		selection string
	)

	cmd := &cobra.Command{
		Use:   "practice",
		Short: "Practice a set in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := a.service(cmd.Context())
			if err != nil {
				return err
			}
			term := terminal.New(cmd.InOrStdin(), cmd.OutOrStdout())

			preset, err := presetChoice(cmd, set, count, method, selection)
			if err != nil {
				return err
			}
			return practiceLoop(cmd.Context(), svc, term, preset)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&set, "set", "", "set to practice")
	flags.IntVarP(&count, "count", "n", 0, "number of items (default: set size)")
	flags.StringVar(&method, "method", "", "bottom, weighted, uniform or oldest")
	flags.StringVar(&selection, "selection", "", "all or practiced")
	return cmd
}

// presetChoice builds a choice from flags. It returns nil unless --set was given.
func presetChoice(cmd *cobra.Command, set string, count int, method, selection string) (*choice, error) {
	if set == "" {
		return nil, nil
	}
	c := &choice{set: set, count: count, strategy: sr.WeightedRandom}
	var err error
	if c.selection, err = sr.ParseSelection(selection); err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("method") {
		if c.strategy, err = sr.ParseStrategy(method); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func practiceLoop(ctx context.Context, svc *practice.Service, term *terminal.Terminal, last *choice) error {
	if last != nil && last.count == 0 {
		size, err := svc.SetSize(last.set, last.selection)
		if err != nil {
			return err
		}
		last.count = size
	}

	for first := true; ; first = false {
		c := last
		if c == nil || !first {
			var err error
			if c, err = askChoice(ctx, svc, term, last); err != nil {
				return err
			}
		}
		if c == nil {
			return nil
		}
		last = c

		if err := runPractice(ctx, svc, term, *c); err != nil {
			return err
		}
	}
}

// askChoice offers to repeat the last choice, then asks for a new one. nil means exit.
func askChoice(ctx context.Context, svc *practice.Service, term *terminal.Terminal, last *choice) (*choice, error) {
	if last != nil {
		again, err := term.Confirm(ctx, "Start again with same choice?")
		if err != nil {
			return nil, err
		}
		if again {
			return last, nil
		}
	}

	set, err := term.Select(ctx, "Pick a question set", append([]string{exitOption}, svc.Sets()...))
	if err != nil || set == exitOption {
		return nil, err
	}

	sel, err := term.Select(ctx, "Selection method", []string{sr.SelectAll.String(), sr.SelectPracticed.String()})
	if err != nil {
		return nil, err
	}
	selection, err := sr.ParseSelection(sel)
	if err != nil {
		return nil, err
	}

	size, err := svc.SetSize(set, selection)
	if err != nil {
		return nil, err
	}
	count, err := term.AskInt(ctx, fmt.Sprintf("Number of questions (out of %d)", size), size)
	if err != nil {
		return nil, err
	}

	names := make([]string, len(sr.Strategies))
	for i, s := range sr.Strategies {
		names[i] = s.String()
	}
	method, err := term.Select(ctx, "Ranking method", names)
	if err != nil {
		return nil, err
	}
	strategy, err := sr.ParseStrategy(method)
	if err != nil {
		return nil, err
	}

	return &choice{set: set, selection: selection, count: count, strategy: strategy}, nil
}

func runPractice(ctx context.Context, svc *practice.Service, term *terminal.Terminal, c choice) error {
	ids, err := svc.Select(c.set, c.count, c.strategy, c.selection)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		term.Printf("Nothing to practice in %s.\n", c.set)
		return nil
	}

	session := svc.NewSession(term, terminal.NewSessionView(term, svc))
	res, err := session.Run(ctx, ids)
	if err != nil {
		return err
	}
	term.Printf("\nDone: %d/%d correct on the first pass, %d answers in %d passes.\n",
		res.FirstPassCorrect, res.FirstPassSize, res.Answers, res.Passes)
	return nil
}

func newSetsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sets",
		Short: "List the sets with their total and practiced sizes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := a.service(cmd.Context())
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for _, name := range svc.Sets() {
				total, err := svc.SetSize(name, sr.SelectAll)
				if err != nil {
					return err
				}
				practiced, err := svc.SetSize(name, sr.SelectPracticed)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%-24s %5d items  %5d practiced\n", name, total, practiced)
			}
			return nil
		},
	}
}

func newStatsCmd(a *app) *cobra.Command {
	var weakest int
	cmd := &cobra.Command{
		Use:   "stats [set]",
		Short: "Show mastery per set",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(cmd.Context())
			if err != nil {
				return err
			}
			names := svc.Sets()
			if len(args) == 1 {
				names = args
			}

			w := cmd.OutOrStdout()
			for _, name := range names {
				st, err := svc.Stats(name, a.cfg.ReminderThreshold, weakest)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%s: %d items, %d practiced, %d mastered, mean estimate %.3f\n",
					st.Name, st.Items, st.Practiced, st.Mastered, st.MeanEstimate)
				for _, item := range st.Weakest {
					fmt.Fprintf(w, "    %.3f  %s (%d answers)\n", item.Estimate, item.Name, item.Answers)
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&weakest, "weakest", 5, "number of weakest items to list per set")
	return cmd
}

func newBotCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "bot",
		Short: "Run the Telegram practice bot with daily reminders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.cfg.RequireTelegram(); err != nil {
				return err
			}
			ctx := cmd.Context()

			svc, err := a.service(ctx)
			if err != nil {
				return err
			}
			api, err := bot.NewAPI(a.cfg.TelegramToken)
			if err != nil {
				return fmt.Errorf("failed to create bot: %w", err)
			}

			b := bot.New(api, a.cfg.TelegramChatID, svc, a.cfg.ReminderThreshold, a.logger)
			sched := scheduler.New(svc, b, a.cfg.ReminderThreshold, a.logger)
			if err := sched.Start(ctx, a.cfg.ReminderTime); err != nil {
				return err
			}
			defer sched.Stop()

			a.logger.Info("Bot started. Press Ctrl+C to stop.")
			return b.Run(ctx)
		},
	}
}
