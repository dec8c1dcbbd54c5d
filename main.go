package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/example/drill/internal/config"
	"github.com/example/drill/internal/database"
	"github.com/example/drill/internal/logging"
	"github.com/example/drill/internal/practice"
)

// app holds what the commands share. The store and service are opened on first use.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *database.Store
	svc    *practice.Service

	dbFlag       string
	dbTypeFlag   string
	logLevelFlag string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "drill",
		Short:         "Spaced practice of question sets",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return a.close()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.dbFlag, "db", "", "sqlite file, or postgres URL with --db-type postgres")
	flags.StringVar(&a.dbTypeFlag, "db-type", "", "sqlite or postgres")
	flags.StringVar(&a.logLevelFlag, "log-level", "", "debug, info, warn or error")

	root.AddCommand(
		newLoadCmd(a),
		newImportCmd(a),
		newPracticeCmd(a),
		newSetsCmd(a),
		newStatsCmd(a),
		newBotCmd(a),
	)
	return root
}

// init loads the configuration and applies the flags on top of it
func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.Read()
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("db-type") {
		cfg.DBType = a.dbTypeFlag
	}
	if flags.Changed("db") {
		if cfg.DBType == "postgres" {
			cfg.DatabaseURL = a.dbFlag
		} else {
			cfg.DBPath = a.dbFlag
		}
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = a.logLevelFlag
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logging.New(level, os.Stderr)
	return nil
}

// service opens the store and loads the engine
func (a *app) service(ctx context.Context) (*practice.Service, error) {
	if a.svc != nil {
		return a.svc, nil
	}

	driver, err := database.DriverFor(a.cfg.DBType)
	if err != nil {
		return nil, err
	}
	store, err := database.Open(driver, a.cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	a.store = store
	a.logger.Debug("database connected", "driver", driver)

	svc, err := practice.NewService(ctx, store, practice.WithLogger(a.logger))
	if err != nil {
		return nil, err
	}
	a.svc = svc
	return svc, nil
}

func (a *app) close() error {
	if a.store == nil {
		return nil
	}
	err := a.store.Close()
	a.store, a.svc = nil, nil
	if err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}
