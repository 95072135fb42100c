package main

import (
	"context"
	"fmt"
	"io"

	"github.com/dennisdiepolder/monti/feedback/internal/config"
	"github.com/dennisdiepolder/monti/feedback/internal/metrics"
	"github.com/dennisdiepolder/monti/feedback/internal/storage"
	"github.com/dennisdiepolder/monti/feedback/internal/types"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// app carries what every command needs once the root command has run
type app struct {
	cfg         *config.Config
	repo        storage.Repository
	logger      zerolog.Logger
	showMetrics bool
}

func newRootCmd(logger zerolog.Logger) *cobra.Command {
	a := &app{logger: logger}

	root := &cobra.Command{
		Use:           "feedback",
		Short:         "Monthly operator metrics: import, inspect and compare",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd.Context())
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.showMetrics {
				if _, err := metrics.Get().WriteTo(cmd.ErrOrStderr()); err != nil {
					return err
				}
			}
			return a.close()
		},
	}

	root.PersistentFlags().BoolVar(&a.showMetrics, "metrics", false, "print process counters to stderr when done")

	root.AddCommand(importCmd(a))
	root.AddCommand(showCmd(a))
	root.AddCommand(trendCmd(a))
	root.AddCommand(operatorsCmd(a))

	return root
}

func (a *app) setup(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	a.cfg = cfg

	// Set log level
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		a.logger.Warn().Str("level", cfg.LogLevel).Msg("invalid log level, using info")
		level = zerolog.InfoLevel
	}
	a.logger = a.logger.Level(level)

	repo, err := storage.NewRepository(ctx, cfg.Store, a.logger)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	a.repo = repo

	a.logger.Debug().
		Str("store_mode", string(cfg.Store.Mode)).
		Float64("deadband_pct", cfg.TrendDeadBandPct).
		Msg("configuration loaded")
	return nil
}

func (a *app) close() error {
	if a.repo == nil {
		return nil
	}
	err := a.repo.Close()
	a.repo = nil
	return err
}

// monthFlag parses an optional --month value
func monthFlag(value string) (types.Month, error) {
	if value == "" {
		return "", nil
	}
	return types.ParseMonth(value)
}

// loadRecord fetches an operator. A missing operator is not an error: it
// prints a notice and returns nil.
func (a *app) loadRecord(ctx context.Context, out io.Writer, email string) (*types.OperatorRecord, error) {
	rec, err := a.repo.Get(ctx, email)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		fmt.Fprintf(out, "no record for %s\n", types.NormalizeEmail(email))
	}
	return rec, nil
}
