package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/camuig/signal-desk/internal/config"
	"github.com/camuig/signal-desk/internal/desk"
	"github.com/camuig/signal-desk/internal/gateway"
	"github.com/camuig/signal-desk/internal/logger"
	"github.com/camuig/signal-desk/internal/signals"
)

// rootConfig carries the persistent flags shared by every subcommand.
type rootConfig struct {
	configPath  string
	signalsPath string
	closedPath  string
	logLevel    string
}

func newRootCmd() *cobra.Command {
	rc := &rootConfig{}
	cmd := &cobra.Command{
		Use:          "deskctl",
		Short:        "Offline tools for signal and closed-trade collections",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&rc.configPath, "config", "config.yaml", "path to config file")
	cmd.PersistentFlags().StringVar(&rc.signalsPath, "signals", "", "open signals file or URL (overrides config)")
	cmd.PersistentFlags().StringVar(&rc.closedPath, "closed", "", "closed trades file or URL (overrides config)")
	cmd.PersistentFlags().StringVar(&rc.logLevel, "log-level", "error", "log level")

	cmd.AddCommand(
		newListCmd(rc),
		newTagsCmd(rc),
		newSummaryCmd(rc),
		newCloseCmd(rc),
		newValidateCmd(rc),
	)
	return cmd
}

// session is a loaded desk plus the resolved collection sources.
type session struct {
	cfg         *config.Config
	desk        *desk.Desk
	log         *logger.Logger
	signalsPath string
	closedPath  string
	loaded      []gateway.LoadReport
}

func (rc *rootConfig) open(ctx context.Context, stderr io.Writer) (*session, error) {
	cfg, err := config.Load(rc.configPath)
	if err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}
	if rc.signalsPath != "" {
		cfg.Data.Signals = rc.signalsPath
	}
	if rc.closedPath != "" {
		cfg.Data.ClosedTrades = rc.closedPath
	}

	log := logger.NewWithWriter(stderr, rc.logLevel)
	d := desk.New(signals.NewStore(nil, nil), gateway.New(log), nil, desk.Options{
		DryRun:      cfg.Desk.DryRun,
		Policy:      cfg.BoundaryPolicy(),
		DefaultUnit: cfg.ClosedViewUnit(),
		SignalSort:  cfg.Desk.SignalSort,
		ClosedSort:  cfg.Desk.ClosedSort,
	}, log)
	sigRep, closedRep := d.Load(ctx, cfg.Data.Signals, cfg.Data.ClosedTrades)

	return &session{
		cfg:         cfg,
		desk:        d,
		log:         log,
		signalsPath: cfg.Data.Signals,
		closedPath:  cfg.Data.ClosedTrades,
		loaded:      []gateway.LoadReport{sigRep, closedRep},
	}, nil
}
