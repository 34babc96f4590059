package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camuig/signal-desk/internal/ai"
	"github.com/camuig/signal-desk/internal/broker"
	"github.com/camuig/signal-desk/internal/config"
	"github.com/camuig/signal-desk/internal/desk"
	"github.com/camuig/signal-desk/internal/gateway"
	"github.com/camuig/signal-desk/internal/logger"
	"github.com/camuig/signal-desk/internal/marketdata"
	"github.com/camuig/signal-desk/internal/signals"
	"github.com/camuig/signal-desk/internal/storage"
	"github.com/camuig/signal-desk/internal/telegram"
	"github.com/camuig/signal-desk/internal/web"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	dryRun := flag.Bool("dry-run", false, "record closes without removing the open signal")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	if *dryRun {
		cfg.Desk.DryRun = true
	}

	log := logger.New(cfg.Logging.Level)
	log.Info("starting signal-desk", "dry_run", cfg.Desk.DryRun, "provider", cfg.Market.Provider)

	db, err := storage.NewDatabase(cfg.Data.StatePath)
	if err != nil {
		log.Error("database init failed", "error", err)
		os.Exit(1)
	}
	repo := storage.NewRepository(db)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	d := desk.New(signals.NewStore(nil, nil), gateway.New(log), repo, desk.Options{
		DryRun:      cfg.Desk.DryRun,
		Policy:      cfg.BoundaryPolicy(),
		DefaultUnit: cfg.ClosedViewUnit(),
		SignalSort:  cfg.Desk.SignalSort,
		ClosedSort:  cfg.Desk.ClosedSort,
	}, log)
	d.Load(ctx, cfg.Data.Signals, cfg.Data.ClosedTrades)

	notifier := telegram.NewNotifier(cfg.Telegram, log)
	d.SetNotifier(notifier)

	if cfg.DraftingEnabled() {
		d.SetDrafter(ai.NewDrafter(cfg.DeepSeek, cfg.DeepSeekTimeout(), log))
	}

	var candles marketdata.CandleProvider
	var bc *broker.BrokerClient
	switch cfg.Market.Provider {
	case "finnhub":
		candles = marketdata.NewFinnhubClient(marketdata.FinnhubOptions{
			BaseURL:    cfg.Market.Finnhub.BaseURL,
			APIKey:     cfg.Market.Finnhub.APIKey,
			Timeout:    cfg.FinnhubTimeout(),
			MaxRetries: cfg.FinnhubMaxRetries(),
		}, log)
	case "tinkoff":
		bc, err = broker.NewBrokerClient(ctx, cfg.Market.Tinkoff, log)
		if err != nil {
			log.Error("broker client init failed", "error", err)
			os.Exit(1)
		}
		candles = broker.NewCandleSource(bc)
	}

	webServer := web.NewServer(d, candles, web.Options{
		Port:                 cfg.Web.Port,
		EditorPasswordSHA256: cfg.Web.EditorPasswordSHA256,
	}, log)

	go func() {
		if err := webServer.Start(); err != nil {
			log.Error("web server error", "error", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Info("shutdown signal received", "signal", sig.String())

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := webServer.Shutdown(shutdownCtx); err != nil {
		log.Error("web server shutdown error", "error", err)
	}

	if bc != nil {
		if err := bc.Stop(); err != nil {
			log.Error("broker client stop error", "error", err)
		}
	}

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
	log.Info("signal-desk stopped")
}
