package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/joelkehle/analysis-views/internal/app"
	"github.com/joelkehle/analysis-views/internal/config"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (ANALYSIS_* env vars override it)")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, "analysis-server:", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(context.Background()); err != nil {
			a.Logger.Warn("close", zap.Error(err))
		}
	}()

	a.Logger.Info("starting analysis server",
		zap.String("addr", cfg.Server.Addr),
		zap.String("store", cfg.Store.Path),
		zap.String("pdf_engine", cfg.PDF.Engine),
		zap.Bool("generation", cfg.GenerationEnabled()))
	return a.Serve(ctx)
}
