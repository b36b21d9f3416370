// Package app wires configuration into a running analysis service.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"

	"github.com/joelkehle/analysis-views/internal/analysis"
	"github.com/joelkehle/analysis-views/internal/cache"
	"github.com/joelkehle/analysis-views/internal/config"
	"github.com/joelkehle/analysis-views/internal/generator"
	"github.com/joelkehle/analysis-views/internal/pdf"
	"github.com/joelkehle/analysis-views/internal/pipeline"
	"github.com/joelkehle/analysis-views/internal/server"
	"github.com/joelkehle/analysis-views/internal/store"
	"github.com/joelkehle/analysis-views/internal/telemetry"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	Config    *config.Config
	Logger    *zap.Logger
	Store     *store.Store
	Generator *generator.Chain
	Processor *pipeline.Processor
	Engine    pdf.Engine
	PDFCache  *cache.Cache[[]byte]
	Handler   http.Handler

	tracer *sdktrace.TracerProvider
}

// New opens the store and builds every collaborator. The processor and
// generator stay nil when no API key or model is configured.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	logger, err := telemetry.NewLogger(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return nil, err
	}
	tp, err := telemetry.NewTracerProvider(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.OTLPEndpoint)
	if err != nil {
		return nil, err
	}
	a := &App{Config: cfg, Logger: logger, tracer: tp}

	a.Store, err = store.Open(cfg.Store.Path, store.Config{})
	if err != nil {
		_ = a.Close(ctx)
		return nil, err
	}

	reg := analysis.DefaultRegistry()
	if cfg.GenerationEnabled() {
		temp := cfg.Generator.Temperature
		models, err := generator.NewAnthropicChain(cfg.Anthropic.APIKey, cfg.Generator.Models, generator.AnthropicOptions{
			MaxTokens:   cfg.Generator.MaxTokens,
			Temperature: &temp,
		})
		if err != nil {
			_ = a.Close(ctx)
			return nil, fmt.Errorf("generator: %w", err)
		}
		a.Generator = generator.NewChain(logger, models...)
		a.Processor = pipeline.NewProcessor(a.Store, a.Generator, reg, logger)
	} else {
		logger.Info("generation disabled, set ANTHROPIC_API_KEY to enable process-next")
	}

	a.Engine = NewEngine(cfg.PDF)
	a.PDFCache = cache.New[[]byte](cache.Config{TTL: cfg.PDF.CacheTTL})

	deps := server.Deps{
		Store:    a.Store,
		Engine:   a.Engine,
		PDFCache: a.PDFCache,
		Registry: reg,
		Logger:   logger,
	}
	if a.Processor != nil {
		deps.Processor = a.Processor
	}
	a.Handler = server.NewServer(deps)
	return a, nil
}

// NewEngine picks the PDF engine named by the config.
func NewEngine(cfg config.PDFConfig) pdf.Engine {
	if cfg.Engine == config.EngineChromium {
		return pdf.NewChromiumEngine(cfg.ChromePath, 0)
	}
	return pdf.NativeEngine{}
}

// Serve listens on the configured address until ctx is cancelled, then
// drains in-flight requests.
func (a *App) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.Config.Server.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", a.Config.Server.Addr, err)
	}
	return a.serve(ctx, ln)
}

func (a *App) serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           a.Handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       a.Config.Server.ReadTimeout,
		WriteTimeout:      a.Config.Server.WriteTimeout,
	}
	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info("listening", zap.String("addr", ln.Addr().String()))
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	a.Logger.Info("server stopped")
	return nil
}

// Close releases the cache, store and tracer provider.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.PDFCache != nil {
		a.PDFCache.Close()
	}
	if a.Store != nil {
		errs = append(errs, a.Store.Close())
	}
	if a.tracer != nil {
		errs = append(errs, a.tracer.Shutdown(ctx))
	}
	if a.Logger != nil {
		_ = a.Logger.Sync()
	}
	return errors.Join(errs...)
}
