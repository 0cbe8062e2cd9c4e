package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/siddhant1729/Trace/internal/config"
	"github.com/siddhant1729/Trace/internal/fusion"
	"github.com/siddhant1729/Trace/internal/inference"
	"github.com/siddhant1729/Trace/internal/ingest"
	"github.com/siddhant1729/Trace/internal/logger"
	"github.com/siddhant1729/Trace/internal/pipeline"
	"github.com/siddhant1729/Trace/internal/store"
)

func main() {
	cfg, err := config.Load()
	log, lerr := logger.New(cfg.LogMode)
	if lerr != nil {
		panic(lerr)
	}
	defer log.Sync()
	if err != nil {
		log.Fatal("invalid configuration", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	base, err := newInferer(ctx, cfg)
	if err != nil {
		log.Fatal("inference client", "provider", cfg.Provider, "error", err)
	}
	inf := inference.Logged(inference.Retry(base, cfg.InferRetries+1, 500*time.Millisecond), log)

	cache, err := store.New[*pipeline.Result](cfg.CacheSize)
	if err != nil {
		log.Fatal("result cache", "error", err)
	}
	opts := pipeline.Options{
		Limits:         fusion.Limits{MaxNodes: cfg.MaxEntities},
		Heuristic:      cfg.HeuristicFallback,
		RepairAttempts: cfg.RepairAttempts,
		Cache:          cache,
		Logger:         log,
	}
	if cfg.OCRHints {
		opts.OCR = ingest.Tesseract{Languages: []string{"eng"}}
	}

	s := &server{
		analyzer:  pipeline.New(inf, opts),
		model:     base,
		log:       log,
		maxUpload: int64(cfg.MaxUploadMB) << 20,
		timeout:   cfg.InferTimeout * time.Duration(cfg.InferRetries+2),
	}
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("trace listening", "port", cfg.Port, "provider", base.Name())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("server stopped", "error", err)
	}
}

func newInferer(ctx context.Context, cfg config.Config) (inference.Inferer, error) {
	switch cfg.Provider {
	case config.ProviderGemini:
		return inference.NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	case config.ProviderMock:
		return inference.MockFromIntermediate(inference.DemoGraph()), nil
	default:
		return inference.NewOllama(cfg.OllamaURL, cfg.OllamaModel, cfg.InferTimeout), nil
	}
}
