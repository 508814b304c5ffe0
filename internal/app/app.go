// Package app wires the prompt service: definitions, tools, stores, the
// provider boundary, the engine, and the HTTP server lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"sync/atomic"

	"github.com/promptfile/promptfile/attachments"
	"github.com/promptfile/promptfile/convstore"
	convdisk "github.com/promptfile/promptfile/convstore/disk"
	convinmem "github.com/promptfile/promptfile/convstore/inmem"
	"github.com/promptfile/promptfile/definition"
	"github.com/promptfile/promptfile/engine"
	"github.com/promptfile/promptfile/eventing/inmem"
	"github.com/promptfile/promptfile/filestore"
	filedisk "github.com/promptfile/promptfile/filestore/disk"
	"github.com/promptfile/promptfile/internal/config"
	"github.com/promptfile/promptfile/internal/httpapi"
	"github.com/promptfile/promptfile/policy/retry"
	"github.com/promptfile/promptfile/providers/mock"
	"github.com/promptfile/promptfile/providers/openai"
	"github.com/promptfile/promptfile/tooling/registry"
	"github.com/promptfile/promptfile/toolkit"
)

// App owns the wired engine and the HTTP server lifecycle.
type App struct {
	cfg    config.Config
	logger *slog.Logger
	engine *engine.Engine
	server *http.Server
	ready  atomic.Bool
}

func New(cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		return nil, errors.New("new app: nil logger")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("new app config: %w", err)
	}

	eng, loader, files, tracker, err := buildEngine(cfg, logger)
	if err != nil {
		return nil, err
	}

	a := &App{
		cfg:    cfg,
		logger: logger,
		engine: eng,
	}

	apiRouter := httpapi.NewRouter(httpapi.Deps{
		Engine:              eng,
		Definitions:         loader,
		Files:               files,
		Attachments:         tracker,
		MaxRequestBodyBytes: cfg.MaxRequestBodyBytes,
	})
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", a.handleHealthz)
	mux.HandleFunc("/readyz", a.handleReadyz)
	mux.Handle("/", apiRouter)
	a.server = &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: requestLoggingMiddleware(logger)(mux),
	}

	return a, nil
}

// Engine exposes the wired engine for one-shot CLI runs.
func (a *App) Engine() *engine.Engine {
	return a.engine
}

func buildEngine(cfg config.Config, logger *slog.Logger) (*engine.Engine, *definition.Loader, filestore.Store, *attachments.Tracker, error) {
	loader, err := definition.NewLoader(cfg.PromptDir)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("wire definitions: %w", err)
	}

	reg := registry.New(logger)
	if err := toolkit.RegisterAll(reg, nil, logger); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("wire tools: %w", err)
	}

	var threads convstore.Store
	var files filestore.Store
	switch cfg.StateBackend {
	case config.StateBackendDisk:
		threads, err = convdisk.New(filepath.Join(cfg.DataDir, "threads"))
		if err != nil {
			return nil, nil, nil, nil, fmt.Errorf("wire thread store: %w", err)
		}
		files, err = filedisk.New(filepath.Join(cfg.DataDir, "files"))
		if err != nil {
			return nil, nil, nil, nil, fmt.Errorf("wire file store: %w", err)
		}
	default:
		threads = convinmem.New()
		files, err = filedisk.New(filepath.Join(cfg.DataDir, "files"))
		if err != nil {
			return nil, nil, nil, nil, fmt.Errorf("wire file store: %w", err)
		}
	}

	provider, err := buildProvider(cfg)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	tracker := attachments.NewTracker()
	eng, err := engine.New(engine.Params{
		Definitions:   loader,
		Tools:         reg,
		Threads:       threads,
		Attachments:   tracker,
		Provider:      provider,
		Files:         files,
		DefaultModel:  cfg.DefaultModel,
		MaxToolRounds: cfg.MaxToolRounds,
		Events:        inmem.New(),
		Logger:        logger,
	})
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("wire engine: %w", err)
	}
	return eng, loader, files, tracker, nil
}

func buildProvider(cfg config.Config) (engine.Provider, error) {
	switch cfg.ProviderMode {
	case config.ProviderModeOpenAI:
		adapter, err := openai.New(openai.Config{
			APIKey:            cfg.ProviderAPIKey,
			BaseURL:           cfg.ProviderBaseURL,
			RequestsPerSecond: cfg.ProviderRateLimit,
			HTTPClient:        &http.Client{Timeout: cfg.ProviderTimeout},
		})
		if err != nil {
			return nil, fmt.Errorf("wire provider: %w", err)
		}
		return retry.WrapProvider(adapter, retry.Config{
			MaxAttempts: cfg.ProviderMaxAttempts,
		}), nil
	default:
		return mock.New(), nil
	}
}

func (a *App) Start() error {
	a.ready.Store(true)

	err := a.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	a.ready.Store(false)
	return err
}

func (a *App) Shutdown(ctx context.Context) error {
	a.ready.Store(false)

	err := a.server.Shutdown(ctx)
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		a.logger.Warn("graceful shutdown timed out; forcing connection close")
		if closeErr := a.server.Close(); closeErr != nil {
			return fmt.Errorf("shutdown timeout and forced close failed: %w", errors.Join(err, closeErr))
		}
		return nil
	}
	return err
}

func (a *App) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writePlain(w, http.StatusOK, "ok")
}

func (a *App) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !a.ready.Load() || a.engine == nil {
		writePlain(w, http.StatusServiceUnavailable, "not ready")
		return
	}
	writePlain(w, http.StatusOK, "ready")
}

func writePlain(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}
