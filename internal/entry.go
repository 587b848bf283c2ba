// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/arbor/internal/api"
	"github.com/starford/arbor/internal/graphservice"
	"github.com/starford/arbor/internal/hierarchy"
	"github.com/starford/arbor/internal/index"
	"github.com/starford/arbor/internal/layoutcache"
	"github.com/starford/arbor/internal/mcpserver"
	"github.com/starford/arbor/internal/metrics"
	"github.com/starford/arbor/internal/noteservice"
	"github.com/starford/arbor/internal/sse"
	"github.com/starford/arbor/internal/storage"
)

var errConfigRequired = errors.New("config is required")

// ErrHierarchyIssues is returned by Validate when the vault hierarchy is
// inconsistent.
var ErrHierarchyIssues = errors.New("hierarchy has issues")

// vault is the storage, index and services shared by every entry point.
type vault struct {
	store  storage.Provider
	db     *index.DB
	cache  *layoutcache.Cache
	notes  *noteservice.Service
	graphs *graphservice.Service
}

func openVault(cfg *Config, logger *slog.Logger, cacheOpts []layoutcache.Option, noteOpts ...noteservice.Option) (*vault, error) {
	// Ensure vault directory exists.
	if err := os.MkdirAll(cfg.Vault.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create vault dir: %w", err)
	}

	store, err := storage.NewFS(cfg.Vault.Path)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init index: %w", err)
	}

	if _, err := index.Sync(db, store, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	opts := append([]layoutcache.Option{
		layoutcache.WithTTL(cfg.Cache.TTL),
		layoutcache.WithCapacity(cfg.Cache.Capacity),
		layoutcache.WithLogger(logger),
	}, cacheOpts...)
	cache := layoutcache.New(cfg.Layout, opts...)

	return &vault{
		store:  store,
		db:     db,
		cache:  cache,
		notes:  noteservice.NewService(store, db, noteOpts...),
		graphs: graphservice.New(db, cache),
	}, nil
}

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	// Initialize structured JSON logger.
	logger := app.logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: cfg.App.LogLevel,
		}))
	}
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("vault_path", cfg.Vault.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()),
		slog.Duration("cache_ttl", cfg.Cache.TTL))

	m := metrics.New()
	broker := sse.NewBroker(cfg.Events.GraphThrottle)
	defer broker.Close()
	m.ObserveClients(broker.ClientCount)

	// API writes skip the watcher (the checksum is already indexed), so both
	// paths publish. The layout cache notices changes through its content
	// hash and needs no invalidation here.
	publish := func(kind index.ChangeKind, path string) {
		broker.PublishNoteEvent(string(kind), path)
	}

	v, err := openVault(cfg, logger,
		[]layoutcache.Option{layoutcache.WithRecorder(m)},
		noteservice.WithChangeHook(publish))
	if err != nil {
		return err
	}
	defer v.db.Close()

	apiRouter := api.NewRouter(v.notes, v.graphs, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(m.Middleware)

	// Health check and metrics endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := v.db.Ping(); err != nil {
			logger.Warn("readiness check failed", slog.String("error", err.Error()))
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", m.Handler())

	// Mount API routes under /api; the SSE endpoint is /api/events.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Start file watcher with SSE callback.
	g.Go(func() error {
		if err := index.Watch(gCtx, v.db, v.store, cfg.Vault.Path, logger, index.EventCallback(publish)); err != nil {
			return fmt.Errorf("watcher: %w", err)
		}
		return nil
	})

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		// Close the broker first so open event streams end and Shutdown
		// does not wait on them.
		broker.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return context.Canceled
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// subcommandLogger returns the configured logger or a discarding one.
func (a *application) subcommandLogger() *slog.Logger {
	if a.logger != nil {
		return a.logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Layout syncs the vault and writes its positioned graph to w as JSON.
func Layout(ctx context.Context, w io.Writer, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	logger := app.subcommandLogger()
	v, err := openVault(app.config, logger, nil)
	if err != nil {
		return err
	}
	defer v.db.Close()

	snap, err := v.graphs.FullGraph(ctx)
	if err != nil {
		return err
	}
	logger.Info("layout built",
		slog.Int("nodes", len(snap.Graph.Nodes)),
		slog.Int("edges", len(snap.Graph.Edges)),
		slog.String("hash", snap.Hash))

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(snap.Graph)
}

// Validate syncs the vault and writes one line per hierarchy issue to w. It
// returns ErrHierarchyIssues when there is at least one.
func Validate(ctx context.Context, w io.Writer, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	logger := app.subcommandLogger()
	v, err := openVault(app.config, logger, nil)
	if err != nil {
		return err
	}
	defer v.db.Close()

	issues, err := v.graphs.Validate(ctx)
	if err != nil {
		return err
	}
	for _, is := range issues {
		if _, err := fmt.Fprintf(w, "%s\t%s\t%s\n", is.NoteID, is.Reason, is.Detail); err != nil {
			return err
		}
	}
	if len(issues) > 0 {
		logger.Warn("hierarchy is inconsistent",
			slog.Int("issues", len(issues)),
			slog.Int("notes", len(hierarchy.InvalidIDs(issues))))
		return fmt.Errorf("%d issue(s): %w", len(issues), ErrHierarchyIssues)
	}
	logger.Info("hierarchy is consistent")
	return nil
}

// ServeMCP syncs the vault and serves the MCP tools on stdin/stdout until
// the client disconnects.
func ServeMCP(_ context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	v, err := openVault(app.config, app.subcommandLogger(), nil)
	if err != nil {
		return err
	}
	defer v.db.Close()

	return mcpserver.New(v.store, v.notes, v.graphs, app.version).ServeStdio()
}
