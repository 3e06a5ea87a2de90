package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/p-n-ai/pai-content/internal/audit"
	"github.com/p-n-ai/pai-content/internal/content"
	"github.com/p-n-ai/pai-content/internal/curriculum"
	"github.com/p-n-ai/pai-content/internal/httpapi"
	"github.com/p-n-ai/pai-content/internal/importer"
	"github.com/p-n-ai/pai-content/internal/ordering"
	"github.com/p-n-ai/pai-content/internal/platform/cache"
	"github.com/p-n-ai/pai-content/internal/platform/config"
	"github.com/p-n-ai/pai-content/internal/platform/database"
	"github.com/p-n-ai/pai-content/internal/review"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(newLogger(os.Stdout, cfg.Log))

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	// Graceful shutdown on SIGTERM/SIGINT.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	b, err := openBackends(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.close()

	handler, err := buildHandler(ctx, cfg, b)
	if err != nil {
		return err
	}

	srv := newServer(cfg.Server, handler)
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", srv.Addr, "store", cfg.Store.Driver, "cache", cfg.Cache.Enabled)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
	return nil
}

// backends are the store and its companions chosen by configuration.
type backends struct {
	store    content.Store
	events   audit.EventLogger
	versions ordering.Versioner
	checks   []httpapi.ReadyCheck
	closers  []func()
}

func (b *backends) close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

func openBackends(ctx context.Context, cfg *config.Config) (*backends, error) {
	b := &backends{}

	switch cfg.Store.Driver {
	case config.DriverMemory:
		b.store = content.NewMemoryStore()
		b.events = audit.NewMemoryEventLogger()
	default:
		db, err := database.New(ctx, cfg.Database.URL, cfg.Database.MaxConns, cfg.Database.MinConns)
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		b.closers = append(b.closers, db.Close)
		if err := db.Migrate(ctx); err != nil {
			b.close()
			return nil, fmt.Errorf("migrate database: %w", err)
		}
		store, err := content.NewPostgresStore(db.Pool)
		if err != nil {
			b.close()
			return nil, err
		}
		b.store = store
		b.events = audit.NewPostgresEventLogger(db.Pool)
		b.checks = append(b.checks, httpapi.ReadyCheck{Name: "database", Check: db.HealthCheck})
	}

	if !cfg.Cache.Enabled {
		b.versions = ordering.NewMemoryVersions()
		return b, nil
	}
	c, err := cache.New(ctx, cache.Options{URL: cfg.Cache.URL})
	if err != nil {
		b.close()
		return nil, fmt.Errorf("connect cache: %w", err)
	}
	b.closers = append(b.closers, func() { _ = c.Close() })
	versions, err := ordering.NewRedisVersions(c.Client, c.Key("order", "version")+":")
	if err != nil {
		b.close()
		return nil, err
	}
	b.versions = versions
	b.checks = append(b.checks, httpapi.ReadyCheck{Name: "cache", Check: c.HealthCheck})
	return b, nil
}

// buildHandler wires the services and imports seed materials when a seed
// directory is configured.
func buildHandler(ctx context.Context, cfg *config.Config, b *backends) (http.Handler, error) {
	order := ordering.NewEngine(ordering.EngineConfig{
		Store:    b.store,
		Versions: b.versions,
		Events:   b.events,
	})
	svc := curriculum.NewService(b.store, order)
	imp := importer.New(svc, b.events)

	if cfg.SeedPath != "" {
		loader, err := curriculum.NewLoader(cfg.SeedPath)
		if err != nil {
			return nil, fmt.Errorf("load seeds: %w", err)
		}
		summary, err := imp.ImportSeeds(ctx, loader)
		if err != nil {
			return nil, fmt.Errorf("import seeds: %w", err)
		}
		slog.Info("seed materials imported",
			"path", cfg.SeedPath,
			"materials_created", summary.MaterialsCreated,
			"questions_created", summary.QuestionsCreated,
			"skipped_files", len(loader.Skipped()),
		)
	}

	delim, err := cfg.Import.Rune()
	if err != nil {
		return nil, err
	}

	return httpapi.NewHandler(httpapi.Config{
		MaxImportBytes: cfg.Import.MaxBytes,
		Delimiter:      delim,
	}, httpapi.Services{
		Store:      b.store,
		Curriculum: svc,
		Importer:   imp,
		Order:      order,
		Review: review.NewService(b.store, review.Thresholds{
			WeakAccuracy: cfg.Review.WeakAccuracy,
			LowAttempts:  cfg.Review.LowAttempts,
		}),
	}, b.checks...), nil
}

func newServer(cfg config.ServerConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// newLogger builds the process logger. Unknown levels fall back to info and
// unknown formats to JSON.
func newLogger(w io.Writer, cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	if strings.EqualFold(cfg.Format, "text") {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}
