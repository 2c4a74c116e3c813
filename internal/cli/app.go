package cli

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/emiliopalmerini/framescope/internal/adapters/llm"
	"github.com/emiliopalmerini/framescope/internal/adapters/otel"
	"github.com/emiliopalmerini/framescope/internal/adapters/turso"
	"github.com/emiliopalmerini/framescope/internal/agents"
	"github.com/emiliopalmerini/framescope/internal/capture"
	"github.com/emiliopalmerini/framescope/internal/chat"
	"github.com/emiliopalmerini/framescope/internal/config"
	"github.com/emiliopalmerini/framescope/internal/database"
	"github.com/emiliopalmerini/framescope/internal/loop"
	"github.com/emiliopalmerini/framescope/internal/migrate"
	"github.com/emiliopalmerini/framescope/internal/parser"
	"github.com/emiliopalmerini/framescope/internal/ports"
	"github.com/emiliopalmerini/framescope/internal/tools"
)

// AppContext holds all shared dependencies for CLI commands.
type AppContext struct {
	Config *config.Config
	Logger *slog.Logger

	DB          *sql.DB
	TurnRepo    ports.TurnRepository
	PricingRepo ports.PricingRepository
	Metrics     ports.MetricsExporter

	Store    *capture.Store
	Parsers  *parser.Registry
	Ingestor *capture.Ingestor
	Registry *tools.Registry
	Catalog  *agents.Catalog
	Reasoner ports.Reasoner
	Mode     string
	Chat     *chat.Service
}

// NewAppContext wires every component from the environment configuration.
// The usage ledger schema is migrated on open.
func NewAppContext(ctx context.Context) (*AppContext, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return newAppContext(ctx, cfg)
}

func newAppContext(ctx context.Context, cfg *config.Config) (*AppContext, error) {
	logger := cfg.NewLogger()

	db, err := database.Open(cfg.Database.URL, cfg.Database.AuthToken)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := migrate.RunAll(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	metrics, err := otel.New(ctx, otel.Config{
		Enabled:  cfg.Telemetry.Enabled,
		Endpoint: cfg.Telemetry.Endpoint,
		Insecure: cfg.Telemetry.Insecure,
		Interval: cfg.Telemetry.Interval,
	})
	if err != nil {
		logger.Warn("metrics export disabled", "error", err)
		metrics = otel.NewNoOpExporter()
	}

	repos := turso.NewRepositories(db)
	store := capture.NewStore()
	registry := tools.NewRegistry(store)
	catalog := agents.NewCatalog(registry)

	reasoner, mode, err := llm.New(cfg.Reasoner.UseMock, cfg.Reasoner.Provider, llm.Options{
		APIKey:     cfg.Reasoner.APIKey,
		BaseURL:    cfg.Reasoner.APIBase,
		Model:      cfg.Reasoner.Model,
		MaxRetries: cfg.Reasoner.MaxRetries,
		Logger:     logger,
	}, store)
	if err != nil {
		_ = metrics.Close(ctx)
		_ = db.Close()
		return nil, fmt.Errorf("failed to create reasoner: %w", err)
	}

	a := &AppContext{
		Config:      cfg,
		Logger:      logger,
		DB:          db,
		TurnRepo:    repos.Turns,
		PricingRepo: repos.Pricing,
		Metrics:     metrics,
		Store:       store,
		Parsers:     parser.Default,
		Ingestor:    capture.NewIngestor(store, parser.Default, cfg.Limits()),
		Registry:    registry,
		Catalog:     catalog,
		Reasoner:    reasoner,
		Mode:        mode,
	}
	a.Chat = chat.NewService(chat.Deps{
		Store:  store,
		Router: agents.NewRouter(catalog),
		Loop: loop.New(reasoner,
			loop.WithMaxIterations(cfg.Reasoner.MaxIterations),
			loop.WithMaxTokens(cfg.Reasoner.MaxTokens),
			loop.WithLogger(logger),
		),
		Turns:   a.TurnRepo,
		Pricing: a.PricingRepo,
		Metrics: metrics,
		Logger:  logger,
	})
	return a, nil
}

// Close flushes metrics and releases the database.
func (a *AppContext) Close() error {
	if a.Metrics != nil {
		if err := a.Metrics.Close(context.Background()); err != nil {
			a.Logger.Warn("failed to flush metrics", "error", err)
		}
	}
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}
