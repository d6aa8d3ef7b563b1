package app

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"watch-catalog/internal/config"
	"watch-catalog/internal/engine"
	"watch-catalog/internal/rates"
	"watch-catalog/internal/storage"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) newConverter() *rates.Converter {
	client := rates.NewClient(rates.ClientOptions{
		BaseURL:   a.Config.Rates.BaseURL,
		APIKey:    a.Config.Rates.APIKey,
		Timeout:   a.Config.Rates.RequestTimeout,
		UserAgent: a.Config.Rates.UserAgent,
	}, a.Logger)

	return rates.NewConverter(client, rates.NewCache(a.Config.Rates.CacheTTL), a.Logger)
}

func (a *App) newEngine(store *storage.Store) *engine.Engine {
	return engine.New(store, store, a.newConverter(), a.Logger)
}

func (a *App) openStore(ctx context.Context) (*storage.Store, func(), error) {
	if a.Config.Database.DSN == "" {
		return nil, nil, nil
	}

	pool, err := storage.NewPool(ctx, a.Config.Database)
	if err != nil {
		return nil, nil, err
	}

	store := storage.NewStore(pool)
	closer := func() {
		store.Close()
	}
	return store, closer, nil
}

// SearchOptions configure the search command.
type SearchOptions struct {
	Reference string
	Brand     string
	Model     string
	Text      string
	Page      int
	Size      int
	Sort      string
}

// ExportOptions hold parameters for exporting a price history.
type ExportOptions struct {
	Reference string
	Days      int
	PNGPath   string
	CSVPath   string
	MaxPoints int
	Now       time.Time
}
