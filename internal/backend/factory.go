package backend

import (
	"context"
	"fmt"
	"log/slog"

	"payroll/internal/ledger/memory"
	"payroll/internal/ledger/postgrest"
	"payroll/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		return f.createSQLiteBackend(config)
	case PostgRESTBackend:
		return f.createPostgRESTBackend(ctx, config)
	case MemoryBackend:
		return f.createMemoryBackend()
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)

	return &BackendResult{
		Store:   repo,
		Ping:    repo.Ping,
		Cleanup: repo.Close,
	}, nil
}

func (f *DefaultFactory) createPostgRESTBackend(ctx context.Context, config Config) (*BackendResult, error) {
	client := postgrest.NewClient(postgrest.Config{
		BaseURL: config.PostgRESTURL,
		APIKey:  config.PostgRESTAPIKey,
		Timeout: config.PostgRESTTimeout,
	})

	// an unreachable store at startup is logged; readiness keeps reporting it
	if err := client.Ping(ctx); err != nil {
		f.logger.Warn("PostgREST not reachable at startup", "url", config.PostgRESTURL, "error", err)
	}

	f.logger.Info("Initialized PostgREST backend", "url", config.PostgRESTURL)

	return &BackendResult{
		Store: client,
		Ping:  client.Ping,
	}, nil
}

func (f *DefaultFactory) createMemoryBackend() (*BackendResult, error) {
	store := memory.New()

	f.logger.Info("Initialized memory backend")

	return &BackendResult{
		Store: store,
		Ping:  func(context.Context) error { return nil },
	}, nil
}
