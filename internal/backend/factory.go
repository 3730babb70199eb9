package backend

import (
	"context"
	"fmt"
	"log/slog"

	"checkins/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	dialect, err := storage.DialectByName(config.Type.String())
	if err != nil {
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}

	pool := storage.DefaultPoolConfig()
	if config.MaxOpenConns > 0 {
		pool.MaxOpenConns = config.MaxOpenConns
	}
	if config.MaxIdleConns > 0 {
		pool.MaxIdleConns = config.MaxIdleConns
	}

	repo, err := storage.Open(ctx, dialect, config.DSN, pool)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s repository: %w", config.Type, err)
	}

	f.logger.Info("Initialized backend",
		"backend", config.Type.String(),
		"driver", repo.Dialect().DriverName,
		"max_open_conns", pool.MaxOpenConns)

	return &BackendResult{
		Backend: repo,
		Cleanup: repo.Close,
	}, nil
}
