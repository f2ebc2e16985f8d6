package backend

import (
	"context"
	"time"

	"payroll/internal/ledger"
)

// CleanupFunc releases resources held by a backend.
type CleanupFunc func() error

// PingFunc checks that the backend can serve requests; used by /readyz.
type PingFunc func(ctx context.Context) error

// BackendResult contains the ledger store and its lifecycle hooks.
type BackendResult struct {
	Store   ledger.Store
	Ping    PingFunc
	Cleanup CleanupFunc
}

// Factory creates ledger backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// PostgREST specific
	PostgRESTURL     string
	PostgRESTAPIKey  string
	PostgRESTTimeout time.Duration
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend    BackendType = "sqlite"
	PostgRESTBackend BackendType = "postgrest"
	MemoryBackend    BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, PostgRESTBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
