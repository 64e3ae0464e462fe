package backend

import (
	"context"

	"surveystock/internal/persist"
	"surveystock/internal/services"
)

// Store is a key-value store the persistence adapter can save into.
type Store interface {
	persist.KeyValueStore
	Close() error
}

// CleanupFunc releases resources held by a backend.
type CleanupFunc func() error

// BackendResult bundles the store, the optional event publisher and their cleanup.
type BackendResult struct {
	Store     Store
	Publisher services.EventPublisher
	Cleanup   CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// Event publishing; empty URL disables it
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
