package backend

import (
	"context"

	"saasboard/internal/warehouse"
)

// CleanupFunc releases backend resources at shutdown
type CleanupFunc func() error

// Result contains the warehouse instance and optional cleanup function
type Result struct {
	Warehouse warehouse.Warehouse
	Cleanup   CleanupFunc
}

// Factory creates warehouse backends based on configuration
type Factory interface {
	CreateWarehouse(ctx context.Context, config Config) (*Result, error)
}

// Config holds configuration for warehouse creation
type Config struct {
	Type Type

	// SQLite specific
	SQLiteDBPath string

	// Postgres specific
	DatabaseURL string

	// Memory backend specific
	DataDirectory string
}

// Type represents the kind of warehouse backend
type Type string

const (
	SQLiteBackend   Type = "sqlite"
	PostgresBackend Type = "postgres"
	MemoryBackend   Type = "memory"
)

// String implements fmt.Stringer
func (t Type) String() string {
	return string(t)
}

// IsValid returns true if the backend type is valid
func (t Type) IsValid() bool {
	switch t {
	case SQLiteBackend, PostgresBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
