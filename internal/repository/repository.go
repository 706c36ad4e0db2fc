package repository

import (
	"context"
	"time"

	"spectrum-inventory/internal/domain"
)

// Snapshot describes one persisted inventory load
type Snapshot struct {
	RunID     string
	CreatedAt time.Time
	Hosts     int
	Groups    int
}

// SnapshotStore persists the result of an inventory load
type SnapshotStore interface {
	// SaveSnapshot replaces the stored inventory with inv
	SaveSnapshot(ctx context.Context, runID string, inv *domain.Inventory) error

	// Read operations
	LatestSnapshot(ctx context.Context) (*Snapshot, error)
	Inventory(ctx context.Context) (*domain.Inventory, error)
	GroupMembers(ctx context.Context, group string) ([]string, error)

	// Close releases resources
	Close() error
}
