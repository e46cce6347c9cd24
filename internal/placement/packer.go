package placement

import (
	"context"

	"github.com/guimove/powerfit/internal/model"
)

// Placer defines a strategy for assigning workloads onto a fixed set of hosts.
type Placer interface {
	// Place assigns every workload of inv to a host, or reports it unplaced.
	Place(ctx context.Context, inv model.Inventory) (*model.Placement, error)

	// Name returns the strategy name.
	Name() string
}
