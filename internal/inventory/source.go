package inventory

import (
	"context"
	"errors"

	"github.com/guimove/powerfit/internal/model"
)

var (
	ErrUnknownSource = errors.New("unknown inventory source")
	ErrEmptyInput    = errors.New("inventory input is empty")
)

// Backend names accepted by the --source flag.
const (
	BackendFile    = "file"
	BackendRandom  = "random"
	BackendPrompt  = "prompt"
	BackendKube    = "kubernetes"
	BackendVSphere = "vsphere"
	BackendEC2     = "ec2"
)

// Source produces the workloads and hosts of a placement run.
type Source interface {
	// Load returns a fresh inventory. Hosts may carry zero power values,
	// which callers replace with their configured defaults.
	Load(ctx context.Context) (*model.Inventory, error)

	// Ping validates that the backend is reachable.
	Ping(ctx context.Context) error

	// BackendType returns the backend name.
	BackendType() string
}

// StaticSource serves a pre-built inventory. Used for tests and for piping a
// generated inventory straight into a run.
type StaticSource struct {
	inv *model.Inventory
}

// NewStaticSource wraps an existing inventory.
func NewStaticSource(inv *model.Inventory) *StaticSource {
	return &StaticSource{inv: inv}
}

func (s *StaticSource) Ping(context.Context) error { return nil }

func (s *StaticSource) BackendType() string { return "static" }

// Load returns a copy of the wrapped inventory.
func (s *StaticSource) Load(context.Context) (*model.Inventory, error) {
	if s.inv == nil {
		return nil, ErrEmptyInput
	}
	out := *s.inv
	out.Workloads = append([]model.Workload(nil), s.inv.Workloads...)
	out.Hosts = append([]model.Host(nil), s.inv.Hosts...)
	if out.Source == "" {
		out.Source = s.BackendType()
	}
	return &out, nil
}
