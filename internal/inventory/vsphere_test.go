package inventory

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/vmware/govmomi/simulator"
	"github.com/vmware/govmomi/vim25"
)

func TestLoadVSphere_Simulator(t *testing.T) {
	simulator.Test(func(ctx context.Context, c *vim25.Client) {
		inv, err := loadVSphere(ctx, c, VSphereOptions{})
		if err != nil {
			t.Fatalf("loadVSphere failed: %v", err)
		}

		if inv.Source != BackendVSphere || inv.Name == "" {
			t.Errorf("unexpected source/name %q/%q", inv.Source, inv.Name)
		}
		if len(inv.Hosts) == 0 {
			t.Fatal("expected hosts")
		}
		if len(inv.Workloads) == 0 {
			t.Fatal("expected workloads")
		}
		for _, h := range inv.Hosts {
			if h.Capacity.CPU <= 0 || h.Capacity.Memory <= 0 {
				t.Errorf("host %s has no capacity: %+v", h.ID, h.Capacity)
			}
		}

		hosts := make(map[string]bool)
		for _, h := range inv.Hosts {
			hosts[h.ID] = true
		}
		for _, w := range inv.Workloads {
			if w.Demand.CPU <= 0 {
				t.Errorf("vm %s has no cpu demand", w.ID)
			}
			if w.CurrentHost != "" && !hosts[w.CurrentHost] {
				t.Errorf("vm %s runs on unknown host %q", w.ID, w.CurrentHost)
			}
		}
	})
}

func TestLoadVSphere_UnknownDatacenter(t *testing.T) {
	simulator.Test(func(ctx context.Context, c *vim25.Client) {
		if _, err := loadVSphere(ctx, c, VSphereOptions{Datacenter: "nowhere"}); err == nil {
			t.Error("expected error for unknown datacenter")
		}
	})
}

func TestVSphereSource_MissingCredentials(t *testing.T) {
	src := NewVSphereSource(VSphereOptions{Host: "vcenter.lab"}, logrus.New())
	err := src.Ping(context.Background())
	if !errors.Is(err, ErrVSphereCredentials) {
		t.Errorf("expected ErrVSphereCredentials, got %v", err)
	}
	if src.BackendType() != BackendVSphere {
		t.Errorf("unexpected backend type %q", src.BackendType())
	}
}
