package placement

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/guimove/powerfit/internal/model"
)

// helper to create a two-dimensional host
func makeHost(id string, cpu, mem, idle, busy float64) model.Host {
	return model.Host{
		ID:        id,
		Capacity:  model.Resources{CPU: cpu, Memory: mem},
		IdleWatts: idle,
		BusyWatts: busy,
	}
}

// helper to create a two-dimensional workload
func makeWorkload(id string, cpu, mem float64) model.Workload {
	return model.Workload{ID: id, Demand: model.Resources{CPU: cpu, Memory: mem}}
}

func TestBFD_SingleWorkloadSingleHost(t *testing.T) {
	inv := model.Inventory{
		Hosts:     []model.Host{makeHost("pm1", 100, 64, 162, 215)},
		Workloads: []model.Workload{makeWorkload("vm1", 10, 8)},
	}

	p, err := (&BestFitDecreasing{}).Place(context.Background(), inv)
	if err != nil {
		t.Fatal(err)
	}
	if p.ActiveHosts != 1 {
		t.Fatalf("expected 1 active host, got %d", p.ActiveHosts)
	}
	if len(p.Unplaced) != 0 {
		t.Fatalf("expected 0 unplaced, got %d", len(p.Unplaced))
	}
}

func TestBFD_OpensLowestIdleHost(t *testing.T) {
	inv := model.Inventory{
		Hosts: []model.Host{
			makeHost("hungry", 100, 64, 200, 260),
			makeHost("frugal", 100, 64, 120, 200),
		},
		Workloads: []model.Workload{makeWorkload("vm1", 30, 8)},
	}

	p, err := (&BestFitDecreasing{}).Place(context.Background(), inv)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]int{1}, p.Assignment); diff != "" {
		t.Errorf("assignment mismatch (-want +got):\n%s", diff)
	}
}

func TestBFD_CPUBound(t *testing.T) {
	inv := model.Inventory{
		Hosts: []model.Host{
			makeHost("pm1", 40, 64, 162, 215),
			makeHost("pm2", 40, 64, 162, 215),
		},
		Workloads: []model.Workload{
			makeWorkload("cpu-hog-1", 30, 4),
			makeWorkload("cpu-hog-2", 30, 4),
		},
	}

	p, err := (&BestFitDecreasing{}).Place(context.Background(), inv)
	if err != nil {
		t.Fatal(err)
	}
	// Each workload needs 30 of 40 CPU, so one per host
	if p.ActiveHosts != 2 {
		t.Fatalf("expected 2 active hosts (CPU bound), got %d", p.ActiveHosts)
	}
}

func TestBFD_MemoryBound(t *testing.T) {
	inv := model.Inventory{
		Hosts: []model.Host{
			makeHost("pm1", 100, 16, 162, 215),
			makeHost("pm2", 100, 16, 162, 215),
		},
		Workloads: []model.Workload{
			makeWorkload("mem-hog-1", 5, 12),
			makeWorkload("mem-hog-2", 5, 12),
		},
	}

	p, err := (&BestFitDecreasing{}).Place(context.Background(), inv)
	if err != nil {
		t.Fatal(err)
	}
	if p.ActiveHosts != 2 {
		t.Fatalf("expected 2 active hosts (memory bound), got %d", p.ActiveHosts)
	}
}

func TestBFD_Unplaceable(t *testing.T) {
	inv := model.Inventory{
		Hosts:     []model.Host{makeHost("pm1", 20, 8, 162, 215)},
		Workloads: []model.Workload{makeWorkload("too-big", 80, 32)},
	}

	p, err := (&BestFitDecreasing{}).Place(context.Background(), inv)
	if err != nil {
		t.Fatal(err)
	}
	if p.ActiveHosts != 0 {
		t.Errorf("expected 0 active hosts, got %d", p.ActiveHosts)
	}
	if diff := cmp.Diff([]string{"too-big"}, p.Unplaced); diff != "" {
		t.Errorf("unplaced mismatch (-want +got):\n%s", diff)
	}
}

func TestBFD_LargestFirstConsolidates(t *testing.T) {
	// First-fit in input order needs 3 hosts; decreasing order needs 2
	inv := makeInventory([]float64{100, 100, 100}, []float64{30, 30, 70, 70})

	ff, err := (&FirstFit{}).Place(context.Background(), inv)
	if err != nil {
		t.Fatal(err)
	}
	bfd, err := (&BestFitDecreasing{}).Place(context.Background(), inv)
	if err != nil {
		t.Fatal(err)
	}

	if ff.ActiveHosts != 3 {
		t.Fatalf("expected first-fit to use 3 hosts, got %d", ff.ActiveHosts)
	}
	if bfd.ActiveHosts != 2 {
		t.Errorf("expected best-fit-decreasing to use 2 hosts, got %d", bfd.ActiveHosts)
	}
	if bfd.TotalPowerWatts >= ff.TotalPowerWatts {
		t.Errorf("expected lower power than first-fit: %v >= %v", bfd.TotalPowerWatts, ff.TotalPowerWatts)
	}
}

func TestBFD_Deterministic(t *testing.T) {
	inv := randomInventory(NewRand(13), 20, 6)

	p1, _ := (&BestFitDecreasing{}).Place(context.Background(), inv)
	p2, _ := (&BestFitDecreasing{}).Place(context.Background(), inv)

	if diff := cmp.Diff(p1.Assignment, p2.Assignment); diff != "" {
		t.Errorf("non-deterministic assignment (-first +second):\n%s", diff)
	}
}

func TestBFD_RespectsCapacity(t *testing.T) {
	rng := NewRand(21)
	for trial := 0; trial < 50; trial++ {
		inv := randomInventory(rng, 15, 5)
		p, err := (&BestFitDecreasing{}).Place(context.Background(), inv)
		if err != nil {
			t.Fatal(err)
		}
		if !p.Feasible {
			t.Fatalf("trial %d: best-fit-decreasing produced an over-capacity host", trial)
		}
	}
}

func TestGreedyPlacers_RejectInvalidInventory(t *testing.T) {
	tests := []struct {
		name string
		inv  model.Inventory
		want error
	}{
		{
			name: "zero CPU host",
			inv: model.Inventory{
				Hosts:     []model.Host{makeHost("pm1", 0, 64, 162, 215)},
				Workloads: []model.Workload{makeWorkload("vm1", 10, 8)},
			},
			want: model.ErrInvalidCapacity,
		},
		{
			name: "no workloads",
			inv:  model.Inventory{Hosts: []model.Host{makeHost("pm1", 100, 64, 162, 215)}},
			want: model.ErrNoWorkloads,
		},
		{
			name: "no hosts",
			inv:  model.Inventory{Workloads: []model.Workload{makeWorkload("vm1", 10, 8)}},
			want: model.ErrNoHosts,
		},
	}

	for _, placer := range []Placer{&FirstFit{}, &BestFitDecreasing{}} {
		for _, tt := range tests {
			t.Run(placer.Name()+"/"+tt.name, func(t *testing.T) {
				p, err := placer.Place(context.Background(), tt.inv)
				if !errors.Is(err, tt.want) {
					t.Errorf("expected %v, got %v", tt.want, err)
				}
				if p != nil {
					t.Errorf("expected no placement, got %+v", p)
				}
			})
		}
	}
}
