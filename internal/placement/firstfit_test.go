package placement

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFirstFit_InputOrder(t *testing.T) {
	inv := makeInventory([]float64{100, 100}, []float64{20, 40, 40, 40})

	p, err := (&FirstFit{}).Place(context.Background(), inv)
	if err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff([]int{0, 0, 0, 1}, p.Assignment); diff != "" {
		t.Errorf("assignment mismatch (-want +got):\n%s", diff)
	}
	if len(p.Unplaced) != 0 {
		t.Errorf("expected no unplaced workloads, got %v", p.Unplaced)
	}
	if !approxEqual(p.Hosts[0].Usage.CPU, 100) || !approxEqual(p.Hosts[1].Usage.CPU, 40) {
		t.Errorf("unexpected usage: %v / %v", p.Hosts[0].Usage, p.Hosts[1].Usage)
	}
	if !approxEqual(p.TotalPowerWatts, 398.2) {
		t.Errorf("expected 398.2W, got %v", p.TotalPowerWatts)
	}
}

func TestFirstFit_Unplaceable(t *testing.T) {
	inv := makeInventory([]float64{10}, []float64{20})

	p, err := (&FirstFit{}).Place(context.Background(), inv)
	if err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff([]string{"VM1"}, p.Unplaced); diff != "" {
		t.Errorf("unplaced mismatch (-want +got):\n%s", diff)
	}
	if p.Hosts[0].Usage.CPU != 0 {
		t.Errorf("expected zero usage, got %v", p.Hosts[0].Usage.CPU)
	}
	if p.TotalPowerWatts != 0 {
		t.Errorf("expected 0W, got %v", p.TotalPowerWatts)
	}
	if !p.Feasible {
		t.Error("unplaced workloads do not make the placement infeasible")
	}
}

func TestFirstFitAssign_SkipsUnplacedCapacity(t *testing.T) {
	// 80 fits nowhere, 30 still goes on host0
	inv := makeInventory([]float64{50, 50}, []float64{30, 80, 15, 30})
	a, unplaced := FirstFitAssign(inv)

	if diff := cmp.Diff(Assignment{0, Unplaced, 0, 1}, a); diff != "" {
		t.Errorf("assignment mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{1}, unplaced); diff != "" {
		t.Errorf("unplaced mismatch (-want +got):\n%s", diff)
	}
}

func TestFirstFit_Deterministic(t *testing.T) {
	inv := randomInventory(NewRand(3), 30, 8)
	a1, _ := FirstFitAssign(inv)
	a2, _ := FirstFitAssign(inv)
	if diff := cmp.Diff(a1, a2); diff != "" {
		t.Errorf("first-fit not deterministic (-first +second):\n%s", diff)
	}
}

func TestFirstFit_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := (&FirstFit{}).Place(ctx, makeInventory([]float64{100}, []float64{10}))
	if err == nil {
		t.Error("expected error for cancelled context")
	}
}
