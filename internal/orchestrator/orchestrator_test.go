package orchestrator

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/guimove/powerfit/internal/config"
	"github.com/guimove/powerfit/internal/inventory"
	"github.com/guimove/powerfit/internal/model"
	"github.com/guimove/powerfit/internal/placement"
)

func testInventory() *model.Inventory {
	return &model.Inventory{
		Name: "lab",
		Workloads: []model.Workload{
			{ID: "VM1", Demand: model.Resources{CPU: 20}},
			{ID: "VM2", Demand: model.Resources{CPU: 35}},
			{ID: "VM3", Demand: model.Resources{CPU: 15}},
			{ID: "VM4", Demand: model.Resources{CPU: 10}},
		},
		Hosts: []model.Host{
			{ID: "PM1", Capacity: model.Resources{CPU: 50}},
			{ID: "PM2", Capacity: model.Resources{CPU: 60}},
			{ID: "PM3", Capacity: model.Resources{CPU: 40}},
		},
	}
}

func testOrchestrator(t *testing.T, inv *model.Inventory) (*Orchestrator, *bytes.Buffer, *test.Hook) {
	t.Helper()
	cfg := config.Default()
	cfg.Optimizer.Seed = 7
	cfg.Optimizer.Population = 8
	cfg.Optimizer.Generations = 10
	cfg.Output.Format = "json"

	log, hook := test.NewNullLogger()
	out := &bytes.Buffer{}
	orch := New(inventory.NewStaticSource(inv), cfg, log)
	orch.Writer = out
	return orch, out, hook
}

func TestOrchestrator_Load_AppliesPowerDefaults(t *testing.T) {
	inv := testInventory()
	inv.Hosts[2].IdleWatts, inv.Hosts[2].BusyWatts = 90, 120

	orch, _, _ := testOrchestrator(t, inv)
	got, err := orch.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got.Hosts[0].IdleWatts != 162 || got.Hosts[0].BusyWatts != 215 {
		t.Errorf("default power not applied: %+v", got.Hosts[0])
	}
	if got.Hosts[2].IdleWatts != 90 || got.Hosts[2].BusyWatts != 120 {
		t.Errorf("explicit power overwritten: %+v", got.Hosts[2])
	}
}

func TestOrchestrator_Load_Invalid(t *testing.T) {
	inv := testInventory()
	inv.Hosts = nil

	orch, _, _ := testOrchestrator(t, inv)
	if _, err := orch.Load(context.Background()); !errors.Is(err, model.ErrNoHosts) {
		t.Errorf("expected ErrNoHosts, got %v", err)
	}
}

func TestOrchestrator_Place(t *testing.T) {
	orch, out, _ := testOrchestrator(t, testInventory())

	recs, err := orch.Place(context.Background())
	if err != nil {
		t.Fatalf("Place failed: %v", err)
	}
	if len(recs) != 1 || recs[0].Placement.Strategy != "first-fit" {
		t.Fatalf("unexpected recommendations: %+v", recs)
	}
	if recs[0].PowerVsBaseline != 0 {
		t.Errorf("first-fit against itself should be 0%%, got %v", recs[0].PowerVsBaseline)
	}
	if !strings.Contains(out.String(), `"command": "place"`) {
		t.Errorf("report not written:\n%s", out.String())
	}
}

func TestOrchestrator_Optimize(t *testing.T) {
	orch, out, _ := testOrchestrator(t, testInventory())
	orch.Config.Metrics.File = filepath.Join(t.TempDir(), "powerfit.prom")

	recs, err := orch.Optimize(context.Background())
	if err != nil {
		t.Fatalf("Optimize failed: %v", err)
	}

	p := recs[0].Placement
	if p.Strategy != "firefly" || !p.Feasible {
		t.Fatalf("unexpected placement: %+v", p)
	}
	if len(p.History) != orch.Config.Optimizer.Generations+1 {
		t.Errorf("history has %d entries, want %d", len(p.History), orch.Config.Optimizer.Generations+1)
	}
	if recs[0].SavedWatts < 0 {
		t.Errorf("greedy-seeded optimizer lost to first-fit by %vW", -recs[0].SavedWatts)
	}
	if !strings.Contains(out.String(), `"seed": 7`) {
		t.Errorf("seed missing from report:\n%s", out.String())
	}

	data, err := os.ReadFile(orch.Config.Metrics.File)
	if err != nil {
		t.Fatalf("metrics file not written: %v", err)
	}
	if !strings.Contains(string(data), `powerfit_optimizer_generation{inventory="lab"} 10`) {
		t.Errorf("expected generation gauge labelled with the inventory name:\n%s", data)
	}
}

func TestOrchestrator_Compare(t *testing.T) {
	orch, _, _ := testOrchestrator(t, testInventory())
	orch.Config.Optimizer.UpdateMode = placement.UpdateSnapshot

	recs, err := orch.Compare(context.Background())
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("expected 3 recommendations, got %d", len(recs))
	}
	for i, rec := range recs {
		if rec.Rank != i+1 {
			t.Errorf("rec %d has rank %d", i, rec.Rank)
		}
	}
	for i := 0; i < len(recs)-1; i++ {
		if recs[i].OverallScore < recs[i+1].OverallScore {
			t.Errorf("recommendations not sorted: score[%d]=%v < score[%d]=%v",
				i, recs[i].OverallScore, i+1, recs[i+1].OverallScore)
		}
	}
}

func TestOrchestrator_WarnsOnOversizedWorkload(t *testing.T) {
	inv := testInventory()
	inv.Workloads = append(inv.Workloads, model.Workload{ID: "huge", Demand: model.Resources{CPU: 80}})

	orch, _, hook := testOrchestrator(t, inv)
	orch.Config.Optimizer.GreedySeed = false

	recs, err := orch.Optimize(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if recs[0].Placement.Feasible {
		t.Error("expected an infeasible placement")
	}

	var warned bool
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel && strings.Contains(e.Message, "infeasible") {
			warned = true
		}
	}
	if !warned {
		t.Error("expected an infeasibility warning")
	}

	hook.Reset()
	if _, err := orch.Place(context.Background()); err != nil {
		t.Fatal(err)
	}
	var unplaced bool
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel && strings.Contains(e.Message, "could not be placed") {
			unplaced = true
		}
	}
	if !unplaced {
		t.Error("expected an unplaced warning")
	}
}
