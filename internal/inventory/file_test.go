package inventory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/guimove/powerfit/internal/model"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFileSource_YAML(t *testing.T) {
	path := writeTemp(t, "lab.yaml", `
workloads:
  - demand: {cpu: 20}
  - id: web
    demand: {cpu: 40}
hosts:
  - capacity: {cpu: 100}
    idle_watts: 120
    busy_watts: 200
  - id: big
    capacity: {cpu: 200}
`)

	src := NewFileSource(path)
	if err := src.Ping(context.Background()); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}

	inv, err := src.Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if inv.Name != "lab" || inv.Source != BackendFile {
		t.Errorf("unexpected name/source: %q/%q", inv.Name, inv.Source)
	}
	if inv.Workloads[0].ID != "VM1" || inv.Workloads[1].ID != "web" {
		t.Errorf("unexpected workload ids: %q, %q", inv.Workloads[0].ID, inv.Workloads[1].ID)
	}
	if inv.Hosts[0].ID != "PM1" || inv.Hosts[0].IdleWatts != 120 || inv.Hosts[1].BusyWatts != 0 {
		t.Errorf("unexpected hosts: %+v", inv.Hosts)
	}
	if inv.Dimensions() != 1 {
		t.Errorf("expected 1 dimension, got %d", inv.Dimensions())
	}
}

func TestFileSource_JSON(t *testing.T) {
	path := writeTemp(t, "lab.json", `{
		"name": "rack-7",
		"workloads": [{"id": "a", "demand": {"cpu": 2, "memory": 4096}}],
		"hosts": [{"id": "h", "capacity": {"cpu": 16, "memory": 65536}}]
	}`)

	inv, err := NewFileSource(path).Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if inv.Name != "rack-7" {
		t.Errorf("expected name from file, got %q", inv.Name)
	}
	if inv.Dimensions() != 2 {
		t.Errorf("expected 2 dimensions, got %d", inv.Dimensions())
	}
}

func TestFileSource_UnknownField(t *testing.T) {
	path := writeTemp(t, "bad.yaml", "workloads:\n  - demand: {cpus: 2}\n")
	if _, err := NewFileSource(path).Load(context.Background()); err == nil {
		t.Error("expected error for unknown field")
	}
}

func TestFileSource_Empty(t *testing.T) {
	path := writeTemp(t, "empty.yaml", "  \n")
	_, err := NewFileSource(path).Load(context.Background())
	if !errors.Is(err, ErrEmptyInput) {
		t.Errorf("expected ErrEmptyInput, got %v", err)
	}
}

func TestFileSource_NotFound(t *testing.T) {
	src := NewFileSource("/nonexistent/inventory.yaml")
	if err := src.Ping(context.Background()); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := src.Load(context.Background()); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestWriteFile_RoundTrip(t *testing.T) {
	inv := &model.Inventory{
		Name: "round-trip",
		Workloads: []model.Workload{
			{ID: "VM1", Demand: model.Resources{CPU: 12, Memory: 8}},
			{ID: "VM2", Demand: model.Resources{CPU: 7, Memory: 2}},
		},
		Hosts: []model.Host{
			{ID: "PM1", Capacity: model.Resources{CPU: 48, Memory: 64}, IdleWatts: 150, BusyWatts: 230},
		},
	}

	for _, name := range []string{"inv.yaml", "inv.json"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			if err := WriteFile(path, inv); err != nil {
				t.Fatal(err)
			}

			got, err := NewFileSource(path).Load(context.Background())
			if err != nil {
				t.Fatal(err)
			}
			opts := cmpopts.IgnoreFields(model.Inventory{}, "CollectedAt", "Source")
			if diff := cmp.Diff(*inv, *got, opts); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
			if !got.CollectedAt.Equal(inv.CollectedAt) {
				t.Errorf("collected_at changed: %v -> %v", inv.CollectedAt, got.CollectedAt)
			}
		})
	}
}

func TestMarshal_UnknownFormat(t *testing.T) {
	if _, err := Marshal(&model.Inventory{}, "toml"); err == nil {
		t.Error("expected error for unknown format")
	}
}
