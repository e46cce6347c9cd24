package inventory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"sigs.k8s.io/yaml"

	"github.com/guimove/powerfit/internal/model"
)

// FileSource loads an inventory from a JSON or YAML file.
// Used for offline analysis, CI pipelines, and replaying `generate` output.
type FileSource struct {
	path string
}

// NewFileSource creates a source that reads from path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Ping checks that the file exists.
func (f *FileSource) Ping(context.Context) error {
	if _, err := os.Stat(f.path); err != nil {
		return fmt.Errorf("inventory file: %w", err)
	}
	return nil
}

// BackendType returns "file".
func (f *FileSource) BackendType() string { return BackendFile }

// Load parses the file. Missing identifiers are filled in.
func (f *FileSource) Load(context.Context) (*model.Inventory, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("reading inventory file: %w", err)
	}

	inv, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing inventory file %s: %w", f.path, err)
	}
	if inv.Source == "" {
		inv.Source = BackendFile
	}
	if inv.Name == "" {
		inv.Name = strings.TrimSuffix(filepath.Base(f.path), filepath.Ext(f.path))
	}
	return inv, nil
}

// Parse decodes a JSON or YAML inventory document.
func Parse(data []byte) (*model.Inventory, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, ErrEmptyInput
	}

	var inv model.Inventory
	if err := yaml.UnmarshalStrict(data, &inv); err != nil {
		return nil, err
	}
	inv.Normalize()
	return &inv, nil
}

// Marshal encodes an inventory as "json" or "yaml".
func Marshal(inv *model.Inventory, format string) ([]byte, error) {
	switch format {
	case "json":
		return json.MarshalIndent(inv, "", "  ")
	case "yaml", "":
		return yaml.Marshal(inv)
	default:
		return nil, fmt.Errorf("unknown inventory format %q", format)
	}
}

// WriteFile saves an inventory as JSON when path ends in .json, YAML otherwise.
func WriteFile(path string, inv *model.Inventory) error {
	if inv.CollectedAt.IsZero() {
		inv.CollectedAt = time.Now().UTC()
	}

	format := "yaml"
	if strings.EqualFold(filepath.Ext(path), ".json") {
		format = "json"
	}
	data, err := Marshal(inv, format)
	if err != nil {
		return fmt.Errorf("encoding inventory: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing inventory file: %w", err)
	}
	return nil
}
