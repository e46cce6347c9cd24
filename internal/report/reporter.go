package report

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/guimove/powerfit/internal/model"
)

var ErrUnknownFormat = errors.New("unknown output format")

// Output formats.
const (
	FormatTable    = "table"
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
	FormatCSV      = "csv"
	FormatChart    = "chart"
)

// Formats lists every supported output format.
var Formats = []string{FormatTable, FormatJSON, FormatMarkdown, FormatCSV, FormatChart}

// Reporter formats and writes recommendations to an output destination.
type Reporter interface {
	Report(ctx context.Context, recs []model.Recommendation, meta ReportMeta) error
}

// ReportMeta contains contextual metadata for the report.
type ReportMeta struct {
	InventoryName string    `json:"inventory_name,omitempty"`
	Source        string    `json:"source,omitempty"`
	CollectedAt   time.Time `json:"collected_at,omitempty"`
	Command       string    `json:"command"`
	Workloads     int       `json:"workloads"`
	Hosts         int       `json:"hosts"`
	Dimensions    int       `json:"dimensions"`
	Seed          uint64    `json:"seed,omitempty"`
	UpdateMode    string    `json:"update_mode,omitempty"`

	// Workload demands and host power, needed by the CSV export
	Inventory model.Inventory `json:"-"`
}

// NewMeta fills the counters of a ReportMeta from an inventory.
func NewMeta(command string, inv model.Inventory) ReportMeta {
	return ReportMeta{
		InventoryName: inv.Name,
		Source:        inv.Source,
		CollectedAt:   inv.CollectedAt,
		Command:       command,
		Workloads:     len(inv.Workloads),
		Hosts:         len(inv.Hosts),
		Dimensions:    inv.Dimensions(),
		Inventory:     inv,
	}
}

// NewReporter creates a reporter for the given format writing to w.
func NewReporter(format string, w io.Writer) (Reporter, error) {
	switch format {
	case FormatTable, "":
		return &TableReporter{w: w}, nil
	case FormatJSON:
		return &JSONReporter{w: w}, nil
	case FormatMarkdown:
		return &MarkdownReporter{w: w}, nil
	case FormatCSV:
		return &CSVReporter{w: w}, nil
	case FormatChart:
		return &ChartReporter{w: w}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

func feasibility(p model.Placement) string {
	if p.Feasible {
		return "yes"
	}
	return "NO"
}

func resources(r model.Resources, dims int) string {
	if dims < 2 {
		return fmt.Sprintf("%g", r.CPU)
	}
	return fmt.Sprintf("%g / %g", r.CPU, r.Memory)
}
