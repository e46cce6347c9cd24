package report

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/guimove/powerfit/internal/model"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F87171"))
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#334155"))
)

// TableReporter outputs recommendations as a formatted terminal table.
type TableReporter struct {
	w io.Writer
}

func (r *TableReporter) Report(ctx context.Context, recs []model.Recommendation, meta ReportMeta) error {
	fmt.Fprintf(r.w, "\n")
	fmt.Fprintf(r.w, "PowerFit Placement\n")
	fmt.Fprintf(r.w, "%s\n", strings.Repeat("=", 60))
	if meta.InventoryName != "" {
		fmt.Fprintf(r.w, "Inventory:   %s (%s)\n", meta.InventoryName, meta.Source)
	}
	fmt.Fprintf(r.w, "Workloads:   %d\n", meta.Workloads)
	fmt.Fprintf(r.w, "Hosts:       %d\n", meta.Hosts)
	fmt.Fprintf(r.w, "Dimensions:  %d\n", meta.Dimensions)
	if meta.UpdateMode != "" {
		fmt.Fprintf(r.w, "Optimizer:   seed %d, %s updates\n", meta.Seed, meta.UpdateMode)
	}
	fmt.Fprintf(r.w, "%s\n\n", strings.Repeat("=", 60))

	if len(recs) == 0 {
		fmt.Fprintf(r.w, "No placements available.\n")
		return nil
	}

	ranking := newTable("Rank", "Strategy", "Hosts on", "Power (W)", "vs first-fit", "Avg util", "Feasible", "Score")
	for _, rec := range recs {
		p := rec.Placement
		ranking.Row(
			fmt.Sprintf("#%d", rec.Rank),
			p.Strategy,
			fmt.Sprintf("%d/%d", p.ActiveHosts, len(p.Hosts)),
			fmt.Sprintf("%.2f", p.TotalPowerWatts),
			fmt.Sprintf("%+.1f%%", rec.PowerVsBaseline),
			fmt.Sprintf("%.1f%%", p.AvgUtilization()*100),
			feasibility(p),
			fmt.Sprintf("%.1f", rec.OverallScore),
		)
	}
	fmt.Fprintln(r.w, ranking.Render())

	top := recs[0]
	fmt.Fprintf(r.w, "\nBest: %s\n", top.Rationale)

	hosts := newTable("Host", "Capacity", "Usage", "Util", "Power (W)", "Workloads")
	for _, hr := range top.Placement.Hosts {
		hosts.Row(
			hr.HostID,
			resources(hr.Capacity, meta.Dimensions),
			resources(hr.Usage, meta.Dimensions),
			fmt.Sprintf("%.1f%%", hr.Utilization*100),
			fmt.Sprintf("%.2f", hr.PowerWatts),
			strings.Join(hr.Workloads, ", "),
		)
	}
	fmt.Fprintln(r.w, hosts.Render())

	if len(top.Placement.Unplaced) > 0 {
		fmt.Fprintf(r.w, "\n  Unplaced: %s\n", strings.Join(top.Placement.Unplaced, ", "))
	}
	if len(top.Warnings) > 0 {
		fmt.Fprintf(r.w, "\n  Warnings:\n")
		for _, w := range top.Warnings {
			fmt.Fprintf(r.w, "    - %s\n", warnStyle.Render(w))
		}
	}

	fmt.Fprintf(r.w, "\n")
	return nil
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...)
}
