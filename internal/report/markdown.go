package report

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/guimove/powerfit/internal/model"
)

// MarkdownReporter outputs recommendations as GitHub-flavored markdown.
type MarkdownReporter struct {
	w io.Writer
}

func (r *MarkdownReporter) Report(ctx context.Context, recs []model.Recommendation, meta ReportMeta) error {
	fmt.Fprintf(r.w, "# PowerFit Placement\n\n")
	if meta.InventoryName != "" {
		fmt.Fprintf(r.w, "- **Inventory**: %s (%s)\n", meta.InventoryName, meta.Source)
	}
	fmt.Fprintf(r.w, "- **Workloads**: %d\n", meta.Workloads)
	fmt.Fprintf(r.w, "- **Hosts**: %d\n", meta.Hosts)
	if meta.UpdateMode != "" {
		fmt.Fprintf(r.w, "- **Optimizer**: seed %d, %s updates\n", meta.Seed, meta.UpdateMode)
	}
	fmt.Fprintf(r.w, "\n")

	if len(recs) == 0 {
		fmt.Fprintf(r.w, "No placements available.\n")
		return nil
	}

	fmt.Fprintf(r.w, "## Ranking\n\n")
	fmt.Fprintf(r.w, "| Rank | Strategy | Hosts on | Power (W) | vs first-fit | Feasible | Score |\n")
	fmt.Fprintf(r.w, "|---:|---|---:|---:|---:|---|---:|\n")
	for _, rec := range recs {
		p := rec.Placement
		fmt.Fprintf(r.w, "| %d | %s | %d/%d | %.2f | %+.1f%% | %s | %.1f |\n",
			rec.Rank, p.Strategy, p.ActiveHosts, len(p.Hosts),
			p.TotalPowerWatts, rec.PowerVsBaseline, feasibility(p), rec.OverallScore)
	}

	top := recs[0]
	fmt.Fprintf(r.w, "\n## Best placement: %s\n\n", top.Placement.Strategy)
	fmt.Fprintf(r.w, "%s\n\n", top.Rationale)
	fmt.Fprintf(r.w, "| Host | Capacity | Usage | Util | Power (W) | Workloads |\n")
	fmt.Fprintf(r.w, "|---|---:|---:|---:|---:|---|\n")
	for _, hr := range top.Placement.Hosts {
		fmt.Fprintf(r.w, "| %s | %s | %s | %.1f%% | %.2f | %s |\n",
			hr.HostID, resources(hr.Capacity, meta.Dimensions), resources(hr.Usage, meta.Dimensions),
			hr.Utilization*100, hr.PowerWatts, strings.Join(hr.Workloads, ", "))
	}

	if len(top.Warnings) > 0 {
		fmt.Fprintf(r.w, "\n### Warnings\n\n")
		for _, w := range top.Warnings {
			fmt.Fprintf(r.w, "- %s\n", w)
		}
	}
	return nil
}
