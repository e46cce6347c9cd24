package report

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/guimove/powerfit/internal/model"
)

// CSVReporter exports the best placement as one table: a row per VM with its
// demand and host, a row per PM with capacity, power model, utilization and
// draw, and a closing total row.
type CSVReporter struct {
	w io.Writer
}

var csvHeader = []string{"kind", "id", "cpu", "memory", "host", "idle_watts", "busy_watts", "utilization", "power_watts"}

func (r *CSVReporter) Report(ctx context.Context, recs []model.Recommendation, meta ReportMeta) error {
	if len(recs) == 0 {
		return nil
	}
	p := recs[0].Placement
	inv := meta.Inventory
	if len(inv.Workloads) != len(p.Assignment) || len(inv.Hosts) != len(p.Hosts) {
		return fmt.Errorf("csv export: inventory has %d workloads and %d hosts, placement has %d and %d",
			len(inv.Workloads), len(inv.Hosts), len(p.Assignment), len(p.Hosts))
	}

	cw := csv.NewWriter(r.w)
	rows := [][]string{csvHeader}

	for v, w := range inv.Workloads {
		host := ""
		if h := p.Assignment[v]; h >= 0 && h < len(inv.Hosts) {
			host = inv.Hosts[h].ID
		}
		rows = append(rows, []string{"vm", w.ID, num(w.Demand.CPU), num(w.Demand.Memory), host, "", "", "", ""})
	}

	for h, host := range inv.Hosts {
		hr := p.Hosts[h]
		rows = append(rows, []string{
			"pm", host.ID, num(host.Capacity.CPU), num(host.Capacity.Memory), "",
			num(host.IdleWatts), num(host.BusyWatts), num(hr.Utilization), num(hr.PowerWatts),
		})
	}

	rows = append(rows, []string{"total", p.Strategy, "", "", "", "", "", "", num(p.TotalPowerWatts)})

	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("writing CSV output: %w", err)
	}
	return nil
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
