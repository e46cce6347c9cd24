package report

import (
	"fmt"
	"io"

	"github.com/guimove/powerfit/internal/model"
)

// WriteInventory prints the workloads and hosts of an inventory as tables.
func WriteInventory(w io.Writer, inv model.Inventory) {
	dims := inv.Dimensions()

	fmt.Fprintf(w, "Inventory: %s (%s)\n", inv.Name, inv.Source)
	fmt.Fprintf(w, "Workloads: %d | Hosts: %d | Dimensions: %d\n\n", len(inv.Workloads), len(inv.Hosts), dims)

	workloads := newTable("Workload", "Demand", "Group", "Current host")
	for _, wl := range inv.Workloads {
		workloads.Row(wl.ID, resources(wl.Demand, dims), wl.Group, wl.CurrentHost)
	}
	fmt.Fprintln(w, workloads.Render())

	hosts := newTable("Host", "Capacity", "Idle (W)", "Busy (W)", "Kind")
	for _, h := range inv.Hosts {
		hosts.Row(h.ID, resources(h.Capacity, dims), fmt.Sprintf("%g", h.IdleWatts), fmt.Sprintf("%g", h.BusyWatts), h.Kind)
	}
	fmt.Fprintln(w, hosts.Render())

	demand, capacity := inv.TotalDemand(), inv.TotalCapacity()
	fmt.Fprintf(w, "\nTotal demand: %s | Total capacity: %s\n", resources(demand, dims), resources(capacity, dims))
}
