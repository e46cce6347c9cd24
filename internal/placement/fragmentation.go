package placement

import (
	"math"

	"github.com/guimove/powerfit/internal/model"
)

// Fragmentation thresholds on per-dimension utilization.
const (
	nearlyFullThreshold = 0.85
	underusedThreshold  = 0.50
)

// AnalyzeFragmentation computes waste patterns over the active hosts of a placement.
// Stranded resources and balance only apply to two-dimensional hosts.
func AnalyzeFragmentation(hosts []model.HostReport) model.FragmentationReport {
	report := model.FragmentationReport{ResourceBalanceScore: 1.0}

	var active, underutilized, balanced int
	var balance float64

	for i := range hosts {
		hr := &hosts[i]
		if !hr.Active() || hr.Capacity.CPU == 0 {
			continue
		}
		active++

		if hr.Utilization < underusedThreshold {
			underutilized++
		}

		if hr.Capacity.Memory == 0 {
			continue
		}
		cpuUtil := hr.Usage.CPU / hr.Capacity.CPU
		memUtil := hr.Usage.Memory / hr.Capacity.Memory

		// Stranded resources: one dimension nearly full, other underused
		if cpuUtil > nearlyFullThreshold && memUtil < underusedThreshold {
			report.StrandedMemory += hr.MemWaste()
		}
		if memUtil > nearlyFullThreshold && cpuUtil < underusedThreshold {
			report.StrandedCPU += hr.CPUWaste()
		}

		balance += 1.0 - math.Min(1, math.Abs(cpuUtil-memUtil))
		balanced++
	}

	if active > 0 {
		report.UnderutilizedHostFraction = float64(underutilized) / float64(active)
	}
	if balanced > 0 {
		report.ResourceBalanceScore = balance / float64(balanced)
	}
	return report
}
