package placement

import (
	"fmt"
	"math"
	"sort"

	"github.com/guimove/powerfit/internal/model"
)

// Warning thresholds.
const (
	HighUtilThreshold = 0.90
	LowUtilThreshold  = 0.30
)

// Scorer computes composite scores for placements and ranks them.
type Scorer struct {
	Weights model.ScoringWeights
}

// NewScorer creates a scorer with the given weights.
func NewScorer(weights model.ScoringWeights) *Scorer {
	return &Scorer{Weights: weights}
}

// RankResults scores and ranks a set of placements of the same inventory.
// Feasible placements always rank ahead of infeasible ones. If baseline is
// non-nil, power comparisons are made against it.
func (s *Scorer) RankResults(results []*model.Placement, baseline *model.Placement) []model.Recommendation {
	if len(results) == 0 {
		return nil
	}

	// Find power bounds for normalization
	minPower, maxPower := results[0].TotalPowerWatts, results[0].TotalPowerWatts
	for _, r := range results[1:] {
		minPower = math.Min(minPower, r.TotalPowerWatts)
		maxPower = math.Max(maxPower, r.TotalPowerWatts)
	}

	recs := make([]model.Recommendation, len(results))
	for i, r := range results {
		recs[i] = s.score(*r, baseline, minPower, maxPower)
	}

	sort.SliceStable(recs, func(i, j int) bool {
		fi, fj := recs[i].Placement.Feasible, recs[j].Placement.Feasible
		if fi != fj {
			return fi
		}
		return recs[i].OverallScore > recs[j].OverallScore
	})

	for i := range recs {
		recs[i].Rank = i + 1
	}
	return recs
}

func (s *Scorer) score(p model.Placement, baseline *model.Placement, minPower, maxPower float64) model.Recommendation {
	rec := model.Recommendation{Placement: p}

	// Power score: 100 = lowest draw, 0 = highest
	if powerRange := maxPower - minPower; powerRange > 0 {
		rec.PowerScore = (1.0 - (p.TotalPowerWatts-minPower)/powerRange) * 100
	} else {
		rec.PowerScore = 100
	}

	if baseline != nil && baseline.TotalPowerWatts > 0 {
		rec.PowerVsBaseline = ((p.TotalPowerWatts - baseline.TotalPowerWatts) / baseline.TotalPowerWatts) * 100
		rec.SavedWatts = baseline.TotalPowerWatts - p.TotalPowerWatts
	}

	rec.ConsolidationScore = math.Min(p.AvgUtilization(), 1.0) * 100
	rec.BalanceScore = p.Fragmentation.ResourceBalanceScore * 100 *
		(1.0 - p.Fragmentation.UnderutilizedHostFraction)

	rec.OverallScore = s.Weights.Power*rec.PowerScore +
		s.Weights.Consolidation*rec.ConsolidationScore +
		s.Weights.Balance*rec.BalanceScore

	// Penalize unplaced workloads
	if len(p.Unplaced) > 0 {
		penalty := math.Min(float64(len(p.Unplaced))*10, 50)
		rec.OverallScore = math.Max(0, rec.OverallScore-penalty)
	}

	rec.Rationale = generateRationale(rec)
	rec.Warnings = generateWarnings(p)
	return rec
}

func generateRationale(rec model.Recommendation) string {
	p := rec.Placement
	rationale := fmt.Sprintf("%s: %d/%d hosts on, %.1fW, avg utilization %.0f%%",
		p.Strategy, p.ActiveHosts, len(p.Hosts), p.TotalPowerWatts, p.AvgUtilization()*100)

	if rec.SavedWatts > 0 {
		rationale += fmt.Sprintf(" (%.1fW saved, %.1f%%)", rec.SavedWatts, -rec.PowerVsBaseline)
	}
	return rationale
}

func generateWarnings(p model.Placement) []string {
	var warnings []string

	if !p.Feasible {
		var over int
		for i := range p.Hosts {
			if p.Hosts[i].Overloaded() {
				over++
			}
		}
		warnings = append(warnings, fmt.Sprintf("infeasible: %d hosts over capacity", over))
	}

	if len(p.Unplaced) > 0 {
		warnings = append(warnings, fmt.Sprintf("%d workloads could not be placed", len(p.Unplaced)))
	}

	if p.AvgUtilization() > HighUtilThreshold {
		warnings = append(warnings, "High utilization leaves little headroom on active hosts")
	}

	if p.Fragmentation.UnderutilizedHostFraction > LowUtilThreshold {
		warnings = append(warnings,
			fmt.Sprintf("%.0f%% of active hosts are below 50%% utilization",
				p.Fragmentation.UnderutilizedHostFraction*100))
	}
	return warnings
}
