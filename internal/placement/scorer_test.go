package placement

import (
	"testing"

	"github.com/guimove/powerfit/internal/model"
)

func makePlacement(strategy string, power float64, feasible bool, utils ...float64) *model.Placement {
	p := &model.Placement{
		Strategy:        strategy,
		TotalPowerWatts: power,
		Feasible:        feasible,
		Fragmentation:   model.FragmentationReport{ResourceBalanceScore: 1.0},
	}
	for _, u := range utils {
		p.Hosts = append(p.Hosts, model.HostReport{
			Capacity:    model.Resources{CPU: 100},
			Usage:       model.Resources{CPU: u * 100},
			Utilization: u,
		})
		if u > 0 {
			p.ActiveHosts++
		}
	}
	return p
}

func TestScorer_LowestPowerWins(t *testing.T) {
	scorer := NewScorer(model.ScoringWeights{Power: 1.0})

	results := []*model.Placement{
		makePlacement("a", 500, true, 0.5, 0.5),
		makePlacement("b", 300, true, 0.9, 0),
		makePlacement("c", 400, true, 0.6, 0.2),
	}

	recs := scorer.RankResults(results, nil)

	if recs[0].Placement.Strategy != "b" {
		t.Errorf("lowest power should rank first, got %s", recs[0].Placement.Strategy)
	}
	if recs[0].Rank != 1 || recs[2].Rank != 3 {
		t.Errorf("expected ranks 1..3, got %d..%d", recs[0].Rank, recs[2].Rank)
	}
	if recs[0].PowerScore != 100 || recs[2].PowerScore != 0 {
		t.Errorf("expected power scores 100 and 0, got %v and %v", recs[0].PowerScore, recs[2].PowerScore)
	}
}

func TestScorer_FeasibleRanksFirst(t *testing.T) {
	scorer := NewScorer(model.DefaultScoringWeights())

	results := []*model.Placement{
		makePlacement("cheap-but-overloaded", 200, false, 1.4, 0),
		makePlacement("valid", 400, true, 0.7, 0.7),
	}

	recs := scorer.RankResults(results, nil)
	if recs[0].Placement.Strategy != "valid" {
		t.Errorf("feasible placement should rank first, got %s", recs[0].Placement.Strategy)
	}
	if len(recs[1].Warnings) == 0 {
		t.Error("expected a warning on the infeasible placement")
	}
}

func TestScorer_BaselineComparison(t *testing.T) {
	scorer := NewScorer(model.DefaultScoringWeights())

	baseline := makePlacement("first-fit", 400, true, 1.0, 0.4)
	results := []*model.Placement{
		makePlacement("firefly", 300, true, 0.9, 0),
	}

	recs := scorer.RankResults(results, baseline)

	if recs[0].SavedWatts != 100 {
		t.Errorf("expected 100W saved, got %v", recs[0].SavedWatts)
	}
	if recs[0].PowerVsBaseline != -25 {
		t.Errorf("expected -25%% vs baseline, got %v", recs[0].PowerVsBaseline)
	}
	if recs[0].Rationale == "" {
		t.Error("expected a rationale")
	}
}

func TestScorer_UnplacedPenalty(t *testing.T) {
	scorer := NewScorer(model.ScoringWeights{Power: 1.0})

	placed := makePlacement("placed", 300, true, 0.6)
	dropped := makePlacement("dropped", 300, true, 0.6)
	dropped.Unplaced = []string{"vm1", "vm2"}

	recs := scorer.RankResults([]*model.Placement{dropped, placed}, nil)
	if recs[0].Placement.Strategy != "placed" {
		t.Errorf("placement without unplaced workloads should win, got %s", recs[0].Placement.Strategy)
	}
	if recs[1].OverallScore != 80 {
		t.Errorf("expected 100-20 = 80, got %v", recs[1].OverallScore)
	}
}

func TestScorer_Empty(t *testing.T) {
	if recs := NewScorer(model.DefaultScoringWeights()).RankResults(nil, nil); recs != nil {
		t.Errorf("expected nil, got %v", recs)
	}
}
