package planner

import (
	"testing"

	"github.com/hybridsdn/controller/internal/model"
	"github.com/hybridsdn/controller/internal/solver"
)

func toyGraph() model.GraphCaps {
	e12 := model.NewEdgeKey(1, 2)
	e23 := model.NewEdgeKey(2, 3)
	e13 := model.NewEdgeKey(1, 3)
	return model.GraphCaps{
		Capacity: map[model.EdgeKey]float64{e12: 100, e23: 100, e13: 50},
		SDN:      map[model.EdgeKey]bool{e12: true, e23: true, e13: false},
		Power:    map[model.EdgeKey]float64{e12: 10, e23: 10, e13: 5},
	}
}

func toyPaths() map[int]model.Path {
	e12 := model.NewEdgeKey(1, 2)
	e23 := model.NewEdgeKey(2, 3)
	e13 := model.NewEdgeKey(1, 3)
	return map[int]model.Path{
		1: {PathID: 1, S: 1, D: 3, Edges: []model.EdgeKey{e12, e23}},
		2: {PathID: 2, S: 1, D: 3, Edges: []model.EdgeKey{e13}},
	}
}

func TestPlanPrefersSDNPathUnderLoadWeight(t *testing.T) {
	in := Input{
		Graph: toyGraph(),
		Paths: toyPaths(),
		Flows: []model.FlowDemand{
			{FlowID: 1, S: 1, D: 3, DemandMbps: 80, CandPathIDs: []int{1, 2}},
		},
		EWr: 0,
		LWr: 1,
	}

	result, err := Plan(in, solver.BranchAndBound{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != model.StatusOptimal {
		t.Fatalf("expected optimal, got %v", result.Status)
	}
	if result.ChosenPath[1] != 1 {
		t.Fatalf("expected flow 1 to take path 1 (1-2-3), got path %d", result.ChosenPath[1])
	}

	e12 := model.NewEdgeKey(1, 2)
	e23 := model.NewEdgeKey(2, 3)
	e13 := model.NewEdgeKey(1, 3)

	if !result.Beta[e12] || !result.Beta[e23] {
		t.Fatalf("expected both SDN edges active, got beta=%+v", result.Beta)
	}
	if result.LoadMbps[e12] != 80 || result.LoadMbps[e23] != 80 {
		t.Fatalf("expected 80 Mbps load on both SDN edges, got %+v", result.LoadMbps)
	}
	if result.LoadMbps[e13] != 0 {
		t.Fatalf("expected zero load on the unused legacy edge, got %v", result.LoadMbps[e13])
	}
}

func TestPlanPrefersLegacyPathUnderEnergyWeight(t *testing.T) {
	in := Input{
		Graph: toyGraph(),
		Paths: toyPaths(),
		Flows: []model.FlowDemand{
			{FlowID: 1, S: 1, D: 3, DemandMbps: 20, CandPathIDs: []int{1, 2}},
		},
		EWr: 1,
		LWr: 0,
	}

	result, err := Plan(in, solver.BranchAndBound{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != model.StatusOptimal {
		t.Fatalf("expected optimal, got %v", result.Status)
	}
	if result.ChosenPath[1] != 2 {
		t.Fatalf("expected flow 1 to take the legacy path (id 2), got path %d", result.ChosenPath[1])
	}

	e13 := model.NewEdgeKey(1, 3)
	if result.LoadMbps[e13] != 20 {
		t.Fatalf("expected 20 Mbps load on the legacy edge, got %v", result.LoadMbps[e13])
	}
}
