package actuator

import (
	"testing"

	"github.com/hybridsdn/controller/internal/model"
)

func chainEdges() []model.LiveEdge {
	e12 := model.NewEdgeKey(1, 2)
	e23 := model.NewEdgeKey(2, 3)
	e13 := model.NewEdgeKey(1, 3)
	return []model.LiveEdge{{Key: e12}, {Key: e23}, {Key: e13}}
}

func TestKSimplePathsFindsBothRoutes(t *testing.T) {
	adj := buildAdjacency(chainEdges())
	found := kSimplePaths(adj, 1, 3, 5, 10)
	if len(found) != 2 {
		t.Fatalf("expected 2 simple paths from 1 to 3, got %d: %+v", len(found), found)
	}
	// BFS discovers in non-decreasing length order: the direct edge first,
	// then the two-hop route.
	if len(found[0]) != 1 {
		t.Fatalf("expected the direct edge to be found first, got length %d", len(found[0]))
	}
	if len(found[1]) != 2 {
		t.Fatalf("expected the two-hop route second, got length %d", len(found[1]))
	}
}

func TestKSimplePathsRespectsK(t *testing.T) {
	adj := buildAdjacency(chainEdges())
	found := kSimplePaths(adj, 1, 3, 1, 10)
	if len(found) != 1 {
		t.Fatalf("expected exactly 1 path when k=1, got %d", len(found))
	}
}

func TestKSimplePathsNoRoute(t *testing.T) {
	adj := buildAdjacency([]model.LiveEdge{{Key: model.NewEdgeKey(1, 2)}})
	found := kSimplePaths(adj, 1, 99, 5, 10)
	if len(found) != 0 {
		t.Fatalf("expected no paths to an unreachable node, got %d", len(found))
	}
}

func TestBuildCandidatePathsSharesPathsAcrossFlowsWithSamePair(t *testing.T) {
	edges := chainEdges()
	flows := []model.FlowDemand{
		{FlowID: 1, S: 1, D: 3, DemandMbps: 10},
		{FlowID: 2, S: 3, D: 1, DemandMbps: 5}, // reverse direction, same pair
	}

	paths, out := BuildCandidatePaths(edges, flows, 5, 10)
	if len(paths) != 2 {
		t.Fatalf("expected 2 candidate paths total, got %d", len(paths))
	}
	if len(out[0].CandPathIDs) != 2 || len(out[1].CandPathIDs) != 2 {
		t.Fatalf("expected both flows to share the same 2 candidate path ids, got %+v and %+v",
			out[0].CandPathIDs, out[1].CandPathIDs)
	}
	for i, id := range out[0].CandPathIDs {
		if id != out[1].CandPathIDs[i] {
			t.Fatalf("expected identical candidate path ids across both flows, got %+v vs %+v",
				out[0].CandPathIDs, out[1].CandPathIDs)
		}
	}
}
