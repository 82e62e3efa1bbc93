package actuator

import (
	"testing"
	"time"

	"github.com/hybridsdn/controller/internal/model"
	"github.com/hybridsdn/controller/internal/monitor"
)

type fakeEdges struct{ edges []model.LiveEdge }

func (f fakeEdges) SnapshotEdges() []model.LiveEdge { return f.edges }

type fakeMonitor struct{ latest map[model.EdgeKey]monitor.Sample }

func (f fakeMonitor) Latest() map[model.EdgeKey]monitor.Sample { return f.latest }

type fakeFacade struct {
	portMods []struct {
		swid uint32
		port uint16
		up   bool
	}
	barriered []uint32
	pinned    []struct {
		swid    uint32
		dst     [6]byte
		outPort uint16
	}
}

func (f *fakeFacade) SetPortAdminState(swid uint32, port uint16, up bool) error {
	f.portMods = append(f.portMods, struct {
		swid uint32
		port uint16
		up   bool
	}{swid, port, up})
	return nil
}

func (f *fakeFacade) Barrier(swid uint32) error {
	f.barriered = append(f.barriered, swid)
	return nil
}

func (f *fakeFacade) ApplyPathFlow(swid uint32, dst [6]byte, outPort uint16) error {
	f.pinned = append(f.pinned, struct {
		swid    uint32
		dst     [6]byte
		outPort uint16
	}{swid, dst, outPort})
	return nil
}

func testGraph() model.GraphCaps {
	e12 := model.NewEdgeKey(1, 2)
	return model.GraphCaps{
		Capacity: map[model.EdgeKey]float64{e12: 100},
		SDN:      map[model.EdgeKey]bool{e12: true},
		Power:    map[model.EdgeKey]float64{e12: 10},
	}
}

func testCfg() Config {
	return Config{
		PathsPerPair:   3,
		MaxHops:        10,
		ForecastWindow: 2,
		AlphaMin:       0.3,
		AlphaMax:       0.9,
		Gamma:          1.25,
		Threshold:      100,
		SolverBudget:   time.Second,
		PinFlowRoutes:  true,
	}
}

func TestRunCycleEnactsBetaAndBarriers(t *testing.T) {
	e12 := model.NewEdgeKey(1, 2)
	edges := fakeEdges{edges: []model.LiveEdge{{Key: e12, UPort: 1, VPort: 1}}}
	mon := fakeMonitor{latest: map[model.EdgeKey]monitor.Sample{}}
	facade := &fakeFacade{}

	flows := []model.FlowDemand{{FlowID: 1, S: 1, D: 2, DemandMbps: 50}}
	a := New(facade, edges, mon, testGraph(), flows, testCfg())

	a.RunCycle()

	result := a.LastResult()
	if result.Status == "" {
		t.Fatalf("expected a result to be recorded after a cycle")
	}
	if result.CycleSeq != 1 {
		t.Fatalf("expected cycle sequence 1, got %d", result.CycleSeq)
	}
	if !result.Beta[e12] {
		t.Fatalf("expected the only SDN edge to be activated to serve the flow, got beta=%+v", result.Beta)
	}
	if len(facade.portMods) != 2 {
		t.Fatalf("expected PORT_MOD on both endpoints, got %d calls", len(facade.portMods))
	}
	if len(facade.barriered) != 2 {
		t.Fatalf("expected a barrier per affected switch, got %d", len(facade.barriered))
	}
	if len(facade.pinned) != 1 {
		t.Fatalf("expected the flow's single hop pinned, got %d", len(facade.pinned))
	}
	if facade.pinned[0].swid != 1 || facade.pinned[0].outPort != 1 {
		t.Fatalf("expected the pinned flow-mod on switch 1 out port 1, got %+v", facade.pinned[0])
	}
}

func TestRunCycleSkipsWhenNoLiveEdges(t *testing.T) {
	edges := fakeEdges{}
	mon := fakeMonitor{latest: map[model.EdgeKey]monitor.Sample{}}
	facade := &fakeFacade{}

	a := New(facade, edges, mon, testGraph(), nil, testCfg())
	a.RunCycle()

	if a.LastResult().Status != "" {
		t.Fatalf("expected no result when there are no live edges")
	}
	if len(facade.portMods) != 0 {
		t.Fatalf("expected no port mods when the cycle is skipped")
	}
}

func TestRunCycleSkipsWhenNoCandidatePaths(t *testing.T) {
	e12 := model.NewEdgeKey(1, 2)
	edges := fakeEdges{edges: []model.LiveEdge{{Key: e12, UPort: 1, VPort: 1}}}
	mon := fakeMonitor{latest: map[model.EdgeKey]monitor.Sample{}}
	facade := &fakeFacade{}

	// Flow between nodes with no path in the live graph at all.
	flows := []model.FlowDemand{{FlowID: 1, S: 5, D: 6, DemandMbps: 50}}
	a := New(facade, edges, mon, testGraph(), flows, testCfg())
	a.RunCycle()

	if a.LastResult().Status != "" {
		t.Fatalf("expected no result when no candidate paths exist")
	}
}

func TestHealthTrackerDetectsStuckLoop(t *testing.T) {
	e12 := model.NewEdgeKey(1, 2)
	edges := fakeEdges{edges: []model.LiveEdge{{Key: e12, UPort: 1, VPort: 1}}}
	mon := fakeMonitor{latest: map[model.EdgeKey]monitor.Sample{}}
	facade := &fakeFacade{}
	flows := []model.FlowDemand{{FlowID: 1, S: 1, D: 2, DemandMbps: 50}}
	a := New(facade, edges, mon, testGraph(), flows, testCfg())

	tracker := NewHealthTracker()
	if !tracker.Check(a) {
		t.Fatalf("expected the first check to report healthy")
	}
	if tracker.Check(a) {
		t.Fatalf("expected a second check with no intervening cycle to report stuck")
	}

	a.RunCycle()
	if !tracker.Check(a) {
		t.Fatalf("expected a check after a completed cycle to report healthy")
	}
}
