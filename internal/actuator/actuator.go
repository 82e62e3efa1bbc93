// Package actuator is the planning-cycle driver: it generates candidate
// paths from the live graph, runs one planning cycle on a fixed period,
// and enacts the planner's decision as a batch of PORT_MOD/BARRIER calls
// (and, optionally, pinned FLOW_MODs).
package actuator

import (
	"encoding/binary"
	"sync"
	"time"

	"github.com/hybridsdn/controller/internal/forecast"
	"github.com/hybridsdn/controller/internal/model"
	"github.com/hybridsdn/controller/internal/monitor"
	"github.com/hybridsdn/controller/internal/planner"
	"github.com/hybridsdn/controller/internal/solver"
	"github.com/hybridsdn/controller/logging"
)

var log = logging.Component("actuator")

// Facade is the subset of internal/ctrl.Controller the actuator needs to
// enact a plan: bring a port up or down, barrier a switch, and optionally
// pin a flow's forwarding rule.
type Facade interface {
	SetPortAdminState(swid uint32, port uint16, up bool) error
	Barrier(swid uint32) error
	ApplyPathFlow(swid uint32, dst [6]byte, outPort uint16) error
}

// EdgeSource is the subset of internal/topology.Viewer the actuator needs.
type EdgeSource interface {
	SnapshotEdges() []model.LiveEdge
}

// MonitorSource is the subset of internal/monitor.Monitor the actuator
// needs to feed its per-edge history.
type MonitorSource interface {
	Latest() map[model.EdgeKey]monitor.Sample
}

// Config is the actuator's tunable knobs, the PlannerXxx fields of
// config.Config.
type Config struct {
	PathsPerPair   int
	MaxHops        int
	ForecastWindow int
	AlphaMin       float64
	AlphaMax       float64
	Gamma          float64
	Threshold      float64
	SolverBudget   time.Duration
	PinFlowRoutes  bool
}

// Actuator owns one run's static graph, its owned copy of the flow table
// (CandPathIDs repopulated every cycle), the per-edge Mbps history used
// for forecasting, and the most recently enacted plan.
type Actuator struct {
	facade Facade
	edges  EdgeSource
	mon    MonitorSource
	solver solver.Solver
	cfg    Config

	staticGraph model.GraphCaps

	mu      sync.Mutex
	flows   []model.FlowDemand
	history map[model.EdgeKey][]float64
	cycle   uint64
	last    model.PlanResult

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// New builds an Actuator. graph is the full static topology (every
// possible edge's capacity/SDN/power); flows is the initial flow table
// read from the loader.
func New(facade Facade, edges EdgeSource, mon MonitorSource, graph model.GraphCaps, flows []model.FlowDemand, cfg Config) *Actuator {
	return &Actuator{
		facade:      facade,
		edges:       edges,
		mon:         mon,
		solver:      solver.BranchAndBound{},
		cfg:         cfg,
		staticGraph: graph,
		flows:       append([]model.FlowDemand{}, flows...),
		history:     make(map[model.EdgeKey][]float64),
		stopCh:      make(chan struct{}),
	}
}

// Start launches the periodic planning-cycle loop.
func (a *Actuator) Start(period time.Duration) {
	a.wg.Add(1)
	go a.loop(period)
}

// Stop ends the loop and waits for the in-flight cycle, if any, to finish.
func (a *Actuator) Stop() {
	close(a.stopCh)
	a.wg.Wait()
}

func (a *Actuator) loop(period time.Duration) {
	defer a.wg.Done()
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-a.stopCh:
			return
		case <-ticker.C:
			a.RunCycle()
		}
	}
}

// LastResult returns the most recently enacted (or, on an all-failing run,
// zero-value) plan. Safe for concurrent use by the HTTP status surface.
func (a *Actuator) LastResult() model.PlanResult {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.last
}

// RunCycle executes one full planning cycle: snapshot, forecast, solve,
// enact. Any step failing skips the rest of the cycle and leaves the
// previously enacted beta untouched, per the failure semantics the
// planning cycle description calls for.
func (a *Actuator) RunCycle() {
	a.mu.Lock()
	a.cycle++
	seq := a.cycle
	a.mu.Unlock()

	edges := a.edges.SnapshotEdges()
	if len(edges) == 0 {
		log.Warn().Uint64("cycle", seq).Msg("no live edges, skipping cycle")
		return
	}

	graph := a.buildGraphCaps(edges)
	a.appendHistory(edges)
	histories := a.historySnapshot(edges)

	pred := forecast.Batch(histories, a.cfg.ForecastWindow, a.cfg.AlphaMin, a.cfg.AlphaMax)
	ewr, lwr := forecast.WeightsFromPeak(pred.Peak, a.cfg.Threshold, a.cfg.Gamma)

	a.mu.Lock()
	flows := append([]model.FlowDemand{}, a.flows...)
	a.mu.Unlock()

	paths, flows := BuildCandidatePaths(edges, flows, a.cfg.PathsPerPair, a.cfg.MaxHops)
	if len(paths) == 0 {
		log.Warn().Uint64("cycle", seq).Msg("no candidate paths, skipping cycle")
		return
	}

	result, err := planner.Plan(planner.Input{
		Graph:        graph,
		Paths:        paths,
		Flows:        flows,
		EWr:          ewr,
		LWr:          lwr,
		SolverBudget: a.cfg.SolverBudget,
	}, a.solver)
	if err != nil {
		log.Warn().Err(err).Uint64("cycle", seq).Msg("planning failed, preserving current beta")
		return
	}
	if result.Status == model.StatusInfeasible {
		log.Warn().Uint64("cycle", seq).Msg("plan infeasible, preserving current beta")
		return
	}

	result.CycleSeq = seq
	result.ComputedAt = time.Now().UnixNano()

	a.enact(result, paths, edgePortsOf(edges))

	a.mu.Lock()
	a.flows = flows
	a.last = result
	a.mu.Unlock()
}

// edgePort is a live edge's discovered ports, looked up by the port-less
// EdgeKey the planner decides betas and loads against.
type edgePort struct {
	uPort, vPort uint16
}

func edgePortsOf(edges []model.LiveEdge) map[model.EdgeKey]edgePort {
	out := make(map[model.EdgeKey]edgePort, len(edges))
	for _, e := range edges {
		out[e.Key] = edgePort{uPort: e.UPort, vPort: e.VPort}
	}
	return out
}

func (a *Actuator) buildGraphCaps(edges []model.LiveEdge) model.GraphCaps {
	g := model.GraphCaps{
		Capacity: make(map[model.EdgeKey]float64, len(edges)),
		SDN:      make(map[model.EdgeKey]bool, len(edges)),
		Power:    make(map[model.EdgeKey]float64, len(edges)),
	}
	for _, e := range edges {
		cap, ok := a.staticGraph.Capacity[e.Key]
		if !ok {
			continue
		}
		g.Capacity[e.Key] = cap
		g.SDN[e.Key] = a.staticGraph.SDN[e.Key]
		g.Power[e.Key] = a.staticGraph.Power[e.Key]
	}
	return g
}

func (a *Actuator) appendHistory(edges []model.LiveEdge) {
	latest := a.mon.Latest()

	a.mu.Lock()
	defer a.mu.Unlock()
	for _, e := range edges {
		s := latest[e.Key]
		a.history[e.Key] = append(a.history[e.Key], s.RXMbps+s.TXMbps)
	}
}

func (a *Actuator) historySnapshot(edges []model.LiveEdge) map[model.EdgeKey][]float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make(map[model.EdgeKey][]float64, len(edges))
	for _, e := range edges {
		out[e.Key] = append([]float64{}, a.history[e.Key]...)
	}
	return out
}

// enact issues every PORT_MOD and (if configured) pinned FLOW_MOD the plan
// calls for, then barriers every switch that received one of them exactly
// once: each switch's whole batch for this cycle is flushed by a single
// trailing barrier, satisfying "every PORT_MOD/FLOW_MOD is followed by a
// BARRIER before any subsequent control message" without a barrier per
// individual message.
func (a *Actuator) enact(result model.PlanResult, paths map[int]model.Path, ports map[model.EdgeKey]edgePort) {
	affected := make(map[uint32]bool)

	for e, up := range result.Beta {
		p, ok := ports[e]
		if !ok {
			continue
		}
		uSwid, vSwid := uint32(e.U), uint32(e.V)
		if err := a.facade.SetPortAdminState(uSwid, p.uPort, up); err != nil {
			log.Warn().Err(err).Uint32("swid", uSwid).Msg("port mod failed")
		}
		if err := a.facade.SetPortAdminState(vSwid, p.vPort, up); err != nil {
			log.Warn().Err(err).Uint32("swid", vSwid).Msg("port mod failed")
		}
		affected[uSwid] = true
		affected[vSwid] = true
	}

	if a.cfg.PinFlowRoutes {
		a.pinRoutes(result, paths, affected, ports)
	}

	for swid := range affected {
		if err := a.facade.Barrier(swid); err != nil {
			log.Warn().Err(err).Uint32("swid", swid).Msg("barrier failed")
		}
	}
}

func (a *Actuator) pinRoutes(result model.PlanResult, paths map[int]model.Path, affected map[uint32]bool, ports map[model.EdgeKey]edgePort) {
	a.mu.Lock()
	flows := append([]model.FlowDemand{}, a.flows...)
	a.mu.Unlock()

	for _, f := range flows {
		pathID, ok := result.ChosenPath[f.FlowID]
		if !ok {
			continue
		}
		path, ok := paths[pathID]
		if !ok {
			continue
		}

		dst := synthesizeMAC(f.D)
		current := f.S
		edges := path.Edges
		if f.S != path.S {
			edges = reversedEdges(edges)
		}
		for _, e := range edges {
			p, ok := ports[e]
			if !ok {
				continue
			}
			var swid uint32
			var outPort uint16
			var next model.NodeID
			if e.U == current {
				swid, outPort, next = uint32(e.U), p.uPort, e.V
			} else {
				swid, outPort, next = uint32(e.V), p.vPort, e.U
			}
			if err := a.facade.ApplyPathFlow(swid, dst, outPort); err != nil {
				log.Warn().Err(err).Uint32("swid", swid).Msg("pin flow failed")
			}
			affected[swid] = true
			current = next
		}
	}
}

// reversedEdges returns path edges walked tail-to-head. A candidate path is
// built once per canonical (min(s,d), max(s,d)) pair and shared by flows
// running in either direction, so a flow whose S is the pair's D needs its
// edges walked backwards to reach pinRoutes' per-hop direction check in the
// right order.
func reversedEdges(edges []model.EdgeKey) []model.EdgeKey {
	out := make([]model.EdgeKey, len(edges))
	for i, e := range edges {
		out[len(edges)-1-i] = e
	}
	return out
}

// synthesizeMAC derives a locally-administered MAC from a graph node ID.
// The flow file's columns (flow_id, s, d, demand_mbps) carry no MAC, so
// flow pinning needs some deterministic stand-in; a real deployment would
// instead learn each node's genuine MAC from ARP/L2 traffic.
func synthesizeMAC(n model.NodeID) [6]byte {
	var m [6]byte
	m[0] = 0x02
	binary.BigEndian.PutUint32(m[2:6], uint32(n))
	return m
}
