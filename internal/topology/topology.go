// Package topology is the topology viewer: it drives LLDP
// emission, turns LLDP observations into a canonical undirected edge set,
// and expires edges nothing has confirmed recently.
package topology

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/hybridsdn/controller/internal/model"
	"github.com/hybridsdn/controller/logging"
)

var log = logging.Component("topology")

// Facade is the subset of internal/ctrl.Controller the viewer needs: the
// live switch/port inventory to emit LLDP against.
type Facade interface {
	Switches() []model.SwitchInfo
	SendLLDP(swid uint32, port uint16) error
}

// Mapper translates a facade swid into a planner-facing graph node ID.
// The default is identity; a non-injective custom mapper is the caller's
// problem if two swids collide onto the same node.
type Mapper func(swid uint32) model.NodeID

func identityMapper(swid uint32) model.NodeID { return model.NodeID(swid) }

// edgeRecord is the viewer's private per-edge bookkeeping: the live ports
// LLDP most recently reported, and when it last reported them.
type edgeRecord struct {
	uPort, vPort uint16
	lastSeen     time.Time
}

// Viewer owns the live edge set. The zero value is not usable; construct
// with New.
type Viewer struct {
	facade Facade
	mapper Mapper
	expiry time.Duration
	period time.Duration

	mu    sync.Mutex
	edges map[model.EdgeKey]edgeRecord

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// New builds a Viewer. period is how often it re-emits LLDP and sweeps
// expired edges; expiry is how long an edge survives without a fresh LLDP
// confirmation.
func New(facade Facade, period, expiry time.Duration, mapper Mapper) *Viewer {
	if mapper == nil {
		mapper = identityMapper
	}
	return &Viewer{
		facade: facade,
		mapper: mapper,
		expiry: expiry,
		period: period,
		edges:  make(map[model.EdgeKey]edgeRecord),
		stopCh: make(chan struct{}),
	}
}

// Start launches the background loop. The facade does not run an LLDP
// timer of its own, the viewer drives it, matching the original
// implementation's TopoViewer::run (DESIGN.md, "LLDP ownership").
func (v *Viewer) Start() {
	v.wg.Add(1)
	go v.loop()
}

// Stop ends the background loop and waits for it to exit.
func (v *Viewer) Stop() {
	close(v.stopCh)
	v.wg.Wait()
}

func (v *Viewer) loop() {
	defer v.wg.Done()
	ticker := time.NewTicker(v.period)
	defer ticker.Stop()

	for {
		select {
		case <-v.stopCh:
			return
		case <-ticker.C:
			v.emitLLDP()
			v.sweepExpired()
		}
	}
}

func (v *Viewer) emitLLDP() {
	for _, sw := range v.facade.Switches() {
		for _, p := range sw.Ports {
			if err := v.facade.SendLLDP(sw.SwID, p.Number); err != nil {
				log.Warn().Err(err).Uint32("swid", sw.SwID).Uint16("port", p.Number).Msg("lldp send failed")
			}
		}
	}
}

func (v *Viewer) sweepExpired() {
	now := time.Now()
	v.mu.Lock()
	defer v.mu.Unlock()
	for k, rec := range v.edges {
		if now.Sub(rec.lastSeen) > v.expiry {
			delete(v.edges, k)
		}
	}
}

// HandleLLDPObservation is the OnLLDPObserved hook body: it canonicalizes
// the reported (src, dst) pair into an edge, keeps the ports as payload,
// and stamps last_seen = now. Self-loops (same mapped node on both ends)
// are dropped.
func (v *Viewer) HandleLLDPObservation(srcSwID uint32, srcPort uint16, dstSwID uint32, dstPort uint16) {
	a := v.mapper(srcSwID)
	b := v.mapper(dstSwID)
	if a == b {
		return
	}

	key, uPort, vPort := model.CanonicalEdge(a, srcPort, b, dstPort)

	v.mu.Lock()
	v.edges[key] = edgeRecord{uPort: uPort, vPort: vPort, lastSeen: time.Now()}
	v.mu.Unlock()
}

// SnapshotEdges returns every currently-live edge. The planner and the
// HTTP status surface both read this; neither may mutate the viewer's
// internal map, so this always copies.
func (v *Viewer) SnapshotEdges() []model.LiveEdge {
	v.mu.Lock()
	defer v.mu.Unlock()

	out := make([]model.LiveEdge, 0, len(v.edges))
	for k, rec := range v.edges {
		out = append(out, model.LiveEdge{Key: k, UPort: rec.uPort, VPort: rec.vPort, LastSeen: rec.lastSeen})
	}
	return out
}

// DOT renders the current edge set as a Graphviz DOT graph.
func (v *Viewer) DOT() string {
	edges := v.SnapshotEdges()

	var b strings.Builder
	b.WriteString("graph topology {\n")
	for _, e := range edges {
		fmt.Fprintf(&b, "  %d -- %d [uport=%d, vport=%d];\n", e.Key.U, e.Key.V, e.UPort, e.VPort)
	}
	b.WriteString("}\n")
	return b.String()
}
