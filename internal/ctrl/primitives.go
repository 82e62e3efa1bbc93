package ctrl

import (
	"errors"
	"net"
	"time"

	"github.com/hybridsdn/controller/internal/model"
	"github.com/hybridsdn/controller/ofp"
)

// ErrSwitchNotConnected is returned by every primitive addressing a swid
// the facade no longer (or never) has a live session for.
var ErrSwitchNotConnected = errors.New("ctrl: switch not connected")

// ErrPrimitiveTimeout is returned by the request/reply primitives (barrier,
// stats poll) when the switch never answers within primitiveTimeout.
var ErrPrimitiveTimeout = errors.New("ctrl: primitive timed out waiting for reply")

const primitiveTimeout = 2 * time.Second

func (c *Controller) lockedSwitch(swid uint32) (*switchState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ss, ok := c.switches[swid]
	if !ok {
		return nil, ErrSwitchNotConnected
	}
	return ss, nil
}

// SendLLDP emits the controller's LLDP frame out one port of one switch.
// The topology viewer drives this on its own ticker, once per known
// (swid, port) pair; the facade runs no LLDP timer of its own (DESIGN.md,
// "LLDP ownership").
func (c *Controller) SendLLDP(swid uint32, port uint16) error {
	ss, err := c.lockedSwitch(swid)
	if err != nil {
		return err
	}
	frame := buildLLDPFrame(ss.dpid, port)
	return c.writeTo(ss, ofp.PacketOut{
		BufferID: ofp.NoBufferID,
		InPort:   ofp.PortNone,
		Actions:  []ofp.ActionOutput{{Port: port}},
		Data:     frame,
	})
}

// PacketOut floods or redirects a frame the L2 learner has already decided
// the fate of: either a buffered packet (bufferID != NoBufferID) or a raw
// frame it still holds.
func (c *Controller) PacketOut(swid uint32, bufferID uint32, inPort uint16, outPort uint16, data []byte) error {
	ss, err := c.lockedSwitch(swid)
	if err != nil {
		return err
	}
	po := ofp.PacketOut{
		BufferID: bufferID,
		InPort:   inPort,
		Actions:  []ofp.ActionOutput{{Port: outPort}},
	}
	if bufferID == ofp.NoBufferID {
		po.Data = data
	}
	return c.writeTo(ss, po)
}

// InstallExactFlow pushes the (in_port, dl_dst) forwarding rule the L2
// learner installs once it has learned a destination's port. bufferID is
// carried through from the triggering PACKET_IN so the switch forwards
// that packet itself instead of the controller needing a separate
// PACKET_OUT.
func (c *Controller) InstallExactFlow(swid uint32, inPort uint16, dst [6]byte, outPort uint16, bufferID uint32, priority, idleTimeout uint16) error {
	ss, err := c.lockedSwitch(swid)
	if err != nil {
		return err
	}
	fm := ofp.FlowMod{
		Match:       ofp.ExactMatch(inPort, net.HardwareAddr(dst[:])),
		Command:     ofp.FlowCmdAdd,
		Priority:    priority,
		IdleTimeout: idleTimeout,
		BufferID:    bufferID,
		OutPort:     ofp.PortNone,
		Actions:     []ofp.ActionOutput{{Port: outPort}},
	}
	return c.writeTo(ss, fm)
}

// ApplyPathFlow pushes the destination-only FLOW_MOD the actuator issues
// when config.PlannerPinFlowRoutes is set: match dl_dst, wildcard in_port,
// output on the planner-chosen next hop.
func (c *Controller) ApplyPathFlow(swid uint32, dst [6]byte, outPort uint16) error {
	ss, err := c.lockedSwitch(swid)
	if err != nil {
		return err
	}
	m := ofp.NewWildcardAll()
	m.Wildcards &^= ofp.WildcardDLDst
	copy(m.DLDst, dst[:])

	fm := ofp.FlowMod{
		Match:    m,
		Command:  ofp.FlowCmdModifyStrict,
		BufferID: ofp.NoBufferID,
		OutPort:  ofp.PortNone,
		Actions:  []ofp.ActionOutput{{Port: outPort}},
	}
	return c.writeTo(ss, fm)
}

// SetPortAdminState issues a PORT_MOD, the actuator's mechanism for
// powering a link down or back up between planning cycles.
func (c *Controller) SetPortAdminState(swid uint32, port uint16, up bool) error {
	ss, err := c.lockedSwitch(swid)
	if err != nil {
		return err
	}
	pm := ofp.PortMod{PortNo: port, Mask: ofp.PortConfigPortDown}
	if !up {
		pm.Config = ofp.PortConfigPortDown
	} else {
		pm.Advertise = ofp.PortFeature10GBFD
	}
	return c.writeTo(ss, pm)
}

// Barrier blocks until the switch acknowledges every message the facade
// sent it before this call, or until primitiveTimeout elapses. The
// actuator calls this after a batch of PORT_MOD/FLOW_MOD before trusting
// the new state is live.
func (c *Controller) Barrier(swid uint32) error {
	ss, err := c.lockedSwitch(swid)
	if err != nil {
		return err
	}

	ch := make(chan struct{}, 1)
	c.mu.Lock()
	ss.pendingBarrierCh = ch
	c.mu.Unlock()

	if err := c.writeTo(ss, ofp.BarrierRequest{}); err != nil {
		return err
	}

	select {
	case <-ch:
		return nil
	case <-time.After(primitiveTimeout):
		return ErrPrimitiveTimeout
	case <-ss.closedCh:
		return ErrSwitchNotConnected
	}
}

// PollPortStats issues an OFPST_PORT STATS_REQUEST and blocks for the
// reply, the synchronous call the monitor's sampling loop makes every
// MonitorPeriod once per live edge, against that edge's U switch.
func (c *Controller) PollPortStats(swid uint32) (map[uint16]model.PortCounters, error) {
	ss, err := c.lockedSwitch(swid)
	if err != nil {
		return nil, err
	}

	ch := make(chan []ofp.PortStatsEntry, 1)
	c.mu.Lock()
	ss.pendingStatsCh = ch
	c.mu.Unlock()

	if err := c.writeTo(ss, ofp.StatsRequestPort{PortNo: ofp.PortNone}); err != nil {
		return nil, err
	}

	select {
	case entries := <-ch:
		out := make(map[uint16]model.PortCounters, len(entries))
		for _, e := range entries {
			out[e.PortNo] = model.PortCounters{RXBytes: e.RXBytes, TXBytes: e.TXBytes}
		}
		return out, nil
	case <-time.After(primitiveTimeout):
		return nil, ErrPrimitiveTimeout
	case <-ss.closedCh:
		return nil, ErrSwitchNotConnected
	}
}

// SwitchInfo returns a point-in-time copy of one switch's state.
func (c *Controller) SwitchInfo(swid uint32) (model.SwitchInfo, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ss, ok := c.switches[swid]
	if !ok {
		return model.SwitchInfo{}, false
	}
	return snapshotSwitch(ss), true
}

// Switches returns a snapshot of every currently-connected switch.
func (c *Controller) Switches() []model.SwitchInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]model.SwitchInfo, 0, len(c.switches))
	for _, ss := range c.switches {
		out = append(out, snapshotSwitch(ss))
	}
	return out
}

func snapshotSwitch(ss *switchState) model.SwitchInfo {
	ports := make(map[uint16]*model.Port, len(ss.ports))
	for num, p := range ss.ports {
		cp := *p
		ports[num] = &cp
	}
	return model.SwitchInfo{
		SwID:        ss.swid,
		DPID:        ss.dpid,
		Ports:       ports,
		Connected:   !ss.closed,
		ConnectedAt: ss.connectedAt,
	}
}

// LearnMAC records that mac was last seen arriving on port of swid, the
// L2 learner's sole piece of per-switch state.
func (c *Controller) LearnMAC(swid uint32, mac [6]byte, port uint16) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ss, ok := c.switches[swid]
	if !ok {
		return
	}
	ss.macTable[mac] = port
}

// LookupMAC reports the last-learned port for mac on swid, if any.
func (c *Controller) LookupMAC(swid uint32, mac [6]byte) (uint16, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ss, ok := c.switches[swid]
	if !ok {
		return 0, false
	}
	port, ok := ss.macTable[mac]
	return port, ok
}

// SetLLDPPeriod records the topology viewer's period for status reporting.
// It does not start or retune a timer: the facade has none (DESIGN.md,
// "LLDP ownership").
func (c *Controller) SetLLDPPeriod(d time.Duration) {
	c.mu.Lock()
	c.lldpPeriod = d
	c.mu.Unlock()
}

// SetStatsPeriod records the monitor's sampling period for status
// reporting, for the same reason SetLLDPPeriod does.
func (c *Controller) SetStatsPeriod(d time.Duration) {
	c.mu.Lock()
	c.statsPeriod = d
	c.mu.Unlock()
}
