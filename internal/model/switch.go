// Package model holds the shared data types owned by the controller facade,
// the topology viewer, the monitor, and the planner. Ownership of each type
// is documented on the owning package, not here: model only defines shape.
package model

import "time"

// Port is a switch's view of one of its physical or virtual interfaces.
type Port struct {
	Number uint16
	Up     bool

	LastRXBytes uint64
	LastTXBytes uint64
	LastSample  time.Time
}

// SwitchInfo is the by-value snapshot the controller facade hands to callers.
// It is always copied out from under the facade lock; mutating it has no
// effect on controller state.
type SwitchInfo struct {
	SwID uint32
	DPID uint64

	Ports map[uint16]*Port

	Connected   bool
	ConnectedAt time.Time
}

// PortCounters is the pared-down reading poll_port_stats returns: just the
// two monotonic byte counters a caller needs to derive a rate from.
type PortCounters struct {
	RXBytes uint64
	TXBytes uint64
}

// PortKey addresses one port of one switch, the controller's native
// granularity before the topology viewer canonicalizes it into a graph edge.
type PortKey struct {
	SwID uint32
	Port uint16
}
