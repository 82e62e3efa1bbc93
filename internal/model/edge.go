package model

import (
	"fmt"
	"time"
)

// NodeID is a graph node identity. By default it equals a switch's swid; a
// mapper function may translate between the two (see internal/topology).
type NodeID int

// EdgeKey is a canonical undirected edge identity: U is always the smaller
// node ID. It deliberately carries no port information, so the same logical
// edge keys the static capacity/SDN/power maps and the live topology even
// when the two disagree on which physical port sits at each end.
type EdgeKey struct {
	U, V NodeID
}

// MarshalText renders an EdgeKey as "u-v", letting it serve as a JSON
// object key (encoding/json only accepts string-keyed or TextMarshaler-keyed
// maps) for the PlanResult the HTTP status surface serves at /state.
func (k EdgeKey) MarshalText() ([]byte, error) {
	return []byte(fmt.Sprintf("%d-%d", k.U, k.V)), nil
}

// UnmarshalText parses the format MarshalText produces.
func (k *EdgeKey) UnmarshalText(text []byte) error {
	var u, v NodeID
	if _, err := fmt.Sscanf(string(text), "%d-%d", &u, &v); err != nil {
		return fmt.Errorf("model: invalid edge key %q: %w", text, err)
	}
	k.U, k.V = u, v
	return nil
}

// NewEdgeKey canonicalizes a node pair into the undirected key with U < V.
// Self-loops (a == b) are the caller's responsibility to reject before
// calling this.
func NewEdgeKey(a, b NodeID) EdgeKey {
	if a < b {
		return EdgeKey{U: a, V: b}
	}
	return EdgeKey{U: b, V: a}
}

// CanonicalEdge canonicalizes a directed port observation (a, aPort) ->
// (b, bPort) into the undirected key plus the ports swapped alongside the
// node order, so uPort always names key.U's port and vPort key.V's port.
func CanonicalEdge(a NodeID, aPort uint16, b NodeID, bPort uint16) (key EdgeKey, uPort, vPort uint16) {
	if a < b {
		return EdgeKey{U: a, V: b}, aPort, bPort
	}
	return EdgeKey{U: b, V: a}, bPort, aPort
}

// EdgeAttrs is the static, load-time-fixed payload of a graph edge: the
// capacity/SDN-membership/power-cost facts that never change during a run.
type EdgeAttrs struct {
	CapacityMbps float64
	SDN          bool
	PowerCost    float64 // defaults to 0.1 * CapacityMbps when not provided by the loader
}

// LiveEdge is a topology-viewer entry: the canonical key, the actual
// LLDP-discovered port at each end, and the last time an observation
// refreshed it. UPort/VPort are payload, not part of Key's identity, since
// they come from live discovery and may not match a static graph's declared
// ports for the same edge.
type LiveEdge struct {
	Key      EdgeKey
	UPort    uint16
	VPort    uint16
	LastSeen time.Time
}
