package ctrl

// Hooks are the consumer-facing notifications the facade raises: LLDP
// observations feed the topology viewer, packet-ins feed the L2 learner,
// switch up/down feeds whichever components track liveness. They are
// injected function-valued fields, populated once during initialization
// and never replaced during a run.
type Hooks struct {
	OnSwitchUp   func(swid uint32)
	OnSwitchDown func(swid uint32)

	OnPacketIn func(swid uint32, inPort uint16, bufferID uint32, totalLen uint16, frame []byte)

	// OnLLDPObserved reports a confirmed neighbor relationship: the LLDP
	// frame received on (dstSwID, dstPort) claimed origin (srcSwID, srcPort).
	OnLLDPObserved func(srcSwID uint32, srcPort uint16, dstSwID uint32, dstPort uint16)
}

func noopHooks() Hooks {
	return Hooks{
		OnSwitchUp:     func(uint32) {},
		OnSwitchDown:   func(uint32) {},
		OnPacketIn:     func(uint32, uint16, uint32, uint16, []byte) {},
		OnLLDPObserved: func(uint32, uint16, uint32, uint16) {},
	}
}

// SetHooks publishes the callback set. It is single-assignment: calling it
// a second time panics, since the design mandates these fields are set once
// at init and never replaced while running.
func (c *Controller) SetHooks(h Hooks) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.hooksSet {
		panic("ctrl: SetHooks called more than once")
	}
	if h.OnSwitchUp == nil {
		h.OnSwitchUp = func(uint32) {}
	}
	if h.OnSwitchDown == nil {
		h.OnSwitchDown = func(uint32) {}
	}
	if h.OnPacketIn == nil {
		h.OnPacketIn = func(uint32, uint16, uint32, uint16, []byte) {}
	}
	if h.OnLLDPObserved == nil {
		h.OnLLDPObserved = func(uint32, uint16, uint32, uint16) {}
	}
	c.hooks = h
	c.hooksSet = true
}
