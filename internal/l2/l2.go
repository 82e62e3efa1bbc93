// Package l2 is the L2 learner: a textbook learning switch
// built entirely on the controller facade's primitives. It keeps no state
// of its own, LearnMAC/LookupMAC live on the facade (internal/ctrl) since
// that is where the per-switch lock already lives.
package l2

import (
	"github.com/hybridsdn/controller/logging"
	"github.com/hybridsdn/controller/ofp"
)

var log = logging.Component("l2")

// Facade is the subset of internal/ctrl.Controller the learner needs.
// Spelled out as an interface so tests can fake it without a real socket.
type Facade interface {
	LearnMAC(swid uint32, mac [6]byte, port uint16)
	LookupMAC(swid uint32, mac [6]byte) (uint16, bool)
	InstallExactFlow(swid uint32, inPort uint16, dst [6]byte, outPort uint16, bufferID uint32, priority, idleTimeout uint16) error
	PacketOut(swid uint32, bufferID uint32, inPort uint16, outPort uint16, data []byte) error
}

// Flow parameters for a learned exact-match flow: priority 100, 30s idle
// timeout, no hard timeout.
const (
	flowPriority uint16 = 100
	idleTimeout  uint16 = 30
)

// Learner wires itself to a facade's OnPacketIn hook via HandlePacketIn.
type Learner struct {
	facade Facade
}

// New returns a Learner driving the given facade.
func New(facade Facade) *Learner {
	return &Learner{facade: facade}
}

// HandlePacketIn is the OnPacketIn hook body: learn the source, then
// either install a flow toward a known destination or flood. Frames
// shorter than an Ethernet header (14 bytes) are silently dropped.
func (l *Learner) HandlePacketIn(swid uint32, inPort uint16, bufferID uint32, totalLen uint16, frame []byte) {
	if totalLen < 14 || len(frame) < 14 {
		return
	}

	var dst, src [6]byte
	copy(dst[:], frame[0:6])
	copy(src[:], frame[6:12])

	l.facade.LearnMAC(swid, src, inPort)

	if outPort, known := l.facade.LookupMAC(swid, dst); known && outPort != inPort {
		if err := l.facade.InstallExactFlow(swid, inPort, dst, outPort, bufferID, flowPriority, idleTimeout); err != nil {
			log.Warn().Err(err).Uint32("swid", swid).Msg("flow install failed")
		}
		return
	}

	var data []byte
	if bufferID == ofp.NoBufferID {
		data = frame
	}
	if err := l.facade.PacketOut(swid, bufferID, inPort, ofp.PortFlood, data); err != nil {
		log.Warn().Err(err).Uint32("swid", swid).Msg("flood packet-out failed")
	}
}
