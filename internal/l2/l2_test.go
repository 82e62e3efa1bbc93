package l2

import (
	"testing"

	"github.com/hybridsdn/controller/ofp"
)

type fakeFacade struct {
	mac map[[6]byte]uint16

	installedOutPort uint16
	installed        bool

	floodedOutPort uint16
	flooded        bool
}

func newFakeFacade() *fakeFacade {
	return &fakeFacade{mac: make(map[[6]byte]uint16)}
}

func (f *fakeFacade) LearnMAC(swid uint32, mac [6]byte, port uint16) {
	f.mac[mac] = port
}

func (f *fakeFacade) LookupMAC(swid uint32, mac [6]byte) (uint16, bool) {
	p, ok := f.mac[mac]
	return p, ok
}

func (f *fakeFacade) InstallExactFlow(swid uint32, inPort uint16, dst [6]byte, outPort uint16, bufferID uint32, priority, idleTimeout uint16) error {
	f.installed = true
	f.installedOutPort = outPort
	return nil
}

func (f *fakeFacade) PacketOut(swid uint32, bufferID uint32, inPort uint16, outPort uint16, data []byte) error {
	f.flooded = true
	f.floodedOutPort = outPort
	return nil
}

func frameWith(dst, src [6]byte) []byte {
	frame := make([]byte, 14)
	copy(frame[0:6], dst[:])
	copy(frame[6:12], src[:])
	return frame
}

func TestHandlePacketInFloodsUnknownDestination(t *testing.T) {
	f := newFakeFacade()
	l := New(f)

	dst := [6]byte{1, 1, 1, 1, 1, 1}
	src := [6]byte{2, 2, 2, 2, 2, 2}
	frame := frameWith(dst, src)

	l.HandlePacketIn(1, 3, ofp.NoBufferID, uint16(len(frame)), frame)

	if !f.flooded || f.floodedOutPort != ofp.PortFlood {
		t.Fatalf("expected flood, got installed=%v flooded=%v", f.installed, f.flooded)
	}
	if port, ok := f.LookupMAC(1, src); !ok || port != 3 {
		t.Fatalf("source not learned: %v %v", port, ok)
	}
}

func TestHandlePacketInInstallsFlowForKnownDestination(t *testing.T) {
	f := newFakeFacade()
	l := New(f)

	dst := [6]byte{1, 1, 1, 1, 1, 1}
	src := [6]byte{2, 2, 2, 2, 2, 2}
	f.LearnMAC(1, dst, 5)

	frame := frameWith(dst, src)
	l.HandlePacketIn(1, 3, 42, uint16(len(frame)), frame)

	if !f.installed || f.installedOutPort != 5 {
		t.Fatalf("expected flow install to port 5, got installed=%v outPort=%v", f.installed, f.installedOutPort)
	}
	if f.flooded {
		t.Fatalf("should not have flooded")
	}
}

func TestHandlePacketInDropsShortFrame(t *testing.T) {
	f := newFakeFacade()
	l := New(f)
	l.HandlePacketIn(1, 3, ofp.NoBufferID, 10, make([]byte, 10))
	if f.installed || f.flooded {
		t.Fatalf("short frame should be silently dropped")
	}
}
