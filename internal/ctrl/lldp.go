package ctrl

import (
	"encoding/binary"
	"net"
)

// LLDPMulticast is the IEEE 802.1AB nearest-bridge multicast destination.
var LLDPMulticast = net.HardwareAddr{0x01, 0x80, 0xc2, 0x00, 0x00, 0x0e}

// ControllerMAC is the locally-administered source address this controller
// stamps on frames it originates (LLDP today; nothing else yet).
var ControllerMAC = net.HardwareAddr{0x02, 0x00, 0x00, 0x00, 0x00, 0x01}

const ethertypeLLDP = 0x88cc

const (
	lldpTLVChassisID = 1
	lldpTLVPortID    = 2
	lldpTLVTTL       = 3
	lldpTLVEnd       = 0

	lldpChassisSubtypeLocallyAssigned = 7
	lldpPortSubtypePortNumber         = 5

	lldpTTLSeconds = 120

	minFrameLen = 60
)

func tlvHeader(t uint8, length int) []byte {
	v := (uint16(t) << 9) | uint16(length)
	buf := make([]byte, 2)
	binary.BigEndian.PutUint16(buf, v)
	return buf
}

// buildLLDPFrame constructs the minimal LLDP frame the topology viewer
// injects on every known port: Chassis ID (the 8-byte DPID), Port ID (the
// 2-byte port number), TTL, End, padded to the 60-byte Ethernet minimum.
func buildLLDPFrame(dpid uint64, port uint16) []byte {
	var tlvs []byte

	chassisValue := make([]byte, 9)
	chassisValue[0] = lldpChassisSubtypeLocallyAssigned
	binary.BigEndian.PutUint64(chassisValue[1:9], dpid)
	tlvs = append(tlvs, tlvHeader(lldpTLVChassisID, len(chassisValue))...)
	tlvs = append(tlvs, chassisValue...)

	portValue := make([]byte, 3)
	portValue[0] = lldpPortSubtypePortNumber
	binary.BigEndian.PutUint16(portValue[1:3], port)
	tlvs = append(tlvs, tlvHeader(lldpTLVPortID, len(portValue))...)
	tlvs = append(tlvs, portValue...)

	ttlValue := make([]byte, 2)
	binary.BigEndian.PutUint16(ttlValue, lldpTTLSeconds)
	tlvs = append(tlvs, tlvHeader(lldpTLVTTL, len(ttlValue))...)
	tlvs = append(tlvs, ttlValue...)

	tlvs = append(tlvs, tlvHeader(lldpTLVEnd, 0)...)

	frame := make([]byte, 0, 14+len(tlvs))
	frame = append(frame, LLDPMulticast...)
	frame = append(frame, ControllerMAC...)
	frame = append(frame, byte(ethertypeLLDP>>8), byte(ethertypeLLDP&0xff))
	frame = append(frame, tlvs...)

	for len(frame) < minFrameLen {
		frame = append(frame, 0)
	}
	return frame
}

// parseLLDP extracts the chassis DPID and port number from an inbound LLDP
// frame. ok is false if the frame is too short or not actually an LLDP
// ethertype.
func parseLLDP(frame []byte) (dpid uint64, port uint16, ok bool) {
	if len(frame) < 14 {
		return 0, 0, false
	}
	ethertype := binary.BigEndian.Uint16(frame[12:14])
	if ethertype != ethertypeLLDP {
		return 0, 0, false
	}

	var gotChassis, gotPort bool
	rest := frame[14:]
	for len(rest) >= 2 {
		h := binary.BigEndian.Uint16(rest[0:2])
		t := uint8(h >> 9)
		l := int(h & 0x1ff)
		rest = rest[2:]
		if len(rest) < l {
			break
		}
		value := rest[:l]
		switch t {
		case lldpTLVChassisID:
			if l >= 9 {
				dpid = binary.BigEndian.Uint64(value[1:9])
				gotChassis = true
			}
		case lldpTLVPortID:
			if l >= 3 {
				port = binary.BigEndian.Uint16(value[1:3])
				gotPort = true
			}
		case lldpTLVEnd:
			rest = nil
			continue
		}
		rest = rest[l:]
	}
	return dpid, port, gotChassis && gotPort
}
