package ofp

import (
	"encoding/binary"
	"net"
)

// Wildcard bits for ofp_match.wildcards. A set bit means "don't care".
const (
	WildcardInPort uint32 = 1 << 0
	WildcardDLVlan uint32 = 1 << 1
	WildcardDLSrc  uint32 = 1 << 2
	WildcardDLDst  uint32 = 1 << 3
	WildcardDLType uint32 = 1 << 4
	WildcardNWProto uint32 = 1 << 5
	WildcardTPSrc  uint32 = 1 << 6
	WildcardTPDst  uint32 = 1 << 7

	wildcardNWSrcShift = 8
	wildcardNWDstShift = 14

	WildcardDLVlanPCP uint32 = 1 << 20
	WildcardNWTos     uint32 = 1 << 21

	WildcardAll uint32 = (1 << 22) - 1

	// all 32 bits of the address wildcarded (no CIDR prefix matched)
	nwAddrAllBits uint32 = 32
)

// Match is the fixed 40-byte ofp_match structure.
type Match struct {
	Wildcards uint32
	InPort    uint16
	DLSrc     net.HardwareAddr
	DLDst     net.HardwareAddr
	DLVlan    uint16
	DLVlanPCP uint8
	DLType    uint16
	NWTos     uint8
	NWProto   uint8
	NWSrc     net.IP
	NWDst     net.IP
	TPSrc     uint16
	TPDst     uint16
}

// NewWildcardAll returns a match where every field is wildcarded, the
// starting point callers narrow down by clearing specific bits.
func NewWildcardAll() Match {
	return Match{
		Wildcards: WildcardAll | (nwAddrAllBits << wildcardNWSrcShift) | (nwAddrAllBits << wildcardNWDstShift),
		DLSrc:     make(net.HardwareAddr, 6),
		DLDst:     make(net.HardwareAddr, 6),
		NWSrc:     make(net.IP, 4),
		NWDst:     make(net.IP, 4),
	}
}

// ExactMatch builds the (in_port, dl_dst) match the L2 learner installs its
// forwarding rules on: every other field stays wildcarded.
func ExactMatch(inPort uint16, dlDst net.HardwareAddr) Match {
	m := NewWildcardAll()
	m.Wildcards &^= WildcardInPort
	m.Wildcards &^= WildcardDLDst
	m.InPort = inPort
	copy(m.DLDst, dlDst)
	return m
}

// MatchIPv4 builds an IPv4 match: in_port plus source/destination address
// and IP protocol are always constrained; an omitted L4 port (nil) leaves
// its wildcard bit set.
func MatchIPv4(inPort uint16, src, dst net.IP, proto uint8, tpSrc, tpDst *uint16) Match {
	m := NewWildcardAll()
	m.Wildcards &^= WildcardInPort
	m.Wildcards &^= WildcardNWProto
	// Clear the whole 6-bit address wildcard field: a count of 0 means
	// all 32 address bits are matched.
	m.Wildcards &^= 0x3f << wildcardNWSrcShift
	m.Wildcards &^= 0x3f << wildcardNWDstShift
	m.InPort = inPort
	m.NWProto = proto
	copy(m.NWSrc, src.To4())
	copy(m.NWDst, dst.To4())
	m.DLType = 0x0800 // IPv4
	m.Wildcards &^= WildcardDLType

	if tpSrc != nil {
		m.Wildcards &^= WildcardTPSrc
		m.TPSrc = *tpSrc
	}
	if tpDst != nil {
		m.Wildcards &^= WildcardTPDst
		m.TPDst = *tpDst
	}
	return m
}

func (m Match) Marshal() []byte {
	buf := make([]byte, MatchLen)
	binary.BigEndian.PutUint32(buf[0:4], m.Wildcards)
	binary.BigEndian.PutUint16(buf[4:6], m.InPort)
	if len(m.DLSrc) == 6 {
		copy(buf[6:12], m.DLSrc)
	}
	if len(m.DLDst) == 6 {
		copy(buf[12:18], m.DLDst)
	}
	binary.BigEndian.PutUint16(buf[18:20], m.DLVlan)
	buf[20] = m.DLVlanPCP
	// buf[21] pad
	binary.BigEndian.PutUint16(buf[22:24], m.DLType)
	buf[24] = m.NWTos
	buf[25] = m.NWProto
	// buf[26:28] pad
	if ip4 := m.NWSrc.To4(); ip4 != nil {
		copy(buf[28:32], ip4)
	}
	if ip4 := m.NWDst.To4(); ip4 != nil {
		copy(buf[32:36], ip4)
	}
	binary.BigEndian.PutUint16(buf[36:38], m.TPSrc)
	binary.BigEndian.PutUint16(buf[38:40], m.TPDst)
	return buf
}

func UnmarshalMatch(buf []byte) (Match, error) {
	if len(buf) < MatchLen {
		return Match{}, ErrShortRead
	}
	m := Match{
		Wildcards: binary.BigEndian.Uint32(buf[0:4]),
		InPort:    binary.BigEndian.Uint16(buf[4:6]),
		DLSrc:     net.HardwareAddr(append([]byte{}, buf[6:12]...)),
		DLDst:     net.HardwareAddr(append([]byte{}, buf[12:18]...)),
		DLVlan:    binary.BigEndian.Uint16(buf[18:20]),
		DLVlanPCP: buf[20],
		DLType:    binary.BigEndian.Uint16(buf[22:24]),
		NWTos:     buf[24],
		NWProto:   buf[25],
		NWSrc:     net.IP(append([]byte{}, buf[28:32]...)),
		NWDst:     net.IP(append([]byte{}, buf[32:36]...)),
		TPSrc:     binary.BigEndian.Uint16(buf[36:38]),
		TPDst:     binary.BigEndian.Uint16(buf[38:40]),
	}
	return m, nil
}
