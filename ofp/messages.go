package ofp

import (
	"encoding/binary"
)

// Message is anything this codec can turn into a wire body. Encode adds the
// 8-byte header in front.
type Message interface {
	Type() uint8
	MarshalBody() []byte
}

// Encode builds a complete wire message: header (with a fresh or caller-
// supplied xid) followed by the body.
func Encode(xid uint32, msg Message) []byte {
	body := msg.MarshalBody()
	h := Header{Version: Version, Type: msg.Type(), Length: uint16(HeaderLen + len(body)), XID: xid}
	return append(h.Marshal(), body...)
}

// ---- Hello ----

type Hello struct{}

func (Hello) Type() uint8          { return TypeHello }
func (Hello) MarshalBody() []byte  { return nil }

// ---- Echo ----

type EchoRequest struct{ Data []byte }

func (EchoRequest) Type() uint8            { return TypeEchoRequest }
func (e EchoRequest) MarshalBody() []byte  { return e.Data }

type EchoReply struct{ Data []byte }

func (EchoReply) Type() uint8           { return TypeEchoReply }
func (e EchoReply) MarshalBody() []byte { return e.Data }

// ---- Features ----

type FeaturesRequest struct{}

func (FeaturesRequest) Type() uint8         { return TypeFeaturesRequest }
func (FeaturesRequest) MarshalBody() []byte { return nil }

const phyPortLen = 48

// PhyPort is one ofp_phy_port entry inside FEATURES_REPLY.
type PhyPort struct {
	PortNo     uint16
	HWAddr     [6]byte
	Name       string
	Config     uint32
	State      uint32
	Curr       uint32
	Advertised uint32
	Supported  uint32
	Peer       uint32
}

func (p PhyPort) marshal() []byte {
	buf := make([]byte, phyPortLen)
	binary.BigEndian.PutUint16(buf[0:2], p.PortNo)
	copy(buf[2:8], p.HWAddr[:])
	copy(buf[8:24], []byte(p.Name))
	binary.BigEndian.PutUint32(buf[24:28], p.Config)
	binary.BigEndian.PutUint32(buf[28:32], p.State)
	binary.BigEndian.PutUint32(buf[32:36], p.Curr)
	binary.BigEndian.PutUint32(buf[36:40], p.Advertised)
	binary.BigEndian.PutUint32(buf[40:44], p.Supported)
	binary.BigEndian.PutUint32(buf[44:48], p.Peer)
	return buf
}

func unmarshalPhyPort(buf []byte) PhyPort {
	p := PhyPort{
		PortNo: binary.BigEndian.Uint16(buf[0:2]),
	}
	copy(p.HWAddr[:], buf[2:8])
	nameEnd := 8
	for nameEnd < 24 && buf[nameEnd] != 0 {
		nameEnd++
	}
	p.Name = string(buf[8:nameEnd])
	p.Config = binary.BigEndian.Uint32(buf[24:28])
	p.State = binary.BigEndian.Uint32(buf[28:32])
	p.Curr = binary.BigEndian.Uint32(buf[32:36])
	p.Advertised = binary.BigEndian.Uint32(buf[36:40])
	p.Supported = binary.BigEndian.Uint32(buf[40:44])
	p.Peer = binary.BigEndian.Uint32(buf[44:48])
	return p
}

// FeaturesReply carries the 64-bit DPID (read whole, never split into
// 32-bit halves) and the switch's port list.
type FeaturesReply struct {
	DatapathID   uint64
	NBuffers     uint32
	NTables      uint8
	Capabilities uint32
	Actions      uint32
	Ports        []PhyPort
}

func (FeaturesReply) Type() uint8 { return TypeFeaturesReply }

func (f FeaturesReply) MarshalBody() []byte {
	buf := make([]byte, 24)
	binary.BigEndian.PutUint64(buf[0:8], f.DatapathID)
	binary.BigEndian.PutUint32(buf[8:12], f.NBuffers)
	buf[12] = f.NTables
	binary.BigEndian.PutUint32(buf[16:20], f.Capabilities)
	binary.BigEndian.PutUint32(buf[20:24], f.Actions)
	for _, p := range f.Ports {
		buf = append(buf, p.marshal()...)
	}
	return buf
}

func UnmarshalFeaturesReply(buf []byte) (FeaturesReply, error) {
	if len(buf) < 24 {
		return FeaturesReply{}, ErrShortRead
	}
	f := FeaturesReply{
		DatapathID:   binary.BigEndian.Uint64(buf[0:8]),
		NBuffers:     binary.BigEndian.Uint32(buf[8:12]),
		NTables:      buf[12],
		Capabilities: binary.BigEndian.Uint32(buf[16:20]),
		Actions:      binary.BigEndian.Uint32(buf[20:24]),
	}
	rest := buf[24:]
	for len(rest) >= phyPortLen {
		f.Ports = append(f.Ports, unmarshalPhyPort(rest[:phyPortLen]))
		rest = rest[phyPortLen:]
	}
	return f, nil
}

// ---- Config ----

type GetConfigRequest struct{}

func (GetConfigRequest) Type() uint8         { return TypeGetConfigRequest }
func (GetConfigRequest) MarshalBody() []byte { return nil }

type SetConfig struct {
	Flags       uint16
	MissSendLen uint16
}

func (SetConfig) Type() uint8 { return TypeSetConfig }

func (c SetConfig) MarshalBody() []byte {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint16(buf[0:2], c.Flags)
	binary.BigEndian.PutUint16(buf[2:4], c.MissSendLen)
	return buf
}

// ---- Packet In/Out ----

// PacketIn carries the frame payload plus the buffer_id the switch will
// later recognize in a matching FLOW_MOD or PACKET_OUT.
type PacketIn struct {
	BufferID uint32
	TotalLen uint16
	InPort   uint16
	Reason   uint8
	Data     []byte
}

func (PacketIn) Type() uint8 { return TypePacketIn }

func (p PacketIn) MarshalBody() []byte {
	buf := make([]byte, 10, 10+len(p.Data))
	binary.BigEndian.PutUint32(buf[0:4], p.BufferID)
	binary.BigEndian.PutUint16(buf[4:6], p.TotalLen)
	binary.BigEndian.PutUint16(buf[6:8], p.InPort)
	buf[8] = p.Reason
	buf = append(buf, p.Data...)
	return buf
}

func UnmarshalPacketIn(buf []byte) (PacketIn, error) {
	if len(buf) < 10 {
		return PacketIn{}, ErrShortRead
	}
	p := PacketIn{
		BufferID: binary.BigEndian.Uint32(buf[0:4]),
		TotalLen: binary.BigEndian.Uint16(buf[4:6]),
		InPort:   binary.BigEndian.Uint16(buf[6:8]),
		Reason:   buf[8],
		Data:     append([]byte{}, buf[10:]...),
	}
	return p, nil
}

// PacketOut mirrors what the L2 learner and the LLDP emitter both send: an
// output action list plus either a buffer_id reference or inline data.
type PacketOut struct {
	BufferID uint32
	InPort   uint16
	Actions  []ActionOutput
	Data     []byte
}

func (PacketOut) Type() uint8 { return TypePacketOut }

func (p PacketOut) MarshalBody() []byte {
	var actionBytes []byte
	for _, a := range p.Actions {
		actionBytes = append(actionBytes, a.Marshal()...)
	}
	buf := make([]byte, 8, 8+len(actionBytes)+len(p.Data))
	binary.BigEndian.PutUint32(buf[0:4], p.BufferID)
	binary.BigEndian.PutUint16(buf[4:6], p.InPort)
	binary.BigEndian.PutUint16(buf[6:8], uint16(len(actionBytes)))
	buf = append(buf, actionBytes...)
	if p.BufferID == NoBufferID {
		buf = append(buf, p.Data...)
	}
	return buf
}

func UnmarshalPacketOut(buf []byte) (PacketOut, error) {
	if len(buf) < 8 {
		return PacketOut{}, ErrShortRead
	}
	p := PacketOut{
		BufferID: binary.BigEndian.Uint32(buf[0:4]),
		InPort:   binary.BigEndian.Uint16(buf[4:6]),
	}
	actionsLen := binary.BigEndian.Uint16(buf[6:8])
	rest := buf[8:]
	if int(actionsLen) > len(rest) {
		return PacketOut{}, ErrShortRead
	}
	actionBuf := rest[:actionsLen]
	for len(actionBuf) >= ActionOutputLen {
		a, err := UnmarshalActionOutput(actionBuf[:ActionOutputLen])
		if err != nil {
			return PacketOut{}, err
		}
		p.Actions = append(p.Actions, a)
		actionBuf = actionBuf[ActionOutputLen:]
	}
	p.Data = append([]byte{}, rest[actionsLen:]...)
	return p, nil
}

// ---- Flow Mod ----

const flowModFixedLen = 64

type FlowMod struct {
	Match       Match
	Cookie      uint64
	Command     uint16
	IdleTimeout uint16
	HardTimeout uint16
	Priority    uint16
	BufferID    uint32
	OutPort     uint16
	Flags       uint16
	Actions     []ActionOutput
}

func (FlowMod) Type() uint8 { return TypeFlowMod }

func (f FlowMod) MarshalBody() []byte {
	buf := make([]byte, flowModFixedLen)
	copy(buf[0:40], f.Match.Marshal())
	binary.BigEndian.PutUint64(buf[40:48], f.Cookie)
	binary.BigEndian.PutUint16(buf[48:50], f.Command)
	binary.BigEndian.PutUint16(buf[50:52], f.IdleTimeout)
	binary.BigEndian.PutUint16(buf[52:54], f.HardTimeout)
	binary.BigEndian.PutUint16(buf[54:56], f.Priority)
	binary.BigEndian.PutUint32(buf[56:60], f.BufferID)
	binary.BigEndian.PutUint16(buf[60:62], f.OutPort)
	binary.BigEndian.PutUint16(buf[62:64], f.Flags)
	for _, a := range f.Actions {
		buf = append(buf, a.Marshal()...)
	}
	return buf
}

// ---- Port Mod ----

const portModLen = 24

type PortMod struct {
	PortNo     uint16
	HWAddr     [6]byte
	Config     uint32
	Mask       uint32
	Advertise  uint32
}

func (PortMod) Type() uint8 { return TypePortMod }

func (p PortMod) MarshalBody() []byte {
	buf := make([]byte, portModLen)
	binary.BigEndian.PutUint16(buf[0:2], p.PortNo)
	copy(buf[2:8], p.HWAddr[:])
	binary.BigEndian.PutUint32(buf[8:12], p.Config)
	binary.BigEndian.PutUint32(buf[12:16], p.Mask)
	binary.BigEndian.PutUint32(buf[16:20], p.Advertise)
	return buf
}

// ---- Stats (port only) ----

type StatsRequestPort struct {
	Flags  uint16
	PortNo uint16
}

func (StatsRequestPort) Type() uint8 { return TypeStatsRequest }

func (s StatsRequestPort) MarshalBody() []byte {
	buf := make([]byte, 4+8)
	binary.BigEndian.PutUint16(buf[0:2], StatsTypePort)
	binary.BigEndian.PutUint16(buf[2:4], s.Flags)
	binary.BigEndian.PutUint16(buf[4:6], s.PortNo)
	return buf
}

const portStatsEntryLen = 104

// PortStatsEntry is one ofp_port_stats record inside an OFPST_PORT reply.
type PortStatsEntry struct {
	PortNo     uint16
	RXPackets  uint64
	TXPackets  uint64
	RXBytes    uint64
	TXBytes    uint64
	RXDropped  uint64
	TXDropped  uint64
	RXErrors   uint64
	TXErrors   uint64
	RXFrameErr uint64
	RXOverErr  uint64
	RXCRCErr   uint64
	Collisions uint64
}

func unmarshalPortStatsEntry(buf []byte) PortStatsEntry {
	u64 := func(off int) uint64 { return binary.BigEndian.Uint64(buf[off : off+8]) }
	return PortStatsEntry{
		PortNo:     binary.BigEndian.Uint16(buf[0:2]),
		RXPackets:  u64(8),
		TXPackets:  u64(16),
		RXBytes:    u64(24),
		TXBytes:    u64(32),
		RXDropped:  u64(40),
		TXDropped:  u64(48),
		RXErrors:   u64(56),
		TXErrors:   u64(64),
		RXFrameErr: u64(72),
		RXOverErr:  u64(80),
		RXCRCErr:   u64(88),
		Collisions: u64(96),
	}
}

// StatsReplyPort is the decoded OFPST_PORT STATS_REPLY body.
type StatsReplyPort struct {
	Flags   uint16
	Entries []PortStatsEntry
}

func UnmarshalStatsReplyPort(buf []byte) (StatsReplyPort, error) {
	if len(buf) < 4 {
		return StatsReplyPort{}, ErrShortRead
	}
	statsType := binary.BigEndian.Uint16(buf[0:2])
	if statsType != StatsTypePort {
		return StatsReplyPort{}, ErrShortRead
	}
	r := StatsReplyPort{Flags: binary.BigEndian.Uint16(buf[2:4])}
	rest := buf[4:]
	for len(rest) >= portStatsEntryLen {
		r.Entries = append(r.Entries, unmarshalPortStatsEntry(rest[:portStatsEntryLen]))
		rest = rest[portStatsEntryLen:]
	}
	return r, nil
}

// ---- Barrier ----

type BarrierRequest struct{}

func (BarrierRequest) Type() uint8         { return TypeBarrierRequest }
func (BarrierRequest) MarshalBody() []byte { return nil }

type BarrierReply struct{}

func (BarrierReply) Type() uint8         { return TypeBarrierReply }
func (BarrierReply) MarshalBody() []byte { return nil }
