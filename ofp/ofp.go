// Package ofp is the OpenFlow 1.0 wire codec: it encodes and
// decodes exactly the message subset this controller speaks, network byte
// order throughout, and nothing else. It has no notion of a socket, a
// switch, or a session, those belong to internal/ctrl.
package ofp

import "errors"

// Version is the single byte every OpenFlow 1.0 header carries.
const Version byte = 0x01

// Message types this controller encodes or decodes. Unlisted types that
// arrive on the wire are not an error; the session layer ignores them.
const (
	TypeHello            uint8 = 0
	TypeError            uint8 = 1
	TypeEchoRequest      uint8 = 2
	TypeEchoReply        uint8 = 3
	TypeFeaturesRequest  uint8 = 5
	TypeFeaturesReply    uint8 = 6
	TypeGetConfigRequest uint8 = 7
	TypeGetConfigReply   uint8 = 8
	TypeSetConfig        uint8 = 9
	TypePacketIn         uint8 = 10
	TypePacketOut        uint8 = 13
	TypeFlowMod          uint8 = 14
	TypePortMod          uint8 = 15
	TypeStatsRequest     uint8 = 16
	TypeStatsReply       uint8 = 17
	TypeBarrierRequest   uint8 = 18
	TypeBarrierReply     uint8 = 19
)

// HeaderLen is the fixed 8-byte ofp_header size.
const HeaderLen = 8

// MatchLen is the fixed 40-byte ofp_match size.
const MatchLen = 40

// Reserved/special port numbers used by this controller.
const (
	PortMax        uint16 = 0xff00
	PortFlood      uint16 = 0xfffb
	PortAll        uint16 = 0xfffc
	PortController uint16 = 0xfffd
	PortNone       uint16 = 0xffff
)

// OFPFC_* flow-mod commands. This controller issues ADD for the L2
// learner's exact-match rules and MODIFY_STRICT for pinning a path; the
// others are defined but never sent.
const (
	FlowCmdAdd          uint16 = 0
	FlowCmdModify       uint16 = 1
	FlowCmdModifyStrict uint16 = 2
	FlowCmdDelete       uint16 = 3
	FlowCmdDeleteStrict uint16 = 4
)

// PortStateLinkDown is the ofp_port_state bit a PHY_PORT entry in
// FEATURES_REPLY sets when the physical link is down.
const PortStateLinkDown uint32 = 1 << 0

// Port-mod config/mask bit for administrative down, and the OFPPF_* speed
// advertisement bits the facade picks among.
const (
	PortConfigPortDown uint32 = 1 << 0

	PortFeature10MBHD  uint32 = 1 << 0
	PortFeature10MBFD  uint32 = 1 << 1
	PortFeature100MBHD uint32 = 1 << 2
	PortFeature100MBFD uint32 = 1 << 3
	PortFeature1GBHD   uint32 = 1 << 4
	PortFeature1GBFD   uint32 = 1 << 5
	PortFeature10GBFD  uint32 = 1 << 6
)

// Stats types this controller requests. Only OFPST_PORT is used.
const StatsTypePort uint16 = 4

// NoBufferID marks a packet-out/flow-mod as not referencing a buffered
// packet.
const NoBufferID uint32 = 0xffffffff

// PacketIn reasons.
const (
	ReasonNoMatch uint8 = 0
	ReasonAction  uint8 = 1
)

// Action types. Only OFPAT_OUTPUT is needed by this controller.
const ActionTypeOutput uint16 = 0

// Framing errors from UnmarshalHeader, Decode and the Unmarshal* helpers.
// These close the offending session.
var (
	ErrShortRead  = errors.New("ofp: short read")
	ErrBadVersion = errors.New("ofp: bad version")
	ErrBadLength  = errors.New("ofp: length below header size")
)
