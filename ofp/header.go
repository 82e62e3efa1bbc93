package ofp

import (
	"encoding/binary"
	"sync/atomic"
)

// Header is the 8-byte ofp_header every message starts with. Length is the
// total message length including these 8 bytes.
type Header struct {
	Version uint8
	Type    uint8
	Length  uint16
	XID     uint32
}

func (h Header) Marshal() []byte {
	buf := make([]byte, HeaderLen)
	buf[0] = h.Version
	buf[1] = h.Type
	binary.BigEndian.PutUint16(buf[2:4], h.Length)
	binary.BigEndian.PutUint32(buf[4:8], h.XID)
	return buf
}

// UnmarshalHeader parses exactly HeaderLen bytes. The caller has already
// read those bytes off the socket; this never touches I/O.
func UnmarshalHeader(buf []byte) (Header, error) {
	if len(buf) < HeaderLen {
		return Header{}, ErrShortRead
	}
	h := Header{
		Version: buf[0],
		Type:    buf[1],
		Length:  binary.BigEndian.Uint16(buf[2:4]),
	}
	h.XID = binary.BigEndian.Uint32(buf[4:8])
	if h.Version != Version {
		return Header{}, ErrBadVersion
	}
	if h.Length < HeaderLen {
		return Header{}, ErrBadLength
	}
	return h, nil
}

// xidCounter is a process-wide monotonically increasing transaction ID
// source, shared by every session (the session manager is a singleton, so
// one counter is enough to keep xids distinct enough for diagnostics;
// switches never compare xids across sessions).
var xidCounter uint32

// NextXID returns a fresh transaction ID.
func NextXID() uint32 {
	return atomic.AddUint32(&xidCounter, 1)
}
