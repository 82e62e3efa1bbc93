package ofp

import (
	"net"
	"testing"
)

func TestHeaderRoundTrip(t *testing.T) {
	h := Header{Version: Version, Type: TypeHello, Length: HeaderLen, XID: 42}
	buf := h.Marshal()
	got, err := UnmarshalHeader(buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != h {
		t.Fatalf("round trip mismatch: got %+v want %+v", got, h)
	}
}

func TestHeaderBadVersion(t *testing.T) {
	buf := Header{Version: 0x04, Type: TypeHello, Length: HeaderLen}.Marshal()
	if _, err := UnmarshalHeader(buf); err != ErrBadVersion {
		t.Fatalf("expected ErrBadVersion, got %v", err)
	}
}

func TestHeaderShortRead(t *testing.T) {
	if _, err := UnmarshalHeader([]byte{0x01, 0x00}); err != ErrShortRead {
		t.Fatalf("expected ErrShortRead, got %v", err)
	}
}

func TestExactMatchWildcards(t *testing.T) {
	dst, _ := net.ParseMAC("aa:bb:cc:dd:ee:ff")
	m := ExactMatch(3, dst)
	if m.Wildcards&WildcardInPort != 0 {
		t.Fatalf("in_port should not be wildcarded")
	}
	if m.Wildcards&WildcardDLDst != 0 {
		t.Fatalf("dl_dst should not be wildcarded")
	}
	if m.Wildcards&WildcardDLSrc == 0 {
		t.Fatalf("dl_src should remain wildcarded")
	}

	buf := m.Marshal()
	if len(buf) != MatchLen {
		t.Fatalf("expected %d bytes, got %d", MatchLen, len(buf))
	}
	got, err := UnmarshalMatch(buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.InPort != 3 || got.DLDst.String() != dst.String() {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestPacketInRoundTrip(t *testing.T) {
	frame := append([]byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13}, []byte("hello")...)
	pi := PacketIn{BufferID: 7, TotalLen: uint16(len(frame)), InPort: 2, Reason: ReasonNoMatch, Data: frame}
	body := pi.MarshalBody()
	got, err := UnmarshalPacketIn(body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.BufferID != pi.BufferID || got.InPort != pi.InPort || string(got.Data) != string(frame) {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestPacketOutRoundTrip(t *testing.T) {
	po := PacketOut{
		BufferID: NoBufferID,
		InPort:   PortNone,
		Actions:  []ActionOutput{{Port: PortFlood}},
		Data:     []byte("frame-bytes"),
	}
	body := po.MarshalBody()
	got, err := UnmarshalPacketOut(body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Actions) != 1 || got.Actions[0].Port != PortFlood {
		t.Fatalf("action mismatch: %+v", got.Actions)
	}
	if string(got.Data) != "frame-bytes" {
		t.Fatalf("data mismatch: %q", got.Data)
	}
}

func TestFeaturesReplyRoundTrip(t *testing.T) {
	fr := FeaturesReply{
		DatapathID: 0x0102030405060708,
		NBuffers:   256,
		NTables:    1,
		Ports: []PhyPort{
			{PortNo: 1, Name: "eth0"},
			{PortNo: 2, Name: "eth1"},
		},
	}
	body := fr.MarshalBody()
	got, err := UnmarshalFeaturesReply(body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.DatapathID != fr.DatapathID {
		t.Fatalf("dpid mismatch: got %x want %x", got.DatapathID, fr.DatapathID)
	}
	if len(got.Ports) != 2 || got.Ports[1].Name != "eth1" {
		t.Fatalf("port decode mismatch: %+v", got.Ports)
	}
}

func TestStatsReplyPortRoundTrip(t *testing.T) {
	entry := make([]byte, portStatsEntryLen)
	entry[1] = 5 // port_no = 5
	entry[24+7] = 100 // rx_bytes low byte
	body := append([]byte{0, byte(StatsTypePort), 0, 0}, entry...)

	got, err := UnmarshalStatsReplyPort(body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(got.Entries))
	}
	if got.Entries[0].PortNo != 5 || got.Entries[0].RXBytes != 100 {
		t.Fatalf("unexpected entry: %+v", got.Entries[0])
	}
}
