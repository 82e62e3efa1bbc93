package ofp

// Decode parses a complete message: an 8-byte header plus its
// already-read body of exactly h.Length-HeaderLen bytes. The session
// manager is responsible for having read that many bytes contiguously;
// Decode never does partial reads.
//
// The returned value's concrete type depends on h.Type and is always a
// value, never a pointer: Hello, EchoRequest, EchoReply, FeaturesReply,
// PacketIn, StatsReplyPort, BarrierReply, or SetConfig for a
// GET_CONFIG_REPLY. Every other type returns (nil, nil): it is silently
// ignored, not an error.
func Decode(h Header, body []byte) (interface{}, error) {
	switch h.Type {
	case TypeHello:
		return Hello{}, nil
	case TypeEchoRequest:
		return EchoRequest{Data: append([]byte{}, body...)}, nil
	case TypeEchoReply:
		return EchoReply{Data: append([]byte{}, body...)}, nil
	case TypeFeaturesReply:
		fr, err := UnmarshalFeaturesReply(body)
		if err != nil {
			return nil, err
		}
		return fr, nil
	case TypePacketIn:
		pi, err := UnmarshalPacketIn(body)
		if err != nil {
			return nil, err
		}
		return pi, nil
	case TypeStatsReply:
		sr, err := UnmarshalStatsReplyPort(body)
		if err != nil {
			return nil, err
		}
		return sr, nil
	case TypeBarrierReply:
		return BarrierReply{}, nil
	case TypeGetConfigReply:
		if len(body) < 4 {
			return nil, ErrShortRead
		}
		return SetConfig{}, nil
	default:
		return nil, nil
	}
}
