package ofp

import "encoding/binary"

// ActionOutputLen is the fixed 8-byte ofp_action_output size.
const ActionOutputLen = 8

// ActionOutput is the only action type this controller ever installs:
// "send this packet out port Port".
type ActionOutput struct {
	Port   uint16
	MaxLen uint16 // bytes sent to controller when Port == PortController
}

func (a ActionOutput) Marshal() []byte {
	buf := make([]byte, ActionOutputLen)
	binary.BigEndian.PutUint16(buf[0:2], ActionTypeOutput)
	binary.BigEndian.PutUint16(buf[2:4], ActionOutputLen)
	binary.BigEndian.PutUint16(buf[4:6], a.Port)
	binary.BigEndian.PutUint16(buf[6:8], a.MaxLen)
	return buf
}

func UnmarshalActionOutput(buf []byte) (ActionOutput, error) {
	if len(buf) < ActionOutputLen {
		return ActionOutput{}, ErrShortRead
	}
	return ActionOutput{
		Port:   binary.BigEndian.Uint16(buf[4:6]),
		MaxLen: binary.BigEndian.Uint16(buf[6:8]),
	}, nil
}
