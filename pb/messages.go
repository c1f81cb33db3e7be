package pb

import (
	"github.com/pkg/errors"
	"google.golang.org/protobuf/encoding/protowire"
)

var errWireType = errors.New("unexpected wire type")

// HelloMsg identifies the sender of a connection.
type HelloMsg struct {
	PeerID string // 1
}

func (m *HelloMsg) Marshal() ([]byte, error) {
	return appendBytes(nil, 1, []byte(m.PeerID)), nil
}

func (m *HelloMsg) Unmarshal(b []byte) error {
	*m = HelloMsg{}
	return consume(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num != 1 {
			return -1, nil
		}
		if typ != protowire.BytesType {
			return 0, errWireType
		}
		v, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return 0, protowire.ParseError(n)
		}
		m.PeerID = string(v)
		return n, nil
	})
}

// SyncMsg is the handshake before frame 0. The reply echoes the nonce.
type SyncMsg struct {
	Nonce        uint32 // 1
	ConfigDigest uint32 // 2
}

func (m *SyncMsg) Marshal() ([]byte, error) {
	b := appendVarint(nil, 1, uint64(m.Nonce))
	return appendVarint(b, 2, uint64(m.ConfigDigest)), nil
}

func (m *SyncMsg) Unmarshal(b []byte) error {
	*m = SyncMsg{}
	return consume(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num != 1 && num != 2 {
			return -1, nil
		}
		if typ != protowire.VarintType {
			return 0, errWireType
		}
		var v uint64
		n, err := varint(b, &v)
		if num == 1 {
			m.Nonce = uint32(v)
		} else {
			m.ConfigDigest = uint32(v)
		}
		return n, err
	})
}

// InputMsg carries the sender's inputs for consecutive frames starting at
// StartFrame, plus the sender's frame counter for frame advantage.
type InputMsg struct {
	StartFrame   int32  // 1
	Inputs       []byte // 2, one symbol per frame
	CurrentFrame int32  // 3
	Advantage    int32  // 4, sender's local frame advantage over us
	AckFrame     int32  // 5, highest of our frames the sender has confirmed
}

func (m *InputMsg) Marshal() ([]byte, error) {
	b := appendSint32(nil, 1, m.StartFrame)
	b = appendBytes(b, 2, m.Inputs)
	b = appendSint32(b, 3, m.CurrentFrame)
	b = appendSint32(b, 4, m.Advantage)
	return appendSint32(b, 5, m.AckFrame), nil
}

func (m *InputMsg) Unmarshal(b []byte) error {
	*m = InputMsg{}
	return consume(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 2:
			if typ != protowire.BytesType {
				return 0, errWireType
			}
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return 0, protowire.ParseError(n)
			}
			m.Inputs = append([]byte(nil), v...)
			return n, nil
		case 1, 3, 4, 5:
			if typ != protowire.VarintType {
				return 0, errWireType
			}
			var v uint64
			n, err := varint(b, &v)
			switch num {
			case 1:
				m.StartFrame = sint32(v)
			case 3:
				m.CurrentFrame = sint32(v)
			case 4:
				m.Advantage = sint32(v)
			case 5:
				m.AckFrame = sint32(v)
			}
			return n, err
		}
		return -1, nil
	})
}

// ChecksumMsg reports the sender's snapshot checksum of a confirmed frame.
type ChecksumMsg struct {
	Frame    int32  // 1
	Checksum uint32 // 2
}

func (m *ChecksumMsg) Marshal() ([]byte, error) {
	b := appendSint32(nil, 1, m.Frame)
	return appendVarint(b, 2, uint64(m.Checksum)), nil
}

func (m *ChecksumMsg) Unmarshal(b []byte) error {
	*m = ChecksumMsg{}
	return consume(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num != 1 && num != 2 {
			return -1, nil
		}
		if typ != protowire.VarintType {
			return 0, errWireType
		}
		var v uint64
		n, err := varint(b, &v)
		if num == 1 {
			m.Frame = sint32(v)
		} else {
			m.Checksum = uint32(v)
		}
		return n, err
	})
}
