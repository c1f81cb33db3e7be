// Package pb defines the messages exchanged between peers. Payloads use the
// protobuf wire format; field numbers below are the schema and must not be
// reused.
package pb

import (
	"github.com/pkg/errors"
	"google.golang.org/protobuf/encoding/protowire"
)

// ID identifies a message in the packet header.
type ID uint8

const (
	ID_MSG_Begin     ID = 0
	ID_MSG_Hello     ID = 1 // HelloMsg, first packet on every connection
	ID_MSG_Sync      ID = 2 // SyncMsg, handshake request
	ID_MSG_SyncReply ID = 3 // SyncMsg, handshake answer
	ID_MSG_Input     ID = 4 // InputMsg
	ID_MSG_Checksum  ID = 5 // ChecksumMsg
	ID_MSG_Quit      ID = 6 // no payload
	ID_MSG_END       ID = 7
)

var idNames = map[ID]string{
	ID_MSG_Begin:     "MSG_Begin",
	ID_MSG_Hello:     "MSG_Hello",
	ID_MSG_Sync:      "MSG_Sync",
	ID_MSG_SyncReply: "MSG_SyncReply",
	ID_MSG_Input:     "MSG_Input",
	ID_MSG_Checksum:  "MSG_Checksum",
	ID_MSG_Quit:      "MSG_Quit",
	ID_MSG_END:       "MSG_END",
}

func (i ID) String() string {
	if s, ok := idNames[i]; ok {
		return s
	}
	return "MSG_Unknown"
}

// Message is implemented by every payload.
type Message interface {
	Marshal() ([]byte, error)
	Unmarshal([]byte) error
}

// ErrUnknownID no payload type for the id
var ErrUnknownID = errors.New("unknown message id")

// New returns an empty payload for id, nil for messages without one.
func New(id ID) (Message, error) {
	switch id {
	case ID_MSG_Hello:
		return &HelloMsg{}, nil
	case ID_MSG_Sync, ID_MSG_SyncReply:
		return &SyncMsg{}, nil
	case ID_MSG_Input:
		return &InputMsg{}, nil
	case ID_MSG_Checksum:
		return &ChecksumMsg{}, nil
	case ID_MSG_Quit:
		return nil, nil
	}
	return nil, errors.Wrapf(ErrUnknownID, "%d", id)
}

// Decode parses raw as the payload of id.
func Decode(id ID, raw []byte) (Message, error) {
	m, err := New(id)
	if err != nil || m == nil {
		return nil, err
	}
	if err := m.Unmarshal(raw); err != nil {
		return nil, errors.Wrapf(err, "decode %s", id)
	}
	return m, nil
}

type fieldFunc func(num protowire.Number, typ protowire.Type, b []byte) (int, error)

// consume walks the fields of b, handing known ones to fn. fn returns -1 to
// skip a field it does not know.
func consume(b []byte, fn fieldFunc) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return errors.Wrap(protowire.ParseError(n), "tag")
		}
		b = b[n:]
		m, err := fn(num, typ, b)
		if err != nil {
			return errors.Wrapf(err, "field %d", num)
		}
		if m < 0 {
			m = protowire.ConsumeFieldValue(num, typ, b)
			if m < 0 {
				return errors.Wrapf(protowire.ParseError(m), "skip field %d", num)
			}
		}
		b = b[m:]
	}
	return nil
}

func varint(b []byte, out *uint64) (int, error) {
	v, n := protowire.ConsumeVarint(b)
	if n < 0 {
		return 0, protowire.ParseError(n)
	}
	*out = v
	return n, nil
}

func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendSint32(b []byte, num protowire.Number, v int32) []byte {
	return appendVarint(b, num, protowire.EncodeZigZag(int64(v)))
}

func appendBytes(b []byte, num protowire.Number, v []byte) []byte {
	if len(v) == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

func sint32(v uint64) int32 {
	return int32(protowire.DecodeZigZag(v))
}
