package network

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// Packet anything that can go on the wire
type Packet interface {
	Serialize() []byte
}

// Protocol reads one packet from a stream
type Protocol interface {
	ReadPacket(conn io.Reader) (Packet, error)
}

const defaultMaxBody = 1024

// DefaultPacket |len uint32|body|
type DefaultPacket struct {
	buff []byte
}

func (p *DefaultPacket) Serialize() []byte {
	return p.buff
}

func (p *DefaultPacket) GetBody() []byte {
	return p.buff[4:]
}

func NewDefaultPacket(body []byte) *DefaultPacket {
	p := &DefaultPacket{
		buff: make([]byte, 4+len(body)),
	}
	binary.BigEndian.PutUint32(p.buff[0:4], uint32(len(body)))
	copy(p.buff[4:], body)
	return p
}

// DefaultProtocol reads DefaultPacket
type DefaultProtocol struct {
}

func (dp *DefaultProtocol) ReadPacket(r io.Reader) (Packet, error) {
	head := make([]byte, 4)
	if _, err := io.ReadFull(r, head); err != nil {
		return nil, err
	}
	length := binary.BigEndian.Uint32(head)
	if length > defaultMaxBody {
		return nil, errors.Errorf("packet body %d larger than %d", length, defaultMaxBody)
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, err
	}

	return NewDefaultPacket(body), nil
}
