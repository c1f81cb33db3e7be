package pb_packet

import (
	"encoding/binary"
	"io"

	l4g "github.com/alecthomas/log4go"
	"github.com/byebyebruce/rollbacknet/pb"
	"github.com/byebyebruce/rollbacknet/pkg/network"
	"github.com/pkg/errors"
)

const (
	DataLen      = 2
	MessageIDLen = 1

	MinPacketLen = DataLen + MessageIDLen
	MaxPacketLen = (2 << 8) * DataLen
	MaxMessageID = (2 << 8) * MessageIDLen
)

var ErrPacketTooLarge = errors.New("packet too large")

/*

peer->peer

|--totalDataLen(uint16)--|--msgIDLen(uint8)--|--------------data--------------|
|-------------2----------|---------1---------|---------(totalDataLen-2-1)-----|

*/

// Packet one framed message
type Packet struct {
	id   uint8
	data []byte
}

func (p *Packet) GetMessageID() uint8 {
	return p.id
}

func (p *Packet) GetData() []byte {
	return p.data
}

func (p *Packet) Serialize() []byte {
	buff := make([]byte, MinPacketLen, MinPacketLen+len(p.data))

	dataLen := len(p.data)
	binary.BigEndian.PutUint16(buff, uint16(dataLen))

	buff[DataLen] = p.id
	return append(buff, p.data...)
}

func (p *Packet) Unmarshal(m pb.Message) error {
	return m.Unmarshal(p.data)
}

// NewPacket builds a packet from raw bytes, a pb.Message or nil. Returns nil
// if the message can't be encoded.
func NewPacket(id uint8, msg interface{}) *Packet {

	p := &Packet{
		id: id,
	}

	switch v := msg.(type) {
	case []byte:
		p.data = v
	case pb.Message:
		mdata, err := v.Marshal()
		if err != nil {
			l4g.Error("[NewPacket] marshal msg: %d error: %v", id, err)
			return nil
		}
		p.data = mdata
	case nil:
	default:
		l4g.Error("[NewPacket] error msg type msg: %d", id)
		return nil
	}

	if len(p.data) > MaxPacketLen {
		l4g.Error("[NewPacket] msg: %d size %d exceeds %d", id, len(p.data), MaxPacketLen)
		return nil
	}

	return p
}

type MsgProtocol struct {
}

func (p *MsgProtocol) ReadPacket(r io.Reader) (network.Packet, error) {

	buff := make([]byte, MinPacketLen)

	// data length
	if _, err := io.ReadFull(r, buff); err != nil {
		return nil, err
	}
	dataLen := binary.BigEndian.Uint16(buff)

	if dataLen > MaxPacketLen {
		return nil, errors.Wrapf(ErrPacketTooLarge, "len %d", dataLen)
	}

	// id
	msg := &Packet{
		id: buff[DataLen],
	}

	// data
	if dataLen > 0 {
		msg.data = make([]byte, dataLen)
		if _, err := io.ReadFull(r, msg.data); err != nil {
			return nil, err
		}
	}

	return msg, nil
}
