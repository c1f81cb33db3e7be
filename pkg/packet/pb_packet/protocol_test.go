package pb_packet

import (
	"bytes"
	"encoding/binary"
	"strings"
	"testing"

	"github.com/byebyebruce/rollbacknet/pb"
	"github.com/pkg/errors"
)

func Test_SCPacket(t *testing.T) {

	msg := &pb.InputMsg{
		StartFrame:   19234333,
		Inputs:       []byte{8, 24},
		CurrentFrame: 20,
	}
	raw, _ := msg.Marshal()
	p := NewPacket(uint8(pb.ID_MSG_Input), msg)
	if nil == p {
		t.Fatal("NewPacket returned nil")
	}

	buff := p.Serialize()

	dataLen := binary.BigEndian.Uint16(buff[0:])
	if dataLen != uint16(len(raw)) {
		t.Error("dataLen != uint16(len(raw))")
	}

	id := buff[DataLen]
	if p.id != id {
		t.Error("uint8(ID_MSG_Input) != id")
	}

	msg1 := &pb.InputMsg{}
	if err := msg1.Unmarshal(buff[MinPacketLen:]); nil != err {
		t.Error(err)
	}

	if msg.StartFrame != msg1.StartFrame || msg.CurrentFrame != msg1.CurrentFrame || !bytes.Equal(msg.Inputs, msg1.Inputs) {
		t.Error("msg.StartFrame != msg1.StartFrame || msg.CurrentFrame != msg1.CurrentFrame || msg.Inputs != msg1.Inputs")
	}
}

func Benchmark_SCPacket(b *testing.B) {

	msg := &pb.InputMsg{
		StartFrame:   19234333,
		Inputs:       []byte{8},
		CurrentFrame: 20,
	}

	for i := 0; i < b.N; i++ {
		NewPacket(uint8(pb.ID_MSG_Input), msg)
	}

}

func Test_Packet(t *testing.T) {
	msg := &pb.ChecksumMsg{
		Frame:    19234333,
		Checksum: 20000,
	}

	temp, _ := msg.Marshal()

	p := &Packet{
		id:   uint8(pb.ID_MSG_Checksum),
		data: temp,
	}

	b := p.Serialize()

	r := strings.NewReader(string(b))

	proto := &MsgProtocol{}

	ret, err := proto.ReadPacket(r)
	if nil != err {
		t.Fatal(err)
	}

	packet, _ := ret.(*Packet)
	if packet.GetMessageID() != p.id {
		t.Error("packet.GetMessageID() != uint8(ID_MSG_Checksum)")
	}

	if len(packet.data) != len(p.data) {
		t.Error("len(packet.data)!=len(p.data)")
	}

	msg1 := &pb.ChecksumMsg{}
	err = packet.Unmarshal(msg1)
	if nil != err {
		t.Error(err)
	}
	if msg.Frame != msg1.Frame || msg.Checksum != msg1.Checksum {
		t.Error("msg.Frame != msg1.Frame || msg.Checksum != msg1.Checksum")
	}
}

func Test_EmptyPacket(t *testing.T) {
	p := NewPacket(uint8(pb.ID_MSG_Quit), nil)
	b := p.Serialize()
	if len(b) != MinPacketLen {
		t.Errorf("len(b) = %d", len(b))
	}
	ret, err := (&MsgProtocol{}).ReadPacket(bytes.NewReader(b))
	if err != nil {
		t.Fatal(err)
	}
	if ret.(*Packet).GetMessageID() != uint8(pb.ID_MSG_Quit) || len(ret.(*Packet).GetData()) != 0 {
		t.Error("quit packet changed on the way")
	}
}

func Test_TooLarge(t *testing.T) {
	if NewPacket(uint8(pb.ID_MSG_Input), make([]byte, MaxPacketLen+1)) != nil {
		t.Error("oversized packet built")
	}
	b := make([]byte, MinPacketLen)
	binary.BigEndian.PutUint16(b, MaxPacketLen+1)
	if _, err := (&MsgProtocol{}).ReadPacket(bytes.NewReader(b)); !errors.Is(err, ErrPacketTooLarge) {
		t.Errorf("err = %v", err)
	}
}

func Benchmark_Packet(b *testing.B) {
	msg := &pb.InputMsg{
		StartFrame:   19234333,
		Inputs:       []byte{1, 2, 3},
		CurrentFrame: 20000,
	}

	buf := NewPacket(uint8(pb.ID_MSG_Input), msg).Serialize()

	proto := &MsgProtocol{}

	r := bytes.NewBuffer(nil)

	for i := 0; i < b.N; i++ {
		r.Write(buf)
		if _, err := proto.ReadPacket(r); nil != err {
			b.Error(err)
		}
	}

}
