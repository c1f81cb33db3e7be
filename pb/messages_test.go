package pb

import (
	"testing"

	"github.com/pkg/errors"
	"google.golang.org/protobuf/encoding/protowire"
)

func Test_InputMsg(t *testing.T) {
	msg := &InputMsg{
		StartFrame:   -1,
		Inputs:       []byte{0, 8, 24, 255},
		CurrentFrame: 120,
		Advantage:    -3,
		AckFrame:     117,
	}
	raw, err := msg.Marshal()
	if err != nil {
		t.Fatal(err)
	}
	got := &InputMsg{}
	if err := got.Unmarshal(raw); err != nil {
		t.Fatal(err)
	}
	if got.StartFrame != -1 || got.CurrentFrame != 120 || got.Advantage != -3 || got.AckFrame != 117 || string(got.Inputs) != string(msg.Inputs) {
		t.Errorf("got %+v", got)
	}
}

func Test_UnknownFieldSkipped(t *testing.T) {
	raw, _ := (&ChecksumMsg{Frame: 42, Checksum: 0xdeadbeef}).Marshal()
	raw = protowire.AppendTag(raw, 9, protowire.BytesType)
	raw = protowire.AppendBytes(raw, []byte("future"))

	got := &ChecksumMsg{}
	if err := got.Unmarshal(raw); err != nil {
		t.Fatal(err)
	}
	if got.Frame != 42 || got.Checksum != 0xdeadbeef {
		t.Errorf("got %+v", got)
	}
}

func Test_Truncated(t *testing.T) {
	raw, _ := (&HelloMsg{PeerID: "4f1c0c3e"}).Marshal()
	if err := (&HelloMsg{}).Unmarshal(raw[:len(raw)-2]); err == nil {
		t.Error("truncated message decoded")
	}
	if err := (&SyncMsg{}).Unmarshal(raw); err == nil {
		t.Error("wire type mismatch accepted")
	}
}

func Test_IDString(t *testing.T) {
	if ID_MSG_Input.String() != "MSG_Input" || ID(200).String() != "MSG_Unknown" {
		t.Error("ID.String")
	}
}

func Test_Decode(t *testing.T) {
	raw, _ := (&SyncMsg{Nonce: 7, ConfigDigest: 9}).Marshal()
	m, err := Decode(ID_MSG_SyncReply, raw)
	if err != nil {
		t.Fatal(err)
	}
	if s, ok := m.(*SyncMsg); !ok || s.Nonce != 7 || s.ConfigDigest != 9 {
		t.Errorf("m = %#v", m)
	}
	if m, err := Decode(ID_MSG_Quit, nil); m != nil || err != nil {
		t.Errorf("quit = %v, %v", m, err)
	}
	if _, err := Decode(ID_MSG_END, nil); !errors.Is(err, ErrUnknownID) {
		t.Errorf("err = %v", err)
	}
}
