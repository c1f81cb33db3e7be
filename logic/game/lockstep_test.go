package game

import (
	"testing"

	"github.com/byebyebruce/rollbacknet/logic/input"
	"github.com/byebyebruce/rollbacknet/logic/world"
)

func Test_PeerSyncDelayFrames(t *testing.T) {
	s := NewPeerSync(2, 3)
	if c := s.Confirmed(); c != 3 {
		t.Errorf("confirmed = %d", c)
	}
	in, predicted := s.Inputs(2)
	if predicted != 0 || in[0] != 0 || in[1] != 0 {
		t.Errorf("frame 2 = %v predicted %d", in, predicted)
	}
	if _, predicted := s.Inputs(4); predicted != 2 {
		t.Errorf("frame 4 predicted %d", predicted)
	}
}

func Test_PeerSyncHoldLast(t *testing.T) {
	s := NewPeerSync(2, 0)
	if n := s.AddInputs(1, 1, []input.Symbol{input.Left, input.Right}); n != 2 {
		t.Fatalf("accepted %d", n)
	}
	in, predicted := s.Inputs(5)
	if predicted != 2 {
		t.Errorf("predicted %d", predicted)
	}
	if in[1] != input.Right || in[0] != 0 {
		t.Errorf("prediction %v", in)
	}
}

func Test_PeerSyncRollbackTrigger(t *testing.T) {
	s := NewPeerSync(2, 0)
	for f := world.Frame(1); f <= 6; f++ {
		in, _ := s.Inputs(f)
		s.Stepped(f, in)
	}
	if _, ok := s.Rollback(); ok {
		t.Fatal("rollback without inputs")
	}

	// frames 1..3 as predicted, 4 differs, 5 differs too
	s.AddInputs(1, 1, []input.Symbol{0, 0, 0, input.Right, input.Up})
	f, ok := s.Rollback()
	if !ok || f != 4 {
		t.Errorf("rollback = %d %v", f, ok)
	}
	if _, ok := s.Rollback(); ok {
		t.Error("rollback not cleared")
	}

	// frame 6 now predicts the newest confirmed input
	in, _ := s.Inputs(6)
	if in[1] != input.Up {
		t.Errorf("hold last = %v", in[1])
	}
}

func Test_PeerSyncDuplicatesAndGaps(t *testing.T) {
	s := NewPeerSync(2, 0)
	s.AddInputs(1, 1, []input.Symbol{1, 2, 3})
	if n := s.AddInputs(1, 2, []input.Symbol{2, 3, 4}); n != 1 {
		t.Errorf("overlap accepted %d", n)
	}
	if n := s.AddInputs(1, 9, []input.Symbol{9}); n != 0 {
		t.Errorf("gap accepted %d", n)
	}
	if last, sym := s.Last(1); last != 4 || sym != 4 {
		t.Errorf("last = %d %d", last, sym)
	}
	if c := s.Confirmed(); c != 0 {
		t.Errorf("confirmed = %d", c)
	}
}

func Test_PeerSyncRangeTrim(t *testing.T) {
	s := NewPeerSync(1, 0)
	s.AddInputs(0, 1, []input.Symbol{1, 2, 3, 4, 5})
	if r := s.Range(0, 2, 2); len(r) != 2 || r[0] != 2 || r[1] != 3 {
		t.Errorf("range = %v", r)
	}
	s.Trim(4)
	if r := s.Range(0, 1, 10); len(r) != 2 || r[0] != 4 {
		t.Errorf("range after trim = %v", r)
	}
	if in, _ := s.Inputs(5); in[0] != 5 {
		t.Errorf("frame 5 = %v", in)
	}
}

func Test_FrameAdvantage(t *testing.T) {
	if a := frameAdvantage(100, 95, -5); a != 5 {
		t.Errorf("ahead = %d", a)
	}
	// symmetric latency cancels out
	if a := frameAdvantage(100, 95, 5); a != 0 {
		t.Errorf("even = %d", a)
	}
}
