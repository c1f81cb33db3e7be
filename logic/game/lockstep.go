package game

import (
	"github.com/byebyebruce/rollbacknet/logic/input"
	"github.com/byebyebruce/rollbacknet/logic/world"
)

type frameData struct {
	confirmed bool
	sym       input.Symbol // confirmed input
	stepped   bool
	used      input.Symbol // input the latest step of this frame consumed
}

// track is the input history of one handle. frames[i] is frame base+i.
type track struct {
	base    world.Frame
	frames  []frameData
	last    world.Frame // highest contiguous confirmed frame
	lastSym input.Symbol
}

func (t *track) at(f world.Frame) *frameData {
	if f < t.base {
		return nil
	}
	for int(f-t.base) >= len(t.frames) {
		t.frames = append(t.frames, frameData{})
	}
	return &t.frames[f-t.base]
}

// confirm records the authoritative input for f. It must extend the
// contiguous confirmed range. Returns true if f was already stepped with a
// different input.
func (t *track) confirm(f world.Frame, sym input.Symbol) (accepted, mispredicted bool) {
	if f != t.last+1 {
		return false, false
	}
	d := t.at(f)
	if d == nil {
		return false, false
	}
	d.confirmed, d.sym = true, sym
	t.last, t.lastSym = f, sym
	return true, d.stepped && d.used != sym
}

// input is the confirmed input, or the last confirmed one held as prediction.
func (t *track) input(f world.Frame) (input.Symbol, bool) {
	if f <= t.last {
		if d := t.at(f); d != nil {
			return d.sym, true
		}
	}
	return t.lastSym, false
}

func (t *track) stepped(f world.Frame, sym input.Symbol) {
	if d := t.at(f); d != nil {
		d.stepped, d.used = true, sym
	}
}

// trim forgets frames below f.
func (t *track) trim(f world.Frame) {
	if f <= t.base {
		return
	}
	n := int(f - t.base)
	if n > len(t.frames) {
		n = len(t.frames)
	}
	t.frames = append(t.frames[:0], t.frames[n:]...)
	t.base += world.Frame(n)
}

// PeerSync tracks confirmed and predicted inputs of every handle and decides
// when a rollback is needed.
type PeerSync struct {
	tracks   []*track
	rollback world.Frame // earliest mispredicted frame, 0 if none
}

// NewPeerSync prepares histories for players handles. Frames 1..delay carry
// no input for anyone and are confirmed idle up front.
func NewPeerSync(players, delay int) *PeerSync {
	s := &PeerSync{tracks: make([]*track, players)}
	for i := range s.tracks {
		t := &track{base: 1}
		for f := world.Frame(1); f <= world.Frame(delay); f++ {
			t.confirm(f, 0)
		}
		s.tracks[i] = t
	}
	return s
}

// AddInputs confirms syms for handle starting at frame start. Frames already
// confirmed are skipped; a gap stops the run. Returns the number accepted.
func (s *PeerSync) AddInputs(handle int, start world.Frame, syms []input.Symbol) int {
	t := s.tracks[handle]
	n := 0
	for i, sym := range syms {
		f := start + world.Frame(i)
		if f <= t.last {
			continue
		}
		ok, bad := t.confirm(f, sym)
		if !ok {
			break
		}
		n++
		if bad && (s.rollback == 0 || f < s.rollback) {
			s.rollback = f
		}
	}
	return n
}

// Inputs returns the inputs to step frame f with, and how many of them are
// predictions.
func (s *PeerSync) Inputs(f world.Frame) ([]input.Symbol, int) {
	inputs := make([]input.Symbol, len(s.tracks))
	predicted := 0
	for h, t := range s.tracks {
		sym, ok := t.input(f)
		if !ok {
			predicted++
		}
		inputs[h] = sym
	}
	return inputs, predicted
}

// Stepped records what frame f was simulated with.
func (s *PeerSync) Stepped(f world.Frame, inputs []input.Symbol) {
	for h, t := range s.tracks {
		t.stepped(f, inputs[h])
	}
}

// Rollback returns and clears the earliest frame whose prediction was wrong.
func (s *PeerSync) Rollback() (world.Frame, bool) {
	f := s.rollback
	s.rollback = 0
	return f, f != 0
}

// Confirmed is the highest frame for which every handle's input is known.
func (s *PeerSync) Confirmed() world.Frame {
	c := s.tracks[0].last
	for _, t := range s.tracks[1:] {
		if t.last < c {
			c = t.last
		}
	}
	return c
}

// Last is the highest confirmed frame and its input for one handle.
func (s *PeerSync) Last(handle int) (world.Frame, input.Symbol) {
	t := s.tracks[handle]
	return t.last, t.lastSym
}

// Range returns handle's confirmed inputs for frames from..Last(handle), at
// most max of them.
func (s *PeerSync) Range(handle int, from world.Frame, max int) []input.Symbol {
	t := s.tracks[handle]
	if from < t.base {
		from = t.base
	}
	var out []input.Symbol
	for f := from; f <= t.last && len(out) < max; f++ {
		out = append(out, t.frames[f-t.base].sym)
	}
	return out
}

// Trim drops history below f. Nothing below the confirmed horizon can be
// rolled back to.
func (s *PeerSync) Trim(f world.Frame) {
	for _, t := range s.tracks {
		t.trim(f)
	}
}

// frameAdvantage is how many frames we are ahead of remote, corrected by
// what remote reports about us. Positive means we should wait.
func frameAdvantage(local, remote world.Frame, remoteAdvantage int32) int {
	localAdv := int(local - remote)
	return (localAdv - int(remoteAdvantage)) / 2
}
