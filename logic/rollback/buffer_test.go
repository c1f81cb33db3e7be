package rollback

import (
	"testing"

	"github.com/byebyebruce/rollbacknet/logic/world"
	"github.com/pkg/errors"
)

func snap(t *testing.T, f world.Frame) world.Snapshot {
	w := world.New(2, world.DefaultHealth)
	w.Players[0].Health = int32(f) + 1
	s, err := world.Encode(f, w)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func fill(t *testing.T, b *Buffer, to world.Frame) {
	for f := world.Frame(0); f <= to; f++ {
		if err := b.Save(snap(t, f)); err != nil {
			t.Fatalf("save %d: %v", f, err)
		}
	}
}

func Test_New(t *testing.T) {
	if _, err := New(0); err == nil {
		t.Error("zero window accepted")
	}
	b, err := New(8)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := b.Load(0); !errors.Is(err, ErrSnapshotEvicted) {
		t.Errorf("empty buffer load err = %v", err)
	}
}

func Test_LoadWindow(t *testing.T) {
	b, _ := New(8)
	fill(t, b, 20)

	for f := world.Frame(13); f <= 20; f++ {
		s, err := b.Load(f)
		if err != nil {
			t.Fatalf("load %d: %v", f, err)
		}
		w, _ := s.Decode()
		if s.Frame != f || w.Players[0].Health != int32(f)+1 {
			t.Errorf("load %d returned frame %d", f, s.Frame)
		}
	}
	for _, f := range []world.Frame{0, 5, 12, 21} {
		_, err := b.Load(f)
		var evicted *SnapshotEvictedError
		if !errors.As(err, &evicted) || evicted.Frame != f {
			t.Errorf("load %d err = %v", f, err)
		}
	}
	if b.Oldest() != 13 {
		t.Errorf("b.Oldest() = %d", b.Oldest())
	}
}

func Test_Overwrite(t *testing.T) {
	b, _ := New(4)
	fill(t, b, 10)

	// resimulation rewrites frames inside the window
	s := snap(t, 8)
	s.Checksum, s.Data = snap(t, 99).Checksum, snap(t, 99).Data
	if err := b.Save(s); err != nil {
		t.Fatal(err)
	}
	got, _ := b.Load(8)
	if got.Checksum != s.Checksum {
		t.Error("frame 8 not overwritten")
	}
	if latest, _ := b.Latest(); latest != 10 {
		t.Errorf("latest moved back to %d", latest)
	}
}

func Test_Overrun(t *testing.T) {
	b, _ := New(4)
	fill(t, b, 10)
	if err := b.Save(snap(t, 6)); !errors.Is(err, ErrWindowOverrun) {
		t.Errorf("save below window err = %v", err)
	}
	if err := b.Save(snap(t, 12)); !errors.Is(err, ErrFrameGap) {
		t.Errorf("save with gap err = %v", err)
	}
	// nothing was clobbered
	if _, err := b.Load(10); err != nil {
		t.Error(err)
	}
}

func Test_Confirm(t *testing.T) {
	b, _ := New(8)
	fill(t, b, 10)
	b.Confirm(6)
	b.Confirm(4)
	if b.Confirmed() != 6 {
		t.Errorf("b.Confirmed() = %d", b.Confirmed())
	}
	if !b.Prunable(5) || b.Prunable(6) {
		t.Error("Prunable disagrees with the horizon")
	}
}

func Test_Release(t *testing.T) {
	b, _ := New(8)
	fill(t, b, 3)
	b.Release()
	if _, err := b.Load(3); !errors.Is(err, ErrSnapshotEvicted) {
		t.Errorf("load after release err = %v", err)
	}
	if _, ok := b.Latest(); ok {
		t.Error("released buffer reports a latest frame")
	}
}
