// Package rollback keeps the recent world snapshots a rollback can return to.
package rollback

import (
	"fmt"

	"github.com/byebyebruce/rollbacknet/logic/world"
	"github.com/pkg/errors"
)

var (
	// ErrSnapshotEvicted matches SnapshotEvictedError with errors.Is.
	ErrSnapshotEvicted = errors.New("snapshot evicted")
	// ErrWindowOverrun means a save would clobber a frame still inside the
	// live window: the window is sized wrong for the caller.
	ErrWindowOverrun = errors.New("rollback window overrun")
	// ErrFrameGap means a save skipped frames.
	ErrFrameGap = errors.New("rollback frame gap")
)

// SnapshotEvictedError is returned when a requested frame is outside the
// retained window.
type SnapshotEvictedError struct {
	Frame world.Frame
}

func (e *SnapshotEvictedError) Error() string {
	return fmt.Sprintf("snapshot for frame %d evicted", e.Frame)
}

func (e *SnapshotEvictedError) Is(target error) bool {
	return target == ErrSnapshotEvicted
}

type slot struct {
	used bool
	snap world.Snapshot
}

// Buffer is a ring of snapshots indexed by frame mod window.
type Buffer struct {
	slots     []slot
	latest    world.Frame
	confirmed world.Frame
	has       bool
}

// New allocates a buffer that retains the last window frames.
func New(window int) (*Buffer, error) {
	if window < 1 {
		return nil, errors.Errorf("rollback window %d must be positive", window)
	}
	return &Buffer{
		slots: make([]slot, window),
	}, nil
}

// Window is the number of retained frames.
func (b *Buffer) Window() int {
	return len(b.slots)
}

// Latest is the newest saved frame.
func (b *Buffer) Latest() (world.Frame, bool) {
	return b.latest, b.has
}

// Oldest is the oldest frame still loadable.
func (b *Buffer) Oldest() world.Frame {
	o := b.latest - world.Frame(len(b.slots)) + 1
	if o < 0 {
		return 0
	}
	return o
}

func (b *Buffer) index(f world.Frame) int {
	return int(f) % len(b.slots)
}

// Save stores s in slot s.Frame mod window. Re-saving a frame inside the
// window overwrites it; that is what resimulation does.
func (b *Buffer) Save(s world.Snapshot) error {
	if s.Frame < 0 {
		return errors.Errorf("negative frame %d", s.Frame)
	}
	if b.has {
		if s.Frame > b.latest+1 {
			return errors.Wrapf(ErrFrameGap, "save %d after %d", s.Frame, b.latest)
		}
		if s.Frame < b.latest-world.Frame(len(b.slots))+1 {
			old := b.slots[b.index(s.Frame)].snap.Frame
			return errors.Wrapf(ErrWindowOverrun, "save %d would evict live frame %d (window %d)", s.Frame, old, len(b.slots))
		}
	}
	b.slots[b.index(s.Frame)] = slot{used: true, snap: s}
	if !b.has || s.Frame > b.latest {
		b.latest = s.Frame
		b.has = true
	}
	return nil
}

// Load returns the snapshot for f if it is within [latest-window+1, latest].
func (b *Buffer) Load(f world.Frame) (world.Snapshot, error) {
	if !b.has || f > b.latest || f < b.latest-world.Frame(len(b.slots))+1 {
		return world.Snapshot{}, &SnapshotEvictedError{Frame: f}
	}
	sl := b.slots[b.index(f)]
	if !sl.used || sl.snap.Frame != f {
		return world.Snapshot{}, &SnapshotEvictedError{Frame: f}
	}
	return sl.snap, nil
}

// Confirm marks every frame below f as prunable: no rollback will target it.
func (b *Buffer) Confirm(f world.Frame) {
	if f > b.confirmed {
		b.confirmed = f
	}
}

// Confirmed is the confirmation horizon.
func (b *Buffer) Confirmed() world.Frame {
	return b.confirmed
}

// Prunable reports whether f is below the confirmation horizon.
func (b *Buffer) Prunable(f world.Frame) bool {
	return f < b.confirmed
}

// Release discards all snapshots.
func (b *Buffer) Release() {
	for i := range b.slots {
		b.slots[i] = slot{}
	}
	b.has = false
	b.latest = 0
	b.confirmed = 0
}
