package game

import (
	"sync/atomic"
)

// Stats session counters, safe to read from any goroutine
type Stats struct {
	Frames          int64 // frames advanced
	PredictedFrames int64 // frames stepped with at least one predicted input
	Rollbacks       int64
	Resimulated     int64 // frames stepped again during rollbacks
	StalledTicks    int64 // ticks skipped for frame advantage
	Checksums       int64 // checksum comparisons that matched
	Dropped         int64 // messages ignored as stale or malformed
}

func (m *Stats) incFrames()    { atomic.AddInt64(&m.Frames, 1) }
func (m *Stats) incPredicted() { atomic.AddInt64(&m.PredictedFrames, 1) }
func (m *Stats) incStalled()   { atomic.AddInt64(&m.StalledTicks, 1) }
func (m *Stats) incChecksums() { atomic.AddInt64(&m.Checksums, 1) }
func (m *Stats) incDropped()   { atomic.AddInt64(&m.Dropped, 1) }
func (m *Stats) addRollback(frames int) {
	atomic.AddInt64(&m.Rollbacks, 1)
	atomic.AddInt64(&m.Resimulated, int64(frames))
}

// Snapshot read-only copy for logs and status pages
func (m *Stats) Snapshot() map[string]any {
	return map[string]any{
		"frames":           atomic.LoadInt64(&m.Frames),
		"predicted_frames": atomic.LoadInt64(&m.PredictedFrames),
		"rollbacks":        atomic.LoadInt64(&m.Rollbacks),
		"resimulated":      atomic.LoadInt64(&m.Resimulated),
		"stalled_ticks":    atomic.LoadInt64(&m.StalledTicks),
		"checksums":        atomic.LoadInt64(&m.Checksums),
		"dropped":          atomic.LoadInt64(&m.Dropped),
	}
}
