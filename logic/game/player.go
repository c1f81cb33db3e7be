package game

import (
	"fmt"

	"github.com/byebyebruce/rollbacknet/logic/input"
	"github.com/byebyebruce/rollbacknet/logic/world"
)

// PlayerInfo is one matchmaking result
type PlayerInfo struct {
	ID    string // unique per match, from signaling
	Addr  string // transport address, empty for the local player
	Local bool
}

// PeerConnection one participant of the match as seen from this machine
type PeerConnection struct {
	Handle    int
	ID        string
	Addr      string
	Local     bool
	Connected bool

	Confirmed   world.Frame  // highest contiguous frame with confirmed input
	Predicted   world.Frame  // last frame stepped with a predicted input, 0 if none
	LastInput   input.Symbol // input at Confirmed, repeated as the prediction
	RemoteFrame world.Frame  // the peer's own frame counter, last reported
	Advantage   int32        // the peer's reported advantage over us

	ackFrame    world.Frame // highest of our frames this peer confirmed
	lastRecv    int         // our tick when we last heard from it
	interrupted bool
	synced      bool
	sums        map[world.Frame]uint32 // checksums that arrived before ours
}

func newPeerConnection(handle int, info PlayerInfo) *PeerConnection {
	return &PeerConnection{
		Handle:    handle,
		ID:        info.ID,
		Addr:      info.Addr,
		Local:     info.Local,
		Connected: true,
		sums:      make(map[world.Frame]uint32),
	}
}

func (p *PeerConnection) String() string {
	if p.Local {
		return fmt.Sprintf("local(%d,%s)", p.Handle, p.ID)
	}
	return fmt.Sprintf("peer(%d,%s@%s)", p.Handle, p.ID, p.Addr)
}

// heard refreshes liveness. Returns true if the peer was interrupted.
func (p *PeerConnection) heard(tick int) bool {
	p.lastRecv = tick
	if p.interrupted {
		p.interrupted = false
		return true
	}
	return false
}

// LocalHandle is either unassigned or the handle of the local player.
type LocalHandle struct {
	handle   int
	assigned bool
}

// Unassigned has no local player yet.
var Unassigned = LocalHandle{}

// Assigned wraps a handle.
func Assigned(handle int) LocalHandle {
	return LocalHandle{handle: handle, assigned: true}
}

// Get returns the handle and whether there is one.
func (l LocalHandle) Get() (int, bool) {
	return l.handle, l.assigned
}

func (l LocalHandle) String() string {
	if !l.assigned {
		return "unassigned"
	}
	return fmt.Sprintf("handle %d", l.handle)
}
