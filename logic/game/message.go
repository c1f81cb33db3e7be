package game

import (
	"github.com/byebyebruce/rollbacknet/pb"
)

// Message a packet from a peer, already decoded by the transport
type Message struct {
	From int // sender handle
	ID   pb.ID
	Body pb.Message // nil for Quit
	Lost bool       // the transport lost the connection, ID is ignored
}

// Transport sends to peers by handle. Send must not block the frame loop.
type Transport interface {
	Send(to int, id pb.ID, msg pb.Message) error
	Close()
}

// Listener session events, called on the goroutine running Tick or Stop
type Listener interface {
	OnSessionStart(s *Session)
	OnPeerInterrupted(s *Session, handle int, silentFrames int)
	OnPeerResumed(s *Session, handle int)
	OnPeerDisconnected(s *Session, err *PeerDisconnectedError)
	OnSessionOver(s *Session, err error)
}

// NopListener ignores everything
type NopListener struct{}

func (NopListener) OnSessionStart(*Session)                             {}
func (NopListener) OnPeerInterrupted(*Session, int, int)                {}
func (NopListener) OnPeerResumed(*Session, int)                         {}
func (NopListener) OnPeerDisconnected(*Session, *PeerDisconnectedError) {}
func (NopListener) OnSessionOver(*Session, error)                       {}
