package game

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrInvalidPlayerCount matchmaking produced a wrong or duplicate player set
	ErrInvalidPlayerCount = errors.New("invalid player count")
	// ErrPhase the call is not allowed in the current phase
	ErrPhase = errors.New("wrong session phase")
	// ErrConfigMismatch a peer runs with different simulation parameters
	ErrConfigMismatch = errors.New("config mismatch")
	// ErrDesync peers computed different worlds for the same confirmed frame
	ErrDesync = errors.New("desync")
	// ErrPeerDisconnected matches PeerDisconnectedError with errors.Is
	ErrPeerDisconnected = errors.New("peer disconnected")
)

// PeerDisconnectedError the transport lost a peer or it quit
type PeerDisconnectedError struct {
	Handle int
	ID     string
	Quit   bool // the peer said goodbye
}

func (e *PeerDisconnectedError) Error() string {
	if e.Quit {
		return fmt.Sprintf("peer %d (%s) quit", e.Handle, e.ID)
	}
	return fmt.Sprintf("peer %d (%s) disconnected", e.Handle, e.ID)
}

func (e *PeerDisconnectedError) Is(target error) bool {
	return target == ErrPeerDisconnected
}
