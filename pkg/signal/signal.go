// Package signal matches peers before a session starts. Clients open a
// websocket on /<room>?next=N, the server groups the first N of a room and
// hands every member the same ordered peer list. Position in the list is the
// session handle.
package signal

import (
	"github.com/pkg/errors"
)

const (
	typeJoin    = "join"
	typeWelcome = "welcome"
	typeMatch   = "match"
	typeError   = "error"
)

var (
	ErrRejected = errors.New("signaling server rejected the join")
	ErrProtocol = errors.New("unexpected signaling message")
)

// Peer one matched participant
type Peer struct {
	ID    string `json:"id"`
	Addr  string `json:"addr"`
	Local bool   `json:"-"`
}

type message struct {
	Type  string `json:"type"`
	ID    string `json:"id,omitempty"`
	Addr  string `json:"addr,omitempty"`
	Peers []Peer `json:"peers,omitempty"`
	Error string `json:"error,omitempty"`
}
