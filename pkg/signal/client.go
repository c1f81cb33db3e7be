package signal

import (
	"context"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	l4g "github.com/alecthomas/log4go"
)

// Matchmake joins the room at url (ws://host/<room>?next=N) advertising
// addr and blocks until the group is complete or ctx ends. The returned list
// is in handle order; the caller's own entry has Local set.
func Matchmake(ctx context.Context, url string, addr string) ([]Peer, error) {
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "dial %s", url)
	}
	defer ws.Close()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			ws.Close()
		case <-stop:
		}
	}()

	if err := ws.WriteJSON(message{Type: typeJoin, Addr: addr}); err != nil {
		return nil, errors.Wrap(err, "join")
	}

	var self string
	for {
		var m message
		if err := ws.ReadJSON(&m); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, errors.Wrap(err, "wait for match")
		}

		switch m.Type {
		case typeWelcome:
			self = m.ID
			l4g.Info("[signal] joined %s as %s", url, self)
		case typeError:
			return nil, errors.Wrap(ErrRejected, m.Error)
		case typeMatch:
			if self == "" {
				return nil, errors.Wrap(ErrProtocol, "match before welcome")
			}
			found := false
			for i := range m.Peers {
				if m.Peers[i].ID == self {
					m.Peers[i].Local = true
					found = true
				}
			}
			if !found {
				return nil, errors.Wrap(ErrProtocol, "match without us")
			}
			return m.Peers, nil
		default:
			return nil, errors.Wrapf(ErrProtocol, "type %q", m.Type)
		}
	}
}
