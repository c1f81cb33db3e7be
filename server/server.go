// Package server carries session traffic between peers over kcp.
package server

import (
	"net"
	"sync"
	"time"

	"github.com/byebyebruce/rollbacknet/logic/game"
	"github.com/byebyebruce/rollbacknet/pb"
	"github.com/byebyebruce/rollbacknet/pkg/kcp_server"
	"github.com/byebyebruce/rollbacknet/pkg/network"
	"github.com/byebyebruce/rollbacknet/pkg/packet/pb_packet"
	"github.com/pkg/errors"

	l4g "github.com/alecthomas/log4go"
)

// closeLinger time given to queued packets (the Quit notice) before the
// links are torn down
const closeLinger = time.Millisecond * 200

var (
	ErrNotBound   = errors.New("peer host not bound to a session")
	ErrNoLink     = errors.New("no link to peer")
	ErrBadMessage = errors.New("message can't be encoded")
)

// PeerHost is the game.Transport of one peer. It listens for the peers that
// dial in, dials the ones with a lower handle, and names every link with the
// Hello each side sends first.
type PeerHost struct {
	localID   string // set by Bind
	udpServer *network.Server
	addr      net.Addr

	mu        sync.Mutex
	session   *game.Session
	pending   []*network.Conn          // links accepted before Bind
	handles   map[string]int           // peer id -> handle
	ids       []string                 // handle -> peer id
	links     map[string]*network.Conn // peer id -> connection
	totalConn int64

	closeOnce sync.Once
}

// Listen starts accepting peers on address. The host introduces itself and
// forwards nothing until Bind.
func Listen(address string) (*PeerHost, error) {
	h := &PeerHost{
		handles: make(map[string]int),
		links:   make(map[string]*network.Conn),
	}
	s, addr, err := kcp_server.ListenAndServe(address, nil, h, &pb_packet.MsgProtocol{})
	if err != nil {
		return nil, err
	}
	h.udpServer = s
	h.addr = addr
	l4g.Info("[host] listen on %s", addr)
	return h, nil
}

// Addr the bound listen address
func (h *PeerHost) Addr() net.Addr {
	return h.addr
}

// Bind routes traffic to s, which must be past matchmaking, and greets the
// links that arrived early.
func (h *PeerHost) Bind(s *game.Session) error {
	local, ok := s.Local().Get()
	if !ok {
		return errors.Wrap(game.ErrPhase, "bind before matchmaking")
	}
	players := s.Players()

	h.mu.Lock()
	if h.session != nil {
		h.mu.Unlock()
		return errors.New("peer host already bound")
	}
	h.session = s
	h.localID = players[local].ID
	h.ids = make([]string, len(players))
	for i, p := range players {
		h.ids[i] = p.ID
		h.handles[p.ID] = i
	}
	pending := h.pending
	h.pending = nil
	h.mu.Unlock()

	for _, conn := range pending {
		if err := h.greet(conn); err != nil {
			l4g.Warn("[host(%s)] greet [%s]: %v", h.name(), conn.GetRawConn().RemoteAddr().String(), err)
		}
	}
	return nil
}

func (h *PeerHost) name() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.localID
}

// Connect dials every remote whose handle is lower than ours. Peers with a
// higher handle dial us.
func (h *PeerHost) Connect() error {
	h.mu.Lock()
	s := h.session
	h.mu.Unlock()
	if s == nil {
		return ErrNotBound
	}

	local, _ := s.Local().Get()
	for handle, p := range s.Players() {
		if handle >= local {
			break
		}
		l4g.Info("[host(%s)] dial %s at %s", h.name(), p.ID, p.Addr)
		if err := kcp_server.Dial(h.udpServer, p.Addr); err != nil {
			return err
		}
	}
	return nil
}

// Send implements game.Transport.
func (h *PeerHost) Send(to int, id pb.ID, msg pb.Message) error {
	h.mu.Lock()
	if to < 0 || to >= len(h.ids) {
		h.mu.Unlock()
		return errors.Wrapf(ErrNotBound, "handle %d", to)
	}
	conn := h.links[h.ids[to]]
	h.mu.Unlock()

	if conn == nil {
		return errors.Wrapf(ErrNoLink, "handle %d", to)
	}

	var body interface{}
	if msg != nil {
		body = msg
	}
	p := pb_packet.NewPacket(uint8(id), body)
	if p == nil {
		return errors.Wrapf(ErrBadMessage, "%s", id)
	}
	return conn.AsyncWritePacket(p, 0)
}

// Close implements game.Transport. It lets queued packets drain, then stops
// the listener and every link.
func (h *PeerHost) Close() {
	h.closeOnce.Do(func() {
		time.Sleep(closeLinger)
		h.udpServer.Stop()
		l4g.Info("[host(%s)] closed", h.name())
	})
}
