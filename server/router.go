package server

import (
	"time"

	"github.com/byebyebruce/rollbacknet/logic/game"
	"github.com/byebyebruce/rollbacknet/pb"
	"github.com/byebyebruce/rollbacknet/pkg/network"
	"github.com/byebyebruce/rollbacknet/pkg/packet/pb_packet"

	l4g "github.com/alecthomas/log4go"
)

// OnConnect introduces ourselves on every new link, or parks it until Bind
func (h *PeerHost) OnConnect(conn *network.Conn) bool {
	h.mu.Lock()
	h.totalConn++
	count := h.totalConn
	bound := h.session != nil
	if !bound {
		h.pending = append(h.pending, conn)
	}
	h.mu.Unlock()

	l4g.Debug("[host(%s)] OnConnect [%s] totalConn=%d", h.name(), conn.GetRawConn().RemoteAddr().String(), count)

	if !bound {
		return true
	}
	return h.greet(conn) == nil
}

func (h *PeerHost) greet(conn *network.Conn) error {
	hello := pb_packet.NewPacket(uint8(pb.ID_MSG_Hello), &pb.HelloMsg{PeerID: h.name()})
	return conn.AsyncWritePacket(hello, time.Millisecond*10)
}

// OnMessage names the link on Hello, then forwards everything to the session
func (h *PeerHost) OnMessage(conn *network.Conn, p network.Packet) bool {
	msg := p.(*pb_packet.Packet)
	id := pb.ID(msg.GetMessageID())

	if id == pb.ID_MSG_Hello {
		return h.hello(conn, msg)
	}

	peerID, ok := conn.GetExtraData().(string)
	if !ok {
		l4g.Error("[host(%s)] %s before hello from [%s]", h.name(), id, conn.GetRawConn().RemoteAddr().String())
		return false
	}

	h.mu.Lock()
	s := h.session
	handle, known := h.handles[peerID]
	h.mu.Unlock()
	if s == nil || !known {
		// not matched yet; inputs are resent and sync is retried
		return true
	}

	body, err := pb.Decode(id, msg.GetData())
	if err != nil {
		l4g.Error("[host(%s)] from %s: %v", h.name(), peerID, err)
		return false
	}
	s.Deliver(game.Message{From: handle, ID: id, Body: body})
	return true
}

func (h *PeerHost) hello(conn *network.Conn, msg *pb_packet.Packet) bool {
	rec := &pb.HelloMsg{}
	if err := msg.Unmarshal(rec); err != nil {
		l4g.Error("[host(%s)] msg.Unmarshal error=[%s]", h.name(), err.Error())
		return false
	}
	if rec.PeerID == "" || rec.PeerID == h.name() {
		l4g.Error("[host(%s)] bad hello %q", h.name(), rec.PeerID)
		return false
	}

	h.mu.Lock()
	old := h.links[rec.PeerID]
	h.links[rec.PeerID] = conn
	h.mu.Unlock()

	conn.PutExtraData(rec.PeerID)
	if old != nil && old != conn {
		l4g.Warn("[host(%s)] %s reconnected, dropping old link", h.name(), rec.PeerID)
		old.Close()
	}
	l4g.Info("[host(%s)] link to %s [%s]", h.name(), rec.PeerID, conn.GetRawConn().RemoteAddr().String())
	return true
}

// OnClose reports the lost peer, unless a newer link replaced this one
func (h *PeerHost) OnClose(conn *network.Conn) {
	peerID, _ := conn.GetExtraData().(string)

	h.mu.Lock()
	h.totalConn--
	count := h.totalConn
	current := peerID != "" && h.links[peerID] == conn
	if current {
		delete(h.links, peerID)
	}
	s := h.session
	handle, known := h.handles[peerID]
	h.mu.Unlock()

	l4g.Info("[host(%s)] OnClose %s: total=%d", h.name(), peerID, count)

	if current && known && s != nil {
		s.Lost(handle)
	}
}
