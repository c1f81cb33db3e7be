package kcp_server

import (
	"net"
	"time"

	"github.com/byebyebruce/rollbacknet/pkg/network"
	"github.com/pkg/errors"
	"github.com/xtaci/kcp-go"
)

// DefaultConfig queue sizes and timeouts used for peer links. The read timeout
// doubles as the liveness check: a peer silent for this long is dropped.
var DefaultConfig = network.Config{
	PacketReceiveChanLimit: 1024,
	PacketSendChanLimit:    1024,
	ConnReadTimeout:        time.Second * 5,
	ConnWriteTimeout:       time.Second * 5,
}

// tune turbo mode: nodelay, 10ms interval, fast resend 2, no congestion control
func tune(conn net.Conn) {
	kcpConn, ok := conn.(*kcp.UDPSession)
	if !ok {
		return
	}
	kcpConn.SetNoDelay(1, 10, 2, 1)
	kcpConn.SetStreamMode(true)
	kcpConn.SetWindowSize(4096, 4096)
	kcpConn.SetReadBuffer(4 * 1024 * 1024)
	kcpConn.SetWriteBuffer(4 * 1024 * 1024)
	kcpConn.SetACKNoDelay(true)
}

func newConn(conn net.Conn, s *network.Server) *network.Conn {
	tune(conn)
	return network.NewConn(conn, s)
}

// ListenAndServe starts a kcp listener on addr
func ListenAndServe(addr string, config *network.Config, callback network.ConnCallback, protocol network.Protocol) (*network.Server, net.Addr, error) {
	if config == nil {
		c := DefaultConfig
		config = &c
	}

	l, err := kcp.Listen(addr)
	if nil != err {
		return nil, nil, errors.Wrapf(err, "kcp listen %s", addr)
	}

	server := network.NewServer(config, callback, protocol)
	go server.Start(l, newConn)

	return server, l.Addr(), nil
}

// Dial opens a kcp session to addr served by server's callbacks
func Dial(server *network.Server, addr string) error {
	c, err := kcp.Dial(addr)
	if nil != err {
		return errors.Wrapf(err, "kcp dial %s", addr)
	}
	server.Adopt(c, newConn)
	return nil
}
