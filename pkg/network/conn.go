package network

import (
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
)

var (
	ErrConnClosing   = errors.New("use of closed network connection")
	ErrWriteBlocking = errors.New("write packet was blocking")
	ErrReadBlocking  = errors.New("read packet was blocking")
)

// ConnCallback connection events. OnConnect and OnMessage return false to
// close the connection.
type ConnCallback interface {
	OnConnect(*Conn) bool
	OnMessage(*Conn, Packet) bool
	OnClose(*Conn)
}

// Conn a connection with its own read, write and handle goroutines
type Conn struct {
	srv               *Server
	conn              net.Conn
	extraData         atomic.Value
	callback          ConnCallback
	closeOnce         sync.Once
	closeFlag         int32
	closeChan         chan struct{}
	packetSendChan    chan Packet
	packetReceiveChan chan Packet
}

type extra struct {
	v interface{}
}

// NewConn wraps a raw connection served by srv
func NewConn(conn net.Conn, srv *Server) *Conn {
	return &Conn{
		srv:               srv,
		callback:          srv.callback,
		conn:              conn,
		closeChan:         make(chan struct{}),
		packetSendChan:    make(chan Packet, srv.config.PacketSendChanLimit),
		packetReceiveChan: make(chan Packet, srv.config.PacketReceiveChanLimit),
	}
}

// GetExtraData gets the extra data from the Conn
func (c *Conn) GetExtraData() interface{} {
	if e, ok := c.extraData.Load().(extra); ok {
		return e.v
	}
	return nil
}

// PutExtraData puts the extra data with the Conn
func (c *Conn) PutExtraData(data interface{}) {
	c.extraData.Store(extra{v: data})
}

// SetCallback replaces the callback. Only call it from OnConnect or OnMessage.
func (c *Conn) SetCallback(cb ConnCallback) {
	c.callback = cb
}

// GetRawConn returns the raw net.Conn
func (c *Conn) GetRawConn() net.Conn {
	return c.conn
}

// IsClosed indicates whether or not the connection is closed
func (c *Conn) IsClosed() bool {
	return atomic.LoadInt32(&c.closeFlag) == 1
}

// Close closes the connection
func (c *Conn) Close() {
	c.closeOnce.Do(func() {
		atomic.StoreInt32(&c.closeFlag, 1)
		close(c.closeChan)
		c.conn.Close()
		c.callback.OnClose(c)
	})
}

// AsyncWritePacket queues a packet; timeout 0 fails at once when the queue is
// full
func (c *Conn) AsyncWritePacket(p Packet, timeout time.Duration) (err error) {
	if c.IsClosed() {
		return ErrConnClosing
	}

	defer func() {
		if e := recover(); e != nil {
			err = ErrConnClosing
		}
	}()

	if timeout == 0 {
		select {
		case c.packetSendChan <- p:
			return nil
		default:
			return ErrWriteBlocking
		}
	}

	select {
	case c.packetSendChan <- p:
		return nil
	case <-c.closeChan:
		return ErrConnClosing
	case <-time.After(timeout):
		return ErrWriteBlocking
	}
}

// Do runs the connection until it closes
func (c *Conn) Do() {
	if !c.callback.OnConnect(c) {
		c.Close()
		return
	}

	var wg sync.WaitGroup
	wg.Add(3)
	go func() { defer wg.Done(); c.handleLoop() }()
	go func() { defer wg.Done(); c.readLoop() }()
	go func() { defer wg.Done(); c.writeLoop() }()
	wg.Wait()
}

func (c *Conn) readLoop() {
	defer c.Close()

	for {
		select {
		case <-c.srv.exitChan:
			return
		case <-c.closeChan:
			return
		default:
		}

		if c.srv.config.ConnReadTimeout > 0 {
			c.conn.SetReadDeadline(time.Now().Add(c.srv.config.ConnReadTimeout))
		}
		p, err := c.srv.protocol.ReadPacket(c.conn)
		if err != nil {
			return
		}

		select {
		case c.packetReceiveChan <- p:
		case <-c.closeChan:
			return
		}
	}
}

func (c *Conn) writeLoop() {
	defer c.Close()

	for {
		select {
		case <-c.srv.exitChan:
			return
		case <-c.closeChan:
			return
		case p := <-c.packetSendChan:
			if c.srv.config.ConnWriteTimeout > 0 {
				c.conn.SetWriteDeadline(time.Now().Add(c.srv.config.ConnWriteTimeout))
			}
			if _, err := c.conn.Write(p.Serialize()); err != nil {
				return
			}
		}
	}
}

func (c *Conn) handleLoop() {
	defer c.Close()

	for {
		select {
		case <-c.srv.exitChan:
			return
		case <-c.closeChan:
			return
		case p := <-c.packetReceiveChan:
			if !c.callback.OnMessage(c, p) {
				return
			}
		}
	}
}
