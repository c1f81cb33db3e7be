package network

import (
	"net"
	"sync"
	"time"
)

type Config struct {
	PacketSendChanLimit    uint32        // the limit of packet send channel
	PacketReceiveChanLimit uint32        // the limit of packet receive channel
	ConnReadTimeout        time.Duration // read timeout
	ConnWriteTimeout       time.Duration // write timeout
}

type Server struct {
	config    *Config         // server configuration
	callback  ConnCallback    // message callbacks in connection
	protocol  Protocol        // customize packet protocol
	exitChan  chan struct{}   // notify all goroutines to shutdown
	waitGroup *sync.WaitGroup // wait for all goroutines
	closeOnce sync.Once
	listener  net.Listener
}

// NewServer creates a server
func NewServer(config *Config, callback ConnCallback, protocol Protocol) *Server {
	return &Server{
		config:    config,
		callback:  callback,
		protocol:  protocol,
		exitChan:  make(chan struct{}),
		waitGroup: &sync.WaitGroup{},
	}
}

type ConnectionCreator func(net.Conn, *Server) *Conn

// Start accepts connections until Stop
func (s *Server) Start(listener net.Listener, create ConnectionCreator) {
	s.listener = listener
	s.waitGroup.Add(1)
	defer s.waitGroup.Done()

	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-s.exitChan:
				return
			default:
			}
			continue
		}

		s.Adopt(conn, create)
	}
}

// Adopt serves a connection that was not accepted by the listener, e.g. one
// we dialed ourselves. It shares the server's callbacks and shutdown.
func (s *Server) Adopt(conn net.Conn, create ConnectionCreator) {
	s.waitGroup.Add(1)
	go func() {
		defer s.waitGroup.Done()
		create(conn, s).Do()
	}()
}

// Stop stops service
func (s *Server) Stop() {
	s.closeOnce.Do(func() {
		close(s.exitChan)
		if s.listener != nil {
			s.listener.Close()
		}
	})

	s.waitGroup.Wait()
}
