package kcp_server

import (
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/byebyebruce/rollbacknet/pkg/network"
	"github.com/xtaci/kcp-go"
)

type testCallback struct {
	numConn   uint32
	numMsg    uint32
	numDiscon uint32
	echo      bool
	got       chan string
}

func (t *testCallback) OnMessage(conn *network.Conn, msg network.Packet) bool {
	atomic.AddUint32(&t.numMsg, 1)
	body := string(msg.(*network.DefaultPacket).GetBody())
	if t.got != nil {
		t.got <- body
	}
	if t.echo {
		conn.AsyncWritePacket(network.NewDefaultPacket([]byte("pong")), time.Second)
	}
	return true
}

func (t *testCallback) OnConnect(conn *network.Conn) bool {
	id := atomic.AddUint32(&t.numConn, 1)
	conn.PutExtraData(id)
	return true
}

func (t *testCallback) OnClose(conn *network.Conn) {
	atomic.AddUint32(&t.numDiscon, 1)
}

func Test_KCPServer(t *testing.T) {
	callback := &testCallback{echo: true}
	server, addr, err := ListenAndServe("127.0.0.1:0", nil, callback, &network.DefaultProtocol{})
	if nil != err {
		t.Fatal(err)
	}
	defer server.Stop()

	wg := sync.WaitGroup{}
	const maxConn = 20
	for i := 0; i < maxConn; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			c, e := kcp.Dial(addr.String())
			if nil != e {
				t.Error(e)
				return
			}
			defer c.Close()

			c.Write(network.NewDefaultPacket([]byte("ping")).Serialize())
			b := make([]byte, 1024)
			c.SetReadDeadline(time.Now().Add(time.Second * 2))
			if _, e := c.Read(b); nil != e {
				t.Errorf("error:%s", e.Error())
			}
		}()
	}
	wg.Wait()

	n := atomic.LoadUint32(&callback.numConn)
	if n != maxConn {
		t.Errorf("numConn[%d] should be [%d]", n, maxConn)
	}

	n = atomic.LoadUint32(&callback.numMsg)
	if n != maxConn {
		t.Errorf("numMsg[%d] should be [%d]", n, maxConn)
	}
}

func Test_Dial(t *testing.T) {
	listener := &testCallback{got: make(chan string, 1)}
	server, addr, err := ListenAndServe("127.0.0.1:0", nil, listener, &network.DefaultProtocol{})
	if nil != err {
		t.Fatal(err)
	}
	defer server.Stop()

	dialer := &sayHello{}
	client := network.NewServer(&DefaultConfig, dialer, &network.DefaultProtocol{})
	defer client.Stop()
	if err := Dial(client, addr.String()); nil != err {
		t.Fatal(err)
	}

	select {
	case body := <-listener.got:
		if body != "hello" {
			t.Errorf("body = %s", body)
		}
	case <-time.After(time.Second * 3):
		t.Fatal("no message through dialed conn")
	}
}

type sayHello struct{}

func (sayHello) OnConnect(conn *network.Conn) bool {
	return conn.AsyncWritePacket(network.NewDefaultPacket([]byte("hello")), time.Second) == nil
}

func (sayHello) OnMessage(*network.Conn, network.Packet) bool { return true }

func (sayHello) OnClose(*network.Conn) {}

func Test_TCPServer(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if nil != err {
		t.Fatal(err)
	}

	config := &network.Config{
		PacketReceiveChanLimit: 1024,
		PacketSendChanLimit:    1024,
		ConnReadTimeout:        time.Millisecond * 50,
		ConnWriteTimeout:       time.Millisecond * 50,
	}

	callback := &testCallback{echo: true}
	server := network.NewServer(config, callback, &network.DefaultProtocol{})
	go server.Start(l, network.NewConn)

	wg := sync.WaitGroup{}
	const maxConn = 20
	for i := 0; i < maxConn; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c, e := net.Dial("tcp", l.Addr().String())
			if nil != e {
				t.Error(e)
				return
			}
			defer c.Close()
			c.Write(network.NewDefaultPacket([]byte("ping")).Serialize())
			b := make([]byte, 1024)
			c.SetReadDeadline(time.Now().Add(time.Second * 2))
			c.Read(b)
		}()
	}

	wg.Wait()
	server.Stop()

	n := atomic.LoadUint32(&callback.numConn)
	if n != maxConn {
		t.Errorf("numConn[%d] should be [%d]", n, maxConn)
	}

	n = atomic.LoadUint32(&callback.numDiscon)
	if n != maxConn {
		t.Errorf("numDiscon[%d] should be [%d]", n, maxConn)
	}
}
