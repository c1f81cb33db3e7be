package game

import (
	"sync"

	"github.com/byebyebruce/rollbacknet/pb"
	"github.com/pkg/errors"
)

var errPipeClosed = errors.New("pipe endpoint closed")

type pipeMsg struct {
	due  int
	from int
	to   int
	id   pb.ID
	raw  []byte
}

// Pipe connects sessions of one process. Messages go through the wire
// encoding and arrive after latency calls to Pump.
type Pipe struct {
	mu       sync.Mutex
	latency  int
	now      int
	sessions map[int]*Session
	closed   map[int]bool // endpoint closed, no more sends
	cut      map[int]bool // link lost, in-flight messages dropped
	queue    []pipeMsg
}

func NewPipe(latency int) *Pipe {
	return &Pipe{
		latency:  latency,
		sessions: make(map[int]*Session),
		closed:   make(map[int]bool),
		cut:      make(map[int]bool),
	}
}

// Join registers s under handle and returns its transport.
func (p *Pipe) Join(handle int, s *Session) Transport {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sessions[handle] = s
	return &pipeEnd{pipe: p, handle: handle}
}

// SetLatency changes the delay of messages sent from now on.
func (p *Pipe) SetLatency(latency int) {
	p.mu.Lock()
	p.latency = latency
	p.mu.Unlock()
}

// Pump advances the pipe clock and delivers what is due, in send order.
func (p *Pipe) Pump() {
	p.mu.Lock()
	p.now++
	var due []pipeMsg
	rest := p.queue[:0]
	for _, m := range p.queue {
		if m.due <= p.now {
			due = append(due, m)
		} else {
			rest = append(rest, m)
		}
	}
	p.queue = rest
	p.mu.Unlock()

	for _, m := range due {
		p.deliver(m)
	}
}

// Cut simulates losing handle's link: every other session is told.
func (p *Pipe) Cut(handle int) {
	p.mu.Lock()
	p.closed[handle] = true
	p.cut[handle] = true
	var others []*Session
	for h, s := range p.sessions {
		if h != handle {
			others = append(others, s)
		}
	}
	p.mu.Unlock()

	for _, s := range others {
		s.Lost(handle)
	}
}

func (p *Pipe) deliver(m pipeMsg) {
	p.mu.Lock()
	s, ok := p.sessions[m.to]
	cut := p.cut[m.from] || p.cut[m.to]
	p.mu.Unlock()
	if !ok || cut {
		return
	}
	body, err := pb.Decode(m.id, m.raw)
	if err != nil {
		return
	}
	s.Deliver(Message{From: m.from, ID: m.id, Body: body})
}

type pipeEnd struct {
	pipe   *Pipe
	handle int
}

func (e *pipeEnd) Send(to int, id pb.ID, msg pb.Message) error {
	var raw []byte
	if msg != nil {
		b, err := msg.Marshal()
		if err != nil {
			return err
		}
		raw = b
	}

	p := e.pipe
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed[e.handle] {
		return errPipeClosed
	}
	p.queue = append(p.queue, pipeMsg{due: p.now + p.latency, from: e.handle, to: to, id: id, raw: raw})
	return nil
}

func (e *pipeEnd) Close() {
	p := e.pipe
	p.mu.Lock()
	p.closed[e.handle] = true
	p.mu.Unlock()
}
