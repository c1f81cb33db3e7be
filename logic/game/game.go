package game

import (
	"sync"
	"sync/atomic"

	"github.com/byebyebruce/rollbacknet/logic/input"
	"github.com/byebyebruce/rollbacknet/logic/rollback"
	"github.com/byebyebruce/rollbacknet/logic/sim"
	"github.com/byebyebruce/rollbacknet/logic/world"
	"github.com/byebyebruce/rollbacknet/pb"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	l4g "github.com/alecthomas/log4go"
)

// Phase session lifecycle
type Phase int32

const (
	Matchmaking   Phase = iota // collecting players
	Synchronizing              // handshaking with every remote
	Running                    // stepping frames
	Terminated                 // released, final
)

var phaseNames = [...]string{"matchmaking", "synchronizing", "running", "terminated"}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return "unknown"
	}
	return phaseNames[p]
}

// Session one match from this machine's point of view.
//
// Tick, Stop, AddPlayer and Attach must be called from one goroutine, the
// frame loop. Deliver, Lost, View and the getters may be called from any
// goroutine. Listener callbacks run inside Tick or Stop and must not call
// back into either.
type Session struct {
	cfg       Config
	digest    uint32
	nonce     uint32
	phase     int32
	tag       string
	peers     []*PeerConnection
	transport Transport
	listener  Listener
	stats     Stats

	sync    *PeerSync
	buffer  *rollback.Buffer
	stepper *sim.Stepper

	mu        sync.RWMutex // guards the fields View reads
	local     LocalHandle
	current   *world.World
	frame     world.Frame
	confirmed world.Frame

	tickMu    sync.Mutex
	inbox     chan Message
	done      chan struct{}
	closeOnce sync.Once
	err       error

	ticks     int
	syncTicks int
	held      input.Symbol           // action presses sampled on stalled ticks
	checked   world.Frame            // last frame whose checksum was taken
	sums      map[world.Frame]uint32 // ours, by frame
}

// NewSession starts in Matchmaking
func NewSession(cfg Config, listener Listener) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "session config")
	}
	if listener == nil {
		listener = NopListener{}
	}
	return &Session{
		cfg:      cfg,
		digest:   cfg.Digest(),
		nonce:    uuid.New().ID(),
		phase:    int32(Matchmaking),
		tag:      "?",
		listener: listener,
		stepper:  sim.NewStepper(cfg.Sim),
		inbox:    make(chan Message, inboxSize),
		done:     make(chan struct{}),
		sums:     make(map[world.Frame]uint32),
	}, nil
}

func (s *Session) Phase() Phase {
	return Phase(atomic.LoadInt32(&s.phase))
}

func (s *Session) setPhase(p Phase) {
	atomic.StoreInt32(&s.phase, int32(p))
}

func (s *Session) Config() Config {
	return s.cfg
}

func (s *Session) Stats() *Stats {
	return &s.stats
}

// Local is the local player's handle once matchmaking is complete.
func (s *Session) Local() LocalHandle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.local
}

// Frame is the latest simulated frame.
func (s *Session) Frame() world.Frame {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.frame
}

// Done is closed when the session terminates.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Err is the error that terminated the session, nil after Stop.
func (s *Session) Err() error {
	select {
	case <-s.done:
		return s.err
	default:
		return nil
	}
}

// Players lists the matched players by handle.
func (s *Session) Players() []PlayerInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ret := make([]PlayerInfo, len(s.peers))
	for i, p := range s.peers {
		ret[i] = PlayerInfo{ID: p.ID, Addr: p.Addr, Local: p.Local}
	}
	return ret
}

// Peer returns a copy of one participant's bookkeeping. Not for listeners.
func (s *Session) Peer(handle int) (PeerConnection, bool) {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()
	if handle < 0 || handle >= len(s.peers) {
		return PeerConnection{}, false
	}
	p := *s.peers[handle]
	p.sums = nil
	return p, true
}

// AddPlayer registers a matched player. Handles follow call order, so every
// peer must add players in the same order. Adding the last expected player
// moves the session to Synchronizing.
func (s *Session) AddPlayer(info PlayerInfo) (int, error) {
	if ph := s.Phase(); ph != Matchmaking {
		return 0, errors.Wrapf(ErrPhase, "add player in %s", ph)
	}

	for _, p := range s.peers {
		if p.ID == info.ID {
			return 0, s.fail(errors.Wrapf(ErrInvalidPlayerCount, "duplicate player %s", info.ID))
		}
		if p.Local && info.Local {
			return 0, s.fail(errors.Wrapf(ErrInvalidPlayerCount, "second local player %s", info.ID))
		}
	}

	s.mu.Lock()
	handle := len(s.peers)
	s.peers = append(s.peers, newPeerConnection(handle, info))
	s.mu.Unlock()

	l4g.Info("[session(%s)] add %s", s.tag, s.peers[handle])

	if len(s.peers) < s.cfg.Players {
		return handle, nil
	}
	if err := s.matched(); err != nil {
		return handle, s.fail(err)
	}
	return handle, nil
}

func (s *Session) matched() error {
	local := -1
	for _, p := range s.peers {
		if p.Local {
			local = p.Handle
		}
	}
	if local < 0 {
		return errors.Wrap(ErrInvalidPlayerCount, "no local player")
	}

	buffer, err := rollback.New(s.cfg.Window)
	if err != nil {
		return err
	}
	w := world.New(s.cfg.Players, s.cfg.MaxHealth)
	snap, err := world.Encode(0, w)
	if err != nil {
		return err
	}
	if err := buffer.Save(snap); err != nil {
		return err
	}

	s.buffer = buffer
	s.sync = NewPeerSync(s.cfg.Players, s.cfg.InputDelay)
	s.tag = s.peers[local].ID
	for _, p := range s.peers {
		p.Confirmed, p.LastInput = s.sync.Last(p.Handle)
	}

	s.mu.Lock()
	s.local = Assigned(local)
	s.current = w
	s.mu.Unlock()

	s.setPhase(Synchronizing)
	l4g.Info("[session(%s)] matched %d players, local %s, digest %08x", s.tag, len(s.peers), s.local, s.digest)

	if s.cfg.Players == 1 {
		s.start()
	}
	return nil
}

// Attach sets the transport used to reach remote peers.
func (s *Session) Attach(t Transport) error {
	if ph := s.Phase(); ph != Synchronizing {
		return errors.Wrapf(ErrPhase, "attach transport in %s", ph)
	}
	s.transport = t
	return nil
}

// Deliver queues a message for the next Tick. It blocks only while the
// queue is full.
func (s *Session) Deliver(m Message) {
	select {
	case s.inbox <- m:
	case <-s.done:
	}
}

// Lost reports that the transport lost a peer.
func (s *Session) Lost(handle int) {
	s.Deliver(Message{From: handle, Lost: true})
}

// Tick runs one iteration of the frame loop with the local controls sampled
// for it. A returned error is fatal: the session is already Terminated.
func (s *Session) Tick(c input.Controls) error {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()

	switch ph := s.Phase(); ph {
	case Synchronizing, Running:
	default:
		return errors.Wrapf(ErrPhase, "tick in %s", ph)
	}
	s.ticks++

	if err := s.drain(); err != nil {
		return s.fail(err)
	}

	if s.Phase() == Synchronizing {
		s.handshake()
		s.checkHealth()
		return nil
	}

	if err := s.rollback(); err != nil {
		return s.fail(err)
	}

	if s.stall() {
		// presses are edge triggered; carry them to the next stepped frame
		s.held |= input.Encode(c) & input.ActionMask
		s.stats.incStalled()
		s.sendInputs()
		s.checkHealth()
		return nil
	}

	local, _ := s.local.Get()
	sym := input.Encode(c) | s.held
	s.held = 0
	s.sync.AddInputs(local, s.frame+1+world.Frame(s.cfg.InputDelay), []input.Symbol{sym})
	s.sendInputs()

	if err := s.advance(); err != nil {
		return s.fail(err)
	}
	s.confirm()
	if err := s.exchangeChecksums(); err != nil {
		return s.fail(err)
	}
	s.checkHealth()
	return nil
}

// Stop terminates the session between ticks. No further frames are
// simulated.
func (s *Session) Stop() {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()
	s.terminate(nil)
}

func (s *Session) fail(err error) error {
	s.terminate(err)
	return err
}

func (s *Session) terminate(err error) {
	s.closeOnce.Do(func() {
		prev := s.Phase()
		s.err = err
		s.setPhase(Terminated)
		close(s.done)

		if prev == Running || prev == Synchronizing {
			for _, p := range s.remotes() {
				s.send(p.Handle, pb.ID_MSG_Quit, nil)
			}
		}
		if s.transport != nil {
			s.transport.Close()
		}
		if s.buffer != nil {
			s.buffer.Release()
		}

		if err != nil {
			l4g.Error("[session(%s)] terminated in %s at frame %d: %v", s.tag, prev, s.frame, err)
		} else {
			l4g.Info("[session(%s)] stopped in %s at frame %d %v", s.tag, prev, s.frame, s.stats.Snapshot())
		}
		s.listener.OnSessionOver(s, err)
	})
}

func (s *Session) start() {
	s.setPhase(Running)
	l4g.Info("[session(%s)] running", s.tag)
	s.listener.OnSessionStart(s)
}

// remotes are the connected remote peers.
func (s *Session) remotes() []*PeerConnection {
	ret := make([]*PeerConnection, 0, len(s.peers))
	for _, p := range s.peers {
		if !p.Local && p.Connected {
			ret = append(ret, p)
		}
	}
	return ret
}

func (s *Session) send(to int, id pb.ID, msg pb.Message) {
	if s.transport == nil {
		return
	}
	if err := s.transport.Send(to, id, msg); err != nil {
		l4g.Warn("[session(%s)] send %s to %d: %v", s.tag, id, to, err)
	}
}

func (s *Session) drain() error {
	for {
		select {
		case m := <-s.inbox:
			if err := s.handle(m); err != nil {
				return err
			}
		default:
			return nil
		}
	}
}

func (s *Session) handle(m Message) error {
	if m.From < 0 || m.From >= len(s.peers) || s.peers[m.From].Local {
		s.stats.incDropped()
		return nil
	}
	p := s.peers[m.From]
	if !p.Connected {
		s.stats.incDropped()
		return nil
	}
	if m.Lost {
		s.disconnect(p, false)
		return nil
	}
	if p.heard(s.ticks) {
		l4g.Info("[session(%s)] %s resumed", s.tag, p)
		s.listener.OnPeerResumed(s, p.Handle)
	}

	switch m.ID {
	case pb.ID_MSG_Sync:
		msg, ok := m.Body.(*pb.SyncMsg)
		if !ok {
			break
		}
		if msg.ConfigDigest != s.digest {
			return errors.Wrapf(ErrConfigMismatch, "%s digest %08x, ours %08x", p, msg.ConfigDigest, s.digest)
		}
		s.send(p.Handle, pb.ID_MSG_SyncReply, &pb.SyncMsg{Nonce: msg.Nonce, ConfigDigest: s.digest})
		return nil

	case pb.ID_MSG_SyncReply:
		msg, ok := m.Body.(*pb.SyncMsg)
		if !ok || msg.Nonce != s.nonce {
			break
		}
		if msg.ConfigDigest != s.digest {
			return errors.Wrapf(ErrConfigMismatch, "%s digest %08x, ours %08x", p, msg.ConfigDigest, s.digest)
		}
		if !p.synced {
			p.synced = true
			l4g.Info("[session(%s)] %s synchronized", s.tag, p)
		}
		if s.Phase() == Synchronizing && s.allSynced() {
			s.start()
		}
		return nil

	case pb.ID_MSG_Input:
		msg, ok := m.Body.(*pb.InputMsg)
		if !ok {
			break
		}
		s.onInput(p, msg)
		return nil

	case pb.ID_MSG_Checksum:
		msg, ok := m.Body.(*pb.ChecksumMsg)
		if !ok {
			break
		}
		return s.onChecksum(p, msg)

	case pb.ID_MSG_Quit:
		s.disconnect(p, true)
		return nil
	}

	s.stats.incDropped()
	l4g.Debug("[session(%s)] drop %s from %s", s.tag, m.ID, p)
	return nil
}

func (s *Session) allSynced() bool {
	for _, p := range s.peers {
		if !p.Local && !p.synced {
			return false
		}
	}
	return true
}

// handshake resends Sync to every remote that has not answered yet.
func (s *Session) handshake() {
	if s.transport == nil {
		return
	}
	retry := s.cfg.SyncRetryFrames
	if retry < 1 {
		retry = 1
	}
	if s.syncTicks%retry == 0 {
		for _, p := range s.remotes() {
			if !p.synced {
				s.send(p.Handle, pb.ID_MSG_Sync, &pb.SyncMsg{Nonce: s.nonce, ConfigDigest: s.digest})
			}
		}
	}
	s.syncTicks++
}

func (s *Session) disconnect(p *PeerConnection, quit bool) {
	p.Connected = false
	err := &PeerDisconnectedError{Handle: p.Handle, ID: p.ID, Quit: quit}
	l4g.Warn("[session(%s)] %v at frame %d", s.tag, err, s.frame)
	s.listener.OnPeerDisconnected(s, err)
}

func (s *Session) onInput(p *PeerConnection, msg *pb.InputMsg) {
	if f := world.Frame(msg.CurrentFrame); f > p.RemoteFrame {
		p.RemoteFrame = f
	}
	p.Advantage = msg.Advantage
	if ack := world.Frame(msg.AckFrame); ack > p.ackFrame {
		p.ackFrame = ack
	}

	syms := make([]input.Symbol, len(msg.Inputs))
	for i, b := range msg.Inputs {
		syms[i] = input.Symbol(b)
	}
	start := world.Frame(msg.StartFrame)
	if len(syms) > 0 && start > p.Confirmed+1 {
		// resent from our ack on the next message
		s.stats.incDropped()
	}
	s.sync.AddInputs(p.Handle, start, syms)
	p.Confirmed, p.LastInput = s.sync.Last(p.Handle)
}

func (s *Session) sendInputs() {
	local, _ := s.local.Get()
	for _, p := range s.remotes() {
		from := p.ackFrame + 1
		syms := s.sync.Range(local, from, maxInputsPerMsg)
		raw := make([]byte, len(syms))
		for i, sym := range syms {
			raw[i] = byte(sym)
		}
		s.send(p.Handle, pb.ID_MSG_Input, &pb.InputMsg{
			StartFrame:   int32(from),
			Inputs:       raw,
			CurrentFrame: int32(s.frame),
			Advantage:    int32(s.frame - p.RemoteFrame),
			AckFrame:     int32(p.Confirmed),
		})
	}
}

// stall reports whether we are far enough ahead of a peer to skip a frame.
func (s *Session) stall() bool {
	if s.cfg.MaxFrameAdvantage <= 0 {
		return false
	}
	for _, p := range s.remotes() {
		if frameAdvantage(s.frame, p.RemoteFrame, p.Advantage) >= s.cfg.MaxFrameAdvantage {
			return true
		}
	}
	return false
}

func (s *Session) publish(w *world.World, f world.Frame) {
	s.mu.Lock()
	s.current, s.frame = w, f
	s.mu.Unlock()
}

func (s *Session) advance() error {
	next := s.frame + 1
	inputs, predicted := s.sync.Inputs(next)
	w, err := s.stepper.Step(s.current, inputs)
	if err != nil {
		return errors.Wrapf(err, "step frame %d", next)
	}
	snap, err := world.Encode(next, w)
	if err != nil {
		return errors.Wrapf(err, "encode frame %d", next)
	}
	if err := s.buffer.Save(snap); err != nil {
		return err
	}
	s.sync.Stepped(next, inputs)

	if predicted > 0 {
		s.stats.incPredicted()
		for _, p := range s.peers {
			if p.Confirmed < next && !p.Local {
				p.Predicted = next
			}
		}
	}
	s.stats.incFrames()
	s.publish(w, next)
	return nil
}

// rollback resimulates from the earliest mispredicted frame to the current
// one, overwriting the snapshots on the way.
func (s *Session) rollback() error {
	f, ok := s.sync.Rollback()
	if !ok || f > s.frame {
		return nil
	}
	if s.buffer.Prunable(f) {
		return errors.Wrapf(sim.ErrInconsistent, "rollback to frame %d below confirmed %d", f, s.buffer.Confirmed())
	}

	snap, err := s.buffer.Load(f - 1)
	if err != nil {
		return errors.Wrapf(err, "rollback to frame %d at frame %d", f, s.frame)
	}
	w, err := snap.Decode()
	if err != nil {
		return errors.Wrapf(err, "rollback to frame %d", f)
	}

	for g := f; g <= s.frame; g++ {
		inputs, _ := s.sync.Inputs(g)
		if w, err = s.stepper.Step(w, inputs); err != nil {
			return errors.Wrapf(err, "resimulate frame %d", g)
		}
		if snap, err = world.Encode(g, w); err != nil {
			return errors.Wrapf(err, "encode frame %d", g)
		}
		if err := s.buffer.Save(snap); err != nil {
			return err
		}
		s.sync.Stepped(g, inputs)
	}

	n := int(s.frame - f + 1)
	s.stats.addRollback(n)
	s.publish(w, s.frame)
	l4g.Debug("[session(%s)] rollback to %d, resimulated %d frames", s.tag, f, n)
	return nil
}

// confirm moves the horizon below which nothing is rolled back and forgets
// input history no peer still needs.
func (s *Session) confirm() {
	h := s.sync.Confirmed()
	if h > s.frame {
		h = s.frame
	}
	s.buffer.Confirm(h)

	trim := h
	for _, p := range s.remotes() {
		if p.ackFrame+1 < trim {
			trim = p.ackFrame + 1
		}
	}
	s.sync.Trim(trim)

	s.mu.Lock()
	s.confirmed = h
	s.mu.Unlock()
}

// exchangeChecksums sends the checksum of every interval frame that became
// confirmed and compares it with what peers reported.
func (s *Session) exchangeChecksums() error {
	if s.cfg.ChecksumInterval <= 0 {
		return nil
	}
	iv := world.Frame(s.cfg.ChecksumInterval)
	h := s.buffer.Confirmed()

	for f := s.checked + iv; f <= h; f += iv {
		s.checked = f
		stale := f - iv*checksumHistory
		delete(s.sums, stale)
		for _, p := range s.peers {
			delete(p.sums, stale)
		}

		snap, err := s.buffer.Load(f)
		if err != nil {
			l4g.Warn("[session(%s)] skip checksum of frame %d: %v", s.tag, f, err)
			continue
		}
		s.sums[f] = snap.Checksum

		for _, p := range s.remotes() {
			s.send(p.Handle, pb.ID_MSG_Checksum, &pb.ChecksumMsg{Frame: int32(f), Checksum: snap.Checksum})
			if theirs, ok := p.sums[f]; ok {
				delete(p.sums, f)
				if err := s.compare(p, f, snap.Checksum, theirs); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (s *Session) onChecksum(p *PeerConnection, msg *pb.ChecksumMsg) error {
	f := world.Frame(msg.Frame)
	if ours, ok := s.sums[f]; ok {
		return s.compare(p, f, ours, msg.Checksum)
	}
	iv := world.Frame(s.cfg.ChecksumInterval)
	if iv > 0 && f > s.checked && f%iv == 0 && f <= s.checked+iv*checksumHistory {
		p.sums[f] = msg.Checksum
		return nil
	}
	s.stats.incDropped()
	return nil
}

func (s *Session) compare(p *PeerConnection, f world.Frame, ours, theirs uint32) error {
	if ours != theirs {
		return errors.Wrapf(ErrDesync, "frame %d: ours %08x, %s %08x", f, ours, p, theirs)
	}
	s.stats.incChecksums()
	return nil
}

// checkHealth raises an interruption for peers silent too long. The session
// keeps predicting for them; the listener decides whether to give up.
func (s *Session) checkHealth() {
	n := s.cfg.DisconnectNotifyFrames
	if n <= 0 {
		return
	}
	for _, p := range s.remotes() {
		if p.interrupted {
			continue
		}
		if silent := s.ticks - p.lastRecv; silent >= n {
			p.interrupted = true
			l4g.Warn("[session(%s)] %s silent for %d ticks", s.tag, p, silent)
			s.listener.OnPeerInterrupted(s, p.Handle, silent)
		}
	}
}
