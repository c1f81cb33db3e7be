package room

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/byebyebruce/rollbacknet/logic/game"
	"github.com/byebyebruce/rollbacknet/logic/input"
	"github.com/pkg/errors"

	l4g "github.com/alecthomas/log4go"
)

const (
	Frequency   = 60                      // ticks per second
	TickTimer   = time.Second / Frequency // tick period
	TimeoutTime = time.Minute * 30        // hard cap on a match
)

// ErrTimeout the match ran longer than the room timeout
var ErrTimeout = errors.New("room timeout")

// InputSource reads the local device once per tick
type InputSource interface {
	Buttons() input.Buttons
}

// Presenter gets a private copy of the world after every tick
type Presenter interface {
	Present(game.View)
}

// InputFunc adapts a function to InputSource
type InputFunc func() input.Buttons

func (f InputFunc) Buttons() input.Buttons { return f() }

// Room drives one session: the only goroutine that ticks it
type Room struct {
	session   *game.Session
	source    InputSource
	presenter Presenter
	sampler   input.Sampler

	tick      time.Duration
	timeout   time.Duration
	timeStamp int64

	started   int32
	closeFlag int32
	exitChan  chan struct{}
	outChan   chan error
	overChan  chan struct{}
	closeOnce sync.Once
	err       error
}

// Option tunes a Room
type Option func(*Room)

// WithTick sets the tick period
func WithTick(d time.Duration) Option {
	return func(r *Room) { r.tick = d }
}

// WithTimeout sets the match time cap
func WithTimeout(d time.Duration) Option {
	return func(r *Room) { r.timeout = d }
}

// WithPresenter sets who receives views
func WithPresenter(p Presenter) Option {
	return func(r *Room) { r.presenter = p }
}

// NewRoom creates the session in Matchmaking. Add players and attach a
// transport through Session() before Run.
func NewRoom(cfg game.Config, source InputSource, opts ...Option) (*Room, error) {
	r := &Room{
		source:    source,
		tick:      TickTimer,
		timeout:   TimeoutTime,
		timeStamp: time.Now().Unix(),
		exitChan:  make(chan struct{}),
		outChan:   make(chan error, 1),
		overChan:  make(chan struct{}),
	}
	for _, o := range opts {
		o(r)
	}

	s, err := game.NewSession(cfg, r)
	if err != nil {
		return nil, err
	}
	r.session = s
	return r, nil
}

func (r *Room) Session() *game.Session {
	return r.session
}

// IsOver whether Run has returned
func (r *Room) IsOver() bool {
	return atomic.LoadInt32(&r.closeFlag) != 0
}

// Err the error Run returned
func (r *Room) Err() error {
	<-r.overChan
	return r.err
}

// OnSessionStart re-arms the sampler: presses made while synchronizing went
// nowhere, so a button still held counts as pressed on the first frame.
func (r *Room) OnSessionStart(s *game.Session) {
	r.sampler.Reset()
	l4g.Info("[room(%s)] session start, local %s", r.tag(), s.Local())
}

func (r *Room) OnPeerInterrupted(s *game.Session, handle int, silent int) {
	l4g.Warn("[room(%s)] peer %d silent for %d ticks at frame %d", r.tag(), handle, silent, s.Frame())
}

func (r *Room) OnPeerResumed(s *game.Session, handle int) {
	l4g.Info("[room(%s)] peer %d back at frame %d", r.tag(), handle, s.Frame())
}

// OnPeerDisconnected ends the match after the current tick
func (r *Room) OnPeerDisconnected(s *game.Session, err *game.PeerDisconnectedError) {
	select {
	case r.outChan <- err:
	default:
	}
}

func (r *Room) OnSessionOver(s *game.Session, err error) {
	l4g.Info("[room(%s)] session over at frame %d: %v", r.tag(), s.Frame(), err)
}

func (r *Room) tag() string {
	if h, ok := r.session.Local().Get(); ok {
		return r.session.Players()[h].ID
	}
	return "?"
}

// decided reports whether the confirmed world has at most one player standing.
func (r *Room) decided() bool {
	if r.session.Phase() != game.Running || r.session.Config().Players < 2 {
		return false
	}
	w, f, err := r.session.ConfirmedWorld()
	if err != nil {
		l4g.Error("[room(%s)] confirmed world: %v", r.tag(), err)
		return false
	}
	if w.AliveCount() > 1 {
		return false
	}
	l4g.Info("[room(%s)] match decided at frame %d, %d standing", r.tag(), f, w.AliveCount())
	return true
}

// Run ticks the session until Stop, a decided match, a fatal session error,
// a lost peer or the timeout.
func (r *Room) Run() error {
	if !atomic.CompareAndSwapInt32(&r.started, 0, 1) {
		return errors.New("room already run")
	}
	defer func() {
		r.finish()
		l4g.Warn("[room(%s)] quit! total time=[%d] %v", r.tag(), time.Now().Unix()-r.timeStamp, r.session.Stats().Snapshot())
	}()

	ticker := time.NewTicker(r.tick)
	defer ticker.Stop()

	timeoutTimer := time.NewTimer(r.timeout)
	defer timeoutTimer.Stop()

	l4g.Info("[room(%s)] running...", r.tag())

	for {
		select {
		case <-r.exitChan:
			return nil
		case err := <-r.outChan:
			r.err = err
			return err
		case <-timeoutTimer.C:
			r.err = ErrTimeout
			return r.err
		case <-ticker.C:
			c := r.sampler.Sample(r.source.Buttons())
			if err := r.session.Tick(c); err != nil {
				r.err = err
				return err
			}
			if r.presenter != nil {
				v, err := r.session.View()
				if err != nil {
					l4g.Error("[room(%s)] view: %v", r.tag(), err)
					continue
				}
				r.presenter.Present(v)
			}
			if r.decided() {
				return nil
			}
		}
	}
}

func (r *Room) finish() {
	r.session.Stop()
	atomic.StoreInt32(&r.closeFlag, 1)
	close(r.overChan)
}

// Stop forces Run to return and waits for it. A room that never ran is
// closed right away.
func (r *Room) Stop() {
	r.closeOnce.Do(func() {
		close(r.exitChan)
	})
	if atomic.CompareAndSwapInt32(&r.started, 0, 1) {
		r.finish()
		return
	}
	<-r.overChan
}
