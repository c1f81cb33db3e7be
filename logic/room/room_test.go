package room

import (
	"sync"
	"testing"
	"time"

	"github.com/byebyebruce/rollbacknet/logic/game"
	"github.com/byebyebruce/rollbacknet/logic/input"
	"github.com/byebyebruce/rollbacknet/logic/world"
	"github.com/pkg/errors"
)

type lastView struct {
	mu    sync.Mutex
	frame world.Frame
	views int
}

func (l *lastView) Present(v game.View) {
	l.mu.Lock()
	l.frame = v.Frame
	l.views++
	l.mu.Unlock()
}

func (l *lastView) get() (world.Frame, int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.frame, l.views
}

func walkRight() input.Buttons { return input.Buttons{Right: true} }

func newTestRoom(t *testing.T, pipe *game.Pipe, local int, p Presenter) *Room {
	return newRoomWith(t, pipe, local, InputFunc(walkRight), p)
}

func newRoomWith(t *testing.T, pipe *game.Pipe, local int, src InputSource, p Presenter) *Room {
	r, err := NewRoom(game.DefaultConfig(), src, WithTick(time.Millisecond), WithPresenter(p))
	if err != nil {
		t.Fatal(err)
	}
	s := r.Session()
	for h, id := range []string{"a", "b"} {
		if _, err := s.AddPlayer(game.PlayerInfo{ID: id, Local: h == local}); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.Attach(pipe.Join(local, s)); err != nil {
		t.Fatal(err)
	}
	return r
}

func Test_RoomPeerQuit(t *testing.T) {
	pipe := game.NewPipe(1)
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		for {
			select {
			case <-stop:
				return
			case <-time.After(time.Millisecond):
				pipe.Pump()
			}
		}
	}()

	va, vb := &lastView{}, &lastView{}
	ra := newTestRoom(t, pipe, 0, va)
	rb := newTestRoom(t, pipe, 1, vb)

	errA := make(chan error, 1)
	go func() { errA <- ra.Run() }()
	go rb.Run()

	deadline := time.Now().Add(time.Second * 5)
	for {
		if f, _ := va.get(); f >= 30 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("room a never reached frame 30")
		}
		time.Sleep(time.Millisecond * 5)
	}

	rb.Stop()
	if rb.Err() != nil {
		t.Errorf("b: %v", rb.Err())
	}

	select {
	case err := <-errA:
		var pd *game.PeerDisconnectedError
		if !errors.As(err, &pd) || !pd.Quit || pd.Handle != 1 {
			t.Errorf("a ended with %v", err)
		}
	case <-time.After(time.Second * 5):
		t.Fatal("a kept running without its peer")
	}
	if !ra.IsOver() || ra.Session().Phase() != game.Terminated {
		t.Error("room a not closed")
	}
}

// player 0 faces player 1 and keeps tapping fire; the first hit decides the match
func Test_RoomMatchDecided(t *testing.T) {
	pipe := game.NewPipe(1)
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		for {
			select {
			case <-stop:
				return
			case <-time.After(time.Millisecond):
				pipe.Pump()
			}
		}
	}()

	n := 0
	tap := InputFunc(func() input.Buttons {
		n++
		return input.Buttons{LightPunch: n%10 == 0}
	})
	stand := InputFunc(func() input.Buttons { return input.Buttons{} })
	ra := newRoomWith(t, pipe, 0, tap, nil)
	rb := newRoomWith(t, pipe, 1, stand, nil)

	errs := make(chan error, 2)
	go func() { errs <- ra.Run() }()
	go func() { errs <- rb.Run() }()

	decided := 0
	for i := 0; i < 2; i++ {
		select {
		case err := <-errs:
			var pd *game.PeerDisconnectedError
			switch {
			case err == nil:
				decided++
			case errors.As(err, &pd) && pd.Quit:
			default:
				t.Errorf("room ended with %v", err)
			}
		case <-time.After(time.Second * 10):
			ra.Stop()
			rb.Stop()
			t.Fatal("match never decided")
		}
	}
	if decided == 0 {
		t.Error("no room saw the kill")
	}
	if !ra.IsOver() || !rb.IsOver() {
		t.Error("rooms still open")
	}
}

func Test_RoomTimeout(t *testing.T) {
	cfg := game.DefaultConfig()
	cfg.Players = 1
	r, err := NewRoom(cfg, InputFunc(walkRight), WithTick(time.Millisecond), WithTimeout(time.Millisecond*50))
	if err != nil {
		t.Fatal(err)
	}
	r.Session().AddPlayer(game.PlayerInfo{ID: "solo", Local: true})
	if err := r.Run(); !errors.Is(err, ErrTimeout) {
		t.Errorf("err = %v", err)
	}
	if r.Session().Frame() == 0 {
		t.Error("never ticked")
	}
}

func Test_StopBeforeRun(t *testing.T) {
	r, err := NewRoom(game.DefaultConfig(), InputFunc(walkRight))
	if err != nil {
		t.Fatal(err)
	}
	r.Stop()
	if !r.IsOver() || r.Session().Phase() != game.Terminated {
		t.Error("not closed")
	}
	if err := r.Run(); err == nil {
		t.Error("ran after stop")
	}
}
