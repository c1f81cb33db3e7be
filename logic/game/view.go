package game

import (
	"github.com/brunoga/deep"
	"github.com/byebyebruce/rollbacknet/logic/world"
	"github.com/byebyebruce/rollbacknet/pkg/fixed"
	"github.com/pkg/errors"
)

// View is what presentation reads once per render frame. World is a private
// copy; changing it has no effect on the session.
type View struct {
	Phase     Phase
	Frame     world.Frame
	Confirmed world.Frame // frames up to here will not be rolled back
	Local     LocalHandle
	World     *world.World // nil before matchmaking completes
}

// View copies the latest confirmed-or-predicted world.
func (s *Session) View() (View, error) {
	s.mu.RLock()
	v := View{
		Phase:     s.Phase(),
		Frame:     s.frame,
		Confirmed: s.confirmed,
		Local:     s.local,
	}
	w := s.current
	s.mu.RUnlock()

	if w == nil {
		return v, nil
	}
	c, err := deep.Copy(w)
	if err != nil {
		return v, errors.Wrap(err, "copy world")
	}
	v.World = c
	return v, nil
}

// ConfirmedWorld decodes the world at the confirmation horizon, which no
// rollback can change anymore.
func (s *Session) ConfirmedWorld() (*world.World, world.Frame, error) {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()

	if s.buffer == nil {
		return nil, 0, errors.Wrapf(ErrPhase, "no world in %s", s.Phase())
	}
	f := s.buffer.Confirmed()
	snap, err := s.buffer.Load(f)
	if err != nil {
		return nil, f, errors.Wrapf(err, "confirmed frame %d", f)
	}
	w, err := snap.Decode()
	if err != nil {
		return nil, f, errors.Wrapf(err, "confirmed frame %d", f)
	}
	return w, f, nil
}

// LocalPlayer is the local player's state. ok is false while the handle is
// unassigned or the player is gone.
func (v View) LocalPlayer() (p world.PlayerState, ok bool) {
	h, assigned := v.Local.Get()
	if !assigned || v.World == nil {
		return p, false
	}
	ps, found := v.World.Player(h)
	if !found || !ps.Alive {
		return p, false
	}
	return *ps, true
}

// LocalPlayerPosition is a no-op returning false when unassigned.
func (v View) LocalPlayerPosition() (fixed.Vec2, bool) {
	p, ok := v.LocalPlayer()
	return p.Position, ok
}
