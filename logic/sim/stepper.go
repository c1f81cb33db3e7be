// Package sim advances a world by exactly one frame.
//
// Step is a pure function of the previous world and the per-player input
// symbols. It runs a fixed, named list of phases in order; changing the order
// changes the outcome and breaks compatibility between peers. Nothing in here
// reads the clock, a random source or iterates a map.
package sim

import (
	"github.com/byebyebruce/rollbacknet/logic/input"
	"github.com/byebyebruce/rollbacknet/logic/world"
	"github.com/pkg/errors"
)

// ErrInconsistent reports a broken simulation invariant. It is fatal for the
// match: correcting the state locally would desynchronize peers.
var ErrInconsistent = errors.New("simulation invariant violated")

// Phase is one sub-step of a frame.
type Phase struct {
	Name string
	Run  func(c Config, w *world.World, inputs []input.Symbol)
}

// Phases is the frame contract, applied in this order.
var Phases = []Phase{
	{"movement", movePlayers},
	{"cooldown", reloadActions},
	{"fire", fireProjectiles},
	{"projectile", moveProjectiles},
	{"collision", resolveHits},
}

// Stepper applies Phases with a fixed Config.
type Stepper struct {
	cfg Config
}

func NewStepper(cfg Config) *Stepper {
	return &Stepper{cfg: cfg}
}

func (s *Stepper) Config() Config {
	return s.cfg
}

// Step returns the world after one frame. prev is not modified.
func (s *Stepper) Step(prev *world.World, inputs []input.Symbol) (*world.World, error) {
	if len(inputs) != len(prev.Players) {
		return nil, errors.Wrapf(ErrInconsistent, "%d inputs for %d players", len(inputs), len(prev.Players))
	}
	w := prev.Clone()
	for _, p := range Phases {
		p.Run(s.cfg, w, inputs)
	}
	if err := s.Check(w); err != nil {
		return nil, err
	}
	return w, nil
}

// Check verifies the invariants every stepped world must satisfy.
func (s *Stepper) Check(w *world.World) error {
	for i := range w.Players {
		p := &w.Players[i]
		if p.Handle != i {
			return errors.Wrapf(ErrInconsistent, "player slot %d holds handle %d", i, p.Handle)
		}
		if !p.Alive {
			continue
		}
		if !p.Position.Within(s.cfg.ArenaHalfExtent) {
			return errors.Wrapf(ErrInconsistent, "player %d at %s outside arena", i, p.Position)
		}
		if p.Health <= 0 {
			return errors.Wrapf(ErrInconsistent, "player %d alive with health %d", i, p.Health)
		}
	}
	for i := range w.Projectiles {
		if w.Projectiles[i].Direction.IsZero() {
			return errors.Wrapf(ErrInconsistent, "projectile %d has no direction", i)
		}
	}
	return nil
}
