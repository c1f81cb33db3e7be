// Package world holds the complete simulation state of a match.
package world

import (
	"github.com/byebyebruce/rollbacknet/logic/input"
	"github.com/byebyebruce/rollbacknet/pkg/fixed"
)

// Frame numbers a simulation step. Frame 0 is the initial world.
type Frame int32

// Facing is the horizontal direction a player looks at.
type Facing int8

const (
	FacingRight Facing = 0
	FacingLeft  Facing = 1
)

// Vec is the unit vector of the facing.
func (f Facing) Vec() fixed.Vec2 {
	if f == FacingLeft {
		return fixed.VecLeft
	}
	return fixed.VecRight
}

func (f Facing) String() string {
	if f == FacingLeft {
		return "left"
	}
	return "right"
}

// JumpState is carried in the snapshot but not driven by any phase yet.
type JumpState struct {
	Impulse fixed.Fixed `msgpack:"impulse"`
	Active  bool        `msgpack:"active"`
}

// PlayerState is one player. The slot for a handle is never reused: a dead
// player stays in World.Players with Alive=false.
type PlayerState struct {
	Handle   int          `msgpack:"handle"`
	Alive    bool         `msgpack:"alive"`
	Position fixed.Vec2   `msgpack:"pos"`
	Velocity fixed.Vec2   `msgpack:"vel"`
	Facing   Facing       `msgpack:"facing"`
	Health   int32        `msgpack:"hp"`
	Ready    input.Symbol `msgpack:"ready"` // action bits that may trigger
	Jump     JumpState    `msgpack:"jump"`
}

// Projectile moves in a straight line until it hits a player.
type Projectile struct {
	Owner     int         `msgpack:"owner"`
	Position  fixed.Vec2  `msgpack:"pos"`
	Direction fixed.Vec2  `msgpack:"dir"`
	Speed     fixed.Fixed `msgpack:"speed"`
}

// World is indexed by dense player handle.
type World struct {
	Players     []PlayerState `msgpack:"players"`
	Projectiles []Projectile  `msgpack:"projectiles"`
}

const (
	DefaultHealth      int32 = 100
	DefaultJumpImpulse       = 14
)

// SpawnSpacing is the horizontal distance between neighbouring spawn points.
var SpawnSpacing = fixed.FromInt(4)

// New spawns num players on a horizontal line centered on the origin, the
// left half facing right and the right half facing left. Two players start at
// (-2, 0) and (2, 0).
func New(num int, health int32) *World {
	w := &World{
		Players: make([]PlayerState, num),
	}
	for i := range w.Players {
		x := SpawnSpacing.Mul(fixed.FromInt(2*i-(num-1))) / 2
		facing := FacingRight
		if x > 0 {
			facing = FacingLeft
		}
		w.Players[i] = PlayerState{
			Handle:   i,
			Alive:    true,
			Position: fixed.Vec2{X: x},
			Facing:   facing,
			Health:   health,
			Ready:    input.ActionMask,
			Jump:     JumpState{Impulse: fixed.FromInt(DefaultJumpImpulse)},
		}
	}
	return w
}

// Clone returns an independent copy.
func (w *World) Clone() *World {
	c := &World{
		Players: make([]PlayerState, len(w.Players)),
	}
	copy(c.Players, w.Players)
	if len(w.Projectiles) > 0 {
		c.Projectiles = make([]Projectile, len(w.Projectiles))
		copy(c.Projectiles, w.Projectiles)
	}
	return c
}

// Player returns the live player for a handle.
func (w *World) Player(handle int) (*PlayerState, bool) {
	if handle < 0 || handle >= len(w.Players) || !w.Players[handle].Alive {
		return nil, false
	}
	return &w.Players[handle], true
}

// AliveCount counts players not yet despawned.
func (w *World) AliveCount() int {
	n := 0
	for i := range w.Players {
		if w.Players[i].Alive {
			n++
		}
	}
	return n
}

// Equal compares two worlds field by field.
func (w *World) Equal(o *World) bool {
	if len(w.Players) != len(o.Players) || len(w.Projectiles) != len(o.Projectiles) {
		return false
	}
	for i := range w.Players {
		if w.Players[i] != o.Players[i] {
			return false
		}
	}
	for i := range w.Projectiles {
		if w.Projectiles[i] != o.Projectiles[i] {
			return false
		}
	}
	return true
}
