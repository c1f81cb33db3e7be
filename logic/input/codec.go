// Package input converts a player's controls to and from the one-byte symbol
// that travels over the network and feeds the simulation.
package input

import (
	"github.com/byebyebruce/rollbacknet/pkg/fixed"
)

// Symbol is one player's input for one frame.
type Symbol uint8

// Action is a single bit of a Symbol.
type Action = Symbol

const (
	Up    Action = 1 << 0
	Down  Action = 1 << 1
	Left  Action = 1 << 2
	Right Action = 1 << 3

	LightPunch Action = 1 << 4
	HeavyPunch Action = 1 << 5
	LightKick  Action = 1 << 6
	HeavyKick  Action = 1 << 7

	DirectionMask = Up | Down | Left | Right
	ActionMask    = LightPunch | HeavyPunch | LightKick | HeavyKick

	// Fire is the action that launches a projectile.
	Fire = LightPunch
)

// Actions lists the action bits in bit order.
var Actions = [...]Action{LightPunch, HeavyPunch, LightKick, HeavyKick}

// Controls is what a player holds this tick. Directions are "held" state,
// actions are "just pressed" state so a press fires exactly once.
type Controls struct {
	Up, Down, Left, Right bool

	LightPunch, HeavyPunch, LightKick, HeavyKick bool
}

// Encode packs controls into a symbol. Opposing directions may both be set.
func Encode(c Controls) Symbol {
	var s Symbol
	set := func(on bool, bit Symbol) {
		if on {
			s |= bit
		}
	}
	set(c.Up, Up)
	set(c.Down, Down)
	set(c.Left, Left)
	set(c.Right, Right)
	set(c.LightPunch, LightPunch)
	set(c.HeavyPunch, HeavyPunch)
	set(c.LightKick, LightKick)
	set(c.HeavyKick, HeavyKick)
	return s
}

// Decode is the inverse of Encode.
func Decode(s Symbol) Controls {
	return Controls{
		Up:         Has(s, Up),
		Down:       Has(s, Down),
		Left:       Has(s, Left),
		Right:      Has(s, Right),
		LightPunch: Has(s, LightPunch),
		HeavyPunch: Has(s, HeavyPunch),
		LightKick:  Has(s, LightKick),
		HeavyKick:  Has(s, HeavyKick),
	}
}

// Has tests a single bit.
func Has(s Symbol, a Action) bool {
	return s&a != 0
}

// Direction decodes the movement vector: unit length or zero. Opposing bits
// cancel exactly.
func Direction(s Symbol) fixed.Vec2 {
	var d fixed.Vec2
	if Has(s, Up) {
		d.Y += fixed.One
	}
	if Has(s, Down) {
		d.Y -= fixed.One
	}
	if Has(s, Right) {
		d.X += fixed.One
	}
	if Has(s, Left) {
		d.X -= fixed.One
	}
	return d.Normalize()
}
