package sim

import (
	"github.com/byebyebruce/rollbacknet/logic/input"
	"github.com/byebyebruce/rollbacknet/logic/world"
	"github.com/byebyebruce/rollbacknet/pkg/fixed"
)

// movePlayers moves each live player along its input direction and clamps it
// to the arena. Facing follows the horizontal component.
func movePlayers(c Config, w *world.World, inputs []input.Symbol) {
	for i := range w.Players {
		p := &w.Players[i]
		if !p.Alive {
			continue
		}
		dir := input.Direction(inputs[i])
		if dir.IsZero() {
			p.Velocity = fixed.VecZero
			continue
		}
		if dir.X > 0 {
			p.Facing = world.FacingRight
		} else if dir.X < 0 {
			p.Facing = world.FacingLeft
		}
		p.Velocity = dir.Scale(c.MoveSpeed)
		p.Position = p.Position.Add(p.Velocity).Clamp(c.ArenaHalfExtent)
	}
}

// reloadActions re-arms every action whose input is released.
func reloadActions(c Config, w *world.World, inputs []input.Symbol) {
	for i := range w.Players {
		p := &w.Players[i]
		if !p.Alive {
			continue
		}
		for _, a := range input.Actions {
			if !input.Has(inputs[i], a) {
				p.Ready |= a
			}
		}
	}
}

// fireProjectiles spawns a projectile just outside the player along its
// facing when the fire action is pressed and armed.
func fireProjectiles(c Config, w *world.World, inputs []input.Symbol) {
	for i := range w.Players {
		p := &w.Players[i]
		if !p.Alive {
			continue
		}
		if !input.Has(inputs[i], c.FireAction) || !input.Has(p.Ready, c.FireAction) {
			continue
		}
		dir := p.Facing.Vec()
		w.Projectiles = append(w.Projectiles, world.Projectile{
			Owner:     p.Handle,
			Position:  p.Position.Add(dir.Scale(c.hitDistance())),
			Direction: dir,
			Speed:     c.ProjectileSpeed,
		})
		p.Ready &^= c.FireAction
	}
}

// moveProjectiles advances projectiles and drops those too far outside the
// arena to ever reach a player.
func moveProjectiles(c Config, w *world.World, _ []input.Symbol) {
	limit := c.ArenaHalfExtent + c.hitDistance()
	kept := w.Projectiles[:0]
	for _, b := range w.Projectiles {
		b.Position = b.Position.Add(b.Direction.Scale(b.Speed))
		if !b.Position.Within(limit) {
			continue
		}
		kept = append(kept, b)
	}
	w.Projectiles = kept
}

// resolveHits checks every (player, projectile) pair in handle order, then
// projectile order. A projectile is consumed by the first player it hits.
func resolveHits(c Config, w *world.World, _ []input.Symbol) {
	hit := c.hitDistance().Mul(c.hitDistance())
	for i := range w.Players {
		p := &w.Players[i]
		if !p.Alive {
			continue
		}
		kept := w.Projectiles[:0]
		for _, b := range w.Projectiles {
			if p.Alive && p.Position.DistanceSquared(b.Position) < hit {
				p.Health -= c.ProjectileDamage
				if p.Health <= 0 {
					p.Health = 0
					p.Alive = false
					p.Velocity = fixed.VecZero
				}
				continue
			}
			kept = append(kept, b)
		}
		w.Projectiles = kept
	}
}
