package sim

import (
	"github.com/byebyebruce/rollbacknet/logic/input"
	"github.com/byebyebruce/rollbacknet/pkg/fixed"
)

// Config holds the simulation rules. Every peer of a match must use the same
// values.
type Config struct {
	ArenaHalfExtent  fixed.Fixed // players are clamped to [-h, h] on both axes
	MoveSpeed        fixed.Fixed // distance per frame
	ProjectileSpeed  fixed.Fixed // distance per frame
	PlayerRadius     fixed.Fixed
	ProjectileRadius fixed.Fixed
	ProjectileDamage int32        // health removed per hit
	FireAction       input.Action // action bit that launches a projectile
}

// DefaultConfig is the stock arena: a 41x41 map, players of radius
// 0.5 and one hit kills.
func DefaultConfig() Config {
	return Config{
		ArenaHalfExtent:  fixed.FromFloat(41.0/2 - 0.5),
		MoveSpeed:        fixed.FromFloat(0.13),
		ProjectileSpeed:  fixed.FromFloat(0.35),
		PlayerRadius:     fixed.FromFloat(0.5),
		ProjectileRadius: fixed.FromFloat(0.025),
		ProjectileDamage: 100,
		FireAction:       input.Fire,
	}
}

// hitDistance is the center distance below which a projectile hits a player.
func (c Config) hitDistance() fixed.Fixed {
	return c.PlayerRadius + c.ProjectileRadius
}
