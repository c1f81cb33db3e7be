// Package config is the XML configuration of a client.
package config

import (
	"github.com/byebyebruce/rollbacknet/logic/game"
	"github.com/byebyebruce/rollbacknet/logic/input"
	"github.com/byebyebruce/rollbacknet/logic/sim"
	"github.com/byebyebruce/rollbacknet/pkg/fixed"
	"github.com/byebyebruce/rollbacknet/util"
	"github.com/pkg/errors"
)

var (
	Cfg = Default()
)

// Config mirrors the XML file. Zero fields fall back to Default.
type Config struct {
	Players                int     `xml:"players"`
	InputDelay             int     `xml:"input_delay"`
	RollbackWindow         int     `xml:"rollback_window"`
	TickRate               int     `xml:"tick_rate"`
	ChecksumInterval       int     `xml:"checksum_interval"`
	MaxFrameAdvantage      int     `xml:"max_frame_advantage"`
	DisconnectNotifyFrames int     `xml:"disconnect_notify_frames"`
	ArenaHalfExtent        float64 `xml:"arena_half_extent"`
	MoveSpeed              float64 `xml:"move_speed"`
	ProjectileSpeed        float64 `xml:"projectile_speed"`
	PlayerRadius           float64 `xml:"player_radius"`
	ProjectileRadius       float64 `xml:"projectile_radius"`
	ProjectileDamage       int32   `xml:"projectile_damage"`
	MaxHealth              int32   `xml:"max_health"`

	SignalURL string `xml:"signal_url"`
	Room      string `xml:"room"`
	LogFile   string `xml:"log_file"`
}

func Default() Config {
	s := sim.DefaultConfig()
	g := game.DefaultConfig()
	return Config{
		Players:                g.Players,
		InputDelay:             g.InputDelay,
		RollbackWindow:         g.Window,
		TickRate:               60,
		ChecksumInterval:       g.ChecksumInterval,
		MaxFrameAdvantage:      g.MaxFrameAdvantage,
		DisconnectNotifyFrames: g.DisconnectNotifyFrames,
		ArenaHalfExtent:        s.ArenaHalfExtent.Float(),
		MoveSpeed:              s.MoveSpeed.Float(),
		ProjectileSpeed:        s.ProjectileSpeed.Float(),
		PlayerRadius:           s.PlayerRadius.Float(),
		ProjectileRadius:       s.ProjectileRadius.Float(),
		ProjectileDamage:       s.ProjectileDamage,
		MaxHealth:              g.MaxHealth,
		SignalURL:              "ws://127.0.0.1:3536",
		Room:                   "rollback",
	}
}

// LoadConfig reads file over the defaults into Cfg
func LoadConfig(file string) error {
	c := Default()
	if err := util.LoadConfig(file, &c); nil != err {
		return errors.Wrapf(err, "load %s", file)
	}
	c.fill()
	Cfg = c
	return nil
}

// fill puts defaults back into fields the file set to zero
func (c *Config) fill() {
	d := Default()
	fillInt := func(v *int, def int) {
		if *v == 0 {
			*v = def
		}
	}
	fillFloat := func(v *float64, def float64) {
		if *v == 0 {
			*v = def
		}
	}
	fillInt(&c.Players, d.Players)
	fillInt(&c.RollbackWindow, d.RollbackWindow)
	fillInt(&c.TickRate, d.TickRate)
	fillFloat(&c.ArenaHalfExtent, d.ArenaHalfExtent)
	fillFloat(&c.MoveSpeed, d.MoveSpeed)
	fillFloat(&c.ProjectileSpeed, d.ProjectileSpeed)
	fillFloat(&c.PlayerRadius, d.PlayerRadius)
	if c.ProjectileDamage == 0 {
		c.ProjectileDamage = d.ProjectileDamage
	}
	if c.MaxHealth == 0 {
		c.MaxHealth = d.MaxHealth
	}
	if c.SignalURL == "" {
		c.SignalURL = d.SignalURL
	}
	if c.Room == "" {
		c.Room = d.Room
	}
}

// Sim converts the rules to fixed point, once
func (c Config) Sim() sim.Config {
	return sim.Config{
		ArenaHalfExtent:  fixed.FromFloat(c.ArenaHalfExtent),
		MoveSpeed:        fixed.FromFloat(c.MoveSpeed),
		ProjectileSpeed:  fixed.FromFloat(c.ProjectileSpeed),
		PlayerRadius:     fixed.FromFloat(c.PlayerRadius),
		ProjectileRadius: fixed.FromFloat(c.ProjectileRadius),
		ProjectileDamage: c.ProjectileDamage,
		FireAction:       input.Fire,
	}
}

// Session builds the session parameters
func (c Config) Session() game.Config {
	g := game.DefaultConfig()
	g.Players = c.Players
	g.InputDelay = c.InputDelay
	g.Window = c.RollbackWindow
	g.MaxHealth = c.MaxHealth
	g.ChecksumInterval = c.ChecksumInterval
	g.MaxFrameAdvantage = c.MaxFrameAdvantage
	g.DisconnectNotifyFrames = c.DisconnectNotifyFrames
	g.Sim = c.Sim()
	return g
}
