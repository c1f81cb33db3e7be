package main

import (
	"github.com/byebyebruce/rollbacknet/logic/game"

	l4g "github.com/alecthomas/log4go"
)

// logPresenter prints the local player every `every` frames
type logPresenter struct {
	name  string
	every int
	last  int32
}

func (p *logPresenter) Present(v game.View) {
	f := int32(v.Frame)
	if f-p.last < int32(p.every) {
		return
	}
	p.last = f

	ps, ok := v.LocalPlayer()
	if !ok {
		l4g.Info("[%s] frame %d confirmed %d: local player gone", p.name, v.Frame, v.Confirmed)
		return
	}
	l4g.Info("[%s] frame %d confirmed %d: pos (%.2f, %.2f) health %d projectiles %d",
		p.name, v.Frame, v.Confirmed, ps.Position.X.Float(), ps.Position.Y.Float(), ps.Health, len(v.World.Projectiles))
}
