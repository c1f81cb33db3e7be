package input

// Buttons is the raw device state: true while a button is physically down.
type Buttons struct {
	Up, Down, Left, Right bool

	LightPunch, HeavyPunch, LightKick, HeavyKick bool
}

// Sampler turns raw button state into Controls, reporting an action only on
// the tick its button goes down.
type Sampler struct {
	last Buttons
}

func (s *Sampler) Sample(b Buttons) Controls {
	c := Controls{
		Up:         b.Up,
		Down:       b.Down,
		Left:       b.Left,
		Right:      b.Right,
		LightPunch: b.LightPunch && !s.last.LightPunch,
		HeavyPunch: b.HeavyPunch && !s.last.HeavyPunch,
		LightKick:  b.LightKick && !s.last.LightKick,
		HeavyKick:  b.HeavyKick && !s.last.HeavyKick,
	}
	s.last = b
	return c
}

// Reset forgets the previous sample.
func (s *Sampler) Reset() {
	s.last = Buttons{}
}
