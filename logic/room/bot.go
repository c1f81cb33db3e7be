package room

import (
	"math/rand"

	"github.com/byebyebruce/rollbacknet/logic/input"
)

// Bot an InputSource that wanders and fires. The same seed presses the same
// buttons.
type Bot struct {
	rnd     *rand.Rand
	hold    int // ticks left on the current direction
	current input.Buttons
}

func NewBot(seed int64) *Bot {
	return &Bot{rnd: rand.New(rand.NewSource(seed))}
}

func (b *Bot) Buttons() input.Buttons {
	if b.hold <= 0 {
		b.hold = 10 + b.rnd.Intn(40)
		b.current = input.Buttons{}
		switch b.rnd.Intn(5) {
		case 0:
			b.current.Up = true
		case 1:
			b.current.Down = true
		case 2:
			b.current.Left = true
		case 3:
			b.current.Right = true
		}
	}
	b.hold--

	ret := b.current
	ret.LightPunch = b.rnd.Intn(20) == 0
	return ret
}
