package room

import "testing"

func Test_BotDeterministic(t *testing.T) {
	a, b := NewBot(7), NewBot(7)
	moved, fired := false, false
	for i := 0; i < 600; i++ {
		x, y := a.Buttons(), b.Buttons()
		if x != y {
			t.Fatalf("tick %d: %+v != %+v", i, x, y)
		}
		moved = moved || x.Up || x.Down || x.Left || x.Right
		fired = fired || x.LightPunch
	}
	if !moved || !fired {
		t.Errorf("bot idle: moved %v fired %v", moved, fired)
	}
}
