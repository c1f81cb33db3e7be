package input

import (
	"testing"

	"github.com/byebyebruce/rollbacknet/pkg/fixed"
)

func Test_EncodeDecode(t *testing.T) {
	for i := 0; i < 256; i++ {
		s := Symbol(i)
		if Encode(Decode(s)) != s {
			t.Fatalf("Encode(Decode(%08b)) != %08b", s, s)
		}
	}
}

func Test_DirectionOpposites(t *testing.T) {
	if d := Direction(Left | Right); d != fixed.VecZero {
		t.Errorf("left+right = %s", d)
	}
	if d := Direction(Up | Down); d != fixed.VecZero {
		t.Errorf("up+down = %s", d)
	}
	if d := Direction(Up | Down | Left | Right | Fire); d != fixed.VecZero {
		t.Errorf("all directions = %s", d)
	}
	if d := Direction(Left | Right | Up); d != fixed.VecUp {
		t.Errorf("left+right+up = %s", d)
	}
}

func Test_DirectionUnit(t *testing.T) {
	cases := map[Symbol]fixed.Vec2{
		Up:    fixed.VecUp,
		Down:  fixed.VecDown,
		Left:  fixed.VecLeft,
		Right: fixed.VecRight,
		0:     fixed.VecZero,
	}
	for s, want := range cases {
		if got := Direction(s); got != want {
			t.Errorf("Direction(%04b) = %s, want %s", s, got, want)
		}
	}

	// every non-cancelling symbol decodes to a unit vector
	for i := 0; i < 256; i++ {
		d := Direction(Symbol(i))
		if d.IsZero() {
			continue
		}
		l := d.Length().Float()
		if l < 0.999 || l > 1.001 {
			t.Errorf("Direction(%08b) length %v", i, l)
		}
	}
}

func Test_Has(t *testing.T) {
	s := Right | Fire
	if !Has(s, Fire) || Has(s, HeavyKick) || !Has(s, Right) {
		t.Error("Has disagrees with the set bits")
	}
}

func Test_Sampler(t *testing.T) {
	var s Sampler
	c := s.Sample(Buttons{Right: true, LightPunch: true})
	if !c.Right || !c.LightPunch {
		t.Fatal("first press should report right and light punch")
	}
	c = s.Sample(Buttons{Right: true, LightPunch: true})
	if !c.Right || c.LightPunch {
		t.Error("held punch must not fire again")
	}
	s.Sample(Buttons{})
	c = s.Sample(Buttons{LightPunch: true})
	if !c.LightPunch {
		t.Error("press after release should fire")
	}
}
