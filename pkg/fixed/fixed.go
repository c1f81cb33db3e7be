// Package fixed implements the fixed-point arithmetic used by the simulation.
//
// Every peer must produce bit-identical worlds from identical inputs, so the
// simulation never touches float64. Values are signed Q47.16: the low 16 bits
// hold the fraction.
package fixed

import (
	"fmt"
	"math"
)

const (
	Shift = 16
	One   = Fixed(1 << Shift)
	Half  = One / 2
	Zero  = Fixed(0)
)

// Fixed is a Q47.16 fixed-point number.
type Fixed int64

// FromInt converts an integer.
func FromInt(i int) Fixed {
	return Fixed(int64(i) << Shift)
}

// FromFloat converts a float, rounding half away from zero. Only configuration
// loading should call this; the result is the same on every IEEE-754 machine.
func FromFloat(f float64) Fixed {
	return Fixed(math.Round(f * float64(One)))
}

// Float converts back for display and tests.
func (a Fixed) Float() float64 {
	return float64(a) / float64(One)
}

func (a Fixed) Mul(b Fixed) Fixed {
	return Fixed((int64(a) * int64(b)) >> Shift)
}

// Div panics on division by zero, like integer division.
func (a Fixed) Div(b Fixed) Fixed {
	return Fixed((int64(a) << Shift) / int64(b))
}

func (a Fixed) Abs() Fixed {
	if a < 0 {
		return -a
	}
	return a
}

// Clamp limits a to [lo, hi].
func (a Fixed) Clamp(lo, hi Fixed) Fixed {
	if a < lo {
		return lo
	}
	if a > hi {
		return hi
	}
	return a
}

// Sqrt returns the square root of a, or zero for negative values.
func (a Fixed) Sqrt() Fixed {
	if a <= 0 {
		return 0
	}
	return Fixed(isqrt(uint64(a) << Shift))
}

func (a Fixed) String() string {
	return fmt.Sprintf("%.4f", a.Float())
}

// isqrt is floor(sqrt(n)) computed with integers only.
func isqrt(n uint64) uint64 {
	if n < 2 {
		return n
	}
	x := n
	y := (x + 1) / 2
	for y < x {
		x = y
		y = (x + n/x) / 2
	}
	return x
}
