package fixed

import "fmt"

// Vec2 is a 2D vector of fixed-point components.
type Vec2 struct {
	X Fixed `msgpack:"x"`
	Y Fixed `msgpack:"y"`
}

var (
	VecZero  = Vec2{}
	VecRight = Vec2{X: One}
	VecLeft  = Vec2{X: -One}
	VecUp    = Vec2{Y: One}
	VecDown  = Vec2{Y: -One}
)

// V builds a vector from floats. Intended for configuration and tests.
func V(x, y float64) Vec2 {
	return Vec2{X: FromFloat(x), Y: FromFloat(y)}
}

func (v Vec2) Add(o Vec2) Vec2 {
	return Vec2{X: v.X + o.X, Y: v.Y + o.Y}
}

func (v Vec2) Sub(o Vec2) Vec2 {
	return Vec2{X: v.X - o.X, Y: v.Y - o.Y}
}

func (v Vec2) Scale(s Fixed) Vec2 {
	return Vec2{X: v.X.Mul(s), Y: v.Y.Mul(s)}
}

func (v Vec2) IsZero() bool {
	return v.X == 0 && v.Y == 0
}

func (v Vec2) LengthSquared() Fixed {
	return v.X.Mul(v.X) + v.Y.Mul(v.Y)
}

func (v Vec2) Length() Fixed {
	return v.LengthSquared().Sqrt()
}

// DistanceSquared avoids the square root when only a comparison is needed.
func (v Vec2) DistanceSquared(o Vec2) Fixed {
	return v.Sub(o).LengthSquared()
}

// Normalize returns the unit vector along v, or the zero vector for zero
// input.
func (v Vec2) Normalize() Vec2 {
	if v.IsZero() {
		return VecZero
	}
	// axis-aligned vectors stay exact
	if v.Y == 0 {
		if v.X > 0 {
			return VecRight
		}
		return VecLeft
	}
	if v.X == 0 {
		if v.Y > 0 {
			return VecUp
		}
		return VecDown
	}
	l := v.Length()
	return Vec2{X: v.X.Div(l), Y: v.Y.Div(l)}
}

// Clamp limits both components to [-limit, limit].
func (v Vec2) Clamp(limit Fixed) Vec2 {
	return Vec2{X: v.X.Clamp(-limit, limit), Y: v.Y.Clamp(-limit, limit)}
}

// Within reports whether both components lie in [-limit, limit].
func (v Vec2) Within(limit Fixed) bool {
	return v.X >= -limit && v.X <= limit && v.Y >= -limit && v.Y <= limit
}

func (v Vec2) String() string {
	return fmt.Sprintf("(%s, %s)", v.X, v.Y)
}
