package core

import "math"

// Vec2 is a 2D vector in world units. Simulation math runs in float32
// to match the packed force buffers.
type Vec2 struct {
	X, Y float32
}

// Add returns v + o.
func (v Vec2) Add(o Vec2) Vec2 {
	return Vec2{v.X + o.X, v.Y + o.Y}
}

// Sub returns v - o.
func (v Vec2) Sub(o Vec2) Vec2 {
	return Vec2{v.X - o.X, v.Y - o.Y}
}

// Scale returns v scaled by s.
func (v Vec2) Scale(s float32) Vec2 {
	return Vec2{v.X * s, v.Y * s}
}

// LengthSq returns the squared magnitude.
func (v Vec2) LengthSq() float32 {
	return v.X*v.X + v.Y*v.Y
}

// Length returns the magnitude.
func (v Vec2) Length() float32 {
	return float32(math.Sqrt(float64(v.LengthSq())))
}

// Normalized returns the unit vector, or the zero vector when the
// magnitude is below epsilon.
func (v Vec2) Normalized() Vec2 {
	mag := v.Length()
	if mag <= 1e-4 {
		return Vec2{}
	}
	return Vec2{v.X / mag, v.Y / mag}
}

// ClampLength returns v with magnitude limited to max.
func (v Vec2) ClampLength(max float32) Vec2 {
	magSq := v.LengthSq()
	if magSq <= max*max {
		return v
	}
	scale := max / float32(math.Sqrt(float64(magSq)))
	return Vec2{v.X * scale, v.Y * scale}
}

// Perp returns the counterclockwise perpendicular vector.
func (v Vec2) Perp() Vec2 {
	return Vec2{-v.Y, v.X}
}
