package component

// VelocityComponent holds the current velocity in world units per second.
type VelocityComponent struct {
	X, Y float32
}
