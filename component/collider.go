package component

// ColliderComponent describes the footprint a unit presents to neighbor
// queries and separation forces.
type ColliderComponent struct {
	// Radius is the collision radius in world units
	Radius float32

	// Layer selects the collision plane (ground or flying); units on
	// different layers ignore each other for flocking
	Layer uint8
}
