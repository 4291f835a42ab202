package component

// PositionComponent is the authoritative world position of an entity.
// The spatial grid keeps its own bookkeeping; systems that change this
// component must call SpatialGrid.Move explicitly.
type PositionComponent struct {
	X, Y float32
}
