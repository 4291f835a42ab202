package core

// Entity is a generational handle to a storage slot in the world.
// Index names a reusable slot; Generation distinguishes the current
// occupant from previously destroyed entities that held the same slot.
// The zero value is never a live entity.
type Entity struct {
	Index      uint32
	Generation uint32
}

// NoEntity is the invalid zero handle.
var NoEntity = Entity{}

// IsZero reports whether the handle is the zero value.
func (e Entity) IsZero() bool {
	return e == NoEntity
}
