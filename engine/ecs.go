package engine

import (
	"reflect"
	"sync"
	"time"

	"github.com/veldtgame/veldt/core"
)

// Component is a marker interface for all components
type Component interface{}

// System is an interface that all systems must implement
type System interface {
	Name() string
	Update(world *World, dt time.Duration)
	Priority() int // Lower values run first
}

// slot is a reusable entity storage cell. generation increments on every
// destroy so stale handles to the same index never validate again.
type slot struct {
	generation uint32
	alive      bool
	components map[reflect.Type]Component
}

// World owns entity identity, per-entity component sets and the archetype
// query cache. It is designed to be owned by a single tick loop; the
// internal mutex makes incidental cross-goroutine reads safe but offers
// no ordering guarantees under concurrent mutation.
type World struct {
	mu      sync.RWMutex
	slots   []slot
	free    []uint32
	order   []core.Entity // live entities in creation order
	cache   map[string]*queryEntry
	systems []System
}

// NewWorld creates an empty ECS world
func NewWorld() *World {
	return &World{
		slots:   make([]slot, 0, 256),
		free:    make([]uint32, 0, 64),
		order:   make([]core.Entity, 0, 256),
		cache:   make(map[string]*queryEntry),
		systems: make([]System, 0),
	}
}

// CreateEntity allocates an entity with an empty component set, reusing a
// destroyed slot when one is available. Amortized O(1).
func (w *World) CreateEntity() core.Entity {
	w.mu.Lock()
	defer w.mu.Unlock()

	var idx uint32
	if n := len(w.free); n > 0 {
		idx = w.free[n-1]
		w.free = w.free[:n-1]
	} else {
		// Generations start at 1 so the zero Entity is never live
		w.slots = append(w.slots, slot{generation: 1})
		idx = uint32(len(w.slots) - 1)
	}

	s := &w.slots[idx]
	s.alive = true
	s.components = make(map[reflect.Type]Component)

	e := core.Entity{Index: idx, Generation: s.generation}
	w.order = append(w.order, e)
	return e
}

// DestroyEntity clears the entity's components, invalidates all
// outstanding handles to it and recycles the slot. Destroying an already
// invalid handle is a no-op, not an error: systems routinely hold ids
// cached from a previous tick.
func (w *World) DestroyEntity(e core.Entity) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.validLocked(e) {
		return
	}

	s := &w.slots[e.Index]
	for tag := range s.components {
		w.invalidateTagLocked(tag)
	}
	s.components = nil
	s.alive = false
	s.generation++
	w.free = append(w.free, e.Index)

	// Ordered removal keeps query results in creation order
	for i, live := range w.order {
		if live == e {
			w.order = append(w.order[:i], w.order[i+1:]...)
			break
		}
	}
}

// IsValid reports whether the handle refers to a live entity.
func (w *World) IsValid(e core.Entity) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.validLocked(e)
}

// GetEntity returns the live handle for e, or false if the handle is
// stale or was never created.
func (w *World) GetEntity(e core.Entity) (core.Entity, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if !w.validLocked(e) {
		return core.NoEntity, false
	}
	return e, true
}

func (w *World) validLocked(e core.Entity) bool {
	if int(e.Index) >= len(w.slots) {
		return false
	}
	s := &w.slots[e.Index]
	return s.alive && s.generation == e.Generation
}

// AddComponent attaches a component to the entity, replacing any existing
// component of the same type. Silent no-op on a stale handle.
func (w *World) AddComponent(e core.Entity, component Component) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.validLocked(e) {
		return
	}

	tag := reflect.TypeOf(component)
	_, existed := w.slots[e.Index].components[tag]
	w.slots[e.Index].components[tag] = component
	if !existed {
		// Membership changed, value-only updates leave the cache intact
		w.invalidateTagLocked(tag)
	}
}

// GetComponent retrieves the entity's component of the given type.
func (w *World) GetComponent(e core.Entity, tag reflect.Type) (Component, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if !w.validLocked(e) {
		return nil, false
	}
	c, ok := w.slots[e.Index].components[tag]
	return c, ok
}

// RemoveComponent detaches the component of the given type. Silent no-op
// when the handle is stale or the component is absent.
func (w *World) RemoveComponent(e core.Entity, tag reflect.Type) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.validLocked(e) {
		return
	}
	if _, ok := w.slots[e.Index].components[tag]; ok {
		delete(w.slots[e.Index].components, tag)
		w.invalidateTagLocked(tag)
	}
}

// HasComponent checks if the entity currently holds the component type.
func (w *World) HasComponent(e core.Entity, tag reflect.Type) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if !w.validLocked(e) {
		return false
	}
	_, ok := w.slots[e.Index].components[tag]
	return ok
}

// Entities returns all live entities in creation order.
func (w *World) Entities() []core.Entity {
	w.mu.RLock()
	defer w.mu.RUnlock()
	result := make([]core.Entity, len(w.order))
	copy(result, w.order)
	return result
}

// EntityCount returns the number of live entities.
func (w *World) EntityCount() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.order)
}

// AddSystem adds a system to the world and sorts by priority
func (w *World) AddSystem(system System) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.systems = append(w.systems, system)

	// Sort by priority (bubble sort, small N)
	for i := 0; i < len(w.systems)-1; i++ {
		for j := 0; j < len(w.systems)-i-1; j++ {
			if w.systems[j].Priority() > w.systems[j+1].Priority() {
				w.systems[j], w.systems[j+1] = w.systems[j+1], w.systems[j]
			}
		}
	}
}

// Update runs all systems in priority order
func (w *World) Update(dt time.Duration) {
	w.mu.RLock()
	systems := make([]System, len(w.systems))
	copy(systems, w.systems)
	w.mu.RUnlock()

	for _, system := range systems {
		system.Update(w, dt)
	}
}
