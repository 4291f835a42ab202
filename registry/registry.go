// Package registry holds the static game definitions the simulation
// reads: unit, projectile, resource and category attributes keyed by
// string id. Definitions are registered once at startup from the asset
// pipeline; the simulation core tolerates lookups before registration by
// returning not-found, never faulting.
package registry

import "sync"

// BehaviorKind classifies how a unit acts when unordered.
type BehaviorKind uint8

const (
	BehaviorNone BehaviorKind = iota
	BehaviorAggressive
	BehaviorDefensive
	BehaviorHarvest
)

// UnitDef is the static attribute set of a unit type.
type UnitDef struct {
	ID       string
	Name     string
	Speed    float32
	Radius   float32
	Sight    float32
	Flying   bool
	Behavior BehaviorKind
	Category string

	// TargetPriority orders auto-acquisition; higher is preferred
	TargetPriority int
}

// ProjectileDef is the static attribute set of a projectile type.
type ProjectileDef struct {
	ID     string
	Speed  float32
	Radius float32
	Damage float32
	Homing bool
}

// ResourceDef describes a harvestable node type.
type ResourceDef struct {
	ID       string
	Category string
	Amount   int
}

// CategoryDef groups unit types for targeting and UI filtering.
type CategoryDef struct {
	ID   string
	Name string
}

var (
	mu          sync.RWMutex
	units       = make(map[string]UnitDef)
	projectiles = make(map[string]ProjectileDef)
	resources   = make(map[string]ResourceDef)
	categories  = make(map[string]CategoryDef)
)

// RegisterUnits adds unit definitions, replacing existing ids.
func RegisterUnits(defs []UnitDef) {
	mu.Lock()
	defer mu.Unlock()
	for _, d := range defs {
		units[d.ID] = d
	}
}

// Unit looks up a unit definition. ok is false when the id is unknown or
// the registry has not been initialized yet; callers must treat that as
// a first-class state, not an error.
func Unit(id string) (UnitDef, bool) {
	mu.RLock()
	defer mu.RUnlock()
	d, ok := units[id]
	return d, ok
}

// RegisterProjectiles adds projectile definitions.
func RegisterProjectiles(defs []ProjectileDef) {
	mu.Lock()
	defer mu.Unlock()
	for _, d := range defs {
		projectiles[d.ID] = d
	}
}

// Projectile looks up a projectile definition.
func Projectile(id string) (ProjectileDef, bool) {
	mu.RLock()
	defer mu.RUnlock()
	d, ok := projectiles[id]
	return d, ok
}

// RegisterResources adds resource definitions.
func RegisterResources(defs []ResourceDef) {
	mu.Lock()
	defer mu.Unlock()
	for _, d := range defs {
		resources[d.ID] = d
	}
}

// Resource looks up a resource definition.
func Resource(id string) (ResourceDef, bool) {
	mu.RLock()
	defer mu.RUnlock()
	d, ok := resources[id]
	return d, ok
}

// RegisterCategories adds category definitions.
func RegisterCategories(defs []CategoryDef) {
	mu.Lock()
	defer mu.Unlock()
	for _, d := range defs {
		categories[d.ID] = d
	}
}

// Category looks up a category definition.
func Category(id string) (CategoryDef, bool) {
	mu.RLock()
	defer mu.RUnlock()
	d, ok := categories[id]
	return d, ok
}

// Reset drops all definitions. Test support.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	units = make(map[string]UnitDef)
	projectiles = make(map[string]ProjectileDef)
	resources = make(map[string]ResourceDef)
	categories = make(map[string]CategoryDef)
}
