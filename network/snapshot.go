package network

import (
	"encoding/json"
	"reflect"

	"github.com/veldtgame/veldt/component"
	"github.com/veldtgame/veldt/engine"
)

var (
	positionType   = reflect.TypeOf(component.PositionComponent{})
	velocityType   = reflect.TypeOf(component.VelocityComponent{})
	movementType   = reflect.TypeOf(component.MovementComponent{})
	unitType       = reflect.TypeOf(component.UnitComponent{})
	selectableType = reflect.TypeOf(component.SelectableComponent{})
)

// UnitState is one unit's entry in a broadcast snapshot.
type UnitState struct {
	ID       uint32  `json:"id"`
	Gen      uint32  `json:"gen"`
	X        float32 `json:"x"`
	Y        float32 `json:"y"`
	VX       float32 `json:"vx"`
	VY       float32 `json:"vy"`
	State    string  `json:"state"`
	Def      string  `json:"def,omitempty"`
	Owner    uint8   `json:"owner"`
	Selected bool    `json:"selected,omitempty"`
}

// Snapshot is the full observer frame.
type Snapshot struct {
	Tick  int64       `json:"tick"`
	Units []UnitState `json:"units"`
}

// BuildSnapshot captures the positioned units of the world. Entities
// without a movement component are static scenery and excluded.
func BuildSnapshot(world *engine.World, tick int64) *Snapshot {
	entities := world.GetEntitiesWith(positionType, movementType)
	snap := &Snapshot{Tick: tick, Units: make([]UnitState, 0, len(entities))}

	for _, e := range entities {
		pos, _ := world.GetComponent(e, positionType)
		mov, _ := world.GetComponent(e, movementType)
		p := pos.(component.PositionComponent)
		m := mov.(component.MovementComponent)

		u := UnitState{
			ID:    e.Index,
			Gen:   e.Generation,
			X:     p.X,
			Y:     p.Y,
			State: m.State.String(),
		}
		if vel, ok := world.GetComponent(e, velocityType); ok {
			v := vel.(component.VelocityComponent)
			u.VX, u.VY = v.X, v.Y
		}
		if unit, ok := world.GetComponent(e, unitType); ok {
			uc := unit.(component.UnitComponent)
			u.Def, u.Owner = uc.DefID, uc.Owner
		}
		if sel, ok := world.GetComponent(e, selectableType); ok {
			u.Selected = sel.(component.SelectableComponent).Selected
		}
		snap.Units = append(snap.Units, u)
	}
	return snap
}

// Encode serializes the snapshot for broadcast.
func (s *Snapshot) Encode() ([]byte, error) {
	return json.Marshal(s)
}
