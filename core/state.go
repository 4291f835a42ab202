package core

// MovementState gates which flocking force weights apply to a unit.
// Values are stable: they index the packed state buffer shared with the
// accelerated force path.
type MovementState uint8

const (
	// StateIdle means the unit holds position and only resists crowding
	StateIdle MovementState = iota
	// StateMoving means the unit is actively travelling to a target
	StateMoving
	// StateArriving means the unit is decelerating into a group destination
	StateArriving
	// StateCombat means the unit is engaged and keeps reduced spacing
	StateCombat
	// StateGathering means the unit is harvesting; neighbors do not push it
	StateGathering
	// StateWorker marks harvest-capable units; worker pairs skip separation
	// so they can clump at resource nodes
	StateWorker
	// StateDead marks a despawned slot still present in a packed buffer
	StateDead

	// MovementStateCount is the number of movement states
	MovementStateCount
)

// String returns the state name for diagnostics.
func (s MovementState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateMoving:
		return "moving"
	case StateArriving:
		return "arriving"
	case StateCombat:
		return "combat"
	case StateGathering:
		return "gathering"
	case StateWorker:
		return "worker"
	case StateDead:
		return "dead"
	}
	return "unknown"
}

// Collision layers. Units only exert flocking forces on units sharing
// their layer.
const (
	LayerGround uint8 = 0
	LayerFlying uint8 = 1
)
