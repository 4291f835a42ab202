package component

import "github.com/veldtgame/veldt/core"

// MovementComponent tracks a unit's travel order and the per-tick
// bookkeeping used by stuck detection.
type MovementComponent struct {
	State core.MovementState

	// Destination of the current order; meaningful while State is
	// StateMoving or StateArriving
	TargetX, TargetY float32

	// MaxSpeed caps integrated velocity, usually copied from the unit
	// definition at spawn
	MaxSpeed float32

	// Stuck detection window
	LastX, LastY float32
	StuckTicks   int
}
