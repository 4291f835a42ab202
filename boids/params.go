package boids

import (
	"github.com/veldtgame/veldt/core"
	"github.com/veldtgame/veldt/parameter"
)

// Numeric constants shared by both force paths. Changing either breaks
// the scalar/accelerated equivalence contract.
const (
	// epsilonSq is the squared distance below which neighbors are
	// considered coincident and skipped for separation
	epsilonSq = 0.0001

	// minDirMagnitude gates cohesion/alignment output: below this the
	// steering direction is too noisy to be useful
	minDirMagnitude = 0.1
)

// Params are the numeric weights applied by both force paths. Separation
// strength is resolved per unit from its movement state, with a
// multiplier for flying-layer units.
type Params struct {
	// SeparationRadius scales the combined collider radii into the
	// separation falloff distance
	SeparationRadius   float32
	SeparationStrength [core.MovementStateCount]float32
	FlyingMultiplier   float32
	MaxSeparationForce float32

	CohesionRadius   float32
	CohesionStrength float32

	AlignmentRadius   float32
	AlignmentStrength float32

	// MinMovingSpeed excludes near-stationary neighbors from alignment
	MinMovingSpeed float32
}

// ParamsFromConfig maps the loaded collision configuration onto force
// weights. Gathering units take no separation at all; workers separate
// at idle strength except against other workers, which the neighbor
// filter already skips.
func ParamsFromConfig(cfg *parameter.CollisionConfig) Params {
	p := Params{
		SeparationRadius:   cfg.Separation.Radius,
		FlyingMultiplier:   cfg.Separation.FlyingMultiplier,
		MaxSeparationForce: cfg.Separation.MaxForce,
		CohesionRadius:     cfg.Arrival.CohesionRadius,
		CohesionStrength:   cfg.Arrival.CohesionStrength,
		AlignmentRadius:    cfg.Arrival.AlignmentRadius,
		AlignmentStrength:  cfg.Arrival.AlignmentStrength,
		MinMovingSpeed:     cfg.Arrival.MinMovingSpeed,
	}
	p.SeparationStrength[core.StateIdle] = cfg.Separation.StrengthIdle
	p.SeparationStrength[core.StateMoving] = cfg.Separation.StrengthMoving
	p.SeparationStrength[core.StateArriving] = cfg.Separation.StrengthArriving
	p.SeparationStrength[core.StateCombat] = cfg.Separation.StrengthCombat
	p.SeparationStrength[core.StateGathering] = 0
	p.SeparationStrength[core.StateWorker] = cfg.Separation.StrengthIdle
	p.SeparationStrength[core.StateDead] = 0
	return p
}

// DefaultParams returns the weights derived from the built-in default
// configuration.
func DefaultParams() Params {
	return ParamsFromConfig(parameter.DefaultCollisionConfig())
}

// separationStrengthFor resolves the base separation strength of one
// unit.
func (p *Params) separationStrengthFor(state core.MovementState, layer uint8) float32 {
	strength := p.SeparationStrength[state]
	if layer == core.LayerFlying {
		strength *= p.FlyingMultiplier
	}
	return strength
}
