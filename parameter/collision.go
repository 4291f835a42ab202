// Package parameter supplies the tunable force weights, radii and
// thresholds that drive unit collision avoidance and flocking. Values are
// loaded once from an external JSON document and treated as immutable for
// the rest of the process; a complete built-in default set keeps the
// simulation correct when the document is missing or malformed.
package parameter

// SeparationConfig weights the push-apart force by movement state.
type SeparationConfig struct {
	// QueryRadiusMultiplier scales a unit's collider radius into its
	// grid neighbor query radius
	QueryRadiusMultiplier float32 `json:"queryRadiusMultiplier"`

	// Radius scales the combined collider radii into the separation
	// falloff distance
	Radius float32 `json:"radius"`

	StrengthMoving   float32 `json:"strengthMoving"`
	StrengthIdle     float32 `json:"strengthIdle"`
	StrengthArriving float32 `json:"strengthArriving"`
	StrengthCombat   float32 `json:"strengthCombat"`

	// FlyingMultiplier scales separation for units on the flying layer
	FlyingMultiplier float32 `json:"flyingMultiplier"`

	// MaxForce clamps the accumulated separation vector
	MaxForce float32 `json:"maxForce"`
}

// PhysicsConfig holds the hard-push and integration parameters.
type PhysicsConfig struct {
	PushStrength       float32 `json:"pushStrength"`
	PushRadius         float32 `json:"pushRadius"`
	Damping            float32 `json:"damping"`
	MaxSpeedMultiplier float32 `json:"maxSpeedMultiplier"`
}

// IdleConfig gates drift suppression for units holding position.
type IdleConfig struct {
	// SettleThreshold zeroes velocity below this speed
	SettleThreshold float32 `json:"settleThreshold"`
	DriftDamping    float32 `json:"driftDamping"`
}

// CombatConfig adjusts spacing for engaged units.
type CombatConfig struct {
	EngageRadius    float32 `json:"engageRadius"`
	SeparationScale float32 `json:"separationScale"`
}

// ArrivalConfig drives group-arrival cohesion and alignment.
type ArrivalConfig struct {
	CohesionRadius    float32 `json:"cohesionRadius"`
	CohesionStrength  float32 `json:"cohesionStrength"`
	AlignmentRadius   float32 `json:"alignmentRadius"`
	AlignmentStrength float32 `json:"alignmentStrength"`

	// MinMovingSpeed excludes near-stationary neighbors from alignment
	MinMovingSpeed float32 `json:"minMovingSpeed"`

	// SettleRadius is the distance to target below which a unit counts
	// as arrived
	SettleRadius float32 `json:"settleRadius"`
}

// DefaultsConfig supplies fallback unit attributes when a definition is
// missing from the registry.
type DefaultsConfig struct {
	UnitRadius float32 `json:"unitRadius"`
	UnitSpeed  float32 `json:"unitSpeed"`
}

// BuildingAvoidanceConfig steers units off unwalkable cells.
type BuildingAvoidanceConfig struct {
	Margin    float32 `json:"margin"`
	LookAhead float32 `json:"lookAhead"`
	Strength  float32 `json:"strength"`
}

// StuckDetectionConfig breaks stalls for units making no progress.
type StuckDetectionConfig struct {
	// MinProgress is the per-tick distance below which a moving unit
	// accumulates stuck ticks
	MinProgress float32 `json:"minProgress"`
	TickWindow  int     `json:"tickWindow"`

	// NudgeStrength is the tangential impulse applied to break a stall
	NudgeStrength float32 `json:"nudgeStrength"`
}

// CollisionConfig is the full tunable set, grouped by concern. Loaded
// once, then read-only.
type CollisionConfig struct {
	Separation        SeparationConfig        `json:"separation"`
	Physics           PhysicsConfig           `json:"physics"`
	Idle              IdleConfig              `json:"idle"`
	Combat            CombatConfig            `json:"combat"`
	Arrival           ArrivalConfig           `json:"arrival"`
	Defaults          DefaultsConfig          `json:"defaults"`
	BuildingAvoidance BuildingAvoidanceConfig `json:"buildingAvoidance"`
	StuckDetection    StuckDetectionConfig    `json:"stuckDetection"`
}

// DefaultCollisionConfig returns the complete built-in default set. Every
// load failure degrades to exactly these values.
func DefaultCollisionConfig() *CollisionConfig {
	return &CollisionConfig{
		Separation: SeparationConfig{
			QueryRadiusMultiplier: 3.0,
			Radius:                1.0,
			StrengthMoving:        3.0,
			StrengthIdle:          1.5,
			StrengthArriving:      2.0,
			StrengthCombat:        0.75,
			FlyingMultiplier:      0.25,
			MaxForce:              1.5,
		},
		Physics: PhysicsConfig{
			PushStrength:       2.0,
			PushRadius:         1.2,
			Damping:            0.92,
			MaxSpeedMultiplier: 1.25,
		},
		Idle: IdleConfig{
			SettleThreshold: 0.02,
			DriftDamping:    0.85,
		},
		Combat: CombatConfig{
			EngageRadius:    6.0,
			SeparationScale: 0.5,
		},
		Arrival: ArrivalConfig{
			CohesionRadius:    8.0,
			CohesionStrength:  0.1,
			AlignmentRadius:   4.0,
			AlignmentStrength: 0.3,
			MinMovingSpeed:    0.1,
			SettleRadius:      0.5,
		},
		Defaults: DefaultsConfig{
			UnitRadius: 0.5,
			UnitSpeed:  3.0,
		},
		BuildingAvoidance: BuildingAvoidanceConfig{
			Margin:    0.25,
			LookAhead: 1.5,
			Strength:  2.5,
		},
		StuckDetection: StuckDetectionConfig{
			MinProgress:   0.05,
			TickWindow:    30,
			NudgeStrength: 0.8,
		},
	}
}
