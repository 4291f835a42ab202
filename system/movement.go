// Package system hosts the per-tick simulation systems registered on the
// world. MovementSystem is the core of unit motion: it gathers mobile
// units into a packed batch, feeds them through the flocking force
// calculator with their spatial neighbors, then integrates velocities and
// positions with arrival, stuck-break and building-avoidance behavior.
package system

import (
	"reflect"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/veldtgame/veldt/boids"
	"github.com/veldtgame/veldt/component"
	"github.com/veldtgame/veldt/core"
	"github.com/veldtgame/veldt/engine"
	"github.com/veldtgame/veldt/event"
	"github.com/veldtgame/veldt/logger"
	"github.com/veldtgame/veldt/parameter"
)

// System priorities; lower runs first.
const (
	PriorityMovement = 100
)

var (
	positionType = reflect.TypeOf(component.PositionComponent{})
	velocityType = reflect.TypeOf(component.VelocityComponent{})
	colliderType = reflect.TypeOf(component.ColliderComponent{})
	movementType = reflect.TypeOf(component.MovementComponent{})
)

// slowdownWindow scales the settle radius into the deceleration band
// where a moving unit switches to arriving.
const slowdownWindow = 4.0

// MovementSystem drives unit motion. It owns the batch buffer, the force
// calculator and the entity-to-batch-index mapping, all reused across
// ticks.
type MovementSystem struct {
	grid   *engine.SpatialGrid
	cfg    *parameter.CollisionConfig
	params boids.Params

	// largest cohesion/alignment reach; travelling units query at least
	// this far so the group-arrival forces can bind
	interactionRadius float32

	calc  boids.ForceCalculator
	batch *boids.Batch

	events *event.Queue // optional; nil disables notifications
	tick   int64

	// per-tick scratch, reused
	entities []core.Entity
	index    map[core.Entity]int32
	queryBuf []core.Entity
}

// NewMovementSystem creates the movement system over the given grid and
// configuration. The batch grows on demand; growth past the accelerated
// path's capacity limit switches to the scalar path.
func NewMovementSystem(grid *engine.SpatialGrid, cfg *parameter.CollisionConfig) *MovementSystem {
	const initialCapacity = 256
	interaction := cfg.Arrival.CohesionRadius
	if cfg.Arrival.AlignmentRadius > interaction {
		interaction = cfg.Arrival.AlignmentRadius
	}
	return &MovementSystem{
		grid:              grid,
		cfg:               cfg,
		params:            boids.ParamsFromConfig(cfg),
		interactionRadius: interaction,
		calc:              boids.NewCalculator(initialCapacity),
		batch:             boids.NewBatch(initialCapacity),
		entities:          make([]core.Entity, 0, initialCapacity),
		index:             make(map[core.Entity]int32, initialCapacity),
		queryBuf:          make([]core.Entity, 0, 32),
	}
}

// AttachEvents enables arrival notifications on the given queue.
func (s *MovementSystem) AttachEvents(q *event.Queue) {
	s.events = q
}

// Name returns the system name
func (s *MovementSystem) Name() string {
	return "movement"
}

// Priority returns the system execution priority
func (s *MovementSystem) Priority() int {
	return PriorityMovement
}

// Update runs one movement tick: pack, gather neighbors, compute forces,
// integrate.
func (s *MovementSystem) Update(world *engine.World, dt time.Duration) {
	s.tick++
	units := world.GetEntitiesWith(positionType, velocityType, colliderType, movementType)
	if len(units) == 0 {
		return
	}
	s.ensureCapacity(len(units))
	s.batch.Reset()
	s.entities = s.entities[:0]
	clear(s.index)

	for _, e := range units {
		pos, _ := world.GetComponent(e, positionType)
		vel, _ := world.GetComponent(e, velocityType)
		col, _ := world.GetComponent(e, colliderType)
		mov, _ := world.GetComponent(e, movementType)
		p := pos.(component.PositionComponent)
		v := vel.(component.VelocityComponent)
		c := col.(component.ColliderComponent)
		m := mov.(component.MovementComponent)

		radius := c.Radius
		if radius <= 0 {
			radius = s.cfg.Defaults.UnitRadius
		}
		i, ok := s.batch.AddUnit(p.X, p.Y, v.X, v.Y, radius, m.State, c.Layer)
		if !ok {
			break
		}
		s.entities = append(s.entities, e)
		s.index[e] = int32(i)
	}

	s.gatherNeighbors()
	s.calc.Compute(s.batch, &s.params)

	dtSec := float32(dt.Seconds())
	for i, e := range s.entities {
		s.integrate(world, e, i, dtSec)
	}
}

// ensureCapacity grows the batch to hold n units, reselecting the force
// path for the new capacity.
func (s *MovementSystem) ensureCapacity(n int) {
	if n <= s.batch.Capacity() {
		return
	}
	capacity := s.batch.Capacity()
	for capacity < n {
		capacity *= 2
	}
	s.batch = boids.NewBatch(capacity)
	s.calc = boids.NewCalculator(capacity)
	logger.Log.WithFields(logrus.Fields{
		"capacity": capacity,
		"path":     s.calc.Kind(),
	}).Info("movement batch grown")
}

// gatherNeighbors fills each unit's neighbor list from the spatial grid.
// The query radius is the unit's collider radius scaled by the configured
// multiplier, floored at the cohesion/alignment reach for travelling
// units. Cell-granular grid results are passed through unfiltered because
// the force paths apply their own distance falloffs.
func (s *MovementSystem) gatherNeighbors() {
	mult := s.cfg.Separation.QueryRadiusMultiplier
	for i, e := range s.entities {
		s.batch.BeginNeighbors(i)
		qr := s.batch.Radius[i] * mult
		st := s.batch.States[i]
		if (st == core.StateMoving || st == core.StateArriving) && qr < s.interactionRadius {
			qr = s.interactionRadius
		}
		s.queryBuf = s.grid.QueryAppend(s.queryBuf[:0], s.batch.PosX[i], s.batch.PosY[i], qr)
		for _, other := range s.queryBuf {
			if other == e {
				continue
			}
			if ni, ok := s.index[other]; ok {
				s.batch.AddNeighbor(i, ni)
			}
		}
	}
}

// integrate applies steering and flocking forces to one unit and writes
// the result back to its components and the grid.
func (s *MovementSystem) integrate(world *engine.World, e core.Entity, i int, dtSec float32) {
	mov, ok := world.GetComponent(e, movementType)
	if !ok {
		return
	}
	m := mov.(component.MovementComponent)
	if m.State == core.StateDead {
		return
	}

	pos := core.Vec2{X: s.batch.PosX[i], Y: s.batch.PosY[i]}
	vel := core.Vec2{X: s.batch.VelX[i], Y: s.batch.VelY[i]}

	maxSpeed := m.MaxSpeed
	if maxSpeed <= 0 {
		maxSpeed = s.cfg.Defaults.UnitSpeed
	}

	steering := m.State == core.StateMoving || m.State == core.StateArriving
	if steering {
		to := core.Vec2{X: m.TargetX, Y: m.TargetY}.Sub(pos)
		dist := to.Length()
		settle := s.cfg.Arrival.SettleRadius
		switch {
		case dist <= settle:
			m.State = core.StateIdle
			m.StuckTicks = 0
			vel = core.Vec2{}
			steering = false
			if s.events != nil {
				s.events.Push(event.SimEvent{Type: event.UnitArrived, Entity: e, Tick: s.tick})
			}
		case dist <= settle*slowdownWindow:
			m.State = core.StateArriving
			// decelerate linearly across the slowdown band
			vel = to.Scale(1 / dist).Scale(maxSpeed * dist / (settle * slowdownWindow))
		default:
			m.State = core.StateMoving
			vel = to.Scale(1 / dist).Scale(maxSpeed)
		}
	}

	if m.State == core.StateCombat {
		// hold position inside engagement range, chase beyond it
		to := core.Vec2{X: m.TargetX, Y: m.TargetY}.Sub(pos)
		if dist := to.Length(); dist > s.cfg.Combat.EngageRadius {
			vel = to.Scale(1 / dist).Scale(maxSpeed)
		} else {
			vel = core.Vec2{}
		}
	}

	// Flocking forces act as accelerations. Separation applies in every
	// state (engaged units at reduced scale); cohesion and alignment only
	// shape group travel.
	sep := core.Vec2{X: s.batch.SepX[i], Y: s.batch.SepY[i]}
	if m.State == core.StateCombat {
		sep = sep.Scale(s.cfg.Combat.SeparationScale)
	}
	force := sep
	if steering {
		force = force.
			Add(core.Vec2{X: s.batch.CohX[i], Y: s.batch.CohY[i]}).
			Add(core.Vec2{X: s.batch.AlignX[i], Y: s.batch.AlignY[i]})
	}
	force = force.Add(s.avoidance(pos, vel))
	force = force.Add(s.hardPush(i))
	vel = vel.Add(force.Scale(dtSec * maxSpeed))

	vel = vel.Scale(s.cfg.Physics.Damping)
	vel = vel.ClampLength(maxSpeed * s.cfg.Physics.MaxSpeedMultiplier)

	if m.State == core.StateIdle || m.State == core.StateWorker {
		vel = vel.Scale(s.cfg.Idle.DriftDamping)
		if vel.Length() < s.cfg.Idle.SettleThreshold {
			vel = core.Vec2{}
		}
	}

	if steering {
		vel = s.breakStall(&m, pos, vel, maxSpeed)
	}

	next := s.step(pos, vel, dtSec)
	m.LastX, m.LastY = pos.X, pos.Y

	world.AddComponent(e, component.PositionComponent{X: next.X, Y: next.Y})
	world.AddComponent(e, component.VelocityComponent{X: vel.X, Y: vel.Y})
	world.AddComponent(e, m)
	s.grid.Move(e, pos.X, pos.Y, next.X, next.Y)
}

// avoidance probes ahead of the unit's heading and steers away from
// unwalkable ground. Besides the lookahead point itself, a whisker at
// Margin to either side catches walls the unit would otherwise graze.
func (s *MovementSystem) avoidance(pos, vel core.Vec2) core.Vec2 {
	ba := s.cfg.BuildingAvoidance
	if vel.LengthSq() == 0 {
		return core.Vec2{}
	}
	heading := vel.Normalized()
	ahead := pos.Add(heading.Scale(ba.LookAhead))
	side := heading.Perp().Scale(ba.Margin)
	probes := [3]core.Vec2{ahead, ahead.Add(side), ahead.Sub(side)}
	for _, probe := range probes {
		if s.grid.IsWalkable(probe.X, probe.Y) {
			continue
		}
		away := pos.Sub(s.cellCenter(probe))
		if away.LengthSq() == 0 {
			away = heading.Scale(-1)
		}
		return away.Normalized().Scale(ba.Strength)
	}
	return core.Vec2{}
}

// hardPush resolves direct overlap: same-layer neighbors closer than the
// combined radii scaled by PushRadius shove the unit out at PushStrength,
// independent of the state-weighted separation force.
func (s *MovementSystem) hardPush(i int) core.Vec2 {
	ph := s.cfg.Physics
	if ph.PushStrength <= 0 {
		return core.Vec2{}
	}
	var out core.Vec2
	ux, uy := s.batch.PosX[i], s.batch.PosY[i]
	ur := s.batch.Radius[i]
	layer := s.batch.Layers[i]
	for _, neighbor := range s.batch.NeighborsOf(i) {
		n := int(neighbor)
		if n == i || s.batch.States[n] == core.StateDead || s.batch.Layers[n] != layer {
			continue
		}
		d := core.Vec2{X: ux - s.batch.PosX[n], Y: uy - s.batch.PosY[n]}
		distSq := d.LengthSq()
		pushDist := (ur + s.batch.Radius[n]) * ph.PushRadius
		if distSq >= pushDist*pushDist || distSq < 1e-6 {
			continue
		}
		dist := d.Length()
		weight := ph.PushStrength * (1 - dist/pushDist)
		out.X += d.X / dist * weight
		out.Y += d.Y / dist * weight
	}
	return out
}

// cellCenter returns the world-space center of the cell containing p.
func (s *MovementSystem) cellCenter(p core.Vec2) core.Vec2 {
	key := s.grid.CellOf(p.X, p.Y)
	size := s.grid.CellSize()
	return core.Vec2{
		X: (float32(key.X) + 0.5) * size,
		Y: (float32(key.Y) + 0.5) * size,
	}
}

// breakStall counts ticks of insufficient progress toward the target and
// applies a tangential nudge once the window fills, so units pinned
// against crowds or corners slide around instead of grinding in place.
func (s *MovementSystem) breakStall(m *component.MovementComponent, pos, vel core.Vec2, maxSpeed float32) core.Vec2 {
	sd := s.cfg.StuckDetection
	progress := pos.Sub(core.Vec2{X: m.LastX, Y: m.LastY}).Length()
	if progress >= sd.MinProgress {
		m.StuckTicks = 0
		return vel
	}
	m.StuckTicks++
	if m.StuckTicks < sd.TickWindow {
		return vel
	}
	m.StuckTicks = 0
	to := core.Vec2{X: m.TargetX, Y: m.TargetY}.Sub(pos)
	if to.LengthSq() == 0 {
		return vel
	}
	nudge := to.Normalized().Perp().Scale(sd.NudgeStrength * maxSpeed)
	return vel.Add(nudge)
}

// step advances pos by vel over dtSec, clamped to the world bounds. A
// move into an unwalkable cell slides along whichever axis stays
// walkable, or holds position when neither does.
func (s *MovementSystem) step(pos, vel core.Vec2, dtSec float32) core.Vec2 {
	next := pos.Add(vel.Scale(dtSec))
	width, height := s.grid.Size()
	next.X = clamp(next.X, 0, width)
	next.Y = clamp(next.Y, 0, height)

	if s.grid.IsWalkable(next.X, next.Y) {
		return next
	}
	if s.grid.IsWalkable(next.X, pos.Y) {
		return core.Vec2{X: next.X, Y: pos.Y}
	}
	if s.grid.IsWalkable(pos.X, next.Y) {
		return core.Vec2{X: pos.X, Y: next.Y}
	}
	return pos
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
