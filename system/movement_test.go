package system

import (
	"testing"
	"time"

	"github.com/veldtgame/veldt/component"
	"github.com/veldtgame/veldt/core"
	"github.com/veldtgame/veldt/engine"
	"github.com/veldtgame/veldt/event"
	"github.com/veldtgame/veldt/parameter"
)

const tick = time.Second / 60

func newTestWorld() (*engine.World, *engine.SpatialGrid, *MovementSystem) {
	world := engine.NewWorld()
	grid := engine.NewSpatialGrid(100, 100, 2)
	cfg := parameter.DefaultCollisionConfig()
	sys := NewMovementSystem(grid, cfg)
	world.AddSystem(sys)
	return world, grid, sys
}

func spawnUnit(world *engine.World, grid *engine.SpatialGrid, x, y float32, m component.MovementComponent) core.Entity {
	e := world.CreateEntity()
	world.AddComponent(e, component.PositionComponent{X: x, Y: y})
	world.AddComponent(e, component.VelocityComponent{})
	world.AddComponent(e, component.ColliderComponent{Radius: 0.5, Layer: core.LayerGround})
	world.AddComponent(e, m)
	grid.Insert(e, x, y)
	return e
}

func positionOf(t *testing.T, world *engine.World, e core.Entity) component.PositionComponent {
	t.Helper()
	c, ok := world.GetComponent(e, positionType)
	if !ok {
		t.Fatal("Expected position component")
	}
	return c.(component.PositionComponent)
}

func movementOf(t *testing.T, world *engine.World, e core.Entity) component.MovementComponent {
	t.Helper()
	c, ok := world.GetComponent(e, movementType)
	if !ok {
		t.Fatal("Expected movement component")
	}
	return c.(component.MovementComponent)
}

func TestMovingUnitReachesTarget(t *testing.T) {
	world, grid, _ := newTestWorld()
	e := spawnUnit(world, grid, 10, 10, component.MovementComponent{
		State:   core.StateMoving,
		TargetX: 20, TargetY: 10,
		MaxSpeed: 3,
	})

	for i := 0; i < 600; i++ {
		world.Update(tick)
	}

	m := movementOf(t, world, e)
	if m.State != core.StateIdle {
		t.Errorf("Expected idle after arrival, got %v", m.State)
	}
	p := positionOf(t, world, e)
	dx := p.X - 20
	dy := p.Y - 10
	settle := parameter.DefaultCollisionConfig().Arrival.SettleRadius
	if dx*dx+dy*dy > settle*settle*4 {
		t.Errorf("Expected position near target, got (%f, %f)", p.X, p.Y)
	}
}

func TestArrivalPassesThroughArrivingState(t *testing.T) {
	world, grid, _ := newTestWorld()
	// spawn inside the slowdown band but outside the settle radius
	e := spawnUnit(world, grid, 10, 10, component.MovementComponent{
		State:   core.StateMoving,
		TargetX: 11, TargetY: 10,
		MaxSpeed: 3,
	})

	world.Update(tick)
	if m := movementOf(t, world, e); m.State != core.StateArriving {
		t.Errorf("Expected arriving inside slowdown band, got %v", m.State)
	}

	for i := 0; i < 300; i++ {
		world.Update(tick)
	}
	if m := movementOf(t, world, e); m.State != core.StateIdle {
		t.Errorf("Expected idle after settling, got %v", m.State)
	}
}

func TestSeparationPushesCrowdApart(t *testing.T) {
	world, grid, _ := newTestWorld()
	a := spawnUnit(world, grid, 50, 50, component.MovementComponent{State: core.StateIdle})
	b := spawnUnit(world, grid, 50.2, 50, component.MovementComponent{State: core.StateIdle})

	for i := 0; i < 120; i++ {
		world.Update(tick)
	}

	pa := positionOf(t, world, a)
	pb := positionOf(t, world, b)
	dx := pa.X - pb.X
	dy := pa.Y - pb.Y
	if dx*dx+dy*dy <= 0.2*0.2 {
		t.Errorf("Expected crowded idle units to spread, distance sq %f", dx*dx+dy*dy)
	}
}

func TestDeadUnitsDoNotMove(t *testing.T) {
	world, grid, _ := newTestWorld()
	e := spawnUnit(world, grid, 30, 30, component.MovementComponent{
		State:   core.StateDead,
		TargetX: 60, TargetY: 60,
		MaxSpeed: 5,
	})

	for i := 0; i < 60; i++ {
		world.Update(tick)
	}

	p := positionOf(t, world, e)
	if p.X != 30 || p.Y != 30 {
		t.Errorf("Expected dead unit to stay at (30, 30), got (%f, %f)", p.X, p.Y)
	}
}

func TestUnitsStayOnWalkableGround(t *testing.T) {
	world, grid, _ := newTestWorld()
	// wall column across the direct path
	for y := float32(1); y < 99; y += 2 {
		grid.SetWalkable(41, y, false)
	}
	e := spawnUnit(world, grid, 35, 51, component.MovementComponent{
		State:   core.StateMoving,
		TargetX: 39.5, TargetY: 51,
		MaxSpeed: 4,
	})

	for i := 0; i < 300; i++ {
		world.Update(tick)
		p := positionOf(t, world, e)
		if !grid.IsWalkable(p.X, p.Y) {
			t.Fatalf("Unit entered unwalkable cell at (%f, %f) on tick %d", p.X, p.Y, i)
		}
	}
}

func TestStallNudgeIsTangential(t *testing.T) {
	_, _, sys := newTestWorld()
	pos := core.Vec2{X: 10, Y: 10}
	vel := core.Vec2{X: 1, Y: 0}
	m := component.MovementComponent{
		State:   core.StateMoving,
		TargetX: 20, TargetY: 10,
		LastX:   10, LastY: 10, // no progress this tick
	}

	window := sys.cfg.StuckDetection.TickWindow
	out := vel
	for i := 0; i < window; i++ {
		out = sys.breakStall(&m, pos, vel, 3)
	}

	if m.StuckTicks != 0 {
		t.Errorf("Expected stuck counter reset after nudge, got %d", m.StuckTicks)
	}
	if out.Y == 0 {
		t.Error("Expected nudge perpendicular to the target direction")
	}
}

func TestStallCounterResetsOnProgress(t *testing.T) {
	_, _, sys := newTestWorld()
	m := component.MovementComponent{
		State:      core.StateMoving,
		TargetX:    20,
		LastX:      9, LastY: 10, // well past MinProgress
		StuckTicks: 5,
	}
	sys.breakStall(&m, core.Vec2{X: 10, Y: 10}, core.Vec2{X: 1}, 3)
	if m.StuckTicks != 0 {
		t.Errorf("Expected stuck counter reset on progress, got %d", m.StuckTicks)
	}
}

func TestBatchGrowthFallsBackToScalar(t *testing.T) {
	_, _, sys := newTestWorld()
	sys.ensureCapacity(5000)
	if sys.batch.Capacity() < 5000 {
		t.Errorf("Expected capacity >= 5000, got %d", sys.batch.Capacity())
	}
	if sys.calc.Kind() != "scalar" {
		t.Errorf("Expected scalar path past the accelerated capacity limit, got %q", sys.calc.Kind())
	}
}

func TestArrivalPublishesEvent(t *testing.T) {
	world, grid, sys := newTestWorld()
	q := event.NewQueue()
	sys.AttachEvents(q)
	e := spawnUnit(world, grid, 10, 10, component.MovementComponent{
		State:   core.StateMoving,
		TargetX: 12, TargetY: 10,
		MaxSpeed: 3,
	})

	for i := 0; i < 300; i++ {
		world.Update(tick)
	}

	arrived := false
	for _, ev := range q.Consume() {
		if ev.Type == event.UnitArrived && ev.Entity == e {
			arrived = true
		}
	}
	if !arrived {
		t.Error("Expected an arrival event for the settled unit")
	}
}

func TestGridTracksMovedUnits(t *testing.T) {
	world, grid, _ := newTestWorld()
	e := spawnUnit(world, grid, 10, 10, component.MovementComponent{
		State:   core.StateMoving,
		TargetX: 30, TargetY: 10,
		MaxSpeed: 5,
	})

	for i := 0; i < 600; i++ {
		world.Update(tick)
	}

	p := positionOf(t, world, e)
	found := false
	for _, g := range grid.EntitiesInCell(p.X, p.Y) {
		if g == e {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected grid cell at (%f, %f) to contain the unit", p.X, p.Y)
	}
}

func newConfiguredWorld(cfg *parameter.CollisionConfig) (*engine.World, *engine.SpatialGrid, *MovementSystem) {
	world := engine.NewWorld()
	grid := engine.NewSpatialGrid(100, 100, 2)
	sys := NewMovementSystem(grid, cfg)
	world.AddSystem(sys)
	return world, grid, sys
}

func zeroSeparation(cfg *parameter.CollisionConfig) {
	cfg.Separation.StrengthIdle = 0
	cfg.Separation.StrengthMoving = 0
	cfg.Separation.StrengthArriving = 0
	cfg.Separation.StrengthCombat = 0
}

func unitDistance(t *testing.T, world *engine.World, a, b core.Entity) float32 {
	t.Helper()
	pa := positionOf(t, world, a)
	pb := positionOf(t, world, b)
	dx := pa.X - pb.X
	dy := pa.Y - pb.Y
	return core.Vec2{X: dx, Y: dy}.Length()
}

func TestHardPushResolvesOverlap(t *testing.T) {
	cfg := parameter.DefaultCollisionConfig()
	zeroSeparation(cfg) // isolate the push from the soft separation force
	world, grid, _ := newConfiguredWorld(cfg)
	a := spawnUnit(world, grid, 50, 50, component.MovementComponent{State: core.StateIdle})
	b := spawnUnit(world, grid, 50.3, 50, component.MovementComponent{State: core.StateIdle})

	for i := 0; i < 120; i++ {
		world.Update(tick)
	}

	if d := unitDistance(t, world, a, b); d <= 0.5 {
		t.Errorf("Expected hard push to resolve the overlap, distance %f", d)
	}
}

func TestHardPushDisabledLeavesOverlap(t *testing.T) {
	cfg := parameter.DefaultCollisionConfig()
	zeroSeparation(cfg)
	cfg.Physics.PushStrength = 0
	world, grid, _ := newConfiguredWorld(cfg)
	a := spawnUnit(world, grid, 50, 50, component.MovementComponent{State: core.StateIdle})
	b := spawnUnit(world, grid, 50.3, 50, component.MovementComponent{State: core.StateIdle})

	for i := 0; i < 120; i++ {
		world.Update(tick)
	}

	if d := unitDistance(t, world, a, b); d < 0.29 || d > 0.31 {
		t.Errorf("Expected no motion with push disabled, distance %f", d)
	}
}

func TestCombatChasesBeyondEngageRadius(t *testing.T) {
	world, grid, _ := newTestWorld()
	chaser := spawnUnit(world, grid, 20, 50, component.MovementComponent{
		State:   core.StateCombat,
		TargetX: 40, TargetY: 50,
		MaxSpeed: 3,
	})
	holder := spawnUnit(world, grid, 60, 50, component.MovementComponent{
		State:   core.StateCombat,
		TargetX: 62, TargetY: 50,
		MaxSpeed: 3,
	})

	for i := 0; i < 120; i++ {
		world.Update(tick)
	}

	if p := positionOf(t, world, chaser); p.X <= 22 {
		t.Errorf("Expected out-of-range combat unit to close in, got x %f", p.X)
	}
	if p := positionOf(t, world, holder); p.X < 59.8 || p.X > 60.2 {
		t.Errorf("Expected in-range combat unit to hold, got x %f", p.X)
	}
}

func TestCombatSeparationScale(t *testing.T) {
	// both units engaged on their own position; push disabled so the
	// scaled separation force is the only motion source
	spawnPair := func(cfg *parameter.CollisionConfig) (*engine.World, core.Entity, core.Entity) {
		world, grid, _ := newConfiguredWorld(cfg)
		a := spawnUnit(world, grid, 50, 50, component.MovementComponent{
			State: core.StateCombat, TargetX: 50, TargetY: 50,
		})
		b := spawnUnit(world, grid, 50.3, 50, component.MovementComponent{
			State: core.StateCombat, TargetX: 50.3, TargetY: 50,
		})
		for i := 0; i < 120; i++ {
			world.Update(tick)
		}
		return world, a, b
	}

	scaled := parameter.DefaultCollisionConfig()
	scaled.Physics.PushStrength = 0
	world, a, b := spawnPair(scaled)
	if d := unitDistance(t, world, a, b); d <= 0.35 {
		t.Errorf("Expected engaged units to keep scaled spacing, distance %f", d)
	}

	off := parameter.DefaultCollisionConfig()
	off.Physics.PushStrength = 0
	off.Combat.SeparationScale = 0
	world, a, b = spawnPair(off)
	if d := unitDistance(t, world, a, b); d < 0.29 || d > 0.31 {
		t.Errorf("Expected zero scale to suppress combat spacing, distance %f", d)
	}
}

func TestAvoidanceMarginCatchesGrazedWalls(t *testing.T) {
	runAlongWall := func(margin float32) float32 {
		cfg := parameter.DefaultCollisionConfig()
		cfg.BuildingAvoidance.Margin = margin
		world, grid, _ := newConfiguredWorld(cfg)
		for x := float32(20); x < 60; x += grid.CellSize() {
			grid.SetWalkable(x, 55, false)
		}
		e := spawnUnit(world, grid, 30, 53.2, component.MovementComponent{
			State:   core.StateMoving,
			TargetX: 58, TargetY: 53.2,
			MaxSpeed: 4,
		})
		minY := float32(53.2)
		for i := 0; i < 200; i++ {
			world.Update(tick)
			if y := positionOf(t, world, e).Y; y < minY {
				minY = y
			}
		}
		return minY
	}

	if y := runAlongWall(1.5); y >= 53.15 {
		t.Errorf("Expected margin whisker to steer away from the wall, min y %f", y)
	}
	if y := runAlongWall(0); y < 53.19 {
		t.Errorf("Expected no deflection without a margin, min y %f", y)
	}
}

func TestTravellingUnitsGatherFlockNeighbors(t *testing.T) {
	world, grid, sys := newTestWorld()
	spawnUnit(world, grid, 30, 50, component.MovementComponent{
		State: core.StateMoving, TargetX: 50, TargetY: 50, MaxSpeed: 3,
	})
	spawnUnit(world, grid, 30, 55, component.MovementComponent{
		State: core.StateMoving, TargetX: 50, TargetY: 55, MaxSpeed: 3,
	})
	// idle pair at the same spacing keeps the tight separation query
	spawnUnit(world, grid, 80, 20, component.MovementComponent{State: core.StateIdle})
	spawnUnit(world, grid, 80, 25, component.MovementComponent{State: core.StateIdle})

	world.Update(tick)

	if sys.batch.Counts[0] == 0 || sys.batch.Counts[1] == 0 {
		t.Error("Expected travelling units to see each other within the cohesion radius")
	}
	if sys.batch.Counts[2] != 0 {
		t.Errorf("Expected idle units to keep the separation-sized query, got %d neighbors", sys.batch.Counts[2])
	}
}
