package boids

import (
	"math"
	"testing"

	"github.com/veldtgame/veldt/core"
)

func addMutualNeighbors(b *Batch) {
	for i := 0; i < b.Count(); i++ {
		b.BeginNeighbors(i)
		for j := 0; j < b.Count(); j++ {
			if j != i {
				b.AddNeighbor(i, int32(j))
			}
		}
	}
}

func TestSeparationPushesApart(t *testing.T) {
	b := NewBatch(4)
	b.AddUnit(0, 0, 0, 0, 0.5, core.StateIdle, core.LayerGround)
	b.AddUnit(0.5, 0, 0, 0, 0.5, core.StateIdle, core.LayerGround)
	addMutualNeighbors(b)

	p := DefaultParams()
	Scalar{}.Compute(b, &p)

	if b.SepX[0] >= 0 {
		t.Errorf("Expected unit 0 pushed in -X, got %f", b.SepX[0])
	}
	if b.SepX[1] <= 0 {
		t.Errorf("Expected unit 1 pushed in +X, got %f", b.SepX[1])
	}
	if math.Abs(float64(b.SepY[0])) > 0.01 {
		t.Errorf("Expected no Y separation, got %f", b.SepY[0])
	}
}

func TestSeparationFalloff(t *testing.T) {
	p := DefaultParams()

	magnitudeAt := func(gap float32) float32 {
		b := NewBatch(4)
		b.AddUnit(0, 0, 0, 0, 0.5, core.StateIdle, core.LayerGround)
		b.AddUnit(gap, 0, 0, 0, 0.5, core.StateIdle, core.LayerGround)
		addMutualNeighbors(b)
		Scalar{}.Compute(b, &p)
		return sqrt32(b.SepX[0]*b.SepX[0] + b.SepY[0]*b.SepY[0])
	}

	near := magnitudeAt(0.2)
	far := magnitudeAt(0.9)
	if near <= far {
		t.Errorf("Expected separation to fall off with distance, got near=%f far=%f", near, far)
	}

	// Beyond the combined-radius separation distance there is no push
	if out := magnitudeAt(1.5); out != 0 {
		t.Errorf("Expected zero separation outside falloff distance, got %f", out)
	}
}

func TestCohesionTowardCenter(t *testing.T) {
	b := NewBatch(4)
	b.AddUnit(0, 0, 0, 0, 0.5, core.StateArriving, core.LayerGround)
	b.AddUnit(5, 0, 0, 0, 0.5, core.StateArriving, core.LayerGround)
	addMutualNeighbors(b)

	p := DefaultParams()
	Scalar{}.Compute(b, &p)

	if b.CohX[0] <= 0 {
		t.Errorf("Expected unit 0 pulled toward +X centroid, got %f", b.CohX[0])
	}
	if math.Abs(float64(b.CohY[0])) > 0.01 {
		t.Errorf("Expected no Y cohesion, got %f", b.CohY[0])
	}
}

func TestAlignmentMatchesHeading(t *testing.T) {
	b := NewBatch(4)
	b.AddUnit(0, 0, 0, 0, 0.5, core.StateMoving, core.LayerGround)
	b.AddUnit(2, 0, 0, 1, 0.5, core.StateMoving, core.LayerGround)
	addMutualNeighbors(b)

	p := DefaultParams()
	Scalar{}.Compute(b, &p)

	if b.AlignY[0] <= 0 {
		t.Errorf("Expected unit 0 nudged toward +Y heading, got %f", b.AlignY[0])
	}
	if math.Abs(float64(b.AlignX[0])) > 0.01 {
		t.Errorf("Expected no X alignment, got %f", b.AlignX[0])
	}
}

func TestNeighborFilter(t *testing.T) {
	cases := []struct {
		name  string
		state core.MovementState
		us    core.MovementState
		layer uint8
	}{
		{"dead neighbor", core.StateDead, core.StateIdle, core.LayerGround},
		{"cross layer", core.StateIdle, core.StateIdle, core.LayerFlying},
		{"gathering neighbor", core.StateGathering, core.StateIdle, core.LayerGround},
		{"worker pair", core.StateWorker, core.StateWorker, core.LayerGround},
	}

	for _, tc := range cases {
		b := NewBatch(4)
		b.AddUnit(0, 0, 0, 0, 0.5, tc.us, core.LayerGround)
		b.AddUnit(0.5, 0, 0, 0, 0.5, tc.state, tc.layer)
		addMutualNeighbors(b)

		p := DefaultParams()
		Scalar{}.Compute(b, &p)

		if b.SepX[0] != 0 || b.SepY[0] != 0 {
			t.Errorf("%s: expected no separation, got (%f, %f)", tc.name, b.SepX[0], b.SepY[0])
		}
	}
}

func TestSeparationClampedUnderCrowding(t *testing.T) {
	p := DefaultParams()

	// Many neighbors packed just off-center: each contributes nearly the
	// full per-neighbor push, so the raw sum far exceeds the cap
	b := NewBatch(16)
	b.AddUnit(0, 0, 0, 0, 0.5, core.StateIdle, core.LayerGround)
	for k := 0; k < 12; k++ {
		b.AddUnit(0.05, 0.01*float32(k), 0, 0, 0.5, core.StateIdle, core.LayerGround)
	}
	addMutualNeighbors(b)

	Scalar{}.Compute(b, &p)

	mag := sqrt32(b.SepX[0]*b.SepX[0] + b.SepY[0]*b.SepY[0])
	if mag > p.MaxSeparationForce+1e-4 {
		t.Errorf("Expected separation clamped at %f, got %f", p.MaxSeparationForce, mag)
	}
	if mag < p.MaxSeparationForce-1e-3 {
		t.Errorf("Expected crowding to saturate the clamp, got %f", mag)
	}
}

func TestCoincidentNeighborsStayFinite(t *testing.T) {
	p := DefaultParams()

	// Exactly coincident neighbors fall below the epsilon distance and
	// contribute no separation; the force must stay finite and capped
	b := NewBatch(4)
	b.AddUnit(3, 3, 0, 0, 0.5, core.StateIdle, core.LayerGround)
	b.AddUnit(3, 3, 0, 0, 0.5, core.StateIdle, core.LayerGround)
	b.AddUnit(3, 3, 0, 0, 0.5, core.StateIdle, core.LayerGround)
	addMutualNeighbors(b)

	Scalar{}.Compute(b, &p)

	for i := 0; i < 3; i++ {
		mag := sqrt32(b.SepX[i]*b.SepX[i] + b.SepY[i]*b.SepY[i])
		if math.IsNaN(float64(mag)) || math.IsInf(float64(mag), 0) {
			t.Fatalf("Expected finite separation for coincident units, got %f", mag)
		}
		if mag > p.MaxSeparationForce {
			t.Errorf("Expected magnitude capped at %f, got %f", p.MaxSeparationForce, mag)
		}
	}
}

func TestFlyingMultiplierReducesSeparation(t *testing.T) {
	p := DefaultParams()

	magnitudeFor := func(layer uint8) float32 {
		b := NewBatch(4)
		b.AddUnit(0, 0, 0, 0, 0.5, core.StateIdle, layer)
		b.AddUnit(0.3, 0, 0, 0, 0.5, core.StateIdle, layer)
		addMutualNeighbors(b)
		Scalar{}.Compute(b, &p)
		return sqrt32(b.SepX[0]*b.SepX[0] + b.SepY[0]*b.SepY[0])
	}

	ground := magnitudeFor(core.LayerGround)
	flying := magnitudeFor(core.LayerFlying)
	if flying >= ground {
		t.Errorf("Expected flying separation reduced, got ground=%f flying=%f", ground, flying)
	}
}

func TestCalculatorSelection(t *testing.T) {
	if calc := NewCalculator(MaxBatchCapacity + 1); calc.Kind() != "scalar" {
		t.Errorf("Expected scalar fallback above capacity limit, got %s", calc.Kind())
	}

	t.Setenv("VELDT_NO_ACCEL", "1")
	if Detect() {
		t.Error("Expected probe to report unavailable under VELDT_NO_ACCEL")
	}
	if calc := NewCalculator(64); calc.Kind() != "scalar" {
		t.Errorf("Expected scalar fallback when probe fails, got %s", calc.Kind())
	}
}

func TestBatchCapacity(t *testing.T) {
	b := NewBatch(5)
	if b.Capacity() != 8 {
		t.Errorf("Expected capacity rounded to multiple of 4, got %d", b.Capacity())
	}

	for i := 0; i < b.Capacity(); i++ {
		if _, ok := b.AddUnit(float32(i), 0, 0, 0, 0.5, core.StateIdle, core.LayerGround); !ok {
			t.Fatalf("Expected AddUnit %d to succeed", i)
		}
	}
	if _, ok := b.AddUnit(0, 0, 0, 0, 0.5, core.StateIdle, core.LayerGround); ok {
		t.Error("Expected AddUnit to fail at capacity")
	}

	b.Reset()
	if b.Count() != 0 {
		t.Errorf("Expected count 0 after reset, got %d", b.Count())
	}
}
