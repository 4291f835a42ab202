// Package boids accumulates flocking forces (separation, cohesion,
// alignment) for batches of units against their spatial neighbors. It
// exposes a scalar reference implementation and an accelerated 4-lane
// batch path sharing the same numeric contract; the two are selected
// once at startup behind a capability probe.
package boids

import "github.com/veldtgame/veldt/core"

// Batch is the packed structure-of-arrays buffer the force paths operate
// on. Units are keyed by a dense batch index, not by entity handle; the
// caller owns the mapping. Neighbor sets are stored CSR-style: Offsets[i]
// and Counts[i] slice into the shared Neighbors array.
type Batch struct {
	PosX, PosY []float32
	VelX, VelY []float32
	Radius     []float32
	States     []core.MovementState
	Layers     []uint8

	// Force outputs, written by Compute
	SepX, SepY     []float32
	CohX, CohY     []float32
	AlignX, AlignY []float32

	Neighbors []int32
	Offsets   []int32
	Counts    []int32

	count int
}

// NewBatch allocates a batch for up to capacity units. Capacity is
// rounded up to a multiple of 4 for the lane-batched path.
func NewBatch(capacity int) *Batch {
	if capacity < 4 {
		capacity = 4
	}
	capacity = (capacity + 3) &^ 3
	return &Batch{
		PosX:      make([]float32, capacity),
		PosY:      make([]float32, capacity),
		VelX:      make([]float32, capacity),
		VelY:      make([]float32, capacity),
		Radius:    make([]float32, capacity),
		States:    make([]core.MovementState, capacity),
		Layers:    make([]uint8, capacity),
		SepX:      make([]float32, capacity),
		SepY:      make([]float32, capacity),
		CohX:      make([]float32, capacity),
		CohY:      make([]float32, capacity),
		AlignX:    make([]float32, capacity),
		AlignY:    make([]float32, capacity),
		Neighbors: make([]int32, 0, capacity*8),
		Offsets:   make([]int32, capacity),
		Counts:    make([]int32, capacity),
	}
}

// Capacity returns the fixed unit capacity.
func (b *Batch) Capacity() int {
	return len(b.PosX)
}

// Count returns the number of units currently populated.
func (b *Batch) Count() int {
	return b.count
}

// Reset clears unit count and neighbor lists for the next tick. Buffer
// memory is retained.
func (b *Batch) Reset() {
	b.count = 0
	b.Neighbors = b.Neighbors[:0]
}

// AddUnit appends a unit and returns its dense batch index. Returns
// false when the batch is at capacity.
func (b *Batch) AddUnit(x, y, vx, vy, radius float32, state core.MovementState, layer uint8) (int, bool) {
	if b.count >= b.Capacity() {
		return 0, false
	}
	i := b.count
	b.PosX[i] = x
	b.PosY[i] = y
	b.VelX[i] = vx
	b.VelY[i] = vy
	b.Radius[i] = radius
	b.States[i] = state
	b.Layers[i] = layer
	b.Offsets[i] = int32(len(b.Neighbors))
	b.Counts[i] = 0
	b.count++
	return i, true
}

// BeginNeighbors starts the neighbor list of unit i. Neighbor lists must
// be populated in batch index order.
func (b *Batch) BeginNeighbors(i int) {
	b.Offsets[i] = int32(len(b.Neighbors))
	b.Counts[i] = 0
}

// AddNeighbor appends one neighbor (a dense batch index) to unit i's
// list.
func (b *Batch) AddNeighbor(i int, neighbor int32) {
	b.Neighbors = append(b.Neighbors, neighbor)
	b.Counts[i]++
}

// NeighborsOf returns the neighbor index list of unit i.
func (b *Batch) NeighborsOf(i int) []int32 {
	off := b.Offsets[i]
	return b.Neighbors[off : off+b.Counts[i]]
}

// ZeroForces clears all force outputs for the populated range.
func (b *Batch) ZeroForces() {
	for i := 0; i < b.count; i++ {
		b.SepX[i], b.SepY[i] = 0, 0
		b.CohX[i], b.CohY[i] = 0, 0
		b.AlignX[i], b.AlignY[i] = 0, 0
	}
}
