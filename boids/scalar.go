package boids

import (
	"math"

	"github.com/veldtgame/veldt/core"
)

// Scalar is the reference force implementation: one unit at a time, one
// neighbor at a time. It has no capacity limit and defines the numeric
// contract the accelerated path must reproduce.
type Scalar struct{}

// Kind identifies the implementation for startup logging.
func (Scalar) Kind() string {
	return "scalar"
}

// Compute writes separation, cohesion and alignment forces for every
// populated unit into the batch's output arrays.
func (Scalar) Compute(b *Batch, p *Params) {
	b.ZeroForces()
	for i := 0; i < b.Count(); i++ {
		computeUnitScalar(b, p, i)
	}
}

// validNeighbor applies the shared neighbor filter: skip self, dead
// neighbors, cross-layer pairs, worker-worker pairs (workers may clump
// at resource nodes) and gathering neighbors.
func validNeighbor(b *Batch, i int, state core.MovementState, layer uint8, n int) bool {
	if n == i {
		return false
	}
	ns := b.States[n]
	if ns == core.StateDead {
		return false
	}
	if b.Layers[n] != layer {
		return false
	}
	if state == core.StateWorker && ns == core.StateWorker {
		return false
	}
	if ns == core.StateGathering {
		return false
	}
	return true
}

func computeUnitScalar(b *Batch, p *Params, i int) {
	state := b.States[i]
	if state == core.StateDead {
		return
	}

	layer := b.Layers[i]
	ux, uy := b.PosX[i], b.PosY[i]
	ur := b.Radius[i]
	sepStrength := p.separationStrengthFor(state, layer)

	var sepX, sepY float32
	var cohSumX, cohSumY, cohCount float32
	var alignSumX, alignSumY, alignCount float32

	cohRadiusSq := p.CohesionRadius * p.CohesionRadius
	alignRadiusSq := p.AlignmentRadius * p.AlignmentRadius
	minSpeedSq := p.MinMovingSpeed * p.MinMovingSpeed

	for _, neighbor := range b.NeighborsOf(i) {
		n := int(neighbor)
		if !validNeighbor(b, i, state, layer, n) {
			continue
		}

		nx, ny := b.PosX[n], b.PosY[n]
		dx := ux - nx
		dy := uy - ny
		distSq := dx*dx + dy*dy

		// Separation: push away, falling off linearly toward the
		// combined-radius separation distance
		sepDist := (ur + b.Radius[n]) * p.SeparationRadius
		if distSq < sepDist*sepDist && distSq > epsilonSq {
			dist := sqrt32(distSq)
			strength := sepStrength * (1 - dist/sepDist)
			sepX += (dx / dist) * strength
			sepY += (dy / dist) * strength
		}

		// Cohesion: accumulate neighbor centroid
		if distSq < cohRadiusSq {
			cohSumX += nx
			cohSumY += ny
			cohCount++
		}

		// Alignment: accumulate normalized headings of moving neighbors
		if distSq < alignRadiusSq {
			nvx, nvy := b.VelX[n], b.VelY[n]
			speedSq := nvx*nvx + nvy*nvy
			if speedSq > minSpeedSq {
				speed := sqrt32(speedSq)
				alignSumX += nvx / speed
				alignSumY += nvy / speed
				alignCount++
			}
		}
	}

	b.SepX[i], b.SepY[i] = clampForce(sepX, sepY, p.MaxSeparationForce)
	b.CohX[i], b.CohY[i] = cohesionOutput(ux, uy, cohSumX, cohSumY, cohCount, p.CohesionStrength)
	b.AlignX[i], b.AlignY[i] = alignmentOutput(alignSumX, alignSumY, alignCount, p.AlignmentStrength)
}

// clampForce limits the accumulated separation vector to maxForce.
func clampForce(x, y, maxForce float32) (float32, float32) {
	magSq := x*x + y*y
	if magSq > maxForce*maxForce {
		scale := maxForce / sqrt32(magSq)
		return x * scale, y * scale
	}
	return x, y
}

// cohesionOutput turns the accumulated centroid into a steering force
// toward the neighbors' center of mass.
func cohesionOutput(ux, uy, sumX, sumY, count, strength float32) (float32, float32) {
	if count <= 0 {
		return 0, 0
	}
	toX := sumX/count - ux
	toY := sumY/count - uy
	dist := sqrt32(toX*toX + toY*toY)
	if dist <= minDirMagnitude {
		return 0, 0
	}
	return (toX / dist) * strength, (toY / dist) * strength
}

// alignmentOutput turns the accumulated headings into a force nudging
// the unit toward the average neighbor direction.
func alignmentOutput(sumX, sumY, count, strength float32) (float32, float32) {
	if count <= 0 {
		return 0, 0
	}
	avgX := sumX / count
	avgY := sumY / count
	mag := sqrt32(avgX*avgX + avgY*avgY)
	if mag <= minDirMagnitude {
		return 0, 0
	}
	return (avgX / mag) * strength, (avgY / mag) * strength
}

func sqrt32(v float32) float32 {
	return float32(math.Sqrt(float64(v)))
}
