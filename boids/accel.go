package boids

import "github.com/veldtgame/veldt/core"

// Accelerated is the batch force path: neighbors are processed four per
// iteration into independent lane accumulators that reduce pairwise at
// the end, the layout the vector units on 64-bit targets consume
// directly. The per-neighbor math is identical to the scalar path; only
// the accumulation order differs, so outputs match within floating-point
// tolerance.
type Accelerated struct{}

// Kind identifies the implementation for startup logging.
func (Accelerated) Kind() string {
	return "accelerated"
}

// Compute writes separation, cohesion and alignment forces for every
// populated unit into the batch's output arrays.
func (Accelerated) Compute(b *Batch, p *Params) {
	b.ZeroForces()
	for i := 0; i < b.Count(); i++ {
		computeUnitLanes(b, p, i)
	}
}

func computeUnitLanes(b *Batch, p *Params, i int) {
	state := b.States[i]
	if state == core.StateDead {
		return
	}

	layer := b.Layers[i]
	ux, uy := b.PosX[i], b.PosY[i]
	ur := b.Radius[i]
	sepStrength := p.separationStrengthFor(state, layer)

	cohRadiusSq := p.CohesionRadius * p.CohesionRadius
	alignRadiusSq := p.AlignmentRadius * p.AlignmentRadius
	minSpeedSq := p.MinMovingSpeed * p.MinMovingSpeed

	var sepXAcc, sepYAcc [4]float32
	var cohXAcc, cohYAcc, cohCntAcc [4]float32
	var alignXAcc, alignYAcc, alignCntAcc [4]float32

	neighbors := b.NeighborsOf(i)
	laneCount := len(neighbors) &^ 3

	for batch := 0; batch < laneCount; batch += 4 {
		for lane := 0; lane < 4; lane++ {
			n := int(neighbors[batch+lane])
			if !validNeighbor(b, i, state, layer, n) {
				continue
			}

			nx, ny := b.PosX[n], b.PosY[n]
			dx := ux - nx
			dy := uy - ny
			distSq := dx*dx + dy*dy

			sepDist := (ur + b.Radius[n]) * p.SeparationRadius
			if distSq < sepDist*sepDist && distSq > epsilonSq {
				dist := sqrt32(distSq)
				strength := sepStrength * (1 - dist/sepDist)
				sepXAcc[lane] += (dx / dist) * strength
				sepYAcc[lane] += (dy / dist) * strength
			}

			if distSq < cohRadiusSq {
				cohXAcc[lane] += nx
				cohYAcc[lane] += ny
				cohCntAcc[lane]++
			}

			if distSq < alignRadiusSq {
				nvx, nvy := b.VelX[n], b.VelY[n]
				speedSq := nvx*nvx + nvy*nvy
				if speedSq > minSpeedSq {
					speed := sqrt32(speedSq)
					alignXAcc[lane] += nvx / speed
					alignYAcc[lane] += nvy / speed
					alignCntAcc[lane]++
				}
			}
		}
	}

	sepX := horizontalSum(sepXAcc)
	sepY := horizontalSum(sepYAcc)
	cohSumX := horizontalSum(cohXAcc)
	cohSumY := horizontalSum(cohYAcc)
	cohCount := horizontalSum(cohCntAcc)
	alignSumX := horizontalSum(alignXAcc)
	alignSumY := horizontalSum(alignYAcc)
	alignCount := horizontalSum(alignCntAcc)

	// Scalar tail for the remaining count % 4 neighbors
	for _, neighbor := range neighbors[laneCount:] {
		n := int(neighbor)
		if !validNeighbor(b, i, state, layer, n) {
			continue
		}

		nx, ny := b.PosX[n], b.PosY[n]
		dx := ux - nx
		dy := uy - ny
		distSq := dx*dx + dy*dy

		sepDist := (ur + b.Radius[n]) * p.SeparationRadius
		if distSq < sepDist*sepDist && distSq > epsilonSq {
			dist := sqrt32(distSq)
			strength := sepStrength * (1 - dist/sepDist)
			sepX += (dx / dist) * strength
			sepY += (dy / dist) * strength
		}

		if distSq < cohRadiusSq {
			cohSumX += nx
			cohSumY += ny
			cohCount++
		}

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

// horizontalSum reduces four lanes pairwise: (l0+l2) + (l1+l3).
func horizontalSum(lanes [4]float32) float32 {
	return (lanes[0] + lanes[2]) + (lanes[1] + lanes[3])
}
