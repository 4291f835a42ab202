package boids

import (
	"os"
	"runtime"

	"github.com/veldtgame/veldt/logger"
)

// MaxBatchCapacity is the largest unit batch the accelerated path
// accepts. Larger simulations fall back to the scalar path.
const MaxBatchCapacity = 4096

// ForceCalculator is the single contract both force paths implement.
// Given identical batches and parameters, every implementation produces
// the same forces within floating-point tolerance.
type ForceCalculator interface {
	Kind() string
	Compute(b *Batch, p *Params)
}

// Detect probes once whether the accelerated path can run. The batch
// path leans on 64-bit vector units; VELDT_NO_ACCEL=1 forces the scalar
// path for A/B comparison.
func Detect() bool {
	if os.Getenv("VELDT_NO_ACCEL") != "" {
		return false
	}
	switch runtime.GOARCH {
	case "amd64", "arm64":
		return true
	}
	return false
}

// NewCalculator selects the force implementation once at startup. The
// accelerated path is used when the capability probe passes and the
// requested capacity fits its fixed buffer limit; otherwise the scalar
// path is returned. Fallback is a logged notice, never an error: the two
// paths differ only in performance.
func NewCalculator(capacity int) ForceCalculator {
	if !Detect() {
		logger.Log.Info("flocking acceleration unavailable, using scalar path")
		return Scalar{}
	}
	if capacity > MaxBatchCapacity {
		logger.Log.WithField("capacity", capacity).
			Info("flocking batch capacity exceeded, using scalar path")
		return Scalar{}
	}
	return Accelerated{}
}
