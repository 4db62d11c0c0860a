package kinematics

import (
	"math/rand"

	"github.com/traybot/armkin/config"
)

// ClampToLimits returns a copy of the joint vector with every entry projected
// into its configured [q_min, q_max] interval. Violations are corrected
// silently; this never fails.
func ClampToLimits(joints []float64, cfg config.ArmConfig) []float64 {
	clamped := make([]float64, len(joints))
	for i, q := range joints {
		switch {
		case i < cfg.DOF() && q < cfg.QMin[i]:
			clamped[i] = cfg.QMin[i]
		case i < cfg.DOF() && q > cfg.QMax[i]:
			clamped[i] = cfg.QMax[i]
		default:
			clamped[i] = q
		}
	}
	return clamped
}

// RandomJointVector draws an in-bounds joint vector, useful for seeding
// solvers and sampling tests. A nil rng falls back to a fixed-seed source.
func RandomJointVector(rng *rand.Rand, cfg config.ArmConfig) []float64 {
	if rng == nil {
		//nolint:gosec
		rng = rand.New(rand.NewSource(1))
	}
	joints := make([]float64, cfg.DOF())
	for i := range joints {
		joints[i] = cfg.QMin[i] + rng.Float64()*(cfg.QMax[i]-cfg.QMin[i])
	}
	return joints
}
