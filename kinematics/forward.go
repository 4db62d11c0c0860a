// Package kinematics implements the pose-level math for a serial revolute
// arm: forward kinematics over a Denavit-Hartenberg table, the geometric
// Jacobian with its conditioning metrics, joint-limit clamping, and
// singularity classification.
package kinematics

import (
	"github.com/pkg/errors"

	"github.com/traybot/armkin/config"
	"github.com/traybot/armkin/spatialmath"
)

// Errors returned by the fatal failure paths of this package. Orthonormality
// drift is deliberately not among them; it is surfaced as a flag so that
// callers can keep going with degraded results.
var (
	ErrDimensionMismatch = errors.New("joint vector length does not match configured dof")
	ErrNonFiniteResult   = errors.New("forward kinematics produced a non-finite value")
)

// ForwardResult holds everything one forward pass produces: the end-effector
// pose, the pose of every intermediate joint frame, and whether every frame
// stayed orthonormal within tolerance.
type ForwardResult struct {
	EndEffector *spatialmath.Pose
	LinkChain   []*spatialmath.Pose
	Valid       bool
}

// ComputeForward composes the per-joint DH transforms for the given joint
// vector and returns the end-effector pose together with all intermediate
// link poses. A rotation block drifting past the configured orthonormality
// tolerance marks the result invalid but does not stop the computation;
// a non-finite entry does.
func ComputeForward(joints []float64, cfg config.ArmConfig) (*ForwardResult, error) {
	n := cfg.DOF()
	if len(joints) != n {
		return nil, errors.Wrapf(ErrDimensionMismatch, "got %d joints, want %d", len(joints), n)
	}

	res := &ForwardResult{
		LinkChain: make([]*spatialmath.Pose, 0, n),
		Valid:     true,
	}
	accum := spatialmath.NewZeroPose()
	for i := 0; i < n; i++ {
		step := spatialmath.DHTransform(joints[i]+cfg.Theta0[i], cfg.D[i], cfg.A[i], cfg.Alpha[i])
		accum = accum.Compose(step)
		if !accum.IsFinite() {
			return nil, errors.Wrapf(ErrNonFiniteResult, "joint frame %d", i)
		}
		if accum.OrthonormalityError() > cfg.OrthoTol {
			res.Valid = false
		}
		res.LinkChain = append(res.LinkChain, accum)
	}
	res.EndEffector = accum
	return res, nil
}
