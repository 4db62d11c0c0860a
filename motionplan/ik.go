// Package motionplan contains the iterative damped-least-squares inverse
// kinematics solver and the point-to-point trajectory planner built on top of
// it. Non-convergence is ordinary data here, not an error: solvers always
// hand back their best-effort joint vector along with a terminal status so
// batch callers can aggregate rather than abort.
package motionplan

import (
	"context"
	"math"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/traybot/armkin/config"
	"github.com/traybot/armkin/kinematics"
	"github.com/traybot/armkin/spatialmath"
)

// Status is the terminal state of one inverse kinematics solve.
type Status int

// Terminal solve states. All of them are normal return values; none are
// surfaced as errors.
const (
	Success Status = iota
	MaxIterationsReached
	Unreachable
	SingularConfiguration
)

func (s Status) String() string {
	switch s {
	case Success:
		return "success"
	case MaxIterationsReached:
		return "max iterations reached"
	case Unreachable:
		return "unreachable"
	case SingularConfiguration:
		return "singular configuration"
	}
	return "unknown"
}

// A solve that runs out of iterations further from the goal than this is
// classified unreachable rather than merely unconverged.
const unreachableDistance = 0.05

// Target is the reduced task-space goal the solver works toward: a position
// plus a single yaw orientation constraint. On arms with more than four
// joints this leaves null-space redundancy unresolved; the damped step lands
// wherever it lands.
type Target struct {
	X   float64 `json:"x"`
	Y   float64 `json:"y"`
	Z   float64 `json:"z"`
	Yaw float64 `json:"yaw"`
}

// Point returns the positional part of the target.
func (t Target) Point() r3.Vector {
	return r3.Vector{X: t.X, Y: t.Y, Z: t.Z}
}

// Result reports the outcome of one solve. Joints always holds the last
// iterate, converged or not, so callers can chain or visualize best-effort
// solutions.
type Result struct {
	Joints            []float64
	Status            Status
	Iterations        int
	PosErr            float64
	YawErr            float64
	SingularityEvents int
}

// DLSolver is a damped-least-squares inverse kinematics solver with adaptive
// damping and joint-limit projection. It is stateless across solves and safe
// for concurrent use.
type DLSolver struct {
	cfg    config.ArmConfig
	logger golog.Logger
}

// NewDLSolver validates the configuration and returns a solver.
func NewDLSolver(cfg config.ArmConfig, logger golog.Logger) (*DLSolver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid arm config")
	}
	return &DLSolver{cfg: cfg, logger: logger}, nil
}

// Solve iterates from the seed joint vector toward the target. The seed is
// clamped into joint bounds before the first iteration, and every damped step
// is re-projected into bounds afterward. The iteration cap is the only
// timeout; ctx cancellation aborts between iterations.
func (s *DLSolver) Solve(ctx context.Context, target Target, seed []float64) (*Result, error) {
	n := s.cfg.DOF()
	if len(seed) != n {
		return nil, errors.Wrapf(kinematics.ErrDimensionMismatch, "seed has %d joints, want %d", len(seed), n)
	}

	q := kinematics.ClampToLimits(seed, s.cfg)
	lambda := s.cfg.LambdaInit
	res := &Result{Status: MaxIterationsReached}

	for iter := 0; ; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		fwd, err := kinematics.ComputeForward(q, s.cfg)
		if err != nil {
			if errors.Is(err, kinematics.ErrNonFiniteResult) {
				return s.finish(res, q, SingularConfiguration), nil
			}
			return nil, err
		}
		if !fwd.Valid {
			return s.finish(res, q, SingularConfiguration), nil
		}

		posErr := target.Point().Sub(fwd.EndEffector.Point())
		yawErr := spatialmath.WrapAngle(target.Yaw - fwd.EndEffector.Yaw())
		res.PosErr = posErr.Norm()
		res.YawErr = yawErr

		if res.PosErr < s.cfg.TolPos && math.Abs(yawErr) < s.cfg.TolYaw {
			return s.finish(res, q, Success), nil
		}
		if iter >= s.cfg.MaxIterations {
			status := MaxIterationsReached
			if res.PosErr > unreachableDistance {
				status = Unreachable
			}
			return s.finish(res, q, status), nil
		}

		jr, err := kinematics.ComputeJacobian(q, s.cfg)
		if err != nil {
			return nil, err
		}

		nearSingular := jr.ConditionNumber > s.cfg.CondThreshold
		if nearSingular {
			lambda = math.Min(lambda*2, s.cfg.LambdaMax)
			res.SingularityEvents++
			s.logger.Debugw("damping escalated near singularity",
				"iteration", iter, "lambda", lambda, "cond", jr.ConditionNumber)
		} else {
			lambda = math.Max(lambda/1.5, s.cfg.LambdaInit)
		}

		dq := dampedStep(taskJacobian(jr.J), taskError(posErr, yawErr), lambda)
		scale := 1.0
		if nearSingular {
			scale = 0.5
		}
		for i := 0; i < n; i++ {
			q[i] += scale * dq.AtVec(i)
		}
		q = kinematics.ClampToLimits(q, s.cfg)
		res.Iterations = iter + 1
	}
}

func (s *DLSolver) finish(res *Result, q []float64, status Status) *Result {
	res.Joints = q
	res.Status = status
	return res
}

// taskJacobian reduces the full 6xn geometric Jacobian to the 4xn task
// Jacobian: the three linear rows plus the angular row about the vertical
// axis, matching the position+yaw target representation.
func taskJacobian(full *mat.Dense) *mat.Dense {
	_, n := full.Dims()
	reduced := mat.NewDense(4, n, nil)
	for j := 0; j < n; j++ {
		reduced.Set(0, j, full.At(0, j))
		reduced.Set(1, j, full.At(1, j))
		reduced.Set(2, j, full.At(2, j))
		reduced.Set(3, j, full.At(5, j))
	}
	return reduced
}

func taskError(posErr r3.Vector, yawErr float64) *mat.VecDense {
	return mat.NewVecDense(4, []float64{posErr.X, posErr.Y, posErr.Z, yawErr})
}

// dampedStep solves the damped normal equations
// (J^T*J + lambda^2*I) dq = J^T e. The regularized system is symmetric
// positive definite for lambda > 0, so the solve cannot fail for finite
// inputs; a zero step is returned on the degenerate path regardless.
func dampedStep(jac *mat.Dense, taskErr *mat.VecDense, lambda float64) *mat.VecDense {
	_, n := jac.Dims()

	var normal mat.Dense
	normal.Mul(jac.T(), jac)
	for i := 0; i < n; i++ {
		normal.Set(i, i, normal.At(i, i)+lambda*lambda)
	}

	var rhs mat.VecDense
	rhs.MulVec(jac.T(), taskErr)

	dq := mat.NewVecDense(n, nil)
	if err := dq.SolveVec(&normal, &rhs); err != nil {
		return mat.NewVecDense(n, nil)
	}
	return dq
}
