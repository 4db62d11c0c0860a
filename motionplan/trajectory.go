package motionplan

import (
	"context"
	"math"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/traybot/armkin/config"
	"github.com/traybot/armkin/kinematics"
	"github.com/traybot/armkin/spatialmath"
)

// Method selects the trajectory interpolation scheme.
type Method int

// Supported interpolation methods.
const (
	// JointSpaceCubic fits one cubic polynomial per joint with zero endpoint
	// velocities.
	JointSpaceCubic Method = iota
	// TaskSpaceLSPB follows a trapezoidal-velocity straight-line path in task
	// space, solving IK at every sample.
	TaskSpaceLSPB
)

func (m Method) String() string {
	switch m {
	case JointSpaceCubic:
		return "joint-space cubic"
	case TaskSpaceLSPB:
		return "task-space lspb"
	}
	return "unknown"
}

// Trajectory is a uniformly sampled motion plan. Positions, Velocities and
// Accelerations are KxN with one row per time sample. Violations and Valid
// are filled by the validation pass; MinClearance is populated even when
// other checks fail so callers can inspect partial results.
type Trajectory struct {
	Time          []float64
	Positions     *mat.Dense
	Velocities    *mat.Dense
	Accelerations *mat.Dense
	Poses         []*spatialmath.Pose
	MinClearance  float64
	Violations    Violations
	Valid         bool
}

// Planner generates and validates point-to-point trajectories for one arm.
type Planner struct {
	cfg    config.ArmConfig
	solver *DLSolver
	logger golog.Logger
}

// NewPlanner validates the configuration and returns a planner with an
// embedded IK solver for task-space paths.
func NewPlanner(cfg config.ArmConfig, logger golog.Logger) (*Planner, error) {
	solver, err := NewDLSolver(cfg, logger)
	if err != nil {
		return nil, err
	}
	return &Planner{cfg: cfg, solver: solver, logger: logger}, nil
}

// Plan resolves the task-space start and goal to joint vectors with one IK
// solve each (the goal solve warm-started from the start solution) and plans
// between them using the requested method. The start solve is seeded from the
// zero configuration; use PlanTaskSpace directly to supply a seed.
func (p *Planner) Plan(ctx context.Context, start, goal Target, duration float64, method Method) (*Trajectory, error) {
	switch method {
	case TaskSpaceLSPB:
		return p.PlanTaskSpace(ctx, nil, start, goal, duration)
	case JointSpaceCubic:
		startRes, err := p.solver.Solve(ctx, start, make([]float64, p.cfg.DOF()))
		if err != nil {
			return nil, err
		}
		if startRes.Status != Success {
			p.logger.Warnw("start pose IK did not converge, planning from best effort",
				"status", startRes.Status.String(), "posErr", startRes.PosErr)
		}
		goalRes, err := p.solver.Solve(ctx, goal, startRes.Joints)
		if err != nil {
			return nil, err
		}
		if goalRes.Status != Success {
			p.logger.Warnw("goal pose IK did not converge, planning to best effort",
				"status", goalRes.Status.String(), "posErr", goalRes.PosErr)
		}
		return p.PlanJointSpace(ctx, startRes.Joints, goalRes.Joints, duration)
	}
	return nil, errors.Errorf("unknown trajectory method %d", method)
}

// PlanJointSpace interpolates each joint with the cubic
// q(t) = q0 + 3*delta*(t/Tf)^2 - 2*delta*(t/Tf)^3, which has zero velocity at
// both endpoints by construction.
func (p *Planner) PlanJointSpace(ctx context.Context, start, goal []float64, duration float64) (*Trajectory, error) {
	n := p.cfg.DOF()
	if len(start) != n || len(goal) != n {
		return nil, errors.Wrapf(kinematics.ErrDimensionMismatch,
			"start has %d joints, goal has %d, want %d", len(start), len(goal), n)
	}
	if duration <= 0 {
		return nil, errors.New("trajectory duration must be positive")
	}

	traj := p.newTrajectory(duration)
	k := len(traj.Time)
	tf := duration
	for j := 0; j < n; j++ {
		delta := goal[j] - start[j]
		a2 := 3 * delta / (tf * tf)
		a3 := -2 * delta / (tf * tf * tf)
		for i, t := range traj.Time {
			traj.Positions.Set(i, j, start[j]+a2*t*t+a3*t*t*t)
			traj.Velocities.Set(i, j, 2*a2*t+3*a3*t*t)
			traj.Accelerations.Set(i, j, 2*a2+6*a3*t)
		}
	}

	for i := 0; i < k; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		fwd, err := kinematics.ComputeForward(traj.Positions.RawRowView(i), p.cfg)
		if err != nil {
			return nil, err
		}
		traj.Poses[i] = fwd.EndEffector
	}

	p.validate(traj)
	return traj, nil
}

// PlanTaskSpace follows a straight line from start to goal position with a
// trapezoidal velocity profile (blend time Tf/4) and interpolated yaw,
// solving IK at every sample warm-started from the previous sample's
// solution. An unconverged sample is a warning, not a failure: its
// best-effort joints are recorded and validation decides what that means.
func (p *Planner) PlanTaskSpace(ctx context.Context, seed []float64, start, goal Target, duration float64) (*Trajectory, error) {
	n := p.cfg.DOF()
	if seed == nil {
		seed = make([]float64, n)
	}
	if len(seed) != n {
		return nil, errors.Wrapf(kinematics.ErrDimensionMismatch, "seed has %d joints, want %d", len(seed), n)
	}
	if duration <= 0 {
		return nil, errors.New("trajectory duration must be positive")
	}

	traj := p.newTrajectory(duration)
	k := len(traj.Time)
	profile := newLSPBProfile(start, goal, duration)

	guess := seed
	failures := 0
	for i, t := range traj.Time {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err := p.solver.Solve(ctx, profile.at(t), guess)
		if err != nil {
			return nil, err
		}
		if res.Status != Success {
			failures++
			p.logger.Debugw("task-space sample did not converge",
				"sample", i, "status", res.Status.String(), "posErr", res.PosErr)
		}
		traj.Positions.SetRow(i, res.Joints)
		guess = res.Joints

		fwd, err := kinematics.ComputeForward(res.Joints, p.cfg)
		if err != nil {
			return nil, err
		}
		traj.Poses[i] = fwd.EndEffector
	}
	if failures > 0 {
		p.logger.Infow("task-space trajectory planned with unconverged samples",
			"samples", k, "unconverged", failures)
	}

	finiteDifference(traj.Positions, traj.Velocities, p.cfg.TimeStep)
	finiteDifference(traj.Velocities, traj.Accelerations, p.cfg.TimeStep)

	p.validate(traj)
	return traj, nil
}

func (p *Planner) newTrajectory(duration float64) *Trajectory {
	n := p.cfg.DOF()
	k := int(duration/p.cfg.TimeStep) + 1
	if k < 2 {
		k = 2
	}
	traj := &Trajectory{
		Time:          make([]float64, k),
		Positions:     mat.NewDense(k, n, nil),
		Velocities:    mat.NewDense(k, n, nil),
		Accelerations: mat.NewDense(k, n, nil),
		Poses:         make([]*spatialmath.Pose, k),
	}
	for i := range traj.Time {
		traj.Time[i] = float64(i) * duration / float64(k-1)
	}
	return traj
}

// lspbProfile is the scalar linear-segment-with-parabolic-blends progress
// along the straight-line path, with blend time Tf/4 and cruise velocity
// distance/(Tf - blend).
type lspbProfile struct {
	start, goal Target
	dist        float64
	yawDelta    float64
	tf          float64
	blend       float64
	cruise      float64
}

func newLSPBProfile(start, goal Target, duration float64) *lspbProfile {
	dist := goal.Point().Sub(start.Point()).Norm()
	blend := duration / 4
	return &lspbProfile{
		start:    start,
		goal:     goal,
		dist:     dist,
		yawDelta: spatialmath.WrapAngle(goal.Yaw - start.Yaw),
		tf:       duration,
		blend:    blend,
		cruise:   dist / (duration - blend),
	}
}

// at returns the interpolated target at time t, with position progress from
// the trapezoidal profile and yaw advancing with the same progress fraction.
func (pr *lspbProfile) at(t float64) Target {
	frac := pr.fraction(t)
	dir := pr.goal.Point().Sub(pr.start.Point())
	pt := pr.start.Point().Add(dir.Mul(frac))
	return Target{
		X:   pt.X,
		Y:   pt.Y,
		Z:   pt.Z,
		Yaw: spatialmath.WrapAngle(pr.start.Yaw + frac*pr.yawDelta),
	}
}

func (pr *lspbProfile) fraction(t float64) float64 {
	if pr.dist < 1e-12 {
		if pr.tf <= 0 {
			return 1
		}
		return math.Min(math.Max(t/pr.tf, 0), 1)
	}
	var s float64
	switch {
	case t <= 0:
		s = 0
	case t < pr.blend:
		s = 0.5 * (pr.cruise / pr.blend) * t * t
	case t <= pr.tf-pr.blend:
		s = 0.5*pr.cruise*pr.blend + pr.cruise*(t-pr.blend)
	case t < pr.tf:
		dt := pr.tf - t
		s = pr.dist - 0.5*(pr.cruise/pr.blend)*dt*dt
	default:
		s = pr.dist
	}
	return math.Min(math.Max(s/pr.dist, 0), 1)
}

// finiteDifference fills dst with the central difference of src over dt,
// copying the neighboring value at the first and last samples.
func finiteDifference(src, dst *mat.Dense, dt float64) {
	k, n := src.Dims()
	if k < 3 {
		dst.Zero()
		return
	}
	for j := 0; j < n; j++ {
		for i := 1; i < k-1; i++ {
			dst.Set(i, j, (src.At(i+1, j)-src.At(i-1, j))/(2*dt))
		}
		dst.Set(0, j, dst.At(1, j))
		dst.Set(k-1, j, dst.At(k-2, j))
	}
}
