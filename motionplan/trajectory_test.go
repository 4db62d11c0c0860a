package motionplan

import (
	"context"
	"testing"

	"github.com/edaniels/golog"
	"go.viam.com/test"

	"github.com/traybot/armkin/config"
	"github.com/traybot/armkin/kinematics"
)

func TestPlanJointSpaceCubic(t *testing.T) {
	logger := golog.NewTestLogger(t)
	cfg := config.Default5DOF()
	planner, err := NewPlanner(cfg, logger)
	test.That(t, err, test.ShouldBeNil)

	start := make([]float64, 5)
	goal := []float64{0.3, 0.3, 0.2, -0.2, 0.15}
	traj, err := planner.PlanJointSpace(context.Background(), start, goal, 2.0)
	test.That(t, err, test.ShouldBeNil)

	k, n := traj.Positions.Dims()
	test.That(t, n, test.ShouldEqual, 5)
	test.That(t, k, test.ShouldEqual, len(traj.Time))
	test.That(t, traj.Time[0], test.ShouldAlmostEqual, 0)
	test.That(t, traj.Time[k-1], test.ShouldAlmostEqual, 2.0)

	for j := 0; j < n; j++ {
		// Endpoints hit start and goal exactly, with zero velocity at both
		// ends by construction of the cubic.
		test.That(t, traj.Positions.At(0, j), test.ShouldAlmostEqual, start[j], 1e-12)
		test.That(t, traj.Positions.At(k-1, j), test.ShouldAlmostEqual, goal[j], 1e-9)
		test.That(t, traj.Velocities.At(0, j), test.ShouldAlmostEqual, 0, 1e-12)
		test.That(t, traj.Velocities.At(k-1, j), test.ShouldAlmostEqual, 0, 1e-9)
	}

	test.That(t, traj.Valid, test.ShouldBeTrue)
	test.That(t, traj.Violations.Any(), test.ShouldBeFalse)
	test.That(t, traj.MinClearance, test.ShouldBeGreaterThan, cfg.Clearance)
	for _, pose := range traj.Poses {
		test.That(t, pose, test.ShouldNotBeNil)
	}
}

func TestPlanJointSpaceClearanceViolation(t *testing.T) {
	logger := golog.NewTestLogger(t)
	cfg := config.Default5DOF()
	planner, err := NewPlanner(cfg, logger)
	test.That(t, err, test.ShouldBeNil)

	// Swinging the shoulder hard downward drags the tool below the tray.
	goal := []float64{0, -1.2, -0.5, 0, 0}
	traj, err := planner.PlanJointSpace(context.Background(), make([]float64, 5), goal, 2.0)
	test.That(t, err, test.ShouldBeNil)

	test.That(t, traj.Violations.Clearance, test.ShouldBeTrue)
	test.That(t, traj.Valid, test.ShouldBeFalse)
	// The clearance number is reported even though the plan is invalid.
	test.That(t, traj.MinClearance, test.ShouldBeLessThan, cfg.Clearance)
}

func TestPlanJointSpaceRejectsBadArgs(t *testing.T) {
	logger := golog.NewTestLogger(t)
	planner, err := NewPlanner(config.Default5DOF(), logger)
	test.That(t, err, test.ShouldBeNil)

	_, err = planner.PlanJointSpace(context.Background(), []float64{0}, make([]float64, 5), 2.0)
	test.That(t, err, test.ShouldNotBeNil)

	_, err = planner.PlanJointSpace(context.Background(), make([]float64, 5), make([]float64, 5), 0)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestPlanTaskSpaceLSPB(t *testing.T) {
	logger := golog.NewTestLogger(t)
	cfg := config.Default5DOF()
	planner, err := NewPlanner(cfg, logger)
	test.That(t, err, test.ShouldBeNil)

	// Start and goal drawn from actual forward kinematics so both are known
	// reachable.
	qa := []float64{0.2, 0.3, -0.2, 0.1, -0.1}
	qb := []float64{-0.1, 0.4, -0.3, 0.2, 0.05}
	startTarget := targetFromJoints(t, cfg, qa)
	goalTarget := targetFromJoints(t, cfg, qb)

	traj, err := planner.PlanTaskSpace(context.Background(), qa, startTarget, goalTarget, 2.0)
	test.That(t, err, test.ShouldBeNil)

	k, _ := traj.Positions.Dims()
	firstPose := traj.Poses[0]
	lastPose := traj.Poses[k-1]
	test.That(t, firstPose.Point().Sub(startTarget.Point()).Norm(), test.ShouldBeLessThan, 0.002)
	test.That(t, lastPose.Point().Sub(goalTarget.Point()).Norm(), test.ShouldBeLessThan, 0.002)

	test.That(t, traj.Violations.Limit, test.ShouldBeFalse)
	test.That(t, traj.MinClearance, test.ShouldBeGreaterThan, 0)
}

func TestPlanSelectsMethod(t *testing.T) {
	logger := golog.NewTestLogger(t)
	cfg := config.Default5DOF()
	planner, err := NewPlanner(cfg, logger)
	test.That(t, err, test.ShouldBeNil)

	start := targetFromJoints(t, cfg, []float64{0.2, 0.3, -0.2, 0.1, -0.1})
	goal := targetFromJoints(t, cfg, []float64{0.1, 0.35, -0.25, 0.15, 0})

	for _, method := range []Method{JointSpaceCubic, TaskSpaceLSPB} {
		traj, err := planner.Plan(context.Background(), start, goal, 2.0, method)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, traj, test.ShouldNotBeNil)
	}

	_, err = planner.Plan(context.Background(), start, goal, 2.0, Method(99))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestLSPBProfile(t *testing.T) {
	start := Target{X: 0, Y: 0, Z: 0.1, Yaw: 0}
	goal := Target{X: 0.2, Y: 0, Z: 0.1, Yaw: 0.4}
	profile := newLSPBProfile(start, goal, 2.0)

	// Progress starts at zero and ends at the goal.
	test.That(t, profile.at(0).X, test.ShouldAlmostEqual, 0)
	test.That(t, profile.at(2.0).X, test.ShouldAlmostEqual, 0.2, 1e-9)
	test.That(t, profile.at(2.0).Yaw, test.ShouldAlmostEqual, 0.4, 1e-9)

	// The cruise phase is linear: equal time steps advance equal distance.
	mid1 := profile.at(0.9).X
	mid2 := profile.at(1.0).X
	mid3 := profile.at(1.1).X
	test.That(t, mid3-mid2, test.ShouldAlmostEqual, mid2-mid1, 1e-9)

	// Monotone non-decreasing progress overall.
	prev := -1.0
	for tt := 0.0; tt <= 2.0; tt += 0.05 {
		frac := profile.fraction(tt)
		test.That(t, frac, test.ShouldBeGreaterThanOrEqualTo, prev)
		prev = frac
	}

	// Degenerate zero-distance path still interpolates yaw.
	flat := newLSPBProfile(start, Target{X: 0, Y: 0, Z: 0.1, Yaw: 1.0}, 2.0)
	test.That(t, flat.at(1.0).Yaw, test.ShouldAlmostEqual, 0.5, 1e-9)
	test.That(t, flat.at(2.0).Yaw, test.ShouldAlmostEqual, 1.0, 1e-9)
}

func targetFromJoints(t *testing.T, cfg config.ArmConfig, joints []float64) Target {
	t.Helper()
	fwd, err := kinematics.ComputeForward(joints, cfg)
	test.That(t, err, test.ShouldBeNil)
	return Target{
		X:   fwd.EndEffector.Point().X,
		Y:   fwd.EndEffector.Point().Y,
		Z:   fwd.EndEffector.Point().Z,
		Yaw: fwd.EndEffector.Yaw(),
	}
}
