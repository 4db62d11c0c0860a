package kinematics

import (
	"math"
	"testing"

	"go.viam.com/test"

	"github.com/traybot/armkin/config"
)

func TestJacobianShapeAndMetrics(t *testing.T) {
	cfg := config.Default5DOF()
	jr, err := ComputeJacobian([]float64{0.3, 0.4, -0.5, 0.3, 0.2}, cfg)
	test.That(t, err, test.ShouldBeNil)

	rows, cols := jr.J.Dims()
	test.That(t, rows, test.ShouldEqual, 6)
	test.That(t, cols, test.ShouldEqual, 5)
	test.That(t, jr.Manipulability, test.ShouldBeGreaterThan, 0)
	test.That(t, jr.GramDeterminant, test.ShouldBeGreaterThan, 0)
	test.That(t, math.IsInf(jr.ConditionNumber, 1), test.ShouldBeFalse)
	test.That(t, jr.ConditionNumber, test.ShouldBeGreaterThanOrEqualTo, 1)
	test.That(t, jr.Manipulability, test.ShouldAlmostEqual, math.Sqrt(jr.GramDeterminant), 1e-12)
}

func TestJacobianDimensionMismatch(t *testing.T) {
	cfg := config.Default5DOF()
	_, err := ComputeJacobian([]float64{0}, cfg)
	test.That(t, err, test.ShouldNotBeNil)
}

// The linear block of each Jacobian column must match the finite-difference
// sensitivity of the end-effector position to that joint.
func TestJacobianMatchesFiniteDifference(t *testing.T) {
	cfg := config.Default5DOF()
	joints := []float64{0.2, 0.5, -0.4, 0.3, -0.6}
	jr, err := ComputeJacobian(joints, cfg)
	test.That(t, err, test.ShouldBeNil)

	const eps = 1e-6
	for j := 0; j < cfg.DOF(); j++ {
		plus := append([]float64(nil), joints...)
		minus := append([]float64(nil), joints...)
		plus[j] += eps
		minus[j] -= eps

		fwdPlus, err := ComputeForward(plus, cfg)
		test.That(t, err, test.ShouldBeNil)
		fwdMinus, err := ComputeForward(minus, cfg)
		test.That(t, err, test.ShouldBeNil)

		diff := fwdPlus.EndEffector.Point().Sub(fwdMinus.EndEffector.Point()).Mul(1 / (2 * eps))
		test.That(t, jr.J.At(0, j), test.ShouldAlmostEqual, diff.X, 1e-5)
		test.That(t, jr.J.At(1, j), test.ShouldAlmostEqual, diff.Y, 1e-5)
		test.That(t, jr.J.At(2, j), test.ShouldAlmostEqual, diff.Z, 1e-5)
	}
}

func TestAnalyzeSingularityClassification(t *testing.T) {
	joints := []float64{0.3, 0.4, -0.5, 0.3, 0.2}

	t.Run("relaxed thresholds pass", func(t *testing.T) {
		cfg := config.Default5DOF()
		cfg.CondThreshold = 1e9
		cfg.ManipThreshold = 0
		report, err := AnalyzeSingularity(joints, cfg)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, report.IsSingular, test.ShouldBeFalse)
	})

	t.Run("tight condition threshold flags", func(t *testing.T) {
		cfg := config.Default5DOF()
		cfg.CondThreshold = 1.0
		report, err := AnalyzeSingularity(joints, cfg)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, report.IsSingular, test.ShouldBeTrue)
	})

	t.Run("tight manipulability threshold flags", func(t *testing.T) {
		cfg := config.Default5DOF()
		cfg.CondThreshold = 1e9
		cfg.ManipThreshold = 1e9
		report, err := AnalyzeSingularity(joints, cfg)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, report.IsSingular, test.ShouldBeTrue)
	})
}

func TestClampToLimits(t *testing.T) {
	cfg := config.Default5DOF()
	joints := []float64{-10, 0.5, 10, cfg.QMin[3], cfg.QMax[4]}
	clamped := ClampToLimits(joints, cfg)

	test.That(t, clamped[0], test.ShouldAlmostEqual, cfg.QMin[0])
	test.That(t, clamped[1], test.ShouldAlmostEqual, 0.5)
	test.That(t, clamped[2], test.ShouldAlmostEqual, cfg.QMax[2])
	test.That(t, clamped[3], test.ShouldAlmostEqual, cfg.QMin[3])
	test.That(t, clamped[4], test.ShouldAlmostEqual, cfg.QMax[4])

	// The input is never mutated.
	test.That(t, joints[0], test.ShouldAlmostEqual, -10)
}

func TestRandomJointVector(t *testing.T) {
	cfg := config.Default5DOF()
	joints := RandomJointVector(nil, cfg)
	test.That(t, len(joints), test.ShouldEqual, cfg.DOF())
	for i, q := range joints {
		test.That(t, q, test.ShouldBeGreaterThanOrEqualTo, cfg.QMin[i])
		test.That(t, q, test.ShouldBeLessThanOrEqualTo, cfg.QMax[i])
	}
	// Fixed fallback seed makes the nil-rng path deterministic.
	test.That(t, RandomJointVector(nil, cfg), test.ShouldResemble, joints)
}
