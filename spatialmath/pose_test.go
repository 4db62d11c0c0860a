package spatialmath

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func TestDHTransform(t *testing.T) {
	ident := DHTransform(0, 0, 0, 0)
	test.That(t, ident.OrthonormalityError(), test.ShouldAlmostEqual, 0)
	test.That(t, ident.Point().Norm(), test.ShouldAlmostEqual, 0)

	// Pure z offset plus link length along x.
	p := DHTransform(0, 0.1, 0.2, 0)
	test.That(t, p.Point().X, test.ShouldAlmostEqual, 0.2)
	test.That(t, p.Point().Y, test.ShouldAlmostEqual, 0)
	test.That(t, p.Point().Z, test.ShouldAlmostEqual, 0.1)

	// A quarter turn about z moves the link length onto y.
	p = DHTransform(math.Pi/2, 0, 0.2, 0)
	test.That(t, p.Point().X, test.ShouldAlmostEqual, 0, 1e-12)
	test.That(t, p.Point().Y, test.ShouldAlmostEqual, 0.2)
	test.That(t, p.Yaw(), test.ShouldAlmostEqual, math.Pi/2)
}

func TestComposeStaysOrthonormal(t *testing.T) {
	accum := NewZeroPose()
	for i := 0; i < 500; i++ {
		accum = accum.Compose(DHTransform(0.3, 0.01, 0.05, 0.2))
	}
	test.That(t, accum.IsFinite(), test.ShouldBeTrue)
	test.That(t, accum.OrthonormalityError(), test.ShouldBeLessThan, 1e-10)
}

func TestTransformPoint(t *testing.T) {
	p := DHTransform(math.Pi/2, 0, 0, 0)
	moved := p.TransformPoint(r3.Vector{X: 1})
	test.That(t, moved.X, test.ShouldAlmostEqual, 0, 1e-12)
	test.That(t, moved.Y, test.ShouldAlmostEqual, 1)
}

func TestWrapAngle(t *testing.T) {
	test.That(t, WrapAngle(0), test.ShouldAlmostEqual, 0)
	test.That(t, WrapAngle(2.5*math.Pi), test.ShouldAlmostEqual, 0.5*math.Pi)
	test.That(t, WrapAngle(-2.5*math.Pi), test.ShouldAlmostEqual, -0.5*math.Pi)
	test.That(t, math.Abs(WrapAngle(3*math.Pi)), test.ShouldAlmostEqual, math.Pi)
	test.That(t, WrapAngle(math.Pi/4), test.ShouldAlmostEqual, math.Pi/4)
	test.That(t, WrapAngle(-math.Pi/4), test.ShouldAlmostEqual, -math.Pi/4)
	test.That(t, WrapAngle(2*math.Pi+0.1), test.ShouldAlmostEqual, 0.1)
}

func TestAxisZ(t *testing.T) {
	// Rx(pi/2) sends the local z axis to -y in the parent frame.
	p := DHTransform(0, 0, 0, math.Pi/2)
	z := p.AxisZ()
	test.That(t, z.X, test.ShouldAlmostEqual, 0)
	test.That(t, z.Y, test.ShouldAlmostEqual, -1)
	test.That(t, z.Z, test.ShouldAlmostEqual, 0, 1e-12)
}
