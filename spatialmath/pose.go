// Package spatialmath provides the rigid-transform primitives used by the
// kinematics and motion planning packages: poses composed of a 3x3 rotation
// and a translation, Denavit-Hartenberg link transforms, and the small
// angle/rotation utilities everything else is built on.
package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
)

// Pose represents a rigid transform: a rotation followed by a translation.
// Poses are value-ish objects; operations return fresh poses and never mutate
// their receivers.
type Pose struct {
	rot   *mat.Dense
	trans r3.Vector
}

// NewZeroPose returns the identity transform.
func NewZeroPose() *Pose {
	return &Pose{rot: eye3(), trans: r3.Vector{}}
}

// NewPose returns a pose from a 3x3 rotation matrix and a translation.
// The rotation is copied.
func NewPose(rot *mat.Dense, trans r3.Vector) *Pose {
	r := mat.NewDense(3, 3, nil)
	r.Copy(rot)
	return &Pose{rot: r, trans: trans}
}

// NewPoseFromPoint returns a pure translation with identity rotation.
func NewPoseFromPoint(pt r3.Vector) *Pose {
	return &Pose{rot: eye3(), trans: pt}
}

// Point returns the translation component of the pose.
func (p *Pose) Point() r3.Vector {
	return p.trans
}

// Rotation returns a copy of the 3x3 rotation block.
func (p *Pose) Rotation() *mat.Dense {
	r := mat.NewDense(3, 3, nil)
	r.Copy(p.rot)
	return r
}

// Compose returns the pose resulting from applying q in the frame of p,
// i.e. R = Rp*Rq and t = Rp*tq + tp.
func (p *Pose) Compose(q *Pose) *Pose {
	r := mat.NewDense(3, 3, nil)
	r.Mul(p.rot, q.rot)
	t := p.TransformPoint(q.trans)
	return &Pose{rot: r, trans: t}
}

// TransformPoint applies the pose to a point.
func (p *Pose) TransformPoint(pt r3.Vector) r3.Vector {
	x := p.rot.At(0, 0)*pt.X + p.rot.At(0, 1)*pt.Y + p.rot.At(0, 2)*pt.Z
	y := p.rot.At(1, 0)*pt.X + p.rot.At(1, 1)*pt.Y + p.rot.At(1, 2)*pt.Z
	z := p.rot.At(2, 0)*pt.X + p.rot.At(2, 1)*pt.Y + p.rot.At(2, 2)*pt.Z
	return r3.Vector{X: x + p.trans.X, Y: y + p.trans.Y, Z: z + p.trans.Z}
}

// AxisZ returns the z axis of the pose's frame expressed in the parent frame,
// the third column of the rotation block. This is the revolute axis used when
// assembling geometric Jacobian columns.
func (p *Pose) AxisZ() r3.Vector {
	return r3.Vector{X: p.rot.At(0, 2), Y: p.rot.At(1, 2), Z: p.rot.At(2, 2)}
}

// Yaw extracts the rotation about the vertical axis as atan2(R21, R11).
func (p *Pose) Yaw() float64 {
	return math.Atan2(p.rot.At(1, 0), p.rot.At(0, 0))
}

// OrthonormalityError returns the Frobenius norm of R^T*R - I. Zero for a
// perfect rotation; drift accumulates through long chains of compositions.
func (p *Pose) OrthonormalityError() float64 {
	var gram mat.Dense
	gram.Mul(p.rot.T(), p.rot)
	sum := 0.0
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			d := gram.At(i, j)
			if i == j {
				d--
			}
			sum += d * d
		}
	}
	return math.Sqrt(sum)
}

// IsFinite reports whether every entry of the pose is a finite number.
func (p *Pose) IsFinite() bool {
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if !isFinite(p.rot.At(i, j)) {
				return false
			}
		}
	}
	return isFinite(p.trans.X) && isFinite(p.trans.Y) && isFinite(p.trans.Z)
}

// WrapAngle wraps an angle in radians into [-pi, pi].
func WrapAngle(theta float64) float64 {
	wrapped := math.Mod(theta+math.Pi, 2*math.Pi)
	if wrapped < 0 {
		wrapped += 2 * math.Pi
	}
	return wrapped - math.Pi
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func eye3() *mat.Dense {
	return mat.NewDense(3, 3, []float64{
		1, 0, 0,
		0, 1, 0,
		0, 0, 1,
	})
}
