package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
)

// DHTransform builds the standard Denavit-Hartenberg link transform
// Rz(theta) * Tz(d) * Tx(a) * Rx(alpha) for one revolute link.
func DHTransform(theta, d, a, alpha float64) *Pose {
	ct, st := math.Cos(theta), math.Sin(theta)
	ca, sa := math.Cos(alpha), math.Sin(alpha)

	rot := mat.NewDense(3, 3, []float64{
		ct, -st * ca, st * sa,
		st, ct * ca, -ct * sa,
		0, sa, ca,
	})
	trans := r3.Vector{X: a * ct, Y: a * st, Z: d}
	return &Pose{rot: rot, trans: trans}
}
