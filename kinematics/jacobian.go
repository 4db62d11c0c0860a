package kinematics

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"

	"github.com/traybot/armkin/config"
)

// Singular values below this floor make the condition number +Inf rather
// than a meaninglessly large finite number.
const sigmaFloor = 1e-10

// JacobianResult bundles the 6xn geometric Jacobian with the two conditioning
// metrics derived from it.
type JacobianResult struct {
	// J maps joint velocities to the end-effector twist: rows 0-2 are the
	// linear velocity part, rows 3-5 the angular part.
	J               *mat.Dense
	Manipulability  float64
	ConditionNumber float64
	// GramDeterminant is det of the Gram matrix the manipulability is the
	// square root of.
	GramDeterminant float64
}

// ComputeJacobian builds the geometric Jacobian at the given joint vector.
// Column i comes from the z axis and origin of frame i-1 (frame 0 being the
// base identity): linear part z x (p_end - p), angular part z.
func ComputeJacobian(joints []float64, cfg config.ArmConfig) (*JacobianResult, error) {
	fwd, err := ComputeForward(joints, cfg)
	if err != nil {
		return nil, err
	}

	n := cfg.DOF()
	pEnd := fwd.EndEffector.Point()
	jac := mat.NewDense(6, n, nil)
	for i := 0; i < n; i++ {
		axis := r3.Vector{Z: 1}
		origin := r3.Vector{}
		if i > 0 {
			prev := fwd.LinkChain[i-1]
			axis = prev.AxisZ()
			origin = prev.Point()
		}
		lin := axis.Cross(pEnd.Sub(origin))
		jac.Set(0, i, lin.X)
		jac.Set(1, i, lin.Y)
		jac.Set(2, i, lin.Z)
		jac.Set(3, i, axis.X)
		jac.Set(4, i, axis.Y)
		jac.Set(5, i, axis.Z)
	}

	res := &JacobianResult{J: jac}
	res.GramDeterminant = gramDeterminant(jac)
	if res.GramDeterminant > 0 {
		res.Manipulability = math.Sqrt(res.GramDeterminant)
	}
	res.ConditionNumber = conditionNumber(jac)
	return res, nil
}

// gramDeterminant returns det(J*J^T) for a wide Jacobian and det(J^T*J) for a
// tall one, so the measure stays meaningful on arms with fewer than six
// joints.
func gramDeterminant(jac *mat.Dense) float64 {
	rows, cols := jac.Dims()
	var gram mat.Dense
	if cols >= rows {
		gram.Mul(jac, jac.T())
	} else {
		gram.Mul(jac.T(), jac)
	}
	return mat.Det(&gram)
}

func conditionNumber(jac *mat.Dense) float64 {
	var svd mat.SVD
	if ok := svd.Factorize(jac, mat.SVDNone); !ok {
		return math.Inf(1)
	}
	sigma := svd.Values(nil)
	sMax := sigma[0]
	sMin := sigma[len(sigma)-1]
	if sMin < sigmaFloor {
		return math.Inf(1)
	}
	return sMax / sMin
}
