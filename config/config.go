// Package config defines the immutable arm configuration consumed by every
// entry point of the kinematics engine. A configuration is validated once and
// then passed around by value; there is no package-global state, so any number
// of solves or scans can run concurrently against the same value.
package config

import (
	"math"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// SamplerKind selects the joint-space sampling strategy used by workspace
// scanning.
type SamplerKind string

// Supported sampling strategies. Halton is the default; Uniform is the
// documented fallback when a low-discrepancy sequence is not wanted.
const (
	SamplerHalton  = SamplerKind("halton")
	SamplerUniform = SamplerKind("uniform")
)

// ArmConfig fully describes a serial revolute arm and the tolerances of the
// algorithms that operate on it. Fields use SI units (meters, radians,
// seconds) throughout.
type ArmConfig struct {
	Name string `json:"name"`

	// Denavit-Hartenberg table, one entry per joint.
	A      []float64 `json:"a"`
	D      []float64 `json:"d"`
	Alpha  []float64 `json:"alpha"`
	Theta0 []float64 `json:"theta0"`

	// Joint limits, radians.
	QMin []float64 `json:"q_min"`
	QMax []float64 `json:"q_max"`

	// Inverse kinematics.
	TolPos        float64 `json:"tol_pos"`
	TolYaw        float64 `json:"tol_yaw"`
	MaxIterations int     `json:"max_iterations"`
	LambdaInit    float64 `json:"lambda_init"`
	LambdaMax     float64 `json:"lambda_max"`

	// Singularity classification.
	CondThreshold  float64 `json:"cond_threshold"`
	ManipThreshold float64 `json:"manip_threshold"`

	// Rotation orthonormality tolerance for forward kinematics.
	OrthoTol float64 `json:"ortho_tol"`

	// Tray / workspace geometry.
	TrayHeight  float64 `json:"tray_height"`
	Clearance   float64 `json:"clearance"`
	TrayRows    int     `json:"tray_rows"`
	TrayCols    int     `json:"tray_cols"`
	TraySpacing float64 `json:"tray_spacing"`
	TrayOffsetX float64 `json:"tray_offset_x"`
	TrayOffsetY float64 `json:"tray_offset_y"`
	CellRadius  float64 `json:"cell_radius"`

	// Trajectory sampling and validation.
	TimeStep  float64 `json:"time_step"`
	JerkRatio float64 `json:"jerk_ratio"`
	VMax      float64 `json:"v_max"`

	// Workspace sampling.
	SampleCount int         `json:"sample_count"`
	Seed        uint64      `json:"seed"`
	Sampler     SamplerKind `json:"sampler"`
}

// DOF returns the configured degree-of-freedom count.
func (c ArmConfig) DOF() int {
	return len(c.A)
}

// Validate checks internal consistency of the configuration. All problems are
// reported together rather than stopping at the first.
func (c ArmConfig) Validate() error {
	var errAll error
	n := c.DOF()
	if n == 0 {
		return errors.New("config has no joints")
	}
	for name, s := range map[string][]float64{
		"d": c.D, "alpha": c.Alpha, "theta0": c.Theta0, "q_min": c.QMin, "q_max": c.QMax,
	} {
		if len(s) != n {
			multierr.AppendInto(&errAll, errors.Errorf("%s has %d entries, want %d", name, len(s), n))
		}
	}
	if errAll != nil {
		return errAll
	}
	for i := 0; i < n; i++ {
		if c.QMin[i] >= c.QMax[i] {
			multierr.AppendInto(&errAll, errors.Errorf("joint %d: q_min %.4f not below q_max %.4f", i, c.QMin[i], c.QMax[i]))
		}
	}
	if c.TolPos <= 0 || c.TolYaw <= 0 {
		multierr.AppendInto(&errAll, errors.New("ik tolerances must be positive"))
	}
	if c.MaxIterations < 1 {
		multierr.AppendInto(&errAll, errors.New("max_iterations must be at least 1"))
	}
	if c.LambdaInit <= 0 || c.LambdaInit > c.LambdaMax {
		multierr.AppendInto(&errAll, errors.Errorf("damping bounds invalid: lambda_init %.4g, lambda_max %.4g", c.LambdaInit, c.LambdaMax))
	}
	if c.TimeStep <= 0 {
		multierr.AppendInto(&errAll, errors.New("time_step must be positive"))
	}
	if c.VMax <= 0 {
		multierr.AppendInto(&errAll, errors.New("v_max must be positive"))
	}
	if c.JerkRatio <= 0 {
		multierr.AppendInto(&errAll, errors.New("jerk_ratio must be positive"))
	}
	if c.TrayRows < 1 || c.TrayCols < 1 {
		multierr.AppendInto(&errAll, errors.New("tray grid must have at least one row and column"))
	}
	switch c.Sampler {
	case SamplerHalton, SamplerUniform, "":
	default:
		multierr.AppendInto(&errAll, errors.Errorf("unknown sampler kind %q", c.Sampler))
	}
	return errAll
}

// Default5DOF returns the nominal five-joint bench arm: a vertical base
// rotation, a planar three-link chain, and a vertically mounted tool joint
// whose axis keeps yaw controllable independently of the base angle.
func Default5DOF() ArmConfig {
	return ArmConfig{
		Name:   "bench-arm-5dof",
		A:      []float64{0.06, 0.11, 0.10, 0.08, 0.06},
		D:      []float64{0.09, 0, 0, 0, 0.04},
		Alpha:  []float64{math.Pi / 2, 0, 0, -math.Pi / 2, 0},
		Theta0: []float64{0, 0, 0, 0, 0},
		QMin:   []float64{-2.967, -1.919, -2.094, -1.919, -2.967},
		QMax:   []float64{2.967, 1.919, 2.094, 1.919, 2.967},

		TolPos:        1e-3,
		TolYaw:        0.008,
		MaxIterations: 200,
		LambdaInit:    0.01,
		LambdaMax:     1.0,

		CondThreshold:  60.0,
		ManipThreshold: 1e-4,
		OrthoTol:       1e-6,

		TrayHeight:  0.05,
		Clearance:   0.02,
		TrayRows:    4,
		TrayCols:    6,
		TraySpacing: 0.05,
		TrayOffsetX: 0.12,
		TrayOffsetY: -0.125,
		CellRadius:  0.03,

		TimeStep:  0.02,
		JerkRatio: 10.0,
		VMax:      2.0,

		SampleCount: 2000,
		Seed:        42,
		Sampler:     SamplerHalton,
	}
}
