package motionplan

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Continuity allows velocity jumps up to this many times v_max*dt between
// adjacent samples before flagging the trajectory.
const continuityFactor = 10.0

// medianFloor guards the jerk check against an all-but-zero jerk profile,
// where the ratio test would flag numerical dust.
const medianFloor = 1e-9

// Violations records which trajectory checks failed. All four are evaluated
// regardless of each other; a trajectory is valid only when none trigger.
type Violations struct {
	Limit      bool
	Continuity bool
	Jerk       bool
	Clearance  bool
}

// Any reports whether at least one check failed.
func (v Violations) Any() bool {
	return v.Limit || v.Continuity || v.Jerk || v.Clearance
}

// validate runs the four kinematic checks over a fully built trajectory and
// fills in Violations, MinClearance and Valid. MinClearance is computed
// unconditionally so callers see it even for invalid plans.
func (p *Planner) validate(traj *Trajectory) {
	k, n := traj.Positions.Dims()
	dt := p.cfg.TimeStep

	for i := 0; i < k && !traj.Violations.Limit; i++ {
		for j := 0; j < n; j++ {
			q := traj.Positions.At(i, j)
			if q < p.cfg.QMin[j] || q > p.cfg.QMax[j] {
				traj.Violations.Limit = true
				break
			}
		}
	}

	maxJump := continuityFactor * p.cfg.VMax * dt
	for i := 0; i+1 < k && !traj.Violations.Continuity; i++ {
		for j := 0; j < n; j++ {
			if math.Abs(traj.Velocities.At(i+1, j)-traj.Velocities.At(i, j)) > maxJump {
				traj.Violations.Continuity = true
				break
			}
		}
	}

	traj.Violations.Jerk = p.jerkViolation(traj)

	minClearance := math.Inf(1)
	for _, pose := range traj.Poses {
		if pose == nil {
			continue
		}
		if c := pose.Point().Z - p.cfg.TrayHeight; c < minClearance {
			minClearance = c
		}
	}
	traj.MinClearance = minClearance
	if minClearance < p.cfg.Clearance {
		traj.Violations.Clearance = true
	}

	traj.Valid = !traj.Violations.Any()
}

// jerkViolation finite-differences the acceleration sequence and flags any
// sample whose jerk magnitude exceeds jerk_ratio times the median magnitude.
func (p *Planner) jerkViolation(traj *Trajectory) bool {
	k, n := traj.Accelerations.Dims()
	if k < 2 {
		return false
	}
	jerks := make([]float64, 0, (k-1)*n)
	for i := 0; i+1 < k; i++ {
		for j := 0; j < n; j++ {
			jerk := (traj.Accelerations.At(i+1, j) - traj.Accelerations.At(i, j)) / p.cfg.TimeStep
			jerks = append(jerks, math.Abs(jerk))
		}
	}
	sort.Float64s(jerks)
	median := stat.Quantile(0.5, stat.Empirical, jerks, nil)
	if median < medianFloor {
		return false
	}
	for _, jerk := range jerks {
		if jerk > p.cfg.JerkRatio*median {
			return true
		}
	}
	return false
}
