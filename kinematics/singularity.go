package kinematics

import "github.com/traybot/armkin/config"

// SingularityReport classifies how close a configuration is to a kinematic
// singularity.
type SingularityReport struct {
	GramDeterminant float64
	ConditionNumber float64
	Manipulability  float64
	IsSingular      bool
}

// AnalyzeSingularity derives the singularity metrics at a joint vector. A
// configuration is flagged singular when the Jacobian condition number
// exceeds the configured threshold or manipulability drops below its floor.
func AnalyzeSingularity(joints []float64, cfg config.ArmConfig) (*SingularityReport, error) {
	jr, err := ComputeJacobian(joints, cfg)
	if err != nil {
		return nil, err
	}
	return &SingularityReport{
		GramDeterminant: jr.GramDeterminant,
		ConditionNumber: jr.ConditionNumber,
		Manipulability:  jr.Manipulability,
		IsSingular:      jr.ConditionNumber > cfg.CondThreshold || jr.Manipulability < cfg.ManipThreshold,
	}, nil
}
