// Package workspace samples the reachable workspace of an arm: quasi-random
// joint-space draws pushed through forward kinematics, aggregated into a
// point cloud, a convex-hull volume, and a tray coverage grid.
package workspace

import (
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
	"gonum.org/v1/gonum/stat/distmv"
	"gonum.org/v1/gonum/stat/samplemv"

	"github.com/traybot/armkin/config"
)

// Sampler draws joint vectors inside the configured joint bounds. Samplers
// are deterministic for a given configuration seed: the same configuration
// always yields the same batch.
type Sampler interface {
	// Sample returns an n x dof matrix with one joint vector per row.
	Sample(n int) *mat.Dense
}

// NewSampler returns the sampling strategy the configuration asks for. The
// Halton low-discrepancy sequence is the default; uniform random draws are
// the fallback strategy.
func NewSampler(cfg config.ArmConfig) Sampler {
	if cfg.Sampler == config.SamplerUniform {
		return uniformSampler{cfg: cfg}
	}
	return haltonSampler{cfg: cfg}
}

// haltonSampler draws Owen-scrambled Halton points in the joint-bounds box.
// Low-discrepancy sequences cover the box far more evenly than uniform draws
// at the sample counts workspace scans use.
type haltonSampler struct {
	cfg config.ArmConfig
}

func (s haltonSampler) Sample(n int) *mat.Dense {
	src := rand.NewSource(s.cfg.Seed)
	batch := mat.NewDense(n, s.cfg.DOF(), nil)
	samplemv.Halton{
		Kind: samplemv.Owen,
		Q:    distmv.NewUniform(jointBounds(s.cfg), src),
		Src:  src,
	}.Sample(batch)
	return batch
}

// uniformSampler draws independent uniform joint vectors.
type uniformSampler struct {
	cfg config.ArmConfig
}

func (s uniformSampler) Sample(n int) *mat.Dense {
	src := rand.NewSource(s.cfg.Seed)
	batch := mat.NewDense(n, s.cfg.DOF(), nil)
	samplemv.IID{
		Dist: distmv.NewUniform(jointBounds(s.cfg), src),
	}.Sample(batch)
	return batch
}

func jointBounds(cfg config.ArmConfig) []r1.Interval {
	bounds := make([]r1.Interval, cfg.DOF())
	for i := range bounds {
		bounds[i] = r1.Interval{Min: cfg.QMin[i], Max: cfg.QMax[i]}
	}
	return bounds
}
