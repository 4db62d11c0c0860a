package workspace

import (
	"context"
	"math"
	"runtime"
	"sync"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	goutils "go.viam.com/utils"
	"gonum.org/v1/gonum/mat"

	"github.com/traybot/armkin/config"
	"github.com/traybot/armkin/kinematics"
)

// Points within this distance of the tray height count toward cell coverage.
const coverageZBand = 0.05

// ScanResult aggregates one workspace scan.
type ScanResult struct {
	// Points holds the reachable end-effector positions in sample order.
	Points []r3.Vector
	// HullVolume is the convex-hull volume of Points; zero for degenerate
	// clouds.
	HullVolume float64
	Grid       *CoverageGrid
	// Coverage is reachable tray cells over total cells.
	Coverage  float64
	Attempted int
	Reachable int
}

// Scanner samples joint space and aggregates the reachable workspace.
// Samples are independent, so forward kinematics runs fan out across
// workers; all reductions (point compaction, grid OR-merge) are order-free.
type Scanner struct {
	cfg      config.ArmConfig
	sampler  Sampler
	logger   golog.Logger
	nWorkers int
}

// NewScanner validates the configuration and returns a scanner using the
// configured sampling strategy.
func NewScanner(cfg config.ArmConfig, logger golog.Logger) (*Scanner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid arm config")
	}
	return &Scanner{
		cfg:      cfg,
		sampler:  NewSampler(cfg),
		logger:   logger,
		nWorkers: runtime.NumCPU(),
	}, nil
}

// Scan draws sampleCount joint vectors (the configured count when
// sampleCount <= 0), runs forward kinematics on each, and aggregates the
// reachable positions. Samples whose forward pass is invalid or non-finite
// are discarded from every aggregate rather than failing the scan.
func (s *Scanner) Scan(ctx context.Context, sampleCount int) (*ScanResult, error) {
	if sampleCount <= 0 {
		sampleCount = s.cfg.SampleCount
	}
	batch := s.sampler.Sample(sampleCount)

	// Workers write disjoint index ranges, so the only shared state is the
	// error accumulator.
	points := make([]r3.Vector, sampleCount)
	reachable := make([]bool, sampleCount)
	grids := make([]*CoverageGrid, s.nWorkers)

	var wg sync.WaitGroup
	var errMu sync.Mutex
	var scanErr error
	chunk := (sampleCount + s.nWorkers - 1) / s.nWorkers
	for w := 0; w < s.nWorkers; w++ {
		worker := w
		lo := worker * chunk
		hi := lo + chunk
		if hi > sampleCount {
			hi = sampleCount
		}
		grids[worker] = NewCoverageGrid(s.cfg.TrayRows, s.cfg.TrayCols)
		if lo >= hi {
			continue
		}
		wg.Add(1)
		goutils.PanicCapturingGo(func() {
			defer wg.Done()
			if err := s.scanRange(ctx, batch, lo, hi, points, reachable, grids[worker]); err != nil {
				errMu.Lock()
				scanErr = multierr.Combine(scanErr, err)
				errMu.Unlock()
			}
		})
	}
	wg.Wait()
	if scanErr != nil {
		return nil, scanErr
	}

	res := &ScanResult{Attempted: sampleCount, Grid: NewCoverageGrid(s.cfg.TrayRows, s.cfg.TrayCols)}
	for i := 0; i < sampleCount; i++ {
		if reachable[i] {
			res.Points = append(res.Points, points[i])
		}
	}
	res.Reachable = len(res.Points)
	for _, g := range grids {
		res.Grid.Merge(g)
	}
	res.Coverage = res.Grid.Fraction()
	res.HullVolume = HullVolume(res.Points)

	s.logger.Infow("workspace scan complete",
		"attempted", res.Attempted,
		"reachable", res.Reachable,
		"coverage", res.Coverage,
		"hullVolume", res.HullVolume)
	return res, nil
}

func (s *Scanner) scanRange(
	ctx context.Context,
	batch *mat.Dense,
	lo, hi int,
	points []r3.Vector,
	reachable []bool,
	grid *CoverageGrid,
) error {
	for i := lo; i < hi; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		fwd, err := kinematics.ComputeForward(batch.RawRowView(i), s.cfg)
		if err != nil {
			if errors.Is(err, kinematics.ErrNonFiniteResult) {
				s.logger.Debugw("discarding non-finite workspace sample", "sample", i)
				continue
			}
			return err
		}
		if !fwd.Valid {
			continue
		}
		pt := fwd.EndEffector.Point()
		points[i] = pt
		reachable[i] = true
		s.markCoverage(grid, pt)
	}
	return nil
}

// markCoverage marks every tray cell whose nominal center lies within the
// clearance radius of the point, provided the point sits in the z band
// around the tray height.
func (s *Scanner) markCoverage(grid *CoverageGrid, pt r3.Vector) {
	if math.Abs(pt.Z-s.cfg.TrayHeight) > coverageZBand {
		return
	}
	for row := 0; row < s.cfg.TrayRows; row++ {
		cy := s.cfg.TrayOffsetY + float64(row)*s.cfg.TraySpacing
		for col := 0; col < s.cfg.TrayCols; col++ {
			cx := s.cfg.TrayOffsetX + float64(col)*s.cfg.TraySpacing
			dx, dy := pt.X-cx, pt.Y-cy
			if dx*dx+dy*dy <= s.cfg.CellRadius*s.cfg.CellRadius {
				grid.mark(row, col)
			}
		}
	}
}
