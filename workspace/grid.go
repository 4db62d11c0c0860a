package workspace

// CoverageGrid is a boolean reachability map over the tray layout, one cell
// per inspection slot. It is built once per scan and read-only afterward.
type CoverageGrid struct {
	rows, cols int
	cells      []bool
}

// NewCoverageGrid returns an all-unreachable grid of the given dimensions.
func NewCoverageGrid(rows, cols int) *CoverageGrid {
	return &CoverageGrid{rows: rows, cols: cols, cells: make([]bool, rows*cols)}
}

// Rows returns the number of grid rows.
func (g *CoverageGrid) Rows() int { return g.rows }

// Cols returns the number of grid columns.
func (g *CoverageGrid) Cols() int { return g.cols }

// At reports whether the cell at (row, col) is reachable.
func (g *CoverageGrid) At(row, col int) bool {
	return g.cells[row*g.cols+col]
}

func (g *CoverageGrid) mark(row, col int) {
	g.cells[row*g.cols+col] = true
}

// Merge ORs another grid of the same dimensions into this one. Merging is
// commutative, so parallel scan workers can each fill a local grid and
// reduce in any order.
func (g *CoverageGrid) Merge(other *CoverageGrid) {
	for i, reachable := range other.cells {
		if reachable {
			g.cells[i] = true
		}
	}
}

// Fraction returns reachable cells over total cells.
func (g *CoverageGrid) Fraction() float64 {
	reachable := 0
	for _, r := range g.cells {
		if r {
			reachable++
		}
	}
	return float64(reachable) / float64(len(g.cells))
}
