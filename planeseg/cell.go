package planeseg

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/viam-labs/planeseg/pointcloud"
)

// Cell is a fixed-size P×P patch of the point cloud, owning a PlanarStats
// over its valid points and a boolean IsPlanar computed once at
// construction time and immutable thereafter (spec.md §3, invariant "once
// is_planar is set it is immutable for the frame").
type Cell struct {
	Row, Col int // cr, cc in the cell grid
	Index    int // Row*WCells+Col

	// Points is the cell-major view of this cell's P*P points, in
	// within-cell row-major order.
	Points []r3.Vector

	Stats    *PlanarStats
	IsPlanar bool
}

// newCell builds and validates a single cell from its P*P contiguous
// points (spec.md §4.2).
func newCell(row, col, index, patchSize int, points []r3.Vector, cfg *Config) *Cell {
	c := &Cell{Row: row, Col: col, Index: index, Points: points, Stats: &PlanarStats{}}

	validCount := 0
	for _, p := range points {
		if pointcloud.Valid(p) {
			validCount++
			c.Stats.AddPoint(p)
		}
	}

	minValid := (patchSize * patchSize) / 2
	if cfg.MinPtsPerCell > minValid {
		minValid = cfg.MinPtsPerCell
	}
	if validCount < minValid {
		return c
	}

	if hasExcessDiscontinuity(points, patchSize, patchSize/2, true, cfg) ||
		hasExcessDiscontinuity(points, patchSize, patchSize/2, false, cfg) {
		return c
	}

	if err := c.Stats.Calculate(); err != nil {
		return c
	}

	sigma := cfg.DepthSigmaCoeff*c.Stats.Mean.Z*c.Stats.Mean.Z + cfg.DepthSigmaMargin
	if c.Stats.MSE > sigma*sigma {
		return c
	}

	c.IsPlanar = true
	return c
}

// hasExcessDiscontinuity walks either the middle row (row=true) or middle
// column (row=false) of a P×P cell block and counts consecutive-sample
// absolute z-jumps exceeding cfg.DepthDiscontinuityThreshold, returning
// true if that count exceeds cfg.MaxNumberDepthDiscontinuity (spec.md
// §4.2 step 2).
func hasExcessDiscontinuity(points []r3.Vector, patchSize, mid int, row bool, cfg *Config) bool {
	jumps := 0
	var prevZ float64
	havePrev := false
	for i := 0; i < patchSize; i++ {
		var idx int
		if row {
			idx = mid*patchSize + i
		} else {
			idx = i*patchSize + mid
		}
		z := points[idx].Z
		if havePrev && math.Abs(z-prevZ) > cfg.DepthDiscontinuityThreshold {
			jumps++
		}
		prevZ = z
		havePrev = true
	}
	return jumps > cfg.MaxNumberDepthDiscontinuity
}

// CellGrid owns all Cells for one frame (spec.md §3).
type CellGrid struct {
	HCells, WCells, PatchSize int
	Cells                     []*Cell
}

// NewCellGrid builds a CellGrid from a cell-major point buffer (as produced
// by pointcloud.CellMajor).
func NewCellGrid(cellMajor []r3.Vector, hCells, wCells, patchSize int, cfg *Config) *CellGrid {
	grid := &CellGrid{HCells: hCells, WCells: wCells, PatchSize: patchSize, Cells: make([]*Cell, hCells*wCells)}
	cellSize := patchSize * patchSize
	for cr := 0; cr < hCells; cr++ {
		for cc := 0; cc < wCells; cc++ {
			idx := cr*wCells + cc
			start := idx * cellSize
			grid.Cells[idx] = newCell(cr, cc, idx, patchSize, cellMajor[start:start+cellSize], cfg)
		}
	}
	return grid
}

// At returns the cell at (row, col).
func (g *CellGrid) At(row, col int) *Cell {
	return g.Cells[row*g.WCells+col]
}

// N returns the total number of cells.
func (g *CellGrid) N() int {
	return len(g.Cells)
}

// PlanarCells returns the indices of all planar cells, in ascending order.
func (g *CellGrid) PlanarCells() []int {
	out := make([]int, 0, len(g.Cells))
	for i, c := range g.Cells {
		if c.IsPlanar {
			out = append(out, i)
		}
	}
	return out
}

// Neighbors4 returns the 4-connected neighbor indices of cell index i, in
// left, right, up, down order (spec.md §9 — this ordering must be
// preserved to reproduce tie-breaking during region growing).
func (g *CellGrid) Neighbors4(i int) []int {
	row, col := i/g.WCells, i%g.WCells
	out := make([]int, 0, 4)
	if col > 0 {
		out = append(out, i-1)
	}
	if col < g.WCells-1 {
		out = append(out, i+1)
	}
	if row > 0 {
		out = append(out, i-g.WCells)
	}
	if row < g.HCells-1 {
		out = append(out, i+g.WCells)
	}
	return out
}
