package planeseg

import (
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func flatCellPoints(patch int, z float64) []r3.Vector {
	pts := make([]r3.Vector, patch*patch)
	for r := 0; r < patch; r++ {
		for c := 0; c < patch; c++ {
			pts[r*patch+c] = r3.Vector{X: float64(c), Y: float64(r), Z: z}
		}
	}
	return pts
}

func TestNewCellPlanar(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PatchSize = 8
	pts := flatCellPoints(8, 1000)
	c := newCell(0, 0, 0, 8, pts, cfg)
	test.That(t, c.IsPlanar, test.ShouldBeTrue)
	test.That(t, c.Stats.N(), test.ShouldEqual, 64)
}

func TestNewCellTooFewValidPoints(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PatchSize = 8
	pts := flatCellPoints(8, 1000)
	for i := 0; i < 60; i++ {
		pts[i].Z = 0 // invalid
	}
	c := newCell(0, 0, 0, 8, pts, cfg)
	test.That(t, c.IsPlanar, test.ShouldBeFalse)
}

func TestNewCellDiscontinuity(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PatchSize = 8
	cfg.DepthDiscontinuityThreshold = 10
	cfg.MaxNumberDepthDiscontinuity = 1
	pts := flatCellPoints(8, 1000)
	mid := cfg.PatchSize / 2
	// inject jumps along the middle row.
	pts[mid*8+0].Z = 1000
	pts[mid*8+1].Z = 2000
	pts[mid*8+2].Z = 1000
	pts[mid*8+3].Z = 2000
	c := newCell(0, 0, 0, 8, pts, cfg)
	test.That(t, c.IsPlanar, test.ShouldBeFalse)
}

func TestCellGridNeighbors4Ordering(t *testing.T) {
	grid := &CellGrid{HCells: 3, WCells: 3, Cells: make([]*Cell, 9)}
	// center cell index 4 (row1,col1): left,right,up,down order.
	n := grid.Neighbors4(4)
	test.That(t, n, test.ShouldResemble, []int{3, 5, 1, 7})
	// corner cell index 0: only right and down.
	n0 := grid.Neighbors4(0)
	test.That(t, n0, test.ShouldResemble, []int{1, 3})
}

func TestCellGridPlanarCells(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PatchSize = 4
	cm := make([]r3.Vector, 0)
	cm = append(cm, flatCellPoints(4, 1000)...) // cell 0: planar
	noisy := flatCellPoints(4, 1000)
	for i := range noisy {
		noisy[i].Z = 0
	}
	cm = append(cm, noisy...) // cell 1: not planar (invalid points)
	grid := NewCellGrid(cm, 1, 2, 4, cfg)
	test.That(t, grid.PlanarCells(), test.ShouldResemble, []int{0})
}
