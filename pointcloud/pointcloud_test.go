package pointcloud

import (
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func TestNewOrganizedDimensionMismatch(t *testing.T) {
	_, err := NewOrganized(4, 4, make([]r3.Vector, 10))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "dimension mismatch")
}

func TestNewOrganizedAt(t *testing.T) {
	h, w := 2, 3
	pts := make([]r3.Vector, h*w)
	for r := 0; r < h; r++ {
		for c := 0; c < w; c++ {
			pts[r*w+c] = r3.Vector{X: float64(c), Y: float64(r), Z: 1000}
		}
	}
	oc, err := NewOrganized(h, w, pts)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, oc.At(1, 2), test.ShouldResemble, r3.Vector{X: 2, Y: 1, Z: 1000})
}

func TestValid(t *testing.T) {
	test.That(t, Valid(r3.Vector{Z: 1000}), test.ShouldBeTrue)
	test.That(t, Valid(r3.Vector{Z: 0}), test.ShouldBeFalse)
	test.That(t, Valid(r3.Vector{Z: -1}), test.ShouldBeFalse)
}

func TestCellMajor(t *testing.T) {
	// 4x4 grid, patch size 2: cell (0,0) covers rows/cols [0,1], cell (0,1) covers cols [2,3].
	h, w, p := 4, 4, 2
	pts := make([]r3.Vector, h*w)
	for r := 0; r < h; r++ {
		for c := 0; c < w; c++ {
			pts[r*w+c] = r3.Vector{X: float64(c), Y: float64(r), Z: 1}
		}
	}
	oc, err := NewOrganized(h, w, pts)
	test.That(t, err, test.ShouldBeNil)

	cm, hCells, wCells := CellMajor(oc, p)
	test.That(t, hCells, test.ShouldEqual, 2)
	test.That(t, wCells, test.ShouldEqual, 2)
	test.That(t, len(cm), test.ShouldEqual, hCells*wCells*p*p)

	// first cell (0,0) should be points (0,0),(1,0),(0,1),(1,1) in row-major within-cell order.
	test.That(t, cm[0], test.ShouldResemble, r3.Vector{X: 0, Y: 0, Z: 1})
	test.That(t, cm[1], test.ShouldResemble, r3.Vector{X: 1, Y: 0, Z: 1})
	test.That(t, cm[2], test.ShouldResemble, r3.Vector{X: 0, Y: 1, Z: 1})
	test.That(t, cm[3], test.ShouldResemble, r3.Vector{X: 1, Y: 1, Z: 1})
}

func TestCellMajorIndicesMatchesCellMajor(t *testing.T) {
	h, w, p := 4, 4, 2
	pts := make([]r3.Vector, h*w)
	for r := 0; r < h; r++ {
		for c := 0; c < w; c++ {
			pts[r*w+c] = r3.Vector{X: float64(c), Y: float64(r), Z: 1}
		}
	}
	oc, err := NewOrganized(h, w, pts)
	test.That(t, err, test.ShouldBeNil)

	cm, hCells, wCells := CellMajor(oc, p)
	idx, idxHCells, idxWCells := CellMajorIndices(h, w, p)
	test.That(t, idxHCells, test.ShouldEqual, hCells)
	test.That(t, idxWCells, test.ShouldEqual, wCells)
	test.That(t, len(idx), test.ShouldEqual, len(cm))
	for i, orig := range idx {
		test.That(t, cm[i], test.ShouldResemble, oc.Points[orig])
	}
}

func TestCellMajorDropsMargin(t *testing.T) {
	h, w, p := 5, 5, 2 // margins: last row & col dropped
	pts := make([]r3.Vector, h*w)
	for i := range pts {
		pts[i] = r3.Vector{Z: 1}
	}
	oc, err := NewOrganized(h, w, pts)
	test.That(t, err, test.ShouldBeNil)
	_, hCells, wCells := CellMajor(oc, p)
	test.That(t, hCells, test.ShouldEqual, 2)
	test.That(t, wCells, test.ShouldEqual, 2)
}
