package planeseg

import (
	"testing"

	"go.viam.com/test"
)

func TestLabelWriterWriteRefined(t *testing.T) {
	// 4x4 image, patch 2 -> 2x2 cells, no margin.
	h, w, p := 4, 4, 2
	cellMajor := make([]int32, 4*4) // hCells*wCells*patch*patch
	for i := range cellMajor {
		cellMajor[i] = int32(i / 4) // cell 0 -> all 0s, cell1->1, etc (not realistic but traceable)
	}
	out := LabelWriter{}.WriteRefined(h, w, p, cellMajor)
	test.That(t, len(out), test.ShouldEqual, h*w)
	// cell (0,0) covers pixels (0,0),(0,1),(1,0),(1,1) -> label 0.
	test.That(t, out[0*w+0], test.ShouldEqual, int32(0))
	test.That(t, out[1*w+1], test.ShouldEqual, int32(0))
	// cell (0,1) covers pixels (0,2),(0,3),(1,2),(1,3) -> label 1.
	test.That(t, out[0*w+2], test.ShouldEqual, int32(1))
}

func TestLabelWriterWriteCellLabels(t *testing.T) {
	h, w, p := 4, 4, 2
	cellLabels := []int{5, 6, 7, 8} // 2x2 cell grid, row-major
	out := LabelWriter{}.WriteCellLabels(h, w, p, cellLabels)
	test.That(t, len(out), test.ShouldEqual, h*w)
	// entire top-left cell block is label 5.
	test.That(t, out[0*w+0], test.ShouldEqual, int32(5))
	test.That(t, out[0*w+1], test.ShouldEqual, int32(5))
	test.That(t, out[1*w+0], test.ShouldEqual, int32(5))
	test.That(t, out[1*w+1], test.ShouldEqual, int32(5))
	// top-right cell block is label 6.
	test.That(t, out[0*w+2], test.ShouldEqual, int32(6))
	// bottom-left cell block is label 7.
	test.That(t, out[2*w+0], test.ShouldEqual, int32(7))
	// bottom-right cell block is label 8.
	test.That(t, out[3*w+3], test.ShouldEqual, int32(8))
}

func TestLabelWriterDropsMargin(t *testing.T) {
	h, w, p := 5, 5, 2 // margin row/col dropped
	cellLabels := []int{1, 1, 1, 1}
	out := LabelWriter{}.WriteCellLabels(h, w, p, cellLabels)
	// last row and column were never covered by any cell, so they stay 0.
	for c := 0; c < w; c++ {
		test.That(t, out[4*w+c], test.ShouldEqual, int32(0))
	}
	for r := 0; r < h; r++ {
		test.That(t, out[r*w+4], test.ShouldEqual, int32(0))
	}
}
