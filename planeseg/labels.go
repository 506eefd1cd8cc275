package planeseg

import "github.com/viam-labs/planeseg/pointcloud"

// LabelWriter scatters a cell-major result back into the original,
// row-major (Height, Width) pixel shape (spec.md §4.8). It holds no state.
type LabelWriter struct{}

// WriteRefined places a cell-major, per-pixel label array (as produced by
// Refiner.Refine) back into the original image shape. Pixels dropped by
// CellMajor's margin, and pixels the refinement pass left unlabeled, read 0.
func (LabelWriter) WriteRefined(height, width, patch int, cellMajorPixelLabels []int32) []int32 {
	origIdx, _, _ := pointcloud.CellMajorIndices(height, width, patch)
	out := make([]int32, height*width)
	for pos, orig := range origIdx {
		out[orig] = cellMajorPixelLabels[pos]
	}
	return out
}

// WriteCellLabels expands a per-cell label array (0 meaning no plane) into
// the original pixel shape, stamping every pixel in a cell with that cell's
// label. Used when refinement is disabled (spec.md §4.8).
func (LabelWriter) WriteCellLabels(height, width, patch int, cellLabels []int) []int32 {
	origIdx, hCells, wCells := pointcloud.CellMajorIndices(height, width, patch)
	cellArea := patch * patch
	out := make([]int32, height*width)
	for cellIdx := 0; cellIdx < hCells*wCells; cellIdx++ {
		label := int32(cellLabels[cellIdx])
		base := cellIdx * cellArea
		for off := 0; off < cellArea; off++ {
			out[origIdx[base+off]] = label
		}
	}
	return out
}
