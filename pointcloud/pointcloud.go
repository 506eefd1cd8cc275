// Package pointcloud defines the organized point cloud input type consumed
// by the planeseg pipeline: a dense, image-ordered array of 3D points with
// exactly one point per pixel.
package pointcloud

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// Organized is a dense 2D array of 3D points laid out in row-major pixel
// order: row r, column c lives at index r*Width+c. It is the external
// interface boundary described in spec.md §6 ("Input tensor"): depth-image
// loading and unprojection into this shape are the caller's responsibility.
type Organized struct {
	Width, Height int
	Points        []r3.Vector
}

// NewOrganized validates and wraps a flat row-major (Height*Width, 3) point
// array. points must have exactly Height*Width entries; that invariant is
// the caller's DimensionMismatch boundary check (spec.md §7), mirrored here
// so this type can never be constructed inconsistently.
func NewOrganized(height, width int, points []r3.Vector) (*Organized, error) {
	want := height * width
	if len(points) != want {
		return nil, errors.Errorf("organized point cloud dimension mismatch: got %d points, want %d (%dx%d)",
			len(points), want, height, width)
	}
	return &Organized{Width: width, Height: height, Points: points}, nil
}

// At returns the point at pixel (row, col).
func (o *Organized) At(row, col int) r3.Vector {
	return o.Points[row*o.Width+col]
}

// Valid reports whether a point has a finite, positive depth. Organized
// depth clouds represent "no return" pixels with z<=0 or NaN/Inf.
func Valid(p r3.Vector) bool {
	z := p.Z
	return z > 0 && !isNaNOrInf(z)
}

func isNaNOrInf(f float64) bool {
	return f != f || f > maxFinite || f < -maxFinite
}

const maxFinite = 1.7976931348623157e+308

// CellMajor re-lays the organized cloud into cell-major order: all P*P
// points of cell (cr, cc) become contiguous, enabling per-cell block access
// (spec.md §3). Margins (Height%P, Width%P) are dropped; HCells and WCells
// are floor divisions.
func CellMajor(o *Organized, patchSize int) (cellMajor []r3.Vector, hCells, wCells int) {
	hCells = o.Height / patchSize
	wCells = o.Width / patchSize
	cellMajor = make([]r3.Vector, hCells*wCells*patchSize*patchSize)
	idx := 0
	for cr := 0; cr < hCells; cr++ {
		for cc := 0; cc < wCells; cc++ {
			baseRow := cr * patchSize
			baseCol := cc * patchSize
			for pr := 0; pr < patchSize; pr++ {
				rowStart := (baseRow+pr)*o.Width + baseCol
				copy(cellMajor[idx:idx+patchSize], o.Points[rowStart:rowStart+patchSize])
				idx += patchSize
			}
		}
	}
	return cellMajor, hCells, wCells
}

// CellMajorIndices returns, for each cell-major slot, the original flat
// row-major index (row*width+col) it was copied from by CellMajor. Callers
// that compute a cell-major result (e.g. per-pixel plane labels) use this to
// scatter that result back into the original image shape.
func CellMajorIndices(height, width, patchSize int) (origIdx []int, hCells, wCells int) {
	hCells = height / patchSize
	wCells = width / patchSize
	origIdx = make([]int, hCells*wCells*patchSize*patchSize)
	idx := 0
	for cr := 0; cr < hCells; cr++ {
		for cc := 0; cc < wCells; cc++ {
			baseRow := cr * patchSize
			baseCol := cc * patchSize
			for pr := 0; pr < patchSize; pr++ {
				rowStart := (baseRow+pr)*width + baseCol
				for pc := 0; pc < patchSize; pc++ {
					origIdx[idx] = rowStart + pc
					idx++
				}
			}
		}
	}
	return origIdx, hCells, wCells
}
