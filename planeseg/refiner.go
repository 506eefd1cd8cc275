package planeseg

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/viam-labs/planeseg/pointcloud"
)

// Refiner sharpens plane boundaries below cell granularity by morphological
// erosion/dilation of each plane's cell mask, then resolving the boundary
// ring pixel-by-pixel against whichever competing plane's fitted model
// fits best (spec.md §4.6-§4.7).
type Refiner struct{}

// Refine takes a cell-major points buffer (as produced by
// pointcloud.CellMajor), the cell grid, and the merged plane list (each
// plane's mask comes from its Cells), and returns a cell-major pixel label
// array plus the surviving (possibly renumbered) plane list. A plane whose
// eroded cell mask is entirely empty is dropped: that is any plane with no
// cell off the grid border whose four axis-aligned neighbors all belong to
// it (a two-cell-wide strip, for example).
func (Refiner) Refine(cellMajorPoints []r3.Vector, grid *CellGrid, segments []*PlaneSegment, cfg *Config) ([]int32, []*PlaneSegment) {
	hCells, wCells, patch := grid.HCells, grid.WCells, grid.PatchSize
	nCells := hCells * wCells
	cellArea := patch * patch
	total := nCells * cellArea

	type survivor struct {
		seg    *PlaneSegment
		eroded []bool
		diff   []bool // dilated &^ eroded: the competitive boundary ring
	}

	var survivors []survivor
	for _, seg := range segments {
		mask := make([]bool, nCells)
		for _, c := range seg.Cells {
			mask[c] = true
		}
		eroded := erodeCross(mask, hCells, wCells)
		if !anyTrue(eroded) {
			continue
		}
		dilated := dilateSquare(mask, hCells, wCells)
		diff := make([]bool, nCells)
		for i := range diff {
			diff[i] = dilated[i] && !eroded[i]
		}
		survivors = append(survivors, survivor{seg: seg, eroded: eroded, diff: diff})
	}

	kept := make([]*PlaneSegment, len(survivors))
	for i, sv := range survivors {
		kept[i] = &PlaneSegment{ID: i + 1, Stats: sv.seg.Stats, Cells: sv.seg.Cells}
	}

	pixelLabels := make([]int32, total)
	isCore := make([]bool, total)
	for i, sv := range survivors {
		newID := int32(i + 1)
		for cellIdx, in := range sv.eroded {
			if !in {
				continue
			}
			base := cellIdx * cellArea
			for off := 0; off < cellArea; off++ {
				pixelLabels[base+off] = newID
				isCore[base+off] = true
			}
		}
	}

	bestDist := make([]float64, total)
	for i := range bestDist {
		bestDist[i] = math.Inf(1)
	}
	for i, sv := range survivors {
		newID := int32(i + 1)
		maxDist := cfg.RefinementMultiplierCoeff * sv.seg.Stats.MSE
		for cellIdx, inRing := range sv.diff {
			if !inRing {
				continue
			}
			base := cellIdx * cellArea
			for off := 0; off < cellArea; off++ {
				pixelIdx := base + off
				if isCore[pixelIdx] {
					continue
				}
				p := cellMajorPoints[pixelIdx]
				if !pointcloud.Valid(p) {
					continue
				}
				d := sv.seg.Stats.SignedDistance(p)
				sq := d * d
				if sq <= maxDist && sq < bestDist[pixelIdx] {
					bestDist[pixelIdx] = sq
					pixelLabels[pixelIdx] = newID
				}
			}
		}
	}

	return pixelLabels, kept
}

func anyTrue(mask []bool) bool {
	for _, v := range mask {
		if v {
			return true
		}
	}
	return false
}

// erodeCross applies a 3x3 cross (4-neighbor) erosion: a cell survives only
// if it and all 4 of its axis-aligned neighbors are set. Cells outside the
// grid are treated as unset, so the grid border always erodes away.
func erodeCross(mask []bool, hCells, wCells int) []bool {
	out := make([]bool, len(mask))
	for r := 0; r < hCells; r++ {
		for c := 0; c < wCells; c++ {
			i := r*wCells + c
			if !mask[i] {
				continue
			}
			if r == 0 || r == hCells-1 || c == 0 || c == wCells-1 {
				continue
			}
			if mask[i-1] && mask[i+1] && mask[i-wCells] && mask[i+wCells] {
				out[i] = true
			}
		}
	}
	return out
}

// dilateSquare applies a 3x3 all-ones dilation: a cell is set if any of its
// 8 neighbors (or itself) is set.
func dilateSquare(mask []bool, hCells, wCells int) []bool {
	out := make([]bool, len(mask))
	for r := 0; r < hCells; r++ {
		for c := 0; c < wCells; c++ {
			for dr := -1; dr <= 1; dr++ {
				nr := r + dr
				if nr < 0 || nr >= hCells {
					continue
				}
				for dc := -1; dc <= 1; dc++ {
					nc := c + dc
					if nc < 0 || nc >= wCells {
						continue
					}
					if mask[nr*wCells+nc] {
						out[r*wCells+c] = true
					}
				}
			}
		}
	}
	return out
}
