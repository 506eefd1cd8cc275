package planeseg

import (
	"math"

	"github.com/viam-labs/planeseg/planeseg/internal/bitvec"
)

// PlaneSegment is a merged PlanarStats over a 4-connected set of cells
// (spec.md §4.4). ID is the 1-based plane id stamped into the cell-label
// grid; Cells holds the member cell indices in activation order.
type PlaneSegment struct {
	ID    int
	Stats *PlanarStats
	Cells []int
}

// RegionGrower consumes a CellGrid and Histogram and produces the list of
// PlaneSegments plus a cell-index -> plane-id label grid (spec.md §4.4).
// It holds no state across calls to Grow.
type RegionGrower struct{}

// Grow runs the histogram-seeded, 4-connected region growing loop until
// the histogram is exhausted or candidate bins fall below
// cfg.MinRegionGrowingCandidateSize. cellLabels has one entry per cell in
// grid, 0 meaning "no plane".
func (RegionGrower) Grow(grid *CellGrid, hist *Histogram, cfg *Config) ([]*PlaneSegment, []int, error) {
	tol, err := growTolerances(grid, cfg)
	if err != nil {
		return nil, nil, err
	}

	unassigned := bitvec.New(grid.N())
	for _, idx := range grid.PlanarCells() {
		unassigned.Set(idx)
	}

	cellLabels := make([]int, grid.N())
	var segments []*PlaneSegment

	for {
		candidates := hist.MostFrequentBinMembers()
		if len(candidates) < cfg.MinRegionGrowingCandidateSize {
			break
		}

		seed := candidates[0]
		for _, c := range candidates[1:] {
			if grid.Cells[c].Stats.MSE < grid.Cells[seed].Stats.MSE {
				seed = c
			}
		}

		activation, err := growFrom(grid, unassigned, seed, tol, cfg)
		if err != nil {
			return nil, nil, err
		}

		segStats := &PlanarStats{}
		for _, idx := range activation {
			segStats.Merge(grid.Cells[idx].Stats)
			hist.Remove(idx)
			unassigned.Clear(idx)
		}

		if len(activation) < cfg.MinRegionGrowingCellsActivated {
			continue
		}
		if err := segStats.Calculate(); err != nil {
			continue
		}
		if segStats.Score <= cfg.MinRegionPlanarityScore {
			continue
		}

		id := len(segments) + 1
		segments = append(segments, &PlaneSegment{ID: id, Stats: segStats, Cells: activation})
		for _, idx := range activation {
			cellLabels[idx] = id
		}
	}

	return segments, cellLabels, nil
}

// growTolerances computes the per-cell squared-distance tolerance used
// during growth (spec.md §4.4 step 3), once up front for every planar
// cell. The clamp bounds (minMergeDist, cfg.MaxMergeDist) are applied to
// the linear diameter*sin(angle) quantity before squaring, exactly as the
// source does — MaxMergeDist is documented elsewhere as a squared-distance
// threshold (spec.md §9), so this constant does double duty across two
// unit conventions; that mismatch is preserved intentionally; see
// spec.md's Design Notes on the asymmetric, order-dependent merger for the
// same pattern.
func growTolerances(grid *CellGrid, cfg *Config) ([]float64, error) {
	angleForMerge := math.Acos(clamp(cfg.MinCosAngleForMerge, -1, 1))
	tol := make([]float64, grid.N())
	for _, idx := range grid.PlanarCells() {
		if idx < 0 || idx >= grid.N() {
			return nil, &IndexOutOfRangeError{Index: idx, Bound: grid.N()}
		}
		pts := grid.Cells[idx].Points
		if len(pts) == 0 {
			continue
		}
		diameter := pts[len(pts)-1].Sub(pts[0]).Norm()
		d := diameter * math.Sin(angleForMerge)
		d = clamp(d, minMergeDist, cfg.MaxMergeDist)
		tol[idx] = d * d
	}
	return tol, nil
}

// growFrom performs the iterative (non-recursive) 4-connected flood fill
// from seed, using an explicit stack of call frames to reproduce exactly
// the traversal order of a recursive flood fill: a cell's neighbors are
// fully explored, depth-first, before its sibling neighbors are visited
// (spec.md §4.4 step 4, §9). The parent used for each compatibility test is
// always the specific cell being expanded, not the original seed — the
// fitted plane drifts as the region grows.
func growFrom(grid *CellGrid, unassigned *bitvec.Vec, seed int, tol []float64, cfg *Config) ([]int, error) {
	if seed < 0 || seed >= grid.N() {
		return nil, &IndexOutOfRangeError{Index: seed, Bound: grid.N()}
	}

	visited := bitvec.New(grid.N())
	visited.Set(seed)
	activation := []int{seed}

	type frame struct {
		cell      int
		neighbors []int
		next      int
	}
	stack := []frame{{cell: seed, neighbors: grid.Neighbors4(seed)}}

	for len(stack) > 0 {
		top := len(stack) - 1
		if stack[top].next >= len(stack[top].neighbors) {
			stack = stack[:top]
			continue
		}
		nb := stack[top].neighbors[stack[top].next]
		stack[top].next++

		if nb < 0 || nb >= grid.N() {
			return nil, &IndexOutOfRangeError{Index: nb, Bound: grid.N()}
		}
		if visited.Get(nb) || !unassigned.Get(nb) {
			continue
		}

		parent := grid.Cells[stack[top].cell].Stats
		child := grid.Cells[nb].Stats
		if !growCompatible(parent, child, tol[nb], cfg) {
			continue
		}

		visited.Set(nb)
		activation = append(activation, nb)
		stack = append(stack, frame{cell: nb, neighbors: grid.Neighbors4(nb)})
	}

	return activation, nil
}

// growCompatible is the compatibility test of spec.md §4.4 step 4: the
// candidate's normal must be within the configured angle of the parent's,
// and the parent plane's signed distance to the candidate's mean must fall
// within the candidate's tolerance.
func growCompatible(parent, child *PlanarStats, tolSq float64, cfg *Config) bool {
	if parent.Normal.Dot(child.Normal) < cfg.MinCosAngleForMerge {
		return false
	}
	d := parent.Normal.Dot(child.Mean) + parent.Offset
	return d*d <= tolSq
}
