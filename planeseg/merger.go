package planeseg

// PlaneMerger merges adjacent, compatible PlaneSegments produced by
// RegionGrower (spec.md §4.5). Adjacency is derived from the cell-label
// grid's right/down neighbors. The merge pass itself is row-major and
// single-level, not a fixpoint union-find: row i is always tested using
// plane i's merge target (one redirect lookup, never chased further), and
// every comparison against column j reads j's own raw, never-redirected
// stats, even after j has already been folded into an earlier plane by an
// earlier row. A pair that fails the compatibility test has only its (i,j)
// bit cleared; the reverse (j,i) direction is left untouched, and since row
// j only scans columns after j, that pair is never retried.
//
// This is load-bearing, not an oversight (spec.md §9): for three mutually
// adjacent, pairwise-compatible segments i<j<l, row i folds both j and l
// into i and recomputes once; row j (now redirected to i) then re-tests its
// own (j,l) adjacency bit against i's updated stats and l's still-raw
// stats, folding l's raw contribution into i a second time. Reproducing
// this double-count on such inputs is required for output parity with the
// reference algorithm; "fixing" it with a chasing union-find changes the
// merged Mean/Normal/MSE and therefore every downstream residual and pixel
// label.
type PlaneMerger struct{}

// Merge returns the merged segment list and a remapped cell-label grid.
// segments and cellLabels are the outputs of RegionGrower.Grow: cellLabels
// entries are 1-based plane ids into segments, 0 meaning unlabeled.
func (PlaneMerger) Merge(grid *CellGrid, segments []*PlaneSegment, cellLabels []int, cfg *Config) ([]*PlaneSegment, []int) {
	k := len(segments)
	if k == 0 {
		return nil, cellLabels
	}

	assoc := buildAdjacency(grid, cellLabels, k)

	mergeLabels := make([]int, k) // single-level redirect, indexed by plane id - 1
	for i := range mergeLabels {
		mergeLabels[i] = i
	}

	for row := 0; row < k; row++ {
		planeID := mergeLabels[row]
		expanded := false
		for col := row + 1; col < k; col++ {
			if !assoc[row][col] {
				continue
			}
			if mergeCompatible(segments[planeID].Stats, segments[col].Stats, cfg) {
				segments[planeID].Stats.Merge(segments[col].Stats)
				mergeLabels[col] = planeID
				expanded = true
			} else {
				assoc[row][col] = false
			}
		}
		if expanded {
			// merged stats may fail to factorize only if degenerate
			// (n<3), which cannot happen once two real segments
			// combine; ignore the error path here.
			_ = segments[planeID].Stats.Calculate()
		}
	}

	newID := make([]int, k) // self-rooted index -> 1-based output plane id
	var merged []*PlaneSegment
	for i := 0; i < k; i++ {
		if mergeLabels[i] != i {
			continue
		}
		id := len(merged) + 1
		newID[i] = id
		merged = append(merged, &PlaneSegment{ID: id, Stats: segments[i].Stats})
	}
	for i := 0; i < k; i++ {
		id := newID[mergeLabels[i]]
		merged[id-1].Cells = append(merged[id-1].Cells, segments[i].Cells...)
	}

	outLabels := make([]int, len(cellLabels))
	for idx, l := range cellLabels {
		if l == 0 {
			continue
		}
		outLabels[idx] = newID[mergeLabels[l-1]]
	}

	return merged, outLabels
}

// buildAdjacency scans the cell-label grid's right and down neighbors to
// find which planes touch, then symmetrizes the result (spec.md §4.5 step
// 1-2): the raw scan only ever records (a,b) in the direction the scan
// happened to visit them, so both directions must be set before the merge
// pass can treat adjacency as undirected.
func buildAdjacency(grid *CellGrid, cellLabels []int, k int) [][]bool {
	assoc := make([][]bool, k)
	for i := range assoc {
		assoc[i] = make([]bool, k)
	}
	for row := 0; row < grid.HCells; row++ {
		for col := 0; col < grid.WCells; col++ {
			idx := row*grid.WCells + col
			a := cellLabels[idx]
			if a == 0 {
				continue
			}
			if col+1 < grid.WCells {
				if b := cellLabels[idx+1]; b != 0 && b != a {
					assoc[a-1][b-1] = true
				}
			}
			if row+1 < grid.HCells {
				if b := cellLabels[idx+grid.WCells]; b != 0 && b != a {
					assoc[a-1][b-1] = true
				}
			}
		}
	}
	for i := 0; i < k; i++ {
		for j := 0; j < k; j++ {
			if assoc[i][j] || assoc[j][i] {
				assoc[i][j] = true
				assoc[j][i] = true
			}
		}
	}
	return assoc
}

// mergeCompatible is the plane-plane compatibility test of spec.md §4.5
// step 3. Unlike RegionGrower's per-cell tolerance, the merger tests
// against the flat cfg.MaxMergeDist threshold directly, since it is
// documented as a squared-distance constant everywhere except the
// region-growing tolerance clamp (see grower.go's growTolerances).
func mergeCompatible(a, b *PlanarStats, cfg *Config) bool {
	if a.Normal.Dot(b.Normal) <= cfg.MinCosAngleForMerge {
		return false
	}
	d := a.Normal.Dot(b.Mean) + a.Offset
	return d*d < cfg.MaxMergeDist
}
