package planeseg

import (
	"math"

	"github.com/golang/geo/r3"
)

// Histogram is a 2D histogram over the unit sphere of planar-cell normals,
// binned by polar angle (theta) and azimuth (phi) (spec.md §4.3).
type Histogram struct {
	B    int
	Hist []int
	Bins []int // Bins[cellIndex] == -1 iff that cell is not currently binned
}

// NewHistogram builds a histogram over every planar cell in grid.
func NewHistogram(cfg *Config, grid *CellGrid) *Histogram {
	h := &Histogram{
		B:    cfg.HistogramBinsPerCoord,
		Hist: make([]int, cfg.HistogramBinsPerCoord*cfg.HistogramBinsPerCoord),
		Bins: make([]int, grid.N()),
	}
	for i := range h.Bins {
		h.Bins[i] = -1
	}
	for _, idx := range grid.PlanarCells() {
		h.insert(idx, grid.Cells[idx].Stats.Normal)
	}
	return h
}

func (h *Histogram) insert(cellIndex int, normal r3.Vector) {
	bin := h.binIndex(normal)
	h.Hist[bin]++
	h.Bins[cellIndex] = bin
}

// binIndex quantizes a normal into a (theta, phi) bin id (spec.md §4.3).
func (h *Histogram) binIndex(normal r3.Vector) int {
	theta := math.Acos(clamp(-normal.Z, -1, 1))
	thetaQ := quantize(theta, 0, math.Pi, h.B)

	var phiQ int
	if thetaQ == 0 {
		// normal points nearly straight down: azimuth is noise near the pole.
		phiQ = 0
	} else {
		phi := math.Atan2(normal.X, normal.Y)
		phiQ = quantize(phi, -math.Pi, math.Pi, h.B)
	}
	return h.B*phiQ + thetaQ
}

func quantize(value, min, max float64, bins int) int {
	q := int(math.Floor(float64(bins-1) * (value - min) / (max - min)))
	if q < 0 {
		q = 0
	}
	if q > bins-1 {
		q = bins - 1
	}
	return q
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// MostFrequentBinMembers returns the cell indices whose Bins entry equals
// the most populous bin, ascending. It returns nil once the histogram is
// empty (spec.md §4.3, §4.4 step 1).
func (h *Histogram) MostFrequentBinMembers() []int {
	maxBin, maxCount := 0, 0
	for b, count := range h.Hist {
		if count > maxCount {
			maxCount = count
			maxBin = b
		}
	}
	if maxCount == 0 {
		return nil
	}
	members := make([]int, 0, maxCount)
	for i, b := range h.Bins {
		if b == maxBin {
			members = append(members, i)
		}
	}
	return members
}

// Remove decrements the count for cellIndex's bin and marks it unbinned
// (spec.md §4.3).
func (h *Histogram) Remove(cellIndex int) {
	bin := h.Bins[cellIndex]
	if bin < 0 {
		return
	}
	h.Hist[bin]--
	h.Bins[cellIndex] = -1
}
