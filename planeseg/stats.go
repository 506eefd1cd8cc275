package planeseg

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
)

// PlanarStats is an incremental accumulator over a set of 3D points: first
// and second moments, a fitted plane normal/offset, planarity score, and
// mean-squared fit error (spec.md §3, §4.1). Points are folded in via
// AddPoint or Merge; Calculate derives the plane model from the current
// sums and must be called again after further accumulation.
type PlanarStats struct {
	n                            int
	sx, sy, sz                   float64
	sxx, syy, szz, sxy, sxz, syz float64

	Mean   r3.Vector
	Normal r3.Vector
	Offset float64
	MSE    float64
	Score  float64
}

// N returns the number of points folded into the accumulator so far.
func (s *PlanarStats) N() int { return s.n }

// AddPoint folds a single point's contribution into the running sums.
func (s *PlanarStats) AddPoint(p r3.Vector) {
	s.n++
	s.sx += p.X
	s.sy += p.Y
	s.sz += p.Z
	s.sxx += p.X * p.X
	s.syy += p.Y * p.Y
	s.szz += p.Z * p.Z
	s.sxy += p.X * p.Y
	s.sxz += p.X * p.Z
	s.syz += p.Y * p.Z
}

// Merge folds another accumulator's sums into this one in place
// (spec.md §4.1). Merge does not check membership: points folded in twice
// are counted twice. Region growing never overlaps (each cell joins at most
// one plane), but PlaneMerger can fold the same segment into a plane more
// than once (see merger.go).
func (s *PlanarStats) Merge(other *PlanarStats) {
	s.n += other.n
	s.sx += other.sx
	s.sy += other.sy
	s.sz += other.sz
	s.sxx += other.sxx
	s.syy += other.syy
	s.szz += other.szz
	s.sxy += other.sxy
	s.sxz += other.sxz
	s.syz += other.syz
}

// Clone returns an independent copy of s.
func (s *PlanarStats) Clone() *PlanarStats {
	c := *s
	return &c
}

// Calculate recomputes Mean, Normal, Offset, MSE and Score from the current
// sums via gonum's general symmetric eigensolver (mat.EigenSym) applied to
// the point set's 3x3 scatter matrix; no closed-form 3x3 solution is used
// (spec.md §4.1). It returns InsufficientPointsError
// when fewer than 3 points have been accumulated.
func (s *PlanarStats) Calculate() error {
	if s.n < 3 {
		return &InsufficientPointsError{Count: s.n}
	}
	n := float64(s.n)
	mx, my, mz := s.sx/n, s.sy/n, s.sz/n
	s.Mean = r3.Vector{X: mx, Y: my, Z: mz}

	// unnormalized scatter matrix: Sum(outer) - n*mean*mean^T (spec.md §3).
	cxx := s.sxx - n*mx*mx
	cyy := s.syy - n*my*my
	czz := s.szz - n*mz*mz
	cxy := s.sxy - n*mx*my
	cxz := s.sxz - n*mx*mz
	cyz := s.syz - n*my*mz

	cov := mat.NewSymDense(3, []float64{
		cxx, cxy, cxz,
		cxy, cyy, cyz,
		cxz, cyz, czz,
	})

	var eig mat.EigenSym
	if !eig.Factorize(cov, true) {
		return &InsufficientPointsError{Count: s.n}
	}
	vals := eig.Values(nil) // ascending order
	var vecs mat.Dense
	eig.VectorsTo(&vecs)

	lambdaMin, lambdaMid := vals[0], vals[1]
	normal := r3.Vector{X: vecs.At(0, 0), Y: vecs.At(1, 0), Z: vecs.At(2, 0)}.Normalize()
	// orient toward the camera at the origin: normal.dot(mean) < 0.
	if normal.Dot(s.Mean) > 0 {
		normal = normal.Mul(-1)
	}
	s.Normal = normal
	s.Offset = -normal.Dot(s.Mean)
	s.MSE = lambdaMin / n

	if lambdaMin <= 0 {
		s.Score = math.Inf(1)
	} else {
		s.Score = lambdaMid / lambdaMin
	}
	return nil
}

// SignedDistance returns normal.dot(q) + offset, the signed distance from q
// to the fitted plane (spec.md §4.1).
func (s *PlanarStats) SignedDistance(q r3.Vector) float64 {
	return s.Normal.Dot(q) + s.Offset
}
