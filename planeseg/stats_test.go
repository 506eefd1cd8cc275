package planeseg

import (
	"errors"
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func TestPlanarStatsInsufficientPoints(t *testing.T) {
	s := &PlanarStats{}
	s.AddPoint(r3.Vector{X: 0, Y: 0, Z: 1})
	s.AddPoint(r3.Vector{X: 1, Y: 0, Z: 1})
	err := s.Calculate()
	test.That(t, err, test.ShouldNotBeNil)
	var ip *InsufficientPointsError
	test.That(t, errors.As(err, &ip), test.ShouldBeTrue)
}

func TestPlanarStatsFlatPlane(t *testing.T) {
	s := &PlanarStats{}
	for y := 0.0; y < 4; y++ {
		for x := 0.0; x < 4; x++ {
			s.AddPoint(r3.Vector{X: x, Y: y, Z: 1000})
		}
	}
	test.That(t, s.Calculate(), test.ShouldBeNil)
	test.That(t, math.Abs(s.Normal.Z), test.ShouldAlmostEqual, 1, 1e-9)
	test.That(t, s.MSE, test.ShouldAlmostEqual, 0, 1e-9)
	test.That(t, math.IsInf(s.Score, 1), test.ShouldBeTrue)
	// camera-facing orientation: normal.dot(mean) < 0.
	test.That(t, s.Normal.Dot(s.Mean) < 0, test.ShouldBeTrue)
}

func TestPlanarStatsMergeMatchesDirect(t *testing.T) {
	pts := []r3.Vector{
		{X: 0, Y: 0, Z: 1000}, {X: 1, Y: 0, Z: 1000}, {X: 0, Y: 1, Z: 1000},
		{X: 1, Y: 1, Z: 1002}, {X: 2, Y: 0, Z: 999}, {X: 2, Y: 2, Z: 1001},
	}
	direct := &PlanarStats{}
	for _, p := range pts {
		direct.AddPoint(p)
	}
	test.That(t, direct.Calculate(), test.ShouldBeNil)

	a, b := &PlanarStats{}, &PlanarStats{}
	for i, p := range pts {
		if i < 3 {
			a.AddPoint(p)
		} else {
			b.AddPoint(p)
		}
	}
	a.Merge(b)
	test.That(t, a.Calculate(), test.ShouldBeNil)

	test.That(t, a.Mean.X, test.ShouldAlmostEqual, direct.Mean.X, 1e-9)
	test.That(t, a.Mean.Y, test.ShouldAlmostEqual, direct.Mean.Y, 1e-9)
	test.That(t, a.Mean.Z, test.ShouldAlmostEqual, direct.Mean.Z, 1e-9)
	test.That(t, a.MSE, test.ShouldAlmostEqual, direct.MSE, 1e-9)
}

func TestPlanarStatsSignedDistance(t *testing.T) {
	s := &PlanarStats{}
	for y := 0.0; y < 4; y++ {
		for x := 0.0; x < 4; x++ {
			s.AddPoint(r3.Vector{X: x, Y: y, Z: 1000})
		}
	}
	test.That(t, s.Calculate(), test.ShouldBeNil)
	d := s.SignedDistance(r3.Vector{X: 1, Y: 1, Z: 1000})
	test.That(t, d, test.ShouldAlmostEqual, 0, 1e-6)
}
