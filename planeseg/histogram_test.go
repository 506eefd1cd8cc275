package planeseg

import (
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func TestBinIndexPoleSpecialCase(t *testing.T) {
	h := &Histogram{B: 10}
	// normal pointing straight at camera (0,0,-1): theta=acos(1)=0 -> thetaQ=0 -> phiQ forced to 0
	// regardless of x/y noise.
	a := h.binIndex(r3.Vector{X: 0.001, Y: 0, Z: -1})
	b := h.binIndex(r3.Vector{X: 0, Y: 0.001, Z: -1})
	test.That(t, a, test.ShouldEqual, b)
	test.That(t, a, test.ShouldEqual, 0)
}

func TestMostFrequentBinMembersEmpty(t *testing.T) {
	h := &Histogram{B: 5, Hist: make([]int, 25), Bins: []int{-1, -1}}
	test.That(t, h.MostFrequentBinMembers(), test.ShouldBeNil)
}

func TestHistogramInsertAndRemove(t *testing.T) {
	h := &Histogram{B: 5, Hist: make([]int, 25), Bins: []int{-1, -1, -1}}
	h.insert(0, r3.Vector{X: 0, Y: 0, Z: -1})
	h.insert(1, r3.Vector{X: 0, Y: 0, Z: -1})
	h.insert(2, r3.Vector{X: 1, Y: 0, Z: -0.1}.Normalize())

	members := h.MostFrequentBinMembers()
	test.That(t, len(members), test.ShouldEqual, 2)
	test.That(t, members[0], test.ShouldEqual, 0)
	test.That(t, members[1], test.ShouldEqual, 1)

	h.Remove(0)
	test.That(t, h.Bins[0], test.ShouldEqual, -1)
	members = h.MostFrequentBinMembers()
	test.That(t, len(members), test.ShouldEqual, 1)
	test.That(t, members[0], test.ShouldEqual, 1)
}
