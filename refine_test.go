package nurbs

import (
	"math"
	"testing"

	"github.com/ungerik/go3d/float64/vec3"
)

func TestKnotRefineSingleInsertion(t *testing.T) {
	c, err := NewCurve(2,
		[]vec3.T{{0, 0, 0}, {1, 2, 0}, {2, 0, 0}},
		nil,
		[]float64{0, 0, 0, 1, 1, 1})
	if err != nil {
		t.Fatal(err)
	}

	refined := c.KnotRefine([]float64{0.5})

	if got := len(refined.ControlPoints()); got != 4 {
		t.Errorf("got %d control points, want 4", got)
	}
	diff(t, KnotVector{0, 0, 0, 0.5, 1, 1, 1}, refined.Knots())
}

func TestKnotRefinePreservesGeometry(t *testing.T) {
	c := quarterCircle(t)
	refined := c.KnotRefine([]float64{0.2, 0.2, 0.7})

	wantKnots := KnotVector{0, 0, 0, 0.2, 0.2, 0.7, 1, 1, 1}
	diff(t, wantKnots, refined.Knots())
	if got, want := len(refined.ControlPoints()), len(c.ControlPoints())+3; got != want {
		t.Errorf("got %d control points, want %d", got, want)
	}

	for i := 0; i <= 50; i++ {
		u := float64(i) / 50
		assertNear(t, c.PointAt(u), refined.PointAt(u), 1e-9)
	}
}

func TestKnotRefineEmpty(t *testing.T) {
	c := quarterCircle(t)
	refined := c.KnotRefine(nil)

	diff(t, c.Knots(), refined.Knots())
	for i := 0; i <= 10; i++ {
		u := float64(i) / 10
		assertNear(t, c.PointAt(u), refined.PointAt(u), 1e-12)
	}
}

func TestDecomposeBeziers(t *testing.T) {
	c, err := NewCurve(2,
		[]vec3.T{{0, 0, 0}, {1, 2, 0}, {3, 1, 0}, {4, 3, 0}, {6, 0, 0}},
		[]float64{1, 0.8, 1.2, 1, 0.9},
		[]float64{0, 0, 0, 1, 2, 3, 3, 3})
	if err != nil {
		t.Fatal(err)
	}

	segs := c.DecomposeBeziers()
	if len(segs) != 3 {
		t.Fatalf("got %d segments, want 3", len(segs))
	}

	for i, seg := range segs {
		min, max := seg.Domain()
		if min != float64(i) || max != float64(i+1) {
			t.Errorf("segment %d covers [%v, %v], want [%d, %d]", i, min, max, i, i+1)
		}

		// fully clamped: two distinct knots, each of multiplicity degree+1
		mults := seg.Knots().Multiplicities()
		if len(mults) != 2 || mults[0].Mult != 3 || mults[1].Mult != 3 {
			t.Errorf("segment %d has knot multiplicities %v", i, mults)
		}

		for j := 0; j <= 20; j++ {
			u := min + (max-min)*float64(j)/20
			assertNear(t, c.PointAt(u), seg.PointAt(u), 1e-9)
		}
	}
}

func TestDecomposeBeziersAlreadyBezier(t *testing.T) {
	c := quarterCircle(t)
	segs := c.DecomposeBeziers()
	if len(segs) != 1 {
		t.Fatalf("got %d segments, want 1", len(segs))
	}
	for i := 0; i <= 10; i++ {
		u := float64(i) / 10
		assertNear(t, c.PointAt(u), segs[0].PointAt(u), 1e-12)
	}
}

func TestSplitMatchesDecomposition(t *testing.T) {
	c := quarterCircle(t)
	left, _ := c.Split(0.5)

	// splitting halves the arc
	if got, want := left.Length(), c.Length()/2; math.Abs(got-want) > 1e-6 {
		t.Errorf("left half has length %v, want %v", got, want)
	}
}
