package nurbs

import "testing"

func TestKnotSpan(t *testing.T) {
	kv := KnotVector{0, 0, 0, 0.5, 1, 1, 1}

	for _, tc := range []struct {
		u    float64
		want int
	}{
		{0, 2},
		{0.25, 2},
		{0.5, 3},
		{0.75, 3},
		{1, 3},    // the last non-empty span
		{-0.5, 2}, // clamped below
		{1.5, 3},  // clamped above
	} {
		if got := kv.Span(2, tc.u); got != tc.want {
			t.Errorf("Span(2, %v) = %d, want %d", tc.u, got, tc.want)
		}
	}
}

func TestKnotMultiplicities(t *testing.T) {
	kv := KnotVector{0, 0, 0, 0.5, 1, 1, 1}
	diff(t, []KnotMultiplicity{
		{0, 3},
		{0.5, 1},
		{1, 3},
	}, kv.Multiplicities())
}

func TestKnotIsValid(t *testing.T) {
	for _, tc := range []struct {
		kv     KnotVector
		degree int
		want   bool
	}{
		{KnotVector{0, 0, 1, 1}, 1, true},
		{KnotVector{0, 0, 0, 0.5, 1, 1, 1}, 2, true},
		{KnotVector{0, 0, 0.5, 1, 1, 1}, 2, false},         // not clamped at the start
		{KnotVector{0, 0, 0, 0.5, 0.4, 1, 1, 1}, 2, false}, // decreasing
		{KnotVector{0, 0, 1}, 1, false},                    // too short
	} {
		if got := tc.kv.IsValid(tc.degree); got != tc.want {
			t.Errorf("IsValid(%v, degree %d) = %v, want %v", tc.kv, tc.degree, got, tc.want)
		}
	}
}

func TestKnotReversed(t *testing.T) {
	kv := KnotVector{0, 0, 0, 0.2, 1, 1, 1}
	diff(t, KnotVector{0, 0, 0, 0.8, 1, 1, 1}, kv.Reversed())

	// same domain, mirrored interior spacing
	uniform := KnotVector{0, 0, 0.25, 0.5, 0.75, 1, 1}
	diff(t, uniform, uniform.Reversed())
}
