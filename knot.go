package nurbs

import "math"

// A KnotVector is a non-decreasing sequence of parameter values defining the
// polynomial pieces and continuity of a curve or surface direction.
//
// For a clamped curve of degree p with n+1 control points the vector has
// length n+p+2 and its first and last values each repeat p+1 times.
type KnotVector []float64

// Clone returns a copy of the knot vector.
func (kv KnotVector) Clone() KnotVector {
	return append(KnotVector(nil), kv...)
}

// Domain returns the first and last knot value.
func (kv KnotVector) Domain() (min, max float64) {
	return kv[0], kv[len(kv)-1]
}

// Span returns the index of the knot interval containing the parameter u.
func (kv KnotVector) Span(degree int, u float64) int {
	n := len(kv) - degree - 2
	return kv.SpanGivenN(n, degree, u)
}

// SpanGivenN returns the index of the knot interval containing u, where n is
// the number of basis functions minus one. Parameters outside the domain
// resolve to the first or last non-empty span.
//
// This is algorithm A2.1 from The NURBS Book (Piegl & Tiller).
func (kv KnotVector) SpanGivenN(n, degree int, u float64) int {
	if u >= kv[n+1] {
		return n
	}
	if u < kv[degree] {
		return degree
	}

	low, high := degree, n+1
	mid := (low + high) / 2
	for u < kv[mid] || u >= kv[mid+1] {
		if u < kv[mid] {
			high = mid
		} else {
			low = mid
		}
		mid = (low + high) / 2
	}
	return mid
}

// KnotMultiplicity is a distinct knot value and the number of times it
// repeats.
type KnotMultiplicity struct {
	Knot float64
	Mult int
}

// Multiplicities returns the distinct knot values in order together with
// their multiplicities. Values within [Epsilon] of each other count as the
// same knot.
func (kv KnotVector) Multiplicities() []KnotMultiplicity {
	mults := []KnotMultiplicity{{kv[0], 0}}

	cur := 0
	for _, knot := range kv {
		if math.Abs(knot-mults[cur].Knot) > Epsilon {
			mults = append(mults, KnotMultiplicity{knot, 0})
			cur++
		}
		mults[cur].Mult++
	}
	return mults
}

// IsValid reports whether the knot vector is clamped for the given degree:
// non-decreasing, long enough, and beginning and ending with degree+1
// repeats.
func (kv KnotVector) IsValid(degree int) bool {
	if len(kv) < (degree+1)*2 {
		return false
	}

	first := kv[0]
	for _, knot := range kv[:degree+1] {
		if math.Abs(knot-first) > Epsilon {
			return false
		}
	}
	last := kv[len(kv)-1]
	for _, knot := range kv[len(kv)-degree-1:] {
		if math.Abs(knot-last) > Epsilon {
			return false
		}
	}
	return kv.IsNonDecreasing()
}

// IsNonDecreasing reports whether the knot values never decrease.
func (kv KnotVector) IsNonDecreasing() bool {
	prev := kv[0]
	for _, knot := range kv[1:] {
		if knot < prev-Epsilon {
			return false
		}
		prev = knot
	}
	return true
}

// Reversed returns the knot vector of the reversed curve: the same domain
// with the interior spacing mirrored.
func (kv KnotVector) Reversed() KnotVector {
	out := make(KnotVector, len(kv))
	out[0] = kv[0]
	n := len(kv)
	for i := 1; i < n; i++ {
		out[i] = out[i-1] + (kv[n-i] - kv[n-i-1])
	}
	return out
}
