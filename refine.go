package nurbs

import "math"

// KnotRefine inserts a sorted list of parameter values into the curve's knot
// vector, recomputing the control polygon so that the curve's shape and
// parametrization are unchanged. Values may repeat to raise multiplicity.
// An empty insertion list returns a copy of the curve.
//
// This is Boehm's generalized knot insertion, algorithm A5.4 from The NURBS
// Book (Piegl & Tiller).
func (c *Curve) KnotRefine(insert []float64) *Curve {
	if len(insert) == 0 {
		return c.clone()
	}

	degree := c.degree
	points := c.points
	knots := c.knots

	n := len(points) - 1
	m := n + degree + 1
	r := len(insert) - 1
	a := knots.Span(degree, insert[0])
	b := knots.Span(degree, insert[r])

	newPoints := make([]HomoPoint, n+r+2)
	newKnots := make(KnotVector, m+r+2)

	// control points and knots outside the affected window copy verbatim
	for i := 0; i <= a-degree; i++ {
		newPoints[i] = points[i]
	}
	for i := b - 1; i <= n; i++ {
		newPoints[i+r+1] = points[i]
	}
	for i := 0; i <= a; i++ {
		newKnots[i] = knots[i]
	}
	for i := b + degree; i <= m; i++ {
		newKnots[i+r+1] = knots[i]
	}

	i := b + degree - 1
	k := b + degree + r

	for j := r; j >= 0; j-- {
		for insert[j] <= knots[i] && i > a {
			newPoints[k-degree-1] = points[i-degree-1]
			newKnots[k] = knots[i]
			k--
			i--
		}

		newPoints[k-degree-1] = newPoints[k-degree]

		for l := 1; l <= degree; l++ {
			ind := k - degree + l
			alfa := newKnots[k+l] - insert[j]

			if math.Abs(alfa) < Epsilon {
				// multiplicity limit reached, pure copy
				newPoints[ind-1] = newPoints[ind]
			} else {
				alfa /= newKnots[k+l] - knots[i-degree+l]
				newPoints[ind-1] = homoLerp(&newPoints[ind], &newPoints[ind-1], alfa)
			}
		}

		newKnots[k] = insert[j]
		k--
	}

	return &Curve{degree, newPoints, newKnots}
}

// DecomposeBeziers converts the curve into a sequence of Bézier segments
// covering the same domain and preserving the geometry exactly. Every
// interior knot is raised to full multiplicity (degree+1) and the resulting
// arrays are sliced into consecutive segments.
//
// Each segment is bounded by the convex hull of its control points, which
// makes the decomposition a useful starting point for localized numerical
// search.
func (c *Curve) DecomposeBeziers() []*Curve {
	degree := c.degree
	reqMult := degree + 1

	knots := c.knots
	points := c.points

	for _, km := range knots.Multiplicities() {
		if km.Mult >= reqMult {
			continue
		}
		insert := make([]float64, reqMult-km.Mult)
		for i := range insert {
			insert[i] = km.Knot
		}
		refined := (&Curve{degree, points, knots}).KnotRefine(insert)
		knots = refined.knots
		points = refined.points
	}

	segKnots := reqMult * 2
	segs := make([]*Curve, 0, len(points)/reqMult)
	for i := 0; i+reqMult <= len(points); i += reqMult {
		segs = append(segs, &Curve{
			degree,
			points[i : i+reqMult : i+reqMult],
			knots[i : i+segKnots : i+segKnots],
		})
	}
	return segs
}
