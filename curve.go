package nurbs

import (
	"errors"
	"fmt"

	"github.com/ungerik/go3d/float64/mat4"
	"github.com/ungerik/go3d/float64/vec3"
)

// A Curve is an immutable rational B-spline curve in three dimensions,
// defined by a degree, a clamped knot vector, and weighted control points
// stored in homogeneous form. All transforming operations return new
// instances.
type Curve struct {
	degree int
	points []HomoPoint
	knots  KnotVector
}

// NewCurve constructs a curve from Euclidean control points, optional
// per-point weights (nil means uniform weight 1), and a knot vector. It
// returns an error if the degree is smaller than one, the number of knots is
// not len(points)+degree+1, or the knot vector is not clamped and
// non-decreasing.
func NewCurve(degree int, points []vec3.T, weights []float64, knots []float64) (*Curve, error) {
	c := &Curve{degree, homogenize1d(points, weights), KnotVector(knots).Clone()}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Curve) validate() error {
	if len(c.points) == 0 {
		return errors.New("nurbs: curve has no control points")
	}
	if c.degree < 1 {
		return fmt.Errorf("nurbs: curve degree %d is smaller than 1", c.degree)
	}
	if len(c.knots) != len(c.points)+c.degree+1 {
		return fmt.Errorf("nurbs: curve needs %d knots for %d control points of degree %d, got %d",
			len(c.points)+c.degree+1, len(c.points), c.degree, len(c.knots))
	}
	if !c.knots.IsValid(c.degree) {
		return errors.New("nurbs: knot vector is not clamped and non-decreasing")
	}
	return nil
}

// Degree returns the degree of the curve.
func (c *Curve) Degree() int { return c.degree }

// Knots returns a copy of the curve's knot vector.
func (c *Curve) Knots() KnotVector { return c.knots.Clone() }

// ControlPoints returns the dehomogenized control points.
func (c *Curve) ControlPoints() []vec3.T { return dehomogenize1d(c.points) }

// Weights returns the control point weights.
func (c *Curve) Weights() []float64 { return weights1d(c.points) }

// Domain returns the parameter range of the curve.
func (c *Curve) Domain() (min, max float64) { return c.knots.Domain() }

// clone shares nothing with the receiver. It is only needed when control
// points or knots cannot be aliased by a derived curve.
func (c *Curve) clone() *Curve {
	return &Curve{
		degree: c.degree,
		points: append([]HomoPoint(nil), c.points...),
		knots:  c.knots.Clone(),
	}
}

// IsClosed reports whether the first and last control points coincide
// within [Epsilon].
func (c *Curve) IsClosed() bool {
	first := c.points[0].Dehomogenized()
	last := c.points[len(c.points)-1].Dehomogenized()
	return vec3.SquareDistance(&first, &last) < Epsilon
}

// PointAt evaluates the curve position at parameter u.
//
// This is algorithm A4.1 from The NURBS Book (Piegl & Tiller).
func (c *Curve) PointAt(u float64) vec3.T {
	n := len(c.knots) - c.degree - 2
	span := c.knots.SpanGivenN(n, c.degree, u)
	basis := basisFunctions(span, u, c.degree, c.knots)

	var pos HomoPoint
	for j := 0; j <= c.degree; j++ {
		pt := c.points[span-c.degree+j]
		pt.scale(basis[j])
		pos.add(&pt)
	}
	return pos.Dehomogenized()
}

// Derivatives evaluates the curve and its derivatives at u, up to the
// requested order. Element 0 is the position, element k the kth derivative.
// Derivatives beyond the curve degree are zero.
//
// This is algorithm A4.2 from The NURBS Book (Piegl & Tiller): the
// homogeneous derivatives are computed first, then the rational correction
// terms are peeled off with binomial weights.
func (c *Curve) Derivatives(u float64, order int) []vec3.T {
	hders := c.homoDerivatives(u, order)

	out := make([]vec3.T, 0, order+1)
	for k := 0; k <= order; k++ {
		var v vec3.T
		if k < len(hders) {
			v = hders[k].Pos
		}
		for i := 1; i <= k; i++ {
			var wi float64
			if i < len(hders) {
				wi = hders[i].W
			}
			scaled := out[k-i].Scaled(binomial(k, i) * wi)
			v.Sub(&scaled)
		}
		v.Scale(1 / hders[0].W)
		out = append(out, v)
	}
	return out
}

// Tangent returns the first derivative of the curve at u.
func (c *Curve) Tangent(u float64) vec3.T {
	return c.Derivatives(u, 1)[1]
}

// homoDerivatives computes the derivatives of the non-rational (homogeneous)
// curve at u, clamped to the curve degree.
//
// This is algorithm A3.2 from The NURBS Book (Piegl & Tiller).
func (c *Curve) homoDerivatives(u float64, order int) []HomoPoint {
	n := len(c.knots) - c.degree - 2
	du := min(order, c.degree)

	span := c.knots.SpanGivenN(n, c.degree, u)
	nders := derivativeBasisFunctions(span, u, c.degree, du, c.knots)

	out := make([]HomoPoint, du+1)
	for k := 0; k <= du; k++ {
		for j := 0; j <= c.degree; j++ {
			pt := c.points[span-c.degree+j]
			pt.scale(nders[k][j])
			out[k].add(&pt)
		}
	}
	return out
}

// Reverse returns a curve tracing the same geometry in the opposite
// direction.
func (c *Curve) Reverse() *Curve {
	points := make([]HomoPoint, 0, len(c.points))
	for i := len(c.points) - 1; i >= 0; i-- {
		points = append(points, c.points[i])
	}
	return &Curve{c.degree, points, c.knots.Reversed()}
}

// Transform returns the curve with all control points transformed by the
// given matrix. Weights are preserved.
func (c *Curve) Transform(mat *mat4.T) *Curve {
	pts := dehomogenize1d(c.points)
	for i := range pts {
		pts[i] = mat.MulVec3(&pts[i])
	}
	return &Curve{c.degree, homogenize1d(pts, weights1d(c.points)), c.knots.Clone()}
}

// Split divides the curve at parameter u into two curves that together trace
// the same geometry.
func (c *Curve) Split(u float64) (*Curve, *Curve) {
	insert := make([]float64, c.degree+1)
	for i := range insert {
		insert[i] = u
	}
	refined := c.KnotRefine(insert)

	s := c.knots.Span(c.degree, u)

	knots0 := refined.knots[: s+c.degree+2 : s+c.degree+2]
	knots1 := refined.knots[s+1:]
	points0 := refined.points[: s+1 : s+1]
	points1 := refined.points[s+1:]

	return &Curve{c.degree, points0, knots0}, &Curve{c.degree, points1, knots1}
}

// binomial returns the binomial coefficient C(n, k).
func binomial(n, k int) float64 {
	if k < 0 || k > n {
		return 0
	}
	if k > n-k {
		k = n - k
	}
	out := 1.0
	for i := 0; i < k; i++ {
		out *= float64(n-i) / float64(i+1)
	}
	return out
}

// regularSample evaluates the curve at num roughly uniform parameters across
// its domain.
func (c *Curve) regularSample(num int) []CurvePoint {
	if num < 2 {
		num = 2
	}
	min, max := c.Domain()
	step := (max - min) / float64(num-1)

	samples := make([]CurvePoint, num)
	for i := range samples {
		u := min + step*float64(i)
		samples[i] = CurvePoint{u, c.PointAt(u)}
	}
	return samples
}

// CurvePoint pairs a parameter with the curve position evaluated there.
type CurvePoint struct {
	U  float64
	Pt vec3.T
}
