package nurbs

import (
	"math"

	"github.com/ungerik/go3d/float64/vec3"
)

// defaultGaussIncrease is added to the curve degree to pick the quadrature
// degree for arc-length integration. A higher increase trades computation
// for accuracy; the quadrature itself is fixed-order with no adaptive error
// control.
const defaultGaussIncrease = 16

// DefaultNewtonIterations caps the Newton refinement in closest-point
// projection. The historical cap of 5 may under-converge for highly curved
// geometry; use [Curve.ClosestParamIters] to raise it.
const DefaultNewtonIterations = 5

// Length returns the approximate arc length of the curve, assuming it is
// smooth. The curve is decomposed into Bézier segments and each segment is
// integrated with Gauss–Legendre quadrature of degree curveDegree+16.
func (c *Curve) Length() float64 {
	_, max := c.Domain()
	return c.lengthAt(max, defaultGaussIncrease)
}

// LengthAt returns the approximate arc length of the curve from the domain
// start up to parameter u.
func (c *Curve) LengthAt(u float64) float64 {
	return c.lengthAt(u, defaultGaussIncrease)
}

func (c *Curve) lengthAt(u float64, gaussIncrease int) float64 {
	var sum float64
	for _, seg := range c.DecomposeBeziers() {
		if seg.knots[0]+Epsilon >= u {
			break
		}
		t := math.Min(seg.knots[len(seg.knots)-1], u)
		sum += seg.bezierLength(t, gaussIncrease)
	}
	return sum
}

// bezierLength integrates the tangent magnitude of a Bézier segment from its
// domain start to u. The reference interval [-1, 1] is mapped onto
// [start, u] by z = (u-start)/2.
func (c *Curve) bezierLength(u float64, gaussIncrease int) float64 {
	g := gaussDegree(c.degree + gaussIncrease)

	z := (u - c.knots[0]) / 2
	var sum float64
	for i := 0; i < g; i++ {
		cu := z*gaussAbscissae[g][i] + z + c.knots[0]
		tan := c.Derivatives(cu, 1)[1]
		sum += gaussWeights[g][i] * tan.Length()
	}
	return z * sum
}

// ParamAtLength returns the parameter at which the curve reaches the given
// arc length from its domain start. Lengths of at most zero map to the
// domain start and lengths beyond the total curve length map to the domain
// end; arc length is monotone in the parameter for a regular curve, so the
// answer is unique.
//
// The curve is walked segment by segment until the one containing the target
// cumulative length is found, whose parameter range is then bisected until
// the bracket's length difference drops below tol. A tol of at most zero
// uses [Epsilon].
func (c *Curve) ParamAtLength(length, tol float64) float64 {
	if tol <= 0 {
		tol = Epsilon
	}
	min, max := c.Domain()
	if length < Epsilon {
		return min
	}

	var acc float64
	for _, seg := range c.DecomposeBeziers() {
		_, segEnd := seg.Domain()
		segLen := seg.bezierLength(segEnd, defaultGaussIncrease)
		if length < acc+segLen+Epsilon {
			return seg.bezierParamAtLength(length-acc, tol, segLen)
		}
		acc += segLen
	}
	return max
}

// bezierParamAtLength inverts the arc length of a single Bézier segment by
// bisection.
func (c *Curve) bezierParamAtLength(length, tol, totalLen float64) float64 {
	start, end := c.Domain()
	if length <= 0 {
		return start
	}
	if length >= totalLen {
		return end
	}

	startP, startL := start, 0.0
	endP, endL := end, totalLen
	for endL-startL > tol {
		midP := (startP + endP) / 2
		midL := c.bezierLength(midP, defaultGaussIncrease)
		if midL > length {
			endP, endL = midP, midL
		} else {
			startP, startL = midP, midL
		}
	}
	return (startP + endP) / 2
}

// LengthSample pairs a parameter with the cumulative arc length there.
type LengthSample struct {
	U      float64
	Length float64
}

// DivideByEqualArcLength samples the curve at num pieces of equal arc
// length.
func (c *Curve) DivideByEqualArcLength(num int) []LengthSample {
	return c.DivideByArcLength(c.Length() / float64(num))
}

// DivideByArcLength samples the curve at multiples of the given arc length,
// starting with the domain start. The samples stop at the last multiple not
// exceeding the total curve length; a step of at most zero yields only the
// start sample.
func (c *Curve) DivideByArcLength(step float64) []LengthSample {
	min, _ := c.Domain()
	samples := []LengthSample{{min, 0}}
	if step <= 0 {
		return samples
	}

	segs := c.DecomposeBeziers()
	segLens := make([]float64, len(segs))
	var total float64
	for i, seg := range segs {
		_, segEnd := seg.Domain()
		segLens[i] = seg.bezierLength(segEnd, defaultGaussIncrease)
		total += segLens[i]
	}

	if step > total {
		return samples
	}

	target := step
	var sum, prevSum float64
	for i, segLen := range segLens {
		sum += segLen
		for target < sum+Epsilon {
			u := segs[i].bezierParamAtLength(target-prevSum, Tolerance, segLen)
			samples = append(samples, LengthSample{u, target})
			target += step
		}
		prevSum += segLen
	}
	return samples
}

// ClosestPoint returns the point on the curve closest to pt.
func (c *Curve) ClosestPoint(pt vec3.T) vec3.T {
	return c.PointAt(c.ClosestParam(pt))
}

// ClosestParam returns the parameter of the point on the curve closest to
// pt, refining with at most [DefaultNewtonIterations] Newton steps.
func (c *Curve) ClosestParam(pt vec3.T) float64 {
	return c.ClosestParamIters(pt, DefaultNewtonIterations)
}

// ClosestParamIters is [Curve.ClosestParam] with an explicit Newton
// iteration cap. It never fails: if the cap is exhausted before both
// convergence criteria hold, the best current estimate is returned.
//
// The projection solves C'(u) · (C(u) - P) = 0 by Newton iteration,
//
//	u* = u - f(u)/f'(u),  f'(u) = C''(u)·(C(u)-P) + C'(u)·C'(u)
//
// seeded by projecting pt onto the chords of a coarse parameter sampling,
// which keeps the iteration out of the wrong local minimum. Convergence
// requires both the point-coincidence and the zero-cosine test of Piegl &
// Tiller (§6.1). Parameters leaving the domain are clamped, or wrapped for
// closed curves.
func (c *Curve) ClosestParamIters(pt vec3.T, maxIters int) float64 {
	const (
		eps1 = 1e-4 // point coincidence, model space
		eps2 = 5e-4 // zero cosine
	)

	// coarse phase: project onto the chords of a regular sampling
	samples := c.regularSample(len(c.points) * c.degree)
	minDist := math.MaxFloat64
	var cu float64
	for i := 0; i < len(samples)-1; i++ {
		proj := segmentClosestPoint(&pt, &samples[i].Pt, &samples[i+1].Pt, samples[i].U, samples[i+1].U)
		dv := vec3.Sub(&pt, &proj.Pt)
		if d := dv.Length(); d < minDist {
			minDist = d
			cu = proj.U
		}
	}

	minU, maxU := c.Domain()
	closed := c.IsClosed()

	for range maxIters {
		ders := c.Derivatives(cu, 2)
		diff := vec3.Sub(&ders[0], &pt)

		// |C(u) - P| ≤ eps1
		dist := diff.Length()

		// |C'(u)·(C(u)-P)| / (|C'(u)| |C(u)-P|) ≤ eps2
		cos := vec3.Dot(&ders[1], &diff) / (ders[1].Length() * dist)

		if dist < eps1 && math.Abs(cos) < eps2 {
			return cu
		}

		f := vec3.Dot(&ders[1], &diff)
		df := vec3.Dot(&ders[2], &diff) + vec3.Dot(&ders[1], &ders[1])
		ct := cu - f/df

		if ct < minU || ct > maxU {
			if closed {
				ct = wrapParam(ct, minU, maxU)
			} else {
				ct = math.Min(math.Max(ct, minU), maxU)
			}
		}

		// a vanishing step means the point is off the end of the curve or
		// the iteration has stalled
		step := ders[1].Scaled(ct - cu)
		if step.Length() < eps1 {
			return cu
		}

		cu = ct
	}
	return cu
}

// segmentClosestPoint projects pt onto the segment from a to b,
// parametrized [u0, u1].
func segmentClosestPoint(pt, a, b *vec3.T, u0, u1 float64) CurvePoint {
	dir := vec3.Sub(b, a)
	l := dir.Length()
	if l < Epsilon {
		return CurvePoint{u0, *a}
	}

	dir.Scale(1 / l)
	toPt := vec3.Sub(pt, a)
	d := vec3.Dot(&toPt, &dir)

	if d < 0 {
		return CurvePoint{u0, *a}
	}
	if d > l {
		return CurvePoint{u1, *b}
	}
	return CurvePoint{
		u0 + (u1-u0)*d/l,
		vec3.Add(a, dir.Scale(d)),
	}
}

// ClosestPoint returns the point on the surface closest to pt.
func (s *Surface) ClosestPoint(pt vec3.T) vec3.T {
	u, v := s.ClosestParam(pt)
	return s.PointAt(u, v)
}

// ClosestParam returns the parameters of the point on the surface closest
// to pt. A coarse estimate is taken from the vertices of an adaptive
// tessellation and refined with a bounded 2×2 Newton iteration on
//
//	f(u,v) = Su · r = 0,  g(u,v) = Sv · r = 0,  r = S(u,v) - P
//
// with the same clamping, wrapping, and graceful degradation rules as
// [Curve.ClosestParamIters].
func (s *Surface) ClosestParam(pt vec3.T) (u, v float64) {
	const (
		eps1 = 1e-4
		eps2 = 5e-4
	)

	mesh := s.Tessellate(nil)
	dmin := math.MaxFloat64
	var cuv UV
	for i, p := range mesh.Points {
		if d := vec3.SquareDistance(&pt, &p); d < dmin {
			dmin = d
			cuv = mesh.UVs[i]
		}
	}

	minU, maxU := s.DomainU()
	minV, maxV := s.DomainV()
	closedU, closedV := s.IsClosed(DirU), s.IsClosed(DirV)

	for range DefaultNewtonIterations {
		ders := s.Derivatives(cuv[0], cuv[1], 2)
		r := vec3.Sub(&ders[0][0], &pt)

		dist := r.Length()
		su, sv := ders[1][0], ders[0][1]

		cosU := vec3.Dot(&su, &r) / (su.Length() * dist)
		cosV := vec3.Dot(&sv, &r) / (sv.Length() * dist)
		if dist < eps1 && math.Abs(cosU) < eps2 && math.Abs(cosV) < eps2 {
			return cuv[0], cuv[1]
		}

		suu, svv, suv := ders[2][0], ders[0][2], ders[1][1]

		f := vec3.Dot(&su, &r)
		g := vec3.Dot(&sv, &r)

		j00 := vec3.Dot(&su, &su) + vec3.Dot(&suu, &r)
		j01 := vec3.Dot(&su, &sv) + vec3.Dot(&suv, &r)
		j11 := vec3.Dot(&sv, &sv) + vec3.Dot(&svv, &r)

		du, dv, ok := solve2x2(j00, j01, j01, j11, -f, -g)
		if !ok {
			return cuv[0], cuv[1]
		}
		ct := UV{cuv[0] + du, cuv[1] + dv}

		if ct[0] < minU || ct[0] > maxU {
			if closedU {
				ct[0] = wrapParam(ct[0], minU, maxU)
			} else {
				ct[0] = math.Min(math.Max(ct[0], minU), maxU)
			}
		}
		if ct[1] < minV || ct[1] > maxV {
			if closedV {
				ct[1] = wrapParam(ct[1], minV, maxV)
			} else {
				ct[1] = math.Min(math.Max(ct[1], minV), maxV)
			}
		}

		stepU := su.Scaled(ct[0] - cuv[0])
		stepV := sv.Scaled(ct[1] - cuv[1])
		if stepU.Length()+stepV.Length() < eps1 {
			return cuv[0], cuv[1]
		}

		cuv = ct
	}
	return cuv[0], cuv[1]
}

// wrapParam maps t into the periodic domain [min, max]. The result is
// well defined even when t is more than one period outside it.
func wrapParam(t, min, max float64) float64 {
	r := math.Mod(t-min, max-min)
	if r < 0 {
		r += max - min
	}
	return min + r
}

// solve2x2 solves the linear system {{a,b},{c,d}} x = {e,f}. It reports
// failure for a near-singular matrix.
func solve2x2(a, b, c, d, e, f float64) (x, y float64, ok bool) {
	det := a*d - b*c
	if math.Abs(det) < Epsilon {
		return 0, 0, false
	}
	return (d*e - b*f) / det, (a*f - c*e) / det, true
}
