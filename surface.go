package nurbs

import (
	"errors"
	"fmt"
	"math"

	"github.com/ungerik/go3d/float64/mat4"
	"github.com/ungerik/go3d/float64/vec3"
)

// Direction selects one of the two parametric directions of a surface.
type Direction int

const (
	DirU Direction = iota
	DirV
)

func (d Direction) String() string {
	if d == DirU {
		return "u"
	}
	return "v"
}

// A Surface is an immutable rational B-spline surface, defined by a degree
// and clamped knot vector per parametric direction and a 2D grid of weighted
// control points indexed [u-row][v-col], stored in homogeneous form.
type Surface struct {
	degreeU, degreeV int
	points           [][]HomoPoint
	knotsU, knotsV   KnotVector
}

// NewSurface constructs a surface from a rectangular grid of Euclidean
// control points, optional weights of the same shape (nil means uniform
// weight 1), and one knot vector per direction. The same validity rules as
// for [NewCurve] apply per direction.
func NewSurface(degreeU, degreeV int, points [][]vec3.T, weights [][]float64, knotsU, knotsV []float64) (*Surface, error) {
	s := &Surface{
		degreeU, degreeV,
		homogenize2d(points, weights),
		KnotVector(knotsU).Clone(), KnotVector(knotsV).Clone(),
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Surface) validate() error {
	if len(s.points) == 0 || len(s.points[0]) == 0 {
		return errors.New("nurbs: surface has no control points")
	}
	for _, row := range s.points {
		if len(row) != len(s.points[0]) {
			return errors.New("nurbs: surface control point grid is not rectangular")
		}
	}
	if s.degreeU < 1 || s.degreeV < 1 {
		return fmt.Errorf("nurbs: surface degrees (%d, %d) must both be at least 1", s.degreeU, s.degreeV)
	}
	if len(s.knotsU) != len(s.points)+s.degreeU+1 {
		return fmt.Errorf("nurbs: surface needs %d knots in u for %d control point rows of degree %d, got %d",
			len(s.points)+s.degreeU+1, len(s.points), s.degreeU, len(s.knotsU))
	}
	if len(s.knotsV) != len(s.points[0])+s.degreeV+1 {
		return fmt.Errorf("nurbs: surface needs %d knots in v for %d control point columns of degree %d, got %d",
			len(s.points[0])+s.degreeV+1, len(s.points[0]), s.degreeV, len(s.knotsV))
	}
	if !s.knotsU.IsValid(s.degreeU) || !s.knotsV.IsValid(s.degreeV) {
		return errors.New("nurbs: knot vector is not clamped and non-decreasing")
	}
	return nil
}

// DegreeU returns the degree in the u direction.
func (s *Surface) DegreeU() int { return s.degreeU }

// DegreeV returns the degree in the v direction.
func (s *Surface) DegreeV() int { return s.degreeV }

// KnotsU returns a copy of the knot vector in the u direction.
func (s *Surface) KnotsU() KnotVector { return s.knotsU.Clone() }

// KnotsV returns a copy of the knot vector in the v direction.
func (s *Surface) KnotsV() KnotVector { return s.knotsV.Clone() }

// ControlPoints returns the dehomogenized control point grid.
func (s *Surface) ControlPoints() [][]vec3.T { return dehomogenize2d(s.points) }

// Weights returns the control point weight grid.
func (s *Surface) Weights() [][]float64 { return weights2d(s.points) }

// DomainU returns the parameter range in the u direction.
func (s *Surface) DomainU() (min, max float64) { return s.knotsU.Domain() }

// DomainV returns the parameter range in the v direction.
func (s *Surface) DomainV() (min, max float64) { return s.knotsV.Domain() }

// IsClosed reports whether the surface's first and last control point rows
// (DirU) or columns (DirV) coincide within [Epsilon].
func (s *Surface) IsClosed(dir Direction) bool {
	pts := s.points
	if dir == DirV {
		pts = transposeGrid(pts)
	}
	for j := range pts[0] {
		first, last := pts[0][j], pts[len(pts)-1][j]
		d := vec3.SquareDistance(&first.Pos, &last.Pos) + (first.W-last.W)*(first.W-last.W)
		if d >= Epsilon {
			return false
		}
	}
	return true
}

// PointAt evaluates the surface position at (u, v).
//
// This is algorithm A4.3 from The NURBS Book (Piegl & Tiller).
func (s *Surface) PointAt(u, v float64) vec3.T {
	n := len(s.knotsU) - s.degreeU - 2
	m := len(s.knotsV) - s.degreeV - 2

	spanU := s.knotsU.SpanGivenN(n, s.degreeU, u)
	spanV := s.knotsV.SpanGivenN(m, s.degreeV, v)
	basisU := basisFunctions(spanU, u, s.degreeU, s.knotsU)
	basisV := basisFunctions(spanV, v, s.degreeV, s.knotsV)

	var pos HomoPoint
	for l := 0; l <= s.degreeV; l++ {
		// sample a u isoline, then blend across v
		var temp HomoPoint
		vind := spanV - s.degreeV + l
		for k := 0; k <= s.degreeU; k++ {
			pt := s.points[spanU-s.degreeU+k][vind]
			pt.scale(basisU[k])
			temp.add(&pt)
		}
		temp.scale(basisV[l])
		pos.add(&temp)
	}
	return pos.Dehomogenized()
}

// Derivatives evaluates the surface and its partial derivatives at (u, v) up
// to the requested total order. Entry [k][l] is the derivative taken k times
// in u and l times in v; [0][0] is the position. Entries with k+l > order
// are zero.
//
// This is algorithm A4.4 from The NURBS Book (Piegl & Tiller).
func (s *Surface) Derivatives(u, v float64, order int) [][]vec3.T {
	hders := s.homoDerivatives(u, v, order)

	aders := make([][]vec3.T, order+1)
	wders := make([][]float64, order+1)
	for k := range aders {
		aders[k] = make([]vec3.T, order+1)
		wders[k] = make([]float64, order+1)
		for l := range aders[k] {
			if k < len(hders) && l < len(hders[k]) {
				aders[k][l] = hders[k][l].Pos
				wders[k][l] = hders[k][l].W
			}
		}
	}

	skl := make([][]vec3.T, order+1)
	for k := range skl {
		skl[k] = make([]vec3.T, order+1)
	}

	for k := 0; k <= order; k++ {
		for l := 0; l <= order-k; l++ {
			val := aders[k][l]

			for j := 1; j <= l; j++ {
				scaled := skl[k][l-j].Scaled(binomial(l, j) * wders[0][j])
				val.Sub(&scaled)
			}
			for i := 1; i <= k; i++ {
				scaled := skl[k-i][l].Scaled(binomial(k, i) * wders[i][0])
				val.Sub(&scaled)

				var v2 vec3.T
				for j := 1; j <= l; j++ {
					scaled := skl[k-i][l-j].Scaled(binomial(l, j) * wders[i][j])
					v2.Add(&scaled)
				}
				scaled = v2.Scaled(binomial(k, i))
				val.Sub(&scaled)
			}

			val.Scale(1 / wders[0][0])
			skl[k][l] = val
		}
	}
	return skl
}

// Normal returns the (non-unitized) surface normal at (u, v): the cross
// product of the first partial derivatives.
func (s *Surface) Normal(u, v float64) vec3.T {
	ders := s.Derivatives(u, v, 1)
	return vec3.Cross(&ders[1][0], &ders[0][1])
}

// homoDerivatives computes the partial derivatives of the non-rational
// (homogeneous) surface. Entry [k][l] is the derivative taken k times in u
// and l times in v, with k clamped to degreeU and l to degreeV.
//
// This is algorithm A3.6 from The NURBS Book (Piegl & Tiller).
func (s *Surface) homoDerivatives(u, v float64, order int) [][]HomoPoint {
	n := len(s.knotsU) - s.degreeU - 2
	m := len(s.knotsV) - s.degreeV - 2

	du := min(order, s.degreeU)
	dv := min(order, s.degreeV)

	skl := make([][]HomoPoint, du+1)
	for i := range skl {
		skl[i] = make([]HomoPoint, dv+1)
	}

	spanU := s.knotsU.SpanGivenN(n, s.degreeU, u)
	spanV := s.knotsV.SpanGivenN(m, s.degreeV, v)
	uders := derivativeBasisFunctions(spanU, u, s.degreeU, du, s.knotsU)
	vders := derivativeBasisFunctions(spanV, v, s.degreeV, dv, s.knotsV)

	temp := make([]HomoPoint, s.degreeV+1)
	for k := 0; k <= du; k++ {
		for j := range temp {
			temp[j] = HomoPoint{}
			for r := 0; r <= s.degreeU; r++ {
				pt := s.points[spanU-s.degreeU+r][spanV-s.degreeV+j]
				pt.scale(uders[k][r])
				temp[j].add(&pt)
			}
		}

		dd := min(order-k, dv)
		for l := 0; l <= dd; l++ {
			for j := 0; j <= s.degreeV; j++ {
				pt := temp[j]
				pt.scale(vders[l][j])
				skl[k][l].add(&pt)
			}
		}
	}
	return skl
}

// KnotRefine inserts the sorted parameter values into the knot vector of the
// chosen direction, leaving the surface's geometry and parametrization
// unchanged. Refinement is performed row-wise with [Curve.KnotRefine],
// transposing the control grid for the u direction.
func (s *Surface) KnotRefine(insert []float64, dir Direction) *Surface {
	if len(insert) == 0 {
		return &Surface{s.degreeU, s.degreeV, s.points, s.knotsU.Clone(), s.knotsV.Clone()}
	}

	var (
		grid   [][]HomoPoint
		knots  KnotVector
		degree int
	)
	if dir == DirU {
		grid = transposeGrid(s.points)
		knots = s.knotsU
		degree = s.degreeU
	} else {
		grid = s.points
		knots = s.knotsV
		degree = s.degreeV
	}

	newGrid := make([][]HomoPoint, 0, len(grid))
	var refined *Curve
	for _, row := range grid {
		refined = (&Curve{degree, row, knots}).KnotRefine(insert)
		newGrid = append(newGrid, refined.points)
	}
	newKnots := refined.knots

	if dir == DirU {
		return &Surface{
			s.degreeU, s.degreeV,
			transposeGrid(newGrid),
			newKnots, s.knotsV.Clone(),
		}
	}
	return &Surface{
		s.degreeU, s.degreeV,
		newGrid,
		s.knotsU.Clone(), newKnots,
	}
}

// Split divides the surface at parameter t in the chosen direction into two
// surfaces that together cover the same geometry.
func (s *Surface) Split(t float64, dir Direction) (*Surface, *Surface) {
	var (
		grid   [][]HomoPoint
		knots  KnotVector
		degree int
	)
	if dir == DirU {
		grid = transposeGrid(s.points)
		knots = s.knotsU
		degree = s.degreeU
	} else {
		grid = s.points
		knots = s.knotsV
		degree = s.degreeV
	}

	insert := make([]float64, degree+1)
	for i := range insert {
		insert[i] = t
	}

	span := knots.Span(degree, t)

	grid0 := make([][]HomoPoint, 0, len(grid))
	grid1 := make([][]HomoPoint, 0, len(grid))
	var refined *Curve
	for _, row := range grid {
		refined = (&Curve{degree, row, knots}).KnotRefine(insert)
		grid0 = append(grid0, refined.points[:span+1:span+1])
		grid1 = append(grid1, refined.points[span+1:])
	}
	knots0 := refined.knots[: span+degree+2 : span+degree+2]
	knots1 := refined.knots[span+1:]

	if dir == DirU {
		return &Surface{
				s.degreeU, s.degreeV,
				transposeGrid(grid0),
				knots0, s.knotsV.Clone(),
			}, &Surface{
				s.degreeU, s.degreeV,
				transposeGrid(grid1),
				knots1, s.knotsV.Clone(),
			}
	}
	return &Surface{
			s.degreeU, s.degreeV,
			grid0,
			s.knotsU.Clone(), knots0,
		}, &Surface{
			s.degreeU, s.degreeV,
			grid1,
			s.knotsU.Clone(), knots1,
		}
}

// Isocurve extracts the curve of constant parameter t in the chosen
// direction: Isocurve(t, DirV) runs along u at v=t, and vice versa.
func (s *Surface) Isocurve(t float64, dir Direction) *Curve {
	var (
		knots  KnotVector
		degree int
	)
	if dir == DirV {
		knots = s.knotsV
		degree = s.degreeV
	} else {
		knots = s.knotsU
		degree = s.degreeU
	}

	// raise the multiplicity at t to degree+1, reusing existing repeats
	mult := 0
	for _, km := range knots.Multiplicities() {
		if math.Abs(t-km.Knot) < Epsilon {
			mult = km.Mult
			break
		}
	}

	src := s
	if toInsert := degree + 1 - mult; toInsert > 0 {
		insert := make([]float64, toInsert)
		for i := range insert {
			insert[i] = t
		}
		src = s.KnotRefine(insert, dir)
	}

	span := knots.Span(degree, t)
	if math.Abs(t-knots[0]) < Epsilon {
		span = 0
	} else if math.Abs(t-knots[len(knots)-1]) < Epsilon {
		if dir == DirV {
			span = len(src.points[0]) - 1
		} else {
			span = len(src.points) - 1
		}
	}

	if dir == DirV {
		column := make([]HomoPoint, 0, len(src.points))
		for _, row := range src.points {
			column = append(column, row[span])
		}
		return &Curve{src.degreeU, column, src.knotsU}
	}
	return &Curve{src.degreeV, src.points[span], src.knotsV}
}

// Boundaries returns the surface's four boundary curves: the two u-direction
// boundaries first, then the two v-direction ones.
func (s *Surface) Boundaries() []*Curve {
	return []*Curve{
		s.Isocurve(s.knotsU[0], DirU),
		s.Isocurve(s.knotsU[len(s.knotsU)-1], DirU),
		s.Isocurve(s.knotsV[0], DirV),
		s.Isocurve(s.knotsV[len(s.knotsV)-1], DirV),
	}
}

// Reverse returns a surface traced in the opposite direction of the chosen
// parameter.
func (s *Surface) Reverse(dir Direction) *Surface {
	if dir == DirV {
		grid := make([][]HomoPoint, len(s.points))
		for i, row := range s.points {
			rev := make([]HomoPoint, 0, len(row))
			for j := len(row) - 1; j >= 0; j-- {
				rev = append(rev, row[j])
			}
			grid[i] = rev
		}
		return &Surface{s.degreeU, s.degreeV, grid, s.knotsU.Clone(), s.knotsV.Reversed()}
	}

	grid := make([][]HomoPoint, 0, len(s.points))
	for i := len(s.points) - 1; i >= 0; i-- {
		grid = append(grid, append([]HomoPoint(nil), s.points[i]...))
	}
	return &Surface{s.degreeU, s.degreeV, grid, s.knotsU.Reversed(), s.knotsV.Clone()}
}

// Transform returns the surface with all control points transformed by the
// given matrix. Weights are preserved.
func (s *Surface) Transform(mat *mat4.T) *Surface {
	pts := dehomogenize2d(s.points)
	for i := range pts {
		for j := range pts[i] {
			pts[i][j] = mat.MulVec3(&pts[i][j])
		}
	}
	return &Surface{
		s.degreeU, s.degreeV,
		homogenize2d(pts, weights2d(s.points)),
		s.knotsU.Clone(), s.knotsV.Clone(),
	}
}

func transposeGrid(grid [][]HomoPoint) [][]HomoPoint {
	out := make([][]HomoPoint, len(grid[0]))
	for j := range out {
		out[j] = make([]HomoPoint, len(grid))
		for i := range grid {
			out[j][i] = grid[i][j]
		}
	}
	return out
}
