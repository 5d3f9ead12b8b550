// Package nurbs provides a NURBS (Non-Uniform Rational B-Spline) geometry
// kernel: rational curves and surfaces together with the numerical routines
// needed to refine, measure, and tessellate them.
//
// # Data model
//
// [Curve] and [Surface] are immutable value objects built from a degree, a
// clamped non-decreasing knot vector per parametric direction, and a grid of
// weighted control points. Control points are stored in homogeneous form
// (x·w, y·w, z·w, w) so that linear operations such as knot refinement remain
// weight-correct; they are dehomogenized on read. Every transforming
// operation returns a new instance, so values can be shared freely between
// goroutines without locking.
//
// Construction validates the degree, the control-point/knot count relation,
// and the knot vector shape, and is the only place in the package that
// reports hard errors. The numerical routines degrade gracefully instead:
// parameters are clamped to the domain (or wrapped for closed curves), and
// iterations that hit their cap return their best estimate.
//
// # Refinement
//
// [Curve.KnotRefine] inserts parameter values into a curve's knot vector
// without changing its shape or parametrization (Boehm's algorithm, A5.4 in
// Piegl & Tiller). [Curve.DecomposeBeziers] raises every interior knot to
// full multiplicity and slices the curve into Bézier segments, each bounded
// by the convex hull of its control points. [Surface.KnotRefine] applies the
// same machinery row-wise in either parametric direction, and [Curve.Split],
// [Surface.Split] and [Surface.Isocurve] are built on top of it.
//
// # Analysis
//
// Arc length is computed per Bézier segment with fixed-order Gauss–Legendre
// quadrature ([Curve.Length], [Curve.LengthAt]); [Curve.ParamAtLength]
// inverts it by walking segments and bisecting inside the one containing the
// target length. [Curve.ClosestParam] projects a point onto a curve with a
// chord-sampled coarse search followed by a bounded Newton–Raphson
// refinement; [Surface.ClosestParam] does the analogous 2×2 Newton iteration
// on a surface.
//
// # Tessellation
//
// [Surface.Tessellate] subdivides the parameter domain with an adaptive
// quadtree: each patch is split where the surface normal deviates from the
// interpolation of its corner normals by more than the configured tolerance
// ([TessellateOptions]), independently per parametric direction. Adjacent
// patches at
// different subdivision depths are stitched so that they share identical
// edge vertices, yielding a crack-free triangle mesh.
//
// # Literature
//
//   - The NURBS Book, Piegl & Tiller, 2nd edition (algorithms A2.1–A2.3,
//     A3.1–A3.6, A5.1, A5.4)
//   - [A Primer on Bézier Curves]
//   - [Adaptive sampling of parametric curves], de Figueiredo
//
// [A Primer on Bézier Curves]: https://pomax.github.io/bezierinfo/
// [Adaptive sampling of parametric curves]: https://lhf.impa.br/ftp/papers/gg5.pdf
package nurbs
