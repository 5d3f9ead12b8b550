package nurbs

// Tolerance is the default geometric tolerance, used where distances in
// model space are compared.
const Tolerance = 1e-6

// Epsilon is the default parametric and numeric tolerance, used where knot
// values and convergence residuals are compared.
const Epsilon = 1e-10

// UV is a position in a surface's two-dimensional parameter domain.
type UV [2]float64
