package nurbs

import "math"

// maxGaussDegree is the highest quadrature degree the package tables cover.
// Arc-length quadrature uses degree curveDegree+16 by default, so this
// accommodates curves up to degree 48; higher degrees clamp to this rule.
const maxGaussDegree = 64

// Process-wide Gauss–Legendre tables, indexed by quadrature degree. They are
// built once before first use and never mutated, so concurrent readers need
// no locking. Cf. the tabulated coefficients at
// https://pomax.github.io/bezierinfo/legendre-gauss.html
var (
	gaussAbscissae [maxGaussDegree + 1][]float64
	gaussWeights   [maxGaussDegree + 1][]float64
)

func init() {
	for n := 2; n <= maxGaussDegree; n++ {
		gaussAbscissae[n], gaussWeights[n] = legendreRule(n)
	}
}

// legendreRule computes the abscissae and weights of the n-point
// Gauss–Legendre rule on [-1, 1]: the roots of the nth Legendre polynomial,
// found by Newton iteration seeded with the Chebyshev estimate, and the
// weights 2 / ((1-x²) P'ₙ(x)²).
func legendreRule(n int) (x, w []float64) {
	x = make([]float64, n)
	w = make([]float64, n)

	for i := 0; i < (n+1)/2; i++ {
		z := math.Cos(math.Pi * (float64(i) + 0.75) / (float64(n) + 0.5))

		var dp float64
		for range 64 {
			// evaluate Pₙ and Pₙ₋₁ by the three-term recurrence
			p, pm1 := 1.0, 0.0
			for j := 0; j < n; j++ {
				p, pm1 = ((2*float64(j)+1)*z*p-float64(j)*pm1)/float64(j+1), p
			}
			dp = float64(n) * (z*p - pm1) / (z*z - 1)

			step := p / dp
			z -= step
			if math.Abs(step) < 1e-15 {
				break
			}
		}

		x[i] = -z
		x[n-1-i] = z
		w[i] = 2 / ((1 - z*z) * dp * dp)
		w[n-1-i] = w[i]
	}
	return x, w
}

// gaussDegree clamps a requested quadrature degree to the table range.
func gaussDegree(g int) int {
	if g < 2 {
		return 2
	}
	if g > maxGaussDegree {
		return maxGaussDegree
	}
	return g
}
