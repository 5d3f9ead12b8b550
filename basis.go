package nurbs

// basisFunctions computes the non-vanishing B-spline basis functions at u
// for the given knot span.
//
// This is algorithm A2.2 from The NURBS Book (Piegl & Tiller).
func basisFunctions(span int, u float64, degree int, knots KnotVector) []float64 {
	vals := make([]float64, degree+1)
	left := make([]float64, degree+1)
	right := make([]float64, degree+1)

	vals[0] = 1
	for j := 1; j <= degree; j++ {
		left[j] = u - knots[span+1-j]
		right[j] = knots[span+j] - u
		var saved float64
		for r := 0; r < j; r++ {
			temp := vals[r] / (right[r+1] + left[j-r])
			vals[r] = saved + right[r+1]*temp
			saved = left[j-r] * temp
		}
		vals[j] = saved
	}
	return vals
}

// derivativeBasisFunctions computes the non-vanishing basis functions and
// their derivatives up to order n at u. Row k of the result holds the kth
// derivatives; row 0 holds the basis function values.
//
// This is algorithm A2.3 from The NURBS Book (Piegl & Tiller).
func derivativeBasisFunctions(span int, u float64, p, n int, knots KnotVector) [][]float64 {
	ndu := zeros2d(p+1, p+1)
	left := make([]float64, p+1)
	right := make([]float64, p+1)

	ndu[0][0] = 1
	for j := 1; j <= p; j++ {
		left[j] = u - knots[span+1-j]
		right[j] = knots[span+j] - u
		var saved float64
		for r := 0; r < j; r++ {
			ndu[j][r] = right[r+1] + left[j-r]
			temp := ndu[r][j-1] / ndu[j][r]
			ndu[r][j] = saved + right[r+1]*temp
			saved = left[j-r] * temp
		}
		ndu[j][j] = saved
	}

	ders := zeros2d(n+1, p+1)
	for j := 0; j <= p; j++ {
		ders[0][j] = ndu[j][p]
	}

	a := zeros2d(2, p+1)
	for r := 0; r <= p; r++ {
		s1, s2 := 0, 1
		a[0][0] = 1

		for k := 1; k <= n; k++ {
			var d float64
			rk := r - k
			pk := p - k

			if r >= k {
				a[s2][0] = a[s1][0] / ndu[pk+1][rk]
				d = a[s2][0] * ndu[rk][pk]
			}

			var j1, j2 int
			if rk >= -1 {
				j1 = 1
			} else {
				j1 = -rk
			}
			if r-1 <= pk {
				j2 = k - 1
			} else {
				j2 = p - r
			}

			for j := j1; j <= j2; j++ {
				a[s2][j] = (a[s1][j] - a[s1][j-1]) / ndu[pk+1][rk+j]
				d += a[s2][j] * ndu[rk+j][pk]
			}

			if r <= pk {
				a[s2][k] = -a[s1][k-1] / ndu[pk+1][r]
				d += a[s2][k] * ndu[r][pk]
			}

			ders[k][r] = d
			s1, s2 = s2, s1
		}
	}

	acc := p
	for k := 1; k <= n; k++ {
		for j := 0; j <= p; j++ {
			ders[k][j] *= float64(acc)
		}
		acc *= p - k
	}
	return ders
}

func zeros2d(n, m int) [][]float64 {
	out := make([][]float64, n)
	for i := range out {
		out[i] = make([]float64, m)
	}
	return out
}
