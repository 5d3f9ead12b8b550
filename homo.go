package nurbs

import "github.com/ungerik/go3d/float64/vec3"

// A HomoPoint is a control point in homogeneous form: the position scaled by
// its weight, with the weight carried as a fourth coordinate. Linear
// operations on homogeneous points (such as knot refinement) are
// weight-correct for rational curves.
type HomoPoint struct {
	Pos vec3.T
	W   float64
}

// Homogenize scales pt by w and attaches the weight.
func Homogenize(pt vec3.T, w float64) HomoPoint {
	return HomoPoint{pt.Scaled(w), w}
}

// Dehomogenized returns the Euclidean position of the point.
func (hp HomoPoint) Dehomogenized() vec3.T {
	return hp.Pos.Scaled(1 / hp.W)
}

func (hp *HomoPoint) add(other *HomoPoint) {
	hp.Pos.Add(&other.Pos)
	hp.W += other.W
}

func (hp *HomoPoint) scale(s float64) {
	hp.Pos.Scale(s)
	hp.W *= s
}

// homoLerp linearly interpolates between two homogeneous points.
func homoLerp(a, b *HomoPoint, t float64) HomoPoint {
	return HomoPoint{
		vec3.Interpolate(&a.Pos, &b.Pos, t),
		(1-t)*a.W + t*b.W,
	}
}

func homogenize1d(pts []vec3.T, weights []float64) []HomoPoint {
	out := make([]HomoPoint, len(pts))
	for i, pt := range pts {
		w := 1.0
		if weights != nil {
			w = weights[i]
		}
		out[i] = Homogenize(pt, w)
	}
	return out
}

func homogenize2d(pts [][]vec3.T, weights [][]float64) [][]HomoPoint {
	out := make([][]HomoPoint, len(pts))
	for i := range out {
		if weights != nil {
			out[i] = homogenize1d(pts[i], weights[i])
		} else {
			out[i] = homogenize1d(pts[i], nil)
		}
	}
	return out
}

func dehomogenize1d(hpts []HomoPoint) []vec3.T {
	out := make([]vec3.T, len(hpts))
	for i := range hpts {
		out[i] = hpts[i].Dehomogenized()
	}
	return out
}

func dehomogenize2d(hpts [][]HomoPoint) [][]vec3.T {
	out := make([][]vec3.T, len(hpts))
	for i := range out {
		out[i] = dehomogenize1d(hpts[i])
	}
	return out
}

func weights1d(hpts []HomoPoint) []float64 {
	out := make([]float64, len(hpts))
	for i := range hpts {
		out[i] = hpts[i].W
	}
	return out
}

func weights2d(hpts [][]HomoPoint) [][]float64 {
	out := make([][]float64, len(hpts))
	for i := range out {
		out[i] = weights1d(hpts[i])
	}
	return out
}
