package nurbs_test

import (
	"fmt"
	"math"

	"github.com/ungerik/go3d/float64/vec3"

	"honnef.co/go/nurbs"
)

// Build the exact rational Bézier arc of a quarter circle and measure it.
func Example() {
	arc, err := nurbs.NewCurve(2,
		[]vec3.T{{1, 0, 0}, {1, 1, 0}, {0, 1, 0}},
		[]float64{1, math.Sqrt2 / 2, 1},
		[]float64{0, 0, 0, 1, 1, 1})
	if err != nil {
		panic(err)
	}

	mid := arc.PointAt(0.5)
	fmt.Printf("midpoint: (%.4f, %.4f)\n", mid[0], mid[1])
	fmt.Printf("length: %.6f\n", arc.Length())
	fmt.Printf("half length at: %.4f\n", arc.ParamAtLength(arc.Length()/2, 1e-9))

	// Output:
	// midpoint: (0.7071, 0.7071)
	// length: 1.570796
	// half length at: 0.5000
}

func ExampleCurve_ClosestPoint() {
	line, err := nurbs.NewCurve(1,
		[]vec3.T{{0, 0, 0}, {30, 45, 0}},
		nil,
		[]float64{0, 0, 1, 1})
	if err != nil {
		panic(err)
	}

	pt := line.ClosestPoint(vec3.T{10, 20, 0})
	fmt.Printf("(%.4f, %.4f, %.4f)\n", pt[0], pt[1], pt[2])
	// Output:
	// (12.3077, 18.4615, 0.0000)
}
