package nurbs

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/ungerik/go3d/float64/vec3"
)

func diff(t *testing.T, want, got any, opts ...cmp.Option) {
	t.Helper()
	if d := cmp.Diff(want, got, opts...); d != "" {
		t.Error(d)
	}
}

func assertNear(t *testing.T, want, got vec3.T, epsilon float64) {
	t.Helper()
	if d := vec3.Distance(&want, &got); d > epsilon {
		t.Fatalf("got %v, expected %v (off by %g)", got, want, d)
	}
}
