package nurbs

import (
	"math"
	"testing"

	"github.com/ungerik/go3d/float64/vec3"
)

func TestTessellatePlane(t *testing.T) {
	mesh := plane(t, 10).Tessellate(nil)

	// a flat surface stays at the 2x2 seed grid
	if len(mesh.Points) != 9 {
		t.Errorf("got %d vertices, want 9", len(mesh.Points))
	}
	if len(mesh.Faces) != 8 {
		t.Errorf("got %d faces, want 8", len(mesh.Faces))
	}
	for i, p := range mesh.Points {
		if p[2] != 0 {
			t.Errorf("vertex %d has z = %v, want 0", i, p[2])
		}
		assertNear(t, vec3.T{0, 0, 1}, mesh.Normals[i], 1e-12)
	}
}

func TestTessellateUniform(t *testing.T) {
	mesh := plane(t, 10).TessellateUniform(2, 3)

	if len(mesh.Points) != 12 {
		t.Errorf("got %d vertices, want 12", len(mesh.Points))
	}
	if len(mesh.Faces) != 12 {
		t.Errorf("got %d faces, want 12", len(mesh.Faces))
	}
}

func TestTessellateVerticesOnSurface(t *testing.T) {
	s := dome(t)
	mesh := s.Tessellate(nil)

	if len(mesh.Faces) <= 8 {
		t.Fatalf("got %d faces, expected the dome to refine", len(mesh.Faces))
	}
	for i, uv := range mesh.UVs {
		if uv[0] < 0 || uv[0] > 1 || uv[1] < 0 || uv[1] > 1 {
			t.Fatalf("vertex %d at uv %v outside the domain", i, uv)
		}
		assertNear(t, s.PointAt(uv[0], uv[1]), mesh.Points[i], 1e-9)
		if l := mesh.Normals[i].Length(); math.Abs(l-1) > 1e-9 {
			t.Errorf("vertex %d normal has length %v", i, l)
		}
	}
}

// quarterCylinder returns a surface curved along u only: the exact rational
// quarter-circle arc of the unit circle in the xz plane, swept along y.
func quarterCylinder(t *testing.T) *Surface {
	t.Helper()
	w := math.Sqrt2 / 2
	s, err := NewSurface(2, 1,
		[][]vec3.T{
			{{1, 0, 0}, {1, 1, 0}},
			{{1, 0, 1}, {1, 1, 1}},
			{{0, 0, 1}, {0, 1, 1}},
		},
		[][]float64{{1, 1}, {w, w}, {1, 1}},
		[]float64{0, 0, 0, 1, 1, 1},
		[]float64{0, 0, 1, 1})
	if err != nil {
		t.Fatal(err)
	}
	return s
}

// assertCrackFree checks that every mesh edge is shared by exactly two
// faces, unless it lies on the domain boundary. A T-junction, or a
// duplicated vertex on a shared patch edge, would leave an interior edge
// belonging to only one face.
func assertCrackFree(t *testing.T, mesh *Mesh) {
	t.Helper()

	type edge struct{ a, b int }
	counts := make(map[edge]int)
	for _, f := range mesh.Faces {
		for i := range 3 {
			a, b := f[i], f[(i+1)%3]
			if a > b {
				a, b = b, a
			}
			counts[edge{a, b}]++
		}
	}

	onBoundary := func(a, b int) bool {
		ua, va := mesh.UVs[a][0], mesh.UVs[a][1]
		ub, vb := mesh.UVs[b][0], mesh.UVs[b][1]
		return (ua == 0 && ub == 0) || (ua == 1 && ub == 1) ||
			(va == 0 && vb == 0) || (va == 1 && vb == 1)
	}

	for e, n := range counts {
		switch n {
		case 2:
		case 1:
			if !onBoundary(e.a, e.b) {
				t.Errorf("interior edge %v-%v belongs to only one face (crack)",
					mesh.UVs[e.a], mesh.UVs[e.b])
			}
		default:
			t.Errorf("edge %v-%v belongs to %d faces", mesh.UVs[e.a], mesh.UVs[e.b], n)
		}
	}
}

// assertLeavesTileDomain checks that the leaf patches partition the unit
// parameter domain exactly.
func assertLeavesTileDomain(t *testing.T, tree *tessTree) {
	t.Helper()

	var area float64
	for n := range tree.leaves() {
		c := tree.nodes[n].corners
		du := c[2].UV[0] - c[0].UV[0]
		dv := c[2].UV[1] - c[0].UV[1]
		if du <= 0 || dv <= 0 {
			t.Fatalf("leaf %d has degenerate extent %v x %v", n, du, dv)
		}
		area += du * dv
	}
	if math.Abs(area-1) > 1e-9 {
		t.Errorf("leaf areas sum to %v, want 1", area)
	}
}

// assertNeighborSymmetry checks that every neighbor reference points back at
// the node itself or one of its ancestors.
func assertNeighborSymmetry(t *testing.T, tree *tessTree) {
	t.Helper()

	parent := make([]int32, len(tree.nodes))
	for i := range parent {
		parent[i] = noNode
	}
	for i := range tree.nodes {
		for _, ch := range tree.nodes[i].children {
			if ch != noNode {
				parent[ch] = int32(i)
			}
		}
	}
	isAncestor := func(a, b int32) bool {
		for p := parent[b]; p != noNode; p = parent[p] {
			if p == a {
				return true
			}
		}
		return false
	}

	for n := range tree.nodes {
		for e, m := range tree.nodes[n].neighbors {
			if m == noNode {
				continue
			}
			back := tree.nodes[m].neighbors[(e+2)%4]
			if back != int32(n) && !isAncestor(back, int32(n)) {
				t.Errorf("node %d edge %d: neighbor %d points back at %d", n, e, m, back)
			}
		}
	}
}

func TestTessellateCrackFree(t *testing.T) {
	assertCrackFree(t, dome(t).Tessellate(nil))
}

func TestTessellateTreeInvariants(t *testing.T) {
	tree := newTessTree(dome(t), DefaultTessellateOptions())
	assertLeavesTileDomain(t, tree)
	assertNeighborSymmetry(t, tree)
}

// A surface curved in one parametric direction only must halve its patches
// in that direction alone.
func TestTessellateAnisotropic(t *testing.T) {
	s := quarterCylinder(t)
	opts := DefaultTessellateOptions()
	opts.NormTol = 1e-4

	tree := newTessTree(s, opts)

	splits := 0
	for i, nd := range tree.nodes {
		switch nd.kind {
		case leafNode:
		case splitU:
			splits++
		default:
			t.Fatalf("node %d has kind %d on a surface curved along u only", i, nd.kind)
		}
	}
	if splits == 0 {
		t.Fatal("expected the cylinder to refine")
	}

	leaves := 0
	for n := range tree.leaves() {
		leaves++
		c := tree.nodes[n].corners
		if dv := c[2].UV[1] - c[0].UV[1]; dv != 0.5 {
			t.Errorf("leaf %d has v extent %v, want the full seed height 0.5", n, dv)
		}
	}
	// each of the 4x2 seed patches is halved along u exactly once
	if leaves != 16 {
		t.Errorf("got %d leaves, want 16", leaves)
	}

	assertLeavesTileDomain(t, tree)
	assertNeighborSymmetry(t, tree)

	mesh := s.Tessellate(opts)
	if len(mesh.Points) != 27 {
		t.Errorf("got %d vertices, want 27", len(mesh.Points))
	}
	if len(mesh.Faces) != 32 {
		t.Errorf("got %d faces, want 32", len(mesh.Faces))
	}
	assertCrackFree(t, mesh)
}

func TestTessellateDepthLimits(t *testing.T) {
	// MinDepth forces even a flat surface to subdivide
	opts := DefaultTessellateOptions()
	opts.MinDepth = 1
	opts.MaxDepth = 1
	tree := newTessTree(plane(t, 10), opts)

	leaves := 0
	for n := range tree.leaves() {
		leaves++
		c := tree.nodes[n].corners
		du := c[2].UV[0] - c[0].UV[0]
		dv := c[2].UV[1] - c[0].UV[1]
		if du != 0.25 || dv != 0.25 {
			t.Errorf("leaf %d has extent %v x %v, want 0.25 x 0.25", n, du, dv)
		}
	}
	if leaves != 16 {
		t.Errorf("got %d leaves, want 16", leaves)
	}
	assertLeavesTileDomain(t, tree)

	// MaxDepth stops a curved surface at its seed grid
	opts = DefaultTessellateOptions()
	opts.MaxDepth = 0
	mesh := dome(t).Tessellate(opts)
	if len(mesh.Points) != 25 || len(mesh.Faces) != 32 {
		t.Errorf("got %d vertices and %d faces, want the 25 and 32 of the seed grid",
			len(mesh.Points), len(mesh.Faces))
	}
}

// A patch refined deeper than its neighbor introduces a vertex on the shared
// edge; the coarser side must pick it up in its boundary loop so that both
// sides triangulate against the same vertices.
func TestTessellateStitchAcrossDepths(t *testing.T) {
	for _, tc := range []struct {
		name             string
		splitTopLeft     bool // halve the top-left seed along u
		splitBottomRight bool // halve the bottom-right seed along v
		wantVerts        int
		wantFaces        int
	}{
		// the bottom-left seed sees one extra vertex and fans from it
		{"u-split above", true, false, 11, 11},
		{"v-split beside", false, true, 11, 11},
		// with both, it sees two and fans from its own center
		{"both", true, true, 14, 16},
	} {
		t.Run(tc.name, func(t *testing.T) {
			tree := newTessTree(plane(t, 10), DefaultTessellateOptions())
			if len(tree.nodes) != 4 {
				t.Fatalf("got %d seed patches, want 4", len(tree.nodes))
			}

			tree.opts.MinDepth = 1
			if tc.splitTopLeft {
				tree.nodes[0].splitVert = true
				tree.divide(0, 0)
			}
			if tc.splitBottomRight {
				tree.nodes[3].splitHoriz = true
				tree.divide(3, 0)
			}

			mesh := tree.triangulate()
			if len(mesh.Points) != tc.wantVerts {
				t.Errorf("got %d vertices, want %d", len(mesh.Points), tc.wantVerts)
			}
			if len(mesh.Faces) != tc.wantFaces {
				t.Errorf("got %d faces, want %d", len(mesh.Faces), tc.wantFaces)
			}
			assertCrackFree(t, mesh)
			assertNeighborSymmetry(t, tree)
		})
	}
}
