package nurbs

import (
	"iter"
	"math"

	"github.com/ungerik/go3d/float64/vec3"
)

// TessellateOptions configures adaptive surface tessellation.
type TessellateOptions struct {
	// NormTol is the squared normal-deviation threshold above which a patch
	// is subdivided.
	NormTol float64

	// MinDepth forces subdivision up to the given depth regardless of
	// flatness; MaxDepth stops it regardless of flatness.
	MinDepth int
	MaxDepth int

	// Refine enables flatness-driven subdivision. When false, the surface is
	// sampled on a uniform MinDivsU×MinDivsV grid instead.
	Refine bool

	// MinDivsU and MinDivsV set the minimum number of seed subdivisions per
	// parametric direction.
	MinDivsU int
	MinDivsV int
}

// DefaultTessellateOptions returns the options used when Tessellate is
// called with nil.
func DefaultTessellateOptions() *TessellateOptions {
	return &TessellateOptions{
		NormTol:  2.5e-2,
		MinDepth: 0,
		MaxDepth: 10,
		Refine:   true,
		MinDivsU: 1,
		MinDivsV: 1,
	}
}

// Tessellate approximates the surface with a triangle mesh. Patches are
// subdivided until their normals deviate less than opts.NormTol, and
// adjoining patches of different refinement depth share their boundary
// vertices, so the mesh has no T-junction cracks. A nil opts uses
// [DefaultTessellateOptions].
func (s *Surface) Tessellate(opts *TessellateOptions) *Mesh {
	if opts == nil {
		opts = DefaultTessellateOptions()
	}
	if !opts.Refine {
		return s.TessellateUniform(opts.MinDivsU, opts.MinDivsV)
	}
	return newTessTree(s, opts).triangulate()
}

// TessellateUniform samples the surface on a regular divsU×divsV parametric
// grid and triangulates each cell with two triangles.
func (s *Surface) TessellateUniform(divsU, divsV int) *Mesh {
	divsU = max(divsU, 1)
	divsV = max(divsV, 1)

	minU, maxU := s.DomainU()
	minV, maxV := s.DomainV()
	du := (maxU - minU) / float64(divsU)
	dv := (maxV - minV) / float64(divsV)

	mesh := newMesh()
	for i := 0; i <= divsU; i++ {
		for j := 0; j <= divsV; j++ {
			uv := UV{minU + du*float64(i), minV + dv*float64(j)}
			sp := s.evalTessPoint(uv)
			mesh.addVertex(uv, sp.Point, sp.Normal)
		}
	}

	for i := 0; i < divsU; i++ {
		for j := 0; j < divsV; j++ {
			a := i*(divsV+1) + j
			b := (i+1)*(divsV+1) + j
			c := (i+1)*(divsV+1) + j + 1
			d := i*(divsV+1) + j + 1
			mesh.Faces = append(mesh.Faces, Tri{a, b, c}, Tri{c, d, a})
		}
	}
	return mesh
}

// A surfacePoint is an evaluated surface sample shared between the patches
// that border it. The id caches the sample's mesh vertex index once
// assigned, which is what makes adjoining patches reference identical
// vertices.
type surfacePoint struct {
	UV     UV
	Point  vec3.T
	Normal vec3.T
	id     int
	degen  bool
}

// evalTessPoint evaluates position and unit normal at uv. A vanishing
// cross product marks the sample as degenerate and leaves the normal
// unnormalized.
func (s *Surface) evalTessPoint(uv UV) *surfacePoint {
	ders := s.Derivatives(uv[0], uv[1], 1)
	norm := vec3.Cross(&ders[1][0], &ders[0][1])

	degen := true
	for _, c := range norm {
		if math.Abs(c) > Tolerance {
			degen = false
			break
		}
	}
	if !degen {
		norm.Normalize()
	}

	return &surfacePoint{UV: uv, Point: ders[0][0], Normal: norm, id: -1, degen: degen}
}

type nodeKind uint8

const (
	leafNode  nodeKind = iota
	splitQuad          // four children in quadrant order
	splitU             // two children, left and right
	splitV             // two children, bottom and top
)

// noNode marks an empty child or neighbor slot.
const noNode = int32(-1)

// Edge and corner indices run counter-clockwise from the lower-left:
//
//	          edge 2
//	    3 ----- m2 ----- 2
//	    |                |
//	e   m3    center     m1  e
//	d   |                |   d
//	g   0 ----- m0 ----- 1   g
//	e         edge 0         e
//	3                        1
//
// corner i is the start of edge i when walking the boundary
// counter-clockwise.
type tessNode struct {
	kind      nodeKind
	children  [4]int32
	neighbors [4]int32 // south, east, north, west

	corners   [4]*surfacePoint
	midPoints [4]*surfacePoint
	centerPt  *surfacePoint
	uv05      UV

	splitVert, splitHoriz bool
}

func (nd *tessNode) hasBadNormals() bool {
	return nd.corners[0].degen || nd.corners[1].degen || nd.corners[2].degen || nd.corners[3].degen
}

// fixNormals replaces each degenerate corner normal with that of an
// adjacent non-degenerate corner.
func (nd *tessNode) fixNormals() {
	for i := range nd.corners {
		if !nd.corners[i].degen {
			continue
		}
		v1 := nd.corners[(i+1)%4]
		v2 := nd.corners[(i+3)%4]
		if v1.degen {
			nd.corners[i].Normal = v2.Normal
		} else {
			nd.corners[i].Normal = v1.Normal
		}
	}
}

// A tessTree is a quadtree of surface patches. Nodes live in a flat arena
// and reference their children and edge neighbors by index, so the
// inherently cyclic neighbor graph has a single ownership root. The tree is
// mutated only while it is built; triangulation treats it as read-only
// apart from vertex id assignment.
type tessTree struct {
	srf   *Surface
	opts  *TessellateOptions
	nodes []tessNode
	seeds int32 // nodes[:seeds] are the roots of the initial grid

	// samples interns surface samples by parameter value. Patches on either
	// side of a shared edge evaluate their midpoints at bitwise-identical
	// parameters, so interning makes them reference the same sample object
	// and with it the same mesh vertex.
	samples map[UV]*surfacePoint
}

// sample returns the interned surface sample at uv, evaluating it on first
// use.
func (t *tessTree) sample(uv UV) *surfacePoint {
	if sp, ok := t.samples[uv]; ok {
		return sp
	}
	sp := t.srf.evalTessPoint(uv)
	t.samples[uv] = sp
	return sp
}

// newTessTree seeds the tree with a uniform grid of patches, at least two
// per control point span in each direction, and adaptively divides each of
// them.
func newTessTree(s *Surface, opts *TessellateOptions) *tessTree {
	divsU := max(opts.MinDivsU, 2*(len(s.points)-1), 1)
	divsV := max(opts.MinDivsV, 2*(len(s.points[0])-1), 1)

	minU, maxU := s.DomainU()
	minV, maxV := s.DomainV()
	du := (maxU - minU) / float64(divsU)
	dv := (maxV - minV) / float64(divsV)

	t := &tessTree{
		srf:     s,
		opts:    opts,
		nodes:   make([]tessNode, 0, divsU*divsV),
		seeds:   int32(divsU * divsV),
		samples: make(map[UV]*surfacePoint),
	}

	pts := make([][]*surfacePoint, divsV+1)
	for i := range pts {
		pts[i] = make([]*surfacePoint, divsU+1)
		for j := range pts[i] {
			pts[i][j] = t.sample(UV{minU + du*float64(j), minV + dv*float64(i)})
		}
	}

	// seed patches in row-major order, top row first
	for i := 0; i < divsV; i++ {
		for j := 0; j < divsU; j++ {
			t.addNode([4]*surfacePoint{
				pts[divsV-i-1][j],
				pts[divsV-i-1][j+1],
				pts[divsV-i][j+1],
				pts[divsV-i][j],
			}, [4]int32{noNode, noNode, noNode, noNode})
		}
	}

	// the seed grid's neighbor references are symmetric by construction
	for i := 0; i < divsV; i++ {
		for j := 0; j < divsU; j++ {
			ci := int32(i*divsU + j)
			nb := &t.nodes[ci].neighbors
			if i < divsV-1 {
				nb[0] = ci + int32(divsU)
			}
			if j < divsU-1 {
				nb[1] = ci + 1
			}
			if i > 0 {
				nb[2] = ci - int32(divsU)
			}
			if j > 0 {
				nb[3] = ci - 1
			}
		}
	}

	for ci := int32(0); ci < t.seeds; ci++ {
		t.divide(ci, 0)
	}
	return t
}

// addNode appends a fully evaluated leaf to the arena and returns its
// index.
func (t *tessTree) addNode(corners [4]*surfacePoint, neighbors [4]int32) int32 {
	t.nodes = append(t.nodes, tessNode{
		kind:      leafNode,
		children:  [4]int32{noNode, noNode, noNode, noNode},
		neighbors: neighbors,
		corners:   corners,
		uv05: UV{
			(corners[0].UV[0] + corners[2].UV[0]) / 2,
			(corners[0].UV[1] + corners[2].UV[1]) / 2,
		},
	})
	return int32(len(t.nodes) - 1)
}

// midpoint lazily evaluates the surface at the middle of the given edge.
func (t *tessTree) midpoint(n int32, edge int) *surfacePoint {
	if mp := t.nodes[n].midPoints[edge]; mp != nil {
		return mp
	}

	nd := &t.nodes[n]
	var uv UV
	switch edge {
	case 0:
		uv = UV{nd.uv05[0], nd.corners[0].UV[1]}
	case 1:
		uv = UV{nd.corners[1].UV[0], nd.uv05[1]}
	case 2:
		uv = UV{nd.uv05[0], nd.corners[2].UV[1]}
	case 3:
		uv = UV{nd.corners[0].UV[0], nd.uv05[1]}
	}
	nd.midPoints[edge] = t.sample(uv)
	return nd.midPoints[edge]
}

// center lazily evaluates the surface at the middle of the patch.
func (t *tessTree) center(n int32) *surfacePoint {
	if t.nodes[n].centerPt == nil {
		t.nodes[n].centerPt = t.sample(t.nodes[n].uv05)
	}
	return t.nodes[n].centerPt
}

// edgeDeviation reports whether the normal at the middle of the given edge
// deviates from the interpolation of the edge's corner normals by more than
// the tolerance.
func (t *tessTree) edgeDeviation(n int32, edge int) bool {
	mp := t.midpoint(n, edge)
	if mp.degen {
		return false
	}
	a := t.nodes[n].corners[edge].Normal
	b := t.nodes[n].corners[(edge+1)%4].Normal
	interp := vec3.Add(&a, &b)
	interp.Scale(0.5)

	diff := vec3.Sub(&mp.Normal, &interp)
	return diff.LengthSqr() > t.opts.NormTol
}

// shouldDivide decides whether to subdivide and, for patches curved in only
// one parametric direction, records which direction via the splitVert and
// splitHoriz flags.
func (t *tessTree) shouldDivide(n int32, depth int) bool {
	if depth < t.opts.MinDepth {
		return true
	}
	if depth >= t.opts.MaxDepth {
		return false
	}

	nd := &t.nodes[n]
	if nd.hasBadNormals() {
		nd.fixNormals()
		// a degenerate normal means further division cannot converge
		return false
	}

	// deviation along u (south and north edges) wants a vertical split,
	// deviation along v (east and west edges) a horizontal one
	nd.splitVert = t.edgeDeviation(n, 0) || t.edgeDeviation(n, 2)
	nd.splitHoriz = t.edgeDeviation(n, 1) || t.edgeDeviation(n, 3)
	if nd.splitVert || nd.splitHoriz {
		return true
	}

	center := t.center(n)
	if center.degen {
		return false
	}
	var interp vec3.T
	for _, c := range nd.corners {
		interp.Add(&c.Normal)
	}
	interp.Scale(0.25)
	diff := vec3.Sub(&center.Normal, &interp)
	return diff.LengthSqr() > t.opts.NormTol
}

// divide recursively subdivides the patch. A patch curved in only one
// direction is halved in that direction alone; otherwise it is split into
// four quadrants. Children inherit the parent's outer neighbors, so a
// child's neighbor on an outer edge is the adjacent patch at the parent's
// depth or shallower.
func (t *tessTree) divide(n int32, depth int) {
	if !t.shouldDivide(n, depth) {
		return
	}
	depth++

	kind := splitQuad
	switch {
	case t.nodes[n].splitVert && !t.nodes[n].splitHoriz:
		kind = splitU
	case t.nodes[n].splitHoriz && !t.nodes[n].splitVert:
		kind = splitV
	}

	// copy before appending, the arena may grow
	c := t.nodes[n].corners
	nb := t.nodes[n].neighbors

	switch kind {
	case splitU:
		m0, m2 := t.midpoint(n, 0), t.midpoint(n, 2)

		left := t.addNode(
			[4]*surfacePoint{c[0], m0, m2, c[3]},
			[4]int32{nb[0], noNode, nb[2], nb[3]},
		)
		right := t.addNode(
			[4]*surfacePoint{m0, c[1], c[2], m2},
			[4]int32{nb[0], nb[1], nb[2], left},
		)
		t.nodes[left].neighbors[1] = right

		t.nodes[n].kind = splitU
		t.nodes[n].children = [4]int32{left, right, noNode, noNode}

	case splitV:
		m1, m3 := t.midpoint(n, 1), t.midpoint(n, 3)

		bottom := t.addNode(
			[4]*surfacePoint{c[0], c[1], m1, m3},
			[4]int32{nb[0], nb[1], noNode, nb[3]},
		)
		top := t.addNode(
			[4]*surfacePoint{m3, m1, c[2], c[3]},
			[4]int32{bottom, nb[1], nb[2], nb[3]},
		)
		t.nodes[bottom].neighbors[2] = top

		t.nodes[n].kind = splitV
		t.nodes[n].children = [4]int32{bottom, top, noNode, noNode}

	default:
		m0, m1 := t.midpoint(n, 0), t.midpoint(n, 1)
		m2, m3 := t.midpoint(n, 2), t.midpoint(n, 3)
		ctr := t.center(n)

		ll := t.addNode(
			[4]*surfacePoint{c[0], m0, ctr, m3},
			[4]int32{nb[0], noNode, noNode, nb[3]},
		)
		lr := t.addNode(
			[4]*surfacePoint{m0, c[1], m1, ctr},
			[4]int32{nb[0], nb[1], noNode, ll},
		)
		ur := t.addNode(
			[4]*surfacePoint{ctr, m1, c[2], m2},
			[4]int32{lr, nb[1], nb[2], noNode},
		)
		ul := t.addNode(
			[4]*surfacePoint{m3, ctr, m2, c[3]},
			[4]int32{ll, ur, nb[2], nb[3]},
		)
		t.nodes[ll].neighbors[1] = lr
		t.nodes[ll].neighbors[2] = ul
		t.nodes[lr].neighbors[2] = ur
		t.nodes[ur].neighbors[3] = ul

		t.nodes[n].kind = splitQuad
		t.nodes[n].children = [4]int32{ll, lr, ur, ul}
	}

	for _, ch := range t.nodes[n].children {
		if ch != noNode {
			t.divide(ch, depth)
		}
	}
}

// leaves yields the indices of all leaf patches in depth-first order.
func (t *tessTree) leaves() iter.Seq[int32] {
	return func(yield func(int32) bool) {
		var walk func(n int32) bool
		walk = func(n int32) bool {
			if t.nodes[n].kind == leafNode {
				return yield(n)
			}
			for _, ch := range t.nodes[n].children {
				if ch != noNode && !walk(ch) {
					return false
				}
			}
			return true
		}
		for n := int32(0); n < t.seeds; n++ {
			if !walk(n) {
				return
			}
		}
	}
}

// edgeCorners collects the samples along the given edge of the subtree
// rooted at n, in counter-clockwise boundary order, one per leaf touching
// the edge.
func (t *tessTree) edgeCorners(n int32, edge int) []*surfacePoint {
	nd := &t.nodes[n]
	if nd.kind == leafNode {
		return []*surfacePoint{nd.corners[edge]}
	}

	// which children border the edge, in counter-clockwise order
	var onEdge []int32
	switch nd.kind {
	case splitQuad:
		switch edge {
		case 0:
			onEdge = []int32{nd.children[0], nd.children[1]}
		case 1:
			onEdge = []int32{nd.children[1], nd.children[2]}
		case 2:
			onEdge = []int32{nd.children[2], nd.children[3]}
		case 3:
			onEdge = []int32{nd.children[3], nd.children[0]}
		}
	case splitU:
		switch edge {
		case 0:
			onEdge = []int32{nd.children[0], nd.children[1]}
		case 1:
			onEdge = []int32{nd.children[1]}
		case 2:
			onEdge = []int32{nd.children[1], nd.children[0]}
		case 3:
			onEdge = []int32{nd.children[0]}
		}
	case splitV:
		switch edge {
		case 0:
			onEdge = []int32{nd.children[0]}
		case 1:
			onEdge = []int32{nd.children[0], nd.children[1]}
		case 2:
			onEdge = []int32{nd.children[1]}
		case 3:
			onEdge = []int32{nd.children[1], nd.children[0]}
		}
	}

	var out []*surfacePoint
	for _, ch := range onEdge {
		out = append(out, t.edgeCorners(ch, edge)...)
	}
	return out
}

// allCorners returns the leaf's own corner at the start of the given edge
// followed by the vertices a deeper-refined neighbor has introduced on that
// edge, in counter-clockwise order. Adjoining leaves thereby emit identical
// boundary vertices, which keeps the extracted mesh free of T-junction
// cracks.
func (t *tessTree) allCorners(n int32, edge int) []*surfacePoint {
	nd := &t.nodes[n]
	base := []*surfacePoint{nd.corners[edge]}

	if nd.neighbors[edge] == noNode {
		return base
	}

	// the neighbor walks the shared edge in the opposite direction, so its
	// corners come back reversed; drop those outside this leaf's edge range
	corners := t.edgeCorners(nd.neighbors[edge], (edge+2)%4)

	inRange := func(sp *surfacePoint) bool {
		if edge%2 == 0 {
			return sp.UV[0] > nd.corners[0].UV[0]+Epsilon && sp.UV[0] < nd.corners[2].UV[0]-Epsilon
		}
		return sp.UV[1] > nd.corners[0].UV[1]+Epsilon && sp.UV[1] < nd.corners[2].UV[1]-Epsilon
	}

	for i := len(corners) - 1; i >= 0; i-- {
		if inRange(corners[i]) {
			base = append(base, corners[i])
		}
	}
	return base
}

// triangulate flattens the tree into an indexed triangle mesh.
func (t *tessTree) triangulate() *Mesh {
	mesh := newMesh()
	for n := range t.leaves() {
		t.triangulateLeaf(n, mesh)
	}
	return mesh
}

func (t *tessTree) triangulateLeaf(n int32, mesh *Mesh) {
	// walk the boundary counter-clockwise, including vertices introduced by
	// deeper-refined neighbors
	var loop []*surfacePoint
	splitid := 0
	for edge := 0; edge < 4; edge++ {
		corners := t.allCorners(n, edge)
		if len(corners) == 2 {
			splitid = edge + 1
		}
		loop = append(loop, corners...)
	}

	ids := make([]int, len(loop))
	for i, sp := range loop {
		if sp.id == -1 {
			sp.id = mesh.addVertex(sp.UV, sp.Point, sp.Normal)
		}
		ids[i] = sp.id
	}

	switch len(loop) {
	case 4:
		mesh.Faces = append(mesh.Faces,
			Tri{ids[0], ids[1], ids[3]},
			Tri{ids[3], ids[1], ids[2]},
		)

	case 5:
		// fan out from the split vertex
		il := len(ids)
		mesh.Faces = append(mesh.Faces,
			Tri{ids[splitid], ids[(splitid+1)%il], ids[(splitid+2)%il]},
			Tri{ids[splitid], ids[(splitid+2)%il], ids[(splitid+3)%il]},
			Tri{ids[splitid], ids[(splitid+3)%il], ids[(splitid+4)%il]},
		)

	default:
		// fan out from the patch center
		ctr := t.center(n)
		if ctr.id == -1 {
			ctr.id = mesh.addVertex(ctr.UV, ctr.Point, ctr.Normal)
		}
		j := len(loop) - 1
		for i := 0; i < len(loop); i++ {
			mesh.Faces = append(mesh.Faces, Tri{ctr.id, ids[j], ids[i]})
			j = i
		}
	}
}
