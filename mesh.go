package nurbs

import "github.com/ungerik/go3d/float64/vec3"

// Tri indexes three mesh vertices in counter-clockwise order.
type Tri [3]int

// A Mesh is an indexed triangle mesh with per-vertex normals and surface
// parameters, as produced by [Surface.Tessellate].
type Mesh struct {
	Faces   []Tri
	Points  []vec3.T
	Normals []vec3.T
	UVs     []UV
}

func newMesh() *Mesh {
	return &Mesh{
		Faces:   make([]Tri, 0),
		Points:  make([]vec3.T, 0),
		Normals: make([]vec3.T, 0),
		UVs:     make([]UV, 0),
	}
}

// addVertex appends a vertex and returns its index.
func (m *Mesh) addVertex(uv UV, pt, normal vec3.T) int {
	m.UVs = append(m.UVs, uv)
	m.Points = append(m.Points, pt)
	m.Normals = append(m.Normals, normal)
	return len(m.Points) - 1
}
