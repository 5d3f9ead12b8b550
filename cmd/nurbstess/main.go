// nurbstess tessellates a NURBS surface into a Wavefront OBJ triangle mesh.
//
// The input is a YAML file describing the surface:
//
//	degreeU: 3
//	degreeV: 3
//	knotsU: [0, 0, 0, 0, 1, 1, 1, 1]
//	knotsV: [0, 0, 0, 0, 1, 1, 1, 1]
//	points:          # rows indexed by u, columns by v; [x, y, z] or [x, y, z, w]
//	  - [[0, 0, 0], [0, 1, 0], ...]
//	  - ...
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/ungerik/go3d/float64/vec3"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"honnef.co/go/nurbs"
	"honnef.co/go/nurbs/internal/logger"
)

func main() {
	var (
		in       = flag.String("in", "", "surface description (YAML, required)")
		out      = flag.String("out", "mesh.obj", "output OBJ file")
		tol      = flag.Float64("tol", 0, "normal deviation tolerance (0 for default)")
		minDepth = flag.Int("min-depth", 0, "forced subdivision depth")
		maxDepth = flag.Int("max-depth", 10, "subdivision depth cap")
		uniform  = flag.Bool("uniform", false, "uniform grid instead of adaptive refinement")
		divsU    = flag.Int("divs-u", 1, "minimum subdivisions in u")
		divsV    = flag.Int("divs-v", 1, "minimum subdivisions in v")
		logLevel = flag.String("log-level", "info", "log level (debug, info, warn, error)")
		logFile  = flag.String("log-file", "", "mirror log output to a rotated file")
	)
	flag.Parse()

	logger.Init(*logLevel, *logFile)
	defer logger.Sync()
	log := logger.Log

	if *in == "" {
		flag.Usage()
		os.Exit(2)
	}

	srf, err := loadSurface(*in)
	if err != nil {
		log.Fatal("loading surface", zap.String("file", *in), zap.Error(err))
	}

	opts := nurbs.DefaultTessellateOptions()
	if *tol > 0 {
		opts.NormTol = *tol
	}
	opts.MinDepth = *minDepth
	opts.MaxDepth = *maxDepth
	opts.Refine = !*uniform
	opts.MinDivsU = *divsU
	opts.MinDivsV = *divsV

	start := time.Now()
	mesh := srf.Tessellate(opts)
	log.Info("tessellated",
		zap.String("file", *in),
		zap.Int("vertices", len(mesh.Points)),
		zap.Int("faces", len(mesh.Faces)),
		zap.Duration("took", time.Since(start)))

	if err := writeOBJ(*out, mesh); err != nil {
		log.Fatal("writing mesh", zap.String("file", *out), zap.Error(err))
	}
	log.Info("wrote mesh", zap.String("file", *out))
}

// surfaceDesc is the YAML description of a surface. Control points carry 3
// coordinates, or 4 with a trailing weight.
type surfaceDesc struct {
	DegreeU int           `yaml:"degreeU"`
	DegreeV int           `yaml:"degreeV"`
	KnotsU  []float64     `yaml:"knotsU"`
	KnotsV  []float64     `yaml:"knotsV"`
	Points  [][][]float64 `yaml:"points"`
}

func loadSurface(path string) (*nurbs.Surface, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var desc surfaceDesc
	if err := yaml.Unmarshal(raw, &desc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	points := make([][]vec3.T, len(desc.Points))
	weights := make([][]float64, len(desc.Points))
	for i, row := range desc.Points {
		points[i] = make([]vec3.T, len(row))
		weights[i] = make([]float64, len(row))
		for j, p := range row {
			switch len(p) {
			case 3:
				points[i][j] = vec3.T{p[0], p[1], p[2]}
				weights[i][j] = 1
			case 4:
				points[i][j] = vec3.T{p[0], p[1], p[2]}
				weights[i][j] = p[3]
			default:
				return nil, fmt.Errorf("point [%d][%d] has %d components, want 3 or 4", i, j, len(p))
			}
		}
	}

	return nurbs.NewSurface(desc.DegreeU, desc.DegreeV, points, weights, desc.KnotsU, desc.KnotsV)
}

// writeOBJ emits the mesh as Wavefront OBJ with positions, texture
// coordinates (the surface parameters), and normals.
func writeOBJ(path string, mesh *nurbs.Mesh) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(f)
	fmt.Fprintln(w, "# generated by nurbstess")
	for _, p := range mesh.Points {
		fmt.Fprintf(w, "v %g %g %g\n", p[0], p[1], p[2])
	}
	for _, uv := range mesh.UVs {
		fmt.Fprintf(w, "vt %g %g\n", uv[0], uv[1])
	}
	for _, n := range mesh.Normals {
		fmt.Fprintf(w, "vn %g %g %g\n", n[0], n[1], n[2])
	}
	for _, t := range mesh.Faces {
		// OBJ indices are 1-based
		fmt.Fprintf(w, "f %d/%d/%d %d/%d/%d %d/%d/%d\n",
			t[0]+1, t[0]+1, t[0]+1,
			t[1]+1, t[1]+1, t[1]+1,
			t[2]+1, t[2]+1, t[2]+1)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
