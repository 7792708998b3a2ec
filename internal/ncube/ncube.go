// Package ncube generates the vertices, edges and triangulated square faces of an
// n-dimensional hypercube and rotates its vertices in any number of coordinate planes.
package ncube

import (
	"fmt"

	"github.com/coreman2200/funtimes-ncube/internal/mat"
)

// NCube is an n-dimensional hypercube of edge length Size centered on the origin.
// Edges and Faces are fixed by the dimension; Vertices move as the cube rotates.
type NCube struct {
	Dimension int
	Size      float64
	Vertices  Vertices
	Edges     []Edge
	Faces     []Face
}

// ValidDimension reports whether n is in [MinDimension, MaxDimension].
func ValidDimension(n int) bool {
	return n >= MinDimension && n <= MaxDimension
}

// New creates an n-dimensional hypercube of size s. Callers validate n first;
// an unsupported dimension here is a bug and panics.
func New(n int, s float64) *NCube {
	if !ValidDimension(n) {
		panic(fmt.Sprintf("ncube: dimension %d outside [%d, %d]", n, MinDimension, MaxDimension))
	}
	v := GenerateVertices(n, s)
	return &NCube{
		Dimension: n,
		Size:      s,
		Vertices:  v,
		Edges:     GenerateEdges(v, n),
		Faces:     GenerateFaces(v, n),
	}
}

// FaceCount returns how many m-dimensional faces the cube has.
func (c *NCube) FaceCount(m int) int {
	return FaceCount(c.Dimension, m)
}

// Clone copies the cube; topology slices are shared since they never change.
func (c *NCube) Clone() *NCube {
	cp := *c
	cp.Vertices = c.Vertices.Clone()
	return &cp
}

// Rotate rotates every vertex in place by one combined matrix built from the
// given planes and angles (radians).
func (c *NCube) Rotate(planes [][2]int, thetas []float64) *NCube {
	r := mat.Rotation(c.Dimension, planes, thetas)
	applyInPlace(r, c.Vertices)
	return c
}

// RotateFrom replaces the vertices with base rotated by the given total angles.
// base is not modified.
func (c *NCube) RotateFrom(base Vertices, planes [][2]int, thetas []float64) *NCube {
	if len(base) != len(c.Vertices) {
		panic(fmt.Sprintf("ncube: base has %d vertices, want %d", len(base), len(c.Vertices)))
	}
	r := mat.Rotation(c.Dimension, planes, thetas)
	for i, p := range base {
		r.MulVecInto(c.Vertices[i], p)
	}
	return c
}

func applyInPlace(r *mat.Mat, v Vertices) {
	tmp := make([]float64, r.Cols())
	for _, p := range v {
		copy(tmp, p)
		r.MulVecInto(p, tmp)
	}
}
