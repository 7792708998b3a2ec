package ncube

import (
	"fmt"
	"math/bits"
	"strings"
)

const (
	MinDimension = 3
	MaxDimension = 9
)

// Vertices holds the Cartesian coordinates of every vertex. The slice index is
// the vertex identity referenced by edges, faces, rotation and projection.
type Vertices [][]float64

// Edge joins two vertices that differ in exactly one coordinate. A < B.
type Edge struct {
	A int `json:"a"`
	B int `json:"b"`
}

// Face is one triangle of a square 2-face; every square yields two of them.
type Face struct {
	A int `json:"a"`
	B int `json:"b"`
	C int `json:"c"`
}

// GenerateVertices returns the 2^n vertices of an n-cube of edge length s
// centered on the origin. Coordinate j of vertex i is +s/2 when bit j of i is
// clear and -s/2 when it is set.
func GenerateVertices(n int, s float64) Vertices {
	half := s / 2
	count := FaceCount(n, 0)
	out := make(Vertices, count)
	for i := 0; i < count; i++ {
		v := make([]float64, n)
		for j := 0; j < n; j++ {
			if i>>uint(j)&1 == 0 {
				v[j] = half
			} else {
				v[j] = -half
			}
		}
		out[i] = v
	}
	return out
}

// GenerateEdges pairs every two vertices sharing exactly n-1 coordinates.
func GenerateEdges(v Vertices, n int) []Edge {
	want := FaceCount(n, 1)
	edges := make([]Edge, 0, want)
	for i := 0; i < len(v) && len(edges) < want; i++ {
		for j := i + 1; j < len(v); j++ {
			if SharedDimensions(v[i], v[j]) == n-1 {
				edges = append(edges, Edge{A: i, B: j})
			}
		}
	}
	if len(edges) != want {
		panic(fmt.Sprintf("ncube: found %d edges for n=%d, want %d", len(edges), n, want))
	}
	return edges
}

type member struct {
	index int
	v     []float64
}

// GenerateFaces triangulates every square 2-face of the cube.
//
// For n=3 the vertices are split by the sign of each axis and each half is scanned
// in windows of four. For n>=4 the vertices are split into four groups by the
// signs of every axis pair, and every 4-combination inside a group that spans a
// square (shares exactly n-2 coordinates) becomes two triangles. A square with
// n-2 fixed axes is reachable from several axis pairs once n>4, so repeats are
// dropped. The triangle count is checked against the closed form.
func GenerateFaces(v Vertices, n int) []Face {
	want := 2 * FaceCount(n, 2)
	faces := make([]Face, 0, want)
	if n == 3 {
		for d := 0; d < n; d++ {
			pos, neg := partition(v, func(p []float64) bool { return p[d] > 0 })
			faces = append(faces, windowFaces(pos, n)...)
			faces = append(faces, windowFaces(neg, n)...)
		}
	} else {
		seen := make(map[[4]int]struct{}, want/2)
		for _, pair := range PlanePairs(n) {
			a, b := pair[0], pair[1]
			pos, neg := partition(v, func(p []float64) bool { return p[a] > 0 })
			posPos, posNeg := splitMembers(pos, func(p []float64) bool { return p[b] > 0 })
			negPos, negNeg := splitMembers(neg, func(p []float64) bool { return p[b] > 0 })
			for _, group := range [][]member{posPos, posNeg, negPos, negNeg} {
				for _, q := range squares(group, n) {
					if _, dup := seen[q]; dup {
						continue
					}
					seen[q] = struct{}{}
					faces = append(faces, quadTriangles(q)...)
				}
			}
		}
	}
	if len(faces) != want {
		panic(fmt.Sprintf("ncube: found %d triangles for n=%d, want %d", len(faces), n, want))
	}
	return faces
}

func partition(v Vertices, pred func([]float64) bool) (in, out []member) {
	for i, p := range v {
		if pred(p) {
			in = append(in, member{index: i, v: p})
		} else {
			out = append(out, member{index: i, v: p})
		}
	}
	return in, out
}

func splitMembers(ms []member, pred func([]float64) bool) (in, out []member) {
	for _, m := range ms {
		if pred(m.v) {
			in = append(in, m)
		} else {
			out = append(out, m)
		}
	}
	return in, out
}

func windowFaces(group []member, n int) []Face {
	var out []Face
	for i := 0; i+4 <= len(group); i++ {
		w := group[i : i+4]
		if SharedDimensions(w[0].v, w[1].v, w[2].v, w[3].v) == n-2 {
			out = append(out, quadTriangles([4]int{w[0].index, w[1].index, w[2].index, w[3].index})...)
		}
	}
	return out
}

// squares enumerates the 4-combinations of group, in increasing member order,
// whose vertices share exactly n-2 coordinates. Shared coordinates only shrink
// as vertices are added, so a prefix already below n-2 is not extended.
func squares(group []member, n int) [][4]int {
	var out [][4]int
	full := uint64(1)<<uint(n) - 1
	for i := 0; i < len(group); i++ {
		for j := i + 1; j < len(group); j++ {
			mj := full & equalMask(group[i].v, group[j].v)
			if bits.OnesCount64(mj) < n-2 {
				continue
			}
			for k := j + 1; k < len(group); k++ {
				mk := mj & equalMask(group[i].v, group[k].v)
				if bits.OnesCount64(mk) < n-2 {
					continue
				}
				for l := k + 1; l < len(group); l++ {
					ml := mk & equalMask(group[i].v, group[l].v)
					if bits.OnesCount64(ml) == n-2 {
						out = append(out, [4]int{group[i].index, group[j].index, group[k].index, group[l].index})
					}
				}
			}
		}
	}
	return out
}

// quadTriangles splits a square w0..w3 into (w0,w1,w2) and (w3,w2,w1).
func quadTriangles(w [4]int) []Face {
	return []Face{
		{A: w[0], B: w[1], C: w[2]},
		{A: w[3], B: w[2], C: w[1]},
	}
}

// equalMask has bit d set when a[d] == b[d].
func equalMask(a, b []float64) uint64 {
	var m uint64
	for d := range a {
		if a[d] == b[d] {
			m |= 1 << uint(d)
		}
	}
	return m
}

// SharedDimensions counts the coordinates whose value is equal across all points.
// Points sharing k coordinates lie in a common (len-k)-dimensional slice.
func SharedDimensions(points ...[]float64) int {
	if len(points) == 0 {
		return 0
	}
	common := 0
	for d := range points[0] {
		shared := true
		for _, p := range points[1:] {
			if p[d] != points[0][d] {
				shared = false
				break
			}
		}
		if shared {
			common++
		}
	}
	return common
}

// Clone returns a deep copy of the vertex set.
func (v Vertices) Clone() Vertices {
	out := make(Vertices, len(v))
	for i, p := range v {
		out[i] = append([]float64(nil), p...)
	}
	return out
}

func (v Vertices) String() string {
	var sb strings.Builder
	sb.WriteString("[\n")
	for _, p := range v {
		sb.WriteString("  [ ")
		for _, x := range p {
			switch {
			case x > 0:
				fmt.Fprintf(&sb, "+%g ", x)
			case x == 0:
				fmt.Fprintf(&sb, " %g ", x)
			default:
				fmt.Fprintf(&sb, "%g ", x)
			}
		}
		sb.WriteString("],\n")
	}
	sb.WriteString("]\n")
	return sb.String()
}
