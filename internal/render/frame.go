package render

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/coreman2200/funtimes-ncube/internal/ncube"
)

const degenerateLen = 1e-12

// TriangleNormal returns the unit normal of triangle (a, b, c), or the zero
// vector when the triangle has collapsed to a line or point.
func TriangleNormal(a, b, c mgl64.Vec3) mgl64.Vec3 {
	n := b.Sub(a).Cross(c.Sub(b))
	if n.Len() < degenerateLen {
		return mgl64.Vec3{}
	}
	return n.Normalize()
}

// EdgeTransformFor returns the transform that turns a unit cube into a segment
// of the given thickness from `from` to `to`.
func EdgeTransformFor(thickness float64, from, to mgl64.Vec3) EdgeTransform {
	diff := to.Sub(from)
	length := diff.Len()
	rot := mgl64.QuatIdent()
	if length > degenerateLen {
		rot = mgl64.QuatBetweenVectors(mgl64.Vec3{0, 0, 1}, diff.Mul(1/length))
	}
	return EdgeTransform{
		Translation: from.Add(to).Mul(0.5),
		Scale:       mgl64.Vec3{thickness, thickness, length + thickness},
		Rotation:    [4]float64{rot.V[0], rot.V[1], rot.V[2], rot.W},
	}
}

// BuildFrame derives edge transforms, and face normals unless unlit, from the
// projected points.
func BuildFrame(points []mgl64.Vec3, edges []ncube.Edge, faces []ncube.Face, a Appearance) Frame {
	f := Frame{
		Vertices: points,
		Edges:    make([]EdgeTransform, len(edges)),
	}
	for i, e := range edges {
		f.Edges[i] = EdgeTransformFor(a.EdgeThickness, points[e.A], points[e.B])
	}
	if !a.Unlit {
		f.Normals = make([]mgl64.Vec3, len(faces))
		for i, fc := range faces {
			f.Normals[i] = TriangleNormal(points[fc.A], points[fc.B], points[fc.C])
		}
	}
	return f
}
