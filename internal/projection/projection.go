// Package projection reduces n-dimensional points to 3-D by repeated perspective division.
package projection

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// MinEyeGap is the smallest allowed distance, as a fraction of the cube size,
// between the eye and the coordinate being divided out. Coordinates closer to the
// eye than this are projected as if they sat exactly MinEyeGap·size away, which
// keeps every divisor positive and finite.
const MinEyeGap = 1e-9

// EyeDistance is where the eye sits along each dropped axis.
func EyeDistance(size float64) float64 {
	return size * 1.5
}

// Perspective projects every vertex of an n-cube of the given size down to 3-D.
// At each step the last coordinate q is dropped and the rest are scaled by
// size / (1.5·size - q). For n=3 the points are returned unchanged.
func Perspective(vertices [][]float64, n int, size float64) []mgl64.Vec3 {
	if n < 3 {
		panic(fmt.Sprintf("projection: cannot project %d-dimensional points to 3-D", n))
	}
	out := make([]mgl64.Vec3, len(vertices))
	buf := make([]float64, n)
	for i, v := range vertices {
		if len(v) != n {
			panic(fmt.Sprintf("projection: vertex %d has %d coordinates, want %d", i, len(v), n))
		}
		copy(buf, v)
		out[i] = reduce(buf, size)
	}
	return out
}

// ProjectVertex projects a single point of any dimension >= 3.
func ProjectVertex(v []float64, size float64) mgl64.Vec3 {
	if len(v) < 3 {
		panic(fmt.Sprintf("projection: cannot project %d-dimensional point to 3-D", len(v)))
	}
	return reduce(append([]float64(nil), v...), size)
}

// reduce works in place on buf.
func reduce(buf []float64, size float64) mgl64.Vec3 {
	eye := EyeDistance(size)
	minGap := MinEyeGap * size
	for d := len(buf); d > 3; d-- {
		gap := eye - buf[d-1]
		if gap < minGap {
			gap = minGap
		}
		f := size / gap
		for j := 0; j < d-1; j++ {
			buf[j] *= f
		}
	}
	return mgl64.Vec3{buf[0], buf[1], buf[2]}
}
