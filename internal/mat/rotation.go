package mat

import (
	"fmt"
	"math"
)

// PlaneRotation returns the n×n matrix rotating by theta radians in the plane
// spanned by axes plane[0] and plane[1].
func PlaneRotation(n int, plane [2]int, theta float64) *Mat {
	return Rotation(n, [][2]int{plane}, []float64{theta})
}

// Rotation combines several simultaneous plane rotations into one n×n matrix so
// a tick can rotate every vertex with a single matrix-vector product.
//
// Each plane (a, b) contributes cos θ at (a,a) and (b,b), −sin θ at (a,b) and
// sin θ at (b,a). Planes are folded in order, each one left-multiplied onto the
// accumulated matrix. Planes that share no axis touch disjoint cells, so the
// result is exactly the identity with every plane's cells written in. Planes
// that share an axis do not commute; composing them keeps the matrix orthogonal.
func Rotation(n int, planes [][2]int, thetas []float64) *Mat {
	if len(planes) != len(thetas) {
		panic(fmt.Sprintf("mat: %d planes but %d angles", len(planes), len(thetas)))
	}
	r := Identity(n, n)
	for i, p := range planes {
		a, b := p[0], p[1]
		if a == b || a < 0 || b < 0 || a >= n || b >= n {
			panic(fmt.Sprintf("mat: invalid rotation plane %v for dimension %d", p, n))
		}
		theta := thetas[i]
		if theta == 0 {
			continue
		}
		r.rotateRows(a, b, math.Cos(theta), math.Sin(theta))
	}
	return r
}

// rotateRows left-multiplies m by the Givens rotation (a, b, θ) in place.
// Only rows a and b change.
func (m *Mat) rotateRows(a, b int, c, s float64) {
	ra, rb := m.d.RawRowView(a), m.d.RawRowView(b)
	for j := range ra {
		x, y := ra[j], rb[j]
		ra[j] = c*x - s*y
		rb[j] = s*x + c*y
	}
}
