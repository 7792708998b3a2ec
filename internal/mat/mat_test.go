package mat

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
)

func TestMul(t *testing.T) {
	a := New([][]float64{
		{1, 2},
		{-10, 4},
		{2, 30},
		{2, 10},
	})
	b := New([][]float64{{2, 4, -10}, {2, 4, -20}})
	want := New([][]float64{
		{6, 12, -50},
		{-12, -24, 20},
		{64, 128, -620},
		{24, 48, -220},
	})
	assert.True(t, a.Mul(b).Equal(want), "got\n%s", a.Mul(b))
}

func TestIdentityRectangular(t *testing.T) {
	want := New([][]float64{
		{1, 0, 0, 0, 0},
		{0, 1, 0, 0, 0},
		{0, 0, 1, 0, 0},
		{0, 0, 0, 1, 0},
	})
	assert.True(t, Identity(4, 5).Equal(want))
}

func TestMulVec(t *testing.T) {
	a := New([][]float64{
		{1, 2, 3, 2},
		{2, 1, 2, 0},
		{3, 0, 1, 2},
	})
	assert.Equal(t, []float64{22, 10, 14}, a.MulVec([]float64{1, 2, 3, 4}))
}

func TestShapeMismatchPanics(t *testing.T) {
	a := Identity(3, 3)
	assert.Panics(t, func() { a.Mul(Identity(4, 4)) })
	assert.Panics(t, func() { a.MulVec([]float64{1, 2}) })
	assert.Panics(t, func() { New([][]float64{{1, 2}, {3}}) })
}

func TestScalarOps(t *testing.T) {
	a := Identity(2, 2)
	assert.True(t, a.Scale(3).Equal(New([][]float64{{3, 0}, {0, 3}})))
	assert.True(t, a.AddScalar(1).Equal(New([][]float64{{2, 1}, {1, 2}})))
	assert.True(t, a.SubScalar(1).Equal(New([][]float64{{0, -1}, {-1, 0}})))
	// originals untouched
	assert.True(t, a.Equal(Identity(2, 2)))
}

func TestPlaneRotationQuarterTurn(t *testing.T) {
	r := PlaneRotation(4, [2]int{0, 1}, math.Pi/2)
	out := r.MulVec([]float64{1, 0, 0, 0})
	assert.True(t, floats.EqualApprox([]float64{0, 1, 0, 0}, out, 1e-12), "got %v", out)
}

func TestRotationDisjointPlanesMatchesCellLayout(t *testing.T) {
	a, b := 0.3, -1.1
	r := Rotation(4, [][2]int{{0, 3}, {1, 2}}, []float64{a, b})
	want := New([][]float64{
		{math.Cos(a), 0, 0, -math.Sin(a)},
		{0, math.Cos(b), -math.Sin(b), 0},
		{0, math.Sin(b), math.Cos(b), 0},
		{math.Sin(a), 0, 0, math.Cos(a)},
	})
	assert.True(t, r.ApproxEqual(want, 1e-15), "got\n%s", r)
}

func TestRotationIsOrthonormal(t *testing.T) {
	planes := [][2]int{{0, 1}, {0, 2}, {1, 3}, {2, 4}, {3, 4}, {0, 4}}
	thetas := []float64{math.Pi / 6, math.Pi / 7, math.Pi / 5, math.Pi / 8, math.Pi / 9, math.Pi / 10}
	r := Rotation(5, planes, thetas)
	p := r.Transpose().Mul(r)
	require.True(t, p.ApproxEqual(Identity(5, 5), 1e-12), "RᵀR != I:\n%s", p)
}

func TestRotationFullTurn(t *testing.T) {
	v := []float64{0.5, -0.5, 0.5, 0.5, -0.5}
	theta := 1.234
	there := PlaneRotation(5, [2]int{1, 4}, theta).MulVec(v)
	back := PlaneRotation(5, [2]int{1, 4}, 2*math.Pi-theta).MulVec(there)
	assert.True(t, floats.EqualApprox(v, back, 1e-12), "got %v", back)
}

func TestRotationInvalidPlanePanics(t *testing.T) {
	assert.Panics(t, func() { PlaneRotation(3, [2]int{1, 1}, 1) })
	assert.Panics(t, func() { PlaneRotation(3, [2]int{0, 3}, 1) })
	assert.Panics(t, func() { Rotation(3, [][2]int{{0, 1}}, nil) })
}

func TestRotationPreservesNorm(t *testing.T) {
	v := []float64{0.5, -0.5, 0.5, 0.5, -0.5, 0.5, -0.5}
	r := Rotation(7, [][2]int{{0, 6}, {1, 2}, {2, 5}, {3, 4}}, []float64{0.7, -2.1, 1.3, 0.05})
	out := r.MulVec(v)
	assert.InDelta(t, floats.Norm(v, 2), floats.Norm(out, 2), 1e-12)
}

func TestMulVecIntoWritesDestination(t *testing.T) {
	dst := make([]float64, 2)
	Identity(2, 3).MulVecInto(dst, []float64{4, 5, 6})
	assert.Equal(t, []float64{4, 5}, dst)
}
