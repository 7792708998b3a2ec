// Package mat implements the small dense matrices used to rotate n-dimensional
// vertices, on top of gonum's dense storage. Shapes are checked eagerly: a
// mismatch is a programming error and panics.
package mat

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Mat is a dense row-major matrix of float64.
type Mat struct {
	d *mat.Dense
}

// New wraps a rectangular slice of rows. All rows must have the same length.
func New(rows [][]float64) *Mat {
	if len(rows) == 0 || len(rows[0]) == 0 {
		panic("mat: empty matrix")
	}
	cols := len(rows[0])
	data := make([]float64, 0, len(rows)*cols)
	for i, r := range rows {
		if len(r) != cols {
			panic(fmt.Sprintf("mat: row %d has %d columns, want %d", i, len(r), cols))
		}
		data = append(data, r...)
	}
	return &Mat{d: mat.NewDense(len(rows), cols, data)}
}

// Fill returns a rows×cols matrix with every cell set to v.
func Fill(v float64, rows, cols int) *Mat {
	m := &Mat{d: mat.NewDense(rows, cols, nil)}
	if v != 0 {
		m.d.Apply(func(_, _ int, _ float64) float64 { return v }, m.d)
	}
	return m
}

// Identity returns a rows×cols matrix with ones on the main diagonal.
// Non-square identities drop trailing axes.
func Identity(rows, cols int) *Mat {
	id := Fill(0, rows, cols)
	for i := 0; i < rows && i < cols; i++ {
		id.d.Set(i, i, 1)
	}
	return id
}

func (a *Mat) Rows() int {
	r, _ := a.d.Dims()
	return r
}

func (a *Mat) Cols() int {
	_, c := a.d.Dims()
	return c
}

func (a *Mat) IsSquare() bool { return a.Rows() == a.Cols() }

func (a *Mat) At(i, j int) float64 { return a.d.At(i, j) }

func (a *Mat) Set(i, j int, v float64) { a.d.Set(i, j, v) }

// Row returns a copy of row i.
func (a *Mat) Row(i int) []float64 {
	return mat.Row(nil, i, a.d)
}

// Clone returns a deep copy.
func (a *Mat) Clone() *Mat {
	return &Mat{d: mat.DenseCopyOf(a.d)}
}

// Mul returns a·b. Panics unless a.Cols() == b.Rows().
func (a *Mat) Mul(b *Mat) *Mat {
	if a.Cols() != b.Rows() {
		panic(fmt.Sprintf("mat: cannot multiply %dx%d by %dx%d", a.Rows(), a.Cols(), b.Rows(), b.Cols()))
	}
	var out mat.Dense
	out.Mul(a.d, b.d)
	return &Mat{d: &out}
}

// MulVec returns a·v. The result has a.Rows() entries, so a non-square matrix
// changes the dimension of v. Panics unless len(v) == a.Cols().
func (a *Mat) MulVec(v []float64) []float64 {
	out := make([]float64, a.Rows())
	a.MulVecInto(out, v)
	return out
}

// MulVecInto writes a·v into dst, which must not alias v.
func (a *Mat) MulVecInto(dst, v []float64) {
	if len(v) != a.Cols() || len(dst) != a.Rows() {
		panic(fmt.Sprintf("mat: cannot multiply %dx%d by vector of length %d into %d", a.Rows(), a.Cols(), len(v), len(dst)))
	}
	mat.NewVecDense(len(dst), dst).MulVec(a.d, mat.NewVecDense(len(v), v))
}

// Scale returns a copy with every cell multiplied by f.
func (a *Mat) Scale(f float64) *Mat {
	var out mat.Dense
	out.Scale(f, a.d)
	return &Mat{d: &out}
}

// AddScalar returns a copy with f added to every cell.
func (a *Mat) AddScalar(f float64) *Mat {
	return a.apply(func(x float64) float64 { return x + f })
}

// SubScalar returns a copy with f subtracted from every cell.
func (a *Mat) SubScalar(f float64) *Mat {
	return a.apply(func(x float64) float64 { return x - f })
}

func (a *Mat) apply(fn func(float64) float64) *Mat {
	var out mat.Dense
	out.Apply(func(_, _ int, x float64) float64 { return fn(x) }, a.d)
	return &Mat{d: &out}
}

// Transpose returns aᵀ.
func (a *Mat) Transpose() *Mat {
	return &Mat{d: mat.DenseCopyOf(a.d.T())}
}

// Equal reports exact equality of shape and cells.
func (a *Mat) Equal(b *Mat) bool {
	return mat.Equal(a.d, b.d)
}

// ApproxEqual reports whether shapes match and every cell is within tol,
// absolutely or relatively.
func (a *Mat) ApproxEqual(b *Mat, tol float64) bool {
	return mat.EqualApprox(a.d, b.d, tol)
}

func (a *Mat) String() string {
	return fmt.Sprintf("%v\n", mat.Formatted(a.d))
}
