package utils

import (
	"fmt"

	"gonum.org/v1/gonum/blas/blas64"
	"gonum.org/v1/gonum/mat"
)

type Matrix struct {
	M *mat.Dense
}

func NewMatrix(nr, nc int, dataO ...[]float64) (R Matrix) {
	var m *mat.Dense
	if len(dataO) != 0 {
		if len(dataO[0]) != nr*nc {
			err := fmt.Errorf("mismatch in allocation: NewMatrix nr,nc = %v,%v, len(data[0]) = %v\n", nr, nc, len(dataO[0]))
			panic(err)
		}
		m = mat.NewDense(nr, nc, dataO[0])
	} else {
		m = mat.NewDense(nr, nc, make([]float64, nr*nc))
	}
	R = Matrix{m}
	return
}

// Dims, At and T minimally satisfy the mat.Matrix interface.
func (m Matrix) Dims() (r, c int)          { return m.M.Dims() }
func (m Matrix) At(i, j int) float64       { return m.M.At(i, j) }
func (m Matrix) T() mat.Matrix             { return m.M.T() }
func (m Matrix) RawMatrix() blas64.General { return m.M.RawMatrix() }
func (m Matrix) DataP() []float64          { return m.M.RawMatrix().Data }
func (m Matrix) Set(i, j int, val float64) { m.M.Set(i, j, val) }

// Chainable (extended) methods
func (m Matrix) Copy() (R Matrix) {
	var (
		nr, nc = m.Dims()
	)
	R = NewMatrix(nr, nc)
	copy(R.DataP(), m.DataP())
	return
}

func (m Matrix) Scale(a float64) Matrix {
	var (
		data = m.DataP()
	)
	for i := range data {
		data[i] *= a
	}
	return m
}

func (m Matrix) Add(a Matrix) Matrix {
	var (
		data  = m.DataP()
		dataA = a.DataP()
	)
	for i := range data {
		data[i] += dataA[i]
	}
	return m
}

func (m Matrix) Transpose() (R Matrix) {
	var (
		nr, nc = m.Dims()
	)
	R = NewMatrix(nc, nr)
	for i := 0; i < nr; i++ {
		for j := 0; j < nc; j++ {
			R.Set(j, i, m.At(i, j))
		}
	}
	return
}

func (m Matrix) Mul(a Matrix) (R Matrix) {
	var (
		nr, _ = m.Dims()
		_, nc = a.Dims()
	)
	R = NewMatrix(nr, nc)
	R.M.Mul(m.M, a.M)
	return
}

func (m Matrix) MulVec(v Vector) (R Vector) {
	var (
		nr, _ = m.Dims()
	)
	R = NewVector(nr)
	R.V.MulVec(m.M, v.V)
	return
}
