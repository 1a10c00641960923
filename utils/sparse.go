package utils

import (
	"fmt"

	"github.com/james-bowman/sparse"
	"gonum.org/v1/gonum/mat"
)

// DOK wraps a dictionary-of-keys sparse matrix for incremental assembly of
// the monolithic flow and hematocrit systems.
type DOK struct {
	M *sparse.DOK
}

func NewDOK(nr, nc int) (R DOK) {
	R = DOK{sparse.NewDOK(nr, nc)}
	return
}

// Dims, At and T minimally satisfy the mat.Matrix interface.
func (m DOK) Dims() (r, c int)    { return m.M.Dims() }
func (m DOK) At(i, j int) float64 { return m.M.At(i, j) }
func (m DOK) T() mat.Matrix      { return m.M.T() }

func (m DOK) Set(i, j int, val float64) { m.M.Set(i, j, val) }

// Accum adds val to entry (i,j), the element-assembly primitive.
func (m DOK) Accum(i, j int, val float64) {
	if val == 0 {
		return
	}
	m.M.Set(i, j, m.M.At(i, j)+val)
}

// AccumBlock adds a, scaled by scale, into m at the given row/col offsets.
func (m DOK) AccumBlock(rowOffset, colOffset int, a mat.Matrix, scale float64) {
	var (
		nr, nc   = a.Dims()
		mNr, mNc = m.Dims()
	)
	if rowOffset+nr > mNr || colOffset+nc > mNc {
		panic(fmt.Errorf("block [%d+%d,%d+%d] exceeds matrix dims [%d,%d]",
			rowOffset, nr, colOffset, nc, mNr, mNc))
	}
	switch A := a.(type) {
	case DOK:
		A.M.DoNonZero(func(i, j int, val float64) {
			m.Accum(rowOffset+i, colOffset+j, scale*val)
		})
	default:
		for i := 0; i < nr; i++ {
			for j := 0; j < nc; j++ {
				m.Accum(rowOffset+i, colOffset+j, scale*a.At(i, j))
			}
		}
	}
}

func (m DOK) MulVec(v Vector) (R Vector) {
	var (
		nr, nc = m.Dims()
	)
	if v.Len() != nc {
		panic(fmt.Errorf("dimension mismatch in MulVec: nc = %d, len(v) = %d", nc, v.Len()))
	}
	R = NewVector(nr)
	var (
		data  = R.DataP()
		dataV = v.DataP()
	)
	m.M.DoNonZero(func(i, j int, val float64) {
		data[i] += val * dataV[j]
	})
	return
}

// RowRangeMulVec multiplies rows [rowStart,rowEnd) of m by v, returning the
// partial product. Used for the mass-conservation residual, which only needs
// the tissue-pressure block rows.
func (m DOK) RowRangeMulVec(rowStart, rowEnd int, v Vector) (R Vector) {
	R = NewVector(rowEnd - rowStart)
	var (
		data  = R.DataP()
		dataV = v.DataP()
	)
	m.M.DoNonZero(func(i, j int, val float64) {
		if i >= rowStart && i < rowEnd {
			data[i-rowStart] += val * dataV[j]
		}
	})
	return
}

// Dense converts the assembled system for the direct solver.
func (m DOK) Dense() (R Matrix) {
	var (
		nr, nc = m.Dims()
	)
	R = NewMatrix(nr, nc)
	m.M.DoNonZero(func(i, j int, val float64) {
		R.Set(i, j, val)
	})
	return
}

func (m DOK) ToCSR() *sparse.CSR { return m.M.ToCSR() }

func (m DOK) NNZ() (nnz int) {
	m.M.DoNonZero(func(i, j int, val float64) {
		nnz++
	})
	return
}
