package utils

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/blas/blas64"
	"gonum.org/v1/gonum/mat"
)

type Vector struct {
	V *mat.VecDense
}

func NewVector(n int, dataO ...[]float64) (R Vector) {
	var v *mat.VecDense
	if len(dataO) != 0 {
		if len(dataO[0]) != n {
			err := fmt.Errorf("mismatch in allocation: NewVector n = %v, len(data[0]) = %v\n", n, len(dataO[0]))
			panic(err)
		}
		v = mat.NewVecDense(n, dataO[0])
	} else {
		v = mat.NewVecDense(n, make([]float64, n))
	}
	R = Vector{v}
	return
}

func NewVectorConstant(n int, val float64) (R Vector) {
	R = NewVector(n)
	data := R.DataP()
	for i := range data {
		data[i] = val
	}
	return
}

// Dims, At and T minimally satisfy the mat.Matrix interface.
func (v Vector) Dims() (r, c int)         { return v.V.Dims() }
func (v Vector) At(i, j int) float64      { return v.V.At(i, j) }
func (v Vector) T() mat.Matrix            { return v.V.T() }
func (v Vector) AtVec(i int) float64      { return v.V.AtVec(i) }
func (v Vector) RawVector() blas64.Vector { return v.V.RawVector() }
func (v Vector) Len() int                 { return v.V.Len() }
func (v Vector) DataP() []float64         { return v.V.RawVector().Data }
func (v Vector) Set(i int, val float64)   { v.V.SetVec(i, val) }

// Chainable (extended) methods
func (v Vector) Copy() (R Vector) {
	R = NewVector(v.Len())
	copy(R.DataP(), v.DataP())
	return
}

func (v Vector) Scale(a float64) Vector {
	var (
		data = v.DataP()
	)
	for i := range data {
		data[i] *= a
	}
	return v
}

func (v Vector) AddScalar(a float64) Vector {
	var (
		data = v.DataP()
	)
	for i := range data {
		data[i] += a
	}
	return v
}

func (v Vector) Add(a Vector) Vector {
	var (
		data  = v.DataP()
		dataA = a.DataP()
	)
	for i := range data {
		data[i] += dataA[i]
	}
	return v
}

func (v Vector) Subtract(a Vector) Vector {
	var (
		data  = v.DataP()
		dataA = a.DataP()
	)
	for i := range data {
		data[i] -= dataA[i]
	}
	return v
}

func (v Vector) ElMul(a Vector) Vector {
	var (
		data  = v.DataP()
		dataA = a.DataP()
	)
	for i := range data {
		data[i] *= dataA[i]
	}
	return v
}

func (v Vector) Apply(f func(float64) float64) Vector {
	var (
		data = v.DataP()
	)
	for i, val := range data {
		data[i] = f(val)
	}
	return v
}

func (v Vector) Min() (min float64) {
	var (
		data = v.DataP()
	)
	min = data[0]
	for _, val := range data {
		if val < min {
			min = val
		}
	}
	return
}

func (v Vector) Max() (max float64) {
	var (
		data = v.DataP()
	)
	max = data[0]
	for _, val := range data {
		if val > max {
			max = val
		}
	}
	return
}

// AbsMax returns max(|v_i|), the magnitude used for Peclet estimates.
func (v Vector) AbsMax() (max float64) {
	var (
		data = v.DataP()
	)
	for _, val := range data {
		if math.Abs(val) > max {
			max = math.Abs(val)
		}
	}
	return
}

func (v Vector) Sum() (sum float64) {
	var (
		data = v.DataP()
	)
	for _, val := range data {
		sum += val
	}
	return
}

func (v Vector) Norm2() (nrm float64) {
	var (
		data = v.DataP()
	)
	for _, val := range data {
		nrm += val * val
	}
	nrm = math.Sqrt(nrm)
	return
}

// Subset extracts v[offset : offset+n] into a fresh Vector.
func (v Vector) Subset(offset, n int) (R Vector) {
	var (
		data = v.DataP()
	)
	if offset < 0 || offset+n > v.Len() {
		panic(fmt.Errorf("subset [%d:%d] out of bounds, len = %d", offset, offset+n, v.Len()))
	}
	R = NewVector(n)
	copy(R.DataP(), data[offset:offset+n])
	return
}

// AssignAt copies a into v starting at offset. Changes receiver.
func (v Vector) AssignAt(offset int, a Vector) Vector {
	var (
		data  = v.DataP()
		dataA = a.DataP()
	)
	if offset < 0 || offset+a.Len() > v.Len() {
		panic(fmt.Errorf("assign [%d:%d] out of bounds, len = %d", offset, offset+a.Len(), v.Len()))
	}
	copy(data[offset:offset+a.Len()], dataA)
	return v
}
