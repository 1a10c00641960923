package utils

import (
	"fmt"
	"math"
)

func POW(x float64, pp int) (y float64) {
	var (
		p = pp
	)
	if p < 0 {
		p = -p
	}
	y = 1
	for i := 0; i < p; i++ {
		y *= x
	}
	if pp < 0 {
		y = 1. / y
	}
	return
}

func IsNan(A any) bool {
	switch v := A.(type) {
	case float64:
		return math.IsNaN(v)
	case []float64:
		for _, f := range v {
			if math.IsNaN(f) {
				return true
			}
		}
	case Vector:
		return IsNan(v.DataP())
	case Matrix:
		return IsNan(v.DataP())
	}
	return false
}

func IsNanPanic(A any) {
	if IsNan(A) {
		panic("NAN found")
	}
}

// RelativeNorm returns ||a-b||2/||b||2, guarding the zero-norm denominator.
// The ok flag is false when ||b|| == 0 and the residual term should be skipped.
func RelativeNorm(a, b Vector) (res float64, ok bool) {
	if a.Len() != b.Len() {
		panic(fmt.Errorf("dimension mismatch: len(a) = %d, len(b) = %d", a.Len(), b.Len()))
	}
	var num, den float64
	var (
		dataA = a.DataP()
		dataB = b.DataP()
	)
	for i := range dataA {
		d := dataA[i] - dataB[i]
		num += d * d
		den += dataB[i] * dataB[i]
	}
	if den == 0 {
		return 0, false
	}
	return math.Sqrt(num / den), true
}
