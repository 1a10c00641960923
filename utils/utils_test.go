package utils

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVectorOps(t *testing.T) {
	{
		v := NewVector(4, []float64{1, -2, 3, -4})
		assert.Equal(t, 4, v.Len())
		assert.InDelta(t, -2.0, v.AtVec(1), 1.e-14)
		assert.InDelta(t, 4.0, v.AbsMax(), 1.e-14)
		assert.InDelta(t, -2.0, v.Sum(), 1.e-14)
	}
	{
		v := NewVectorConstant(3, 2.5)
		for i := 0; i < 3; i++ {
			assert.InDelta(t, 2.5, v.AtVec(i), 1.e-14)
		}
	}
	{ // Subset copies, the source stays intact
		v := NewVector(5, []float64{0, 1, 2, 3, 4})
		s := v.Subset(1, 3)
		assert.Equal(t, 3, s.Len())
		assert.InDelta(t, 1.0, s.AtVec(0), 1.e-14)
		s.Set(0, 99)
		assert.InDelta(t, 1.0, v.AtVec(1), 1.e-14)
	}
	{ // chainable arithmetic mutates the receiver
		v := NewVector(2, []float64{1, 2}).Scale(2).AddScalar(1)
		assert.InDelta(t, 3.0, v.AtVec(0), 1.e-14)
		assert.InDelta(t, 5.0, v.AtVec(1), 1.e-14)
	}
}

func TestRelativeNorm(t *testing.T) {
	{
		a := NewVector(2, []float64{1.1, 2.2})
		b := NewVector(2, []float64{1, 2})
		res, ok := RelativeNorm(a, b)
		assert.True(t, ok)
		want := math.Sqrt(0.01+0.04) / math.Sqrt(5)
		assert.InDelta(t, want, res, 1.e-12)
	}
	{ // zero reference: the caller must skip the term
		a := NewVector(2, []float64{1, 1})
		b := NewVector(2)
		_, ok := RelativeNorm(a, b)
		assert.False(t, ok)
	}
	{
		a := NewVector(2, []float64{1, 2})
		b := NewVector(3)
		assert.Panics(t, func() { RelativeNorm(a, b) })
	}
}

func TestDOK(t *testing.T) {
	{
		m := NewDOK(3, 3)
		m.Accum(0, 0, 1)
		m.Accum(0, 0, 2)
		m.Accum(1, 2, -1)
		m.Accum(2, 2, 0) // explicit zero is not stored
		assert.InDelta(t, 3.0, m.At(0, 0), 1.e-14)
		assert.InDelta(t, -1.0, m.At(1, 2), 1.e-14)
		assert.Equal(t, 2, m.NNZ())
	}
	{
		m := NewDOK(2, 3)
		m.Set(0, 0, 1)
		m.Set(0, 2, 2)
		m.Set(1, 1, 3)
		v := NewVector(3, []float64{1, 1, 1})
		r := m.MulVec(v)
		assert.InDelta(t, 3.0, r.AtVec(0), 1.e-14)
		assert.InDelta(t, 3.0, r.AtVec(1), 1.e-14)
		assert.Panics(t, func() { m.MulVec(NewVector(2)) })
	}
	{ // partial product over a row window
		m := NewDOK(4, 2)
		for i := 0; i < 4; i++ {
			m.Set(i, 0, float64(i))
		}
		v := NewVector(2, []float64{1, 0})
		r := m.RowRangeMulVec(1, 3, v)
		assert.Equal(t, 2, r.Len())
		assert.InDelta(t, 1.0, r.AtVec(0), 1.e-14)
		assert.InDelta(t, 2.0, r.AtVec(1), 1.e-14)
	}
	{ // block accumulation with scaling
		m := NewDOK(4, 4)
		b := NewDOK(2, 2)
		b.Set(0, 0, 1)
		b.Set(1, 1, 2)
		m.AccumBlock(2, 2, b, -1)
		assert.InDelta(t, -1.0, m.At(2, 2), 1.e-14)
		assert.InDelta(t, -2.0, m.At(3, 3), 1.e-14)
		assert.Panics(t, func() { m.AccumBlock(3, 3, b, 1) })
	}
	{ // dense conversion preserves entries
		m := NewDOK(2, 2)
		m.Set(0, 1, 7)
		d := m.Dense()
		assert.InDelta(t, 7.0, d.At(0, 1), 1.e-14)
		assert.InDelta(t, 0.0, d.At(1, 0), 1.e-14)
	}
}
