package tissue

import (
	"math"

	"github.com/microvasc/gohemo/utils"
)

// Lymphatic drainage sinks on the tissue continuity rows. The linear
// variant QLF·(Pt−PL) contributes a diagonal term plus a constant rhs; the
// sigmoid variant A − B/(1+exp((Pt−C)/D)) is nonlinear in Pt and is lagged,
// re-evaluated from the previous pressure iterate each outer sweep.

type Lymphatics interface {
	// Assemble adds the drainage terms for the current outer iteration:
	// matrix contributions into dst, constant terms into rhs. pt holds the
	// lagged cell pressures (ignored by the linear variant).
	Assemble(dst utils.DOK, rhs utils.Vector, ptOff int, pt []float64)
	// Flow evaluates the drained flux per unit volume at pressure p.
	Flow(p float64) float64
}

type LinearLymphatics struct {
	Grid *Grid
	QLF  float64
	PL   float64
}

func (l LinearLymphatics) Assemble(dst utils.DOK, rhs utils.Vector, ptOff int, pt []float64) {
	vol := l.Grid.CellVolume()
	for c := 0; c < l.Grid.NCells(); c++ {
		dst.Accum(ptOff+c, ptOff+c, l.QLF*vol)
		rhs.V.SetVec(ptOff+c, rhs.V.AtVec(ptOff+c)+l.QLF*l.PL*vol)
	}
}

func (l LinearLymphatics) Flow(p float64) float64 {
	return l.QLF * (p - l.PL)
}

type SigmoidLymphatics struct {
	Grid       *Grid
	A, B, C, D float64
}

func (l SigmoidLymphatics) Assemble(dst utils.DOK, rhs utils.Vector, ptOff int, pt []float64) {
	vol := l.Grid.CellVolume()
	for c := 0; c < l.Grid.NCells(); c++ {
		rhs.V.SetVec(ptOff+c, rhs.V.AtVec(ptOff+c)-l.Flow(pt[c])*vol)
	}
}

func (l SigmoidLymphatics) Flow(p float64) float64 {
	return l.A - l.B/(1.0+math.Exp((p-l.C)/l.D))
}
