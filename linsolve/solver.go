package linsolve

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/microvasc/gohemo/utils"
)

var (
	// ErrSingular marks an exactly singular system.
	ErrSingular = errors.New("linsolve: singular matrix")
	// ErrIllConditioned marks a factorization whose condition estimate
	// exceeds the configured limit.
	ErrIllConditioned = errors.New("linsolve: condition estimate over limit")
)

// Solver solves one monolithic system per call and reports the condition
// estimate of the factorization alongside the solution.
type Solver interface {
	Solve(a utils.DOK, b utils.Vector) (x utils.Vector, cond float64, err error)
}

// LU is the dense LU direct solver. CondLimit 0 disables the conditioning
// check.
type LU struct {
	CondLimit float64
}

func (s LU) Solve(a utils.DOK, b utils.Vector) (x utils.Vector, cond float64, err error) {
	var lu mat.LU
	lu.Factorize(a.Dense().M)
	cond = lu.Cond()
	if math.IsInf(cond, 1) || math.IsNaN(cond) {
		err = ErrSingular
		return
	}
	if s.CondLimit > 0 && cond > s.CondLimit {
		err = errors.Wrapf(ErrIllConditioned, "cond %.3e > %.3e", cond, s.CondLimit)
		return
	}
	var xv mat.VecDense
	if serr := lu.SolveVecTo(&xv, false, b.V); serr != nil {
		err = errors.Wrap(ErrSingular, serr.Error())
		return
	}
	x = utils.Vector{V: &xv}
	if utils.IsNan(x) {
		err = errors.Wrap(ErrSingular, "NaN in solution")
		return
	}
	return
}
