package fixpoint

import (
	"fmt"
	"math"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"github.com/microvasc/gohemo/export"
	"github.com/microvasc/gohemo/flow"
	"github.com/microvasc/gohemo/hematocrit"
	"github.com/microvasc/gohemo/linsolve"
	"github.com/microvasc/gohemo/mesh1d"
	"github.com/microvasc/gohemo/params"
	"github.com/microvasc/gohemo/utils"
	"github.com/microvasc/gohemo/vessel"
)

// Phase tracks where the outer iteration currently stands. The driver is
// a sequential state machine: geometry update, flow solve, hematocrit
// solve, residual check, repeated until all three residuals drop below
// their thresholds or the iteration limit is reached.
type Phase int

const (
	PhaseInitialGuess Phase = iota
	PhaseGeometryUpdate
	PhaseFlowSolve
	PhaseHematocritSolve
	PhaseResidualCheck
	PhaseConverged
	PhaseMaxIterExceeded
)

type Config struct {
	MaxIterations int
	SaveEvery     int
	// Alpha is the under-relaxation factor applied to both solves.
	Alpha                 float64
	EpsSol, EpsMass, EpsH float64
	HStart                float64
	PrintResiduals        bool
	Verbose               bool
	OutputDir             string
	// Compliant enables the deformed-geometry path; NonlinearLymph marks
	// the sigmoid drainage variant, whose lag enters the mass residual.
	Compliant      bool
	NonlinearLymph bool
	ExportVTK      bool
}

// Driver owns one coupled fixed-point run over a prepared problem.
type Driver struct {
	Cfg    Config
	Mesh   *mesh1d.Mesh
	Store  *params.Store
	Flow   *flow.Assembler
	HT     *hematocrit.Assembler
	Vessel *vessel.Model
	Solver linsolve.Solver

	phase Phase
	hist  []export.Record
}

// Result carries the converged (or last) iterates and run diagnostics.
type Result struct {
	U, H       utils.Vector
	Iterations int
	Converged  bool
	TFR        float64 // total filtration rate
	FRlymph    float64 // lymphatic drainage rate
	FRCube     float64 // net rate leaving the tissue domain boundary
	History    []export.Record
}

// Phase reports the driver's current phase.
func (d *Driver) Phase() Phase { return d.phase }

// Run executes the coupled iteration to convergence. Non-convergence
// within the iteration limit is reported through Result.Converged, not
// as an error; only solver failures abort the run.
func (d *Driver) Run() (res Result, err error) {
	var (
		cfg   = d.Cfg
		dof   = d.Flow.Dof
		nPt   = dof.Pt
		start = time.Now()
	)

	// initial guess: undeformed geometry, uniform hematocrit, one flow
	// solve and one transport solve
	d.phase = PhaseInitialGuess
	hOld := utils.NewVectorConstant(d.Mesh.TotalBranchDof(), cfg.HStart)
	cond := d.updateGeometry(utils.NewVector(dof.Tot()))
	A, rhs := d.Flow.Assemble(cond, hOld.DataP(), make([]float64, nPt))
	uOld, _, err := d.Solver.Solve(A, rhs)
	if err != nil {
		return res, errors.Wrap(err, "fixpoint: initial flow solve")
	}
	ah, rhsH := d.HT.Assemble(uOld.DataP()[dof.UvOff() : dof.UvOff()+dof.Uv])
	hOld, _, err = d.Solver.Solve(ah, rhsH)
	if err != nil {
		return res, errors.Wrap(err, "fixpoint: initial hematocrit solve")
	}

	var (
		iteration = 0
		converged = false
		uNew      utils.Vector
		hNew      utils.Vector
	)
	for iteration < cfg.MaxIterations {
		t := time.Now()

		// a - deformed geometry from the lagged pressure iterate
		d.phase = PhaseGeometryUpdate
		cond = d.updateGeometry(uOld)

		// b,c,d - flow assembly, solve, under-relaxation
		d.phase = PhaseFlowSolve
		ptOld := uOld.Subset(dof.PtOff(), nPt).DataP()
		A, rhs = d.Flow.Assemble(cond, hOld.DataP(), ptOld)
		uSol, condEst, serr := d.Solver.Solve(A, rhs)
		if serr != nil {
			return res, errors.Wrapf(serr, "fixpoint: flow solve, iteration %d (cond %.3e)",
				iteration, condEst)
		}
		uNew = relax(uSol, uOld, cfg.Alpha)

		// e - hematocrit on the fresh velocity field
		d.phase = PhaseHematocritSolve
		ah, rhsH = d.HT.Assemble(uNew.DataP()[dof.UvOff() : dof.UvOff()+dof.Uv])
		hSol, _, serr := d.Solver.Solve(ah, rhsH)
		if serr != nil {
			return res, errors.Wrapf(serr, "fixpoint: hematocrit solve, iteration %d", iteration)
		}
		hNew = relax(hSol, hOld, cfg.Alpha)

		// f,g,h - flow-rate diagnostics
		d.phase = PhaseResidualCheck
		ptNew := uNew.Subset(dof.PtOff(), nPt).DataP()
		res.TFR = sum(d.Flow.Filtration(uNew))
		fLF := d.lymphFlow(ptNew)
		res.FRlymph = sum(fLF)
		res.FRCube = res.TFR - res.FRlymph

		// i - the three residuals
		resSol := d.solutionResidual(uNew, uOld)
		resH, _ := utils.RelativeNorm(hNew, hOld)
		resCM := d.massResidual(A, uNew, fLF, res.TFR)

		iteration++
		d.hist = append(d.hist, export.Record{
			Iteration: iteration,
			Solution:  resSol, Mass: math.Abs(resCM), Hematocrit: resH,
			TFR: res.TFR, LymphFR: res.FRlymph,
		})
		if cfg.PrintResiduals {
			fmt.Printf("\nStep n.%d\nSolution Residual = %.6e\nMass Residual = %.6e\nHematocrit Residual = %.6e\n",
				iteration, resSol, math.Abs(resCM), resH)
			fmt.Printf("\t\t\t\tTime: %v\n", time.Since(t))
			fmt.Printf("********************************************************\n")
		}
		if cfg.SaveEvery > 0 && iteration%cfg.SaveEvery == 0 {
			d.checkpoint(iteration, uNew, hNew)
		}

		uOld, hOld = uNew, hNew
		if resSol <= cfg.EpsSol && math.Abs(resCM) <= cfg.EpsMass && resH <= cfg.EpsH {
			converged = true
			break
		}
	}

	if converged {
		d.phase = PhaseConverged
	} else {
		d.phase = PhaseMaxIterExceeded
		fmt.Printf("The method has NOT reached convergence for minimum residual\n")
	}
	fmt.Printf("Iterative Process Time = %v\n", time.Since(start))

	res.U, res.H = uOld, hOld
	res.Iterations = iteration
	res.Converged = converged
	res.History = d.hist
	if err := d.finalize(res); err != nil {
		return res, err
	}
	return res, nil
}

// updateGeometry feeds the lagged internal and interstitial pressures to
// the compliance model and returns the per-element conductance. On the
// rigid path it only resets the undeformed geometry.
func (d *Driver) updateGeometry(u utils.Vector) []float64 {
	var (
		msh   = d.Mesh
		dof   = d.Flow.Dof
		cells = d.Flow.Cells()
		data  = u.DataP()
	)
	if !d.Cfg.Compliant {
		return nil
	}
	pvNodal := make([]float64, msh.NPressureDof())
	peNodal := make([]float64, msh.NPressureDof())
	for n := range pvNodal {
		pvNodal[n] = data[dof.PvOff()+n]
		peNodal[n] = data[dof.PtOff()+cells[n]]
	}
	return d.Vessel.Update(msh.InterpPointToP0(pvNodal), msh.InterpPointToP0(peNodal))
}

// lymphFlow evaluates the drained flux per tissue cell.
func (d *Driver) lymphFlow(pt []float64) []float64 {
	var (
		g   = d.Flow.Grid
		vol = g.CellVolume()
		f   = make([]float64, g.NCells())
	)
	for c := range f {
		f[c] = d.Flow.Lymph.Flow(pt[c]) * vol
	}
	return f
}

// solutionResidual sums the per-block relative norms of the flow iterate.
// Blocks whose previous iterate is identically zero are skipped.
func (d *Driver) solutionResidual(uNew, uOld utils.Vector) (res float64) {
	dof := d.Flow.Dof
	for _, blk := range [][2]int{
		{dof.UtOff(), dof.Ut},
		{dof.PtOff(), dof.Pt},
		{dof.UvOff(), dof.Uv},
		{dof.PvOff(), dof.Pv},
	} {
		r, ok := utils.RelativeNorm(uNew.Subset(blk[0], blk[1]), uOld.Subset(blk[0], blk[1]))
		if ok {
			res += r
		}
	}
	return
}

// massResidual sums the tissue continuity rows of A*U, re-adds the oncotic
// exchange moved to the rhs and, for the lagged sigmoid drainage, the
// fresh lymphatic flux, then normalizes by the total filtration rate.
func (d *Driver) massResidual(A utils.DOK, uNew utils.Vector, fLF []float64, tfr float64) float64 {
	var (
		dof = d.Flow.Dof
		aux = A.RowRangeMulVec(dof.PtOff(), dof.PtOff()+dof.Pt, uNew)
		s   = aux.Sum()
	)
	for _, v := range d.Flow.OncoticPtAux() {
		s += v
	}
	if d.Cfg.NonlinearLymph {
		s += sum(fLF)
	}
	if tfr == 0 {
		return 0
	}
	return s / tfr
}

// checkpoint exports the current iterate fields.
func (d *Driver) checkpoint(iteration int, u, h utils.Vector) {
	if !d.Cfg.ExportVTK {
		return
	}
	name := fmt.Sprintf("solution_%04d.vtk", iteration)
	if err := export.WriteVTK(filepath.Join(d.Cfg.OutputDir, name), d.Mesh, d.pointFields(u, h)...); err != nil {
		fmt.Printf("Warning: checkpoint export failed: %v\n", err)
	} else if d.Cfg.Verbose {
		fmt.Printf("Solution at iteration %d saved\n", iteration)
	}
}

// pointFields collapses the iterates onto mesh points for export. Branch
// dofs at shared junction points are resolved last-writer-wins, which is
// fine for visualization.
func (d *Driver) pointFields(u, h utils.Vector) []export.Field {
	var (
		msh  = d.Mesh
		dof  = d.Flow.Dof
		data = u.DataP()
		np   = msh.NPressureDof()
		pv   = make([]float64, np)
		uv   = make([]float64, np)
		ht   = make([]float64, np)
	)
	for n := 0; n < np; n++ {
		pv[n] = data[dof.PvOff()+n]
	}
	for rg := 0; rg < msh.NBranches(); rg++ {
		b := msh.Branches[rg]
		off := msh.BranchDofOffset(rg)
		for l, n := range b.Nodes {
			uv[n] = data[dof.UvOff()+off+l]
			ht[n] = h.DataP()[off+l]
		}
	}
	return []export.Field{
		{Name: "Pv", Values: pv},
		{Name: "Uv", Values: uv},
		{Name: "Ht", Values: ht},
	}
}

// finalize writes the residual history, its plot and the final solution.
func (d *Driver) finalize(res Result) error {
	if d.Cfg.OutputDir == "" {
		return nil
	}
	if err := export.WriteResiduals(filepath.Join(d.Cfg.OutputDir, "Residuals.txt"), d.hist); err != nil {
		return err
	}
	if err := export.PlotResiduals(filepath.Join(d.Cfg.OutputDir, "residuals.png"), d.hist); err != nil {
		fmt.Printf("Warning: residual plot failed: %v\n", err)
	}
	if d.Cfg.ExportVTK {
		return export.WriteVTK(filepath.Join(d.Cfg.OutputDir, "solution.vtk"),
			d.Mesh, d.pointFields(res.U, res.H)...)
	}
	return nil
}

// relax blends the fresh solve with the previous iterate.
func relax(sol, old utils.Vector, alpha float64) utils.Vector {
	if alpha == 1 {
		return sol
	}
	return sol.Copy().Scale(alpha).Add(old.Copy().Scale(1 - alpha))
}

func sum(v []float64) (s float64) {
	for _, x := range v {
		s += x
	}
	return
}
