package hematocrit

import (
	"math"

	"github.com/microvasc/gohemo/mesh1d"
	"github.com/microvasc/gohemo/network"
	"github.com/microvasc/gohemo/params"
	"github.com/microvasc/gohemo/utils"
)

// Assembler builds the red-cell transport system on the branch-local
// nodal space. Each branch gets a conservative advection block driven by
// the current velocity iterate plus an artificial-diffusion block sized
// from the worst-case branch Peclet number; junction rows encode the
// plasma-skimming partition of incoming red cells among outgoing branches.
type Assembler struct {
	Mesh  *mesh1d.Mesh
	Store *params.Store
	BCs   []network.BoundaryCondition
	Juns  []network.JunctionNode

	// Theta scales the artificial diffusivity, BetaH the Robin inflow
	// coefficient, HIn the inflow hematocrit value.
	Theta float64
	BetaH float64
	HIn   float64

	// diffusivity of the last Assemble call, for diagnostics
	diffusivity float64
}

// Diffusivity returns the global artificial diffusivity of the last
// assembly.
func (asm *Assembler) Diffusivity() float64 { return asm.diffusivity }

// zero-flux guard below which a junction partition falls back to radius
// weights
const fluxEps = 1e-14

// Assemble builds the transport matrix and rhs from the branch-local
// velocity iterate uv.
func (asm *Assembler) Assemble(uv []float64) (A utils.DOK, rhs utils.Vector) {
	var (
		msh = asm.Mesh
		s   = asm.Store
		n   = msh.TotalBranchDof()
	)
	A = utils.NewDOK(n, n)
	rhs = utils.NewVector(n)

	// worst-case branch governs the stabilization: diffusivity is
	// max over branches of (max |u| * max h) * Theta/2
	var maxProduct float64
	for rg := 0; rg < msh.NBranches(); rg++ {
		var (
			b    = msh.Branches[rg]
			off  = msh.BranchDofOffset(rg)
			maxU float64
		)
		for l := 0; l < b.NbDof(); l++ {
			if u := math.Abs(uv[off+l]); u > maxU {
				maxU = u
			}
		}
		if p := maxU * msh.MaxElemSize(rg); p > maxProduct {
			maxProduct = p
		}
	}
	asm.diffusivity = maxProduct * asm.Theta / 2.0

	for rg := 0; rg < msh.NBranches(); rg++ {
		var (
			b     = msh.Branches[rg]
			off   = msh.BranchDofOffset(rg)
			idx   = func(l int) int { return off + l }
			area  = msh.InterpP0ToP1(rg, s.CSArea)
			w     = make([]float64, b.NbDof())
			diff  = make([]float64, b.NbDof())
		)
		for l := range w {
			w[l] = area[l] * uv[off+l]
			diff[l] = asm.diffusivity * area[l]
		}
		// conservative advection plus stabilizing diffusion; at Theta=1
		// the pair reduces to first-order upwinding on a uniform branch
		msh.AsmAdvection(A, rg, idx, idx, w)
		msh.AsmDiffusion(A, rg, idx, idx, diff)
	}

	asm.addJunctions(A, uv)
	asm.addBoundary(A, rhs, uv)
	return
}

// endState resolves the junction-side dof, element and signed flux of one
// attached branch. qIn > 0 means the branch feeds the junction.
func (asm *Assembler) endState(jb network.JunctionBranch, uv []float64) (row, elem int, qIn float64) {
	var (
		msh   = asm.Mesh
		b     = msh.Branches[jb.Branch]
		local int
	)
	if jb.Sign < 0 {
		local = b.NbDof() - 1
		elem = b.Elems[len(b.Elems)-1]
	} else {
		local = 0
		elem = b.Elems[0]
	}
	row = msh.BranchDofOffset(jb.Branch) + local
	qIn = -float64(jb.Sign) * uv[row] * asm.Store.CSArea[elem]
	return
}

// addJunctions writes the partition rows. Outgoing branch k receives the
// fraction q_k*r_k / sum_j(q_j*r_j) of the total incoming red-cell flux,
// the radius factor being the empirical plasma-skimming bias. When no
// flow crosses the junction the partition degenerates to pure radius
// weights against the junction's accumulated weight.
func (asm *Assembler) addJunctions(A utils.DOK, uv []float64) {
	s := asm.Store
	for i := range asm.Juns {
		jn := &asm.Juns[i]
		type end struct {
			row  int
			q    float64
			r    float64
		}
		var feeders, receivers []end
		for _, jb := range jn.Branches {
			row, elem, qIn := asm.endState(jb, uv)
			if qIn > 0 {
				feeders = append(feeders, end{row, qIn, s.R[elem]})
			} else {
				receivers = append(receivers, end{row, -qIn, s.R[elem]})
			}
		}
		if len(receivers) == 0 {
			continue
		}
		var norm float64
		for _, rc := range receivers {
			norm += rc.q * rc.r
		}
		if norm < fluxEps {
			// stalled junction: each outlet tracks the radius-weighted
			// mean of the feeder ends. The accumulated junction weight
			// minus the outlet shares is exactly the feeders' radius sum,
			// so the row preserves a constant field.
			wf := jn.Weight
			for _, rc := range receivers {
				wf -= rc.r
			}
			for _, rc := range receivers {
				A.Accum(rc.row, rc.row, 1.0)
				if len(feeders) == 0 || wf < fluxEps {
					continue
				}
				for _, f := range feeders {
					A.Accum(rc.row, f.row, -f.r/wf)
				}
			}
			continue
		}
		for _, rc := range receivers {
			frac := rc.q * rc.r / norm
			A.Accum(rc.row, rc.row, rc.q)
			for _, f := range feeders {
				A.Accum(rc.row, f.row, -frac*f.q)
			}
		}
	}
}

// addBoundary applies the Robin inflow condition and leaves outflow ends
// to the one-sided interior equation. The inflow row blends the advective
// influx with the BetaH penalty so the prescribed value is imposed weakly
// even at stalled inlets.
func (asm *Assembler) addBoundary(A utils.DOK, rhs utils.Vector, uv []float64) {
	var (
		msh = asm.Mesh
		s   = asm.Store
	)
	for _, bc := range asm.BCs {
		if bc.Label != network.Inflow {
			continue
		}
		var (
			rg    = bc.Branches[0]
			b     = msh.Branches[rg]
			off   = msh.BranchDofOffset(rg)
			local int
			elem  int
		)
		if b.Nodes[0] == bc.Vertex {
			local, elem = 0, b.Elems[0]
		} else {
			local, elem = b.NbDof()-1, b.Elems[len(b.Elems)-1]
		}
		var (
			row  = off + local
			area = s.CSArea[elem]
			q    = math.Abs(uv[row]) * area
			coef = q + asm.BetaH*area
		)
		A.Accum(row, row, coef)
		mesh1d.AsmPointSource(rhs, row, coef*asm.HIn)
	}
}
