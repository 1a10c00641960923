package flow

import (
	"math"

	"github.com/pkg/errors"

	"github.com/microvasc/gohemo/mesh1d"
	"github.com/microvasc/gohemo/network"
	"github.com/microvasc/gohemo/params"
	"github.com/microvasc/gohemo/tissue"
	"github.com/microvasc/gohemo/utils"
	"github.com/microvasc/gohemo/vessel"
)

// Assembler builds the monolithic coupled flow system once per outer
// iteration. Unknown ordering is [Ut | Pt | Uv | Pv]: tissue face
// velocities, tissue cell pressures, branch-local vessel velocities,
// global vessel point pressures. Block layout:
//
//	[ Mtt   -Dttᵀ        0           0    ]
//	[ Dtt    Btt+Lym     0          -Btv  ]
//	[ 0      0           Mvv        -(Dvv+Jvv)ᵀ ]
//	[ 0     -Bvt         Dvv+Jvv     Bvv  ]
//
// Mvv carries the viscosity- and conductance-weighted Poiseuille mass,
// Dvv the flux-form vessel divergence, Jvv the junction mass-balance
// couplings, and the B blocks the transvascular exchange.
type Assembler struct {
	Mesh  *mesh1d.Mesh
	Store *params.Store
	Grid  *tissue.Grid
	BCs   []network.BoundaryCondition
	Juns  []network.JunctionNode
	Dof   mesh1d.Dof
	Visc  vessel.Viscosity
	Lymph tissue.Lymphatics

	// Compliant switches the Mvv coefficient and divergence between the
	// deformed-geometry path and the rigid Poiseuille path.
	Compliant bool

	// cells[n] is the tissue cell containing mesh point n, the collapsed
	// form of the vessel-to-tissue averaging operator.
	cells []int

	// mu is the per-element apparent viscosity of the last Assemble call,
	// exported for diagnostics.
	mu []float64

	// exchange state of the last Assemble call, kept for the filtration
	// and mass-residual diagnostics
	bvv     utils.DOK
	deltaPi []float64
}

// NewAssembler wires the assembler and resolves every mesh point to its
// tissue cell. A network outside the tissue box is a configuration error.
func NewAssembler(msh *mesh1d.Mesh, s *params.Store, g *tissue.Grid,
	bcs []network.BoundaryCondition, juns []network.JunctionNode,
	visc vessel.Viscosity, lymph tissue.Lymphatics, compliant bool) (*Assembler, error) {

	asm := &Assembler{
		Mesh: msh, Store: s, Grid: g,
		BCs: bcs, Juns: juns,
		Visc: visc, Lymph: lymph,
		Compliant: compliant,
		Dof: mesh1d.Dof{
			Ut: g.NFaces(),
			Pt: g.NCells(),
			Uv: msh.TotalBranchDof(),
			Pv: msh.NPressureDof(),
		},
	}
	asm.cells = make([]int, msh.NPressureDof())
	for n, p := range msh.Points {
		c, err := g.CellOf(p)
		if err != nil {
			return nil, errors.Wrapf(err, "flow: mesh point %d", n)
		}
		asm.cells[n] = c
	}
	asm.mu = make([]float64, msh.NCoefDof())
	return asm, nil
}

// Mu returns the per-element apparent viscosity of the last assembly.
func (asm *Assembler) Mu() []float64 { return asm.mu }

// Cells returns the tissue cell containing each mesh point.
func (asm *Assembler) Cells() []int { return asm.cells }

// Filtration evaluates the transvascular flux profile of a solution
// iterate: per vessel pressure dof, Q-weighted (Pv - Pt_bar - sigma dPi).
// Its sum is the total filtration rate.
func (asm *Assembler) Filtration(u utils.Vector) (uphi []float64) {
	var (
		dof  = asm.Dof
		data = u.DataP()
	)
	uphi = make([]float64, asm.Mesh.NPressureDof())
	asm.bvv.M.DoNonZero(func(r, c int, v float64) {
		pv := data[dof.PvOff()+c]
		pt := data[dof.PtOff()+asm.cells[c]]
		uphi[r] += v * (pv - pt - asm.deltaPi[c])
	})
	return
}

// OncoticPtAux returns the oncotic exchange term summed onto each tissue
// cell, the quantity re-added to A*U when forming the mass-conservation
// residual.
func (asm *Assembler) OncoticPtAux() (aux []float64) {
	aux = make([]float64, asm.Grid.NCells())
	asm.bvv.M.DoNonZero(func(r, c int, v float64) {
		aux[asm.cells[r]] += v * asm.deltaPi[c]
	})
	return
}

// Assemble builds the full system for one outer iteration. cond is the
// per-element conductance from the compliance model (ignored on the rigid
// path), hNodal the branch-local hematocrit iterate, ptOld the lagged
// tissue cell pressures feeding the nonlinear lymphatic term.
func (asm *Assembler) Assemble(cond, hNodal, ptOld []float64) (A utils.DOK, rhs utils.Vector) {
	var (
		msh = asm.Mesh
		s   = asm.Store
		dof = asm.Dof
		n   = dof.Tot()
	)
	A = utils.NewDOK(n, n)
	rhs = utils.NewVector(n)

	// tissue Darcy blocks and lymphatic drainage
	asm.Grid.AsmDarcy(A, dof.UtOff(), dof.PtOff(), s.Kt)
	asm.Lymph.Assemble(A, rhs, dof.PtOff(), ptOld)

	asm.updateViscosity(hNodal)

	// vessel Poiseuille blocks, branch by branch
	dvv := utils.NewDOK(msh.NPressureDof(), msh.TotalBranchDof())
	ciM := make([]float64, msh.NCoefDof())
	for rg := 0; rg < msh.NBranches(); rg++ {
		var (
			b     = msh.Branches[rg]
			off   = msh.BranchDofOffset(rg)
			uIdx  = func(l int) int { return dof.UvOff() + off + l }
			uLoc  = func(l int) int { return off + l }
			pvLoc = func(l int) int { return b.Nodes[l] }
		)
		for _, e := range b.Elems {
			if asm.Compliant {
				ciM[e] = cond[e] * asm.mu[e]
			} else {
				ciM[e] = vessel.RigidConductance(s, e) * asm.mu[e]
			}
		}
		msh.AsmMass(A, rg, uIdx, uIdx, ciM)
		if asm.Compliant {
			msh.AsmDivergenceVar(dvv, rg, pvLoc, uLoc, msh.InterpP0ToP1(rg, s.CSArea))
		} else {
			msh.AsmDivergence(dvv, rg, pvLoc, uLoc, s.CSArea)
		}
	}

	asm.addJunctions(dvv)

	// place Dvv+Jvv at (Pv,Uv) and its negated transpose at (Uv,Pv)
	dvv.M.DoNonZero(func(r, c int, v float64) {
		A.Accum(dof.PvOff()+r, dof.UvOff()+c, v)
		A.Accum(dof.UvOff()+c, dof.PvOff()+r, -v)
	})

	asm.addExchange(A, rhs)
	asm.addBoundary(A, rhs)
	return
}

// updateViscosity evaluates the apparent blood viscosity on each element
// from the midpoint hematocrit and the current radius.
func (asm *Assembler) updateViscosity(hNodal []float64) {
	var (
		msh = asm.Mesh
		s   = asm.Store
		h   = make([]float64, msh.NCoefDof())
	)
	for rg := 0; rg < msh.NBranches(); rg++ {
		off := msh.BranchDofOffset(rg)
		nb := msh.Branches[rg].NbDof()
		msh.InterpP1ToP0(rg, hNodal[off:off+nb], h)
	}
	for e := range asm.mu {
		asm.mu[e] = asm.Visc.Mu(h[e], s.R[e])
	}
}

// addJunctions adds the mass-balance couplings: each attached branch
// contributes sign*area at its extremal velocity dof on the junction's
// pressure row.
func (asm *Assembler) addJunctions(dvv utils.DOK) {
	var (
		msh = asm.Mesh
		s   = asm.Store
	)
	for _, jn := range asm.Juns {
		for _, jb := range jn.Branches {
			b := msh.Branches[jb.Branch]
			var local, elem int
			if jb.Sign < 0 { // branch head meets the junction
				local = b.NbDof() - 1
				elem = b.Elems[len(b.Elems)-1]
			} else {
				local = 0
				elem = b.Elems[0]
			}
			col := msh.BranchDofOffset(jb.Branch) + local
			dvv.Accum(jn.Vertex, col, float64(jb.Sign)*s.CSArea[elem])
		}
	}
}

// addExchange assembles the transvascular leakage blocks from the wall
// conductivity mass matrix on the vessel pressure space, spreading the
// tissue side onto containing cells, plus the oncotic pressure jump on the
// rhs.
func (asm *Assembler) addExchange(A utils.DOK, rhs utils.Vector) {
	var (
		msh = asm.Mesh
		s   = asm.Store
		dof = asm.Dof
	)
	bvv := utils.NewDOK(msh.NPressureDof(), msh.NPressureDof())
	q := make([]float64, msh.NCoefDof())
	for e := range q {
		q[e] = s.QOf(e)
	}
	deltaPi := make([]float64, msh.NPressureDof())
	asm.bvv, asm.deltaPi = bvv, deltaPi
	for rg := 0; rg < msh.NBranches(); rg++ {
		b := msh.Branches[rg]
		pvLoc := func(l int) int { return b.Nodes[l] }
		msh.AsmMass(bvv, rg, pvLoc, pvLoc, q)
		for _, n := range b.Nodes {
			deltaPi[n] = s.SigmaOf(rg) * (s.PiV - s.PiT)
		}
	}
	data := rhs.DataP()
	bvv.M.DoNonZero(func(r, c int, v float64) {
		var (
			cr = asm.cells[r]
			cc = asm.cells[c]
		)
		A.Accum(dof.PtOff()+cr, dof.PtOff()+cc, v)
		A.Accum(dof.PtOff()+cr, dof.PvOff()+c, -v)
		A.Accum(dof.PvOff()+r, dof.PtOff()+cc, -v)
		A.Accum(dof.PvOff()+r, dof.PvOff()+c, v)
		// oncotic jump drives filtration out of the vessel
		data[dof.PtOff()+cr] -= v * deltaPi[c]
		data[dof.PvOff()+r] += v * deltaPi[c]
	})
}

// addBoundary applies the network extremum conditions. INFLOW and OUTFLOW
// carry a prescribed pressure entering the momentum rows as the natural
// boundary term, signed by the outward direction of the branch end. MIX
// extrema get the Robin correction against the far-field pressure P0
// (rigid geometry only, matching the compliant solver's DIR-only support).
func (asm *Assembler) addBoundary(A utils.DOK, rhs utils.Vector) {
	var (
		msh = asm.Mesh
		s   = asm.Store
		dof = asm.Dof
	)
	for _, bc := range asm.BCs {
		var (
			rg    = bc.Branches[0]
			b     = msh.Branches[rg]
			off   = msh.BranchDofOffset(rg)
			local int
			elem  int
			sign  float64
		)
		if b.Nodes[0] == bc.Vertex {
			local, elem, sign = 0, b.Elems[0], -1
		} else {
			local, elem, sign = b.NbDof()-1, b.Elems[len(b.Elems)-1], 1
		}
		row := dof.UvOff() + off + local
		area := s.CSArea[elem]
		switch bc.Label {
		case network.Inflow, network.Outflow:
			mesh1d.AsmPointSource(rhs, row, -sign*bc.Value*area)
		case network.Mixed:
			if bc.Value != 0 {
				r := s.R[elem]
				A.Accum(row, row, -math.Pi*math.Pi*utils.POW(r, 4)/bc.Value)
			}
			mesh1d.AsmPointSource(rhs, row, -sign*s.P0*area)
		}
	}
}
