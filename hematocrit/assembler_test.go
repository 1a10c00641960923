package hematocrit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"

	"github.com/microvasc/gohemo/InputParameters"
	"github.com/microvasc/gohemo/mesh1d"
	"github.com/microvasc/gohemo/network"
	"github.com/microvasc/gohemo/params"
	"github.com/microvasc/gohemo/utils"
)

func buildCase(t *testing.T, arcs [][]mesh1d.Point, radii []float64) (
	*mesh1d.Mesh, *params.Store, []network.BoundaryCondition, []network.JunctionNode) {

	msh, err := mesh1d.NewMeshFromArcs(arcs)
	assert.NoError(t, err)
	ip := &InputParameters.InputParameters{
		NonDimensional: true,
		RadiusByBranch: radii,
		Gamma:          2, Kt: 1, Kv: 1, Q: 1,
	}
	s, err := params.Build(ip, msh)
	assert.NoError(t, err)

	// inflow at the tail of branch 0, remaining extrema open
	bld := network.Builder{
		Mesh:         msh,
		Expected:     []mesh1d.ExpectedBC{{Point: 0, Value: 1.0}},
		BranchRadius: s.BranchRadius,
	}
	bcs, juns, err := bld.Build()
	assert.NoError(t, err)
	return msh, s, bcs, juns
}

func solve(t *testing.T, A utils.DOK, rhs utils.Vector) utils.Vector {
	var lu mat.LU
	lu.Factorize(A.Dense().M)
	n := rhs.Len()
	x := utils.NewVector(n)
	var xv mat.VecDense
	err := lu.SolveVecTo(&xv, false, rhs.V)
	assert.NoError(t, err)
	for i := 0; i < n; i++ {
		x.Set(i, xv.AtVec(i))
	}
	return x
}

func TestSingleBranchTransport(t *testing.T) {
	msh, s, bcs, juns := buildCase(t, [][]mesh1d.Point{
		{{X: 0, Y: 0, Z: 0}, {X: 0.25, Y: 0, Z: 0}, {X: 0.5, Y: 0, Z: 0}, {X: 0.75, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}},
	}, []float64{0.05})
	asm := &Assembler{
		Mesh: msh, Store: s, BCs: bcs, Juns: juns,
		Theta: 1.0, BetaH: 1.0, HIn: 0.45,
	}
	n := msh.TotalBranchDof()
	// uniform positive velocity: the inflow value advects through unchanged
	uv := make([]float64, n)
	for l := range uv {
		uv[l] = 1.0
	}
	A, rhs := asm.Assemble(uv)
	assert.True(t, asm.Diffusivity() > 0)
	h := solve(t, A, rhs)
	for l := 0; l < n; l++ {
		assert.InDelta(t, 0.45, h.AtVec(l), 1.e-10)
	}
}

func TestBifurcationSkimming(t *testing.T) {
	arcs := [][]mesh1d.Point{
		{{X: 0, Y: 0, Z: 0}, {X: 0.5, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}},
		{{X: 1, Y: 0, Z: 0}, {X: 1.5, Y: 0.5, Z: 0}},
		{{X: 1, Y: 0, Z: 0}, {X: 1.5, Y: -0.5, Z: 0}},
	}
	{ // symmetric split with equal radii: both daughters inherit the
		// parent hematocrit
		msh, s, bcs, juns := buildCase(t, arcs, []float64{0.05, 0.05, 0.05})
		asm := &Assembler{
			Mesh: msh, Store: s, BCs: bcs, Juns: juns,
			Theta: 1.0, BetaH: 1.0, HIn: 0.45,
		}
		n := msh.TotalBranchDof()
		uv := make([]float64, n)
		// parent carries u=1; daughters split it evenly (equal areas)
		for l := 0; l < msh.Branches[0].NbDof(); l++ {
			uv[msh.BranchDofOffset(0)+l] = 1.0
		}
		for rg := 1; rg <= 2; rg++ {
			off := msh.BranchDofOffset(rg)
			for l := 0; l < msh.Branches[rg].NbDof(); l++ {
				uv[off+l] = 0.5
			}
		}
		A, rhs := asm.Assemble(uv)
		h := solve(t, A, rhs)
		for l := 0; l < n; l++ {
			assert.InDelta(t, 0.45, h.AtVec(l), 1.e-10)
		}
		// red-cell flux balances across the junction
		var (
			q0 = uv[msh.BranchDofOffset(0)+2] * s.CSArea[msh.Branches[0].Elems[1]]
			h0 = h.AtVec(msh.BranchDofOffset(0) + 2)
			in = q0 * h0
		)
		var out float64
		for rg := 1; rg <= 2; rg++ {
			off := msh.BranchDofOffset(rg)
			e := msh.Branches[rg].Elems[0]
			out += uv[off] * s.CSArea[e] * h.AtVec(off)
		}
		assert.InDelta(t, in, out, 1.e-10)
	}
	{ // unequal radii bias the distribution toward the wider daughter
		msh, s, bcs, juns := buildCase(t, arcs, []float64{0.05, 0.06, 0.03})
		asm := &Assembler{
			Mesh: msh, Store: s, BCs: bcs, Juns: juns,
			Theta: 1.0, BetaH: 1.0, HIn: 0.45,
		}
		n := msh.TotalBranchDof()
		uv := make([]float64, n)
		for l := 0; l < msh.Branches[0].NbDof(); l++ {
			uv[msh.BranchDofOffset(0)+l] = 1.0
		}
		// equal velocities in the daughters, areas differ; the common
		// value preserves the total flow across the junction
		var (
			a0   = s.CSArea[msh.Branches[0].Elems[0]]
			atot = s.CSArea[msh.Branches[1].Elems[0]] + s.CSArea[msh.Branches[2].Elems[0]]
			ud   = a0 / atot
		)
		for rg := 1; rg <= 2; rg++ {
			off := msh.BranchDofOffset(rg)
			for l := 0; l < msh.Branches[rg].NbDof(); l++ {
				uv[off+l] = ud
			}
		}
		A, rhs := asm.Assemble(uv)
		h := solve(t, A, rhs)
		hWide := h.AtVec(msh.BranchDofOffset(1))
		hNarrow := h.AtVec(msh.BranchDofOffset(2))
		assert.True(t, hWide > hNarrow)

		// total red-cell flux is still conserved
		var (
			q0 = uv[msh.BranchDofOffset(0)+2] * s.CSArea[msh.Branches[0].Elems[1]]
			in = q0 * h.AtVec(msh.BranchDofOffset(0)+2)
		)
		var out float64
		for rg := 1; rg <= 2; rg++ {
			off := msh.BranchDofOffset(rg)
			e := msh.Branches[rg].Elems[0]
			out += uv[off] * s.CSArea[e] * h.AtVec(off)
		}
		assert.InDelta(t, in, out, 1.e-10)
	}
}

func TestStalledOutletRadiusWeights(t *testing.T) {
	// two feeders of unequal radius merge into a stalled outlet: the
	// outlet row blends the feeder ends by their share of the junction's
	// accumulated radius weight
	arcs := [][]mesh1d.Point{
		{{X: 0, Y: 0, Z: 0}, {X: 0.5, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}},
		{{X: 2, Y: 0, Z: 0}, {X: 1.5, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}},
		{{X: 1, Y: 0, Z: 0}, {X: 1, Y: 0.5, Z: 0}},
	}
	msh, s, bcs, juns := buildCase(t, arcs, []float64{0.06, 0.03, 0.05})
	asm := &Assembler{
		Mesh: msh, Store: s, BCs: bcs, Juns: juns,
		Theta: 0.0, BetaH: 1.0, HIn: 0.45,
	}
	n := msh.TotalBranchDof()
	uv := make([]float64, n)
	for l := 0; l < 6; l++ { // both feeders flow toward the junction
		uv[l] = 1.0
	}
	A, _ := asm.Assemble(uv)

	assert.Equal(t, 1, len(juns))
	assert.InDelta(t, 0.14, juns[0].Weight, 1.e-14)
	wf := juns[0].Weight - 0.05 // feeders' share of the accumulated weight
	var (
		f0  = msh.BranchDofOffset(0) + msh.Branches[0].NbDof() - 1
		f1  = msh.BranchDofOffset(1) + msh.Branches[1].NbDof() - 1
		out = msh.BranchDofOffset(2)
	)
	assert.InDelta(t, 1.0, A.At(out, out), 1.e-14)
	assert.InDelta(t, -0.06/wf, A.At(out, f0), 1.e-14)
	assert.InDelta(t, -0.03/wf, A.At(out, f1), 1.e-14)
	// a constant field satisfies the outlet row exactly
	assert.InDelta(t, 0.0, A.At(out, out)+A.At(out, f0)+A.At(out, f1), 1.e-14)
}

func TestStalledJunction(t *testing.T) {
	arcs := [][]mesh1d.Point{
		{{X: 0, Y: 0, Z: 0}, {X: 0.5, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}},
		{{X: 1, Y: 0, Z: 0}, {X: 1.5, Y: 0.5, Z: 0}},
		{{X: 1, Y: 0, Z: 0}, {X: 1.5, Y: -0.5, Z: 0}},
	}
	msh, s, bcs, juns := buildCase(t, arcs, []float64{0.05, 0.05, 0.05})
	asm := &Assembler{
		Mesh: msh, Store: s, BCs: bcs, Juns: juns,
		Theta: 1.0, BetaH: 1.0, HIn: 0.45,
	}
	n := msh.TotalBranchDof()
	// zero velocity: the junction partition degenerates, but each end row
	// still gets a unit diagonal so the closure stays well defined
	uv := make([]float64, n)
	A, _ := asm.Assemble(uv)
	assert.InDelta(t, 0.0, asm.Diffusivity(), 1.e-14)
	for _, jn := range juns {
		for _, jb := range jn.Branches {
			b := msh.Branches[jb.Branch]
			local := 0
			if jb.Sign < 0 {
				local = b.NbDof() - 1
			}
			row := msh.BranchDofOffset(jb.Branch) + local
			assert.InDelta(t, 1.0, A.At(row, row), 1.e-14)
		}
	}
}
