package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/microvasc/gohemo/InputParameters"
	"github.com/microvasc/gohemo/mesh1d"
	"github.com/microvasc/gohemo/network"
	"github.com/microvasc/gohemo/params"
	"github.com/microvasc/gohemo/tissue"
	"github.com/microvasc/gohemo/utils"
	"github.com/microvasc/gohemo/vessel"
)

func testAssembler(t *testing.T, sigma float64) (*Assembler, *params.Store) {
	msh, err := mesh1d.NewMeshFromArcs([][]mesh1d.Point{
		{{X: 0.1, Y: 0.5, Z: 0.5}, {X: 0.5, Y: 0.5, Z: 0.5}, {X: 0.9, Y: 0.5, Z: 0.5}},
	})
	assert.NoError(t, err)
	ip := &InputParameters.InputParameters{
		NonDimensional: true,
		Radius:         0.05,
		Gamma:          2, Nu: 0.5, E: 10,
		Kt: 1, Kv: 1, Q: 0.1,
		U: 1, P: 1, D: 1, MuV: 1, MuT: 1,
		Sigma: sigma, PiVAd: 0.5, PiTAd: 0.1,
	}
	s, err := params.Build(ip, msh)
	assert.NoError(t, err)
	bld := network.Builder{
		Mesh:         msh,
		Expected:     []mesh1d.ExpectedBC{{Point: 0, Value: 1.0}},
		BranchRadius: s.BranchRadius,
	}
	bcs, juns, err := bld.Build()
	assert.NoError(t, err)
	g, err := tissue.NewGrid(2, 2, 2, 1, 1, 1)
	assert.NoError(t, err)
	asm, err := NewAssembler(msh, s, g, bcs, juns,
		vessel.Viscosity{Model: "const", MuPlasma: 1},
		tissue.LinearLymphatics{Grid: g}, false)
	assert.NoError(t, err)
	return asm, s
}

func TestDofLayout(t *testing.T) {
	asm, _ := testAssembler(t, 0)
	assert.Equal(t, asm.Grid.NFaces(), asm.Dof.Ut)
	assert.Equal(t, asm.Grid.NCells(), asm.Dof.Pt)
	assert.Equal(t, asm.Mesh.TotalBranchDof(), asm.Dof.Uv)
	assert.Equal(t, asm.Mesh.NPressureDof(), asm.Dof.Pv)
}

func TestOutsideBoxRejected(t *testing.T) {
	msh, err := mesh1d.NewMeshFromArcs([][]mesh1d.Point{
		{{X: 0, Y: 0, Z: 0}, {X: 2, Y: 0, Z: 0}}, // leaves the unit box
	})
	assert.NoError(t, err)
	ip := &InputParameters.InputParameters{
		NonDimensional: true, Radius: 0.05,
		Gamma: 2, Kt: 1, Kv: 1, Q: 1,
	}
	s, err := params.Build(ip, msh)
	assert.NoError(t, err)
	g, err := tissue.NewGrid(2, 2, 2, 1, 1, 1)
	assert.NoError(t, err)
	_, err = NewAssembler(msh, s, g, nil, nil,
		vessel.Viscosity{Model: "const", MuPlasma: 1},
		tissue.LinearLymphatics{Grid: g}, false)
	assert.Error(t, err)
}

func TestAssembleStructure(t *testing.T) {
	asm, s := testAssembler(t, 0)
	var (
		dof    = asm.Dof
		hNodal = make([]float64, asm.Mesh.TotalBranchDof())
		ptOld  = make([]float64, dof.Pt)
	)
	for l := range hNodal {
		hNodal[l] = 0.45
	}
	A, rhs := asm.Assemble(nil, hNodal, ptOld)

	{ // constant-viscosity model: mu is the plasma value everywhere
		for _, mu := range asm.Mu() {
			assert.InDelta(t, 1.0, mu, 1.e-14)
		}
	}
	{ // the saddle coupling between vessel velocity and pressure is
		// antisymmetric
		for c := 0; c < dof.Uv; c++ {
			for r := 0; r < dof.Pv; r++ {
				assert.InDelta(t, A.At(dof.PvOff()+r, dof.UvOff()+c),
					-A.At(dof.UvOff()+c, dof.PvOff()+r), 1.e-14)
			}
		}
	}
	{ // vessel momentum diagonal is positive
		for l := 0; l < dof.Uv; l++ {
			assert.True(t, A.At(dof.UvOff()+l, dof.UvOff()+l) > 0)
		}
	}
	{ // the inflow pressure enters the tail momentum row with + sign
		b := asm.Mesh.Branches[0]
		row := dof.UvOff() + 0
		area := s.CSArea[b.Elems[0]]
		assert.InDelta(t, 1.0*area, rhs.AtVec(row), 1.e-14)
	}
	{ // with sigma = 0 the oncotic terms vanish
		for _, v := range asm.OncoticPtAux() {
			assert.InDelta(t, 0.0, v, 1.e-14)
		}
	}
}

func TestFiltrationSign(t *testing.T) {
	asm, _ := testAssembler(t, 0)
	dof := asm.Dof
	hNodal := make([]float64, dof.Uv)
	asm.Assemble(nil, hNodal, make([]float64, dof.Pt))

	// unit vessel pressure over zero tissue pressure leaks outward
	u := utils.NewVector(dof.Tot())
	for n := 0; n < dof.Pv; n++ {
		u.Set(dof.PvOff()+n, 1.0)
	}
	uphi := asm.Filtration(u)
	var tfr float64
	for _, v := range uphi {
		tfr += v
	}
	assert.True(t, tfr > 0)

	// reversing the jump reverses the flux
	for n := 0; n < dof.Pv; n++ {
		u.Set(dof.PvOff()+n, 0.0)
	}
	for c := 0; c < dof.Pt; c++ {
		u.Set(dof.PtOff()+c, 1.0)
	}
	uphi = asm.Filtration(u)
	tfr = 0
	for _, v := range uphi {
		tfr += v
	}
	assert.True(t, tfr < 0)
}

func TestOncoticJump(t *testing.T) {
	asm, s := testAssembler(t, 0.9)
	dof := asm.Dof
	hNodal := make([]float64, dof.Uv)
	_, rhs := asm.Assemble(nil, hNodal, make([]float64, dof.Pt))

	// the oncotic jump pushes fluid back into the vessel: positive on the
	// vessel pressure rows, negative on the tissue side
	assert.InDelta(t, 0.4, s.PiV-s.PiT, 1.e-14)
	var vSide, tSide float64
	for n := 0; n < dof.Pv; n++ {
		vSide += rhs.AtVec(dof.PvOff() + n)
	}
	for c := 0; c < dof.Pt; c++ {
		tSide += rhs.AtVec(dof.PtOff() + c)
	}
	assert.True(t, vSide > 0)
	assert.True(t, tSide < 0)
	assert.InDelta(t, 0.0, vSide+tSide, 1.e-12)
}
