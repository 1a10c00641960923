package fixpoint

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/microvasc/gohemo/InputParameters"
	"github.com/microvasc/gohemo/flow"
	"github.com/microvasc/gohemo/hematocrit"
	"github.com/microvasc/gohemo/linsolve"
	"github.com/microvasc/gohemo/mesh1d"
	"github.com/microvasc/gohemo/network"
	"github.com/microvasc/gohemo/params"
	"github.com/microvasc/gohemo/tissue"
	"github.com/microvasc/gohemo/utils"
	"github.com/microvasc/gohemo/vessel"
)

// yDriver wires a bifurcating network inside a unit tissue box with a unit
// pressure drop from the inlet to both outlets.
func yDriver(t *testing.T, outDir string) *Driver {
	msh, err := mesh1d.NewMeshFromArcs([][]mesh1d.Point{
		{{X: 0.1, Y: 0.5, Z: 0.5}, {X: 0.3, Y: 0.5, Z: 0.5}, {X: 0.5, Y: 0.5, Z: 0.5}},
		{{X: 0.5, Y: 0.5, Z: 0.5}, {X: 0.9, Y: 0.7, Z: 0.5}},
		{{X: 0.5, Y: 0.5, Z: 0.5}, {X: 0.9, Y: 0.3, Z: 0.5}},
	})
	assert.NoError(t, err)

	ip := &InputParameters.InputParameters{
		NonDimensional: true,
		RadiusByBranch: []float64{0.05, 0.04, 0.04},
		Gamma:          2, Nu: 0.5, E: 10,
		Kt: 1, Kv: 1, Q: 0.1,
		U: 1, P: 1, D: 1, MuV: 1, MuT: 1,
	}
	s, err := params.Build(ip, msh)
	assert.NoError(t, err)

	var inlet, out1, out2 int
	for p, pt := range msh.Points {
		switch pt {
		case mesh1d.Point{X: 0.1, Y: 0.5, Z: 0.5}:
			inlet = p
		case mesh1d.Point{X: 0.9, Y: 0.7, Z: 0.5}:
			out1 = p
		case mesh1d.Point{X: 0.9, Y: 0.3, Z: 0.5}:
			out2 = p
		}
	}
	bld := network.Builder{
		Mesh: msh,
		Expected: []mesh1d.ExpectedBC{
			{Point: inlet, Value: 1.0},
			{Point: out1, Value: 0.0},
			{Point: out2, Value: 0.0},
		},
		BranchRadius: s.BranchRadius,
	}
	bcs, juns, err := bld.Build()
	assert.NoError(t, err)

	g, err := tissue.NewGrid(4, 4, 4, 1, 1, 1)
	assert.NoError(t, err)
	lymph := tissue.LinearLymphatics{Grid: g, QLF: 0, PL: 0}
	visc := vessel.Viscosity{Model: "vitro", MuPlasma: 1, CharLength: 1.e-4}
	fl, err := flow.NewAssembler(msh, s, g, bcs, juns, visc, lymph, false)
	assert.NoError(t, err)
	ht := &hematocrit.Assembler{
		Mesh: msh, Store: s, BCs: bcs, Juns: juns,
		Theta: 1.0, BetaH: 1.0, HIn: 0.45,
	}
	return &Driver{
		Cfg: Config{
			MaxIterations: 50,
			Alpha:         1,
			EpsSol:        1.e-6, EpsMass: 1.e-6, EpsH: 1.e-6,
			HStart:    0.45,
			OutputDir: outDir,
			ExportVTK: true,
		},
		Mesh:   msh,
		Store:  s,
		Flow:   fl,
		HT:     ht,
		Vessel: &vessel.Model{Store: s, Mesh: msh},
		Solver: linsolve.LU{},
	}
}

func TestCoupledConvergence(t *testing.T) {
	outDir := t.TempDir()
	d := yDriver(t, outDir)
	res, err := d.Run()
	assert.NoError(t, err)
	assert.True(t, res.Converged)
	assert.Equal(t, PhaseConverged, d.Phase())
	assert.True(t, res.Iterations <= 50)

	dof := d.Flow.Dof
	data := res.U.DataP()
	{ // vessel pressure decreases from inlet toward both outlets
		msh := d.Mesh
		b := msh.Branches[0]
		pIn := data[dof.PvOff()+b.Nodes[0]]
		pJun := data[dof.PvOff()+b.Nodes[len(b.Nodes)-1]]
		assert.True(t, pIn > pJun)
		for rg := 1; rg <= 2; rg++ {
			bd := msh.Branches[rg]
			pOut := data[dof.PvOff()+bd.Nodes[len(bd.Nodes)-1]]
			assert.True(t, pJun > pOut)
		}
	}
	{ // flow runs tail to head in every branch
		for l := 0; l < dof.Uv; l++ {
			assert.True(t, data[dof.UvOff()+l] > 0)
		}
	}
	{ // hematocrit stays at the inflow value through the symmetric split
		for l := 0; l < res.H.Len(); l++ {
			assert.InDelta(t, 0.45, res.H.AtVec(l), 1.e-6)
		}
	}
	{ // positive net filtration: the vessel leaks into the tissue, and
		// with drainage off everything exits through the box boundary
		assert.True(t, res.TFR > 0)
		assert.InDelta(t, 0.0, res.FRlymph, 1.e-14)
		assert.InDelta(t, res.TFR, res.FRCube, 1.e-14)
	}
	{ // outputs land in the run directory
		for _, name := range []string{"Residuals.txt", "solution.vtk"} {
			_, err := os.Stat(filepath.Join(outDir, name))
			assert.NoError(t, err)
		}
	}
}

func TestNonConvergenceReported(t *testing.T) {
	outDir := t.TempDir()
	d := yDriver(t, outDir)
	d.Cfg.MaxIterations = 1
	d.Cfg.EpsSol = -1 // unreachable threshold
	d.Cfg.ExportVTK = false
	res, err := d.Run()
	assert.NoError(t, err)
	assert.False(t, res.Converged)
	assert.Equal(t, 1, res.Iterations)
	assert.Equal(t, PhaseMaxIterExceeded, d.Phase())
	assert.Equal(t, 1, len(res.History))
}

func TestRelax(t *testing.T) {
	sol := utils.NewVectorConstant(2, 2)
	old := utils.NewVector(2)
	r := relax(sol, old, 0.5)
	assert.InDelta(t, 1.0, r.AtVec(0), 1.e-14)
	// alpha 1 keeps the fresh solve untouched
	r = relax(sol, old, 1)
	assert.InDelta(t, 2.0, r.AtVec(0), 1.e-14)
}
