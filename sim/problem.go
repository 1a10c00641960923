package sim

import (
	"fmt"
	"os"

	"github.com/pkg/errors"

	"github.com/microvasc/gohemo/InputParameters"
	"github.com/microvasc/gohemo/fixpoint"
	"github.com/microvasc/gohemo/flow"
	"github.com/microvasc/gohemo/hematocrit"
	"github.com/microvasc/gohemo/linsolve"
	"github.com/microvasc/gohemo/mesh1d"
	"github.com/microvasc/gohemo/network"
	"github.com/microvasc/gohemo/params"
	"github.com/microvasc/gohemo/tissue"
	"github.com/microvasc/gohemo/vessel"
)

// Problem ties a parsed configuration to a runnable coupled model: the
// network mesh, the tissue grid, the parameter store and the fixed-point
// driver operating on them.
type Problem struct {
	IP     *InputParameters.InputParameters
	Mesh   *mesh1d.Mesh
	Grid   *tissue.Grid
	Store  *params.Store
	BCs    []network.BoundaryCondition
	Juns   []network.JunctionNode
	Driver *fixpoint.Driver
}

// NewProblem builds the full pipeline from an input file that has been
// parsed and defaulted: mesh reading, topology reconstruction, parameter
// nondimensionalization and assembler wiring.
func NewProblem(ip *InputParameters.InputParameters) (p *Problem, err error) {
	p = &Problem{IP: ip}

	f, err := os.Open(ip.MeshFile)
	if err != nil {
		return nil, errors.Wrap(err, "sim: mesh file")
	}
	defer f.Close()
	msh, expected, err := mesh1d.ReadNetwork(f)
	if err != nil {
		return nil, errors.Wrapf(err, "sim: reading %s", ip.MeshFile)
	}
	p.Mesh = msh

	p.Store, err = params.Build(ip, msh)
	if err != nil {
		return nil, errors.Wrap(err, "sim: parameters")
	}

	bld := network.Builder{
		Mesh:         msh,
		Expected:     expected,
		BranchRadius: p.Store.BranchRadius,
		Verbose:      ip.Verbose,
	}
	p.BCs, p.Juns, err = bld.Build()
	if err != nil {
		return nil, errors.Wrap(err, "sim: network topology")
	}

	p.Grid, err = tissue.NewGrid(ip.TissueNX, ip.TissueNY, ip.TissueNZ,
		ip.TissueLX, ip.TissueLY, ip.TissueLZ)
	if err != nil {
		return nil, errors.Wrap(err, "sim: tissue grid")
	}

	var lymph tissue.Lymphatics
	if ip.LinearLymphatics {
		lymph = tissue.LinearLymphatics{
			Grid: p.Grid,
			QLF:  p.Store.QLF,
			PL:   p.Store.PL,
		}
	} else {
		lymph = tissue.SigmoidLymphatics{
			Grid: p.Grid,
			A:    p.Store.QLFA, B: p.Store.QLFB,
			C: p.Store.QLFC, D: p.Store.QLFD,
		}
	}

	visc := vessel.Viscosity{
		Model:      ip.ViscosityModel,
		MuPlasma:   p.Store.MuPlasma,
		CharLength: p.Store.D,
	}

	fl, err := flow.NewAssembler(msh, p.Store, p.Grid, p.BCs, p.Juns,
		visc, lymph, ip.CompliantVessels)
	if err != nil {
		return nil, errors.Wrap(err, "sim: flow assembler")
	}

	ht := &hematocrit.Assembler{
		Mesh: msh, Store: p.Store,
		BCs: p.BCs, Juns: p.Juns,
		Theta: ip.Theta,
		BetaH: ip.BetaH,
		HIn:   ip.HStart,
	}

	p.Driver = &fixpoint.Driver{
		Cfg: fixpoint.Config{
			MaxIterations:  ip.MaxIterations,
			SaveEvery:      ip.SaveEvery,
			Alpha:          ip.Alpha,
			EpsSol:         ip.EpsSol,
			EpsMass:        ip.EpsMass,
			EpsH:           ip.EpsH,
			HStart:         ip.HStart,
			PrintResiduals: ip.PrintResiduals,
			Verbose:        ip.Verbose,
			OutputDir:      ip.OutputDir,
			Compliant:      ip.CompliantVessels,
			NonlinearLymph: !ip.LinearLymphatics,
			ExportVTK:      true,
		},
		Mesh:   msh,
		Store:  p.Store,
		Flow:   fl,
		HT:     ht,
		Vessel: &vessel.Model{Store: p.Store, Mesh: msh},
		Solver: linsolve.LU{CondLimit: ip.CondLimit},
	}
	return p, nil
}

// Run executes the coupled fixed-point iteration and prints the global
// flow-rate summary.
func (p *Problem) Run() (fixpoint.Result, error) {
	res, err := p.Driver.Run()
	if err != nil {
		return res, err
	}
	fmt.Printf("TFR (total filtration rate)     = %12.6e\n", res.TFR)
	fmt.Printf("FRlymph (lymphatic drainage)    = %12.6e\n", res.FRlymph)
	fmt.Printf("FRCube (net boundary outflow)   = %12.6e\n", res.FRCube)
	return res, nil
}
