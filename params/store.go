package params

import (
	"fmt"
	"math"

	"github.com/pkg/errors"

	"github.com/microvasc/gohemo/InputParameters"
	"github.com/microvasc/gohemo/mesh1d"
)

// Store holds the dimensionless physical and geometric parameters of the
// coupled problem, one value per P0 coefficient dof (element) for the
// vessel fields. Topology records never change after startup; the geometric
// fields (R, CSArea, CSPer, Cond) are overwritten in place once per outer
// iteration by the compliance model, which is their sole writer. Version
// stamps that write so readers can assert the phase barrier.
type Store struct {
	// Dimensionless scalars
	P, U, D       float64 // the nondimensionalization triplet (dimensional)
	MuV           float64 // blood viscosity scale [kg/ms]
	MuPlasma      float64 // plasma viscosity [kg/ms]
	PiT, PiV      float64
	Sigma         float64
	Gamma         float64
	E, Nu         float64 // wall elastic moduli (E dimensionless, E/P)
	Kt            float64 // tissue conductivity
	QLF           float64 // linear lymphatic conductivity
	QLFA, QLFB    float64 // sigmoid coefficients
	QLFC, QLFD    float64
	PL            float64 // lymphatic reference pressure
	P0            float64 // mixed-extremum reference pressure

	// Per-coefficient-dof vessel fields (P0, one per element)
	R      []float64 // radius
	Thick  []float64 // wall thickness
	CSArea []float64 // cross-section area
	CSPer  []float64 // cross-section perimeter
	Kv     []float64 // vessel bed conductivity
	Q      []float64 // wall conductivity
	Curv   []float64 // local curvature (zero unless CurveProblem)

	// Undeformed geometry, retained for the compliance model input
	RUnd, AreaUnd, PerUnd []float64

	// Optional per-branch overrides (nil means use the scalar)
	lpBranch, sigmaBranch, eBranch []float64
	lpScalar                       float64

	msh     *mesh1d.Mesh
	nondim  bool
	version int
}

// Build populates the store from the configuration, nondimensionalizing the
// physical inputs the way the coupled model expects. An unreadable or
// missing thickness input falls back to 20% of the radius with a warning.
func Build(ip *InputParameters.InputParameters, msh *mesh1d.Mesh) (s *Store, err error) {
	var (
		nc = msh.NCoefDof()
		nb = msh.NBranches()
	)
	s = &Store{
		P:        ip.P,
		U:        ip.U,
		D:        ip.D,
		MuV:      ip.MuV,
		MuPlasma: ip.MuT,
		Sigma:    ip.Sigma,
		Gamma:    ip.Gamma,
		Nu:       ip.Nu,
		PL:       ip.PL,
		P0:       ip.P0,
		msh:      msh,
		nondim:   ip.NonDimensional,
		lpScalar: ip.Lp,
	}
	if len(ip.LpByBranch) > 0 {
		if len(ip.LpByBranch) != nb {
			return nil, errors.Errorf("params: LpByBranch has %d entries, %d branches", len(ip.LpByBranch), nb)
		}
		s.lpBranch = ip.LpByBranch
	}
	if len(ip.SigmaByBranch) > 0 {
		if len(ip.SigmaByBranch) != nb {
			return nil, errors.Errorf("params: SigmaByBranch has %d entries, %d branches", len(ip.SigmaByBranch), nb)
		}
		s.sigmaBranch = ip.SigmaByBranch
	}
	if len(ip.EByBranch) > 0 {
		if len(ip.EByBranch) != nb {
			return nil, errors.Errorf("params: EByBranch has %d entries, %d branches", len(ip.EByBranch), nb)
		}
		s.eBranch = ip.EByBranch
	}

	// radius per coefficient dof, dimensionless
	s.R = make([]float64, nc)
	radiusOf := func(rg int) (r float64, err error) {
		switch {
		case len(ip.RadiusByBranch) > 0:
			if rg >= len(ip.RadiusByBranch) {
				return 0, errors.Errorf("params: no radius for branch %d", rg)
			}
			r = ip.RadiusByBranch[rg]
		case ip.Radius > 0:
			r = ip.Radius
		default:
			return 0, errors.New("params: no vessel radius configured")
		}
		if !ip.NonDimensional {
			r /= ip.D
		}
		return
	}
	for e := range s.R {
		rg := msh.Region[e]
		if s.R[e], err = radiusOf(rg); err != nil {
			return nil, err
		}
	}

	// thickness, with the 20%-of-radius fallback
	s.Thick = make([]float64, nc)
	fellBack := false
	for e := range s.Thick {
		rg := msh.Region[e]
		switch {
		case len(ip.ThicknessByBranch) > 0 && rg < len(ip.ThicknessByBranch) && ip.ThicknessByBranch[rg] > 0:
			s.Thick[e] = ip.ThicknessByBranch[rg]
			if !ip.NonDimensional {
				s.Thick[e] /= ip.D
			}
		case ip.Thickness > 0:
			s.Thick[e] = ip.Thickness
			if !ip.NonDimensional {
				s.Thick[e] /= ip.D
			}
		default:
			s.Thick[e] = 0.2 * s.R[e]
			fellBack = true
		}
	}
	if fellBack {
		fmt.Printf("Warning: wall thickness not configured, using 0.2*R\n")
	}

	s.CSArea = make([]float64, nc)
	s.CSPer = make([]float64, nc)
	for e := range s.R {
		s.CSArea[e] = math.Pi * s.R[e] * s.R[e]
		s.CSPer[e] = 2 * math.Pi * s.R[e]
	}
	s.Curv = make([]float64, nc) // zero unless a curvature source is wired

	// conductivities
	s.Kv = make([]float64, nc)
	s.Q = make([]float64, nc)
	if ip.NonDimensional {
		s.Kt = ip.Kt
		s.PiT = ip.PiTAd
		s.PiV = ip.PiVAd
		s.E = ip.E
		s.QLF = ip.QLF
		for e := range s.Kv {
			s.Kv[e] = ip.Kv
			s.Q[e] = ip.Q
		}
	} else {
		s.Kt = ip.K / ip.MuT * ip.P / ip.U / ip.D
		s.PiT = ip.PiT / ip.P
		s.PiV = ip.PiV / ip.P
		s.E = ip.E / ip.P
		for e := range s.Kv {
			r := s.R[e]
			lp := s.LpOf(msh.Region[e])
			s.Kv[e] = math.Pi / 2.0 / (ip.Gamma + 2.0) / ip.MuV * ip.P * ip.D / ip.U * r * r * r * r
			s.Q[e] = 2.0 * math.Pi * lp * ip.P / ip.U * r
		}
		if ip.LinearLymphatics {
			s.QLF = ip.LpLF * ip.P * ip.D / ip.U
		} else {
			s.QLFA = ip.ALF / ip.U * ip.D
			s.QLFB = ip.BLF / ip.U * ip.D
			s.QLFC = ip.CLF / ip.P
			s.QLFD = ip.DLF / ip.P
		}
		s.PL = ip.PL / ip.P
	}
	if s.Kt == 0 {
		return nil, errors.New("params: wrong tissue conductivity (kt>0 required)")
	}
	if s.Kv[0] == 0 {
		return nil, errors.New("params: wrong vessel bed conductivity (kv>0 required)")
	}
	if s.Q[0] == 0 {
		fmt.Printf("Warning: uncoupled problem (Q=0)\n")
	}

	s.RUnd = append([]float64(nil), s.R...)
	s.AreaUnd = append([]float64(nil), s.CSArea...)
	s.PerUnd = append([]float64(nil), s.CSPer...)
	return
}

// LpOf returns the wall permeability of a branch, honoring per-branch
// imports.
func (s *Store) LpOf(rg int) float64 {
	if s.lpBranch != nil {
		return s.lpBranch[rg]
	}
	return s.lpScalar
}

// SigmaOf returns the reflection coefficient of a branch.
func (s *Store) SigmaOf(rg int) float64 {
	if s.sigmaBranch != nil {
		return s.sigmaBranch[rg]
	}
	return s.Sigma
}

// EOf returns the dimensionless Young modulus of a branch.
func (s *Store) EOf(rg int) float64 {
	if s.eBranch != nil {
		if s.nondim {
			return s.eBranch[rg]
		}
		return s.eBranch[rg] / s.P
	}
	return s.E
}

// QOf returns the wall conductivity at dof e, tracking the current
// (possibly deformed) perimeter.
func (s *Store) QOf(e int) float64 {
	if s.nondim {
		return s.Q[e] * s.CSPer[e] / s.PerUnd[e]
	}
	return s.CSPer[e] * s.LpOf(s.msh.Region[e]) * s.P / s.U
}

// BranchRadius is the mean radius over the elements of branch rg, the
// representative value used for junction weights and partition laws.
func (s *Store) BranchRadius(rg int) (r float64) {
	b := s.msh.Branches[rg]
	for _, e := range b.Elems {
		r += s.R[e]
	}
	return r / float64(len(b.Elems))
}

// Version identifies the current geometry write phase. It increments once
// per CommitGeometry; assemblers read it to assert the barrier between the
// geometry-write and matrix-read phases of one outer iteration.
func (s *Store) Version() int { return s.version }

// CommitGeometry overwrites the deformed geometric fields in place and
// advances the version stamp. It is the single write point of an iteration.
func (s *Store) CommitGeometry(radius, area, per []float64) {
	if len(radius) != len(s.R) || len(area) != len(s.CSArea) || len(per) != len(s.CSPer) {
		panic(errors.Errorf("params: geometry commit size mismatch (%d,%d,%d) vs %d dofs",
			len(radius), len(area), len(per), len(s.R)))
	}
	copy(s.R, radius)
	copy(s.CSArea, area)
	copy(s.CSPer, per)
	s.version++
}
