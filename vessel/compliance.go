package vessel

import (
	"math"

	"github.com/microvasc/gohemo/mesh1d"
	"github.com/microvasc/gohemo/params"
)

// The wall regimes of the compliance model. A deformed cross section is
// either circular (thick-walled arterioles, and venules below the buckling
// threshold) or buckled (thin-walled venules past it); each variant carries
// its own conductance law.

// buckling empirical fits: area and resistance integral as exponential laws
// of the dimensionless transmural pressure, clamped at the fully collapsed
// limit.
const (
	buckledAreaCoef  = 15.95
	buckledAreaExp   = -0.545
	buckledResCoef   = 69.56
	buckledResExp    = -1.74
	collapsedPAdim   = 5.0
	arterioleRatio   = 0.1
)

type CrossSection interface {
	// Geometry returns deformed radius, area and perimeter.
	Geometry() (radius, area, per float64)
	// Conductance returns the flow conductance of the section; curv is the
	// local vessel curvature, geomScale the U/(P·d) nondimensional factor.
	Conductance(geomScale, gamma, curv float64) float64
}

// Circular carries the deformed radius of a section that kept its shape.
type Circular struct {
	Radius float64
}

func (c Circular) Geometry() (radius, area, per float64) {
	return c.Radius, math.Pi * c.Radius * c.Radius, 2 * math.Pi * c.Radius
}

// Poiseuille-type conductance, area²/R⁴, amplified by the curvature
// correction (1 + κ²R²).
func (c Circular) Conductance(geomScale, gamma, curv float64) float64 {
	_, area, _ := c.Geometry()
	r := c.Radius
	return geomScale * area * area * 2.0 * (gamma + 2.0) / math.Pi / (r * r * r * r) *
		(1.0 + curv*curv*r*r)
}

// Buckled carries the empirical collapsed-section state. RefRadius is the
// undeformed radius the exponential laws are scaled by; ResInt the
// resistance integral of the collapsed profile.
type Buckled struct {
	Area            float64
	HydraulicRadius float64
	RefRadius       float64
	ResInt          float64
}

func (b Buckled) Geometry() (radius, area, per float64) {
	return b.HydraulicRadius, b.Area, 2 * math.Pi * b.RefRadius
}

// Conductance of a buckled section: area² / (reference radius⁴ × resistance
// integral). Curvature is neglected past buckling.
func (b Buckled) Conductance(geomScale, gamma, curv float64) float64 {
	r4 := b.RefRadius * b.RefRadius * b.RefRadius * b.RefRadius
	return b.Area * b.Area / r4 / b.ResInt
}

// Model recomputes the deformed geometry and conductance of every
// coefficient dof from the lagged pressure iterate. It always starts from
// the undeformed geometry, so two calls with identical pressures yield
// identical output.
type Model struct {
	Store *params.Store
	Mesh  *mesh1d.Mesh
}

// Section classifies one dof. pInt/pExt are the internal and
// external (interstitial) pressures, ru/hu the undeformed radius and wall
// thickness, ei the branch's dimensionless Young modulus.
func (m *Model) Section(pInt, pExt, ru, hu, ei float64) CrossSection {
	var (
		nu     = m.Store.Nu
		deltap = pExt - pInt
		ratio  = hu / ru
	)
	if ratio >= arterioleRatio {
		// thick wall: linear Lamé-type correction, section stays circular
		den := (ru+hu)*(ru+hu) - ru*ru
		b1 := (pInt*ru*ru - pExt*(ru+hu)*(ru+hu)) / den
		b2 := deltap * ru * ru * (ru + hu) * (ru + hu) / den
		r := ru * (1 + (1-nu)/ei*b1 - (1+nu)/ei*b2/ru/ru)
		return Circular{Radius: r}
	}
	// thin wall: circular below the buckling threshold
	threshold := 3 * ei * ratio * ratio * ratio / 12.0 / (1 - nu*nu)
	if deltap <= threshold {
		return Circular{Radius: ru * (1 - (1-nu*nu)/ratio/ei*deltap)}
	}
	// buckled: exponential laws in the dimensionless pressure, clamped at
	// the fully collapsed limit
	pAdim := deltap * 12 * (1 - nu*nu) / ei / (ratio * ratio * ratio)
	if pAdim > collapsedPAdim {
		pAdim = collapsedPAdim
	}
	area := buckledAreaCoef * math.Exp(buckledAreaExp*pAdim) * ru * ru
	per := 2 * math.Pi * ru
	return Buckled{
		Area:            area,
		HydraulicRadius: area / per,
		RefRadius:       ru,
		ResInt:          buckledResCoef * math.Exp(buckledResExp*pAdim),
	}
}

// Update walks every branch and dof, recomputes the deformed section from
// the given per-dof pressures, commits radius/area/perimeter to the store
// in one write (the iteration's phase barrier) and returns the per-dof
// conductance vector.
func (m *Model) Update(pInt, pExt []float64) (cond []float64) {
	var (
		s         = m.Store
		msh       = m.Mesh
		nc        = msh.NCoefDof()
		geomScale = s.U / s.P / s.D
	)
	cond = make([]float64, nc)
	radius := make([]float64, nc)
	area := make([]float64, nc)
	per := make([]float64, nc)
	for rg := 0; rg < msh.NBranches(); rg++ {
		ei := s.EOf(rg)
		for _, e := range msh.Branches[rg].Elems {
			sec := m.Section(pInt[e], pExt[e], s.RUnd[e], s.Thick[e], ei)
			radius[e], area[e], per[e] = sec.Geometry()
			cond[e] = sec.Conductance(geomScale, s.Gamma, s.Curv[e])
		}
	}
	s.CommitGeometry(radius, area, per)
	return
}

// RigidConductance is the fixed Poiseuille coefficient used when the
// compliant-vessels flag is off: undeformed area²/kv with the curvature
// correction.
func RigidConductance(s *params.Store, e int) float64 {
	r := s.R[e]
	return s.CSArea[e] * s.CSArea[e] / s.Kv[e] * (1.0 + s.Curv[e]*s.Curv[e]*r*r) / s.MuV
}
