package vessel

import "math"

// Pries blood viscosity correlations. Both take the local hematocrit and
// the vessel diameter in micrometers and return the relative apparent
// viscosity, to be scaled by the plasma viscosity.

const refHematocrit = 0.45

// shape exponent of the hematocrit dependence, common to both correlations
func priesC(d float64) float64 {
	var (
		d12 = math.Pow(d, 12)
		s   = 1.0 / (1.0 + 1e-11*d12)
	)
	return (0.8+math.Exp(-0.075*d))*(-1.0+s) + s
}

func mu45Vitro(d float64) float64 {
	return 220.0*math.Exp(-1.3*d) + 3.2 - 2.44*math.Exp(-0.06*math.Pow(d, 0.645))
}

func mu45Vivo(d float64) float64 {
	return 6.0*math.Exp(-0.085*d) + 3.2 - 2.44*math.Exp(-0.06*math.Pow(d, 0.645))
}

// RelativeVitro is the in-vitro (glass tube) correlation.
func RelativeVitro(h, d float64) float64 {
	if h == 0 {
		return 1.0
	}
	c := priesC(d)
	mu45 := mu45Vitro(d)
	return 1.0 + (mu45-1.0)*(math.Pow(1.0-h, c)-1.0)/(math.Pow(1.0-refHematocrit, c)-1.0)
}

// RelativeVivo is the in-vivo correlation, with the endothelial surface
// layer correction (d/(d−1.1))².
func RelativeVivo(h, d float64) float64 {
	if h == 0 {
		return 1.0
	}
	var (
		c    = priesC(d)
		mu45 = mu45Vivo(d)
		esl  = d / (d - 1.1)
	)
	return (1.0 + (mu45-1.0)*(math.Pow(1.0-h, c)-1.0)/
		(math.Pow(1.0-refHematocrit, c)-1.0)*esl*esl) * esl * esl
}

// Viscosity evaluates apparent blood viscosity from the configured model.
// Model is one of "vivo", "vitro" or "const".
type Viscosity struct {
	Model    string
	MuPlasma float64
	// CharLength converts dimensionless radii back to meters before the
	// micrometer conversion the correlations expect.
	CharLength float64
}

// Mu returns the apparent viscosity at hematocrit h in a vessel of
// dimensionless radius r.
func (v Viscosity) Mu(h, r float64) float64 {
	if v.Model == "const" {
		return v.MuPlasma
	}
	d := 2.0 * r * v.CharLength * 1e6 // diameter in micrometers
	switch v.Model {
	case "vitro":
		return v.MuPlasma * RelativeVitro(h, d)
	default:
		return v.MuPlasma * RelativeVivo(h, d)
	}
}
