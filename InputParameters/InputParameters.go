package InputParameters

import (
	"fmt"

	"github.com/ghodss/yaml"
)

// Parameters obtained from the YAML input file
type InputParameters struct {
	Title    string `yaml:"Title"`
	MeshFile string `yaml:"MeshFile"`

	// Model switches
	CompliantVessels bool   `yaml:"CompliantVessels"`
	ViscosityModel   string `yaml:"ViscosityModel"` // "vivo" or "vitro"
	LinearLymphatics bool   `yaml:"LinearLymphatics"`
	CurveProblem     bool   `yaml:"CurveProblem"`
	NonDimensional   bool   `yaml:"NonDimensional"`

	// Fixed-point controls
	MaxIterations  int     `yaml:"MaxIterations"`
	SaveEvery      int     `yaml:"SaveEvery"`
	Alpha          float64 `yaml:"Alpha"` // under-relaxation, 1 disables
	EpsSol         float64 `yaml:"EpsSol"`
	EpsMass        float64 `yaml:"EpsMass"`
	EpsH           float64 `yaml:"EpsH"`
	CondLimit      float64 `yaml:"CondLimit"`
	PrintResiduals bool    `yaml:"PrintResiduals"`
	Verbose        bool    `yaml:"Verbose"`
	OutputDir      string  `yaml:"OutputDir"`

	// Hematocrit transport
	Theta  float64 `yaml:"Theta"`  // artificial-diffusion stabilization
	BetaH  float64 `yaml:"BetaH"`  // Robin coefficient at extrema
	HStart float64 `yaml:"HStart"` // uniform seed value

	// Dimensional physical parameters
	P     float64 `yaml:"P"`     // average interstitial pressure [Pa]
	U     float64 `yaml:"U"`     // characteristic flow speed [m/s]
	D     float64 `yaml:"D"`     // characteristic length [m]
	K     float64 `yaml:"K"`     // interstitium permeability [m^2]
	MuV   float64 `yaml:"MuV"`   // blood viscosity [kg/ms]
	MuT   float64 `yaml:"MuT"`   // interstitial fluid viscosity [kg/ms]
	PiT   float64 `yaml:"PiT"`   // interstitial oncotic pressure [Pa]
	PiV   float64 `yaml:"PiV"`   // plasma oncotic pressure [Pa]
	Sigma float64 `yaml:"Sigma"` // reflection coefficient [-]
	Gamma float64 `yaml:"Gamma"` // order of the velocity profile
	Lp    float64 `yaml:"Lp"`    // vessel wall permeability [m^2 s/kg]
	E     float64 `yaml:"E"`     // Young modulus of the vessel wall [Pa]
	Nu    float64 `yaml:"Nu"`    // Poisson modulus of the vessel wall [-]
	P0    float64 `yaml:"P0"`    // reference pressure for mixed extrema

	// Lymphatic drainage: linear conductivity or sigmoid coefficients
	LpLF float64 `yaml:"LpLF"` // [m s/kg] (linear case)
	PL   float64 `yaml:"PL"`   // lymphatic reference pressure
	ALF  float64 `yaml:"ALF"`  // [1/s]
	BLF  float64 `yaml:"BLF"`  // [1/s]
	CLF  float64 `yaml:"CLF"`  // [Pa]
	DLF  float64 `yaml:"DLF"`  // [Pa]

	// Dimensionless parameters, used when NonDimensional is set
	Kt    float64 `yaml:"Kt"`
	Kv    float64 `yaml:"Kv"`
	Q     float64 `yaml:"Q"`
	QLF   float64 `yaml:"QLF"`
	PiTAd float64 `yaml:"PiTAd"`
	PiVAd float64 `yaml:"PiVAd"`

	// Geometry: constant or per-branch values; zero thickness falls back
	// to 20% of the radius
	Radius            float64   `yaml:"Radius"`
	RadiusByBranch    []float64 `yaml:"RadiusByBranch"`
	Thickness         float64   `yaml:"Thickness"`
	ThicknessByBranch []float64 `yaml:"ThicknessByBranch"`

	// Per-branch overrides of wall/elastic data (empty means scalar value)
	LpByBranch    []float64 `yaml:"LpByBranch"`
	SigmaByBranch []float64 `yaml:"SigmaByBranch"`
	EByBranch     []float64 `yaml:"EByBranch"`

	// Tissue slab discretization
	TissueNX int     `yaml:"TissueNX"`
	TissueNY int     `yaml:"TissueNY"`
	TissueNZ int     `yaml:"TissueNZ"`
	TissueLX float64 `yaml:"TissueLX"`
	TissueLY float64 `yaml:"TissueLY"`
	TissueLZ float64 `yaml:"TissueLZ"`
}

func (ip *InputParameters) Parse(data []byte) error {
	return yaml.Unmarshal(data, ip)
}

func (ip *InputParameters) Print() {
	fmt.Printf("\"%s\"\t\t= Title\n", ip.Title)
	fmt.Printf("[%s]\t\t= MeshFile\n", ip.MeshFile)
	fmt.Printf("%8.5f\t\t= Alpha\n", ip.Alpha)
	fmt.Printf("%8.2e\t\t= EpsSol\n", ip.EpsSol)
	fmt.Printf("%8.2e\t\t= EpsMass\n", ip.EpsMass)
	fmt.Printf("%8.2e\t\t= EpsH\n", ip.EpsH)
	fmt.Printf("[%d]\t\t\t= MaxIterations\n", ip.MaxIterations)
	fmt.Printf("[%v]\t\t\t= CompliantVessels\n", ip.CompliantVessels)
	fmt.Printf("[%s]\t\t\t= ViscosityModel\n", ip.ViscosityModel)
	fmt.Printf("[%v]\t\t\t= LinearLymphatics\n", ip.LinearLymphatics)
	fmt.Printf("%8.5f\t\t= Theta\n", ip.Theta)
	fmt.Printf("%8.5f\t\t= HStart\n", ip.HStart)
}

// Defaults fills the zero values a run cannot proceed without.
func (ip *InputParameters) Defaults() {
	if ip.Alpha == 0 {
		ip.Alpha = 1
	}
	if ip.MaxIterations == 0 {
		ip.MaxIterations = 100
	}
	if ip.SaveEvery == 0 {
		ip.SaveEvery = 10
	}
	if ip.Gamma == 0 {
		ip.Gamma = 2
	}
	if ip.CondLimit == 0 {
		ip.CondLimit = 1e14
	}
	if ip.EpsSol == 0 {
		ip.EpsSol = 1e-6
	}
	if ip.EpsMass == 0 {
		ip.EpsMass = 1e-6
	}
	if ip.EpsH == 0 {
		ip.EpsH = 1e-6
	}
	if ip.HStart == 0 {
		ip.HStart = 0.45
	}
	if ip.ViscosityModel == "" {
		ip.ViscosityModel = "vivo"
	}
	if ip.OutputDir == "" {
		ip.OutputDir = "./output/"
	}
	if ip.NonDimensional {
		// the viscosity scales drop out of a fully reduced setup
		if ip.MuV == 0 {
			ip.MuV = 1
		}
		if ip.MuT == 0 {
			ip.MuT = 1
		}
		if ip.U == 0 {
			ip.U = 1
		}
		if ip.P == 0 {
			ip.P = 1
		}
		if ip.D == 0 {
			ip.D = 1
		}
	}
	if ip.TissueNX == 0 {
		ip.TissueNX = 10
	}
	if ip.TissueNY == 0 {
		ip.TissueNY = 10
	}
	if ip.TissueNZ == 0 {
		ip.TissueNZ = 10
	}
	if ip.TissueLX == 0 {
		ip.TissueLX = 1
	}
	if ip.TissueLY == 0 {
		ip.TissueLY = 1
	}
	if ip.TissueLZ == 0 {
		ip.TissueLZ = 1
	}
}
