package sim

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/microvasc/gohemo/InputParameters"
)

const yNetwork = `BEGIN_LIST
BEGIN_ARC
  BC DIR 1.0
  BC INT 0.0
  0.1 0.5 0.5
  0.3 0.5 0.5
  0.5 0.5 0.5
END_ARC
BEGIN_ARC
  BC INT 0.0
  BC DIR 0.0
  0.5 0.5 0.5
  0.9 0.7 0.5
END_ARC
BEGIN_ARC
  BC INT 0.0
  BC DIR 0.0
  0.5 0.5 0.5
  0.9 0.3 0.5
END_ARC
END_LIST
`

func writeMesh(t *testing.T) string {
	path := filepath.Join(t.TempDir(), "network.pts")
	assert.NoError(t, os.WriteFile(path, []byte(yNetwork), 0o644))
	return path
}

func TestNewProblem(t *testing.T) {
	ip := &InputParameters.InputParameters{
		MeshFile:         writeMesh(t),
		NonDimensional:   true,
		LinearLymphatics: true,
		ViscosityModel:   "const",
		RadiusByBranch:   []float64{0.05, 0.04, 0.04},
		Kt:               1, Kv: 1, Q: 0.1,
		TissueNX: 4, TissueNY: 4, TissueNZ: 4,
	}
	ip.Defaults()
	p, err := NewProblem(ip)
	assert.NoError(t, err)
	assert.Equal(t, 3, p.Mesh.NBranches())
	assert.Equal(t, 3, len(p.BCs))
	assert.Equal(t, 1, len(p.Juns))
	assert.Equal(t, 64, p.Grid.NCells())
	assert.NotNil(t, p.Driver)
	assert.Equal(t, 100, p.Driver.Cfg.MaxIterations)
	assert.False(t, p.Driver.Cfg.NonlinearLymph)
}

func TestRunToConvergence(t *testing.T) {
	outDir := t.TempDir()
	ip := &InputParameters.InputParameters{
		MeshFile:         writeMesh(t),
		NonDimensional:   true,
		LinearLymphatics: true,
		ViscosityModel:   "const",
		RadiusByBranch:   []float64{0.05, 0.04, 0.04},
		Kt:               1, Kv: 1, Q: 0.1,
		TissueNX: 4, TissueNY: 4, TissueNZ: 4,
		OutputDir: outDir,
	}
	ip.Defaults()
	p, err := NewProblem(ip)
	assert.NoError(t, err)
	res, err := p.Run()
	assert.NoError(t, err)
	assert.True(t, res.Converged)
	assert.True(t, res.TFR > 0)
	_, err = os.Stat(filepath.Join(outDir, "solution.vtk"))
	assert.NoError(t, err)
}

func TestNewProblemErrors(t *testing.T) {
	{ // missing mesh file
		ip := &InputParameters.InputParameters{MeshFile: "/nonexistent/mesh.pts"}
		_, err := NewProblem(ip)
		assert.Error(t, err)
	}
	{ // network outside the tissue box
		path := filepath.Join(t.TempDir(), "network.pts")
		bad := "BEGIN_ARC\nBC DIR 1.0\nBC DIR 0.0\n-5 0 0\n5 0 0\nEND_ARC\n"
		assert.NoError(t, os.WriteFile(path, []byte(bad), 0o644))
		ip := &InputParameters.InputParameters{
			MeshFile:       path,
			NonDimensional: true,
			RadiusByBranch: []float64{0.05},
			Kt:             1, Kv: 1, Q: 0.1,
		}
		ip.Defaults()
		_, err := NewProblem(ip)
		assert.Error(t, err)
	}
}
