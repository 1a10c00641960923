package tissue

import (
	"github.com/pkg/errors"

	"github.com/microvasc/gohemo/mesh1d"
	"github.com/microvasc/gohemo/utils"
)

// Grid is the uniform staggered hexahedral grid the interstitial Darcy
// problem lives on. Pressure dofs sit at cell centers, velocity dofs on
// cell faces (normal components). The vessel network must lie inside the
// box [0,LX]×[0,LY]×[0,LZ].
type Grid struct {
	NX, NY, NZ int
	LX, LY, LZ float64
	hx, hy, hz float64
}

func NewGrid(nx, ny, nz int, lx, ly, lz float64) (*Grid, error) {
	if nx < 1 || ny < 1 || nz < 1 {
		return nil, errors.Errorf("tissue grid: nonpositive cell count %dx%dx%d", nx, ny, nz)
	}
	if lx <= 0 || ly <= 0 || lz <= 0 {
		return nil, errors.Errorf("tissue grid: nonpositive extent %gx%gx%g", lx, ly, lz)
	}
	return &Grid{
		NX: nx, NY: ny, NZ: nz,
		LX: lx, LY: ly, LZ: lz,
		hx: lx / float64(nx), hy: ly / float64(ny), hz: lz / float64(nz),
	}, nil
}

func (g *Grid) NCells() int { return g.NX * g.NY * g.NZ }

// Face dofs are enumerated x-normal first, then y, then z.
func (g *Grid) NFacesX() int { return (g.NX + 1) * g.NY * g.NZ }
func (g *Grid) NFacesY() int { return g.NX * (g.NY + 1) * g.NZ }
func (g *Grid) NFacesZ() int { return g.NX * g.NY * (g.NZ + 1) }
func (g *Grid) NFaces() int  { return g.NFacesX() + g.NFacesY() + g.NFacesZ() }

func (g *Grid) CellVolume() float64 { return g.hx * g.hy * g.hz }

func (g *Grid) CellIndex(i, j, k int) int {
	return (k*g.NY+j)*g.NX + i
}

func (g *Grid) faceX(i, j, k int) int {
	return (k*g.NY+j)*(g.NX+1) + i
}

func (g *Grid) faceY(i, j, k int) int {
	return g.NFacesX() + (k*(g.NY+1)+j)*g.NX + i
}

func (g *Grid) faceZ(i, j, k int) int {
	return g.NFacesX() + g.NFacesY() + (k*g.NY+j)*g.NX + i
}

// CellOf locates the cell containing a point, with points on the upper box
// faces clamped into the last cell. Points outside the box are an error.
func (g *Grid) CellOf(p mesh1d.Point) (int, error) {
	var (
		tol = 1e-12
	)
	if p.X < -tol || p.X > g.LX+tol ||
		p.Y < -tol || p.Y > g.LY+tol ||
		p.Z < -tol || p.Z > g.LZ+tol {
		return 0, errors.Errorf("tissue grid: point (%g,%g,%g) outside the box", p.X, p.Y, p.Z)
	}
	clamp := func(v float64, h float64, n int) int {
		i := int(v / h)
		if i < 0 {
			i = 0
		}
		if i >= n {
			i = n - 1
		}
		return i
	}
	return g.CellIndex(
		clamp(p.X, g.hx, g.NX),
		clamp(p.Y, g.hy, g.NY),
		clamp(p.Z, g.hz, g.NZ)), nil
}

// Mbar maps tissue cell pressures to vessel nodal pressure dofs: row n of
// the result picks the cell containing mesh point n. Its transpose spreads
// vessel wall fluxes back onto the tissue cells.
func Mbar(g *Grid, msh *mesh1d.Mesh) (R utils.DOK, err error) {
	R = utils.NewDOK(msh.NPressureDof(), g.NCells())
	for n, p := range msh.Points {
		c, cerr := g.CellOf(p)
		if cerr != nil {
			return R, errors.Wrapf(cerr, "mesh point %d", n)
		}
		R.Set(n, c, 1.0)
	}
	return R, nil
}
