package mesh1d

import (
	"github.com/microvasc/gohemo/utils"
)

// Elementary 1D P1 operators. Each assembler walks one branch and
// accumulates 2x2 element contributions into a sparse target through
// caller-supplied index maps, so the same kernels serve branch-local
// blocks (hematocrit) and mixed global/local blocks (flow divergence).

// massStencil is h*[[1/3,1/6],[1/6,1/3]], the P1 element mass matrix.
func massStencil(h float64) [2][2]float64 {
	return [2][2]float64{{h / 3, h / 6}, {h / 6, h / 3}}
}

// gradStencil is [[-1/2,1/2],[-1/2,1/2]]: ∫ φ_i φ_j' ds, independent of h.
func gradStencil() [2][2]float64 {
	return [2][2]float64{{-0.5, 0.5}, {-0.5, 0.5}}
}

// stiffStencil is 1/h*[[1,-1],[-1,1]], the P1 element stiffness matrix.
func stiffStencil(h float64) [2][2]float64 {
	return [2][2]float64{{1 / h, -1 / h}, {-1 / h, 1 / h}}
}

// AsmMass accumulates the coefficient-weighted mass operator of branch rg:
// M_ij += Σ_e coef(e) ∫_e φ_i φ_j ds. coef is indexed by global element id.
func (msh *Mesh) AsmMass(dst utils.DOK, rg int, rowIdx, colIdx func(local int) int, coef []float64) {
	b := msh.Branches[rg]
	for k, e := range b.Elems {
		s := massStencil(msh.ElemLength(e))
		c := coef[e]
		for i := 0; i < 2; i++ {
			for j := 0; j < 2; j++ {
				dst.Accum(rowIdx(k+i), colIdx(k+j), c*s[i][j])
			}
		}
	}
}

// AsmAdvection accumulates B_ij += Σ_e ∫_e φ_i (a u φ_j)' ds for branch rg,
// with the advected flux a·u taken nodally: column j is scaled by the nodal
// value w[j] = a_j u_j of the branch-local field.
func (msh *Mesh) AsmAdvection(dst utils.DOK, rg int, rowIdx, colIdx func(local int) int, w []float64) {
	b := msh.Branches[rg]
	g := gradStencil()
	for k := range b.Elems {
		for i := 0; i < 2; i++ {
			for j := 0; j < 2; j++ {
				dst.Accum(rowIdx(k+i), colIdx(k+j), g[i][j]*w[k+j])
			}
		}
	}
}

// AsmDiffusion accumulates D_ij += Σ_e k_e ∫_e φ_i' φ_j' ds for branch rg,
// with the diffusivity given nodally and averaged per element.
func (msh *Mesh) AsmDiffusion(dst utils.DOK, rg int, rowIdx, colIdx func(local int) int, diff []float64) {
	b := msh.Branches[rg]
	for k, e := range b.Elems {
		s := stiffStencil(msh.ElemLength(e))
		ke := 0.5 * (diff[k] + diff[k+1])
		for i := 0; i < 2; i++ {
			for j := 0; j < 2; j++ {
				dst.Accum(rowIdx(k+i), colIdx(k+j), ke*s[i][j])
			}
		}
	}
}

// AsmDivergence accumulates D_ij += Σ_e a_e ∫_e φ_i φ_j' ds for branch rg,
// the flux-form divergence with a constant cross-section area per element.
// area is indexed by global element id.
func (msh *Mesh) AsmDivergence(dst utils.DOK, rg int, rowIdx, colIdx func(local int) int, area []float64) {
	b := msh.Branches[rg]
	g := gradStencil()
	for k, e := range b.Elems {
		a := area[e]
		for i := 0; i < 2; i++ {
			for j := 0; j < 2; j++ {
				dst.Accum(rowIdx(k+i), colIdx(k+j), a*g[i][j])
			}
		}
	}
}

// AsmDivergenceVar accumulates D_ij += Σ_e ∫_e φ_i (a φ_j)' ds for branch
// rg, with the area interpolated linearly between the branch-local nodal
// values. It reduces to AsmDivergence when the area is constant.
func (msh *Mesh) AsmDivergenceVar(dst utils.DOK, rg int, rowIdx, colIdx func(local int) int, areaNodal []float64) {
	b := msh.Branches[rg]
	for k := range b.Elems {
		var (
			a0 = areaNodal[k]
			a1 = areaNodal[k+1]
		)
		d := [2][2]float64{
			{-2*a0/3 + a1/6, a0/6 + a1/3},
			{-a0/3 - a1/6, -a0/6 + 2*a1/3},
		}
		for i := 0; i < 2; i++ {
			for j := 0; j < 2; j++ {
				dst.Accum(rowIdx(k+i), colIdx(k+j), d[i][j])
			}
		}
	}
}

// AsmSource accumulates F_i += Σ_e val ∫_e φ_i ds over the elements of
// branch rg incident to local node at (an extremum source term).
func (msh *Mesh) AsmSource(dst utils.Vector, rg int, rowIdx func(local int) int, val float64) {
	b := msh.Branches[rg]
	data := dst.DataP()
	for k, e := range b.Elems {
		h := msh.ElemLength(e)
		data[rowIdx(k)] += 0.5 * h * val
		data[rowIdx(k+1)] += 0.5 * h * val
	}
}

// AsmPointSource adds val directly at one nodal row, the collocated form
// used for boundary fluxes at branch extremities.
func AsmPointSource(dst utils.Vector, row int, val float64) {
	dst.DataP()[row] += val
}
