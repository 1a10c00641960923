package tissue

import "github.com/microvasc/gohemo/utils"

// AsmDarcy assembles the mixed Darcy blocks of the interstitial problem
// into the global matrix: the face momentum rows (h/kt)·u + Δp = 0 scaled
// by face area, and the cell continuity rows summing signed face fluxes.
// The far-field pressure is pinned to zero on the box boundary, so the
// pressure block is well posed even without lymphatic drainage.
func (g *Grid) AsmDarcy(dst utils.DOK, utOff, ptOff int, kt float64) {
	g.asmDirection(dst, utOff, ptOff, kt,
		g.NX+1, g.NY, g.NZ, g.hx, g.hy*g.hz,
		func(i, j, k int) int { return g.faceX(i, j, k) },
		func(i, j, k int) int { return g.CellIndex(i, j, k) })
	g.asmDirection(dst, utOff, ptOff, kt,
		g.NY+1, g.NX, g.NZ, g.hy, g.hx*g.hz,
		func(j, i, k int) int { return g.faceY(i, j, k) },
		func(j, i, k int) int { return g.CellIndex(i, j, k) })
	g.asmDirection(dst, utOff, ptOff, kt,
		g.NZ+1, g.NX, g.NY, g.hz, g.hx*g.hy,
		func(k, i, j int) int { return g.faceZ(i, j, k) },
		func(k, i, j int) int { return g.CellIndex(i, j, k) })
}

// asmDirection handles one face orientation. n is the face count along the
// normal, m1/m2 the transverse cell counts, h the normal spacing, area the
// face area. face/cell map (normal, t1, t2) indices to global dofs, with
// cell taking the normal index of the cell on the lower side of the face.
func (g *Grid) asmDirection(dst utils.DOK, utOff, ptOff int, kt float64,
	n, m1, m2 int, h, area float64,
	face func(a, b, c int) int, cell func(a, b, c int) int) {
	for a := 0; a < n; a++ {
		for b := 0; b < m1; b++ {
			for c := 0; c < m2; c++ {
				f := utOff + face(a, b, c)
				switch {
				case a == 0:
					// lower boundary face, ghost pressure 0 outside
					cu := ptOff + cell(a, b, c)
					dst.Accum(f, f, h/2.0*area/kt)
					dst.Accum(f, cu, area)
					dst.Accum(cu, f, -area)
				case a == n-1:
					cl := ptOff + cell(a-1, b, c)
					dst.Accum(f, f, h/2.0*area/kt)
					dst.Accum(f, cl, -area)
					dst.Accum(cl, f, area)
				default:
					cl := ptOff + cell(a-1, b, c)
					cu := ptOff + cell(a, b, c)
					dst.Accum(f, f, h*area/kt)
					dst.Accum(f, cu, area)
					dst.Accum(f, cl, -area)
					// continuity: outflow positive through the upper face
					dst.Accum(cl, f, area)
					dst.Accum(cu, f, -area)
				}
			}
		}
	}
}
