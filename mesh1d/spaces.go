package mesh1d

// Function spaces on the network:
//   - per-branch P1 nodal spaces, one for velocity and one for hematocrit,
//     discontinuous across junctions (each branch owns its end nodes);
//   - a global P1 pressure space on the mesh points, continuous everywhere;
//   - a global P0 coefficient space, one dof per element, carrying geometry
//     and material data (radius, area, perimeter, conductance, viscosity).

// BranchDofOffset returns the offset of branch rg's block inside the
// concatenated per-branch nodal vector (vessel velocity or hematocrit).
func (msh *Mesh) BranchDofOffset(rg int) (offset int) {
	for i := 0; i < rg; i++ {
		offset += msh.Branches[i].NbDof()
	}
	return
}

// TotalBranchDof is the size of a concatenated per-branch nodal vector.
func (msh *Mesh) TotalBranchDof() (n int) {
	for _, b := range msh.Branches {
		n += b.NbDof()
	}
	return
}

// NCoefDof is the size of the P0 coefficient space.
func (msh *Mesh) NCoefDof() int { return len(msh.Elements) }

// NPressureDof is the size of the global P1 pressure space.
func (msh *Mesh) NPressureDof() int { return len(msh.Points) }

// InterpP0ToP1 interpolates a P0 coefficient field (indexed by global
// element id) onto branch rg's nodal space: interior nodes average the two
// adjacent element values, end nodes take their single neighbor.
func (msh *Mesh) InterpP0ToP1(rg int, coef []float64) (nodal []float64) {
	b := msh.Branches[rg]
	nodal = make([]float64, b.NbDof())
	for k, e := range b.Elems {
		nodal[k] += 0.5 * coef[e]
		nodal[k+1] += 0.5 * coef[e]
	}
	// end nodes saw a single element, restore full weight
	nodal[0] *= 2
	nodal[len(nodal)-1] *= 2
	return
}

// InterpP1ToP0 projects branch rg's nodal field onto its elements by
// midpoint value, writing into coef at global element ids.
func (msh *Mesh) InterpP1ToP0(rg int, nodal []float64, coef []float64) {
	b := msh.Branches[rg]
	for k, e := range b.Elems {
		coef[e] = 0.5 * (nodal[k] + nodal[k+1])
	}
}

// InterpPointToP0 projects a global nodal field (pressure space) onto the
// coefficient space by element midpoint value.
func (msh *Mesh) InterpPointToP0(nodal []float64) (coef []float64) {
	coef = make([]float64, msh.NCoefDof())
	for e, el := range msh.Elements {
		coef[e] = 0.5 * (nodal[el[0]] + nodal[el[1]])
	}
	return
}

// Dof is the monolithic flow-vector layout: four contiguous blocks in the
// order tissue velocity, tissue pressure, vessel velocity, vessel pressure.
type Dof struct {
	Ut, Pt, Uv, Pv int
}

func (d Dof) UtOff() int { return 0 }
func (d Dof) PtOff() int { return d.Ut }
func (d Dof) UvOff() int { return d.Ut + d.Pt }
func (d Dof) PvOff() int { return d.Ut + d.Pt + d.Uv }
func (d Dof) Tot() int   { return d.Ut + d.Pt + d.Uv + d.Pv }
