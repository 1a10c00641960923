package mesh1d

import (
	"math"

	"github.com/pkg/errors"
)

// A network mesh is an unordered collection of 2-node segment elements in 3D,
// grouped into branch regions. No explicit graph is stored: connectivity is
// recovered from point incidence by the topology builder.

type Point struct {
	X, Y, Z float64
}

func (p Point) Sub(q Point) Point  { return Point{p.X - q.X, p.Y - q.Y, p.Z - q.Z} }
func (p Point) Norm() float64      { return math.Sqrt(p.X*p.X + p.Y*p.Y + p.Z*p.Z) }
func (p Point) Dot(q Point) float64 { return p.X*q.X + p.Y*q.Y + p.Z*q.Z }

type Mesh struct {
	Points   []Point
	Elements [][2]int // point ids, ordered tail -> head along the branch
	Region   []int    // branch region id of each element

	Branches []Branch

	pointElems [][]int // elements incident to each point
}

// Branch is a maximal run of elements sharing one region id, with element
// ordering and node enumeration fixed at construction.
type Branch struct {
	Index int
	Elems []int // element ids in arc order
	Nodes []int // point ids in arc order, len(Elems)+1
}

// NbDof is the size of the branch's P1 nodal space (velocity, hematocrit).
func (b Branch) NbDof() int { return len(b.Nodes) }

// NewMesh assembles a mesh from raw points/elements/regions and derives the
// incidence structure and branch records. Region ids must be 0..nb-1; the
// elements of one region must chain head-to-tail into a single open arc.
func NewMesh(points []Point, elements [][2]int, region []int) (msh *Mesh, err error) {
	if len(elements) != len(region) {
		return nil, errors.Errorf("mesh: %d elements but %d region tags", len(elements), len(region))
	}
	msh = &Mesh{
		Points:   points,
		Elements: elements,
		Region:   region,
	}
	msh.pointElems = make([][]int, len(points))
	for e, el := range elements {
		for _, p := range el {
			if p < 0 || p >= len(points) {
				return nil, errors.Errorf("mesh: element %d references point %d out of range", e, p)
			}
			msh.pointElems[p] = append(msh.pointElems[p], e)
		}
	}
	if err = msh.buildBranches(); err != nil {
		return nil, err
	}
	return
}

func (msh *Mesh) buildBranches() (err error) {
	nb := 0
	for _, rg := range msh.Region {
		if rg+1 > nb {
			nb = rg + 1
		}
	}
	elemsOf := make([][]int, nb)
	for e, rg := range msh.Region {
		if rg < 0 {
			return errors.Errorf("mesh: element %d has negative region id %d", e, rg)
		}
		elemsOf[rg] = append(elemsOf[rg], e)
	}
	msh.Branches = make([]Branch, nb)
	for rg := 0; rg < nb; rg++ {
		if len(elemsOf[rg]) == 0 {
			return errors.Errorf("mesh: region id %d has no elements", rg)
		}
		var b Branch
		if b, err = msh.chainBranch(rg, elemsOf[rg]); err != nil {
			return err
		}
		msh.Branches[rg] = b
	}
	return
}

// chainBranch orders a region's elements tail-to-head. The arc is open: it
// has exactly two points incident to a single region element.
func (msh *Mesh) chainBranch(rg int, elems []int) (b Branch, err error) {
	// count region-local incidence
	inc := make(map[int][]int)
	for _, e := range elems {
		inc[msh.Elements[e][0]] = append(inc[msh.Elements[e][0]], e)
		inc[msh.Elements[e][1]] = append(inc[msh.Elements[e][1]], e)
	}
	// start from the tail of the lowest-numbered element whose tail is an
	// arc end, so branch orientation follows element orientation in the
	// input whenever possible
	start := -1
	for _, e := range elems {
		if len(inc[msh.Elements[e][0]]) == 1 {
			start = msh.Elements[e][0]
			break
		}
	}
	if start == -1 {
		// both open ends are element heads, take either
		for _, e := range elems {
			if len(inc[msh.Elements[e][1]]) == 1 {
				start = msh.Elements[e][1]
				break
			}
		}
	}
	if start == -1 {
		return b, errors.Errorf("topology: region %d has no open end (closed loop or malformed chain)", rg)
	}
	b = Branch{Index: rg}
	used := make(map[int]bool)
	p := start
	b.Nodes = append(b.Nodes, p)
	for len(b.Elems) < len(elems) {
		next := -1
		for _, e := range inc[p] {
			if !used[e] {
				next = e
				break
			}
		}
		if next == -1 {
			return b, errors.Errorf("topology: region %d does not chain into a single arc", rg)
		}
		used[next] = true
		b.Elems = append(b.Elems, next)
		if msh.Elements[next][0] == p {
			p = msh.Elements[next][1]
		} else {
			p = msh.Elements[next][0]
		}
		b.Nodes = append(b.Nodes, p)
	}
	return
}

// IncidentElements returns the elements sharing point p, across all regions.
func (msh *Mesh) IncidentElements(p int) []int { return msh.pointElems[p] }

// Degree is the incidence count of point p in the full mesh.
func (msh *Mesh) Degree(p int) int { return len(msh.pointElems[p]) }

func (msh *Mesh) NBranches() int { return len(msh.Branches) }
func (msh *Mesh) NElements() int { return len(msh.Elements) }
func (msh *Mesh) NPoints() int   { return len(msh.Points) }

func (msh *Mesh) ElemLength(e int) float64 {
	el := msh.Elements[e]
	return msh.Points[el[1]].Sub(msh.Points[el[0]]).Norm()
}

// Tangent is the unit vector from tail to head of element e.
func (msh *Mesh) Tangent(e int) Point {
	el := msh.Elements[e]
	d := msh.Points[el[1]].Sub(msh.Points[el[0]])
	l := d.Norm()
	if l == 0 {
		panic(errors.Errorf("mesh: element %d has zero length", e))
	}
	return Point{d.X / l, d.Y / l, d.Z / l}
}

// BranchOf performs the region-membership search for element e.
// Every element carries its region tag, so the lookup cannot fail for a
// well-formed mesh; a bad tag is a fatal topology error.
func (msh *Mesh) BranchOf(e int) (rg int, err error) {
	if e < 0 || e >= len(msh.Elements) {
		return 0, errors.Errorf("topology: element %d out of range", e)
	}
	rg = msh.Region[e]
	if rg < 0 || rg >= len(msh.Branches) {
		return 0, errors.Errorf("topology: no branch region contains element %d", e)
	}
	return
}

// MaxElemSize returns the largest element length within branch rg,
// the local h of the Peclet estimate.
func (msh *Mesh) MaxElemSize(rg int) (h float64) {
	for _, e := range msh.Branches[rg].Elems {
		if l := msh.ElemLength(e); l > h {
			h = l
		}
	}
	return
}
