package mesh1d

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ExpectedBC is a boundary node pre-registered from the network file. DIR
// nodes resolve to INFLOW/OUTFLOW labels from element orientation once
// incidence degrees are known; MIX nodes keep the Mixed label and carry
// the Robin coefficient parsed from the file.
type ExpectedBC struct {
	Point int
	Value float64
	Mixed bool
}

// ReadNetwork parses the plain-text network format:
//
//	BEGIN_LIST
//	BEGIN_ARC
//	  BC DIR 1.0
//	  BC INT 0.0
//	  0.0 0.0 0.0
//	  0.5 0.0 0.0
//	  1.0 0.0 0.0
//	END_ARC
//	...
//	END_LIST
//
// Each arc lists its start-extremum BC, its end-extremum BC, then its points
// in arc order. Label DIR registers an expected boundary node with the given
// value; label MIX registers a Robin extremum carrying its coefficient;
// label INT marks an interior extremum (junction candidate or open
// outlet). Coincident points of different arcs are merged.
func ReadNetwork(r io.Reader) (msh *Mesh, bcs []ExpectedBC, err error) {
	const tol = 1e-12

	var (
		points   []Point
		elements [][2]int
		region   []int
	)
	lookup := func(p Point) int {
		for i, q := range points {
			if p.Sub(q).Norm() < tol {
				return i
			}
		}
		points = append(points, p)
		return len(points) - 1
	}

	sc := bufio.NewScanner(r)
	arc := -1
	inArc := false
	var arcPts []int
	var arcBCs []ExpectedBC // value-holders, Point resolved at END_ARC
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		switch fields[0] {
		case "BEGIN_LIST", "END_LIST":
			continue
		case "BEGIN_ARC":
			arc++
			inArc = true
			arcPts = arcPts[:0]
			arcBCs = arcBCs[:0]
		case "END_ARC":
			if !inArc {
				return nil, nil, errors.Errorf("network file line %d: END_ARC outside arc", lineNo)
			}
			if len(arcPts) < 2 {
				return nil, nil, errors.Errorf("network file: arc %d has fewer than 2 points", arc)
			}
			for k := 0; k+1 < len(arcPts); k++ {
				elements = append(elements, [2]int{arcPts[k], arcPts[k+1]})
				region = append(region, arc)
			}
			// resolve BC points: first record binds the arc tail, second
			// the head; interior extrema stay unregistered
			for i, bc := range arcBCs {
				if bc.Point == -1 {
					continue
				}
				if i == 0 {
					bc.Point = arcPts[0]
				} else {
					bc.Point = arcPts[len(arcPts)-1]
				}
				bcs = append(bcs, bc)
			}
			inArc = false
		case "BC":
			if !inArc || len(fields) < 3 {
				return nil, nil, errors.Errorf("network file line %d: malformed BC record", lineNo)
			}
			if len(arcBCs) >= 2 {
				return nil, nil, errors.Errorf("network file line %d: more than 2 BC records in arc %d", lineNo, arc)
			}
			val, convErr := strconv.ParseFloat(fields[2], 64)
			if convErr != nil {
				return nil, nil, errors.Wrapf(convErr, "network file line %d: bad BC value", lineNo)
			}
			switch fields[1] {
			case "DIR":
				arcBCs = append(arcBCs, ExpectedBC{Value: val})
			case "MIX":
				arcBCs = append(arcBCs, ExpectedBC{Value: val, Mixed: true})
			case "INT":
				// interior extremum: no pre-registered node, keep ordinal slot
				arcBCs = append(arcBCs, ExpectedBC{Point: -1})
			default:
				return nil, nil, errors.Errorf("network file line %d: unknown BC label %q", lineNo, fields[1])
			}
		default:
			if !inArc {
				return nil, nil, errors.Errorf("network file line %d: point outside arc", lineNo)
			}
			if len(fields) < 3 {
				return nil, nil, errors.Errorf("network file line %d: expected 'x y z'", lineNo)
			}
			var xyz [3]float64
			for i := 0; i < 3; i++ {
				if xyz[i], err = strconv.ParseFloat(fields[i], 64); err != nil {
					return nil, nil, errors.Wrapf(err, "network file line %d: bad coordinate", lineNo)
				}
			}
			arcPts = append(arcPts, lookup(Point{xyz[0], xyz[1], xyz[2]}))
		}
	}
	if err = sc.Err(); err != nil {
		return nil, nil, errors.Wrap(err, "reading network file")
	}
	// drop placeholder INT slots
	kept := bcs[:0]
	for _, bc := range bcs {
		if bc.Point >= 0 {
			kept = append(kept, bc)
		}
	}
	bcs = kept

	if msh, err = NewMesh(points, elements, region); err != nil {
		return nil, nil, err
	}
	return
}

// NewMeshFromArcs builds a mesh programmatically from point polylines, one
// region per arc, merging coincident endpoints. Used by tests and examples.
func NewMeshFromArcs(arcs [][]Point) (msh *Mesh, err error) {
	const tol = 1e-12
	var (
		points   []Point
		elements [][2]int
		region   []int
	)
	lookup := func(p Point) int {
		for i, q := range points {
			if p.Sub(q).Norm() < tol {
				return i
			}
		}
		points = append(points, p)
		return len(points) - 1
	}
	for rg, arc := range arcs {
		if len(arc) < 2 {
			return nil, errors.Errorf("arc %d has fewer than 2 points", rg)
		}
		prev := lookup(arc[0])
		for _, p := range arc[1:] {
			cur := lookup(p)
			elements = append(elements, [2]int{prev, cur})
			region = append(region, rg)
			prev = cur
		}
	}
	return NewMesh(points, elements, region)
}
