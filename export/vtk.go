package export

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/microvasc/gohemo/mesh1d"
)

// Field is one named nodal scalar field over the mesh points.
type Field struct {
	Name   string
	Values []float64
}

// WriteVTK writes the network and point fields as a legacy-VTK polyline
// file, one line cell per element. Paraview-compatible output for the
// per-iteration checkpoints and the final solution.
func WriteVTK(path string, msh *mesh1d.Mesh, fields ...Field) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "export: output dir")
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "export: create vtk")
	}
	defer f.Close()
	w := bufio.NewWriter(f)

	fmt.Fprintf(w, "# vtk DataFile Version 3.0\n")
	fmt.Fprintf(w, "vessel network\nASCII\nDATASET POLYDATA\n")
	fmt.Fprintf(w, "POINTS %d double\n", len(msh.Points))
	for _, p := range msh.Points {
		fmt.Fprintf(w, "%.10g %.10g %.10g\n", p.X, p.Y, p.Z)
	}
	fmt.Fprintf(w, "LINES %d %d\n", len(msh.Elements), 3*len(msh.Elements))
	for _, e := range msh.Elements {
		fmt.Fprintf(w, "2 %d %d\n", e[0], e[1])
	}
	if len(fields) > 0 {
		fmt.Fprintf(w, "POINT_DATA %d\n", len(msh.Points))
		for _, fld := range fields {
			if len(fld.Values) != len(msh.Points) {
				return errors.Errorf("export: field %s has %d values, %d points",
					fld.Name, len(fld.Values), len(msh.Points))
			}
			fmt.Fprintf(w, "SCALARS %s double 1\nLOOKUP_TABLE default\n", fld.Name)
			for _, v := range fld.Values {
				fmt.Fprintf(w, "%.10g\n", v)
			}
		}
	}
	return errors.Wrap(w.Flush(), "export: flush vtk")
}
