package export

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Record is the convergence state of one outer iteration.
type Record struct {
	Iteration  int
	Solution   float64 // relative flow-solution residual
	Mass       float64 // network mass-conservation residual
	Hematocrit float64
	TFR        float64 // total filtration rate
	LymphFR    float64 // lymphatic drainage rate
}

// WriteResiduals writes the iteration history as a tab-separated table.
func WriteResiduals(path string, hist []Record) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "export: output dir")
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "export: create residuals")
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "iteration\tresSol\tresMass\tresH\tTFR\tFRlymph\n")
	for _, r := range hist {
		fmt.Fprintf(w, "%d\t%.6e\t%.6e\t%.6e\t%.6e\t%.6e\n",
			r.Iteration, r.Solution, r.Mass, r.Hematocrit, r.TFR, r.LymphFR)
	}
	return errors.Wrap(w.Flush(), "export: flush residuals")
}

// PlotResiduals renders the residual history to a PNG, log-scaled.
func PlotResiduals(path string, hist []Record) error {
	if len(hist) == 0 {
		return nil
	}
	p := plot.New()
	p.Title.Text = "Fixed point convergence"
	p.X.Label.Text = "iteration"
	p.Y.Label.Text = "residual"
	p.Y.Scale = plot.LogScale{}
	p.Y.Tick.Marker = plot.LogTicks{Prec: -1}

	series := []struct {
		name string
		pick func(Record) float64
	}{
		{"resSol", func(r Record) float64 { return r.Solution }},
		{"resMass", func(r Record) float64 { return r.Mass }},
		{"resH", func(r Record) float64 { return r.Hematocrit }},
	}
	for _, sr := range series {
		pts := make(plotter.XYs, 0, len(hist))
		for _, rec := range hist {
			v := sr.pick(rec)
			if v <= 0 { // log scale cannot take zero residuals
				continue
			}
			pts = append(pts, plotter.XY{X: float64(rec.Iteration), Y: v})
		}
		if len(pts) == 0 {
			continue
		}
		ln, err := plotter.NewLine(pts)
		if err != nil {
			return errors.Wrap(err, "export: residual line")
		}
		p.Add(ln)
		p.Legend.Add(sr.name, ln)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "export: output dir")
	}
	return errors.Wrap(p.Save(6*vg.Inch, 4*vg.Inch, path), "export: save plot")
}
