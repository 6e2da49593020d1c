// Package render draws retrieval traces to image files.
package render

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/cwbudde/algo-doas/doas"
	"github.com/cwbudde/algo-doas/doas/retrieval"
)

// SaveTrace renders the five fit traces over the window's pixel axis and
// writes the plot to path. The format follows the file extension
// (.png, .pdf, .svg, ...).
func SaveTrace(tr retrieval.FitTrace, win doas.FitWindow, path string) error {
	p := plot.New()
	p.Title.Text = "DOAS fit"
	p.X.Label.Text = "Pixel"
	p.Y.Label.Text = "Absorbance"

	series := []struct {
		label string
		data  doas.Spectrum
	}{
		{"Absorbance spectrum", tr.Absorbance},
		{"Reference spectrum * CA", tr.Reference},
		{"Residual", tr.Residual},
		{"Correction", tr.Correction},
		{"Best fit", tr.BestFit},
	}

	for _, s := range series {
		line, err := plotter.NewLine(windowXYs(win, s.data))
		if err != nil {
			return fmt.Errorf("trace %q: %w", s.label, err)
		}

		p.Add(line)
		p.Legend.Add(s.label, line)
	}

	if err := p.Save(8*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("save plot %s: %w", path, err)
	}

	return nil
}

func windowXYs(win doas.FitWindow, data doas.Spectrum) plotter.XYs {
	xys := make(plotter.XYs, len(data))
	for i, v := range data {
		xys[i].X = float64(win.Start + i)
		xys[i].Y = v
	}

	return xys
}
