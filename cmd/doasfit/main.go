// Command doasfit retrieves a gas column amount from spectrometer frames
// using the DOAS method.
//
// Usage:
//
//	doasfit -clear clear.png -plume plume.png -ref ref.csv [flags]
//
// The clear and plume frames are reduced to spectra over the configured row
// band, optionally dark-corrected from a directory of dark frames, and the
// reference absorption spectrum is fit against the windowed absorbance.
//
// Examples:
//
//	doasfit -clear clear.png -plume plume.png -ref so2.csv -pixels 275:400
//	doasfit -clear clear.png -plume plume.png -ref so2.csv -cal cal.csv -waves 305:320
//	doasfit -clear clear.png -plume plume.png -ref so2.csv -strategy filter -plot fit.png
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/cwbudde/algo-doas/doas"
	"github.com/cwbudde/algo-doas/doas/extract"
	"github.com/cwbudde/algo-doas/doas/fitwin"
	"github.com/cwbudde/algo-doas/doas/retrieval"
	"github.com/cwbudde/algo-doas/imageio"
	"github.com/cwbudde/algo-doas/render"
)

func main() {
	clearPath := flag.String("clear", "", "clear-sky frame (required)")
	plumePath := flag.String("plume", "", "plume-affected frame (required)")
	refPath := flag.String("ref", "", "reference absorption spectrum CSV (required)")
	darkDir := flag.String("dark", "", "directory of dark frames to co-add and subtract")
	calPath := flag.String("cal", "", "wavelength calibration CSV (required for -waves)")
	rows := flag.String("rows", "300:311", "row band averaged into the spectrum")
	stray := flag.String("stray", "", "stray-light column band to subtract, e.g. 100:201")
	pixels := flag.String("pixels", "275:400", "fitting window in pixel indices")
	waves := flag.String("waves", "", "fitting window in wavelength units (overrides -pixels)")
	shift := flag.Int("shift", 0, "reference spectrum shift in pixels")
	strategy := flag.String("strategy", "poly", "retrieval strategy: poly or filter")
	polyOrder := flag.Int("poly", 2, "polynomial order for the poly strategy")
	caRange := flag.String("ca", "0:2000", "inclusive candidate column-amount range")
	filterOrder := flag.Int("filter-order", 10, "Butterworth order for the filter strategy")
	filterCutoff := flag.Float64("filter-cutoff", 0.065, "normalized high-pass cutoff (fraction of Nyquist)")
	workers := flag.Int("workers", 1, "goroutines scanning the candidate range")
	plotPath := flag.String("plot", "", "write the fit traces to this image file")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: doasfit -clear clear.png -plume plume.png -ref ref.csv [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Retrieves a gas column amount from spectrometer frames (DOAS).\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *clearPath == "" || *plumePath == "" || *refPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(options{
		clearPath:    *clearPath,
		plumePath:    *plumePath,
		refPath:      *refPath,
		darkDir:      *darkDir,
		calPath:      *calPath,
		rows:         *rows,
		stray:        *stray,
		pixels:       *pixels,
		waves:        *waves,
		shift:        *shift,
		strategy:     *strategy,
		polyOrder:    *polyOrder,
		caRange:      *caRange,
		filterOrder:  *filterOrder,
		filterCutoff: *filterCutoff,
		workers:      *workers,
		plotPath:     *plotPath,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	clearPath, plumePath, refPath string
	darkDir, calPath              string
	rows, stray, pixels, waves    string
	shift                         int
	strategy                      string
	polyOrder                     int
	caRange                       string
	filterOrder                   int
	filterCutoff                  float64
	workers                       int
	plotPath                      string
}

func run(opt options) error {
	clearSpec, plumeSpec, err := loadSpectra(opt)
	if err != nil {
		return err
	}

	refValues, err := imageio.LoadColumn(opt.refPath)
	if err != nil {
		return err
	}
	refSpec := doas.Spectrum(refValues)

	cfg, err := buildConfig(opt)
	if err != nil {
		return err
	}

	win, winRef, err := resolveWindows(opt, len(clearSpec))
	if err != nil {
		return err
	}

	res, err := retrieval.Retrieve(clearSpec, plumeSpec, refSpec, win, winRef, cfg)
	if err != nil {
		return err
	}

	fmt.Printf("column amount: %g\n", res.ColumnAmount)
	fmt.Printf("fit error:     %g\n", res.MinError)
	fmt.Printf("candidate:     %d\n", res.Index)

	if opt.plotPath == "" {
		return nil
	}

	absSpec, err := retrieval.Preprocess(clearSpec, plumeSpec, cfg)
	if err != nil {
		return err
	}

	absCut, err := win.Cut(absSpec)
	if err != nil {
		return err
	}

	refCut, err := winRef.Cut(refSpec)
	if err != nil {
		return err
	}

	trace, err := retrieval.Assemble(res, absCut, refCut, win, cfg)
	if err != nil {
		return err
	}

	return render.SaveTrace(trace, win, opt.plotPath)
}

func loadSpectra(opt options) (clearSpec, plumeSpec doas.Spectrum, err error) {
	clearImg, err := imageio.LoadFrame(opt.clearPath)
	if err != nil {
		return nil, nil, err
	}

	plumeImg, err := imageio.LoadFrame(opt.plumePath)
	if err != nil {
		return nil, nil, err
	}

	if opt.darkDir != "" {
		dark, err := imageio.LoadDarkStack(opt.darkDir)
		if err != nil {
			return nil, nil, err
		}

		if clearImg, err = extract.DarkCorrect(clearImg, dark); err != nil {
			return nil, nil, err
		}
		if plumeImg, err = extract.DarkCorrect(plumeImg, dark); err != nil {
			return nil, nil, err
		}
	}

	rowBand, err := parseBand(opt.rows)
	if err != nil {
		return nil, nil, fmt.Errorf("-rows: %w", err)
	}

	if clearSpec, err = extract.Average(clearImg, rowBand); err != nil {
		return nil, nil, err
	}
	if plumeSpec, err = extract.Average(plumeImg, rowBand); err != nil {
		return nil, nil, err
	}

	if opt.stray != "" {
		strayBand, err := parseBand(opt.stray)
		if err != nil {
			return nil, nil, fmt.Errorf("-stray: %w", err)
		}

		if clearSpec, err = extract.SubtractStray(clearSpec, strayBand); err != nil {
			return nil, nil, err
		}
		if plumeSpec, err = extract.SubtractStray(plumeSpec, strayBand); err != nil {
			return nil, nil, err
		}
	}

	return clearSpec, plumeSpec, nil
}

func buildConfig(opt options) (retrieval.Config, error) {
	startCA, endCA, err := parseRange(opt.caRange)
	if err != nil {
		return retrieval.Config{}, fmt.Errorf("-ca: %w", err)
	}

	cfg := retrieval.Config{
		PolyOrder:    opt.polyOrder,
		StartCA:      startCA,
		EndCA:        endCA,
		FilterOrder:  opt.filterOrder,
		FilterCutoff: opt.filterCutoff,
		Workers:      opt.workers,
	}

	switch opt.strategy {
	case "poly":
		cfg.Strategy = retrieval.StrategyPolynomial
	case "filter":
		cfg.Strategy = retrieval.StrategyFilter
	default:
		return retrieval.Config{}, fmt.Errorf("unknown strategy %q (want poly or filter)", opt.strategy)
	}

	return cfg, nil
}

func resolveWindows(opt options, length int) (win, winRef doas.FitWindow, err error) {
	var cal doas.Calibration
	if opt.calPath != "" {
		values, err := imageio.LoadColumn(opt.calPath)
		if err != nil {
			return doas.FitWindow{}, doas.FitWindow{}, err
		}
		cal = doas.Calibration(values)
	}

	mode := fitwin.ModePixel
	bounds := opt.pixels
	if opt.waves != "" {
		mode = fitwin.ModeWavelength
		bounds = opt.waves
	}

	start, end, err := parseRange(bounds)
	if err != nil {
		return doas.FitWindow{}, doas.FitWindow{}, fmt.Errorf("window bounds: %w", err)
	}

	if win, err = fitwin.Resolve(mode, start, end, cal, length); err != nil {
		return doas.FitWindow{}, doas.FitWindow{}, err
	}

	if winRef, err = fitwin.Shift(win, opt.shift, length); err != nil {
		return doas.FitWindow{}, doas.FitWindow{}, err
	}

	return win, winRef, nil
}

func parseRange(s string) (start, end float64, err error) {
	lo, hi, ok := strings.Cut(s, ":")
	if !ok {
		return 0, 0, fmt.Errorf("want start:end, got %q", s)
	}

	if start, err = strconv.ParseFloat(strings.TrimSpace(lo), 64); err != nil {
		return 0, 0, err
	}
	if end, err = strconv.ParseFloat(strings.TrimSpace(hi), 64); err != nil {
		return 0, 0, err
	}

	return start, end, nil
}

func parseBand(s string) (extract.Band, error) {
	start, end, err := parseRange(s)
	if err != nil {
		return extract.Band{}, err
	}

	return extract.Band{Start: int(start), End: int(end)}, nil
}
