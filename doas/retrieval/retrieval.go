// Package retrieval implements the DOAS column-amount search.
//
// Absorbance is the natural log of the ratio of a clear-sky spectrum to a
// plume-affected spectrum. A reference absorption spectrum scaled by a
// candidate column amount is fit against the windowed absorbance; broadband
// structure unexplained by the gas is removed either per candidate with a
// polynomial fit of the residual (StrategyPolynomial) or once up front with a
// Butterworth high-pass of the full absorbance spectrum (StrategyFilter).
//
// The search is an exhaustive unit-step scan of the candidate range rather
// than a gradient method: the error surface need not be convex and the
// physically plausible range is small and bounded. The scan is a
// deterministic reduction and may run across several workers without
// changing the result.
package retrieval

import (
	"fmt"
	"math"
	"sync"

	"github.com/cwbudde/algo-dsp/dsp/filter/biquad"
	"github.com/cwbudde/algo-dsp/dsp/filter/design"
	vecmath "github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-doas/doas"
	"github.com/cwbudde/algo-doas/internal/polyfit"
)

// Strategy selects the broadband-removal procedure.
type Strategy int

const (
	// StrategyPolynomial fits a polynomial to each candidate's residual.
	StrategyPolynomial Strategy = iota
	// StrategyFilter high-passes the absorbance once before the scan.
	StrategyFilter
)

const (
	defaultEndCA        = 2000.0
	defaultFilterOrder  = 10
	defaultFilterCutoff = 0.065
)

// Config holds the parameters of one retrieval run.
type Config struct {
	Strategy Strategy

	// PolyOrder is the order of the residual polynomial for
	// StrategyPolynomial. Zero fits a constant.
	PolyOrder int

	// StartCA and EndCA bound the inclusive candidate column-amount range,
	// scanned in unit steps. Both zero selects the default range [0, 2000].
	StartCA float64
	EndCA   float64

	// FilterOrder and FilterCutoff configure the StrategyFilter high-pass.
	// The cutoff is normalized to Nyquist, in (0, 1).
	FilterOrder  int
	FilterCutoff float64

	// Workers sets the number of goroutines scanning the candidate range.
	// Values below 2 scan sequentially. The result is identical either way.
	Workers int
}

// Result is the outcome of a candidate scan.
type Result struct {
	// ColumnAmount is the candidate minimizing the fit error.
	ColumnAmount float64
	// MinError is the fit error achieved at ColumnAmount.
	MinError float64
	// Index is the position of ColumnAmount within the candidate range.
	Index int
}

func normalizeConfig(cfg Config) Config {
	if cfg.StartCA == 0 && cfg.EndCA == 0 {
		cfg.EndCA = defaultEndCA
	}

	if cfg.FilterOrder <= 0 {
		cfg.FilterOrder = defaultFilterOrder
	}

	if cfg.FilterCutoff <= 0 {
		cfg.FilterCutoff = defaultFilterCutoff
	}

	if cfg.Workers < 1 {
		cfg.Workers = 1
	}

	return cfg
}

func validateConfig(cfg Config, winLen int) error {
	if cfg.PolyOrder < 0 {
		return fmt.Errorf("polynomial order %d must be non-negative: %w", cfg.PolyOrder, doas.ErrConfig)
	}

	if cfg.EndCA < cfg.StartCA {
		return fmt.Errorf("empty candidate range [%g, %g]: %w", cfg.StartCA, cfg.EndCA, doas.ErrConfig)
	}

	switch cfg.Strategy {
	case StrategyPolynomial:
		if winLen < cfg.PolyOrder+1 {
			return fmt.Errorf("window length %d cannot support polynomial order %d: %w",
				winLen, cfg.PolyOrder, doas.ErrConfig)
		}
	case StrategyFilter:
		if cfg.FilterCutoff >= 1 {
			return fmt.Errorf("filter cutoff %g must be below Nyquist (1): %w", cfg.FilterCutoff, doas.ErrConfig)
		}
	default:
		return fmt.Errorf("unknown strategy %d: %w", cfg.Strategy, doas.ErrConfig)
	}

	return nil
}

// Absorbance computes ln(clear/plume) elementwise. Any non-positive
// intensity makes the ratio or logarithm undefined and fails the run;
// a bad dark correction upstream is the usual cause.
func Absorbance(clear, plume doas.Spectrum) (doas.Spectrum, error) {
	if len(clear) != len(plume) {
		return nil, fmt.Errorf("clear length %d does not match plume length %d: %w",
			len(clear), len(plume), doas.ErrConfig)
	}

	out := make(doas.Spectrum, len(clear))
	for i := range clear {
		c, p := clear[i], plume[i]
		if p == 0 {
			return nil, fmt.Errorf("pixel %d: zero plume intensity: %w", i, doas.ErrNumeric)
		}
		if c <= 0 || p < 0 {
			return nil, fmt.Errorf("pixel %d: non-positive intensity (clear %g, plume %g): %w",
				i, c, p, doas.ErrNumeric)
		}

		out[i] = math.Log(c / p)
	}

	return out, nil
}

// Preprocess computes the absorbance and applies the strategy's global
// preparation: StrategyFilter high-passes the full spectrum here, once,
// before any windowing; StrategyPolynomial returns the absorbance as is.
func Preprocess(clear, plume doas.Spectrum, cfg Config) (doas.Spectrum, error) {
	cfg = normalizeConfig(cfg)

	absSpec, err := Absorbance(clear, plume)
	if err != nil {
		return nil, err
	}

	if cfg.Strategy == StrategyFilter {
		absSpec = highpass(absSpec, cfg.FilterOrder, cfg.FilterCutoff)
	}

	return absSpec, nil
}

// Retrieve scans the candidate column-amount range and returns the candidate
// minimizing the fit error. win cuts the measured absorbance; winRef cuts the
// reference spectrum and is typically the shifted copy of win (fitwin.Shift).
// Ties resolve to the lowest candidate.
func Retrieve(clear, plume, ref doas.Spectrum, win, winRef doas.FitWindow, cfg Config) (Result, error) {
	cfg = normalizeConfig(cfg)
	if err := validateConfig(cfg, win.Len()); err != nil {
		return Result{}, err
	}

	absSpec, err := Preprocess(clear, plume, cfg)
	if err != nil {
		return Result{}, err
	}

	absCut, err := win.Cut(absSpec)
	if err != nil {
		return Result{}, err
	}

	refCut, err := winRef.Cut(ref)
	if err != nil {
		return Result{}, err
	}

	if len(absCut) != len(refCut) {
		return Result{}, fmt.Errorf("measured window length %d does not match reference window length %d: %w",
			len(absCut), len(refCut), doas.ErrConfig)
	}

	errVals := scan(absCut, refCut, windowPositions(win), cfg)

	best := -1
	for i, v := range errVals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		if best < 0 || v < errVals[best] {
			best = i
		}
	}

	if best < 0 {
		return Result{}, fmt.Errorf("fit error non-finite for all %d candidates: %w", len(errVals), doas.ErrNumeric)
	}

	return Result{
		ColumnAmount: cfg.StartCA + float64(best),
		MinError:     errVals[best],
		Index:        best,
	}, nil
}

// scan computes the fit error of every candidate. Each index is written by
// exactly one worker, so the split does not change the outcome.
func scan(absCut, refCut doas.Spectrum, xs []float64, cfg Config) []float64 {
	n := int(math.Floor(cfg.EndCA-cfg.StartCA)) + 1
	errVals := make([]float64, n)

	workers := cfg.Workers
	if workers > n {
		workers = n
	}

	if workers < 2 {
		scanRange(errVals, 0, n, absCut, refCut, xs, cfg)
		return errVals
	}

	var wg sync.WaitGroup
	chunk := (n + workers - 1) / workers

	for lo := 0; lo < n; lo += chunk {
		hi := lo + chunk
		if hi > n {
			hi = n
		}

		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			scanRange(errVals, lo, hi, absCut, refCut, xs, cfg)
		}(lo, hi)
	}

	wg.Wait()

	return errVals
}

func scanRange(errVals []float64, lo, hi int, absCut, refCut doas.Spectrum, xs []float64, cfg Config) {
	m := len(absCut)
	refFit := make([]float64, m)
	residual := make([]float64, m)

	for i := lo; i < hi; i++ {
		ca := cfg.StartCA + float64(i)
		vecmath.ScaleBlock(refFit, refCut, ca)

		for j := range residual {
			residual[j] = absCut[j] - refFit[j]
		}

		switch cfg.Strategy {
		case StrategyPolynomial:
			coeffs, err := polyfit.Fit(xs, residual, cfg.PolyOrder)
			if err != nil {
				errVals[i] = math.NaN()
				continue
			}

			sum := 0.0
			for j, xj := range xs {
				d := residual[j] - polyfit.Eval(coeffs, xj)
				sum += d * d
			}
			errVals[i] = sum / float64(m)

		case StrategyFilter:
			// Broadband structure was removed globally before the cut, so
			// the fit error is the plain mean squared residual.
			sum := 0.0
			for _, d := range residual {
				sum += d * d
			}
			errVals[i] = sum / float64(m)
		}
	}
}

// highpass runs the absorbance through a Butterworth high-pass cascade.
// The cutoff is a fraction of Nyquist, mapped onto the designer by fixing
// the sample rate at 2 so that Nyquist is 1.
func highpass(spec doas.Spectrum, order int, cutoff float64) doas.Spectrum {
	sections := design.ButterworthHP(cutoff, order, 2)
	chain := biquad.NewChain(sections)

	out := append(doas.Spectrum(nil), spec...)
	chain.ProcessBlock(out)

	return out
}

func windowPositions(win doas.FitWindow) []float64 {
	xs := make([]float64, win.Len())
	for i := range xs {
		xs[i] = float64(win.Start + i)
	}

	return xs
}
