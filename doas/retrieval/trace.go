package retrieval

import (
	"fmt"

	vecmath "github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-doas/doas"
	"github.com/cwbudde/algo-doas/internal/polyfit"
)

// FitTrace holds the presentation-ready traces of a completed retrieval.
// All slices have the fit-window length and are owned by the trace.
type FitTrace struct {
	// Absorbance is the (possibly filtered) absorbance cut to the window.
	Absorbance doas.Spectrum
	// Reference is the reference spectrum scaled by the winning column amount.
	Reference doas.Spectrum
	// Residual is Absorbance minus Reference.
	Residual doas.Spectrum
	// Correction is the polynomial evaluated over the window for
	// StrategyPolynomial; for StrategyFilter it is identically zero since
	// broadband removal happened before the scan.
	Correction doas.Spectrum
	// BestFit is Reference plus Correction.
	BestFit doas.Spectrum
}

// Assemble recomputes, at the winning column amount, the scaled reference,
// residual, correction term and best-fit curve. It is a pure function of its
// inputs; absCut and refCut must be the same cuts the retrieval ran on.
func Assemble(res Result, absCut, refCut doas.Spectrum, win doas.FitWindow, cfg Config) (FitTrace, error) {
	cfg = normalizeConfig(cfg)

	m := win.Len()
	if len(absCut) != m || len(refCut) != m {
		return FitTrace{}, fmt.Errorf("cut lengths %d/%d do not match window length %d: %w",
			len(absCut), len(refCut), m, doas.ErrConfig)
	}

	tr := FitTrace{
		Absorbance: append(doas.Spectrum(nil), absCut...),
		Reference:  make(doas.Spectrum, m),
		Residual:   make(doas.Spectrum, m),
		Correction: make(doas.Spectrum, m),
		BestFit:    make(doas.Spectrum, m),
	}

	vecmath.ScaleBlock(tr.Reference, refCut, res.ColumnAmount)

	for i := range tr.Residual {
		tr.Residual[i] = absCut[i] - tr.Reference[i]
	}

	if cfg.Strategy == StrategyPolynomial {
		xs := windowPositions(win)

		coeffs, err := polyfit.Fit(xs, tr.Residual, cfg.PolyOrder)
		if err != nil {
			return FitTrace{}, fmt.Errorf("residual polynomial: %v: %w", err, doas.ErrNumeric)
		}

		polyfit.EvalAll(tr.Correction, xs, coeffs)
	}

	for i := range tr.BestFit {
		tr.BestFit[i] = tr.Reference[i] + tr.Correction[i]
	}

	return tr, nil
}
