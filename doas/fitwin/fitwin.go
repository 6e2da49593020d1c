// Package fitwin resolves and aligns DOAS fitting windows.
//
// A fitting window can be requested either directly in pixel indices or in
// physical wavelength; the wavelength form is mapped onto pixels through the
// instrument calibration. The reference spectrum's window is additionally
// shifted by an integer pixel offset to compensate misregistration between
// reference and measured spectra.
package fitwin

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/cwbudde/algo-doas/doas"
)

// Mode selects how window bounds are interpreted by Resolve.
type Mode int

const (
	// ModePixel treats the bounds as pixel indices.
	ModePixel Mode = iota
	// ModeWavelength maps the bounds onto pixels through the calibration.
	ModeWavelength
)

// Resolve converts the requested bounds into a concrete pixel window on a
// spectrum of the given length.
//
// In wavelength mode each bound maps to the pixel whose calibrated wavelength
// is nearest in absolute difference, scanning the full calibration array.
// Ties resolve to the lowest matching index. A first-sign-change search would
// be cheaper but breaks on irregularly sampled calibrations.
func Resolve(mode Mode, start, end float64, cal doas.Calibration, length int) (doas.FitWindow, error) {
	switch mode {
	case ModePixel:
		win := doas.FitWindow{Start: int(start), End: int(end)}
		if !win.Valid(length) {
			return doas.FitWindow{}, fmt.Errorf("pixel bounds [%g, %g) invalid for spectrum length %d: %w",
				start, end, length, doas.ErrConfig)
		}
		return win, nil

	case ModeWavelength:
		if cal == nil {
			return doas.FitWindow{}, fmt.Errorf("wavelength mode requires a calibration: %w", doas.ErrConfig)
		}
		if len(cal) != length {
			return doas.FitWindow{}, fmt.Errorf("calibration length %d does not match spectrum length %d: %w",
				len(cal), length, doas.ErrConfig)
		}

		win := doas.FitWindow{
			Start: nearestPixel(cal, start),
			End:   nearestPixel(cal, end),
		}
		if !win.Valid(length) {
			return doas.FitWindow{}, fmt.Errorf("wavelength bounds [%g, %g] resolve to empty window [%d, %d): %w",
				start, end, win.Start, win.End, doas.ErrConfig)
		}
		return win, nil

	default:
		return doas.FitWindow{}, fmt.Errorf("unknown window mode %d: %w", mode, doas.ErrConfig)
	}
}

// Shift returns the window with every index offset by -shift, bounded by the
// spectrum length. Shifting the reference window by -shift is equivalent to
// searching for the reference features at the measured spectrum's positions.
// A window pushed outside [0, length) is rejected, never clipped.
func Shift(win doas.FitWindow, shift, length int) (doas.FitWindow, error) {
	shifted := doas.FitWindow{Start: win.Start - shift, End: win.End - shift}
	if !shifted.Valid(length) {
		return doas.FitWindow{}, fmt.Errorf("shift %d moves window [%d, %d) outside [0, %d): %w",
			shift, win.Start, win.End, length, doas.ErrRange)
	}

	return shifted, nil
}

// nearestPixel returns the index of the calibration entry closest to target.
// floats.MinIdx keeps the first occurrence, which gives the documented
// lowest-index tie-break.
func nearestPixel(cal doas.Calibration, target float64) int {
	diff := make([]float64, len(cal))
	for i, w := range cal {
		diff[i] = math.Abs(w - target)
	}

	return floats.MinIdx(diff)
}
