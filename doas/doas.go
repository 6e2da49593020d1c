// Package doas holds the value types and error taxonomy shared by the
// DOAS (Differential Optical Absorption Spectroscopy) retrieval packages.
//
// A retrieval run is a pipeline of pure transforms: a 2-D intensity frame is
// reduced to a Spectrum, a fitting window is resolved (optionally through a
// wavelength Calibration) and aligned against the reference spectrum, and the
// retrieval engine scans candidate column amounts over the windowed data.
// Each stage consumes the previous stage's output value; no stage keeps
// state between calls.
package doas

import (
	"errors"
	"fmt"
)

// Spectrum is a 1-D intensity trace indexed by detector pixel.
type Spectrum []float64

// Calibration maps each detector pixel to a physical wavelength.
// It is supplied by the instrument calibration, never computed here.
type Calibration []float64

// FitWindow is a half-open pixel range [Start, End).
type FitWindow struct {
	Start int
	End   int
}

// Errors returned across the retrieval packages. Wrapped errors carry the
// offending parameter; match with errors.Is.
var (
	// ErrConfig marks invalid or incomplete configuration: bad bounds,
	// missing calibration, mismatched lengths, an empty search range.
	ErrConfig = errors.New("doas: invalid configuration")

	// ErrRange marks an index or window outside valid bounds. Windows are
	// never clamped; a truncated fit window would corrupt the retrieval
	// without signal.
	ErrRange = errors.New("doas: index out of range")

	// ErrNumeric marks undefined arithmetic: log of a non-positive value,
	// division by zero, a fully non-finite error surface.
	ErrNumeric = errors.New("doas: undefined arithmetic")
)

// Len returns the number of pixels covered by the window.
func (w FitWindow) Len() int { return w.End - w.Start }

// Valid reports whether the window is non-empty and within [0, length).
func (w FitWindow) Valid(length int) bool {
	return w.Start >= 0 && w.Start < w.End && w.End <= length
}

// Cut returns the sub-spectrum covered by the window. The result aliases s.
func (w FitWindow) Cut(s Spectrum) (Spectrum, error) {
	if !w.Valid(len(s)) {
		return nil, fmt.Errorf("window [%d, %d) outside spectrum of length %d: %w",
			w.Start, w.End, len(s), ErrRange)
	}
	return s[w.Start:w.End], nil
}
