// Package extract reduces 2-D intensity frames to 1-D spectra.
//
// The reduction mirrors the acquisition geometry of a spectrometer imaging a
// slit: wavelength runs along image columns, so a spectrum is the column-wise
// mean over a band of illuminated rows. A band of columns outside the useful
// spectral range estimates stray light.
package extract

import (
	"fmt"

	vecmath "github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-doas/doas"
)

// Image is a 2-D intensity frame stored row-major: Image[y][x].
// All rows must have equal length.
type Image [][]float64

// Band is a contiguous half-open index range [Start, End).
type Band struct {
	Start int
	End   int
}

// Len returns the number of indices covered by the band.
func (b Band) Len() int { return b.End - b.Start }

func (b Band) valid(length int) bool {
	return b.Start >= 0 && b.Start < b.End && b.End <= length
}

// Height returns the number of rows in the frame.
func (img Image) Height() int { return len(img) }

// Width returns the number of columns, zero for an empty frame.
func (img Image) Width() int {
	if len(img) == 0 {
		return 0
	}
	return len(img[0])
}

// DarkCorrect returns img minus dark, elementwise. Negative results are kept:
// rejecting them is deferred to the absorbance step, where a non-positive
// intensity is a hard numeric failure rather than a clampable artifact.
func DarkCorrect(img, dark Image) (Image, error) {
	if img.Height() != dark.Height() || img.Width() != dark.Width() {
		return nil, fmt.Errorf("dark frame %dx%d does not match image %dx%d: %w",
			dark.Width(), dark.Height(), img.Width(), img.Height(), doas.ErrRange)
	}

	out := make(Image, img.Height())
	for y, row := range img {
		if len(row) != img.Width() || len(dark[y]) != img.Width() {
			return nil, fmt.Errorf("ragged frame at row %d: %w", y, doas.ErrRange)
		}

		out[y] = make([]float64, len(row))
		for x, v := range row {
			out[y][x] = v - dark[y][x]
		}
	}

	return out, nil
}

// Average reduces a row band to the column-wise mean intensity, producing one
// value per image column.
func Average(img Image, rows Band) (doas.Spectrum, error) {
	if !rows.valid(img.Height()) {
		return nil, fmt.Errorf("row band [%d, %d) outside image height %d: %w",
			rows.Start, rows.End, img.Height(), doas.ErrRange)
	}

	width := img.Width()
	acc := make([]float64, width)

	for y := rows.Start; y < rows.End; y++ {
		if len(img[y]) != width {
			return nil, fmt.Errorf("ragged frame at row %d: %w", y, doas.ErrRange)
		}

		vecmath.AddBlockInPlace(acc, img[y])
	}

	vecmath.ScaleBlock(acc, acc, 1/float64(rows.Len()))

	return doas.Spectrum(acc), nil
}

// StrayLevel returns the mean intensity over the stray-light column band.
func StrayLevel(spec doas.Spectrum, cols Band) (float64, error) {
	if !cols.valid(len(spec)) {
		return 0, fmt.Errorf("stray band [%d, %d) outside spectrum length %d: %w",
			cols.Start, cols.End, len(spec), doas.ErrRange)
	}

	sum := 0.0
	for _, v := range spec[cols.Start:cols.End] {
		sum += v
	}

	return sum / float64(cols.Len()), nil
}

// SubtractStray returns spec with the stray-light level of the given column
// band removed from every pixel.
func SubtractStray(spec doas.Spectrum, cols Band) (doas.Spectrum, error) {
	level, err := StrayLevel(spec, cols)
	if err != nil {
		return nil, err
	}

	out := make(doas.Spectrum, len(spec))
	for i, v := range spec {
		out[i] = v - level
	}

	return out, nil
}
