// Package imageio loads intensity frames and column vectors from disk.
//
// Frames come from PNG (or any other decodable) image files; a directory of
// dark frames is co-added into a single mean dark frame. Reference spectra
// and wavelength calibrations are read from single-column CSV files.
package imageio

import (
	"encoding/csv"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	vecmath "github.com/cwbudde/algo-vecmath"
	"github.com/disintegration/imaging"

	"github.com/cwbudde/algo-doas/doas"
	"github.com/cwbudde/algo-doas/doas/extract"
)

// LoadFrame decodes an image file into an intensity frame. 8-bit sources are
// widened to the 16-bit scale so mixed-depth frame sets stay comparable.
func LoadFrame(path string) (extract.Image, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open frame %s: %w", path, err)
	}

	return frameFromImage(img), nil
}

func frameFromImage(img image.Image) extract.Image {
	bounds := img.Bounds()
	frame := make(extract.Image, bounds.Dy())

	switch src := img.(type) {
	case *image.Gray16:
		for y := range frame {
			row := make([]float64, bounds.Dx())
			for x := range row {
				row[x] = float64(src.Gray16At(bounds.Min.X+x, bounds.Min.Y+y).Y)
			}
			frame[y] = row
		}

	default:
		gray := imaging.Grayscale(img)
		for y := range frame {
			row := make([]float64, bounds.Dx())
			for x := range row {
				// NRGBA is 8-bit; widen like color.RGBA does.
				v := gray.NRGBAAt(x, y).R
				row[x] = float64(uint16(v)<<8 | uint16(v))
			}
			frame[y] = row
		}
	}

	return frame
}

// LoadDarkStack co-adds every PNG in dir into a mean dark frame.
// All frames must share one shape.
func LoadDarkStack(dir string) (extract.Image, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.png"))
	if err != nil {
		return nil, fmt.Errorf("scan dark directory %s: %w", dir, err)
	}

	if len(paths) == 0 {
		return nil, fmt.Errorf("no dark frames in %s: %w", dir, doas.ErrConfig)
	}

	sort.Strings(paths)

	var acc extract.Image
	for _, p := range paths {
		frame, err := LoadFrame(p)
		if err != nil {
			return nil, err
		}

		if acc == nil {
			acc = frame
			continue
		}

		if frame.Height() != acc.Height() || frame.Width() != acc.Width() {
			return nil, fmt.Errorf("dark frame %s is %dx%d, want %dx%d: %w",
				p, frame.Width(), frame.Height(), acc.Width(), acc.Height(), doas.ErrRange)
		}

		for y := range acc {
			vecmath.AddBlockInPlace(acc[y], frame[y])
		}
	}

	scale := 1 / float64(len(paths))
	for y := range acc {
		vecmath.ScaleBlock(acc[y], acc[y], scale)
	}

	return acc, nil
}

// LoadColumn reads a single-column CSV file of float64 values.
func LoadColumn(path string) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open column file %s: %w", path, err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read column file %s: %w", path, err)
	}

	out := make([]float64, 0, len(rows))
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}

		v, err := strconv.ParseFloat(row[0], 64)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", path, i+1, err)
		}

		out = append(out, v)
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("no values in %s: %w", path, doas.ErrConfig)
	}

	return out, nil
}
