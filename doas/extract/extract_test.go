package extract

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-doas/doas"
)

func TestAverageRowBand(t *testing.T) {
	img := Image{
		{1, 2, 3, 4},
		{10, 20, 30, 40},
		{20, 40, 60, 80},
		{999, 999, 999, 999},
	}

	spec, err := Average(img, Band{Start: 1, End: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []float64{15, 30, 45, 60}
	for i, v := range want {
		if math.Abs(spec[i]-v) > 1e-12 {
			t.Fatalf("column %d: got %f want %f", i, spec[i], v)
		}
	}
}

func TestAverageSingleRow(t *testing.T) {
	img := Image{{1, 2}, {3, 4}}

	spec, err := Average(img, Band{Start: 1, End: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if spec[0] != 3 || spec[1] != 4 {
		t.Fatalf("single-row mean mismatch: got %v", spec)
	}
}

func TestAverageRejectsBadBand(t *testing.T) {
	img := Image{{1, 2}, {3, 4}}

	for _, band := range []Band{
		{Start: 0, End: 3},
		{Start: -1, End: 2},
		{Start: 1, End: 1},
		{Start: 2, End: 1},
	} {
		if _, err := Average(img, band); !errors.Is(err, doas.ErrRange) {
			t.Fatalf("band [%d, %d): want ErrRange, got %v", band.Start, band.End, err)
		}
	}
}

func TestDarkCorrect(t *testing.T) {
	img := Image{{10, 20}, {30, 40}}
	dark := Image{{5, 25}, {10, 10}}

	out, err := DarkCorrect(img, dark)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Negative results stay negative; the absorbance step rejects them later.
	if out[0][0] != 5 || out[0][1] != -5 || out[1][0] != 20 || out[1][1] != 30 {
		t.Fatalf("dark correction mismatch: got %v", out)
	}

	if img[0][0] != 10 {
		t.Fatalf("input frame was mutated")
	}
}

func TestDarkCorrectShapeMismatch(t *testing.T) {
	img := Image{{1, 2}, {3, 4}}
	dark := Image{{1, 2, 3}, {4, 5, 6}}

	if _, err := DarkCorrect(img, dark); !errors.Is(err, doas.ErrRange) {
		t.Fatalf("want ErrRange, got %v", err)
	}
}

func TestStrayLevel(t *testing.T) {
	spec := doas.Spectrum{0, 0, 4, 6, 8, 0}

	level, err := StrayLevel(spec, Band{Start: 2, End: 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(level-6) > 1e-12 {
		t.Fatalf("stray level: got %f want 6", level)
	}
}

func TestSubtractStray(t *testing.T) {
	spec := doas.Spectrum{10, 12, 2, 2, 14}

	out, err := SubtractStray(spec, Band{Start: 2, End: 4})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []float64{8, 10, 0, 0, 12}
	for i, v := range want {
		if math.Abs(out[i]-v) > 1e-12 {
			t.Fatalf("pixel %d: got %f want %f", i, out[i], v)
		}
	}
}

func TestStrayLevelRejectsBadBand(t *testing.T) {
	spec := doas.Spectrum{1, 2, 3}

	if _, err := StrayLevel(spec, Band{Start: 1, End: 5}); !errors.Is(err, doas.ErrRange) {
		t.Fatalf("want ErrRange, got %v", err)
	}
}
