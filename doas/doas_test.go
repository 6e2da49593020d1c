package doas

import (
	"errors"
	"testing"
)

func TestFitWindowValid(t *testing.T) {
	cases := []struct {
		win    FitWindow
		length int
		want   bool
	}{
		{FitWindow{Start: 0, End: 10}, 10, true},
		{FitWindow{Start: 275, End: 400}, 500, true},
		{FitWindow{Start: 5, End: 5}, 10, false},
		{FitWindow{Start: 6, End: 5}, 10, false},
		{FitWindow{Start: -1, End: 5}, 10, false},
		{FitWindow{Start: 0, End: 11}, 10, false},
	}

	for _, c := range cases {
		if got := c.win.Valid(c.length); got != c.want {
			t.Fatalf("Valid(%d) for [%d, %d): got %v want %v",
				c.length, c.win.Start, c.win.End, got, c.want)
		}
	}
}

func TestFitWindowCut(t *testing.T) {
	spec := Spectrum{0, 1, 2, 3, 4, 5}

	cut, err := FitWindow{Start: 2, End: 5}.Cut(spec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cut) != 3 || cut[0] != 2 || cut[2] != 4 {
		t.Fatalf("cut mismatch: got %v", cut)
	}
}

func TestFitWindowCutOutOfRange(t *testing.T) {
	spec := Spectrum{0, 1, 2}

	_, err := FitWindow{Start: 1, End: 4}.Cut(spec)
	if !errors.Is(err, ErrRange) {
		t.Fatalf("want ErrRange, got %v", err)
	}
}

func TestSentinelsDistinct(t *testing.T) {
	if errors.Is(ErrConfig, ErrRange) || errors.Is(ErrRange, ErrNumeric) || errors.Is(ErrConfig, ErrNumeric) {
		t.Fatalf("error sentinels must be distinct")
	}
}
