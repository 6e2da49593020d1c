package retrieval_test

import (
	"fmt"
	"log"
	"math"

	"github.com/cwbudde/algo-doas/doas"
	"github.com/cwbudde/algo-doas/doas/retrieval"
)

func Example() {
	const n = 200
	win := doas.FitWindow{Start: 50, End: 150}

	clear := make(doas.Spectrum, n)
	plume := make(doas.Spectrum, n)
	ref := make(doas.Spectrum, n)

	// A synthetic plume with a column amount of 3 over a quadratic background.
	for i := range ref {
		x := float64(i)
		ref[i] = 0.001 * (1 + 0.5*math.Sin(0.35*x))
		background := 0.01 - 2e-5*x + 1e-7*x*x

		clear[i] = 1000
		plume[i] = clear[i] * math.Exp(-(3*ref[i] + background))
	}

	res, err := retrieval.Retrieve(clear, plume, ref, win, win, retrieval.Config{
		Strategy:  retrieval.StrategyPolynomial,
		PolyOrder: 2,
		StartCA:   0,
		EndCA:     10,
	})
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("column amount: %.0f\n", res.ColumnAmount)
	// Output:
	// column amount: 3
}
