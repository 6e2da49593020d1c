package retrieval

import (
	"fmt"

	algofft "github.com/MeKo-Christian/algo-fft"
	vecmath "github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-doas/doas"
)

// ResidualPower returns the squared-magnitude spectrum of the fit residual
// over the non-negative frequency bins, zero-padded to a power of two.
// Narrowband structure surviving in the residual points at an absorber the
// scaled reference did not explain, or at a miscalibrated fit window.
func ResidualPower(residual doas.Spectrum) ([]float64, error) {
	if len(residual) == 0 {
		return nil, fmt.Errorf("empty residual: %w", doas.ErrConfig)
	}

	n := nextPowerOf2(len(residual))

	plan, err := algofft.NewPlan64(n)
	if err != nil {
		return nil, fmt.Errorf("fft plan of size %d: %w", n, err)
	}

	in := make([]complex128, n)
	for i, v := range residual {
		in[i] = complex(v, 0)
	}

	out := make([]complex128, n)
	if err := plan.Forward(out, in); err != nil {
		return nil, fmt.Errorf("fft forward: %w", err)
	}

	bins := n/2 + 1
	re := make([]float64, bins)
	im := make([]float64, bins)
	for i := 0; i < bins; i++ {
		re[i] = real(out[i])
		im[i] = imag(out[i])
	}

	power := make([]float64, bins)
	vecmath.Power(power, re, im)

	return power, nil
}

func nextPowerOf2(n int) int {
	if n <= 1 {
		return 1
	}

	p := 1
	for p < n {
		p <<= 1
	}

	return p
}
