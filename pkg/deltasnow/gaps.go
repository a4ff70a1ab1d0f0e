package deltasnow

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/interp"
)

// InterpolationMethod selects how short data-flanked gaps are filled.
type InterpolationMethod string

const (
	// InterpLinear connects the flanking samples with straight lines.
	InterpLinear InterpolationMethod = "linear"
	// InterpAkima fits an Akima spline through the present samples.
	InterpAkima InterpolationMethod = "akima"
	// InterpPCHIP fits a monotonicity-preserving Fritsch-Butland cubic.
	InterpPCHIP InterpolationMethod = "pchip"
)

// ZeroPaddedGapMask marks maximal runs of missing depth values that may be
// treated as snow-free for computation. A run qualifies when the sample right
// after it is zero or the run reaches the series end, and, if
// requireLeadingZero is set, additionally when the sample right before it is
// zero or the run starts the series. With requireLeadingZero unset the looser
// trailing-zero rule applies, which can legitimately produce sudden SWE drops
// around the gap.
func ZeroPaddedGapMask(hs []float64, requireLeadingZero bool) []bool {
	mask := make([]bool, len(hs))
	i := 0
	for i < len(hs) {
		if !math.IsNaN(hs[i]) {
			i++
			continue
		}
		start := i
		for i < len(hs) && math.IsNaN(hs[i]) {
			i++
		}
		if requireLeadingZero && start > 0 && hs[start-1] != 0 {
			continue
		}
		if i < len(hs) && hs[i] != 0 {
			continue
		}
		for j := start; j < i; j++ {
			mask[j] = true
		}
	}
	return mask
}

// SmallGapMask marks maximal runs of missing values that are eligible for
// interpolation: strictly interior (data on both sides), no longer than
// maxGapLength samples, and with evenly spaced timestamps from the sample
// before the run through the sample after it. Gaps touching either series
// boundary are never eligible.
func SmallGapMask(hs []float64, times []time.Time, maxGapLength int) []bool {
	mask := make([]bool, len(hs))
	i := 0
	for i < len(hs) {
		if !math.IsNaN(hs[i]) {
			i++
			continue
		}
		start := i
		for i < len(hs) && math.IsNaN(hs[i]) {
			i++
		}
		if start == 0 || i == len(hs) {
			continue
		}
		if i-start > maxGapLength {
			continue
		}
		if ok, _ := ContinuousTimedeltas(times[start-1 : i+1]); !ok {
			continue
		}
		for j := start; j < i; j++ {
			mask[j] = true
		}
	}
	return mask
}

// fillSmallGaps returns a copy of hs with the eligible small gaps filled by
// the requested interpolation method. Values outside eligible runs are left
// untouched even if still missing.
func fillSmallGaps(hs []float64, times []time.Time, maxGapLength int, method InterpolationMethod) ([]float64, error) {
	var predictor interp.FittablePredictor
	switch method {
	case InterpLinear, "":
		predictor = &interp.PiecewiseLinear{}
	case InterpAkima:
		predictor = &interp.AkimaSpline{}
	case InterpPCHIP:
		predictor = &interp.FritschButland{}
	default:
		return nil, fmt.Errorf("%w: unsupported interpolation method %q", ErrInvalidInput, method)
	}

	out := make([]float64, len(hs))
	copy(out, hs)

	mask := SmallGapMask(hs, times, maxGapLength)
	any := false
	for _, m := range mask {
		if m {
			any = true
			break
		}
	}
	if !any {
		return out, nil
	}

	// interpolate over sample positions; eligible gaps are date-regular so
	// positional and time-weighted interpolation coincide
	var xs, ys []float64
	for i, v := range hs {
		if !math.IsNaN(v) {
			xs = append(xs, float64(i))
			ys = append(ys, v)
		}
	}
	if err := predictor.Fit(xs, ys); err != nil {
		return nil, fmt.Errorf("%w: cannot interpolate gaps: %v", ErrInvalidInput, err)
	}
	for i, m := range mask {
		if m {
			out[i] = predictor.Predict(float64(i))
		}
	}
	return out, nil
}
