// Package deltasnow converts snow depth (HS) time series into snow water
// equivalent (SWE) with the delta.snow model of Winkler et al. 2021: the
// snowpack is simulated as a stack of compacting layers, driven only by the
// observed depth changes.
//
// The package is pure computation: no I/O, no logging, no shared state.
// Every call is independent and deterministic.
package deltasnow

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"
)

// ErrInvalidInput is wrapped by every validation error returned from this
// package. Callers can match it with errors.Is.
var ErrInvalidInput = errors.New("deltasnow: invalid input")

// Options configures a Compute call. The zero value is not usable; start
// from DefaultOptions.
type Options struct {
	// Params are the physical model parameters.
	Params Params

	// HSInputUnit is the length unit of the input depth values.
	HSInputUnit Unit

	// SWEOutputUnit is the length unit of the returned SWE values.
	SWEOutputUnit Unit

	// IgnoreZeroPaddedGaps treats runs of missing depths that are flanked by
	// snow-free readings (or the series boundary) as snow-free for
	// computation. The returned SWE is missing at those positions.
	IgnoreZeroPaddedGaps bool

	// IgnoreTrailingZeroGaps is the looser variant: only the trailing flank
	// must be snow-free. It implies acceptance of all zero-padded gaps and
	// can produce sudden SWE drops around a gap.
	IgnoreTrailingZeroGaps bool

	// InterpolateSmallGaps fills short, data-flanked, date-regular gaps by
	// interpolation before the simulation runs.
	InterpolateSmallGaps bool

	// MaxGapLength is the longest gap, in samples, that
	// InterpolateSmallGaps will fill.
	MaxGapLength int

	// Interpolation selects the fill method for small gaps.
	Interpolation InterpolationMethod

	// Workers caps the number of goroutines evaluating chunks concurrently.
	// Values below 2 select the sequential path. Chunks are independent, so
	// the result does not depend on this setting.
	Workers int
}

// DefaultOptions mirrors the defaults of the reference implementation:
// depths in meters in, SWE in millimeters out, strict gap handling.
func DefaultOptions() Options {
	return Options{
		Params:        DefaultParams(),
		HSInputUnit:   Meters,
		SWEOutputUnit: Millimeters,
		MaxGapLength:  3,
		Interpolation: InterpLinear,
		Workers:       1,
	}
}

// Validate checks the options' parameters, units and interpolation method
// without touching any observation data.
func (o Options) Validate() error {
	if err := o.Params.validate(); err != nil {
		return err
	}
	if !o.HSInputUnit.valid() {
		return fmt.Errorf("%w: hs input unit must be one of mm, cm, m", ErrInvalidInput)
	}
	if !o.SWEOutputUnit.valid() {
		return fmt.Errorf("%w: swe output unit must be one of mm, cm, m", ErrInvalidInput)
	}
	switch o.Interpolation {
	case InterpLinear, InterpAkima, InterpPCHIP, "":
	default:
		return fmt.Errorf("%w: unsupported interpolation method %q", ErrInvalidInput, o.Interpolation)
	}
	return nil
}

// Compute runs the full pipeline on a depth series: sorting and
// deduplication, unit normalization, gap resolution, validation, chunked
// snowpack evolution, reassembly and re-masking. It returns one SWE value per
// (deduplicated) input sample, or an error if any precondition is violated.
// There is no partial output: a series that fails validation anywhere
// produces no SWE at all.
func Compute(readings []Reading, opts Options) ([]Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if len(readings) == 0 {
		return nil, fmt.Errorf("%w: no snow depth observations", ErrInvalidInput)
	}

	rs := sortAndDedup(readings)
	n := len(rs)
	times := make([]time.Time, n)
	hs := make([]float64, n)
	inFactor := unitFactor[opts.HSInputUnit]
	for i, r := range rs {
		times[i] = r.Time
		hs[i] = r.Depth * inFactor
	}

	// resolve gaps that a gap mode sanctions; the mask is re-applied to the
	// output so resolved positions stay missing in the result
	var gapMask []bool
	if opts.IgnoreZeroPaddedGaps || opts.IgnoreTrailingZeroGaps {
		gapMask = ZeroPaddedGapMask(hs, !opts.IgnoreTrailingZeroGaps)
		for i, masked := range gapMask {
			if masked {
				hs[i] = 0
			}
		}
	}
	if opts.InterpolateSmallGaps && hasNaN(hs) {
		var err error
		hs, err = fillSmallGaps(hs, times, opts.MaxGapLength, opts.Interpolation)
		if err != nil {
			return nil, err
		}
	}

	if err := validateDepths(hs, opts); err != nil {
		return nil, err
	}

	chunks := NonzeroChunks(hs)
	continuous, resolution := ContinuousTimedeltas(times)
	if !continuous {
		continuous, resolution = continuousInChunks(times, chunks)
		if !continuous {
			return nil, fmt.Errorf("%w: timestamps must be evenly spaced within chunks of consecutive nonzero depths", ErrInvalidInput)
		}
	}

	swe := make([]float64, n)
	evolveChunks(hs, swe, chunks, resolution, opts.Params, opts.Workers)

	if gapMask != nil {
		for i, masked := range gapMask {
			if masked {
				swe[i] = math.NaN()
			}
		}
	}

	// the evolution emits SWE in mm water equivalent
	outFactor := 0.001 / unitFactor[opts.SWEOutputUnit]
	results := make([]Result, n)
	for i := range results {
		results[i] = Result{Time: times[i], SWE: swe[i] * outFactor}
	}
	return results, nil
}

// validateDepths enforces the preconditions of the evolution engine on the
// gap-resolved depth vector.
func validateDepths(hs []float64, opts Options) error {
	if hasNaN(hs) {
		anyZeroMode := opts.IgnoreZeroPaddedGaps || opts.IgnoreTrailingZeroGaps
		switch {
		case !anyZeroMode && !opts.InterpolateSmallGaps:
			return fmt.Errorf("%w: snow depth data must not contain missing values", ErrInvalidInput)
		case !opts.InterpolateSmallGaps:
			return fmt.Errorf("%w: snow depth data contains gaps surrounded by nonzero values", ErrInvalidInput)
		default:
			return fmt.Errorf("%w: snow depth data contains gaps at the series boundary or longer than %d samples", ErrInvalidInput, opts.MaxGapLength)
		}
	}
	for _, v := range hs {
		if v < 0 {
			return fmt.Errorf("%w: snow depth data must not be negative", ErrInvalidInput)
		}
		if math.IsInf(v, 0) {
			return fmt.Errorf("%w: snow depth data must be finite", ErrInvalidInput)
		}
	}
	if hs[0] != 0 {
		return fmt.Errorf("%w: snow depth observations must start at zero (bare ground)", ErrInvalidInput)
	}
	return nil
}

// evolveChunks dispatches every chunk to the evolution engine, sequentially
// or across workers. Chunk index ranges never overlap, so workers write into
// disjoint slices of swe and need no synchronization beyond completion.
func evolveChunks(hs, swe []float64, chunks []Chunk, resolution float64, p Params, workers int) {
	if workers < 2 || len(chunks) < 2 {
		sp := newSnowpack(p, resolution)
		for _, c := range chunks {
			evolveChunk(hs[c.Start:c.Stop], swe[c.Start:c.Stop], resolution, p, sp)
		}
		return
	}

	if workers > len(chunks) {
		workers = len(chunks)
	}
	work := make(chan Chunk)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sp := newSnowpack(p, resolution)
			for c := range work {
				evolveChunk(hs[c.Start:c.Stop], swe[c.Start:c.Stop], resolution, p, sp)
			}
		}()
	}
	for _, c := range chunks {
		work <- c
	}
	close(work)
	wg.Wait()
}
