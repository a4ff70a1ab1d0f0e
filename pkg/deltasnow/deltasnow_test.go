package deltasnow

import (
	"errors"
	"math"
	"testing"
	"time"
)

func readingsFrom(start time.Time, hs []float64) []Reading {
	rs := make([]Reading, len(hs))
	for i, v := range hs {
		rs[i] = Reading{Time: start.AddDate(0, 0, i), Depth: v}
	}
	return rs
}

var fixtureStart = time.Date(2000, time.December, 1, 0, 0, 0, 0, time.UTC)

// Reference SWE in mm for a daily season with default parameters: bare
// ground, four days of accumulation, a settling plateau and melt-out.
// Values generated with an independent mirror of the same recursion.
var (
	seasonHS  = []float64{0, 0.10, 0.25, 0.40, 0.50, 0.50, 0.45, 0.30, 0.15, 0.05, 0}
	seasonSWE = []float64{
		0,
		8.119417,
		20.724783599802507,
		34.65747772280967,
		46.01840496991845,
		49.31118367454126,
		49.31118367454126,
		49.31118367454126,
		49.31118367454126,
		20.062939999999998,
		0,
	}

	twoChunkHS  = []float64{0, 0.30, 0.50, 0.55, 0.50, 0.48, 0, 0, 0.20, 0.40, 0.35, 0}
	twoChunkSWE = []float64{
		0,
		24.358251,
		42.272727600009276,
		50.065599033032385,
		50.065599033032385,
		50.065599033032385,
		0,
		0,
		16.238834,
		33.594763066672854,
		33.594763066672854,
		0,
	}
)

func assertSWE(t *testing.T, results []Result, expected []float64, epsilon float64) {
	t.Helper()
	if len(results) != len(expected) {
		t.Fatalf("expected %d results, got %d", len(expected), len(results))
	}
	for i, r := range results {
		if math.IsNaN(expected[i]) {
			if !math.IsNaN(r.SWE) {
				t.Errorf("index %d: expected missing SWE, got %v", i, r.SWE)
			}
			continue
		}
		if math.Abs(r.SWE-expected[i]) > epsilon {
			t.Errorf("index %d: expected %v, got %v", i, expected[i], r.SWE)
		}
	}
}

func TestComputeSeasonRegression(t *testing.T) {
	results, err := Compute(readingsFrom(fixtureStart, seasonHS), DefaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertSWE(t, results, seasonSWE, 1e-6)
}

func TestComputeTwoChunksRegression(t *testing.T) {
	results, err := Compute(readingsFrom(fixtureStart, twoChunkHS), DefaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertSWE(t, results, twoChunkSWE, 1e-6)
}

func TestComputeParallelMatchesSequential(t *testing.T) {
	rs := readingsFrom(fixtureStart, twoChunkHS)

	sequential, err := Compute(rs, DefaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	opts := DefaultOptions()
	opts.Workers = 4
	parallel, err := Compute(rs, opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := range sequential {
		if sequential[i].SWE != parallel[i].SWE {
			t.Errorf("index %d: sequential %v vs parallel %v", i, sequential[i].SWE, parallel[i].SWE)
		}
	}
}

func TestComputeDeterministic(t *testing.T) {
	rs := readingsFrom(fixtureStart, seasonHS)
	first, err := Compute(rs, DefaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := Compute(rs, DefaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := range first {
		if first[i].SWE != second[i].SWE {
			t.Errorf("index %d: %v vs %v", i, first[i].SWE, second[i].SWE)
		}
	}
}

func TestComputeAllZero(t *testing.T) {
	results, err := Compute(readingsFrom(fixtureStart, make([]float64, 12)), DefaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, r := range results {
		if r.SWE != 0 {
			t.Errorf("index %d: expected 0, got %v", i, r.SWE)
		}
	}
}

func TestComputeUnitConversion(t *testing.T) {
	inMeters := readingsFrom(fixtureStart, seasonHS)
	inCentimeters := make([]Reading, len(inMeters))
	for i, r := range inMeters {
		inCentimeters[i] = Reading{Time: r.Time, Depth: r.Depth * 100}
	}

	optsM := DefaultOptions()
	fromMeters, err := Compute(inMeters, optsM)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	optsCM := DefaultOptions()
	optsCM.HSInputUnit = Centimeters
	optsCM.SWEOutputUnit = Centimeters
	fromCentimeters, err := Compute(inCentimeters, optsCM)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := range fromMeters {
		mm := fromMeters[i].SWE
		cm := fromCentimeters[i].SWE
		if math.Abs(mm/10-cm) > 1e-9 {
			t.Errorf("index %d: %v mm and %v cm disagree", i, mm, cm)
		}
	}
}

func TestComputeSortsAndDeduplicates(t *testing.T) {
	rs := readingsFrom(fixtureStart, seasonHS)
	shuffled := []Reading{rs[3], rs[0], rs[7], rs[1], rs[5], rs[2], rs[9], rs[4], rs[8], rs[6], rs[10]}
	// a duplicate timestamp keeps its first occurrence
	shuffled = append(shuffled, Reading{Time: rs[4].Time, Depth: 99})

	results, err := Compute(shuffled, DefaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertSWE(t, results, seasonSWE, 1e-6)
	for i := 1; i < len(results); i++ {
		if !results[i].Time.After(results[i-1].Time) {
			t.Errorf("timestamps not strictly increasing at %d", i)
		}
	}
}

func TestComputeZeroPaddedGapRoundTrip(t *testing.T) {
	hs := []float64{0, 0.2, 0.3, 0.1, 0, nan, nan, 0, 0.4, 0.5, 0}
	rs := readingsFrom(fixtureStart, hs)

	opts := DefaultOptions()
	opts.IgnoreZeroPaddedGaps = true
	results, err := Compute(rs, opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, i := range []int{5, 6} {
		if !math.IsNaN(results[i].SWE) {
			t.Errorf("index %d: masked gap must stay missing, got %v", i, results[i].SWE)
		}
	}
	for _, i := range []int{0, 4, 7, 10} {
		if results[i].SWE != 0 {
			t.Errorf("index %d: expected 0, got %v", i, results[i].SWE)
		}
	}
	if results[1].SWE <= 0 || results[8].SWE <= 0 {
		t.Error("expected positive SWE inside the snow chunks")
	}
}

func TestComputeTrailingZeroGap(t *testing.T) {
	// gap preceded by snow: rejected by the strict mode, accepted by the
	// trailing-zero mode
	hs := []float64{0, 0.2, 0.3, nan, nan, 0, 0.4, 0.5, 0}
	rs := readingsFrom(fixtureStart, hs)

	strict := DefaultOptions()
	strict.IgnoreZeroPaddedGaps = true
	if _, err := Compute(rs, strict); err == nil {
		t.Fatal("strict zero-padded mode should reject a gap preceded by snow")
	}

	loose := DefaultOptions()
	loose.IgnoreTrailingZeroGaps = true
	results, err := Compute(rs, loose)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, i := range []int{3, 4} {
		if !math.IsNaN(results[i].SWE) {
			t.Errorf("index %d: masked gap must stay missing, got %v", i, results[i].SWE)
		}
	}
}

func TestComputeInterpolatesSmallGaps(t *testing.T) {
	hs := []float64{0, 0.2, 0.4, nan, nan, 0.4, 0.2, 0}
	rs := readingsFrom(fixtureStart, hs)

	opts := DefaultOptions()
	opts.InterpolateSmallGaps = true
	results, err := Compute(rs, opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// interpolated positions carry real SWE, not missing markers
	for _, i := range []int{3, 4} {
		if math.IsNaN(results[i].SWE) || results[i].SWE <= 0 {
			t.Errorf("index %d: expected positive SWE, got %v", i, results[i].SWE)
		}
	}

	opts.MaxGapLength = 1
	if _, err := Compute(rs, opts); err == nil {
		t.Fatal("a gap longer than max-gap-length must fail validation")
	}
}

func TestComputeValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		hs      []float64
		mutate  func(*Options)
		irregAt int // index shifted by 3 hours; -1 keeps dates regular
	}{
		{"empty series", nil, nil, -1},
		{"missing values in strict mode", []float64{0, 0.1, nan, 0.2, 0}, nil, -1},
		{"negative depth", []float64{0, 0.1, -0.2, 0}, nil, -1},
		{"first depth nonzero", []float64{0.3, 0.2, 0.1, 0}, nil, -1},
		{"irregular dates inside chunk", []float64{0, 0.1, 0.2, 0.1, 0}, nil, 2},
		{
			"gap surrounded by nonzero despite zero-padded mode",
			[]float64{0, 0.1, nan, 0.2, 0},
			func(o *Options) { o.IgnoreZeroPaddedGaps = true },
			-1,
		},
		{
			"boundary gap despite interpolation",
			[]float64{nan, 0.1, 0.2, 0},
			func(o *Options) { o.InterpolateSmallGaps = true },
			-1,
		},
		{
			"bad input unit",
			[]float64{0, 0.1, 0},
			func(o *Options) { o.HSInputUnit = "furlong" },
			-1,
		},
		{
			"bad parameters",
			[]float64{0, 0.1, 0},
			func(o *Options) { o.Params.Tau = -1 },
			-1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs := readingsFrom(fixtureStart, tt.hs)
			if tt.irregAt >= 0 {
				rs[tt.irregAt].Time = rs[tt.irregAt].Time.Add(3 * time.Hour)
			}
			opts := DefaultOptions()
			if tt.mutate != nil {
				tt.mutate(&opts)
			}
			_, err := Compute(rs, opts)
			if err == nil {
				t.Fatal("expected a validation error")
			}
			if !errors.Is(err, ErrInvalidInput) {
				t.Errorf("error does not wrap ErrInvalidInput: %v", err)
			}
		})
	}
}

func TestComputeChunkwiseRegularity(t *testing.T) {
	// regular within each chunk, irregular across the snow-free break
	hs := []float64{0, 0.2, 0.3, 0, 0, 0.4, 0.5, 0}
	rs := readingsFrom(fixtureStart, hs)
	for i := 4; i < len(rs); i++ {
		rs[i].Time = rs[i].Time.AddDate(0, 4, 0)
	}

	results, err := Compute(rs, DefaultOptions())
	if err != nil {
		t.Fatalf("chunk-wise regular series must be accepted: %v", err)
	}
	if results[1].SWE <= 0 || results[5].SWE <= 0 {
		t.Error("expected positive SWE inside both chunks")
	}
}
