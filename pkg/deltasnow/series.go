package deltasnow

import (
	"math"
	"sort"
	"time"
)

// Reading is a single snow depth observation. A NaN depth marks a missing
// measurement.
type Reading struct {
	Time  time.Time
	Depth float64
}

// Result is a single computed snow water equivalent value. SWE is NaN at
// positions where the input depth was missing and only provisionally
// resolved for computation.
type Result struct {
	Time time.Time
	SWE  float64
}

// Unit is a supported length unit for snow depth and SWE values.
type Unit string

const (
	Millimeters Unit = "mm"
	Centimeters Unit = "cm"
	Meters      Unit = "m"
)

// unitFactor converts a value in the given unit to meters.
var unitFactor = map[Unit]float64{
	Millimeters: 0.001,
	Centimeters: 0.01,
	Meters:      1.0,
}

func (u Unit) valid() bool {
	_, ok := unitFactor[u]
	return ok
}

// sortAndDedup orders readings by timestamp and drops duplicate timestamps,
// keeping the first occurrence. The sort is stable so ties resolve in input
// order.
func sortAndDedup(readings []Reading) []Reading {
	rs := make([]Reading, len(readings))
	copy(rs, readings)

	sort.SliceStable(rs, func(i, j int) bool {
		return rs[i].Time.Before(rs[j].Time)
	})

	out := rs[:0:len(rs)]
	for i, r := range rs {
		if i > 0 && r.Time.Equal(out[len(out)-1].Time) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func hasNaN(v []float64) bool {
	for _, x := range v {
		if math.IsNaN(x) {
			return true
		}
	}
	return false
}
