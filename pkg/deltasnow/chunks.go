package deltasnow

import "time"

// Chunk is a half-open [Start, Stop) index range covering one maximal run of
// nonzero snow depths, including the snow-free sample that bounds it on the
// left when one exists. Chunks never overlap and are ordered by Start.
type Chunk struct {
	Start int
	Stop  int
}

// NonzeroChunks scans a gap-free depth vector and returns the chunks of
// consecutive nonzero values. A chunk starts at index 0 if the series begins
// with snow on the ground, otherwise at the last zero before depth rises; it
// stops at the first zero after the run, or at the series end if the snow
// cover persists. An all-zero series yields no chunks.
func NonzeroChunks(hs []float64) []Chunk {
	var starts, stops []int
	n := len(hs)

	if n > 0 && hs[0] != 0 {
		starts = append(starts, 0)
	}
	for i := 0; i < n; i++ {
		if i < n-1 && hs[i] == 0 && hs[i+1] != 0 {
			starts = append(starts, i)
		}
		if i > 0 && hs[i] == 0 && hs[i-1] != 0 {
			stops = append(stops, i)
		}
	}
	if len(stops) < len(starts) {
		stops = append(stops, n)
	}

	chunks := make([]Chunk, len(starts))
	for i := range starts {
		chunks[i] = Chunk{Start: starts[i], Stop: stops[i]}
	}
	return chunks
}

// ContinuousTimedeltas reports whether consecutive timestamps are all spaced
// by the same interval, and that interval in hours. A series with fewer than
// two samples is vacuously continuous with zero resolution. When the series
// is not continuous, the returned resolution is the first interval.
func ContinuousTimedeltas(times []time.Time) (bool, float64) {
	if len(times) <= 1 {
		return true, 0
	}
	first := times[1].Sub(times[0])
	for i := 2; i < len(times); i++ {
		if times[i].Sub(times[i-1]) != first {
			return false, first.Hours()
		}
	}
	return true, first.Hours()
}

// continuousInChunks checks every chunk's timestamp sub-sequence for
// regularity and requires all chunks to share the same resolution.
// Single-sample chunks are vacuously regular and contribute no resolution.
func continuousInChunks(times []time.Time, chunks []Chunk) (bool, float64) {
	resolution := 0.0
	seen := false
	for _, c := range chunks {
		ok, res := ContinuousTimedeltas(times[c.Start:c.Stop])
		if !ok {
			return false, 0
		}
		if c.Stop-c.Start < 2 {
			continue
		}
		if !seen {
			resolution = res
			seen = true
		} else if res != resolution {
			return false, 0
		}
	}
	return true, resolution
}
