package deltasnow

import "math"

const (
	gravity = 9.81  // [m/s2]
	prec    = 1e-10 // tolerance for depth comparisons [m]
)

// layer is one snow layer of the simulated snowpack. Mass is carried as
// water-equivalent depth in mm, which equals kg/m2 for water.
type layer struct {
	h   float64 // thickness [m]
	rho float64 // density [kg/m3]
	swe float64 // water equivalent [kg/m2]
}

// snowpack is the per-chunk evolution state: an ordered stack of layers,
// oldest at the bottom, newest on top. It is created empty for each chunk
// and never shared between chunks.
type snowpack struct {
	layers []layer
	p      Params
	dt     float64 // sampling interval [s]
}

func newSnowpack(p Params, resolutionHours float64) *snowpack {
	return &snowpack{p: p, dt: resolutionHours * 3600}
}

// reset empties the stack so the buffer can be reused for the next chunk.
func (sp *snowpack) reset(resolutionHours float64) {
	sp.layers = sp.layers[:0]
	sp.dt = resolutionHours * 3600
}

func (sp *snowpack) depth() float64 {
	d := 0.0
	for i := range sp.layers {
		d += sp.layers[i].h
	}
	return d
}

func (sp *snowpack) mass() float64 {
	m := 0.0
	for i := range sp.layers {
		m += sp.layers[i].swe
	}
	return m
}

// compact applies one sampling interval of dry compaction. Each layer's
// density is driven toward RhoMax by the overburden stress of the layers
// above it, damped by the exponential-law viscosity eta_null*exp(k*rho).
// Mass is conserved; only thickness and density trade off.
func (sp *snowpack) compact() {
	overburden := 0.0 // cumulative mass above the current layer [kg/m2]
	for i := len(sp.layers) - 1; i >= 0; i-- {
		l := &sp.layers[i]
		if overburden > 0 && l.rho < sp.p.RhoMax {
			stress := gravity * overburden
			viscosity := sp.p.EtaNull * math.Exp(sp.p.K*l.rho)
			rho := l.rho * (1 + stress*sp.dt/viscosity)
			if rho > sp.p.RhoMax {
				rho = sp.p.RhoMax
			}
			l.rho = rho
			l.h = l.swe / rho
		}
		overburden += l.swe
	}
}

// stepKind is the three-way classification of a single observation step.
type stepKind int

const (
	stepHold stepKind = iota
	stepAccumulate
	stepAblate
)

// classifyStep compares the observed depth against the simulated depth of the
// compacted snowpack. Deviations within the uncertainty bound tau are sensor
// noise; larger positive deviations are net accumulation, larger negative
// ones net settlement or ablation.
func classifyStep(simulated, observed, tau float64) stepKind {
	delta := observed - simulated
	switch {
	case delta > tau:
		return stepAccumulate
	case delta < -tau:
		return stepAblate
	default:
		return stepHold
	}
}

// accumulate handles a net accumulation step: the buried layers compact once
// more under the overburden of the fresh snow, then a new layer of fresh-snow
// density is created on top so the modeled depth matches the observation.
func (sp *snowpack) accumulate(hsObs float64) {
	deltaH := hsObs - sp.depth()
	stress := gravity * sp.p.RhoNull * deltaH // fresh-snow overburden [Pa]
	for i := range sp.layers {
		l := &sp.layers[i]
		head := sp.p.RhoMax - l.rho
		if head <= prec {
			l.rho = sp.p.RhoMax
			l.h = l.swe / l.rho
			continue
		}
		rho := l.rho * (1 + sp.p.COv*stress*math.Exp(-sp.p.KOv*l.rho/head))
		if rho > sp.p.RhoMax {
			rho = sp.p.RhoMax
		}
		l.rho = rho
		l.h = l.swe / rho
	}

	h := hsObs - sp.depth()
	if h > 0 {
		sp.layers = append(sp.layers, layer{h: h, rho: sp.p.RhoNull, swe: sp.p.RhoNull * h})
	}
}

// scaleTo compresses or stretches the stack so the modeled depth matches an
// observation that deviates by no more than tau. Every layer's mass is
// conserved and densities stay within [RhoNull, RhoMax]; layers pinned at a
// bound pass their share of the adjustment to the remaining layers. If the
// whole stack is pinned, the residual deviation stays (it is within the
// uncertainty bound by construction).
func (sp *snowpack) scaleTo(hsObs float64) {
	for iter := 0; iter < 16; iter++ {
		diff := hsObs - sp.depth()
		if math.Abs(diff) <= prec {
			return
		}
		compress := diff < 0

		adjustable := 0.0
		for i := range sp.layers {
			l := &sp.layers[i]
			if sp.canAdjust(l, compress) {
				adjustable += l.h
			}
		}
		if adjustable <= prec {
			return
		}

		f := 1 + diff/adjustable
		for i := range sp.layers {
			l := &sp.layers[i]
			if !sp.canAdjust(l, compress) {
				continue
			}
			h := l.h * f
			if minH := l.swe / sp.p.RhoMax; h < minH {
				h = minH
			} else if maxH := l.swe / sp.p.RhoNull; h > maxH {
				h = maxH
			}
			l.h = h
			l.rho = l.swe / h
		}
	}
}

func (sp *snowpack) canAdjust(l *layer, compress bool) bool {
	if compress {
		return l.rho < sp.p.RhoMax-prec
	}
	return l.rho > sp.p.RhoNull+prec
}

// drainTo handles an observed depth drop larger than the uncertainty bound.
// Layers densify to RhoMax starting from the top; if the stack is still
// deeper than observed once a layer saturates, the next layer down is
// processed. Any depth reduction that densification cannot explain is true
// mass loss (runoff), removed from the most recently created layers first,
// fully retiring layers as needed. Layers below the affected ones keep their
// mass untouched.
func (sp *snowpack) drainTo(hsObs float64) {
	for i := len(sp.layers) - 1; i >= 0; i-- {
		if sp.depth() <= hsObs+prec {
			return
		}
		l := &sp.layers[i]
		rest := sp.depth() - l.h
		need := hsObs - rest
		if minH := l.swe / sp.p.RhoMax; need >= minH {
			// this layer can absorb the remaining reduction by densifying
			l.h = need
			l.rho = l.swe / need
			return
		}
		l.h = l.swe / sp.p.RhoMax
		l.rho = sp.p.RhoMax
	}

	// everything is at maximum density; the rest of the drop is mass loss
	for len(sp.layers) > 0 && sp.depth() > hsObs+prec {
		top := &sp.layers[len(sp.layers)-1]
		rest := sp.depth() - top.h
		if rest >= hsObs {
			sp.layers = sp.layers[:len(sp.layers)-1] // fully ablated
			continue
		}
		top.h = hsObs - rest
		top.swe = top.rho * top.h
		return
	}
}

// evolveChunk runs the snowpack evolution over one chunk's depth vector,
// writing one SWE value in mm per sample into out. Zero depths reset the
// stack to bare ground; the first nonzero depth after bare ground seeds a
// single fresh layer. out must have the same length as hs.
func evolveChunk(hs []float64, out []float64, resolutionHours float64, p Params, sp *snowpack) {
	sp.reset(resolutionHours)
	for i, obs := range hs {
		if obs == 0 {
			sp.layers = sp.layers[:0]
			out[i] = 0
			continue
		}
		if len(sp.layers) == 0 {
			sp.layers = append(sp.layers, layer{h: obs, rho: p.RhoNull, swe: p.RhoNull * obs})
			out[i] = sp.mass()
			continue
		}
		sp.compact()
		switch classifyStep(sp.depth(), obs, p.Tau) {
		case stepAccumulate:
			sp.accumulate(obs)
		case stepAblate:
			sp.drainTo(obs)
		default:
			sp.scaleTo(obs)
		}
		out[i] = sp.mass()
	}
}
