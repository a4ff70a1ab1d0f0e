package config

import (
	"fmt"

	"github.com/joaschauer/deltasnow/pkg/deltasnow"
)

// Options translates the loaded configuration into model options, applying
// the published defaults wherever the configuration is silent.
func (c *ConfigData) Options() (deltasnow.Options, error) {
	opts := deltasnow.DefaultOptions()

	if c.Input.HSUnit != "" {
		opts.HSInputUnit = deltasnow.Unit(c.Input.HSUnit)
	}
	if c.Output.SWEUnit != "" {
		opts.SWEOutputUnit = deltasnow.Unit(c.Output.SWEUnit)
	}

	opts.IgnoreZeroPaddedGaps = c.Gaps.IgnoreZeroPadded
	opts.IgnoreTrailingZeroGaps = c.Gaps.IgnoreTrailingZero
	opts.InterpolateSmallGaps = c.Gaps.InterpolateSmall
	if c.Gaps.MaxGapLength > 0 {
		opts.MaxGapLength = c.Gaps.MaxGapLength
	}
	if c.Gaps.InterpolationMethod != "" {
		opts.Interpolation = deltasnow.InterpolationMethod(c.Gaps.InterpolationMethod)
	}

	if c.Workers > 0 {
		opts.Workers = c.Workers
	}

	if m := c.Model; m != nil {
		if m.RhoMax != nil {
			opts.Params.RhoMax = *m.RhoMax
		}
		if m.RhoNull != nil {
			opts.Params.RhoNull = *m.RhoNull
		}
		if m.COv != nil {
			opts.Params.COv = *m.COv
		}
		if m.KOv != nil {
			opts.Params.KOv = *m.KOv
		}
		if m.K != nil {
			opts.Params.K = *m.K
		}
		if m.Tau != nil {
			opts.Params.Tau = *m.Tau
		}
		if m.EtaNull != nil {
			opts.Params.EtaNull = *m.EtaNull
		}
	}

	// surface configuration mistakes before any data is read
	if err := opts.Validate(); err != nil {
		return opts, fmt.Errorf("invalid configuration: %w", err)
	}
	return opts, nil
}
