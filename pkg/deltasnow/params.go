package deltasnow

import "fmt"

// Params holds the seven physical parameters of the delta.snow model
// (Winkler et al. 2021). The defaults are the calibrated values published
// with the model.
type Params struct {
	// RhoMax is the maximum density an individual snow layer can reach [kg/m3].
	RhoMax float64

	// RhoNull is the density assigned to a freshly created layer [kg/m3].
	RhoNull float64

	// COv is the overburden factor for the extra compaction exerted by fresh
	// snow on the layers below [-].
	COv float64

	// KOv controls how strongly a layer's own density damps the compaction
	// due to fresh-snow overburden [-]. Must lie in [0, 1].
	KOv float64

	// K is the exponent of the exponential-law compactive viscosity [m3/kg].
	K float64

	// Tau is the measurement uncertainty bound [m]. Depth changes smaller in
	// magnitude than Tau are treated as sensor noise.
	Tau float64

	// EtaNull is the effective compactive viscosity of zero-density snow [Pa s].
	EtaNull float64
}

// DefaultParams returns the calibrated parameter set of the published model.
func DefaultParams() Params {
	return Params{
		RhoMax:  401.2588,
		RhoNull: 81.19417,
		COv:     0.0005104722,
		KOv:     0.37856737,
		K:       0.02993175,
		Tau:     0.02362476,
		EtaNull: 8523356.0,
	}
}

func (p Params) validate() error {
	switch {
	case p.RhoMax <= 0:
		return fmt.Errorf("%w: rho_max must be positive", ErrInvalidInput)
	case p.RhoNull <= 0:
		return fmt.Errorf("%w: rho_null must be positive", ErrInvalidInput)
	case p.RhoNull >= p.RhoMax:
		return fmt.Errorf("%w: rho_null must be smaller than rho_max", ErrInvalidInput)
	case p.COv <= 0:
		return fmt.Errorf("%w: c_ov must be positive", ErrInvalidInput)
	case p.KOv < 0 || p.KOv > 1:
		return fmt.Errorf("%w: k_ov must be in [0, 1]", ErrInvalidInput)
	case p.K <= 0:
		return fmt.Errorf("%w: k must be positive", ErrInvalidInput)
	case p.Tau <= 0:
		return fmt.Errorf("%w: tau must be positive", ErrInvalidInput)
	case p.EtaNull <= 0:
		return fmt.Errorf("%w: eta_null must be positive", ErrInvalidInput)
	}
	return nil
}
