// Package config provides configuration management for the deltasnow tools.
package config

// ConfigProvider defines the interface for configuration sources
type ConfigProvider interface {
	// LoadConfig loads the complete configuration
	LoadConfig() (*ConfigData, error)

	// Close releases any resources held by the provider
	Close() error
}

// ConfigData is the complete tool configuration in backend-neutral form
type ConfigData struct {
	Station string
	Input   InputData
	Output  OutputData
	Gaps    GapsData
	Model   *ModelData
	Workers int
	HTTP    *HTTPData
}

// InputData describes where depth observations come from
type InputData struct {
	CSVPath string
	HSUnit  string
}

// OutputData describes where computed SWE goes
type OutputData struct {
	SWEUnit  string
	CSVPath  string
	Database string
}

// GapsData selects how missing depth observations are handled
type GapsData struct {
	IgnoreZeroPadded    bool
	IgnoreTrailingZero  bool
	InterpolateSmall    bool
	MaxGapLength        int
	InterpolationMethod string
}

// ModelData overrides individual physical parameters of the model. Nil
// fields keep the published defaults.
type ModelData struct {
	RhoMax  *float64
	RhoNull *float64
	COv     *float64
	KOv     *float64
	K       *float64
	Tau     *float64
	EtaNull *float64
}

// HTTPData configures the optional REST server
type HTTPData struct {
	ListenAddr string
}
