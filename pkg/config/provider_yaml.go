package config

import (
	"os"

	"gopkg.in/yaml.v2"
)

// YAMLProvider implements ConfigProvider for YAML configuration files
type YAMLProvider struct {
	filename string
	config   *ConfigData
}

// NewYAMLProvider creates a new YAML configuration provider
func NewYAMLProvider(filename string) *YAMLProvider {
	return &YAMLProvider{
		filename: filename,
	}
}

// LoadConfig loads the complete configuration from YAML file
func (y *YAMLProvider) LoadConfig() (*ConfigData, error) {
	cfgFile, err := os.ReadFile(y.filename)
	if err != nil {
		return nil, err
	}

	var yamlConfig configYAML
	if err := yaml.Unmarshal(cfgFile, &yamlConfig); err != nil {
		return nil, err
	}

	config := &ConfigData{
		Station: yamlConfig.Station,
		Input: InputData{
			CSVPath: yamlConfig.Input.CSVPath,
			HSUnit:  yamlConfig.Input.HSUnit,
		},
		Output: OutputData{
			SWEUnit:  yamlConfig.Output.SWEUnit,
			CSVPath:  yamlConfig.Output.CSVPath,
			Database: yamlConfig.Output.Database,
		},
		Gaps: GapsData{
			IgnoreZeroPadded:    yamlConfig.Gaps.IgnoreZeroPadded,
			IgnoreTrailingZero:  yamlConfig.Gaps.IgnoreTrailingZero,
			InterpolateSmall:    yamlConfig.Gaps.InterpolateSmall,
			MaxGapLength:        yamlConfig.Gaps.MaxGapLength,
			InterpolationMethod: yamlConfig.Gaps.InterpolationMethod,
		},
		Workers: yamlConfig.Workers,
	}

	if yamlConfig.Model != nil {
		config.Model = &ModelData{
			RhoMax:  yamlConfig.Model.RhoMax,
			RhoNull: yamlConfig.Model.RhoNull,
			COv:     yamlConfig.Model.COv,
			KOv:     yamlConfig.Model.KOv,
			K:       yamlConfig.Model.K,
			Tau:     yamlConfig.Model.Tau,
			EtaNull: yamlConfig.Model.EtaNull,
		}
	}

	if yamlConfig.HTTP != nil {
		config.HTTP = &HTTPData{
			ListenAddr: yamlConfig.HTTP.ListenAddr,
		}
	}

	y.config = config
	return config, nil
}

// Close is a no-op for YAML provider
func (y *YAMLProvider) Close() error {
	return nil
}

// YAML-specific structs with proper YAML tags for parsing the config format
type configYAML struct {
	Station string      `yaml:"station,omitempty"`
	Input   inputYAML   `yaml:"input,omitempty"`
	Output  outputYAML  `yaml:"output,omitempty"`
	Gaps    gapsYAML    `yaml:"gaps,omitempty"`
	Model   *modelYAML  `yaml:"model,omitempty"`
	Workers int         `yaml:"workers,omitempty"`
	HTTP    *httpYAML   `yaml:"http,omitempty"`
}

type inputYAML struct {
	CSVPath string `yaml:"csv,omitempty"`
	HSUnit  string `yaml:"hs-unit,omitempty"`
}

type outputYAML struct {
	SWEUnit  string `yaml:"swe-unit,omitempty"`
	CSVPath  string `yaml:"csv,omitempty"`
	Database string `yaml:"sqlite,omitempty"`
}

type gapsYAML struct {
	IgnoreZeroPadded    bool   `yaml:"ignore-zeropadded,omitempty"`
	IgnoreTrailingZero  bool   `yaml:"ignore-trailingzero,omitempty"`
	InterpolateSmall    bool   `yaml:"interpolate-small,omitempty"`
	MaxGapLength        int    `yaml:"max-gap-length,omitempty"`
	InterpolationMethod string `yaml:"interpolation-method,omitempty"`
}

type modelYAML struct {
	RhoMax  *float64 `yaml:"rho-max,omitempty"`
	RhoNull *float64 `yaml:"rho-null,omitempty"`
	COv     *float64 `yaml:"c-ov,omitempty"`
	KOv     *float64 `yaml:"k-ov,omitempty"`
	K       *float64 `yaml:"k,omitempty"`
	Tau     *float64 `yaml:"tau,omitempty"`
	EtaNull *float64 `yaml:"eta-null,omitempty"`
}

type httpYAML struct {
	ListenAddr string `yaml:"listen-addr,omitempty"`
}
