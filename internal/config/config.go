package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"demand-flex/internal/data"
	"demand-flex/internal/lp"
	"demand-flex/internal/model"
	"demand-flex/internal/optmodel"

	"gopkg.in/yaml.v3"
)

// Config is the on-disk run configuration (YAML).
type Config struct {
	DataDir    string   `yaml:"data_dir"`
	OutputDir  string   `yaml:"output_dir"`
	Variant    string   `yaml:"variant"`
	Scenarios  []string `yaml:"scenarios"`
	ConsumerID string   `yaml:"consumer_id"`
	// Exports lists report formats written to OutputDir: csv, xlsx, pdf.
	Exports     []string `yaml:"exports"`
	DatabaseURL string   `yaml:"database_url"`
	LogLevel    string   `yaml:"log_level"`

	Processing ProcessingConfig `yaml:"processing"`
	Dispatch   DispatchConfig   `yaml:"dispatch"`
	Investment InvestmentConfig `yaml:"investment"`
	Solver     SolverConfig     `yaml:"solver"`

	// Optional: load storage parameters from a separate YAML (e.g. examples/storage/*.yaml).
	// If both StorageFile and Storage are provided, Storage overrides StorageFile.
	// A non-empty result replaces the consumer's storage record.
	StorageFile string        `yaml:"storage_file"`
	Storage     StorageConfig `yaml:"storage"`
}

type ProcessingConfig struct {
	ScaleHourEquivalent bool `yaml:"scale_hour_equivalent"`
	ApplyRampLimits     bool `yaml:"apply_ramp_limits"`
}

// DispatchConfig tunes the dispatch variant. The consumer's battery is left
// out unless IncludeStorage is set.
type DispatchConfig struct {
	IncludeStorage bool `yaml:"include_storage"`
}

type InvestmentConfig struct {
	CapitalCostDKKPerKWh float64   `yaml:"capital_cost_dkk_per_kwh"`
	SOCRatio             *float64  `yaml:"soc_ratio"`
	ModuleSizeKWh        float64   `yaml:"module_size_kwh"`
	MaxModules           int       `yaml:"max_modules"`
	MaxCapacityKWh       float64   `yaml:"max_capacity_kwh"`
	Sweep                []float64 `yaml:"sweep"`
}

type SolverConfig struct {
	Tolerance            float64 `yaml:"tolerance"`
	IntegralityTolerance float64 `yaml:"integrality_tolerance"`
	MaxNodes             int     `yaml:"max_nodes"`
}

type StorageConfig struct {
	Name                string  `yaml:"name"`
	CapacityKWh         float64 `yaml:"capacity_kwh"`
	MaxChargeKW         float64 `yaml:"max_charge_kw"`
	MaxDischargeKW      float64 `yaml:"max_discharge_kw"`
	ChargeEfficiency    float64 `yaml:"charge_efficiency"`
	DischargeEfficiency float64 `yaml:"discharge_efficiency"`
	InitialSOC          float64 `yaml:"initial_soc"`
	FinalSOC            float64 `yaml:"final_soc"`
}

// Default is the configuration used when no file is given.
func Default() *Config {
	c := &Config{}
	c.ApplyDefaults()
	return c
}

func Load(path string) (*Config, error) {
	c, err := LoadUnchecked(path)
	if err != nil {
		return nil, err
	}
	c.ApplyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadUnchecked loads and merges config, but does not validate it.
func LoadUnchecked(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, err
	}
	if c.StorageFile != "" {
		storagePath := c.StorageFile
		if !filepath.IsAbs(storagePath) {
			// Relative paths resolve against the config file directory first,
			// then against the working directory.
			cand := filepath.Join(filepath.Dir(path), storagePath)
			if _, err := os.Stat(cand); err == nil {
				storagePath = cand
			}
		}
		loaded, err := LoadStorageFile(storagePath)
		if err != nil {
			return nil, err
		}
		c.Storage = MergeStorage(loaded, c.Storage)
	}
	return &c, nil
}

// ApplyDefaults fills unset fields. Storage SOC defaults apply only when a
// storage override is present.
func (c *Config) ApplyDefaults() {
	if c.DataDir == "" {
		c.DataDir = data.GetDefaultDataDir()
	}
	if c.Variant == "" {
		c.Variant = string(optmodel.VariantDispatch)
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.DatabaseURL == "" {
		c.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if c.Storage.CapacityKWh > 0 {
		if c.Storage.InitialSOC == 0 {
			c.Storage.InitialSOC = model.DefaultSOCRatio
		}
		if c.Storage.FinalSOC == 0 {
			c.Storage.FinalSOC = c.Storage.InitialSOC
		}
	}
}

func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	switch optmodel.Variant(c.Variant) {
	case optmodel.VariantDispatch, optmodel.VariantInvestment:
	default:
		return fmt.Errorf("variant must be %q or %q, got %q", optmodel.VariantDispatch, optmodel.VariantInvestment, c.Variant)
	}
	for _, e := range c.Exports {
		switch e {
		case "csv", "xlsx", "pdf":
		default:
			return fmt.Errorf("unknown export format %q", e)
		}
	}
	if err := c.InvestmentOptions(c.Investment.CapitalCostDKKPerKWh).Validate(); err != nil {
		return fmt.Errorf("investment config invalid: %w", err)
	}
	for _, cost := range c.Investment.Sweep {
		if cost < 0 {
			return errors.New("investment.sweep values must be >= 0")
		}
	}
	if c.HasStorageOverride() {
		if err := c.Storage.ToModelParams().Validate(); err != nil {
			return fmt.Errorf("storage config invalid: %w", err)
		}
	}
	return nil
}

// HasStorageOverride reports whether the config replaces the consumer's battery.
func (c *Config) HasStorageOverride() bool {
	return c.Storage.CapacityKWh > 0
}

func (s StorageConfig) ToModelParams() model.StorageParams {
	return model.StorageParams{
		CapacityKWh:         s.CapacityKWh,
		MaxChargeKW:         s.MaxChargeKW,
		MaxDischargeKW:      s.MaxDischargeKW,
		ChargeEfficiency:    s.ChargeEfficiency,
		DischargeEfficiency: s.DischargeEfficiency,
		InitialSOC:          s.InitialSOC,
		FinalSOC:            s.FinalSOC,
	}
}

func (c *Config) ProcessOptions() data.ProcessOptions {
	return data.ProcessOptions{
		ConsumerID:          c.ConsumerID,
		ScaleHourEquivalent: c.Processing.ScaleHourEquivalent,
		ApplyRampLimits:     c.Processing.ApplyRampLimits,
	}
}

func (c *Config) LPOptions() lp.Options {
	return lp.Options{
		Tolerance:            c.Solver.Tolerance,
		IntegralityTolerance: c.Solver.IntegralityTolerance,
		MaxNodes:             c.Solver.MaxNodes,
	}
}

func (c *Config) DispatchOptions() optmodel.DispatchOptions {
	return optmodel.DispatchOptions{
		IgnoreStorage: !c.Dispatch.IncludeStorage,
		LP:            c.LPOptions(),
	}
}

// InvestmentOptions builds the sizing options for one capital cost.
func (c *Config) InvestmentOptions(capitalCost float64) optmodel.InvestmentOptions {
	return optmodel.InvestmentOptions{
		CapitalCostDKKPerKWh: capitalCost,
		SOCRatio:             c.Investment.SOCRatio,
		ModuleSizeKWh:        c.Investment.ModuleSizeKWh,
		MaxModules:           c.Investment.MaxModules,
		MaxCapacityKWh:       c.Investment.MaxCapacityKWh,
		LP:                   c.LPOptions(),
	}
}

type storageFileWrapper struct {
	Storage StorageConfig `yaml:"storage"`
}

// LoadStorageFile reads the storage block of a preset YAML file.
func LoadStorageFile(path string) (StorageConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return StorageConfig{}, err
	}
	var w storageFileWrapper
	if err := yaml.Unmarshal(raw, &w); err != nil {
		return StorageConfig{}, err
	}
	return w.Storage, nil
}

// MergeStorage overlays non-zero fields from override onto base.
// This is used when loading a storage file and then applying overrides from the config or a request.
func MergeStorage(base, override StorageConfig) StorageConfig {
	out := base
	if override.Name != "" {
		out.Name = override.Name
	}
	if override.CapacityKWh != 0 {
		out.CapacityKWh = override.CapacityKWh
	}
	if override.MaxChargeKW != 0 {
		out.MaxChargeKW = override.MaxChargeKW
	}
	if override.MaxDischargeKW != 0 {
		out.MaxDischargeKW = override.MaxDischargeKW
	}
	if override.ChargeEfficiency != 0 {
		out.ChargeEfficiency = override.ChargeEfficiency
	}
	if override.DischargeEfficiency != 0 {
		out.DischargeEfficiency = override.DischargeEfficiency
	}
	// A zero SOC cannot be told apart from "unset" here.
	if override.InitialSOC != 0 {
		out.InitialSOC = override.InitialSOC
	}
	if override.FinalSOC != 0 {
		out.FinalSOC = override.FinalSOC
	}
	return out
}
