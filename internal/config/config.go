package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"meterflow/internal/aggregate"
	"meterflow/internal/model"
	"meterflow/internal/period"
)

// Config is the on-disk configuration shape (YAML).
type Config struct {
	Provider ProviderConfig `yaml:"provider"`
	Cache    CacheConfig    `yaml:"cache"`
	Tariff   TariffConfig   `yaml:"tariff"`
	Meters   []MeterConfig  `yaml:"meters"`
}

type ProviderConfig struct {
	BaseURL        string `yaml:"base_url"`
	Token          string `yaml:"token"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

func (p ProviderConfig) Timeout() time.Duration {
	return time.Duration(p.TimeoutSeconds) * time.Second
}

type CacheConfig struct {
	// Driver selects the series store: "memory", "file" or "postgres".
	Driver string `yaml:"driver"`
	// DSN is the connection string for the postgres driver.
	DSN string `yaml:"dsn"`
	// Dir is the storage directory for the file driver.
	Dir string `yaml:"dir"`
}

type TariffConfig struct {
	Preset      string `yaml:"preset"`
	AnchorDay   int    `yaml:"anchor_day"`
	AnchorMonth int    `yaml:"anchor_month"`
	Lookback    int    `yaml:"lookback"`

	// Optional already-negotiated prices, EUR per kWh. Both zero means
	// no cost view.
	PeakRatePerKWh    float64 `yaml:"peak_rate_per_kwh"`
	OffpeakRatePerKWh float64 `yaml:"offpeak_rate_per_kwh"`
}

// PresetValue maps the config string onto a period preset.
func (t TariffConfig) PresetValue() period.Preset {
	return period.Preset(t.Preset)
}

// Anchor returns the configured anchor day/month.
func (t TariffConfig) Anchor() period.Anchor {
	return period.Anchor{Day: t.AnchorDay, Month: t.AnchorMonth}
}

// Rates returns the per-kWh lookup, or nil when no rates are configured.
func (t TariffConfig) Rates() aggregate.RateLookup {
	if t.PeakRatePerKWh == 0 && t.OffpeakRatePerKWh == 0 {
		return nil
	}
	return func(offpeak bool) float64 {
		if offpeak {
			return t.OffpeakRatePerKWh
		}
		return t.PeakRatePerKWh
	}
}

type MeterConfig struct {
	ID                string `yaml:"id"`
	Name              string `yaml:"name"`
	Offpeak           string `yaml:"offpeak"`
	Production        bool   `yaml:"production"`
	ProductionMeterID string `yaml:"production_meter_id"`
}

// Contract converts the config entry into the engine's contract shape.
func (m MeterConfig) Contract() model.MeterContract {
	return model.MeterContract{
		MeterID:           m.ID,
		Name:              m.Name,
		OffpeakRanges:     m.Offpeak,
		HasConsumption:    true,
		HasProduction:     m.Production,
		ProductionMeterID: m.ProductionMeterID,
	}
}

// Load reads, defaults and validates a config file.
func Load(path string) (*Config, error) {
	c, err := LoadUnchecked(path)
	if err != nil {
		return nil, err
	}
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadUnchecked loads a config without defaulting or validation.
// Useful for debugging/printing partial configs.
func LoadUnchecked(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.Provider.TimeoutSeconds == 0 {
		c.Provider.TimeoutSeconds = 30
	}
	if c.Cache.Driver == "" {
		c.Cache.Driver = "memory"
	}
	if c.Tariff.Preset == "" {
		c.Tariff.Preset = string(period.Rolling)
	}
	if c.Tariff.Lookback == 0 {
		c.Tariff.Lookback = 3
	}
	if c.Tariff.Preset == string(period.Calendar) {
		c.Tariff.AnchorDay, c.Tariff.AnchorMonth = 1, 1
	}
}

func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.Provider.BaseURL == "" {
		return errors.New("provider.base_url is required")
	}
	switch c.Cache.Driver {
	case "memory":
	case "file":
		if c.Cache.Dir == "" {
			return errors.New("cache.dir is required for the file driver")
		}
	case "postgres":
		if c.Cache.DSN == "" {
			return errors.New("cache.dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown cache.driver %q", c.Cache.Driver)
	}
	if !c.Tariff.PresetValue().Valid() {
		return fmt.Errorf("unknown tariff.preset %q", c.Tariff.Preset)
	}
	switch c.Tariff.PresetValue() {
	case period.Seasonal, period.Custom:
		a := c.Tariff.Anchor()
		if a.Day < 1 || a.Day > 31 || a.Month < 1 || a.Month > 12 {
			return fmt.Errorf("tariff anchor %d/%d out of range", a.Day, a.Month)
		}
	}
	if len(c.Meters) == 0 {
		return errors.New("at least one meter is required")
	}
	seen := map[string]bool{}
	for i, m := range c.Meters {
		if m.ID == "" {
			return fmt.Errorf("meters[%d].id is required", i)
		}
		if seen[m.ID] {
			return fmt.Errorf("duplicate meter id %q", m.ID)
		}
		seen[m.ID] = true
	}
	return nil
}

// Meter resolves a configured meter by ID.
func (c *Config) Meter(id string) (MeterConfig, bool) {
	for _, m := range c.Meters {
		if m.ID == id {
			return m, true
		}
	}
	return MeterConfig{}, false
}
