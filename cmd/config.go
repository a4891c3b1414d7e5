package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/etnz/invoicing"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Config is the content of the optional configuration file.
//
//	layout:
//	  capacities: [17, 30, 20]
//	  maxPages: 3
//	tax:
//	  mode: flat     # empty: flat for invoices, per-item for quotations
//	  rate: 15
//	server:
//	  port: 8080
type Config struct {
	Layout LayoutConfig `yaml:"layout"`
	Tax    TaxConfig    `yaml:"tax"`
	Server ServerConfig `yaml:"server"`
}

type LayoutConfig struct {
	Capacities []int `yaml:"capacities"`
	MaxPages   int   `yaml:"maxPages"`
}

type TaxConfig struct {
	Mode string `yaml:"mode"`
	Rate string `yaml:"rate"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

// Environment variables overriding the configuration file.
const (
	EnvConfig   = "INVOICING_CONFIG"
	EnvPort     = "INVOICING_PORT"
	EnvTaxRate  = "INVOICING_TAX_RATE"
	EnvTaxMode  = "INVOICING_TAX_MODE"
	EnvVerbose  = "INVOICING_VERBOSE"
	EnvLogLevel = "LOG_LEVEL"
)

func defaultConfig() *Config {
	layout := invoicing.DefaultLayout()
	return &Config{
		Layout: LayoutConfig{
			Capacities: layout.Capacities().Values(),
			MaxPages:   layout.MaxPages(),
		},
		Tax:    TaxConfig{Rate: "15"},
		Server: ServerConfig{Port: 8080},
	}
}

// LoadConfig reads the configuration file at path, if any, over the defaults,
// then applies the environment overrides.
func LoadConfig(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %q: %w", path, err)
		}
	}

	cfg.Server.Port = getEnvInt(EnvPort, cfg.Server.Port)
	cfg.Tax.Rate = getEnvString(EnvTaxRate, cfg.Tax.Rate)
	cfg.Tax.Mode = getEnvString(EnvTaxMode, cfg.Tax.Mode)

	if _, err := cfg.PageLayout(); err != nil {
		return nil, fmt.Errorf("invalid config %q: %w", path, err)
	}
	if _, err := cfg.TaxPolicy(invoicing.Document{}); err != nil {
		return nil, fmt.Errorf("invalid config %q: %w", path, err)
	}
	return cfg, nil
}

// PageLayout returns the configured pagination layout.
func (c *Config) PageLayout() (invoicing.Layout, error) {
	return invoicing.NewLayout(c.Layout.MaxPages, c.Layout.Capacities...)
}

// TaxRate returns the configured rate, used by documents without a rate of their own.
func (c *Config) TaxRate() (invoicing.Percent, error) {
	s := strings.TrimSuffix(strings.TrimSpace(c.Tax.Rate), "%")
	if s == "" {
		return invoicing.Pct(0), nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return invoicing.Percent{}, fmt.Errorf("%w: tax rate %q is not a number", invoicing.ErrInvalidTaxPolicy, c.Tax.Rate)
	}
	if d.IsNegative() {
		return invoicing.Percent{}, fmt.Errorf("%w: tax rate %q must not be negative", invoicing.ErrInvalidTaxPolicy, c.Tax.Rate)
	}
	return invoicing.Pct(d), nil
}

// ModePolicy returns the policy of the configured tax mode at the configured
// rate, or the zero policy when no mode is configured.
func (c *Config) ModePolicy() (invoicing.TaxPolicy, error) {
	if c.Tax.Mode == "" {
		return invoicing.TaxPolicy{}, nil
	}
	rate, err := c.TaxRate()
	if err != nil {
		return invoicing.TaxPolicy{}, err
	}
	return invoicing.ParseTaxPolicy(c.Tax.Mode + ":" + rate.Decimal().String())
}

// TaxPolicy returns the policy to apply to doc: the document's own, else the
// configured mode, else the default of the document kind.
func (c *Config) TaxPolicy(doc invoicing.Document) (invoicing.TaxPolicy, error) {
	if !doc.Tax.IsZero() {
		return doc.Tax, nil
	}
	policy, err := c.ModePolicy()
	if err != nil || !policy.IsZero() {
		return policy, err
	}
	rate, err := c.TaxRate()
	if err != nil {
		return invoicing.TaxPolicy{}, err
	}
	return invoicing.DefaultTaxPolicy(doc.Kind, rate), nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
