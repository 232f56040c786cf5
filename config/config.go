/*
Package config loads dashboard configuration.

SOURCES (later wins):
  1. Defaults (Default())
  2. Optional YAML file (-config flag / askctl --config)
  3. Environment: ASK_DB_PATH, ASK_PORT, ASK_PREFERRED_REGION
  4. Command-line flags, applied by the caller

EXAMPLE FILE:
  server:
    port: 8080
  database:
    path: ./aadhaar_analysis.db
  dashboard:
    preferred_region: Maharashtra
    report_prefix: Aadhaar_Report
    priority_top_n: 5
    forecast_top_n: 10
    risk_threshold_pct: 0
    cache_ttl: 10m
    warm_interval: 5m
  exports:
    rate_per_second: 2
    burst: 5
*/
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Dashboard DashboardConfig `yaml:"dashboard"`
	Exports   ExportConfig    `yaml:"exports"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type DashboardConfig struct {
	PreferredRegion  string        `yaml:"preferred_region"`
	ReportPrefix     string        `yaml:"report_prefix"`
	PriorityTopN     int           `yaml:"priority_top_n"`
	ForecastTopN     int           `yaml:"forecast_top_n"`
	RiskThresholdPct float64       `yaml:"risk_threshold_pct"`
	CacheTTL         time.Duration `yaml:"cache_ttl"`
	WarmInterval     time.Duration `yaml:"warm_interval"`
}

// ExportConfig throttles PDF/xlsx/chart rendering.
type ExportConfig struct {
	RatePerSecond float64 `yaml:"rate_per_second"`
	Burst         int     `yaml:"burst"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server:   ServerConfig{Port: 8080},
		Database: DatabaseConfig{Path: "aadhaar_analysis.db"},
		Dashboard: DashboardConfig{
			PreferredRegion: "Maharashtra",
			ReportPrefix:    "Aadhaar_Report",
			PriorityTopN:    5,
			ForecastTopN:    10,
			CacheTTL:        10 * time.Minute,
			WarmInterval:    5 * time.Minute,
		},
		Exports: ExportConfig{RatePerSecond: 2, Burst: 5},
	}
}

// Load reads path (if non-empty) over the defaults, then applies env overrides.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	applyEnv(&cfg)
	return cfg, cfg.Validate()
}

// Validate rejects values the dashboard cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if c.Database.Path == "" {
		errs = append(errs, errors.New("database.path is required"))
	}
	if c.Dashboard.PriorityTopN <= 0 {
		errs = append(errs, errors.New("dashboard.priority_top_n must be positive"))
	}
	if c.Dashboard.ForecastTopN <= 0 {
		errs = append(errs, errors.New("dashboard.forecast_top_n must be positive"))
	}
	if c.Dashboard.RiskThresholdPct < 0 || c.Dashboard.RiskThresholdPct > 100 {
		errs = append(errs, errors.New("dashboard.risk_threshold_pct must be within [0, 100]"))
	}
	if c.Dashboard.WarmInterval < 0 {
		errs = append(errs, errors.New("dashboard.warm_interval must not be negative"))
	}
	if c.Dashboard.ReportPrefix == "" {
		errs = append(errs, errors.New("dashboard.report_prefix is required"))
	}
	if c.Exports.RatePerSecond <= 0 || c.Exports.Burst <= 0 {
		errs = append(errs, errors.New("exports.rate_per_second and exports.burst must be positive"))
	}
	return errors.Join(errs...)
}

func applyEnv(c *Config) {
	c.Database.Path = getEnvWithDefault("ASK_DB_PATH", c.Database.Path)
	c.Server.Port = getEnvAsInt("ASK_PORT", c.Server.Port)
	c.Dashboard.PreferredRegion = getEnvWithDefault("ASK_PREFERRED_REGION", c.Dashboard.PreferredRegion)
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
