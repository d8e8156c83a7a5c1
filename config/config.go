package config

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/back2basic/linkcollector/model"
)

// Config holds the collector configuration.
type Config struct {
	LinkFile    string   `mapstructure:"link_file"`
	LinkCount   int      `mapstructure:"link_count"`
	MapAddr     string   `mapstructure:"map_addr"`
	PollPeriod  int      `mapstructure:"poll_period"` // seconds
	Timeout     int      `mapstructure:"timeout"`     // milliseconds
	Warmup      int      `mapstructure:"warmup"`      // milliseconds
	Debug       int      `mapstructure:"debug"`
	StatFile    string   `mapstructure:"stat_file"`
	CounterUnit string   `mapstructure:"counter_unit"`
	Peers       []string `mapstructure:"peers"` // prefix=baseURL
	DefaultPeer string   `mapstructure:"default_peer"`

	MetricsAddr    string        `mapstructure:"metrics_addr"`
	SQLitePath     string        `mapstructure:"sqlite_path"`
	ExportInterval time.Duration `mapstructure:"export_interval"`
	LiveInterval   time.Duration `mapstructure:"live_interval"`
}

// SetDefaults registers the default value of every key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("map_addr", "127.0.0.1")
	v.SetDefault("poll_period", 1)
	v.SetDefault("timeout", 500)
	v.SetDefault("warmup", 100)
	v.SetDefault("debug", 0)
	v.SetDefault("stat_file", "stat")
	v.SetDefault("counter_unit", string(model.UnitBytes))
	v.SetDefault("export_interval", "1m")
	v.SetDefault("live_interval", "0s")
}

// Load reads the optional config file set on v, then decodes and validates.
func Load(v *viper.Viper) (*Config, error) {
	if v.ConfigFileUsed() != "" {
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrap(err, "error reading config file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "unable to decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.LinkFile == "" {
		return errors.New("link file is required")
	}
	if c.LinkCount < 1 {
		return errors.New("number of link ids must be at least 1")
	}
	if c.PollPeriod < 1 {
		return errors.New("poll period must be at least 1 second")
	}
	if c.Timeout < 1 {
		return errors.New("timeout must be at least 1 millisecond")
	}
	if c.Warmup < 1 {
		return errors.New("warmup must be at least 1 millisecond")
	}
	if c.StatFile == "" {
		return errors.New("statistics file is required")
	}
	if _, err := model.ParseCounterUnit(c.CounterUnit); err != nil {
		return err
	}
	routes, err := c.Routes()
	if err != nil {
		return err
	}
	if len(routes) == 0 && c.DefaultPeer == "" {
		return errors.New("at least one peer or a default peer is required")
	}
	if c.ExportInterval <= 0 {
		return errors.New("export interval must be positive")
	}
	return nil
}

// Routes parses Peers into a prefix to base URL map.
func (c *Config) Routes() (map[string]string, error) {
	routes := make(map[string]string, len(c.Peers))
	for _, p := range c.Peers {
		prefix, base, ok := strings.Cut(p, "=")
		prefix, base = strings.TrimSpace(prefix), strings.TrimSpace(base)
		if !ok || prefix == "" || base == "" {
			return nil, errors.Errorf("peer %q is not prefix=url", p)
		}
		routes[prefix] = base
	}
	return routes, nil
}

func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollPeriod) * time.Second
}

func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Timeout) * time.Millisecond
}

func (c *Config) WarmupDelay() time.Duration {
	return time.Duration(c.Warmup) * time.Millisecond
}

func (c *Config) Unit() model.CounterUnit {
	u, _ := model.ParseCounterUnit(c.CounterUnit)
	return u
}
