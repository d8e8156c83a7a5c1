package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/back2basic/linkcollector/model"
)

func validConfig() *Config {
	return &Config{
		LinkFile:       "links.txt",
		LinkCount:      3,
		PollPeriod:     1,
		Timeout:        500,
		Warmup:         100,
		StatFile:       "stat",
		CounterUnit:    "bytes",
		DefaultPeer:    "http://127.0.0.1:8080",
		ExportInterval: time.Minute,
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "no link file", mutate: func(c *Config) { c.LinkFile = "" }, wantErr: "link file"},
		{name: "zero count", mutate: func(c *Config) { c.LinkCount = 0 }, wantErr: "link ids"},
		{name: "zero period", mutate: func(c *Config) { c.PollPeriod = 0 }, wantErr: "poll period"},
		{name: "zero timeout", mutate: func(c *Config) { c.Timeout = 0 }, wantErr: "timeout"},
		{name: "zero warmup", mutate: func(c *Config) { c.Warmup = 0 }, wantErr: "warmup"},
		{name: "bad unit", mutate: func(c *Config) { c.CounterUnit = "octets" }, wantErr: "counter unit"},
		{name: "no peers", mutate: func(c *Config) { c.DefaultPeer = "" }, wantErr: "peer"},
		{name: "bad peer", mutate: func(c *Config) { c.Peers = []string{"/p"} }, wantErr: "prefix=url"},
		{name: "routes only", mutate: func(c *Config) {
			c.DefaultPeer = ""
			c.Peers = []string{"/ndn/edu/arizona=http://10.0.0.1:8080"}
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := validConfig()
			tc.mutate(c)
			err := c.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestRoutes(t *testing.T) {
	c := validConfig()
	c.Peers = []string{"/ndn/edu/arizona = http://a:80", "/ndn/edu/wustl=http://w:80"}

	routes, err := c.Routes()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"/ndn/edu/arizona": "http://a:80",
		"/ndn/edu/wustl":   "http://w:80",
	}, routes)
}

func TestDurations(t *testing.T) {
	c := validConfig()
	assert.Equal(t, time.Second, c.PollInterval())
	assert.Equal(t, 500*time.Millisecond, c.RequestTimeout())
	assert.Equal(t, 100*time.Millisecond, c.WarmupDelay())
	assert.Equal(t, model.UnitBytes, c.Unit())
}

func TestLoadDefaultsAndFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "collector.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
link_file: links.txt
link_count: 4
poll_period: 5
peers:
  - /ndn/edu/arizona=http://10.0.0.1:8080
`), 0o644))

	v := viper.New()
	SetDefaults(v)
	v.SetConfigFile(path)

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.LinkCount)
	assert.Equal(t, 5*time.Second, cfg.PollInterval())
	assert.Equal(t, 500*time.Millisecond, cfg.RequestTimeout())
	assert.Equal(t, "stat", cfg.StatFile)
	assert.Equal(t, "127.0.0.1", cfg.MapAddr)
	assert.Equal(t, time.Minute, cfg.ExportInterval)
	assert.Equal(t, []string{"/ndn/edu/arizona=http://10.0.0.1:8080"}, cfg.Peers)
}

func TestLoadMissingRequired(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	_, err := Load(v)
	assert.Error(t, err)
}
