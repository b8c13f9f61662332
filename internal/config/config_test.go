package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/codescan/internal/codec"
)

func TestDefaultConfig_IsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.True(t, cfg.Backends.Primary)
	assert.True(t, cfg.Backends.Secondary)
	assert.Equal(t, int64(codec.DefaultMaxPixels), cfg.Search.MaxPixels)
	assert.Equal(t, "text", cfg.Output.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Positive(t, cfg.Batch.Workers)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "upper case level", mutate: func(c *Config) { c.LogLevel = "DEBUG" }},
		{name: "yaml output", mutate: func(c *Config) { c.Output.Format = "yaml" }},
		{name: "bad log level", mutate: func(c *Config) { c.LogLevel = "loud" }, wantErr: "invalid log level"},
		{name: "bad format", mutate: func(c *Config) { c.Output.Format = "xml" }, wantErr: "invalid output format"},
		{name: "zero max pixels", mutate: func(c *Config) { c.Search.MaxPixels = 0 }, wantErr: "invalid search max pixels"},
		{name: "port too large", mutate: func(c *Config) { c.Server.Port = 70000 }, wantErr: "invalid server port"},
		{name: "zero upload", mutate: func(c *Config) { c.Server.MaxUploadMB = 0 }, wantErr: "invalid max upload size"},
		{name: "zero timeout", mutate: func(c *Config) { c.Server.TimeoutSec = 0 }, wantErr: "invalid timeout"},
		{name: "negative shutdown", mutate: func(c *Config) { c.Server.ShutdownTimeout = -1 }, wantErr: "invalid shutdown timeout"},
		{name: "zero server workers", mutate: func(c *Config) { c.Server.BatchWorkers = 0 }, wantErr: "invalid server batch workers"},
		{name: "zero batch workers", mutate: func(c *Config) { c.Batch.Workers = 0 }, wantErr: "invalid batch workers"},
		{name: "bad pattern", mutate: func(c *Config) { c.Batch.Exclude = []string{"[a-"} }, wantErr: "invalid batch pattern"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestPipeline(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Backends.Secondary = false
	cfg.Backends.TryHarder = false
	cfg.Search.MaxPixels = 1000

	pc := cfg.Pipeline()
	assert.True(t, pc.Backends.Primary)
	assert.False(t, pc.Backends.Secondary)
	assert.False(t, pc.Backends.TryHarder)
	assert.Equal(t, int64(1000), pc.MaxPixels)
}
