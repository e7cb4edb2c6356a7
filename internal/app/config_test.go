package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		Addr:         defaultAddr,
		DatabaseURL:  "postgres://localhost/storefront",
		APIKeyPepper: "pepper",
		RateLimit:    RateLimitConfig{Max: 100, Window: time.Minute},
	}
}

func TestConfig_ApplyPlatformDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://platform/db")
	t.Setenv("PORT", "9090")

	cfg := Config{Addr: defaultAddr}
	cfg.applyPlatformDefaults()

	assert.Equal(t, "postgres://platform/db", cfg.DatabaseURL)
	assert.Equal(t, "0.0.0.0:9090", cfg.Addr)
}

func TestConfig_ApplyPlatformDefaultsKeepsExplicit(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://platform/db")
	t.Setenv("PORT", "9090")

	cfg := Config{Addr: "127.0.0.1:7000", DatabaseURL: "postgres://explicit/db"}
	cfg.applyPlatformDefaults()

	assert.Equal(t, "postgres://explicit/db", cfg.DatabaseURL)
	assert.Equal(t, "127.0.0.1:7000", cfg.Addr)
}

func TestConfig_Validate(t *testing.T) {
	for _, tt := range []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{name: "Valid", mutate: func(*Config) {}},
		{name: "JWTOnly", mutate: func(c *Config) { c.APIKeyPepper, c.JWTSecret = "", "secret" }},
		{
			name:   "NoDatabase",
			mutate: func(c *Config) { c.DatabaseURL = "" },
			errMsg: "database URL is required",
		},
		{
			name:   "NoCredentials",
			mutate: func(c *Config) { c.APIKeyPepper = "" },
			errMsg: "no credentials configured",
		},
		{
			name:   "ZeroWindow",
			mutate: func(c *Config) { c.RateLimit.Window = 0 },
			errMsg: "rate limit",
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.validate()
			if tt.errMsg == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}
