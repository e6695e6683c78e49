package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, AssetSourceDisk, cfg.Assets.Source)
	assert.Equal(t, "public", cfg.Assets.Root)
	assert.Equal(t, []string{"index.html", "kpi_map.json", "people_data.json"}, cfg.Assets.RequiredFiles)
	assert.Equal(t, time.Duration(0), cfg.Assets.CacheMaxAge)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, "rcm.assets.changed", cfg.NATS.Subject)
	assert.False(t, cfg.RateLimit.Enabled)
	assert.Empty(t, cfg.RateLimit.TrustedProxies)
	assert.True(t, cfg.Compression.Enabled)
}

func TestLoad_Overrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("ASSETS_SOURCE", "S3")
	t.Setenv("S3_BUCKET", "rcm-assets")
	t.Setenv("ASSETS_REQUIRED_FILES", " index.html , ,kpi_map.json")
	t.Setenv("ASSETS_CACHE_MAX_AGE", "1h")
	t.Setenv("RATE_LIMIT_ENABLED", "true")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("RATE_LIMIT_TRUSTED_PROXIES", "10.0.0.0/8, 192.0.2.10")
	t.Setenv("REDIS_DB", "3")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, AssetSourceS3, cfg.Assets.Source)
	assert.Equal(t, "rcm-assets", cfg.S3.Bucket)
	assert.Equal(t, []string{"index.html", "kpi_map.json"}, cfg.Assets.RequiredFiles)
	assert.Equal(t, time.Hour, cfg.Assets.CacheMaxAge)
	assert.True(t, cfg.RateLimit.Enabled)
	assert.Equal(t, 2.5, cfg.RateLimit.RPS)
	assert.Equal(t, []string{"10.0.0.0/8", "192.0.2.10"}, cfg.RateLimit.TrustedProxies)
	assert.Equal(t, 3, cfg.Redis.DB)
}

func TestLoad_InvalidValues(t *testing.T) {
	cases := map[string]map[string]string{
		"bad duration":        {"SERVER_READ_TIMEOUT": "soon"},
		"bad redis db":        {"REDIS_DB": "zero"},
		"s3 without bucket":   {"ASSETS_SOURCE": "s3"},
		"unknown source":      {"ASSETS_SOURCE": "ftp"},
		"negative max age":    {"ASSETS_CACHE_MAX_AGE": "-1s"},
		"zero rate when on":   {"RATE_LIMIT_ENABLED": "true", "RATE_LIMIT_RPS": "0"},
		"zero refresh":        {"ASSETS_REFRESH_INTERVAL": "0s"},
		"zero ttl with redis": {"REDIS_ENABLED": "true", "REDIS_TTL": "0s"},
	}

	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			t.Chdir(t.TempDir())
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestParse_SkipsValidation(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("ASSETS_SOURCE", "s3")

	cfg, err := Parse()
	require.NoError(t, err)
	assert.Equal(t, AssetSourceS3, cfg.Assets.Source)
	assert.Error(t, cfg.Validate())

	cfg.Assets.Source = AssetSourceDisk
	assert.NoError(t, cfg.Validate())
}

func TestGetEnvBool(t *testing.T) {
	t.Setenv("FLAG_ON", "true")
	t.Setenv("FLAG_GARBAGE", "maybe")

	assert.True(t, getEnvBool("FLAG_ON", false))
	assert.True(t, getEnvBool("FLAG_GARBAGE", true))
	assert.False(t, getEnvBool("FLAG_UNSET", false))
}

func TestSplitCSV(t *testing.T) {
	assert.Equal(t, []string{}, splitCSV(""))
	assert.Equal(t, []string{"a", "b"}, splitCSV("a, ,b,"))
}
