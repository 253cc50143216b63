package serv_test

import (
	"testing"
	"time"

	"github.com/dosco/musicserv/serv"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig(t *testing.T) {
	t.Run("readInConfigDefaults", readInConfigDefaults)
	t.Run("readInConfigFile", readInConfigFile)
	t.Run("readInConfigInherits", readInConfigInherits)
	t.Run("readInConfigWithEnvVars", readInConfigWithEnvVars)
	t.Run("readInConfigBadFile", readInConfigBadFile)
}

func readInConfigDefaults(t *testing.T) {
	c, err := serv.ReadInConfigFS("/dev", afero.NewMemMapFs())
	require.NoError(t, err)

	assert.Equal(t, "musicserv", c.AppName)
	assert.Equal(t, "0.0.0.0:3000", c.HostPort)
	assert.Equal(t, "/music", c.RoutePrefix)
	assert.Equal(t, "music", c.RootDir)
	assert.Equal(t, "index.html", c.Index)
	assert.Equal(t, "ignore", c.Dotfiles)
	assert.True(t, c.Redirect)
	assert.True(t, c.ETag)
	assert.Equal(t, time.Duration(0), c.CacheMaxAge)
	assert.Equal(t, 10*time.Second, c.ShutdownTimeout)
	assert.Empty(t, c.HealthPath)
	assert.Empty(t, c.AllowedOrigins)
	assert.False(t, c.HTTPGZip)
	assert.Equal(t, 10000, c.RateLimiter.MaxClients)
	assert.Equal(t, "/", c.ConfigPath)
}

// nolint:errcheck
func readInConfigFile(t *testing.T) {
	devConfig := `
app_name: "Tunes"
route_prefix: /tunes
root_dir: /srv/audio
cache_max_age: 1h
dotfiles: deny
cors_allowed_origins:
  - https://player.example
mime_types:
  mka: audio/x-matroska
rate_limiter:
  rate: 2.5
  bucket: 10
telemetry:
  tracing:
    enable: true
    sample: always
`
	fs := afero.NewMemMapFs()
	afero.WriteFile(fs, "/config/dev.yml", []byte(devConfig), 0o666)

	c, err := serv.ReadInConfigFS("/config/dev", fs)
	require.NoError(t, err)

	assert.Equal(t, "Tunes", c.AppName)
	assert.Equal(t, "/tunes", c.RoutePrefix)
	assert.Equal(t, "/srv/audio", c.RootDir)
	assert.Equal(t, time.Hour, c.CacheMaxAge)
	assert.Equal(t, "deny", c.Dotfiles)
	assert.Equal(t, []string{"https://player.example"}, c.AllowedOrigins)
	assert.Equal(t, map[string]string{"mka": "audio/x-matroska"}, c.MimeTypes)
	assert.Equal(t, 2.5, c.RateLimiter.Rate)
	assert.Equal(t, 10, c.RateLimiter.Bucket)
	assert.True(t, c.Telemetry.Tracing.Enable)
	assert.Equal(t, "always", c.Telemetry.Tracing.Sample)
	assert.Equal(t, "/config", c.ConfigPath)
	assert.Equal(t, "/config/certs", c.RelPath("certs"))
	assert.Equal(t, "/etc/certs", c.RelPath("/etc/certs"))

	root, err := c.RootPath()
	require.NoError(t, err)
	assert.Equal(t, "/srv/audio", root)
}

// nolint:errcheck
func readInConfigInherits(t *testing.T) {
	devConfig := "app_name: \"Tunes\"\nroot_dir: /srv/audio\nroute_prefix: /dev\n"
	prodConfig := "inherits: dev\nroute_prefix: /prod\nproduction: true\n"
	stageConfig := "inherits: prod\n"

	fs := afero.NewMemMapFs()
	afero.WriteFile(fs, "/dev.yml", []byte(devConfig), 0o666)
	afero.WriteFile(fs, "/prod.yml", []byte(prodConfig), 0o666)
	afero.WriteFile(fs, "/stage.yml", []byte(stageConfig), 0o666)

	c, err := serv.ReadInConfigFS("/prod", fs)
	require.NoError(t, err)
	assert.Equal(t, "Tunes", c.AppName)
	assert.Equal(t, "/srv/audio", c.RootDir)
	assert.Equal(t, "/prod", c.RoutePrefix)
	assert.True(t, c.Production)

	_, err = serv.ReadInConfigFS("/stage", fs)
	assert.ErrorContains(t, err, "cannot itself inherit")
}

// nolint:errcheck
func readInConfigWithEnvVars(t *testing.T) {
	fs := afero.NewMemMapFs()
	afero.WriteFile(fs, "/dev.yml", []byte("route_prefix: /tunes\n"), 0o666)

	t.Setenv("MS_ROUTE_PREFIX", "/env")
	t.Setenv("MS_CORS_ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("MS_RATE_LIMITER_RATE", "4")
	t.Setenv("MS_CACHE_MAX_AGE", "30s")
	t.Setenv("PORT", "4000")

	c, err := serv.ReadInConfigFS("/dev", fs)
	require.NoError(t, err)

	assert.Equal(t, "/env", c.RoutePrefix)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, c.AllowedOrigins)
	assert.Equal(t, 4.0, c.RateLimiter.Rate)
	assert.Equal(t, 30*time.Second, c.CacheMaxAge)
	assert.Equal(t, "4000", c.Port)
}

// nolint:errcheck
func readInConfigBadFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	afero.WriteFile(fs, "/dev.yml", []byte("route_prefix: [\n"), 0o666)

	_, err := serv.ReadInConfigFS("/dev", fs)
	assert.Error(t, err)

	afero.WriteFile(fs, "/prod.yml", []byte("inherits: missing\n"), 0o666)
	_, err = serv.ReadInConfigFS("/prod", fs)
	assert.Error(t, err)
}

func TestGetConfigName(t *testing.T) {
	tests := map[string]string{
		"":            "dev",
		"development": "dev",
		"production":  "prod",
		"PROD":        "prod",
		"staging":     "stage",
		"test":        "test",
		"qa":          "qa",
	}

	for env, name := range tests {
		t.Setenv("GO_ENV", env)
		assert.Equal(t, name, serv.GetConfigName(), env)
	}
}
