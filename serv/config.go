package serv

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/dosco/musicserv/internal/util"
	"github.com/go-playground/validator/v10"
	"github.com/kardianos/osext"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

const (
	defaultHostPort = "0.0.0.0:3000"
	defaultPrefix   = "/music"
	defaultRootDir  = "music"
)

// Config struct holds the music service config values
type Config struct {
	// AppName is the name of your application used in log and trace data
	AppName string `mapstructure:"app_name"`

	// Production when set to true disables reloading on config changes
	Production bool

	// ConfigPath is the directory the config file was read from
	ConfigPath string `mapstructure:"config_path"`

	// LogLevel can be debug, error, warn, info
	LogLevel string `mapstructure:"log_level" validate:"oneof=debug info warn error"`

	// LogFormat can be json or simple
	LogFormat string `mapstructure:"log_format" validate:"oneof=json simple"`

	// HostPort to run the service on. Example localhost:3000
	HostPort string `mapstructure:"host_port" validate:"required"`

	// Host to run the service on
	Host string

	// Port to run the service on
	Port string

	// RoutePrefix is the URL path the root directory is served under
	RoutePrefix string `mapstructure:"route_prefix" validate:"required,startswith=/,excludesall={}*"`

	// RootDir is the directory to serve. A relative path is resolved
	// against the directory of the running executable
	RootDir string `mapstructure:"root_dir" validate:"required"`

	// Index is the file served for a directory request, empty disables it
	Index string

	// Redirect sends directory requests without a trailing slash to the
	// same path with a trailing slash
	Redirect bool

	// Dotfiles can be ignore (404), deny (403) or allow
	Dotfiles string `validate:"oneof=ignore allow deny"`

	// ETag enables weak etags built from file size and modification time
	ETag bool `mapstructure:"etag"`

	// CacheMaxAge sets the max-age of the HTTP Cache-Control header
	CacheMaxAge time.Duration `mapstructure:"cache_max_age"`

	// MimeTypes adds extension (without the dot) to content type mappings
	MimeTypes map[string]string `mapstructure:"mime_types" validate:"dive,keys,required,endkeys,required"`

	// HTTPGZip enables HTTP compression
	HTTPGZip bool `mapstructure:"http_compress"`

	// AllowedOrigins sets the HTTP CORS Access-Control-Allow-Origin header
	AllowedOrigins []string `mapstructure:"cors_allowed_origins"`

	// AllowedHeaders sets the HTTP CORS Access-Control-Allow-Headers header
	AllowedHeaders []string `mapstructure:"cors_allowed_headers"`

	// DebugCORS enables debug logs for cors
	DebugCORS bool `mapstructure:"cors_debug"`

	// HealthPath enables a health check route at this path
	HealthPath string `mapstructure:"health_path" validate:"omitempty,startswith=/"`

	// ShutdownTimeout bounds the graceful shutdown
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	// WatchAndReload enables reloading the service on config changes
	WatchAndReload bool `mapstructure:"reload_on_config_change"`

	RateLimiter struct {
		Rate       float64 `validate:"min=0"`
		Bucket     int     `validate:"min=0"`
		IPHeader   string  `mapstructure:"ip_header"`
		MaxClients int     `mapstructure:"max_clients" validate:"min=0"`
	} `mapstructure:"rate_limiter"`

	// Telemetry struct contains OpenTelemetry tracing related config
	Telemetry struct {
		// Debug logs finished spans
		Debug bool

		Tracing struct {
			Enable bool

			// Sample sets how many requests to sample for tracing: Example: 0.6
			Sample string
		}
	}

	hostPort string
	vi       *viper.Viper
}

// ReadInConfig function reads in the config file for the environment specified in the GO_ENV
// environment variable. A missing config file is not an error, the defaults are used.
func ReadInConfig(configFile string) (*Config, error) {
	return readInConfig(configFile, nil)
}

// ReadInConfigFS is the same as ReadInConfig but reads the config file from the
// provided filesystem.
func ReadInConfigFS(configFile string, fs afero.Fs) (*Config, error) {
	return readInConfig(configFile, fs)
}

func readInConfig(configFile string, fs afero.Fs) (*Config, error) {
	cpath := path.Dir(configFile)
	cfile := path.Base(configFile)
	vi := newViper(cpath, cfile, fs)

	if err := vi.ReadInConfig(); err != nil && !isNotFound(err) {
		return nil, err
	}

	inherits := vi.GetString("inherits")

	if inherits != "" {
		vi = newViper(cpath, inherits, fs)

		if err := vi.ReadInConfig(); err != nil {
			return nil, err
		}

		if vi.IsSet("inherits") {
			return nil, fmt.Errorf("inherited config (%s) cannot itself inherit (%s)",
				inherits,
				vi.GetString("inherits"))
		}

		vi.SetConfigName(cfile)

		if err := vi.MergeInConfig(); err != nil {
			return nil, err
		}
	}

	c := &Config{vi: vi}

	if err := c.decode(); err != nil {
		return nil, err
	}
	c.ConfigPath = cpath

	return c, nil
}

func (c *Config) decode() error {
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))

	if err := c.vi.Unmarshal(c, hook); err != nil {
		return fmt.Errorf("failed to decode config, %v", err)
	}
	return nil
}

// Set overrides config values with key=value pairs. Keys are config keys
// or their environment variable names.
func (c *Config) Set(pairs ...string) error {
	if len(pairs) == 0 {
		return nil
	}

	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok {
			return fmt.Errorf("invalid config override %q, expecting key=value", p)
		}
		if !util.SetKeyValue(c.vi, strings.TrimSpace(k), v) {
			return fmt.Errorf("unknown config key %q", k)
		}
	}
	return c.decode()
}

// NewDefaultConfig returns a config holding only the default values.
func NewDefaultConfig() *Config {
	c, err := readInConfig("/dev", afero.NewMemMapFs())
	if err != nil {
		panic(err)
	}
	return c
}

func isNotFound(err error) bool {
	var nf viper.ConfigFileNotFoundError
	return errors.As(err, &nf)
}

func newViper(configPath, configFile string, fs afero.Fs) *viper.Viper {
	vi := viper.New()

	if fs != nil {
		vi.SetFs(fs)
	}

	vi.SetEnvPrefix("MS")
	vi.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	vi.AutomaticEnv()

	vi.AddConfigPath(configPath)
	vi.SetConfigName(configFile)
	vi.AddConfigPath("./config")

	vi.SetDefault("app_name", "musicserv")
	vi.SetDefault("production", false)
	vi.SetDefault("log_level", "info")
	vi.SetDefault("log_format", "simple")

	vi.SetDefault("host_port", defaultHostPort)
	vi.SetDefault("host", "")
	vi.SetDefault("port", "")
	vi.SetDefault("route_prefix", defaultPrefix)
	vi.SetDefault("root_dir", defaultRootDir)

	vi.SetDefault("index", "index.html")
	vi.SetDefault("redirect", true)
	vi.SetDefault("dotfiles", "ignore")
	vi.SetDefault("etag", true)
	vi.SetDefault("cache_max_age", "0s")

	vi.SetDefault("http_compress", false)
	vi.SetDefault("cors_allowed_origins", []string{})
	vi.SetDefault("cors_allowed_headers", []string{})
	vi.SetDefault("cors_debug", false)
	vi.SetDefault("health_path", "")
	vi.SetDefault("shutdown_timeout", "10s")
	vi.SetDefault("reload_on_config_change", false)

	vi.SetDefault("rate_limiter.rate", 0)
	vi.SetDefault("rate_limiter.bucket", 0)
	vi.SetDefault("rate_limiter.ip_header", "")
	vi.SetDefault("rate_limiter.max_clients", 10000)

	vi.SetDefault("telemetry.debug", false)
	vi.SetDefault("telemetry.tracing.enable", false)
	vi.SetDefault("telemetry.tracing.sample", "0.5")

	vi.SetDefault("env", "development")

	vi.BindEnv("env", "GO_ENV") //nolint: errcheck
	vi.BindEnv("host", "HOST")  //nolint: errcheck
	vi.BindEnv("port", "PORT")  //nolint: errcheck

	return vi
}

// GetConfigName returns the config file name for the GO_ENV environment
func GetConfigName() string {
	if os.Getenv("GO_ENV") == "" {
		return "dev"
	}

	ge := strings.ToLower(os.Getenv("GO_ENV"))

	switch {
	case strings.HasPrefix(ge, "pro"):
		return "prod"

	case strings.HasPrefix(ge, "sta"):
		return "stage"

	case strings.HasPrefix(ge, "tes"):
		return "test"

	case strings.HasPrefix(ge, "dev"):
		return "dev"
	}

	return ge
}

// Viper returns the viper instance backing this config
func (c *Config) Viper() *viper.Viper {
	return c.vi
}

// RelPath returns p relative to the config directory
func (c *Config) RelPath(p string) string {
	if filepath.IsAbs(p) {
		return p
	}

	return path.Join(c.ConfigPath, p)
}

// RootPath returns the absolute path of the served directory
func (c *Config) RootPath() (string, error) {
	if filepath.IsAbs(c.RootDir) {
		return filepath.Clean(c.RootDir), nil
	}

	dir, err := osext.ExecutableFolder()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, c.RootDir), nil
}

func (c *Config) rateLimiterEnable() bool {
	return c.RateLimiter.Rate > 0 && c.RateLimiter.Bucket > 0
}

func (c *Config) telemetryEnabled() bool {
	return c.Telemetry.Tracing.Enable
}

func (c *Config) validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("%w: invalid config: %s", ErrStartup, err)
	}

	host, port, err := net.SplitHostPort(c.HostPort)
	if err != nil {
		return fmt.Errorf("%w: invalid host_port: %s", ErrStartup, err)
	}

	if c.Host != "" {
		host = c.Host
	}

	if c.Port != "" {
		port = c.Port
	}

	c.hostPort = net.JoinHostPort(host, port)
	c.RoutePrefix = cleanPrefix(c.RoutePrefix)

	return nil
}

// cleanPrefix returns the prefix without a trailing slash, "/" for the site root
func cleanPrefix(p string) string {
	p = path.Clean("/" + p)
	if p == "." {
		return "/"
	}
	return p
}
