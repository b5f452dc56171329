// Package config loads toolkit settings from defaults, an optional YAML
// file, SPUTIL_* environment variables and command line flags, in
// increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/novbytes/sputil/timeutil"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "SPUTIL"

// authSecretEnv may also be supplied as a _FILE or /run/secrets entry.
const authSecretEnv = EnvPrefix + "_ADMIN_AUTH_SECRET"

// ErrInvalidConfig wraps every validation failure returned by Load.
var ErrInvalidConfig = errors.New("invalid config")

// Config is the process-level configuration of a toolkit user.
type Config struct {
	Pool    PoolConfig    `mapstructure:"pool"`
	Pacer   PacerConfig   `mapstructure:"pacer"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Admin   AdminConfig   `mapstructure:"admin"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Log     LogConfig     `mapstructure:"log"`
}

type PoolConfig struct {
	// Workers is the fixed worker count. Zero means GOMAXPROCS.
	Workers       int `mapstructure:"workers"`
	QueueCapacity int `mapstructure:"queue_capacity"`
}

type PacerConfig struct {
	CallsPerSecond int `mapstructure:"calls_per_second"`
}

type CacheConfig struct {
	Capacity int `mapstructure:"capacity"`
}

type AdminConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Address         string        `mapstructure:"address"`
	AuthSecret      string        `mapstructure:"auth_secret"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type MetricsConfig struct {
	Namespace string `mapstructure:"namespace"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

var defaults = map[string]any{
	"pool.workers":           0,
	"pool.queue_capacity":    0,
	"pacer.calls_per_second": 5,
	"cache.capacity":         128,
	"admin.enabled":          true,
	"admin.address":          "127.0.0.1:8090",
	"admin.auth_secret":      "",
	"admin.allowed_origins":  []string{},
	"admin.read_timeout":     "10s",
	"admin.write_timeout":    "30s",
	"admin.shutdown_timeout": "15s",
	"metrics.namespace":      "sputil",
	"log.level":              "info",
	"log.format":             "text",
}

// LoadOption configures Load.
type LoadOption func(*loadOptions)

type loadOptions struct {
	file   string
	reader io.Reader
	flags  *pflag.FlagSet
	logger *slog.Logger
}

// WithFile reads a YAML config file. A missing path is an error.
func WithFile(path string) LoadOption {
	return func(o *loadOptions) {
		o.file = path
	}
}

// WithReader reads YAML config from r.
func WithReader(r io.Reader) LoadOption {
	return func(o *loadOptions) {
		o.reader = r
	}
}

// WithFlags binds command line flags named after config keys, e.g.
// --pool.workers. Flags that were set on the command line win over
// everything else.
func WithFlags(fs *pflag.FlagSet) LoadOption {
	return func(o *loadOptions) {
		o.flags = fs
	}
}

// WithLogger sets the logger used for secret lookup problems.
func WithLogger(logger *slog.Logger) LoadOption {
	return func(o *loadOptions) {
		o.logger = logger
	}
}

// Load builds a Config. Flags win over environment variables, which win
// over the file, which wins over the defaults. Keys map to variables by
// upper-casing and replacing dots, e.g. pool.workers is SPUTIL_POOL_WORKERS.
func Load(opts ...LoadOption) (*Config, error) {
	o := loadOptions{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(&o)
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	switch {
	case o.file != "":
		v.SetConfigFile(o.file)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", o.file, err)
		}
	case o.reader != nil:
		v.SetConfigType("yaml")
		if err := v.ReadConfig(o.reader); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if o.flags != nil {
		if err := v.BindPFlags(o.flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	var cfg Config
	err := v.Unmarshal(&cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		durationHook(),
		mapstructure.StringToSliceHookFunc(","),
	)))
	if err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if secret, ok := lookupSecret(o.logger, authSecretEnv); ok {
		cfg.Admin.AuthSecret = secret
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Pool.Workers < 0 {
		errs = append(errs, fmt.Errorf("%w: pool.workers must not be negative", ErrInvalidConfig))
	}
	if c.Pool.QueueCapacity < 0 {
		errs = append(errs, fmt.Errorf("%w: pool.queue_capacity must not be negative", ErrInvalidConfig))
	}
	if c.Pacer.CallsPerSecond <= 0 {
		errs = append(errs, fmt.Errorf("%w: pacer.calls_per_second must be positive", ErrInvalidConfig))
	}
	if c.Cache.Capacity < 1 {
		errs = append(errs, fmt.Errorf("%w: cache.capacity must be at least 1", ErrInvalidConfig))
	}
	if c.Admin.Enabled && c.Admin.Address == "" {
		errs = append(errs, fmt.Errorf("%w: admin.address is required", ErrInvalidConfig))
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("%w: %w", ErrInvalidConfig, err))
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("%w: log.format must be text or json", ErrInvalidConfig))
	}

	return errors.Join(errs...)
}

// durationHook decodes strings into time.Duration, accepting day units.
func durationHook() mapstructure.DecodeHookFuncType {
	return func(from reflect.Type, to reflect.Type, data any) (any, error) {
		if from.Kind() != reflect.String || to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}

		return timeutil.ParseDuration(data.(string))
	}
}
