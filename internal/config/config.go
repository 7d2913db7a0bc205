// Package config loads the project's driver/config.json through viper.
//
// Every key can be overridden from the environment with the DEVUP_ prefix,
// dots replaced by underscores (DEVUP_INGRESS_LOCAL_PORT, DEVUP_LOG_LEVEL).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/viper"

	"github.com/giantswarm/devup/internal/logutil"
	"github.com/giantswarm/devup/internal/sentinel"
)

const (
	// ErrConfigNotFound is returned when the configuration file does not exist.
	ErrConfigNotFound = sentinel.Error("configuration file not found")
	// ErrInvalidConfig is returned when the file cannot be parsed, a required
	// key is missing, or a value is out of range.
	ErrInvalidConfig = sentinel.Error("invalid configuration")
)

const (
	// DefaultFile is the configuration path relative to the project root.
	DefaultFile = "driver/config.json"
	// EnvPrefix prefixes every environment override.
	EnvPrefix = "DEVUP"
)

const (
	keyNamespace     = "ingress.namespace"
	keyLocalPort     = "ingress.local_port"
	keyContainerPort = "ingress.container_port"
	keyServiceName   = "ingress.service_name"
	keyLogLevel      = "log.level"
	keyLogFormat     = "log.format"
)

var requiredKeys = []string{keyNamespace, keyLocalPort, keyContainerPort, keyServiceName}

// Ingress describes the service the access tunnel forwards to.
type Ingress struct {
	Namespace     string `mapstructure:"namespace"`
	LocalPort     int    `mapstructure:"local_port"`
	ContainerPort int    `mapstructure:"container_port"`
	ServiceName   string `mapstructure:"service_name"`
}

// Log holds the diagnostic logging settings.
type Log struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Config is the loaded project configuration. It is immutable once Load
// returns.
type Config struct {
	Ingress Ingress `mapstructure:"ingress"`
	Log     Log     `mapstructure:"log"`
}

// Load reads <root>/driver/config.json, applies environment overrides and
// validates the result.
func Load(root string) (Config, error) {
	return LoadFile(filepath.Join(root, DefaultFile))
}

// LoadFile reads the configuration at path. The file must be JSON regardless
// of its extension.
func LoadFile(path string) (Config, error) {
	v := newViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return Config{}, fmt.Errorf("%w: read %s: %w", ErrInvalidConfig, path, err)
	}

	var missing []string
	for _, key := range requiredKeys {
		if !v.IsSet(key) {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("%w: %s: missing required keys: %s",
			ErrInvalidConfig, path, strings.Join(missing, ", "))
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("%w: decode %s: %w", ErrInvalidConfig, path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, path, err)
	}
	return cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("json")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault(keyLogLevel, "info")
	v.SetDefault(keyLogFormat, string(logutil.FormatText))

	// Unmarshal only sees keys viper knows about; binding makes env-only
	// values visible to it.
	for _, key := range slices.Concat(requiredKeys, []string{keyLogLevel, keyLogFormat}) {
		_ = v.BindEnv(key)
	}
	return v
}

// Validate reports every invalid field at once.
func (c Config) Validate() error {
	var errs []error

	if err := c.Ingress.Validate(); err != nil {
		errs = append(errs, err)
	}
	if _, err := logutil.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if _, err := logutil.ParseFormat(c.Log.Format); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// Validate reports every invalid ingress field at once.
func (i Ingress) Validate() error {
	var errs []error

	if strings.TrimSpace(i.Namespace) == "" {
		errs = append(errs, errors.New("ingress namespace must not be empty"))
	}
	if strings.TrimSpace(i.ServiceName) == "" {
		errs = append(errs, errors.New("ingress service name must not be empty"))
	}
	if !validPort(i.LocalPort) {
		errs = append(errs, fmt.Errorf("ingress local port must be in 1..65535, got %d", i.LocalPort))
	}
	if !validPort(i.ContainerPort) {
		errs = append(errs, fmt.Errorf("ingress container port must be in 1..65535, got %d", i.ContainerPort))
	}

	return errors.Join(errs...)
}

func validPort(p int) bool {
	return p > 0 && p <= 65535
}
