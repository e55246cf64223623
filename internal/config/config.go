package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const envPrefix = "PROTOCLIENT"

type Config struct {
	HTTP    HTTPConfig    `mapstructure:"http" yaml:"http"`
	POP3    POP3Config    `mapstructure:"pop3" yaml:"pop3"`
	Auth    AuthConfig    `mapstructure:"auth" yaml:"auth"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

type HTTPConfig struct {
	ConnectTimeout time.Duration `mapstructure:"connect_timeout" yaml:"connect_timeout"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
}

type POP3Config struct {
	Host           string        `mapstructure:"host" yaml:"host"`
	Port           int           `mapstructure:"port" yaml:"port"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout" yaml:"connect_timeout"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
}

type AuthConfig struct {
	Username       string `mapstructure:"username" yaml:"username"`
	Password       string `mapstructure:"password" yaml:"password,omitempty"`
	KeyringBackend string `mapstructure:"keyring_backend" yaml:"keyring_backend,omitempty"`

	// PasswordSource records where Password came from: env, config or keyring.
	PasswordSource string `mapstructure:"-" yaml:"-"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	Output string `mapstructure:"output" yaml:"output"`
}

func DefaultConfig() Config {
	return Config{
		POP3: POP3Config{
			Port: 110,
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "console",
			Output: "stderr",
		},
	}
}

func ConfigPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

func Load() (Config, error) {
	cfg := DefaultConfig()

	path, err := ConfigPath()
	if err != nil {
		return cfg, err
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v, cfg)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	return cfg, nil
}

func Save(cfg Config) (string, error) {
	path, err := ConfigPath()
	if err != nil {
		return "", err
	}

	if _, err := EnsureDir(); err != nil {
		return "", err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", err
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", err
	}

	return path, nil
}

func Redact(cfg Config) Config {
	masked := cfg
	if masked.Auth.Password != "" {
		masked.Auth.Password = "****"
	}
	return masked
}

// setDefaults registers every key so AutomaticEnv can override keys that are
// absent from the file.
func setDefaults(v *viper.Viper, cfg Config) {
	v.SetDefault("http.connect_timeout", cfg.HTTP.ConnectTimeout)
	v.SetDefault("http.read_timeout", cfg.HTTP.ReadTimeout)
	v.SetDefault("http.write_timeout", cfg.HTTP.WriteTimeout)

	v.SetDefault("pop3.host", cfg.POP3.Host)
	v.SetDefault("pop3.port", cfg.POP3.Port)
	v.SetDefault("pop3.connect_timeout", cfg.POP3.ConnectTimeout)
	v.SetDefault("pop3.read_timeout", cfg.POP3.ReadTimeout)
	v.SetDefault("pop3.write_timeout", cfg.POP3.WriteTimeout)

	v.SetDefault("auth.username", cfg.Auth.Username)
	v.SetDefault("auth.password", cfg.Auth.Password)
	v.SetDefault("auth.keyring_backend", cfg.Auth.KeyringBackend)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
	v.SetDefault("logging.output", cfg.Logging.Output)
}

func ValidatePOP3(cfg Config) error {
	if cfg.POP3.Host == "" {
		return fmt.Errorf("pop3.host is required")
	}
	if cfg.POP3.Port <= 0 || cfg.POP3.Port > 65535 {
		return fmt.Errorf("pop3.port must be between 1 and 65535, got %d", cfg.POP3.Port)
	}
	if cfg.Auth.Username == "" {
		return fmt.Errorf("auth.username is required")
	}
	if cfg.Auth.Password == "" {
		return fmt.Errorf("auth.password is required")
	}
	return nil
}

func ValidateHTTP(cfg Config) error {
	if cfg.HTTP.ConnectTimeout < 0 {
		return fmt.Errorf("http.connect_timeout must not be negative")
	}
	if cfg.HTTP.ReadTimeout < 0 {
		return fmt.Errorf("http.read_timeout must not be negative")
	}
	if cfg.HTTP.WriteTimeout < 0 {
		return fmt.Errorf("http.write_timeout must not be negative")
	}
	return nil
}
