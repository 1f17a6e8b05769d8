package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/bassista/dockdesk/internal/logger"
)

const (
	RuntimeModeCLI    = "cli"
	RuntimeModeMemory = "memory"
)

type Config struct {
	Server  ServerConfig
	Runtime RuntimeConfig
	Events  EventsConfig
	Misc    MiscConfig

	v *viper.Viper
}

type ServerConfig struct {
	Port               int
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration // 0 keeps SSE and log follow responses open
	IdleTimeout        time.Duration
	ShutDownTimeout    time.Duration
	RequestTimeout     time.Duration
	CORSAllowedOrigins string
}

type RuntimeConfig struct {
	Binary       string
	Mode         string
	MinVersion   string
	SyncInterval time.Duration // 0 disables the cache sync scheduler
}

type EventsConfig struct {
	BufferSize int
}

type MiscConfig struct {
	GinMode   string
	LogLevel  string
	LogFormat string
}

// LoadConfig reads .env, the optional config.yaml in confPath and DOCKDESK_* env vars.
// Env vars like DOCKDESK_RUNTIME_BINARY override runtime.binary.
func LoadConfig(confPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.WithComponent("config").Warnf("cannot load .env file: %v", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if confPath != "" {
		v.AddConfigPath(confPath)
	}
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	setDefaults(v)

	v.SetEnvPrefix("DOCKDESK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config file error: %w", err)
		}
		logger.WithComponent("config").Info("No config file found, using defaults and env vars")
	}

	cfg, err := fromViper(v)
	if err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8088)
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "0s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "5s")
	v.SetDefault("server.request_timeout", "30s")
	v.SetDefault("server.cors_allowed_origins", "*")

	v.SetDefault("runtime.binary", "docker")
	v.SetDefault("runtime.mode", RuntimeModeCLI)
	v.SetDefault("runtime.min_version", "")
	v.SetDefault("runtime.sync_interval", "0s")

	v.SetDefault("events.buffer_size", 256)

	v.SetDefault("misc.gin_mode", "release")
	v.SetDefault("misc.log_level", "info")
	v.SetDefault("misc.log_format", "text")
}

func fromViper(v *viper.Viper) (*Config, error) {
	port, err := getEnvOrViperPort(v, "PORT", "server.port")
	if err != nil {
		return nil, err
	}

	return &Config{
		Server: ServerConfig{
			Port:               port,
			ReadTimeout:        v.GetDuration("server.read_timeout"),
			WriteTimeout:       v.GetDuration("server.write_timeout"),
			IdleTimeout:        v.GetDuration("server.idle_timeout"),
			ShutDownTimeout:    v.GetDuration("server.shutdown_timeout"),
			RequestTimeout:     v.GetDuration("server.request_timeout"),
			CORSAllowedOrigins: v.GetString("server.cors_allowed_origins"),
		},
		Runtime: RuntimeConfig{
			Binary:       v.GetString("runtime.binary"),
			Mode:         strings.ToLower(v.GetString("runtime.mode")),
			MinVersion:   v.GetString("runtime.min_version"),
			SyncInterval: v.GetDuration("runtime.sync_interval"),
		},
		Events: EventsConfig{
			BufferSize: v.GetInt("events.buffer_size"),
		},
		Misc: MiscConfig{
			GinMode:   getEnvOrDefault("GIN_MODE", v.GetString("misc.gin_mode")),
			LogLevel:  v.GetString("misc.log_level"),
			LogFormat: v.GetString("misc.log_format"),
		},
		v: v,
	}, nil
}

// WatchLogLevel re-applies misc.log_level whenever the config file changes.
// It is a no-op when no config file was loaded.
func (c *Config) WatchLogLevel() {
	if c == nil || c.v == nil || c.v.ConfigFileUsed() == "" {
		return
	}
	c.v.OnConfigChange(func(e fsnotify.Event) {
		level := c.v.GetString("misc.log_level")
		if err := logger.Configure(level, ""); err != nil {
			logger.WithComponent("config").Warnf("config change %s ignored: %v", e.Name, err)
			return
		}
		logger.WithComponent("config").Infof("config file %s changed, log level now %s", e.Name, level)
	})
	c.v.WatchConfig()
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.ReadTimeout <= 0 {
		return errors.New("server read timeout must be positive")
	}
	if c.Server.WriteTimeout < 0 {
		return errors.New("server write timeout must not be negative")
	}
	if c.Server.IdleTimeout <= 0 {
		return errors.New("server idle timeout must be positive")
	}
	if c.Server.ShutDownTimeout <= 0 {
		return errors.New("server shutdown timeout must be positive")
	}
	if c.Server.RequestTimeout <= 0 {
		return errors.New("server request timeout must be positive")
	}
	if strings.TrimSpace(c.Runtime.Binary) == "" {
		return errors.New("runtime binary is required")
	}
	switch c.Runtime.Mode {
	case RuntimeModeCLI, RuntimeModeMemory:
	default:
		return fmt.Errorf("unknown runtime mode: %s (supported: %s, %s)", c.Runtime.Mode, RuntimeModeCLI, RuntimeModeMemory)
	}
	if c.Runtime.SyncInterval < 0 {
		return errors.New("runtime sync interval must not be negative")
	}
	if c.Events.BufferSize <= 0 {
		return errors.New("events buffer size must be positive")
	}
	switch strings.ToLower(c.Misc.LogFormat) {
	case "", "text", "json":
	default:
		return fmt.Errorf("unknown log format: %s", c.Misc.LogFormat)
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvOrViperPort(v *viper.Viper, envKey, viperKey string) (int, error) {
	if value := os.Getenv(envKey); value != "" {
		port, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("invalid %s value %q: %w", envKey, value, err)
		}
		return port, nil
	}
	return v.GetInt(viperKey), nil
}
