package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Log        LogConfig        `mapstructure:"log"`
	Scenario   ScenarioConfig   `mapstructure:"scenario"`
	SessionLog SessionLogConfig `mapstructure:"sessionlog"`
	MQTT       MQTTConfig       `mapstructure:"mqtt"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // text or json
}

type ScenarioConfig struct {
	File        string `mapstructure:"file"`         // YAML scenario; built-in default when empty
	ProfilesCSV string `mapstructure:"profiles_csv"` // hourly weather samples overriding the profiles
}

type SessionLogConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Dir     string `mapstructure:"dir"`
}

type MQTTConfig struct {
	Broker   string `mapstructure:"broker"` // publishing disabled when empty
	Topic    string `mapstructure:"topic"`
	ClientID string `mapstructure:"client_id"`
}

// EnvPrefix prefixes every environment override, e.g. GRIDSIM_SERVER_ADDR.
const EnvPrefix = "GRIDSIM"

// Load reads config.yaml from . or ./config, or the given file when path is
// set. A missing default file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("scenario.file", "")
	v.SetDefault("scenario.profiles_csv", "")
	v.SetDefault("sessionlog.enabled", false)
	v.SetDefault("sessionlog.dir", "logs")
	v.SetDefault("mqtt.broker", "")
	v.SetDefault("mqtt.topic", "gridsim")
	v.SetDefault("mqtt.client_id", "grid-simulator")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &cfg, nil
}

// NewLogger builds the process logger.
func NewLogger(cfg LogConfig) (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	logger := logrus.New()
	logger.SetLevel(level)
	switch cfg.Format {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	case "", "text":
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}
	return logger, nil
}
