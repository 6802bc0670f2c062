// Package config loads service configuration with the precedence
// flag > environment > config file > default. A .env file in the working
// directory is loaded into the environment first.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application configuration.
type Config struct {
	Driver      string        `mapstructure:"driver"`       // "sqlite" or "postgres"
	DatabaseURL string        `mapstructure:"database_url"` // postgres only
	SQLitePath  string        `mapstructure:"sqlite_path"`

	Port            string        `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	QueryTimeout    time.Duration `mapstructure:"query_timeout"`

	RateLimit int    `mapstructure:"rate_limit"` // requests per minute per IP
	SweepSpec string `mapstructure:"sweep_spec"` // cron spec for the orphan-cell sweep
}

func setDefaults() {
	viper.SetDefault("driver", "sqlite")
	viper.SetDefault("sqlite_path", "data/studytables.db")
	viper.SetDefault("port", "8080")
	viper.SetDefault("read_timeout", 15*time.Second)
	viper.SetDefault("write_timeout", 15*time.Second)
	viper.SetDefault("shutdown_timeout", 10*time.Second)
	viper.SetDefault("query_timeout", 30*time.Second)
	viper.SetDefault("rate_limit", 100)
	viper.SetDefault("sweep_spec", "@hourly")
}

// Init wires viper to the environment and the optional config file. Called
// once from the CLI before any command runs. A missing default config file
// is fine; a file requested explicitly must be readable.
func Init(cfgFile string) error {
	// Load .env if present (silently ignore if missing).
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName("studytables")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if cfgFile != "" {
			return fmt.Errorf("read config file %s: %w", cfgFile, err)
		}
		return nil
	}
	fmt.Println("Using config file:", viper.ConfigFileUsed())
	return nil
}

// Load materializes the configuration and validates the store settings.
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	switch cfg.Driver {
	case "sqlite":
		if cfg.SQLitePath == "" {
			return nil, fmt.Errorf("sqlite_path is required for the sqlite driver")
		}
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("database_url is required for the postgres driver")
		}
	default:
		return nil, fmt.Errorf("unknown driver %q (expected sqlite or postgres)", cfg.Driver)
	}
	if cfg.RateLimit <= 0 {
		return nil, fmt.Errorf("rate_limit must be positive")
	}
	return &cfg, nil
}
