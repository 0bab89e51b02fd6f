package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config holds all runtime configuration for the engine.
type Config struct {
	AppPort     string `mapstructure:"APP_PORT"`
	Env         string `mapstructure:"ENV"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	LogLevel    string `mapstructure:"LOG_LEVEL"`

	// SweepInterval is how often the expiry sweeper scans for expired holds.
	SweepInterval time.Duration `mapstructure:"SWEEP_INTERVAL"`
	// HoldTTL is the default lifetime of a soft hold created without an
	// explicit expires_at.
	HoldTTL time.Duration `mapstructure:"HOLD_TTL"`

	CORSAllowedOrigins string `mapstructure:"CORS_ALLOWED_ORIGINS"`
}

// Load reads configuration from config.yaml (if present) and the environment.
func Load() Config {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AutomaticEnv()

	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("DATABASE_URL", "rentory.db")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("SWEEP_INTERVAL", time.Minute)
	viper.SetDefault("HOLD_TTL", 15*time.Minute)
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "")

	if err := viper.ReadInConfig(); err != nil {
		log.Println("no config file found, using environment variables only")
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}
