package config

import (
	"log"

	"github.com/spf13/viper"
)

// Config holds the application configuration.
type Config struct {
	DatabaseURL        string `mapstructure:"DATABASE_URL"`
	Port               string `mapstructure:"PORT"`
	ServiceTokenSecret string `mapstructure:"SERVICE_TOKEN_SECRET"`

	// Group session tunables.
	SessionTTLMinutes      int `mapstructure:"SESSION_TTL_MINUTES"`
	DefaultMaxParticipants int `mapstructure:"DEFAULT_MAX_PARTICIPANTS"`

	// Join rate limiting: a device that fails JoinRateMaxFailures joins
	// within JoinRateWindowSeconds is rejected until the window slides.
	JoinRateWindowSeconds int `mapstructure:"JOIN_RATE_WINDOW_SECONDS"`
	JoinRateMaxFailures   int `mapstructure:"JOIN_RATE_MAX_FAILURES"`
}

var AppConfig *Config

// LoadConfig loads the configuration from a .env file and environment variables.
func LoadConfig() {
	viper.AddConfigPath(".")
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	viper.AutomaticEnv()

	viper.SetDefault("PORT", "8080")
	viper.SetDefault("SESSION_TTL_MINUTES", 120)
	viper.SetDefault("DEFAULT_MAX_PARTICIPANTS", 8)
	viper.SetDefault("JOIN_RATE_WINDOW_SECONDS", 60)
	viper.SetDefault("JOIN_RATE_MAX_FAILURES", 3)

	if err := viper.ReadInConfig(); err != nil {
		log.Println("Warning: .env file not found, loading from environment variables")
	}

	err := viper.Unmarshal(&AppConfig)
	if err != nil {
		log.Fatalf("Unable to decode into struct, %v", err)
	}
}
