// Package config loads the application configuration from the
// environment, with an optional .env file.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application configuration.
type Config struct {
	GeminiAPIKey string
	TextModel    string
	ImageModel   string
	LogLevel     string
	LogFile      string
	ScenarioFile string
}

// Load reads the configuration. GEMINI_API_KEY is required; everything
// else has a default. MAGYARKALAND_* variables override the defaults.
func Load() (*Config, error) {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("MAGYARKALAND")
	v.AutomaticEnv()
	if err := v.BindEnv("gemini_api_key", "GEMINI_API_KEY"); err != nil {
		return nil, err
	}

	configDir := defaultConfigDir()
	v.SetDefault("text_model", "gemini-2.5-flash")
	v.SetDefault("image_model", "imagen-3.0-generate-002")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_file", filepath.Join(configDir, "session.log"))
	v.SetDefault("scenario_file", filepath.Join(configDir, "scenarios.yaml"))

	apiKey := v.GetString("gemini_api_key")
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable is not set")
	}

	return &Config{
		GeminiAPIKey: apiKey,
		TextModel:    v.GetString("text_model"),
		ImageModel:   v.GetString("image_model"),
		LogLevel:     v.GetString("log_level"),
		LogFile:      v.GetString("log_file"),
		ScenarioFile: v.GetString("scenario_file"),
	}, nil
}

func defaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "magyarkaland")
}
