// Package config loads application settings from the environment, with
// an optional .env file for local development.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"cohortsynth/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Generation GenerationConfig
	Paths      PathConfig
}

// GenerationConfig holds cohort generation defaults; CLI flags override
// these per invocation.
type GenerationConfig struct {
	Seed                   int64
	NumPatients            int
	ObservationsPerPatient int
	InterventionPatients   int
}

// PathConfig holds file system paths
type PathConfig struct {
	OutputDir string
}

// Load reads configuration from the environment. A .env file is loaded
// when present but is never required.
func Load() (*Config, error) {
	_ = godotenv.Load()

	config := &Config{
		Generation: GenerationConfig{
			Seed:                   getEnvInt64OrDefault("COHORT_SEED", 42),
			NumPatients:            getEnvIntOrDefault("COHORT_PATIENTS", 20),
			ObservationsPerPatient: getEnvIntOrDefault("COHORT_OBSERVATIONS_PER_PATIENT", 4),
			InterventionPatients:   getEnvIntOrDefault("COHORT_INTERVENTION_PATIENTS", 6),
		},
		Paths: PathConfig{
			OutputDir: getEnvOrDefault("COHORT_OUTPUT_DIR", "output"),
		},
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

func validateConfig(config *Config) error {
	if config.Paths.OutputDir == "" {
		return errors.ConfigInvalid("output directory is required")
	}
	if config.Generation.NumPatients <= 0 {
		return errors.ConfigInvalid("COHORT_PATIENTS must be positive")
	}
	if config.Generation.ObservationsPerPatient <= 0 {
		return errors.ConfigInvalid("COHORT_OBSERVATIONS_PER_PATIENT must be positive")
	}
	if config.Generation.InterventionPatients < 0 ||
		config.Generation.InterventionPatients > config.Generation.NumPatients {
		return errors.ConfigInvalid("COHORT_INTERVENTION_PATIENTS must be between 0 and COHORT_PATIENTS")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64OrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}
