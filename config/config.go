// Package config reads service and uploader configuration from the
// environment, with a .env file honored when present.
package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	Port string

	// Persisted artifact locations.
	ModelPath         string
	FeatureScalerPath string
	TargetScalerPath  string

	// Window is the history length the model was trained with.
	Window int

	// Bulk uploader settings.
	ProjectID       string
	CredentialsFile string
	Collection      string
	BatchSize       int
	StartRow        int
	BatchPause      time.Duration
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	cfg := &AppConfig{
		Port:              getenvDefault("PORT", "8080"),
		ModelPath:         getenvDefault("MODEL_PATH", "model.weights.json"),
		FeatureScalerPath: getenvDefault("FEATURE_SCALER_PATH", "feature_scaler.json"),
		TargetScalerPath:  getenvDefault("TARGET_SCALER_PATH", "target_scaler.json"),
		Window:            getenvInt("WINDOW", 144),

		ProjectID:       os.Getenv("FIRESTORE_PROJECT_ID"),
		CredentialsFile: os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),
		Collection:      getenvDefault("FIRESTORE_COLLECTION", "weather_data"),
		BatchSize:       getenvInt("UPLOAD_BATCH_SIZE", 500),
		StartRow:        getenvInt("UPLOAD_START_ROW", 0),
		BatchPause:      getenvDuration("UPLOAD_BATCH_PAUSE", time.Second),
	}

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err == nil {
			return d
		}
	}
	return def
}
