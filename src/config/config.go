package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	APIBaseURL     string
	RPCURL         string
	RequestTimeout time.Duration
	SessionDir     string
	KeypairPath    string
	ProverPath     string
	Debug          bool
}

// Load reads configuration from the environment, with a .env file as an
// optional source. Every knob has a default so a bare environment still
// yields a working client against the public endpoints.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		APIBaseURL:     getEnv("LOOPY_API_URL", "https://api.loopy.cash/api"),
		RPCURL:         getEnv("LOOPY_RPC_URL", "https://api.mainnet-beta.solana.com"),
		RequestTimeout: 30 * time.Second,
		ProverPath:     os.Getenv("LOOPY_PROVER_PATH"),
		Debug:          os.Getenv("LOOPY_DEBUG") == "1",
	}

	if raw := os.Getenv("LOOPY_REQUEST_TIMEOUT"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid LOOPY_REQUEST_TIMEOUT %q: %w", raw, err)
		}
		cfg.RequestTimeout = d
	}

	cfg.SessionDir = os.Getenv("LOOPY_SESSION_DIR")
	if cfg.SessionDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolving home directory: %w", err)
		}
		cfg.SessionDir = filepath.Join(homeDir, ".loopy")
	}

	cfg.KeypairPath = os.Getenv("LOOPY_KEYPAIR_PATH")
	if cfg.KeypairPath == "" {
		homeDir, _ := os.UserHomeDir()
		cfg.KeypairPath = filepath.Join(homeDir, ".config", "solana", "id.json")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
