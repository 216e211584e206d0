package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

const defaultAPIBaseURL = "http://localhost:8080"

type Config struct {
	// APIBaseURL is the election backend base URL, the only external
	// dependency the client has.
	APIBaseURL string
	// StateDir holds the durable client state file.
	StateDir string
}

// Load reads configuration from a .env file (if present) and the
// environment. Flags layered on top by the CLI win over both.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Config{
		APIBaseURL: os.Getenv("ELECTION_API_URL"),
		StateDir:   os.Getenv("VOTER_STATE_DIR"),
	}
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = defaultAPIBaseURL
	}
	if cfg.StateDir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return Config{}, fmt.Errorf("resolve state dir: %w", err)
		}
		cfg.StateDir = filepath.Join(base, "voter")
	}
	return cfg, nil
}

// StatePath is the location of the client state database.
func (c Config) StatePath() string {
	return filepath.Join(c.StateDir, "state.db")
}
