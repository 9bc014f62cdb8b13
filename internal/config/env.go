package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Environment variables that override the config file.
const (
	EnvDifficulty = "KEYMASTER_DIFFICULTY"
	EnvMode       = "KEYMASTER_MODE"
	EnvTimeLimit  = "KEYMASTER_TIME"
	EnvLogLevel   = "KEYMASTER_LOG_LEVEL"
	EnvDB         = "KEYMASTER_DB"
)

// LoadDotEnv loads variables from the given .env files into the process environment.
// Variables already set are left alone and missing files are ignored.
func LoadDotEnv(paths ...string) error {
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
	}
	return nil
}

// ApplyEnv overlays KEYMASTER_* variables on cfg.
func ApplyEnv(cfg FileConfig) (FileConfig, error) {
	if v, ok := os.LookupEnv(EnvDifficulty); ok {
		cfg.Practice.Difficulty = &v
	}
	if v, ok := os.LookupEnv(EnvMode); ok {
		cfg.Practice.Mode = &v
	}
	if v, ok := os.LookupEnv(EnvTimeLimit); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid %s value %q: %w", EnvTimeLimit, v, err)
		}
		cfg.Practice.TimeLimit = &n
	}
	if v, ok := os.LookupEnv(EnvLogLevel); ok {
		cfg.Log.Level = &v
	}
	return cfg, nil
}
