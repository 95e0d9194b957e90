package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "TILE2048_"

// LoadDotEnv loads variables from the given .env files (default ./.env) into
// the process environment. Missing files are not an error. Variables already
// set are not overwritten.
func LoadDotEnv(files ...string) (bool, error) {
	if err := godotenv.Load(files...); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("config: cannot load .env: %w", err)
	}
	return true, nil
}

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// ApplyEnv overrides cfg with TILE2048_* variables.
func ApplyEnv(cfg *Config, lookup LookupFunc) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok && v != "" {
			*dst = v
		}
	}
	num := func(name string, dst *int) error {
		v, ok := lookup(EnvPrefix + name)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: %s%s: %w", EnvPrefix, name, err)
		}
		*dst = n
		return nil
	}

	if err := num("ROWS", &cfg.Board.Rows); err != nil {
		return err
	}
	if err := num("COLS", &cfg.Board.Cols); err != nil {
		return err
	}
	if v, ok := lookup(EnvPrefix + "SPAWN_FOUR_PROBABILITY"); ok && v != "" {
		p, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("config: %sSPAWN_FOUR_PROBABILITY: %w", EnvPrefix, err)
		}
		cfg.Board.SpawnFourProbability = p
	}

	str("STORAGE_DRIVER", &cfg.Storage.Driver)
	str("DB", &cfg.Storage.DBPath)
	str("STORAGE_DIR", &cfg.Storage.Dir)

	str("SSH_ADDR", &cfg.SSH.Address)
	str("SSH_HOST_KEY", &cfg.SSH.HostKeyPath)
	if v, ok := lookup(EnvPrefix + "SSH_IDLE_TIMEOUT"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: %sSSH_IDLE_TIMEOUT: %w", EnvPrefix, err)
		}
		cfg.SSH.IdleTimeout = d
	}

	str("WEB_ADDR", &cfg.Web.Address)

	str("LOG_LEVEL", &cfg.Log.Level)
	str("LOG_FILE", &cfg.Log.File)
	return nil
}
