package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix namespaces environment variables, e.g. CHATBOOK_HTTP_ADDR.
// Unprefixed names (SECRET_KEY, DATABASE_DSN, ...) are accepted as a fallback.
const EnvPrefix = "chatbook"

// parseEnv loads dotenvPath into the process environment when the file exists
// (already-set variables win), then overlays every variable that is present
// onto config. Unset variables leave the current value untouched.
func parseEnv(config *Config, dotenvPath string) error {
	if dotenvPath != "" {
		if err := godotenv.Load(dotenvPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", dotenvPath, err)
		}
	}

	if err := envconfig.Process(EnvPrefix, config); err != nil {
		return fmt.Errorf("environment: %w", err)
	}
	return nil
}
