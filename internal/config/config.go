// Package config loads calpane's runtime configuration from the environment
// (optionally seeded from a .env file) with sane defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// Config holds everything the composition root needs to wire the app.
type Config struct {
	GoogleClientID     string `mapstructure:"google_client_id"`
	GoogleClientSecret string `mapstructure:"google_client_secret"`
	RedirectURL        string `mapstructure:"redirect_url"`
	ListenAddr         string `mapstructure:"listen_addr"`
	FrontendURL        string `mapstructure:"frontend_url"`
	JWTSecret          string `mapstructure:"jwt_secret"`
	StateDir           string `mapstructure:"state_dir"`
	LogLevel           string `mapstructure:"log_level"`
	LogFormat          string `mapstructure:"log_format"`
	PersistSession     bool   `mapstructure:"persist_session"`
}

// Load reads configuration from CALPANE_* environment variables. A .env file
// in the working directory or the user config dir is loaded first if present,
// so local overrides work without exporting anything.
func Load() (*Config, error) {
	loadDotEnv()

	v := viper.New()
	v.SetEnvPrefix("CALPANE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// AutomaticEnv alone does not populate Unmarshal, so bind each key.
	for _, key := range []string{
		"google_client_id", "google_client_secret", "redirect_url",
		"listen_addr", "frontend_url", "jwt_secret", "state_dir",
		"log_level", "log_format", "persist_session",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.StateDir == "" {
		dir, err := defaultStateDir()
		if err != nil {
			return nil, err
		}
		cfg.StateDir = dir
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("listen_addr", ":8793")
	v.SetDefault("frontend_url", "http://localhost:3000")
	v.SetDefault("redirect_url", "http://localhost:8793/auth/callback")
	v.SetDefault("jwt_secret", "default-dev-secret")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
	v.SetDefault("persist_session", false)
}

func defaultStateDir() (string, error) {
	cfgHome, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve user config dir: %w", err)
	}
	return filepath.Join(cfgHome, "calpane"), nil
}

// loadDotEnv loads the first .env found: working directory, then the user
// config dir. Missing files are not an error.
func loadDotEnv() {
	tryPaths := []string{".env"}
	if cfgHome, err := os.UserConfigDir(); err == nil {
		tryPaths = append(tryPaths, filepath.Join(cfgHome, "calpane", ".env"))
	}
	for _, p := range tryPaths {
		if _, err := os.Stat(p); err == nil {
			if loadErr := gotenv.Load(p); loadErr == nil {
				return
			}
		}
	}
}
