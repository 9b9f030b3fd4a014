// Package config loads tibisync settings from a config file, environment
// variables and built-in defaults, in that order of increasing precedence
// for the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds every knob the daemon and CLI read.
type Config struct {
	// RemoteURL is the websocket endpoint of the remote document store.
	RemoteURL string `mapstructure:"remote_url"`

	// DBPath is the local cache database file.
	DBPath string `mapstructure:"db_path"`

	// SessionFile holds the signed-in user's session.
	SessionFile string `mapstructure:"session_file"`

	// SpoolDir is where bridge processes drop daily-metrics files.
	SpoolDir string `mapstructure:"spool_dir"`

	// ListenAddr is the companion websocket listener address.
	ListenAddr string `mapstructure:"listen_addr"`

	// LogFile receives daemon logs; empty means stderr.
	LogFile string `mapstructure:"log_file"`

	// DebounceInterval for the spool watcher.
	DebounceInterval time.Duration `mapstructure:"debounce_interval"`
}

// Dir returns the tibisync state directory, creating nothing.
func Dir() string {
	if dir := os.Getenv("TIBISYNC_HOME"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".tibisync"
	}
	return filepath.Join(home, ".tibisync")
}

// Load reads configuration from path (optional; empty means
// $TIBISYNC_HOME/config.yaml if present) plus TIBISYNC_* environment
// variables, falling back to defaults.
//
// Example:
//
//	cfg, err := config.Load("")
//	if err != nil {
//	    return err
//	}
//	store, err := cache.Open(cfg.DBPath)
func Load(path string) (*Config, error) {
	v := viper.New()

	dir := Dir()
	v.SetDefault("remote_url", "wss://sync.tibibalance.app/v1")
	v.SetDefault("db_path", filepath.Join(dir, "cache.db"))
	v.SetDefault("session_file", filepath.Join(dir, "session.json"))
	v.SetDefault("spool_dir", filepath.Join(dir, "spool"))
	v.SetDefault("listen_addr", "127.0.0.1:7430")
	v.SetDefault("log_file", "")
	v.SetDefault("debounce_interval", 250*time.Millisecond)

	v.SetEnvPrefix("TIBISYNC")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(dir)
		if err := v.ReadInConfig(); err != nil {
			// Missing config file is fine; env and defaults apply.
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				if !os.IsNotExist(err) {
					return nil, fmt.Errorf("failed to read config: %w", err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
