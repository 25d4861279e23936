package cli

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds optional user settings loaded from the config file.
// All fields have working zero values; the file is entirely optional.
type Config struct {
	// CacheDir overrides the XDG cache directory.
	CacheDir string `toml:"cache_dir"`

	// RedisURL switches the serve command's cache to Redis.
	RedisURL string `toml:"redis_url"`

	// MongoURI enables persistent document summaries in the serve command.
	MongoURI string `toml:"mongo_uri"`

	// ListenAddr is the serve command's bind address.
	ListenAddr string `toml:"listen_addr"`

	// Format is the default output format for inspect and resolve.
	Format string `toml:"format"`
}

// configPath returns the config file location using XDG standard
// (~/.config/figtree/config.toml).
func configPath() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// LoadConfig reads the config file if present. A missing or unreadable
// file yields the zero config; the CLI must work without one.
func LoadConfig() *Config {
	cfg := &Config{}
	path, err := configPath()
	if err != nil {
		return cfg
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg
	}
	// Malformed config falls back to defaults rather than failing startup
	_ = toml.Unmarshal(data, cfg)
	return cfg
}
