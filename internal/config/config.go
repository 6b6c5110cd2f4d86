package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/Pistonite/magoo/internal/branding"
)

const (
	fileName = "config"
	fileType = "yaml"
)

// Dir returns the path to the magoo config directory (~/.magoo/). Nothing
// repository-scoped lives here; all submodule state stays in the
// repository's git files.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", branding.HomeDir())
	}
	return filepath.Join(home, branding.HomeDir())
}

// FilePath returns the full path to the config file (~/.magoo/config.yaml).
func FilePath() string {
	return filepath.Join(Dir(), fileName+"."+fileType)
}

// EnsureDir creates the config directory if it does not exist.
func EnsureDir() error {
	dir := Dir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}
	return nil
}

// Load initializes Viper to read from the config file and environment.
func Load() {
	viper.SetConfigFile(FilePath())
	viper.SetConfigType(fileType)
	viper.SetEnvPrefix(branding.EnvPrefix())
	viper.AutomaticEnv()

	viper.SetDefault("git_bin", "git")
	viper.SetDefault("clone_depth", 0)
	viper.SetDefault("lock_timeout", 0)

	// Ignore error if config file doesn't exist yet.
	_ = viper.ReadInConfig()
}

// GitBin returns the git executable to invoke.
func GitBin() string {
	return viper.GetString("git_bin")
}

// CloneDepth returns the default history depth for clones. Zero means full
// history.
func CloneDepth() int {
	return viper.GetInt("clone_depth")
}

// LockTimeout returns how long to wait for the repository lock before
// giving up. Zero blocks until the lock is free.
func LockTimeout() time.Duration {
	return time.Duration(viper.GetInt("lock_timeout")) * time.Second
}

// Get returns a config value by key. Returns empty string if not set.
func Get(key string) string {
	return viper.GetString(key)
}

// Set writes a config key-value pair and saves the config file.
func Set(key, value string) error {
	if err := EnsureDir(); err != nil {
		return err
	}

	viper.Set(key, value)

	configFile := FilePath()

	// Create the file if it doesn't exist.
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("creating config file %s: %w", configFile, err)
		}
		f.Close()
	}

	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}
