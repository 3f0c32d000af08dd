package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

const (
	configName      = "config"
	configType      = "toml"
	configDir       = ".config/sfr"
	configFile      = "config.toml"
	configFileMode  = 0o600
	configDirMode   = 0o700
	tempFilePattern = ".config-*.toml.tmp"

	apiURLKey          = "api.url"
	apiTimeoutKey      = "api.timeout_seconds"
	journalDirKey      = "journal.dir"
	systemProviderKey  = "providers.system"
	stationProviderKey = "providers.station"
)

// Config is the relay's host configuration.
type Config struct {
	APIURL          string
	APITimeout      time.Duration
	JournalDir      string
	SystemProvider  string
	StationProvider string
}

type fileSchema struct {
	API struct {
		URL            string `toml:"url"`
		TimeoutSeconds int64  `toml:"timeout_seconds"`
	} `toml:"api"`
	Journal struct {
		Dir string `toml:"dir"`
	} `toml:"journal"`
	Providers struct {
		System  string `toml:"system"`
		Station string `toml:"station"`
	} `toml:"providers"`
}

// Load reads ~/.config/sfr/config.toml, filling defaults for anything the
// file omits. A missing file yields the full defaults.
func Load(cfg *viper.Viper) (Config, error) {
	if cfg == nil {
		cfg = viper.New()
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return Config{}, fmt.Errorf("resolve home directory: %w", err)
	}

	cfg.SetConfigName(configName)
	cfg.SetConfigType(configType)
	cfg.AddConfigPath(filepath.Join(homeDir, configDir))

	cfg.SetDefault(apiURLKey, "")
	cfg.SetDefault(apiTimeoutKey, 20)
	cfg.SetDefault(journalDirKey, defaultJournalDir(homeDir))
	cfg.SetDefault(systemProviderKey, "Inara")
	cfg.SetDefault(stationProviderKey, "Inara")

	if err := cfg.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	timeout := cfg.GetInt64(apiTimeoutKey)
	if timeout <= 0 {
		timeout = 20
	}

	return Config{
		APIURL:          cfg.GetString(apiURLKey),
		APITimeout:      time.Duration(timeout) * time.Second,
		JournalDir:      cfg.GetString(journalDirKey),
		SystemProvider:  cfg.GetString(systemProviderKey),
		StationProvider: cfg.GetString(stationProviderKey),
	}, nil
}

// Path returns the config file's expected location.
func Path() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(homeDir, configDir, configFile), nil
}

// Write persists cfg atomically via a temp file plus rename.
func Write(path string, cfg Config) error {
	var file fileSchema
	file.API.URL = cfg.APIURL
	file.API.TimeoutSeconds = int64(cfg.APITimeout / time.Second)
	file.Journal.Dir = cfg.JournalDir
	file.Providers.System = cfg.SystemProvider
	file.Providers.Station = cfg.StationProvider

	if err := os.MkdirAll(filepath.Dir(path), configDirMode); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := toml.Marshal(file)
	if err != nil {
		return fmt.Errorf("encode config file: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(path), tempFilePattern)
	if err != nil {
		return fmt.Errorf("create temp config file: %w", err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write temp config file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp config file: %w", err)
	}

	if err := os.Rename(tempName, path); err != nil {
		return fmt.Errorf("replace config file: %w", err)
	}

	cleanup = false

	if err := os.Chmod(path, configFileMode); err != nil {
		return fmt.Errorf("chmod config file: %w", err)
	}

	return nil
}

func defaultJournalDir(homeDir string) string {
	return filepath.Join(homeDir, "Saved Games", "Frontier Developments", "Elite Dangerous")
}
