package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/agentx-labs/tooldex/internal/branding"
	"github.com/spf13/viper"
)

const (
	fileName = "config"
	fileType = "yaml"
)

// Setting keys understood by the config file and TOOLDEX_* env overrides.
const (
	KeyDBPath          = "db_path"
	KeyClaudeHome      = "claude_home"
	KeyClaudeJSON      = "claude_json"
	KeyCodexHome       = "codex_home"
	KeyLogLevel        = "log_level"
	KeyLogFile         = "log_file"
	KeyScanParallel    = "scan_parallel"
	KeyUsageWindowDays = "usage_window_days"
)

// DefaultUsageWindowDays is the analytics window used when none is configured.
const DefaultUsageWindowDays = 30

// Settings is the typed view over the loaded configuration.
type Settings struct {
	DBPath          string
	ClaudeHome      string
	ClaudeJSON      string
	CodexHome       string
	LogLevel        string
	LogFile         string
	ScanParallel    bool
	UsageWindowDays int
}

// Dir returns the path to the config directory (~/.tooldex/).
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", branding.HomeDir())
	}
	return filepath.Join(home, branding.HomeDir())
}

// FilePath returns the full path to the config file (~/.tooldex/config.yaml).
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

// Load initializes Viper to read from the default config file and environment.
func Load() {
	LoadFile(FilePath())
}

// LoadFile initializes Viper from an explicit config file path.
func LoadFile(path string) {
	viper.SetConfigFile(path)
	viper.SetConfigType(fileType)
	viper.SetEnvPrefix(branding.EnvPrefix())
	viper.AutomaticEnv()
	_ = viper.BindEnv(KeyDBPath, branding.EnvVar("db"), branding.EnvVar(KeyDBPath))

	viper.SetDefault(KeyLogLevel, "warn")
	viper.SetDefault(KeyScanParallel, true)
	viper.SetDefault(KeyUsageWindowDays, DefaultUsageWindowDays)

	// Ignore error if config file doesn't exist yet.
	_ = viper.ReadInConfig()
}

// Get returns a config value by key. Returns empty string if not set.
func Get(key string) string {
	return viper.GetString(key)
}

// Resolve returns the typed settings currently known to Viper.
func Resolve() Settings {
	days := viper.GetInt(KeyUsageWindowDays)
	if days <= 0 {
		days = DefaultUsageWindowDays
	}
	return Settings{
		DBPath:          viper.GetString(KeyDBPath),
		ClaudeHome:      viper.GetString(KeyClaudeHome),
		ClaudeJSON:      viper.GetString(KeyClaudeJSON),
		CodexHome:       viper.GetString(KeyCodexHome),
		LogLevel:        viper.GetString(KeyLogLevel),
		LogFile:         viper.GetString(KeyLogFile),
		ScanParallel:    viper.GetBool(KeyScanParallel),
		UsageWindowDays: days,
	}
}

// Set writes a config key-value pair and saves the config file.
func Set(key, value string) error {
	configFile := viper.ConfigFileUsed()
	if configFile == "" {
		configFile = FilePath()
	}
	if err := os.MkdirAll(filepath.Dir(configFile), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	viper.Set(key, value)

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
