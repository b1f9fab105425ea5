package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Transport names accepted in SyncConfig.Transport
const (
	TransportSSH  = "ssh"
	TransportHTTP = "http"
)

// Config holds user preferences
type Config struct {
	DataDir string `yaml:"data_dir" json:"data_dir"` // Where todos.json, tasks.json, events.json live

	// Logging configuration
	LogLevel   string `yaml:"log_level" json:"log_level"`     // Log level: DEBUG, INFO, WARN, ERROR
	LogFile    string `yaml:"log_file" json:"log_file"`       // Path to log file
	LogConsole bool   `yaml:"log_console" json:"log_console"` // Enable console logging

	Sync SyncConfig `yaml:"sync" json:"sync"`
}

// SyncConfig describes the remote the client reconciles with
type SyncConfig struct {
	Transport string `yaml:"transport" json:"transport"` // ssh or http

	// ssh
	Address         string `yaml:"address" json:"address"`                     // host:port
	Username        string `yaml:"username" json:"username"`                   // Remote login
	KeyFile         string `yaml:"key_file" json:"key_file"`                   // Private key, password prompt when empty
	KnownHosts      string `yaml:"known_hosts" json:"known_hosts"`             // known_hosts file for host key checks
	InsecureHostKey bool   `yaml:"insecure_host_key" json:"insecure_host_key"` // Skip host key verification
	ServerPath      string `yaml:"server_path" json:"server_path"`             // Remote directory holding the snapshots

	// http
	ServerURL string `yaml:"server_url" json:"server_url"`
	Token     string `yaml:"token" json:"token"`

	Encrypt bool `yaml:"encrypt" json:"encrypt"` // Seal snapshots with a passphrase before upload
}

// Dir returns ~/.mtc
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".mtc"), nil
}

// DefaultConfig returns default settings
func DefaultConfig() *Config {
	dataDir, logPath, knownHosts := "", "", ""
	if dir, err := Dir(); err == nil {
		dataDir = dir
		logPath = filepath.Join(dir, "logs", "mtc.log")
	}
	if home, err := os.UserHomeDir(); err == nil {
		knownHosts = filepath.Join(home, ".ssh", "known_hosts")
	}

	return &Config{
		DataDir:    getEnv("MTC_DATA_DIR", dataDir),
		LogLevel:   getEnv("MTC_LOG_LEVEL", "INFO"),
		LogFile:    getEnv("MTC_LOG_FILE", logPath),
		LogConsole: getEnvBool("MTC_LOG_CONSOLE", false),
		Sync: SyncConfig{
			Transport:  TransportSSH,
			KnownHosts: knownHosts,
			ServerPath: ".mtc",
			ServerURL:  "http://localhost:8080",
		},
	}
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if b, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return b
	}
	return defaultValue
}

// Path returns ~/.mtc/config.yaml
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load loads config from ~/.mtc/config.yaml
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// LoadFile loads config from path, returning defaults if it does not exist
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that cannot be defaulted
func (c *Config) Validate() error {
	switch c.Sync.Transport {
	case TransportSSH, TransportHTTP:
	default:
		return fmt.Errorf("unknown sync transport %q (want %s or %s)", c.Sync.Transport, TransportSSH, TransportHTTP)
	}
	return nil
}

// Save saves config to ~/.mtc/config.yaml
func (c *Config) Save() error {
	path, err := Path()
	if err != nil {
		return err
	}
	return c.SaveFile(path)
}

// SaveFile writes the config to path
func (c *Config) SaveFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// May hold a server token
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}
