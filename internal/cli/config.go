package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultBaseURL is used when no server address is configured anywhere.
const DefaultBaseURL = "http://localhost:8080"

// Config is the CLI's saved settings: which server to talk to, the
// credential to present, and the preferred output format.
type Config struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
	Format  string `yaml:"format,omitempty"`
}

// GetConfigPath returns the config file location. FLAGSCRUB_CONFIG
// overrides the default ~/.flagscrub/config.yaml.
func GetConfigPath() (string, error) {
	if path := os.Getenv("FLAGSCRUB_CONFIG"); path != "" {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".flagscrub", "config.yaml"), nil
}

// LoadConfig reads the saved settings. A missing file is not an error;
// it yields the defaults so the CLI works against a local server out of
// the box.
func LoadConfig() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if os.IsNotExist(err) {
		return &Config{BaseURL: DefaultBaseURL}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	return &cfg, nil
}

// SaveConfig writes the settings file, creating its directory when needed.
// The file holds a credential, so it is written 0600.
func SaveConfig(cfg *Config) error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(configPath), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Resolve returns the effective configuration.
// Priority: command flags > environment variables > config file > defaults.
func Resolve(baseURLFlag, apiKeyFlag string) (*Config, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}

	if envURL := os.Getenv("FLAGSCRUB_BASE_URL"); envURL != "" {
		cfg.BaseURL = envURL
	}
	if envKey := os.Getenv("FLAGSCRUB_API_KEY"); envKey != "" {
		cfg.APIKey = envKey
	}

	if baseURLFlag != "" {
		cfg.BaseURL = baseURLFlag
	}
	if apiKeyFlag != "" {
		cfg.APIKey = apiKeyFlag
	}

	return cfg, nil
}

// InitConfig writes a starter config file pointing at a local server.
func InitConfig() error {
	return SaveConfig(&Config{
		BaseURL: DefaultBaseURL,
		Format:  "table",
	})
}
