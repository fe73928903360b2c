package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const appName = "gridsmith"

// Config represents the application configuration
type Config struct {
	LLM     LLMConfig     `toml:"llm"`
	Context ContextConfig `toml:"context"`
	Store   StoreConfig   `toml:"store"`
	Log     LogConfig     `toml:"log"`
	Balance BalanceConfig `toml:"balance"`
}

type LLMConfig struct {
	Mode         string   `toml:"mode"`
	Model        string   `toml:"model"`
	BaseURL      string   `toml:"base_url"`
	APIKey       string   `toml:"api_key"`
	PollInterval Duration `toml:"poll_interval"`
	MaxPolls     uint64   `toml:"max_polls"`
	Timeout      Duration `toml:"timeout"`
	RetryCount   int      `toml:"retry_count"`
}

type ContextConfig struct {
	UseContext      bool `toml:"use_context"`
	MaxContextCards int  `toml:"max_context_cards"`
}

type StoreConfig struct {
	Backend        string `toml:"backend"`
	Path           string `toml:"path"`
	DataAPIURL     string `toml:"data_api_url"`
	APIKey         string `toml:"api_key"`
	DataSource     string `toml:"data_source"`
	Database       string `toml:"database"`
	Collection     string `toml:"collection"`
	DeckCollection string `toml:"deck_collection"`
}

type LogConfig struct {
	Level string `toml:"level"`
	JSON  bool   `toml:"json"`
}

type BalanceConfig struct {
	MaxEnergyCost     int `toml:"max_energy_cost"`
	DefaultEnergyCost int `toml:"default_energy_cost"`
}

// Duration is a time.Duration written as a string such as "1s" in TOML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Store backends
const (
	BackendMemory  = "memory"
	BackendFile    = "file"
	BackendSQLite  = "sqlite"
	BackendDataAPI = "dataapi"
)

// Default returns the configuration written on first run.
func Default() *Config {
	return &Config{
		LLM: LLMConfig{
			Mode:         "completion",
			Model:        "gpt-4o-mini",
			BaseURL:      "https://api.openai.com/v1",
			PollInterval: Duration{time.Second},
			MaxPolls:     120,
			Timeout:      Duration{60 * time.Second},
		},
		Context: ContextConfig{
			UseContext:      true,
			MaxContextCards: 8,
		},
		Store: StoreConfig{
			Backend:        BackendFile,
			Path:           filepath.Join(GetDataDir(), "cards.json"),
			DataSource:     "Cluster0",
			Database:       "GridStrikeDb",
			Collection:     "Cards",
			DeckCollection: "Decks",
		},
		Log: LogConfig{
			Level: "info",
		},
		Balance: BalanceConfig{
			MaxEnergyCost:     10,
			DefaultEnergyCost: 3,
		},
	}
}

// GetXDGDataHome returns XDG_DATA_HOME or default path
func GetXDGDataHome() string {
	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return xdgData
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".local", "share")
}

// GetXDGConfigHome returns XDG_CONFIG_HOME or default path
func GetXDGConfigHome() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return xdgConfig
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".config")
}

// GetDataDir returns the directory holding the card library
func GetDataDir() string {
	return filepath.Join(GetXDGDataHome(), appName)
}

// GetConfigFilePath returns the path to the config file
func GetConfigFilePath() string {
	return filepath.Join(GetXDGConfigHome(), appName, "config.toml")
}

// LoadConfig loads the config file at path, or the default location when
// path is empty. A missing file is created with the defaults. Values from
// the environment (and a .env file in the working directory) override the
// file.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = GetConfigFilePath()
	}
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	var config *Config
	if _, err := os.Stat(path); os.IsNotExist(err) {
		config, err = createDefaultConfig(path)
		if err != nil {
			return nil, err
		}
	} else {
		config = Default()
		if _, err := toml.DecodeFile(path, config); err != nil {
			return nil, fmt.Errorf("error decoding config file: %w", err)
		}
	}

	applyEnv(config)
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// createDefaultConfig creates a default config file
func createDefaultConfig(path string) (*Config, error) {
	config := Default()
	if err := Save(path, config); err != nil {
		return nil, err
	}
	return config, nil
}

// Save writes config to path as TOML. Secrets are never written; they come
// from the environment.
func Save(path string, config *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating config file: %w", err)
	}
	defer file.Close()

	out := *config
	out.LLM.APIKey = ""
	out.Store.APIKey = ""
	if err := toml.NewEncoder(file).Encode(out); err != nil {
		return fmt.Errorf("error encoding config: %w", err)
	}
	return nil
}

func applyEnv(config *Config) {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		config.LLM.APIKey = v
	}
	if v := os.Getenv("GRIDSMITH_LLM_MODE"); v != "" {
		config.LLM.Mode = v
	}
	if v := os.Getenv("GRIDSMITH_STORE"); v != "" {
		config.Store.Backend = v
	}
	if v := os.Getenv("MONGODB_DATA_API_URL"); v != "" {
		config.Store.DataAPIURL = v
	}
	if v := os.Getenv("MONGODB_API_KEY"); v != "" {
		config.Store.APIKey = v
	}
}

// Validate rejects settings no component could run with.
func (c *Config) Validate() error {
	var problems []string
	switch c.LLM.Mode {
	case "completion", "assistant":
	default:
		problems = append(problems, fmt.Sprintf("llm.mode must be completion or assistant, got %q", c.LLM.Mode))
	}
	switch c.Store.Backend {
	case BackendMemory:
	case BackendFile, BackendSQLite:
		if c.Store.Path == "" {
			problems = append(problems, fmt.Sprintf("store.path is required for the %s backend", c.Store.Backend))
		}
	case BackendDataAPI:
		if c.Store.DataAPIURL == "" {
			problems = append(problems, "store.data_api_url (or MONGODB_DATA_API_URL) is required for the dataapi backend")
		}
	default:
		problems = append(problems, fmt.Sprintf("store.backend must be one of memory, file, sqlite, dataapi, got %q", c.Store.Backend))
	}
	if c.Context.MaxContextCards < 0 {
		problems = append(problems, "context.max_context_cards must not be negative")
	}
	if c.Balance.MaxEnergyCost < 1 {
		problems = append(problems, "balance.max_energy_cost must be at least 1")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}
