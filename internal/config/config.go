package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// EnvConfigPath overrides the config file location when set.
const EnvConfigPath = "KAICHAT_CONFIG"

// Config represents runtime configuration for both the relay and the
// terminal client.
type Config struct {
	BasicConfig BasicConfig               `json:"basic_config"`
	Access      AccessConfig              `json:"access"`
	Providers   map[string]ProviderConfig `json:"providers"`
	Databases   map[string]DatabaseConfig `json:"databases"`
	Redis       RedisConfig               `json:"redis"`
	Client      ClientConfig              `json:"client"`
}

type BasicConfig struct {
	ServerAddress     string `json:"server_address"`
	Provider          string `json:"provider"`
	FileBaseDir       string `json:"file_base_dir"`
	StoredFileTTL     int    `json:"stored_file_ttl_minutes"`
	FileCleanInterval int    `json:"file_clean_interval_minutes"`
	MaxSlots          int    `json:"max_slots"`
	MaxWaiters        int    `json:"max_waiters"`
}

// AccessConfig carries the shared secret the token endpoint checks and the
// api token it hands out alongside the grant sentinel.
type AccessConfig struct {
	SecretWord string `json:"secret_word"`
	APIToken   string `json:"api_token"`
}

type ProviderConfig struct {
	BaseURL string `json:"base_url"`
	Model   string `json:"model"`
	APIKey  string `json:"api_key"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	DBName   string `json:"db_name"`
	Params   string `json:"params"`
}

type RedisConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

// ClientConfig configures the terminal client. An empty RelayBaseURL selects
// mock mode: no network traffic for chat, token issuance, or the warm-up ping.
type ClientConfig struct {
	RelayBaseURL string `json:"relay_base_url"`
	CacheDir     string `json:"cache_dir"`
}

// Load reads configuration from the provided path (defaults to config.json,
// overridable through KAICHAT_CONFIG).
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path == "" {
		path = "config.json"
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}

	file, err := os.Open(absPath)
	if err != nil {
		return nil, fmt.Errorf("open config %s: %w", absPath, err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	for name, db := range cfg.Databases {
		if db.DSN != "" && db.DSN != ":memory:" && !filepath.IsAbs(db.DSN) {
			db.DSN = filepath.Join(filepath.Dir(absPath), db.DSN)
			cfg.Databases[name] = db
		}
	}

	return &cfg, nil
}
