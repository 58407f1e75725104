package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	content := `{
		"basic_config": {
			"server_address": ":9090",
			"provider": "openai",
			"max_slots": 4
		},
		"access": {
			"secret_word": "open sesame",
			"api_token": "api-token"
		},
		"providers": {
			"openai": {"base_url": "https://api.example.com/v1", "model": "gpt-test", "api_key": "k"}
		},
		"databases": {
			"sqlite3": {"dsn": "data/app.db"}
		},
		"client": {
			"relay_base_url": "http://localhost:9090"
		}
	}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BasicConfig.ServerAddress != ":9090" {
		t.Fatalf("got server address %q", cfg.BasicConfig.ServerAddress)
	}
	if cfg.Access.SecretWord != "open sesame" {
		t.Fatalf("got secret word %q", cfg.Access.SecretWord)
	}
	if cfg.Providers["openai"].Model != "gpt-test" {
		t.Fatalf("got provider %+v", cfg.Providers["openai"])
	}
	if cfg.Client.RelayBaseURL != "http://localhost:9090" {
		t.Fatalf("got relay url %q", cfg.Client.RelayBaseURL)
	}

	// Relative sqlite paths resolve against the config location.
	want := filepath.Join(dir, "data/app.db")
	if got := cfg.Databases["sqlite3"].DSN; got != want {
		t.Fatalf("dsn %q, want %q", got, want)
	}
}

func TestLoadMemoryDSNUntouched(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	content := `{"databases": {"sqlite3": {"dsn": ":memory:"}}}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := cfg.Databases["sqlite3"].DSN; got != ":memory:" {
		t.Fatalf("memory dsn rewritten to %q", got)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatal("missing config accepted")
	}
}
