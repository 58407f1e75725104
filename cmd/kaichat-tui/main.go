// Command kaichat-tui is the terminal client. Pointed at a running relay it
// gates access with the secret word and then chats; with no relay configured
// it runs fully offline in mock mode.
package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"kaichat/internal/client"
	"kaichat/internal/config"
	"kaichat/internal/credstore"
	"kaichat/internal/session"
	"kaichat/internal/ui"
)

func main() {
	configPath := flag.String("config", "", "path to config.json")
	relayURL := flag.String("relay", "", "relay base URL (overrides config; empty with no config means mock mode)")
	flag.Parse()

	var (
		baseURL  string
		cacheDir string
	)
	if cfg, err := config.Load(*configPath); err == nil {
		baseURL = cfg.Client.RelayBaseURL
		cacheDir = cfg.Client.CacheDir
	} else if *configPath != "" {
		log.Fatalf("load config: %v", err)
	}
	if *relayURL != "" {
		baseURL = *relayURL
	}
	if cacheDir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			cacheDir = filepath.Join(home, ".kaichat")
		} else {
			cacheDir = ".kaichat"
		}
	}

	sessCfg := session.Config{}

	var prompt ui.SecretPrompt
	var alerts ui.AlertBuffer
	sessCfg.PromptSecret = prompt.Take
	sessCfg.Alert = alerts.Push

	if baseURL != "" {
		relay := client.New(baseURL)
		sessCfg.Completer = relay
		sessCfg.Issuer = relay
		sessCfg.Pinger = relay

		cache, err := credstore.Open(cacheDir)
		if err != nil {
			log.Printf("open credential cache: %v", err)
		} else {
			defer cache.Close()
			sessCfg.Cache = cache
		}
	}

	sess := session.New(sessCfg)

	program := tea.NewProgram(ui.New(sess, &prompt, &alerts), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		log.Fatalf("run ui: %v", err)
	}
}
