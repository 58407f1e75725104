// Command kaichat is the relay: it gates access behind a shared secret,
// forwards conversations to the configured model provider, and stores
// uploaded files alongside their generated summaries.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/gin-gonic/gin"

	"kaichat/internal/auth"
	"kaichat/internal/config"
	"kaichat/internal/redis"
	"kaichat/internal/relay"
	"kaichat/internal/service/calendar"
	"kaichat/internal/service/completion"
	"kaichat/internal/service/files"
	"kaichat/internal/storage"
	"kaichat/internal/worker"
)

func main() {
	configPath := flag.String("config", "", "path to config.json")
	dbType := flag.String("db", "sqlite3", "database driver (sqlite3 or mysql)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	db, err := storage.Open(*dbType, cfg)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()
	if err := storage.Migrate(db, *dbType); err != nil {
		log.Fatalf("migrate database: %v", err)
	}

	var cache *redis.Client
	if cfg.Redis.Host != "" {
		cache, err = redis.NewClient(cfg)
		if err != nil {
			log.Printf("redis unavailable, running without cache: %v", err)
			cache = nil
		} else {
			defer cache.Close()
		}
	}

	ctx := context.Background()

	fileService, err := files.NewService(db)
	if err != nil {
		log.Fatalf("init file service: %v", err)
	}
	fileTTL := time.Duration(cfg.BasicConfig.StoredFileTTL) * time.Minute
	cleanEvery := time.Duration(cfg.BasicConfig.FileCleanInterval) * time.Minute
	fileService.StartCleaner(ctx, cleanEvery)

	calendarService := calendar.NewService(db)

	tools := completion.InitToolsChain(calendarService)
	completer, err := completion.NewService(ctx, cfg, cfg.BasicConfig.Provider, tools)
	if err != nil {
		log.Fatalf("init completion service: %v", err)
	}
	log.Printf("completion backed by %s", completer.ModelName())

	authService := auth.NewService(cfg.Access.SecretWord, cfg.Access.APIToken, db, cache)
	pool := worker.NewPool(cfg.BasicConfig.MaxSlots, cfg.BasicConfig.MaxWaiters)

	handler := relay.NewHandler(completer, authService, fileService, pool, db, cache,
		cfg.BasicConfig.FileBaseDir, fileTTL)

	router := gin.Default()
	handler.RegisterRoutes(router)

	addr := cfg.BasicConfig.ServerAddress
	if addr == "" {
		addr = ":8080"
	}
	log.Printf("relay listening on %s", addr)
	if err := router.Run(addr); err != nil {
		log.Fatalf("run server: %v", err)
	}
}
