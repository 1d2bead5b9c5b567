package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"siterelay/internal/account"
	"siterelay/internal/ai"
	"siterelay/internal/api"
	"siterelay/internal/chat"
	"siterelay/internal/config"
	"siterelay/internal/dispatch"
	"siterelay/internal/schema"
	"siterelay/internal/sheets"
	"siterelay/internal/upload"
)

func main() {
	setupMode := flag.Bool("setup", false, "create the backing spreadsheets and header rows, then exit")
	flag.Parse()

	cfgPath := os.Getenv("SITERELAY_CONFIG")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx := context.Background()
	store, err := sheets.NewClient(ctx, cfg.Sheets.CredentialsFile)
	if err != nil {
		log.Fatalf("init sheet store: %v", err)
	}

	if *setupMode {
		runSetup(ctx, store, cfg)
		return
	}

	backend, err := ai.NewService(cfg)
	if err != nil {
		log.Fatalf("init chat backend: %v", err)
	}

	timeout := time.Duration(cfg.BasicConfig.RequestTimeoutSeconds) * time.Second
	sessionTTL := time.Duration(cfg.Chat.SessionTTLMinutes) * time.Minute

	var history chat.HistoryStore
	if cfg.Redis.Host != "" {
		rdb, err := chat.NewRedisStore(cfg.Redis, sessionTTL)
		if err != nil {
			log.Fatalf("init redis history store: %v", err)
		}
		defer rdb.Close()
		history = rdb
	} else {
		mem := chat.NewMemoryStore(sessionTTL)
		janitorCtx, janitorCancel := context.WithCancel(ctx)
		defer janitorCancel()
		mem.StartJanitor(janitorCtx, chat.DefaultJanitorInterval)
		history = mem
	}

	resolver, err := upload.NewResolver(cfg.BasicConfig.UploadDir, cfg.BasicConfig.MaxUploadBytes)
	if err != nil {
		log.Fatalf("init upload resolver: %v", err)
	}

	dispatcher := dispatch.NewDispatcher(store, cfg.Sheets.ContactSheet, cfg.Sheets.ApplicationsSheet, timeout)
	gateway := account.NewGateway(store, cfg.Sheets.AccountsSheet, timeout)
	manager := chat.NewManager(backend, history, timeout)

	handlers := api.NewHandler(dispatcher, gateway, manager, resolver, cfg.BasicConfig.StaticDir)
	router := gin.Default()
	handlers.RegisterRoutes(router)

	addr := cfg.BasicConfig.ServerAddress
	if addr == "" {
		addr = ":5000"
	}
	if err := router.Run(addr); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}

// runSetup mirrors the one-time sheet bootstrap: create each spreadsheet
// when missing and write its header row when the first row is empty.
func runSetup(ctx context.Context, store sheets.Store, cfg *config.Config) {
	targets := []struct {
		title   string
		headers []string
	}{
		{cfg.Sheets.ContactSheet, schema.Headers[schema.FormContact]},
		{cfg.Sheets.ApplicationsSheet, schema.Headers[schema.FormApplication]},
		{cfg.Sheets.AccountsSheet, account.SheetHeaders},
	}
	for _, t := range targets {
		if err := store.EnsureSheet(ctx, t.title, t.headers); err != nil {
			log.Fatalf("set up sheet %q: %v", t.title, err)
		}
		log.Printf("sheet %q ready", t.title)
	}
}
