package main

import (
	"context"
	"log"
	"net/http"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"github.com/chapterly/webnovel-go-server/internal/api"
	"github.com/chapterly/webnovel-go-server/internal/auth"
	"github.com/chapterly/webnovel-go-server/internal/config"
	"github.com/chapterly/webnovel-go-server/internal/db"
	"github.com/chapterly/webnovel-go-server/internal/ledger"
	"github.com/chapterly/webnovel-go-server/internal/mail"
	"github.com/chapterly/webnovel-go-server/internal/templates"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	auth.Init(cfg.JWTSecret)

	database, err := db.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close()

	mailer := mail.NewSenderFromEnv()
	templatesMgr := templates.NewManager("templates")
	ledgerSvc := ledger.New(database, cfg.AuthorSharePercent)

	// Replay parked author credits in the background.
	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()
	go ledgerSvc.RunAuthorCreditWorker(workerCtx, time.Duration(cfg.AuthorCreditRetrySec)*time.Second)

	mux := api.NewRouter(database, ledgerSvc, mailer, templatesMgr, cfg.BaseURL)

	log.Printf("Server starting on %s...", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, api.LoggingMiddleware(mux)); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
