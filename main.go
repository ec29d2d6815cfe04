package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"github.com/val3riia/languagemirror-bot/adapters/telegram"
	"github.com/val3riia/languagemirror-bot/internal/config"
	"github.com/val3riia/languagemirror-bot/internal/container"
	"github.com/val3riia/languagemirror-bot/internal/migration"
	"github.com/val3riia/languagemirror-bot/internal/session"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("[Main] No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[Main] Configuration error: %v", err)
	}

	var db *sqlx.DB
	if cfg.Database.URL != "" {
		db, err = sqlx.Connect("postgres", cfg.Database.URL)
		if err != nil {
			log.Fatalf("[Main] Database connection failed: %v", err)
		}
		defer db.Close()
		if err := migration.Run(db); err != nil {
			log.Fatalf("[Main] Migration failed: %v", err)
		}
	}

	c := container.New(cfg, db)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: c.API.Handler(),
	}
	g.Go(func() error {
		log.Printf("[Main] Admin HTTP server listening on :%s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		session.Janitor(ctx, c.Sessions, time.Minute)
		return nil
	})

	switch cfg.Telegram.Mode {
	case config.ModeWebhook:
		g.Go(func() error {
			if err := c.Telegram.SetWebhook(ctx, cfg.Telegram.WebhookURL); err != nil {
				return err
			}
			log.Printf("[Main] Webhook registered at %s", cfg.Telegram.WebhookURL)
			<-ctx.Done()
			return nil
		})
	default:
		poller := telegram.NewPoller(c.Telegram, c.Handler)
		g.Go(func() error {
			return poller.Run(ctx)
		})
	}

	log.Printf("[Main] Language Mirror bot started in %s mode", cfg.Telegram.Mode)
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("[Main] Shutdown with error: %v", err)
		os.Exit(1)
	}
	log.Printf("[Main] Shutdown complete")
}
