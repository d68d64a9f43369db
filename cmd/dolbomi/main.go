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

	"github.com/jihoonhan/dolbomi/internal/chat"
	"github.com/jihoonhan/dolbomi/internal/config"
	"github.com/jihoonhan/dolbomi/internal/flow"
	"github.com/jihoonhan/dolbomi/internal/httpapi"
	"github.com/jihoonhan/dolbomi/internal/intent"
	"github.com/jihoonhan/dolbomi/internal/nlu"
	"github.com/jihoonhan/dolbomi/internal/notify"
	"github.com/jihoonhan/dolbomi/internal/observability"
	"github.com/jihoonhan/dolbomi/internal/reminders"
	"github.com/jihoonhan/dolbomi/internal/todos"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	metrics := observability.NewMetrics(cfg.MetricsNamespace)
	loc := cfg.Location()

	ctx := context.Background()
	todoStore, err := todos.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("todo store init failed: %v", err)
	}
	defer todoStore.Close()
	if cfg.DatabaseURL == "" {
		log.Printf("todo store: in-memory (DATABASE_URL not set)")
	} else {
		log.Printf("todo store: postgres")
	}

	nluClient, err := nlu.New(nlu.Config{
		Mode:    cfg.NLUMode,
		APIKey:  cfg.OpenAIAPIKey,
		BaseURL: cfg.OpenAIBaseURL,
		Model:   cfg.OpenAIModel,
	})
	if err != nil {
		log.Fatalf("nlu client init failed: %v", err)
	}

	engine := chat.NewEngine(
		nluClient,
		flow.NewInMemoryStore(),
		intent.New(nluClient),
		metrics,
		loc,
	)

	if cfg.RemindersEnabled {
		notifier := notify.New(cfg.PushRelayURL, cfg.PushRelayToken)
		scanner := reminders.NewScanner(
			todoStore,
			notifier,
			metrics,
			loc,
			time.Duration(cfg.ReminderLeadMinutes)*time.Minute,
		)
		scheduler, err := reminders.NewScheduler(scanner, loc)
		if err != nil {
			log.Fatalf("reminder scheduler init failed: %v", err)
		}
		scheduler.Start()
		defer scheduler.Stop()
	} else {
		log.Printf("reminders disabled")
	}

	api := httpapi.New(cfg, engine, todoStore, metrics)
	httpServer := &http.Server{
		Addr:    cfg.BindAddr,
		Handler: api.Router(),
	}

	go func() {
		log.Printf("server listening on %s", cfg.BindAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Printf("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
		_ = httpServer.Close()
	}

	log.Printf("shutdown complete")
}
