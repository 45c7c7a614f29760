package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/kiwari-pos/dinein-terminal/internal/catalog"
	"github.com/kiwari-pos/dinein-terminal/internal/config"
	"github.com/kiwari-pos/dinein-terminal/internal/router"
	"github.com/kiwari-pos/dinein-terminal/internal/service"
	"github.com/kiwari-pos/dinein-terminal/internal/tables"
	"github.com/kiwari-pos/dinein-terminal/internal/upstream"
	"github.com/kiwari-pos/dinein-terminal/internal/ws"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment")
	}
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backend := upstream.New(cfg.BackendURL, cfg.HTTPTimeout)

	// Table layout is seeded from configuration at process start; tables are
	// created externally and never mutated here.
	seeds, err := tables.LoadSeedFile(cfg.TablesFile)
	if err != nil {
		log.Fatalf("load tables: %v", err)
	}
	registry := tables.NewRegistry()
	if err := registry.Init(seeds); err != nil {
		log.Fatalf("init table registry: %v", err)
	}
	log.Printf("Table registry ready with %d tables", len(seeds))

	hub := ws.NewHub()
	go hub.Run()

	snapshot := catalog.New(backend, cfg.CatalogRefreshInterval, hub)
	// Initial load is best-effort: an unreachable menu service leaves the
	// catalog empty until a refresh succeeds.
	if err := snapshot.Load(ctx); err != nil {
		log.Printf("ERROR: initial catalog load: %v", err)
	}
	go snapshot.Run(ctx)

	svc := service.New(snapshot, registry, backend, hub, service.Config{
		AllowNegativeTotal: cfg.AllowNegativeTotal,
		DefaultBranchID:    cfg.DefaultBranchID,
	})
	if err := svc.RefreshOrders(ctx); err != nil {
		log.Printf("ERROR: initial orders refresh: %v", err)
	}
	go svc.RunOrdersPoll(ctx, cfg.OrdersPollInterval)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router.New(cfg, snapshot, registry, svc, hub),
	}

	go func() {
		log.Printf("Dine-in terminal listening on :%s (backend %s)", cfg.Port, cfg.BackendURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("ERROR: shutdown: %v", err)
	}
}
