/*
main.go - Application entry point

PURPOSE:
  Wires the SQLite store, the engine components and the HTTP router, then
  serves with graceful shutdown.

CONFIGURATION:
  A .env file (if present) is loaded first; flags override environment:
    -port   HTTP port           (env PORT, default 8080)
    -db     SQLite path         (env DB_PATH, default commissions.db;
                                 ":memory:" for in-memory)
    -seed   load the demo dataset on startup

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM the server stops accepting connections, waits up to
  30s for in-flight requests, then closes the database.
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/fieldpay/commission-engine/api"
	"github.com/fieldpay/commission-engine/commission"
	"github.com/fieldpay/commission-engine/engine"
	"github.com/fieldpay/commission-engine/rebate"
	"github.com/fieldpay/commission-engine/store/sqlite"
)

func main() {
	if err := godotenv.Load(); err == nil {
		log.Println("loaded configuration from .env")
	}

	port := flag.Int("port", envInt("PORT", 8080), "HTTP server port")
	dbPath := flag.String("db", envStr("DB_PATH", "commissions.db"), "SQLite database path")
	seed := flag.Bool("seed", false, "load the demo dataset on startup")
	flag.Parse()

	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	if *seed {
		if err := store.Seed(context.Background()); err != nil {
			log.Fatalf("Failed to seed database: %v", err)
		}
		log.Println("demo dataset loaded")
	}

	// Capability probe is computed once by the store and injected here.
	resolver := engine.NewResolver(store, store.Capabilities())
	normalizer := engine.NewNormalizer(store, resolver)

	commissions := commission.NewCoordinator(store,
		commission.NewCalculator(normalizer, resolver, store),
		commission.NewStipendResolver(store),
	)
	rebates := rebate.NewCoordinator(store,
		rebate.NewBudgetCalculator(normalizer, resolver, store),
		rebate.NewBrandCalculator(normalizer, store),
	)

	router := api.NewRouter(api.NewHandler(commissions, rebates))

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("commission engine listening on http://localhost:%d", *port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	log.Println("Server stopped")
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
