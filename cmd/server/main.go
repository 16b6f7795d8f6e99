/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the savings engine server. Handles configuration,
  dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load .env (if present) and read environment/flags
  2. Initialize SQLite store
  3. Connect the Redis summary cache (optional)
  4. Create the ledger service and HTTP handler
  5. Start server with graceful shutdown

CONFIGURATION:
  Flags take precedence over environment variables.
  -port / PORT          HTTP server port (default: 8080)
  -db / DB_PATH         SQLite database path (default: savings.db)
                        Use ":memory:" for an in-memory database
  -redis / REDIS_URL    Redis address for the summary cache; empty
                        disables caching
  -sweep / SWEEP_INTERVAL
                        Rollover sweep interval (default: 1h, 0 disables)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database and cache connections
  4. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/savings.db"

  # Run with in-memory database and a local cache
  ./server -db=":memory:" -redis="localhost:6379"

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - store/sqlite/sqlite.go: Database implementation
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
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/warp/savings-engine/api"
	"github.com/warp/savings-engine/ledger"
	"github.com/warp/savings-engine/store/rediscache"
	"github.com/warp/savings-engine/store/sqlite"
)

func main() {
	// .env is optional; flags and real environment win over it.
	_ = godotenv.Load()

	port := flag.Int("port", envInt("PORT", 8080), "HTTP server port")
	dbPath := flag.String("db", envStr("DB_PATH", "savings.db"), "SQLite database path")
	redisURL := flag.String("redis", envStr("REDIS_URL", ""), "Redis address for the summary cache (empty disables)")
	sweepEvery := flag.Duration("sweep", envDuration("SWEEP_INTERVAL", time.Hour), "Rollover sweep interval (0 disables)")
	flag.Parse()

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	// Optional summary cache
	opts := []ledger.Option{}
	if *redisURL != "" {
		cache, err := rediscache.New(context.Background(), *redisURL)
		if err != nil {
			log.Fatalf("Failed to connect summary cache: %v", err)
		}
		defer cache.Close()
		opts = append(opts, ledger.WithCache(cache))
		log.Printf("Summary cache enabled at %s", *redisURL)
	}

	service := ledger.NewService(store, opts...)
	handler := api.NewHandler(service, store)
	router := api.NewRouter(handler)

	// Day-rollover sweeper keeps each user's current month fresh.
	sweeper := api.NewRolloverSweeper(store, service)
	if *sweepEvery <= 0 {
		sweeper.Enabled = false
	} else {
		sweeper.CheckInterval = *sweepEvery
	}
	sweeper.Start()
	defer sweeper.Stop()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server starting on http://localhost:%d", *port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
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
		var n int
		if _, err := fmt.Sscanf(v, "%d", &n); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
