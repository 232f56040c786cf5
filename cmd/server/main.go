/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the Aadhaar Seva Kendra insights dashboard server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags and load configuration
  2. Open the SQLite fact store read-only
  3. Register Prometheus collectors
  4. Create API handler, cache warmer and router
  5. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -config  Optional YAML configuration file
  -port    HTTP server port (overrides config, default: 8080)
  -db      SQLite fact store path (overrides config, default: aadhaar_analysis.db)

ENVIRONMENT:
  ASK_DB_PATH, ASK_PORT, ASK_PREFERRED_REGION (see config package)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the cache warmer
  4. Close database connection
  5. Exit

EXAMPLES:
  # Build the fact store, then serve it
  ./askctl import --db ./aadhaar_analysis.db data/*.csv
  ./server -db="./aadhaar_analysis.db"

  # Run on different port
  ./server -port=3000

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - store/sqlite/sqlite.go: Fact store
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warp/seva-insights/api"
	"github.com/warp/seva-insights/config"
	"github.com/warp/seva-insights/engine"
	"github.com/warp/seva-insights/metrics"
	"github.com/warp/seva-insights/store/sqlite"
)

func main() {
	// Flags
	configPath := flag.String("config", "", "YAML configuration file")
	port := flag.Int("port", 0, "HTTP server port (overrides config)")
	dbPath := flag.String("db", "", "SQLite fact store path (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}

	// Initialize store
	store, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		if errors.Is(err, engine.ErrStoreUnavailable) {
			log.Fatalf("Fact store unavailable: %v (build it with: askctl import --db %s <csv files>)", err, cfg.Database.Path)
		}
		log.Fatalf("Failed to open fact store: %v", err)
	}
	defer store.Close()

	metrics.RegisterDefault()

	// Initialize handler
	handler := api.NewHandler(store, cfg)

	regions, err := store.ListRegions(context.Background())
	if err != nil {
		log.Printf("Warning: Failed to list regions: %v", err)
	} else {
		log.Printf("Fact store %s: %d regions", store.Path(), len(regions))
	}

	warmer := api.NewCacheWarmer(handler, cfg.Dashboard.WarmInterval)
	warmer.Start()
	defer warmer.Stop()

	// Create router
	router := api.NewRouter(handler)

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server starting on http://localhost:%d", cfg.Server.Port)
		log.Printf("API available at http://localhost:%d/api", cfg.Server.Port)
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
