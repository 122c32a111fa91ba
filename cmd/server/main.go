/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the leave engine server. Handles configuration,
  dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags
  2. Load the leave policy (file or BCEA defaults)
  3. Initialize SQLite store
  4. Create API handler and router
  5. Start the rollover/forfeiture scheduler
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port      HTTP server port (default: 8080)
  -db        SQLite database path (default: leave.db)
             Use ":memory:" for in-memory database
  -policy    Path to a policy JSON file (default: BCEA statutory values)
  -scheduler Enable the background rollover scheduler (default: true)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the scheduler
  4. Close database connection
  5. Exit

EXAMPLES:
  # Run with file database and custom policy
  ./server -db="./data/leave.db" -policy="./policy.json"

  # Run with in-memory database
  ./server -db=":memory:"

SEE ALSO:
  - api/server.go: Router configuration
  - api/scheduler.go: Background rollover and forfeiture
  - factory/policy.go: Policy file format
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

	"github.com/veldhq/leave-engine/api"
	"github.com/veldhq/leave-engine/factory"
	"github.com/veldhq/leave-engine/leave"
	"github.com/veldhq/leave-engine/store/sqlite"
)

func main() {
	// Flags
	port := flag.Int("port", 8080, "HTTP server port")
	dbPath := flag.String("db", "leave.db", "SQLite database path")
	policyPath := flag.String("policy", "", "Policy JSON file (empty: BCEA defaults)")
	schedulerOn := flag.Bool("scheduler", true, "Enable the background rollover scheduler")
	flag.Parse()

	// Policy
	policy := leave.DefaultPolicy()
	if *policyPath != "" {
		loaded, err := factory.LoadPolicyFile(*policyPath)
		if err != nil {
			log.Fatalf("Failed to load policy: %v", err)
		}
		policy = loaded
		log.Printf("Loaded policy from %s", *policyPath)
	}

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	// Initialize handler and router
	handler := api.NewHandler(store, policy)
	router := api.NewRouter(handler)

	// Background rollover/forfeiture
	scheduler := api.NewRolloverScheduler(store, handler.Calc)
	scheduler.Enabled = *schedulerOn
	scheduler.Start()
	defer scheduler.Stop()

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("🚀 Server starting on http://localhost:%d", *port)
		log.Printf("📊 API available at http://localhost:%d/api", *port)
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
