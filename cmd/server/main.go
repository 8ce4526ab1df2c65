/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the asset inventory server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (config.yaml + environment)
  2. Build the zap logger
  3. Open the store (SQLite, or in-memory when no path is configured)
  4. Seed system types, categories, and the property catalog
  5. Wire services (registry, employees, audit, inventory)
  6. Start the HTTP server with graceful shutdown

CONFIGURATION:
  SERVER_PORT      HTTP server port (default: 8080)
  DATABASE_PATH    SQLite database path; empty selects in-memory stores
  LOG_LEVEL        zap level (default: info)
  LOG_FORMAT       json or console (default: json)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete
  3. Flush the audit queue
  4. Close the database connection
  5. Exit

SEE ALSO:
  - api/server.go: Router configuration
  - config/config.go: Configuration loading
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/warp/asset-inventory/api"
	"github.com/warp/asset-inventory/audit"
	"github.com/warp/asset-inventory/config"
	"github.com/warp/asset-inventory/employee"
	"github.com/warp/asset-inventory/inventory"
	memstore "github.com/warp/asset-inventory/inventory/store"
	"github.com/warp/asset-inventory/registry"
	"github.com/warp/asset-inventory/store/sqlite"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := buildLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	// Stores. A database path selects SQLite; otherwise everything
	// runs in memory (dev mode, state lost on restart).
	var (
		txStores      inventory.TxStores
		registryStore registry.Store
		usage         registry.UsageCounter
		employeeStore employee.Store
		auditSink     audit.Sink
		closeStore    func() error
	)
	if cfg.Database.Path != "" {
		store, err := sqlite.New(cfg.Database.Path)
		if err != nil {
			logger.Fatal("failed to open database", zap.Error(err))
		}
		txStores = store
		registryStore = store
		usage = store
		employeeStore = store
		auditSink = store
		closeStore = store.Close
		logger.Info("using sqlite store", zap.String("path", cfg.Database.Path))
	} else {
		mem := memstore.NewMemory()
		txStores = mem
		usage = mem
		registryStore = registry.NewMemory()
		employeeStore = employee.NewMemory()
		auditSink = audit.NewMemorySink()
		closeStore = func() error { return nil }
		logger.Warn("no database path configured, using in-memory stores")
	}
	defer closeStore()

	// Audit pipeline
	emitter := audit.NewEmitter(auditSink, cfg.Audit.Buffer, logger)
	defer emitter.Close()

	// Registry (type directory) and seed data
	reg := registry.NewService(registryStore, usage, emitter, logger)
	if err := reg.Seed(context.Background()); err != nil {
		logger.Fatal("failed to seed registry", zap.Error(err))
	}

	// Employee directory with its lookup cache
	directory, err := employee.NewDirectory(employeeStore, cfg.Employee.CacheSize, logger)
	if err != nil {
		logger.Fatal("failed to build employee directory", zap.Error(err))
	}

	// Inventory services
	resources := inventory.NewResourceService(txStores, reg, emitter, logger)
	items := inventory.NewItemService(txStores, reg, emitter, logger)
	assignments := inventory.NewAssignmentService(txStores, reg, directory, emitter, logger)

	handler := api.NewHandler(resources, items, assignments, reg, directory, logger)
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting",
			zap.Int("port", cfg.Server.Port),
			zap.String("api", fmt.Sprintf("http://localhost:%d/api", cfg.Server.Port)))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}

func buildLogger(cfg config.LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	var zc zap.Config
	if cfg.Format == "console" {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}
