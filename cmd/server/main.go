package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/sirupsen/logrus"

	"cash-reconciliation-service/internal/config"
	"cash-reconciliation-service/internal/database"
	"cash-reconciliation-service/internal/handlers"
	"cash-reconciliation-service/internal/logging"
	"cash-reconciliation-service/internal/repositories"
)

func main() {
	migrateCmd := flag.String("migrate", "", "Migration command (up/down/version)")
	steps := flag.Int("steps", 0, "Number of migration steps (0 means all)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Error loading config: %v", err)
	}
	log := logging.New(cfg)

	if *migrateCmd != "" {
		handleMigration(cfg, log, *migrateCmd, *steps)
		return
	}

	stores, closeStore, err := openStore(cfg, log)
	if err != nil {
		log.Fatalf("Error opening store: %v", err)
	}
	defer closeStore()

	router := handlers.SetupRouter(stores, cfg, log)

	srv := &http.Server{
		Addr:         cfg.ServerAddress,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.WithFields(logrus.Fields{
			"address": cfg.ServerAddress,
			"store":   cfg.StoreDriver,
		}).Info("Server is running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server Shutdown Failed:%+v", err)
	}
	log.Info("Server exited gracefully")
}

func openStore(cfg *config.Config, log *logrus.Logger) (repositories.StoreFactory, func(), error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		log.Warn("Using in-memory store; data is lost on restart")
		return repositories.NewMemoryStoreFactory(), func() {}, nil
	}

	db, err := database.NewConnection(cfg, log)
	if err != nil {
		return nil, nil, err
	}
	return repositories.NewSQLStoreFactory(db), func() { db.Close() }, nil
}

func handleMigration(cfg *config.Config, log *logrus.Logger, command string, steps int) {
	db, err := database.NewConnection(cfg, log)
	if err != nil {
		log.Fatalf("Failed to ensure database exists: %v", err)
	}
	db.Close()

	m, err := migrate.New(
		fmt.Sprintf("file://%s", cfg.Migration.Dir),
		cfg.GetMigrationDBURL(),
	)
	if err != nil {
		log.Fatalf("Failed to initialize migrate: %v", err)
	}
	defer m.Close()

	switch command {
	case "up":
		if steps > 0 {
			err = m.Steps(steps)
		} else {
			err = m.Up()
		}
	case "down":
		if steps > 0 {
			err = m.Steps(-steps)
		} else {
			err = m.Down()
		}
	case "version":
		version, dirty, verErr := m.Version()
		if verErr != nil {
			if errors.Is(verErr, migrate.ErrNilVersion) {
				log.Info("No migrations have been applied yet")
				return
			}
			log.Fatalf("Failed to get version: %v", verErr)
		}
		log.WithFields(logrus.Fields{"version": version, "dirty": dirty}).Info("Current migration version")
		return
	default:
		log.Fatalf("Invalid migration command: %s", command)
	}

	if err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Info("No migration changes to apply")
			return
		}
		log.Fatalf("Migration failed: %v", err)
	}

	log.Info("Migration completed successfully")
}
