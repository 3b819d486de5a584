// cmd/server/main.go
// Composition root for the lumberjack tournament engine. It wires
// configuration, database connections, and the repository/service
// containers, then blocks until a shutdown signal arrives. HTTP
// routing is an external collaborator and is not built here; a host
// process embeds this engine and adds its own transport on top of
// services.Container.

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lumberjack-engine/internal/config"
	"lumberjack-engine/internal/database"
	"lumberjack-engine/internal/repositories"
	"lumberjack-engine/internal/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := log.New(os.Stdout, "[lumberjack-engine] ", log.LstdFlags|log.Lshortfile)

	conn, err := initializeDatabases(cfg, logger)
	if err != nil {
		logger.Fatalf("failed to initialize databases: %v", err)
	}
	defer conn.Close()

	repos := repositories.NewContainer(conn)
	svc := services.NewContainer(conn, repos, cfg.Tournament, cfg.Server.WorkerPoolSize, logger)
	defer svc.Jobs.Shutdown()

	logger.Printf("lumberjack engine ready in %s mode", cfg.Environment)

	waitForShutdown(logger)
}

func initializeDatabases(cfg *config.Config, logger *log.Logger) (*database.Connections, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return database.Initialize(ctx, database.Config{
		MySQL: database.MySQLConfig{
			DSN:             cfg.Database.MySQL.DSN,
			MaxOpenConns:    cfg.Database.MySQL.MaxOpenConns,
			MaxIdleConns:    cfg.Database.MySQL.MaxIdleConns,
			ConnMaxLifetime: cfg.Database.MySQL.ConnMaxLifetime,
		},
		MongoDB: database.MongoConfig{
			URI:      cfg.Database.MongoDB.URI,
			Database: cfg.Database.MongoDB.Database,
		},
		Redis: database.RedisConfig{
			Addr:     cfg.Database.Redis.Addr,
			Password: cfg.Database.Redis.Password,
			DB:       cfg.Database.Redis.DB,
		},
	}, logger)
}

func waitForShutdown(logger *log.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Println("shutting down")
}
