// main.go

package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"querykv/internal/config"
	"querykv/internal/handler"
	"querykv/internal/persistence"
	"querykv/internal/query"
	"querykv/internal/server"
	"querykv/internal/store"
)

func main() {
	// A .env file is a convenience for development; absence is normal.
	_ = godotenv.Load()

	cfg := config.LoadConfig()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	})))

	// 1. Initialize the in-memory store and restore collections from the
	// last snapshot pass, configured names included.
	db := store.NewStore()
	persistence.LoadAll(db, cfg.DataDir, cfg.Collections)

	// 2. Start the background snapshot scheduler, the only writer to disk.
	snapshots := persistence.NewSnapshotManager(db, cfg.DataDir, cfg.SnapshotInterval, cfg.SnapshotsEnabled)
	go snapshots.Start()

	// 3. Serve the TCP protocol.
	executor := query.NewExecutor(db)
	connHandler := handler.NewConnectionHandler(db, executor)
	srv := server.NewServer(cfg.ListenAddr, cfg.MaxConnections, connHandler)
	if err := srv.Start(); err != nil {
		slog.Error("Could not start server", "error", err)
		os.Exit(1)
	}

	// 4. Block until a termination signal, then stop in dependency order.
	// Durability comes from the last completed snapshot pass; there is no
	// final flush on the way out.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	slog.Info("Termination signal received. Shutting down...")
	srv.Stop()
	snapshots.Stop()
	slog.Info("Shutdown complete.")
}
