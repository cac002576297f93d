package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/dragning/internal/app"
	"github.com/shrimpsizemoose/dragning/internal/handlers"
)

func main() {
	configPath := flag.String("config", "config.toml", "path to config file")
	flag.Parse()

	service, err := app.NewService(*configPath)
	if err != nil {
		logger.Error.Fatalf("Failed to load config: %v", err)
	}
	defer service.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := service.BootstrapAdmin(ctx); err != nil {
		logger.Error.Fatalf("Failed to bootstrap admin account: %v", err)
	}

	server := &http.Server{
		Addr:              service.Config.Server.Port,
		Handler:           handlers.NewRouter(service),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error.Printf("Graceful shutdown failed: %v", err)
		}
	}()

	logger.Info.Printf("Starting raffle server on %s (%s)",
		service.Config.Server.Port, app.DatabaseTypeFor(service.Config.Database.DSN))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error.Fatalf("Raffle server failed: %v", err)
	}
	logger.Info.Println("Server stopped")
}
