package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/dragning/internal/app"
	"github.com/shrimpsizemoose/dragning/internal/export"
)

func main() {
	var configPath = flag.String("config", "config.toml", "Path to config file")
	flag.Parse()

	service, err := app.NewService(*configPath)
	if err != nil {
		logger.Error.Fatalf("Failed to load config: %v", err)
	}
	defer service.Close()

	exporter, err := export.NewExporter(service)
	if err != nil {
		logger.Error.Fatalf("Failed to initialize exporter: %v", err)
	}
	if exporter.Jobs() == 0 {
		logger.Error.Fatalf("Nothing to do: set export.sheet_id or export.backup_schedule")
	}

	exporter.Start()
	defer exporter.Stop()
	logger.Info.Printf("Exporter started with %d scheduled jobs", exporter.Jobs())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info.Println("Exporter stopped")
}
