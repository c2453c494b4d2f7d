package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"EcomInsights/internal/appmanager"
	"EcomInsights/internal/orders"
)

func main() {
	// Load .env for local dev (ignored when absent)
	_ = godotenv.Load()

	// Shared dataset store, filled by the cron refresher or an upload
	appmanager.SetDatasetStore(orders.NewStore())

	manager := appmanager.NewAppManager()

	// Load service configs from YAML
	configPath := os.Getenv("SERVICES_CONFIG")
	if configPath == "" {
		configPath = "services.yaml"
	}
	servicesCfg, err := appmanager.LoadServiceSequence(configPath)
	if err != nil {
		log.Fatal("failed to load service sequence:", err)
	}

	// Automatically register all services
	manager.AutoRegisterServices(servicesCfg)

	// Start all services
	if err := manager.StartAll(); err != nil {
		log.Fatal("failed to start:", err)
	}

	// Graceful shutdown handling
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs

	// Stop all services
	if err := manager.StopAll(); err != nil {
		log.Fatal("failed to stop:", err)
	}
}
