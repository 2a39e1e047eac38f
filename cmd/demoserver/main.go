package main

import (
	"context"
	"flag"
	"log"

	"github.com/joho/godotenv"

	"github.com/supa-modo/digiplotClassic/internal/app/bootstrap"
)

func main() {
	configPath := flag.String("config", "configs/default.yaml", "path to the YAML config file")
	flag.Parse()

	// Missing .env is fine; it only exists for local overrides.
	_ = godotenv.Load()

	ctx := context.Background()
	runtime, err := bootstrap.NewRuntime(ctx, *configPath)
	if err != nil {
		log.Fatalf("bootstrap demo backend: %v", err)
	}
	if err := runtime.Run(ctx); err != nil {
		log.Fatalf("run demo backend: %v", err)
	}
}
