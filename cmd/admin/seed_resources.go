package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/vietddude/mend/internal/core/config"
	"github.com/vietddude/mend/internal/resource"
)

// Seeds the Redis resource roster from the config file. Run it once before
// starting mend with a shared roster.
func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(err)
	}
	if cfg.Resources.Redis.URL == "" {
		fmt.Println("No redis url configured, nothing to seed")
		os.Exit(1)
	}

	pool, err := resource.NewRedisPool(cfg.Resources.Redis)
	if err != nil {
		panic(err)
	}
	defer pool.Close()

	if err := pool.Seed(context.Background(), cfg.Resources.IDs); err != nil {
		panic(err)
	}

	fmt.Printf("Successfully seeded %d resources into the roster\n", len(cfg.Resources.IDs))
}
