package main

import (
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	"github.com/basketly/backend/config"
	httpDelivery "github.com/basketly/backend/internal/delivery/http"
	"github.com/basketly/backend/internal/infrastructure/cache"
	"github.com/basketly/backend/internal/infrastructure/stores"
	"github.com/basketly/backend/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting Basketly Backend v1.0.0")
	log.Printf("Environment: %s", cfg.Server.Environment)
	log.Printf("Port: %s", cfg.Server.Port)
	log.Printf("Cache TTL: %s", cfg.Cache.TTL)

	// Initialize infrastructure dependencies
	productCache := cache.NewMemoryCache(cfg.Cache.TTL, cfg.Cache.SweepInterval)

	registry := stores.NewRegistry(
		stores.NewClient("woolworths", "Woolworths", cfg.Stores.BaseURL+"/woolworths", cfg.RateLimit.PerStore),
		stores.NewClient("coles", "Coles", cfg.Stores.BaseURL+"/coles", cfg.RateLimit.PerStore),
		stores.NewClient("iga", "IGA", cfg.Stores.BaseURL+"/iga", cfg.RateLimit.PerStore),
		stores.NewClient("harris", "Harris Farm Markets", cfg.Stores.BaseURL+"/harris", cfg.RateLimit.PerStore),
	)
	log.Printf("Registered stores: %v", registry.ValidIDs())

	orchestrator := stores.NewOrchestrator(registry, cfg.Fetch.Concurrency, cfg.Fetch.PerStoreTimeout)
	log.Printf("Fetch concurrency: %d, per-store timeout: %s", cfg.Fetch.Concurrency, cfg.Fetch.PerStoreTimeout)

	// Initialize usecase layer
	searchService := usecase.NewSearchService(productCache, orchestrator)

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	generator := usecase.NewGenerator(usecase.GeneratorConfig{
		NamePool:            cfg.Lists.NamePool,
		CheapTierMultiplier: cfg.Lists.CheapTierMultiplier,
		MidTierMultiplier:   cfg.Lists.MidTierMultiplier,
	}, rng)

	listService := usecase.NewListService(searchService, generator)

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(searchService, listService, registry, cfg.Fetch.MaxResults)

	// Setup router
	router := httpDelivery.SetupRouter(cfg, handler)

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("Server listening on %s", addr)

	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func init() {
	// Set log flags for better debugging
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.SetOutput(os.Stdout)
}
