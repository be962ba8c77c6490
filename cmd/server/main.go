package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"httpquery/internal/api"
	"httpquery/internal/config"
	"httpquery/internal/convert"
	"httpquery/internal/match"
	"httpquery/internal/metadata"
	"httpquery/internal/query"
	"httpquery/internal/store"
)

func main() {
	configPath := flag.String("config", "", "config file (default ./app.yaml)")
	verbose := flag.Bool("verbose", false, "log every dropped query parameter")
	flag.Parse()

	ctx := context.Background()

	// 1. Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.Printf("Config loaded (port: %d, metadata: %s)", cfg.Server.Port, cfg.Metadata.Source)

	// 2. Load entity metadata from the definition file or the database
	reg := metadata.NewRegistry()
	if err := store.LoadMetadata(ctx, cfg, reg); err != nil {
		log.Fatalf("Failed to load metadata: %v", err)
	}
	log.Printf("Registry ready (%d entities)", len(reg.AllEntities()))

	// 3. Converters and the filter builder
	conv := convert.NewRegistry()
	var opts []query.Option
	if *verbose {
		opts = append(opts, query.WithLogger(log.Default()))
	}
	builder := query.NewFromConfig(cfg.HTTPQuery, conv, reg, opts...)

	// 4. Create Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: api.ErrorHandler,
	})
	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))
	app.Use(logger.New(logger.Config{
		Format: "${time} ${status} ${method} ${path} ${latency}\n",
	}))

	// 5. Routes
	evaluator := match.NewEvaluator(cfg.Server.MatchCacheSize)
	api.RegisterRoutes(app, api.NewHandler(reg, conv, builder, evaluator))

	// 6. Start server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("Starting server on %s", addr)
	log.Fatal(app.Listen(addr))
}
