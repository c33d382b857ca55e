package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"inventory-planner/internal/adapters/cli"
	webAdapter "inventory-planner/internal/adapters/web"
	"inventory-planner/internal/app"
	"inventory-planner/internal/config"
	"inventory-planner/internal/core"
	"inventory-planner/internal/db"
	"inventory-planner/internal/events"
	"inventory-planner/internal/logger"

	"go.uber.org/zap"
)

func main() {
	actorID := flag.Int("actor", 1, "id of the acting user recorded on documents")
	actorName := flag.String("actor-name", "cli", "display name of the acting user")
	ttl := flag.Duration("ttl", 24*time.Hour, "lifetime of tokens issued by the token command")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: planner [flags] <command> [args]\n\nFlags:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\n%s\n  token                                    (print a bearer token for -actor)\n", cli.Usage())
	}
	flag.Parse()
	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	actor := core.Actor{ID: *actorID, Name: *actorName}

	// token needs no database.
	if args[0] == "token" {
		token, err := webAdapter.SignToken(cfg.JWT.Secret, actor, *ttl)
		if err != nil {
			log.Fatalf("token: %v", err)
		}
		fmt.Println(token)
		return
	}

	zlog, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	if err := cfg.RequireDatabase(); err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.Database.URL)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v", err)
	}
	defer pool.Close()

	store := db.NewStore(pool, zlog)
	dispatcher := events.NewDispatcher(zlog)
	dispatcher.Subscribe(events.LogSubscriber(zlog))

	inventoryService := core.NewInventoryService(store, cfg.Planning, dispatcher, zlog)
	procurementService := core.NewProcurementService(store, inventoryService, cfg.Planning, dispatcher, zlog)
	purchaseOrderService := core.NewPurchaseOrderService(store, dispatcher, zlog)
	svc := app.NewAppService(inventoryService, procurementService, purchaseOrderService, zlog)

	if err := cli.NewRunner(svc, actor, os.Stdin, os.Stdout).Run(ctx, args); err != nil {
		zlog.Debug("command failed", zap.String("command", args[0]), zap.Error(err))
		fmt.Fprintln(os.Stderr, "Error:", err)
		pool.Close()
		os.Exit(1)
	}
}
