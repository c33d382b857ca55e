package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

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
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	zlog, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	if err := cfg.RequireDatabase(); err != nil {
		zlog.Fatal("database", zap.Error(err))
	}
	if cfg.JWT.Secret == "" {
		zlog.Fatal("jwt secret not set (PLANNER_JWT_SECRET)")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.Database.URL)
	if err != nil {
		zlog.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	store := db.NewStore(pool, zlog)
	dispatcher := events.NewDispatcher(zlog)
	dispatcher.Subscribe(events.LogSubscriber(zlog))

	inventoryService := core.NewInventoryService(store, cfg.Planning, dispatcher, zlog)
	procurementService := core.NewProcurementService(store, inventoryService, cfg.Planning, dispatcher, zlog)
	purchaseOrderService := core.NewPurchaseOrderService(store, dispatcher, zlog)

	svc := app.NewAppService(inventoryService, procurementService, purchaseOrderService, zlog)
	handler := webAdapter.NewHandler(svc, cfg.HTTP.AllowedOrigins, cfg.JWT.Secret, zlog)

	srv := &http.Server{
		Addr:              ":" + cfg.HTTP.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		zlog.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zlog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Error("forced shutdown", zap.Error(err))
	}
}
