package main

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"inventory-planner/internal/config"
	"inventory-planner/internal/db"
	"inventory-planner/internal/logger"

	"go.uber.org/zap"
)

const usage = `Usage: migrate <command>

Commands:
  up            apply all pending migrations (default)
  down          roll back every migration
  steps <n>     apply n migrations (negative n rolls back)
  version       print the current schema version
  force <v>     mark version v as clean after a failed migration`

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[CONFIG] %v", err)
	}
	if err := cfg.RequireDatabase(); err != nil {
		log.Fatalf("[CONFIG] %v", err)
	}
	zlog, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("[LOGGER] %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	cmd := "up"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	m, err := db.NewMigrator(cfg.Database.URL, zlog)
	if err != nil {
		zlog.Fatal("migrator", zap.Error(err))
	}
	defer func() {
		if err := m.Close(); err != nil {
			zlog.Warn("close migrator", zap.Error(err))
		}
	}()

	if err := run(m, cmd, os.Args[2:]); err != nil {
		zlog.Error("migration failed", zap.String("command", cmd), zap.Error(err))
		_ = m.Close()
		os.Exit(1)
	}
}

func run(m *db.Migrator, cmd string, args []string) error {
	switch cmd {
	case "up":
		return m.Up()
	case "down":
		return m.Down()
	case "steps":
		n, err := intArg(args)
		if err != nil {
			return err
		}
		return m.Steps(n)
	case "version":
		v, dirty, err := m.Version()
		if err != nil {
			return err
		}
		fmt.Printf("version %d (dirty: %t)\n", v, dirty)
		return nil
	case "force":
		v, err := intArg(args)
		if err != nil {
			return err
		}
		return m.Force(v)
	}
	return fmt.Errorf("unknown command %q\n%s", cmd, usage)
}

func intArg(args []string) (int, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("expected one integer argument\n%s", usage)
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("invalid integer %q", args[0])
	}
	return n, nil
}
