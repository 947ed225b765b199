// Command schema applies the embedded database schema. It is idempotent and
// meant to be run on demand, before the first start of the server or after an
// upgrade.
package main

import (
	"context"
	"log"
	"time"

	"pos-service/config"
	"pos-service/internal/store"
	"pos-service/internal/util"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()
	logger := util.GetLogger()

	db, err := store.NewStore(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := db.InitSchema(ctx); err != nil {
		logger.Fatal("Schema initialization failed", zap.Error(err))
	}
	logger.Info("Schema applied")
}
