package main

import (
	"context"
	"os"
	"time"

	"github.com/Bethusile/Tuckshop-Stock-Manager/internal/config"
	"github.com/Bethusile/Tuckshop-Stock-Manager/internal/repository"
	"github.com/Bethusile/Tuckshop-Stock-Manager/internal/service"
	"github.com/Bethusile/Tuckshop-Stock-Manager/pkg/database"
	applog "github.com/Bethusile/Tuckshop-Stock-Manager/pkg/logger"

	"go.uber.org/zap"
)

// reconcile compares every product's stored stock level with the sum of its
// ledger and exits non-zero when any of them drifted.
func main() {
	cfg, _ := config.Load()

	log, err := applog.New(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	db, err := database.ConnectDB(cfg.Database, log)
	if err != nil {
		log.Fatal("database unavailable", zap.Error(err))
	}
	defer database.Close(db)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	stock := service.NewStockService(db, repository.NewLedgerRepo(db), repository.NewProductRepo(db), nil, log)
	report, err := stock.Reconcile(ctx)
	if err != nil {
		log.Error("reconciliation failed", zap.Error(err))
		os.Exit(2)
	}

	if !report.Consistent {
		log.Error("stock levels drifted from ledger", zap.Int("products", len(report.Discrepancies)))
		os.Exit(1)
	}
	log.Info("stock levels match ledger")
}
