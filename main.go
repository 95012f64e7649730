package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"StockBacktest/config"
	"StockBacktest/internal/handlers"
	"StockBacktest/internal/helpers"
	"StockBacktest/internal/models"
	"StockBacktest/internal/operations/backtest"
	"StockBacktest/internal/operations/fubon"
	"StockBacktest/internal/operations/price"
	"StockBacktest/internal/operations/stocklist"
	"StockBacktest/internal/repositories"
	"StockBacktest/internal/services/status"
	"StockBacktest/internal/services/strategy"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		helpers.Logger.Fatal("Failed to load config: ", err)
	}

	// Setup database
	db := setupDatabase(cfg.Database)

	// Initialize repositories
	stockRepo := repositories.NewStockRepository(db)
	priceRepo := repositories.NewPriceRepository(db)

	// Initialize market-data client and ingestion operations
	fubonClient := fubon.NewClient(cfg.Fubon.BaseURL, cfg.Fubon.APIKey)
	statusSvc := status.NewStatusService()
	fetcher := price.NewFetcher(fubonClient, stockRepo, priceRepo, statusSvc)
	recorder := price.NewRecorder(fubonClient, stockRepo, priceRepo)
	stockSyncer := stocklist.NewSyncer(fubonClient, stockRepo)

	// Initialize backtest engine
	barSource := repositories.NewBarSource(stockRepo, priceRepo)
	strategyManager := strategy.NewStrategyManager()
	engine := backtest.NewEngine(barSource, strategyManager)

	// Setup context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start the nightly snapshot recorder
	go recorder.StartRecording(ctx)

	// Setup HTTP server
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.Logger())

	handlers.NewBacktestHandler(engine).RegisterRoutes(e)
	handlers.NewCandleHandler(stockRepo, priceRepo).RegisterRoutes(e)
	handlers.NewPriceHandler(fetcher, recorder, statusSvc).RegisterRoutes(e)
	handlers.NewStockHandler(stockSyncer).RegisterRoutes(e)

	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			helpers.Logger.Fatal("Server stopped: ", err)
		}
	}()
	helpers.Logger.Infof("Listening on port %d", cfg.Server.Port)

	// Handle shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	helpers.Logger.Info("Shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		helpers.Logger.Error("Shutdown error: ", err)
	}
	helpers.Logger.Info("Shutdown complete")
}

func setupDatabase(dbConfig config.DatabaseConfig) *gorm.DB {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		dbConfig.Host,
		dbConfig.Port,
		dbConfig.User,
		dbConfig.Password,
		dbConfig.DBName)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Error),
	})
	if err != nil {
		helpers.Logger.Fatal("Failed to connect to database: ", err)
	}

	// Auto migrate database schemas
	if err := db.AutoMigrate(&models.Stock{}, &models.DailyPrice{}); err != nil {
		helpers.Logger.Fatal("Failed to migrate database: ", err)
	}

	return db
}
