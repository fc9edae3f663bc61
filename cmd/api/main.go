package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Bethusile/Tuckshop-Stock-Manager/internal/config"
	"github.com/Bethusile/Tuckshop-Stock-Manager/internal/event"
	"github.com/Bethusile/Tuckshop-Stock-Manager/internal/handler"
	"github.com/Bethusile/Tuckshop-Stock-Manager/internal/middleware"
	"github.com/Bethusile/Tuckshop-Stock-Manager/internal/repository"
	"github.com/Bethusile/Tuckshop-Stock-Manager/internal/service"
	"github.com/Bethusile/Tuckshop-Stock-Manager/internal/ws"
	"github.com/Bethusile/Tuckshop-Stock-Manager/pkg/database"
	applog "github.com/Bethusile/Tuckshop-Stock-Manager/pkg/logger"
	"github.com/Bethusile/Tuckshop-Stock-Manager/pkg/rabbitmq"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

func main() {
	// 1. Load config
	cfg, envLoaded := config.Load()

	log, err := applog.New(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if !envLoaded {
		log.Warn(".env file not found, relying on process environment")
	}

	// 2. Setup Database
	db, err := database.ConnectDB(cfg.Database, log)
	if err != nil {
		log.Fatal("database unavailable", zap.Error(err))
	}
	defer database.Close(db)

	if err := repository.Migrate(db); err != nil {
		log.Fatal("migration failed", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Seed categories and starter stock
	if cfg.SeedData {
		created, err := repository.SeedCatalog(ctx, db)
		if err != nil {
			log.Warn("failed to seed catalog", zap.Error(err))
		} else if created > 0 {
			log.Info("starter catalog seeded", zap.Int("products", created))
		}
	}

	// 4. Setup WebSocket Hub and event fan-out
	wsHub := ws.NewHub(log)
	go wsHub.Run(ctx)

	publishers := event.Multi{wsHub}
	if cfg.PublishesToBroker() {
		mq, err := rabbitmq.NewClient(cfg.RabbitMQ, log)
		if err != nil {
			log.Warn("rabbitmq unavailable, events stay local", zap.Error(err))
		} else {
			defer mq.Close()
			publishers = append(publishers, event.NewBrokerPublisher(mq))
		}
	}

	// 5. Dependency Injection (Wiring Layers)
	productRepo := repository.NewProductRepo(db)
	categoryRepo := repository.NewCategoryRepo(db)
	ledgerRepo := repository.NewLedgerRepo(db)

	stockService := service.NewStockService(db, ledgerRepo, productRepo, publishers, log)
	catalogService := service.NewCatalogService(db, productRepo, categoryRepo, stockService, publishers, log)
	dashService := service.NewDashboardService(ledgerRepo, productRepo)

	productHandler := handler.NewProductHandler(catalogService, stockService, log)
	stockHandler := handler.NewStockHandler(stockService, log)
	dashHandler := handler.NewDashboardHandler(dashService, log)

	// 6. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName: cfg.AppName,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(logger.New(logger.Config{
		Format: "${time} ${locals:request_id} ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.UserContext())
		}
		if err != nil {
			log.Error("health check failed", zap.Error(err))
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable"})
		}
		return c.JSON(fiber.Map{"status": "ok", "time": time.Now().UTC(), "ws_clients": wsHub.ClientCount()})
	})

	// 7. Routes
	api := app.Group("/api/v1")
	productHandler.RegisterRoutes(api)
	stockHandler.RegisterRoutes(api)
	dashHandler.RegisterRoutes(api)

	// WebSocket Route
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})
	app.Get("/ws", websocket.New(wsHub.Serve))

	// 8. Graceful Shutdown
	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Error("server stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()

	log.Info("shutting down server")
	if err := app.Shutdown(); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server exited")
}
