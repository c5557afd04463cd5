package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"loyalty-backend/internal/auth"
	"loyalty-backend/internal/card"
	cardapi "loyalty-backend/internal/card/api"
	carddb "loyalty-backend/internal/card/db"
	"loyalty-backend/internal/card/qr"
	"loyalty-backend/internal/catalog"
	catalogapi "loyalty-backend/internal/catalog/api"
	catalogdb "loyalty-backend/internal/catalog/db"
	commentapi "loyalty-backend/internal/comment/api"
	commentdb "loyalty-backend/internal/comment/db"
	"loyalty-backend/internal/config"
	"loyalty-backend/internal/database/migrations"
	"loyalty-backend/internal/event"
	eventapi "loyalty-backend/internal/event/api"
	eventdb "loyalty-backend/internal/event/db"
	eventredis "loyalty-backend/internal/event/redis"
	"loyalty-backend/internal/kafka"
	"loyalty-backend/internal/logger"
	"loyalty-backend/internal/order"
	orderapi "loyalty-backend/internal/order/api"
	orderdb "loyalty-backend/internal/order/db"
	shopapi "loyalty-backend/internal/shop/api"
	shopdb "loyalty-backend/internal/shop/db"
)

func connectPostgres(cfg config.DatabaseConfig, log *logger.Logger) *bun.DB {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.Database)

	connector := pgdriver.NewConnector(pgdriver.WithDSN(dsn))
	sqldb := sql.OpenDB(connector)
	sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.MaxLifetime)

	if err := sqldb.Ping(); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("❌ Failed to connect to Postgres: %v", err))
	}
	log.Info("DATABASE", "🔗 Postgres connection successful")

	return bun.NewDB(sqldb, pgdialect.New())
}

func main() {
	_ = godotenv.Load() // Loads .env file if present

	ctx := context.Background()
	cfg := config.Load()

	log := logger.NewLogger()
	defer log.Close()

	// --- PostgreSQL Setup ---
	bunDB := connectPostgres(cfg.Database, log)
	defer bunDB.Close()

	// Run migrations
	runner := migrations.NewRunner(bunDB, migrations.DefaultOptions())
	if err := runner.RunMigrations(); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("❌ Migrations failed: %v", err))
	}
	defer runner.Close()

	// --- Redis Setup ---
	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.Redis.Addr,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("REDIS", fmt.Sprintf("❌ Failed to connect to Redis: %v", err))
	}
	log.Info("REDIS", "🔗 Redis connection successful")

	// --- Kafka Setup ---
	var producer *kafka.Producer
	if cfg.Kafka.Enabled {
		topics := []string{
			cfg.Kafka.Topics.OrderCreated,
			cfg.Kafka.Topics.PromotionApplied,
			cfg.Kafka.Topics.CardPointsChanged,
		}
		if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, topics); err != nil {
			log.Warn("KAFKA", fmt.Sprintf("topic creation failed, continuing: %v", err))
		}
		producer = kafka.NewProducer(cfg.Kafka)
		defer producer.Close()
		log.Info("KAFKA", "🔗 Kafka producer ready")
	}

	// --- Initialize Dependencies ---
	log.Info("STARTUP", "📦 Initializing loyalty services...")

	cardDB := &carddb.DB{Bun: bunDB}
	cardService := card.NewCardService(cardDB, log)
	qrGen := qr.NewQRGenerator(cfg.Auth.QRSecret)
	cardHandler := cardapi.NewHandler(cardService, qrGen, log)

	catalogDB := &catalogdb.DB{Bun: bunDB}
	catalogService := catalog.NewCatalogService(catalogDB, log)
	catalogHandler := catalogapi.NewHandler(catalogService, log)

	orderDB := &orderdb.DB{Bun: bunDB}
	var orderKafka order.KafkaPublisher
	var eventKafka event.KafkaPublisher
	if producer != nil {
		orderKafka = producer
		eventKafka = producer
	}
	orderService := order.NewOrderService(orderDB, catalogService, orderKafka, log)
	orderHandler := orderapi.NewHandler(orderService, log)

	eventDB := &eventdb.DB{Bun: bunDB}
	akceLock := &eventredis.Redis{Client: redisClient, LockTTL: cfg.Redis.LockTTL}
	eventService := event.NewService(eventDB, cardDB, orderDB, akceLock, eventKafka, log)
	eventService.CriteriaOnWorkingState = cfg.Engine.CriteriaOnWorkingState
	eventHandler := eventapi.NewHandler(eventService, log)

	shopHandler := shopapi.NewHandler(&shopdb.DB{Bun: bunDB}, log)
	commentHandler := commentapi.NewHandler(&commentdb.DB{Bun: bunDB}, log)

	// --- Setup Router ---
	r := chi.NewRouter()

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/cards", cardHandler.CreateCard)
		r.Get("/cards/{cardId}", cardHandler.GetCard)
		r.Get("/cards/by-phone/{phone}", cardHandler.GetCardByPhone)
		r.Patch("/cards/{cardId}", cardHandler.UpdateCard)
		r.Delete("/cards/{cardId}", cardHandler.DeleteCard)
		r.Get("/cards/{cardId}/qr", cardHandler.GetCardQR)

		r.Post("/orders", orderHandler.CreateOrder)
		r.Get("/orders/{orderId}", orderHandler.GetOrder)
		r.Delete("/orders/{orderId}", orderHandler.DeleteOrder)
		r.Get("/users/{userId}/orders", orderHandler.GetUserOrders)
		r.Post("/orders/akce", eventHandler.ApplyAkce)

		r.Post("/akce", eventHandler.CreateAkce)
		r.Get("/akce", eventHandler.GetActiveAkce)
		r.Get("/akce/all", eventHandler.GetAllAkce)
		r.Get("/akce/{akceId}", eventHandler.GetAkce)
		r.Delete("/akce/{akceId}", eventHandler.DeleteAkce)

		r.Post("/items", catalogHandler.CreateItem)
		r.Get("/items", catalogHandler.ListItems)
		r.Get("/items/{itemId}", catalogHandler.GetItem)
		r.Post("/items/{itemId}/ingredients", catalogHandler.AddIngredient)
		r.Patch("/ingredients/{ingredientId}", catalogHandler.UpdateIngredient)
		r.Delete("/ingredients/{ingredientId}", catalogHandler.DeleteIngredient)
		r.Get("/items/{itemId}/comments", commentHandler.ListItemComments)

		r.Post("/products", catalogHandler.CreateProduct)
		r.Get("/products", catalogHandler.ListProducts)
		r.Get("/products/{productId}", catalogHandler.GetProduct)
		r.Patch("/products/{productId}", catalogHandler.UpdateProduct)

		r.Post("/shops", shopHandler.CreateShop)
		r.Get("/shops", shopHandler.ListShops)
		r.Get("/shops/{shopId}", shopHandler.GetShop)
		r.Delete("/shops/{shopId}", shopHandler.DeleteShop)
		r.Post("/shops/{shopId}/products", shopHandler.LinkProduct)
		r.Get("/shops/{shopId}/products", shopHandler.ListShopProducts)

		r.Delete("/comments/{commentId}", commentHandler.DeleteComment)

		// Routes below need the caller's identity from the bearer token
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware())
			r.Get("/cards/mine", cardHandler.GetMyCard)
			r.Get("/orders/mine", orderHandler.GetMyOrders)
			r.Post("/comments", commentHandler.CreateComment)
		})
	})

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("STARTUP", fmt.Sprintf("🚀 Loyalty Service running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("STARTUP", fmt.Sprintf("❌ HTTP server error: %v", err))
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("SHUTDOWN", "📦 Shutdown signal received. Cleaning up...")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Fatal("SHUTDOWN", fmt.Sprintf("❌ Server forced to shutdown: %v", err))
	}

	log.Info("SHUTDOWN", "✅ Server exited gracefully")
}
