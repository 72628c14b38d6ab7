package main

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/eventzx/messaging/internal/cache"
	"github.com/eventzx/messaging/internal/handlers"
	"github.com/eventzx/messaging/internal/middleware"
	"github.com/eventzx/messaging/internal/notify"
	"github.com/eventzx/messaging/internal/realtime"
	"github.com/eventzx/messaging/internal/repository"
	"github.com/eventzx/messaging/internal/service"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/websocket/v2"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	if os.Getenv("JWT_SECRET") == "" {
		log.Fatal("JWT_SECRET is required")
	}

	app := fiber.New(fiber.Config{
		AppName: "EventzX Messaging",
	})

	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     os.Getenv("ALLOWED_ORIGINS"),
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, OPTIONS",
		AllowCredentials: true,
	}))

	db, err := repository.InitDB()
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	redisPassword := os.Getenv("REDIS_PASSWORD")
	redisDB := 0
	if dbStr := os.Getenv("REDIS_DB"); dbStr != "" {
		if parsedDB, err := strconv.Atoi(dbStr); err == nil {
			redisDB = parsedDB
		}
	}

	redisCache := cache.NewRedisCache(redisAddr, redisPassword, redisDB)
	if err := redisCache.Ping(); err != nil {
		log.Printf("WARNING: Redis connection failed: %v. Running without cache.", err)
		redisCache = nil
	} else {
		log.Println("Redis cache connected successfully")
	}
	chatCache := cache.NewChatCache(redisCache)

	// Repositories
	messageRepo := repository.NewMessageRepository(db)
	readStateRepo := repository.NewReadStateRepository(db)
	userRepo := repository.NewUserRepository(db)
	circleRepo := repository.NewCircleRepository(db)

	// Realtime broker: one in-process fan-out shared by services and the hub.
	broker := realtime.NewMemoryBroker()

	var notifier notify.Notifier = notify.NopNotifier{}
	if url := os.Getenv("NOTIFY_WEBHOOK_URL"); url != "" {
		notifier = notify.NewWebhookNotifier(url)
	}

	// Services
	messageService := service.NewMessageService(messageRepo, readStateRepo, userRepo, circleRepo, broker, notifier, chatCache)
	readStateService := service.NewReadStateService(readStateRepo, messageRepo, userRepo, circleRepo, broker, chatCache)
	conversationService := service.NewConversationService(messageRepo, chatCache)

	// Handlers
	wsHandler := handlers.NewWebSocketHandler(broker)
	messageHandler := handlers.NewMessageHandler(messageService)
	conversationHandler := handlers.NewConversationHandler(conversationService, readStateService)

	api := app.Group("/api", middleware.OriginAllowed(), middleware.AuthRequired())

	sendLimiter := limiter.New(limiter.Config{
		Max:        60,
		Expiration: time.Minute,
	})

	api.Post("/messages", sendLimiter, messageHandler.SendMessage)
	api.Get("/messages", messageHandler.GetMessages)
	api.Post("/circles/:id/messages", sendLimiter, messageHandler.SendCircleMessage)
	api.Get("/circles/:id/messages", messageHandler.GetCircleMessages)
	api.Get("/conversations", conversationHandler.GetConversations)
	api.Post("/conversations/:peer_id/read", conversationHandler.MarkConversationRead)
	api.Post("/circles/:id/read", conversationHandler.MarkCircleRead)
	api.Get("/unread", conversationHandler.GetTotalUnread)

	// WebSocket route (websocket upgrade needs special handling)
	app.Use(
		"/ws",
		middleware.OriginAllowed(),
		middleware.AuthRequired(),
		func(c *fiber.Ctx) error {
			if websocket.IsWebSocketUpgrade(c) {
				return c.Next()
			}
			return fiber.ErrUpgradeRequired
		},
	)
	app.Get("/ws", websocket.New(wsHandler.HandleWebSocket))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"message": "EventzX messaging is running",
		})
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s...", port)
	if err := app.Listen(":" + port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
