package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/versecraft/api/internal/auth"
	"github.com/versecraft/api/internal/client"
	"github.com/versecraft/api/internal/config"
	"github.com/versecraft/api/internal/handler"
	"github.com/versecraft/api/internal/middleware"
	"github.com/versecraft/api/internal/service"
	"github.com/versecraft/api/internal/store"
	"github.com/versecraft/api/internal/worker"
	ws "github.com/versecraft/api/internal/websocket"
	wf "github.com/versecraft/api/internal/workflow"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	// Test Redis connection
	ctx := context.Background()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Printf("Warning: Redis not available: %v", err)
	}

	// Initialize Asynq client
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer asynqClient.Close()

	// Initialize validator
	validate := validator.New()

	// Initialize WebSocket hub
	hub := ws.NewHub()
	go hub.Run()

	// Initialize SQLite store (verses, cached structures, lyrics correlation)
	songStore, err := store.New(cfg.SQLite.Path)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer songStore.Close()

	// Initialize external clients
	groqClient := client.NewGroqClient(&cfg.Groq)
	studioClient := client.NewStudioClient(&cfg.Studio)

	// Initialize R2 client (optional - kept files stay local-only without it)
	var r2Client *client.R2Client
	if cfg.R2.AccessKeyID != "" && cfg.R2.SecretAccessKey != "" {
		var err error
		r2Client, err = client.NewR2Client(&cfg.R2)
		if err != nil {
			log.Printf("Warning: R2 client not initialized: %v", err)
		}
	} else {
		log.Println("Info: R2 storage not configured, approved songs stay on local disk")
	}

	// Initialize Zitadel JWKS verifier (optional - falls back to legacy JWT)
	var jwksVerifier *auth.JWKSVerifier
	if cfg.Zitadel.Issuer != "" {
		var err error
		jwksVerifier, err = auth.NewJWKSVerifier(&cfg.Zitadel)
		if err != nil {
			log.Printf("Warning: JWKS verifier not initialized: %v", err)
		} else {
			defer jwksVerifier.Close()
		}
	}

	// Initialize services
	structureService := service.NewStructureService(groqClient, songStore)
	lyricsService := service.NewLyricsService(songStore)
	reviewService := service.NewReviewService(groqClient, songStore, &cfg.Review)
	workflowService := service.NewWorkflowService(redisClient, asynqClient)

	// Initialize handlers
	workflowHandler := handler.NewWorkflowHandler(workflowService, validate)
	structureHandler := handler.NewStructureHandler(structureService, validate)
	lyricsHandler := handler.NewLyricsHandler(structureService, lyricsService, validate)
	debugHandler := handler.NewDebugHandler(studioClient, reviewService, validate)

	// Initialize middleware (with fallback support)
	var authMiddleware *middleware.AuthMiddleware
	if jwksVerifier != nil && cfg.JWT.Secret != "" {
		authMiddleware = middleware.NewAuthMiddlewareWithFallback(jwksVerifier, cfg.JWT.Secret)
	} else if jwksVerifier != nil {
		authMiddleware = middleware.NewAuthMiddleware(jwksVerifier)
	} else {
		authMiddleware = middleware.NewLegacyAuthMiddleware(cfg.JWT.Secret)
	}
	rateLimiter := middleware.NewRateLimiter(redisClient)

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
	})

	// Global middleware
	app.Use(recover.New())
	isDebug := strings.EqualFold(cfg.Server.LogLevel, "debug")
	logFormat := "[${time}] ${status} - ${latency} ${method} ${path}\n"
	if isDebug {
		logFormat = "[${time}] ${status} - ${latency} ${method} ${path} ${queryParams} ${body}\n"
		log.Println("Debug logging enabled")
	}
	app.Use(logger.New(logger.Config{
		Format: logFormat,
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	// Base URL - timestamp
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"timestamp": time.Now().Unix(),
		})
	})

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
			"services": fiber.Map{
				"groq":   groqClient.IsConfigured(),
				"studio": studioClient.IsConfigured(),
				"r2":     r2Client != nil,
				"auth":   jwksVerifier != nil || cfg.JWT.Secret != "",
			},
		})
	})

	// API routes
	api := app.Group("/api", authMiddleware.Authenticate())

	// Song workflow routes
	songs := api.Group("/songs")
	songs.Post("/create", rateLimiter.SongsLimit(cfg.RateLimit.SongsPerHour), workflowHandler.Create)
	songs.Get("/status/:jobId", workflowHandler.Status)
	songs.Get("/result/:jobId", workflowHandler.Result)
	songs.Post("/cancel/:jobId", workflowHandler.Cancel)

	// Structure routes
	structures := api.Group("/structures", rateLimiter.StructuresLimit(cfg.RateLimit.StructuresPerMin))
	structures.Post("/generate", structureHandler.Generate)

	// Lyrics preview routes
	lyrics := api.Group("/lyrics")
	lyrics.Get("/:book/:chapter", lyricsHandler.Preview)

	// Debug routes (isolated driver/review steps)
	debug := api.Group("/debug", rateLimiter.DebugLimit(cfg.RateLimit.DebugPerMin))
	debug.Post("/download", debugHandler.Download)
	debug.Post("/review", debugHandler.Review)

	// WebSocket routes
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/jobs/:jobId", websocket.New(func(c *websocket.Conn) {
		jobID := c.Params("jobId")
		hub.HandleConnection(c, jobID)
	}))

	// Start Asynq worker server
	var archiver wf.Archiver
	if r2Client != nil {
		archiver = r2Client
	}
	go startWorkerServer(cfg, workflowService, structureService, lyricsService, reviewService, studioClient, songStore, archiver, hub)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("Shutting down server...")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	// Start server
	addr := ":" + cfg.Server.Port
	log.Printf("Server starting on %s", addr)
	if err := app.Listen(addr); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

func startWorkerServer(
	cfg *config.Config,
	workflowService *service.WorkflowService,
	structureService *service.StructureService,
	lyricsService *service.LyricsService,
	reviewService *service.ReviewService,
	studioClient *client.StudioClient,
	songStore *store.Store,
	archiver wf.Archiver,
	hub *ws.Hub,
) {
	asynqLogLevel := asynq.InfoLevel
	if strings.EqualFold(cfg.Server.LogLevel, "debug") {
		asynqLogLevel = asynq.DebugLevel
	} else if strings.EqualFold(cfg.Server.LogLevel, "warn") {
		asynqLogLevel = asynq.WarnLevel
	} else if strings.EqualFold(cfg.Server.LogLevel, "error") {
		asynqLogLevel = asynq.ErrorLevel
	}

	// Concurrency 1: at most one workflow drives the studio at a time
	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		asynq.Config{
			Concurrency: 1,
			Queues: map[string]int{
				service.QueueWorkflow: 1,
			},
			LogLevel: asynqLogLevel,
		},
	)

	workflowWorker := worker.NewWorkflowWorker(
		workflowService,
		structureService,
		lyricsService,
		reviewService,
		studioClient,
		songStore,
		archiver,
		&cfg.Workflow,
		hub,
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(service.TaskTypeWorkflow, workflowWorker.ProcessTask)

	if err := srv.Run(mux); err != nil {
		log.Printf("Asynq worker error: %v", err)
	}
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    "SERVICE_ERROR",
			"message": message,
		},
	})
}
