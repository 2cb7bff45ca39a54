package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/clauseguard/contractreview/backend/config"
	"github.com/clauseguard/contractreview/backend/handler"
	"github.com/clauseguard/contractreview/backend/middleware"
	"github.com/clauseguard/contractreview/backend/pkg/logger"
	"github.com/clauseguard/contractreview/backend/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load("config.yaml")
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	logger.Init(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})

	slog.Info("configuration loaded successfully")

	// Database
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN), &gorm.Config{TranslateError: true})
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	// Redis, shared by the contract locker and the notifier
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		slog.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}

	// Object storage for original documents
	storage, err := service.NewDocumentStorage(&cfg.Minio)
	if err != nil {
		slog.Error("failed to initialize object storage", "error", err)
		os.Exit(1)
	}
	if err := storage.EnsureBucket(context.Background()); err != nil {
		slog.Error("failed to ensure storage bucket", "error", err)
		os.Exit(1)
	}

	// Core services
	store := service.NewStore(db, service.NewContractLocker(redisClient))
	if err := store.Migrate(); err != nil {
		slog.Error("failed to migrate database schema", "error", err)
		os.Exit(1)
	}
	if err := seedOrganizations(store, cfg); err != nil {
		slog.Error("failed to seed organizations", "error", err)
		os.Exit(1)
	}

	geoTable, err := service.LoadGeoRiskTable(cfg.Analysis.GeoRiskPath)
	if err != nil {
		slog.Error("failed to load geopolitical risk table", "error", err)
		os.Exit(1)
	}
	slog.Info("geopolitical risk table loaded", "jurisdictions", geoTable.Len())

	generator, err := service.NewTextGenerator(&cfg.Generator)
	if err != nil {
		slog.Error("failed to initialize text generator", "error", err)
		os.Exit(1)
	}

	notifier := service.NewRedisNotifier(redisClient)
	rules := service.NewRuleEngine(geoTable)
	analyzer := service.NewAnalyzer(store, rules, notifier, cfg, slog.Default())
	redliner := service.NewRedliner(store, notifier, slog.Default())

	// Handlers
	authHandler := handler.NewAuthHandler(cfg)
	contractHandler := handler.NewContractHandler(store, storage, analyzer, redliner, notifier, slog.Default())
	clauseHandler := handler.NewClauseHandler(store)
	draftHandler := handler.NewDraftHandler(store, storage, generator, analyzer, slog.Default())

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(corsMiddleware())
	router.Use(middleware.RateLimit(100, time.Minute))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})

	// Public routes
	api := router.Group("/api")
	{
		api.POST("/auth/login", authHandler.Login)
	}

	// Protected routes
	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(&cfg.Auth))
	{
		protected.GET("/auth/me", authHandler.GetCurrentUser)

		protected.POST("/contracts/upload", contractHandler.Upload)
		protected.GET("/contracts", contractHandler.List)
		protected.GET("/contracts/:id", contractHandler.Get)
		protected.GET("/contracts/:id/status", contractHandler.GetStatus)
		protected.DELETE("/contracts/:id", contractHandler.Delete)
		protected.POST("/contracts/:id/versions", contractHandler.UploadVersion)
		protected.POST("/contracts/:id/analyze", contractHandler.Reanalyze)
		protected.PATCH("/contracts/:id/negotiation-status", contractHandler.UpdateNegotiationStatus)
		protected.GET("/contracts/:id/milestones", contractHandler.ListMilestones)
		protected.GET("/contracts/:id/obligations", contractHandler.ListObligations)

		protected.GET("/versions/:versionId/suggestions", contractHandler.ListSuggestions)
		protected.POST("/versions/:versionId/redline", contractHandler.Redline)
		protected.POST("/versions/:versionId/comments", contractHandler.AddComment)
		protected.GET("/versions/:versionId/comments", contractHandler.ListComments)
		protected.PATCH("/suggestions/:suggestionId/status", contractHandler.UpdateSuggestionStatus)

		protected.POST("/clauses", clauseHandler.Create)
		protected.GET("/clauses", clauseHandler.List)
		protected.GET("/clauses/:id", clauseHandler.Get)
		protected.DELETE("/clauses/:id", clauseHandler.Delete)
		protected.POST("/clauses/find-similar", clauseHandler.FindSimilar)

		protected.POST("/drafts/fill-template", draftHandler.FillTemplate)
		protected.POST("/drafts/generate-clause", draftHandler.GenerateClause)
		protected.POST("/drafts/finalize", draftHandler.Finalize)
	}

	// Create server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		slog.Info("server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	if err := redisClient.Close(); err != nil {
		slog.Warn("redis close failed", "error", err)
	}

	slog.Info("server exited gracefully")
}

// seedOrganizations materializes every organization named in the config user
// list so logins resolve to a record on first request. A user entry may carry
// its organization's plan; absent that, the first entitled plan is assumed.
func seedOrganizations(store *service.Store, cfg *config.Config) error {
	for _, user := range cfg.Users {
		planID := user.Plan
		if planID == "" {
			planID = "enterprise"
			if len(cfg.Analysis.EntitledPlans) > 0 {
				planID = cfg.Analysis.EntitledPlans[0]
			}
		}
		if _, err := store.EnsureOrganization(context.Background(), user.Organization, planID); err != nil {
			return err
		}
	}
	return nil
}

// corsMiddleware handles CORS headers
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, PATCH, DELETE")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "X-Request-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
