package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/jobpilot/backend/auth"
	"github.com/jobpilot/backend/config"
	_ "github.com/jobpilot/backend/docs"
	"github.com/jobpilot/backend/events"
	"github.com/jobpilot/backend/gemini"
	"github.com/jobpilot/backend/handlers"
	"github.com/jobpilot/backend/mcp"
	"github.com/jobpilot/backend/storage"
	"github.com/jobpilot/backend/tools"
	"github.com/jobpilot/backend/workflow"
)

// @title JobPilot API
// @version 1.0
// @description Job search copilot: CV analysis, AI job search, cover letters, tracked applications, recruiter search and live mock interviews.

// @contact.name API Support
// @contact.email support@jobpilot.dev

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8080
// @BasePath /api

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load .env file if present (for local development)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()

	log.Printf("Opening %s key-value store...", cfg.StoreBackend)
	kv, err := storage.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer kv.Close()

	var archive handlers.CVArchiver
	if cfg.CVBucketName != "" {
		cvArchive, err := storage.NewCVArchive(ctx, cfg)
		if err != nil {
			log.Fatalf("Failed to initialize Cloud Storage client: %v", err)
		}
		defer cvArchive.Close()
		archive = cvArchive
		log.Printf("CV files archived to bucket %s", cfg.CVBucketName)
	}

	jwtService := auth.NewJWTService(cfg)
	creds := auth.NewCredentialStore(kv)

	var googleAuth handlers.TokenVerifier
	if cfg.GoogleClientID != "" {
		svc, err := auth.NewGoogleAuthService(ctx, cfg)
		if err != nil {
			log.Fatalf("Failed to initialize Google sign-in: %v", err)
		}
		googleAuth = svc
	}

	log.Println("Initializing Gemini client...")
	geminiClient, err := gemini.NewClient(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to create Gemini client: %v", err)
	}
	defer geminiClient.Close()
	liveDialer := gemini.NewLiveDialer(cfg)

	hub := events.NewHub()
	registry := workflow.NewRegistry(geminiClient, geminiClient, func(id string) workflow.URLOpener {
		return hub.Opener(id)
	}, cfg.LetterLanguage)

	sweepCtx, stopSweeper := context.WithCancel(ctx)
	defer stopSweeper()
	go sweepSessions(sweepCtx, registry, time.Duration(cfg.SessionIdleMinutes)*time.Minute)

	authHandler := handlers.NewAuthHandler(creds, jwtService, googleAuth)
	workflowHandler := handlers.NewWorkflowHandler(registry, hub, creds, archive)
	interviewHandler := handlers.NewInterviewHandler(workflowHandler, liveDialer, cfg.LiveVoice, cfg.AllowedOrigins)

	toolRegistry := tools.NewToolRegistry(
		tools.NewExtractCVTool(geminiClient),
		tools.NewSearchJobsTool(geminiClient),
		tools.NewCoverLetterTool(geminiClient, cfg.LetterLanguage),
		tools.NewSearchCandidatesTool(geminiClient),
	)
	mcpServer := mcp.NewServer(toolRegistry, "jobpilot", handlers.Version)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gin.Logger())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/health", handlers.HealthCheck(registry))

	api := router.Group("/api")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/google", authHandler.GoogleLogin)
			authGroup.GET("/me", auth.AuthMiddleware(jwtService), authHandler.Me)
		}

		api.POST("/sessions", auth.OptionalAuthMiddleware(jwtService), workflowHandler.CreateSession)
		api.GET("/sessions/current", auth.AuthMiddleware(jwtService), workflowHandler.CurrentSession)

		sessions := api.Group("/sessions/:id")
		sessions.Use(auth.OptionalAuthMiddleware(jwtService))
		{
			sessions.GET("", workflowHandler.GetSession)
			sessions.GET("/events", workflowHandler.Events)
			sessions.POST("/cv/upload", workflowHandler.UploadCV)
			sessions.POST("/analysis", workflowHandler.StartAnalysis)
			sessions.POST("/reset", workflowHandler.Reset)
			sessions.POST("/retry", workflowHandler.Retry)

			sessions.POST("/applications/select-all", workflowHandler.ToggleSelectAll)
			sessions.POST("/applications/:appId/select", workflowHandler.ToggleSelect)
			sessions.POST("/applications/:appId/letter", workflowHandler.GenerateLetter)
			sessions.POST("/applications/:appId/apply", workflowHandler.Apply)
			sessions.POST("/applications/:appId/confirm", workflowHandler.ConfirmSent)
			sessions.POST("/applications/:appId/cancel", workflowHandler.CancelConfirmation)
			sessions.GET("/applications/:appId/interview", interviewHandler.Interview)

			sessions.POST("/bulk/generate", workflowHandler.BulkGenerate)
			sessions.POST("/bulk/apply", workflowHandler.BulkApply)
			sessions.POST("/bulk/confirm", workflowHandler.ConfirmBulkSent)
			sessions.POST("/bulk/cancel", workflowHandler.CancelBulkConfirmation)

			sessions.POST("/recruiter/search", workflowHandler.SearchCandidates)
			sessions.GET("/recruiter", workflowHandler.RecruiterState)
		}

		// MCP endpoints for external AI agents
		mcpServer.RegisterRoutes(api)
	}

	// WriteTimeout stays off: event streams and interviews are long-lived.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		log.Printf("Starting server on port %s...", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited gracefully")
}

func sweepSessions(ctx context.Context, registry *workflow.Registry, maxIdle time.Duration) {
	if maxIdle <= 0 {
		return
	}
	ticker := time.NewTicker(maxIdle / 4)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			registry.Sweep(maxIdle)
		}
	}
}
