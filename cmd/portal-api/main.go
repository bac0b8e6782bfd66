package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"estate-desk/society-portal/society-portal-backend/internal/auth"
	"estate-desk/society-portal/society-portal-backend/internal/config"
	"estate-desk/society-portal/society-portal-backend/internal/db"
	"estate-desk/society-portal/society-portal-backend/internal/documents"
	"estate-desk/society-portal/society-portal-backend/internal/notifications"
	"estate-desk/society-portal/society-portal-backend/internal/notifications/websocket"
	"estate-desk/society-portal/society-portal-backend/internal/projects"
	"estate-desk/society-portal/society-portal-backend/internal/proposals"
	"estate-desk/society-portal/society-portal-backend/internal/queries"
	"estate-desk/society-portal/society-portal-backend/internal/societies"
	"estate-desk/society-portal/society-portal-backend/internal/voting"
)

// credentialSource adapts the societies member store to the auth layer.
type credentialSource struct {
	repo societies.Repository
}

func (cs *credentialSource) FindCredentials(ctx context.Context, email string) (*auth.Credentials, error) {
	member, err := cs.repo.GetMemberByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return &auth.Credentials{
		MemberID:     member.ID,
		SocietyID:    member.SocietyID,
		Name:         member.Name,
		Email:        member.Email,
		Role:         member.Role,
		PasswordHash: member.PasswordHash,
	}, nil
}

func main() {
	_ = godotenv.Load()

	// Initialize logger
	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	// Load configuration
	cfg, err := config.LoadConfig("config.json")
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	ctx := context.Background()

	// Connect to database
	dbURL := cfg.Database.GetDatabaseURL()
	logger.Info("Connecting to database",
		zap.String("host", cfg.Database.Host),
		zap.String("db", cfg.Database.DBName))

	sqlxDB, err := sqlx.Connect("postgres", dbURL)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer sqlxDB.Close()

	if cfg.Database.MaxConnections > 0 {
		sqlxDB.SetMaxOpenConns(cfg.Database.MaxConnections)
	}
	if cfg.Database.MaxIdleConns > 0 {
		sqlxDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	}

	// The gorm handle shares the same database; the voting and documents
	// repositories use sqlx directly.
	gormDB, err := gorm.Open(gormpostgres.Open(dbURL), &gorm.Config{})
	if err != nil {
		logger.Fatal("Failed to open gorm connection", zap.Error(err))
	}

	if err := gormDB.AutoMigrate(
		&societies.Society{},
		&societies.Member{},
		&societies.Invitation{},
		&projects.RedevelopmentProject{},
		&projects.ProjectStatusHistory{},
		&proposals.Proposal{},
		&notifications.Notification{},
		&queries.Query{},
	); err != nil {
		logger.Fatal("Failed to migrate schema", zap.Error(err))
	}
	if err := db.CreateSchema(sqlxDB); err != nil {
		logger.Fatal("Failed to create schema", zap.Error(err))
	}

	// Live updates hub
	hub := websocket.NewHub(logger)

	// Notifications
	var emailer notifications.Emailer
	if cfg.Email.Enabled {
		sender, err := notifications.NewEmailSender(ctx, cfg.Email.FromAddress, logger)
		if err != nil {
			logger.Fatal("Failed to initialize email sender", zap.Error(err))
		}
		emailer = sender
	} else {
		logger.Info("Email delivery disabled")
	}
	notificationsRepo := notifications.NewRepository(gormDB)
	notificationsService := notifications.NewService(notificationsRepo, emailer, hub, cfg.Portal.BaseURL, logger)
	notificationsHandler := notifications.NewHandler(notificationsService)

	// Societies and auth
	societiesRepo := societies.NewRepository(gormDB)
	societiesService := societies.NewService(societiesRepo, notificationsService, logger)
	societiesHandler := societies.NewHandler(societiesService)

	authService := auth.NewService(&credentialSource{repo: societiesRepo}, cfg.Security.JWTSecret, cfg.Security.TokenExpiry, logger)
	authHandler := auth.NewHandler(authService)

	requireAuth := authService.RequireAuth()
	requireOwner := auth.RequireRole(auth.RoleSocietyOwner)

	// Projects and proposals
	projectsRepo := projects.NewRepository(gormDB)
	projectsService := projects.NewService(projectsRepo, logger)
	projectsHandler := projects.NewHandler(projectsService)

	proposalsRepo := proposals.NewRepository(gormDB)
	proposalsService := proposals.NewService(proposalsRepo, logger)
	proposalsHandler := proposals.NewHandler(proposalsService)

	// Voting
	votingRepo := voting.NewRepository(sqlxDB)
	votingService := voting.NewService(votingRepo, notificationsService, logger)
	votingHandler := voting.NewHandler(votingService, hub, logger)

	// Documents
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Storage.Region))
	if err != nil {
		logger.Fatal("Failed to load AWS config", zap.Error(err))
	}
	objectStore := documents.NewS3ObjectStore(s3.NewFromConfig(awsCfg))
	documentsRepo := documents.NewRepository(sqlxDB)
	documentsService := documents.NewService(documentsRepo, objectStore, cfg.Storage.Bucket, logger)
	documentsHandler := documents.NewHandler(documentsService)

	// Member queries
	queriesService := queries.NewService(gormDB, logger)
	queriesHandler := queries.NewHandler(queriesService, logger)

	// Setup Router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	// CORS Middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Register Routes
	api := router.Group("/api/v1")
	{
		authHandler.RegisterRoutes(api)
		societiesHandler.RegisterRoutes(api, requireAuth, requireOwner)
		projectsHandler.RegisterRoutes(api, requireAuth, requireOwner)
		proposalsHandler.RegisterRoutes(api, requireAuth, requireOwner)
		votingHandler.RegisterRoutes(api, requireAuth, requireOwner)
		documentsHandler.RegisterRoutes(api, requireAuth, requireOwner)
		notificationsHandler.RegisterRoutes(api, requireAuth)
		queriesHandler.RegisterRoutes(api, requireAuth, requireOwner)
	}

	// Health Check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
		})
	})

	// Start Server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen failed", zap.Error(err))
		}
	}()

	logger.Info("Server started", zap.Int("port", cfg.Server.Port))

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exiting")
}
