package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"estate-desk/society-portal/society-portal-backend/internal/config"
	"estate-desk/society-portal/society-portal-backend/internal/notifications"
	"estate-desk/society-portal/society-portal-backend/internal/notifications/websocket"
)

func main() {
	_ = godotenv.Load()

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	cfg, err := config.LoadConfig("config.json")
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	ctx := context.Background()
	dbURL := cfg.Database.GetDatabaseURL()

	sqlxDB, err := sqlx.Connect("postgres", dbURL)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer sqlxDB.Close()

	gormDB, err := gorm.Open(gormpostgres.Open(dbURL), &gorm.Config{})
	if err != nil {
		logger.Fatal("Failed to open gorm connection", zap.Error(err))
	}

	var emailer notifications.Emailer
	if cfg.Email.Enabled {
		sender, err := notifications.NewEmailSender(ctx, cfg.Email.FromAddress, logger)
		if err != nil {
			logger.Fatal("Failed to initialize email sender", zap.Error(err))
		}
		emailer = sender
	}

	// No live hub in the worker process; reminders go out as in-app
	// notifications and email only.
	var hub *websocket.Hub
	notificationsRepo := notifications.NewRepository(gormDB)
	notificationsService := notifications.NewService(notificationsRepo, emailer, hub, cfg.Portal.BaseURL, logger)

	worker := NewReminderWorker(sqlxDB, notificationsService, logger, 24*time.Hour)

	scheduler := cron.New()
	if _, err := scheduler.AddFunc("0 * * * *", func() {
		runCtx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		worker.Run(runCtx)
	}); err != nil {
		logger.Fatal("Failed to schedule reminder job", zap.Error(err))
	}
	scheduler.Start()
	logger.Info("Reminder worker started", zap.String("schedule", "hourly"))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Stopping reminder worker...")
	<-scheduler.Stop().Done()
	logger.Info("Reminder worker exiting")
}
