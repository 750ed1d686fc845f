// Package main runs the dojo registration HTTP server with graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/dojohub/backend/config"
	"github.com/dojohub/backend/internal/accounts"
	"github.com/dojohub/backend/internal/auth"
	"github.com/dojohub/backend/internal/clock"
	"github.com/dojohub/backend/internal/donations"
	"github.com/dojohub/backend/internal/emaillogs"
	"github.com/dojohub/backend/internal/events"
	"github.com/dojohub/backend/internal/ledger"
	"github.com/dojohub/backend/internal/middleware"
	"github.com/dojohub/backend/internal/models"
	"github.com/dojohub/backend/internal/notify"
	"github.com/dojohub/backend/pkg/database"
	"github.com/dojohub/backend/pkg/queue"
	"github.com/dojohub/backend/pkg/redis"
	"github.com/dojohub/backend/pkg/response"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	jobQueue := queue.NewQueue(rdb.Client, logger)
	dispatcher := notify.NewQueueDispatcher(jobQueue, cfg.Site, logger)
	clk := clock.NewSystem()

	// Auth
	authRepo := auth.NewRepository(pool)
	authHandler := auth.NewHandler(authRepo, jwtService, logger)

	// Accounts (mentor directory, guardian students)
	accountsRepo := accounts.NewRepository(pool)
	accountsHandler := accounts.NewHandler(accountsRepo, logger)

	// Events: catalog plus the registration ledger on top of it
	eventsRepo := events.NewRepository(pool)
	ledgerSvc := ledger.NewService(eventsRepo, dispatcher, clk, logger)
	sessionsHandler := events.NewSessionsHandler(eventsRepo, accountsRepo, ledgerSvc, clk, cfg.Site, logger)
	meetingsHandler := events.NewMeetingsHandler(eventsRepo, accountsRepo, ledgerSvc, clk, logger)

	// Donations
	donationsRepo := donations.NewRepository(pool)
	donationsHandler := donations.NewHandler(donationsRepo, dispatcher, logger)

	emailLogsRepo := emaillogs.NewRepository(pool)
	emailLogsHandler := emaillogs.NewHandler(emailLogsRepo, jobQueue)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Auth (public)
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/register", authHandler.Register)
	}

	// Public pages. Claims are optional: signed-in mentors see mentor-pool
	// spots, everyone else sees the student view.
	public := router.Group("")
	public.Use(middleware.OptionalJWT(jwtService))
	{
		public.GET("/sessions", sessionsHandler.List)
		public.GET("/sessions/:id", sessionsHandler.Get)
		public.GET("/meetings", meetingsHandler.List)
		public.GET("/meetings/:id", meetingsHandler.Get)
		public.GET("/mentors", accountsHandler.ListMentors)
		public.GET("/mentors/:id", accountsHandler.GetMentor)
	}

	// Donations: the form posts anonymously, the payment provider calls back.
	router.POST("/donations", donationsHandler.Create)
	router.POST("/donations/:id/verify", donationsHandler.Verify)

	// Protected API (JWT required)
	api := router.Group("")
	api.Use(middleware.JWT(jwtService))
	{
		api.POST("/sessions/:id/signup", sessionsHandler.SignUp)
		api.POST("/sessions/:id/waitlist", sessionsHandler.Waitlist)
		api.POST("/meetings/:id/signup", meetingsHandler.SignUp)

		// Guardian student management
		api.GET("/students", middleware.RequireRole(models.RoleGuardian), accountsHandler.ListMyStudents)
		api.POST("/students", middleware.RequireRole(models.RoleGuardian), accountsHandler.CreateStudent)
		api.GET("/students/:id", middleware.RequireRole(models.RoleGuardian), accountsHandler.GetStudent)
		api.PUT("/students/:id", middleware.RequireRole(models.RoleGuardian), accountsHandler.UpdateStudent)

		// Admin: check-in roster, stats, email logs
		api.GET("/sessions/:id/orders", middleware.RequireRole(models.RoleAdmin), sessionsHandler.Orders)
		api.POST("/sessions/:id/checkin", middleware.RequireRole(models.RoleAdmin), sessionsHandler.CheckIn)
		api.GET("/sessions/:id/stats", middleware.RequireRole(models.RoleAdmin), sessionsHandler.Stats)
		api.GET("/sessions/:id/emails", middleware.RequireRole(models.RoleAdmin), emailLogsHandler.ListBySession)
		api.POST("/emails/:id/resend", middleware.RequireRole(models.RoleAdmin), emailLogsHandler.Resend)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
