package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"team-service/internal/background"
	"team-service/internal/clients"
	"team-service/internal/config"
	"team-service/internal/handlers"
	"team-service/internal/metrics"
	"team-service/internal/middleware"
	natsClient "team-service/internal/nats"
	redisClient "team-service/internal/redis"
	"team-service/internal/repository"
	"team-service/internal/services"
)

func main() {
	cfg := config.New()
	log := newLogger(cfg)

	if cfg.App.JWTSecret == "" {
		log.Fatal("JWT_SECRET must be configured")
	}
	if cfg.App.InternalSecretHash == "" && cfg.App.InternalSecret == "" {
		log.Fatal("INTERNAL_SECRET_HASH (or INTERNAL_SECRET in development) must be configured")
	}

	db, err := initDatabase(cfg)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize database")
	}
	if err := repository.Migrate(db); err != nil {
		log.WithError(err).Fatal("failed to migrate database")
	}

	// Redis is optional: without it the seat summary endpoint reads straight
	// from Postgres and every replica runs the sweep.
	seatTTL := time.Duration(cfg.Invitation.SeatCacheTTLSeconds) * time.Second
	var rc *redisClient.Client
	rc, err = redisClient.NewClient(cfg.Redis, seatTTL, log)
	if err != nil {
		log.WithError(err).Warn("Redis unavailable, seat caching and sweep locking disabled")
		rc = nil
	} else {
		log.Info("connected to Redis")
		defer rc.Close()
	}

	// NATS is optional: events are best-effort.
	var nc *natsClient.Client
	nc, err = natsClient.NewClient(cfg.NATS.URL, log)
	if err != nil {
		log.WithError(err).Warn("NATS unavailable, event publishing disabled")
		nc = nil
	} else {
		log.Info("connected to NATS")
		defer nc.Close()
	}

	// Repositories
	orgRepo := repository.NewOrganizationRepository(db, log)
	invitationRepo := repository.NewInvitationRepository(db, log)
	profileRepo := repository.NewProfileRepository(db, log)

	// Services
	expiryWindow := time.Duration(cfg.Invitation.ExpiryHours) * time.Hour
	invitationSvc := services.NewInvitationService(
		invitationRepo,
		orgRepo,
		profileRepo,
		expiryWindow,
		cfg.Invitation.AcceptBaseURL,
		log,
	)
	membershipSvc := services.NewMembershipService(profileRepo, orgRepo, log)

	notificationClient := clients.NewNotificationClient(
		cfg.Integration.NotificationServiceURL,
		cfg.Integration.NotificationAPIKey,
	)
	invitationSvc.SetNotifier(notificationClient)

	if nc != nil {
		invitationSvc.SetPublisher(nc)
		membershipSvc.SetPublisher(nc)
	}
	if rc != nil {
		invitationSvc.SetSeatCache(rc)
		membershipSvc.SetSeatCache(rc)
	}

	// Handlers
	healthHandler := handlers.NewHealthHandler(db, nc, rc)
	invitationHandler := handlers.NewInvitationHandler(invitationSvc, log)
	membershipHandler := handlers.NewMembershipHandler(membershipSvc, log)
	internalHandler := handlers.NewInternalHandler(invitationSvc, log)

	// In-process sweep, complementing the scheduled internal endpoint.
	sweepInterval := time.Duration(cfg.Invitation.SweepIntervalMinutes) * time.Minute
	bgRunner := background.NewRunner(invitationSvc, sweepInterval, log)
	if rc != nil {
		bgRunner.SetLocker(rc)
	}
	bgRunner.Start()

	router := setupRouter(cfg, log, healthHandler, invitationHandler, membershipHandler, internalHandler)

	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.WithField("addr", server.Addr).Info("starting team-service")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down team-service")
	bgRunner.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Error("forced shutdown")
	}
	log.Info("team-service stopped")
}

func setupRouter(
	cfg *config.Config,
	log *logrus.Logger,
	healthHandler *handlers.HealthHandler,
	invitationHandler *handlers.InvitationHandler,
	membershipHandler *handlers.MembershipHandler,
	internalHandler *handlers.InternalHandler,
) *gin.Engine {
	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{
		"http://localhost:3000",
		"https://app.adsapp.io",
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"}
	corsConfig.AllowCredentials = true

	router.Use(cors.New(corsConfig))
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(log))
	router.Use(metrics.Middleware())

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)

	v1 := router.Group("/api/v1")
	v1.Use(middleware.Auth(cfg.App.JWTSecret))
	{
		invitations := v1.Group("/invitations")
		{
			invitations.POST("", invitationHandler.Create)
			invitations.GET("", invitationHandler.List)
			invitations.GET("/:invitationId", invitationHandler.Get)
			invitations.DELETE("/:invitationId", invitationHandler.Revoke)
			invitations.POST("/accept", invitationHandler.Accept)
		}

		v1.GET("/organizations/seats", invitationHandler.Seats)

		members := v1.Group("/members")
		{
			members.GET("", membershipHandler.List)
			members.DELETE("/:userId", membershipHandler.Remove)
		}
	}

	internal := router.Group("/internal")
	internal.Use(middleware.InternalAuth(cfg.App.InternalSecretHash, cfg.App.InternalSecret))
	{
		internal.POST("/invitations/sweep-expired", internalHandler.SweepExpired)
	}

	return router
}

func initDatabase(cfg *config.Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Name,
		cfg.Database.SSLMode,
	)

	// TranslateError maps unique violations to gorm.ErrDuplicatedKey, which
	// the duplicate-pending-invitation guard depends on.
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}

func newLogger(cfg *config.Config) *logrus.Logger {
	log := logrus.New()
	if cfg.App.Environment == "production" {
		log.SetFormatter(&logrus.JSONFormatter{})
	}
	if level, err := logrus.ParseLevel(cfg.App.LogLevel); err == nil {
		log.SetLevel(level)
	}
	return log
}
