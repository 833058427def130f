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

	"activity-giveaway-bot/internal/common/config"
	"activity-giveaway-bot/internal/common/logger"
	"activity-giveaway-bot/internal/common/middleware"
	activityrepo "activity-giveaway-bot/internal/features/activity/repository"
	activityfile "activity-giveaway-bot/internal/features/activity/repository/file"
	activityredis "activity-giveaway-bot/internal/features/activity/repository/redis"
	activityservice "activity-giveaway-bot/internal/features/activity/service"
	giveawayhttp "activity-giveaway-bot/internal/features/giveaway/delivery/http"
	giveawayrepo "activity-giveaway-bot/internal/features/giveaway/repository"
	giveawayfile "activity-giveaway-bot/internal/features/giveaway/repository/file"
	giveawayredis "activity-giveaway-bot/internal/features/giveaway/repository/redis"
	giveawayservice "activity-giveaway-bot/internal/features/giveaway/service"
	"activity-giveaway-bot/internal/platform/discord"
	redisplatform "activity-giveaway-bot/internal/platform/redis"
)

func main() {
	cfg := config.Load()
	logger.Init("activity-giveaway-bot", cfg.Debug)

	activityRepo, giveawayRepo, cleanup := buildRepositories(cfg)
	defer cleanup()

	activitySvc := activityservice.NewActivityService(activityRepo)
	giveawaySvc := giveawayservice.NewGiveawayService(giveawayRepo, activitySvc, nil)

	bot, err := discord.New(cfg, giveawaySvc, activitySvc)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create discord gateway")
	}
	giveawaySvc.SetAnnouncer(bot)

	if err := bot.Start(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start discord gateway")
	}
	logger.Info().Msg("Discord gateway started")

	expiration := giveawayservice.NewExpirationService(giveawaySvc, cfg.Scheduler.SweepInterval)
	expiration.Start()

	server := buildHTTPServer(cfg, giveawaySvc, activitySvc)
	go func() {
		logger.Info().Int("port", cfg.Server.Port).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to start HTTP server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("HTTP server forced to shutdown")
	}

	expiration.Stop()
	bot.Stop()
	logger.Info().Msg("Stopped")
}

func buildRepositories(cfg *config.Config) (activityrepo.ActivityRepository, giveawayrepo.GiveawayRepository, func()) {
	switch cfg.Storage {
	case "redis":
		client, err := redisplatform.NewClient(cfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to connect to redis")
		}
		logger.Info().Str("backend", "redis").Msg("Storage initialized")
		return activityredis.NewRedisActivityRepository(client),
			giveawayredis.NewRedisGiveawayRepository(client),
			func() { client.Close() }
	default:
		activityRepo, err := activityfile.NewFileActivityRepository(cfg.DataDir)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to open activity snapshot")
		}
		giveawayRepo, err := giveawayfile.NewFileGiveawayRepository(cfg.DataDir)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to open giveaway snapshot")
		}
		logger.Info().Str("backend", "file").Str("dir", cfg.DataDir).Msg("Storage initialized")
		return activityRepo, giveawayRepo, func() {}
	}
}

func buildHTTPServer(cfg *config.Config, giveaways *giveawayservice.GiveawayService, activity *activityservice.Service) *http.Server {
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Server.Origin}
	corsConfig.AllowMethods = []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Content-Type", "Authorization", "Accept", "X-Request-ID"}
	router.Use(cors.New(corsConfig))

	v1 := router.Group("/api/v1")
	giveawayhttp.NewGiveawayHandler(giveaways, activity).RegisterRoutes(v1)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC(),
			"service":   "activity-giveaway-bot",
		})
	})

	return &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}
