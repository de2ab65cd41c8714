package container

import (
	"context"
	"fmt"

	"captionclash/internal/config"
	"captionclash/internal/repository"
	"captionclash/internal/service"
	"captionclash/internal/service/auth"
	"captionclash/internal/service/platform"
	"captionclash/pkg/database"
	"captionclash/pkg/logger"
	"captionclash/pkg/redis"
)

// Container holds all application dependencies
type Container struct {
	Config      *config.Config
	Logger      *logger.Logger
	RedisClient *redis.Client
	DB          *database.PostgresDB // nil when no archive is configured

	AuthService    service.AuthService
	CaptionService *service.CaptionService
	ContestService *service.ContestService
	Scheduler      *service.TimerScheduler
}

// New creates a new dependency injection container. Redis is the system's
// only store of live contest state and is required; the Postgres settlement
// archive is optional.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Container, error) {
	if cfg.RedisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required")
	}

	redisClient, err := redis.NewClient(cfg.RedisURL, cfg.Environment, log.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Redis client: %w", err)
	}

	var db *database.PostgresDB
	var archive repository.ArchiveRepository
	if cfg.DatabaseURL != "" {
		db, err = database.NewPostgresDB(ctx, cfg.DatabaseURL)
		if err != nil {
			log.WithError(err).Warn("Failed to connect settlement archive, proceeding without it")
		} else {
			archive = repository.NewArchiveRepository(db)
			log.Info("Settlement archive connected")
		}
	} else {
		log.Info("DATABASE_URL not configured, settlements will not be archived")
	}

	contestRepo := repository.NewContestRepository(redisClient)
	entryRepo := repository.NewEntryRepository(redisClient)
	voteRepo := repository.NewVoteRepository(redisClient)

	authService := auth.NewService(cfg.JWTSecret, log)
	publisher := platform.NewClient(cfg, log)
	scheduler := service.NewTimerScheduler(log)

	captionService := service.NewCaptionService(contestRepo, entryRepo, voteRepo, log)
	contestService := service.NewContestService(
		contestRepo, entryRepo, publisher, archive, scheduler,
		cfg.ContestTopK, cfg.ContestDuration, log)
	scheduler.Bind(contestService.HandleSettlementDue)

	return &Container{
		Config:         cfg,
		Logger:         log,
		RedisClient:    redisClient,
		DB:             db,
		AuthService:    authService,
		CaptionService: captionService,
		ContestService: contestService,
		Scheduler:      scheduler,
	}, nil
}

// Close releases the container's connections.
func (c *Container) Close() error {
	if c.Scheduler != nil {
		c.Scheduler.Stop()
	}
	if c.DB != nil {
		c.DB.Close()
	}
	if c.RedisClient != nil {
		return c.RedisClient.Close()
	}
	return nil
}
